package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vegasq/salesql/frame"
)

// ErrUnknownFormat is returned by NewFormatter for unsupported format names
var ErrUnknownFormat = errors.New("unknown output format")

// Formatter defines the interface for output formatters.
//
// Implementers must provide Format to render a frame in the target format
// and SetOutput to change the output destination.
type Formatter interface {
	// Format writes df in the formatter's specific format
	Format(df *frame.DataFrame) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Formats lists the names accepted by NewFormatter
var Formats = []string{"table", "json", "csv"}

// NewFormatter returns the formatter registered under name, writing to w
func NewFormatter(name string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(name) {
	case "table", "":
		return NewTableFormatter(w), nil
	case "json", "jsonl":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownFormat, name, strings.Join(Formats, ", "))
	}
}
