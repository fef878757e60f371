package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vegasq/salesql/frame"
)

// JSONFormatter outputs rows as JSON Lines format
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes one JSON object per row, keys in column order
func (j *JSONFormatter) Format(df *frame.DataFrame) error {
	bw := bufio.NewWriter(j.writer)
	names := df.ColumnNames()

	for _, row := range df.Rows() {
		bw.WriteByte('{')
		for i, name := range names {
			if i > 0 {
				bw.WriteByte(',')
			}
			key, err := json.Marshal(name)
			if err != nil {
				return err
			}
			value, err := json.Marshal(row[name])
			if err != nil {
				return fmt.Errorf("failed to encode column %s: %w", name, err)
			}
			bw.Write(key)
			bw.WriteByte(':')
			bw.Write(value)
		}
		bw.WriteString("}\n")
	}
	return bw.Flush()
}
