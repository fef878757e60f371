package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vegasq/salesql/frame"
)

// ErrParse wraps every error caused by malformed CSV input
var ErrParse = errors.New("csv parse error")

// cancellation is checked every this many rows
const checkEvery = 4096

// CSVOptions configures CSV reading behavior
type CSVOptions struct {
	Delimiter  rune     // Field delimiter (default ',')
	NullValues []string // Cells treated as NULL
	InferTypes bool     // Auto-detect column types (otherwise all VARCHAR)
	MaxRows    int      // Max data rows to read (0 = unlimited)
}

// DefaultCSVOptions returns default CSV reading options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:  ',',
		NullValues: []string{"", "NA", "N/A", "NULL", "null", "NaN", "nan"},
		InferTypes: true,
	}
}

// ReadCSV reads a whole CSV file into a DataFrame.
//
// The first record is the header. Returns an error wrapping ErrParse if the
// file is not valid CSV or a record has more fields than the header.
func ReadCSV(path string, opts ...CSVOptions) (*frame.DataFrame, error) {
	return ReadCSVContext(context.Background(), path, opts...)
}

// ReadCSVContext is ReadCSV with cancellation
func ReadCSVContext(ctx context.Context, path string, opts ...CSVOptions) (*frame.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	df, err := ReadCSVFrom(ctx, f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// ReadCSVFrom reads CSV data from an io.Reader into a DataFrame
func ReadCSVFrom(ctx context.Context, r io.Reader, opts ...CSVOptions) (*frame.DataFrame, error) {
	opt := DefaultCSVOptions()
	if len(opts) > 0 {
		opt = opts[0]
		if opt.Delimiter == 0 {
			opt.Delimiter = ','
		}
	}

	cr := csv.NewReader(r)
	cr.Comma = opt.Delimiter
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header row", ErrParse)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	headers := normalizeHeader(header)

	var records [][]string
	for {
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			break
		}
		if len(records)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		if len(record) > len(headers) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: expected %d fields, saw %d", ErrParse, line, len(headers), len(record))
		}
		records = append(records, record)
	}

	nulls := make(map[string]bool, len(opt.NullValues))
	for _, nv := range opt.NullValues {
		nulls[nv] = true
	}

	columns := make([]frame.Column, len(headers))
	for i, name := range headers {
		dtype := frame.Varchar
		if opt.InferTypes {
			dtype = inferColumnType(records, i, nulls)
		}
		columns[i] = frame.Column{Name: name, Type: dtype}
	}

	rows := make([]frame.Row, len(records))
	for r, record := range records {
		row := make(frame.Row, len(columns))
		for i, c := range columns {
			if i >= len(record) || nulls[record[i]] {
				row[c.Name] = nil
				continue
			}
			row[c.Name] = parseCell(record[i], c.Type)
		}
		rows[r] = row
	}

	return frame.New(columns, rows), nil
}

// normalizeHeader strips a UTF-8 BOM, names blank headers and de-duplicates
// repeated names with a numeric suffix ("Price", "Price.1").
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("column%d", i)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func inferColumnType(records [][]string, colIdx int, nulls map[string]bool) frame.DType {
	hasInt := false
	hasFloat := false
	hasBool := false
	hasString := false

	for _, record := range records {
		if colIdx >= len(record) || nulls[record[colIdx]] {
			continue
		}
		val := strings.TrimSpace(record[colIdx])

		lower := strings.ToLower(val)
		if lower == "true" || lower == "false" {
			hasBool = true
			continue
		}
		if _, err := strconv.ParseInt(val, 10, 64); err == nil {
			hasInt = true
			continue
		}
		if _, err := strconv.ParseFloat(val, 64); err == nil {
			hasFloat = true
			continue
		}
		hasString = true
		break
	}

	switch {
	case hasString, hasBool && (hasInt || hasFloat):
		return frame.Varchar
	case hasFloat:
		return frame.Double
	case hasInt:
		return frame.BigInt
	case hasBool:
		return frame.Boolean
	default:
		return frame.Varchar
	}
}

// parseCell converts a raw cell to the column's inferred type. Inference
// guarantees the conversion succeeds for non-VARCHAR columns.
func parseCell(raw string, dtype frame.DType) interface{} {
	val := strings.TrimSpace(raw)
	switch dtype {
	case frame.BigInt:
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	case frame.Double:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	case frame.Boolean:
		return strings.EqualFold(val, "true")
	}
	return raw
}
