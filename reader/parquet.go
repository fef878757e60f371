package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/salesql/frame"
)

// ParquetReader reads a parquet file into a DataFrame.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type ParquetReader struct {
	file   *os.File
	pqFile *parquet.File
}

// NewParquetReader opens and validates a parquet file.
//
// Returns an error if the file doesn't exist or is not a valid parquet file.
func NewParquetReader(path string) (*ParquetReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	return &ParquetReader{
		file:   file,
		pqFile: pqFile,
	}, nil
}

// Columns returns the frame columns derived from the parquet schema
func (r *ParquetReader) Columns() []frame.Column {
	return schemaColumns(r.pqFile.Schema())
}

// ReadAll reads up to maxRows rows (0 = all) into a DataFrame.
func (r *ParquetReader) ReadAll(ctx context.Context, maxRows int) (*frame.DataFrame, error) {
	columns := r.Columns()
	rows := make([]frame.Row, 0)

	pr := parquet.NewReader(r.pqFile)
	defer func() { _ = pr.Close() }()

	for maxRows <= 0 || len(rows) < maxRows {
		if len(rows)%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		raw := make(map[string]interface{})
		if err := pr.Read(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		row := make(frame.Row, len(columns))
		for _, c := range columns {
			row[c.Name] = normalizeParquetValue(raw[c.Name], c.Type)
		}
		rows = append(rows, row)
	}

	return frame.New(columns, rows), nil
}

// Close releases the file handle. It is safe to call Close multiple times.
func (r *ParquetReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ReadParquet reads a whole parquet file into a DataFrame
func ReadParquet(ctx context.Context, path string, maxRows int) (*frame.DataFrame, error) {
	r, err := NewParquetReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	df, err := r.ReadAll(ctx, maxRows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// normalizeParquetValue maps decoded parquet values onto the Go types a
// DataFrame stores for the column type.
func normalizeParquetValue(v interface{}, dtype frame.DType) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case float32:
		return float64(val)
	case int:
		return int64(val)
	case int8:
		return int32(val)
	case int16:
		return int32(val)
	case uint8:
		return int32(val)
	case uint16:
		return int32(val)
	case uint32:
		return int64(val)
	case int32, int64, float64, string, bool:
		return val
	default:
		if dtype == frame.Varchar {
			return frame.FormatValue(val)
		}
		return val
	}
}
