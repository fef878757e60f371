package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vegasq/salesql/frame"
)

// maxFiles limits how many files one pattern may expand to
const maxFiles = 1000

var (
	// ErrNoFilesMatched is returned when a scan pattern matches no files
	ErrNoFilesMatched = errors.New("no files found that match the pattern")

	// ErrUnsupportedFormat is returned for files whose extension has no reader
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrTooManyFiles is returned when a pattern expands beyond maxFiles
	ErrTooManyFiles = errors.New("glob pattern matched too many files")
)

// ScanOptions configures a multi-file scan
type ScanOptions struct {
	MaxRows int         // Stop once this many rows are read (0 = unlimited)
	Workers int         // Files read in parallel when MaxRows is 0 (default 1)
	CSV     *CSVOptions // CSV options (nil = DefaultCSVOptions)
}

// Glob expands a pattern into a sorted list of files.
//
// A pattern without wildcards is returned as is when the file exists. An
// empty result is not an error; callers decide what "nothing matched" means.
func Glob(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		if _, err := os.Stat(pattern); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to stat %s: %w", pattern, err)
		}
		return []string{pattern}, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	sort.Strings(matches)

	if len(matches) > maxFiles {
		return nil, fmt.Errorf("%w (%d), maximum is %d", ErrTooManyFiles, len(matches), maxFiles)
	}
	return matches, nil
}

// ReadFile reads one file, picking the reader from its extension.
func ReadFile(ctx context.Context, path string, opts ScanOptions) (*frame.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		csvOpts := csvOptions(opts)
		return ReadCSVContext(ctx, path, csvOpts)
	case ".tsv":
		csvOpts := csvOptions(opts)
		csvOpts.Delimiter = '\t'
		return ReadCSVContext(ctx, path, csvOpts)
	case ".parquet":
		return ReadParquet(ctx, path, opts.MaxRows)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func csvOptions(opts ScanOptions) CSVOptions {
	csvOpts := DefaultCSVOptions()
	if opts.CSV != nil {
		csvOpts = *opts.CSV
	}
	if opts.MaxRows > 0 && (csvOpts.MaxRows == 0 || csvOpts.MaxRows > opts.MaxRows) {
		csvOpts.MaxRows = opts.MaxRows
	}
	return csvOpts
}

// ReadMultipleFiles reads every file matching pattern and concatenates them
// in sorted path order.
//
// The pattern can include wildcards:
//   - * matches any sequence of non-separator characters
//   - ? matches any single non-separator character
//   - [range] matches any character in range
//
// With opts.MaxRows set, files are read one at a time and reading stops as soon
// as enough rows have been collected. Otherwise up to opts.Workers files are
// read concurrently. Returns ErrNoFilesMatched if nothing matches.
func ReadMultipleFiles(ctx context.Context, pattern string, opts ScanOptions) (*frame.DataFrame, error) {
	matches, err := Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFilesMatched, pattern)
	}

	if opts.MaxRows > 0 {
		return readUntil(ctx, matches, opts)
	}

	frames := make([]*frame.DataFrame, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, path := range matches {
		g.Go(func() error {
			df, err := ReadFile(gctx, path, opts)
			if err != nil {
				return err
			}
			frames[i] = df
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return frame.Concat(frames...)
}

// readUntil reads files in order until opts.MaxRows rows are available.
func readUntil(ctx context.Context, matches []string, opts ScanOptions) (*frame.DataFrame, error) {
	var frames []*frame.DataFrame
	remaining := opts.MaxRows
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileOpts := opts
		fileOpts.MaxRows = remaining
		df, err := ReadFile(ctx, path, fileOpts)
		if err != nil {
			return nil, err
		}
		frames = append(frames, df)

		remaining -= df.Len()
		if remaining <= 0 {
			break
		}
	}

	df, err := frame.Concat(frames...)
	if err != nil {
		return nil, err
	}
	if df.Len() > opts.MaxRows {
		df = df.Head(opts.MaxRows)
	}
	return df, nil
}
