// Package reader loads CSV and Apache Parquet files into frame.DataFrames.
//
// This package offers a small, high-level API: read one file, or expand a
// glob pattern and concatenate every match in lexical order. The file format
// is picked from the extension (.csv, .tsv, .parquet).
//
// # Reading a CSV file
//
//	df, err := reader.ReadCSV("dataset/Sales_January_2019.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(df.Len(), df.ColumnNames())
//
// Column types are inferred from the data: a column whose non-null cells all
// parse as integers becomes BIGINT, floats become DOUBLE, true/false becomes
// BOOLEAN and everything else is VARCHAR. Empty and NA-like cells are NULL.
//
// # Multi-file Operations
//
// Reading multiple files using glob patterns:
//
//	df, err := reader.ReadMultipleFiles(ctx, "dataset/*.csv", reader.ScanOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// ScanOptions.MaxRows stops reading once enough rows have been produced, so
// a "LIMIT 10" over a large directory only touches the first file(s).
// ScanOptions.Workers reads files in parallel; results are still concatenated
// in glob order.
//
// # Errors
//
// ErrNoFilesMatched is returned when a pattern matches nothing, and ErrParse
// wraps every malformed-CSV failure. Both can be tested with errors.Is.
//
// The package uses github.com/parquet-go/parquet-go for parquet files.
package reader
