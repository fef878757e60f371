// Package output renders dataframes for the terminal and for other tools.
//
// Every formatter satisfies the Formatter interface and writes columns in the
// frame's column order:
//
//   - table: an aligned text grid followed by the row count
//   - json: JSON Lines, one object per row
//   - csv: a header row, then one record per row
//
// # Basic Usage
//
//	formatter, err := output.NewFormatter("csv", os.Stdout)
//	if err != nil {
//	    return err
//	}
//	if err := formatter.Format(df); err != nil {
//	    return err
//	}
//
// # Type Handling
//
// The table and CSV formatters render values with frame.FormatValue, so
// doubles keep a decimal point. NULL is an empty CSV cell and prints as NULL
// in a table. The JSON formatter
// keeps numbers and booleans as JSON scalars, NULL as null and VARCHAR[]
// values as arrays.
package output
