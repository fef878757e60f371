// Package frame provides an in-memory, row-oriented dataframe.
//
// A DataFrame keeps an ordered, typed column list next to its rows. Rows are
// maps keyed by column name, so a frame can be handed to the query package
// and filtered or projected without copying column vectors around.
//
// Operations never mutate the receiver: Head, DropNulls, Filter and friends
// return a new DataFrame that may share rows with the original. Use Clone when
// an independent copy is required.
package frame

import "fmt"

// Row is a single record keyed by column name
type Row = map[string]interface{}

// Column describes one column of a DataFrame
type Column struct {
	Name string
	Type DType
}

// DataFrame is an ordered set of typed columns plus the rows holding them.
type DataFrame struct {
	columns []Column
	rows    []Row
}

// New creates a DataFrame from a column list and rows.
//
// Rows are stored as given. Keys not listed in columns are ignored by every
// operation; listed columns missing from a row read as NULL.
func New(columns []Column, rows []Row) *DataFrame {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	if rows == nil {
		rows = []Row{}
	}
	return &DataFrame{columns: cols, rows: rows}
}

// Empty returns a frame with the given columns and no rows
func Empty(columns ...Column) *DataFrame {
	return New(columns, nil)
}

// Len returns the number of rows
func (df *DataFrame) Len() int {
	if df == nil {
		return 0
	}
	return len(df.rows)
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	if df == nil {
		return 0
	}
	return len(df.columns)
}

// Columns returns a copy of the column list
func (df *DataFrame) Columns() []Column {
	if df == nil {
		return nil
	}
	cols := make([]Column, len(df.columns))
	copy(cols, df.columns)
	return cols
}

// ColumnNames returns column names in order
func (df *DataFrame) ColumnNames() []string {
	if df == nil {
		return nil
	}
	names := make([]string, len(df.columns))
	for i, c := range df.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by exact name
func (df *DataFrame) Column(name string) (Column, bool) {
	if df == nil {
		return Column{}, false
	}
	for _, c := range df.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Rows returns the underlying rows. Callers must not modify them.
func (df *DataFrame) Rows() []Row {
	if df == nil {
		return nil
	}
	return df.rows
}

// Row returns the i-th row
func (df *DataFrame) Row(i int) Row {
	return df.rows[i]
}

// Value returns the value of column name in row i (nil when absent)
func (df *DataFrame) Value(i int, name string) interface{} {
	return df.rows[i][name]
}

// Head returns the first n rows (all rows if n exceeds Len)
func (df *DataFrame) Head(n int) *DataFrame {
	if n < 0 {
		n = 0
	}
	if n > df.Len() {
		n = df.Len()
	}
	return &DataFrame{columns: df.Columns(), rows: df.rows[:n:n]}
}

// Slice returns rows in [start, end)
func (df *DataFrame) Slice(start, end int) (*DataFrame, error) {
	if start < 0 || end > df.Len() || start > end {
		return nil, fmt.Errorf("slice [%d:%d] out of range for %d rows", start, end, df.Len())
	}
	return &DataFrame{columns: df.Columns(), rows: df.rows[start:end:end]}, nil
}

// Filter returns the rows for which keep returns true
func (df *DataFrame) Filter(keep func(Row) bool) *DataFrame {
	out := make([]Row, 0, df.Len())
	for _, row := range df.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return &DataFrame{columns: df.Columns(), rows: out}
}

// Select projects the frame onto the named columns, in the order given.
func (df *DataFrame) Select(names ...string) (*DataFrame, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		c, ok := df.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		cols = append(cols, c)
	}
	rows := make([]Row, len(df.rows))
	for i, row := range df.rows {
		projected := make(Row, len(cols))
		for _, c := range cols {
			projected[c.Name] = row[c.Name]
		}
		rows[i] = projected
	}
	return &DataFrame{columns: cols, rows: rows}, nil
}

// Clone returns a deep copy: later changes to either frame's rows are not
// visible through the other.
func (df *DataFrame) Clone() *DataFrame {
	if df == nil {
		return nil
	}
	rows := make([]Row, len(df.rows))
	for i, row := range df.rows {
		cp := make(Row, len(row))
		for k, v := range row {
			if list, ok := v.([]string); ok {
				v = append([]string(nil), list...)
			}
			cp[k] = v
		}
		rows[i] = cp
	}
	return &DataFrame{columns: df.Columns(), rows: rows}
}

// String renders a short description such as "DataFrame[3 rows x 5 columns]"
func (df *DataFrame) String() string {
	return fmt.Sprintf("DataFrame[%d rows x %d columns]", df.Len(), df.Width())
}
