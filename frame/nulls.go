package frame

// DropHow selects which rows DropNulls removes
type DropHow int

const (
	// DropAll removes rows where every column is NULL
	DropAll DropHow = iota
	// DropAny removes rows where at least one column is NULL
	DropAny
)

// IsNull reports whether a row value counts as missing
func IsNull(v interface{}) bool {
	return v == nil
}

// NullCounts returns one row per column with the number of NULL values in it.
// The result has columns column_name (VARCHAR) and null_count (BIGINT).
func (df *DataFrame) NullCounts() *DataFrame {
	counts := make([]int64, len(df.columns))
	for _, row := range df.rows {
		for i, c := range df.columns {
			if IsNull(row[c.Name]) {
				counts[i]++
			}
		}
	}

	rows := make([]Row, len(df.columns))
	for i, c := range df.columns {
		rows[i] = Row{"column_name": c.Name, "null_count": counts[i]}
	}
	return New([]Column{
		{Name: "column_name", Type: Varchar},
		{Name: "null_count", Type: BigInt},
	}, rows)
}

// DropNulls returns a frame without the rows selected by how.
//
// The receiver is left untouched; rows that survive are shared with it.
func (df *DataFrame) DropNulls(how DropHow) *DataFrame {
	return df.Filter(func(row Row) bool {
		nulls := 0
		for _, c := range df.columns {
			if IsNull(row[c.Name]) {
				nulls++
			}
		}
		switch how {
		case DropAny:
			return nulls == 0
		default:
			return len(df.columns) == 0 || nulls < len(df.columns)
		}
	})
}
