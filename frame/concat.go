package frame

import "errors"

// ErrEmptyInput is returned by Concat when there is nothing to concatenate
var ErrEmptyInput = errors.New("no objects to concatenate")

// Concat stacks frames vertically, keeping frame order and then row order.
//
// The result's columns are the union of the inputs' columns in first-seen
// order. A column missing from one input reads as NULL for that input's rows.
// When inputs disagree on a column's type the column is widened with Unify and
// values are converted accordingly.
func Concat(frames ...*DataFrame) (*DataFrame, error) {
	inputs := make([]*DataFrame, 0, len(frames))
	for _, f := range frames {
		if f != nil {
			inputs = append(inputs, f)
		}
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyInput
	}

	var columns []Column
	index := make(map[string]int)
	total := 0
	for _, f := range inputs {
		total += f.Len()
		for _, c := range f.columns {
			if i, ok := index[c.Name]; ok {
				columns[i].Type = Unify(columns[i].Type, c.Type)
				continue
			}
			index[c.Name] = len(columns)
			columns = append(columns, c)
		}
	}

	rows := make([]Row, 0, total)
	for _, f := range inputs {
		// Only rows whose column type changed need rewriting.
		var widened []Column
		for _, c := range columns {
			if own, ok := f.Column(c.Name); ok && own.Type != c.Type {
				widened = append(widened, c)
			}
		}
		if len(widened) == 0 {
			rows = append(rows, f.rows...)
			continue
		}
		for _, row := range f.rows {
			cp := make(Row, len(row))
			for k, v := range row {
				cp[k] = v
			}
			for _, c := range widened {
				cp[c.Name] = Convert(row[c.Name], c.Type)
			}
			rows = append(rows, cp)
		}
	}

	return &DataFrame{columns: columns, rows: rows}, nil
}
