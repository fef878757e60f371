package output

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/salesql/frame"
)

// TableFormatter renders a frame as an aligned text table
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (t *TableFormatter) SetOutput(w io.Writer) {
	t.writer = w
}

// Format writes the table and a row count line. NULL cells print as NULL.
func (t *TableFormatter) Format(df *frame.DataFrame) error {
	columns := df.Columns()
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Name
	}

	data := make([][]string, 0, df.Len())
	for _, row := range df.Rows() {
		cells := make([]string, len(columns))
		for i, c := range columns {
			if v := row[c.Name]; v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = frame.FormatValue(v)
			}
		}
		data = append(data, cells)
	}

	table := tablewriter.NewWriter(t.writer)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()

	_, err := fmt.Fprintf(t.writer, "%d rows x %d columns\n", df.Len(), df.Width())
	return err
}
