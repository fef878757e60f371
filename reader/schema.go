package reader

import (
	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/salesql/frame"
)

// schemaColumns maps the top-level fields of a parquet schema to frame columns.
//
// Group (nested) fields are exposed as a single VARCHAR column holding their
// rendered value.
func schemaColumns(schema *parquet.Schema) []frame.Column {
	fields := schema.Fields()
	columns := make([]frame.Column, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, frame.Column{
			Name: field.Name(),
			Type: fieldType(field),
		})
	}
	return columns
}

// fieldType converts Parquet's physical and logical types into a frame type.
func fieldType(field parquet.Field) frame.DType {
	if field.Type() == nil || len(field.Fields()) > 0 || field.Repeated() {
		return frame.Varchar
	}

	// Check logical type first for more specific typing
	if logicalType := field.Type().LogicalType(); logicalType != nil {
		switch logicalType.String() {
		case "STRING", "UTF8", "ENUM", "UUID", "JSON":
			return frame.Varchar
		case "DATE", "TIME", "TIMESTAMP":
			return frame.Varchar
		case "DECIMAL":
			return frame.Double
		}
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return frame.Boolean
	case parquet.Int32:
		return frame.Integer
	case parquet.Int64:
		return frame.BigInt
	case parquet.Float, parquet.Double:
		return frame.Double
	default:
		return frame.Varchar
	}
}
