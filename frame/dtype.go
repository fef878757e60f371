package frame

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DType is the logical type of a column.
type DType int

const (
	Null        DType = iota // untyped NULL literal
	Boolean                  // bool
	Integer                  // int32
	BigInt                   // int64
	Double                   // float64
	Varchar                  // string
	VarcharList              // []string
)

// ErrUnknownType is returned when a type name cannot be resolved
var ErrUnknownType = errors.New("unknown type")

// String returns the SQL name of the type
func (t DType) String() string {
	switch t {
	case Null:
		return "NULL"
	case Boolean:
		return "BOOLEAN"
	case Integer:
		return "INTEGER"
	case BigInt:
		return "BIGINT"
	case Double:
		return "DOUBLE"
	case Varchar:
		return "VARCHAR"
	case VarcharList:
		return "VARCHAR[]"
	default:
		return fmt.Sprintf("DType(%d)", int(t))
	}
}

// IsNumeric reports whether values of the type take part in arithmetic
func (t DType) IsNumeric() bool {
	return t == Integer || t == BigInt || t == Double
}

// ParseType resolves a SQL type name (case-insensitive, common aliases accepted).
func ParseType(name string) (DType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "BOOLEAN", "BOOL", "LOGICAL":
		return Boolean, nil
	case "INTEGER", "INT", "INT4", "INT32", "SIGNED":
		return Integer, nil
	case "BIGINT", "INT8", "INT64", "LONG":
		return BigInt, nil
	case "DOUBLE", "FLOAT8", "FLOAT", "FLOAT4", "REAL", "DECIMAL", "NUMERIC":
		return Double, nil
	case "VARCHAR", "TEXT", "STRING", "CHAR", "BPCHAR":
		return Varchar, nil
	case "VARCHAR[]", "TEXT[]", "STRING[]":
		return VarcharList, nil
	default:
		return Null, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
}

// TypeOf returns the DType of a Go value as stored in a Row.
func TypeOf(v interface{}) DType {
	switch v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case int32:
		return Integer
	case int, int64, int8, int16, uint8, uint16, uint32:
		return BigInt
	case float32, float64:
		return Double
	case []string:
		return VarcharList
	default:
		return Varchar
	}
}

// Unify returns the narrowest type both a and b can be stored as.
func Unify(a, b DType) DType {
	if a == b {
		return a
	}
	if a == Null {
		return b
	}
	if b == Null {
		return a
	}
	if a.IsNumeric() && b.IsNumeric() {
		if a == Double || b == Double {
			return Double
		}
		return BigInt
	}
	return Varchar
}

// Convert widens v into type t. It only performs the lossless conversions
// Unify can ask for; anything else is rendered as VARCHAR.
func Convert(v interface{}, t DType) interface{} {
	if v == nil {
		return nil
	}
	switch t {
	case BigInt:
		switch n := v.(type) {
		case int32:
			return int64(n)
		case int:
			return int64(n)
		}
	case Double:
		switch n := v.(type) {
		case int32:
			return float64(n)
		case int64:
			return float64(n)
		case int:
			return float64(n)
		}
	case Varchar:
		if _, ok := v.(string); !ok {
			return FormatValue(v)
		}
	}
	return v
}

// FormatValue renders a value the way it is shown to users and cast to VARCHAR.
// NULL renders as the empty string.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
