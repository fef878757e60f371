package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vegasq/salesql/frame"
)

// castValue converts v to type t. NULL casts to NULL; failures wrap
// ErrConversion.
func castValue(v interface{}, t frame.DType) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case frame.Null:
		return nil, nil
	case frame.Varchar:
		return frame.FormatValue(v), nil
	case frame.Integer:
		n, err := castInt(v, 32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case frame.BigInt:
		return castInt(v, 64)
	case frame.Double:
		return castDouble(v)
	case frame.Boolean:
		return castBool(v)
	case frame.VarcharList:
		switch val := v.(type) {
		case []string:
			return val, nil
		case string:
			return []string{val}, nil
		}
	}
	return nil, conversionError(v, t)
}

func conversionError(v interface{}, t frame.DType) error {
	if s, ok := v.(string); ok {
		return fmt.Errorf("%w: could not convert string '%s' to %s", ErrConversion, s, t)
	}
	return fmt.Errorf("%w: could not convert %s value %s to %s", ErrConversion, frame.TypeOf(v), frame.FormatValue(v), t)
}

// castInt converts to an integer of the given bit size, range-checked.
// Doubles are rounded half away from zero.
func castInt(v interface{}, bits int) (int64, error) {
	target := frame.BigInt
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	if bits == 32 {
		target = frame.Integer
		lo, hi = math.MinInt32, math.MaxInt32
	}

	var n int64
	switch val := v.(type) {
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case int32:
		n = int64(val)
	case int64:
		n = val
	case int:
		n = int64(val)
	case float64:
		r := math.Round(val)
		// float64(MaxInt64) rounds up to 2^63, so bound 64-bit casts exactly
		if math.IsNaN(r) || r < -0x1p63 || r >= 0x1p63 || r < float64(lo) || r > float64(hi) {
			return 0, conversionError(v, target)
		}
		n = int64(r)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, bits)
		if err != nil {
			return 0, conversionError(v, target)
		}
		n = parsed
	default:
		return 0, conversionError(v, target)
	}

	if n < lo || n > hi {
		return 0, conversionError(v, target)
	}
	return n, nil
}

func castDouble(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case bool:
		if val {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, conversionError(v, frame.Double)
		}
		return f, nil
	default:
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
		return nil, conversionError(v, frame.Double)
	}
}

func castBool(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		}
	default:
		if f, ok := toFloat64(v); ok {
			return f != 0, nil
		}
	}
	return nil, conversionError(v, frame.Boolean)
}
