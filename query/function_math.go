package query

import (
	"fmt"
	"math"

	"github.com/vegasq/salesql/frame"
)

// Math Functions

// sameNumeric returns the argument type for numeric args and DOUBLE otherwise
func sameNumeric(args []frame.DType) frame.DType {
	if len(args) > 0 && args[0].IsNumeric() {
		return args[0]
	}
	return frame.Double
}

// AbsFunc returns the absolute value, keeping integer types
type AbsFunc struct{}

func (f *AbsFunc) Name() string                           { return "ABS" }
func (f *AbsFunc) MinArity() int                          { return 1 }
func (f *AbsFunc) MaxArity() int                          { return 1 }
func (f *AbsFunc) ReturnType(a []frame.DType) frame.DType { return sameNumeric(a) }
func (f *AbsFunc) Evaluate(args []interface{}) (interface{}, error) {
	switch v := args[0].(type) {
	case int32:
		if v == math.MinInt32 {
			return nil, fmt.Errorf("%w: ABS(%d) is out of range for INTEGER", ErrConversion, v)
		}
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case int64:
		if v == math.MinInt64 {
			return nil, fmt.Errorf("%w: ABS(%d) is out of range for BIGINT", ErrConversion, v)
		}
		if v < 0 {
			return -v, nil
		}
		return v, nil
	}
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("ABS: %w", err)
	}
	return math.Abs(num), nil
}

// RoundFunc rounds to a number of decimal places (default 0)
type RoundFunc struct{}

func (f *RoundFunc) Name() string                           { return "ROUND" }
func (f *RoundFunc) MinArity() int                          { return 1 }
func (f *RoundFunc) MaxArity() int                          { return 2 }
func (f *RoundFunc) ReturnType(a []frame.DType) frame.DType { return sameNumeric(a) }
func (f *RoundFunc) Evaluate(args []interface{}) (interface{}, error) {
	switch args[0].(type) {
	case int32, int64:
		return args[0], nil
	}

	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("ROUND: %w", err)
	}

	places := 0
	if len(args) == 2 {
		if places, err = valueToInt(args[1]); err != nil {
			return nil, fmt.Errorf("ROUND: decimals: %w", err)
		}
	}

	multiplier := math.Pow(10, float64(places))
	return math.Round(num*multiplier) / multiplier, nil
}

// FloorFunc rounds down
type FloorFunc struct{}

func (f *FloorFunc) Name() string                           { return "FLOOR" }
func (f *FloorFunc) MinArity() int                          { return 1 }
func (f *FloorFunc) MaxArity() int                          { return 1 }
func (f *FloorFunc) ReturnType(a []frame.DType) frame.DType { return sameNumeric(a) }
func (f *FloorFunc) Evaluate(args []interface{}) (interface{}, error) {
	switch args[0].(type) {
	case int32, int64:
		return args[0], nil
	}
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("FLOOR: %w", err)
	}
	return math.Floor(num), nil
}

// CeilFunc rounds up
type CeilFunc struct{}

func (f *CeilFunc) Name() string                           { return "CEIL" }
func (f *CeilFunc) MinArity() int                          { return 1 }
func (f *CeilFunc) MaxArity() int                          { return 1 }
func (f *CeilFunc) ReturnType(a []frame.DType) frame.DType { return sameNumeric(a) }
func (f *CeilFunc) Evaluate(args []interface{}) (interface{}, error) {
	switch args[0].(type) {
	case int32, int64:
		return args[0], nil
	}
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("CEIL: %w", err)
	}
	return math.Ceil(num), nil
}

// ModFunc returns the remainder of a division (NULL when dividing by zero)
type ModFunc struct{}

func (f *ModFunc) Name() string  { return "MOD" }
func (f *ModFunc) MinArity() int { return 2 }
func (f *ModFunc) MaxArity() int { return 2 }
func (f *ModFunc) ReturnType(a []frame.DType) frame.DType {
	return arithType(TokenPercent, a[0], a[1])
}
func (f *ModFunc) Evaluate(args []interface{}) (interface{}, error) {
	return arith(TokenPercent, args[0], args[1])
}

// SqrtFunc returns the square root
type SqrtFunc struct{}

func (f *SqrtFunc) Name() string                         { return "SQRT" }
func (f *SqrtFunc) MinArity() int                        { return 1 }
func (f *SqrtFunc) MaxArity() int                        { return 1 }
func (f *SqrtFunc) ReturnType([]frame.DType) frame.DType { return frame.Double }
func (f *SqrtFunc) Evaluate(args []interface{}) (interface{}, error) {
	num, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("SQRT: %w", err)
	}
	if num < 0 {
		return nil, fmt.Errorf("SQRT: negative number")
	}
	return math.Sqrt(num), nil
}

// PowFunc returns x raised to the power of y
type PowFunc struct{}

func (f *PowFunc) Name() string                         { return "POWER" }
func (f *PowFunc) MinArity() int                        { return 2 }
func (f *PowFunc) MaxArity() int                        { return 2 }
func (f *PowFunc) ReturnType([]frame.DType) frame.DType { return frame.Double }
func (f *PowFunc) Evaluate(args []interface{}) (interface{}, error) {
	x, err := valueToNumber(args[0])
	if err != nil {
		return nil, fmt.Errorf("POWER: base: %w", err)
	}

	y, err := valueToNumber(args[1])
	if err != nil {
		return nil, fmt.Errorf("POWER: exponent: %w", err)
	}

	return math.Pow(x, y), nil
}
