package query

import (
	"fmt"
	"strings"

	"github.com/vegasq/salesql/frame"
)

// String Functions

func varcharResult([]frame.DType) frame.DType { return frame.Varchar }

// UpperFunc converts a string to uppercase
type UpperFunc struct{}

func (f *UpperFunc) Name() string                           { return "UPPER" }
func (f *UpperFunc) MinArity() int                          { return 1 }
func (f *UpperFunc) MaxArity() int                          { return 1 }
func (f *UpperFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *UpperFunc) Evaluate(args []interface{}) (interface{}, error) {
	return strings.ToUpper(valueToString(args[0])), nil
}

// LowerFunc converts a string to lowercase
type LowerFunc struct{}

func (f *LowerFunc) Name() string                           { return "LOWER" }
func (f *LowerFunc) MinArity() int                          { return 1 }
func (f *LowerFunc) MaxArity() int                          { return 1 }
func (f *LowerFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *LowerFunc) Evaluate(args []interface{}) (interface{}, error) {
	return strings.ToLower(valueToString(args[0])), nil
}

// ConcatFunc concatenates its arguments, skipping NULLs
type ConcatFunc struct{}

func (f *ConcatFunc) Name() string                           { return "CONCAT" }
func (f *ConcatFunc) MinArity() int                          { return 1 }
func (f *ConcatFunc) MaxArity() int                          { return -1 } // variadic
func (f *ConcatFunc) HandlesNull() bool                      { return true }
func (f *ConcatFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *ConcatFunc) Evaluate(args []interface{}) (interface{}, error) {
	var sb strings.Builder
	for _, arg := range args {
		if arg != nil {
			sb.WriteString(valueToString(arg))
		}
	}
	return sb.String(), nil
}

// LengthFunc returns the number of characters in a string
type LengthFunc struct{}

func (f *LengthFunc) Name() string                         { return "LENGTH" }
func (f *LengthFunc) MinArity() int                        { return 1 }
func (f *LengthFunc) MaxArity() int                        { return 1 }
func (f *LengthFunc) ReturnType([]frame.DType) frame.DType { return frame.BigInt }
func (f *LengthFunc) Evaluate(args []interface{}) (interface{}, error) {
	if list, ok := args[0].([]string); ok {
		return int64(len(list)), nil
	}
	return int64(len([]rune(valueToString(args[0])))), nil
}

// TrimFunc removes surrounding whitespace
type TrimFunc struct{}

func (f *TrimFunc) Name() string                           { return "TRIM" }
func (f *TrimFunc) MinArity() int                          { return 1 }
func (f *TrimFunc) MaxArity() int                          { return 2 }
func (f *TrimFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *TrimFunc) Evaluate(args []interface{}) (interface{}, error) {
	if len(args) == 2 {
		return strings.Trim(valueToString(args[0]), valueToString(args[1])), nil
	}
	return strings.TrimSpace(valueToString(args[0])), nil
}

// LTrimFunc removes leading whitespace
type LTrimFunc struct{}

func (f *LTrimFunc) Name() string                           { return "LTRIM" }
func (f *LTrimFunc) MinArity() int                          { return 1 }
func (f *LTrimFunc) MaxArity() int                          { return 1 }
func (f *LTrimFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *LTrimFunc) Evaluate(args []interface{}) (interface{}, error) {
	return strings.TrimLeft(valueToString(args[0]), " \t\r\n"), nil
}

// RTrimFunc removes trailing whitespace
type RTrimFunc struct{}

func (f *RTrimFunc) Name() string                           { return "RTRIM" }
func (f *RTrimFunc) MinArity() int                          { return 1 }
func (f *RTrimFunc) MaxArity() int                          { return 1 }
func (f *RTrimFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *RTrimFunc) Evaluate(args []interface{}) (interface{}, error) {
	return strings.TrimRight(valueToString(args[0]), " \t\r\n"), nil
}

// SubstringFunc extracts a substring (1-indexed, SQL style)
type SubstringFunc struct{}

func (f *SubstringFunc) Name() string                           { return "SUBSTRING" }
func (f *SubstringFunc) MinArity() int                          { return 2 }
func (f *SubstringFunc) MaxArity() int                          { return 3 }
func (f *SubstringFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *SubstringFunc) Evaluate(args []interface{}) (interface{}, error) {
	str := []rune(valueToString(args[0]))

	start, err := valueToInt(args[1])
	if err != nil {
		return nil, fmt.Errorf("SUBSTRING: start: %w", err)
	}
	startIdx := start - 1 // SQL uses 1-based indexing

	endIdx := len(str)
	if len(args) == 3 {
		length, err := valueToInt(args[2])
		if err != nil {
			return nil, fmt.Errorf("SUBSTRING: length: %w", err)
		}
		if length < 0 {
			return "", nil
		}
		endIdx = startIdx + length
	}

	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(str) {
		endIdx = len(str)
	}
	if startIdx >= endIdx {
		return "", nil
	}
	return string(str[startIdx:endIdx]), nil
}

// ReplaceFunc replaces occurrences of a substring
type ReplaceFunc struct{}

func (f *ReplaceFunc) Name() string                           { return "REPLACE" }
func (f *ReplaceFunc) MinArity() int                          { return 3 }
func (f *ReplaceFunc) MaxArity() int                          { return 3 }
func (f *ReplaceFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *ReplaceFunc) Evaluate(args []interface{}) (interface{}, error) {
	return strings.ReplaceAll(valueToString(args[0]), valueToString(args[1]), valueToString(args[2])), nil
}

// SplitFunc splits a string by a delimiter into a VARCHAR[] list
type SplitFunc struct{}

func (f *SplitFunc) Name() string                         { return "STR_SPLIT" }
func (f *SplitFunc) MinArity() int                        { return 2 }
func (f *SplitFunc) MaxArity() int                        { return 2 }
func (f *SplitFunc) ReturnType([]frame.DType) frame.DType { return frame.VarcharList }
func (f *SplitFunc) Evaluate(args []interface{}) (interface{}, error) {
	str := valueToString(args[0])
	delim := valueToString(args[1])
	if delim == "" {
		// split into characters
		runes := []rune(str)
		out := make([]string, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out, nil
	}
	return strings.Split(str, delim), nil
}

// ReverseFunc reverses a string
type ReverseFunc struct{}

func (f *ReverseFunc) Name() string                           { return "REVERSE" }
func (f *ReverseFunc) MinArity() int                          { return 1 }
func (f *ReverseFunc) MaxArity() int                          { return 1 }
func (f *ReverseFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *ReverseFunc) Evaluate(args []interface{}) (interface{}, error) {
	runes := []rune(valueToString(args[0]))
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes), nil
}

// ContainsFunc reports whether a string contains a substring
type ContainsFunc struct{}

func (f *ContainsFunc) Name() string                         { return "CONTAINS" }
func (f *ContainsFunc) MinArity() int                        { return 2 }
func (f *ContainsFunc) MaxArity() int                        { return 2 }
func (f *ContainsFunc) ReturnType([]frame.DType) frame.DType { return frame.Boolean }
func (f *ContainsFunc) Evaluate(args []interface{}) (interface{}, error) {
	return strings.Contains(valueToString(args[0]), valueToString(args[1])), nil
}

// StartsWithFunc reports whether a string starts with a prefix
type StartsWithFunc struct{}

func (f *StartsWithFunc) Name() string                         { return "STARTS_WITH" }
func (f *StartsWithFunc) MinArity() int                        { return 2 }
func (f *StartsWithFunc) MaxArity() int                        { return 2 }
func (f *StartsWithFunc) ReturnType([]frame.DType) frame.DType { return frame.Boolean }
func (f *StartsWithFunc) Evaluate(args []interface{}) (interface{}, error) {
	return strings.HasPrefix(valueToString(args[0]), valueToString(args[1])), nil
}

// EndsWithFunc reports whether a string ends with a suffix
type EndsWithFunc struct{}

func (f *EndsWithFunc) Name() string                         { return "ENDS_WITH" }
func (f *EndsWithFunc) MinArity() int                        { return 2 }
func (f *EndsWithFunc) MaxArity() int                        { return 2 }
func (f *EndsWithFunc) ReturnType([]frame.DType) frame.DType { return frame.Boolean }
func (f *EndsWithFunc) Evaluate(args []interface{}) (interface{}, error) {
	return strings.HasSuffix(valueToString(args[0]), valueToString(args[1])), nil
}

// RepeatFunc repeats a string n times
type RepeatFunc struct{}

func (f *RepeatFunc) Name() string                           { return "REPEAT" }
func (f *RepeatFunc) MinArity() int                          { return 2 }
func (f *RepeatFunc) MaxArity() int                          { return 2 }
func (f *RepeatFunc) ReturnType(a []frame.DType) frame.DType { return varcharResult(a) }
func (f *RepeatFunc) Evaluate(args []interface{}) (interface{}, error) {
	str := valueToString(args[0])

	count, err := valueToInt(args[1])
	if err != nil {
		return nil, fmt.Errorf("REPEAT: count: %w", err)
	}
	if count < 0 {
		return "", nil
	}

	// Prevent memory exhaustion from large strings repeated many times
	const maxTotalBytes = 10 * 1024 * 1024 // 10MB
	if len(str)*count > maxTotalBytes {
		return nil, fmt.Errorf("REPEAT: result would be too large (max %d bytes), got %d * %d bytes",
			maxTotalBytes, len(str), count)
	}

	return strings.Repeat(str, count), nil
}
