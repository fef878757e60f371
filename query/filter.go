package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vegasq/salesql/frame"
)

// compareOp applies a comparison operator. Comparisons involving NULL are NULL.
func compareOp(op TokenType, left, right interface{}) (interface{}, error) {
	if left == nil || right == nil {
		return nil, nil
	}

	c, err := compareValues(left, right)
	if err != nil {
		return nil, err
	}

	switch op {
	case TokenEqual:
		return c == 0, nil
	case TokenNotEqual:
		return c != 0, nil
	case TokenLess:
		return c < 0, nil
	case TokenGreater:
		return c > 0, nil
	case TokenLessEqual:
		return c <= 0, nil
	case TokenGreaterEqual:
		return c >= 0, nil
	default:
		return nil, fmt.Errorf("unsupported comparison operator: %s", operatorSymbol(op))
	}
}

// compareValues orders two non-NULL values. A number compared with a string
// casts the string to a number.
func compareValues(left, right interface{}) (int, error) {
	li, lIsInt := toInt64(left)
	ri, rIsInt := toInt64(right)
	if lIsInt && rIsInt {
		return compareOrdered(li, ri), nil
	}

	lf, lIsNum := toFloat64(left)
	rf, rIsNum := toFloat64(right)
	if lIsNum && rIsNum {
		return compareOrdered(lf, rf), nil
	}

	ls, lIsStr := left.(string)
	rs, rIsStr := right.(string)
	switch {
	case lIsStr && rIsStr:
		return strings.Compare(ls, rs), nil
	case lIsNum && rIsStr:
		f, err := parseNumber(rs)
		if err != nil {
			return 0, err
		}
		return compareOrdered(lf, f), nil
	case lIsStr && rIsNum:
		f, err := parseNumber(ls)
		if err != nil {
			return 0, err
		}
		return compareOrdered(f, rf), nil
	}

	lb, lIsBool := left.(bool)
	rb, rIsBool := right.(bool)
	switch {
	case lIsBool && rIsBool:
		return compareBools(lb, rb), nil
	case lIsBool && rIsStr:
		b, err := castValue(rs, frame.Boolean)
		if err != nil {
			return 0, err
		}
		return compareBools(lb, b.(bool)), nil
	case lIsStr && rIsBool:
		b, err := castValue(ls, frame.Boolean)
		if err != nil {
			return 0, err
		}
		return compareBools(b.(bool), rb), nil
	}

	ll, lIsList := left.([]string)
	rl, rIsList := right.([]string)
	if lIsList && rIsList {
		for i := 0; i < len(ll) && i < len(rl); i++ {
			if c := strings.Compare(ll[i], rl[i]); c != 0 {
				return c, nil
			}
		}
		return compareOrdered(len(ll), len(rl)), nil
	}

	return 0, fmt.Errorf("%w: cannot compare %s with %s", ErrConversion, frame.TypeOf(left), frame.TypeOf(right))
}

type ordered interface {
	~int | ~int64 | ~float64
}

func compareOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// sortCompare orders values for ORDER BY and MIN/MAX. NULLs sort last and
// incomparable values fall back to their rendered text.
func sortCompare(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c, err := compareValues(a, b)
	if err != nil {
		return strings.Compare(frame.FormatValue(a), frame.FormatValue(b))
	}
	return c
}

// toInt64 converts integer kinds
func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	default:
		return 0, false
	}
}

// toFloat64 converts any numeric kind
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	default:
		if i, ok := toInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

// parseNumber implicitly casts a string operand to a number
func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: could not convert string '%s' to a number", ErrConversion, s)
	}
	return f, nil
}

// numericOperand turns an arithmetic operand into int64 or float64
func numericOperand(v interface{}) (interface{}, error) {
	if i, ok := toInt64(v); ok {
		return i, nil
	}
	if f, ok := toFloat64(v); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, nil
		}
		return parseNumber(s)
	}
	return nil, fmt.Errorf("%w: cannot use %s in arithmetic", ErrConversion, frame.TypeOf(v))
}

// arith evaluates + - * / %. Integer operands stay integral except for /.
// Division or modulo by zero yields NULL.
func arith(op TokenType, left, right interface{}) (interface{}, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	l, err := numericOperand(left)
	if err != nil {
		return nil, err
	}
	r, err := numericOperand(right)
	if err != nil {
		return nil, err
	}

	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt && op != TokenSlash {
		switch op {
		case TokenPlus:
			return li + ri, nil
		case TokenMinus:
			return li - ri, nil
		case TokenStar:
			return li * ri, nil
		case TokenPercent:
			if ri == 0 {
				return nil, nil
			}
			return li % ri, nil
		}
	}

	lf, _ := toFloat64(l)
	rf, _ := toFloat64(r)
	switch op {
	case TokenPlus:
		return lf + rf, nil
	case TokenMinus:
		return lf - rf, nil
	case TokenStar:
		return lf * rf, nil
	case TokenSlash:
		if rf == 0 {
			return nil, nil
		}
		return lf / rf, nil
	case TokenPercent:
		if rf == 0 {
			return nil, nil
		}
		return math.Mod(lf, rf), nil
	default:
		return nil, fmt.Errorf("unsupported arithmetic operator: %s", operatorSymbol(op))
	}
}

// negate flips the sign of a number, keeping its type
func negate(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case int32:
		return -val, nil
	case int64:
		return -val, nil
	case float64:
		return -val, nil
	default:
		return arith(TokenMinus, int64(0), v)
	}
}

// toBoolean coerces a non-NULL value to bool
func toBoolean(v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	out, err := castValue(v, frame.Boolean)
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

// truth splits a logical value into (value, isNull)
func truth(v interface{}) (bool, bool, error) {
	if v == nil {
		return false, true, nil
	}
	b, err := toBoolean(v)
	return b, false, err
}

// predicate reports whether a WHERE/HAVING/WHEN result keeps the row: only
// TRUE does, NULL and FALSE do not.
func predicate(v interface{}) (bool, error) {
	b, isNull, err := truth(v)
	if err != nil {
		return false, err
	}
	return b && !isNull, nil
}

// matchLikePattern matches str against a SQL LIKE pattern where % matches any
// run of characters and _ exactly one.
func matchLikePattern(str, pattern string) bool {
	s := []rune(str)
	p := []rune(pattern)

	si, pi := 0, 0
	star, mark := -1, 0
	for si < len(s) {
		switch {
		case pi < len(p) && (p[pi] == '_' || p[pi] == s[si]):
			si++
			pi++
		case pi < len(p) && p[pi] == '%':
			star = pi
			mark = si
			pi++
		case star >= 0:
			// backtrack: let the last % absorb one more character
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}

	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}

// rowKey builds a grouping/distinct key from values
func rowKey(values []interface{}) string {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(0)
		}
		switch val := v.(type) {
		case nil:
			sb.WriteString("\x01NULL")
		case []string:
			fmt.Fprintf(&sb, "[]string:%d", len(val))
			for _, s := range val {
				sb.WriteByte(':')
				sb.WriteString(strconv.Quote(s))
			}
		default:
			fmt.Fprintf(&sb, "%T:%v", v, v)
		}
	}
	return sb.String()
}
