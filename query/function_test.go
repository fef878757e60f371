package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegasq/salesql/frame"
)

func TestFunctions(t *testing.T) {
	tests := []struct {
		expr string
		want interface{}
	}{
		// string
		{"upper('abc')", "ABC"},
		{"lcase('ABC')", "abc"},
		{"concat('a', NULL, 'b', 1)", "ab1"},
		{"length('naïve')", int64(5)},
		{"len(str_split('a,b', ','))", int64(2)},
		{"trim('  x  ')", "x"},
		{"trim('xxaxx', 'x')", "a"},
		{"ltrim('  x ')", "x "},
		{"rtrim(' x  ')", " x"},
		{"substring('hello', 2, 3)", "ell"},
		{"substr('hello', 2)", "ello"},
		{"substring('hello', 10)", ""},
		{"replace('a-b-c', '-', '+')", "a+b+c"},
		{"reverse('abc')", "cba"},
		{"contains('Los Angeles', 'Ang')", true},
		{"starts_with('USB-C', 'USB')", true},
		{"suffix('file.csv', '.csv')", true},
		{"repeat('ab', 3)", "ababab"},
		{"upper(NULL)", nil},

		// math
		{"abs(-3)", int32(3)},
		{"abs(-2.5)", 2.5},
		{"round(2.456, 2)", 2.46},
		{"round(7)", int32(7)},
		{"floor(2.7)", 2.0},
		{"ceiling(2.1)", 3.0},
		{"mod(7, 3)", int64(1)},
		{"mod(7, 0)", nil},
		{"sqrt(16)", 4.0},
		{"pow(2, 10)", 1024.0},

		// conditional
		{"coalesce(NULL, NULL, 'x')", "x"},
		{"ifnull(NULL, 0)", int32(0)},
		{"nullif(1, 1)", nil},
		{"nullif(1, 2)", int32(1)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalExpr(t, tt.expr)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStrSplit(t *testing.T) {
	got, err := evalExpr(t, "str_split('917 1st St, Dallas, TX 75001', ',')")
	require.NoError(t, err)
	require.Equal(t, []string{"917 1st St", " Dallas", " TX 75001"}, got)

	got, err = evalExpr(t, "string_split('abc', '')")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestFunctionErrors(t *testing.T) {
	_, err := evalExpr(t, "sqrt(-1)")
	require.Error(t, err)

	_, err = evalExpr(t, "repeat('x', 20000000)")
	require.ErrorContains(t, err, "too large")

	_, err = evalExpr(t, "abs('x')")
	require.ErrorIs(t, err, ErrConversion)

	_, err = evalExpr(t, "abs((-2147483648)::INTEGER)")
	require.ErrorIs(t, err, ErrConversion)
	require.ErrorContains(t, err, "out of range for INTEGER")

	_, err = evalExpr(t, "abs(-9223372036854775807 - 1)")
	require.ErrorIs(t, err, ErrConversion)
	require.ErrorContains(t, err, "out of range for BIGINT")

	got, err := evalExpr(t, "abs((-2147483647)::INTEGER)")
	require.NoError(t, err)
	require.Equal(t, int32(2147483647), got)
}

func TestFunctionRegistry(t *testing.T) {
	r := NewFunctionRegistry()
	r.Register(&UpperFunc{}, "ucase")

	fn, ok := r.Get("upper")
	require.True(t, ok)
	require.Equal(t, "UPPER", fn.Name())

	fn, ok = r.Get("UCase")
	require.True(t, ok)
	require.Equal(t, "UPPER", fn.Name())

	_, ok = r.Get("lower")
	require.False(t, ok)
}

func TestFunctionReturnTypes(t *testing.T) {
	tests := []struct {
		expr string
		want frame.DType
	}{
		{"upper('a')", frame.Varchar},
		{"length('a')", frame.BigInt},
		{"str_split('a', ',')", frame.VarcharList},
		{"str_split('a', ',')[1]", frame.Varchar},
		{"abs(1)", frame.Integer},
		{"abs(1.5)", frame.Double},
		{"mod(1, 2)", frame.BigInt},
		{"coalesce(NULL, 1, 2.5)", frame.Double},
		{"contains('a', 'b')", frame.Boolean},
		{"CASE WHEN TRUE THEN 1 ELSE 3000000000 END", frame.BigInt},
		{"1 + 1.5", frame.Double},
		{"1 = 1", frame.Boolean},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			stmt := parseSelect(t, "SELECT "+tt.expr)
			require.Equal(t, tt.want, typeOf(stmt.Items[0].Expr))
		})
	}
}
