package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// evalExpr parses and evaluates a constant expression
func evalExpr(t *testing.T, expr string) (interface{}, error) {
	t.Helper()
	stmt := parseSelect(t, "SELECT "+expr)
	return stmt.Items[0].Expr.Eval(&Env{Row: map[string]interface{}{}})
}

func TestEval_ThreeValuedLogic(t *testing.T) {
	tests := []struct {
		expr string
		want interface{}
	}{
		{"NULL AND FALSE", false},
		{"FALSE AND NULL", false},
		{"NULL AND TRUE", nil},
		{"NULL OR TRUE", true},
		{"NULL OR FALSE", nil},
		{"NOT NULL", nil},
		{"NOT TRUE", false},
		{"NULL = NULL", nil},
		{"NULL IS NULL", true},
		{"1 IS NOT NULL", true},
		{"1 IN (2, NULL)", nil},
		{"1 IN (1, NULL)", true},
		{"1 NOT IN (2, 3)", true},
		{"5 BETWEEN 1 AND NULL", nil},
		{"5 BETWEEN 6 AND NULL", false},
		{"5 NOT BETWEEN 1 AND 10", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalExpr(t, tt.expr)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEval_Comparisons(t *testing.T) {
	tests := []struct {
		expr string
		want interface{}
	}{
		{"1 = 1.0", true},
		{"2 > 1", true},
		{"'10' > 9", true},
		{"9 < '10'", true},
		{"'abc' < 'abd'", true},
		{"'10' < '9'", true},
		{"TRUE = 'true'", true},
		{"1 <> 2", true},
		{"3000000000 > 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalExpr(t, tt.expr)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := evalExpr(t, "'ABC' = 1")
	require.ErrorIs(t, err, ErrConversion)
}

func TestEval_Arithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want interface{}
	}{
		{"1 + 2", int64(3)},
		{"7 - 10", int64(-3)},
		{"3 * 4", int64(12)},
		{"7 / 2", 3.5},
		{"7 % 3", int64(1)},
		{"7.5 % 2", 1.5},
		{"1 / 0", nil},
		{"1 % 0", nil},
		{"1 + NULL", nil},
		{"'2' * 3", int64(6)},
		{"'1.5' + 1", 2.5},
		{"-(2 + 3)", int64(-5)},
		{"2 * -3", int64(-6)},
		{"'a' || 1 || 2.0", "a12.0"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalExpr(t, tt.expr)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := evalExpr(t, "'x' + 1")
	require.ErrorIs(t, err, ErrConversion)
}

func TestMatchLikePattern(t *testing.T) {
	tests := []struct {
		str     string
		pattern string
		want    bool
	}{
		{"hello", "hello", true},
		{"hello", "h%", true},
		{"hello", "%llo", true},
		{"hello", "%l%", true},
		{"hello", "h_llo", true},
		{"hello", "h_lo", false},
		{"hello", "", false},
		{"", "%", true},
		{"abcabc", "%abc", true},
		{"mississippi", "%iss%ppi", true},
		{"Los Angeles", "% %", true},
		{"naïve", "na_ve", true},
	}

	for _, tt := range tests {
		t.Run(tt.str+"/"+tt.pattern, func(t *testing.T) {
			require.Equal(t, tt.want, matchLikePattern(tt.str, tt.pattern))
		})
	}
}

func TestEval_Case(t *testing.T) {
	got, err := evalExpr(t, "CASE WHEN NULL THEN 'a' WHEN 1 > 0 THEN 'b' END")
	require.NoError(t, err)
	require.Equal(t, "b", got)

	got, err = evalExpr(t, "CASE 2 WHEN 1 THEN 'one' WHEN 2 THEN 'two' ELSE 'many' END")
	require.NoError(t, err)
	require.Equal(t, "two", got)

	got, err = evalExpr(t, "CASE 3 WHEN 1 THEN 'one' END")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestEval_Index(t *testing.T) {
	tests := []struct {
		expr string
		want interface{}
	}{
		{"str_split('a,b,c', ',')[1]", "a"},
		{"str_split('a,b,c', ',')[3]", "c"},
		{"str_split('a,b,c', ',')[-1]", "c"},
		{"str_split('a,b,c', ',')[4]", nil},
		{"str_split('a,b,c', ',')[0]", nil},
		{"'hello'[2]", "e"},
		{"str_split('a,b', ',')[NULL]", nil},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evalExpr(t, tt.expr)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := evalExpr(t, "(1)[1]")
	require.ErrorIs(t, err, ErrConversion)
}

func TestRowKey(t *testing.T) {
	require.Equal(t, rowKey([]interface{}{"a", int64(1)}), rowKey([]interface{}{"a", int64(1)}))
	require.NotEqual(t, rowKey([]interface{}{"1"}), rowKey([]interface{}{int64(1)}))
	require.NotEqual(t, rowKey([]interface{}{nil}), rowKey([]interface{}{"NULL"}))
	require.NotEqual(t, rowKey([]interface{}{"a", "b"}), rowKey([]interface{}{"a\x00b"}))
	require.NotEqual(t, rowKey([]interface{}{[]string{"a b"}}), rowKey([]interface{}{[]string{"a", "b"}}))
	require.NotEqual(t, rowKey([]interface{}{[]string{}}), rowKey([]interface{}{[]string{""}}))
	require.Equal(t, rowKey([]interface{}{[]string{"a", "b"}}), rowKey([]interface{}{[]string{"a", "b"}}))
}
