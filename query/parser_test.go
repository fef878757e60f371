package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegasq/salesql/frame"
)

func parseSelect(t *testing.T, sql string) *SelectStmt {
	t.Helper()
	stmt, err := Parse(sql)
	require.NoError(t, err)
	sel, ok := stmt.(*SelectStmt)
	require.True(t, ok, "expected *SelectStmt, got %T", stmt)
	return sel
}

func TestParse_Select(t *testing.T) {
	stmt := parseSelect(t, `SELECT DISTINCT "Order ID" AS order_id, Quantity q FROM sales s WHERE q > 1 ORDER BY 1 DESC LIMIT 10 OFFSET 5`)

	require.True(t, stmt.Distinct)
	require.Len(t, stmt.Items, 2)
	require.Equal(t, "order_id", stmt.Items[0].Alias)
	require.Equal(t, &ColumnRef{Name: "Order ID"}, stmt.Items[0].Expr)
	require.Equal(t, "q", stmt.Items[1].Alias)

	require.Equal(t, &TableRef{Name: "sales", Alias: "s"}, stmt.From)
	require.Equal(t, "(q > 1)", stmt.Where.String())

	require.Len(t, stmt.OrderBy, 1)
	require.True(t, stmt.OrderBy[0].Desc)
	require.Equal(t, int64(10), *stmt.Limit)
	require.Equal(t, int64(5), *stmt.Offset)
}

func TestParse_FromFirst(t *testing.T) {
	stmt := parseSelect(t, "FROM sales LIMIT 5")
	require.Equal(t, "sales", stmt.From.Name)
	require.Equal(t, []SelectItem{{Star: true}}, stmt.Items)
	require.Equal(t, int64(5), *stmt.Limit)

	stmt = parseSelect(t, "FROM 'data/*.csv' SELECT Product")
	require.Equal(t, "data/*.csv", stmt.From.Path)
	require.Len(t, stmt.Items, 1)
}

func TestParse_StarExclude(t *testing.T) {
	stmt := parseSelect(t, "SELECT * EXCLUDE (product, purchase_address) FROM sales")
	require.Equal(t, []SelectItem{{Star: true, Exclude: []string{"product", "purchase_address"}}}, stmt.Items)

	stmt = parseSelect(t, "SELECT * EXCLUDE product FROM sales")
	require.Equal(t, []string{"product"}, stmt.Items[0].Exclude)
}

func TestParse_Columns(t *testing.T) {
	stmt := parseSelect(t, "SELECT MIN(COLUMNS(* EXCLUDE (product, purchase_address))) FROM sales")
	agg, ok := stmt.Items[0].Expr.(*AggregateExpr)
	require.True(t, ok)
	require.Equal(t, "MIN", agg.Func)
	require.Equal(t, &ColumnsExpr{Exclude: []string{"product", "purchase_address"}}, agg.Arg)

	stmt = parseSelect(t, "SELECT COLUMNS('^order') FROM sales")
	require.Equal(t, &ColumnsExpr{Pattern: "^order"}, stmt.Items[0].Expr)

	_, err := Parse("SELECT COLUMNS('[') FROM sales")
	require.ErrorIs(t, err, ErrSyntax)
}

func TestParse_GroupBy(t *testing.T) {
	stmt := parseSelect(t, "SELECT city, COUNT(1) AS n FROM sales GROUP BY ALL HAVING n > 2")
	require.True(t, stmt.GroupByAll)
	require.Equal(t, "(n > 2)", stmt.Having.String())

	stmt = parseSelect(t, "SELECT a, b, SUM(c) FROM t GROUP BY a, b")
	require.Len(t, stmt.GroupBy, 2)
	require.False(t, stmt.GroupByAll)
}

func TestParse_ExpressionStrings(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a OR b AND c", "(a OR (b AND c))"},
		{"NOT a = 1", "(NOT (a = 1))"},
		{"-5", "-5"},
		{"-x", "-x"},
		{"x IS NOT NULL", "(x IS NOT NULL)"},
		{"x NOTNULL", "(x IS NOT NULL)"},
		{"x ISNULL", "(x IS NULL)"},
		{"x NOT IN (1, 2)", "(x NOT IN (1, 2))"},
		{"x LIKE 'a%'", "(x LIKE 'a%')"},
		{"x NOT BETWEEN 1 AND 2", "(x NOT BETWEEN 1 AND 2)"},
		{"'a' || 'b'", "('a' || 'b')"},
		{"CAST(x AS INTEGER)", "CAST(x AS INTEGER)"},
		{"TRY_CAST(x AS BIGINT)", "TRY_CAST(x AS BIGINT)"},
		{"x::DOUBLE", "CAST(x AS DOUBLE)"},
		{"x::VARCHAR[]", "CAST(x AS VARCHAR[])"},
		{"CAST(x AS DECIMAL(10, 2))", "CAST(x AS DOUBLE)"},
		{"str_split(purchase_address, ',')[2]", "str_split(purchase_address, ',')[2]"},
		{"COUNT(*)", "count_star()"},
		{"COUNT(1)", "count(1)"},
		{"count(DISTINCT x)", "count(DISTINCT x)"},
		{`"Order ID"`, `"Order ID"`},
		{`"Select"`, `"Select"`},
		{"s.price", "price"},
		{"CASE WHEN x > 1 THEN 'big' ELSE 'small' END", "CASE WHEN (x > 1) THEN 'big' ELSE 'small' END"},
		{"CASE x WHEN 1 THEN 'one' END", "CASE x WHEN 1 THEN 'one' END"},
		{"upper(name)", "upper(name)"},
		{"ifnull(a, 0)", "coalesce(a, 0)"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			stmt := parseSelect(t, "SELECT "+tt.expr)
			require.Equal(t, tt.want, stmt.Items[0].Expr.String())
		})
	}
}

func TestParse_NumberLiterals(t *testing.T) {
	stmt := parseSelect(t, "SELECT 1, 3000000000, 2.5, -2147483648, TRUE, NULL")
	values := make([]interface{}, len(stmt.Items))
	for i, item := range stmt.Items {
		lit, ok := item.Expr.(*Literal)
		require.True(t, ok)
		values[i] = lit.Value
	}
	require.Equal(t, []interface{}{int32(1), int64(3000000000), 2.5, int32(-2147483648), true, nil}, values)
}

func TestParse_DDL(t *testing.T) {
	stmt, err := Parse("CREATE OR REPLACE TABLE sales AS SELECT * FROM df")
	require.NoError(t, err)
	create, ok := stmt.(*CreateStmt)
	require.True(t, ok)
	require.Equal(t, KindTable, create.Kind)
	require.Equal(t, "sales", create.Name)
	require.True(t, create.OrReplace)
	require.Equal(t, "df", create.Query.From.Name)

	stmt, err = Parse("CREATE VIEW IF NOT EXISTS v AS (FROM sales)")
	require.NoError(t, err)
	create = stmt.(*CreateStmt)
	require.Equal(t, KindView, create.Kind)
	require.True(t, create.IfNotExists)

	stmt, err = Parse("DROP VIEW IF EXISTS v;")
	require.NoError(t, err)
	require.Equal(t, &DropStmt{Kind: KindView, Name: "v", IfExists: true}, stmt)

	stmt, err = Parse("DESCRIBE sales")
	require.NoError(t, err)
	require.Equal(t, &DescribeStmt{Name: "sales"}, stmt)

	stmt, err = Parse("DESCRIBE SELECT 1")
	require.NoError(t, err)
	require.NotNil(t, stmt.(*DescribeStmt).Query)

	stmt, err = Parse("SHOW TABLES")
	require.NoError(t, err)
	require.Equal(t, &ShowTablesStmt{}, stmt)

	stmt, err = Parse("SHOW sales")
	require.NoError(t, err)
	require.Equal(t, &DescribeStmt{Name: "sales"}, stmt)
}

func TestParseScript(t *testing.T) {
	stmts, err := ParseScript(`
		CREATE TABLE a AS SELECT 1 AS x;
		-- comment between statements
		SELECT x FROM a;;
	`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	_, err = Parse("SELECT 1; SELECT 2")
	require.ErrorIs(t, err, ErrSyntax)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want error
	}{
		{"empty", "", ErrSyntax},
		{"only semicolons", " ; ; ", ErrSyntax},
		{"missing FROM source", "SELECT * FROM", ErrSyntax},
		{"unterminated string", "SELECT 'abc", ErrSyntax},
		{"unknown function", "SELECT nope(1)", ErrUnknownFunction},
		{"bad arity", "SELECT upper(1, 2)", ErrSyntax},
		{"trailing garbage", "SELECT 1 2 3", ErrSyntax},
		{"unknown type", "SELECT CAST(1 AS BLOB)", ErrSyntax},
		{"sum star", "SELECT SUM(*) FROM t", ErrSyntax},
		{"nested aggregate", "SELECT SUM(COUNT(x)) FROM t", ErrSyntax},
		{"replace and if not exists", "CREATE OR REPLACE TABLE IF NOT EXISTS t AS SELECT 1", ErrSyntax},
		{"missing kind", "CREATE t AS SELECT 1", ErrSyntax},
		{"negative limit", "SELECT 1 LIMIT -1", ErrSyntax},
		{"subquery in IN", "SELECT 1 WHERE 1 IN (SELECT 1)", ErrSyntax},
		{"empty identifier", `SELECT "" FROM t`, ErrEmptyIdentifier},
		{"too deep", "SELECT " + strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200), ErrExpressionTooDeep},
		{"too long", "SELECT '" + strings.Repeat("x", MaxQueryLength) + "'", ErrQueryTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("SELECT a FROM t WHERE")
	require.ErrorContains(t, err, "end of input")

	_, err = Parse("SELECT a,, b")
	require.ErrorContains(t, err, "position 9")
}

func TestParse_CastTypes(t *testing.T) {
	stmt := parseSelect(t, "SELECT CAST(a AS INT), b::bigint, c::float, d::text, e::bool")
	want := []frame.DType{frame.Integer, frame.BigInt, frame.Double, frame.Varchar, frame.Boolean}
	for i, item := range stmt.Items {
		c, ok := item.Expr.(*CastExpr)
		require.True(t, ok)
		require.Equal(t, want[i], c.Type)
	}
}
