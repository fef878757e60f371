package query

import "github.com/vegasq/salesql/frame"

// TokenType represents the type of a token
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenAs
	TokenGroup
	TokenBy
	TokenHaving
	TokenOrder
	TokenAsc
	TokenDesc
	TokenLimit
	TokenOffset
	TokenIn
	TokenLike
	TokenBetween
	TokenIs
	TokenNot
	TokenNull
	TokenNotNull // NOTNULL postfix
	TokenIsNull  // ISNULL postfix
	TokenDistinct
	TokenCase
	TokenWhen
	TokenThen
	TokenElse
	TokenEnd
	TokenCreate
	TokenDrop
	TokenDescribe

	// Operators
	TokenEqual        // =
	TokenNotEqual     // != or <>
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenPercent      // %
	TokenConcat       // ||
	TokenDoubleColon  // ::

	// Literals
	TokenString
	TokenNumber
	TokenIdent
	TokenBool

	// Delimiters
	TokenComma        // ,
	TokenDot          // .
	TokenSemicolon    // ;
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Special
	TokenEOF
	TokenError
)

// Token represents a lexical token
type Token struct {
	Type   TokenType
	Value  string
	Pos    int  // byte offset in the input
	Quoted bool // identifier written as "..."
}

// Statement is a parsed SQL statement
type Statement interface {
	statementNode()
}

// SelectStmt is a SELECT query, or its FROM-first form
type SelectStmt struct {
	Distinct   bool
	Items      []SelectItem
	From       *TableRef // nil for SELECT without FROM
	Where      Expr
	GroupBy    []Expr
	GroupByAll bool
	Having     Expr
	OrderBy    []OrderByItem
	Limit      *int64
	Offset     *int64
}

// SelectItem is one entry of the select list
type SelectItem struct {
	Expr    Expr     // nil when Star is set
	Alias   string   // Optional alias (AS name)
	Star    bool     // * (all columns)
	Exclude []string // * EXCLUDE (a, b)
}

// TableRef is the source of a SELECT
type TableRef struct {
	Name     string      // catalog name
	Path     string      // quoted file path or glob
	Subquery *SelectStmt // (SELECT ...)
	Alias    string
}

// OrderByItem is one sort key
type OrderByItem struct {
	Expr Expr
	Desc bool
}

// ObjectKind distinguishes catalog objects in DDL
type ObjectKind int

const (
	KindTable ObjectKind = iota
	KindView
)

// String returns the SQL keyword of the kind
func (k ObjectKind) String() string {
	if k == KindView {
		return "VIEW"
	}
	return "TABLE"
}

// CreateStmt is CREATE [OR REPLACE] TABLE|VIEW name AS query
type CreateStmt struct {
	Kind        ObjectKind
	Name        string
	OrReplace   bool
	IfNotExists bool
	Query       *SelectStmt
}

// DropStmt is DROP TABLE|VIEW [IF EXISTS] name
type DropStmt struct {
	Kind     ObjectKind
	Name     string
	IfExists bool
}

// DescribeStmt describes a catalog object or a query
type DescribeStmt struct {
	Name  string
	Query *SelectStmt
}

// ShowTablesStmt lists the catalog
type ShowTablesStmt struct{}

func (*SelectStmt) statementNode()     {}
func (*CreateStmt) statementNode()     {}
func (*DropStmt) statementNode()       {}
func (*DescribeStmt) statementNode()   {}
func (*ShowTablesStmt) statementNode() {}

// DescribeColumns is the schema of a DESCRIBE result
var DescribeColumns = []frame.Column{
	{Name: "column_name", Type: frame.Varchar},
	{Name: "column_type", Type: frame.Varchar},
	{Name: "null", Type: frame.Varchar},
}

// Describe renders a column list as a DESCRIBE result
func Describe(columns []frame.Column) *frame.DataFrame {
	rows := make([]frame.Row, len(columns))
	for i, c := range columns {
		rows[i] = frame.Row{
			"column_name": c.Name,
			"column_type": c.Type.String(),
			"null":        "YES",
		}
	}
	return frame.New(DescribeColumns, rows)
}
