package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vegasq/salesql/frame"
)

// Env is the evaluation environment of an expression: the current row and,
// inside an aggregate query, every row of the current group.
type Env struct {
	Row   frame.Row
	Group []frame.Row
}

// Expr is a scalar or aggregate expression
type Expr interface {
	// Eval computes the expression. A nil result is SQL NULL.
	Eval(env *Env) (interface{}, error)
	// String renders the expression; it doubles as the default output name.
	String() string
}

// ColumnRef references a column, optionally qualified with a table name
type ColumnRef struct {
	Table string
	Name  string
	Type  frame.DType // set when bound to a source
}

// Literal is a constant value
type Literal struct {
	Value interface{}
}

// UnaryExpr is NOT x or -x
type UnaryExpr struct {
	Op TokenType
	X  Expr
}

// BinaryExpr covers arithmetic, ||, comparisons and AND/OR
type BinaryExpr struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

// IsNullExpr is x IS [NOT] NULL (also NOTNULL / ISNULL)
type IsNullExpr struct {
	X      Expr
	Negate bool
}

// InExpr is x [NOT] IN (a, b, ...)
type InExpr struct {
	X      Expr
	List   []Expr
	Negate bool
}

// LikeExpr is x [NOT] LIKE pattern
type LikeExpr struct {
	X       Expr
	Pattern Expr
	Negate  bool
}

// BetweenExpr is x [NOT] BETWEEN lower AND upper
type BetweenExpr struct {
	X      Expr
	Lower  Expr
	Upper  Expr
	Negate bool
}

// WhenClause is one WHEN ... THEN ... branch
type WhenClause struct {
	Cond   Expr
	Result Expr
}

// CaseExpr is CASE [operand] WHEN ... THEN ... [ELSE ...] END
type CaseExpr struct {
	Operand Expr // nil for the searched form
	Whens   []WhenClause
	Else    Expr
}

// CastExpr is CAST(x AS T), TRY_CAST(x AS T) or x::T
type CastExpr struct {
	X    Expr
	Type frame.DType
	Try  bool
}

// IndexExpr is x[n] with a 1-based n
type IndexExpr struct {
	X     Expr
	Index Expr
}

// FunctionCall is a scalar function invocation
type FunctionCall struct {
	Name string
	Args []Expr
	fn   Function
}

// AggregateExpr is COUNT, SUM, AVG, MIN or MAX over a group
type AggregateExpr struct {
	Func     string // upper case
	Arg      Expr   // nil for COUNT(*)
	Star     bool
	Distinct bool
}

// ColumnsExpr is COLUMNS(* [EXCLUDE (...)]) or COLUMNS('regex'). It is
// expanded into one expression per matching column before evaluation.
type ColumnsExpr struct {
	Pattern string
	Exclude []string
}

// Eval returns the row value of the column
func (c *ColumnRef) Eval(env *Env) (interface{}, error) {
	return env.Row[c.Name], nil
}

func (c *ColumnRef) String() string {
	return quoteIdent(c.Name)
}

// Eval returns the constant
func (l *Literal) Eval(*Env) (interface{}, error) {
	return l.Value, nil
}

func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	default:
		return frame.FormatValue(v)
	}
}

// Eval evaluates NOT (three-valued) or numeric negation
func (u *UnaryExpr) Eval(env *Env) (interface{}, error) {
	v, err := u.X.Eval(env)
	if err != nil || v == nil {
		return nil, err
	}
	if u.Op == TokenNot {
		b, err := toBoolean(v)
		if err != nil {
			return nil, err
		}
		return !b, nil
	}
	return negate(v)
}

func (u *UnaryExpr) String() string {
	if u.Op == TokenNot {
		return "(NOT " + u.X.String() + ")"
	}
	return "-" + u.X.String()
}

// Eval evaluates the operator
func (b *BinaryExpr) Eval(env *Env) (interface{}, error) {
	switch b.Op {
	case TokenAnd, TokenOr:
		return b.evalLogical(env)
	}

	left, err := b.Left.Eval(env)
	if err != nil {
		return nil, err
	}
	right, err := b.Right.Eval(env)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case TokenConcat:
		if left == nil || right == nil {
			return nil, nil
		}
		return frame.FormatValue(left) + frame.FormatValue(right), nil
	case TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent:
		return arith(b.Op, left, right)
	default:
		return compareOp(b.Op, left, right)
	}
}

// evalLogical implements AND/OR with SQL three-valued logic
func (b *BinaryExpr) evalLogical(env *Env) (interface{}, error) {
	left, err := b.Left.Eval(env)
	if err != nil {
		return nil, err
	}
	lb, lnull, err := truth(left)
	if err != nil {
		return nil, err
	}
	// short-circuit
	if !lnull && lb == (b.Op == TokenOr) {
		return lb, nil
	}

	right, err := b.Right.Eval(env)
	if err != nil {
		return nil, err
	}
	rb, rnull, err := truth(right)
	if err != nil {
		return nil, err
	}
	if !rnull && rb == (b.Op == TokenOr) {
		return rb, nil
	}
	if lnull || rnull {
		return nil, nil
	}
	return rb, nil
}

func (b *BinaryExpr) String() string {
	return "(" + b.Left.String() + " " + operatorSymbol(b.Op) + " " + b.Right.String() + ")"
}

// Eval reports whether x is NULL
func (i *IsNullExpr) Eval(env *Env) (interface{}, error) {
	v, err := i.X.Eval(env)
	if err != nil {
		return nil, err
	}
	return (v == nil) != i.Negate, nil
}

func (i *IsNullExpr) String() string {
	if i.Negate {
		return "(" + i.X.String() + " IS NOT NULL)"
	}
	return "(" + i.X.String() + " IS NULL)"
}

// Eval checks list membership. A NULL in the list makes a miss NULL.
func (in *InExpr) Eval(env *Env) (interface{}, error) {
	v, err := in.X.Eval(env)
	if err != nil || v == nil {
		return nil, err
	}

	sawNull := false
	for _, item := range in.List {
		candidate, err := item.Eval(env)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			sawNull = true
			continue
		}
		c, err := compareValues(v, candidate)
		if err != nil {
			return nil, err
		}
		if c == 0 {
			return !in.Negate, nil
		}
	}
	if sawNull {
		return nil, nil
	}
	return in.Negate, nil
}

func (in *InExpr) String() string {
	op := " IN ("
	if in.Negate {
		op = " NOT IN ("
	}
	return "(" + in.X.String() + op + joinExprs(in.List) + "))"
}

// Eval matches x against a LIKE pattern (% and _ wildcards)
func (l *LikeExpr) Eval(env *Env) (interface{}, error) {
	v, err := l.X.Eval(env)
	if err != nil || v == nil {
		return nil, err
	}
	p, err := l.Pattern.Eval(env)
	if err != nil || p == nil {
		return nil, err
	}
	match := matchLikePattern(frame.FormatValue(v), frame.FormatValue(p))
	return match != l.Negate, nil
}

func (l *LikeExpr) String() string {
	op := " LIKE "
	if l.Negate {
		op = " NOT LIKE "
	}
	return "(" + l.X.String() + op + l.Pattern.String() + ")"
}

// Eval evaluates lower <= x AND x <= upper
func (b *BetweenExpr) Eval(env *Env) (interface{}, error) {
	v, err := b.X.Eval(env)
	if err != nil {
		return nil, err
	}
	lower, err := b.Lower.Eval(env)
	if err != nil {
		return nil, err
	}
	upper, err := b.Upper.Eval(env)
	if err != nil {
		return nil, err
	}

	ge, err := compareOp(TokenGreaterEqual, v, lower)
	if err != nil {
		return nil, err
	}
	le, err := compareOp(TokenLessEqual, v, upper)
	if err != nil {
		return nil, err
	}

	// Three-valued AND of both bounds
	if ge == false || le == false {
		return b.Negate, nil
	}
	if ge == nil || le == nil {
		return nil, nil
	}
	return !b.Negate, nil
}

func (b *BetweenExpr) String() string {
	op := " BETWEEN "
	if b.Negate {
		op = " NOT BETWEEN "
	}
	return "(" + b.X.String() + op + b.Lower.String() + " AND " + b.Upper.String() + ")"
}

// Eval returns the result of the first matching branch
func (c *CaseExpr) Eval(env *Env) (interface{}, error) {
	var operand interface{}
	if c.Operand != nil {
		v, err := c.Operand.Eval(env)
		if err != nil {
			return nil, err
		}
		operand = v
	}

	for _, when := range c.Whens {
		cond, err := when.Cond.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("CASE: evaluating WHEN condition: %w", err)
		}
		if c.Operand != nil {
			if cond, err = compareOp(TokenEqual, operand, cond); err != nil {
				return nil, err
			}
		}
		ok, err := predicate(cond)
		if err != nil {
			return nil, err
		}
		if ok {
			return when.Result.Eval(env)
		}
	}

	if c.Else != nil {
		return c.Else.Eval(env)
	}
	return nil, nil
}

func (c *CaseExpr) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	if c.Operand != nil {
		sb.WriteString(" " + c.Operand.String())
	}
	for _, w := range c.Whens {
		sb.WriteString(" WHEN " + w.Cond.String() + " THEN " + w.Result.String())
	}
	if c.Else != nil {
		sb.WriteString(" ELSE " + c.Else.String())
	}
	sb.WriteString(" END")
	return sb.String()
}

// Eval casts x. TRY_CAST turns conversion failures into NULL.
func (c *CastExpr) Eval(env *Env) (interface{}, error) {
	v, err := c.X.Eval(env)
	if err != nil {
		return nil, err
	}
	out, err := castValue(v, c.Type)
	if err != nil && c.Try {
		return nil, nil
	}
	return out, err
}

func (c *CastExpr) String() string {
	name := "CAST"
	if c.Try {
		name = "TRY_CAST"
	}
	return name + "(" + c.X.String() + " AS " + c.Type.String() + ")"
}

// Eval indexes a list (or string) with a 1-based index. Negative indexes
// count from the end; out of range yields NULL.
func (ix *IndexExpr) Eval(env *Env) (interface{}, error) {
	v, err := ix.X.Eval(env)
	if err != nil || v == nil {
		return nil, err
	}
	iv, err := ix.Index.Eval(env)
	if err != nil || iv == nil {
		return nil, err
	}
	idx, err := castValue(iv, frame.BigInt)
	if err != nil {
		return nil, err
	}
	n := idx.(int64)

	pick := func(length int) (int, bool) {
		if n < 0 {
			n = int64(length) + n + 1
		}
		if n < 1 || n > int64(length) {
			return 0, false
		}
		return int(n - 1), true
	}

	switch val := v.(type) {
	case []string:
		if i, ok := pick(len(val)); ok {
			return val[i], nil
		}
		return nil, nil
	case string:
		runes := []rune(val)
		if i, ok := pick(len(runes)); ok {
			return string(runes[i]), nil
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: cannot index %s", ErrConversion, frame.TypeOf(v))
	}
}

func (ix *IndexExpr) String() string {
	return ix.X.String() + "[" + ix.Index.String() + "]"
}

// Eval evaluates the arguments and calls the function. Unless the function
// handles NULL itself, any NULL argument yields NULL.
func (f *FunctionCall) Eval(env *Env) (interface{}, error) {
	fn := f.fn
	if fn == nil {
		var ok bool
		if fn, ok = GetGlobalRegistry().Get(f.Name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, f.Name)
		}
	}

	args := make([]interface{}, len(f.Args))
	for i, arg := range f.Args {
		val, err := arg.Eval(env)
		if err != nil {
			return nil, err
		}
		if val == nil && !handlesNull(fn) {
			return nil, nil
		}
		args[i] = val
	}

	return fn.Evaluate(args)
}

func (f *FunctionCall) String() string {
	return strings.ToLower(f.Name) + "(" + joinExprs(f.Args) + ")"
}

func (a *AggregateExpr) String() string {
	if a.Star {
		return "count_star()"
	}
	distinct := ""
	if a.Distinct {
		distinct = "DISTINCT "
	}
	return strings.ToLower(a.Func) + "(" + distinct + a.Arg.String() + ")"
}

// Eval always fails: COLUMNS must be expanded by the binder first
func (c *ColumnsExpr) Eval(*Env) (interface{}, error) {
	return nil, fmt.Errorf("%w: COLUMNS(...) is only allowed in the select list", ErrSyntax)
}

func (c *ColumnsExpr) String() string {
	if c.Pattern != "" {
		return "COLUMNS(" + (&Literal{Value: c.Pattern}).String() + ")"
	}
	if len(c.Exclude) == 0 {
		return "COLUMNS(*)"
	}
	return "COLUMNS(* EXCLUDE (" + strings.Join(c.Exclude, ", ") + "))"
}

// matches reports whether column name is selected by the COLUMNS expression
func (c *ColumnsExpr) matches(name string, re *regexp.Regexp) bool {
	if re != nil {
		return re.MatchString(name)
	}
	for _, ex := range c.Exclude {
		if strings.EqualFold(ex, name) {
			return false
		}
	}
	return true
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// quoteIdent double-quotes names that would not lex back as the same
// identifier.
func quoteIdent(name string) string {
	if plainIdent.MatchString(name) && identifierType(name) == TokenIdent {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func operatorSymbol(op TokenType) string {
	switch op {
	case TokenAnd:
		return "AND"
	case TokenOr:
		return "OR"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenGreater:
		return ">"
	case TokenLessEqual:
		return "<="
	case TokenGreaterEqual:
		return ">="
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenSlash:
		return "/"
	case TokenPercent:
		return "%"
	case TokenConcat:
		return "||"
	default:
		return "?"
	}
}
