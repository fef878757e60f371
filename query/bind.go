package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vegasq/salesql/frame"
)

// scope lists the columns an expression may reference
type scope struct {
	columns    []frame.Column
	qualifiers []string
}

func newScope(columns []frame.Column, ref *TableRef) *scope {
	s := &scope{columns: columns}
	if ref != nil {
		for _, q := range []string{ref.Name, ref.Alias} {
			if q != "" {
				s.qualifiers = append(s.qualifiers, q)
			}
		}
	}
	return s
}

// lookup resolves a column reference. Exact matches win over
// case-insensitive ones.
func (s *scope) lookup(ref *ColumnRef) (frame.Column, error) {
	if ref.Table != "" && !s.hasQualifier(ref.Table) {
		return frame.Column{}, fmt.Errorf("%w: referenced table %q not found", ErrColumnNotFound, ref.Table)
	}
	for _, c := range s.columns {
		if c.Name == ref.Name {
			return c, nil
		}
	}
	for _, c := range s.columns {
		if strings.EqualFold(c.Name, ref.Name) {
			return c, nil
		}
	}
	return frame.Column{}, fmt.Errorf("%w: %q (candidates: %s)", ErrColumnNotFound, ref.Name, s.candidates())
}

func (s *scope) hasQualifier(name string) bool {
	for _, q := range s.qualifiers {
		if strings.EqualFold(q, name) {
			return true
		}
	}
	return false
}

func (s *scope) candidates() string {
	if len(s.columns) == 0 {
		return "none"
	}
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = quoteIdent(c.Name)
	}
	return strings.Join(names, ", ")
}

// has reports whether an unqualified name resolves in the scope
func (s *scope) has(name string) bool {
	_, err := s.lookup(&ColumnRef{Name: name})
	return err == nil
}

// bind resolves every column reference in e against s. Columns not found
// in s are looked up in aliases when it is non-nil.
func (s *scope) bind(e Expr, aliases []outputColumn) (Expr, error) {
	return rewrite(e, func(n Expr) (Expr, error) {
		switch node := n.(type) {
		case *ColumnRef:
			col, err := s.lookup(node)
			if err == nil {
				return &ColumnRef{Name: col.Name, Type: col.Type}, nil
			}
			if node.Table == "" {
				if out, ok := findOutput(aliases, node.Name); ok {
					return out.expr, nil
				}
			}
			return nil, err
		case *ColumnsExpr:
			return nil, fmt.Errorf("%w: %s is only allowed in the select list", ErrSyntax, node)
		case *FunctionCall:
			if node.fn == nil {
				fn, ok := GetGlobalRegistry().Get(node.Name)
				if !ok {
					return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, node.Name)
				}
				if err := checkArity(fn, len(node.Args)); err != nil {
					return nil, err
				}
				node.fn = fn
			}
		}
		return nil, nil
	})
}

// outputColumn is one bound entry of the expanded select list
type outputColumn struct {
	name string
	expr Expr
	typ  frame.DType
}

// findOutput looks up a select-list entry by output name
func findOutput(outputs []outputColumn, name string) (outputColumn, bool) {
	for _, o := range outputs {
		if o.name == name {
			return o, true
		}
	}
	for _, o := range outputs {
		if strings.EqualFold(o.name, name) {
			return o, true
		}
	}
	return outputColumn{}, false
}

// expandItems expands *, * EXCLUDE and COLUMNS(...) and binds the select list
func (s *scope) expandItems(items []SelectItem) ([]outputColumn, error) {
	var outputs []outputColumn

	for _, item := range items {
		if item.Star {
			cols, err := s.selectColumns(&ColumnsExpr{Exclude: item.Exclude})
			if err != nil {
				return nil, err
			}
			for _, c := range cols {
				outputs = append(outputs, outputColumn{
					name: c.Name,
					expr: &ColumnRef{Name: c.Name, Type: c.Type},
					typ:  c.Type,
				})
			}
			continue
		}

		exprs, err := s.expandColumns(item.Expr)
		if err != nil {
			return nil, err
		}
		for _, e := range exprs {
			bound, err := s.bind(e, nil)
			if err != nil {
				return nil, err
			}
			name := item.Alias
			if name == "" {
				name = bound.String()
				if ref, ok := bound.(*ColumnRef); ok {
					name = ref.Name
				}
			}
			outputs = append(outputs, outputColumn{name: name, expr: bound, typ: typeOf(bound)})
		}
	}

	return outputs, nil
}

// expandColumns returns e once per column matched by its COLUMNS(...)
// expression, or e itself when it has none
func (s *scope) expandColumns(e Expr) ([]Expr, error) {
	var star *ColumnsExpr
	var conflict bool
	walk(e, func(n Expr) bool {
		if c, ok := n.(*ColumnsExpr); ok {
			if star != nil && star.String() != c.String() {
				conflict = true
			}
			star = c
		}
		return true
	})
	if star == nil {
		return []Expr{e}, nil
	}
	if conflict {
		return nil, fmt.Errorf("%w: multiple different COLUMNS expressions in one select item", ErrSyntax)
	}

	cols, err := s.selectColumns(star)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s matched no columns", ErrColumnNotFound, star)
	}

	out := make([]Expr, 0, len(cols))
	for _, c := range cols {
		col := c
		expanded, err := rewrite(e, func(n Expr) (Expr, error) {
			if _, ok := n.(*ColumnsExpr); ok {
				return &ColumnRef{Name: col.Name, Type: col.Type}, nil
			}
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}

// selectColumns returns the scope columns chosen by a star or COLUMNS
// expression. Every EXCLUDE name must exist.
func (s *scope) selectColumns(c *ColumnsExpr) ([]frame.Column, error) {
	for _, ex := range c.Exclude {
		if !s.has(ex) {
			return nil, fmt.Errorf("%w: EXCLUDE column %q (candidates: %s)", ErrColumnNotFound, ex, s.candidates())
		}
	}

	var re *regexp.Regexp
	if c.Pattern != "" {
		var err error
		if re, err = regexp.Compile(c.Pattern); err != nil {
			return nil, fmt.Errorf("%w: invalid COLUMNS pattern: %v", ErrSyntax, err)
		}
	}

	var out []frame.Column
	for _, col := range s.columns {
		if c.matches(col.Name, re) {
			out = append(out, col)
		}
	}
	return out, nil
}

// checkGrouped fails when e references a column outside of an aggregate that
// is not one of the group keys
func checkGrouped(e Expr, keys []Expr) error {
	var bad *ColumnRef
	walk(e, func(n Expr) bool {
		if bad != nil {
			return false
		}
		if _, ok := n.(*AggregateExpr); ok {
			return false
		}
		s := n.String()
		for _, k := range keys {
			if k.String() == s {
				return false
			}
		}
		if ref, ok := n.(*ColumnRef); ok {
			bad = ref
		}
		return true
	})
	if bad != nil {
		return fmt.Errorf("%w: column %q", ErrGrouping, bad.Name)
	}
	return nil
}

// arithType is the result type of an arithmetic operator. Integers stay
// integral except for division.
func arithType(op TokenType, a, b frame.DType) frame.DType {
	if op == TokenSlash {
		return frame.Double
	}
	integral := func(t frame.DType) bool {
		return t == frame.Integer || t == frame.BigInt || t == frame.Null
	}
	if integral(a) && integral(b) {
		return frame.BigInt
	}
	return frame.Double
}

// typeOf computes the static result type of a bound expression
func typeOf(e Expr) frame.DType {
	switch n := e.(type) {
	case *ColumnRef:
		return n.Type
	case *Literal:
		return frame.TypeOf(n.Value)
	case *UnaryExpr:
		if n.Op == TokenNot {
			return frame.Boolean
		}
		if t := typeOf(n.X); t.IsNumeric() {
			return t
		}
		return frame.Double
	case *BinaryExpr:
		switch n.Op {
		case TokenConcat:
			return frame.Varchar
		case TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent:
			return arithType(n.Op, typeOf(n.Left), typeOf(n.Right))
		default:
			return frame.Boolean
		}
	case *IsNullExpr, *InExpr, *LikeExpr, *BetweenExpr:
		return frame.Boolean
	case *CaseExpr:
		t := frame.Null
		for _, w := range n.Whens {
			t = frame.Unify(t, typeOf(w.Result))
		}
		if n.Else != nil {
			t = frame.Unify(t, typeOf(n.Else))
		}
		return t
	case *CastExpr:
		return n.Type
	case *IndexExpr:
		return frame.Varchar
	case *FunctionCall:
		args := make([]frame.DType, len(n.Args))
		for i, a := range n.Args {
			args[i] = typeOf(a)
		}
		fn := n.fn
		if fn == nil {
			var ok bool
			if fn, ok = GetGlobalRegistry().Get(n.Name); !ok {
				return frame.Varchar
			}
		}
		return fn.ReturnType(args)
	case *AggregateExpr:
		if n.Star {
			return frame.BigInt
		}
		return aggregateType(n, typeOf(n.Arg))
	}
	return frame.Varchar
}
