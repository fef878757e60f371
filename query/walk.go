package query

// children returns the direct sub-expressions of e
func children(e Expr) []Expr {
	switch n := e.(type) {
	case *UnaryExpr:
		return []Expr{n.X}
	case *BinaryExpr:
		return []Expr{n.Left, n.Right}
	case *IsNullExpr:
		return []Expr{n.X}
	case *InExpr:
		return append([]Expr{n.X}, n.List...)
	case *LikeExpr:
		return []Expr{n.X, n.Pattern}
	case *BetweenExpr:
		return []Expr{n.X, n.Lower, n.Upper}
	case *CaseExpr:
		var out []Expr
		if n.Operand != nil {
			out = append(out, n.Operand)
		}
		for _, w := range n.Whens {
			out = append(out, w.Cond, w.Result)
		}
		if n.Else != nil {
			out = append(out, n.Else)
		}
		return out
	case *CastExpr:
		return []Expr{n.X}
	case *IndexExpr:
		return []Expr{n.X, n.Index}
	case *FunctionCall:
		return n.Args
	case *AggregateExpr:
		if n.Arg != nil {
			return []Expr{n.Arg}
		}
	}
	return nil
}

// walk visits e and its descendants depth-first. Returning false from visit
// skips the node's children.
func walk(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	for _, c := range children(e) {
		walk(c, visit)
	}
}

// rewrite returns a copy of e with nodes replaced by fn. When fn returns a
// non-nil expression it replaces the node and its subtree; otherwise the node
// is copied and its children are rewritten.
func rewrite(e Expr, fn func(Expr) (Expr, error)) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	if out, err := fn(e); err != nil || out != nil {
		return out, err
	}

	var err error
	sub := func(x Expr) Expr {
		if err != nil {
			return nil
		}
		var out Expr
		out, err = rewrite(x, fn)
		return out
	}
	subs := func(xs []Expr) []Expr {
		out := make([]Expr, len(xs))
		for i, x := range xs {
			out[i] = sub(x)
		}
		return out
	}

	var out Expr
	switch n := e.(type) {
	case *ColumnRef:
		cp := *n
		out = &cp
	case *Literal:
		out = n
	case *UnaryExpr:
		out = &UnaryExpr{Op: n.Op, X: sub(n.X)}
	case *BinaryExpr:
		out = &BinaryExpr{Op: n.Op, Left: sub(n.Left), Right: sub(n.Right)}
	case *IsNullExpr:
		out = &IsNullExpr{X: sub(n.X), Negate: n.Negate}
	case *InExpr:
		out = &InExpr{X: sub(n.X), List: subs(n.List), Negate: n.Negate}
	case *LikeExpr:
		out = &LikeExpr{X: sub(n.X), Pattern: sub(n.Pattern), Negate: n.Negate}
	case *BetweenExpr:
		out = &BetweenExpr{X: sub(n.X), Lower: sub(n.Lower), Upper: sub(n.Upper), Negate: n.Negate}
	case *CaseExpr:
		c := &CaseExpr{Operand: sub(n.Operand), Else: sub(n.Else)}
		for _, w := range n.Whens {
			c.Whens = append(c.Whens, WhenClause{Cond: sub(w.Cond), Result: sub(w.Result)})
		}
		out = c
	case *CastExpr:
		out = &CastExpr{X: sub(n.X), Type: n.Type, Try: n.Try}
	case *IndexExpr:
		out = &IndexExpr{X: sub(n.X), Index: sub(n.Index)}
	case *FunctionCall:
		out = &FunctionCall{Name: n.Name, Args: subs(n.Args), fn: n.fn}
	case *AggregateExpr:
		out = &AggregateExpr{Func: n.Func, Arg: sub(n.Arg), Star: n.Star, Distinct: n.Distinct}
	default:
		out = e
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
