package query

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vegasq/salesql/frame"
)

// parseExpression parses a full expression
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseOr()
}

// parseExpressionList parses comma-separated expressions
func (p *Parser) parseExpressionList() ([]Expr, error) {
	var exprs []Expr
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if p.current().Type != TokenComma {
			return exprs, nil
		}
		p.advance()
	}
}

// parseOr handles OR (lowest precedence)
func (p *Parser) parseOr() (Expr, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokenOr, Left: left, Right: right}
	}
	return left, nil
}

// parseAnd handles AND
func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokenAnd, Left: left, Right: right}
	}
	return left, nil
}

// parseNot handles prefix NOT
func (p *Parser) parseNot() (Expr, error) {
	if p.current().Type != TokenNot {
		return p.parseComparison()
	}

	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	p.advance()
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &UnaryExpr{Op: TokenNot, X: x}, nil
}

func isComparisonOp(t TokenType) bool {
	switch t {
	case TokenEqual, TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual:
		return true
	}
	return false
}

// parseComparison handles comparison operators and the IS / IN / LIKE /
// BETWEEN predicates
func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}

	tok := p.current()
	switch {
	case isComparisonOp(tok.Type):
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: tok.Type, Left: left, Right: right}, nil

	case tok.Type == TokenIs:
		p.advance()
		negate := false
		if p.current().Type == TokenNot {
			negate = true
			p.advance()
		}
		if err := p.expect(TokenNull, "NULL after IS"); err != nil {
			return nil, err
		}
		return &IsNullExpr{X: left, Negate: negate}, nil

	case tok.Type == TokenNotNull:
		p.advance()
		return &IsNullExpr{X: left, Negate: true}, nil

	case tok.Type == TokenIsNull:
		p.advance()
		return &IsNullExpr{X: left}, nil
	}

	negate := false
	if tok.Type == TokenNot {
		switch p.peek().Type {
		case TokenIn, TokenLike, TokenBetween:
			negate = true
			p.advance()
		default:
			return left, nil
		}
	}

	switch p.current().Type {
	case TokenIn:
		p.advance()
		list, err := p.parseInList()
		if err != nil {
			return nil, err
		}
		return &InExpr{X: left, List: list, Negate: negate}, nil

	case TokenLike:
		p.advance()
		pattern, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &LikeExpr{X: left, Pattern: pattern, Negate: negate}, nil

	case TokenBetween:
		p.advance()
		lower, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenAnd, "AND in BETWEEN"); err != nil {
			return nil, err
		}
		upper, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &BetweenExpr{X: left, Lower: lower, Upper: upper, Negate: negate}, nil
	}

	return left, nil
}

// parseInList parses (expr, expr, ...)
func (p *Parser) parseInList() ([]Expr, error) {
	if err := p.expect(TokenLeftParen, "( after IN"); err != nil {
		return nil, err
	}
	if p.current().Type == TokenSelect || p.current().Type == TokenFrom {
		return nil, p.errorf("subqueries in IN are not supported")
	}
	list, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRightParen, ") after IN list"); err != nil {
		return nil, err
	}
	return list, nil
}

// parseConcat handles ||
func (p *Parser) parseConcat() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenConcat {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: TokenConcat, Left: left, Right: right}
	}
	return left, nil
}

// parseAdditive handles + and -
func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenPlus || p.current().Type == TokenMinus {
		op := p.current().Type
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseMultiplicative handles *, / and %
func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.current().Type
		if op != TokenStar && op != TokenSlash && op != TokenPercent {
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
}

// parseUnary handles prefix + and -. Negative numeric literals are folded.
func (p *Parser) parseUnary() (Expr, error) {
	op := p.current().Type
	if op != TokenMinus && op != TokenPlus {
		return p.parsePostfix()
	}

	if err := p.depthCounter.Enter(); err != nil {
		return nil, err
	}
	defer p.depthCounter.Exit()

	p.advance()
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if op == TokenPlus {
		return x, nil
	}
	if lit, ok := x.(*Literal); ok {
		switch v := lit.Value.(type) {
		case int32:
			if v != math.MinInt32 {
				return &Literal{Value: -v}, nil
			}
		case int64:
			if v == math.MaxInt32+1 {
				return &Literal{Value: int32(math.MinInt32)}, nil
			}
			return &Literal{Value: -v}, nil
		case float64:
			return &Literal{Value: -v}, nil
		}
	}
	return &UnaryExpr{Op: TokenMinus, X: x}, nil
}

// parsePostfix handles x::type and x[index]
func (p *Parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.current().Type {
		case TokenDoubleColon:
			p.advance()
			t, err := p.parseTypeName()
			if err != nil {
				return nil, err
			}
			x = &CastExpr{X: x, Type: t}
		case TokenLeftBracket:
			p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TokenRightBracket, "]"); err != nil {
				return nil, err
			}
			x = &IndexExpr{X: x, Index: idx}
		default:
			return x, nil
		}
	}
}

// parsePrimary handles literals, column references, function calls, CASE and
// parenthesized expressions
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		return parseNumberLiteral(tok.Value)

	case TokenString:
		p.advance()
		return &Literal{Value: tok.Value}, nil

	case TokenBool:
		p.advance()
		return &Literal{Value: strings.EqualFold(tok.Value, "TRUE")}, nil

	case TokenNull:
		p.advance()
		return &Literal{Value: nil}, nil

	case TokenCase:
		return p.parseCase()

	case TokenLeftParen:
		p.advance()
		if p.current().Type == TokenSelect || p.current().Type == TokenFrom {
			return nil, p.errorf("scalar subqueries are not supported")
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen, ")"); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenIdent:
		if !tok.Quoted && p.peek().Type == TokenLeftParen {
			return p.parseFunctionCall()
		}
		if err := ValidateIdentifier(tok.Value); err != nil {
			return nil, err
		}
		p.advance()

		// Qualified reference: table.column
		if p.current().Type == TokenDot && p.peek().Type == TokenIdent {
			p.advance()
			col := p.current()
			if err := ValidateIdentifier(col.Value); err != nil {
				return nil, err
			}
			p.advance()
			return &ColumnRef{Table: tok.Value, Name: col.Value}, nil
		}
		return &ColumnRef{Name: tok.Value}, nil
	}

	return nil, p.errorf("unexpected %s in expression", describeToken(tok))
}

// parseNumberLiteral types integer literals as INTEGER when they fit, BIGINT
// otherwise, and anything with a fraction or exponent as DOUBLE
func parseNumberLiteral(text string) (Expr, error) {
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			if n <= math.MaxInt32 {
				return &Literal{Value: int32(n)}, nil
			}
			return &Literal{Value: n}, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %s", ErrSyntax, text)
	}
	return &Literal{Value: f}, nil
}

// parseCase parses CASE [operand] WHEN c THEN r ... [ELSE e] END
func (p *Parser) parseCase() (Expr, error) {
	p.advance() // CASE

	c := &CaseExpr{}
	if p.current().Type != TokenWhen {
		operand, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Operand = operand
	}

	for p.current().Type == TokenWhen {
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenThen, "THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, WhenClause{Cond: cond, Result: result})
	}
	if len(c.Whens) == 0 {
		return nil, p.errorf("CASE requires at least one WHEN")
	}

	if p.current().Type == TokenElse {
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		c.Else = e
	}

	if err := p.expect(TokenEnd, "END"); err != nil {
		return nil, err
	}
	return c, nil
}

// parseTypeName parses a type such as INTEGER, VARCHAR[] or DECIMAL(10, 2)
func (p *Parser) parseTypeName() (frame.DType, error) {
	tok := p.current()
	if tok.Type != TokenIdent {
		return frame.Null, p.errorf("expected type name, got %s", describeToken(tok))
	}
	p.advance()
	name := tok.Value

	// precision and scale are accepted and ignored
	if p.current().Type == TokenLeftParen {
		p.advance()
		for p.current().Type == TokenNumber || p.current().Type == TokenComma {
			p.advance()
		}
		if err := p.expect(TokenRightParen, ")"); err != nil {
			return frame.Null, err
		}
	}

	if p.current().Type == TokenLeftBracket && p.peek().Type == TokenRightBracket {
		p.advance()
		p.advance()
		name += "[]"
	}

	t, err := frame.ParseType(name)
	if err != nil {
		return frame.Null, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return t, nil
}

// parseFunctionCall parses name(args). CAST, TRY_CAST and COLUMNS have their
// own argument syntax; aggregates become AggregateExpr.
func (p *Parser) parseFunctionCall() (Expr, error) {
	name := p.current().Value
	upper := strings.ToUpper(name)
	p.advance() // name
	p.advance() // (

	switch {
	case upper == "CAST" || upper == "TRY_CAST":
		return p.parseCast(upper == "TRY_CAST")
	case upper == "COLUMNS":
		return p.parseColumns()
	case IsAggregateFunction(upper):
		return p.parseAggregate(upper)
	}

	fn, ok := GetGlobalRegistry().Get(upper)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}

	var args []Expr
	if p.current().Type != TokenRightParen {
		var err error
		if args, err = p.parseExpressionList(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokenRightParen, ") after function arguments"); err != nil {
		return nil, err
	}
	if err := checkArity(fn, len(args)); err != nil {
		return nil, err
	}

	return &FunctionCall{Name: fn.Name(), Args: args, fn: fn}, nil
}

// parseCast parses the remainder of CAST(x AS type)
func (p *Parser) parseCast(try bool) (Expr, error) {
	x, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenAs, "AS in CAST"); err != nil {
		return nil, err
	}
	t, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRightParen, ") after CAST"); err != nil {
		return nil, err
	}
	return &CastExpr{X: x, Type: t, Try: try}, nil
}

// parseColumns parses the remainder of COLUMNS(* [EXCLUDE ...]) or
// COLUMNS('regex')
func (p *Parser) parseColumns() (Expr, error) {
	c := &ColumnsExpr{}

	switch p.current().Type {
	case TokenStar:
		p.advance()
		if p.isWord("EXCLUDE") {
			p.advance()
			names, err := p.parseNameList()
			if err != nil {
				return nil, err
			}
			c.Exclude = names
		}
	case TokenString:
		if _, err := regexp.Compile(p.current().Value); err != nil {
			return nil, p.errorf("invalid COLUMNS pattern: %v", err)
		}
		c.Pattern = p.current().Value
		p.advance()
	default:
		return nil, p.errorf("expected * or a pattern in COLUMNS, got %s", describeToken(p.current()))
	}

	if err := p.expect(TokenRightParen, ") after COLUMNS"); err != nil {
		return nil, err
	}
	return c, nil
}

// parseAggregate parses the remainder of COUNT(*), COUNT([DISTINCT] x),
// SUM(x) and friends
func (p *Parser) parseAggregate(name string) (Expr, error) {
	agg := &AggregateExpr{Func: name}

	if p.current().Type == TokenStar {
		if name != "COUNT" {
			return nil, p.errorf("%s(*) is not supported", name)
		}
		p.advance()
		agg.Star = true
	} else {
		if p.current().Type == TokenDistinct {
			p.advance()
			agg.Distinct = true
		}
		if p.current().Type == TokenRightParen {
			return nil, p.errorf("%s requires an argument", name)
		}
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if containsAggregate(arg) {
			return nil, fmt.Errorf("%w: aggregate function calls cannot be nested", ErrSyntax)
		}
		agg.Arg = arg
	}

	if err := p.expect(TokenRightParen, ") after aggregate"); err != nil {
		return nil, err
	}
	return agg, nil
}
