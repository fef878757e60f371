package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser parses SQL statements into an AST
type Parser struct {
	tokens       []Token
	pos          int
	depthCounter *ExpressionDepthCounter
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens:       tokens,
		pos:          0,
		depthCounter: NewExpressionDepthCounter(),
	}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without advancing
func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// isWord reports whether the current token is the unquoted identifier word.
// Used for words that are only keywords in context (TABLE, EXCLUDE, ALL...).
func (p *Parser) isWord(word string) bool {
	tok := p.current()
	return tok.Type == TokenIdent && !tok.Quoted && strings.EqualFold(tok.Value, word)
}

// expectWord consumes a contextual keyword
func (p *Parser) expectWord(word string) error {
	if !p.isWord(word) {
		return p.errorf("expected %s, got %s", word, describeToken(p.current()))
	}
	p.advance()
	return nil
}

// expect checks if current token matches expected type and advances
func (p *Parser) expect(tokType TokenType, what string) error {
	if p.current().Type != tokType {
		return p.errorf("expected %s, got %s", what, describeToken(p.current()))
	}
	p.advance()
	return nil
}

// errorf builds an ErrSyntax error located at the current token
func (p *Parser) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	tok := p.current()
	if tok.Type == TokenEOF {
		return fmt.Errorf("%w: %s at end of input", ErrSyntax, msg)
	}
	return fmt.Errorf("%w: %s at position %d", ErrSyntax, msg, tok.Pos)
}

func describeToken(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenString:
		return fmt.Sprintf("string '%s'", tok.Value)
	case TokenIdent:
		if tok.Quoted {
			return fmt.Sprintf("identifier %q", tok.Value)
		}
		return fmt.Sprintf("identifier %s", tok.Value)
	default:
		return fmt.Sprintf("%q", tok.Value)
	}
}

// Parse parses a single SQL statement. A trailing semicolon is allowed.
func Parse(sql string) (Statement, error) {
	stmts, err := ParseScript(sql)
	if err != nil {
		return nil, err
	}
	if len(stmts) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one statement, got %d", ErrSyntax, len(stmts))
	}
	return stmts[0], nil
}

// ParseScript parses a semicolon-separated list of statements
func ParseScript(sql string) ([]Statement, error) {
	// Validate query length
	if err := ValidateQuery(sql); err != nil {
		return nil, err
	}

	tokens := Tokenize(sql)

	// Validate token count
	if err := ValidateTokens(tokens); err != nil {
		return nil, err
	}
	if last := tokens[len(tokens)-1]; last.Type == TokenError {
		return nil, fmt.Errorf("%w: invalid input %q at position %d", ErrSyntax, last.Value, last.Pos)
	}

	parser := NewParser(tokens)
	var stmts []Statement
	for {
		for parser.current().Type == TokenSemicolon {
			parser.advance()
		}
		if parser.current().Type == TokenEOF {
			break
		}

		stmt, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		switch parser.current().Type {
		case TokenSemicolon, TokenEOF:
		default:
			return nil, parser.errorf("unexpected %s after statement", describeToken(parser.current()))
		}
	}

	if len(stmts) == 0 {
		return nil, fmt.Errorf("%w: empty query", ErrSyntax)
	}
	return stmts, nil
}

// parseStatement dispatches on the leading keyword
func (p *Parser) parseStatement() (Statement, error) {
	switch p.current().Type {
	case TokenSelect, TokenFrom:
		return p.parseSelect()
	case TokenLeftParen:
		return p.parseParenSelect()
	case TokenCreate:
		return p.parseCreate()
	case TokenDrop:
		return p.parseDrop()
	case TokenDescribe:
		p.advance()
		return p.parseDescribeTarget()
	}

	if p.isWord("SHOW") {
		p.advance()
		if p.isWord("ALL") {
			p.advance()
		}
		if p.isWord("TABLES") {
			p.advance()
			return &ShowTablesStmt{}, nil
		}
		return p.parseDescribeTarget()
	}

	return nil, p.errorf("expected SELECT, FROM, CREATE, DROP, DESCRIBE or SHOW, got %s", describeToken(p.current()))
}

// parseParenSelect parses ( select )
func (p *Parser) parseParenSelect() (*SelectStmt, error) {
	if err := p.expect(TokenLeftParen, "("); err != nil {
		return nil, err
	}
	stmt, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRightParen, ")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseDescribeTarget parses the object of DESCRIBE: a query or a name
func (p *Parser) parseDescribeTarget() (Statement, error) {
	switch p.current().Type {
	case TokenSelect, TokenFrom:
		q, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		return &DescribeStmt{Query: q}, nil
	case TokenLeftParen:
		q, err := p.parseParenSelect()
		if err != nil {
			return nil, err
		}
		return &DescribeStmt{Query: q}, nil
	}

	name, err := p.parseObjectName()
	if err != nil {
		return nil, err
	}
	return &DescribeStmt{Name: name}, nil
}

// parseObjectName parses a catalog object name
func (p *Parser) parseObjectName() (string, error) {
	tok := p.current()
	if tok.Type != TokenIdent {
		return "", p.errorf("expected name, got %s", describeToken(tok))
	}
	if err := ValidateIdentifier(tok.Value); err != nil {
		return "", err
	}
	p.advance()
	return tok.Value, nil
}

// parseObjectKind parses TABLE or VIEW
func (p *Parser) parseObjectKind() (ObjectKind, error) {
	switch {
	case p.isWord("TABLE"):
		p.advance()
		return KindTable, nil
	case p.isWord("VIEW"):
		p.advance()
		return KindView, nil
	default:
		return 0, p.errorf("expected TABLE or VIEW, got %s", describeToken(p.current()))
	}
}

// parseCreate parses: CREATE [OR REPLACE] [TEMP] TABLE|VIEW [IF NOT EXISTS] name AS query
func (p *Parser) parseCreate() (Statement, error) {
	p.advance() // CREATE

	stmt := &CreateStmt{}
	if p.current().Type == TokenOr {
		p.advance()
		if err := p.expectWord("REPLACE"); err != nil {
			return nil, err
		}
		stmt.OrReplace = true
	}
	if p.isWord("TEMP") || p.isWord("TEMPORARY") {
		p.advance()
	}

	kind, err := p.parseObjectKind()
	if err != nil {
		return nil, err
	}
	stmt.Kind = kind

	if p.isWord("IF") {
		p.advance()
		if err := p.expect(TokenNot, "NOT"); err != nil {
			return nil, err
		}
		if err := p.expectWord("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	if stmt.OrReplace && stmt.IfNotExists {
		return nil, p.errorf("OR REPLACE and IF NOT EXISTS cannot be combined")
	}

	if stmt.Name, err = p.parseObjectName(); err != nil {
		return nil, err
	}

	if err := p.expect(TokenAs, "AS"); err != nil {
		return nil, err
	}

	if p.current().Type == TokenLeftParen {
		stmt.Query, err = p.parseParenSelect()
	} else {
		stmt.Query, err = p.parseSelect()
	}
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseDrop parses: DROP TABLE|VIEW [IF EXISTS] name
func (p *Parser) parseDrop() (Statement, error) {
	p.advance() // DROP

	kind, err := p.parseObjectKind()
	if err != nil {
		return nil, err
	}
	stmt := &DropStmt{Kind: kind}

	if p.isWord("IF") {
		p.advance()
		if err := p.expectWord("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfExists = true
	}

	if stmt.Name, err = p.parseObjectName(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseSelect parses a SELECT query or its FROM-first form:
//
//	SELECT [DISTINCT] items [FROM source] [WHERE e] [GROUP BY ...] [HAVING e] [ORDER BY ...] [LIMIT n] [OFFSET n]
//	FROM source [SELECT [DISTINCT] items] [WHERE e] ...
func (p *Parser) parseSelect() (*SelectStmt, error) {
	stmt := &SelectStmt{}
	fromFirst := false

	if p.current().Type == TokenFrom {
		p.advance()
		ref, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		stmt.From = ref
		fromFirst = true
	}

	switch {
	case p.current().Type == TokenSelect:
		p.advance()
		if p.current().Type == TokenDistinct {
			stmt.Distinct = true
			p.advance()
		}

		items, err := p.parseSelectList()
		if err != nil {
			return nil, fmt.Errorf("failed to parse SELECT list: %w", err)
		}
		stmt.Items = items

		if !fromFirst && p.current().Type == TokenFrom {
			p.advance()
			ref, err := p.parseTableRef()
			if err != nil {
				return nil, err
			}
			stmt.From = ref
		}
	case fromFirst:
		stmt.Items = []SelectItem{{Star: true}}
	default:
		return nil, p.errorf("expected SELECT, got %s", describeToken(p.current()))
	}

	// Parse WHERE clause (optional)
	if p.current().Type == TokenWhere {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse WHERE clause: %w", err)
		}
		stmt.Where = expr
	}

	// Parse GROUP BY clause (optional)
	if p.current().Type == TokenGroup {
		p.advance()
		if err := p.expect(TokenBy, "BY after GROUP"); err != nil {
			return nil, err
		}
		if p.isWord("ALL") {
			p.advance()
			stmt.GroupByAll = true
		} else {
			exprs, err := p.parseExpressionList()
			if err != nil {
				return nil, fmt.Errorf("failed to parse GROUP BY clause: %w", err)
			}
			stmt.GroupBy = exprs
		}
	}

	// Parse HAVING clause (optional)
	if p.current().Type == TokenHaving {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("failed to parse HAVING clause: %w", err)
		}
		stmt.Having = expr
	}

	// Parse ORDER BY clause (optional)
	if p.current().Type == TokenOrder {
		p.advance()
		if err := p.expect(TokenBy, "BY after ORDER"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderBy()
		if err != nil {
			return nil, fmt.Errorf("failed to parse ORDER BY clause: %w", err)
		}
		stmt.OrderBy = items
	}

	// LIMIT and OFFSET in either order
	for p.current().Type == TokenLimit || p.current().Type == TokenOffset {
		isLimit := p.current().Type == TokenLimit
		p.advance()
		n, err := p.parseCount()
		if err != nil {
			return nil, err
		}
		if isLimit {
			stmt.Limit = &n
		} else {
			stmt.Offset = &n
		}
	}

	return stmt, nil
}

// parseCount parses a non-negative integer literal for LIMIT/OFFSET
func (p *Parser) parseCount() (int64, error) {
	tok := p.current()
	if tok.Type != TokenNumber {
		return 0, p.errorf("expected a number, got %s", describeToken(tok))
	}
	n, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil || n < 0 {
		return 0, p.errorf("expected a non-negative integer, got %s", tok.Value)
	}
	p.advance()
	return n, nil
}

// parseTableRef parses a FROM source: name, 'path', or (subquery), with an
// optional alias
func (p *Parser) parseTableRef() (*TableRef, error) {
	ref := &TableRef{}
	tok := p.current()

	switch tok.Type {
	case TokenLeftParen:
		sub, err := p.parseParenSelect()
		if err != nil {
			return nil, fmt.Errorf("failed to parse subquery in FROM: %w", err)
		}
		ref.Subquery = sub
	case TokenString:
		if err := ValidatePath(tok.Value); err != nil {
			return nil, err
		}
		ref.Path = tok.Value
		p.advance()
	case TokenIdent:
		name, err := p.parseObjectName()
		if err != nil {
			return nil, err
		}
		ref.Name = name
	default:
		return nil, p.errorf("expected table name, file path or subquery after FROM, got %s", describeToken(tok))
	}

	// Parse optional alias
	if p.current().Type == TokenAs {
		p.advance()
		if p.current().Type != TokenIdent {
			return nil, p.errorf("expected alias after AS, got %s", describeToken(p.current()))
		}
	}
	if p.current().Type == TokenIdent {
		ref.Alias = p.current().Value
		p.advance()
	}

	return ref, nil
}

// parseSelectList parses comma-separated select items
func (p *Parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if p.current().Type != TokenComma {
			return items, nil
		}
		p.advance()
	}
}

// parseSelectItem parses *, * EXCLUDE (...), or expr [[AS] alias]
func (p *Parser) parseSelectItem() (SelectItem, error) {
	// t.* is treated like *
	if p.current().Type == TokenIdent && p.peek().Type == TokenDot &&
		p.pos+2 < len(p.tokens) && p.tokens[p.pos+2].Type == TokenStar {
		p.advance()
		p.advance()
	}

	if p.current().Type == TokenStar {
		p.advance()
		item := SelectItem{Star: true}
		if p.isWord("EXCLUDE") {
			p.advance()
			names, err := p.parseNameList()
			if err != nil {
				return SelectItem{}, err
			}
			item.Exclude = names
		}
		return item, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: expr}

	if p.current().Type == TokenAs {
		p.advance()
		tok := p.current()
		if tok.Type != TokenIdent && tok.Type != TokenString {
			return SelectItem{}, p.errorf("expected alias after AS, got %s", describeToken(tok))
		}
		item.Alias = tok.Value
		p.advance()
	} else if p.current().Type == TokenIdent {
		item.Alias = p.current().Value
		p.advance()
	}

	if item.Alias != "" {
		if err := ValidateIdentifier(item.Alias); err != nil {
			return SelectItem{}, err
		}
	}
	return item, nil
}

// parseNameList parses "(a, b, ...)" or a single name
func (p *Parser) parseNameList() ([]string, error) {
	if p.current().Type != TokenLeftParen {
		name, err := p.parseObjectName()
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}

	p.advance()
	var names []string
	for {
		name, err := p.parseObjectName()
		if err != nil {
			return nil, err
		}
		names = append(names, name)

		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		if err := p.expect(TokenRightParen, ")"); err != nil {
			return nil, err
		}
		return names, nil
	}
}

// parseOrderBy parses expr [ASC|DESC], ...
func (p *Parser) parseOrderBy() ([]OrderByItem, error) {
	var items []OrderByItem
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		item := OrderByItem{Expr: expr}

		switch p.current().Type {
		case TokenAsc:
			p.advance()
		case TokenDesc:
			item.Desc = true
			p.advance()
		}
		items = append(items, item)

		if p.current().Type != TokenComma {
			return items, nil
		}
		p.advance()
	}
}
