package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes SQL query strings
type Lexer struct {
	input string
	pos   int // offset of ch
	next  int // offset after ch
	ch    rune
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character
func (l *Lexer) readChar() {
	l.pos = l.next
	if l.next >= len(l.input) {
		l.ch = 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.next:])
	l.ch = r
	l.next += size
}

// peekChar looks at the next character without advancing
func (l *Lexer) peekChar() rune {
	if l.next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.next:])
	return r
}

// skipWhitespace skips whitespace and -- line comments
func (l *Lexer) skipWhitespace() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}
		if l.ch != '-' || l.peekChar() != '-' {
			return
		}
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
	}
}

// readQuoted reads a string or identifier delimited by quote. A doubled quote
// inside stands for the quote character itself.
func (l *Lexer) readQuoted(quote rune) (string, bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for {
		switch l.ch {
		case 0:
			return result.String(), false
		case quote:
			if l.peekChar() != quote {
				l.readChar() // skip closing quote
				return result.String(), true
			}
			l.readChar()
		}
		result.WriteRune(l.ch)
		l.readChar()
	}
}

// readNumber reads an integer or decimal literal with optional exponent
func (l *Lexer) readNumber() string {
	start := l.pos
	for unicode.IsDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && (start != l.pos || unicode.IsDigit(l.peekChar())) {
		l.readChar()
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		peek := l.peekChar()
		if unicode.IsDigit(peek) || peek == '+' || peek == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for unicode.IsDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.pos]
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// single maps one-character tokens
var single = map[rune]TokenType{
	'=': TokenEqual,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
	',': TokenComma,
	'.': TokenDot,
	';': TokenSemicolon,
	'(': TokenLeftParen,
	')': TokenRightParen,
	'[': TokenLeftBracket,
	']': TokenRightBracket,
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	start := l.pos
	tok := Token{Pos: start}

	// two-character operators first
	two := func(t TokenType, value string) Token {
		l.readChar()
		l.readChar()
		return Token{Type: t, Value: value, Pos: start}
	}

	switch {
	case l.ch == 0:
		tok.Type = TokenEOF
	case l.ch == '!' && l.peekChar() == '=':
		return two(TokenNotEqual, "!=")
	case l.ch == '<' && l.peekChar() == '>':
		return two(TokenNotEqual, "<>")
	case l.ch == '<' && l.peekChar() == '=':
		return two(TokenLessEqual, "<=")
	case l.ch == '>' && l.peekChar() == '=':
		return two(TokenGreaterEqual, ">=")
	case l.ch == '=' && l.peekChar() == '=':
		return two(TokenEqual, "==")
	case l.ch == '|' && l.peekChar() == '|':
		return two(TokenConcat, "||")
	case l.ch == ':' && l.peekChar() == ':':
		return two(TokenDoubleColon, "::")
	case l.ch == '<':
		tok.Type, tok.Value = TokenLess, "<"
		l.readChar()
	case l.ch == '>':
		tok.Type, tok.Value = TokenGreater, ">"
		l.readChar()
	case l.ch == '\'':
		value, ok := l.readQuoted('\'')
		if !ok {
			return Token{Type: TokenError, Value: "unterminated string", Pos: start}
		}
		tok.Type, tok.Value = TokenString, value
	case l.ch == '"':
		value, ok := l.readQuoted('"')
		if !ok {
			return Token{Type: TokenError, Value: "unterminated quoted identifier", Pos: start}
		}
		tok.Type, tok.Value, tok.Quoted = TokenIdent, value, true
	case unicode.IsDigit(l.ch) || l.ch == '.' && unicode.IsDigit(l.peekChar()):
		tok.Type, tok.Value = TokenNumber, l.readNumber()
	case unicode.IsLetter(l.ch) || l.ch == '_':
		value := l.readIdentifier()
		tok.Type, tok.Value = identifierType(value), value
	default:
		if t, ok := single[l.ch]; ok {
			tok.Type, tok.Value = t, string(l.ch)
		} else {
			tok.Type, tok.Value = TokenError, string(l.ch)
		}
		l.readChar()
	}

	return tok
}

// keywords are reserved words; anything else lexes as an identifier
var keywords = map[string]TokenType{
	"SELECT":   TokenSelect,
	"FROM":     TokenFrom,
	"WHERE":    TokenWhere,
	"AND":      TokenAnd,
	"OR":       TokenOr,
	"AS":       TokenAs,
	"GROUP":    TokenGroup,
	"BY":       TokenBy,
	"HAVING":   TokenHaving,
	"ORDER":    TokenOrder,
	"ASC":      TokenAsc,
	"DESC":     TokenDesc,
	"LIMIT":    TokenLimit,
	"OFFSET":   TokenOffset,
	"IN":       TokenIn,
	"LIKE":     TokenLike,
	"BETWEEN":  TokenBetween,
	"IS":       TokenIs,
	"NOT":      TokenNot,
	"NULL":     TokenNull,
	"NOTNULL":  TokenNotNull,
	"ISNULL":   TokenIsNull,
	"DISTINCT": TokenDistinct,
	"CASE":     TokenCase,
	"WHEN":     TokenWhen,
	"THEN":     TokenThen,
	"ELSE":     TokenElse,
	"END":      TokenEnd,
	"CREATE":   TokenCreate,
	"DROP":     TokenDrop,
	"DESCRIBE": TokenDescribe,
	"TRUE":     TokenBool,
	"FALSE":    TokenBool,
}

// identifierType determines if an identifier is a keyword
func identifierType(ident string) TokenType {
	if tokType, ok := keywords[strings.ToUpper(ident)]; ok {
		return tokType
	}
	return TokenIdent
}

// Tokenize returns all tokens from the input
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}

	return tokens
}
