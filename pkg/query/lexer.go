package query

import (
	"fmt"
	"strings"
	"unicode"
)

// Token represents a lexical token
type Token struct {
	Type   TokenType
	Value  string
	Pos    int
	Line   int
	Column int
}

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Keywords
	TokenMatch
	TokenWhere
	TokenReturn
	TokenCreate
	TokenDrop
	TokenIndex
	TokenOn
	TokenExplain
	TokenProfile
	TokenLimit
	TokenSkip
	TokenOrder
	TokenBy
	TokenAsc
	TokenDesc
	TokenDistinct
	TokenAs
	TokenAnd
	TokenOr
	TokenXor
	TokenNot
	TokenIn
	TokenIs
	TokenStarts
	TokenEnds
	TokenWith
	TokenContains

	// Identifiers and literals
	TokenIdentifier
	TokenString
	TokenNumber
	TokenTrue
	TokenFalse
	TokenNull

	// Operators
	TokenEquals        // =
	TokenNotEquals     // !=, <>
	TokenLessThan      // <
	TokenGreaterThan   // >
	TokenLessEquals    // <=
	TokenGreaterEquals // >=
	TokenPlus          // +
	TokenMinus         // -
	TokenStar          // *
	TokenSlash         // /
	TokenPercent       // %
	TokenDot           // .
	TokenColon         // :
	TokenComma         // ,
	TokenSemicolon     // ;

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenLeftBrace    // {
	TokenRightBrace   // }

	// Relationship arrows
	TokenArrowLeft  // <-
	TokenArrowRight // ->
)

var keywords = map[string]TokenType{
	"MATCH":    TokenMatch,
	"WHERE":    TokenWhere,
	"RETURN":   TokenReturn,
	"CREATE":   TokenCreate,
	"DROP":     TokenDrop,
	"INDEX":    TokenIndex,
	"ON":       TokenOn,
	"EXPLAIN":  TokenExplain,
	"PROFILE":  TokenProfile,
	"LIMIT":    TokenLimit,
	"SKIP":     TokenSkip,
	"ORDER":    TokenOrder,
	"BY":       TokenBy,
	"ASC":      TokenAsc,
	"DESC":     TokenDesc,
	"DISTINCT": TokenDistinct,
	"AS":       TokenAs,
	"AND":      TokenAnd,
	"OR":       TokenOr,
	"XOR":      TokenXor,
	"NOT":      TokenNot,
	"IN":       TokenIn,
	"IS":       TokenIs,
	"STARTS":   TokenStarts,
	"ENDS":     TokenEnds,
	"WITH":     TokenWith,
	"CONTAINS": TokenContains,
	"TRUE":     TokenTrue,
	"FALSE":    TokenFalse,
	"NULL":     TokenNull,
}

var tokenNames = map[TokenType]string{
	TokenEOF:           "EOF",
	TokenIdentifier:    "identifier",
	TokenString:        "string",
	TokenNumber:        "number",
	TokenEquals:        "=",
	TokenNotEquals:     "<>",
	TokenLessThan:      "<",
	TokenGreaterThan:   ">",
	TokenLessEquals:    "<=",
	TokenGreaterEquals: ">=",
	TokenPlus:          "+",
	TokenMinus:         "-",
	TokenStar:          "*",
	TokenSlash:         "/",
	TokenPercent:       "%",
	TokenDot:           ".",
	TokenColon:         ":",
	TokenComma:         ",",
	TokenSemicolon:     ";",
	TokenLeftParen:     "(",
	TokenRightParen:    ")",
	TokenLeftBracket:   "[",
	TokenRightBracket:  "]",
	TokenLeftBrace:     "{",
	TokenRightBrace:    "}",
	TokenArrowLeft:     "<-",
	TokenArrowRight:    "->",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for word, tt := range keywords {
		if tt == t {
			return word
		}
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Lexer tokenizes query text
type Lexer struct {
	input  string
	pos    int
	line   int
	column int
	tokens []Token
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		column: 1,
		tokens: make([]Token, 0),
	}
}

// Tokenize converts the input string into tokens
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.pos < len(l.input) {
		if unicode.IsSpace(rune(l.input[l.pos])) {
			l.skipWhitespace()
			continue
		}

		if l.peek() == '/' && l.peekAhead(1) == '/' {
			l.skipLineComment()
			continue
		}

		token, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, token)
	}

	l.tokens = append(l.tokens, Token{
		Type:   TokenEOF,
		Pos:    l.pos,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, nil
}

// nextToken reads the next token
func (l *Lexer) nextToken() (Token, error) {
	start, line, col := l.pos, l.line, l.column
	ch := l.peek()

	single := map[byte]TokenType{
		'(': TokenLeftParen,
		')': TokenRightParen,
		'[': TokenLeftBracket,
		']': TokenRightBracket,
		'{': TokenLeftBrace,
		'}': TokenRightBrace,
		',': TokenComma,
		';': TokenSemicolon,
		'.': TokenDot,
		':': TokenColon,
		'+': TokenPlus,
		'*': TokenStar,
		'/': TokenSlash,
		'%': TokenPercent,
		'=': TokenEquals,
	}
	if tt, ok := single[ch]; ok {
		l.advance()
		return l.makeToken(tt, string(ch), start, line, col), nil
	}

	switch ch {
	case '!':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(TokenNotEquals, "!=", start, line, col), nil
		}
		return Token{}, l.errorf(line, col, "unexpected character '!'")
	case '<':
		l.advance()
		switch l.peek() {
		case '=':
			l.advance()
			return l.makeToken(TokenLessEquals, "<=", start, line, col), nil
		case '>':
			l.advance()
			return l.makeToken(TokenNotEquals, "<>", start, line, col), nil
		case '-':
			l.advance()
			return l.makeToken(TokenArrowLeft, "<-", start, line, col), nil
		}
		return l.makeToken(TokenLessThan, "<", start, line, col), nil
	case '>':
		l.advance()
		if l.peek() == '=' {
			l.advance()
			return l.makeToken(TokenGreaterEquals, ">=", start, line, col), nil
		}
		return l.makeToken(TokenGreaterThan, ">", start, line, col), nil
	case '-':
		l.advance()
		if l.peek() == '>' {
			l.advance()
			return l.makeToken(TokenArrowRight, "->", start, line, col), nil
		}
		return l.makeToken(TokenMinus, "-", start, line, col), nil
	case '\'', '"':
		return l.readString()
	case '`':
		return l.readQuotedIdentifier()
	}

	if isDigit(ch) {
		return l.readNumber()
	}

	if unicode.IsLetter(rune(ch)) || ch == '_' {
		return l.readIdentifier(), nil
	}

	return Token{}, l.errorf(line, col, "unexpected character '%c'", ch)
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() Token {
	start, line, col := l.pos, l.line, l.column

	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.advance()
	}

	value := l.input[start:l.pos]
	if tokenType, ok := keywords[strings.ToUpper(value)]; ok {
		return l.makeToken(tokenType, value, start, line, col)
	}
	return l.makeToken(TokenIdentifier, value, start, line, col)
}

// readQuotedIdentifier reads a backtick-quoted identifier, which is never a keyword
func (l *Lexer) readQuotedIdentifier() (Token, error) {
	start, line, col := l.pos, l.line, l.column
	l.advance()

	var sb strings.Builder
	for l.pos < len(l.input) && l.peek() != '`' {
		sb.WriteByte(l.advance())
	}
	if l.pos >= len(l.input) {
		return Token{}, l.errorf(line, col, "unterminated quoted identifier")
	}
	l.advance()

	if sb.Len() == 0 {
		return Token{}, l.errorf(line, col, "empty quoted identifier")
	}
	return l.makeToken(TokenIdentifier, sb.String(), start, line, col), nil
}

// readNumber reads an integer or decimal literal. A dot not followed by a
// digit ends the number.
func (l *Lexer) readNumber() (Token, error) {
	start, line, col := l.pos, l.line, l.column

	for l.pos < len(l.input) && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAhead(1)) {
		l.advance()
		for l.pos < len(l.input) && isDigit(l.peek()) {
			l.advance()
		}
	}
	if c := l.peek(); c == 'e' || c == 'E' {
		next := l.peekAhead(1)
		if isDigit(next) || ((next == '-' || next == '+') && isDigit(l.peekAhead(2))) {
			l.advance()
			l.advance()
			for l.pos < len(l.input) && isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	if isIdentChar(l.peek()) {
		return Token{}, l.errorf(line, col, "invalid number literal %q", l.input[start:l.pos+1])
	}

	return l.makeToken(TokenNumber, l.input[start:l.pos], start, line, col), nil
}

// readString reads a string literal
func (l *Lexer) readString() (Token, error) {
	start, line, col := l.pos, l.line, l.column
	quote := l.advance()

	var sb strings.Builder
	for l.pos < len(l.input) && l.peek() != quote {
		if l.peek() != '\\' {
			sb.WriteByte(l.advance())
			continue
		}
		l.advance()
		if l.pos >= len(l.input) {
			break
		}
		switch esc := l.advance(); esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(esc)
		}
	}

	if l.pos >= len(l.input) {
		return Token{}, l.errorf(line, col, "unterminated string")
	}
	l.advance()

	return l.makeToken(TokenString, sb.String(), start, line, col), nil
}

func (l *Lexer) makeToken(tt TokenType, value string, pos, line, col int) Token {
	return Token{Type: tt, Value: value, Pos: pos, Line: line, Column: col}
}

func (l *Lexer) errorf(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekAhead(n int) byte {
	pos := l.pos + n
	if pos >= len(l.input) {
		return 0
	}
	return l.input[pos]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	l.column++
	if ch == '\n' {
		l.line++
		l.column = 1
	}
	return ch
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.advance()
	}
}

func (l *Lexer) skipLineComment() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return c == '_' || isDigit(c) || unicode.IsLetter(rune(c))
}
