package query

import (
	"fmt"
	"strconv"
)

// Parser builds an AST from tokens
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse tokenizes and parses query text.
func Parse(text string) (*Query, error) {
	tokens, err := NewLexer(text).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// Parse parses the tokens into a Query AST
func (p *Parser) Parse() (*Query, error) {
	query := &Query{}

	switch {
	case p.match(TokenExplain):
		query.Explain = true
	case p.match(TokenProfile):
		query.Profile = true
	}

	switch p.peek().Type {
	case TokenCreate, TokenDrop:
		if query.Explain || query.Profile {
			return nil, p.errorf(p.peek(), "EXPLAIN and PROFILE apply to MATCH queries only")
		}
		cmd, err := p.parseIndexCommand()
		if err != nil {
			return nil, err
		}
		query.Index = cmd
	case TokenMatch:
		if err := p.parseReadQuery(query); err != nil {
			return nil, err
		}
	default:
		return nil, p.errorf(p.peek(), "expected MATCH, CREATE INDEX or DROP INDEX, got %s", describe(p.peek()))
	}

	p.match(TokenSemicolon)
	if !p.isAtEnd() {
		return nil, p.errorf(p.peek(), "unexpected %s", describe(p.peek()))
	}
	return query, nil
}

func (p *Parser) parseReadQuery(query *Query) error {
	for p.peek().Type == TokenMatch {
		if err := p.parseMatch(query); err != nil {
			return err
		}
	}

	if p.match(TokenWhere) {
		expr, err := p.parseExpression()
		if err != nil {
			return err
		}
		query.Where = &WhereClause{Expression: expr}
	}

	if !p.match(TokenReturn) {
		return p.errorf(p.peek(), "expected RETURN, got %s", describe(p.peek()))
	}
	ret, err := p.parseReturn()
	if err != nil {
		return err
	}
	query.Return = ret

	if p.match(TokenOrder) {
		if _, err := p.expect(TokenBy); err != nil {
			return err
		}
		if ret.OrderBy, err = p.parseOrderBy(); err != nil {
			return err
		}
	}

	if p.match(TokenSkip) {
		if query.Skip, err = p.parseCount("SKIP"); err != nil {
			return err
		}
	}

	if p.match(TokenLimit) {
		if query.Limit, err = p.parseCount("LIMIT"); err != nil {
			return err
		}
		query.HasLimit = true
	}
	return nil
}

// parseMatch parses MATCH pattern, pattern, ... and appends to the query's
// match clause, so consecutive MATCH clauses combine.
func (p *Parser) parseMatch(query *Query) error {
	p.advance() // consume MATCH

	if query.Match == nil {
		query.Match = &MatchClause{}
	}
	for {
		pattern, err := p.parsePattern()
		if err != nil {
			return err
		}
		query.Match.Patterns = append(query.Match.Patterns, pattern)

		if !p.match(TokenComma) {
			return nil
		}
	}
}

func (p *Parser) parseReturn() (*ReturnClause, error) {
	ret := &ReturnClause{Distinct: p.match(TokenDistinct)}

	if p.match(TokenStar) {
		ret.Star = true
		return ret, nil
	}

	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		item := &ReturnItem{Expression: expr}
		if p.match(TokenAs) {
			alias, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			item.Alias = alias.Value
		}
		ret.Items = append(ret.Items, item)

		if !p.match(TokenComma) {
			return ret, nil
		}
	}
}

func (p *Parser) parseOrderBy() ([]*OrderByItem, error) {
	var items []*OrderByItem
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		item := &OrderByItem{Expression: expr}
		if p.match(TokenDesc) {
			item.Descending = true
		} else {
			p.match(TokenAsc)
		}
		items = append(items, item)

		if !p.match(TokenComma) {
			return items, nil
		}
	}
}

func (p *Parser) parseCount(clause string) (int, error) {
	tok, err := p.expect(TokenNumber)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok.Value)
	if err != nil || n < 0 {
		return 0, p.errorf(tok, "invalid %s value: %s", clause, tok.Value)
	}
	return n, nil
}

// parseIndexCommand parses CREATE INDEX ON :Label(property) and
// DROP INDEX ON :Label(property).
func (p *Parser) parseIndexCommand() (*IndexCommand, error) {
	cmd := &IndexCommand{Drop: p.advance().Type == TokenDrop}

	for _, tt := range []TokenType{TokenIndex, TokenOn, TokenColon} {
		if _, err := p.expect(tt); err != nil {
			return nil, err
		}
	}
	label, err := p.parseName("label")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}
	prop, err := p.parseName("property")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}

	cmd.Label, cmd.Property = label, prop
	return cmd, nil
}

// parseName reads a label, property key or map key. Keywords are accepted
// so that names such as "index" or "order" remain usable.
func (p *Parser) parseName(what string) (string, error) {
	tok := p.peek()
	if tok.Type == TokenIdentifier || isKeyword(tok.Type) {
		p.advance()
		return tok.Value, nil
	}
	return "", p.errorf(tok, "expected %s name, got %s", what, describe(tok))
}

func isKeyword(tt TokenType) bool {
	return tt >= TokenMatch && tt <= TokenContains || tt == TokenTrue || tt == TokenFalse || tt == TokenNull
}

// Helper methods

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s, got %s", tt, describe(tok))
	}
	p.advance()
	return tok, nil
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == TokenEOF
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf(format, args...)}
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenIdentifier, TokenNumber:
		return fmt.Sprintf("%s %q", tok.Type, tok.Value)
	case TokenString:
		return fmt.Sprintf("string %q", tok.Value)
	}
	return fmt.Sprintf("%q", tok.Value)
}
