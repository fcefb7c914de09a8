package query

import (
	"strconv"
	"strings"
)

// parseExpression parses an expression with operator precedence:
// OR < XOR < AND < NOT < comparison < additive < multiplicative < unary.
func (p *Parser) parseExpression() (Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expression, error) {
	return p.parseLeftAssoc(p.parseXor, map[TokenType]string{TokenOr: OpOr})
}

func (p *Parser) parseXor() (Expression, error) {
	return p.parseLeftAssoc(p.parseAnd, map[TokenType]string{TokenXor: OpXor})
}

func (p *Parser) parseAnd() (Expression, error) {
	return p.parseLeftAssoc(p.parseNot, map[TokenType]string{TokenAnd: OpAnd})
}

func (p *Parser) parseNot() (Expression, error) {
	if p.match(TokenNot) {
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{Operator: "NOT", Operand: operand}, nil
	}
	return p.parseComparison()
}

var comparisonOps = map[TokenType]string{
	TokenEquals:        OpEq,
	TokenNotEquals:     OpNeq,
	TokenLessThan:      OpLt,
	TokenGreaterThan:   OpGt,
	TokenLessEquals:    OpLte,
	TokenGreaterEquals: OpGte,
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if op, ok := comparisonOps[tok.Type]; ok {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &BinaryExpression{Left: left, Operator: op, Right: right}, nil
	}

	var op string
	switch tok.Type {
	case TokenIs:
		p.advance()
		negated := p.match(TokenNot)
		if _, err := p.expect(TokenNull); err != nil {
			return nil, err
		}
		return &IsNullExpression{Operand: left, Negated: negated}, nil
	case TokenIn:
		p.advance()
		op = OpIn
	case TokenStarts, TokenEnds:
		p.advance()
		if _, err := p.expect(TokenWith); err != nil {
			return nil, err
		}
		op = OpStartsWith
		if tok.Type == TokenEnds {
			op = OpEndsWith
		}
	case TokenContains:
		p.advance()
		op = OpContains
	default:
		return left, nil
	}

	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &BinaryExpression{Left: left, Operator: op, Right: right}, nil
}

func (p *Parser) parseAdditive() (Expression, error) {
	return p.parseLeftAssoc(p.parseMultiplicative, map[TokenType]string{
		TokenPlus:  OpAdd,
		TokenMinus: OpSub,
	})
}

func (p *Parser) parseMultiplicative() (Expression, error) {
	return p.parseLeftAssoc(p.parseUnary, map[TokenType]string{
		TokenStar:    OpMul,
		TokenSlash:   OpDiv,
		TokenPercent: OpMod,
	})
}

func (p *Parser) parseLeftAssoc(next func() (Expression, error), ops map[TokenType]string) (Expression, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.peek().Type]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: op, Right: right}
	}
}

// parseUnary folds a minus sign into a numeric literal so that "-5" stays
// usable as an index bound.
func (p *Parser) parseUnary() (Expression, error) {
	if p.match(TokenMinus) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := operand.(*LiteralExpression); ok {
			switch lit.Value.(type) {
			case int64, float64:
				return &LiteralExpression{Value: negate(lit.Value)}, nil
			}
		}
		return &UnaryExpression{Operator: "-", Operand: operand}, nil
	}
	if p.match(TokenPlus) {
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expression, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		v, err := parseNumber(tok)
		if err != nil {
			return nil, err
		}
		return &LiteralExpression{Value: v}, nil
	case TokenString:
		p.advance()
		return &LiteralExpression{Value: tok.Value}, nil
	case TokenTrue:
		p.advance()
		return &LiteralExpression{Value: true}, nil
	case TokenFalse:
		p.advance()
		return &LiteralExpression{Value: false}, nil
	case TokenNull:
		p.advance()
		return &LiteralExpression{Value: nil}, nil
	case TokenLeftParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil
	case TokenLeftBracket:
		return p.parseList()
	case TokenIdentifier:
		return p.parseIdentifierExpression()
	}

	return nil, p.errorf(tok, "expected expression, got %s", describe(tok))
}

func (p *Parser) parseList() (Expression, error) {
	p.advance() // consume [
	list := &ListExpression{Elements: make([]Expression, 0)}
	if p.match(TokenRightBracket) {
		return list, nil
	}
	for {
		el, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list.Elements = append(list.Elements, el)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRightBracket); err != nil {
		return nil, err
	}
	return list, nil
}

// parseIdentifierExpression parses name, name.prop, name:Label or name(args)
func (p *Parser) parseIdentifierExpression() (Expression, error) {
	name := p.advance().Value

	switch p.peek().Type {
	case TokenDot:
		p.advance()
		prop, err := p.parseName("property")
		if err != nil {
			return nil, err
		}
		return &PropertyExpression{Variable: name, Property: prop}, nil

	case TokenColon:
		expr := &LabelExpression{Variable: name}
		for p.match(TokenColon) {
			label, err := p.parseName("label")
			if err != nil {
				return nil, err
			}
			expr.Labels = append(expr.Labels, label)
		}
		return expr, nil

	case TokenLeftParen:
		p.advance()
		call := &FunctionCall{Name: strings.ToLower(name)}
		if p.match(TokenRightParen) {
			return call, nil
		}
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if !p.match(TokenComma) {
				break
			}
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return call, nil
	}

	return &VariableExpression{Name: name}, nil
}

// parseNumber returns int64 for integer literals and float64 otherwise
func parseNumber(tok Token) (any, error) {
	if !strings.ContainsAny(tok.Value, ".eE") {
		if i, err := strconv.ParseInt(tok.Value, 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Msg: "invalid number " + strconv.Quote(tok.Value)}
	}
	return f, nil
}

func negate(v any) any {
	switch n := v.(type) {
	case int64:
		return -n
	case float64:
		return -n
	}
	return v
}
