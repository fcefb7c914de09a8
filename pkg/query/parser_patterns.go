package query

// parsePattern parses (a)-[r:T]->(b)... Relationship chains are parsed so
// the planner can reject them with a clear error.
func (p *Parser) parsePattern() (*Pattern, error) {
	pattern := &Pattern{}

	node, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	pattern.Nodes = append(pattern.Nodes, node)

	for p.peek().Type == TokenMinus || p.peek().Type == TokenArrowLeft {
		rel, err := p.parseRelationship()
		if err != nil {
			return nil, err
		}
		pattern.Relationships = append(pattern.Relationships, rel)

		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		pattern.Nodes = append(pattern.Nodes, node)
	}

	return pattern, nil
}

// parseNode parses (variable:Label:Other {key: value})
func (p *Parser) parseNode() (*NodePattern, error) {
	if _, err := p.expect(TokenLeftParen); err != nil {
		return nil, err
	}

	node := &NodePattern{}
	if p.peek().Type == TokenIdentifier {
		node.Variable = p.advance().Value
	}

	for p.match(TokenColon) {
		label, err := p.parseName("label")
		if err != nil {
			return nil, err
		}
		node.Labels = append(node.Labels, label)
	}

	if p.peek().Type == TokenLeftBrace {
		props, err := p.parseProperties()
		if err != nil {
			return nil, err
		}
		node.Properties = props
	}

	if _, err := p.expect(TokenRightParen); err != nil {
		return nil, err
	}
	return node, nil
}

// parseRelationship parses -[r:TYPE]->, <-[r:TYPE]- and -[r:TYPE]-
func (p *Parser) parseRelationship() (*RelationshipPattern, error) {
	rel := &RelationshipPattern{Direction: DirectionBoth}
	incoming := p.advance().Type == TokenArrowLeft

	if p.match(TokenLeftBracket) {
		if p.peek().Type == TokenIdentifier {
			rel.Variable = p.advance().Value
		}
		if p.match(TokenColon) {
			relType, err := p.parseName("relationship type")
			if err != nil {
				return nil, err
			}
			rel.Type = relType
		}
		if _, err := p.expect(TokenRightBracket); err != nil {
			return nil, err
		}
	}

	switch {
	case p.match(TokenArrowRight):
		if incoming {
			return nil, p.errorf(p.peek(), "relationship cannot point both ways")
		}
		rel.Direction = DirectionOutgoing
	case p.match(TokenMinus):
		if incoming {
			rel.Direction = DirectionIncoming
		}
	default:
		return nil, p.errorf(p.peek(), "expected - or -> to close relationship, got %s", describe(p.peek()))
	}
	return rel, nil
}

// parseProperties parses {key: value, ...} keeping written order
func (p *Parser) parseProperties() ([]PropertyPair, error) {
	if _, err := p.expect(TokenLeftBrace); err != nil {
		return nil, err
	}

	var props []PropertyPair
	if p.match(TokenRightBrace) {
		return props, nil
	}

	seen := make(map[string]bool)
	for {
		keyTok := p.peek()
		key, err := p.parseName("property")
		if err != nil {
			return nil, err
		}
		if seen[key] {
			return nil, p.errorf(keyTok, "duplicate property %q in map", key)
		}
		seen[key] = true

		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		props = append(props, PropertyPair{Key: key, Value: value})

		if !p.match(TokenComma) {
			break
		}
	}

	if _, err := p.expect(TokenRightBrace); err != nil {
		return nil, err
	}
	return props, nil
}

// parseValue parses a literal: number, string, boolean, null or list
func (p *Parser) parseValue() (any, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenString:
		p.advance()
		return tok.Value, nil
	case TokenNumber:
		p.advance()
		return parseNumber(tok)
	case TokenMinus:
		p.advance()
		num, err := p.expect(TokenNumber)
		if err != nil {
			return nil, err
		}
		v, err := parseNumber(num)
		if err != nil {
			return nil, err
		}
		return negate(v), nil
	case TokenTrue:
		p.advance()
		return true, nil
	case TokenFalse:
		p.advance()
		return false, nil
	case TokenNull:
		p.advance()
		return nil, nil
	case TokenLeftBracket:
		p.advance()
		list := make([]any, 0)
		if p.match(TokenRightBracket) {
			return list, nil
		}
		for {
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			list = append(list, v)
			if !p.match(TokenComma) {
				break
			}
		}
		if _, err := p.expect(TokenRightBracket); err != nil {
			return nil, err
		}
		return list, nil
	}
	return nil, p.errorf(tok, "expected literal value, got %s", describe(tok))
}
