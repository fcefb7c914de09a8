package query

import (
	"errors"
	"testing"
)

func TestLexer_Tokens(t *testing.T) {
	input := `MATCH (p:person {age: 30}) WHERE p.age >= -1.5 AND p.name <> 'x' RETURN p`
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	expected := []TokenType{
		TokenMatch, TokenLeftParen, TokenIdentifier, TokenColon, TokenIdentifier,
		TokenLeftBrace, TokenIdentifier, TokenColon, TokenNumber, TokenRightBrace, TokenRightParen,
		TokenWhere, TokenIdentifier, TokenDot, TokenIdentifier, TokenGreaterEquals, TokenMinus, TokenNumber,
		TokenAnd, TokenIdentifier, TokenDot, TokenIdentifier, TokenNotEquals, TokenString,
		TokenReturn, TokenIdentifier, TokenEOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s (%q)", i, tt, tokens[i].Type, tokens[i].Value)
		}
	}
}

func TestLexer_KeywordsCaseInsensitive(t *testing.T) {
	tokens, err := NewLexer("match Return oRdEr bY starts WITH contains is not null").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	expected := []TokenType{
		TokenMatch, TokenReturn, TokenOrder, TokenBy, TokenStarts, TokenWith,
		TokenContains, TokenIs, TokenNot, TokenNull, TokenEOF,
	}
	for i, tt := range expected {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s", i, tt, tokens[i].Type)
		}
	}
}

func TestLexer_Literals(t *testing.T) {
	tests := []struct {
		input    string
		tokType  TokenType
		expected string
	}{
		{"42", TokenNumber, "42"},
		{"3.14", TokenNumber, "3.14"},
		{"1e3", TokenNumber, "1e3"},
		{`"double"`, TokenString, "double"},
		{`'single'`, TokenString, "single"},
		{`'it\'s'`, TokenString, "it's"},
		{`"tab\there"`, TokenString, "tab\there"},
		{"`odd name`", TokenIdentifier, "odd name"},
		{"_under", TokenIdentifier, "_under"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize failed: %v", err)
			}
			if tokens[0].Type != tt.tokType || tokens[0].Value != tt.expected {
				t.Errorf("got %s %q, want %s %q", tokens[0].Type, tokens[0].Value, tt.tokType, tt.expected)
			}
		})
	}
}

func TestLexer_DotAfterNumber(t *testing.T) {
	if tokens, err := NewLexer("12abc").Tokenize(); err == nil {
		t.Fatalf("expected error for 12abc, got %v", tokens)
	}

	tokens, err := NewLexer("[1..2]").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if tokens[1].Value != "1" || tokens[2].Type != TokenDot {
		t.Errorf("number consumed trailing dot: %v", tokens)
	}
}

func TestLexer_Comments(t *testing.T) {
	tokens, err := NewLexer("MATCH (n) // trailing comment\nRETURN n").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(tokens) != 7 {
		t.Errorf("expected 7 tokens, got %d", len(tokens))
	}
	if tokens[4].Line != 2 || tokens[4].Column != 1 {
		t.Errorf("RETURN at %d:%d, want 2:1", tokens[4].Line, tokens[4].Column)
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		column int
	}{
		{"unterminated string", "RETURN 'abc", 1, 8},
		{"bad character", "MATCH (n)\n  RETURN n#", 2, 11},
		{"lone bang", "!x", 1, 1},
		{"unterminated identifier", "`abc", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input).Tokenize()
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("expected *SyntaxError, got %v", err)
			}
			if syntaxErr.Line != tt.line || syntaxErr.Column != tt.column {
				t.Errorf("error at %d:%d, want %d:%d (%v)", syntaxErr.Line, syntaxErr.Column, tt.line, tt.column, err)
			}
		})
	}
}
