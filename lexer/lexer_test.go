package lexer

import (
	"testing"

	"tabula/token"
)

func TestNextTokenBasic(t *testing.T) {
	input := "A1+8*(2-C3)/4.5"
	want := []token.Token{
		{Type: token.CELL, Literal: "A1"},
		{Type: token.PLUS, Literal: "+"},
		{Type: token.NUMBER, Literal: "8"},
		{Type: token.ASTERISK, Literal: "*"},
		{Type: token.LPAREN, Literal: "("},
		{Type: token.NUMBER, Literal: "2"},
		{Type: token.MINUS, Literal: "-"},
		{Type: token.CELL, Literal: "C3"},
		{Type: token.RPAREN, Literal: ")"},
		{Type: token.SLASH, Literal: "/"},
		{Type: token.NUMBER, Literal: "4.5"},
		{Type: token.EOF, Literal: ""},
	}

	l := New(input)
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.Type || tok.Literal != w.Literal {
			t.Fatalf("token %d: got %+v, want type=%s literal=%q", i, tok, w.Type, w.Literal)
		}
	}
}

func TestNextTokenSkipsWhitespace(t *testing.T) {
	l := New("  1   +   2  ")
	tok := l.NextToken()
	if tok.Type != token.NUMBER || tok.Literal != "1" {
		t.Fatalf("got %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != token.PLUS {
		t.Fatalf("got %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != token.NUMBER || tok.Literal != "2" {
		t.Fatalf("got %+v", tok)
	}
	tok = l.NextToken()
	if tok.Type != token.EOF {
		t.Fatalf("got %+v", tok)
	}
}

func TestNextTokenIllegal(t *testing.T) {
	l := New("1 & 2")
	l.NextToken() // 1
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL || tok.Literal != "&" {
		t.Fatalf("got %+v", tok)
	}
}

func TestReadCellRefStopsAtNonAlnum(t *testing.T) {
	l := New("AB12+1")
	tok := l.NextToken()
	if tok.Type != token.CELL || tok.Literal != "AB12" {
		t.Fatalf("got %+v", tok)
	}
}
