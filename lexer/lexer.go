// Package lexer tokenizes a formula's expression text (the part after the
// leading '=' has already been stripped by the caller) into the token
// stream the parser consumes.
package lexer

import (
	"tabula/token"
)

// Lexer scans a formula expression one byte at a time, recording
// line/column/offset for each token the way the rest of this codebase
// tracks source positions. The line is always 1: a newline is skipped as
// whitespace and does not reset the column.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
	line         int
	column       int
}

// New returns a Lexer positioned at the start of input.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans and returns the next token, advancing the lexer.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	startLine := l.line
	startColumn := l.column
	startOffset := l.position

	var tok token.Token
	switch {
	case l.ch == 0:
		tok = token.Token{Type: token.EOF, Literal: ""}
	case l.ch == '+':
		tok = token.Token{Type: token.PLUS, Literal: "+"}
	case l.ch == '-':
		tok = token.Token{Type: token.MINUS, Literal: "-"}
	case l.ch == '*':
		tok = token.Token{Type: token.ASTERISK, Literal: "*"}
	case l.ch == '/':
		tok = token.Token{Type: token.SLASH, Literal: "/"}
	case l.ch == '(':
		tok = token.Token{Type: token.LPAREN, Literal: "("}
	case l.ch == ')':
		tok = token.Token{Type: token.RPAREN, Literal: ")"}
	case isDigit(l.ch):
		lit := l.readNumber()
		tok = token.Token{Type: token.NUMBER, Literal: lit}
		tok.Line, tok.Column, tok.Offset = startLine, startColumn, startOffset
		return tok
	case isUpper(l.ch):
		lit := l.readCellRef()
		tok = token.Token{Type: token.CELL, Literal: lit}
		tok.Line, tok.Column, tok.Offset = startLine, startColumn, startOffset
		return tok
	default:
		tok = token.Token{Type: token.ILLEGAL, Literal: string(l.ch)}
	}

	tok.Line, tok.Column, tok.Offset = startLine, startColumn, startOffset
	l.readChar()
	return tok
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readNumber consumes an unsigned decimal literal, with an optional
// fractional part. It never consumes a leading sign: unary +/- are
// handled by the parser, per the grammar's "no leading '+' allowed" rule.
func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

// readCellRef consumes the longest run of uppercase letters followed by
// digits, forming a candidate cell reference (e.g. "A1", "AB27"). Whether
// it's a *valid* position is decided later by the position package.
func (l *Lexer) readCellRef() string {
	start := l.position
	for isUpper(l.ch) {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isUpper(ch byte) bool {
	return ch >= 'A' && ch <= 'Z'
}
