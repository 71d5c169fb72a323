// Package parser implements a hand-written recursive-descent parser for
// the four-operation arithmetic grammar over cell positions and decimal
// literals:
//
//	expr    := expr (+|-) term | term
//	term    := term (*|/) factor | factor
//	factor  := number | cellref | '(' expr ')' | '-' factor | '+' factor
//	cellref := <Position textual form>
//	number  := decimal literal (no leading '+' allowed)
//
// Left-associative binary operators; unary +/- bind tighter than binary
// operators; parentheses explicit.
package parser

import (
	"fmt"
	"strconv"

	"tabula/ast"
	"tabula/lexer"
	"tabula/position"
	"tabula/token"
)

// SyntaxError is raised for any grammar violation.
type SyntaxError struct {
	Message string
	Tok     token.Token
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula syntax error at %d:%d: %s (got %q)", e.Tok.Line, e.Tok.Column, e.Message, e.Tok.Literal)
}

// Parser consumes a token stream and builds an ast.Node.
type Parser struct {
	l         *lexer.Lexer
	cur, peek token.Token
}

// New returns a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

// Parse parses expression as a full formula and returns its AST. Any
// leftover input after a syntactically complete expression (or a grammar
// violation anywhere) is a SyntaxError.
func Parse(expression string) (ast.Node, error) {
	p := New(lexer.New(expression))
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.EOF {
		return nil, &SyntaxError{Message: "unexpected trailing input", Tok: p.cur}
	}
	return node, nil
}

// parseExpr handles the lowest-precedence level: left-associative +/-.
func (p *Parser) parseExpr() (ast.Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.PLUS || p.cur.Type == token.MINUS {
		op := binOpFor(p.cur.Type)
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseTerm handles the next precedence level: left-associative * /.
func (p *Parser) parseTerm() (ast.Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.ASTERISK || p.cur.Type == token.SLASH {
		op := binOpFor(p.cur.Type)
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

// parseFactor handles literals, cell references, parenthesized
// sub-expressions, and unary +/-.
func (p *Parser) parseFactor() (ast.Node, error) {
	switch p.cur.Type {
	case token.MINUS:
		p.next()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Sign: ast.Neg, Operand: operand}, nil

	case token.PLUS:
		p.next()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Sign: ast.Pos, Operand: operand}, nil

	case token.LPAREN:
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != token.RPAREN {
			return nil, &SyntaxError{Message: "expected ')'", Tok: p.cur}
		}
		p.next()
		return inner, nil

	case token.NUMBER:
		lit := p.cur.Literal
		tok := p.cur
		p.next()
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, &SyntaxError{Message: "invalid number literal", Tok: tok}
		}
		return &ast.NumberLiteral{Value: v}, nil

	case token.CELL:
		lit := p.cur.Literal
		p.next()
		// Parsing a reference does not require it to be a currently
		// valid Position; an out-of-range reference is still
		// syntactically a cell reference, it just evaluates to a Ref
		// error later (formula.ReferencedCells filters these out,
		// AST.Execute raises Ref through the lookup). ParseUnbounded
		// preserves the literal row/col even out of range, so the
		// reference still prints back as "A999999" and not some
		// unrelated sentinel.
		pos, ok := position.ParseUnbounded(lit)
		if !ok {
			// The lexer emits letters followed by zero or more digits
			// as a CELL token, so this is reached when there were no
			// digits at all (e.g. "A"), or the row number is 0 or too
			// large for an int64 -- there is no row/col to preserve.
			// Fall back to a sentinel guaranteed to fail IsValid().
			pos = position.Position{Row: -1, Col: -1}
		}
		return &ast.CellRef{Pos: pos}, nil

	default:
		return nil, &SyntaxError{Message: "expected a number, cell reference, or '('", Tok: p.cur}
	}
}

func binOpFor(t token.Type) ast.BinOp {
	switch t {
	case token.PLUS:
		return ast.Add
	case token.MINUS:
		return ast.Sub
	case token.ASTERISK:
		return ast.Mul
	default:
		return ast.Div
	}
}
