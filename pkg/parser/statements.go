package parser

import (
	"fmt"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/token"
)

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.curTok.Kind {
	case token.LET:
		return p.parseLetStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.AT:
		return p.parseAnnotatedStatement()
	case token.IDENT:
		if p.peekTok.Kind == token.COLON {
			return p.parseSectionStatement()
		}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseLetStatement() (ast.Statement, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume 'let'
		return nil, err
	}
	mutable := false
	if p.curTok.Kind == token.MUT {
		mutable = true
		if err := p.nextToken(); err != nil {
			return nil, err
		}
	}
	target, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.ASSIGN, "'='"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return ast.NewLetStatement(pos, mutable, target, value), nil
}

func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if p.curTok.Kind == token.SEMICOLON || p.curTok.Kind == token.RBRACE || p.curTok.Kind == token.EOF {
		return ast.NewReturnStatement(pos, nil), nil
	}
	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return ast.NewReturnStatement(pos, value), nil
}

func (p *Parser) parseBreakStatement() (ast.Statement, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if p.curTok.Kind == token.SEMICOLON || p.curTok.Kind == token.RBRACE || p.curTok.Kind == token.EOF {
		return ast.NewBreakStatement(pos, nil), nil
	}
	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return ast.NewBreakStatement(pos, value), nil
}

func (p *Parser) parseSectionStatement() (ast.Statement, error) {
	pos := p.curTok.Pos
	name := p.curTok.Literal
	if err := p.nextToken(); err != nil { // consume identifier
		return nil, err
	}
	if err := p.nextToken(); err != nil { // consume ':'
		return nil, err
	}
	if p.curTok.Kind == token.LBRACE {
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return ast.NewSectionStatement(pos, name, body), nil
	}
	// A section may also bind directly to a single expression, e.g.
	// `input: "()())"`, equivalent to a one-statement block.
	exprPos := p.curTok.Pos
	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	body := ast.NewBlock(exprPos, []ast.Statement{ast.NewExpressionStatement(exprPos, value)})
	return ast.NewSectionStatement(pos, name, body), nil
}

func (p *Parser) parseAnnotatedStatement() (ast.Statement, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume '@'
		return nil, err
	}
	if err := p.expect(token.IDENT, "annotation name"); err != nil {
		return nil, err
	}
	name := p.curTok.Literal
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	inner, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.NewAnnotatedStatement(pos, name, inner), nil
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	pos := p.curTok.Pos
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	// curTok is the expression's last token; advance past it once so the
	// enclosing Program/Block loop sees whatever follows (a terminator,
	// the next statement, '}', or EOF).
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return ast.NewExpressionStatement(pos, expr), nil
}

// unexpected is a small helper for consistent error messages across the
// statement and expression parsers.
func unexpected(tok token.Token, expected string) error {
	return &Error{Msg: fmt.Sprintf("expected %s, got %q", expected, tok.Literal), Pos: tok.Pos}
}
