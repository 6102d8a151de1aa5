// Package parser implements a Pratt-style expression parser plus a
// statement recogniser, producing the ast package's node types from a
// token stream.
package parser

import (
	"fmt"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/lexer"
	"github.com/eddmann/santa-lang-prancer/pkg/token"
)

// Error is a parse-time failure carrying the offending token's position.
type Error struct {
	Msg string
	Pos token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Msg, e.Pos.Line, e.Pos.Column)
}

func (e *Error) Message() string { return e.Msg }
func (e *Error) Line() int       { return e.Pos.Line }
func (e *Error) Column() int     { return e.Pos.Column }

// Precedence levels, ascending.
const (
	LOWEST      int = iota
	ANDOR           // && ||
	EQUALS          // == != = (assignment)
	IDENTLEVEL      // bare literal/identifier, if, match
	LESSGREATER     // < > <= >=
	COMPOSITION     // >> |> .. ..=
	SUM             // + -
	PRODUCT         // * / % `ident`
	CALL            // (
	PREFIX          // unary - !
	INDEX           // [
)

var precedences = map[token.Kind]int{
	token.AND:        ANDOR,
	token.OR:         ANDOR,
	token.EQ:         EQUALS,
	token.NOT_EQ:     EQUALS,
	token.ASSIGN:     EQUALS,
	token.LT:         LESSGREATER,
	token.GT:         LESSGREATER,
	token.LT_EQ:      LESSGREATER,
	token.GT_EQ:      LESSGREATER,
	token.COMPOSE:    COMPOSITION,
	token.PIPELINE:   COMPOSITION,
	token.RANGE:      COMPOSITION,
	token.RANGE_EQ:   COMPOSITION,
	token.PLUS:       SUM,
	token.MINUS:      SUM,
	token.ASTERISK:   PRODUCT,
	token.SLASH:      PRODUCT,
	token.PERCENT:    PRODUCT,
	token.BACKTICK:   PRODUCT,
	token.LPAREN:     CALL,
	token.LBRACKET:   INDEX,
}

type prefixParseFn func() (ast.Expression, error)
type infixParseFn func(left ast.Expression) (ast.Expression, error)

// Parser consumes a token stream and builds an AST.
type Parser struct {
	lex *lexer.Lexer

	curTok  token.Token
	peekTok token.Token

	prefixFns map[token.Kind]prefixParseFn
	infixFns  map[token.Kind]infixParseFn
}

// New constructs a Parser reading from src.
func New(src string) (*Parser, error) {
	p := &Parser{lex: lexer.New(src)}
	p.registerParseFns()
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return p, nil
}

func newFromLexer(lex *lexer.Lexer) (*Parser, error) {
	p := &Parser{lex: lex}
	p.registerParseFns()
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) registerParseFns() {
	p.prefixFns = map[token.Kind]prefixParseFn{
		token.INT:      p.parseIntegerLiteral,
		token.DECIMAL:  p.parseDecimalLiteral,
		token.STRING:   p.parseStringLiteral,
		token.TRUE:     p.parseBooleanLiteral,
		token.FALSE:    p.parseBooleanLiteral,
		token.NIL:      p.parseNilLiteral,
		token.IDENT:    p.parseIdentifierOrPlaceholder,
		token.LPAREN:   p.parseGroupedExpression,
		token.LBRACKET: p.parseListLiteral,
		token.LBRACE:   p.parseSetLiteral,
		token.HASH_BRACE: p.parseDictLiteral,
		token.MINUS:    p.parsePrefixExpression,
		token.BANG:     p.parsePrefixExpression,
		token.PIPE:     p.parseFunctionLiteral,
		token.IF:       p.parseIfExpression,
		token.MATCH:    p.parseMatchExpression,
	}

	p.infixFns = map[token.Kind]infixParseFn{
		token.PLUS:      p.parseBinaryCall,
		token.MINUS:     p.parseBinaryCall,
		token.ASTERISK:  p.parseBinaryCall,
		token.SLASH:     p.parseBinaryCall,
		token.PERCENT:   p.parseBinaryCall,
		token.LT:        p.parseBinaryCall,
		token.GT:        p.parseBinaryCall,
		token.LT_EQ:     p.parseBinaryCall,
		token.GT_EQ:     p.parseBinaryCall,
		token.EQ:        p.parseBinaryCall,
		token.NOT_EQ:    p.parseBinaryCall,
		token.AND:       p.parseBinaryCall,
		token.OR:        p.parseBinaryCall,
		token.COMPOSE:   p.parseBinaryCall,
		token.PIPELINE:  p.parseBinaryCall,
		token.RANGE:     p.parseRangeCall,
		token.RANGE_EQ:  p.parseRangeCall,
		token.BACKTICK:  p.parseBacktickInfixCall,
		token.LPAREN:    p.parseCallExpression,
		token.LBRACKET:  p.parseIndexExpression,
		token.ASSIGN:    p.parseAssignExpression,
	}
}

func (p *Parser) nextToken() error {
	p.curTok = p.peekTok
	tok, err := p.lex.Next()
	if err != nil {
		p.peekTok = tok
		return err
	}
	p.peekTok = tok
	return nil
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekTok.Kind]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) expect(kind token.Kind, what string) error {
	if p.curTok.Kind != kind {
		return &Error{Msg: fmt.Sprintf("expected %s, got %q", what, p.curTok.Literal), Pos: p.curTok.Pos}
	}
	return nil
}

func (p *Parser) expectAndAdvance(kind token.Kind, what string) error {
	if err := p.expect(kind, what); err != nil {
		return err
	}
	return p.nextToken()
}

// skipStatementTerminators consumes optional statement-separating
// semicolons (optional before `}` and EOF per the source format).
func (p *Parser) skipStatementTerminators() error {
	for p.curTok.Kind == token.SEMICOLON {
		if err := p.nextToken(); err != nil {
			return err
		}
	}
	return nil
}

// Parse is the public entry point: it returns a Program or the first
// encountered parse error.
func Parse(src string) (*ast.Program, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	return p.ParseProgram()
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	var statements []ast.Statement
	if err := p.skipStatementTerminators(); err != nil {
		return nil, err
	}
	for p.curTok.Kind != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
		if err := p.skipStatementTerminators(); err != nil {
			return nil, err
		}
	}
	return ast.NewProgram(statements), nil
}

func (p *Parser) parseExpression(precedence int) (ast.Expression, error) {
	prefix, ok := p.prefixFns[p.curTok.Kind]
	if !ok {
		return nil, &Error{Msg: fmt.Sprintf("no prefix parse function for %q", p.curTok.Literal), Pos: p.curTok.Pos}
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}

	for p.peekTok.Kind != token.SEMICOLON && precedence < p.peekPrecedence() {
		infix, ok := p.infixFns[p.peekTok.Kind]
		if !ok {
			return left, nil
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parseBlock parses a `{ statement* }` sequence directly, bypassing the
// Pratt prefix table so that it can be used unambiguously wherever a
// block is grammatically required (if/else bodies, function bodies,
// section bodies) even though `{` also prefixes a Set literal in
// expression position.
func (p *Parser) parseBlock() (*ast.Block, error) {
	pos := p.curTok.Pos
	if err := p.expectAndAdvance(token.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	var statements []ast.Statement
	if err := p.skipStatementTerminators(); err != nil {
		return nil, err
	}
	for p.curTok.Kind != token.RBRACE {
		if p.curTok.Kind == token.EOF {
			return nil, &Error{Msg: "unterminated block, expected '}'", Pos: p.curTok.Pos}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
		if err := p.skipStatementTerminators(); err != nil {
			return nil, err
		}
	}
	if err := p.nextToken(); err != nil { // consume '}'
		return nil, err
	}
	return ast.NewBlock(pos, statements), nil
}
