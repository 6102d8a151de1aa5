package parser

import (
	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/token"
)

// parsePattern parses a destructuring pattern as used in Let targets,
// function parameters, and match-arm discriminants. A guard (`p if expr`)
// is parsed by the match-arm parser and kept on the arm's Guard field, not
// here, since `let` and function parameters never carry a guard.
func (p *Parser) parsePattern() (ast.Pattern, error) {
	pos := p.curTok.Pos

	switch p.curTok.Kind {
	case token.IDENT:
		if p.curTok.Literal == "_" {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			return ast.NewWildcardPattern(pos), nil
		}
		name := p.curTok.Literal
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		return ast.NewIdentifierPattern(pos, name), nil

	case token.INT, token.DECIMAL, token.STRING, token.TRUE, token.FALSE, token.NIL, token.MINUS:
		lit, err := p.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		return ast.NewLiteralPattern(pos, lit), nil

	case token.LBRACKET:
		return p.parseListPattern()

	case token.HASH_BRACE:
		return p.parseDictPattern()
	}

	return nil, unexpected(p.curTok, "pattern")
}

func (p *Parser) parseListPattern() (ast.Pattern, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume '['
		return nil, err
	}
	var elements []ast.Pattern
	var rest *ast.IdentifierPattern
	for p.curTok.Kind != token.RBRACKET {
		if p.curTok.Kind == token.RANGE {
			restPos := p.curTok.Pos
			if err := p.nextToken(); err != nil { // consume '..'
				return nil, err
			}
			if err := p.expect(token.IDENT, "rest-binding identifier"); err != nil {
				return nil, err
			}
			name := p.curTok.Literal
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			rest = ast.NewIdentifierPattern(restPos, name)
			break
		}
		elem, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		elements = append(elements, elem)
		if p.curTok.Kind == token.COMMA {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectAndAdvance(token.RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return ast.NewListPattern(pos, elements, rest), nil
}

func (p *Parser) parseDictPattern() (ast.Pattern, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume '#{'
		return nil, err
	}
	var pairs []ast.DictPatternPair
	for p.curTok.Kind != token.RBRACE {
		if p.curTok.Kind != token.IDENT && p.curTok.Kind != token.STRING {
			return nil, unexpected(p.curTok, "pattern key")
		}
		keyPos := p.curTok.Pos
		key := ast.NewSimpleString(keyPos, p.curTok.Literal)
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if err := p.expectAndAdvance(token.COLON, "':'"); err != nil {
			return nil, err
		}
		value, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.DictPatternPair{Key: key, Value: value})
		if p.curTok.Kind == token.COMMA {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectAndAdvance(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return ast.NewDictPattern(pos, pairs), nil
}
