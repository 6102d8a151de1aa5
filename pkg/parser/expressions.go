package parser

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/token"
)

func (p *Parser) parseIntegerLiteral() (ast.Expression, error) {
	pos := p.curTok.Pos
	v := new(big.Int)
	if _, ok := v.SetString(p.curTok.Literal, 10); !ok {
		return nil, &Error{Msg: fmt.Sprintf("invalid integer literal %q", p.curTok.Literal), Pos: pos}
	}
	return ast.NewIntegerLiteral(pos, v), nil
}

func (p *Parser) parseDecimalLiteral() (ast.Expression, error) {
	pos := p.curTok.Pos
	v, err := strconv.ParseFloat(p.curTok.Literal, 64)
	if err != nil {
		return nil, &Error{Msg: fmt.Sprintf("invalid decimal literal %q", p.curTok.Literal), Pos: pos}
	}
	return ast.NewDecimalLiteral(pos, v), nil
}

func (p *Parser) parseBooleanLiteral() (ast.Expression, error) {
	return ast.NewBooleanLiteral(p.curTok.Pos, p.curTok.Kind == token.TRUE), nil
}

func (p *Parser) parseNilLiteral() (ast.Expression, error) {
	return ast.NewNilLiteral(p.curTok.Pos), nil
}

func (p *Parser) parseIdentifierOrPlaceholder() (ast.Expression, error) {
	if p.curTok.Literal == "_" {
		return ast.NewPlaceholder(p.curTok.Pos), nil
	}
	return ast.NewIdentifier(p.curTok.Pos, p.curTok.Literal), nil
}

// parseStringLiteral splits the lexer's raw literal into text/expression
// parts wherever a `{...}` interpolation span appears, parsing each span
// as a standalone expression.
func (p *Parser) parseStringLiteral() (ast.Expression, error) {
	pos := p.curTok.Pos
	raw := p.curTok.Literal

	var parts []ast.StringPart
	var text strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '{' {
			if text.Len() > 0 {
				parts = append(parts, ast.StringPart{IsText: true, Text: text.String()})
				text.Reset()
			}
			depth := 1
			start := i + 1
			j := start
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth == 0 {
					break
				}
				j++
			}
			if depth != 0 {
				return nil, &Error{Msg: "unterminated interpolation in string literal", Pos: pos}
			}
			span := raw[start:j]
			expr, err := parseInterpolationSpan(span, pos)
			if err != nil {
				return nil, err
			}
			parts = append(parts, ast.StringPart{IsText: false, Expr: expr})
			i = j + 1
			continue
		}
		text.WriteByte(raw[i])
		i++
	}
	if text.Len() > 0 {
		parts = append(parts, ast.StringPart{IsText: true, Text: text.String()})
	}

	return ast.NewStringLiteral(pos, parts), nil
}

// parseInterpolationSpan parses the text of a `{expr}` span found inside a
// string literal as a complete, standalone expression.
func parseInterpolationSpan(span string, basePos token.Position) (ast.Expression, error) {
	sub, err := New(span)
	if err != nil {
		return nil, err
	}
	expr, err := sub.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := sub.nextToken(); err != nil {
		return nil, err
	}
	if sub.curTok.Kind != token.EOF {
		return nil, &Error{Msg: fmt.Sprintf("unexpected trailing token %q in string interpolation", sub.curTok.Literal), Pos: basePos}
	}
	return expr, nil
}

func (p *Parser) parseGroupedExpression() (ast.Expression, error) {
	if err := p.nextToken(); err != nil { // consume '('
		return nil, err
	}
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil { // move onto ')'
		return nil, err
	}
	if err := p.expect(token.RPAREN, "')'"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseListLiteral() (ast.Expression, error) {
	pos := p.curTok.Pos
	elements, err := p.parseExpressionList(token.LBRACKET, token.RBRACKET)
	if err != nil {
		return nil, err
	}
	return ast.NewListLiteral(pos, elements), nil
}

func (p *Parser) parseSetLiteral() (ast.Expression, error) {
	pos := p.curTok.Pos
	elements, err := p.parseExpressionList(token.LBRACE, token.RBRACE)
	if err != nil {
		return nil, err
	}
	return ast.NewSetLiteral(pos, elements), nil
}

func (p *Parser) parseDictLiteral() (ast.Expression, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume '#{'
		return nil, err
	}
	var pairs []ast.DictPair
	for p.curTok.Kind != token.RBRACE {
		key, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		if err := p.expectAndAdvance(token.COLON, "':'"); err != nil {
			return nil, err
		}
		value, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.DictPair{Key: key, Value: value})
		if p.curTok.Kind == token.COMMA {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.nextToken(); err != nil { // consume '}'
		return nil, err
	}
	return ast.NewDictLiteral(pos, pairs), nil
}

// parseExpressionList parses a comma-separated, possibly trailing-comma,
// expression list delimited by open/close, used by List and Set literals
// and by call arguments.
func (p *Parser) parseExpressionList(open, close token.Kind) ([]ast.Expression, error) {
	if err := p.expectAndAdvance(open, open.String()); err != nil {
		return nil, err
	}
	var list []ast.Expression
	for p.curTok.Kind != close {
		expr, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.nextToken(); err != nil {
			return nil, err
		}
		list = append(list, expr)
		if p.curTok.Kind == token.COMMA {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.nextToken(); err != nil { // consume close
		return nil, err
	}
	return list, nil
}

func (p *Parser) parsePrefixExpression() (ast.Expression, error) {
	pos := p.curTok.Pos
	op := p.curTok.Literal
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	return ast.NewPrefixExpression(pos, op, right), nil
}

func (p *Parser) parseBinaryCall(left ast.Expression) (ast.Expression, error) {
	pos := p.curTok.Pos
	op := p.curTok.Literal
	precedence := precedences[p.curTok.Kind]
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(precedence)
	if err != nil {
		return nil, err
	}
	return ast.NewBinaryCall(pos, op, left, right), nil
}

// parseRangeCall parses `..` / `..=`, which unlike every other infix
// operator may have no right operand at all (`1..` is an open-ended,
// infinite range). A right side that can't start an expression (closing
// delimiter, separator, or end of input) defaults to a Nil upper bound,
// which makeRange already treats as "unbounded".
func (p *Parser) parseRangeCall(left ast.Expression) (ast.Expression, error) {
	pos := p.curTok.Pos
	op := p.curTok.Literal
	precedence := precedences[p.curTok.Kind]
	if _, ok := p.prefixFns[p.peekTok.Kind]; !ok {
		// No right operand follows (end of input, or a closing/separating
		// token) — leave curTok on the operator itself, matching the
		// contract every other infix parser returns under: curTok sits on
		// the last token actually consumed by this expression.
		return ast.NewBinaryCall(pos, op, left, ast.NewNilLiteral(p.peekTok.Pos)), nil
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(precedence)
	if err != nil {
		return nil, err
	}
	return ast.NewBinaryCall(pos, op, left, right), nil
}

// parseBacktickInfixCall parses `` a `name` b ``, a user-defined infix call.
func (p *Parser) parseBacktickInfixCall(left ast.Expression) (ast.Expression, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume opening backtick
		return nil, err
	}
	if err := p.expect(token.IDENT, "identifier"); err != nil {
		return nil, err
	}
	name := p.curTok.Literal
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.BACKTICK, "closing '`'"); err != nil {
		return nil, err
	}
	right, err := p.parseExpression(PRODUCT)
	if err != nil {
		return nil, err
	}
	return ast.NewBinaryCall(pos, name, left, right), nil
}

func (p *Parser) parseAssignExpression(left ast.Expression) (ast.Expression, error) {
	pos := p.curTok.Pos
	target, ok := left.(*ast.Identifier)
	if !ok {
		return nil, &Error{Msg: "assignment target must be an identifier", Pos: pos}
	}
	if err := p.nextToken(); err != nil { // consume '='
		return nil, err
	}
	value, err := p.parseExpression(EQUALS)
	if err != nil {
		return nil, err
	}
	return ast.NewAssignExpression(pos, target, value), nil
}

func (p *Parser) parseCallExpression(callee ast.Expression) (ast.Expression, error) {
	pos := p.curTok.Pos
	args, err := p.parseExpressionList(token.LPAREN, token.RPAREN)
	if err != nil {
		return nil, err
	}
	// Trailing-lambda shorthand: a call immediately followed by `|params| body`
	// has that function literal appended to the argument list.
	if p.curTok.Kind == token.PIPE {
		fn, err := p.parseFunctionLiteral()
		if err != nil {
			return nil, err
		}
		args = append(args, fn)
	}
	return ast.NewCallExpression(pos, callee, args), nil
}

func (p *Parser) parseIndexExpression(left ast.Expression) (ast.Expression, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume '['
		return nil, err
	}
	index, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	if err := p.expectAndAdvance(token.RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return ast.NewIndexExpression(pos, left, index), nil
}

func (p *Parser) parseFunctionLiteral() (ast.Expression, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume '|'
		return nil, err
	}
	var params []ast.Pattern
	for p.curTok.Kind != token.PIPE {
		param, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.curTok.Kind == token.COMMA {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.nextToken(); err != nil { // consume closing '|'
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionLiteral(pos, params, body), nil
}

func (p *Parser) parseIfExpression() (ast.Expression, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume 'if'
		return nil, err
	}
	cond, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil { // move onto '{'
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var els ast.Expression
	if p.curTok.Kind == token.ELSE {
		if err := p.nextToken(); err != nil { // consume 'else'
			return nil, err
		}
		if p.curTok.Kind == token.IF {
			elsExpr, err := p.parseIfExpression()
			if err != nil {
				return nil, err
			}
			els = elsExpr
		} else {
			elsBlock, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			els = elsBlock
		}
	}
	return ast.NewIfExpression(pos, cond, then, els), nil
}

func (p *Parser) parseMatchExpression() (ast.Expression, error) {
	pos := p.curTok.Pos
	if err := p.nextToken(); err != nil { // consume 'match'
		return nil, err
	}
	subject, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil { // move onto '{'
		return nil, err
	}
	if err := p.expectAndAdvance(token.LBRACE, "'{'"); err != nil {
		return nil, err
	}

	var arms []ast.MatchArm
	for p.curTok.Kind != token.RBRACE {
		pattern, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		var guard ast.Expression
		if p.curTok.Kind == token.IF {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
			guard, err = p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
		if err := p.expectAndAdvance(token.FAT_ARROW, "'=>'"); err != nil {
			return nil, err
		}
		body, err := p.parseMatchArmBody()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{Pattern: pattern, Guard: guard, Body: body})
		if p.curTok.Kind == token.COMMA {
			if err := p.nextToken(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.nextToken(); err != nil { // consume '}'
		return nil, err
	}
	return ast.NewMatchExpression(pos, subject, arms), nil
}

func (p *Parser) parseMatchArmBody() (ast.Expression, error) {
	if p.curTok.Kind == token.LBRACE {
		return p.parseBlock()
	}
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.nextToken(); err != nil {
		return nil, err
	}
	return expr, nil
}
