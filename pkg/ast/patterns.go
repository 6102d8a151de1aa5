package ast

import (
	"strings"

	"github.com/eddmann/santa-lang-prancer/pkg/token"
)

type Position = token.Position

// IdentifierPattern binds the matched value to a name.
type IdentifierPattern struct {
	nodeImpl
	patternMarker
	Name string
}

func NewIdentifierPattern(pos Position, name string) *IdentifierPattern {
	return &IdentifierPattern{nodeImpl: newNodeImpl(NodeIdentifierPattern, pos), Name: name}
}

func (p *IdentifierPattern) String() string { return p.Name }

// WildcardPattern (`_`) matches anything and binds nothing.
type WildcardPattern struct {
	nodeImpl
	patternMarker
}

func NewWildcardPattern(pos Position) *WildcardPattern {
	return &WildcardPattern{nodeImpl: newNodeImpl(NodeWildcardPattern, pos)}
}

func (p *WildcardPattern) String() string { return "_" }

// LiteralPattern matches when the value equals the literal expression.
type LiteralPattern struct {
	nodeImpl
	patternMarker
	Value Expression
}

func NewLiteralPattern(pos Position, value Expression) *LiteralPattern {
	return &LiteralPattern{nodeImpl: newNodeImpl(NodeLiteralPattern, pos), Value: value}
}

func (p *LiteralPattern) String() string { return p.Value.String() }

// ListPattern destructures a List, with an optional rest binding capturing
// any remaining elements after the fixed-position elements are matched.
type ListPattern struct {
	nodeImpl
	patternMarker
	Elements []Pattern
	Rest     *IdentifierPattern // nil when there is no `..rest`
}

func NewListPattern(pos Position, elements []Pattern, rest *IdentifierPattern) *ListPattern {
	return &ListPattern{nodeImpl: newNodeImpl(NodeListPattern, pos), Elements: elements, Rest: rest}
}

func (p *ListPattern) String() string {
	parts := make([]string, len(p.Elements))
	for i, e := range p.Elements {
		parts[i] = e.String()
	}
	if p.Rest != nil {
		parts = append(parts, ".."+p.Rest.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DictPatternPair matches a fixed key against a sub-pattern.
type DictPatternPair struct {
	Key   Expression
	Value Pattern
}

// DictPattern destructures a Dict by fixed keys.
type DictPattern struct {
	nodeImpl
	patternMarker
	Pairs []DictPatternPair
}

func NewDictPattern(pos Position, pairs []DictPatternPair) *DictPattern {
	return &DictPattern{nodeImpl: newNodeImpl(NodeDictPattern, pos), Pairs: pairs}
}

func (p *DictPattern) String() string {
	parts := make([]string, len(p.Pairs))
	for i, pr := range p.Pairs {
		parts[i] = pr.Key.String() + ": " + pr.Value.String()
	}
	return "#{" + strings.Join(parts, ", ") + "}"
}

// GuardPattern wraps another pattern with a boolean condition that must
// also hold for the match to succeed. Bindings introduced by Inner are
// visible within Guard.
type GuardPattern struct {
	nodeImpl
	patternMarker
	Inner Pattern
	Guard Expression
}

func NewGuardPattern(pos Position, inner Pattern, guard Expression) *GuardPattern {
	return &GuardPattern{nodeImpl: newNodeImpl(NodeGuardPattern, pos), Inner: inner, Guard: guard}
}

func (p *GuardPattern) String() string { return p.Inner.String() + " if " + p.Guard.String() }
