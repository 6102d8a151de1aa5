// Package runtime defines the closed set of runtime values produced by
// evaluating an AST, plus the control-flow carriers the evaluator threads
// through its dispatch.
package runtime

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/token"
)

// Kind tags every runtime value with its concrete type.
type Kind string

const (
	KindInteger  Kind = "Integer"
	KindDecimal  Kind = "Decimal"
	KindString   Kind = "String"
	KindBoolean  Kind = "Boolean"
	KindNil      Kind = "Nil"
	KindList     Kind = "List"
	KindDict     Kind = "Dict"
	KindSet      Kind = "Set"
	KindRange    Kind = "Range"
	KindSequence Kind = "Sequence"
	KindFunction Kind = "Function"
	KindBuiltin  Kind = "BuiltinFunction"
	KindPlaceholder Kind = "Placeholder"
	KindSection  Kind = "Section"

	KindTransientList Kind = "TransientList"
	KindTransientDict Kind = "TransientDict"
	KindTransientSet  Kind = "TransientSet"
)

// Value is the behaviour every runtime value exposes.
type Value interface {
	Kind() Kind
	Inspect() string
	IsTruthy() bool
	TypeName() string
}

// Hashable is the additional capability of the "Value" tier: structural
// equality and a deterministic hash usable as a Dict/Set key.
type Hashable interface {
	Value
	Hash() uint64
	Equals(other Value) bool
}

// Callable is implemented by anything the evaluator can invoke: Function,
// BuiltinFunction, and a partially-applied wrapper over either.
type Callable interface {
	Value
	Arity() int
}

//------------------------------------------------------------------------
// Integer
//------------------------------------------------------------------------

type Integer struct {
	Val *big.Int
}

func NewInteger(v *big.Int) *Integer        { return &Integer{Val: v} }
func NewIntegerFromInt64(v int64) *Integer  { return &Integer{Val: big.NewInt(v)} }

func (i *Integer) Kind() Kind      { return KindInteger }
func (i *Integer) Inspect() string { return i.Val.String() }
func (i *Integer) IsTruthy() bool  { return i.Val.Sign() != 0 }
func (i *Integer) TypeName() string { return "Integer" }
func (i *Integer) Hash() uint64    { return hashString(i.Val.String()) }
func (i *Integer) Equals(other Value) bool {
	switch o := other.(type) {
	case *Integer:
		return i.Val.Cmp(o.Val) == 0
	case *Decimal:
		f := new(big.Float).SetInt(i.Val)
		return f.Cmp(big.NewFloat(o.Val)) == 0
	}
	return false
}

//------------------------------------------------------------------------
// Decimal
//------------------------------------------------------------------------

type Decimal struct {
	Val float64
}

func NewDecimal(v float64) *Decimal { return &Decimal{Val: v} }

func (d *Decimal) Kind() Kind       { return KindDecimal }
func (d *Decimal) Inspect() string  { return formatDecimal(d.Val) }
func (d *Decimal) IsTruthy() bool   { return d.Val != 0 }
func (d *Decimal) TypeName() string { return "Decimal" }

// Hash agrees with Integer.Hash for any numerically-equal pair (required
// by the hash/equality law: Integer(1000000).Equals(Decimal(1000000.0)) is
// true, so they must hash the same). Integral-valued Decimals hash as the
// plain digit string an equal Integer would produce; only a genuinely
// fractional Decimal falls back to its own formatted representation.
func (d *Decimal) Hash() uint64 {
	if d.Val == math.Trunc(d.Val) && !math.IsInf(d.Val, 0) {
		bi, _ := big.NewFloat(d.Val).Int(nil)
		return hashString(bi.String())
	}
	return hashString(formatDecimal(d.Val))
}

func (d *Decimal) Equals(other Value) bool {
	switch o := other.(type) {
	case *Decimal:
		return d.Val == o.Val
	case *Integer:
		return o.Equals(d)
	}
	return false
}

//------------------------------------------------------------------------
// String
//------------------------------------------------------------------------

type String struct {
	Val string // UTF-8; indexed/sliced by rune, not byte
}

func NewString(v string) *String { return &String{Val: v} }

func (s *String) Kind() Kind       { return KindString }
func (s *String) Inspect() string  { return "\"" + s.Val + "\"" }
func (s *String) IsTruthy() bool   { return s.Val != "" }
func (s *String) TypeName() string { return "String" }
func (s *String) Hash() uint64     { return hashString(s.Val) }
func (s *String) Equals(other Value) bool {
	o, ok := other.(*String)
	return ok && s.Val == o.Val
}

// Runes returns the string's scalar values, the unit of indexing/slicing.
func (s *String) Runes() []rune { return []rune(s.Val) }

//------------------------------------------------------------------------
// Boolean
//------------------------------------------------------------------------

type Boolean struct{ Val bool }

var (
	True  = &Boolean{Val: true}
	False = &Boolean{Val: false}
)

func NewBoolean(v bool) *Boolean {
	if v {
		return True
	}
	return False
}

func (b *Boolean) Kind() Kind       { return KindBoolean }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Val) }
func (b *Boolean) IsTruthy() bool   { return b.Val }
func (b *Boolean) TypeName() string { return "Boolean" }
func (b *Boolean) Hash() uint64 {
	if b.Val {
		return 1
	}
	return 0
}
func (b *Boolean) Equals(other Value) bool {
	o, ok := other.(*Boolean)
	return ok && b.Val == o.Val
}

//------------------------------------------------------------------------
// Nil
//------------------------------------------------------------------------

type NilValue struct{}

var Nil = &NilValue{}

func (n *NilValue) Kind() Kind        { return KindNil }
func (n *NilValue) Inspect() string   { return "nil" }
func (n *NilValue) IsTruthy() bool    { return false }
func (n *NilValue) TypeName() string  { return "Nil" }
func (n *NilValue) Hash() uint64      { return 0 }
func (n *NilValue) Equals(other Value) bool {
	_, ok := other.(*NilValue)
	return ok
}

//------------------------------------------------------------------------
// Function, BuiltinFunction, Placeholder
//------------------------------------------------------------------------

// Function is a user-defined closure: a parameter-pattern list, a body,
// and the environment it was defined in.
type Function struct {
	Params []ast.Pattern
	Body   *ast.Block
	Env    *Environment
	Name   string // best-effort, for inspect/diagnostics; may be empty
}

func (f *Function) Kind() Kind       { return KindFunction }
func (f *Function) IsTruthy() bool   { return true }
func (f *Function) TypeName() string { return "Function" }
func (f *Function) Arity() int       { return len(f.Params) }
func (f *Function) Inspect() string {
	if f.Name != "" {
		return "<function " + f.Name + ">"
	}
	return "<function>"
}

// BuiltinFunction is a native operation registered in the root scope.
type BuiltinFunction struct {
	Name       string
	ArityCount int // -1 means variadic / not arity-checked for partial application
	Fn         func(args []Value, pos token.Position) Value
}

func (b *BuiltinFunction) Kind() Kind       { return KindBuiltin }
func (b *BuiltinFunction) Inspect() string  { return "<builtin " + b.Name + ">" }
func (b *BuiltinFunction) IsTruthy() bool   { return true }
func (b *BuiltinFunction) TypeName() string { return "BuiltinFunction" }
func (b *BuiltinFunction) Arity() int       { return b.ArityCount }

// PartialFunction wraps a Callable with some arguments already bound
// (including explicit Placeholders for unfilled slots), produced by a call
// whose argument list is short or contains a Placeholder.
type PartialFunction struct {
	Target Callable
	Bound  []Value // length == Target.Arity(); unfilled slots hold Placeholder
}

func (p *PartialFunction) Kind() Kind       { return KindFunction }
func (p *PartialFunction) Inspect() string  { return "<partial " + p.Target.Inspect() + ">" }
func (p *PartialFunction) IsTruthy() bool   { return true }
func (p *PartialFunction) TypeName() string { return "Function" }
func (p *PartialFunction) Arity() int {
	n := 0
	for _, v := range p.Bound {
		if _, ok := v.(*Placeholder); ok {
			n++
		}
	}
	return n
}

type Placeholder struct{}

var PlaceholderValue = &Placeholder{}

func (p *Placeholder) Kind() Kind       { return KindPlaceholder }
func (p *Placeholder) Inspect() string  { return "_" }
func (p *Placeholder) IsTruthy() bool   { return true }
func (p *Placeholder) TypeName() string { return "Placeholder" }

//------------------------------------------------------------------------
// Section — a named top-level solution block, carried as a first-class
// value so the environment's section registry can hold them uniformly.
//------------------------------------------------------------------------

type Section struct {
	Name string
	Body *ast.Block
	Slow bool
}

func (s *Section) Kind() Kind       { return KindSection }
func (s *Section) Inspect() string  { return "<section " + s.Name + ">" }
func (s *Section) IsTruthy() bool   { return true }
func (s *Section) TypeName() string { return "Section" }

//------------------------------------------------------------------------
// Control-flow carriers. These are never returned to user code; they are
// strictly internal to the evaluator/trampoline.
//------------------------------------------------------------------------

type ReturnValue struct{ Val Value }

func (r *ReturnValue) Kind() Kind       { return "ReturnValue" }
func (r *ReturnValue) Inspect() string  { return "<return>" }
func (r *ReturnValue) IsTruthy() bool   { return true }
func (r *ReturnValue) TypeName() string { return "ReturnValue" }

type BreakValue struct{ Val Value }

func (b *BreakValue) Kind() Kind       { return "BreakValue" }
func (b *BreakValue) Inspect() string  { return "<break>" }
func (b *BreakValue) IsTruthy() bool   { return true }
func (b *BreakValue) TypeName() string { return "BreakValue" }

// TailCallRequest asks the block-evaluator loop to restart evaluation of
// Body in Scope instead of recursing, giving self- and mutual tail
// recursion constant stack depth. Never returned to user code.
type TailCallRequest struct {
	Scope *Environment
	Body  *ast.Block
}

func (t *TailCallRequest) Kind() Kind       { return "TailCallRequest" }
func (t *TailCallRequest) Inspect() string  { return "<tail-call>" }
func (t *TailCallRequest) IsTruthy() bool   { return true }
func (t *TailCallRequest) TypeName() string { return "TailCallRequest" }

// Error is the runtime's positioned error carrier. Kind distinguishes the
// closed taxonomy (LexError, ParseError, NameError, TypeError, ArityError,
// DomainError, IOError); the lexer and parser packages have their own
// lighter-weight Error types for their own phase and are translated into
// this one at the evaluator boundary.
type Error struct {
	ErrKind string
	Msg     string
	Pos     token.Position
}

func NewError(kind, msg string, pos token.Position) *Error {
	return &Error{ErrKind: kind, Msg: msg, Pos: pos}
}

func (e *Error) Kind() Kind       { return "Error" }
func (e *Error) Inspect() string  { return fmt.Sprintf("%s: %s", e.ErrKind, e.Msg) }
func (e *Error) IsTruthy() bool   { return true }
func (e *Error) TypeName() string { return "Error" }
func (e *Error) Error() string    { return fmt.Sprintf("%s at %d:%d: %s", e.ErrKind, e.Pos.Line, e.Pos.Column, e.Msg) }
func (e *Error) Message() string  { return e.Msg }
func (e *Error) Line() int        { return e.Pos.Line }
func (e *Error) Column() int      { return e.Pos.Column }

const (
	ErrLex    = "LexError"
	ErrParse  = "ParseError"
	ErrName   = "NameError"
	ErrType   = "TypeError"
	ErrArity  = "ArityError"
	ErrDomain = "DomainError"
	ErrIO     = "IOError"
)

// formatDecimal renders a float64 without ever switching to scientific
// notation (strconv's 'g' verb does, for magnitude >= 1e6 or < 1e-4, which
// produces output this language's lexer — no exponent syntax — can't read
// back). A trailing ".0" is forced onto integral values so inspect() of a
// Decimal always re-lexes as DECIMAL rather than INT.
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

//------------------------------------------------------------------------
// hashing helper shared by every "Value"-tier type's Hash()
//------------------------------------------------------------------------

// hashString is a small FNV-1a variant; deterministic across a run, which
// is all the equality/hash law (§8.5) requires.
func hashString(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

// combineOrdered folds hashes order-sensitively (List, String-of-values).
func combineOrdered(hs []uint64) uint64 {
	var h uint64 = 14695981039346656037
	for _, x := range hs {
		h ^= x
		h *= 1099511628211
	}
	return h
}

// combineUnordered folds hashes order-insensitively (Dict, Set) via
// simple XOR, which is commutative and associative.
func combineUnordered(hs []uint64) uint64 {
	var h uint64
	for _, x := range hs {
		h ^= x
	}
	return h
}

// joinInspect is a small helper for collection Inspect() implementations.
func joinInspect(parts []string, open, close string) string {
	return open + strings.Join(parts, ", ") + close
}
