package interpreter

import (
	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/runtime"
)

// matchPattern tries to match val against pat, declaring any bindings it
// introduces directly into env. Returns (true, nil) on a match,
// (false, nil) when the pattern simply doesn't match, and (false, err)
// when evaluating a guard expression raised an evaluator error.
func matchPattern(pat ast.Pattern, val runtime.Value, env *runtime.Environment) (bool, *runtime.Error) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return true, nil

	case *ast.IdentifierPattern:
		env.Declare(p.Name, val, false)
		return true, nil

	case *ast.LiteralPattern:
		lit := eval(p.Value, env, false)
		if err, ok := lit.(*runtime.Error); ok {
			return false, err
		}
		lh, ok1 := lit.(runtime.Hashable)
		vh, ok2 := val.(runtime.Hashable)
		if !ok1 || !ok2 {
			return false, nil
		}
		return lh.Equals(vh), nil

	case *ast.ListPattern:
		list, ok := val.(*runtime.List)
		if !ok {
			return false, nil
		}
		if p.Rest == nil && list.Len() != len(p.Elements) {
			return false, nil
		}
		if p.Rest != nil && list.Len() < len(p.Elements) {
			return false, nil
		}
		for i, elemPat := range p.Elements {
			matched, err := matchPattern(elemPat, list.Get(i), env)
			if err != nil || !matched {
				return matched, err
			}
		}
		if p.Rest != nil {
			env.Declare(p.Rest.Name, list.Slice(len(p.Elements), list.Len()), false)
		}
		return true, nil

	case *ast.DictPattern:
		dict, ok := val.(*runtime.Dict)
		if !ok {
			return false, nil
		}
		for _, pair := range p.Pairs {
			keyVal := eval(pair.Key, env, false)
			if err, ok := keyVal.(*runtime.Error); ok {
				return false, err
			}
			hk, ok := keyVal.(runtime.Hashable)
			if !ok {
				return false, nil
			}
			v, found := dict.Get(hk)
			if !found {
				return false, nil
			}
			matched, err := matchPattern(pair.Value, v, env)
			if err != nil || !matched {
				return matched, err
			}
		}
		return true, nil

	case *ast.GuardPattern:
		matched, err := matchPattern(p.Inner, val, env)
		if err != nil || !matched {
			return matched, err
		}
		guard := eval(p.Guard, env, false)
		if gerr, ok := guard.(*runtime.Error); ok {
			return false, gerr
		}
		return guard.IsTruthy(), nil
	}
	return false, nil
}

// bindPattern matches pat against val directly in env (no child scope is
// created — callers that need isolation, like Let at top level reusing the
// enclosing scope on purpose, create one themselves). mutable applies only
// to IdentifierPattern bindings, since only plain identifiers can be
// declared mut.
func bindPattern(pat ast.Pattern, val runtime.Value, env *runtime.Environment, mutable bool) (bool, *runtime.Error) {
	if ident, ok := pat.(*ast.IdentifierPattern); ok {
		if !env.Declare(ident.Name, val, mutable) {
			return false, runtime.NewError(runtime.ErrName, "identifier already declared in this scope: "+ident.Name, pat.Position())
		}
		return true, nil
	}
	return matchPattern(pat, val, env)
}
