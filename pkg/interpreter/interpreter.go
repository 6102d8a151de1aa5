// Package interpreter evaluates an AST against the runtime value model: a
// recursive tree walker with a tail-call trampoline, pattern matcher,
// partial-application logic, short-circuit evaluation, and built-in
// dispatch.
package interpreter

import (
	"fmt"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/runtime"
)

// NewGlobalEnvironment builds a root scope with every core built-in
// registered and returns a child of it for the program's own bindings, so
// a top-level let may shadow a built-in's name.
func NewGlobalEnvironment() *runtime.Environment {
	env := runtime.NewEnvironment()
	registerBuiltins(env)
	return env.NewChild()
}

// Eval dispatches on node kind, returning a runtime value or a
// control-flow carrier (ReturnValue, BreakValue, TailCallRequest, Error).
// node is evaluated outside any tail position; eval's tail flag says
// whether a CallExpression may be recognised as a tail call.
func Eval(node ast.Node, env *runtime.Environment) runtime.Value {
	return eval(node, env, false)
}

func eval(node ast.Node, env *runtime.Environment, tail bool) runtime.Value {
	switch n := node.(type) {
	case *ast.Program:
		return evalStatements(n.Statements, env, false)
	case *ast.Block:
		return evalBlock(n, env, tail)

	case *ast.IntegerLiteral:
		return runtime.NewInteger(n.Value)
	case *ast.DecimalLiteral:
		return runtime.NewDecimal(n.Value)
	case *ast.BooleanLiteral:
		return runtime.NewBoolean(n.Value)
	case *ast.NilLiteral:
		return runtime.Nil
	case *ast.StringLiteral:
		return evalStringLiteral(n, env)
	case *ast.Identifier:
		return evalIdentifier(n, env)
	case *ast.Placeholder:
		return runtime.PlaceholderValue

	case *ast.ListLiteral:
		return evalListLiteral(n, env)
	case *ast.DictLiteral:
		return evalDictLiteral(n, env)
	case *ast.SetLiteral:
		return evalSetLiteral(n, env)

	case *ast.FunctionLiteral:
		return &runtime.Function{Params: n.Params, Body: n.Body, Env: env}

	case *ast.CallExpression:
		return evalCallExpression(n, env, tail)
	case *ast.IfExpression:
		return evalIfExpression(n, env, tail)
	case *ast.MatchExpression:
		return evalMatchExpression(n, env, tail)
	case *ast.PrefixExpression:
		return evalPrefixExpression(n, env)
	case *ast.IndexExpression:
		return evalIndexExpression(n, env)
	case *ast.AssignExpression:
		return evalAssignExpression(n, env)

	case *ast.LetStatement:
		return evalLetStatement(n, env)
	case *ast.ReturnStatement:
		return evalReturnStatement(n, env)
	case *ast.BreakStatement:
		return evalBreakStatement(n, env)
	case *ast.ExpressionStatement:
		return eval(n.Expr, env, tail)
	case *ast.AnnotatedStatement:
		return evalAnnotatedStatement(n, env, tail)
	case *ast.SectionStatement:
		env.AddSection(&runtime.Section{Name: n.Name, Body: n.Body})
		return runtime.Nil
	}

	return runtime.NewError(runtime.ErrDomain, fmt.Sprintf("cannot evaluate node of type %T", node), node.Position())
}

// evalStatements runs the block-state-machine table from §4.6: stop and
// propagate on any control-flow carrier, otherwise continue, producing
// the last statement's value.
func evalStatements(stmts []ast.Statement, env *runtime.Environment, tail bool) runtime.Value {
	var result runtime.Value = runtime.Nil
	for i, stmt := range stmts {
		isLast := i == len(stmts)-1
		result = eval(stmt, env, isLast && tail)
		switch result.(type) {
		case *runtime.Error, *runtime.ReturnValue, *runtime.BreakValue, *runtime.TailCallRequest:
			return result
		}
	}
	return result
}

// evalBlock evaluates a block in a fresh child scope. Note this is used
// both for plain nested blocks (if/else bodies, match-arm bodies) and, via
// CallFunction's trampoline, for function bodies — the trampoline loop
// itself lives in trampoline.go and calls evalBlock per iteration.
func evalBlock(block *ast.Block, env *runtime.Environment, tail bool) runtime.Value {
	child := env.NewChild()
	return evalStatements(block.Statements, child, tail)
}

func evalIdentifier(n *ast.Identifier, env *runtime.Environment) runtime.Value {
	if v, ok := env.Lookup(n.Name); ok {
		return v
	}
	return runtime.NewError(runtime.ErrName, fmt.Sprintf("identifier not found: %s", n.Name), n.Position())
}

func evalStringLiteral(n *ast.StringLiteral, env *runtime.Environment) runtime.Value {
	if text, ok := n.StaticValue(); ok {
		return runtime.NewString(text)
	}
	var b []byte
	for _, part := range n.Parts {
		if part.IsText {
			b = append(b, part.Text...)
			continue
		}
		v := eval(part.Expr, env, false)
		if err, ok := v.(*runtime.Error); ok {
			return err
		}
		b = append(b, inspectForInterpolation(v)...)
	}
	return runtime.NewString(string(b))
}

// inspectForInterpolation renders a value for embedding into a string:
// Strings are inlined raw (no surrounding quotes), everything else uses
// its canonical Inspect().
func inspectForInterpolation(v runtime.Value) string {
	if s, ok := v.(*runtime.String); ok {
		return s.Val
	}
	return v.Inspect()
}

func evalListLiteral(n *ast.ListLiteral, env *runtime.Environment) runtime.Value {
	vals := make([]runtime.Value, len(n.Elements))
	for i, e := range n.Elements {
		v := eval(e, env, false)
		if err, ok := v.(*runtime.Error); ok {
			return err
		}
		vals[i] = v
	}
	return runtime.NewListFromSlice(vals)
}

func evalSetLiteral(n *ast.SetLiteral, env *runtime.Environment) runtime.Value {
	members := make([]runtime.Hashable, 0, len(n.Elements))
	for _, e := range n.Elements {
		v := eval(e, env, false)
		if err, ok := v.(*runtime.Error); ok {
			return err
		}
		h, ok := v.(runtime.Hashable)
		if !ok {
			return runtime.NewError(runtime.ErrDomain, fmt.Sprintf("%s is not hashable", v.TypeName()), e.Position())
		}
		members = append(members, h)
	}
	return runtime.NewSetFromSlice(members)
}

func evalDictLiteral(n *ast.DictLiteral, env *runtime.Environment) runtime.Value {
	d := runtime.NewDict()
	for _, pair := range n.Pairs {
		k := eval(pair.Key, env, false)
		if err, ok := k.(*runtime.Error); ok {
			return err
		}
		v := eval(pair.Value, env, false)
		if err, ok := v.(*runtime.Error); ok {
			return err
		}
		hk, ok := k.(runtime.Hashable)
		if !ok {
			return runtime.NewError(runtime.ErrDomain, fmt.Sprintf("%s is not hashable", k.TypeName()), pair.Key.Position())
		}
		d = d.Set(hk, v)
	}
	return d
}

func evalAssignExpression(n *ast.AssignExpression, env *runtime.Environment) runtime.Value {
	v := eval(n.Value, env, false)
	if err, ok := v.(*runtime.Error); ok {
		return err
	}
	if !env.Assign(n.Target.Name, v) {
		return runtime.NewError(runtime.ErrName, fmt.Sprintf("cannot assign to unbound or immutable identifier %s", n.Target.Name), n.Position())
	}
	return v
}

func evalLetStatement(n *ast.LetStatement, env *runtime.Environment) runtime.Value {
	v := eval(n.Value, env, false)
	if err, ok := v.(*runtime.Error); ok {
		return err
	}
	matched, err := bindPattern(n.Target, v, env, n.Mutable)
	if err != nil {
		return err
	}
	if !matched {
		return runtime.NewError(runtime.ErrDomain, "let pattern did not match value", n.Position())
	}
	return runtime.Nil
}

func evalReturnStatement(n *ast.ReturnStatement, env *runtime.Environment) runtime.Value {
	if n.Value == nil {
		return &runtime.ReturnValue{Val: runtime.Nil}
	}
	v := eval(n.Value, env, true)
	switch v.(type) {
	case *runtime.Error, *runtime.TailCallRequest:
		return v
	}
	return &runtime.ReturnValue{Val: v}
}

// evalAnnotatedStatement only gives special meaning to `@slow` attached to
// a section declaration — that's the one annotation the base language
// recognises (§4.1). Anything else attached to a section, or any
// annotation on a non-section statement, evaluates the inner statement
// unchanged; the annotation itself carries no other runtime effect.
func evalAnnotatedStatement(n *ast.AnnotatedStatement, env *runtime.Environment, tail bool) runtime.Value {
	if n.Annotation == "slow" {
		if section, ok := n.Stmt.(*ast.SectionStatement); ok {
			env.AddSection(&runtime.Section{Name: section.Name, Body: section.Body, Slow: true})
			return runtime.Nil
		}
	}
	return eval(n.Stmt, env, tail)
}

func evalBreakStatement(n *ast.BreakStatement, env *runtime.Environment) runtime.Value {
	if n.Value == nil {
		return &runtime.BreakValue{Val: runtime.Nil}
	}
	v := eval(n.Value, env, false)
	if err, ok := v.(*runtime.Error); ok {
		return err
	}
	return &runtime.BreakValue{Val: v}
}
