package interpreter

import (
	"fmt"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/runtime"
)

// evalCallExpression implements §4.6's call handling: short-circuit &&/||
// recognised structurally, partial application when the argument list is
// short or carries a Placeholder, and tail-call recognition when tail is
// true and the callee resolves to a user-defined Function.
func evalCallExpression(n *ast.CallExpression, env *runtime.Environment, tail bool) runtime.Value {
	if ident, ok := n.Callee.(*ast.Identifier); ok && len(n.Args) == 2 {
		if ident.Name == "&&" {
			return evalShortCircuit(n, env, true)
		}
		if ident.Name == "||" {
			return evalShortCircuit(n, env, false)
		}
	}

	calleeVal := eval(n.Callee, env, false)
	if err, ok := calleeVal.(*runtime.Error); ok {
		return err
	}

	argVals := make([]runtime.Value, len(n.Args))
	hasPlaceholder := false
	for i, a := range n.Args {
		if _, isPH := a.(*ast.Placeholder); isPH {
			argVals[i] = runtime.PlaceholderValue
			hasPlaceholder = true
			continue
		}
		v := eval(a, env, false)
		if err, ok := v.(*runtime.Error); ok {
			return err
		}
		argVals[i] = v
	}

	callable, ok := calleeVal.(runtime.Callable)
	if !ok {
		return runtime.NewError(runtime.ErrType, fmt.Sprintf("%s is not callable", calleeVal.TypeName()), n.Position())
	}

	if hasPlaceholder || len(argVals) < callable.Arity() {
		return makePartial(callable, argVals)
	}

	if tail {
		if fn, ok := callable.(*runtime.Function); ok {
			childScope, matchErr := bindParams(fn, argVals, n.Position())
			if matchErr != nil {
				return matchErr
			}
			return &runtime.TailCallRequest{Scope: childScope, Body: fn.Body}
		}
	}

	return Apply(callable, argVals, n.Position())
}

// conjunction=true for `&&`, false for `||`. Evaluates the right-hand
// side only when required.
func evalShortCircuit(n *ast.CallExpression, env *runtime.Environment, conjunction bool) runtime.Value {
	left := eval(n.Args[0], env, false)
	if err, ok := left.(*runtime.Error); ok {
		return err
	}
	if conjunction && !left.IsTruthy() {
		return left
	}
	if !conjunction && left.IsTruthy() {
		return left
	}
	return eval(n.Args[1], env, false)
}

// makePartial builds a PartialFunction from a (possibly placeholder-laden,
// possibly short) argument list, unifying explicit `_` and under-
// application into the same code path.
func makePartial(callable runtime.Callable, args []runtime.Value) runtime.Value {
	bound := make([]runtime.Value, callable.Arity())
	for i := 0; i < len(bound); i++ {
		if i < len(args) {
			bound[i] = args[i]
		} else {
			bound[i] = runtime.PlaceholderValue
		}
	}
	return &runtime.PartialFunction{Target: callable, Bound: bound}
}

// Apply invokes a Callable outside of tail position: user Functions run
// through the trampoline loop (so self/mutual tail recursion inside the
// call still gets constant stack depth even though this particular
// invocation itself grows the Go call stack by one frame), built-ins run
// directly, and PartialFunctions fill their remaining Placeholder slots.
func Apply(callable runtime.Callable, args []runtime.Value, pos ast.Position) runtime.Value {
	switch c := callable.(type) {
	case *runtime.Function:
		scope, err := bindParams(c, args, pos)
		if err != nil {
			return err
		}
		return runBody(c.Body, scope)

	case *runtime.BuiltinFunction:
		if c.ArityCount >= 0 && len(args) != c.ArityCount {
			return runtime.NewError(runtime.ErrArity, fmt.Sprintf("%s expects %d argument(s), got %d", c.Name, c.ArityCount, len(args)), pos)
		}
		return c.Fn(args, pos)

	case *runtime.PartialFunction:
		return applyPartial(c, args, pos)
	}
	return runtime.NewError(runtime.ErrType, "value is not callable", pos)
}

func applyPartial(p *runtime.PartialFunction, newArgs []runtime.Value, pos ast.Position) runtime.Value {
	filled := make([]runtime.Value, len(p.Bound))
	copy(filled, p.Bound)
	j := 0
	for i, v := range filled {
		if _, isPH := v.(*runtime.Placeholder); isPH {
			if j < len(newArgs) {
				filled[i] = newArgs[j]
				j++
			}
		}
	}
	stillOpen := false
	for _, v := range filled {
		if _, isPH := v.(*runtime.Placeholder); isPH {
			stillOpen = true
			break
		}
	}
	if stillOpen {
		return &runtime.PartialFunction{Target: p.Target, Bound: filled}
	}
	return Apply(p.Target, filled, pos)
}

// runBody is the trampoline: it evaluates a Function's body in scope and,
// each time that evaluation yields a TailCallRequest, replaces the current
// frame with the requested (scope, body) and loops instead of recursing.
func runBody(body *ast.Block, scope *runtime.Environment) runtime.Value {
	for {
		result := evalBlock(body, scope, true)
		if tc, ok := result.(*runtime.TailCallRequest); ok {
			scope = tc.Scope
			body = tc.Body
			continue
		}
		if rv, ok := result.(*runtime.ReturnValue); ok {
			return rv.Val
		}
		return result
	}
}

// bindParams creates a child of the Function's captured defining
// environment and binds each argument to its parameter pattern.
func bindParams(fn *runtime.Function, args []runtime.Value, pos ast.Position) (*runtime.Environment, runtime.Value) {
	scope := fn.Env.NewChild()
	for i, param := range fn.Params {
		var argVal runtime.Value = runtime.Nil
		if i < len(args) {
			argVal = args[i]
		}
		matched, err := bindPattern(param, argVal, scope, false)
		if err != nil {
			return nil, err
		}
		if !matched {
			return nil, runtime.NewError(runtime.ErrDomain, "function parameter pattern did not match argument", pos)
		}
	}
	return scope, nil
}
