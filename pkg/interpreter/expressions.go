package interpreter

import (
	"fmt"
	"math/big"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/runtime"
)

func evalIfExpression(n *ast.IfExpression, env *runtime.Environment, tail bool) runtime.Value {
	cond := eval(n.Condition, env, false)
	if err, ok := cond.(*runtime.Error); ok {
		return err
	}
	if cond.IsTruthy() {
		return evalBlock(n.Then, env, tail)
	}
	if n.Else == nil {
		return runtime.Nil
	}
	return eval(n.Else, env, tail)
}

func evalMatchExpression(n *ast.MatchExpression, env *runtime.Environment, tail bool) runtime.Value {
	subject := eval(n.Subject, env, false)
	if err, ok := subject.(*runtime.Error); ok {
		return err
	}
	for _, arm := range n.Arms {
		armScope := env.NewChild()
		matched, err := matchPattern(arm.Pattern, subject, armScope)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}
		if arm.Guard != nil {
			g := eval(arm.Guard, armScope, false)
			if gerr, ok := g.(*runtime.Error); ok {
				return gerr
			}
			if !g.IsTruthy() {
				continue
			}
		}
		return eval(arm.Body, armScope, tail)
	}
	return runtime.NewError(runtime.ErrDomain, "no match arm matched "+subject.Inspect(), n.Subject.Position())
}

func evalPrefixExpression(n *ast.PrefixExpression, env *runtime.Environment) runtime.Value {
	right := eval(n.Right, env, false)
	if err, ok := right.(*runtime.Error); ok {
		return err
	}
	switch n.Operator {
	case "-":
		return negate(right, n.Position())
	case "!":
		return runtime.NewBoolean(!right.IsTruthy())
	}
	return runtime.NewError(runtime.ErrParse, "unknown prefix operator "+n.Operator, n.Position())
}

func evalIndexExpression(n *ast.IndexExpression, env *runtime.Environment) runtime.Value {
	left := eval(n.Left, env, false)
	if err, ok := left.(*runtime.Error); ok {
		return err
	}
	index := eval(n.Index, env, false)
	if err, ok := index.(*runtime.Error); ok {
		return err
	}
	return indexValue(left, index, n.Position())
}

func indexValue(left, index runtime.Value, pos ast.Position) runtime.Value {
	switch l := left.(type) {
	case *runtime.List:
		switch idx := index.(type) {
		case *runtime.Integer:
			i := int(idx.Val.Int64())
			if i < 0 {
				i += l.Len()
			}
			return l.Get(i)
		case *runtime.Range:
			from, to := rangeBounds(idx, l.Len())
			return l.Slice(from, to)
		}
		return runtime.NewError(runtime.ErrType, fmt.Sprintf("cannot index List with %s", index.TypeName()), pos)

	case *runtime.String:
		runes := l.Runes()
		switch idx := index.(type) {
		case *runtime.Integer:
			i := int(idx.Val.Int64())
			if i < 0 {
				i += len(runes)
			}
			if i < 0 || i >= len(runes) {
				return runtime.Nil
			}
			return runtime.NewString(string(runes[i]))
		case *runtime.Range:
			from, to := rangeBounds(idx, len(runes))
			if from >= to {
				return runtime.NewString("")
			}
			return runtime.NewString(string(runes[from:to]))
		}
		return runtime.NewError(runtime.ErrType, fmt.Sprintf("cannot index String with %s", index.TypeName()), pos)

	case *runtime.Dict:
		h, ok := index.(runtime.Hashable)
		if !ok {
			return runtime.NewError(runtime.ErrDomain, fmt.Sprintf("%s is not hashable", index.TypeName()), pos)
		}
		if v, found := l.Get(h); found {
			return v
		}
		return runtime.Nil
	}
	return runtime.NewError(runtime.ErrType, fmt.Sprintf("cannot index %s", left.TypeName()), pos)
}

// rangeBounds converts a Range index into concrete [from, to) bounds
// against a collection of the given length, resolving an unbounded end to
// the collection's length.
func rangeBounds(r *runtime.Range, length int) (int, int) {
	from := int(r.Start.Int64())
	if from < 0 {
		from += length
	}
	to := length
	if r.End != nil {
		to = int(r.End.Int64())
		if to < 0 {
			to += length
		}
		if r.Inclusive {
			to++
		}
	}
	return from, to
}

func negate(v runtime.Value, pos ast.Position) runtime.Value {
	switch n := v.(type) {
	case *runtime.Integer:
		return runtime.NewInteger(new(big.Int).Neg(n.Val))
	case *runtime.Decimal:
		return runtime.NewDecimal(-n.Val)
	}
	return runtime.NewError(runtime.ErrType, fmt.Sprintf("cannot negate %s", v.TypeName()), pos)
}
