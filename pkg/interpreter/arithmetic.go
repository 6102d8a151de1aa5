package interpreter

import (
	"fmt"
	"math/big"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/runtime"
)

func toFloat(v runtime.Value) (float64, bool) {
	switch n := v.(type) {
	case *runtime.Integer:
		f := new(big.Float).SetInt(n.Val)
		out, _ := f.Float64()
		return out, true
	case *runtime.Decimal:
		return n.Val, true
	}
	return 0, false
}

func bothInteger(a, b runtime.Value) (*big.Int, *big.Int, bool) {
	ai, ok1 := a.(*runtime.Integer)
	bi, ok2 := b.(*runtime.Integer)
	if ok1 && ok2 {
		return ai.Val, bi.Val, true
	}
	return nil, nil, false
}

func arith(name string, a, b runtime.Value, pos ast.Position) runtime.Value {
	if ai, bi, ok := bothInteger(a, b); ok {
		switch name {
		case "+":
			return runtime.NewInteger(new(big.Int).Add(ai, bi))
		case "-":
			return runtime.NewInteger(new(big.Int).Sub(ai, bi))
		case "*":
			return runtime.NewInteger(new(big.Int).Mul(ai, bi))
		case "/":
			if bi.Sign() == 0 {
				return runtime.NewError(runtime.ErrDomain, "division by zero", pos)
			}
			q, r := new(big.Int).QuoRem(ai, bi, new(big.Int))
			if r.Sign() == 0 {
				return runtime.NewInteger(q)
			}
			af, _ := new(big.Float).SetInt(ai).Float64()
			bf, _ := new(big.Float).SetInt(bi).Float64()
			return runtime.NewDecimal(af / bf)
		case "%":
			if bi.Sign() == 0 {
				return runtime.NewError(runtime.ErrDomain, "division by zero", pos)
			}
			m := new(big.Int).Mod(ai, bi)
			if m.Sign() != 0 && (m.Sign() < 0) != (bi.Sign() < 0) {
				m.Add(m, bi)
			}
			return runtime.NewInteger(m)
		}
	}

	if s, ok := a.(*runtime.String); ok && name == "+" {
		if bs, ok := b.(*runtime.String); ok {
			return runtime.NewString(s.Val + bs.Val)
		}
		return runtime.NewError(runtime.ErrType, "cannot concatenate String with "+b.TypeName(), pos)
	}

	af, ok1 := toFloat(a)
	bf, ok2 := toFloat(b)
	if !ok1 || !ok2 {
		return runtime.NewError(runtime.ErrType, fmt.Sprintf("%s not supported between %s and %s", name, a.TypeName(), b.TypeName()), pos)
	}
	switch name {
	case "+":
		return runtime.NewDecimal(af + bf)
	case "-":
		return runtime.NewDecimal(af - bf)
	case "*":
		return runtime.NewDecimal(af * bf)
	case "/":
		if bf == 0 {
			return runtime.NewError(runtime.ErrDomain, "division by zero", pos)
		}
		return runtime.NewDecimal(af / bf)
	case "%":
		if bf == 0 {
			return runtime.NewError(runtime.ErrDomain, "division by zero", pos)
		}
		m := af - bf*floorDiv(af, bf)
		return runtime.NewDecimal(m)
	}
	return runtime.NewError(runtime.ErrDomain, "unknown arithmetic operator "+name, pos)
}

func floorDiv(a, b float64) float64 {
	q := a / b
	if q >= 0 {
		return float64(int64(q))
	}
	i := float64(int64(q))
	if i != q {
		return i - 1
	}
	return i
}

// compare returns -1, 0, 1 for a<b, a==b, a>b, restricted to orderings
// the value model defines: Integer/Decimal (with cross-type promotion)
// and String (lexicographic by Unicode scalar value).
func compare(a, b runtime.Value, pos ast.Position) (int, *runtime.Error) {
	if ai, bi, ok := bothInteger(a, b); ok {
		return ai.Cmp(bi), nil
	}
	if as, ok := a.(*runtime.String); ok {
		if bs, ok := b.(*runtime.String); ok {
			switch {
			case as.Val < bs.Val:
				return -1, nil
			case as.Val > bs.Val:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	af, ok1 := toFloat(a)
	bf, ok2 := toFloat(b)
	if ok1 && ok2 {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, runtime.NewError(runtime.ErrType, fmt.Sprintf("cannot compare %s and %s", a.TypeName(), b.TypeName()), pos)
}

func valuesEqual(a, b runtime.Value) bool {
	ah, ok1 := a.(runtime.Hashable)
	bh, ok2 := b.(runtime.Hashable)
	if !ok1 || !ok2 {
		return false
	}
	return ah.Equals(bh)
}
