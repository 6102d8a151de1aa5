package interpreter

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/eddmann/santa-lang-prancer/pkg/ast"
	"github.com/eddmann/santa-lang-prancer/pkg/runtime"
)

func reg(env *runtime.Environment, name string, arity int, fn func(args []runtime.Value, pos ast.Position) runtime.Value) {
	env.Declare(name, &runtime.BuiltinFunction{Name: name, ArityCount: arity, Fn: fn}, false)
}

// registerBuiltins installs every operator-as-identifier and library
// function a program's top-level scope resolves against.
func registerBuiltins(env *runtime.Environment) {
	registerOperators(env)
	registerCollections(env)
	registerTransients(env)
	registerStrings(env)
	registerSequences(env)
	registerIO(env)
	registerMisc(env)
}

//------------------------------------------------------------------------
// Operators — registered by name so `+`, `|>`, `>>` etc. are ordinary
// callable values (e.g. passable to reduce(+, xs)), not only recognised
// syntactically by the parser's binary-call desugaring.
//------------------------------------------------------------------------

func registerOperators(env *runtime.Environment) {
	for _, name := range []string{"+", "-", "*", "/", "%"} {
		op := name
		reg(env, op, 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
			return arith(op, args[0], args[1], pos)
		})
	}

	reg(env, "==", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		return runtime.NewBoolean(valuesEqual(args[0], args[1]))
	})
	reg(env, "!=", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		return runtime.NewBoolean(!valuesEqual(args[0], args[1]))
	})

	for _, name := range []string{"<", ">", "<=", ">="} {
		op := name
		reg(env, op, 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
			c, err := compare(args[0], args[1], pos)
			if err != nil {
				return err
			}
			switch op {
			case "<":
				return runtime.NewBoolean(c < 0)
			case ">":
				return runtime.NewBoolean(c > 0)
			case "<=":
				return runtime.NewBoolean(c <= 0)
			default:
				return runtime.NewBoolean(c >= 0)
			}
		})
	}

	reg(env, "&&", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		if !args[0].IsTruthy() {
			return args[0]
		}
		return args[1]
	})
	reg(env, "||", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		if args[0].IsTruthy() {
			return args[0]
		}
		return args[1]
	})

	reg(env, "..", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		return makeRange(args[0], args[1], false, pos)
	})
	reg(env, "..=", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		return makeRange(args[0], args[1], true, pos)
	})

	reg(env, "|>", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, ok := args[1].(runtime.Callable)
		if !ok {
			return runtime.NewError(runtime.ErrType, args[1].TypeName()+" is not callable", pos)
		}
		return Apply(callable, []runtime.Value{args[0]}, pos)
	})

	reg(env, ">>", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		f, ok1 := args[0].(runtime.Callable)
		g, ok2 := args[1].(runtime.Callable)
		if !ok1 || !ok2 {
			return runtime.NewError(runtime.ErrType, "composition requires two callables", pos)
		}
		arity := f.Arity()
		return &runtime.BuiltinFunction{
			Name:       "<composed>",
			ArityCount: arity,
			Fn: func(innerArgs []runtime.Value, innerPos ast.Position) runtime.Value {
				r := Apply(f, innerArgs, innerPos)
				if err, ok := r.(*runtime.Error); ok {
					return err
				}
				return Apply(g, []runtime.Value{r}, innerPos)
			},
		}
	})
}

func makeRange(a, b runtime.Value, inclusive bool, pos ast.Position) runtime.Value {
	ai, ok1 := a.(*runtime.Integer)
	if !ok1 {
		return runtime.NewError(runtime.ErrType, "range bounds must be Integer", pos)
	}
	if _, isNil := b.(*runtime.NilValue); isNil {
		return runtime.NewRange(ai.Val, nil, inclusive)
	}
	bi, ok2 := b.(*runtime.Integer)
	if !ok2 {
		return runtime.NewError(runtime.ErrType, "range bounds must be Integer", pos)
	}
	return runtime.NewRange(ai.Val, bi.Val, inclusive)
}

//------------------------------------------------------------------------
// Collections
//------------------------------------------------------------------------

// asElements materialises any collection into an ordered slice of values,
// the common ground for operations that genuinely cannot work without
// seeing every element (sort, reverse, join, min/max). Dict materialises to
// 2-element [key, value] Lists. A Sequence is drained by repeated At calls,
// which never returns for a truly unbounded one — same caveat as an
// infinite Range, which is rejected up front instead since IsInfinite is
// known without running anything.
func asElements(v runtime.Value, pos ast.Position) ([]runtime.Value, *runtime.Error) {
	switch c := v.(type) {
	case *runtime.List:
		return c.ToSlice(), nil
	case *runtime.Set:
		out := make([]runtime.Value, len(c.Values()))
		for i, h := range c.Values() {
			out[i] = h
		}
		return out, nil
	case *runtime.Dict:
		entries := c.Entries()
		out := make([]runtime.Value, len(entries))
		for i, e := range entries {
			out[i] = runtime.NewListFromSlice([]runtime.Value{e[0], e[1]})
		}
		return out, nil
	case *runtime.Range:
		if c.IsInfinite() {
			return nil, runtime.NewError(runtime.ErrDomain, "cannot materialise an infinite range", pos)
		}
		return c.ToSlice(), nil
	case *runtime.Sequence:
		var out []runtime.Value
		for i := 0; ; i++ {
			v, ok := c.At(i)
			if !ok {
				if e := sequenceError(c, pos); e != nil {
					return nil, e
				}
				break
			}
			out = append(out, v)
		}
		return out, nil
	case *runtime.String:
		runes := c.Runes()
		out := make([]runtime.Value, len(runes))
		for i, r := range runes {
			out[i] = runtime.NewString(string(r))
		}
		return out, nil
	}
	return nil, runtime.NewError(runtime.ErrType, v.TypeName()+" is not a collection", pos)
}

// elementProducer returns an index->value view over v that never
// materialises a Range or Sequence up front, so callers that can stop
// early (fold/each/filter/take_while/...) work over an unbounded source
// instead of choking on it. finite reports whether the producer is known
// to terminate — false for an infinite Range and for any Sequence (which
// carries no declared bound), true otherwise; callers that must build a
// new eager collection use it to decide whether to stay lazy.
func elementProducer(v runtime.Value, pos ast.Position) (producer func(int) (runtime.Value, bool), finite bool, err *runtime.Error) {
	switch c := v.(type) {
	case *runtime.List:
		elems := c.ToSlice()
		return func(i int) (runtime.Value, bool) {
			if i < 0 || i >= len(elems) {
				return nil, false
			}
			return elems[i], true
		}, true, nil
	case *runtime.Set:
		vals := c.Values()
		return func(i int) (runtime.Value, bool) {
			if i < 0 || i >= len(vals) {
				return nil, false
			}
			return vals[i], true
		}, true, nil
	case *runtime.Dict:
		entries := c.Entries()
		return func(i int) (runtime.Value, bool) {
			if i < 0 || i >= len(entries) {
				return nil, false
			}
			return runtime.NewListFromSlice([]runtime.Value{entries[i][0], entries[i][1]}), true
		}, true, nil
	case *runtime.String:
		runes := c.Runes()
		return func(i int) (runtime.Value, bool) {
			if i < 0 || i >= len(runes) {
				return nil, false
			}
			return runtime.NewString(string(runes[i])), true
		}, true, nil
	case *runtime.Range:
		seq := runtime.RangeSequence(c)
		return func(i int) (runtime.Value, bool) { return seq.At(i) }, !c.IsInfinite(), nil
	case *runtime.Sequence:
		return func(i int) (runtime.Value, bool) { return c.At(i) }, false, nil
	}
	return nil, false, runtime.NewError(runtime.ErrType, v.TypeName()+" is not a collection", pos)
}

// sequenceError converts a *runtime.Sequence's LastErr (if any) into a
// runtime Error, letting callers that observe an ordinary producer
// "exhausted" result distinguish a genuine upstream failure (e.g. a
// division by zero inside an iterate callback) from the source simply
// running out.
func sequenceError(v runtime.Value, pos ast.Position) *runtime.Error {
	seq, ok := v.(*runtime.Sequence)
	if !ok {
		return nil
	}
	err := seq.LastErr()
	if err == nil {
		return nil
	}
	if re, ok := err.(*runtime.Error); ok {
		return re
	}
	return runtime.NewError(runtime.ErrDomain, err.Error(), pos)
}

// errSourceOf adapts a possible *runtime.Sequence source into the
// errSource callback NewDerivedSequence expects, so lazy builtins chained
// on top of a Sequence (map, filter, chunk, ...) forward its LastErr
// instead of swallowing it.
func errSourceOf(v runtime.Value) func() error {
	seq, ok := v.(*runtime.Sequence)
	if !ok {
		return func() error { return nil }
	}
	return seq.LastErr
}

// errSourceOfAny is errSourceOf for builtins (zip) that read from two
// sources at once.
func errSourceOfAny(a, b runtime.Value) func() error {
	return func() error {
		if seq, ok := a.(*runtime.Sequence); ok {
			if err := seq.LastErr(); err != nil {
				return err
			}
		}
		if seq, ok := b.(*runtime.Sequence); ok {
			return seq.LastErr()
		}
		return nil
	}
}

func callback(callable runtime.Callable, value, extra runtime.Value, pos ast.Position) runtime.Value {
	if callable.Arity() >= 2 {
		return Apply(callable, []runtime.Value{value, extra}, pos)
	}
	return Apply(callable, []runtime.Value{value}, pos)
}

func asCallable(v runtime.Value, pos ast.Position) (runtime.Callable, *runtime.Error) {
	c, ok := v.(runtime.Callable)
	if !ok {
		return nil, runtime.NewError(runtime.ErrType, v.TypeName()+" is not callable", pos)
	}
	return c, nil
}

func registerCollections(env *runtime.Environment) {
	reg(env, "map", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[0], pos)
		if err != nil {
			return err
		}
		switch c := args[1].(type) {
		case *runtime.List:
			out := make([]runtime.Value, 0, c.Len())
			for i := 0; i < c.Len(); i++ {
				r := callback(callable, c.Get(i), runtime.NewIntegerFromInt64(int64(i)), pos)
				switch rv := r.(type) {
				case *runtime.Error:
					return rv
				case *runtime.BreakValue:
					return runtime.NewListFromSlice(out)
				}
				out = append(out, r)
			}
			return runtime.NewListFromSlice(out)
		case *runtime.Range:
			return runtime.NewSequence(mapProducer(RangeSequenceProducer(c), callable, pos))
		case *runtime.Sequence:
			return runtime.NewDerivedSequence(errSourceOf(c), mapProducer(sequenceProducer(c), callable, pos))
		case *runtime.Dict:
			entries := c.Entries()
			out := make([]runtime.Value, 0, len(entries))
			for _, e := range entries {
				r := callback(callable, e[1], e[0], pos)
				switch rv := r.(type) {
				case *runtime.Error:
					return rv
				case *runtime.BreakValue:
					return runtime.NewListFromSlice(out)
				}
				out = append(out, r)
			}
			return runtime.NewListFromSlice(out)
		case *runtime.Set:
			vals := c.Values()
			out := make([]runtime.Value, 0, len(vals))
			for i, v := range vals {
				r := callback(callable, v, runtime.NewIntegerFromInt64(int64(i)), pos)
				switch rv := r.(type) {
				case *runtime.Error:
					return rv
				case *runtime.BreakValue:
					return runtime.NewListFromSlice(out)
				}
				out = append(out, r)
			}
			return runtime.NewListFromSlice(out)
		}
		return runtime.NewError(runtime.ErrType, "map requires a collection", pos)
	})

	reg(env, "filter", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[0], pos)
		if err != nil {
			return err
		}
		switch c := args[1].(type) {
		case *runtime.Dict:
			result := runtime.NewDict()
			for _, e := range c.Entries() {
				r := callback(callable, e[1], e[0], pos)
				switch rv := r.(type) {
				case *runtime.Error:
					return rv
				case *runtime.BreakValue:
					return result
				}
				if r.IsTruthy() {
					hk := e[0].(runtime.Hashable)
					result = result.Set(hk, e[1])
				}
			}
			return result
		case *runtime.Set:
			result := runtime.NewSet()
			for i, v := range c.Values() {
				r := callback(callable, v, runtime.NewIntegerFromInt64(int64(i)), pos)
				switch rv := r.(type) {
				case *runtime.Error:
					return rv
				case *runtime.BreakValue:
					return result
				}
				if r.IsTruthy() {
					result = result.Add(v)
				}
			}
			return result
		default:
			producer, finite, err := elementProducer(args[1], pos)
			if err != nil {
				return err
			}
			if !finite {
				return runtime.NewDerivedSequence(errSourceOf(args[1]), filterProducer(producer, callable, pos))
			}
			var out []runtime.Value
			for i := 0; ; i++ {
				v, ok := producer(i)
				if !ok {
					if e := sequenceError(args[1], pos); e != nil {
						return e
					}
					break
				}
				r := callback(callable, v, runtime.NewIntegerFromInt64(int64(i)), pos)
				switch rv := r.(type) {
				case *runtime.Error:
					return rv
				case *runtime.BreakValue:
					return runtime.NewListFromSlice(out)
				}
				if r.IsTruthy() {
					out = append(out, v)
				}
			}
			return runtime.NewListFromSlice(out)
		}
	})

	// fold/reduce/each walk via elementProducer rather than asElements so a
	// callback that breaks partway through never forces the whole source
	// (which may be an infinite Range) to materialise first.
	reg(env, "fold", 3, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[1], pos)
		if err != nil {
			return err
		}
		producer, _, err := elementProducer(args[2], pos)
		if err != nil {
			return err
		}
		acc := args[0]
		for i := 0; ; i++ {
			v, ok := producer(i)
			if !ok {
				if e := sequenceError(args[2], pos); e != nil {
					return e
				}
				break
			}
			arity := callable.Arity()
			if arity < 0 || arity > 3 {
				arity = 3
			}
			r := Apply(callable, []runtime.Value{acc, v, runtime.NewIntegerFromInt64(int64(i))}[:arity], pos)
			switch rv := r.(type) {
			case *runtime.Error:
				return rv
			case *runtime.BreakValue:
				return rv.Val
			}
			acc = r
		}
		return acc
	})

	reg(env, "reduce", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[0], pos)
		if err != nil {
			return err
		}
		producer, _, err := elementProducer(args[1], pos)
		if err != nil {
			return err
		}
		acc, ok := producer(0)
		if !ok {
			if e := sequenceError(args[1], pos); e != nil {
				return e
			}
			return runtime.Nil
		}
		for i := 1; ; i++ {
			v, ok := producer(i)
			if !ok {
				if e := sequenceError(args[1], pos); e != nil {
					return e
				}
				break
			}
			r := Apply(callable, []runtime.Value{acc, v}, pos)
			switch rv := r.(type) {
			case *runtime.Error:
				return rv
			case *runtime.BreakValue:
				return rv.Val
			}
			acc = r
		}
		return acc
	})

	reg(env, "each", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[0], pos)
		if err != nil {
			return err
		}
		producer, _, err := elementProducer(args[1], pos)
		if err != nil {
			return err
		}
		for i := 0; ; i++ {
			v, ok := producer(i)
			if !ok {
				if e := sequenceError(args[1], pos); e != nil {
					return e
				}
				break
			}
			r := callback(callable, v, runtime.NewIntegerFromInt64(int64(i)), pos)
			switch rv := r.(type) {
			case *runtime.Error:
				return rv
			case *runtime.BreakValue:
				return runtime.Nil
			}
		}
		return runtime.Nil
	})

	reg(env, "size", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		switch c := args[0].(type) {
		case *runtime.List:
			return runtime.NewIntegerFromInt64(int64(c.Len()))
		case *runtime.Set:
			return runtime.NewIntegerFromInt64(int64(c.Len()))
		case *runtime.Dict:
			return runtime.NewIntegerFromInt64(int64(c.Len()))
		case *runtime.String:
			return runtime.NewIntegerFromInt64(int64(len(c.Runes())))
		case *runtime.Range:
			if c.IsInfinite() {
				return runtime.NewError(runtime.ErrDomain, "cannot take the size of an infinite range", pos)
			}
			return runtime.NewIntegerFromInt64(int64(c.Len()))
		}
		return runtime.NewError(runtime.ErrType, "size requires a collection", pos)
	})

	reg(env, "get", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		return indexValue(args[1], args[0], pos)
	})

	reg(env, "push", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		switch c := args[1].(type) {
		case *runtime.List:
			return c.Push(args[0])
		case *runtime.Set:
			h, ok := args[0].(runtime.Hashable)
			if !ok {
				return runtime.NewError(runtime.ErrDomain, args[0].TypeName()+" is not hashable", pos)
			}
			return c.Add(h)
		}
		return runtime.NewError(runtime.ErrType, "push requires a List or Set", pos)
	})

	reg(env, "zip", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		pa, finiteA, err := elementProducer(args[0], pos)
		if err != nil {
			return err
		}
		pb, finiteB, err := elementProducer(args[1], pos)
		if err != nil {
			return err
		}
		if !finiteA || !finiteB {
			return runtime.NewDerivedSequence(errSourceOfAny(args[0], args[1]), func(i int, buf []runtime.Value) (runtime.Value, bool) {
				va, oka := pa(i)
				vb, okb := pb(i)
				if !oka || !okb {
					return nil, false
				}
				return runtime.NewListFromSlice([]runtime.Value{va, vb}), true
			})
		}
		var out []runtime.Value
		for i := 0; ; i++ {
			va, oka := pa(i)
			vb, okb := pb(i)
			if !oka || !okb {
				break
			}
			out = append(out, runtime.NewListFromSlice([]runtime.Value{va, vb}))
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "range", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		return makeRange(args[0], args[1], false, pos)
	})

	reg(env, "first", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		producer, _, err := elementProducer(args[0], pos)
		if err != nil {
			return err
		}
		v, ok := producer(0)
		if !ok {
			if e := sequenceError(args[0], pos); e != nil {
				return e
			}
			return runtime.Nil
		}
		return v
	})

	// last inherently has to walk to the end, so an unbounded source is
	// rejected up front rather than hanging forever.
	reg(env, "last", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		producer, finite, err := elementProducer(args[0], pos)
		if err != nil {
			return err
		}
		if !finite {
			return runtime.NewError(runtime.ErrDomain, "cannot take the last element of an unbounded sequence", pos)
		}
		var last runtime.Value = runtime.Nil
		found := false
		for i := 0; ; i++ {
			v, ok := producer(i)
			if !ok {
				break
			}
			last, found = v, true
		}
		if !found {
			return runtime.Nil
		}
		return last
	})

	reg(env, "rest", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		producer, finite, err := elementProducer(args[0], pos)
		if err != nil {
			return err
		}
		if !finite {
			return runtime.NewDerivedSequence(errSourceOf(args[0]), func(i int, buf []runtime.Value) (runtime.Value, bool) {
				return producer(i + 1)
			})
		}
		var out []runtime.Value
		for i := 1; ; i++ {
			v, ok := producer(i)
			if !ok {
				break
			}
			out = append(out, v)
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "sort", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		elems, err := asElements(args[0], pos)
		if err != nil {
			return err
		}
		out := make([]runtime.Value, len(elems))
		copy(out, elems)
		var sortErr *runtime.Error
		sort.SliceStable(out, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			c, e := compare(out[i], out[j], pos)
			if e != nil {
				sortErr = e
				return false
			}
			return c < 0
		})
		if sortErr != nil {
			return sortErr
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "reverse", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		elems, err := asElements(args[0], pos)
		if err != nil {
			return err
		}
		out := make([]runtime.Value, len(elems))
		for i, v := range elems {
			out[len(elems)-1-i] = v
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "keys", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		d, ok := args[0].(*runtime.Dict)
		if !ok {
			return runtime.NewError(runtime.ErrType, "keys requires a Dict", pos)
		}
		out := make([]runtime.Value, len(d.Keys()))
		for i, k := range d.Keys() {
			out[i] = k
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "values", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		d, ok := args[0].(*runtime.Dict)
		if !ok {
			return runtime.NewError(runtime.ErrType, "values requires a Dict", pos)
		}
		entries := d.Entries()
		out := make([]runtime.Value, len(entries))
		for i, e := range entries {
			out[i] = e[1]
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "entries", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		d, ok := args[0].(*runtime.Dict)
		if !ok {
			return runtime.NewError(runtime.ErrType, "entries requires a Dict", pos)
		}
		out := make([]runtime.Value, 0, d.Len())
		for _, e := range d.Entries() {
			out = append(out, runtime.NewListFromSlice([]runtime.Value{e[0], e[1]}))
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "contains", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		switch c := args[1].(type) {
		case *runtime.Set:
			h, ok := args[0].(runtime.Hashable)
			if !ok {
				return runtime.NewBoolean(false)
			}
			return runtime.NewBoolean(c.Contains(h))
		case *runtime.Dict:
			h, ok := args[0].(runtime.Hashable)
			if !ok {
				return runtime.NewBoolean(false)
			}
			_, found := c.Get(h)
			return runtime.NewBoolean(found)
		case *runtime.String:
			sub, ok := args[0].(*runtime.String)
			if !ok {
				return runtime.NewBoolean(false)
			}
			return runtime.NewBoolean(strings.Contains(c.Val, sub.Val))
		default:
			producer, _, err := elementProducer(args[1], pos)
			if err != nil {
				return err
			}
			for i := 0; ; i++ {
				v, ok := producer(i)
				if !ok {
					if e := sequenceError(args[1], pos); e != nil {
						return e
					}
					break
				}
				if valuesEqual(v, args[0]) {
					return runtime.NewBoolean(true)
				}
			}
			return runtime.NewBoolean(false)
		}
	})

	reg(env, "update", 3, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[1], pos)
		if err != nil {
			return err
		}
		switch c := args[2].(type) {
		case *runtime.Dict:
			h, ok := args[0].(runtime.Hashable)
			if !ok {
				return runtime.NewError(runtime.ErrDomain, args[0].TypeName()+" is not hashable", pos)
			}
			old, found := c.Get(h)
			if !found {
				old = runtime.Nil
			}
			r := Apply(callable, []runtime.Value{old}, pos)
			if e, ok := r.(*runtime.Error); ok {
				return e
			}
			return c.Set(h, r)
		case *runtime.List:
			idx, ok := args[0].(*runtime.Integer)
			if !ok {
				return runtime.NewError(runtime.ErrType, "update on a List requires an Integer index", pos)
			}
			i := int(idx.Val.Int64())
			if i < 0 {
				i += c.Len()
			}
			r := Apply(callable, []runtime.Value{c.Get(i)}, pos)
			if e, ok := r.(*runtime.Error); ok {
				return e
			}
			return c.Set(i, r)
		}
		return runtime.NewError(runtime.ErrType, "update requires a Dict or List", pos)
	})

	reg(env, "chunk", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		n, ok := args[0].(*runtime.Integer)
		if !ok || n.Val.Sign() <= 0 {
			return runtime.NewError(runtime.ErrDomain, "chunk size must be a positive Integer", pos)
		}
		size := int(n.Val.Int64())
		producer, finite, err := elementProducer(args[1], pos)
		if err != nil {
			return err
		}
		if !finite {
			return runtime.NewDerivedSequence(errSourceOf(args[1]), func(i int, buf []runtime.Value) (runtime.Value, bool) {
				group := make([]runtime.Value, 0, size)
				for j := 0; j < size; j++ {
					v, ok := producer(i*size + j)
					if !ok {
						return nil, false
					}
					group = append(group, v)
				}
				return runtime.NewListFromSlice(group), true
			})
		}
		var out []runtime.Value
		for i := 0; ; {
			var group []runtime.Value
			for j := 0; j < size; j++ {
				v, ok := producer(i)
				if !ok {
					break
				}
				group = append(group, v)
				i++
			}
			if len(group) == 0 {
				break
			}
			out = append(out, runtime.NewListFromSlice(group))
			if len(group) < size {
				break
			}
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "window", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		n, ok := args[0].(*runtime.Integer)
		if !ok || n.Val.Sign() <= 0 {
			return runtime.NewError(runtime.ErrDomain, "window size must be a positive Integer", pos)
		}
		size := int(n.Val.Int64())
		producer, finite, err := elementProducer(args[1], pos)
		if err != nil {
			return err
		}
		if !finite {
			return runtime.NewDerivedSequence(errSourceOf(args[1]), func(i int, buf []runtime.Value) (runtime.Value, bool) {
				window := make([]runtime.Value, 0, size)
				for j := 0; j < size; j++ {
					v, ok := producer(i + j)
					if !ok {
						return nil, false
					}
					window = append(window, v)
				}
				return runtime.NewListFromSlice(window), true
			})
		}
		var elems []runtime.Value
		for i := 0; ; i++ {
			v, ok := producer(i)
			if !ok {
				break
			}
			elems = append(elems, v)
		}
		var out []runtime.Value
		for i := 0; i+size <= len(elems); i++ {
			out = append(out, runtime.NewListFromSlice(elems[i:i+size]))
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "flat_map", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[0], pos)
		if err != nil {
			return err
		}
		producer, finite, err := elementProducer(args[1], pos)
		if err != nil {
			return err
		}
		if !finite {
			return runtime.NewDerivedSequence(errSourceOf(args[1]), flatMapProducer(producer, callable, pos))
		}
		var out []runtime.Value
		for i := 0; ; i++ {
			v, ok := producer(i)
			if !ok {
				if e := sequenceError(args[1], pos); e != nil {
					return e
				}
				break
			}
			r := callback(callable, v, runtime.NewIntegerFromInt64(int64(i)), pos)
			if e, ok := r.(*runtime.Error); ok {
				return e
			}
			if sub, ok := r.(*runtime.List); ok {
				out = append(out, sub.ToSlice()...)
				continue
			}
			out = append(out, r)
		}
		return runtime.NewListFromSlice(out)
	})

	// take_while/drop_while walk via elementProducer directly: take_while's
	// result is always finite (it stops the instant the predicate fails),
	// and drop_while hands back a lazy continuation over an unbounded
	// source instead of draining it first.
	reg(env, "take_while", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[0], pos)
		if err != nil {
			return err
		}
		producer, _, err := elementProducer(args[1], pos)
		if err != nil {
			return err
		}
		var out []runtime.Value
		for i := 0; ; i++ {
			v, ok := producer(i)
			if !ok {
				if e := sequenceError(args[1], pos); e != nil {
					return e
				}
				break
			}
			r := callback(callable, v, runtime.NewIntegerFromInt64(int64(i)), pos)
			if e, ok := r.(*runtime.Error); ok {
				return e
			}
			if !r.IsTruthy() {
				break
			}
			out = append(out, v)
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "drop_while", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[0], pos)
		if err != nil {
			return err
		}
		producer, finite, err := elementProducer(args[1], pos)
		if err != nil {
			return err
		}
		i := 0
		for {
			v, ok := producer(i)
			if !ok {
				if e := sequenceError(args[1], pos); e != nil {
					return e
				}
				break
			}
			r := callback(callable, v, runtime.NewIntegerFromInt64(int64(i)), pos)
			if e, ok := r.(*runtime.Error); ok {
				return e
			}
			if !r.IsTruthy() {
				break
			}
			i++
		}
		dropped := i
		if !finite {
			return runtime.NewDerivedSequence(errSourceOf(args[1]), func(j int, buf []runtime.Value) (runtime.Value, bool) {
				return producer(dropped + j)
			})
		}
		var out []runtime.Value
		for ; ; i++ {
			v, ok := producer(i)
			if !ok {
				if e := sequenceError(args[1], pos); e != nil {
					return e
				}
				break
			}
			out = append(out, v)
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "min", -1, func(args []runtime.Value, pos ast.Position) runtime.Value { return minMaxDispatch(args, true, pos) })
	reg(env, "max", -1, func(args []runtime.Value, pos ast.Position) runtime.Value { return minMaxDispatch(args, false, pos) })

	reg(env, "join", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		sep, ok := args[0].(*runtime.String)
		if !ok {
			return runtime.NewError(runtime.ErrType, "join separator must be a String", pos)
		}
		elems, err := asElements(args[1], pos)
		if err != nil {
			return err
		}
		parts := make([]string, len(elems))
		for i, v := range elems {
			if s, ok := v.(*runtime.String); ok {
				parts[i] = s.Val
			} else {
				parts[i] = v.Inspect()
			}
		}
		return runtime.NewString(strings.Join(parts, sep.Val))
	})
}

// registerTransients wires the `!`-suffixed batched-mutation surface
// against the existing TransientList/TransientDict/TransientSet types:
// asMutable opens a transient view, the bang ops mutate it in place, and
// asImmutable closes it back into an ordinary persistent collection.
func registerTransients(env *runtime.Environment) {
	reg(env, "asMutable", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		switch c := args[0].(type) {
		case *runtime.List:
			return c.AsMutable()
		case *runtime.Dict:
			return c.AsMutable()
		case *runtime.Set:
			return c.AsMutable()
		}
		return runtime.NewError(runtime.ErrType, "asMutable requires a List, Dict, or Set", pos)
	})

	reg(env, "asImmutable", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		switch c := args[0].(type) {
		case *runtime.TransientList:
			return c.AsImmutable()
		case *runtime.TransientDict:
			return c.AsImmutable()
		case *runtime.TransientSet:
			return c.AsImmutable()
		}
		return runtime.NewError(runtime.ErrType, "asImmutable requires a transient List, Dict, or Set", pos)
	})

	reg(env, "push!", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		switch c := args[1].(type) {
		case *runtime.TransientList:
			return c.Push(args[0])
		case *runtime.TransientSet:
			h, ok := args[0].(runtime.Hashable)
			if !ok {
				return runtime.NewError(runtime.ErrDomain, args[0].TypeName()+" is not hashable", pos)
			}
			return c.Add(h)
		}
		return runtime.NewError(runtime.ErrType, "push! requires a transient List or Set", pos)
	})

	reg(env, "set!", 3, func(args []runtime.Value, pos ast.Position) runtime.Value {
		switch c := args[2].(type) {
		case *runtime.TransientList:
			idx, ok := args[0].(*runtime.Integer)
			if !ok {
				return runtime.NewError(runtime.ErrType, "set! on a transient List requires an Integer index", pos)
			}
			return c.Set(int(idx.Val.Int64()), args[1])
		case *runtime.TransientDict:
			h, ok := args[0].(runtime.Hashable)
			if !ok {
				return runtime.NewError(runtime.ErrDomain, args[0].TypeName()+" is not hashable", pos)
			}
			return c.Set(h, args[1])
		}
		return runtime.NewError(runtime.ErrType, "set! requires a transient List or Dict", pos)
	})

	reg(env, "delete!", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		switch c := args[1].(type) {
		case *runtime.TransientDict:
			h, ok := args[0].(runtime.Hashable)
			if !ok {
				return runtime.NewError(runtime.ErrDomain, args[0].TypeName()+" is not hashable", pos)
			}
			return c.Delete(h)
		case *runtime.TransientSet:
			h, ok := args[0].(runtime.Hashable)
			if !ok {
				return runtime.NewError(runtime.ErrDomain, args[0].TypeName()+" is not hashable", pos)
			}
			return c.Remove(h)
		}
		return runtime.NewError(runtime.ErrType, "delete! requires a transient Dict or Set", pos)
	})
}

// minMaxDispatch supports both min/max(coll) and min/max(keyFn, coll),
// the collection always in the last argument position.
func minMaxDispatch(args []runtime.Value, wantMin bool, pos ast.Position) runtime.Value {
	switch len(args) {
	case 1:
		return minMax(args[0], wantMin, nil, pos)
	case 2:
		keyFn, err := asCallable(args[0], pos)
		if err != nil {
			return err
		}
		return minMax(args[1], wantMin, keyFn, pos)
	default:
		return runtime.NewError(runtime.ErrArity, fmt.Sprintf("min/max expects 1 or 2 argument(s), got %d", len(args)), pos)
	}
}

// minMax finds the extreme element of v, ordering by keyFn(element) when
// keyFn is non-nil, else by the element itself.
func minMax(v runtime.Value, wantMin bool, keyFn runtime.Callable, pos ast.Position) runtime.Value {
	elems, err := asElements(v, pos)
	if err != nil {
		return err
	}
	if len(elems) == 0 {
		return runtime.Nil
	}
	keyOf := func(e runtime.Value) (runtime.Value, *runtime.Error) {
		if keyFn == nil {
			return e, nil
		}
		result := Apply(keyFn, []runtime.Value{e}, pos)
		if kerr, ok := result.(*runtime.Error); ok {
			return nil, kerr
		}
		return result, nil
	}
	best := elems[0]
	bestKey, kerr := keyOf(best)
	if kerr != nil {
		return kerr
	}
	for _, e := range elems[1:] {
		k, kerr := keyOf(e)
		if kerr != nil {
			return kerr
		}
		c, cerr := compare(k, bestKey, pos)
		if cerr != nil {
			return cerr
		}
		if (wantMin && c < 0) || (!wantMin && c > 0) {
			best, bestKey = e, k
		}
	}
	return best
}

//------------------------------------------------------------------------
// Strings
//------------------------------------------------------------------------

func registerStrings(env *runtime.Environment) {
	reg(env, "split", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		sep, ok1 := args[0].(*runtime.String)
		s, ok2 := args[1].(*runtime.String)
		if !ok1 || !ok2 {
			return runtime.NewError(runtime.ErrType, "split requires two Strings", pos)
		}
		parts := strings.Split(s.Val, sep.Val)
		out := make([]runtime.Value, len(parts))
		for i, p := range parts {
			out[i] = runtime.NewString(p)
		}
		return runtime.NewListFromSlice(out)
	})

	reg(env, "trim", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		s, ok := args[0].(*runtime.String)
		if !ok {
			return runtime.NewError(runtime.ErrType, "trim requires a String", pos)
		}
		return runtime.NewString(strings.TrimSpace(s.Val))
	})

	reg(env, "int", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		switch v := args[0].(type) {
		case *runtime.Integer:
			return v
		case *runtime.Decimal:
			bi, _ := big.NewFloat(v.Val).Int(nil)
			return runtime.NewInteger(bi)
		case *runtime.String:
			n := new(big.Int)
			if _, ok := n.SetString(strings.TrimSpace(v.Val), 10); !ok {
				return runtime.NewError(runtime.ErrDomain, "cannot parse Integer from "+v.Inspect(), pos)
			}
			return runtime.NewInteger(n)
		}
		return runtime.NewError(runtime.ErrType, "int cannot convert "+args[0].TypeName(), pos)
	})

	reg(env, "str", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		if s, ok := args[0].(*runtime.String); ok {
			return s
		}
		return runtime.NewString(args[0].Inspect())
	})
}

//------------------------------------------------------------------------
// Sequences
//------------------------------------------------------------------------

func RangeSequenceProducer(r *runtime.Range) func(int, []runtime.Value) (runtime.Value, bool) {
	seq := runtime.RangeSequence(r)
	return func(i int, buf []runtime.Value) (runtime.Value, bool) { return seq.At(i) }
}

func sequenceProducer(s *runtime.Sequence) func(int, []runtime.Value) (runtime.Value, bool) {
	return func(i int, buf []runtime.Value) (runtime.Value, bool) { return s.At(i) }
}

func mapProducer(base func(int, []runtime.Value) (runtime.Value, bool), callable runtime.Callable, pos ast.Position) func(int, []runtime.Value) (runtime.Value, bool) {
	return func(i int, buf []runtime.Value) (runtime.Value, bool) {
		v, ok := base(i, buf)
		if !ok {
			return nil, false
		}
		r := callback(callable, v, runtime.NewIntegerFromInt64(int64(i)), pos)
		if _, isErr := r.(*runtime.Error); isErr {
			return nil, false
		}
		return r, true
	}
}

// filterProducer adapts an elementProducer into a Sequence producer that
// skips elements failing the predicate, advancing its own source index
// independently of the output index it is asked for (Sequence.At always
// asks in increasing order, so a closure-held cursor is safe).
func filterProducer(base func(int) (runtime.Value, bool), callable runtime.Callable, pos ast.Position) func(int, []runtime.Value) (runtime.Value, bool) {
	srcIdx := 0
	return func(i int, buf []runtime.Value) (runtime.Value, bool) {
		for {
			v, ok := base(srcIdx)
			if !ok {
				return nil, false
			}
			idx := srcIdx
			srcIdx++
			r := callback(callable, v, runtime.NewIntegerFromInt64(int64(idx)), pos)
			if _, isErr := r.(*runtime.Error); isErr {
				return nil, false
			}
			if r.IsTruthy() {
				return v, true
			}
		}
	}
}

// flatMapProducer mirrors filterProducer but holds a queue of pending
// flattened elements from the current source element, advancing the source
// cursor only once the queue empties.
func flatMapProducer(base func(int) (runtime.Value, bool), callable runtime.Callable, pos ast.Position) func(int, []runtime.Value) (runtime.Value, bool) {
	srcIdx := 0
	var pending []runtime.Value
	return func(i int, buf []runtime.Value) (runtime.Value, bool) {
		for len(pending) == 0 {
			v, ok := base(srcIdx)
			if !ok {
				return nil, false
			}
			idx := srcIdx
			srcIdx++
			r := callback(callable, v, runtime.NewIntegerFromInt64(int64(idx)), pos)
			if _, isErr := r.(*runtime.Error); isErr {
				return nil, false
			}
			if sub, ok := r.(*runtime.List); ok {
				pending = append(pending, sub.ToSlice()...)
				continue
			}
			pending = append(pending, r)
		}
		v := pending[0]
		pending = pending[1:]
		return v, true
	}
}

func registerSequences(env *runtime.Environment) {
	reg(env, "iterate", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		callable, err := asCallable(args[0], pos)
		if err != nil {
			return err
		}
		return runtime.IterateSequence(args[1], func(v runtime.Value) (runtime.Value, error) {
			r := Apply(callable, []runtime.Value{v}, pos)
			if callErr, isErr := r.(*runtime.Error); isErr {
				return nil, callErr
			}
			return r, nil
		})
	})

	reg(env, "take", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		n, ok := args[0].(*runtime.Integer)
		if !ok {
			return runtime.NewError(runtime.ErrType, "take requires an Integer count", pos)
		}
		count := int(n.Val.Int64())
		switch c := args[1].(type) {
		case *runtime.List:
			return c.Slice(0, count)
		case *runtime.Sequence:
			taken := c.Take(count)
			if e := sequenceError(c, pos); e != nil {
				return e
			}
			return runtime.NewListFromSlice(taken)
		case *runtime.Range:
			seq := runtime.RangeSequence(c)
			return runtime.NewListFromSlice(seq.Take(count))
		}
		return runtime.NewError(runtime.ErrType, "take requires a List, Range, or Sequence", pos)
	})

	reg(env, "drop", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		n, ok := args[0].(*runtime.Integer)
		if !ok {
			return runtime.NewError(runtime.ErrType, "drop requires an Integer count", pos)
		}
		count := int(n.Val.Int64())
		switch c := args[1].(type) {
		case *runtime.List:
			return c.Slice(count, c.Len())
		default:
			producer, finite, err := elementProducer(args[1], pos)
			if err != nil {
				return err
			}
			if !finite {
				return runtime.NewDerivedSequence(errSourceOf(args[1]), func(i int, buf []runtime.Value) (runtime.Value, bool) {
					return producer(count + i)
				})
			}
			var out []runtime.Value
			for i := count; ; i++ {
				v, ok := producer(i)
				if !ok {
					if e := sequenceError(args[1], pos); e != nil {
						return e
					}
					break
				}
				out = append(out, v)
			}
			return runtime.NewListFromSlice(out)
		}
	})

	reg(env, "cycle", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		elems, err := asElements(args[0], pos)
		if err != nil {
			return err
		}
		if len(elems) == 0 {
			return runtime.NewError(runtime.ErrDomain, "cannot cycle an empty collection", pos)
		}
		return runtime.NewSequence(func(i int, buf []runtime.Value) (runtime.Value, bool) {
			return elems[i%len(elems)], true
		})
	})
}

//------------------------------------------------------------------------
// I/O — puts/read go through the Environment's injected IOHandle so the
// evaluator itself never touches a filesystem or stdio directly.
//------------------------------------------------------------------------

func registerIO(env *runtime.Environment) {
	reg(env, "puts", -1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		if len(args) == 0 {
			return runtime.Nil
		}
		io := env.IO()
		if io == nil {
			return runtime.Nil
		}
		parts := make([]string, len(args))
		for i, a := range args {
			if s, ok := a.(*runtime.String); ok {
				parts[i] = s.Val
			} else {
				parts[i] = a.Inspect()
			}
		}
		io.Output(parts)
		return runtime.Nil
	})

	reg(env, "read", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		path, ok := args[0].(*runtime.String)
		if !ok {
			return runtime.NewError(runtime.ErrType, "read requires a String path", pos)
		}
		io := env.IO()
		if io == nil {
			return runtime.NewError(runtime.ErrIO, "no IO handle configured", pos)
		}
		content, ioErr := io.Input(path.Val)
		if ioErr != nil {
			return runtime.NewError(runtime.ErrIO, ioErr.Error(), pos)
		}
		return runtime.NewString(content)
	})
}

//------------------------------------------------------------------------
// Misc
//------------------------------------------------------------------------

func registerMisc(env *runtime.Environment) {
	reg(env, "type", 1, func(args []runtime.Value, pos ast.Position) runtime.Value {
		return runtime.NewString(args[0].TypeName())
	})

	reg(env, "assert", 2, func(args []runtime.Value, pos ast.Position) runtime.Value {
		if args[0].IsTruthy() {
			return runtime.Nil
		}
		msg := "assertion failed"
		if s, ok := args[1].(*runtime.String); ok {
			msg = s.Val
		} else {
			msg = args[1].Inspect()
		}
		return runtime.NewError(runtime.ErrDomain, msg, pos)
	})
}
