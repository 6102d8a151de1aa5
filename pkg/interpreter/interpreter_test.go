package interpreter

import (
	"testing"

	"github.com/eddmann/santa-lang-prancer/pkg/parser"
	"github.com/eddmann/santa-lang-prancer/pkg/runtime"
)

// evalSource parses and evaluates a full source program against a fresh
// global environment, the way the runner drives whole programs, and
// returns the last statement's value.
func evalSource(t *testing.T, source string) runtime.Value {
	t.Helper()
	p, err := parser.New(source)
	if err != nil {
		t.Fatalf("parser.New(%q): %v", source, err)
	}
	program, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram(%q): %v", source, err)
	}
	env := NewGlobalEnvironment()
	return Eval(program, env)
}

func expectInspect(t *testing.T, source, want string) {
	t.Helper()
	v := evalSource(t, source)
	if err, ok := v.(*runtime.Error); ok {
		t.Fatalf("%q evaluated to an error: %s", source, err.Inspect())
	}
	if got := v.Inspect(); got != want {
		t.Fatalf("%q: expected %s, got %s", source, want, got)
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct{ source, want string }{
		{"1 + 2 * 3", "7"},
		{"10 / 4", "2.5"},
		{"10 / 5", "2"},
		{"7 % 3", "1"},
		{"-7 % 3", "2"},
		{"1.5 + 2", "3.5"},
		{`"foo" + "bar"`, `"foobar"`},
	}
	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			expectInspect(t, tc.source, tc.want)
		})
	}
}

func TestDivisionByZeroIsDomainError(t *testing.T) {
	v := evalSource(t, "1 / 0")
	err, ok := v.(*runtime.Error)
	if !ok {
		t.Fatalf("expected an error, got %s", v.Inspect())
	}
	if err.ErrKind != runtime.ErrDomain {
		t.Fatalf("expected DomainError, got %s", err.ErrKind)
	}
}

func TestComparisonsAndEquality(t *testing.T) {
	cases := []struct{ source, want string }{
		{"1 < 2", "true"},
		{"2 <= 2", "true"},
		{`"a" < "b"`, "true"},
		{"1 == 1.0", "true"}, // Integer/Decimal equality promotes, matching comparison's own promotion rule
		{"[1, 2] == [1, 2]", "true"},
		{"#{\"a\": 1} == #{\"a\": 1}", "true"},
	}
	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			expectInspect(t, tc.source, tc.want)
		})
	}
}

func TestIfExpression(t *testing.T) {
	expectInspect(t, `if 1 < 2 { "yes" } else { "no" }`, `"yes"`)
	expectInspect(t, `if 1 > 2 { "yes" } else { "no" }`, `"no"`)
}

func TestLetDestructuring(t *testing.T) {
	expectInspect(t, `let [a, b, ..rest] = [1, 2, 3, 4]; rest`, "[3, 4]")
	expectInspect(t, `let #{"x": x} = #{"x": 42}; x`, "42")
}

func TestMatchExpression(t *testing.T) {
	src := `
		let classify = |n| {
			match n {
				0 => "zero",
				n if n > 0 => "positive",
				_ => "negative",
			}
		};
		[classify(0), classify(5), classify(-5)]
	`
	expectInspect(t, src, `["zero", "positive", "negative"]`)
}

func TestClosureCapturesEnvironment(t *testing.T) {
	src := `
		let makeAdder = |x| { |y| { x + y } };
		let addFive = makeAdder(5);
		addFive(10)
	`
	expectInspect(t, src, "15")
}

func TestTailRecursiveSumDoesNotOverflowTheStack(t *testing.T) {
	src := `
		let sum = |n, acc| {
			if n == 0 { acc } else { sum(n - 1, acc + n) }
		};
		sum(100000, 0)
	`
	expectInspect(t, src, "5000050000")
}

func TestBreakAbsorbedByFold(t *testing.T) {
	src := `
		[1, 2, 3, 4, 5] |> fold(0) |acc, n| {
			if n > 3 { break acc } else { acc + n }
		}
	`
	expectInspect(t, src, "6")
}

func TestMapFilterReduce(t *testing.T) {
	expectInspect(t, `[1, 2, 3] |> map(|x| { x * 2 })`, "[2, 4, 6]")
	expectInspect(t, `[1, 2, 3, 4] |> filter(|x| { x % 2 == 0 })`, "[2, 4]")
	expectInspect(t, `[1, 2, 3, 4] |> reduce(+)`, "10")
}

func TestPipelineAndComposition(t *testing.T) {
	src := `
		let double = |x| { x * 2 };
		let addOne = |x| { x + 1 };
		let doubleThenAddOne = double >> addOne;
		doubleThenAddOne(5)
	`
	expectInspect(t, src, "11")
}

func TestRangeAndTake(t *testing.T) {
	expectInspect(t, `(1..=5) |> take(3)`, "[1, 2, 3]")
}

func TestMinMaxWithKeyFunction(t *testing.T) {
	expectInspect(t, `min(|s| { size(s) }, ["aaa", "b", "cc"])`, `"b"`)
	expectInspect(t, `max(|s| { size(s) }, ["aaa", "b", "cc"])`, `"aaa"`)
}

func TestPersistentListSharesStructure(t *testing.T) {
	src := `
		let base = [1, 2, 3];
		let extended = push(4, base);
		[base, extended]
	`
	expectInspect(t, src, "[[1, 2, 3], [1, 2, 3, 4]]")
}

func TestUnboundIdentifierIsNameError(t *testing.T) {
	v := evalSource(t, "undefined_identifier")
	err, ok := v.(*runtime.Error)
	if !ok {
		t.Fatalf("expected an error, got %s", v.Inspect())
	}
	if err.ErrKind != runtime.ErrName {
		t.Fatalf("expected NameError, got %s", err.ErrKind)
	}
}

func TestAssignToImmutableIsNameError(t *testing.T) {
	v := evalSource(t, "let x = 1; x = 2")
	err, ok := v.(*runtime.Error)
	if !ok {
		t.Fatalf("expected an error, got %s", v.Inspect())
	}
	if err.ErrKind != runtime.ErrName {
		t.Fatalf("expected NameError, got %s", err.ErrKind)
	}
}

func TestMutableAssignment(t *testing.T) {
	expectInspect(t, "let mut x = 1; x = x + 1; x", "2")
}

func TestFilterStaysLazyOverAnInfiniteRange(t *testing.T) {
	src := `(1..) |> filter(|n| { n % 2 == 0 }) |> take(3)`
	expectInspect(t, src, "[2, 4, 6]")
}

func TestFoldBreaksOutOfAnInfiniteRange(t *testing.T) {
	src := `
		(1..) |> fold(0) |acc, n| {
			if n > 5 { break acc } else { acc + n }
		}
	`
	expectInspect(t, src, "15")
}

func TestEachBreaksOutOfAnInfiniteRange(t *testing.T) {
	src := `
		let mut total = 0;
		(1..) |> each(|n| {
			if n > 4 { break nil } else { total = total + n }
		});
		total
	`
	expectInspect(t, src, "10")
}

func TestFirstAndRestStayLazyOverAnInfiniteRange(t *testing.T) {
	expectInspect(t, `first(1..)`, "1")
	expectInspect(t, `rest(1..) |> take(3)`, "[2, 3, 4]")
}

func TestZipStaysLazyOverAnInfiniteRange(t *testing.T) {
	src := `zip(1.., ["a", "b", "c"]) |> take(3)`
	expectInspect(t, src, `[[1, "a"], [2, "b"], [3, "c"]]`)
}

func TestChunkAndWindowStayLazyOverAnInfiniteRange(t *testing.T) {
	expectInspect(t, `(1..) |> chunk(2) |> take(2)`, "[[1, 2], [3, 4]]")
	expectInspect(t, `(1..) |> window(2) |> take(3)`, "[[1, 2], [2, 3], [3, 4]]")
}

func TestFlatMapStaysLazyOverAnInfiniteRange(t *testing.T) {
	src := `(1..) |> flat_map(|n| { [n, n] }) |> take(4)`
	expectInspect(t, src, "[1, 1, 2, 2]")
}

func TestTakeWhileAndDropWhileOverAnInfiniteRange(t *testing.T) {
	expectInspect(t, `(1..) |> take_while(|n| { n < 4 })`, "[1, 2, 3]")
	expectInspect(t, `(1..) |> drop_while(|n| { n < 4 }) |> take(2)`, "[4, 5]")
}

func TestDropStaysLazyOverAnInfiniteRange(t *testing.T) {
	expectInspect(t, `(1..) |> drop(2) |> take(2)`, "[3, 4]")
}

func TestContainsFindsAMatchInAnInfiniteRange(t *testing.T) {
	expectInspect(t, `contains(5, 1..)`, "true")
}

func TestSortingAnInfiniteRangeIsADomainError(t *testing.T) {
	v := evalSource(t, `sort(1..)`)
	err, ok := v.(*runtime.Error)
	if !ok {
		t.Fatalf("expected an error, got %s", v.Inspect())
	}
	if err.ErrKind != runtime.ErrDomain {
		t.Fatalf("expected DomainError, got %s", err.ErrKind)
	}
}

func TestLastOfAnInfiniteRangeIsADomainError(t *testing.T) {
	v := evalSource(t, `last(1..)`)
	err, ok := v.(*runtime.Error)
	if !ok {
		t.Fatalf("expected an error, got %s", v.Inspect())
	}
	if err.ErrKind != runtime.ErrDomain {
		t.Fatalf("expected DomainError, got %s", err.ErrKind)
	}
}

func TestFilterOverASequenceStaysLazy(t *testing.T) {
	src := `
		let powers = iterate(|n| { n * 2 }, 1);
		powers |> filter(|n| { n > 10 }) |> take(2)
	`
	expectInspect(t, src, "[16, 32]")
}

func TestTransientListRoundTrip(t *testing.T) {
	src := `
		let base = [1, 2, 3];
		let built = base |> asMutable |> push!(4) |> push!(5) |> asImmutable;
		[base, built]
	`
	expectInspect(t, src, "[[1, 2, 3], [1, 2, 3, 4, 5]]")
}

func TestTransientDictRoundTrip(t *testing.T) {
	src := `
		let base = #{"a": 1};
		let built = base |> asMutable |> set!("b", 2) |> delete!("a") |> asImmutable;
		[base, built]
	`
	expectInspect(t, src, `[#{"a": 1}, #{"b": 2}]`)
}

func TestTransientSetRoundTrip(t *testing.T) {
	src := `
		let base = {1, 2};
		let built = base |> asMutable |> push!(3) |> asImmutable;
		[base, built]
	`
	expectInspect(t, src, "[{1, 2}, {1, 2, 3}]")
}

func TestDecimalAndIntegerHashAgreementIsVisibleThroughSetDedup(t *testing.T) {
	expectInspect(t, `{1000000, 1000000.0} |> size`, "1")
}

// fold passes a variadic built-in like max up to 3 arguments (acc, element,
// index); max itself only accepts 1 or 2, so the callback rejects the call
// with an ArityError rather than panicking on a negative slice bound.
func TestFoldWithAVariadicCallbackDoesNotPanic(t *testing.T) {
	v := evalSource(t, `[1, 2, 3] |> fold(0, max)`)
	err, ok := v.(*runtime.Error)
	if !ok {
		t.Fatalf("expected an ArityError, got %s", v.Inspect())
	}
	if err.ErrKind != runtime.ErrArity {
		t.Fatalf("expected ArityError, got %s", err.ErrKind)
	}
}

func TestFoldWithAUserCallableAcceptingIndexStillWorks(t *testing.T) {
	src := `[10, 20, 30] |> fold(0) |acc, n, i| { acc + n + i }`
	expectInspect(t, src, "63")
}

func TestIterateCallbackErrorTerminatesInsteadOfTruncating(t *testing.T) {
	v := evalSource(t, `iterate(|n| { n / 0 }, 1) |> take(3)`)
	err, ok := v.(*runtime.Error)
	if !ok {
		t.Fatalf("expected an error, got %s", v.Inspect())
	}
	if err.ErrKind != runtime.ErrDomain {
		t.Fatalf("expected DomainError, got %s", err.ErrKind)
	}
}

func TestIterateCallbackSuccessStillWorksThroughTake(t *testing.T) {
	src := `iterate(|n| { n * 2 }, 1) |> take(4)`
	expectInspect(t, src, "[1, 2, 4, 8]")
}

func TestIterateCallbackErrorSurfacesThroughFold(t *testing.T) {
	v := evalSource(t, `iterate(|n| { n / 0 }, 1) |> fold(0, +)`)
	err, ok := v.(*runtime.Error)
	if !ok {
		t.Fatalf("expected an error, got %s", v.Inspect())
	}
	if err.ErrKind != runtime.ErrDomain {
		t.Fatalf("expected DomainError, got %s", err.ErrKind)
	}
}

func TestBreakInsideMapDoesNotLeakIntoTheResultingList(t *testing.T) {
	src := `[1, 2, 3] |> map(|x| { if x == 2 { break 99 } else { x } })`
	expectInspect(t, src, "[1]")
}

func TestBreakInsideFilterDoesNotLeakIntoTheResultingList(t *testing.T) {
	src := `[1, 2, 3, 4] |> filter(|x| { if x == 3 { break false } else { x % 2 == 0 } })`
	expectInspect(t, src, "[2]")
}

func TestBreakInsideMapOverASetDoesNotLeak(t *testing.T) {
	v := evalSource(t, `{1, 2, 3} |> map(|x| { if x == 2 { break 99 } else { x } })`)
	if err, ok := v.(*runtime.Error); ok {
		t.Fatalf("%q evaluated to an error: %s", "map over a Set with break", err.Inspect())
	}
	if _, ok := v.(*runtime.List); !ok {
		t.Fatalf("expected map to return a List, got %s", v.TypeName())
	}
}
