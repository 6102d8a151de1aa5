package runtime

import "testing"

func TestSetAddDoesNotMutateOriginal(t *testing.T) {
	base := EmptySet.Add(NewIntegerFromInt64(1))
	extended := base.Add(NewIntegerFromInt64(2))

	if base.Len() != 1 {
		t.Fatalf("expected original set to remain length 1, got %d", base.Len())
	}
	if extended.Len() != 2 {
		t.Fatalf("expected extended set to be length 2, got %d", extended.Len())
	}
	if base.Contains(NewIntegerFromInt64(2)) {
		t.Fatalf("expected original set to not contain the newly added member")
	}
}

func TestSetAddIsIdempotent(t *testing.T) {
	s := EmptySet.Add(NewIntegerFromInt64(1)).Add(NewIntegerFromInt64(1))
	if s.Len() != 1 {
		t.Fatalf("expected adding the same member twice to leave length 1, got %d", s.Len())
	}
}

func TestSetRemoveWithoutMutatingOriginal(t *testing.T) {
	base := NewSetFromSlice([]Hashable{NewIntegerFromInt64(1), NewIntegerFromInt64(2)})
	removed := base.Remove(NewIntegerFromInt64(1))

	if !base.Contains(NewIntegerFromInt64(1)) {
		t.Fatalf("expected original set to still contain 1")
	}
	if removed.Contains(NewIntegerFromInt64(1)) {
		t.Fatalf("expected removed set to no longer contain 1")
	}
}

func TestSetEqualsIgnoresOrder(t *testing.T) {
	a := NewSetFromSlice([]Hashable{NewIntegerFromInt64(1), NewIntegerFromInt64(2)})
	b := NewSetFromSlice([]Hashable{NewIntegerFromInt64(2), NewIntegerFromInt64(1)})
	if !a.Equals(b) {
		t.Fatalf("expected sets with the same members in different insertion order to compare equal")
	}
}

func TestTransientSetBatchesMutationThenFreezes(t *testing.T) {
	mut := EmptySet.AsMutable()
	mut.Add(NewIntegerFromInt64(1)).Add(NewIntegerFromInt64(2)).Remove(NewIntegerFromInt64(1))
	frozen := mut.AsImmutable()

	if frozen.Len() != 1 {
		t.Fatalf("expected 1 member, got %d", frozen.Len())
	}
	if !frozen.Contains(NewIntegerFromInt64(2)) {
		t.Fatalf("expected the frozen set to contain 2")
	}
	if EmptySet.Len() != 0 {
		t.Fatalf("expected the canonical empty set to remain untouched, got len %d", EmptySet.Len())
	}
}

func TestTransientSetIsAValue(t *testing.T) {
	var v Value = EmptySet.AsMutable()
	if v.TypeName() != "TransientSet" {
		t.Fatalf("expected TypeName TransientSet, got %s", v.TypeName())
	}
	if v.IsTruthy() {
		t.Fatalf("expected an empty transient set to be falsy")
	}
}
