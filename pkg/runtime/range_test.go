package runtime

import (
	"errors"
	"math/big"
	"testing"
)

func bi(n int64) *big.Int { return big.NewInt(n) }

func TestRangeExclusiveExcludesEnd(t *testing.T) {
	r := NewRange(bi(1), bi(4), false)
	var got []int64
	r.Each(func(v *big.Int) bool {
		got = append(got, v.Int64())
		return true
	})
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRangeInclusiveIncludesEnd(t *testing.T) {
	r := NewRange(bi(1), bi(3), true)
	if r.Len() != 3 {
		t.Fatalf("expected 3 elements, got %d", r.Len())
	}
}

func TestRangeDescendingDerivesNegativeStep(t *testing.T) {
	r := NewRange(bi(5), bi(1), true)
	var got []int64
	r.Each(func(v *big.Int) bool {
		got = append(got, v.Int64())
		return true
	})
	want := []int64{5, 4, 3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRangeIsInfiniteWhenEndIsNil(t *testing.T) {
	r := NewRange(bi(1), nil, false)
	if !r.IsInfinite() {
		t.Fatalf("expected a nil-ended range to be infinite")
	}
	if r.Len() != -1 {
		t.Fatalf("expected Len to report -1 for an infinite range, got %d", r.Len())
	}
}

func TestRangeEmptyWhenStartPastEnd(t *testing.T) {
	r := NewRange(bi(5), bi(1), false)
	r = r.WithStep(bi(1))
	if !r.IsEmpty() {
		t.Fatalf("expected a forward-stepping range starting past its end to be empty")
	}
}

func TestRangeSequenceStopsAtBound(t *testing.T) {
	r := NewRange(bi(1), bi(3), true)
	seq := RangeSequence(r)
	got := seq.Take(10)
	if len(got) != 3 {
		t.Fatalf("expected 3 elements from a bounded range sequence, got %d", len(got))
	}
}

func TestSequenceTakeStopsAtRequestedCount(t *testing.T) {
	seq := IterateSequence(NewIntegerFromInt64(1), func(v Value) (Value, error) {
		n := v.(*Integer)
		return NewIntegerFromInt64(n.Val.Int64() * 2), nil
	})
	got := seq.Take(4)
	want := []int64{1, 2, 4, 8}
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(got))
	}
	for i, v := range got {
		if v.(*Integer).Val.Int64() != want[i] {
			t.Fatalf("element %d: expected %d, got %s", i, want[i], v.Inspect())
		}
	}
}

func TestIterateSequenceSurfacesCallbackErrorThroughLastErr(t *testing.T) {
	boom := errors.New("boom")
	seq := IterateSequence(NewIntegerFromInt64(1), func(v Value) (Value, error) {
		return nil, boom
	})
	got := seq.Take(3)
	if len(got) != 1 {
		t.Fatalf("expected only the seed before the callback fails, got %v", got)
	}
	if seq.LastErr() != boom {
		t.Fatalf("expected LastErr to report the callback's error, got %v", seq.LastErr())
	}
}

func TestIterateSequenceLastErrIsNilWhenCallbackNeverFails(t *testing.T) {
	seq := IterateSequence(NewIntegerFromInt64(1), func(v Value) (Value, error) {
		n := v.(*Integer)
		return NewIntegerFromInt64(n.Val.Int64() + 1), nil
	})
	seq.Take(3)
	if seq.LastErr() != nil {
		t.Fatalf("expected a nil LastErr for a callback that never fails, got %v", seq.LastErr())
	}
}

func TestNewDerivedSequenceForwardsSourceErrorOnExhaustion(t *testing.T) {
	boom := errors.New("boom")
	source := IterateSequence(NewIntegerFromInt64(1), func(v Value) (Value, error) {
		return nil, boom
	})
	derived := NewDerivedSequence(source.LastErr, func(index int, buf []Value) (Value, bool) {
		return source.At(index)
	})
	derived.Take(3)
	if derived.LastErr() != boom {
		t.Fatalf("expected the derived sequence to adopt the source's error, got %v", derived.LastErr())
	}
}

func TestSequenceMemoisesProducedElements(t *testing.T) {
	calls := 0
	seq := NewSequence(func(index int, buf []Value) (Value, bool) {
		calls++
		return NewIntegerFromInt64(int64(index)), true
	})
	seq.At(2)
	seq.At(0)
	seq.At(1)
	if calls != 3 {
		t.Fatalf("expected exactly 3 producer calls (no re-production of memoised elements), got %d", calls)
	}
}
