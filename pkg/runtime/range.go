package runtime

import "math/big"

// Range is a lazy arithmetic progression. End == nil means unbounded
// (infinite); Inclusive controls whether End itself is a member.
type Range struct {
	Start     *big.Int
	End       *big.Int // nil for an unbounded range
	Step      *big.Int
	Inclusive bool
}

func NewRange(start, end *big.Int, inclusive bool) *Range {
	step := big.NewInt(1)
	if end != nil && end.Cmp(start) < 0 {
		step = big.NewInt(-1)
	}
	return &Range{Start: start, End: end, Step: step, Inclusive: inclusive}
}

// WithStep returns a new Range with a different step magnitude/direction,
// backing the `step` built-in mentioned as a Range modifier.
func (r *Range) WithStep(step *big.Int) *Range {
	return &Range{Start: r.Start, End: r.End, Step: step, Inclusive: r.Inclusive}
}

func (r *Range) Kind() Kind       { return KindRange }
func (r *Range) IsTruthy() bool   { return !r.IsEmpty() }
func (r *Range) TypeName() string { return "Range" }

func (r *Range) Inspect() string {
	op := ".."
	if r.Inclusive {
		op = "..="
	}
	end := ""
	if r.End != nil {
		end = r.End.String()
	}
	return r.Start.String() + op + end
}

// IsInfinite reports whether the range has no upper bound.
func (r *Range) IsInfinite() bool { return r.End == nil }

func (r *Range) IsEmpty() bool {
	if r.End == nil {
		return false
	}
	cmp := r.Start.Cmp(r.End)
	if r.Step.Sign() >= 0 {
		if r.Inclusive {
			return cmp > 0
		}
		return cmp >= 0
	}
	if r.Inclusive {
		return cmp < 0
	}
	return cmp <= 0
}

// inBounds reports whether v is still within [Start, End] per direction
// and inclusivity.
func (r *Range) inBounds(v *big.Int) bool {
	if r.End == nil {
		return true
	}
	cmp := v.Cmp(r.End)
	if r.Step.Sign() >= 0 {
		if r.Inclusive {
			return cmp <= 0
		}
		return cmp < 0
	}
	if r.Inclusive {
		return cmp >= 0
	}
	return cmp > 0
}

// Each calls fn for every element in order, stopping early if fn returns
// false. Used by collection built-ins that need to walk a Range without
// materialising it (it may be infinite).
func (r *Range) Each(fn func(v *big.Int) bool) {
	cur := new(big.Int).Set(r.Start)
	for r.inBounds(cur) {
		if !fn(new(big.Int).Set(cur)) {
			return
		}
		cur = new(big.Int).Add(cur, r.Step)
	}
}

// Len materialises the count of elements; callers must check IsInfinite
// first and raise a DomainError themselves (the runtime value model does
// not carry source locations needed for that error).
func (r *Range) Len() int {
	if r.End == nil {
		return -1
	}
	count := 0
	r.Each(func(*big.Int) bool { count++; return true })
	return count
}

func (r *Range) ToSlice() []Value {
	var out []Value
	r.Each(func(v *big.Int) bool {
		out = append(out, NewInteger(v))
		return true
	})
	return out
}

//------------------------------------------------------------------------
// Sequence — a general lazy stream with memoisation.
//------------------------------------------------------------------------

// Sequence is a producer closure plus a memoisation buffer. Repeated
// iteration reuses already-produced elements so consumers observe a
// stable order without recomputing the producer.
type Sequence struct {
	produce func(index int, buf []Value) (Value, bool) // false => exhausted
	buf     []Value
	done    bool
	lastErr error
}

// NewSequence builds a Sequence from a producer function. The producer
// receives the index being requested and the buffer produced so far (read
// only), and returns the next value, or ok=false when the sequence has
// been fully consumed (never for an infinite sequence).
func NewSequence(produce func(index int, buf []Value) (Value, bool)) *Sequence {
	return &Sequence{produce: produce}
}

// LastErr reports the error (if any) that caused production to stop. A
// Sequence that merely ran out has a nil LastErr; one whose producer failed
// carries the failure here so callers can tell the two apart.
func (s *Sequence) LastErr() error { return s.lastErr }

func (s *Sequence) Kind() Kind       { return KindSequence }
func (s *Sequence) IsTruthy() bool   { return true }
func (s *Sequence) TypeName() string { return "Sequence" }
func (s *Sequence) Inspect() string  { return "<sequence>" }

// At returns the i-th element (0-indexed), memoising every element
// produced along the way.
func (s *Sequence) At(i int) (Value, bool) {
	for len(s.buf) <= i {
		if s.done {
			return nil, false
		}
		v, ok := s.produce(len(s.buf), s.buf)
		if !ok {
			s.done = true
			return nil, false
		}
		s.buf = append(s.buf, v)
	}
	return s.buf[i], true
}

// Take materialises the first n elements (or fewer, if the sequence is
// shorter).
func (s *Sequence) Take(n int) []Value {
	out := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		v, ok := s.At(i)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// IterateSequence builds the Sequence produced by `iterate(f, seed)`:
// seed, f(seed), f(f(seed)), ...
func IterateSequence(seed Value, f func(Value) (Value, error)) *Sequence {
	seq := &Sequence{}
	seq.produce = func(index int, buf []Value) (Value, bool) {
		if index == 0 {
			return seed, true
		}
		next, err := f(buf[index-1])
		if err != nil {
			seq.lastErr = err
			return nil, false
		}
		return next, true
	}
	return seq
}

// NewDerivedSequence builds a Sequence from produce, a producer adapted
// from some other lazy source. When produce reports exhaustion, errSource
// is consulted; a non-nil result becomes this Sequence's own LastErr, so an
// error raised upstream in a chain like map/filter over an erroring
// Sequence surfaces at whichever later stage actually consumes it, instead
// of looking like the chain simply ran out.
func NewDerivedSequence(errSource func() error, produce func(index int, buf []Value) (Value, bool)) *Sequence {
	seq := &Sequence{}
	seq.produce = func(index int, buf []Value) (Value, bool) {
		v, ok := produce(index, buf)
		if !ok {
			seq.lastErr = errSource()
		}
		return v, ok
	}
	return seq
}

// RangeSequence adapts a Range's lazy elements into a Sequence, used so
// map/filter/zip over a Range can return a Sequence uniformly.
func RangeSequence(r *Range) *Sequence {
	cur := new(big.Int).Set(r.Start)
	exhausted := false
	return NewSequence(func(index int, buf []Value) (Value, bool) {
		if exhausted {
			return nil, false
		}
		if !r.inBounds(cur) {
			exhausted = true
			return nil, false
		}
		v := NewInteger(new(big.Int).Set(cur))
		cur = new(big.Int).Add(cur, r.Step)
		return v, true
	})
}
