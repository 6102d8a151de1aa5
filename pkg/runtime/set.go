package runtime

// Set is a persistent set of hashable values with insertion-order
// iteration, built the same way as Dict but storing each member as both
// the HAMT key and its own value.
type Set struct {
	root  *hamtNode
	order []Hashable
	count int
}

var EmptySet = &Set{root: emptyHamtNode()}

func NewSet() *Set { return EmptySet }

func NewSetFromSlice(vs []Hashable) *Set {
	s := EmptySet
	for _, v := range vs {
		s = s.Add(v)
	}
	return s
}

func (s *Set) Kind() Kind       { return KindSet }
func (s *Set) IsTruthy() bool   { return s.count > 0 }
func (s *Set) TypeName() string { return "Set" }
func (s *Set) Len() int         { return s.count }

func (s *Set) Inspect() string {
	parts := make([]string, len(s.order))
	for i, v := range s.order {
		parts[i] = v.Inspect()
	}
	return joinInspect(parts, "{", "}")
}

func (s *Set) Hash() uint64 {
	hs := make([]uint64, len(s.order))
	for i, v := range s.order {
		hs[i] = v.Hash()
	}
	return combineUnordered(hs)
}

func (s *Set) Equals(other Value) bool {
	o, ok := other.(*Set)
	if !ok || s.count != o.count {
		return false
	}
	for _, v := range s.order {
		if !o.Contains(v) {
			return false
		}
	}
	return true
}

func (s *Set) Contains(v Hashable) bool {
	_, found := s.root.get(v.Hash(), 0, v)
	return found
}

func (s *Set) Add(v Hashable) *Set {
	if s.Contains(v) {
		return s
	}
	newRoot := s.root.assoc(v.Hash(), 0, v, v)
	newOrder := make([]Hashable, len(s.order)+1)
	copy(newOrder, s.order)
	newOrder[len(s.order)] = v
	return &Set{root: newRoot, order: newOrder, count: s.count + 1}
}

func (s *Set) Remove(v Hashable) *Set {
	if !s.Contains(v) {
		return s
	}
	newRoot := s.root.without(v.Hash(), 0, v)
	newOrder := make([]Hashable, 0, len(s.order)-1)
	for _, e := range s.order {
		if !e.Equals(v) {
			newOrder = append(newOrder, e)
		}
	}
	return &Set{root: newRoot, order: newOrder, count: s.count - 1}
}

func (s *Set) Values() []Hashable { return s.order }

func (s *Set) AsMutable() *TransientSet { return &TransientSet{set: s} }

type TransientSet struct {
	set *Set
}

func (t *TransientSet) Kind() Kind       { return KindTransientSet }
func (t *TransientSet) IsTruthy() bool   { return t.set.IsTruthy() }
func (t *TransientSet) TypeName() string { return "TransientSet" }
func (t *TransientSet) Inspect() string  { return "<transient " + t.set.Inspect() + ">" }

func (t *TransientSet) Add(v Hashable) *TransientSet {
	t.set = t.set.Add(v)
	return t
}

func (t *TransientSet) Remove(v Hashable) *TransientSet {
	t.set = t.set.Remove(v)
	return t
}

func (t *TransientSet) AsImmutable() *Set { return t.set }
