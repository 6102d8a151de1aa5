package runtime

// Dict is a persistent mapping with insertion-order-preserved iteration.
// Lookup/assoc/dissoc are delegated to a HAMT; iteration order is tracked
// separately since a HAMT's own traversal order is determined by hash
// bits, not insertion order.
type Dict struct {
	root  *hamtNode
	order []Hashable // insertion order of live keys
	count int
}

var EmptyDict = &Dict{root: emptyHamtNode()}

func NewDict() *Dict { return EmptyDict }

func (d *Dict) Kind() Kind       { return KindDict }
func (d *Dict) IsTruthy() bool   { return d.count > 0 }
func (d *Dict) TypeName() string { return "Dict" }
func (d *Dict) Len() int         { return d.count }

func (d *Dict) Inspect() string {
	parts := make([]string, 0, d.count)
	for _, k := range d.order {
		v, _ := d.root.get(k.Hash(), 0, k)
		parts = append(parts, k.Inspect()+": "+v.Inspect())
	}
	return joinInspect(parts, "#{", "}")
}

func (d *Dict) Hash() uint64 {
	hs := make([]uint64, 0, d.count*2)
	for _, k := range d.order {
		v, _ := d.root.get(k.Hash(), 0, k)
		hs = append(hs, k.Hash())
		if hv, ok := v.(Hashable); ok {
			hs = append(hs, hv.Hash())
		}
	}
	return combineUnordered(hs)
}

func (d *Dict) Equals(other Value) bool {
	o, ok := other.(*Dict)
	if !ok || d.count != o.count {
		return false
	}
	for _, k := range d.order {
		v, _ := d.root.get(k.Hash(), 0, k)
		ov, found := o.Get(k)
		if !found {
			return false
		}
		vh, ok1 := v.(Hashable)
		ovh, ok2 := ov.(Hashable)
		if !ok1 || !ok2 || !vh.Equals(ovh) {
			return false
		}
	}
	return true
}

// Get returns the value bound to key and whether it was present.
func (d *Dict) Get(key Hashable) (Value, bool) {
	return d.root.get(key.Hash(), 0, key)
}

// Set returns a new Dict with key bound to value.
func (d *Dict) Set(key Hashable, value Value) *Dict {
	_, existed := d.root.get(key.Hash(), 0, key)
	newRoot := d.root.assoc(key.Hash(), 0, key, value)
	if existed {
		return &Dict{root: newRoot, order: d.order, count: d.count}
	}
	newOrder := make([]Hashable, len(d.order)+1)
	copy(newOrder, d.order)
	newOrder[len(d.order)] = key
	return &Dict{root: newRoot, order: newOrder, count: d.count + 1}
}

// Delete returns a new Dict with key removed, if present.
func (d *Dict) Delete(key Hashable) *Dict {
	_, existed := d.root.get(key.Hash(), 0, key)
	if !existed {
		return d
	}
	newRoot := d.root.without(key.Hash(), 0, key)
	newOrder := make([]Hashable, 0, len(d.order)-1)
	for _, k := range d.order {
		if !k.Equals(key) {
			newOrder = append(newOrder, k)
		}
	}
	return &Dict{root: newRoot, order: newOrder, count: d.count - 1}
}

// Keys returns live keys in insertion order.
func (d *Dict) Keys() []Hashable { return d.order }

// Entries returns key/value pairs in insertion order.
func (d *Dict) Entries() [][2]Value {
	out := make([][2]Value, 0, d.count)
	for _, k := range d.order {
		v, _ := d.root.get(k.Hash(), 0, k)
		out = append(out, [2]Value{k, v})
	}
	return out
}

func (d *Dict) AsMutable() *TransientDict {
	return &TransientDict{dict: d}
}

// TransientDict batches Set/Delete calls without re-wrapping each step in
// a fresh struct header; each op still path-copies the trie itself
// (matching the "single-owner, batched mutation" contract rather than a
// genuinely destructive in-place trie).
type TransientDict struct {
	dict *Dict
}

func (t *TransientDict) Kind() Kind       { return KindTransientDict }
func (t *TransientDict) IsTruthy() bool   { return t.dict.IsTruthy() }
func (t *TransientDict) TypeName() string { return "TransientDict" }
func (t *TransientDict) Inspect() string  { return "<transient " + t.dict.Inspect() + ">" }

func (t *TransientDict) Set(key Hashable, value Value) *TransientDict {
	t.dict = t.dict.Set(key, value)
	return t
}

func (t *TransientDict) Delete(key Hashable) *TransientDict {
	t.dict = t.dict.Delete(key)
	return t
}

func (t *TransientDict) AsImmutable() *Dict { return t.dict }
