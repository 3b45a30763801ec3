package engine

// Map is a shared-ownership handle over a hashed dictionary, mirroring the
// "value-like assignment, shared identity" semantics spec.md 3/4.4
// describes: assigning a Map to another register copies the handle, not the
// backing store, so mutation through either register is observed by both.
// AllocMap introduces a new identity; Mov on a map-typed register copies the
// handle.
//
// Keys are restricted to Int or Str, values to Int, Float, or Str, giving
// exactly the six concrete flavors spec.md 3 enumerates -- cycles are
// impossible because map values are never themselves maps (spec.md 9).
type Map[K comparable, V any] struct {
	store *mapStore[K, V]
}

type mapStore[K comparable, V any] struct {
	data map[K]V
}

// AllocMap creates a fresh, empty map handle with its own identity.
func AllocMap[K comparable, V any]() Map[K, V] {
	return Map[K, V]{store: &mapStore[K, V]{data: make(map[K]V)}}
}

// valid reports whether the handle has been allocated. The zero Map value
// (as found in a freshly-sized register bank before AllocMap runs) is
// invalid; only field accesses reachable from real bytecode should ever see
// one, and the interpreter treats touching an invalid handle as equivalent
// to an empty map that materializes lazily on first write, matching how
// AWK parameters implicitly become arrays on first array use.
func (m Map[K, V]) valid() bool { return m.store != nil }

func (m *Map[K, V]) ensure() {
	if m.store == nil {
		m.store = &mapStore[K, V]{data: make(map[K]V)}
	}
}

// Clear empties the map in place. Clear on an already-empty map (or an
// unallocated handle) is a no-op, satisfying the idempotence property in
// spec.md 8.
func (m *Map[K, V]) Clear() {
	if !m.valid() {
		return
	}
	for k := range m.store.data {
		delete(m.store.data, k)
	}
}

// Delete removes a key; deleting an absent key is a no-op.
func (m *Map[K, V]) Delete(k K) {
	if !m.valid() {
		return
	}
	delete(m.store.data, k)
}

// Len returns current cardinality.
func (m Map[K, V]) Len() int {
	if !m.valid() {
		return 0
	}
	return len(m.store.data)
}

// Contains reports membership without inserting a default.
func (m Map[K, V]) Contains(k K) bool {
	if !m.valid() {
		return false
	}
	_, ok := m.store.data[k]
	return ok
}

// Lookup implements AWK's "a[k] reads and creates" semantics: if k is
// absent, the zero value of V is inserted and returned.
func (m *Map[K, V]) Lookup(k K) V {
	m.ensure()
	v, ok := m.store.data[k]
	if !ok {
		var zero V
		m.store.data[k] = zero
		return zero
	}
	return v
}

// Store writes k -> v, inserting or overwriting.
func (m *Map[K, V]) Store(k K, v V) {
	m.ensure()
	m.store.data[k] = v
}

// Keys returns a snapshot of the current key set in unspecified but stable
// order (stable meaning: calling Keys twice in a row without intervening
// mutation yields the same order), for IterBegin to capture.
func (m Map[K, V]) Keys() []K {
	if !m.valid() {
		return nil
	}
	out := make([]K, 0, len(m.store.data))
	for k := range m.store.data {
		out = append(out, k)
	}
	return out
}

// IncInt fuses lookup, default-insert, add, store, and return-new-value for
// the hot counter case (spec.md 4.4). V here is constrained to Int by the
// caller picking the right map flavor; kept generic over number types via
// two thin wrappers below since Go generics can't express "integer or
// float" with a shared +operator without a constraint, and constraining to
// ~int64|~float64 while keeping a single implementation is more opaque than
// two four-line functions.
func IncIntMap[K comparable](m *Map[K, Int], k K, by Int) Int {
	v := m.Lookup(k) + by
	m.Store(k, v)
	return v
}

func IncFloatMap[K comparable](m *Map[K, Float], k K, by Float) Float {
	v := m.Lookup(k) + by
	m.Store(k, v)
	return v
}

// Iterator is an immutable snapshot of a map's key set captured at
// IterBegin, independent of subsequent Store/Delete on the same map
// (spec.md 3 invariant 2, spec.md 4.4, spec.md 9 "Iterator snapshots").
type Iterator[K any] struct {
	keys []K
	pos  int
}

// NewIterator snapshots ks (which the caller has already obtained via
// Map.Keys) into a fresh, independently-owned iterator.
func NewIterator[K any](ks []K) Iterator[K] {
	cp := make([]K, len(ks))
	copy(cp, ks)
	return Iterator[K]{keys: cp}
}

// HasNext peeks without advancing.
func (it Iterator[K]) HasNext() bool { return it.pos < len(it.keys) }

// GetNext advances and returns the next key. Calling GetNext past the end
// returns the zero value of K; callers are expected to guard with
// HasNext first, matching the IterHasNext/IterGetNext opcode pairing.
func (it *Iterator[K]) GetNext() K {
	var zero K
	if it.pos >= len(it.keys) {
		return zero
	}
	k := it.keys[it.pos]
	it.pos++
	return k
}
