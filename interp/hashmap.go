package interp

import "reflect"

// Open-addressed hash map used as the substrate for namespaces, symbol
// tables, type-instance interning and the hash-map value type. Collisions
// probe linearly; deletions leave tombstones that are reclaimed on resize.

const (
	hashMapInitialCap = 8
	hashMapMaxLoad    = 0.7
)

// fnv-1a
const (
	hashInit  uint64 = 14695981039346656037
	hashPrime uint64 = 1099511628211
)

func hashBytes(h uint64, bytes []byte) uint64 {
	for _, b := range bytes {
		h = (h ^ uint64(b)) * hashPrime
	}
	return h
}

func hashString(h uint64, s string) uint64 {
	for i := 0; i < len(s); i++ {
		h = (h ^ uint64(s[i])) * hashPrime
	}
	return h
}

func hashUint64(h, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h = (h ^ (v & 0xff)) * hashPrime
		v >>= 8
	}
	return h
}

type hashBucket[K, V any] struct {
	key   K
	value V
	state int8 // 0 empty, 1 occupied, 2 tombstone
}

const (
	bucketEmpty int8 = iota
	bucketOccupied
	bucketTombstone
)

// genericHashMap is an open-addressed table parameterized on key hashing
// and equality.
type genericHashMap[K, V any] struct {
	hash    func(K) uint64
	eq      func(K, K) bool
	buckets []hashBucket[K, V]
	size    int
	used    int // occupied + tombstones
}

func newHashMap[K, V any](hash func(K) uint64, eq func(K, K) bool) genericHashMap[K, V] {
	return genericHashMap[K, V]{hash: hash, eq: eq}
}

func (m *genericHashMap[K, V]) Len() int { return m.size }

func (m *genericHashMap[K, V]) lookup(key K) (int, bool) {
	if len(m.buckets) == 0 {
		return -1, false
	}
	mask := uint64(len(m.buckets) - 1)
	i := m.hash(key) & mask
	firstFree := -1
	for {
		b := &m.buckets[i]
		switch b.state {
		case bucketEmpty:
			if firstFree >= 0 {
				return firstFree, false
			}
			return int(i), false
		case bucketTombstone:
			if firstFree < 0 {
				firstFree = int(i)
			}
		case bucketOccupied:
			if m.eq(b.key, key) {
				return int(i), true
			}
		}
		i = (i + 1) & mask
	}
}

func (m *genericHashMap[K, V]) grow() {
	old := m.buckets
	capacity := hashMapInitialCap
	if len(old) > 0 {
		capacity = len(old) * 2
	}
	// Shrink back if most of the table is tombstones.
	for capacity > hashMapInitialCap && m.size*4 < capacity {
		capacity /= 2
	}
	m.buckets = make([]hashBucket[K, V], capacity)
	m.size = 0
	m.used = 0
	for i := range old {
		if old[i].state == bucketOccupied {
			m.Set(old[i].key, old[i].value)
		}
	}
}

// Get returns the value stored for key.
func (m *genericHashMap[K, V]) Get(key K) (V, bool) {
	i, ok := m.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return m.buckets[i].value, true
}

// Set stores value for key, replacing any existing entry.
func (m *genericHashMap[K, V]) Set(key K, value V) {
	if len(m.buckets) == 0 || float64(m.used+1) > float64(len(m.buckets))*hashMapMaxLoad {
		m.grow()
	}
	i, ok := m.lookup(key)
	b := &m.buckets[i]
	if !ok {
		if b.state == bucketEmpty {
			m.used++
		}
		m.size++
	}
	b.key = key
	b.value = value
	b.state = bucketOccupied
}

// Delete removes the entry for key and returns its value.
func (m *genericHashMap[K, V]) Delete(key K) (V, bool) {
	i, ok := m.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	b := &m.buckets[i]
	v := b.value
	var zeroK K
	var zeroV V
	b.key = zeroK
	b.value = zeroV
	b.state = bucketTombstone
	m.size--
	return v, true
}

// Each calls f for every entry until f returns false.
func (m *genericHashMap[K, V]) Each(f func(K, V) bool) {
	for i := range m.buckets {
		if m.buckets[i].state == bucketOccupied {
			if !f(m.buckets[i].key, m.buckets[i].value) {
				return
			}
		}
	}
}

// Typed façades.

// hashPointer hashes a pointer by identity.
func hashPointer[T any](p *T) uint64 {
	return hashUint64(hashInit, uint64(reflect.ValueOf(p).Pointer()))
}

// newSymbolMap maps names to interned symbols.
func newSymbolMap() genericHashMap[string, *Symbol] {
	return newHashMap[string, *Symbol](
		func(s string) uint64 { return hashString(hashInit, s) },
		func(a, b string) bool { return a == b },
	)
}

// newNamespace maps interned symbols (by identity) to values.
func newNamespace() genericHashMap[*Symbol, Value] {
	return newHashMap[*Symbol, Value](
		func(s *Symbol) uint64 { return hashPointer(s) },
		func(a, b *Symbol) bool { return a == b },
	)
}

// HashValue folds an NSE value into a hash consistent with Equals.
func HashValue(h uint64, v Value) uint64 {
	switch tv := syntaxGet(v).(type) {
	case Unit:
		return hashUint64(h, 1)
	case I64:
		return hashUint64(h, uint64(tv))
	case F64:
		return hashUint64(h, uint64(int64(tv)))
	case *String:
		return hashBytes(h, tv.Bytes)
	case *Symbol:
		return hashUint64(h, hashPointer(tv))
	case Keyword:
		return hashUint64(h, hashPointer(tv.Sym))
	case *Vector:
		for _, c := range tv.Cells {
			h = HashValue(h, c)
		}
		return h
	case *VectorSlice:
		for _, c := range tv.Cells {
			h = HashValue(h, c)
		}
		return h
	case *List:
		for n := tv; n != nil; n = n.Tail {
			h = HashValue(h, n.Head)
		}
		return h
	case *Quote:
		return HashValue(hashUint64(h, 2), tv.Quoted)
	case *TypeQuote:
		return HashValue(hashUint64(h, 3), tv.Quoted)
	case *Data:
		h = hashUint64(h, hashPointer(tv.Tag))
		for _, f := range tv.Fields {
			h = HashValue(h, f)
		}
		return h
	case *Type:
		return hashUint64(h, hashPointer(tv))
	default:
		return hashUint64(h, uint64(tv.ValueKind()))
	}
}

// NewHashMapValue creates an empty hash-map value.
func NewHashMapValue() *HashMap {
	return &HashMap{m: newHashMap[Value, Value](
		func(v Value) uint64 { return HashValue(hashInit, v) },
		func(a, b Value) bool { return Equals(a, b) == EqEqual },
	)}
}

// Get returns the value for key, or unit.
func (h *HashMap) Get(key Value) Value {
	if v, ok := h.m.Get(key); ok {
		return v
	}
	return unit
}

// Set stores value for key and returns any previous value, or unit.
func (h *HashMap) Set(key, value Value) Value {
	prev, _ := h.m.Get(key)
	h.m.Set(key, value)
	if prev == nil {
		return unit
	}
	return prev
}

// Unset removes key and returns the removed value, or unit.
func (h *HashMap) Unset(key Value) Value {
	if v, ok := h.m.Delete(key); ok {
		return v
	}
	return unit
}

// Len returns the number of entries.
func (h *HashMap) Len() int { return h.m.Len() }

// Each iterates over the entries.
func (h *HashMap) Each(f func(key, value Value) bool) { h.m.Each(f) }
