package striped

// MultiMap is a concurrent unordered map allowing duplicate keys, built on
// Container. Every method is safe for concurrent use.
//
// Among elements sharing a key, which one is "first" is unspecified and
// subject to change; callers must not depend on it.
type MultiMap[K comparable, V any] struct {
	shared[K, V]
}

// NewMultiMap creates a MultiMap. See New for the options.
func NewMultiMap[K comparable, V any](options ...func(*Config)) *MultiMap[K, V] {
	return &MultiMap[K, V]{shared[K, V]{New[K, V](options...)}}
}

// Insert appends (key, value), keeping existing elements with the same key.
func (m *MultiMap[K, V]) Insert(key K, value V) {
	m.c.InsertAlways(key, value)
}

// InsertBulk appends every entry, locking each stripe at most once.
// Returns the number of elements added, which is len(entries).
func (m *MultiMap[K, V]) InsertBulk(entries []Entry[K, V]) int {
	return m.c.InsertBulkAlways(entries)
}

// EraseFirst removes one element with key and returns 1, or 0 if absent.
func (m *MultiMap[K, V]) EraseFirst(key K) int {
	return m.c.EraseFirst(key)
}

// EraseAll removes every element with key and returns how many there were.
func (m *MultiMap[K, V]) EraseAll(key K) int {
	return m.c.EraseAll(key)
}

// EraseBulkFirst removes one element for every key occurrence in keys.
func (m *MultiMap[K, V]) EraseBulkFirst(keys []K) int {
	return m.c.EraseBulkFirst(keys)
}

// EraseBulkAll removes every element whose key is in keys.
func (m *MultiMap[K, V]) EraseBulkAll(keys []K) int {
	return m.c.EraseBulkAll(keys)
}

// GetValueFirst returns the value of one element with key.
func (m *MultiMap[K, V]) GetValueFirst(key K) (value V, ok bool) {
	return m.c.GetValue(key)
}

// GetValueAll returns the values of every element with key, in no
// particular order.
func (m *MultiMap[K, V]) GetValueAll(key K) []V {
	return m.c.GetValues(key)
}

// SetValueFirst sets the value of one element with key, inserting
// (key, value) if there is none. Returns 1, or 0 if it inserted.
func (m *MultiMap[K, V]) SetValueFirst(key K, value V) int {
	return m.c.SetValueFirst(key, value)
}

// SetValueAll sets the value of every element with key, inserting
// (key, value) if there is none. Returns the number of elements set, or 0
// if it inserted.
func (m *MultiMap[K, V]) SetValueAll(key K, value V) int {
	return m.c.SetValueAll(key, value)
}

// SetComputedValueFirst is Container.SetComputedValue with ScopeFirst.
// The visitor must not call back into the map.
func (m *MultiMap[K, V]) SetComputedValueFirst(key K, visitor VisitorFunc[K, V]) int {
	return m.c.SetComputedValueFirst(key, visitor)
}

// SetComputedValueAll is Container.SetComputedValue with ScopeAll.
// The visitor must not call back into the map.
func (m *MultiMap[K, V]) SetComputedValueAll(key K, visitor VisitorFunc[K, V]) int {
	return m.c.SetComputedValueAll(key, visitor)
}

// Update calls visitor on every element with key, never inserting.
// The visitor must not call back into the map.
func (m *MultiMap[K, V]) Update(key K, visitor VisitorFunc[K, V]) int {
	return m.c.Update(key, visitor)
}

// ToMap groups all elements by key.
func (m *MultiMap[K, V]) ToMap() map[K][]V {
	a := make(map[K][]V)
	for k, v := range m.All() {
		a[k] = append(a[k], v)
	}
	return a
}

// MarshalJSON encodes the elements grouped by key, like ToMap.
func (m *MultiMap[K, V]) MarshalJSON() ([]byte, error) {
	return marshalJSON(m.ToMap())
}

// UnmarshalJSON decodes elements grouped by key and appends them. On a zero
// MultiMap it is not thread-safe.
func (m *MultiMap[K, V]) UnmarshalJSON(data []byte) error {
	var a map[K][]V
	if err := unmarshalJSON(data, &a); err != nil {
		return err
	}
	if m.c == nil {
		m.c = New[K, V]()
	}
	var entries []Entry[K, V]
	for k, vs := range a {
		for _, v := range vs {
			entries = append(entries, Entry[K, V]{Key: k, Value: v})
		}
	}
	m.InsertBulk(entries)
	return nil
}
