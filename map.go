package striped

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Map is a concurrent unordered map with unique keys built on Container.
// Every method is safe for concurrent use.
//
// A Map must be created with NewMap; the zero value only supports
// UnmarshalJSON, which initializes it with default options.
type Map[K comparable, V any] struct {
	shared[K, V]
}

// NewMap creates a Map. See New for the options.
func NewMap[K comparable, V any](options ...func(*Config)) *Map[K, V] {
	return &Map[K, V]{shared[K, V]{New[K, V](options...)}}
}

// Insert stores (key, value), overwriting the value of an existing key.
// Returns 1 if the key was added, 0 if it was updated.
func (m *Map[K, V]) Insert(key K, value V) int {
	return m.c.InsertUnique(key, value)
}

// InsertBulk inserts every entry, locking each stripe at most once. A key
// repeated in entries ends up with its last value. Returns the number of
// keys added.
func (m *Map[K, V]) InsertBulk(entries []Entry[K, V]) int {
	return m.c.InsertBulkUnique(entries)
}

// Erase removes key and returns 1, or 0 if it was absent.
func (m *Map[K, V]) Erase(key K) int {
	return m.c.EraseFirst(key)
}

// EraseBulk removes every key, locking each stripe at most once, and
// returns the number removed.
func (m *Map[K, V]) EraseBulk(keys []K) int {
	return m.c.EraseBulkFirst(keys)
}

// GetValue returns the value stored for key.
func (m *Map[K, V]) GetValue(key K) (value V, ok bool) {
	return m.c.GetValue(key)
}

// SetValue stores value for key. Returns 1 if key existed, 0 if it was
// inserted.
func (m *Map[K, V]) SetValue(key K, value V) int {
	return m.c.SetValueFirst(key, value)
}

// SetComputedValue calls visitor on the value of key under the stripe write
// lock, inserting a zero value first if key is absent. Returns 1 if key
// existed, -1 if it existed and the visitor returned false, 0 if it was
// inserted.
//
// The visitor must not call back into the map.
func (m *Map[K, V]) SetComputedValue(key K, visitor VisitorFunc[K, V]) int {
	return m.c.SetComputedValueFirst(key, visitor)
}

// Update calls visitor on the value of key under the stripe write lock.
// Returns 1 if key exists, -1 if the visitor returned false, 0 if key is
// absent (nothing is inserted).
//
// The visitor must not call back into the map.
func (m *Map[K, V]) Update(key K, visitor VisitorFunc[K, V]) int {
	return m.c.Update(key, visitor)
}

// ToMap collect all entries and return a map[K]V
func (m *Map[K, V]) ToMap() map[K]V {
	return m.ToMapWithLimit(-1)
}

// ToMapWithLimit collect up to limit entries into a map[K]V, limit < 0 is no limit
func (m *Map[K, V]) ToMapWithLimit(limit int) map[K]V {
	if limit == 0 {
		return map[K]V{}
	}
	if limit < 0 {
		limit = math.MaxInt
	}
	a := make(map[K]V, min(m.Size(), limit))
	for k, v := range m.All() {
		a[k] = v
		limit--
		if limit == 0 {
			break
		}
	}
	return a
}

// FromMap imports key-value pairs from a standard Go map
func (m *Map[K, V]) FromMap(source map[K]V) {
	if len(source) == 0 {
		return
	}
	entries := make([]Entry[K, V], 0, len(source))
	for k, v := range source {
		entries = append(entries, Entry[K, V]{Key: k, Value: v})
	}
	m.InsertBulk(entries)
}

// String implement the formatting output interface fmt.Stringer
func (m *Map[K, V]) String() string {
	const limit = 1024
	return strings.Replace(fmt.Sprint(m.ToMapWithLimit(limit)), "map[", "Map[", 1)
}

var (
	jsonMarshal   func(v any) ([]byte, error)
	jsonUnmarshal func(data []byte, v any) error
)

// SetDefaultJSONMarshal sets the default JSON serialization and deserialization functions.
// If not set, the standard library is used by default.
func SetDefaultJSONMarshal(marshal func(v any) ([]byte, error), unmarshal func(data []byte, v any) error) {
	jsonMarshal, jsonUnmarshal = marshal, unmarshal
}

func marshalJSON(v any) ([]byte, error) {
	if jsonMarshal != nil {
		return jsonMarshal(v)
	}
	return json.Marshal(v)
}

func unmarshalJSON(data []byte, v any) error {
	if jsonUnmarshal != nil {
		return jsonUnmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// MarshalJSON JSON serialization
func (m *Map[K, V]) MarshalJSON() ([]byte, error) {
	return marshalJSON(m.ToMap())
}

// UnmarshalJSON JSON deserialization. Decoded entries are added to the
// existing ones. On a zero Map it is not thread-safe.
func (m *Map[K, V]) UnmarshalJSON(data []byte) error {
	var a map[K]V
	if err := unmarshalJSON(data, &a); err != nil {
		return err
	}
	if m.c == nil {
		m.c = New[K, V]()
	}
	m.FromMap(a)
	return nil
}
