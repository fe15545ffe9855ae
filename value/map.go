package value

import (
	"iter"
	"slices"
)

// Map is a mapping of string keys to values that remembers insertion order.
//
// The zero value is an empty map ready to use.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns a new empty map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

func (m *Map) Kind() Kind { return KindMap }

// Len returns the number of entries in the map.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value for the given key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil || m.values == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set assigns the value for the given key. New keys are appended to the key order.
func (m *Map) Set(key string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes the entry for the given key and returns true if it existed.
func (m *Map) Delete(key string) bool {
	if m == nil || m.values == nil {
		return false
	}
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All returns an iterator over the entries in insertion order.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	out := &Map{
		keys:   make([]string, 0, m.Len()),
		values: make(map[string]Value, m.Len()),
	}
	for k, v := range m.All() {
		out.keys = append(out.keys, k)
		out.values[k] = Clone(v)
	}
	return out
}
