// Package mmap provides an insertion-ordered map from a key to an ordered list of values.
//
// Keys keep the order in which they were first added, values keep the order in which
// they were appended. Nothing is ever deduplicated.
package mmap

import (
	"iter"
	"slices"
)

// MultiMap associates each key with an ordered list of values.
// The zero value is ready to use.
type MultiMap[K comparable, V any] struct {
	keys []K
	data map[K][]V
}

// New returns an empty MultiMap.
func New[K comparable, V any]() *MultiMap[K, V] {
	return &MultiMap[K, V]{data: make(map[K][]V)}
}

func (m *MultiMap[K, V]) init() {
	if m.data == nil {
		m.data = make(map[K][]V)
	}
}

// Add appends values to the list stored under key, creating it if needed.
func (m *MultiMap[K, V]) Add(key K, values ...V) {
	m.init()
	existing, ok := m.data[key]
	if !ok {
		m.keys = append(m.keys, key)
	}
	m.data[key] = append(existing, values...)
}

// Set replaces the whole list stored under key.
func (m *MultiMap[K, V]) Set(key K, values ...V) {
	m.init()
	if _, ok := m.data[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.data[key] = slices.Clone(values)
}

// Get returns a copy of the values stored under key, or an empty list.
func (m *MultiMap[K, V]) Get(key K) []V {
	if m == nil || m.data == nil {
		return []V{}
	}
	values, ok := m.data[key]
	if !ok {
		return []V{}
	}
	return slices.Clone(values)
}

// Has reports whether key is present, even with an empty list.
func (m *MultiMap[K, V]) Has(key K) bool {
	if m == nil || m.data == nil {
		return false
	}
	_, ok := m.data[key]
	return ok
}

// Delete removes key and all of its values.
func (m *MultiMap[K, V]) Delete(key K) bool {
	if !m.Has(key) {
		return false
	}
	delete(m.data, key)
	m.keys = slices.DeleteFunc(m.keys, func(k K) bool { return k == key })
	return true
}

// Remove drops the first value under key for which match returns true.
// The key itself is removed once its list becomes empty.
func (m *MultiMap[K, V]) Remove(key K, match func(V) bool) bool {
	if !m.Has(key) {
		return false
	}
	values := m.data[key]
	idx := slices.IndexFunc(values, match)
	if idx < 0 {
		return false
	}
	values = slices.Delete(values, idx, idx+1)
	if len(values) == 0 {
		m.Delete(key)
		return true
	}
	m.data[key] = values
	return true
}

// Clear removes every entry.
func (m *MultiMap[K, V]) Clear() {
	m.keys = nil
	m.data = make(map[K][]V)
}

// Len returns the number of keys.
func (m *MultiMap[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *MultiMap[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over entries in key insertion order. The yielded slices are
// copies and may be retained by the caller.
func (m *MultiMap[K, V]) All() iter.Seq2[K, []V] {
	return func(yield func(K, []V) bool) {
		if m == nil {
			return
		}
		for _, key := range m.keys {
			if !yield(key, slices.Clone(m.data[key])) {
				return
			}
		}
	}
}

// Filter returns a new map holding the entries whose full value list satisfies keep.
// The receiver is not modified.
func (m *MultiMap[K, V]) Filter(keep func(key K, values []V) bool) *MultiMap[K, V] {
	out := New[K, V]()
	for key, values := range m.All() {
		if keep(key, values) {
			out.Add(key, values...)
		}
	}
	return out
}

// ReplaceWhere replaces, in place, the first value under key for which match returns
// true. List length and order are preserved; without a match nothing changes.
func (m *MultiMap[K, V]) ReplaceWhere(key K, match func(V) bool, replacement V) bool {
	if !m.Has(key) {
		return false
	}
	values := m.data[key]
	idx := slices.IndexFunc(values, match)
	if idx < 0 {
		return false
	}
	values[idx] = replacement
	return true
}

// AddAll appends every entry of others into m, map by map in argument order.
func (m *MultiMap[K, V]) AddAll(others ...*MultiMap[K, V]) {
	for _, other := range others {
		if other == nil || other == m {
			continue
		}
		for key, values := range other.All() {
			m.Add(key, values...)
		}
	}
}

// Clone returns a deep copy of the key order and value lists.
func (m *MultiMap[K, V]) Clone() *MultiMap[K, V] {
	out := New[K, V]()
	out.AddAll(m)
	return out
}

// CompactEmpty returns a copy without keys whose list is empty.
func (m *MultiMap[K, V]) CompactEmpty() *MultiMap[K, V] {
	return m.Filter(func(_ K, values []V) bool { return len(values) > 0 })
}
