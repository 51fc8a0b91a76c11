package storage

import "sync"

// Table is an in-memory map with an exclusive lock per entry. The outer
// map lock is held only for lookup and insertion/removal of entries, so
// work on one key never blocks work on another. This is what lets the
// game tick loop and client handlers touch different games concurrently
// while operations on a single game stay serialized in arrival order.
type Table[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[V]
	missing error
}

type entry[V any] struct {
	mu sync.Mutex
	v  V
	// gone marks an entry that was removed while someone else still held
	// a reference to it from the lookup step
	gone bool
}

// NewTable creates an empty table. missing is the error returned by Do
// when a key is absent or was removed, letting each table surface its
// own domain's not-found sentinel.
func NewTable[K comparable, V any](missing error) *Table[K, V] {
	return &Table[K, V]{
		entries: make(map[K]*entry[V]),
		missing: missing,
	}
}

// Insert adds a value under the given key. It reports false if the key
// is already present, leaving the existing value untouched.
func (t *Table[K, V]) Insert(key K, value V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[key]; ok {
		return false
	}
	t.entries[key] = &entry[V]{v: value}
	return true
}

// Do runs fn with exclusive access to the entry for key. fn must not
// call back into the same table (per-entry locks do not nest) and must
// not retain the value past its return. Returns the table's missing
// error if the key is absent or removed before fn could run.
func (t *Table[K, V]) Do(key K, fn func(V) error) error {
	t.mu.RLock()
	e, ok := t.entries[key]
	t.mu.RUnlock()
	if !ok {
		return t.missing
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return t.missing
	}
	return fn(e.v)
}

// Remove deletes the entry for key and returns its value. The second
// return is true for exactly one caller per entry lifetime, so the
// winner can safely own any cleanup tied to the removal.
func (t *Table[K, V]) Remove(key K) (V, bool) {
	var zero V

	t.mu.Lock()
	e, ok := t.entries[key]
	if ok {
		delete(t.entries, key)
	}
	t.mu.Unlock()
	if !ok {
		return zero, false
	}

	// Taking the entry lock waits out any Do that found the entry before
	// the map delete, so the returned value is not still being mutated.
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gone = true
	return e.v, true
}

// Keys returns a snapshot of the current keys. Entries may be removed
// between the snapshot and a later Do, which then reports missing.
func (t *Table[K, V]) Keys() []K {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]K, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of live entries
func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
