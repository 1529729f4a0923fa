package signature

import (
	"errors"
	"fmt"
	"iter"
)

// ErrMethodNotFound is matched by errors returned from MethodMap.Get.
var ErrMethodNotFound = errors.New("method not found")

// MethodNotFoundError reports a lookup of a signature name that was never resolved.
type MethodNotFoundError struct {
	Name string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("method %s was not found in the method map", e.Name)
}

func (e *MethodNotFoundError) Unwrap() error { return ErrMethodNotFound }

// MethodMap maps signature names to their results, in insertion order.
// A name is never stored twice. The zero value is ready to use.
// It is not safe for concurrent writes.
type MethodMap struct {
	names   []string
	entries map[string]Result
}

// NewMethodMap creates an empty map.
func NewMethodMap() *MethodMap {
	return &MethodMap{entries: make(map[string]Result)}
}

// Put stores r under name unless name is already present. It reports whether
// r was stored.
func (m *MethodMap) Put(name string, r Result) bool {
	if _, ok := m.entries[name]; ok {
		return false
	}
	if m.entries == nil {
		m.entries = make(map[string]Result)
	}
	m.entries[name] = r
	m.names = append(m.names, name)
	return true
}

// Get returns the result stored under name. A missing name is an error
// wrapping ErrMethodNotFound: callers ask only for names they resolved.
func (m *MethodMap) Get(name string) (Result, error) {
	r, ok := m.entries[name]
	if !ok {
		return Result{}, &MethodNotFoundError{Name: name}
	}
	return r, nil
}

// MustGet is like Get but panics on a missing name.
func (m *MethodMap) MustGet(name string) Result {
	r, err := m.Get(name)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the result stored under name and whether it exists.
func (m *MethodMap) Lookup(name string) (Result, bool) {
	r, ok := m.entries[name]
	return r, ok
}

// Has reports whether name has a result.
func (m *MethodMap) Has(name string) bool {
	_, ok := m.entries[name]
	return ok
}

// Len returns the number of stored results.
func (m *MethodMap) Len() int { return len(m.names) }

// Names returns the stored names in insertion order.
func (m *MethodMap) Names() []string {
	return append([]string(nil), m.names...)
}

// All iterates over the entries in insertion order.
func (m *MethodMap) All() iter.Seq2[string, Result] {
	return func(yield func(string, Result) bool) {
		for _, name := range m.names {
			if !yield(name, m.entries[name]) {
				return
			}
		}
	}
}
