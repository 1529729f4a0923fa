package proxy

import (
	"github.com/daimatz/gopatcher/pkg/classdef"
)

// Arena holds at most one ClassProxy per corpus index.
// It is not safe for concurrent use.
type Arena struct {
	byIndex map[int]*ClassProxy
	order   []*ClassProxy
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{byIndex: make(map[int]*ClassProxy)}
}

// Get returns the proxy registered for index, creating it around class if
// none exists yet. class is ignored when the proxy already exists.
func (a *Arena) Get(index int, class classdef.Class) *ClassProxy {
	if p, ok := a.byIndex[index]; ok {
		return p
	}
	p := New(class, index)
	a.byIndex[index] = p
	a.order = append(a.order, p)
	return p
}

// Lookup returns the proxy registered for index, if any.
func (a *Arena) Lookup(index int) (*ClassProxy, bool) {
	p, ok := a.byIndex[index]
	return p, ok
}

// Proxies returns the registered proxies in registration order.
func (a *Arena) Proxies() []*ClassProxy {
	return append([]*ClassProxy(nil), a.order...)
}

// Len returns the number of registered proxies.
func (a *Arena) Len() int { return len(a.order) }
