// Package proxy wraps corpus classes for deferred, copy-on-write mutation.
package proxy

import (
	"github.com/daimatz/gopatcher/pkg/classdef"
)

// ClassProxy wraps one class of the corpus. Reads go to the original class
// until Mutable is called; from then on every read and write goes through a
// private deep copy.
type ClassProxy struct {
	class   classdef.Class
	index   int
	mutable *classdef.MutableClass
}

// New creates a proxy for class, which sits at index in the corpus.
func New(class classdef.Class, index int) *ClassProxy {
	return &ClassProxy{class: class, index: index}
}

// Index returns the position of the proxied class in the corpus.
func (p *ClassProxy) Index() int { return p.index }

// Original returns the class the proxy was created for, ignoring any edits.
func (p *ClassProxy) Original() classdef.Class { return p.class }

// Resolved reports whether the mutable copy has been materialized.
func (p *ClassProxy) Resolved() bool { return p.mutable != nil }

// Readable returns the effective class: the mutable copy once it exists,
// otherwise the original.
func (p *ClassProxy) Readable() classdef.Class {
	if p.mutable != nil {
		return p.mutable
	}
	return p.class
}

// Mutable returns the mutable copy, creating it on first use.
func (p *ClassProxy) Mutable() *classdef.MutableClass {
	if p.mutable == nil {
		p.mutable = classdef.NewMutableClass(p.class)
	}
	return p.mutable
}
