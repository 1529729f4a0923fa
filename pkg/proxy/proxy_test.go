package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/gopatcher/pkg/bytecode"
	"github.com/daimatz/gopatcher/pkg/classdef"
)

func testClass(name string) *classdef.ImmutableClass {
	return classdef.NewClass(name, "Ljava/lang/Object;", 0x1,
		classdef.NewMethod("run", "V", 0x1, nil, bytecode.Ops(bytecode.OpReturn)))
}

func TestClassProxyReadableBeforeMutation(t *testing.T) {
	orig := testClass("LFoo;")
	p := New(orig, 3)

	assert.Equal(t, 3, p.Index())
	assert.False(t, p.Resolved())
	assert.Same(t, orig, p.Readable())
	assert.Same(t, orig, p.Original())
}

func TestClassProxyMutableMaterializesOnce(t *testing.T) {
	orig := testClass("LFoo;")
	p := New(orig, 0)

	m1 := p.Mutable()
	require.NotNil(t, m1)
	assert.True(t, p.Resolved())

	m2 := p.Mutable()
	assert.Same(t, m1, m2)
	assert.Same(t, m1, p.Readable())

	m1.SetType("LBar;")
	assert.Equal(t, "LBar;", p.Readable().Type())
	assert.Equal(t, "LFoo;", orig.Type())
	assert.Same(t, orig, p.Original())
}

func TestArenaDeduplicatesByIndex(t *testing.T) {
	a := NewArena()
	foo := testClass("LFoo;")
	bar := testClass("LBar;")

	p1 := a.Get(0, foo)
	p2 := a.Get(0, bar)
	assert.Same(t, p1, p2)
	assert.Same(t, foo, p2.Original())

	p3 := a.Get(1, bar)
	assert.NotSame(t, p1, p3)
	assert.Equal(t, 2, a.Len())

	got, ok := a.Lookup(1)
	require.True(t, ok)
	assert.Same(t, p3, got)

	_, ok = a.Lookup(7)
	assert.False(t, ok)

	assert.Equal(t, []*ClassProxy{p1, p3}, a.Proxies())
}
