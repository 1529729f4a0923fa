// Package classfiletest assembles minimal class files in memory for tests.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
)

type member struct {
	flags      uint16
	name, desc uint16
	code       []byte
	hasCode    bool
}

// Builder accumulates the parts of one class file.
type Builder struct {
	pool      bytes.Buffer
	poolCount uint16
	utf8      map[string]uint16
	flags     uint16
	this      uint16
	super     uint16
	fields    []member
	methods   []member
}

// New starts a public class named className extending superName.
// An empty superName produces a class without a super class.
func New(className, superName string) *Builder {
	b := &Builder{poolCount: 1, utf8: make(map[string]uint16), flags: 0x0021}
	b.this = b.class(className)
	if superName != "" {
		b.super = b.class(superName)
	}
	return b
}

// Flags overrides the class access flags.
func (b *Builder) Flags(flags uint16) *Builder {
	b.flags = flags
	return b
}

// Long adds a CONSTANT_Long, which occupies two pool slots.
func (b *Builder) Long(v int64) *Builder {
	b.pool.WriteByte(5)
	binary.Write(&b.pool, binary.BigEndian, v)
	b.poolCount += 2
	return b
}

// Field adds a field without attributes.
func (b *Builder) Field(flags uint16, name, desc string) *Builder {
	b.fields = append(b.fields, member{flags: flags, name: b.str(name), desc: b.str(desc)})
	return b
}

// Method adds a method. A nil code slice produces a method without a Code attribute.
func (b *Builder) Method(flags uint16, name, desc string, code []byte) *Builder {
	m := member{flags: flags, name: b.str(name), desc: b.str(desc), code: code, hasCode: code != nil}
	if m.hasCode {
		b.str("Code")
	}
	b.methods = append(b.methods, m)
	return b
}

// Bytes serializes the class file.
func (b *Builder) Bytes() []byte {
	var out bytes.Buffer
	w := func(v any) { binary.Write(&out, binary.BigEndian, v) }

	w(uint32(0xCAFEBABE))
	w(uint16(0))
	w(uint16(61))
	w(b.poolCount)
	out.Write(b.pool.Bytes())
	w(b.flags)
	w(b.this)
	w(b.super)
	w(uint16(0)) // interfaces

	w(uint16(len(b.fields)))
	for _, f := range b.fields {
		w(f.flags)
		w(f.name)
		w(f.desc)
		w(uint16(0))
	}

	w(uint16(len(b.methods)))
	for _, m := range b.methods {
		w(m.flags)
		w(m.name)
		w(m.desc)
		if !m.hasCode {
			w(uint16(0))
			continue
		}
		w(uint16(1))
		w(b.utf8["Code"])
		w(uint32(12 + len(m.code)))
		w(uint16(4)) // max_stack
		w(uint16(4)) // max_locals
		w(uint32(len(m.code)))
		out.Write(m.code)
		w(uint16(0)) // exception table
		w(uint16(0)) // attributes
	}

	w(uint16(0)) // class attributes
	return out.Bytes()
}

// WriteFile writes the class file to dir, creating parent directories for
// package-qualified names. It returns the written path.
func (b *Builder) WriteFile(dir, name string) (string, error) {
	path := filepath.Join(dir, filepath.FromSlash(name)+".class")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b.Bytes(), 0o644)
}

func (b *Builder) str(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	b.pool.WriteByte(1)
	binary.Write(&b.pool, binary.BigEndian, uint16(len(s)))
	b.pool.WriteString(s)
	idx := b.poolCount
	b.poolCount++
	b.utf8[s] = idx
	return idx
}

func (b *Builder) class(name string) uint16 {
	nameIdx := b.str(name)
	b.pool.WriteByte(7)
	binary.Write(&b.pool, binary.BigEndian, nameIdx)
	idx := b.poolCount
	b.poolCount++
	return idx
}
