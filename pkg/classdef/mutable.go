package classdef

import (
	"fmt"

	"github.com/daimatz/gopatcher/pkg/bytecode"
)

// MutableClass is an editable deep copy of a class.
type MutableClass struct {
	typ         string
	superType   string
	accessFlags uint16
	methods     []*MutableMethod
}

// NewMutableClass deep-copies c. Edits to the result never reach c.
func NewMutableClass(c Class) *MutableClass {
	mc := &MutableClass{
		typ:         c.Type(),
		superType:   c.SuperType(),
		accessFlags: c.AccessFlags(),
	}
	for _, m := range c.Methods() {
		mc.methods = append(mc.methods, NewMutableMethod(m))
	}
	return mc
}

func (c *MutableClass) Type() string        { return c.typ }
func (c *MutableClass) SuperType() string   { return c.superType }
func (c *MutableClass) AccessFlags() uint16 { return c.accessFlags }

func (c *MutableClass) Methods() []Method {
	ms := make([]Method, len(c.methods))
	for i, m := range c.methods {
		ms[i] = m
	}
	return ms
}

func (c *MutableClass) String() string { return c.typ }

func (c *MutableClass) SetType(typ string)      { c.typ = typ }
func (c *MutableClass) SetSuperType(typ string) { c.superType = typ }
func (c *MutableClass) SetAccessFlags(f uint16) { c.accessFlags = f }

// MutableMethods returns the editable methods. The slice itself must not be modified;
// use AddMethod and RemoveMethod.
func (c *MutableClass) MutableMethods() []*MutableMethod { return c.methods }

// Method returns the first method named name, or nil.
func (c *MutableClass) Method(name string) *MutableMethod {
	for _, m := range c.methods {
		if m.name == name {
			return m
		}
	}
	return nil
}

// AddMethod appends m to the class.
func (c *MutableClass) AddMethod(m *MutableMethod) {
	c.methods = append(c.methods, m)
}

// RemoveMethod removes the first method named name and reports whether one was removed.
func (c *MutableClass) RemoveMethod(name string) bool {
	for i, m := range c.methods {
		if m.name == name {
			c.methods = append(c.methods[:i], c.methods[i+1:]...)
			return true
		}
	}
	return false
}

// MutableMethod is an editable deep copy of a method.
type MutableMethod struct {
	name         string
	returnType   string
	accessFlags  uint16
	params       []string
	instructions []bytecode.Instruction
}

// NewMutableMethod deep-copies m.
func NewMutableMethod(m Method) *MutableMethod {
	return &MutableMethod{
		name:         m.Name(),
		returnType:   m.ReturnType(),
		accessFlags:  m.AccessFlags(),
		params:       cloneStrings(m.ParameterTypes()),
		instructions: cloneInstructions(m.Instructions()),
	}
}

func (m *MutableMethod) Name() string                         { return m.name }
func (m *MutableMethod) ReturnType() string                   { return m.returnType }
func (m *MutableMethod) AccessFlags() uint16                  { return m.accessFlags }
func (m *MutableMethod) ParameterTypes() []string             { return m.params }
func (m *MutableMethod) Instructions() []bytecode.Instruction { return m.instructions }

func (m *MutableMethod) SetName(name string)          { m.name = name }
func (m *MutableMethod) SetReturnType(typ string)     { m.returnType = typ }
func (m *MutableMethod) SetAccessFlags(f uint16)      { m.accessFlags = f }
func (m *MutableMethod) SetParameterTypes(p []string) { m.params = cloneStrings(p) }

// SetInstructions replaces the whole body.
func (m *MutableMethod) SetInstructions(insns []bytecode.Instruction) {
	m.instructions = cloneInstructions(insns)
}

// AddInstructions inserts insns before position index. index == len appends.
func (m *MutableMethod) AddInstructions(index int, insns ...bytecode.Instruction) error {
	if index < 0 || index > len(m.instructions) {
		return fmt.Errorf("insert position %d out of range [0, %d]", index, len(m.instructions))
	}
	added := cloneInstructions(insns)
	m.instructions = append(m.instructions[:index], append(added, m.instructions[index:]...)...)
	return nil
}

// ReplaceInstruction overwrites the instruction at index.
func (m *MutableMethod) ReplaceInstruction(index int, insn bytecode.Instruction) error {
	if index < 0 || index >= len(m.instructions) {
		return fmt.Errorf("instruction %d out of range [0, %d)", index, len(m.instructions))
	}
	m.instructions[index] = insn.Clone()
	return nil
}

// RemoveInstructions deletes count instructions starting at index.
func (m *MutableMethod) RemoveInstructions(index, count int) error {
	if index < 0 || count < 0 || index+count > len(m.instructions) {
		return fmt.Errorf("range [%d, %d) out of bounds for %d instructions", index, index+count, len(m.instructions))
	}
	m.instructions = append(m.instructions[:index], m.instructions[index+count:]...)
	return nil
}
