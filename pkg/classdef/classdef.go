// Package classdef is the class model searched by signature resolution.
//
// Class and Method are read-only views. ImmutableClass backs the corpus; a
// MutableClass is a deep copy that patches edit in place. Both satisfy Class,
// so code that only reads never needs to know which one it holds.
package classdef

import (
	"fmt"

	"github.com/daimatz/gopatcher/pkg/bytecode"
	"github.com/daimatz/gopatcher/pkg/classfile"
)

// Class is a read-only view of a class.
type Class interface {
	Type() string
	SuperType() string
	AccessFlags() uint16
	// Methods returns the methods in declaration order. The slice must not be modified.
	Methods() []Method
}

// Method is a read-only view of a method.
type Method interface {
	Name() string
	ReturnType() string
	AccessFlags() uint16
	// ParameterTypes returns the parameter type descriptors. The slice must not be modified.
	ParameterTypes() []string
	// Instructions returns the decoded body, or nil for methods without code.
	// The slice must not be modified.
	Instructions() []bytecode.Instruction
}

// ImmutableClass is a class that never changes after construction.
type ImmutableClass struct {
	typ         string
	superType   string
	accessFlags uint16
	methods     []Method
}

// NewClass builds an immutable class from its parts.
func NewClass(typ, superType string, accessFlags uint16, methods ...*ImmutableMethod) *ImmutableClass {
	ms := make([]Method, len(methods))
	for i, m := range methods {
		ms[i] = m
	}
	return &ImmutableClass{typ: typ, superType: superType, accessFlags: accessFlags, methods: ms}
}

func (c *ImmutableClass) Type() string        { return c.typ }
func (c *ImmutableClass) SuperType() string   { return c.superType }
func (c *ImmutableClass) AccessFlags() uint16 { return c.accessFlags }
func (c *ImmutableClass) Methods() []Method   { return c.methods }

func (c *ImmutableClass) String() string { return c.typ }

// ImmutableMethod is a method that never changes after construction.
type ImmutableMethod struct {
	name         string
	returnType   string
	accessFlags  uint16
	params       []string
	instructions []bytecode.Instruction
}

// NewMethod builds an immutable method. params and insns are copied.
func NewMethod(name, returnType string, accessFlags uint16, params []string, insns []bytecode.Instruction) *ImmutableMethod {
	return &ImmutableMethod{
		name:         name,
		returnType:   returnType,
		accessFlags:  accessFlags,
		params:       cloneStrings(params),
		instructions: cloneInstructions(insns),
	}
}

func (m *ImmutableMethod) Name() string                         { return m.name }
func (m *ImmutableMethod) ReturnType() string                   { return m.returnType }
func (m *ImmutableMethod) AccessFlags() uint16                  { return m.accessFlags }
func (m *ImmutableMethod) ParameterTypes() []string             { return m.params }
func (m *ImmutableMethod) Instructions() []bytecode.Instruction { return m.instructions }

// FromClassFile converts a parsed class file into an immutable class, splitting
// method descriptors and decoding method bodies.
func FromClassFile(cf *classfile.ClassFile) (*ImmutableClass, error) {
	name, err := cf.ClassName()
	if err != nil {
		return nil, fmt.Errorf("resolving class name: %w", err)
	}

	methods := make([]*ImmutableMethod, 0, len(cf.Methods))
	for _, mi := range cf.Methods {
		md, err := classfile.ParseMethodDescriptor(mi.Descriptor)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, mi.Name, err)
		}
		var insns []bytecode.Instruction
		if mi.Code != nil {
			if insns, err = bytecode.Decode(mi.Code.Code); err != nil {
				return nil, fmt.Errorf("%s.%s%s: %w", name, mi.Name, mi.Descriptor, err)
			}
		}
		methods = append(methods, &ImmutableMethod{
			name:         mi.Name,
			returnType:   md.ReturnType,
			accessFlags:  mi.AccessFlags,
			params:       md.Parameters,
			instructions: insns,
		})
	}

	return NewClass(name, cf.SuperClassName(), cf.AccessFlags, methods...), nil
}

// Descriptor renders the method descriptor of m, e.g. "(II)I".
func Descriptor(m Method) string {
	return classfile.MethodDescriptor{Parameters: m.ParameterTypes(), ReturnType: m.ReturnType()}.String()
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneInstructions(insns []bytecode.Instruction) []bytecode.Instruction {
	if insns == nil {
		return nil
	}
	out := make([]bytecode.Instruction, len(insns))
	for i, insn := range insns {
		out[i] = insn.Clone()
	}
	return out
}
