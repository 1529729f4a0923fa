// Package query compiles expr-lang expressions into class predicates for
// Cache.FindClassFunc.
//
// Expressions see one class at a time:
//
//	type contains "Util" && any(methods, .name == "add" && len(.params) == 2)
//	flag(flags, 0x10) && any(methods, "monitorenter" in .opcodes)
package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/daimatz/gopatcher/pkg/classdef"
)

// ClassEnv is the environment an expression is evaluated against.
type ClassEnv struct {
	Type      string      `expr:"type"`
	SuperType string      `expr:"superType"`
	Flags     int         `expr:"flags"`
	Methods   []MethodEnv `expr:"methods"`
}

// MethodEnv describes one method of the class under test.
type MethodEnv struct {
	Name       string   `expr:"name"`
	ReturnType string   `expr:"returnType"`
	Descriptor string   `expr:"descriptor"`
	Flags      int      `expr:"flags"`
	Params     []string `expr:"params"`
	Opcodes    []string `expr:"opcodes"`
}

// NewClassEnv builds the environment for c. Opcodes are given by mnemonic.
func NewClassEnv(c classdef.Class) ClassEnv {
	methods := c.Methods()
	env := ClassEnv{
		Type:      c.Type(),
		SuperType: c.SuperType(),
		Flags:     int(c.AccessFlags()),
		Methods:   make([]MethodEnv, len(methods)),
	}
	for i, m := range methods {
		insns := m.Instructions()
		ops := make([]string, len(insns))
		for j, insn := range insns {
			ops[j] = insn.Opcode.Mnemonic()
		}
		env.Methods[i] = MethodEnv{
			Name:       m.Name(),
			ReturnType: m.ReturnType(),
			Descriptor: classdef.Descriptor(m),
			Flags:      int(m.AccessFlags()),
			Params:     m.ParameterTypes(),
			Opcodes:    ops,
		}
	}
	return env
}

// flag reports whether every bit of mask is set in flags.
func flag(params ...any) (any, error) {
	flags, mask := params[0].(int), params[1].(int)
	return flags&mask == mask, nil
}

// Query is a compiled class predicate.
type Query struct {
	source  string
	program *vm.Program
}

// Compile compiles source. The expression must evaluate to a bool.
func Compile(source string) (*Query, error) {
	program, err := expr.Compile(source,
		expr.Env(ClassEnv{}),
		expr.AsBool(),
		expr.Function("flag", flag, new(func(int, int) bool)),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	return &Query{source: source, program: program}, nil
}

func (q *Query) String() string { return q.source }

// Match evaluates the query against c.
func (q *Query) Match(c classdef.Class) (bool, error) {
	out, err := expr.Run(q.program, NewClassEnv(c))
	if err != nil {
		return false, fmt.Errorf("eval %q on %s: %w", q.source, c.Type(), err)
	}
	return out.(bool), nil
}

// Predicate adapts the query to Cache.FindClassFunc. Classes the expression
// fails on, e.g. by indexing past an empty list, do not match.
func (q *Query) Predicate() func(classdef.Class) bool {
	return func(c classdef.Class) bool {
		ok, err := q.Match(c)
		return err == nil && ok
	}
}
