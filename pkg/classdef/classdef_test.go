package classdef_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daimatz/gopatcher/pkg/bytecode"
	"github.com/daimatz/gopatcher/pkg/classdef"
	"github.com/daimatz/gopatcher/pkg/classfile"
	"github.com/daimatz/gopatcher/pkg/classfile/classfiletest"
)

func sampleClass() *classdef.ImmutableClass {
	return classdef.NewClass("Lcom/example/Sample;", "Ljava/lang/Object;", classfile.AccPublic,
		classdef.NewMethod("add", "I", classfile.AccPublic, []string{"I", "I"},
			bytecode.Ops(bytecode.OpIload1, bytecode.OpIload2, bytecode.OpIadd, bytecode.OpIreturn)),
		classdef.NewMethod("run", "V", classfile.AccPublic|classfile.AccAbstract, nil, nil),
	)
}

func TestFromClassFile(t *testing.T) {
	data := classfiletest.New("com/example/Add", "java/lang/Object").
		Method(classfile.AccPublic|classfile.AccStatic, "add", "(II)I", []byte{0x1A, 0x1B, 0x60, 0xAC}).
		Method(classfile.AccPublic, "<init>", "()V", []byte{0x2A, 0xB7, 0x00, 0x01, 0xB1}).
		Method(classfile.AccPublic|classfile.AccAbstract, "run", "(Ljava/lang/String;J)V", nil).
		Bytes()

	cf, err := classfile.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	c, err := classdef.FromClassFile(cf)
	require.NoError(t, err)

	assert.Equal(t, "com/example/Add", c.Type())
	assert.Equal(t, "java/lang/Object", c.SuperType())
	require.Len(t, c.Methods(), 3)

	add := c.Methods()[0]
	assert.Equal(t, "add", add.Name())
	assert.Equal(t, "I", add.ReturnType())
	assert.Equal(t, []string{"I", "I"}, add.ParameterTypes())
	assert.Equal(t, uint16(classfile.AccPublic|classfile.AccStatic), add.AccessFlags())
	assert.Equal(t,
		[]bytecode.Opcode{bytecode.OpIload0, bytecode.OpIload1, bytecode.OpIadd, bytecode.OpIreturn},
		bytecode.Opcodes(add.Instructions()))
	assert.Equal(t, "(II)I", classdef.Descriptor(add))

	ctor := c.Methods()[1]
	assert.Equal(t, []bytecode.Opcode{bytecode.OpAload0, bytecode.OpInvokespecial, bytecode.OpReturn},
		bytecode.Opcodes(ctor.Instructions()))

	run := c.Methods()[2]
	assert.Nil(t, run.Instructions())
	assert.Equal(t, []string{"Ljava/lang/String;", "J"}, run.ParameterTypes())
}

func TestFromClassFileBadDescriptor(t *testing.T) {
	data := classfiletest.New("Bad", "java/lang/Object").
		Method(classfile.AccPublic, "broken", "(Q)V", []byte{0xB1}).
		Bytes()
	cf, err := classfile.Parse(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = classdef.FromClassFile(cf)
	assert.ErrorContains(t, err, "Bad.broken")
}

func TestNewMethodCopiesInputs(t *testing.T) {
	params := []string{"I"}
	insns := bytecode.Ops(bytecode.OpNop)
	m := classdef.NewMethod("m", "V", 0, params, insns)

	params[0] = "J"
	insns[0].Opcode = bytecode.OpReturn
	assert.Equal(t, []string{"I"}, m.ParameterTypes())
	assert.Equal(t, bytecode.OpNop, m.Instructions()[0].Opcode)
}

func TestMutableClassIsDeepCopy(t *testing.T) {
	orig := sampleClass()
	mc := classdef.NewMutableClass(orig)

	mc.SetAccessFlags(classfile.AccPublic | classfile.AccFinal)
	add := mc.Method("add")
	require.NotNil(t, add)
	add.SetName("sum")
	add.ParameterTypes()[0] = "J"
	require.NoError(t, add.ReplaceInstruction(2, bytecode.Instruction{Opcode: bytecode.OpIsub}))

	assert.Equal(t, uint16(classfile.AccPublic), orig.AccessFlags())
	origAdd := orig.Methods()[0]
	assert.Equal(t, "add", origAdd.Name())
	assert.Equal(t, []string{"I", "I"}, origAdd.ParameterTypes())
	assert.Equal(t, bytecode.OpIadd, origAdd.Instructions()[2].Opcode)

	assert.Equal(t, "sum", mc.Methods()[0].Name())
	assert.Equal(t, bytecode.OpIsub, mc.Methods()[0].Instructions()[2].Opcode)
}

func TestMutableClassMethods(t *testing.T) {
	mc := classdef.NewMutableClass(sampleClass())

	mc.AddMethod(classdef.NewMutableMethod(classdef.NewMethod("extra", "Z", 0, nil, nil)))
	require.Len(t, mc.Methods(), 3)
	assert.Equal(t, "extra", mc.Methods()[2].Name())

	assert.True(t, mc.RemoveMethod("run"))
	assert.False(t, mc.RemoveMethod("run"))
	assert.Equal(t, []string{"add", "extra"}, []string{mc.Methods()[0].Name(), mc.Methods()[1].Name()})
	assert.Nil(t, mc.Method("run"))
}

func TestMutableMethodInstructions(t *testing.T) {
	m := classdef.NewMutableMethod(sampleClass().Methods()[0])

	require.NoError(t, m.AddInstructions(0, bytecode.Ops(bytecode.OpNop, bytecode.OpNop)...))
	require.NoError(t, m.AddInstructions(len(m.Instructions()), bytecode.Instruction{Opcode: bytecode.OpReturn}))
	assert.Equal(t, []bytecode.Opcode{
		bytecode.OpNop, bytecode.OpNop,
		bytecode.OpIload1, bytecode.OpIload2, bytecode.OpIadd, bytecode.OpIreturn,
		bytecode.OpReturn,
	}, bytecode.Opcodes(m.Instructions()))

	require.NoError(t, m.RemoveInstructions(0, 2))
	assert.Len(t, m.Instructions(), 5)

	assert.Error(t, m.AddInstructions(-1))
	assert.Error(t, m.AddInstructions(6))
	assert.Error(t, m.ReplaceInstruction(5, bytecode.Instruction{}))
	assert.Error(t, m.RemoveInstructions(3, 3))

	m.SetInstructions(nil)
	assert.Empty(t, m.Instructions())
}
