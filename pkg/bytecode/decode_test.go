package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSimple(t *testing.T) {
	// getstatic #2; ldc #3; invokevirtual #4; return
	code := []byte{0xB2, 0x00, 0x02, 0x12, 0x03, 0xB6, 0x00, 0x04, 0xB1}

	insns, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, insns, 4)

	assert.Equal(t, []Opcode{OpGetstatic, OpLdc, OpInvokevirtual, OpReturn}, Opcodes(insns))
	assert.Equal(t, []int{0, 3, 5, 8}, []int{insns[0].Offset, insns[1].Offset, insns[2].Offset, insns[3].Offset})
	assert.Equal(t, []byte{0x00, 0x02}, insns[0].Operands)
	assert.Equal(t, 3, insns[0].Len())
	assert.Nil(t, insns[3].Operands)
}

func TestDecodeWide(t *testing.T) {
	t.Run("wide iload", func(t *testing.T) {
		code := []byte{0xC4, 0x15, 0x01, 0x00, 0xAC}
		insns, err := Decode(code)
		require.NoError(t, err)
		require.Len(t, insns, 2)
		assert.Equal(t, OpWide, insns[0].Opcode)
		assert.Len(t, insns[0].Operands, 3)
		assert.Equal(t, OpIreturn, insns[1].Opcode)
	})

	t.Run("wide iinc", func(t *testing.T) {
		code := []byte{0xC4, 0x84, 0x01, 0x00, 0x00, 0x10, 0xB1}
		insns, err := Decode(code)
		require.NoError(t, err)
		require.Len(t, insns, 2)
		assert.Len(t, insns[0].Operands, 5)
		assert.Equal(t, 6, insns[1].Offset)
	})
}

func TestDecodeTableswitch(t *testing.T) {
	code := []byte{
		0xAA,             // tableswitch at offset 0
		0x00, 0x00, 0x00, // padding
		0x00, 0x00, 0x00, 0x18, // default
		0x00, 0x00, 0x00, 0x00, // low
		0x00, 0x00, 0x00, 0x01, // high
		0x00, 0x00, 0x00, 0x18, // offset 0
		0x00, 0x00, 0x00, 0x18, // offset 1
		0xB1, // return
	}

	insns, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, insns, 2)
	assert.Equal(t, OpTableswitch, insns[0].Opcode)
	assert.Equal(t, 24, insns[0].Len())
	assert.Equal(t, 24, insns[1].Offset)
	assert.Equal(t, OpReturn, insns[1].Opcode)
}

func TestDecodeLookupswitch(t *testing.T) {
	code := []byte{
		0x00,       // nop
		0xAB,       // lookupswitch at offset 1
		0x00, 0x00, // padding
		0x00, 0x00, 0x00, 0x14, // default
		0x00, 0x00, 0x00, 0x01, // npairs
		0x00, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00, 0x14, // match, offset
		0xB1, // return
	}

	insns, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, insns, 3)
	assert.Equal(t, OpLookupswitch, insns[1].Opcode)
	assert.Equal(t, 19, insns[1].Len())
	assert.Equal(t, 20, insns[2].Offset)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"truncated operand", []byte{0xB6, 0x00}},
		{"invalid opcode", []byte{0xFE}},
		{"truncated tableswitch", []byte{0xAA, 0x00, 0x00, 0x00, 0x00}},
		{"wide without opcode", []byte{0xC4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.code)
			assert.Error(t, err)
		})
	}
}

func TestLookup(t *testing.T) {
	op, ok := Lookup("invokevirtual")
	require.True(t, ok)
	assert.Equal(t, OpInvokevirtual, op)

	op, ok = Lookup("ALOAD_0")
	require.True(t, ok)
	assert.Equal(t, OpAload0, op)

	_, ok = Lookup("frobnicate")
	assert.False(t, ok)

	assert.Equal(t, "if_icmpeq", OpIfIcmpeq.String())
	assert.Equal(t, "opcode_0xfe", Opcode(0xFE).String())
}

func TestParseOpcodes(t *testing.T) {
	ops, err := ParseOpcodes([]string{"iload_1", "iconst_2", "imul", "ireturn"})
	require.NoError(t, err)
	assert.Equal(t, []Opcode{OpIload1, OpIconst2, OpImul, OpIreturn}, ops)

	_, err = ParseOpcodes([]string{"iload_1", "bogus"})
	assert.ErrorContains(t, err, "bogus")
}

func TestInstructionClone(t *testing.T) {
	orig := Instruction{Offset: 4, Opcode: OpBipush, Operands: []byte{0x10}}
	c := orig.Clone()
	c.Operands[0] = 0x20
	assert.Equal(t, byte(0x10), orig.Operands[0])
}
