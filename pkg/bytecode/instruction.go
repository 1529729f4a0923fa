package bytecode

import (
	"fmt"
	"strings"
)

// Instruction is one decoded instruction of a method body.
type Instruction struct {
	Offset   int
	Opcode   Opcode
	Operands []byte
}

// Len returns the encoded size of the instruction in bytes.
func (i Instruction) Len() int {
	return 1 + len(i.Operands)
}

func (i Instruction) String() string {
	if len(i.Operands) == 0 {
		return fmt.Sprintf("%d: %s", i.Offset, i.Opcode)
	}
	return fmt.Sprintf("%d: %s % x", i.Offset, i.Opcode, i.Operands)
}

// Clone returns a copy of the instruction that shares no memory with i.
func (i Instruction) Clone() Instruction {
	if i.Operands != nil {
		i.Operands = append([]byte(nil), i.Operands...)
	}
	return i
}

// Mnemonic returns the JVM mnemonic of the opcode, e.g. "invokevirtual".
// Unassigned opcodes render as "opcode_0xNN".
func (op Opcode) Mnemonic() string {
	if name := opcodeTable[op].mnemonic; name != "" {
		return name
	}
	return fmt.Sprintf("opcode_0x%02x", uint8(op))
}

func (op Opcode) String() string { return op.Mnemonic() }

// Valid reports whether op is an assigned JVM opcode.
func (op Opcode) Valid() bool {
	return opcodeTable[op].mnemonic != ""
}

var mnemonicIndex = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeTable))
	for i, info := range opcodeTable {
		if info.mnemonic != "" {
			m[info.mnemonic] = Opcode(i)
		}
	}
	return m
}()

// Lookup returns the opcode for a mnemonic. Matching is case-insensitive.
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := mnemonicIndex[strings.ToLower(mnemonic)]
	return op, ok
}

// ParseOpcodes converts a list of mnemonics into opcodes.
func ParseOpcodes(mnemonics []string) ([]Opcode, error) {
	ops := make([]Opcode, 0, len(mnemonics))
	for i, name := range mnemonics {
		op, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown opcode %q at position %d", name, i)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Opcodes returns the opcode sequence of the given instructions.
func Opcodes(insns []Instruction) []Opcode {
	ops := make([]Opcode, len(insns))
	for i, insn := range insns {
		ops[i] = insn.Opcode
	}
	return ops
}

// Ops builds operand-less instructions with sequential offsets. It is meant for
// constructing method bodies by hand, where only the opcode sequence matters.
func Ops(ops ...Opcode) []Instruction {
	insns := make([]Instruction, len(ops))
	for i, op := range ops {
		insns[i] = Instruction{Offset: i, Opcode: op}
	}
	return insns
}
