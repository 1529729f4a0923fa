package bytecode

import (
	"encoding/binary"
	"fmt"
)

// codeReader walks a method's code array.
type codeReader struct {
	code []byte
	pc   int
}

func (r *codeReader) remaining() int {
	return len(r.code) - r.pc
}

// readU8 reads a uint8 and advances pc.
func (r *codeReader) readU8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("unexpected end of code at pc %d", r.pc)
	}
	val := r.code[r.pc]
	r.pc++
	return val, nil
}

// readI32At reads a big-endian int32 at an absolute position without moving pc.
func (r *codeReader) readI32At(pos int) (int32, error) {
	if pos+4 > len(r.code) {
		return 0, fmt.Errorf("unexpected end of code reading int32 at %d", pos)
	}
	return int32(binary.BigEndian.Uint32(r.code[pos : pos+4])), nil
}

// take consumes n bytes and returns a copy of them.
func (r *codeReader) take(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, fmt.Errorf("unexpected end of code at pc %d: need %d bytes, have %d", r.pc, n, r.remaining())
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	copy(out, r.code[r.pc:r.pc+n])
	r.pc += n
	return out, nil
}

// Decode splits a Code attribute's bytecode into instructions.
func Decode(code []byte) ([]Instruction, error) {
	r := &codeReader{code: code}
	var insns []Instruction
	for r.remaining() > 0 {
		offset := r.pc
		b, err := r.readU8()
		if err != nil {
			return nil, err
		}
		op := Opcode(b)
		if !op.Valid() {
			return nil, fmt.Errorf("invalid opcode 0x%02X at pc %d", b, offset)
		}

		n, err := r.operandLength(op, offset)
		if err != nil {
			return nil, fmt.Errorf("decoding %s at pc %d: %w", op, offset, err)
		}
		operands, err := r.take(n)
		if err != nil {
			return nil, fmt.Errorf("decoding %s at pc %d: %w", op, offset, err)
		}
		insns = append(insns, Instruction{Offset: offset, Opcode: op, Operands: operands})
	}
	return insns, nil
}

// operandLength returns how many operand bytes follow op, which sits at offset.
// pc must point just past the opcode.
func (r *codeReader) operandLength(op Opcode, offset int) (int, error) {
	if n := opcodeTable[op].operands; n != operandVariable {
		return n, nil
	}

	switch op {
	case OpWide:
		if r.remaining() < 1 {
			return 0, fmt.Errorf("missing modified opcode")
		}
		if Opcode(r.code[r.pc]) == OpIinc {
			// opcode, index (u2), const (s2)
			return 5, nil
		}
		// opcode, index (u2)
		return 3, nil

	case OpTableswitch:
		pad := padding(offset)
		base := r.pc + pad
		low, err := r.readI32At(base + 4)
		if err != nil {
			return 0, err
		}
		high, err := r.readI32At(base + 8)
		if err != nil {
			return 0, err
		}
		if high < low {
			return 0, fmt.Errorf("tableswitch high %d < low %d", high, low)
		}
		return pad + 12 + int(high-low+1)*4, nil

	case OpLookupswitch:
		pad := padding(offset)
		npairs, err := r.readI32At(r.pc + pad + 4)
		if err != nil {
			return 0, err
		}
		if npairs < 0 {
			return 0, fmt.Errorf("lookupswitch npairs %d < 0", npairs)
		}
		return pad + 8 + int(npairs)*8, nil
	}

	return 0, fmt.Errorf("no operand layout for %s", op)
}

// padding returns the number of bytes between a switch opcode at offset and its
// 4-byte aligned operands.
func padding(offset int) int {
	return (4 - (offset+1)%4) % 4
}
