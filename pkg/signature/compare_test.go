package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daimatz/gopatcher/pkg/bytecode"
	"github.com/daimatz/gopatcher/pkg/classdef"
)

// Opcode aliases keep the pattern tables readable.
const (
	opA = bytecode.OpIload0
	opB = bytecode.OpIload1
	opC = bytecode.OpIadd
	opD = bytecode.OpIreturn
	opE = bytecode.OpReturn
	opX = bytecode.OpNop
	opY = bytecode.OpPop
)

func TestScanOpcodes(t *testing.T) {
	tests := []struct {
		name      string
		insns     []bytecode.Opcode
		pattern   []bytecode.Opcode
		threshold int
		want      PatternScanResult
		found     bool
	}{
		{"exact at start", []bytecode.Opcode{opA, opB, opC, opD}, []bytecode.Opcode{opA, opB, opC}, 0, PatternScanResult{0, 3}, true},
		{"exact later offset", []bytecode.Opcode{opA, opB, opX, opA, opB, opC}, []bytecode.Opcode{opA, opB, opC}, 0, PatternScanResult{3, 6}, true},
		{"exact single mismatch disqualifies", []bytecode.Opcode{opA, opX, opC}, []bytecode.Opcode{opA, opB, opC}, 0, PatternScanResult{}, false},
		{"fuzzy tolerates one mismatch", []bytecode.Opcode{opA, opX, opC}, []bytecode.Opcode{opA, opB, opC}, 1, PatternScanResult{0, 3}, true},
		{"fuzzy k mismatches succeed", []bytecode.Opcode{opA, opX, opC, opY, opE}, []bytecode.Opcode{opA, opB, opC, opD, opE}, 2, PatternScanResult{0, 5}, true},
		{"fuzzy k+1 mismatches fail", []bytecode.Opcode{opA, opX, opC, opY, opE}, []bytecode.Opcode{opA, opB, opC, opD, opE}, 1, PatternScanResult{}, false},
		{"mismatch consumes position without realigning", []bytecode.Opcode{opA, opC}, []bytecode.Opcode{opA, opB, opC}, 1, PatternScanResult{}, false},
		{"budget resets per start offset", []bytecode.Opcode{opX, opY, opA, opB, opC}, []bytecode.Opcode{opA, opB, opC}, 1, PatternScanResult{2, 5}, true},
		{"earliest start wins over exact later match", []bytecode.Opcode{opX, opB, opC, opA, opB, opC}, []bytecode.Opcode{opA, opB, opC}, 1, PatternScanResult{0, 3}, true},
		{"window cannot run past the end", []bytecode.Opcode{opA, opB}, []bytecode.Opcode{opA, opB, opC}, 5, PatternScanResult{}, false},
		{"empty body", nil, []bytecode.Opcode{opA}, 3, PatternScanResult{}, false},
		{"all mismatches within budget", []bytecode.Opcode{opX, opX, opX}, []bytecode.Opcode{opA, opB, opC}, 3, PatternScanResult{0, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := scanOpcodes(bytecode.Ops(tt.insns...), tt.pattern, tt.threshold)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareParameterTypes(t *testing.T) {
	tests := []struct {
		name     string
		expected []string
		actual   []string
		want     bool
	}{
		{"equal", []string{"I", "J"}, []string{"I", "J"}, true},
		{"prefix", []string{"L"}, []string{"Ljava/lang/String;"}, true},
		{"order ignored", []string{"I", "L"}, []string{"Ljava/lang/String;", "I"}, true},
		{"multiplicity ignored", []string{"I", "I"}, []string{"I", "J"}, true},
		{"count differs", []string{"I"}, []string{"I", "I"}, false},
		{"no prefix", []string{"J"}, []string{"I"}, false},
		{"empty expects none", []string{}, []string{}, true},
		{"empty rejects params", []string{}, []string{"I"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareParameterTypes(tt.expected, tt.actual))
		})
	}
}

func TestCompareSignatureToMethod(t *testing.T) {
	method := classdef.NewMethod("compute", "Ljava/lang/String;", 0x0001, []string{"I", "[B"},
		bytecode.Ops(opA, opB, opC, opD))
	abstract := classdef.NewMethod("run", "V", 0x0401, nil, nil)

	tests := []struct {
		name   string
		sig    MethodSignature
		method classdef.Method
		want   PatternScanResult
		found  bool
	}{
		{"no filters", MethodSignature{Name: "any"}, method, PatternScanResult{}, true},
		{"return type prefix", MethodSignature{Name: "s", ReturnType: "Ljava/lang/"}, method, PatternScanResult{}, true},
		{"return type mismatch", MethodSignature{Name: "s", ReturnType: "I"}, method, PatternScanResult{}, false},
		{"access flags equal", MethodSignature{Name: "s", AccessFlags: Flags(0x0001)}, method, PatternScanResult{}, true},
		{"access flags differ", MethodSignature{Name: "s", AccessFlags: Flags(0x0009)}, method, PatternScanResult{}, false},
		{"zero access flags are a filter", MethodSignature{Name: "s", AccessFlags: Flags(0)}, method, PatternScanResult{}, false},
		{"parameters", MethodSignature{Name: "s", Parameters: []string{"[", "I"}}, method, PatternScanResult{}, true},
		{"parameter count differs", MethodSignature{Name: "s", Parameters: []string{"I"}}, method, PatternScanResult{}, false},
		{"opcodes", MethodSignature{Name: "s", Opcodes: []bytecode.Opcode{opB, opC}}, method, PatternScanResult{1, 3}, true},
		{"opcodes fuzzy", MethodSignature{Name: "s", Opcodes: []bytecode.Opcode{opA, opX, opC}, Method: Fuzzy(1)}, method, PatternScanResult{0, 3}, true},
		{"opcodes exact mismatch", MethodSignature{Name: "s", Opcodes: []bytecode.Opcode{opA, opX, opC}, Method: Exact()}, method, PatternScanResult{}, false},
		{"opcodes need a body", MethodSignature{Name: "s", Opcodes: []bytecode.Opcode{opE}, Method: Fuzzy(1)}, abstract, PatternScanResult{}, false},
		{"empty pattern is no constraint", MethodSignature{Name: "s", Opcodes: []bytecode.Opcode{}}, abstract, PatternScanResult{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CompareSignatureToMethod(tt.sig, tt.method)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolverMethod(t *testing.T) {
	assert.Equal(t, 0, Exact().Threshold())
	assert.False(t, Exact().IsFuzzy())
	assert.Equal(t, 2, Fuzzy(2).Threshold())
	assert.True(t, Fuzzy(2).IsFuzzy())
	assert.Equal(t, 0, Fuzzy(-3).Threshold())
	assert.Equal(t, "fuzzy(2)", Fuzzy(2).String())
	assert.Equal(t, "exact", Exact().String())
}

func TestMethodSignatureValidate(t *testing.T) {
	assert.NoError(t, MethodSignature{Name: "ok", Method: Fuzzy(1)}.Validate())
	assert.Error(t, MethodSignature{}.Validate())
	assert.Error(t, MethodSignature{Name: "neg", Method: Fuzzy(-1)}.Validate())
}
