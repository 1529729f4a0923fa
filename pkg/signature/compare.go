package signature

import (
	"strings"

	"github.com/daimatz/gopatcher/pkg/bytecode"
	"github.com/daimatz/gopatcher/pkg/classdef"
)

// CompareSignatureToMethod tests method against every filter of sig. On
// success it returns the window matched by the opcode pattern, or the zero
// window when sig has no pattern.
func CompareSignatureToMethod(sig MethodSignature, method classdef.Method) (PatternScanResult, bool) {
	if sig.ReturnType != "" && !strings.HasPrefix(method.ReturnType(), sig.ReturnType) {
		return PatternScanResult{}, false
	}

	if sig.AccessFlags != nil && *sig.AccessFlags != method.AccessFlags() {
		return PatternScanResult{}, false
	}

	if sig.Parameters != nil && !compareParameterTypes(sig.Parameters, method.ParameterTypes()) {
		return PatternScanResult{}, false
	}

	if len(sig.Opcodes) == 0 {
		return PatternScanResult{}, true
	}
	return scanOpcodes(method.Instructions(), sig.Opcodes, sig.Method.Threshold())
}

// compareParameterTypes requires equal counts and that every expected type is
// a prefix of at least one actual type. Positions and multiplicity are not
// compared: expected (I, L) accepts actual (Ljava/lang/String;, I), and
// expected (I, I) accepts actual (I, J).
func compareParameterTypes(expected, actual []string) bool {
	if len(expected) != len(actual) {
		return false
	}
	for _, want := range expected {
		found := false
		for _, have := range actual {
			if strings.HasPrefix(have, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// scanOpcodes looks for pattern in insns, tolerating up to threshold
// mismatches per starting offset. A mismatching position still consumes one
// pattern element; the scan never realigns. The first start offset whose
// window reaches the pattern length wins.
func scanOpcodes(insns []bytecode.Instruction, pattern []bytecode.Opcode, threshold int) (PatternScanResult, bool) {
	n := len(insns)
	for start := 0; start < n; start++ {
		budget := threshold
		for pi := 0; start+pi < n; {
			if insns[start+pi].Opcode != pattern[pi] {
				if budget == 0 {
					break
				}
				budget--
			}
			pi++
			if pi == len(pattern) {
				return PatternScanResult{Start: start, End: start + pi}, true
			}
		}
	}
	return PatternScanResult{}, false
}
