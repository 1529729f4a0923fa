// Package signature finds methods in a class corpus by declarative signatures.
//
// A MethodSignature lists optional filters on return type, access flags,
// parameter types and an opcode pattern. Resolver scans a corpus once and
// records the first class/method pair satisfying each signature in a MethodMap.
package signature

import (
	"errors"
	"fmt"

	"github.com/daimatz/gopatcher/pkg/bytecode"
	"github.com/daimatz/gopatcher/pkg/proxy"
)

// ResolverMethod selects how strictly an opcode pattern must match.
type ResolverMethod struct {
	fuzzy     bool
	threshold int
}

// Exact tolerates no opcode mismatch.
func Exact() ResolverMethod { return ResolverMethod{} }

// Fuzzy tolerates up to threshold opcode mismatches within one window.
func Fuzzy(threshold int) ResolverMethod {
	return ResolverMethod{fuzzy: true, threshold: threshold}
}

// IsFuzzy reports whether the method is Fuzzy.
func (m ResolverMethod) IsFuzzy() bool { return m.fuzzy }

// Threshold returns the mismatch budget: 0 for Exact, k for Fuzzy(k).
func (m ResolverMethod) Threshold() int {
	if !m.fuzzy || m.threshold < 0 {
		return 0
	}
	return m.threshold
}

func (m ResolverMethod) String() string {
	if m.fuzzy {
		return fmt.Sprintf("fuzzy(%d)", m.threshold)
	}
	return "exact"
}

// MethodSignature describes a method to find. Zero-valued filters are skipped:
// an empty ReturnType, a nil AccessFlags, a nil Parameters slice and an empty
// Opcodes pattern all match every method. A non-nil empty Parameters slice
// requires a method without parameters.
type MethodSignature struct {
	Name string

	// ReturnType must be a prefix of the method's return type descriptor.
	ReturnType string

	// AccessFlags must equal the method's access flags.
	AccessFlags *uint16

	// Parameters are prefixes of the method's parameter type descriptors.
	Parameters []string

	Opcodes []bytecode.Opcode
	Method  ResolverMethod
}

// Flags returns a pointer to f, for filling MethodSignature.AccessFlags.
func Flags(f uint16) *uint16 { return &f }

// Validate checks that the signature can be used as a MethodMap key and that
// its match method is well formed.
func (s MethodSignature) Validate() error {
	if s.Name == "" {
		return errors.New("signature has no name")
	}
	if s.Method.fuzzy && s.Method.threshold < 0 {
		return fmt.Errorf("signature %s: negative fuzzy threshold %d", s.Name, s.Method.threshold)
	}
	return nil
}

// PatternScanResult is the half-open instruction window [Start, End) where an
// opcode pattern matched. The zero value means the signature had no pattern.
type PatternScanResult struct {
	Start int
	End   int
}

func (r PatternScanResult) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Result is a resolved signature: the class holding the method, where the
// opcode pattern matched, and the method's name.
type Result struct {
	Proxy      *proxy.ClassProxy
	Scan       PatternScanResult
	MethodName string
}
