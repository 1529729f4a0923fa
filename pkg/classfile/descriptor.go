package classfile

import (
	"fmt"
	"strings"
)

// MethodDescriptor is a method descriptor split into its parts, e.g.
// "(ILjava/lang/String;)V" has parameters ["I", "Ljava/lang/String;"] and return type "V".
type MethodDescriptor struct {
	Parameters []string
	ReturnType string
}

func (d MethodDescriptor) String() string {
	return "(" + strings.Join(d.Parameters, "") + ")" + d.ReturnType
}

// ParseMethodDescriptor parses a JVM method descriptor.
func ParseMethodDescriptor(desc string) (MethodDescriptor, error) {
	var md MethodDescriptor
	if !strings.HasPrefix(desc, "(") {
		return md, fmt.Errorf("method descriptor %q: missing '('", desc)
	}

	pos := 1
	for {
		if pos >= len(desc) {
			return md, fmt.Errorf("method descriptor %q: missing ')'", desc)
		}
		if desc[pos] == ')' {
			pos++
			break
		}
		n, err := fieldTypeLength(desc[pos:])
		if err != nil {
			return md, fmt.Errorf("method descriptor %q: parameter %d: %w", desc, len(md.Parameters), err)
		}
		md.Parameters = append(md.Parameters, desc[pos:pos+n])
		pos += n
	}

	ret := desc[pos:]
	if ret != "V" {
		n, err := fieldTypeLength(ret)
		if err != nil {
			return md, fmt.Errorf("method descriptor %q: return type: %w", desc, err)
		}
		if n != len(ret) {
			return md, fmt.Errorf("method descriptor %q: trailing data after return type", desc)
		}
	}
	md.ReturnType = ret
	return md, nil
}

// fieldTypeLength returns the length of the field type descriptor at the start of s.
func fieldTypeLength(s string) (int, error) {
	dims := 0
	for dims < len(s) && s[dims] == '[' {
		dims++
	}
	if dims == len(s) {
		return 0, fmt.Errorf("truncated type")
	}
	switch s[dims] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return dims + 1, nil
	case 'L':
		end := strings.IndexByte(s[dims:], ';')
		if end < 0 {
			return 0, fmt.Errorf("unterminated class type %q", s[dims:])
		}
		return dims + end + 1, nil
	default:
		return 0, fmt.Errorf("invalid type character %q", s[dims])
	}
}
