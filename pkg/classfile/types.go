package classfile

import "strings"

// Access flags. Several bits mean different things on classes, fields and
// methods, so the shared values appear once per meaning.
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccProtected = 0x0004
	AccStatic    = 0x0008
	AccFinal     = 0x0010

	AccSuper        = 0x0020 // class
	AccSynchronized = 0x0020 // method
	AccVolatile     = 0x0040 // field
	AccBridge       = 0x0040 // method
	AccTransient    = 0x0080 // field
	AccVarargs      = 0x0080 // method

	AccNative     = 0x0100
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccStrict     = 0x0800
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
)

var methodAccess = []struct {
	name string
	flag uint16
}{
	{"public", AccPublic},
	{"private", AccPrivate},
	{"protected", AccProtected},
	{"static", AccStatic},
	{"final", AccFinal},
	{"synchronized", AccSynchronized},
	{"bridge", AccBridge},
	{"varargs", AccVarargs},
	{"native", AccNative},
	{"abstract", AccAbstract},
	{"strict", AccStrict},
	{"synthetic", AccSynthetic},
}

// MethodAccessFlag returns the method access flag called name, ignoring case.
func MethodAccessFlag(name string) (uint16, bool) {
	for _, a := range methodAccess {
		if strings.EqualFold(a.name, name) {
			return a.flag, true
		}
	}
	return 0, false
}

// MethodAccessString renders method flags as modifier names, e.g.
// "public static".
func MethodAccessString(flags uint16) string {
	var names []string
	for _, a := range methodAccess {
		if flags&a.flag != 0 {
			names = append(names, a.name)
		}
	}
	return strings.Join(names, " ")
}

// ClassFile represents a parsed .class file.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool []ConstantPoolEntry
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
}

// ConstantPoolEntry is an interface implemented by all constant pool types.
type ConstantPoolEntry interface {
	Tag() uint8
}

// ConstantUtf8 holds a decoded CONSTANT_Utf8 string.
type ConstantUtf8 struct {
	Value string
}

func (c *ConstantUtf8) Tag() uint8 { return TagUtf8 }

// ConstantClass refers to the Utf8 entry holding a class name.
type ConstantClass struct {
	NameIndex uint16
}

func (c *ConstantClass) Tag() uint8 { return TagClass }

// MethodInfo represents a method in a class file.
type MethodInfo struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []AttributeInfo
	Code        *CodeAttribute
}

// FieldInfo represents a field in a class file.
type FieldInfo struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []AttributeInfo
}

// AttributeInfo represents a raw attribute.
type AttributeInfo struct {
	Name string
	Data []byte
}

// ExceptionHandler represents an entry in the exception table.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// CodeAttribute represents the Code attribute of a method.
type CodeAttribute struct {
	MaxStack          uint16
	MaxLocals         uint16
	Code              []byte
	ExceptionHandlers []ExceptionHandler
}
