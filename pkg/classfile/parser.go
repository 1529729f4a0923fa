package classfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const classMagic = 0xCAFEBABE

// classReader reads big-endian class-file primitives.
type classReader struct {
	r   io.Reader
	buf [4]byte
}

func (cr *classReader) u1() (uint8, error) {
	if _, err := io.ReadFull(cr.r, cr.buf[:1]); err != nil {
		return 0, err
	}
	return cr.buf[0], nil
}

func (cr *classReader) u2() (uint16, error) {
	if _, err := io.ReadFull(cr.r, cr.buf[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(cr.buf[:2]), nil
}

func (cr *classReader) u4() (uint32, error) {
	if _, err := io.ReadFull(cr.r, cr.buf[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(cr.buf[:4]), nil
}

func (cr *classReader) bytes(n int) ([]byte, error) {
	data := make([]byte, n)
	if _, err := io.ReadFull(cr.r, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (cr *classReader) skip(n int) error {
	_, err := io.CopyN(io.Discard, cr.r, int64(n))
	return err
}

// u2s reads a u2 count followed by that many u2 values.
func (cr *classReader) u2s() ([]uint16, error) {
	count, err := cr.u2()
	if err != nil {
		return nil, err
	}
	vals := make([]uint16, count)
	for i := range vals {
		if vals[i], err = cr.u2(); err != nil {
			return nil, fmt.Errorf("reading entry %d: %w", i, err)
		}
	}
	return vals, nil
}

// ParseFile opens and parses a .class file from the given path.
func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(bufio.NewReader(f))
}

// Parse reads a .class file from the given reader and returns a ClassFile.
func Parse(r io.Reader) (*ClassFile, error) {
	cr := &classReader{r: r}
	cf := &ClassFile{}

	magic, err := cr.u4()
	if err != nil {
		return nil, fmt.Errorf("reading magic number: %w", err)
	}
	if magic != classMagic {
		return nil, fmt.Errorf("invalid magic number: 0x%X (expected 0xCAFEBABE)", magic)
	}

	if cf.MinorVersion, err = cr.u2(); err != nil {
		return nil, fmt.Errorf("reading minor version: %w", err)
	}
	if cf.MajorVersion, err = cr.u2(); err != nil {
		return nil, fmt.Errorf("reading major version: %w", err)
	}

	cpCount, err := cr.u2()
	if err != nil {
		return nil, fmt.Errorf("reading constant pool count: %w", err)
	}
	if cf.ConstantPool, err = parseConstantPool(cr, cpCount); err != nil {
		return nil, fmt.Errorf("parsing constant pool: %w", err)
	}

	if cf.AccessFlags, err = cr.u2(); err != nil {
		return nil, fmt.Errorf("reading access flags: %w", err)
	}
	if cf.ThisClass, err = cr.u2(); err != nil {
		return nil, fmt.Errorf("reading this_class: %w", err)
	}
	if cf.SuperClass, err = cr.u2(); err != nil {
		return nil, fmt.Errorf("reading super_class: %w", err)
	}
	if cf.Interfaces, err = cr.u2s(); err != nil {
		return nil, fmt.Errorf("reading interfaces: %w", err)
	}

	fieldsCount, err := cr.u2()
	if err != nil {
		return nil, fmt.Errorf("reading fields count: %w", err)
	}
	cf.Fields = make([]FieldInfo, fieldsCount)
	for i := range cf.Fields {
		m, err := parseMember(cr, cf.ConstantPool)
		if err != nil {
			return nil, fmt.Errorf("parsing field %d: %w", i, err)
		}
		cf.Fields[i] = FieldInfo(m)
	}

	methodsCount, err := cr.u2()
	if err != nil {
		return nil, fmt.Errorf("reading methods count: %w", err)
	}
	cf.Methods = make([]MethodInfo, methodsCount)
	for i := range cf.Methods {
		m, err := parseMember(cr, cf.ConstantPool)
		if err != nil {
			return nil, fmt.Errorf("parsing method %d: %w", i, err)
		}
		method := MethodInfo{
			AccessFlags: m.AccessFlags,
			Name:        m.Name,
			Descriptor:  m.Descriptor,
			Attributes:  m.Attributes,
		}
		for _, attr := range m.Attributes {
			if attr.Name == "Code" {
				if method.Code, err = parseCodeAttribute(attr.Data); err != nil {
					return nil, fmt.Errorf("parsing Code attribute for method %s: %w", m.Name, err)
				}
				break
			}
		}
		cf.Methods[i] = method
	}

	// Class-level attributes carry nothing the class model uses.
	if _, err := parseAttributeInfos(cr, cf.ConstantPool); err != nil {
		return nil, fmt.Errorf("parsing class attributes: %w", err)
	}

	return cf, nil
}

// member is the layout shared by field_info and method_info.
type member struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  []AttributeInfo
}

func parseMember(cr *classReader, pool []ConstantPoolEntry) (member, error) {
	var m member
	accessFlags, err := cr.u2()
	if err != nil {
		return m, fmt.Errorf("reading access flags: %w", err)
	}
	nameIndex, err := cr.u2()
	if err != nil {
		return m, fmt.Errorf("reading name index: %w", err)
	}
	descIndex, err := cr.u2()
	if err != nil {
		return m, fmt.Errorf("reading descriptor index: %w", err)
	}

	if m.Name, err = GetUtf8(pool, nameIndex); err != nil {
		return m, fmt.Errorf("resolving name: %w", err)
	}
	if m.Descriptor, err = GetUtf8(pool, descIndex); err != nil {
		return m, fmt.Errorf("resolving descriptor: %w", err)
	}
	if m.Attributes, err = parseAttributeInfos(cr, pool); err != nil {
		return m, fmt.Errorf("parsing attributes of %s: %w", m.Name, err)
	}
	m.AccessFlags = accessFlags
	return m, nil
}

func parseAttributeInfos(cr *classReader, pool []ConstantPoolEntry) ([]AttributeInfo, error) {
	count, err := cr.u2()
	if err != nil {
		return nil, fmt.Errorf("reading attributes count: %w", err)
	}
	attrs := make([]AttributeInfo, count)
	for i := range attrs {
		nameIndex, err := cr.u2()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d name index: %w", i, err)
		}
		length, err := cr.u4()
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d length: %w", i, err)
		}
		data, err := cr.bytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("reading attribute %d data: %w", i, err)
		}
		name, err := GetUtf8(pool, nameIndex)
		if err != nil {
			return nil, fmt.Errorf("resolving attribute %d name: %w", i, err)
		}
		attrs[i] = AttributeInfo{Name: name, Data: data}
	}
	return attrs, nil
}

func parseCodeAttribute(data []byte) (*CodeAttribute, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("Code attribute too short: %d bytes", len(data))
	}

	maxStack := binary.BigEndian.Uint16(data[0:2])
	maxLocals := binary.BigEndian.Uint16(data[2:4])
	codeLength := binary.BigEndian.Uint32(data[4:8])

	if uint64(len(data)) < 8+uint64(codeLength) {
		return nil, fmt.Errorf("Code attribute data too short for code_length %d", codeLength)
	}

	code := make([]byte, codeLength)
	copy(code, data[8:8+codeLength])

	offset := 8 + int(codeLength)
	var handlers []ExceptionHandler
	if offset+2 <= len(data) {
		exTableLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
		offset += 2
		for i := 0; i < exTableLen && offset+8 <= len(data); i++ {
			handlers = append(handlers, ExceptionHandler{
				StartPC:   binary.BigEndian.Uint16(data[offset : offset+2]),
				EndPC:     binary.BigEndian.Uint16(data[offset+2 : offset+4]),
				HandlerPC: binary.BigEndian.Uint16(data[offset+4 : offset+6]),
				CatchType: binary.BigEndian.Uint16(data[offset+6 : offset+8]),
			})
			offset += 8
		}
	}

	return &CodeAttribute{
		MaxStack:          maxStack,
		MaxLocals:         maxLocals,
		Code:              code,
		ExceptionHandlers: handlers,
	}, nil
}

// ClassName returns the fully qualified name of this class.
func (cf *ClassFile) ClassName() (string, error) {
	return GetClassName(cf.ConstantPool, cf.ThisClass)
}

// SuperClassName returns the fully qualified name of the super class.
// Returns "" if this is java/lang/Object (SuperClass == 0).
func (cf *ClassFile) SuperClassName() string {
	if cf.SuperClass == 0 {
		return ""
	}
	name, err := GetClassName(cf.ConstantPool, cf.SuperClass)
	if err != nil {
		return ""
	}
	return name
}

// FindMethod finds a method by name and descriptor.
func (cf *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name && cf.Methods[i].Descriptor == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

// FindMethodByName finds a method by name only (first match).
func (cf *ClassFile) FindMethodByName(name string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name {
			return &cf.Methods[i]
		}
	}
	return nil
}
