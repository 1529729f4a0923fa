// Package sigfile reads signature sets from YAML or TOML files.
//
// A file holds a list of signatures:
//
//	signatures:
//	  - name: entry-point
//	    returnType: V
//	    access: [public, static]
//	    parameters: ["[Ljava/lang/String;"]
//	    opcodes: [getstatic, ldc, invokevirtual]
//	    fuzzy: 1
//
// accessFlags may be given as a number instead of access names. Omitting
// fuzzy selects exact matching.
package sigfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/daimatz/gopatcher/pkg/bytecode"
	"github.com/daimatz/gopatcher/pkg/classfile"
	"github.com/daimatz/gopatcher/pkg/signature"
)

// Common errors for signature file loading.
var (
	ErrUnsupportedFormat = errors.New("unsupported signature file format")
	ErrEmptyFile         = errors.New("signature file is empty")
	ErrDuplicateName     = errors.New("duplicate signature name")
	ErrUnknownAccess     = errors.New("unknown access flag name")
)

// File is the on-disk document.
type File struct {
	Signatures []Entry `yaml:"signatures" toml:"signatures"`
}

// Entry is one signature as written in a file.
type Entry struct {
	Name        string   `yaml:"name" toml:"name"`
	ReturnType  string   `yaml:"returnType" toml:"returnType"`
	AccessFlags *uint16  `yaml:"accessFlags" toml:"accessFlags"`
	Access      []string `yaml:"access" toml:"access"`
	Parameters  []string `yaml:"parameters" toml:"parameters"`
	Opcodes     []string `yaml:"opcodes" toml:"opcodes"`
	Fuzzy       *int     `yaml:"fuzzy" toml:"fuzzy"`
}

// Signature converts the entry into a validated MethodSignature.
func (e Entry) Signature() (signature.MethodSignature, error) {
	sig := signature.MethodSignature{
		Name:       e.Name,
		ReturnType: e.ReturnType,
		Parameters: e.Parameters,
	}

	switch {
	case e.AccessFlags != nil && e.Access != nil:
		return sig, fmt.Errorf("signature %s: accessFlags and access are exclusive", e.Name)
	case e.AccessFlags != nil:
		sig.AccessFlags = signature.Flags(*e.AccessFlags)
	case e.Access != nil:
		var flags uint16
		for _, name := range e.Access {
			f, ok := classfile.MethodAccessFlag(name)
			if !ok {
				return sig, fmt.Errorf("signature %s: %w: %q", e.Name, ErrUnknownAccess, name)
			}
			flags |= f
		}
		sig.AccessFlags = signature.Flags(flags)
	}

	if len(e.Opcodes) > 0 {
		ops, err := bytecode.ParseOpcodes(e.Opcodes)
		if err != nil {
			return sig, fmt.Errorf("signature %s: %w", e.Name, err)
		}
		sig.Opcodes = ops
	}
	if e.Fuzzy != nil {
		sig.Method = signature.Fuzzy(*e.Fuzzy)
	}

	if err := sig.Validate(); err != nil {
		return sig, err
	}
	return sig, nil
}

// MethodSignatures converts every entry, rejecting duplicate names.
func (f File) MethodSignatures() ([]signature.MethodSignature, error) {
	seen := make(map[string]struct{}, len(f.Signatures))
	sigs := make([]signature.MethodSignature, 0, len(f.Signatures))
	for i, e := range f.Signatures {
		sig, err := e.Signature()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if _, dup := seen[sig.Name]; dup {
			return nil, fmt.Errorf("entry %d: %w: %s", i, ErrDuplicateName, sig.Name)
		}
		seen[sig.Name] = struct{}{}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// LoadFile reads path and returns its signatures in file order. The format
// is chosen by extension: .yaml/.yml for YAML, .toml for TOML.
func LoadFile(path string) ([]signature.MethodSignature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signature file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	var sigs []signature.MethodSignature
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		sigs, err = ParseYAML(data)
	case ".toml":
		sigs, err = ParseTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, ext, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sigs, nil
}

// ParseYAML parses a YAML signature document.
func ParseYAML(data []byte) ([]signature.MethodSignature, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return f.MethodSignatures()
}

// ParseTOML parses a TOML signature document.
func ParseTOML(data []byte) ([]signature.MethodSignature, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("invalid TOML: unknown key %s", undecoded[0])
	}
	return f.MethodSignatures()
}
