package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daimatz/gopatcher/pkg/bytecode"
	"github.com/daimatz/gopatcher/pkg/classfile/classfiletest"
)

func code(ops ...bytecode.Opcode) []byte {
	b := make([]byte, len(ops))
	for i, op := range ops {
		b[i] = byte(op)
	}
	return b
}

// writeTestCorpus writes com/example/Main and com/example/Util into a fresh
// directory and returns it.
func writeTestCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if _, err := classfiletest.New("com/example/Main", "java/lang/Object").
		Method(0x9, "main", "([Ljava/lang/String;)V", code(bytecode.OpReturn)).
		WriteFile(dir, "com/example/Main"); err != nil {
		t.Fatalf("write Main: %v", err)
	}
	if _, err := classfiletest.New("com/example/Util", "java/lang/Object").
		Flags(0x31).
		Method(0x9, "add", "(II)I", code(bytecode.OpIload0, bytecode.OpIload1, bytecode.OpIadd, bytecode.OpIreturn)).
		WriteFile(dir, "com/example/Util"); err != nil {
		t.Fatalf("write Util: %v", err)
	}
	return dir
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const testSignatures = `
signatures:
  - name: adder
    returnType: I
    parameters: [I, I]
    opcodes: [iload_0, iload_1, iadd]
  - name: missing
    returnType: Z
`

func TestResolveCmd(t *testing.T) {
	dir := writeTestCorpus(t)
	sigPath := filepath.Join(t.TempDir(), "sigs.yaml")
	if err := os.WriteFile(sigPath, []byte(testSignatures), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	metricsPath := filepath.Join(t.TempDir(), "resolver.prom")

	out, err := runCmd(t, "resolve", "--log-level", "error", "-s", sigPath, "--metrics-file", metricsPath, dir)
	if err != nil {
		t.Fatalf("resolve: %v\noutput:\n%s", err, out)
	}

	want := "adder\t1\tcom/example/Util\tadd\t[0, 3)\n"
	if !strings.Contains(out, want) {
		t.Fatalf("resolve output = %q, want to contain %q", out, want)
	}
	if !strings.Contains(out, "missing\t-\t-\t-\t-\n") {
		t.Fatalf("resolve output = %q, want an unresolved row for missing", out)
	}

	metrics, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("ReadFile(metrics): %v", err)
	}
	for _, name := range []string{"gopatcher_resolver_signatures_resolved_total 1", "gopatcher_resolver_signatures_unresolved 1"} {
		if !strings.Contains(string(metrics), name) {
			t.Fatalf("metrics file missing %q:\n%s", name, metrics)
		}
	}

	_, err = runCmd(t, "resolve", "--log-level", "error", "--strict", "-s", sigPath, dir)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("strict resolve error = %v, want 1 of 2 unresolved", err)
	}
}

func TestResolveCmdRequiresSignatures(t *testing.T) {
	if _, err := runCmd(t, "resolve", writeTestCorpus(t)); err == nil {
		t.Fatal("resolve without --signatures succeeded")
	}
}

func TestFindCmd(t *testing.T) {
	dir := writeTestCorpus(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "by name", args: []string{"--name", "Util"}, want: "1\tcom/example/Util\tjava/lang/Object\t0x0031\t1\n"},
		{name: "by expression", args: []string{"--where", `any(methods, .name == "main")`}, want: "0\tcom/example/Main\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"find", "--log-level", "error"}, tt.args...)
			out, err := runCmd(t, append(args, dir)...)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("find output = %q, want to contain %q", out, tt.want)
			}
		})
	}

	_, err := runCmd(t, "find", "--log-level", "error", "--name", "Nope", dir)
	if !errors.Is(err, errNoMatch) {
		t.Fatalf("find absent class error = %v, want errNoMatch", err)
	}

	if _, err := runCmd(t, "find", "--where", "type +", dir); err == nil {
		t.Fatal("find with a malformed expression succeeded")
	}
}

func TestDumpCmd(t *testing.T) {
	out, err := runCmd(t, "dump", "--log-level", "error", "--match", "Util", writeTestCorpus(t))
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := "1\tcom/example/Util\tadd(II)I\t0x0009\tpublic static\tiload_0 iload_1 iadd ireturn\n"
	if !strings.Contains(out, want) {
		t.Fatalf("dump output = %q, want to contain %q", out, want)
	}
	if strings.Contains(out, "Main") {
		t.Fatalf("dump output = %q, want Main filtered out", out)
	}
}
