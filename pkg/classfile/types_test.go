package classfile

import "testing"

func TestMethodAccessFlag(t *testing.T) {
	tests := []struct {
		name string
		flag uint16
		ok   bool
	}{
		{"public", AccPublic, true},
		{"Static", AccStatic, true},
		{"synchronized", AccSynchronized, true},
		{"varargs", AccVarargs, true},
		{"volatile", 0, false}, // field only
		{"", 0, false},
	}
	for _, tt := range tests {
		flag, ok := MethodAccessFlag(tt.name)
		if flag != tt.flag || ok != tt.ok {
			t.Errorf("MethodAccessFlag(%q) = %#x, %v; want %#x, %v", tt.name, flag, ok, tt.flag, tt.ok)
		}
	}
}

func TestMethodAccessString(t *testing.T) {
	tests := []struct {
		flags uint16
		want  string
	}{
		{0, ""},
		{AccPublic | AccStatic, "public static"},
		{AccPrivate | AccFinal | AccSynthetic, "private final synthetic"},
	}
	for _, tt := range tests {
		if got := MethodAccessString(tt.flags); got != tt.want {
			t.Errorf("MethodAccessString(%#x) = %q, want %q", tt.flags, got, tt.want)
		}
	}
}
