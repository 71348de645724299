package builtins

import (
	"math"
	"testing"
)

func TestPurity(t *testing.T) {
	tests := []struct {
		keys      []string
		access    bool
		call      bool
		construct bool
	}{
		{[]string{"Math"}, true, false, false},
		{[]string{"Math", "max"}, true, true, false},
		{[]string{"Math", "PI"}, true, false, false},
		{[]string{"Math", "nope"}, false, false, false},
		{[]string{"Object", "keys"}, true, true, false},
		{[]string{"Object", "assign"}, true, false, false},
		{[]string{"Map"}, true, true, true},
		{[]string{"Symbol"}, true, true, false},
		{[]string{"Promise"}, true, false, false},
		{[]string{"console", "log"}, true, false, false},
		{[]string{"document"}, false, false, false},
		{[]string{"Math", "max", "length"}, false, false, false},
		{nil, false, false, false},
	}
	for _, tt := range tests {
		if got := IsPureAccess(tt.keys); got != tt.access {
			t.Errorf("IsPureAccess(%v) = %v, want %v", tt.keys, got, tt.access)
		}
		if got := IsPureCall(tt.keys); got != tt.call {
			t.Errorf("IsPureCall(%v) = %v, want %v", tt.keys, got, tt.call)
		}
		if got := IsPureConstructor(tt.keys); got != tt.construct {
			t.Errorf("IsPureConstructor(%v) = %v, want %v", tt.keys, got, tt.construct)
		}
	}
}

func TestKnownGlobals(t *testing.T) {
	for _, name := range []string{"undefined", "NaN", "Object", "Math", "console", "parseInt"} {
		if !IsKnownGlobal(name) {
			t.Errorf("%s should be a known global", name)
		}
	}
	for _, name := range []string{"window", "process", "myGlobal"} {
		if IsKnownGlobal(name) {
			t.Errorf("%s should not be a known global", name)
		}
	}
}

func TestNumberConstant(t *testing.T) {
	if n, ok := NumberConstant("NaN"); !ok || !math.IsNaN(n) {
		t.Errorf("NaN: got (%v, %v)", n, ok)
	}
	if n, ok := NumberConstant("Infinity"); !ok || !math.IsInf(n, 1) {
		t.Errorf("Infinity: got (%v, %v)", n, ok)
	}
	if _, ok := NumberConstant("undefined"); ok {
		t.Error("undefined is not a number constant")
	}
}
