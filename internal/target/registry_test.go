package target

import (
	"strings"
	"testing"
)

func TestGetKnowsCAndLLVM(t *testing.T) {
	if _, err := Get("c"); err != nil {
		t.Errorf("Get(c) = %v, want a valid target", err)
	}
	if _, err := Get("llvm"); err != nil {
		t.Errorf("Get(llvm) = %v, want a valid target", err)
	}
}

func TestGetRejectsUnknownName(t *testing.T) {
	_, err := Get("wasm")
	if err == nil {
		t.Fatal("expected an error for an unregistered target name")
	}
	if !strings.Contains(err.Error(), "wasm") {
		t.Errorf("error %q should mention the bad name", err)
	}
}

func TestNamesIsSortedAndComplete(t *testing.T) {
	names := Names()
	if len(names) != 2 {
		t.Fatalf("Names() = %v, want 2 entries", names)
	}
	if names[0] != "c" || names[1] != "llvm" {
		t.Errorf("Names() = %v, want sorted [c llvm]", names)
	}
}
