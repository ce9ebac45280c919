package ast

import (
	"testing"

	"roguec/internal/token"
)

func TestCloneDeepCopiesSubtreeButSharesToken(t *testing.T) {
	tok := token.Token{}
	leaf := &Cmd{Kind: KindLiteralInteger, Token: tok, IntegerValue: 7}
	root := &Cmd{
		Kind: KindAdd,
		A:    leaf,
		B:    &Cmd{Kind: KindLiteralInteger, IntegerValue: 8},
		List: []*Cmd{{Kind: KindReadLocal, Name: "x"}},
	}

	clone := root.Clone()

	if clone == root {
		t.Fatal("Clone() returned the same pointer")
	}
	if clone.A == root.A {
		t.Error("Clone() should deep-copy the A operand")
	}
	if clone.A.IntegerValue != 7 {
		t.Errorf("clone.A.IntegerValue = %d, want 7", clone.A.IntegerValue)
	}
	if len(clone.List) != 1 || clone.List[0] == root.List[0] {
		t.Error("Clone() should deep-copy List elements")
	}
	if clone.List[0].Name != "x" {
		t.Errorf("clone.List[0].Name = %q, want x", clone.List[0].Name)
	}

	// mutating the clone must not affect the original
	clone.A.IntegerValue = 99
	if root.A.IntegerValue != 7 {
		t.Error("mutating clone.A should not affect root.A")
	}
}

func TestCloneNilIsNil(t *testing.T) {
	var c *Cmd
	if c.Clone() != nil {
		t.Error("Clone() of a nil Cmd should be nil")
	}
}

func TestIsLiteral(t *testing.T) {
	if !(&Cmd{Kind: KindLiteralInteger}).IsLiteral() {
		t.Error("KindLiteralInteger should be a literal")
	}
	if (&Cmd{Kind: KindAdd}).IsLiteral() {
		t.Error("KindAdd should not be a literal")
	}
}

func TestRequiresSemicolon(t *testing.T) {
	if (&Cmd{Kind: KindIf}).RequiresSemicolon() {
		t.Error("KindIf emits its own braces, should not require a semicolon")
	}
	if !(&Cmd{Kind: KindAssign}).RequiresSemicolon() {
		t.Error("KindAssign should require a semicolon")
	}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	root := &Cmd{
		Kind: KindStatementList,
		List: []*Cmd{
			{Kind: KindAssign, A: &Cmd{Kind: KindReadLocal}, B: &Cmd{Kind: KindLiteralInteger}},
			{Kind: KindReadGlobal},
		},
	}
	var kinds []Kind
	Walk(root, func(c *Cmd) { kinds = append(kinds, c.Kind) })

	if len(kinds) != 5 {
		t.Fatalf("Walk visited %d nodes, want 5: %v", len(kinds), kinds)
	}
}

func TestWalkNilIsNoop(t *testing.T) {
	calls := 0
	Walk(nil, func(c *Cmd) { calls++ })
	if calls != 0 {
		t.Errorf("Walk(nil, ...) called visit %d times, want 0", calls)
	}
}
