package preprocess

import (
	"testing"

	"roguec/internal/token"
)

func scan(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, d := token.New("test.rogue", src).Scan()
	if d != nil {
		t.Fatalf("Scan(%q): %v", src, d)
	}
	return toks
}

func identText(toks []token.Token) []string {
	var out []string
	for _, tok := range toks {
		if tok.Type == token.Identifier || tok.Type == token.TypeIdentifier {
			out = append(out, tok.Text())
		}
	}
	return out
}

func TestProcessExpandsSimpleDefine(t *testing.T) {
	src := "$define greeting hello\ngreeting\n"
	out, d := New(nil).Process(scan(t, src))
	if d != nil {
		t.Fatalf("Process: %v", d)
	}
	names := identText(out)
	if len(names) != 1 || names[0] != "hello" {
		t.Errorf("expanded identifiers = %v, want [hello]", names)
	}
}

func TestProcessUndefineRemovesMacro(t *testing.T) {
	src := "$define greeting hello\n$undefine greeting\ngreeting\n"
	out, d := New(nil).Process(scan(t, src))
	if d != nil {
		t.Fatalf("Process: %v", d)
	}
	names := identText(out)
	if len(names) != 1 || names[0] != "greeting" {
		t.Errorf("expanded identifiers = %v, want [greeting] (no longer a macro)", names)
	}
}

func TestProcessIfTakesTrueBranchOnly(t *testing.T) {
	src := "$define FEATURE true\n$if FEATURE\nonBranch\n$else\noffBranch\n$endIf\n"
	out, d := New(nil).Process(scan(t, src))
	if d != nil {
		t.Fatalf("Process: %v", d)
	}
	names := identText(out)
	if len(names) != 1 || names[0] != "onBranch" {
		t.Errorf("expanded identifiers = %v, want [onBranch]", names)
	}
}

func TestProcessIfFalseTakesElseBranch(t *testing.T) {
	src := "$if false\nonBranch\n$else\noffBranch\n$endIf\n"
	out, d := New(nil).Process(scan(t, src))
	if d != nil {
		t.Fatalf("Process: %v", d)
	}
	names := identText(out)
	if len(names) != 1 || names[0] != "offBranch" {
		t.Errorf("expanded identifiers = %v, want [offBranch]", names)
	}
}

func TestProcessIfElseIfChain(t *testing.T) {
	src := "$if false\nfirst\n$elseIf true\nsecond\n$else\nthird\n$endIf\n"
	out, d := New(nil).Process(scan(t, src))
	if d != nil {
		t.Fatalf("Process: %v", d)
	}
	names := identText(out)
	if len(names) != 1 || names[0] != "second" {
		t.Errorf("expanded identifiers = %v, want [second]", names)
	}
}

func TestProcessCollectsIncludeDirectives(t *testing.T) {
	src := "$include \"Other.rogue\"\n$includeNativeCode \"glue.c\"\n$includeNativeHeader \"glue.h\"\n"
	p := New(nil)
	_, d := p.Process(scan(t, src))
	if d != nil {
		t.Fatalf("Process: %v", d)
	}
	incs := p.Includes()
	if len(incs) != 3 {
		t.Fatalf("Includes() = %v, want 3 entries", incs)
	}
	if incs[0].Kind != IncludeSource || incs[0].Path != "Other.rogue" {
		t.Errorf("incs[0] = %+v", incs[0])
	}
	if incs[1].Kind != IncludeNativeCode || incs[1].Path != "glue.c" {
		t.Errorf("incs[1] = %+v", incs[1])
	}
	if incs[2].Kind != IncludeNativeHeader || incs[2].Path != "glue.h" {
		t.Errorf("incs[2] = %+v", incs[2])
	}
}

func TestProcessUnmatchedIfErrors(t *testing.T) {
	src := "$if true\nonBranch\n"
	_, d := New(nil).Process(scan(t, src))
	if d == nil {
		t.Fatal("expected a diagnostic for an unterminated $if")
	}
}

func TestProcessNegationAndConjunction(t *testing.T) {
	src := "$define A true\n$if !A && false\nx\n$else\ny\n$endIf\n"
	out, d := New(nil).Process(scan(t, src))
	if d != nil {
		t.Fatalf("Process: %v", d)
	}
	names := identText(out)
	if len(names) != 1 || names[0] != "y" {
		t.Errorf("expanded identifiers = %v, want [y]", names)
	}
}
