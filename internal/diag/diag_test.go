package diag

import (
	"strings"
	"testing"
)

func TestExitCodeMapsKindsPerSpec(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Syntax, 1},
		{TypeErr, 1},
		{Overload, 1},
		{TemplateErr, 1},
		{TaskLowering, 1},
		{IO, 2},
		{Internal, 3},
	}
	for _, c := range cases {
		if got := c.kind.ExitCode(); got != c.want {
			t.Errorf("%s.ExitCode() = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestLocationStringEmptyWithoutFilepath(t *testing.T) {
	if got := (Location{}).String(); got != "" {
		t.Errorf("empty Location.String() = %q, want empty", got)
	}
	loc := Location{Filepath: "a.rogue", Line: 3, Column: 5}
	if got, want := loc.String(), "a.rogue:3:5"; got != want {
		t.Errorf("Location.String() = %q, want %q", got, want)
	}
}

func TestDiagnosticErrorIncludesLocationAndSourceLine(t *testing.T) {
	d := New(Syntax, Location{Filepath: "a.rogue", Line: 2, Column: 4}, "unexpected %s", "token")
	d = d.WithSource("x := 1 + ;")
	msg := d.Error()
	if !strings.Contains(msg, "SyntaxError: unexpected token") {
		t.Errorf("Error() = %q, missing kind/message", msg)
	}
	if !strings.Contains(msg, "a.rogue:2:4") {
		t.Errorf("Error() = %q, missing location", msg)
	}
	if !strings.Contains(msg, "x := 1 + ;") {
		t.Errorf("Error() = %q, missing source line", msg)
	}
}

func TestDiagnosticErrorIncludesCandidates(t *testing.T) {
	d := New(Overload, Location{}, "ambiguous call").WithCandidates([]string{"f(Integer)", "f(Real)"})
	msg := d.Error()
	if !strings.Contains(msg, "f(Integer)") || !strings.Contains(msg, "f(Real)") {
		t.Errorf("Error() = %q, missing candidates", msg)
	}
}

func TestBagTracksFatalAndFirst(t *testing.T) {
	var b Bag
	if b.HasFatal() {
		t.Fatal("empty Bag should not report a fatal")
	}
	if b.First() != nil {
		t.Fatal("empty Bag.First() should be nil")
	}
	d1 := New(Syntax, Location{}, "first")
	d2 := New(Syntax, Location{}, "second")
	b.Add(d1)
	b.Add(d2)
	if !b.HasFatal() {
		t.Fatal("Bag with items should report a fatal")
	}
	if b.First() != d1 {
		t.Error("Bag.First() should return the first added diagnostic")
	}
	if len(b.Items()) != 2 {
		t.Errorf("Bag.Items() len = %d, want 2", len(b.Items()))
	}
}

