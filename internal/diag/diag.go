// Package diag implements the compiler's error taxonomy (spec §7).
package diag

import (
	"fmt"
	"strings"
)

// Kind is the closed set of fatal diagnostic categories the compiler can
// report. Every fatal error the compiler raises carries exactly one Kind.
type Kind string

const (
	Syntax       Kind = "SyntaxError"
	TypeErr      Kind = "TypeError"
	Overload     Kind = "OverloadError"
	TemplateErr  Kind = "TemplateError"
	TaskLowering Kind = "TaskLoweringError"
	IO           Kind = "IOError"
	Internal     Kind = "InternalError"
)

// ExitCode maps a Kind to the CLI exit code from spec §6.
func (k Kind) ExitCode() int {
	switch k {
	case IO:
		return 2
	case Internal:
		return 3
	default:
		return 1
	}
}

// Location pins a diagnostic to a point in a source file.
type Location struct {
	Filepath string
	Line     int
	Column   int
}

func (l Location) String() string {
	if l.Filepath == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.Filepath, l.Line, l.Column)
}

// Diagnostic is a single fatal or advisory compiler message.
type Diagnostic struct {
	Kind       Kind
	Message    string
	Location   Location
	SourceLine string
	Candidates []string // formatted candidate signatures, for Overload
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", d.Kind, d.Message)
	if loc := d.Location.String(); loc != "" {
		fmt.Fprintf(&b, "\n  at %s", loc)
	}
	if d.SourceLine != "" {
		fmt.Fprintf(&b, "\n\n  %d | %s\n", d.Location.Line, d.SourceLine)
		indent := strings.Repeat(" ", len(fmt.Sprintf("%d | ", d.Location.Line)))
		if d.Location.Column > 0 {
			indent += strings.Repeat(" ", d.Location.Column-1)
		}
		fmt.Fprintf(&b, "  %s^\n", indent)
	}
	for _, c := range d.Candidates {
		fmt.Fprintf(&b, "\n  candidate: %s", c)
	}
	return b.String()
}

func New(kind Kind, loc Location, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Location: loc}
}

func (d *Diagnostic) WithSource(line string) *Diagnostic {
	d.SourceLine = line
	return d
}

func (d *Diagnostic) WithCandidates(cands []string) *Diagnostic {
	d.Candidates = cands
	return d
}

// Bag accumulates diagnostics produced while the compiler still tries to
// make forward progress (e.g. the parser keeps parsing after a bad
// statement so it can report more than one syntax error per run).
// The first Fatal diagnostic recorded short-circuits the compile: callers
// check HasFatal after every phase and stop before starting the next one.
type Bag struct {
	items []*Diagnostic
}

func (b *Bag) Add(d *Diagnostic) {
	b.items = append(b.items, d)
}

func (b *Bag) Items() []*Diagnostic {
	return b.items
}

func (b *Bag) HasFatal() bool {
	return len(b.items) > 0
}

func (b *Bag) First() *Diagnostic {
	if len(b.items) == 0 {
		return nil
	}
	return b.items[0]
}
