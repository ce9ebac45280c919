// Package program is the top-level orchestrator: it drives every phase
// of spec.md §4 end to end (tokenize, preprocess, scan templates, parse
// bodies, organize, lower tasks, resolve, cull, emit) and hands the
// driver (cmd/roguec) a finished Output plus the Stats internal/report
// needs. Grounded on the teacher's cmd/sentra/commands/build.go, which
// plays the same role for the bytecode pipeline — read every source
// file, hand it through the phases in order, stop at the first fatal
// diagnostic.
package program

import (
	"time"

	"roguec/internal/cull"
	"roguec/internal/diag"
	"roguec/internal/emit"
	"roguec/internal/parse"
	"roguec/internal/preprocess"
	"roguec/internal/resolve"
	"roguec/internal/target"
	"roguec/internal/tasklower"
	"roguec/internal/token"
	"roguec/internal/types"
)

// Options mirrors the CLI flags that affect compilation (spec §6);
// cmd/roguec parses os.Args into one of these.
type Options struct {
	SourceFiles []string
	Target      string
	Main        bool
	Requisites  []string // "Name" or "Name.signature"
	Defines     preprocess.Definitions
	// IncludePaths is searched, in order, to resolve $include/
	// $includeNativeCode/$includeNativeHeader directives: the first
	// source file's own directory, then the libraries-folder
	// environment variable's value (spec §6), in that order.
	IncludePaths []string
}

// Result bundles everything the driver needs to report a run.
type Result struct {
	Output *emit.Output
	Reg    *types.Organizer
	Stats  PhaseStats
}

// PhaseStats is the raw per-phase timing internal/report formats.
type PhaseStats struct {
	Durations map[string]time.Duration
	Total     time.Duration
}

// Compile runs the whole pipeline over opts.SourceFiles, returning a
// *diag.Diagnostic (never a bare error) on any fatal failure so the
// driver can map it straight to spec §6's exit codes.
func Compile(opts Options) (*Result, *diag.Diagnostic) {
	start := time.Now()
	stats := PhaseStats{Durations: map[string]time.Duration{}}
	phase := func(name string, fn func() *diag.Diagnostic) *diag.Diagnostic {
		t0 := time.Now()
		err := fn()
		stats.Durations[name] = time.Since(t0)
		return err
	}

	reg := types.NewOrganizer()
	var allTokens []token.Token

	defs := opts.Defines
	if defs == nil {
		defs = preprocess.NewDefinitions()
	}
	if d := phase("tokenize+preprocess", func() *diag.Diagnostic {
		seen := map[string]bool{}
		for _, path := range opts.SourceFiles {
			toks, d := tokenizeAndPreprocessFile(path, defs, opts.IncludePaths, reg, seen)
			if d != nil {
				return d
			}
			allTokens = append(allTokens, toks...)
		}
		return nil
	}); d != nil {
		return nil, d
	}

	var unit *parse.Unit
	if d := phase("parse", func() *diag.Diagnostic {
		var d *diag.Diagnostic
		unit, d = parse.ScanTemplates(allTokens, "")
		if d != nil {
			return d
		}
		for _, tmpl := range unit.Templates {
			body, d := parse.ParseBody(tmpl, "")
			if d != nil {
				return d
			}
			reg.DefineType(tmpl, body)
		}
		for _, aug := range unit.Augments {
			body, d := parseAugmentBody(aug)
			if d != nil {
				return d
			}
			reg.RegisterAugment(aug, body)
		}
		reg.Requisites = append(reg.Requisites, unit.Requisites...)
		reg.Requisites = append(reg.Requisites, parseRequisiteFlags(opts.Requisites)...)
		return nil
	}); d != nil {
		return nil, d
	}

	if d := phase("organize", func() *diag.Diagnostic {
		return reg.OrganizeAll()
	}); d != nil {
		return nil, d
	}

	if d := phase("tasklower", func() *diag.Diagnostic {
		lowerAllTasks(reg)
		return nil
	}); d != nil {
		return nil, d
	}

	if d := phase("resolve", func() *diag.Diagnostic {
		return resolve.ResolveAll(reg)
	}); d != nil {
		return nil, d
	}

	findOnLaunch(reg)
	reg.EmitMain = opts.Main

	if d := phase("cull", func() *diag.Diagnostic {
		return cull.Run(reg)
	}); d != nil {
		return nil, d
	}

	var out *emit.Output
	if d := phase("emit", func() *diag.Diagnostic {
		var err error
		tgt, lookupErr := target.Get(opts.Target)
		if lookupErr != nil {
			return diag.New(diag.Internal, diag.Location{}, "%v", lookupErr)
		}
		out, err = tgt.Emit(reg)
		if err != nil {
			return diag.New(diag.Internal, diag.Location{}, "emit: %v", err)
		}
		return nil
	}); d != nil {
		return nil, d
	}

	stats.Total = time.Since(start)
	return &Result{Output: out, Reg: reg, Stats: stats}, nil
}

// lowerAllTasks walks every organized type's methods and rewrites the
// task-shaped ones in place (spec §4.6), registering each generated
// task type back into reg.
func lowerAllTasks(reg *types.Organizer) {
	for _, t := range reg.All() {
		for _, m := range t.Methods {
			if tasklower.IsTask(m) {
				tasklower.Lower(reg, m)
			}
		}
		for _, m := range t.Routines {
			if tasklower.IsTask(m) {
				tasklower.Lower(reg, m)
			}
		}
	}
}

// findOnLaunch locates the global `on_launch` routine (spec §3's
// Program.on_launch) among every organized type's routines, since
// nothing in resolve/organize names it as special on its own.
func findOnLaunch(reg *types.Organizer) {
	for _, t := range reg.All() {
		for _, m := range t.Routines {
			if m.Name == "on_launch" {
				reg.OnLaunch = m
				return
			}
		}
	}
}
