// Command roguec is the compiler driver (spec §6): it parses CLI flags,
// drives internal/program's pipeline, writes the chosen target's output
// files, optionally chains to an external build/run step, and maps
// every failure mode to one of spec §6's four exit codes. Grounded on
// the teacher's cmd/sentra/main.go: a hand-rolled os.Args walk with a
// short-flag alias table, no flag-parsing library, one switch over the
// recognized flags.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kr/pretty"

	"roguec/internal/diag"
	"roguec/internal/preprocess"
	"roguec/internal/program"
	"roguec/internal/report"
	"roguec/internal/target"
	"roguec/internal/toolchain"
	"roguec/internal/types"
)

// flagAliases mirrors the teacher's commandAliases table, shortening
// the most common flags.
var flagAliases = map[string]string{
	"-o": "--output",
	"-t": "--target",
	"-m": "--main",
	"-x": "--execute",
	"-r": "--requisite",
}

type cliOptions struct {
	sourceFiles []string
	output      string
	target      string
	main        bool
	execute     string
	requisites  []string
	dumpAST     bool
	dumpTypes   bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage()
		return 1
	}
	if len(opts.sourceFiles) == 0 {
		fmt.Fprintln(os.Stderr, "roguec: no source files given")
		printUsage()
		return 1
	}

	runID := uuid.New().String()
	log.SetPrefix(fmt.Sprintf("[roguec %s] ", runID[:8]))

	result, d := program.Compile(program.Options{
		SourceFiles:  opts.sourceFiles,
		Target:       opts.target,
		Main:         opts.main,
		Requisites:   opts.requisites,
		Defines:      preprocess.NewDefinitions(),
		IncludePaths: program.DefaultIncludePaths(opts.sourceFiles),
	})
	if d != nil {
		fmt.Fprintln(os.Stderr, d.Error())
		return d.Kind.ExitCode()
	}

	if opts.dumpAST {
		for _, t := range result.Reg.All() {
			for _, m := range t.Methods {
				pretty.Println(m.Statements)
			}
		}
	}
	if opts.dumpTypes {
		pretty.Println(result.Reg.All())
	}

	outputBase := opts.output
	if outputBase == "" {
		outputBase = "generated"
	}
	var written []string
	for ext, contents := range result.Output.Files {
		path := outputBase + ext
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "roguec: writing %s: %v\n", path, err)
			return diag.IO.ExitCode()
		}
		written = append(written, path)
	}

	report.Write(os.Stdout, report.Stats{
		Target:         opts.target,
		BytesEmitted:   totalBytes(result.Output.Files),
		TypesUsed:      countUsedTypes(result),
		MethodsUsed:    countUsedMethods(result),
		PhaseDurations: result.Stats.Durations,
		Total:          result.Stats.Total,
	})

	if opts.execute != "" {
		tool, err := toolchain.ForTarget(opts.target)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return diag.Internal.ExitCode()
		}
		exe := outputBase
		if !filepath.IsAbs(exe) {
			exe = "./" + exe
		}
		out, err := toolchain.Chain(tool, written, exe)
		if out != "" {
			fmt.Print(out)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return diag.Internal.ExitCode()
		}
	}
	return 0
}

func parseArgs(args []string) (cliOptions, error) {
	var opts cliOptions
	opts.target = "c"
	for i := 0; i < len(args); i++ {
		a := args[i]
		if alias, ok := flagAliases[a]; ok {
			a = alias
		}
		switch {
		case a == "--output":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--output requires a path")
			}
			opts.output = args[i]
		case a == "--target":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--target requires a name")
			}
			opts.target = args[i]
		case a == "--main":
			opts.main = true
		case a == "--execute":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--execute requires an argument string")
			}
			opts.execute = args[i]
		case a == "--requisite":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--requisite requires a Name[.signature]")
			}
			opts.requisites = append(opts.requisites, args[i])
		case a == "--dump-ast":
			opts.dumpAST = true
		case a == "--dump-types":
			opts.dumpTypes = true
		case strings.HasPrefix(a, "-"):
			return opts, fmt.Errorf("roguec: unrecognized flag %q", a)
		default:
			opts.sourceFiles = append(opts.sourceFiles, a)
		}
	}
	return opts, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `usage: roguec [flags] source-files...

  --output, -o <path>       output base name (header + impl emitted next to it)
  --target, -t <name>       emission target (valid: %s)
  --main, -m                wrap emission with a main entry calling on_launch
  --execute, -x <args>      after emission, chain to the target's build tool
  --requisite, -r <name>    pin a type/method as a cull root
  --dump-ast                pretty-print every method's statement tree
  --dump-types              pretty-print the organized type registry
`, strings.Join(target.Names(), ", "))
}

func totalBytes(files map[string]string) int64 {
	var n int64
	for _, f := range files {
		n += int64(len(f))
	}
	return n
}

func countUsedTypes(r *program.Result) int {
	n := 0
	for _, t := range r.Reg.All() {
		if t.Has(types.FlagUsed) {
			n++
		}
	}
	return n
}

func countUsedMethods(r *program.Result) int {
	n := 0
	for _, t := range r.Reg.All() {
		for _, m := range t.Methods {
			if m.IsUsed {
				n++
			}
		}
		for _, m := range t.Routines {
			if m.IsUsed {
				n++
			}
		}
	}
	return n
}
