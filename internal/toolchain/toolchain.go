// Package toolchain implements the `--execute` flag (spec §6): after a
// target writes its output files, chain to that target's external
// build tool (a C compiler/linker, or clang for the LLVM target)
// and run the result. Grounded on the teacher's ad hoc `exec.Command`
// invocations of an external `go` binary scattered across its test
// runner scripts (run_regression.go, quicktest.go), generalized here
// into one adapted package instead of copy-pasted call sites, and
// hardened with a minimum-version check the teacher never did.
package toolchain

import (
	"bytes"
	"fmt"
	"os/exec"

	"golang.org/x/mod/semver"
)

// Tool describes the external program --execute chains to for one
// target: the executable name, its version check, and the args template
// that compiles the generated files into an executable at outputPath.
// Chain runs that executable with no arguments.
type Tool struct {
	Name          string
	VersionArgs   []string
	MinVersion    string // semver.Compare-comparable, e.g. "v10.0.0"
	CompileArgs   func(files []string, outputPath string) []string
	VersionParser func(output string) string
}

// Chain runs tool's version check, then compiles files into
// outputPath, then runs the resulting binary, returning its combined
// stdout/stderr.
func Chain(tool Tool, files []string, outputPath string) (string, error) {
	if err := checkVersion(tool); err != nil {
		return "", err
	}
	compile := exec.Command(tool.Name, tool.CompileArgs(files, outputPath)...)
	var compileOut bytes.Buffer
	compile.Stdout = &compileOut
	compile.Stderr = &compileOut
	if err := compile.Run(); err != nil {
		return compileOut.String(), fmt.Errorf("%s failed: %w\n%s", tool.Name, err, compileOut.String())
	}

	run := exec.Command(outputPath)
	var runOut bytes.Buffer
	run.Stdout = &runOut
	run.Stderr = &runOut
	if err := run.Run(); err != nil {
		return runOut.String(), fmt.Errorf("running %s failed: %w\n%s", outputPath, err, runOut.String())
	}
	return runOut.String(), nil
}

// checkVersion refuses to chain to a tool older than MinVersion,
// rather than letting a stale compiler produce a confusing downstream
// failure.
func checkVersion(tool Tool) error {
	if tool.MinVersion == "" {
		return nil
	}
	cmd := exec.Command(tool.Name, tool.VersionArgs...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("could not determine %s version: %w", tool.Name, err)
	}
	reported := tool.VersionParser(string(out))
	if !semver.IsValid(reported) {
		return fmt.Errorf("%s reported an unparseable version %q", tool.Name, reported)
	}
	if semver.Compare(reported, tool.MinVersion) < 0 {
		return fmt.Errorf("%s version %s is older than the required minimum %s", tool.Name, reported, tool.MinVersion)
	}
	return nil
}
