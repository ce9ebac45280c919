package toolchain

import (
	"fmt"
	"regexp"
)

var versionPattern = regexp.MustCompile(`(\d+\.\d+(\.\d+)?)`)

// parseLeadingVersion extracts the first "N.N[.N]" substring from a
// tool's --version banner and turns it into a semver.Compare-ready
// string ("10.2.1" -> "v10.2.1").
func parseLeadingVersion(output string) string {
	m := versionPattern.FindString(output)
	if m == "" {
		return ""
	}
	return "v" + m
}

// CC returns the Tool descriptor for the "c" target's external build
// step: a C99 compiler invoked like `cc -std=c99 -o out files...`.
func CC(minVersion string) Tool {
	return Tool{
		Name:          "cc",
		VersionArgs:   []string{"--version"},
		MinVersion:    minVersion,
		VersionParser: parseLeadingVersion,
		CompileArgs: func(files []string, outputPath string) []string {
			args := []string{"-std=c99", "-o", outputPath}
			return append(args, files...)
		},
	}
}

// Clang returns the Tool descriptor for the "llvm" target's external
// build step: clang compiling the emitted .ll module directly.
func Clang(minVersion string) Tool {
	return Tool{
		Name:          "clang",
		VersionArgs:   []string{"--version"},
		MinVersion:    minVersion,
		VersionParser: parseLeadingVersion,
		CompileArgs: func(files []string, outputPath string) []string {
			args := []string{"-o", outputPath}
			return append(args, files...)
		},
	}
}

// ForTarget selects the build tool for a named emit.Target ("c" or
// "llvm"), matching internal/target's registry names.
func ForTarget(name string) (Tool, error) {
	switch name {
	case "c":
		return CC("v10.0.0"), nil
	case "llvm":
		return Clang("v12.0.0"), nil
	default:
		return Tool{}, fmt.Errorf("no external build tool registered for target %q", name)
	}
}
