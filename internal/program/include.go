package program

import (
	"os"
	"path/filepath"

	"roguec/internal/diag"
	"roguec/internal/preprocess"
	"roguec/internal/token"
	"roguec/internal/types"
)

// LibraryPathEnv is the "single variable providing the libraries
// folder" spec §6 consults during include resolution.
const LibraryPathEnv = "ROGUEC_LIBRARY_PATH"

// tokenizeAndPreprocessFile reads path, tokenizes it, runs the
// preprocessor, then recursively resolves every $include/
// $includeNativeCode/$includeNativeHeader sentinel the preprocessor
// collected, appending source includes' tokens after this file's own
// tokens (not at the directive's position) and native includes' raw text into reg.NativeHeader/NativeCode (spec §4.2).
// seen guards against a file including itself (directly or via a
// cycle) re-expanding forever.
func tokenizeAndPreprocessFile(path string, defs preprocess.Definitions, includePaths []string, reg *types.Organizer, seen map[string]bool) ([]token.Token, *diag.Diagnostic) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if seen[abs] {
		return nil, nil
	}
	seen[abs] = true

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.IO, diag.Location{Filepath: path}, "reading %s: %v", path, err)
	}
	tz := token.New(path, string(src))
	toks, d := tz.Scan()
	if d != nil {
		return nil, d
	}

	pp := preprocess.New(defs)
	toks, d = pp.Process(toks)
	if d != nil {
		return nil, d
	}

	for _, inc := range pp.Includes() {
		resolved, d := resolveInclude(inc, includePaths)
		if d != nil {
			return nil, d
		}
		switch inc.Kind {
		case preprocess.IncludeSource:
			incToks, d := tokenizeAndPreprocessFile(resolved, defs, includePaths, reg, seen)
			if d != nil {
				return nil, d
			}
			toks = append(toks, incToks...)
		case preprocess.IncludeNativeHeader:
			text, err := os.ReadFile(resolved)
			if err != nil {
				return nil, diag.New(diag.IO, diag.Location{Filepath: resolved}, "reading native header %s: %v", resolved, err)
			}
			reg.NativeHeader = append(reg.NativeHeader, string(text))
		case preprocess.IncludeNativeCode:
			text, err := os.ReadFile(resolved)
			if err != nil {
				return nil, diag.New(diag.IO, diag.Location{Filepath: resolved}, "reading native code %s: %v", resolved, err)
			}
			reg.NativeCode = append(reg.NativeCode, string(text))
		}
	}
	return toks, nil
}

// resolveInclude searches includePaths, in order, for inc.Path,
// returning an I/O diagnostic if it's found nowhere (spec §6: "the
// first [source file]'s directory is added to the include search
// path").
func resolveInclude(inc preprocess.Include, includePaths []string) (string, *diag.Diagnostic) {
	if filepath.IsAbs(inc.Path) {
		if _, err := os.Stat(inc.Path); err == nil {
			return inc.Path, nil
		}
	}
	for _, dir := range includePaths {
		candidate := filepath.Join(dir, inc.Path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", diag.New(diag.IO, diag.Location{Filepath: inc.Path, Line: inc.At.Line, Column: inc.At.Column},
		"include %q not found in search path %v", inc.Path, includePaths)
}

// DefaultIncludePaths builds spec §6's search path: the first source
// file's directory, then the libraries-folder environment variable's
// value if set.
func DefaultIncludePaths(sourceFiles []string) []string {
	var out []string
	if len(sourceFiles) > 0 {
		out = append(out, filepath.Dir(sourceFiles[0]))
	}
	if lib := os.Getenv(LibraryPathEnv); lib != "" {
		out = append(out, lib)
	}
	return out
}
