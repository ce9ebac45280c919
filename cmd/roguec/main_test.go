package main

import "testing"

func TestParseArgsDefaultsTargetToC(t *testing.T) {
	opts, err := parseArgs([]string{"main.rogue"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.target != "c" {
		t.Errorf("target = %q, want c", opts.target)
	}
	if len(opts.sourceFiles) != 1 || opts.sourceFiles[0] != "main.rogue" {
		t.Errorf("sourceFiles = %v", opts.sourceFiles)
	}
}

func TestParseArgsRecognizesAliasesAndFlags(t *testing.T) {
	opts, err := parseArgs([]string{
		"-o", "out", "-t", "llvm", "-m", "-r", "Console",
		"--dump-ast", "--dump-types", "a.rogue", "b.rogue",
	})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.output != "out" || opts.target != "llvm" || !opts.main {
		t.Errorf("opts = %+v", opts)
	}
	if len(opts.requisites) != 1 || opts.requisites[0] != "Console" {
		t.Errorf("requisites = %v", opts.requisites)
	}
	if !opts.dumpAST || !opts.dumpTypes {
		t.Errorf("dump flags not set: %+v", opts)
	}
	if len(opts.sourceFiles) != 2 {
		t.Errorf("sourceFiles = %v", opts.sourceFiles)
	}
}

func TestParseArgsRejectsUnknownFlag(t *testing.T) {
	if _, err := parseArgs([]string{"--bogus"}); err == nil {
		t.Error("expected an error for an unrecognized flag")
	}
}

func TestParseArgsRequiresFlagValue(t *testing.T) {
	if _, err := parseArgs([]string{"--output"}); err == nil {
		t.Error("expected an error when --output is missing its value")
	}
}
