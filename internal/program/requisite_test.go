package program

import "testing"

func TestParseRequisiteFlagsSplitsSignature(t *testing.T) {
	reqs := parseRequisiteFlags([]string{"Console", "Window.draw(Integer)"})
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requisites, got %d", len(reqs))
	}
	if reqs[0].Name != "Console" || reqs[0].Signature != "" {
		t.Errorf("reqs[0] = %+v", reqs[0])
	}
	if reqs[1].Name != "Window" || reqs[1].Signature != "draw(Integer)" {
		t.Errorf("reqs[1] = %+v", reqs[1])
	}
}

func TestDefaultIncludePathsUsesFirstSourceDir(t *testing.T) {
	paths := DefaultIncludePaths([]string{"/tmp/project/main.rogue", "/tmp/project/other.rogue"})
	if len(paths) == 0 || paths[0] != "/tmp/project" {
		t.Errorf("DefaultIncludePaths = %v, want first element /tmp/project", paths)
	}
}

func TestDefaultIncludePathsEmptyForNoSources(t *testing.T) {
	if paths := DefaultIncludePaths(nil); len(paths) != 0 {
		t.Errorf("DefaultIncludePaths(nil) = %v, want empty", paths)
	}
}
