package report

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestWriteIncludesTargetAndCounts(t *testing.T) {
	var buf bytes.Buffer
	Write(&buf, Stats{
		Target:       "c",
		BytesEmitted: 43300,
		TypesUsed:    12,
		MethodsUsed:  128,
		PhaseDurations: map[string]time.Duration{
			"parse": 2 * time.Millisecond,
			"emit":  5 * time.Millisecond,
		},
		Total: 12 * time.Millisecond,
	})
	out := buf.String()
	for _, want := range []string{"target: c", "128", "12", "parse", "emit"} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}
