// Package report prints the human-facing compile summary spec.md §6's
// driver emits on a successful run. Grounded on teacher's
// cmd/sentra/main.go, which formats its own run summaries with plain
// fmt/log rather than a structured logger; the one addition here is
// github.com/dustin/go-humanize for byte/count formatting, since
// nothing in the teacher's own stdlib-only formatting handles "42.3 KB"
// or "1,234 methods" and the rest of the example pack reaches for
// humanize for exactly that.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats summarizes one compile run: what was emitted and how long each
// phase took, gathered by internal/program as it drives the pipeline.
type Stats struct {
	Target         string
	BytesEmitted   int64
	TypesUsed      int
	MethodsUsed    int
	PhaseDurations map[string]time.Duration
	Total          time.Duration
}

// Write prints Stats to w in the teacher's one-line-per-fact style
// (cmd/sentra/main.go logs one fmt.Printf per run phase rather than a
// single structured blob).
func Write(w io.Writer, s Stats) {
	fmt.Fprintf(w, "target: %s\n", s.Target)
	fmt.Fprintf(w, "emitted %s across %s methods on %s types\n",
		humanize.Bytes(uint64(s.BytesEmitted)),
		humanize.Comma(int64(s.MethodsUsed)),
		humanize.Comma(int64(s.TypesUsed)))
	for _, phase := range []string{"tokenize+preprocess", "parse", "organize", "tasklower", "resolve", "cull", "emit"} {
		if d, ok := s.PhaseDurations[phase]; ok {
			fmt.Fprintf(w, "  %-10s %s\n", phase, d.Round(time.Microsecond))
		}
	}
	fmt.Fprintf(w, "done in %s\n", s.Total.Round(time.Millisecond))
}
