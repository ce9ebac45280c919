// Package target is the lookup table the CLI's --target flag indexes
// into (spec §6). Grounded on the teacher's cmd/sentra/commands command
// registry (a name-keyed map of constructors, looked up once at
// startup), generalized here from CLI subcommands to emit.Target
// backends.
package target

import (
	"fmt"
	"sort"

	"roguec/internal/emit"
)

var registry = map[string]func() emit.Target{
	"c":    func() emit.Target { return emit.NewCTarget() },
	"llvm": func() emit.Target { return NewLLVMTarget() },
}

// Get constructs the named target, or an error listing the valid names
// (spec §6 "--target <name>: unknown name is an error").
func Get(name string) (emit.Target, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown target %q (valid: %s)", name, joinNames())
	}
	return ctor(), nil
}

// Names lists every registered target name, sorted for stable --help text.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func joinNames() string {
	names := Names()
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
