// Package resolve implements spec §4.5's scope and overload resolution:
// CmdAccess.resolve's rewrite rules, CandidateMethods overload scoring,
// and operator resolution (literal folding -> primitive op -> user
// operator method). It is driven by ResolveAll's fixed-point loop
// (called from program.Compile), which keeps re-running Method bodies through Scope until nothing
// changes. Grounded on the teacher's internal/compiler resolution pass
// (its scope-stack-of-locals walk over bytecode operands), generalized
// here to operate over ast.Cmd trees against a types.Type graph instead
// of emitting bytecode directly.
package resolve

import (
	"roguec/internal/ast"
	"roguec/internal/types"
)

// controlFrame tracks one active loop/block for resolving escape/
// nextIteration/necessary/sufficient against the nearest enclosing
// construct of the right shape (spec §3 Scope.control_stack).
type controlFrame struct {
	label string
	kind  ast.Kind
}

// Scope is constructed fresh for each method resolve pass (spec §4.5:
// "Scope is constructed with this_type, this_method, an empty local
// stack, and an empty control stack").
type Scope struct {
	Reg        *types.Organizer
	ThisType   *types.Type
	ThisMethod *types.Method

	locals  []*types.Local
	control []controlFrame

	// changed is set whenever this pass rewrote at least one Cmd, so the
	// fixed-point driver knows to run another pass over the method.
	changed bool
}

func NewScope(reg *types.Organizer, thisType *types.Type, thisMethod *types.Method) *Scope {
	return &Scope{Reg: reg, ThisType: thisType, ThisMethod: thisMethod}
}

func (s *Scope) Changed() bool { return s.changed }

func (s *Scope) markChanged() { s.changed = true }

// pushLocal adds a Local to the top of the scope stack, returning its
// index (1-based; 0 means unresolved per ast.Cmd.Resolved* convention).
func (s *Scope) pushLocal(l *types.Local) int {
	s.locals = append(s.locals, l)
	l.Index = len(s.locals)
	return l.Index
}

func (s *Scope) popLocalsTo(mark int) {
	s.locals = s.locals[:mark]
}

func (s *Scope) mark() int { return len(s.locals) }

// findLocal looks up a local by name, innermost first (shadowing).
func (s *Scope) findLocal(name string) (*types.Local, int) {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i].Name == name {
			return s.locals[i], i + 1
		}
	}
	return nil, 0
}

func (s *Scope) pushControl(kind ast.Kind, label string) {
	s.control = append(s.control, controlFrame{label: label, kind: kind})
}

func (s *Scope) popControl() {
	s.control = s.control[:len(s.control)-1]
}

// findControl resolves an escape/nextIteration/necessary/sufficient
// target: an explicit label wins if given, else the nearest frame of a
// shape that kind can target.
func (s *Scope) findControl(label string, acceptableKinds ...ast.Kind) (int, bool) {
	for i := len(s.control) - 1; i >= 0; i-- {
		f := s.control[i]
		if label != "" && f.label != label {
			continue
		}
		if label == "" {
			match := false
			for _, k := range acceptableKinds {
				if f.kind == k {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		return i, true
	}
	return 0, false
}
