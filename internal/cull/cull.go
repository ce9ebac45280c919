// Package cull implements spec §4.7's reachability pass: a BFS from
// on_launch, every requisite item, every CreateCallback-referenced
// method, and every requisite-marked type, marking every property/
// method/type it touches as used before emission drops the rest.
// Grounded on the teacher's dead-code elimination pass over its
// bytecode call graph (internal/compiler), generalized here to walk
// ast.Cmd trees against a types.Type graph instead of instruction
// operands.
package cull

import (
	"roguec/internal/ast"
	"roguec/internal/diag"
	"roguec/internal/types"
)

// worklist item kinds, so one queue can hold both methods and types
// without an interface allocation per node.
type item struct {
	method *types.Method
	typ    *types.Type
	prop   *types.Property
}

// Run marks every type/method/property reachable from reg's roots
// (spec §4.7 roots list) as used. It only marks: it neither removes nor
// lists unused types, methods or properties — dropping them happens in
// emit, which skips whatever is left unmarked, since cull's contract is
// "mark", not "delete" (spec §3 Type.flags: used is a flag, not a
// removal). Returns a diagnostic for the first `--requisite`/
// `$requisite` name that never resolves to a defined type, since a
// silently-ignored requisite is indistinguishable from a cull bug.
func Run(reg *types.Organizer) *diag.Diagnostic {
	visitedMethods := map[*types.Method]bool{}
	visitedTypes := map[*types.Type]bool{}
	visitedProps := map[*types.Property]bool{}

	var queue []item
	push := func(it item) { queue = append(queue, it) }

	if reg.OnLaunch != nil {
		push(item{method: reg.OnLaunch})
	}
	for _, req := range reg.Requisites {
		t := reg.Lookup(req.Name)
		if t == nil {
			return diag.New(diag.Overload,
				diag.Location{Filepath: req.Token.Filepath, Line: req.Token.Line, Column: req.Token.Column},
				"requisite %s never found", req.Name)
		}
		t.IsRequisite = true
		push(item{typ: t})
		if req.Signature != "" {
			if m := t.MethodLookupBySignature(req.Signature); m != nil {
				push(item{method: m})
			} else if m := t.RoutineLookupBySignature(req.Signature); m != nil {
				push(item{method: m})
			}
		}
	}
	for _, t := range reg.All() {
		if t.IsRequisite {
			push(item{typ: t})
		}
	}

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		switch {
		case it.method != nil:
			m := it.method
			if visitedMethods[m] {
				continue
			}
			visitedMethods[m] = true
			m.IsUsed = true
			if m.OwnerType != nil && !visitedTypes[m.OwnerType] {
				push(item{typ: m.OwnerType})
			}
			for _, stmt := range m.Statements {
				traceCmd(stmt, reg, push)
			}
			for _, ov := range m.OverridingMethods {
				push(item{method: ov})
			}
			if m.OverriddenMethod != nil {
				push(item{method: m.OverriddenMethod})
			}

		case it.typ != nil:
			t := it.typ
			if visitedTypes[t] {
				continue
			}
			visitedTypes[t] = true
			t.Flags |= types.FlagUsed
			if t.BaseClass != nil {
				push(item{typ: t.BaseClass})
			}
			for _, b := range t.BaseTypes {
				push(item{typ: b})
			}

		case it.prop != nil:
			p := it.prop
			if visitedProps[p] {
				continue
			}
			visitedProps[p] = true
			p.IsUsed = true
			if p.OwnerType != nil {
				push(item{typ: p.OwnerType})
			}
			if p.ResolvedType != nil {
				push(item{typ: p.ResolvedType})
			}
		}
	}
	return nil
}

// traceCmd is spec §4.7's "trace_used_code edges on each Cmd node": a
// property read/write marks the property (and its type); a call marks
// the method (every override, if dispatched dynamically; the exact
// target, if static); a type mention marks the type; a CreateCallback
// marks its target method as a root even though nothing calls it
// directly in the generated code.
func traceCmd(c *ast.Cmd, reg *types.Organizer, push func(item)) {
	if c == nil {
		return
	}
	switch c.Kind {
	case ast.KindReadProperty, ast.KindWriteProperty, ast.KindReadGlobal, ast.KindWriteGlobal:
		markPropertyByIndex(c, reg, push)
	case ast.KindCreateObject:
		if t := reg.Lookup(c.TypeName); t != nil {
			push(item{typ: t})
		}
	case ast.KindCastToType, ast.KindConvertToType, ast.KindInstanceOf:
		if t := reg.Lookup(c.TypeName); t != nil {
			push(item{typ: t})
		}
	case ast.KindCreateCallback:
		if t := reg.Lookup(c.TypeName); t != nil {
			if m := t.MethodLookupBySignature(c.Name); m != nil {
				push(item{method: m})
			}
		}
	case ast.KindCallRoutine, ast.KindCallStaticMethod, ast.KindCallNativeRoutine,
		ast.KindCallNativeMethod, ast.KindCallInlineNativeRoutine, ast.KindCallInlineNativeMethod,
		ast.KindCallPriorMethod:
		markCalledMethod(c, reg, push, false)
	case ast.KindCallDynamicMethod, ast.KindCallAspectMethod:
		markCalledMethod(c, reg, push, true)
	}
	ast.Walk(c.A, func(n *ast.Cmd) { traceOne(n, reg, push) })
	ast.Walk(c.B, func(n *ast.Cmd) { traceOne(n, reg, push) })
	ast.Walk(c.C, func(n *ast.Cmd) { traceOne(n, reg, push) })
	for _, n := range c.List {
		ast.Walk(n, func(nn *ast.Cmd) { traceOne(nn, reg, push) })
	}
	for _, arm := range c.CaseBodies {
		for _, n := range arm {
			ast.Walk(n, func(nn *ast.Cmd) { traceOne(nn, reg, push) })
		}
	}
	for _, n := range c.OthersBody {
		ast.Walk(n, func(nn *ast.Cmd) { traceOne(nn, reg, push) })
	}
}

// traceOne applies the same per-node rule as traceCmd without
// recursing again into children (ast.Walk already supplies every node
// in the subtree), avoiding the O(depth^2) blowup a naive recursive
// traceCmd-calls-traceCmd walk would hit on deep statement lists.
func traceOne(c *ast.Cmd, reg *types.Organizer, push func(item)) {
	if c == nil {
		return
	}
	switch c.Kind {
	case ast.KindReadProperty, ast.KindWriteProperty, ast.KindReadGlobal, ast.KindWriteGlobal:
		markPropertyByIndex(c, reg, push)
	case ast.KindCreateObject, ast.KindCastToType, ast.KindConvertToType, ast.KindInstanceOf:
		if t := reg.Lookup(c.TypeName); t != nil {
			push(item{typ: t})
		}
	case ast.KindCreateCallback:
		if t := reg.Lookup(c.TypeName); t != nil {
			if m := t.MethodLookupBySignature(c.Name); m != nil {
				push(item{method: m})
			}
		}
	case ast.KindCallRoutine, ast.KindCallStaticMethod, ast.KindCallNativeRoutine,
		ast.KindCallNativeMethod, ast.KindCallInlineNativeRoutine, ast.KindCallInlineNativeMethod,
		ast.KindCallPriorMethod:
		markCalledMethod(c, reg, push, false)
	case ast.KindCallDynamicMethod, ast.KindCallAspectMethod:
		markCalledMethod(c, reg, push, true)
	}
}

// typeByIndex finds the type resolve stamped onto c.ResolvedTypeIndex,
// or returns nil when idx is 0 (no type stamped); it does no name-based
// lookup of its own.
func typeByIndex(reg *types.Organizer, idx int) *types.Type {
	if idx == 0 {
		return nil
	}
	for _, t := range reg.All() {
		if t.Index == idx {
			return t
		}
	}
	return nil
}

// markPropertyByIndex resolves a ReadProperty/WriteProperty/ReadGlobal/
// WriteGlobal node back to the property it names, using the owning
// type resolve stamped into ResolvedTypeIndex.
func markPropertyByIndex(c *ast.Cmd, reg *types.Organizer, push func(item)) {
	t := typeByIndex(reg, c.ResolvedTypeIndex)
	if t == nil {
		return
	}
	list := t.Properties
	if c.Kind == ast.KindReadGlobal || c.Kind == ast.KindWriteGlobal {
		list = t.Globals
	}
	for _, p := range list {
		if p.Index == c.ResolvedPropertyIndex {
			push(item{prop: p})
			return
		}
	}
}

func markCalledMethod(c *ast.Cmd, reg *types.Organizer, push func(item), dynamic bool) {
	if t := typeByIndex(reg, c.ResolvedTypeIndex); t != nil {
		for _, m := range t.Methods {
			if m.Index == c.ResolvedMethodIndex {
				push(item{method: m})
				if dynamic {
					for _, ov := range m.OverridingMethods {
						push(item{method: ov})
					}
				}
				return
			}
		}
		for _, r := range t.Routines {
			if r.Name == c.Name {
				push(item{method: r})
				return
			}
		}
	}
	// No stamped receiver type (can happen for a call left unresolved,
	// e.g. a dead branch the fixed point never reached) — fall back to
	// a name scan so cull still marks something rather than nothing.
	for _, t := range reg.All() {
		for _, r := range t.Routines {
			if r.Name == c.Name {
				push(item{method: r})
				return
			}
		}
	}
}
