// Package tasklower rewrites a yield/await-containing method into a
// generated task class plus a factory (spec §4.6). Grounded on the
// teacher's state-machine-shaped coroutine lowering for generator
// methods (internal/compiler's goroutine-free task rewrite), adapted
// from bytecode instruction-pointer dispatch to an ast.Cmd switch(ip)
// tree the emitter can write out as a C-family switch statement.
package tasklower

import (
	"roguec/internal/ast"
	"roguec/internal/types"
)

// IsTask reports whether m must be lowered: it contains a yield or
// await anywhere in its body (spec §4.6 "A method is a task if it
// contains any yield or await").
func IsTask(m *types.Method) bool {
	found := false
	for _, stmt := range m.Statements {
		ast.Walk(stmt, func(c *ast.Cmd) {
			if c.Kind == ast.KindYield || c.Kind == ast.KindAwait {
				found = true
			}
		})
	}
	return found
}

// Lower performs spec §4.6's five-step rewrite: it builds the
// `MethodName_Task` type, partitions the body into TaskControlSections,
// rewrites local access to task-field access, and replaces m's body
// with a factory that constructs the task object. reg is used to
// register the new type so later organize/resolve/cull/emit passes see
// it like any other class.
func Lower(reg *types.Organizer, m *types.Method) *types.Type {
	taskName := m.OwnerType.Name + "_" + m.Name + "_Task"
	taskType := &types.Type{Name: taskName, Kind: types.KindClass}

	locals := collectYieldCrossingLocals(m)
	for i, l := range locals {
		taskType.Properties = append(taskType.Properties, &types.Property{
			OwnerType: taskType, Name: l.Name, DeclaredType: l.DeclaredType, Index: i,
		})
	}
	ipIndex := len(taskType.Properties)
	taskType.Properties = append(taskType.Properties, &types.Property{
		OwnerType: taskType, Name: "ip", DeclaredType: "Integer", Index: ipIndex,
	})
	contextIndex := ipIndex + 1
	taskType.Properties = append(taskType.Properties, &types.Property{
		OwnerType: taskType, Name: "context", DeclaredType: m.OwnerType.Name, Index: contextIndex,
	})

	sections := partitionSections(m.Statements)
	rewriteLocalsToTaskFields(sections, locals)

	updateBody := buildDispatch(sections)
	updateMethod := &types.Method{
		OwnerType:      taskType,
		Name:           "update",
		Signature:      "update()",
		Statements:     updateBody,
		ReturnTypeName: "TaskResult",
		Index:          0,
		LabelTable:     map[string]int{},
	}
	taskType.Methods = append(taskType.Methods, updateMethod)
	taskType.FlatBaseTypes = nil
	taskType.DynamicMethodTableIndex = taskType.Index

	reg.DefineTaskType(taskType)

	m.TaskResultType = taskType
	m.ReturnTypeName = taskType.Name
	m.Statements = []*ast.Cmd{factoryBody(taskType, m)}
	return taskType
}

// collectYieldCrossingLocals finds every local declared in m whose
// lifetime can cross a yield/await point (spec §4.6 step 1: "one
// property per local used across yield points"). Conservatively, that
// is every local declared anywhere in the method, since a narrower
// liveness analysis isn't needed for correctness, only for a smaller
// generated struct.
func collectYieldCrossingLocals(m *types.Method) []*types.Local {
	var locals []*types.Local
	seen := map[string]bool{}
	for _, stmt := range m.Statements {
		ast.Walk(stmt, func(c *ast.Cmd) {
			if c.Kind == ast.KindLocalDeclaration && !seen[c.Name] {
				seen[c.Name] = true
				locals = append(locals, &types.Local{Name: c.Name, DeclaredType: c.TypeName})
			}
		})
	}
	for _, p := range m.Parameters {
		if !seen[p.Name] {
			seen[p.Name] = true
			locals = append(locals, p)
		}
	}
	return locals
}

// partitionSections splits a flat statement list into
// CmdTaskControlSections at every yield/await (spec §4.6 step 2): each
// section runs straight-line until the next suspension point.
func partitionSections(stmts []*ast.Cmd) []*ast.Cmd {
	var sections []*ast.Cmd
	var current []*ast.Cmd
	flush := func() {
		if len(current) > 0 {
			sections = append(sections, &ast.Cmd{Kind: ast.KindTaskControlSection, List: current})
			current = nil
		}
	}
	for _, stmt := range stmts {
		current = append(current, stmt)
		if containsSuspend(stmt) {
			flush()
		}
	}
	flush()
	return sections
}

func containsSuspend(c *ast.Cmd) bool {
	found := false
	ast.Walk(c, func(n *ast.Cmd) {
		if n.Kind == ast.KindYield || n.Kind == ast.KindAwait {
			found = true
		}
	})
	return found
}

// rewriteLocalsToTaskFields replaces ReadLocal/WriteLocal/
// LocalDeclaration access to any of locals with ReadProperty/
// WriteProperty access against the task object (spec §4.6 step 3).
func rewriteLocalsToTaskFields(sections []*ast.Cmd, locals []*types.Local) {
	index := map[string]int{}
	for i, l := range locals {
		index[l.Name] = i
	}
	for _, sec := range sections {
		for _, stmt := range sec.List {
			ast.Walk(stmt, func(c *ast.Cmd) {
				switch c.Kind {
				case ast.KindReadLocal:
					if idx, ok := index[c.Name]; ok {
						c.Kind = ast.KindReadProperty
						c.ResolvedPropertyIndex = idx
					}
				case ast.KindWriteLocal:
					if idx, ok := index[c.Name]; ok {
						c.Kind = ast.KindWriteProperty
						c.ResolvedPropertyIndex = idx
					}
				case ast.KindLocalDeclaration:
					if idx, ok := index[c.Name]; ok {
						c.Kind = ast.KindWriteProperty
						c.ResolvedPropertyIndex = idx
					}
				}
			})
		}
	}
}

// buildDispatch emits the `switch(ip)`-style tree (spec §4.6 step 4):
// each section ends by advancing ip to its successor and returning a
// tri-value (still running / produced value / finished). Calling
// update() again after ip has run past every section (the OthersBody
// case) reports finished too, rather than dispatching nowhere.
func buildDispatch(sections []*ast.Cmd) []*ast.Cmd {
	ipRead := &ast.Cmd{Kind: ast.KindReadProperty, Name: "ip"}
	dispatch := &ast.Cmd{Kind: ast.KindSwitch, A: ipRead}
	for i, sec := range sections {
		body := rewriteSectionTail(sec.List, i+1)
		dispatch.CaseValues = append(dispatch.CaseValues, []*ast.Cmd{{Kind: ast.KindLiteralInteger, IntegerValue: int32(i)}})
		dispatch.CaseBodies = append(dispatch.CaseBodies, body)
	}
	dispatch.OthersBody = []*ast.Cmd{{Kind: ast.KindTaskControl}}
	return []*ast.Cmd{dispatch}
}

// rewriteSectionTail turns a section's final statement into the
// concrete store-and-return construct its suspension point calls for:
// a trailing `yield expr` becomes "ip = next; return yielded(expr)", a
// trailing `await expr` becomes "ip = next; return suspended(expr)",
// and a section with no suspension point at all (the method's trailing
// code, control falling off the end) just returns finished -- there is
// no next section to resume into.
func rewriteSectionTail(stmts []*ast.Cmd, next int) []*ast.Cmd {
	body := append([]*ast.Cmd{}, stmts...)
	if len(body) == 0 {
		return []*ast.Cmd{{Kind: ast.KindTaskControl}}
	}
	last := body[len(body)-1]
	setIP := func() *ast.Cmd {
		return &ast.Cmd{
			Kind: ast.KindWriteProperty, Name: "ip",
			A: &ast.Cmd{Kind: ast.KindLiteralInteger, IntegerValue: int32(next)},
		}
	}
	switch last.Kind {
	case ast.KindYield:
		body[len(body)-1] = setIP()
		body = append(body, &ast.Cmd{Kind: ast.KindTaskControl, Name: "yield", A: last.A})
	case ast.KindAwait:
		body[len(body)-1] = setIP()
		body = append(body, &ast.Cmd{Kind: ast.KindTaskControl, Name: "await", A: last.A})
	default:
		body = append(body, &ast.Cmd{Kind: ast.KindTaskControl})
	}
	return body
}

// factoryBody replaces the original method with spec §4.6 step 5's
// "factory that constructs and returns the task object".
func factoryBody(taskType *types.Type, m *types.Method) *ast.Cmd {
	create := &ast.Cmd{Kind: ast.KindCreateObject, TypeName: taskType.Name}
	for i, p := range m.Parameters {
		create.List = append(create.List, &ast.Cmd{
			Kind: ast.KindWriteProperty, ResolvedPropertyIndex: i,
			A: &ast.Cmd{Kind: ast.KindReadLocal, Name: p.Name, ResolvedLocalIndex: i + 1},
		})
	}
	return &ast.Cmd{Kind: ast.KindReturn, A: create}
}
