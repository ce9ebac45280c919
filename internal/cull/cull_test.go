package cull

import (
	"strings"
	"testing"

	"roguec/internal/ast"
	"roguec/internal/diag"
	"roguec/internal/parse"
	"roguec/internal/token"
	"roguec/internal/types"
)

// buildGraph wires up a small Organizer by hand, bypassing the parser:
//
//   Program.on_launch -> reads Program.count, calls Helper.helper()
//   Console            (requisite, no methods)
//   Dead.dead          (unreferenced by anything)
//   Program.unused     (unreferenced property)
func buildGraph() (reg *types.Organizer, onLaunch *types.Method, helper *types.Method,
	dead *types.Method, countProp *types.Property, unusedProp *types.Property,
	programType, helperType, consoleType, deadType *types.Type) {
	reg = types.NewOrganizer()

	programType = &types.Type{Name: "Program"}
	countProp = &types.Property{OwnerType: programType, Name: "count", Index: 0}
	unusedProp = &types.Property{OwnerType: programType, Name: "unused", Index: 1}
	programType.Properties = []*types.Property{countProp, unusedProp}
	reg.DefineTaskType(programType)

	helperType = &types.Type{Name: "Helper"}
	helper = &types.Method{OwnerType: helperType, Name: "helper", Index: 0}
	helperType.Routines = []*types.Method{helper}
	reg.DefineTaskType(helperType)

	deadType = &types.Type{Name: "Dead"}
	dead = &types.Method{OwnerType: deadType, Name: "dead", Index: 0}
	deadType.Routines = []*types.Method{dead}
	reg.DefineTaskType(deadType)

	consoleType = &types.Type{Name: "Console"}
	reg.DefineTaskType(consoleType)

	readCount := &ast.Cmd{
		Kind:                  ast.KindReadProperty,
		ResolvedTypeIndex:     programType.Index,
		ResolvedPropertyIndex: countProp.Index,
	}
	callHelper := &ast.Cmd{
		Kind:              ast.KindCallRoutine,
		Name:              helper.Name,
		ResolvedTypeIndex: helperType.Index,
	}
	onLaunch = &types.Method{
		OwnerType:  programType,
		Name:       "on_launch",
		Index:      0,
		Statements: []*ast.Cmd{readCount, callHelper},
	}
	programType.Routines = []*types.Method{onLaunch}
	reg.OnLaunch = onLaunch
	reg.Requisites = []parse.Requisite{{Name: "Console"}}

	return
}

func TestRunMarksReachableGraph(t *testing.T) {
	reg, onLaunch, helper, _, countProp, _, programType, helperType, consoleType, _ := buildGraph()

	Run(reg)

	if !onLaunch.IsUsed {
		t.Error("on_launch should be marked used: it's the entry point")
	}
	if !helper.IsUsed {
		t.Error("Helper.helper should be marked used: on_launch calls it")
	}
	if !countProp.IsUsed {
		t.Error("Program.count should be marked used: on_launch reads it")
	}
	if !programType.Has(types.FlagUsed) {
		t.Error("Program should be marked used: it owns on_launch")
	}
	if !helperType.Has(types.FlagUsed) {
		t.Error("Helper should be marked used: it owns a called method")
	}
	if !consoleType.Has(types.FlagUsed) {
		t.Error("Console should be marked used: it's a requisite")
	}
	if !consoleType.IsRequisite {
		t.Error("Console should have IsRequisite set by Run")
	}
}

func TestRunLeavesDeadCodeUnmarked(t *testing.T) {
	reg, _, _, dead, _, unusedProp, _, _, _, deadType := buildGraph()

	Run(reg)

	if dead.IsUsed {
		t.Error("Dead.dead is never called and should stay unmarked")
	}
	if deadType.Has(types.FlagUsed) {
		t.Error("Dead is never referenced and should stay unmarked")
	}
	if unusedProp.IsUsed {
		t.Error("Program.unused is never read or written and should stay unmarked")
	}
}

func TestRunReportsUnresolvedRequisite(t *testing.T) {
	reg, _, _, _, _, _, _, _, _, _ := buildGraph()
	reg.Requisites = append(reg.Requisites, parse.Requisite{
		Name:  "Typo",
		Token: token.Token{Filepath: "main.rogue", Line: 3, Column: 1},
	})

	d := Run(reg)
	if d == nil {
		t.Fatal("Run should report a diagnostic for a requisite that names no defined type")
	}
	if d.Kind != diag.Overload {
		t.Errorf("d.Kind = %v, want diag.Overload", d.Kind)
	}
	if !strings.Contains(d.Error(), "Typo") {
		t.Errorf("diagnostic %q should mention the unresolved requisite name", d.Error())
	}
}

func TestRunFollowsOverrideChain(t *testing.T) {
	reg, onLaunch, _, _, _, _, programType, _, _, _ := buildGraph()

	baseType := &types.Type{Name: "Base"}
	overrideType := &types.Type{Name: "Derived"}
	base := &types.Method{OwnerType: baseType, Name: "act", Index: 0}
	override := &types.Method{OwnerType: overrideType, Name: "act", Index: 0}
	base.OverridingMethods = []*types.Method{override}
	override.OverriddenMethod = base
	baseType.Methods = []*types.Method{base}
	overrideType.Methods = []*types.Method{override}
	reg.DefineTaskType(baseType)
	reg.DefineTaskType(overrideType)

	callDynamic := &ast.Cmd{
		Kind:                ast.KindCallDynamicMethod,
		ResolvedTypeIndex:   baseType.Index,
		ResolvedMethodIndex: base.Index,
	}
	onLaunch.Statements = append(onLaunch.Statements, callDynamic)
	programType.Routines = []*types.Method{onLaunch}

	Run(reg)

	if !base.IsUsed {
		t.Error("base.act should be marked used: on_launch calls it dynamically")
	}
	if !override.IsUsed {
		t.Error("override should be marked used: dynamic dispatch may reach any override")
	}
}
