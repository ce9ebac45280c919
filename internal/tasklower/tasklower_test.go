package tasklower

import (
	"testing"

	"roguec/internal/ast"
	"roguec/internal/types"
)

func TestIsTaskDetectsYieldAndAwait(t *testing.T) {
	plain := &types.Method{Statements: []*ast.Cmd{{Kind: ast.KindAssign}}}
	if IsTask(plain) {
		t.Error("a method with no yield/await should not be a task")
	}
	yielding := &types.Method{Statements: []*ast.Cmd{{Kind: ast.KindYield}}}
	if !IsTask(yielding) {
		t.Error("a method containing a yield should be a task")
	}
	awaiting := &types.Method{Statements: []*ast.Cmd{
		{Kind: ast.KindStatementList, List: []*ast.Cmd{{Kind: ast.KindAwait}}},
	}}
	if !IsTask(awaiting) {
		t.Error("a method containing a nested await should be a task")
	}
}

// TestLowerBuildsTaskTypeAndFactory exercises Lower end to end on a
// hand-built "counter" method: declare a local, yield once, declare a
// second local, yield again. It should produce a TaskName_Task type
// with one property per crossing local plus ip/context, an update()
// method holding a two-case dispatch, and rewrite the original method
// into a factory that just constructs and returns the task.
func TestLowerBuildsTaskTypeAndFactory(t *testing.T) {
	reg := types.NewOrganizer()
	owner := &types.Type{Name: "Counter", Kind: types.KindClass}
	reg.DefineTaskType(owner)

	declN := &ast.Cmd{Kind: ast.KindLocalDeclaration, Name: "n", TypeName: "Integer"}
	yield1 := &ast.Cmd{Kind: ast.KindYield, A: &ast.Cmd{Kind: ast.KindLiteralInteger, IntegerValue: 1}}
	readN := &ast.Cmd{Kind: ast.KindReadLocal, Name: "n"}
	yield2 := &ast.Cmd{Kind: ast.KindYield, A: &ast.Cmd{Kind: ast.KindLiteralInteger, IntegerValue: 2}}

	m := &types.Method{
		OwnerType:  owner,
		Name:       "count",
		Signature:  "count()",
		Statements: []*ast.Cmd{declN, yield1, readN, yield2},
		LabelTable: map[string]int{},
	}
	owner.Methods = []*types.Method{m}

	taskType := Lower(reg, m)

	if taskType.Name != "Counter_count_Task" {
		t.Errorf("taskType.Name = %q, want Counter_count_Task", taskType.Name)
	}

	// n, ip, context: in that order, index-assigned.
	if len(taskType.Properties) != 3 {
		t.Fatalf("taskType.Properties = %v, want 3 entries", taskType.Properties)
	}
	if taskType.Properties[0].Name != "n" {
		t.Errorf("taskType.Properties[0].Name = %q, want n", taskType.Properties[0].Name)
	}
	if taskType.Properties[1].Name != "ip" {
		t.Errorf("taskType.Properties[1].Name = %q, want ip", taskType.Properties[1].Name)
	}
	if taskType.Properties[2].Name != "context" {
		t.Errorf("taskType.Properties[2].Name = %q, want context", taskType.Properties[2].Name)
	}

	if len(taskType.Methods) != 1 || taskType.Methods[0].Name != "update" {
		t.Fatalf("taskType.Methods = %v, want a single update() method", taskType.Methods)
	}
	update := taskType.Methods[0]
	if len(update.Statements) != 1 || update.Statements[0].Kind != ast.KindSwitch {
		t.Fatalf("update() body should be a single switch(ip) dispatch, got %v", update.Statements)
	}
	dispatch := update.Statements[0]
	if len(dispatch.CaseBodies) != 2 {
		t.Fatalf("dispatch has %d cases, want 2 (one per yield-delimited section)", len(dispatch.CaseBodies))
	}

	// Each section must end with "ip = next" followed by an explicit
	// TaskControl node carrying the yielded value, not the bare Yield
	// node (which the emitter can't render on its own).
	for i, wantIP := range []int32{1, 2} {
		body := dispatch.CaseBodies[i]
		if len(body) < 2 {
			t.Fatalf("case %d body = %v, want at least an ip write and a TaskControl return", i, body)
		}
		ipWrite := body[len(body)-2]
		if ipWrite.Kind != ast.KindWriteProperty || ipWrite.Name != "ip" || ipWrite.A == nil || ipWrite.A.IntegerValue != wantIP {
			t.Errorf("case %d should set ip = %d before suspending, got %+v", i, wantIP, ipWrite)
		}
		ret := body[len(body)-1]
		if ret.Kind != ast.KindTaskControl || ret.Name != "yield" {
			t.Errorf("case %d should end with a TaskControl(yield) return, got %+v", i, ret)
		}
	}
	if dispatch.CaseBodies[0][len(dispatch.CaseBodies[0])-1].A.IntegerValue != 1 {
		t.Error("case 0's TaskControl should carry yield1's produced value")
	}
	if dispatch.CaseBodies[1][len(dispatch.CaseBodies[1])-1].A.IntegerValue != 2 {
		t.Error("case 1's TaskControl should carry yield2's produced value")
	}
	if len(dispatch.OthersBody) != 1 || dispatch.OthersBody[0].Kind != ast.KindTaskControl || dispatch.OthersBody[0].Name != "" {
		t.Errorf("OthersBody should be a bare (finished) TaskControl, got %v", dispatch.OthersBody)
	}

	if m.TaskResultType != taskType {
		t.Error("m.TaskResultType should point at the generated task type")
	}
	if len(m.Statements) != 1 || m.Statements[0].Kind != ast.KindReturn {
		t.Fatalf("m.Statements after Lower should be a single factory return, got %v", m.Statements)
	}
	if m.Statements[0].A == nil || m.Statements[0].A.Kind != ast.KindCreateObject || m.Statements[0].A.TypeName != taskType.Name {
		t.Errorf("factory should return a CreateObject of %s, got %+v", taskType.Name, m.Statements[0].A)
	}

	if reg.Lookup(taskType.Name) != taskType {
		t.Error("Lower should register the task type into the organizer")
	}
}

func TestLowerRewritesLocalAccessToTaskProperty(t *testing.T) {
	reg := types.NewOrganizer()
	owner := &types.Type{Name: "Reader", Kind: types.KindClass}
	reg.DefineTaskType(owner)

	declN := &ast.Cmd{Kind: ast.KindLocalDeclaration, Name: "n", TypeName: "Integer"}
	readN := &ast.Cmd{Kind: ast.KindReadLocal, Name: "n"}
	yield1 := &ast.Cmd{Kind: ast.KindYield, A: readN}

	m := &types.Method{
		OwnerType:  owner,
		Name:       "read",
		Signature:  "read()",
		Statements: []*ast.Cmd{declN, yield1},
		LabelTable: map[string]int{},
	}
	owner.Methods = []*types.Method{m}

	Lower(reg, m)

	// readN was mutated in place by rewriteLocalsToTaskFields: it should
	// now read the task's "n" property (index 0) instead of a local.
	if readN.Kind != ast.KindReadProperty {
		t.Errorf("readN.Kind = %v, want KindReadProperty after lowering", readN.Kind)
	}
	if readN.ResolvedPropertyIndex != 0 {
		t.Errorf("readN.ResolvedPropertyIndex = %d, want 0", readN.ResolvedPropertyIndex)
	}
}
