package emit

import (
	"fmt"
	"strings"

	"roguec/internal/ast"
	"roguec/internal/types"
)

// cctx threads the owner type/method and an indent level through one
// method body's emission; reg is needed to look up a CallRoutine/
// CallStaticMethod/CallDynamicMethod target's owner type name (the
// call site only carries ResolvedTypeIndex/ResolvedMethodIndex, per
// the arena-of-indices design — see internal/cull for the same lookup).
type cctx struct {
	reg    *types.Organizer
	owner  *types.Type
	method *types.Method
	indent int
}

func (x *cctx) pad() string { return strings.Repeat("  ", x.indent) }

// writeMethodBody emits one used method/routine's full C definition.
func writeMethodBody(w *strings.Builder, reg *types.Organizer, t *types.Type, m *types.Method) {
	fmt.Fprintf(w, "%s {\n", methodPrototype(t, m))
	if m.IsNative && m.NativeText != "" {
		fmt.Fprintln(w, substituteNativeText(m.NativeText, t, m))
		fmt.Fprintln(w, "}")
		fmt.Fprintln(w)
		return
	}
	x := &cctx{reg: reg, owner: t, method: m, indent: 1}
	x.writeStmtList(w, m.Statements)
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w)
}

func (x *cctx) writeStmtList(w *strings.Builder, stmts []*ast.Cmd) {
	for _, c := range stmts {
		x.writeStmt(w, c)
	}
}

func (x *cctx) writeStmt(w *strings.Builder, c *ast.Cmd) {
	if c == nil {
		return
	}
	switch c.Kind {
	case ast.KindLocalDeclaration:
		init := ""
		if c.A != nil {
			init = " = " + x.expr(c.A)
		} else {
			init = " = " + zeroValue(c.TypeName)
		}
		fmt.Fprintf(w, "%s%s %s%s;\n", x.pad(), cType(c.TypeName), Mangle(c.Name), init)

	case ast.KindWriteLocal:
		fmt.Fprintf(w, "%s%s = %s;\n", x.pad(), Mangle(c.Name), x.expr(c.B))

	case ast.KindWriteProperty:
		target := "self"
		if c.A != nil {
			target = x.expr(c.A)
		}
		fmt.Fprintf(w, "%s%s->%s = %s;\n", x.pad(), target, Mangle(c.Name), x.expr(c.B))

	case ast.KindWriteGlobal:
		fmt.Fprintf(w, "%s%s_%s = %s;\n", x.pad(), Mangle(x.ownerNameFor(c)), Mangle(c.Name), x.expr(c.B))

	case ast.KindWriteArrayElement:
		arr, idx := "", ""
		if c.A != nil {
			arr, idx = x.expr(c.A.A), x.expr(c.A.B)
		}
		fmt.Fprintf(w, "%s%s[%s] = %s;\n", x.pad(), arr, idx, x.expr(c.B))

	case ast.KindIf:
		fmt.Fprintf(w, "%sif (%s) {\n", x.pad(), x.expr(c.A))
		x.indent++
		x.writeStmtList(w, c.List)
		x.indent--
		if c.C != nil {
			fmt.Fprintf(w, "%s} else {\n", x.pad())
			x.indent++
			x.writeStmt(w, c.C)
			x.indent--
		}
		fmt.Fprintf(w, "%s}\n", x.pad())

	case ast.KindWhich, ast.KindSwitch:
		x.writeDispatch(w, c)

	case ast.KindTry:
		fmt.Fprintf(w, "%s/* try */ {\n", x.pad())
		x.indent++
		x.writeStmtList(w, c.List)
		x.indent--
		fmt.Fprintf(w, "%s}\n", x.pad())
		for i := range c.CaseValues {
			fmt.Fprintf(w, "%s/* catch */ {\n", x.pad())
			x.indent++
			x.writeStmtList(w, c.CaseBodies[i])
			x.indent--
			fmt.Fprintf(w, "%s}\n", x.pad())
		}

	case ast.KindForEach:
		iterable := x.expr(c.A)
		idx := "i_" + Mangle(c.Name)
		fmt.Fprintf(w, "%sfor (int32_t %s = 0; %s < %s->count; %s++) {\n", x.pad(), idx, idx, iterable, idx)
		x.indent++
		fmt.Fprintf(w, "%s%s %s = %s->data[%s];\n", x.pad(), cType(c.TypeName), Mangle(c.Name), iterable, idx)
		x.writeStmtList(w, c.List)
		x.indent--
		fmt.Fprintf(w, "%s}\n", x.pad())

	case ast.KindGenericLoop:
		cond := "true"
		if c.A != nil {
			cond = x.expr(c.A)
		}
		fmt.Fprintf(w, "%swhile (%s) {\n", x.pad(), cond)
		x.indent++
		x.writeStmtList(w, c.List)
		x.indent--
		fmt.Fprintf(w, "%s}\n", x.pad())

	case ast.KindBlock, ast.KindStatementList:
		fmt.Fprintf(w, "%s{\n", x.pad())
		x.indent++
		x.writeStmtList(w, c.List)
		x.indent--
		fmt.Fprintf(w, "%s}\n", x.pad())

	case ast.KindTaskControlSection:
		x.writeStmtList(w, c.List)

	case ast.KindTaskControl:
		x.writeTaskControl(w, c)

	case ast.KindReturn:
		if c.A != nil {
			fmt.Fprintf(w, "%sreturn %s;\n", x.pad(), x.expr(c.A))
		} else {
			fmt.Fprintf(w, "%sreturn;\n", x.pad())
		}

	case ast.KindThrow:
		fmt.Fprintf(w, "%sRogueThrow((RogueObject*)%s);\n", x.pad(), x.expr(c.A))

	case ast.KindEscape:
		fmt.Fprintf(w, "%sbreak;\n", x.pad())

	case ast.KindNextIteration:
		fmt.Fprintf(w, "%scontinue;\n", x.pad())

	case ast.KindNativeCode:
		fmt.Fprintln(w, substituteNativeText(c.NativeText, x.owner, x.method))

	default:
		// Expression used as a statement (call for side effect, etc.).
		fmt.Fprintf(w, "%s%s;\n", x.pad(), x.expr(c))
	}
}

// writeTaskControl renders a lowered task's suspension point as a
// concrete return of the tri-value spec §4.6 step 4 describes: a
// "yield" node returns the produced value, an "await" node returns
// suspended (c.A holds the awaited-on expression), and a bare node
// (control fell off the end of the method) returns finished.
func (x *cctx) writeTaskControl(w *strings.Builder, c *ast.Cmd) {
	switch c.Name {
	case "yield":
		fmt.Fprintf(w, "%sreturn (RogueTaskResult){ .state = ROGUE_TASK_YIELDED, .value = (void*)(intptr_t)%s };\n", x.pad(), x.expr(c.A))
	case "await":
		fmt.Fprintf(w, "%sreturn (RogueTaskResult){ .state = ROGUE_TASK_SUSPENDED, .value = (void*)(intptr_t)%s };\n", x.pad(), x.expr(c.A))
	default:
		fmt.Fprintf(w, "%sreturn (RogueTaskResult){ .state = ROGUE_TASK_FINISHED };\n", x.pad())
	}
}

// writeDispatch lowers Which/Switch to a C switch on the subject's
// value; each CaseValues[i] may hold several values sharing one body,
// matching the source language's comma-separated case labels.
func (x *cctx) writeDispatch(w *strings.Builder, c *ast.Cmd) {
	fmt.Fprintf(w, "%sswitch (%s) {\n", x.pad(), x.expr(c.A))
	x.indent++
	for i, vals := range c.CaseValues {
		for _, v := range vals {
			fmt.Fprintf(w, "%scase %s:\n", x.pad(), x.expr(v))
		}
		x.indent++
		x.writeStmtList(w, c.CaseBodies[i])
		fmt.Fprintf(w, "%sbreak;\n", x.pad())
		x.indent--
	}
	if c.OthersBody != nil {
		fmt.Fprintf(w, "%sdefault:\n", x.pad())
		x.indent++
		x.writeStmtList(w, c.OthersBody)
		fmt.Fprintf(w, "%sbreak;\n", x.pad())
		x.indent--
	}
	x.indent--
	fmt.Fprintf(w, "%s}\n", x.pad())
}

var binaryOpText = map[ast.Kind]string{
	ast.KindAdd: "+", ast.KindSubtract: "-", ast.KindMultiply: "*", ast.KindDivide: "/", ast.KindMod: "%",
	ast.KindBitwiseXor: "^", ast.KindBitwiseOr: "|", ast.KindBitwiseAnd: "&",
	ast.KindShiftLeft: "<<", ast.KindShiftRight: ">>", ast.KindShiftRightX: ">>",
	ast.KindLogicalOr: "||", ast.KindLogicalAnd: "&&",
	ast.KindCompareEQ: "==", ast.KindCompareNE: "!=", ast.KindCompareLT: "<",
	ast.KindCompareLE: "<=", ast.KindCompareGT: ">", ast.KindCompareGE: ">=",
	ast.KindCompareIs: "==", ast.KindCompareIsNot: "!=",
}

// expr renders c as a C expression fragment. Node kinds without a
// direct C equivalent (task dispatch switches already handled at the
// statement level, etc.) fall through
// to a labeled comment rather than panicking, so a partially-modeled
// corner of the language degrades visibly instead of crashing emission
// for the whole file.
func (x *cctx) expr(c *ast.Cmd) string {
	if c == nil {
		return "0"
	}
	if sym, ok := binaryOpText[c.Kind]; ok {
		return fmt.Sprintf("(%s %s %s)", x.expr(c.A), sym, x.expr(c.B))
	}
	switch c.Kind {
	case ast.KindLiteralInteger:
		return fmt.Sprintf("%d", c.IntegerValue)
	case ast.KindLiteralLong:
		return fmt.Sprintf("%dLL", c.LongValue)
	case ast.KindLiteralReal:
		return fmt.Sprintf("%g", c.RealValue)
	case ast.KindLiteralCharacter:
		return fmt.Sprintf("%d", c.CharValue)
	case ast.KindLiteralLogical:
		if c.BoolValue {
			return "true"
		}
		return "false"
	case ast.KindLiteralString:
		return fmt.Sprintf("RogueLiteralStrings[%d]", x.reg.InternString(c.StringValue))
	case ast.KindLiteralNull:
		return "NULL"
	case ast.KindNegate:
		return "(-" + x.expr(c.A) + ")"
	case ast.KindLogicalNot:
		return "(!" + x.expr(c.A) + ")"
	case ast.KindBitwiseNot:
		return "(~" + x.expr(c.A) + ")"
	case ast.KindReadLocal:
		return Mangle(c.Name)
	case ast.KindReadProperty:
		target := "self"
		if c.A != nil {
			target = x.expr(c.A)
		}
		return target + "->" + Mangle(c.Name)
	case ast.KindReadGlobal:
		return Mangle(x.ownerNameFor(c)) + "_" + Mangle(c.Name)
	case ast.KindElementAccess:
		return fmt.Sprintf("%s[%s]", x.expr(c.A), x.expr(c.B))
	case ast.KindReadArrayElement:
		return fmt.Sprintf("%s->data[%s]", x.expr(c.A), x.expr(c.B))
	case ast.KindReadArrayCount:
		return x.expr(c.A) + "->count"
	case ast.KindCreateObject:
		return fmt.Sprintf("RogueNewObject(&%s)", TypeInfoName(c.TypeName))
	case ast.KindCreateCompound:
		return fmt.Sprintf("(%s){0}", TypeStructName(c.TypeName))
	case ast.KindCreateList, ast.KindCreateArray:
		var items []string
		for _, e := range c.List {
			items = append(items, x.expr(e))
		}
		return fmt.Sprintf("RogueNewArray(%d, (void*[]){%s})", len(items), strings.Join(items, ", "))
	case ast.KindFormattedString:
		return x.formattedString(c)
	case ast.KindCallRoutine, ast.KindCallStaticMethod, ast.KindCallNativeRoutine, ast.KindCallInlineNativeRoutine:
		return x.callExpr(c, false)
	case ast.KindCallNativeMethod, ast.KindCallInlineNativeMethod:
		return x.callExpr(c, true)
	case ast.KindCallDynamicMethod, ast.KindCallAspectMethod:
		return x.dynamicCallExpr(c)
	case ast.KindCallPriorMethod:
		return x.priorCallExpr(c)
	case ast.KindInstanceOf:
		return fmt.Sprintf("RogueInstanceOf((RogueObject*)%s, &%s)", x.expr(c.A), TypeInfoName(c.TypeName))
	case ast.KindCastToType, ast.KindAs:
		return fmt.Sprintf("((%s)%s)", cType(c.TypeName), x.expr(c.A))
	case ast.KindConvertToType, ast.KindConvertToPrimitiveType:
		return fmt.Sprintf("((%s)%s)", cType(c.TypeName), x.expr(c.A))
	case ast.KindRange, ast.KindRangeUpTo:
		return fmt.Sprintf("/* range %s..%s */", x.expr(c.A), x.expr(c.B))
	default:
		return fmt.Sprintf("/* unsupported:%s */0", c.Kind)
	}
}

// ownerNameFor finds the type a ReadGlobal/WriteGlobal site's
// ResolvedTypeIndex refers to, for building the C name of a static
// field (spec §3 Property: "Globals... live in the owner type").
func (x *cctx) ownerNameFor(c *ast.Cmd) string {
	if c.ResolvedTypeIndex == 0 {
		return x.owner.Name
	}
	for _, t := range x.reg.All() {
		if t.Index == c.ResolvedTypeIndex {
			return t.Name
		}
	}
	return x.owner.Name
}

// callExpr renders a static call (routine, static method, or native
// method reached through a known receiver type).
func (x *cctx) callExpr(c *ast.Cmd, hasSelf bool) string {
	fn := x.resolveMethodFuncName(c)
	var args []string
	if hasSelf {
		self := "self"
		if c.A != nil {
			self = x.expr(c.A)
		}
		args = append(args, self)
	}
	for _, a := range c.List {
		args = append(args, x.expr(a))
	}
	return fmt.Sprintf("%s(%s)", fn, strings.Join(args, ", "))
}

// dynamicCallExpr renders a vtable-indexed call: follow the object's
// header.type to its RogueTypeInfo, index that type's own vtable at the
// method index (ResolvedMethodIndex, with no per-type offset added),
// then call through the RogueDispatchFn pointer found there.
func (x *cctx) dynamicCallExpr(c *ast.Cmd) string {
	self := "self"
	if c.A != nil {
		self = x.expr(c.A)
	}
	var args []string
	args = append(args, self)
	for _, a := range c.List {
		args = append(args, x.expr(a))
	}
	slot := fmt.Sprintf("((RogueTypeInfo*)((RogueObject*)%s)->type)->vtable[%d]", self, c.ResolvedMethodIndex)
	return fmt.Sprintf("((RogueDispatchFn)%s)(%s)", slot, strings.Join(args, ", "))
}

func (x *cctx) priorCallExpr(c *ast.Cmd) string {
	if x.method.OverriddenMethod == nil {
		return "/* prior: no base method */0"
	}
	base := x.method.OverriddenMethod
	var args []string
	args = append(args, "self")
	for _, a := range c.List {
		args = append(args, x.expr(a))
	}
	return fmt.Sprintf("%s(%s)", MethodFuncName(base.OwnerType.Name, base.Name, base.Index), strings.Join(args, ", "))
}

// resolveMethodFuncName looks up the receiver type resolve stamped via
// ResolvedTypeIndex and builds its C function name; routines fall back
// to a name scan since they have no receiver to stamp (mirrors
// internal/cull's markCalledMethod fallback for the same reason).
func (x *cctx) resolveMethodFuncName(c *ast.Cmd) string {
	if c.ResolvedTypeIndex != 0 {
		for _, t := range x.reg.All() {
			if t.Index == c.ResolvedTypeIndex {
				for _, m := range t.Methods {
					if m.Index == c.ResolvedMethodIndex {
						return MethodFuncName(t.Name, m.Name, m.Index)
					}
				}
				for _, m := range t.Routines {
					if m.Name == c.Name {
						return MethodFuncName(t.Name, m.Name, m.Index)
					}
				}
			}
		}
	}
	for _, t := range x.reg.All() {
		for _, m := range t.Routines {
			if m.Name == c.Name {
				return MethodFuncName(t.Name, m.Name, m.Index)
			}
		}
	}
	return Mangle(c.Name)
}

// formattedString concatenates a FormattedString's static-text and
// expression parts via the runtime's string-builder helper; each part
// is either a LiteralString (kept as-is) or an already-resolved
// sub-expression from the `$(...)` marker.
func (x *cctx) formattedString(c *ast.Cmd) string {
	var parts []string
	for _, p := range c.List {
		parts = append(parts, x.expr(p))
	}
	return fmt.Sprintf("RogueStringConcat(%d, (const char*[]){%s})", len(parts), strings.Join(parts, ", "))
}

func zeroValue(typeName string) string {
	switch typeName {
	case "Integer":
		return "0"
	case "Long":
		return "0LL"
	case "Real":
		return "0.0"
	case "Character":
		return "0"
	case "Logical":
		return "false"
	default:
		return "NULL"
	}
}

// substituteNativeText rewrites a NativeCode/native-method splice's
// `$this`/`$paramN`/`$property_name`/`$TypeName` markers (spec §4.4
// augment/native-body substitution) into real C references.
func substituteNativeText(text string, owner *types.Type, m *types.Method) string {
	out := strings.ReplaceAll(text, "$this", "self")
	if owner != nil {
		out = strings.ReplaceAll(out, "$TypeName", TypeStructName(owner.Name))
		for _, p := range owner.Properties {
			out = strings.ReplaceAll(out, "$"+p.Name, "self->"+Mangle(p.Name))
		}
	}
	if m != nil {
		for i, p := range m.Parameters {
			out = strings.ReplaceAll(out, fmt.Sprintf("$param%d", i), Mangle(p.Name))
		}
	}
	return out
}
