package emit

import (
	"fmt"
	"sort"
	"strings"

	"roguec/internal/types"
)

// CTarget is the handwritten C-family writer spec §4.8 describes: a
// header with type layouts/prototypes and an implementation file with
// vtables, trace functions, the literal string pool, the type-info
// table, and every used method body. Registered under the name "c".
type CTarget struct{}

func NewCTarget() *CTarget { return &CTarget{} }

func (c *CTarget) Name() string { return "c" }

func (c *CTarget) Emit(reg *types.Organizer) (*Output, error) {
	used := usedTypesSorted(reg)

	h := &strings.Builder{}
	fmt.Fprintln(h, "#ifndef ROGUE_GENERATED_H")
	fmt.Fprintln(h, "#define ROGUE_GENERATED_H")
	fmt.Fprintln(h, "#include <stdint.h>")
	fmt.Fprintln(h, "#include <stdbool.h>")
	fmt.Fprintln(h)
	for _, line := range reg.NativeHeader {
		fmt.Fprintln(h, line)
	}
	fmt.Fprintln(h)
	writeRuntimeABI(h)

	for _, t := range used {
		fmt.Fprintf(h, "typedef struct %s %s;\n", TypeStructName(t.Name), TypeStructName(t.Name))
	}
	fmt.Fprintln(h)
	for _, t := range used {
		writeStructLayout(h, t)
	}
	fmt.Fprintln(h)
	for _, t := range used {
		for _, m := range t.Routines {
			if m.IsUsed {
				fmt.Fprintf(h, "%s;\n", methodPrototype(t, m))
			}
		}
		for _, m := range t.Methods {
			if m.IsUsed {
				fmt.Fprintf(h, "%s;\n", methodPrototype(t, m))
			}
		}
	}
	fmt.Fprintln(h, "\n#endif")

	impl := &strings.Builder{}
	fmt.Fprintln(impl, `#include "generated.h"`)
	fmt.Fprintln(impl, "#include <string.h>")
	fmt.Fprintln(impl)
	for _, line := range reg.NativeCode {
		fmt.Fprintln(impl, line)
	}
	fmt.Fprintln(impl)
	writeLiteralPool(impl, reg)
	fmt.Fprintln(impl)
	for _, t := range used {
		writeVTable(impl, t)
	}
	fmt.Fprintln(impl)
	for _, t := range used {
		writeTraceFunc(impl, t)
	}
	fmt.Fprintln(impl)
	writeTypeInfoTable(impl, used)
	fmt.Fprintln(impl)
	for _, t := range used {
		for _, m := range t.Routines {
			if m.IsUsed {
				writeMethodBody(impl, reg, t, m)
			}
		}
		for _, m := range t.Methods {
			if m.IsUsed {
				writeMethodBody(impl, reg, t, m)
			}
		}
	}
	writeMain(impl, reg)

	return &Output{Files: map[string]string{".h": h.String(), ".c": impl.String()}}, nil
}

// usedTypesSorted returns every culled-used type, ordered by Index so
// generated output is stable across runs (spec §8 "determinism").
func usedTypesSorted(reg *types.Organizer) []*types.Type {
	var out []*types.Type
	for _, t := range reg.All() {
		if t.Has(types.FlagUsed) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// writeRuntimeABI emits spec §6's object/array/string header layouts
// verbatim, since every generated struct embeds one of these as its
// first member.
func writeRuntimeABI(w *strings.Builder) {
	fmt.Fprintln(w, `typedef struct RogueObject {
  struct RogueObject* next_object;
  void* type;
  int32_t object_size;
  int32_t reference_count;
} RogueObject;`)
	fmt.Fprintln(w, `typedef struct RogueArray {
  RogueObject header;
  int32_t count;
  int32_t element_size;
  bool is_reference_array;
} RogueArray;`)
	fmt.Fprintln(w, `typedef struct RogueString {
  RogueObject header;
  int32_t count;
  int32_t hash_code;
} RogueString;`)
	fmt.Fprintln(w, `typedef struct RogueTypeInfo {
  const char* name;
  void** vtable;
  void* trace;
} RogueTypeInfo;
typedef void* (*RogueDispatchFn)();`)
	fmt.Fprintln(w, `// Returned by a lowered task's update() method (spec §4.6 step 4):
// still running / produced value / finished.
typedef enum { ROGUE_TASK_YIELDED, ROGUE_TASK_SUSPENDED, ROGUE_TASK_FINISHED } RogueTaskState;
typedef struct { RogueTaskState state; void* value; } RogueTaskResult;`)
	fmt.Fprintln(w, `// Provided by the handwritten runtime (object model, GC, slab
// allocator; spec's runtime is specified separately from the compiler).
extern void* RogueNewObject(RogueTypeInfo* type);
extern void* RogueNewArray(int32_t count, void* elements[]);
extern void* RogueStringConcat(int32_t count, const char* parts[]);
extern bool RogueInstanceOf(RogueObject* obj, RogueTypeInfo* type);
extern void RogueThrow(RogueObject* exception);`)
	fmt.Fprintln(w)
}

// cType maps a declared source type name to a C type name; a blank/
// unknown declared type is left as `void*`, matching the resolver's
// best-effort (not full-inference) typing model documented in
// internal/resolve.
func cType(name string) string {
	switch name {
	case "Integer":
		return "int32_t"
	case "Long":
		return "int64_t"
	case "Real":
		return "double"
	case "Character":
		return "uint16_t"
	case "Logical":
		return "bool"
	case "TaskResult":
		return "RogueTaskResult"
	case "":
		return "void*"
	default:
		return TypeStructName(name) + "*"
	}
}

// writeStructLayout emits one type's field list. Inherited fields
// don't need a separate base-struct embed: mergeProperties already
// flattened base properties into t.Properties (spec §4.4 step 5), so
// every field, inherited or own, is already here.
func writeStructLayout(w *strings.Builder, t *types.Type) {
	fmt.Fprintf(w, "struct %s {\n  RogueObject header;\n", TypeStructName(t.Name))
	for _, p := range t.Properties {
		if p.IsUsed {
			fmt.Fprintf(w, "  %s %s;\n", cType(declaredTypeName(p)), Mangle(p.Name))
		}
	}
	fmt.Fprintln(w, "};")
}

// returnCType is cType but treats an empty declared return type as a
// void method rather than an untyped reference, matching the source
// language's "no declared return type means nothing is returned" rule.
func returnCType(name string) string {
	if name == "" {
		return "void"
	}
	return cType(name)
}

func methodPrototype(t *types.Type, m *types.Method) string {
	ret := returnCType(m.ReturnTypeName)
	var params []string
	params = append(params, TypeStructName(t.Name)+"* self")
	for _, p := range m.Parameters {
		params = append(params, cType(declaredTypeNameLocal(p))+" "+Mangle(p.Name))
	}
	return fmt.Sprintf("%s %s(%s)", ret, MethodFuncName(t.Name, m.Name, m.Index), strings.Join(params, ", "))
}

func writeLiteralPool(w *strings.Builder, reg *types.Organizer) {
	fmt.Fprintf(w, "static const char* const RogueLiteralStrings[%d] = {\n", len(reg.LiteralStrings))
	for _, s := range reg.LiteralStrings {
		fmt.Fprintf(w, "  %q,\n", s)
	}
	fmt.Fprintln(w, "};")
}

// writeVTable emits one type's own dynamic dispatch table, one function
// pointer slot per dynamic method index. Slots are indexed by
// method.Index alone: there is no single program-wide table, and
// Type.DynamicMethodTableIndex is not added as an offset.
func writeVTable(w *strings.Builder, t *types.Type) {
	maxIdx := -1
	for _, m := range t.Methods {
		if m.Index > maxIdx {
			maxIdx = m.Index
		}
	}
	if maxIdx < 0 {
		return
	}
	slots := make([]string, maxIdx+1)
	for i := range slots {
		slots[i] = "0"
	}
	for _, m := range t.Methods {
		if m.IsUsed {
			slots[m.Index] = MethodFuncName(t.Name, m.Name, m.Index)
		}
	}
	fmt.Fprintf(w, "static void* %s[%d] = {\n", VTableName(t.Name), len(slots))
	for _, s := range slots {
		fmt.Fprintf(w, "  (void*)%s,\n", s)
	}
	fmt.Fprintln(w, "};")
}

// writeTraceFunc emits the GC trace routine the collector invokes on
// every live object of this type: it recurses into each reference-typed
// property so the collector can walk the live set (spec §5 runtime,
// §6 ABI).
func writeTraceFunc(w *strings.Builder, t *types.Type) {
	fmt.Fprintf(w, "void %s(%s* self, void (*visit)(RogueObject*)) {\n", TraceFuncName(t.Name), TypeStructName(t.Name))
	for _, p := range t.Properties {
		if p.IsUsed && isReferenceType(p.DeclaredType) {
			fmt.Fprintf(w, "  if (self->%s) visit((RogueObject*)self->%s);\n", Mangle(p.Name), Mangle(p.Name))
		}
	}
	fmt.Fprintln(w, "}")
}

// declaredTypeName prefers the resolve-filled ResolvedType's name (more
// precise after specializer/augment resolution) and falls back to the
// syntactic DeclaredType string for anything resolve left nil.
func declaredTypeName(p *types.Property) string {
	if p.ResolvedType != nil {
		return p.ResolvedType.Name
	}
	return p.DeclaredType
}

func declaredTypeNameLocal(l *types.Local) string {
	if l.ResolvedType != nil {
		return l.ResolvedType.Name
	}
	return l.DeclaredType
}

func isReferenceType(declared string) bool {
	switch declared {
	case "Integer", "Long", "Real", "Character", "Logical", "":
		return false
	}
	return true
}

func writeTypeInfoTable(w *strings.Builder, used []*types.Type) {
	for _, t := range used {
		fmt.Fprintf(w, "static RogueTypeInfo %s = { %q, %s, (void*)%s };\n",
			TypeInfoName(t.Name), t.Name, VTableName(t.Name), TraceFuncName(t.Name))
	}
}

// writeMain emits the --main entry point (spec §6: "--main wrap
// emission with a main entry that calls on_launch"). Without --main,
// on_launch compiles like any other reachable routine but this function
// writes nothing, since the output is meant to link into a caller's own
// main rather than run standalone.
func writeMain(w *strings.Builder, reg *types.Organizer) {
	if !reg.EmitMain {
		return
	}
	fmt.Fprintln(w, "int main(int argc, char** argv) {")
	if reg.OnLaunch != nil && reg.OnLaunch.IsUsed {
		fmt.Fprintf(w, "  %s(0);\n", MethodFuncName(reg.OnLaunch.OwnerType.Name, reg.OnLaunch.Name, reg.OnLaunch.Index))
	}
	fmt.Fprintln(w, "  return 0;")
	fmt.Fprintln(w, "}")
}
