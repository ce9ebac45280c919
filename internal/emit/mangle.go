package emit

import "strings"

// Mangle turns a source-language identifier into a valid C identifier.
// Specializer brackets (`List<<Int32>>`), operator-symbol method names
// (`operator+`), and the `::`-shaped qualified names augments produce
// all need escaping; everything not in [A-Za-z0-9_] becomes `_`, with
// run-length collapsing so `List<<Int32>>` reads as `List_Int32` rather
// than `List__Int32__`.
func Mangle(name string) string {
	var sb strings.Builder
	prevUnderscore := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			prevUnderscore = false
		case r == '_':
			sb.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				sb.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	out := strings.Trim(sb.String(), "_")
	if out == "" {
		out = "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// TypeStructName is the C struct tag for a type's object layout.
func TypeStructName(typeName string) string { return "Rogue_" + Mangle(typeName) }

// MethodFuncName is the C function name for one method/routine, scoped
// by owner type so two types' same-named methods never collide.
func MethodFuncName(ownerName, methodName string, index int) string {
	return "Rogue_" + Mangle(ownerName) + "__" + Mangle(methodName)
}

// VTableName is the C array name for a type's own dynamic-dispatch
// table, which is indexed by method index alone.
func VTableName(typeName string) string { return "RogueVTable_" + Mangle(typeName) }

// TraceFuncName is the C function name for a type's GC trace routine
// (spec §5/§6 runtime ABI: every type has a trace function the
// collector calls to find its outgoing references).
func TraceFuncName(typeName string) string { return "RogueTrace_" + Mangle(typeName) }

// TypeInfoName is the C symbol for a type's entry in the global
// type-info table (spec §4.8 "type-info table").
func TypeInfoName(typeName string) string { return "RogueTypeInfo_" + Mangle(typeName) }
