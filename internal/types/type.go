// Package types models the compiler's type graph (spec §3 Type/Property/
// Method/Local, §4.4 Type organization). It consumes the parse package's
// Template/Augment/Body output and produces organized Types ready for
// resolve/cull/emit. Grounded on the teacher's internal/compiler type-
// table pass, generalized from a bytecode compiler's flat type list to
// Rogue's base/aspect/augment inheritance model.
package types

import (
	"roguec/internal/ast"
	"roguec/internal/parse"
	"roguec/internal/token"
)

// Flag is a bitmask of the lifecycle stages a Type passes through
// (spec §3 Type.flags: defined/organized/resolved/culled/used).
type Flag int

const (
	FlagDefined Flag = 1 << iota
	FlagOrganized
	FlagResolved
	FlagCulled
	FlagUsed
)

func (t *Type) Has(f Flag) bool  { return t.Flags&f != 0 }
func (t *Type) set(f Flag)       { t.Flags |= f }
func (t *Type) clear(f Flag)     { t.Flags &^= f }

// Kind distinguishes the four template shapes (spec §3 Template).
type Kind int

const (
	KindClass Kind = iota
	KindAspect
	KindCompound
	KindPrimitive
)

func kindFromString(s string) Kind {
	switch s {
	case "aspect":
		return KindAspect
	case "compound":
		return KindCompound
	case "primitive":
		return KindPrimitive
	default:
		return KindClass
	}
}

// Type is one class/aspect/compound/primitive, possibly specialized
// (e.g. `List<<Int32>>`) (spec §3 Type).
type Type struct {
	Name       string
	Kind       Kind
	Index      int
	Flags      Flag
	Attributes []string

	BaseClassName string // declared base class, pre-resolution
	BaseClass     *Type
	BaseTypeNames []string // declared aspect bases, pre-resolution
	BaseTypes     []*Type
	FlatBaseTypes []*Type // transitive closure, DFS order, deduped (invariant: spec §4.4 step 4)

	ElementTypeName string // for List<<T>>-shaped generics, the T
	ElementType     *Type

	Enumerate   []parse.EnumerateValue
	Definitions []parse.DefinitionDecl
	Properties  []*Property
	Globals     []*Property
	Routines    []*Method // static, merged by signature (later hides earlier)
	Methods     []*Method // dynamic, merged with override chains

	IncorporatingClasses []*Type // for aspects: every class that implements this aspect

	DynamicMethodTableIndex int
	IsRequisite             bool

	// DeclToken is kept for diagnostics (cycle errors, redeclaration errors).
	DeclToken token.Token

	organizing bool // cycle-detection sentinel, true while organize(t) is on the call stack
}

func (t *Type) String() string { return t.Name }

// MethodLookupBySignature finds a dynamic method by its canonical
// `name(T1,T2,...)` signature (spec §3 "method_lookup_by_signature is
// injective").
func (t *Type) MethodLookupBySignature(sig string) *Method {
	for _, m := range t.Methods {
		if m.Signature == sig {
			return m
		}
	}
	return nil
}

func (t *Type) RoutineLookupBySignature(sig string) *Method {
	for _, m := range t.Routines {
		if m.Signature == sig {
			return m
		}
	}
	return nil
}

// Property is a field (owner Type) or, when Global is true, a static
// field on the owner Type itself rather than an instance (spec §3
// Property: "Globals share the record but live in the owner type").
type Property struct {
	OwnerType    *Type
	Name         string
	DeclaredType string
	ResolvedType *Type
	Attributes   []string
	InitialValue *ast.Cmd
	Index        int
	IsGlobal     bool
	IsUsed       bool
}

// Local mirrors spec §3 Local: a method-scoped variable, index-assigned
// by resolve (spec §4.5), not owned by any Type.
type Local struct {
	Name         string
	DeclaredType string
	ResolvedType *Type
	Index        int
	InitialValue *ast.Cmd
	IsParameter  bool
}
