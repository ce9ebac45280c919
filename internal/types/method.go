package types

import (
	"strings"

	"roguec/internal/ast"
	"roguec/internal/parse"
	"roguec/internal/token"
)

// Method is a routine (static) or method (dynamic) belonging to exactly
// one OwnerType (spec §3 Method invariant). Signature is the canonical
// `name(T1,T2,...)` string used for override-chain and overload lookup.
type Method struct {
	OwnerType      *Type
	Name           string
	Signature      string
	ReturnTypeName string
	ReturnType     *Type
	TaskResultType *Type // non-nil once task lowering runs (spec §4.6)

	Parameters []*Local
	MinArgs    int
	Locals     []*Local
	Statements []*ast.Cmd

	Attributes  []string
	IsDynamic   bool
	IsNative    bool
	IsMacro     bool
	IsOperator  bool
	NativeText  string

	OverriddenMethod  *Method
	OverridingMethods []*Method

	IsUsed            bool
	CalledDynamically bool
	Index             int
	LabelTable        map[string]int

	DeclToken token.Token
}

// signatureOf builds the canonical "name(T1,T2)" string (spec §3
// Method.signature) from a declaration's parameter type names; unset
// parameter types are written as "?" so an incompletely-typed overload
// still gets a stable (if non-unique) key until resolve fills it in.
func signatureOf(name string, params []parse.Param) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		if p.TypeName != "" {
			sb.WriteString(p.TypeName)
		} else {
			sb.WriteByte('?')
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// newMethod builds a types.Method from a parsed declaration. minArgs
// counts leading parameters without a default value (spec §3 Method
// invariant "min_args <= parameters.count").
func newMethod(owner *Type, decl *parse.MethodDecl) *Method {
	m := &Method{
		OwnerType:      owner,
		Name:           decl.Name,
		Signature:      signatureOf(decl.Name, decl.Params),
		ReturnTypeName: decl.ReturnType,
		Statements:     decl.Body,
		Attributes:     append([]string(nil), decl.Modifiers...),
		NativeText:     decl.NativeText,
		DeclToken:      decl.Token,
		LabelTable:     map[string]int{},
	}
	for _, mod := range decl.Modifiers {
		switch mod {
		case "dynamic":
			m.IsDynamic = true
		case "native":
			m.IsNative = true
		case "macro":
			m.IsMacro = true
		case "operator":
			m.IsOperator = true
		}
	}
	minArgs := len(decl.Params)
	for i, p := range decl.Params {
		m.Parameters = append(m.Parameters, &Local{
			Name: p.Name, DeclaredType: p.TypeName, Index: i,
			InitialValue: p.DefaultValue, IsParameter: true,
		})
		if p.DefaultValue != nil && minArgs == len(decl.Params) {
			minArgs = i
		}
	}
	m.MinArgs = minArgs
	return m
}

// Clone deep-copies a Method's statement list, used when a base method
// or routine is inherited into a derived type's method or routine table
// (spec §3 Cmd.clone).
func (m *Method) Clone() *Method {
	n := *m
	n.Statements = cloneCmds(m.Statements)
	n.Parameters = cloneLocals(m.Parameters)
	n.Locals = cloneLocals(m.Locals)
	n.OverridingMethods = nil
	return &n
}

func cloneCmds(list []*ast.Cmd) []*ast.Cmd {
	if list == nil {
		return nil
	}
	out := make([]*ast.Cmd, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}

func cloneLocals(list []*Local) []*Local {
	if list == nil {
		return nil
	}
	out := make([]*Local, len(list))
	for i, l := range list {
		cp := *l
		cp.InitialValue = l.InitialValue.Clone()
		out[i] = &cp
	}
	return out
}
