package resolve

import (
	"roguec/internal/ast"
	"roguec/internal/diag"
	"roguec/internal/types"
)

// maxFixedPointPasses bounds program.resolve()'s "repeat while any
// type/method transitions" loop (spec §4.5); a compile that hasn't
// converged by then has a resolution cycle, reported as an internal
// error rather than hanging forever.
const maxFixedPointPasses = 64

// ResolveAll repeatedly resolves every method/routine body in reg until
// a full pass makes no further rewrites, implementing spec §4.5's
// fixed-point contract ("program.resolve() repeats while any
// type/method transitions").
func ResolveAll(reg *types.Organizer) *diag.Diagnostic {
	for pass := 0; pass < maxFixedPointPasses; pass++ {
		anyChanged := false
		for _, t := range reg.All() {
			for _, m := range t.Methods {
				changed, err := resolveMethod(reg, t, m)
				if err != nil {
					return err
				}
				anyChanged = anyChanged || changed
			}
			for _, r := range t.Routines {
				changed, err := resolveMethod(reg, t, r)
				if err != nil {
					return err
				}
				anyChanged = anyChanged || changed
			}
		}
		if !anyChanged {
			return nil
		}
	}
	return diag.New(diag.Internal, diag.Location{}, "resolve did not converge after %d passes", maxFixedPointPasses)
}

func resolveMethod(reg *types.Organizer, t *types.Type, m *types.Method) (bool, *diag.Diagnostic) {
	if m.Statements == nil {
		return false, nil
	}
	scope := NewScope(reg, t, m)
	mark := scope.mark()
	for _, p := range m.Parameters {
		scope.pushLocal(p)
	}
	out, err := resolveStatementList(m.Statements, scope)
	if err != nil {
		return false, err
	}
	m.Statements = out
	scope.popLocalsTo(mark)
	return scope.Changed(), nil
}

func resolveStatementList(list []*ast.Cmd, s *Scope) ([]*ast.Cmd, *diag.Diagnostic) {
	out := make([]*ast.Cmd, len(list))
	for i, c := range list {
		r, err := Resolve(c, s)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Resolve rewrites one Cmd against scope s, per-Kind, returning the
// (possibly different) replacement node (spec §3 Cmd.resolve(scope)).
func Resolve(c *ast.Cmd, s *Scope) (*ast.Cmd, *diag.Diagnostic) {
	if c == nil || c.Resolved {
		return c, nil
	}
	switch c.Kind {
	case ast.KindAccess:
		return resolveAccess(c, s)
	case ast.KindLocalDeclaration:
		return resolveLocalDeclaration(c, s)
	case ast.KindAssign:
		return resolveAssign(c, s)
	case ast.KindBlock, ast.KindStatementList:
		mark := s.mark()
		body, err := resolveStatementList(c.List, s)
		if err != nil {
			return nil, err
		}
		c.List = body
		s.popLocalsTo(mark)
		return c, nil
	case ast.KindIf:
		return resolveIf(c, s)
	case ast.KindForEach:
		return resolveForEach(c, s)
	case ast.KindGenericLoop:
		return resolveLoop(c, s)
	case ast.KindWhich, ast.KindSwitch:
		return resolveDispatch(c, s)
	case ast.KindReturn, ast.KindThrow, ast.KindTrace, ast.KindAwait:
		if c.A != nil {
			a, err := Resolve(c.A, s)
			if err != nil {
				return nil, err
			}
			c.A = a
		}
		return c, nil
	case ast.KindAdd, ast.KindSubtract, ast.KindMultiply, ast.KindDivide, ast.KindMod, ast.KindPower,
		ast.KindBitwiseXor, ast.KindBitwiseOr, ast.KindBitwiseAnd, ast.KindShiftLeft, ast.KindShiftRight, ast.KindShiftRightX,
		ast.KindLogicalOr, ast.KindLogicalAnd, ast.KindLogicalXor,
		ast.KindCompareEQ, ast.KindCompareNE, ast.KindCompareLT, ast.KindCompareLE, ast.KindCompareGT, ast.KindCompareGE,
		ast.KindRange, ast.KindRangeUpTo:
		return resolveBinaryOp(c, s)
	case ast.KindNegate, ast.KindLogicalNot, ast.KindBitwiseNot:
		a, err := Resolve(c.A, s)
		if err != nil {
			return nil, err
		}
		c.A = a
		return c, nil
	case ast.KindCompareIs, ast.KindCompareIsNot, ast.KindInstanceOf:
		// spec §4.5: "CompareIs/IsNot compare identities only and never
		// call user operators" — resolve operands only, no operator
		// lookup.
		a, err := Resolve(c.A, s)
		if err != nil {
			return nil, err
		}
		b, err := Resolve(c.B, s)
		if err != nil {
			return nil, err
		}
		c.A, c.B = a, b
		return c, nil
	case ast.KindElementAccess:
		a, err := Resolve(c.A, s)
		if err != nil {
			return nil, err
		}
		b, err := Resolve(c.B, s)
		if err != nil {
			return nil, err
		}
		c.A, c.B = a, b
		return c, nil
	case ast.KindCreateList, ast.KindCreateArray, ast.KindCreateCompound, ast.KindFormattedString:
		items, err := resolveStatementList(c.List, s)
		if err != nil {
			return nil, err
		}
		c.List = items
		return c, nil
	default:
		if c.A != nil {
			a, err := Resolve(c.A, s)
			if err != nil {
				return nil, err
			}
			c.A = a
		}
		if c.B != nil {
			b, err := Resolve(c.B, s)
			if err != nil {
				return nil, err
			}
			c.B = b
		}
		if c.C != nil {
			cc, err := Resolve(c.C, s)
			if err != nil {
				return nil, err
			}
			c.C = cc
		}
		return c, nil
	}
}

func resolveLocalDeclaration(c *ast.Cmd, s *Scope) (*ast.Cmd, *diag.Diagnostic) {
	if c.A != nil {
		a, err := Resolve(c.A, s)
		if err != nil {
			return nil, err
		}
		c.A = a
	}
	local := &types.Local{Name: c.Name, DeclaredType: c.TypeName, InitialValue: c.A}
	idx := s.pushLocal(local)
	c.ResolvedLocalIndex = idx
	s.markChanged()
	return c, nil
}

func resolveAssign(c *ast.Cmd, s *Scope) (*ast.Cmd, *diag.Diagnostic) {
	rhs, err := Resolve(c.B, s)
	if err != nil {
		return nil, err
	}
	c.B = rhs
	lhs, err := Resolve(c.A, s)
	if err != nil {
		return nil, err
	}
	c.A = lhs
	switch lhs.Kind {
	case ast.KindReadLocal:
		c.Kind = ast.KindWriteLocal
		c.ResolvedLocalIndex = lhs.ResolvedLocalIndex
		c.Name = lhs.Name
		c.A = nil
		s.markChanged()
	case ast.KindReadProperty:
		c.Kind = ast.KindWriteProperty
		c.ResolvedPropertyIndex = lhs.ResolvedPropertyIndex
		c.ResolvedTypeIndex = lhs.ResolvedTypeIndex
		c.Name = lhs.Name
		c.A = lhs.A
		s.markChanged()
	case ast.KindReadGlobal:
		c.Kind = ast.KindWriteGlobal
		c.ResolvedPropertyIndex = lhs.ResolvedPropertyIndex
		c.ResolvedTypeIndex = lhs.ResolvedTypeIndex
		c.Name = lhs.Name
		c.A = nil
		s.markChanged()
	case ast.KindElementAccess:
		c.Kind = ast.KindWriteArrayElement
	}
	return c, nil
}

func resolveIf(c *ast.Cmd, s *Scope) (*ast.Cmd, *diag.Diagnostic) {
	cond, err := Resolve(c.A, s)
	if err != nil {
		return nil, err
	}
	c.A = cond
	mark := s.mark()
	body, err := resolveStatementList(c.List, s)
	if err != nil {
		return nil, err
	}
	c.List = body
	s.popLocalsTo(mark)
	if c.C != nil {
		elseBranch, err := Resolve(c.C, s)
		if err != nil {
			return nil, err
		}
		c.C = elseBranch
	}
	return c, nil
}

func resolveForEach(c *ast.Cmd, s *Scope) (*ast.Cmd, *diag.Diagnostic) {
	iterable, err := Resolve(c.A, s)
	if err != nil {
		return nil, err
	}
	c.A = iterable
	mark := s.mark()
	s.pushLocal(&types.Local{Name: c.Name})
	if c.TypeName != "" {
		s.pushLocal(&types.Local{Name: c.TypeName})
	}
	s.pushControl(ast.KindForEach, c.Label)
	body, err := resolveStatementList(c.List, s)
	if err != nil {
		return nil, err
	}
	s.popControl()
	c.List = body
	s.popLocalsTo(mark)
	return c, nil
}

func resolveLoop(c *ast.Cmd, s *Scope) (*ast.Cmd, *diag.Diagnostic) {
	if c.A != nil {
		a, err := Resolve(c.A, s)
		if err != nil {
			return nil, err
		}
		c.A = a
	}
	mark := s.mark()
	s.pushControl(ast.KindGenericLoop, c.Label)
	body, err := resolveStatementList(c.List, s)
	if err != nil {
		return nil, err
	}
	s.popControl()
	c.List = body
	s.popLocalsTo(mark)
	return c, nil
}

func resolveDispatch(c *ast.Cmd, s *Scope) (*ast.Cmd, *diag.Diagnostic) {
	subject, err := Resolve(c.A, s)
	if err != nil {
		return nil, err
	}
	c.A = subject
	for i := range c.CaseValues {
		vals, err := resolveStatementList(c.CaseValues[i], s)
		if err != nil {
			return nil, err
		}
		c.CaseValues[i] = vals
		mark := s.mark()
		body, err := resolveStatementList(c.CaseBodies[i], s)
		if err != nil {
			return nil, err
		}
		s.popLocalsTo(mark)
		c.CaseBodies[i] = body
	}
	if c.OthersBody != nil {
		body, err := resolveStatementList(c.OthersBody, s)
		if err != nil {
			return nil, err
		}
		c.OthersBody = body
	}
	return c, nil
}

// resolveAccess is spec §4.5's CmdAccess.resolve: the five-step rewrite
// from a bare {context?, name, args?} node into ReadLocal/ReadProperty/
// ReadGlobal/CreateObject/CreateCompound/a call variant.
func resolveAccess(c *ast.Cmd, s *Scope) (*ast.Cmd, *diag.Diagnostic) {
	if c.A != nil {
		ctx, err := Resolve(c.A, s)
		if err != nil {
			return nil, err
		}
		c.A = ctx
	}
	args, err := resolveStatementList(c.List, s)
	if err != nil {
		return nil, err
	}
	c.List = args

	hasArgs := len(c.List) > 0
	noContext := c.A == nil

	// Step 1: local in scope, no args.
	if noContext && !hasArgs {
		if local, idx := s.findLocal(c.Name); local != nil {
			c.Kind = ast.KindReadLocal
			c.ResolvedLocalIndex = idx
			s.markChanged()
			return c, nil
		}
	}

	// Step 2/3: this_type's property/global, no explicit context.
	if noContext {
		if prop := findMember(s.ThisType, c.Name, false); prop != nil {
			c.Kind = ast.KindReadProperty
			c.ResolvedPropertyIndex = prop.Index
			c.ResolvedTypeIndex = s.ThisType.Index
			s.markChanged()
			return c, nil
		}
		if glob := findMember(s.ThisType, c.Name, true); glob != nil {
			c.Kind = ast.KindReadGlobal
			c.ResolvedPropertyIndex = glob.Index
			c.ResolvedTypeIndex = s.ThisType.Index
			s.markChanged()
			return c, nil
		}
	}

	// Step 4: name resolves to a type -> constructor call.
	if t := s.Reg.Lookup(c.Name); t != nil && noContext {
		if t.Kind == types.KindCompound {
			c.Kind = ast.KindCreateCompound
			s.markChanged()
			return c, nil
		}
		ctor := &ast.Cmd{Kind: ast.KindCreateObject, Token: c.Token, TypeName: c.Name, List: c.List}
		s.markChanged()
		return ctor, nil
	}

	// Step 5: method call via CandidateMethods.
	contextType := s.ThisType
	if c.A != nil {
		contextType = typeOfExpr(c.A, s)
	}
	if contextType == nil {
		return c, nil
	}
	method, amb := CandidateMethods(contextType, c.Name, c.List)
	if amb {
		return nil, diag.New(diag.Overload, diag.Location{Filepath: c.Token.Filepath, Line: c.Token.Line, Column: c.Token.Column},
			"ambiguous call to %s", c.Name)
	}
	if method == nil {
		return c, nil
	}
	return rewriteCall(c, contextType, method, s), nil
}

func findMember(t *types.Type, name string, global bool) *types.Property {
	if t == nil {
		return nil
	}
	list := t.Properties
	if global {
		list = t.Globals
	}
	for _, p := range list {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// typeOfExpr returns the static type of an already-resolved expression
// where known; many nodes (literals without folding, unresolved access)
// legitimately return nil, and callers treat that as "can't resolve
// this access yet" rather than an error, consistent with the fixed-
// point design (spec §4.5).
func typeOfExpr(c *ast.Cmd, s *Scope) *types.Type {
	switch c.Kind {
	case ast.KindCreateObject:
		return s.Reg.Lookup(c.TypeName)
	case ast.KindReadProperty:
		if s.ThisType == nil {
			return nil
		}
		for _, p := range s.ThisType.Properties {
			if p.Index == c.ResolvedPropertyIndex {
				return p.ResolvedType
			}
		}
	case ast.KindReadLocal:
		for _, l := range s.locals {
			if l.Index == c.ResolvedLocalIndex {
				return l.ResolvedType
			}
		}
	}
	return nil
}

// rewriteCall dispatches a resolved method/routine call to its most
// specific Cmd variant (spec §4.5 "Once a method is chosen...").
func rewriteCall(c *ast.Cmd, contextType *types.Type, m *types.Method, s *Scope) *ast.Cmd {
	c.ResolvedMethodIndex = m.Index
	c.Name = m.Name
	if contextType != nil {
		c.ResolvedTypeIndex = contextType.Index
	}
	s.markChanged()
	switch {
	case m.IsMacro:
		expanded := expandMacro(m, c.List)
		c.Kind = ast.KindBlock
		c.List = expanded
		return c
	case m.IsNative && contextType != nil && isRoutine(contextType, m):
		if m.NativeText != "" {
			c.Kind = ast.KindCallInlineNativeRoutine
		} else {
			c.Kind = ast.KindCallNativeRoutine
		}
		return c
	case m.IsNative:
		if m.NativeText != "" {
			c.Kind = ast.KindCallInlineNativeMethod
		} else {
			c.Kind = ast.KindCallNativeMethod
		}
		return c
	case isRoutine(contextType, m):
		c.Kind = ast.KindCallRoutine
		return c
	case len(m.OwnerType.IncorporatingClasses) > 1 && m.OwnerType.Kind == types.KindAspect:
		c.Kind = ast.KindCallAspectMethod
		return c
	case m.IsDynamic || m.OverriddenMethod != nil || len(m.OverridingMethods) > 0:
		c.Kind = ast.KindCallDynamicMethod
		return c
	default:
		c.Kind = ast.KindCallStaticMethod
		return c
	}
}

func isRoutine(t *types.Type, m *types.Method) bool {
	if t == nil {
		return false
	}
	for _, r := range t.Routines {
		if r == m {
			return true
		}
	}
	return false
}

// expandMacro clones a macro method's body and substitutes MacroArgs
// references by parameter index (spec §4.5 "expand body via MacroArgs
// (parameter-by-index substitution into a cloned body), then resolve
// again").
func expandMacro(m *types.Method, args []*ast.Cmd) []*ast.Cmd {
	body := make([]*ast.Cmd, len(m.Statements))
	for i, stmt := range m.Statements {
		body[i] = substituteMacroArgs(stmt.Clone(), m.Parameters, args)
	}
	return body
}

func substituteMacroArgs(c *ast.Cmd, params []*types.Local, args []*ast.Cmd) *ast.Cmd {
	if c == nil {
		return nil
	}
	if c.Kind == ast.KindMacroArgs {
		for i, p := range params {
			if p.Name == c.Name && i < len(args) {
				return args[i].Clone()
			}
		}
	}
	c.A = substituteMacroArgs(c.A, params, args)
	c.B = substituteMacroArgs(c.B, params, args)
	c.C = substituteMacroArgs(c.C, params, args)
	for i, n := range c.List {
		c.List[i] = substituteMacroArgs(n, params, args)
	}
	return c
}
