package resolve

import (
	"roguec/internal/ast"
	"roguec/internal/types"
)

// widensTo captures spec §4.5's "implicit numeric widening" lattice:
// Character/Integer -> Long -> Real, and Integer -> Real directly.
var widensTo = map[string][]string{
	"Character": {"Integer", "Long", "Real"},
	"Integer":   {"Long", "Real"},
	"Long":      {"Real"},
}

func widens(from, to string) bool {
	for _, t := range widensTo[from] {
		if t == to {
			return true
		}
	}
	return false
}

// literalTypeName maps a resolved literal Cmd to its primitive type
// name, used when scoring compatibility against a candidate's
// declared parameter type.
func literalTypeName(c *ast.Cmd) string {
	switch c.Kind {
	case ast.KindLiteralInteger:
		return "Integer"
	case ast.KindLiteralLong:
		return "Long"
	case ast.KindLiteralReal:
		return "Real"
	case ast.KindLiteralCharacter:
		return "Character"
	case ast.KindLiteralLogical:
		return "Logical"
	case ast.KindLiteralString:
		return "String"
	}
	return ""
}

// argCompatible reports whether arg can be passed for a parameter
// declared as paramType: exact match, no declared type (unconstrained),
// implicit numeric widening, or (approximated here, since a full
// subtype lattice lives in the Type graph, not in this package) an
// unresolved argument that might still turn out compatible on a later
// fixed-point pass — treated as compatible so resolution doesn't wedge
// a correct program by rejecting it prematurely.
func argCompatible(paramType string, arg *ast.Cmd) bool {
	if paramType == "" {
		return true
	}
	if !arg.IsLiteral() {
		return true
	}
	lt := literalTypeName(arg)
	if lt == "" || lt == paramType {
		return true
	}
	return widens(lt, paramType)
}

// candidate pairs a method with whether it was inherited from an aspect
// (spec §4.5 tie-break (c): "non-aspect beats aspect").
type candidate struct {
	method   *types.Method
	isAspect bool
	declOrd  int
}

// specificityOrder ranks the numeric widening lattice from most specific
// (narrowest) to least specific (widest): a type earlier in this list can
// always widen to one later in it, never the reverse.
var specificityOrder = []string{"Character", "Integer", "Long", "Real"}

func specificityRank(typeName string) (int, bool) {
	for i, t := range specificityOrder {
		if t == typeName {
			return i, true
		}
	}
	return 0, false
}

// moreSpecific reports whether a is strictly narrower than b. Types outside
// the numeric lattice, and equal types, compare as neither more specific.
func moreSpecific(a, b string) bool {
	ra, aok := specificityRank(a)
	rb, bok := specificityRank(b)
	if !aok || !bok {
		return false
	}
	return ra < rb
}

// compareSpecificity counts, over the first n parameter positions, how many
// favor x's declared type over y's and vice versa (spec §4.5 tie-break (a):
// "most-derived parameter types overall").
func compareSpecificity(x, y candidate, n int) (winsX, winsY int) {
	for i := 0; i < n; i++ {
		if i >= len(x.method.Parameters) || i >= len(y.method.Parameters) {
			break
		}
		xt := x.method.Parameters[i].DeclaredType
		yt := y.method.Parameters[i].DeclaredType
		if moreSpecific(xt, yt) {
			winsX++
		} else if moreSpecific(yt, xt) {
			winsY++
		}
	}
	return
}

// mostSpecific applies tie-break (a) to cands. It returns the candidates not
// dominated by any other (strictly more specific in at least one position,
// no less specific in any position). If any pair instead conflicts -- each
// wins a different position, so neither dominates the other -- the set is
// genuinely ambiguous and mostSpecific reports that directly rather than
// letting a later tie-break pick an arbitrary winner.
func mostSpecific(cands []candidate, n int) (survivors []candidate, ambiguous bool) {
	dominated := make([]bool, len(cands))
	for i := range cands {
		for j := range cands {
			if i == j {
				continue
			}
			winsI, winsJ := compareSpecificity(cands[i], cands[j], n)
			if winsI > 0 && winsJ > 0 {
				return nil, true
			}
			if winsJ > 0 && winsI == 0 {
				dominated[i] = true
			}
		}
	}
	for i, c := range cands {
		if !dominated[i] {
			survivors = append(survivors, c)
		}
	}
	return survivors, false
}

// conversionCost counts how many args need an implicit conversion (anything
// but an exact declared-type match) against c's parameters (spec §4.5
// tie-break (b): "fewer implicit conversions").
func conversionCost(c candidate, args []*ast.Cmd) int {
	cost := 0
	for i, a := range args {
		if i >= len(c.method.Parameters) {
			break
		}
		paramType := c.method.Parameters[i].DeclaredType
		if paramType == "" || !a.IsLiteral() {
			continue
		}
		if lt := literalTypeName(a); lt != "" && lt != paramType {
			cost++
		}
	}
	return cost
}

func fewestConversions(cands []candidate, args []*ast.Cmd) []candidate {
	best := conversionCost(cands[0], args)
	for _, c := range cands[1:] {
		if cost := conversionCost(c, args); cost < best {
			best = cost
		}
	}
	var out []candidate
	for _, c := range cands {
		if conversionCost(c, args) == best {
			out = append(out, c)
		}
	}
	return out
}

// CandidateMethods implements spec §4.5's overload resolver: gather
// every method/routine named name visible on t, filter by arity and
// per-argument compatibility, then apply the tie-break chain in order --
// (a) most-derived parameter types overall, (b) fewer implicit
// conversions, (c) non-aspect beats aspect, (d) declared first wins.
// Returns (nil, false) when no candidate matches (caller may try an
// alternative rewrite), or (nil, true) when tie-break (a) finds
// candidates that are each more specific in a different parameter
// position (AmbiguousOverload); past (a), tie-break (d) always leaves a
// single winner.
func CandidateMethods(t *types.Type, name string, args []*ast.Cmd) (*types.Method, bool) {
	var pool []candidate
	for i, m := range t.Methods {
		if m.Name == name {
			pool = append(pool, candidate{method: m, isAspect: m.OwnerType.Kind == types.KindAspect, declOrd: i})
		}
	}
	for i, m := range t.Routines {
		if m.Name == name {
			pool = append(pool, candidate{method: m, declOrd: i})
		}
	}
	if len(pool) == 0 {
		return nil, false
	}

	var arityOK []candidate
	for _, c := range pool {
		np := len(c.method.Parameters)
		if len(args) >= c.method.MinArgs && len(args) <= np {
			arityOK = append(arityOK, c)
		}
	}
	if len(arityOK) == 0 {
		return nil, false
	}

	var compatible []candidate
	for _, c := range arityOK {
		ok := true
		for i, a := range args {
			if i >= len(c.method.Parameters) {
				break
			}
			if !argCompatible(c.method.Parameters[i].DeclaredType, a) {
				ok = false
				break
			}
		}
		if ok {
			compatible = append(compatible, c)
		}
	}
	if len(compatible) == 0 {
		return nil, false
	}
	if len(compatible) == 1 {
		return compatible[0].method, false
	}

	// Tie-break (a): most-derived parameter types overall.
	narrowed, ambiguous := mostSpecific(compatible, len(args))
	if ambiguous {
		return nil, true
	}
	if len(narrowed) > 0 {
		compatible = narrowed
	}
	if len(compatible) == 1 {
		return compatible[0].method, false
	}

	// Tie-break (b): fewer implicit conversions.
	compatible = fewestConversions(compatible, args)
	if len(compatible) == 1 {
		return compatible[0].method, false
	}

	// Tie-break (c): non-aspect beats aspect.
	nonAspect := filterCandidates(compatible, func(c candidate) bool { return !c.isAspect })
	if len(nonAspect) == 1 {
		return nonAspect[0].method, false
	}
	if len(nonAspect) > 0 {
		compatible = nonAspect
	}

	// Tie-break (d): declared first wins.
	best := compatible[0]
	for _, c := range compatible[1:] {
		if c.declOrd < best.declOrd {
			best = c
		}
	}
	return best.method, false
}

func filterCandidates(in []candidate, keep func(candidate) bool) []candidate {
	var out []candidate
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
