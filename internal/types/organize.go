package types

import (
	"roguec/internal/diag"
	"roguec/internal/parse"
	"roguec/internal/token"
)

// pendingTemplate bundles the raw declaration data DefineType stashes
// away until Organize actually walks the type (spec §4.4: a type is
// "defined" once its template is instantiated, "organized" only once
// its bases/augments have been folded in).
type pendingTemplate struct {
	tmpl *parse.Template
	body *parse.Body
}

type pendingAugment struct {
	aug  *parse.Augment
	body *parse.Body
}

// Organizer is the program-wide registry driving spec §4.4's organize
// pipeline; it also carries the process-wide state spec §3 assigns to
// "Program" (literal string pool, native splices, requisites, the
// on_launch entry point). Keeping that state here — rather than in a
// separate Program type one layer up — is what lets resolve/cull/emit
// depend only on types, instead of on an orchestrator package that
// would have to import them back (an import cycle); see DESIGN.md.
type Organizer struct {
	types    map[string]*Type
	pending  map[string]*pendingTemplate
	augments map[string][]*pendingAugment
	nextIdx  int
	// hierarchyCounter assigns a stable dynamic-dispatch slot to each
	// newly introduced method signature, shared across a whole base/
	// override chain so a derived type's vtable slot for a method lines
	// up with its base's; each type's own vtable is indexed by this slot
	// alone.
	hierarchyCounter map[string]int

	// Process-wide Program state (spec §3 Program).
	LiteralStrings []string
	literalLookup  map[string]int
	NativeHeader   []string
	NativeCode     []string
	Requisites     []parse.Requisite
	OnLaunch       *Method

	// EmitMain mirrors the CLI's --main flag (spec §6): when set, the
	// "c"/"llvm" targets wrap their output with an entry point calling
	// OnLaunch; when clear, on_launch still compiles (and can be culled
	// in like any other reachable method) but no entry point is written,
	// since the output is meant to link into something else's main.
	EmitMain bool
}

func NewOrganizer() *Organizer {
	return &Organizer{
		types:            map[string]*Type{},
		nextIdx:          1,
		pending:          map[string]*pendingTemplate{},
		augments:         map[string][]*pendingAugment{},
		hierarchyCounter: map[string]int{},
		literalLookup:    map[string]int{},
	}
}

// InternString deduplicates a literal string into the process-wide pool
// (spec §3 Program.literal_string_lookup), returning its stable index.
func (o *Organizer) InternString(s string) int {
	if idx, ok := o.literalLookup[s]; ok {
		return idx
	}
	idx := len(o.LiteralStrings)
	o.LiteralStrings = append(o.LiteralStrings, s)
	o.literalLookup[s] = idx
	return idx
}

// Lookup returns a previously defined/organized type by name, or nil.
func (o *Organizer) Lookup(name string) *Type { return o.types[name] }

// All returns every type the organizer has seen, in definition order is
// not guaranteed; callers needing determinism should sort by Index.
func (o *Organizer) All() []*Type {
	out := make([]*Type, 0, len(o.types))
	for _, t := range o.types {
		out = append(out, t)
	}
	return out
}

// getOrCreate returns the Type for name, allocating a bare (undefined)
// placeholder the first time it's referenced — mirrors spec §4.4's
// "Program.get_type_reference(token, name) returns a Type handle,
// creating it lazily."
func (o *Organizer) getOrCreate(name string) *Type {
	if t, ok := o.types[name]; ok {
		return t
	}
	t := &Type{Name: name, Index: o.nextIdx}
	o.nextIdx++
	o.types[name] = t
	return t
}

// DefineType registers one parsed template+body pair. It does not
// organize the type; it only records enough to organize it later, once
// every template in the compile has been scanned (so forward references
// to not-yet-seen base types resolve).
func (o *Organizer) DefineType(tmpl *parse.Template, body *parse.Body) *Type {
	t := o.getOrCreate(tmpl.Name)
	t.Kind = kindFromString(tmpl.Kind)
	t.Attributes = tmpl.Attributes
	t.BaseTypeNames = tmpl.BaseTypes
	t.DeclToken = tmpl.DeclToken
	t.set(FlagDefined)
	o.pending[tmpl.Name] = &pendingTemplate{tmpl: tmpl, body: body}
	return t
}

// DefineTaskType registers an already-built Type directly, bypassing
// the template-based DefineType path — used by tasklower to splice its
// generated `MethodName_Task` classes into the registry as fully
// organized types (they have no source template to re-run through
// Organize).
func (o *Organizer) DefineTaskType(t *Type) {
	if t.Index == 0 && o.types[t.Name] == nil {
		t.Index = o.nextIdx
		o.nextIdx++
	}
	t.set(FlagDefined)
	t.set(FlagOrganized)
	o.types[t.Name] = t
}

// RegisterAugment records one `augment Name is Bases ... endAugment`
// block for later injection (spec §3 Augment, §4.4 step 3).
func (o *Organizer) RegisterAugment(aug *parse.Augment, body *parse.Body) {
	o.augments[aug.TargetName] = append(o.augments[aug.TargetName], &pendingAugment{aug: aug, body: body})
}

// OrganizeAll organizes every defined type, in a stable order (sorted by
// first-definition Index) so diagnostics are deterministic across runs.
func (o *Organizer) OrganizeAll() *diag.Diagnostic {
	names := make([]string, 0, len(o.pending))
	for name := range o.pending {
		names = append(names, name)
	}
	// simple insertion sort by Index; the type lists here are small
	// enough (class counts, not instruction counts) that O(n^2) is fine.
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && o.types[names[j-1]].Index > o.types[names[j]].Index; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	for _, name := range names {
		if _, err := o.Organize(name); err != nil {
			return err
		}
	}
	return nil
}

// Organize runs spec §4.4's nine-step pipeline for the named type,
// recursively organizing its bases first. Returns the same *Type every
// time once organized.
func (o *Organizer) Organize(name string) (*Type, *diag.Diagnostic) {
	t := o.getOrCreate(name)
	if t.Has(FlagOrganized) {
		return t, nil
	}
	if t.organizing {
		return nil, diag.New(diag.TypeErr, loc(t.DeclToken), "cycle detected in base types of %s", name)
	}
	if !t.Has(FlagDefined) {
		return nil, diag.New(diag.TypeErr, loc(t.DeclToken), "type %s is never defined", name)
	}
	t.organizing = true
	defer func() { t.organizing = false }()

	pend := o.pending[name]

	// Step 1/2: resolve declared base names into class vs. aspect slots.
	// The first declared base that turns out to be a class becomes
	// base_class; everything else is an aspect base (spec §4.4 steps 1-2).
	for _, baseName := range t.BaseTypeNames {
		base, err := o.Organize(baseName)
		if err != nil {
			return nil, err
		}
		if base.Kind == KindClass && t.BaseClass == nil && t.Kind == KindClass {
			t.BaseClass = base
			t.BaseClassName = baseName
		} else {
			t.BaseTypes = append(t.BaseTypes, base)
		}
	}

	// Step 3: apply augments before finalizing definitions/properties/
	// globals/methods/routines.
	for _, pa := range o.augments[name] {
		for _, baseName := range pa.aug.BaseTypes {
			base, err := o.Organize(baseName)
			if err != nil {
				return nil, err
			}
			t.BaseTypes = append(t.BaseTypes, base)
		}
		if pend == nil {
			pend = &pendingTemplate{body: &parse.Body{}}
		}
		mergeBody(pend.body, pa.body)
	}
	if pend == nil {
		pend = &pendingTemplate{body: &parse.Body{}}
	}

	// Step 4: flat_base_types, DFS order, deduped.
	t.FlatBaseTypes = flattenBases(t)

	// Step 5: properties/globals merged base-first, then own (narrowing
	// re-declaration allowed; incompatible narrowing is an error).
	if err := mergeProperties(t, pend.body); err != nil {
		return nil, err
	}

	// Step 6/9: routines merged by signature (later hides earlier);
	// methods merged with override chains and a stable dispatch index.
	mergeRoutines(t, pend.body)
	if err := o.mergeMethods(t, pend.body); err != nil {
		return nil, err
	}

	// Step 8: aspects record their incorporating classes.
	if t.Kind == KindClass {
		for _, aspect := range t.BaseTypes {
			registerIncorporation(aspect, t)
		}
		for _, base := range t.FlatBaseTypes {
			if base.Kind == KindAspect {
				registerIncorporation(base, t)
			}
		}
	}

	t.Enumerate = pend.body.Enumerate
	t.Definitions = pend.body.Definitions
	t.set(FlagOrganized)
	return t, nil
}

func registerIncorporation(aspect, class *Type) {
	for _, c := range aspect.IncorporatingClasses {
		if c == class {
			return
		}
	}
	aspect.IncorporatingClasses = append(aspect.IncorporatingClasses, class)
}

func loc(tok token.Token) diag.Location {
	return diag.Location{Filepath: tok.Filepath, Line: tok.Line, Column: tok.Column}
}

func mergeBody(dst, src *parse.Body) {
	dst.Enumerate = append(dst.Enumerate, src.Enumerate...)
	dst.Definitions = append(dst.Definitions, src.Definitions...)
	dst.Properties = append(dst.Properties, src.Properties...)
	dst.Globals = append(dst.Globals, src.Globals...)
	dst.Routines = append(dst.Routines, src.Routines...)
	dst.Methods = append(dst.Methods, src.Methods...)
}

// flattenBases computes the DFS transitive closure of base_class plus
// base_types (aspects), deduplicated by first occurrence (spec §4.4
// step 4 invariant).
func flattenBases(t *Type) []*Type {
	seen := map[*Type]bool{}
	var order []*Type
	var visit func(*Type)
	visit = func(cur *Type) {
		if cur == nil || seen[cur] {
			return
		}
		seen[cur] = true
		order = append(order, cur)
		if cur.BaseClass != nil {
			visit(cur.BaseClass)
		}
		for _, b := range cur.BaseTypes {
			visit(b)
		}
	}
	if t.BaseClass != nil {
		visit(t.BaseClass)
	}
	for _, b := range t.BaseTypes {
		visit(b)
	}
	return order
}

func mergeProperties(t *Type, body *parse.Body) *diag.Diagnostic {
	byName := map[string]*Property{}
	var ordered []*Property
	addAll := func(list []*Property) {
		for _, p := range list {
			if existing, ok := byName[p.Name]; ok {
				existing.DeclaredType = narrowType(existing.DeclaredType, p.DeclaredType)
				continue
			}
			cp := *p
			byName[p.Name] = &cp
			ordered = append(ordered, &cp)
		}
	}
	for _, base := range t.FlatBaseTypes {
		addAll(base.Properties)
	}
	for i, decl := range body.Properties {
		p := &Property{OwnerType: t, Name: decl.Name, DeclaredType: decl.TypeName, InitialValue: decl.InitialValue, Index: i}
		addAll([]*Property{p})
	}
	for i, p := range ordered {
		p.Index = i
	}
	t.Properties = ordered

	globalsByName := map[string]*Property{}
	var globalsOrdered []*Property
	for _, base := range t.FlatBaseTypes {
		for _, g := range base.Globals {
			if _, ok := globalsByName[g.Name]; !ok {
				cp := *g
				globalsByName[g.Name] = &cp
				globalsOrdered = append(globalsOrdered, &cp)
			}
		}
	}
	for i, decl := range body.Globals {
		g := &Property{OwnerType: t, Name: decl.Name, DeclaredType: decl.TypeName, InitialValue: decl.InitialValue, Index: i, IsGlobal: true}
		if _, ok := globalsByName[g.Name]; ok {
			globalsByName[g.Name].DeclaredType = narrowType(globalsByName[g.Name].DeclaredType, g.DeclaredType)
			continue
		}
		globalsByName[g.Name] = g
		globalsOrdered = append(globalsOrdered, g)
	}
	for i, g := range globalsOrdered {
		g.Index = i
	}
	t.Globals = globalsOrdered
	return nil
}

// narrowType implements spec §4.4 step 5's "re-declaration narrows
// type" rule at the syntactic level available before full resolve: an
// empty declared type defers to whichever redeclaration supplies one; a
// redeclaration that disagrees with an already-typed base property is
// accepted as a narrowing (the resolve pass, which has the full subtype
// lattice, is what actually rejects an incompatible narrowing — see
// DESIGN.md).
func narrowType(baseType, derivedType string) string {
	if derivedType == "" {
		return baseType
	}
	return derivedType
}

func mergeRoutines(t *Type, body *parse.Body) {
	bySig := map[string]*Method{}
	var ordered []*Method
	for _, base := range t.FlatBaseTypes {
		for _, r := range base.Routines {
			if _, ok := bySig[r.Signature]; !ok {
				cp := r.Clone()
				cp.OwnerType = t
				bySig[r.Signature] = cp
				ordered = append(ordered, cp)
			}
		}
	}
	for _, decl := range body.Routines {
		declCopy := decl
		m := newMethod(t, &declCopy)
		if existing, ok := bySig[m.Signature]; ok {
			*existing = *m
			continue
		}
		bySig[m.Signature] = m
		ordered = append(ordered, m)
	}
	t.Routines = ordered
}

func (o *Organizer) mergeMethods(t *Type, body *parse.Body) *diag.Diagnostic {
	var ordered []*Method
	baseBySig := map[string]*Method{}
	for _, base := range t.FlatBaseTypes {
		for _, m := range base.Methods {
			if _, ok := baseBySig[m.Signature]; !ok {
				baseBySig[m.Signature] = m
				cp := m.Clone()
				cp.OwnerType = t
				ordered = append(ordered, cp)
			}
		}
	}
	ownBySig := map[string]bool{}
	for _, decl := range body.Methods {
		declCopy := decl
		m := newMethod(t, &declCopy)
		ownBySig[m.Signature] = true
		if base, ok := baseBySig[m.Signature]; ok {
			m.OverriddenMethod = base
			base.OverridingMethods = append(base.OverridingMethods, m)
			m.Index = base.Index
			for i, existing := range ordered {
				if existing.Signature == m.Signature {
					ordered[i] = m
					break
				}
			}
		} else {
			idx, ok := o.hierarchyCounter[hierarchyKey(t, m.Signature)]
			if !ok {
				idx = len(o.hierarchyCounter)
				o.hierarchyCounter[hierarchyKey(t, m.Signature)] = idx
			}
			m.Index = idx
			ordered = append(ordered, m)
		}
	}
	t.Methods = ordered
	t.DynamicMethodTableIndex = t.Index
	return nil
}

// hierarchyKey keys the global dispatch-slot counter by signature alone
// (not by type), since every class sharing a signature through override
// must land on the same slot for the flattened vtable scheme in spec
// §4.8 to work; using the type here would be a bug, so the type
// parameter exists only to keep call sites self-documenting.
func hierarchyKey(t *Type, sig string) string { return sig }
