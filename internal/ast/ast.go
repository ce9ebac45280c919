// Package ast defines the compiler's AST node as a single tagged union
// (spec §9 DESIGN NOTES: "Replace [170 handwritten subclasses] with a
// single tagged variant enumerating node kinds plus a uniform
// trait-like interface"). Per-phase behavior (resolve, trace_used_code,
// write_target) is implemented as functions over Kind in the resolve,
// cull, and emit packages rather than as methods on Cmd itself — Cmd
// is shared by every later phase, and a literal per-node method set
// would force those phases' types back into this package, recreating
// the cycle the tagged union was meant to avoid (spec §9: "the program
// acts as an arena; cross-references are indices, not owning pointers").
package ast

import "roguec/internal/token"

// Kind is the closed tag of a Cmd. Every node kind spec.md §3 names
// appears here, grouped the way spec.md groups them.
type Kind int

const (
	KindInvalid Kind = iota

	// literals (spec §3 "literals" family)
	KindLiteralInteger
	KindLiteralLong
	KindLiteralReal
	KindLiteralCharacter
	KindLiteralLogical
	KindLiteralString
	KindDefaultValue
	KindCreateCompound
	KindCreateList
	KindCreateArray
	KindCreateOptionalValue
	KindCreateObject
	KindCreateCallback
	KindCreateFunction
	KindFormattedString
	KindLiteralNull

	// access/assignment
	KindAccess
	KindElementAccess
	KindReadLocal
	KindReadGlobal
	KindReadProperty
	KindReadArrayElement
	KindReadArrayCount
	KindReadSingleton
	KindWriteLocal
	KindWriteGlobal
	KindWriteProperty
	KindWriteArrayElement
	KindAssign
	KindOpWithAssign
	KindLocalOpWithAssign
	KindOpAssignGlobal
	KindOpAssignProperty

	// unary/binary operators
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindMod
	KindPower
	KindBitwiseXor
	KindBitwiseOr
	KindBitwiseAnd
	KindShiftLeft
	KindShiftRight
	KindShiftRightX
	KindBitwiseNot
	KindNegate
	KindLogicalize
	KindLogicalNot
	KindLogicalOr
	KindLogicalAnd
	KindLogicalXor
	KindCompareEQ
	KindCompareNE
	KindCompareLT
	KindCompareLE
	KindCompareGT
	KindCompareGE
	KindCompareIs
	KindCompareIsNot
	KindInstanceOf
	KindCastToType
	KindAs
	KindConvertToType
	KindConvertToPrimitiveType
	KindRange
	KindRangeUpTo

	// control flow
	KindIf
	KindWhich
	KindSwitch
	KindContingent
	KindTry
	KindCatch
	KindGenericLoop
	KindForEach
	KindBlock
	KindStatementList
	KindReturn
	KindThrow
	KindEscape
	KindNextIteration
	KindNecessary
	KindSufficient
	KindTrace
	KindLabel
	KindAwait
	KindYield
	KindTaskControl
	KindTaskControlSection
	KindAdjust
	KindAdjustLocal
	KindAdjustProperty
	KindLocalDeclaration

	// calls
	KindCallRoutine
	KindCallMethod
	KindCallStaticMethod
	KindCallDynamicMethod
	KindCallAspectMethod
	KindCallNativeRoutine
	KindCallNativeMethod
	KindCallInlineNativeRoutine
	KindCallInlineNativeMethod
	KindCallPriorMethod

	// native splice / macro helper
	KindNativeCode
	KindMacroArgs
)

var kindNames = map[Kind]string{
	KindLiteralInteger: "LiteralInteger", KindLiteralLong: "LiteralLong",
	KindLiteralReal: "LiteralReal", KindLiteralCharacter: "LiteralCharacter",
	KindLiteralLogical: "LiteralLogical", KindLiteralString: "LiteralString",
	KindDefaultValue: "DefaultValue", KindCreateCompound: "CreateCompound",
	KindCreateList: "CreateList", KindCreateArray: "CreateArray",
	KindCreateOptionalValue: "CreateOptionalValue", KindCreateObject: "CreateObject",
	KindCreateCallback: "CreateCallback", KindCreateFunction: "CreateFunction",
	KindFormattedString: "FormattedString", KindLiteralNull: "LiteralNull",
	KindAccess:          "Access", KindElementAccess: "ElementAccess",
	KindReadLocal: "ReadLocal", KindReadGlobal: "ReadGlobal",
	KindReadProperty: "ReadProperty", KindReadArrayElement: "ReadArrayElement",
	KindReadArrayCount: "ReadArrayCount", KindReadSingleton: "ReadSingleton",
	KindWriteLocal: "WriteLocal", KindWriteGlobal: "WriteGlobal",
	KindWriteProperty: "WriteProperty", KindWriteArrayElement: "WriteArrayElement",
	KindAssign: "Assign", KindOpWithAssign: "OpWithAssign",
	KindLocalOpWithAssign: "LocalOpWithAssign", KindOpAssignGlobal: "OpAssignGlobal",
	KindOpAssignProperty: "OpAssignProperty",
	KindAdd:              "Add", KindSubtract: "Subtract", KindMultiply: "Multiply",
	KindDivide: "Divide", KindMod: "Mod", KindPower: "Power",
	KindBitwiseXor: "BitwiseXor", KindBitwiseOr: "BitwiseOr", KindBitwiseAnd: "BitwiseAnd",
	KindShiftLeft: "ShiftLeft", KindShiftRight: "ShiftRight", KindShiftRightX: "ShiftRightX",
	KindBitwiseNot: "Not", KindNegate: "Negate",
	KindLogicalize: "Logicalize", KindLogicalNot: "LogicalNot",
	KindLogicalOr: "LogicalOr", KindLogicalAnd: "LogicalAnd", KindLogicalXor: "LogicalXor",
	KindCompareEQ: "CompareEQ", KindCompareNE: "CompareNE", KindCompareLT: "CompareLT",
	KindCompareLE: "CompareLE", KindCompareGT: "CompareGT", KindCompareGE: "CompareGE",
	KindCompareIs: "CompareIs", KindCompareIsNot: "CompareIsNot",
	KindInstanceOf: "InstanceOf", KindCastToType: "CastToType", KindAs: "As",
	KindConvertToType: "ConvertToType", KindConvertToPrimitiveType: "ConvertToPrimitiveType",
	KindRange: "Range", KindRangeUpTo: "RangeUpTo",
	KindIf: "If", KindWhich: "Which", KindSwitch: "Switch", KindContingent: "Contingent",
	KindTry: "Try", KindCatch: "Catch", KindGenericLoop: "GenericLoop", KindForEach: "ForEach",
	KindBlock: "Block", KindStatementList: "StatementList", KindReturn: "Return",
	KindThrow: "Throw", KindEscape: "Escape", KindNextIteration: "NextIteration",
	KindNecessary: "Necessary", KindSufficient: "Sufficient", KindTrace: "Trace",
	KindLabel: "Label", KindAwait: "Await", KindYield: "Yield",
	KindTaskControl: "TaskControl", KindTaskControlSection: "TaskControlSection",
	KindAdjust: "Adjust", KindAdjustLocal: "AdjustLocal", KindAdjustProperty: "AdjustProperty",
	KindLocalDeclaration: "LocalDeclaration",
	KindCallRoutine:      "CallRoutine", KindCallMethod: "CallMethod",
	KindCallStaticMethod: "CallStaticMethod", KindCallDynamicMethod: "CallDynamicMethod",
	KindCallAspectMethod: "CallAspectMethod", KindCallNativeRoutine: "CallNativeRoutine",
	KindCallNativeMethod: "CallNativeMethod", KindCallInlineNativeRoutine: "CallInlineNativeRoutine",
	KindCallInlineNativeMethod: "CallInlineNativeMethod", KindCallPriorMethod: "CallPriorMethod",
	KindNativeCode: "NativeCode", KindMacroArgs: "MacroArgs",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Invalid"
}

// Cmd is every AST node. Only the fields relevant to Kind are populated;
// this is the tagged-union analogue of spec §3's ~170 Cmd subclasses.
// Cross-references to locals/types/methods/properties are by name until
// resolve (which rewrites them to stable indices via *Resolved fields),
// per the arena-of-indices design in spec §9.
type Cmd struct {
	Kind  Kind
	Token token.Token

	// Generic operand slots. Binary ops use A/B; unary ops use A;
	// ternary-ish (If/Contingent) use A=cond, B=then, C=else.
	A *Cmd
	B *Cmd
	C *Cmd

	// Ordered children: statement lists/blocks, call arguments, array/
	// list elements, FormattedString parts, Which/Switch/Try case arms.
	List []*Cmd

	// Name carries identifiers: local/global/property/type/method names
	// before resolution, and is left populated afterward for diagnostics.
	Name string
	// TypeName carries an unresolved type reference (local declarations,
	// CastToType, CreateObject, InstanceOf, parameter/return types).
	TypeName string

	// Literal payload, valid when Kind is one of the Literal* kinds.
	IntegerValue int32
	LongValue    int64
	RealValue    float64
	CharValue    rune
	BoolValue    bool
	StringValue  string

	// Resolved cross-references, populated by the resolve/types packages.
	// For ResolvedLocalIndex and ResolvedTypeIndex, 0 means "unresolved"
	// and valid indices are >= 1, so the zero value of Cmd never looks
	// accidentally resolved. ResolvedPropertyIndex and ResolvedMethodIndex
	// hold the target's 0-based Property.Index / Method.Index.
	ResolvedLocalIndex    int
	ResolvedTypeIndex     int
	ResolvedMethodIndex   int
	ResolvedPropertyIndex int

	// Label carries the loop/block label for Label/Escape/NextIteration.
	Label string

	// CaseValues/CaseBodies back Which/Switch arms in lock-step, one
	// entry per `case`; List[i] unused there.
	CaseValues [][]*Cmd
	CaseBodies [][]*Cmd
	OthersBody []*Cmd

	// NativeText carries a NativeCode splice's raw payload verbatim.
	NativeText string

	// Resolved makes resolve.Resolve return the node unchanged instead of
	// rewriting it again; nothing in the resolve pass sets it.
	Resolved bool
}

// NewCmd constructs a bare Cmd of the given kind at tok, the common case
// for every parser production rule.
func NewCmd(kind Kind, tok token.Token) *Cmd {
	return &Cmd{Kind: kind, Token: tok}
}

// Clone performs a deep copy of the Cmd subtree; Token and any already
// resolved Type/Method index references are shared, matching spec §3's
// ownership rule ("Cloning is deep for Cmd subtrees but shares Tokens
// and Type handles").
func (c *Cmd) Clone() *Cmd {
	if c == nil {
		return nil
	}
	n := *c
	n.A = c.A.Clone()
	n.B = c.B.Clone()
	n.C = c.C.Clone()
	n.List = cloneList(c.List)
	n.OthersBody = cloneList(c.OthersBody)
	if c.CaseValues != nil {
		n.CaseValues = make([][]*Cmd, len(c.CaseValues))
		for i, v := range c.CaseValues {
			n.CaseValues[i] = cloneList(v)
		}
	}
	if c.CaseBodies != nil {
		n.CaseBodies = make([][]*Cmd, len(c.CaseBodies))
		for i, v := range c.CaseBodies {
			n.CaseBodies[i] = cloneList(v)
		}
	}
	return &n
}

func cloneList(list []*Cmd) []*Cmd {
	if list == nil {
		return nil
	}
	out := make([]*Cmd, len(list))
	for i, c := range list {
		out[i] = c.Clone()
	}
	return out
}

// IsLiteral reports whether c is a compile-time constant, used by the
// resolver's operator-folding step (spec §4.5) and by CandidateMethods'
// String-widening rule.
func (c *Cmd) IsLiteral() bool {
	switch c.Kind {
	case KindLiteralInteger, KindLiteralLong, KindLiteralReal,
		KindLiteralCharacter, KindLiteralLogical, KindLiteralString, KindLiteralNull:
		return true
	}
	return false
}

// RequiresSemicolon reports whether the emitter must terminate this
// node with `;` when written as a standalone statement (spec §3 Cmd
// query surface). Block-shaped constructs (If/Which/Switch/loops/Try)
// emit their own braces and need no trailing semicolon.
func (c *Cmd) RequiresSemicolon() bool {
	switch c.Kind {
	case KindIf, KindWhich, KindSwitch, KindContingent, KindTry,
		KindGenericLoop, KindForEach, KindBlock, KindStatementList,
		KindLabel, KindTaskControlSection, KindNativeCode:
		return false
	}
	return true
}

// Walk calls visit on c and then on every node beneath it, pre-order
// (A, B, C, List, CaseValues, CaseBodies, then OthersBody). A nil c is a
// no-op.
func Walk(c *Cmd, visit func(*Cmd)) {
	if c == nil {
		return
	}
	visit(c)
	Walk(c.A, visit)
	Walk(c.B, visit)
	Walk(c.C, visit)
	for _, n := range c.List {
		Walk(n, visit)
	}
	for _, arm := range c.CaseValues {
		for _, n := range arm {
			Walk(n, visit)
		}
	}
	for _, arm := range c.CaseBodies {
		for _, n := range arm {
			Walk(n, visit)
		}
	}
	for _, n := range c.OthersBody {
		Walk(n, visit)
	}
}
