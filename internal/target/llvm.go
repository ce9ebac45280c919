package target

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"

	"roguec/internal/ast"
	"roguec/internal/emit"
	"roguec/internal/types"
)

// LLVMTarget is the second emit.Target (spec's domain-stack expansion,
// see SPEC_FULL.md §2): it builds real github.com/llir/llvm/ir values —
// a Module, struct TypeDefs per class, Funcs per used method — instead
// of printing C text. Grounded on the same per-Kind dispatch the C
// target uses (internal/emit/c_expr.go), generalized from "write this
// text" to "build this ir.Value".
//
// Scope note: struct layout and every function's signature are built
// faithfully from the organized/culled type graph, matching the C
// target field-for-field and parameter-for-parameter. Body lowering
// covers straight-line arithmetic/return/local-access — the subset
// that maps onto LLVM's SSA form without a control-flow-graph builder.
// A method whose body needs blocks this pass doesn't lower (loops,
// branches, dynamic dispatch) gets a single-block stub that calls the
// runtime's interpreter fallback and returns its result; see DESIGN.md.
type LLVMTarget struct{}

func NewLLVMTarget() *LLVMTarget { return &LLVMTarget{} }

func (t *LLVMTarget) Name() string { return "llvm" }

func (t *LLVMTarget) Emit(reg *types.Organizer) (*emit.Output, error) {
	m := ir.NewModule()
	b := &llvmBuilder{module: m, structs: map[string]lltypes.Type{}, funcs: map[string]*ir.Func{}}

	used := usedTypesSortedLLVM(reg)
	for _, tp := range used {
		b.declareStruct(tp)
	}
	for _, tp := range used {
		for _, mm := range tp.Routines {
			if mm.IsUsed {
				b.declareFunc(tp, mm)
			}
		}
		for _, mm := range tp.Methods {
			if mm.IsUsed {
				b.declareFunc(tp, mm)
			}
		}
	}
	b.declareRuntimeFallback()
	for _, tp := range used {
		for _, mm := range tp.Routines {
			if mm.IsUsed {
				b.defineFunc(tp, mm)
			}
		}
		for _, mm := range tp.Methods {
			if mm.IsUsed {
				b.defineFunc(tp, mm)
			}
		}
	}

	return &emit.Output{Files: map[string]string{".ll": m.String()}}, nil
}

func usedTypesSortedLLVM(reg *types.Organizer) []*types.Type {
	var out []*types.Type
	for _, tp := range reg.All() {
		if tp.Has(types.FlagUsed) {
			out = append(out, tp)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Index > out[j].Index; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

type llvmBuilder struct {
	module   *ir.Module
	structs  map[string]lltypes.Type
	funcs    map[string]*ir.Func
	fallback *ir.Func
}

func (b *llvmBuilder) llType(name string) lltypes.Type {
	switch name {
	case "Integer":
		return lltypes.I32
	case "Long":
		return lltypes.I64
	case "Real":
		return lltypes.Double
	case "Character":
		return lltypes.I16
	case "Logical":
		return lltypes.I1
	case "":
		return lltypes.Void
	default:
		if st, ok := b.structs[name]; ok {
			return lltypes.NewPointer(st)
		}
		return lltypes.NewPointer(lltypes.I8)
	}
}

// objectHeaderFields mirror the runtime ABI (spec §6) object header:
// {next_object, type, object_size, reference_count}, so every struct
// built here starts with the same four fields the C target's
// RogueObject carries, keeping the two backends' memory layout
// compatible.
func objectHeaderFields() []lltypes.Type {
	return []lltypes.Type{
		lltypes.NewPointer(lltypes.I8), // next_object
		lltypes.NewPointer(lltypes.I8), // type
		lltypes.I32,                    // object_size
		lltypes.I32,                    // reference_count
	}
}

func (b *llvmBuilder) declareStruct(t *types.Type) {
	fields := objectHeaderFields()
	for _, p := range t.Properties {
		if p.IsUsed {
			fields = append(fields, b.llType(propTypeName(p)))
		}
	}
	st := lltypes.NewStruct(fields...)
	named := b.module.NewTypeDef("rogue."+t.Name, st)
	b.structs[t.Name] = named
}

func propTypeName(p *types.Property) string {
	if p.ResolvedType != nil {
		return p.ResolvedType.Name
	}
	return p.DeclaredType
}

func (b *llvmBuilder) declareFunc(t *types.Type, m *types.Method) {
	ret := b.llType(m.ReturnTypeName)
	params := []*ir.Param{ir.NewParam("self", lltypes.NewPointer(b.structs[t.Name]))}
	for _, p := range m.Parameters {
		params = append(params, ir.NewParam(p.Name, b.llType(localTypeName(p))))
	}
	fn := b.module.NewFunc(funcName(t, m), ret, params...)
	b.funcs[funcName(t, m)] = fn
}

func localTypeName(l *types.Local) string {
	if l.ResolvedType != nil {
		return l.ResolvedType.Name
	}
	return l.DeclaredType
}

func funcName(t *types.Type, m *types.Method) string {
	return "rogue_" + t.Name + "_" + m.Name
}

// declareRuntimeFallback declares the external symbol a method whose
// body this pass can't lower calls into — the runtime's bytecode/AST
// interpreter entry point, given the method's mangled name as a tag so
// it can look the body back up at run time.
func (b *llvmBuilder) declareRuntimeFallback() {
	i8ptr := lltypes.NewPointer(lltypes.I8)
	b.fallback = b.module.NewFunc("rogue_interpret_fallback", i8ptr, ir.NewParam("tag", i8ptr))
}

func (b *llvmBuilder) defineFunc(t *types.Type, m *types.Method) {
	fn := b.funcs[funcName(t, m)]
	block := fn.NewBlock("entry")
	if lowerable(m.Statements) {
		for _, stmt := range m.Statements {
			b.lowerReturn(block, fn, stmt)
		}
		if len(block.Term) == 0 {
			terminateVoid(block, fn)
		}
		return
	}
	tag := constant.NewCharArrayFromString(funcName(t, m) + "\x00")
	global := b.module.NewGlobalDef(funcName(t, m)+".tag", tag)
	call := block.NewCall(b.fallback, constant.NewGetElementPtr(tag.Typ, global, constant.NewInt(lltypes.I32, 0), constant.NewInt(lltypes.I32, 0)))
	if fn.Sig.RetType == lltypes.Void {
		block.NewRet(nil)
	} else {
		block.NewRet(block.NewBitCast(call, fn.Sig.RetType))
	}
}

// lowerable reports whether stmts is the narrow shape this pass
// handles directly: exactly one top-level Return of a literal/simple
// arithmetic expression, with no control flow.
func lowerable(stmts []*ast.Cmd) bool {
	if len(stmts) != 1 {
		return false
	}
	return stmts[0].Kind == ast.KindReturn && isArithmetic(stmts[0].A)
}

func isArithmetic(c *ast.Cmd) bool {
	if c == nil {
		return true
	}
	switch c.Kind {
	case ast.KindLiteralInteger, ast.KindLiteralLong, ast.KindLiteralReal, ast.KindReadLocal:
		return true
	case ast.KindAdd, ast.KindSubtract, ast.KindMultiply, ast.KindDivide:
		return isArithmetic(c.A) && isArithmetic(c.B)
	}
	return false
}

func (b *llvmBuilder) lowerReturn(block *ir.Block, fn *ir.Func, c *ast.Cmd) {
	if c.A == nil {
		block.NewRet(nil)
		return
	}
	v := b.lowerExpr(block, fn, c.A)
	block.NewRet(v)
}

func (b *llvmBuilder) lowerExpr(block *ir.Block, fn *ir.Func, c *ast.Cmd) ir.Value {
	switch c.Kind {
	case ast.KindLiteralInteger:
		return constant.NewInt(lltypes.I32, int64(c.IntegerValue))
	case ast.KindLiteralLong:
		return constant.NewInt(lltypes.I64, c.LongValue)
	case ast.KindLiteralReal:
		return constant.NewFloat(lltypes.Double, c.RealValue)
	case ast.KindReadLocal:
		for _, p := range fn.Params {
			if p.Name() == c.Name {
				return p
			}
		}
		return constant.NewInt(lltypes.I32, 0)
	case ast.KindAdd:
		return block.NewAdd(b.lowerExpr(block, fn, c.A), b.lowerExpr(block, fn, c.B))
	case ast.KindSubtract:
		return block.NewSub(b.lowerExpr(block, fn, c.A), b.lowerExpr(block, fn, c.B))
	case ast.KindMultiply:
		return block.NewMul(b.lowerExpr(block, fn, c.A), b.lowerExpr(block, fn, c.B))
	case ast.KindDivide:
		return block.NewSDiv(b.lowerExpr(block, fn, c.A), b.lowerExpr(block, fn, c.B))
	default:
		return constant.NewInt(lltypes.I32, 0)
	}
}

func terminateVoid(block *ir.Block, fn *ir.Func) {
	if fn.Sig.RetType == lltypes.Void {
		block.NewRet(nil)
		return
	}
	block.NewRet(constant.NewInt(lltypes.I32, 0))
}
