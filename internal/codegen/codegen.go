// Package codegen implements lowering a type-checked, ownership-clean
// program to textual LLVM IR. It builds an *ir.Module object graph with
// github.com/llir/llvm and renders it via Module.String rather than
// hand-rolling instruction syntax — the library's printer is the thing
// that actually knows how to format LLVM IR correctly.
//
// Generate assumes the program it is handed already passed
// internal/typecheck and internal/ownership; it does not re-validate and
// falls back to inert placeholder values (a null i8* or a void type)
// rather than panicking on anything it cannot make sense of.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/zenlang/zenc/internal/ast"
	"github.com/zenlang/zenc/internal/diag"
	"github.com/zenlang/zenc/internal/types"
)

type funcSig struct {
	Params []types.Type
	Return types.Type
}

type varBinding struct {
	Ptr  value.Value
	Type types.Type
}

// strGlobal is an interned, nul-terminated C string global together with
// the byte length the GEP that addresses it needs.
type strGlobal struct {
	Global *ir.Global
	Len    int
}

// Generator lowers one program to one LLVM module.
type Generator struct {
	mod *ir.Module

	structFieldType  map[string]map[string]types.Type
	structFieldOrder map[string][]string
	structTypeCache  map[string]*irtypes.StructType

	funcs    map[string]*ir.Func
	funcSigs map[string]funcSig

	strings      map[string]strGlobal
	globalCount  int
	printfFunc   *ir.Func
	putsFunc     *ir.Func
	formats      printFormats

	curFunc      *ir.Func
	block        *ir.Block
	blockCount   int
	vars         map[string]varBinding
	retType      types.Type

	diags diag.Bag
}

// printFormats holds the format-string globals the declarations prelude
// defines: a newline and a no-newline variant for each of the two
// printf-routed print categories. str bypasses both, via puts.
type printFormats struct {
	IntNL, IntNoNL, FloatNL, FloatNoNL strGlobal
}

// Generate lowers prog to LLVM IR text.
func Generate(prog *ast.Program) (string, diag.Bag) {
	g := newGenerator()
	g.collectDecls(prog)
	g.internAllStrings(prog)

	for _, s := range prog.Statements {
		if fd, ok := s.(*ast.FuncDecl); ok {
			g.lowerFunc(fd)
		}
	}

	return g.mod.String(), g.diags
}

func newGenerator() *Generator {
	g := &Generator{
		mod:              ir.NewModule(),
		structFieldType:  map[string]map[string]types.Type{},
		structFieldOrder: map[string][]string{},
		structTypeCache:  map[string]*irtypes.StructType{},
		funcs:            map[string]*ir.Func{},
		funcSigs:         map[string]funcSig{},
		strings:          map[string]strGlobal{},
	}
	g.declarePrelude()
	return g
}

// declarePrelude declares the C library functions and format-string
// globals every print intrinsic call shares.
func (g *Generator) declarePrelude() {
	g.printfFunc = g.mod.NewFunc("printf", irtypes.I32, ir.NewParam("format", irtypes.I8Ptr))
	g.printfFunc.Sig.Variadic = true
	g.putsFunc = g.mod.NewFunc("puts", irtypes.I32, ir.NewParam("s", irtypes.I8Ptr))

	g.formats.IntNL = g.defineCString("%d\n")
	g.formats.IntNoNL = g.defineCString("%d")
	g.formats.FloatNL = g.defineCString("%f\n")
	g.formats.FloatNoNL = g.defineCString("%f")
}

func (g *Generator) defineCString(text string) strGlobal {
	withNul := text + "\x00"
	name := fmt.Sprintf(".str.%d", g.globalCount)
	g.globalCount++
	glob := g.mod.NewGlobalDef(name, constant.NewCharArrayFromString(withNul))
	return strGlobal{Global: glob, Len: len(withNul)}
}

func (g *Generator) internString(s string) strGlobal {
	if sg, ok := g.strings[s]; ok {
		return sg
	}
	sg := g.defineCString(s)
	g.strings[s] = sg
	return sg
}

func (g *Generator) cstringPtr(sg strGlobal) value.Value {
	arrType := irtypes.NewArray(uint64(sg.Len), irtypes.I8)
	zero := constant.NewInt(irtypes.I32, 0)
	return g.block.NewGetElementPtr(arrType, sg.Global, zero, zero)
}

// --- declaration collection ------------------------------------------

func (g *Generator) collectDecls(prog *ast.Program) {
	names := map[string]bool{}
	for _, s := range prog.Statements {
		if sd, ok := s.(*ast.StructDecl); ok {
			names[sd.Name] = true
			g.structFieldType[sd.Name] = map[string]types.Type{}
		}
	}

	for _, s := range prog.Statements {
		sd, ok := s.(*ast.StructDecl)
		if !ok {
			continue
		}
		for _, f := range sd.Fields {
			ft := types.Parse(f.TypeName, names)
			g.structFieldType[sd.Name][f.Name] = ft
			g.structFieldOrder[sd.Name] = append(g.structFieldOrder[sd.Name], f.Name)
		}
	}

	for _, s := range prog.Statements {
		fd, ok := s.(*ast.FuncDecl)
		if !ok {
			continue
		}

		params := make([]types.Type, len(fd.Params))
		irParams := make([]*ir.Param, len(fd.Params))
		for i, p := range fd.Params {
			params[i] = types.Parse(p.TypeName, names)
			irParams[i] = ir.NewParam(p.Name, g.llvmType(params[i]))
		}
		ret := types.Parse(fd.ReturnType, names)

		g.funcSigs[fd.Name] = funcSig{Params: params, Return: ret}
		g.funcs[fd.Name] = g.mod.NewFunc(fd.Name, g.llvmType(ret), irParams...)
	}
}

func (g *Generator) fieldIndex(structName, field string) int {
	for i, name := range g.structFieldOrder[structName] {
		if name == field {
			return i
		}
	}
	return 0
}

func (g *Generator) structLLVMType(name string) *irtypes.StructType {
	if st, ok := g.structTypeCache[name]; ok {
		return st
	}
	order := g.structFieldOrder[name]
	fields := make([]irtypes.Type, len(order))
	for i, fieldName := range order {
		fields[i] = g.llvmType(g.structFieldType[name][fieldName])
	}
	st := &irtypes.StructType{Fields: fields}
	g.structTypeCache[name] = st
	return st
}

func (g *Generator) llvmType(t types.Type) irtypes.Type {
	switch t.Kind {
	case types.I8, types.I16, types.I32, types.I64, types.U8, types.U16, types.U32, types.U64, types.BoolT, types.CharT:
		return g.llvmIntType(t)
	case types.F32:
		return irtypes.Float
	case types.F64:
		return irtypes.Double
	case types.StrT:
		return irtypes.I8Ptr
	case types.VoidT:
		return irtypes.Void
	case types.StructT:
		return g.structLLVMType(t.Name)
	case types.ArrayT:
		return irtypes.NewPointer(g.llvmType(*t.Elem))
	default:
		return irtypes.I32
	}
}

func (g *Generator) llvmIntType(t types.Type) *irtypes.IntType {
	switch t.Kind {
	case types.I8, types.U8:
		return irtypes.I8
	case types.I16, types.U16:
		return irtypes.I16
	case types.I64, types.U64:
		return irtypes.I64
	case types.BoolT:
		return irtypes.I1
	case types.CharT:
		return irtypes.I8
	default:
		return irtypes.I32
	}
}

func bitWidth(t types.Type) int {
	switch t.Kind {
	case types.I8, types.U8:
		return 8
	case types.I16, types.U16:
		return 16
	case types.I32, types.U32:
		return 32
	default:
		return 64
	}
}

// --- string interning pre-pass ------------------------------------------

// internAllStrings walks the whole program once, before any function body
// is lowered, so every string literal gets a stable @.str.N label
// regardless of which function ends up referencing it first.
func (g *Generator) internAllStrings(prog *ast.Program) {
	for _, s := range prog.Statements {
		g.internStmtStrings(s)
	}
}

func (g *Generator) internStmtsStrings(stmts []ast.Stmt) {
	for _, s := range stmts {
		g.internStmtStrings(s)
	}
}

func (g *Generator) internStmtStrings(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		if st.Init != nil {
			g.internExprStrings(st.Init)
		}
	case *ast.Assign:
		g.internExprStrings(st.Target)
		g.internExprStrings(st.Value)
	case *ast.ExprStmt:
		g.internExprStrings(st.Expr)
	case *ast.ReturnStmt:
		if st.Value != nil {
			g.internExprStrings(st.Value)
		}
	case *ast.IfStmt:
		g.internExprStrings(st.Cond)
		g.internStmtsStrings(st.Then)
		for _, ei := range st.ElseIfs {
			g.internExprStrings(ei.Cond)
			g.internStmtsStrings(ei.Body)
		}
		g.internStmtsStrings(st.Else)
	case *ast.WhileStmt:
		g.internExprStrings(st.Cond)
		g.internStmtsStrings(st.Body)
	case *ast.ForStmt:
		if st.Init != nil {
			g.internStmtStrings(st.Init)
		}
		if st.Cond != nil {
			g.internExprStrings(st.Cond)
		}
		if st.Post != nil {
			g.internStmtStrings(st.Post)
		}
		g.internStmtsStrings(st.Body)
	case *ast.MatchStmt:
		g.internExprStrings(st.Scrutinee)
		for _, arm := range st.Arms {
			g.internExprStrings(arm.Pattern)
			g.internStmtsStrings(arm.Body)
		}
		g.internStmtsStrings(st.Default)
	case *ast.BlockStmt:
		g.internStmtsStrings(st.Body)
	case *ast.FuncDecl:
		g.internStmtsStrings(st.Body)
	}
}

func (g *Generator) internExprStrings(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.StringLit:
		g.internString(ex.Value)
	case *ast.InterpStringLit:
		for _, part := range ex.Parts {
			switch part.Kind {
			case ast.InterpText:
				g.internString(part.Text)
			case ast.InterpExpression:
				g.internString("{" + part.Text + "}")
			}
		}
	case *ast.BinaryExpr:
		g.internExprStrings(ex.Left)
		g.internExprStrings(ex.Right)
	case *ast.UnaryExpr:
		g.internExprStrings(ex.Operand)
	case *ast.CallExpr:
		g.internExprStrings(ex.Callee)
		for _, a := range ex.Args {
			g.internExprStrings(a)
		}
	case *ast.MoveExpr:
		g.internExprStrings(ex.Operand)
	case *ast.BorrowExpr:
		g.internExprStrings(ex.Operand)
	case *ast.FieldExpr:
		g.internExprStrings(ex.Target)
	case *ast.IndexExpr:
		g.internExprStrings(ex.Target)
		g.internExprStrings(ex.Index)
	case *ast.StructLit:
		for _, f := range ex.Fields {
			g.internExprStrings(f.Value)
		}
	}
}

// --- type inference (post-typecheck, error-free) --------------------------

// typeOf re-derives an already type-checked expression's type. Unlike
// internal/typecheck's version this never reports diagnostics: by the time
// codegen runs, the program is known to be well-typed.
func (g *Generator) typeOf(e ast.Expr) types.Type {
	switch ex := e.(type) {
	case *ast.IntegerLit:
		_, t := parseIntegerLit(ex.Text)
		return t
	case *ast.FloatLit:
		return types.Type{Kind: types.F64}
	case *ast.StringLit, *ast.InterpStringLit:
		return types.Type{Kind: types.StrT}
	case *ast.CharLit:
		return types.Type{Kind: types.CharT}
	case *ast.BoolLit:
		return types.Type{Kind: types.BoolT}
	case *ast.Identifier:
		if b, ok := g.vars[ex.Name]; ok {
			return b.Type
		}
		return types.Type{Kind: types.Invalid}
	case *ast.BinaryExpr:
		switch ex.Op {
		case ast.OpAssign:
			return types.Type{Kind: types.VoidT}
		case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpAnd, ast.OpOr:
			return types.Type{Kind: types.BoolT}
		default:
			result, _ := types.Promote(g.typeOf(ex.Left), g.typeOf(ex.Right))
			return result
		}
	case *ast.UnaryExpr:
		if ex.Op == ast.OpNot {
			return types.Type{Kind: types.BoolT}
		}
		return g.typeOf(ex.Operand)
	case *ast.CallExpr:
		if id, ok := ex.Callee.(*ast.Identifier); ok {
			if id.Name == "print" || id.Name == "println" {
				return types.Type{Kind: types.VoidT}
			}
			if sig, ok := g.funcSigs[id.Name]; ok {
				return sig.Return
			}
		}
		return types.Type{Kind: types.Invalid}
	case *ast.MoveExpr:
		return g.typeOf(ex.Operand)
	case *ast.BorrowExpr:
		return g.typeOf(ex.Operand)
	case *ast.FieldExpr:
		t := g.typeOf(ex.Target)
		if t.Kind == types.StructT {
			return g.structFieldType[t.Name][ex.Field]
		}
		return types.Type{Kind: types.Invalid}
	case *ast.IndexExpr:
		t := g.typeOf(ex.Target)
		if t.Kind == types.ArrayT {
			return *t.Elem
		}
		return types.Type{Kind: types.Invalid}
	case *ast.StructLit:
		return types.Type{Kind: types.StructT, Name: ex.Name}
	default:
		return types.Type{Kind: types.Invalid}
	}
}

// --- function lowering --------------------------------------------------

func (g *Generator) label(prefix string) string {
	g.blockCount++
	return fmt.Sprintf("%s.%d", prefix, g.blockCount)
}

func (g *Generator) lowerFunc(fd *ast.FuncDecl) {
	f := g.funcs[fd.Name]
	sig := g.funcSigs[fd.Name]

	g.curFunc = f
	g.vars = map[string]varBinding{}
	g.retType = sig.Return
	g.blockCount = 0

	entry := f.NewBlock(g.label("entry"))
	g.block = entry

	for i, p := range fd.Params {
		ptr := g.block.NewAlloca(g.llvmType(sig.Params[i]))
		g.block.NewStore(f.Params[i], ptr)
		g.vars[p.Name] = varBinding{Ptr: ptr, Type: sig.Params[i]}
	}

	g.lowerStmts(fd.Body)

	if g.block.Term == nil {
		if sig.Return.Kind == types.VoidT {
			g.block.NewRet(nil)
		} else {
			// internal/ownership and internal/typecheck are both lexical,
			// not flow-sensitive, so neither can prove every path returns;
			// a function that falls off its last statement without one
			// traps at runtime instead of fabricating a return value.
			g.block.NewUnreachable()
		}
	}
}

func (g *Generator) lowerStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		if g.block.Term != nil {
			return
		}
		g.lowerStmt(s)
	}
}

func (g *Generator) lowerStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		g.lowerVarDecl(st)
	case *ast.Assign:
		g.lowerAssignCore(st.Target, st.Value)
	case *ast.ExprStmt:
		g.lowerExpr(st.Expr)
	case *ast.ReturnStmt:
		g.lowerReturn(st)
	case *ast.IfStmt:
		g.lowerIf(st)
	case *ast.WhileStmt:
		g.lowerWhile(st)
	case *ast.ForStmt:
		g.lowerFor(st)
	case *ast.MatchStmt:
		g.lowerMatch(st)
	case *ast.BlockStmt:
		g.lowerStmts(st.Body)
	case *ast.FuncDecl, *ast.StructDecl, *ast.UseDecl, *ast.BadStmt:
		// Nested function declarations, struct/use declarations and parse
		// failures have nothing left to lower here.
	}
}

func (g *Generator) lowerVarDecl(s *ast.VarDecl) {
	var val value.Value
	var t types.Type

	if s.TypeName != "" {
		names := make(map[string]bool, len(g.structFieldType))
		for name := range g.structFieldType {
			names[name] = true
		}
		t = types.Parse(s.TypeName, names)
	}

	if s.Init != nil {
		var initType types.Type
		val, initType = g.lowerExpr(s.Init)
		if s.TypeName == "" {
			t = initType
		}
		val = g.convertTo(val, initType, t)
	} else {
		val = g.zeroValue(t)
	}

	ptr := g.block.NewAlloca(g.llvmType(t))
	g.block.NewStore(val, ptr)
	g.vars[s.Name] = varBinding{Ptr: ptr, Type: t}
}

func (g *Generator) zeroValue(t types.Type) value.Value {
	switch {
	case t.IsInteger(), t.Kind == types.BoolT, t.Kind == types.CharT:
		return constant.NewInt(g.llvmIntType(t), 0)
	case t.Kind == types.F32:
		return constant.NewFloat(irtypes.Float, 0)
	case t.Kind == types.F64:
		return constant.NewFloat(irtypes.Double, 0)
	default:
		return constant.NewNull(irtypes.I8Ptr)
	}
}

func (g *Generator) lowerAssignCore(target, valueExpr ast.Expr) {
	val, valType := g.lowerExpr(valueExpr)
	ptr := g.lvalue(target)
	if ptr == nil {
		return
	}
	targetType := g.typeOf(target)
	g.block.NewStore(g.convertTo(val, valType, targetType), ptr)
}

// lvalue computes the address an assignment (or a field/index read) should
// go through. Plain identifiers resolve to their alloca directly; field and
// index targets walk down to it through a GEP chain.
func (g *Generator) lvalue(e ast.Expr) value.Value {
	switch ex := e.(type) {
	case *ast.Identifier:
		if b, ok := g.vars[ex.Name]; ok {
			return b.Ptr
		}
		return nil
	case *ast.FieldExpr:
		targetType := g.typeOf(ex.Target)
		basePtr := g.lvalue(ex.Target)
		if basePtr == nil || targetType.Kind != types.StructT {
			return nil
		}
		idx := g.fieldIndex(targetType.Name, ex.Field)
		return g.block.NewGetElementPtr(g.structLLVMType(targetType.Name), basePtr,
			constant.NewInt(irtypes.I32, 0), constant.NewInt(irtypes.I32, int64(idx)))
	case *ast.IndexExpr:
		targetType := g.typeOf(ex.Target)
		baseVal, _ := g.lowerExpr(ex.Target)
		idxVal, _ := g.lowerExpr(ex.Index)
		if targetType.Kind != types.ArrayT {
			return nil
		}
		return g.block.NewGetElementPtr(g.llvmType(*targetType.Elem), baseVal, idxVal)
	default:
		return nil
	}
}

func (g *Generator) lowerReturn(s *ast.ReturnStmt) {
	if s.Value == nil {
		g.block.NewRet(nil)
		return
	}
	v, t := g.lowerExpr(s.Value)
	g.block.NewRet(g.convertTo(v, t, g.retType))
}

type condBranch struct {
	Cond ast.Expr
	Body []ast.Stmt
}

func (g *Generator) lowerIf(s *ast.IfStmt) {
	merge := g.curFunc.NewBlock(g.label("if.end"))

	branches := make([]condBranch, 0, 1+len(s.ElseIfs))
	branches = append(branches, condBranch{Cond: s.Cond, Body: s.Then})
	for _, ei := range s.ElseIfs {
		branches = append(branches, condBranch{Cond: ei.Cond, Body: ei.Body})
	}

	for _, br := range branches {
		condVal, _ := g.lowerExpr(br.Cond)
		condVal = g.normalizeBool(condVal)
		thenBlock := g.curFunc.NewBlock(g.label("if.then"))
		nextBlock := g.curFunc.NewBlock(g.label("if.next"))

		g.block.NewCondBr(condVal, thenBlock, nextBlock)

		g.block = thenBlock
		g.lowerStmts(br.Body)
		if g.block.Term == nil {
			g.block.NewBr(merge)
		}

		g.block = nextBlock
	}

	if s.Else != nil {
		g.lowerStmts(s.Else)
	}
	if g.block.Term == nil {
		g.block.NewBr(merge)
	}

	g.block = merge
}

func (g *Generator) lowerWhile(s *ast.WhileStmt) {
	condBlock := g.curFunc.NewBlock(g.label("while.cond"))
	bodyBlock := g.curFunc.NewBlock(g.label("while.body"))
	endBlock := g.curFunc.NewBlock(g.label("while.end"))

	if g.block.Term == nil {
		g.block.NewBr(condBlock)
	}

	g.block = condBlock
	condVal, _ := g.lowerExpr(s.Cond)
	g.block.NewCondBr(g.normalizeBool(condVal), bodyBlock, endBlock)

	g.block = bodyBlock
	g.lowerStmts(s.Body)
	if g.block.Term == nil {
		g.block.NewBr(condBlock)
	}

	g.block = endBlock
}

func (g *Generator) lowerFor(s *ast.ForStmt) {
	if s.Init != nil {
		g.lowerStmt(s.Init)
	}

	condBlock := g.curFunc.NewBlock(g.label("for.cond"))
	bodyBlock := g.curFunc.NewBlock(g.label("for.body"))
	endBlock := g.curFunc.NewBlock(g.label("for.end"))

	if g.block.Term == nil {
		g.block.NewBr(condBlock)
	}

	g.block = condBlock
	if s.Cond != nil {
		condVal, _ := g.lowerExpr(s.Cond)
		g.block.NewCondBr(g.normalizeBool(condVal), bodyBlock, endBlock)
	} else {
		g.block.NewBr(bodyBlock)
	}

	g.block = bodyBlock
	g.lowerStmts(s.Body)
	if s.Post != nil && g.block.Term == nil {
		g.lowerStmt(s.Post)
	}
	if g.block.Term == nil {
		g.block.NewBr(condBlock)
	}

	g.block = endBlock
}

// lowerMatch desugars to a chain of equality comparisons against the
// scrutinee, rather than a jump table, so arbitrary pattern expressions
// (not just integer constants) are supported uniformly.
func (g *Generator) lowerMatch(s *ast.MatchStmt) {
	scrutVal, scrutType := g.lowerExpr(s.Scrutinee)
	merge := g.curFunc.NewBlock(g.label("match.end"))

	for _, arm := range s.Arms {
		patVal, patType := g.lowerExpr(arm.Pattern)
		cmp := g.equalityValue(scrutVal, scrutType, patVal, patType)

		armBlock := g.curFunc.NewBlock(g.label("match.arm"))
		nextBlock := g.curFunc.NewBlock(g.label("match.next"))
		g.block.NewCondBr(cmp, armBlock, nextBlock)

		g.block = armBlock
		g.lowerStmts(arm.Body)
		if g.block.Term == nil {
			g.block.NewBr(merge)
		}

		g.block = nextBlock
	}

	if s.Default != nil {
		g.lowerStmts(s.Default)
	}
	if g.block.Term == nil {
		g.block.NewBr(merge)
	}

	g.block = merge
}

func (g *Generator) equalityValue(lv value.Value, lt types.Type, rv value.Value, rt types.Type) value.Value {
	if lt.IsNumeric() && rt.IsNumeric() {
		result, _ := types.Promote(lt, rt)
		lv2 := g.convertTo(lv, lt, result)
		rv2 := g.convertTo(rv, rt, result)
		if result.IsFloat() {
			return g.block.NewFCmp(enum.FPredOEQ, lv2, rv2)
		}
		return g.block.NewICmp(enum.IPredEQ, lv2, rv2)
	}
	return g.block.NewICmp(enum.IPredEQ, lv, rv)
}

// --- expression lowering --------------------------------------------------

func (g *Generator) lowerExpr(e ast.Expr) (value.Value, types.Type) {
	switch ex := e.(type) {
	case *ast.IntegerLit:
		n, t := parseIntegerLit(ex.Text)
		return constant.NewInt(g.llvmIntType(t), n), t
	case *ast.FloatLit:
		return constant.NewFloat(irtypes.Double, ex.Value), types.Type{Kind: types.F64}
	case *ast.StringLit:
		sg := g.internString(ex.Value)
		return g.cstringPtr(sg), types.Type{Kind: types.StrT}
	case *ast.InterpStringLit:
		// Meaningful only directly under print(); there is no runtime
		// string-concatenation facility to compose one here.
		return constant.NewNull(irtypes.I8Ptr), types.Type{Kind: types.StrT}
	case *ast.CharLit:
		return constant.NewInt(irtypes.I8, int64(ex.Value)), types.Type{Kind: types.CharT}
	case *ast.BoolLit:
		var n int64
		if ex.Value {
			n = 1
		}
		return constant.NewInt(irtypes.I1, n), types.Type{Kind: types.BoolT}
	case *ast.Identifier:
		if ex.Name == "null" {
			return constant.NewNull(irtypes.I8Ptr), types.Type{Kind: types.Invalid}
		}
		b, ok := g.vars[ex.Name]
		if !ok {
			return constant.NewNull(irtypes.I8Ptr), types.Type{Kind: types.Invalid}
		}
		return g.block.NewLoad(g.llvmType(b.Type), b.Ptr), b.Type
	case *ast.BinaryExpr:
		if ex.Op == ast.OpAssign {
			g.lowerAssignCore(ex.Left, ex.Right)
			return nil, types.Type{Kind: types.VoidT}
		}
		return g.lowerBinary(ex)
	case *ast.UnaryExpr:
		return g.lowerUnary(ex)
	case *ast.CallExpr:
		return g.lowerCall(ex)
	case *ast.MoveExpr:
		return g.lowerExpr(ex.Operand)
	case *ast.BorrowExpr:
		// No first-class reference type is modeled (internal/ownership tracks
		// borrow legality, not a distinct borrowed value); the pointer itself
		// is handed back so a borrowed struct/array can still be addressed,
		// matching how plain identifiers already behave.
		ptr := g.lvalue(ex.Operand)
		return ptr, g.typeOf(ex.Operand)
	case *ast.FieldExpr:
		t := g.typeOf(ex)
		ptr := g.lvalue(ex)
		if ptr == nil {
			return constant.NewNull(irtypes.I8Ptr), types.Type{Kind: types.Invalid}
		}
		return g.block.NewLoad(g.llvmType(t), ptr), t
	case *ast.IndexExpr:
		t := g.typeOf(ex)
		ptr := g.lvalue(ex)
		if ptr == nil {
			return constant.NewNull(irtypes.I8Ptr), types.Type{Kind: types.Invalid}
		}
		return g.block.NewLoad(g.llvmType(t), ptr), t
	case *ast.StructLit:
		return g.lowerStructLit(ex)
	default:
		return constant.NewNull(irtypes.I8Ptr), types.Type{Kind: types.Invalid}
	}
}

func parseIntegerLit(text string) (int64, types.Type) {
	suffixes := []struct {
		suf string
		k   types.Kind
	}{
		{"i64", types.I64}, {"i32", types.I32}, {"i16", types.I16}, {"i8", types.I8},
		{"u64", types.U64}, {"u32", types.U32}, {"u16", types.U16}, {"u8", types.U8},
	}

	t := types.Type{Kind: types.I32}
	digits := text
	for _, s := range suffixes {
		if strings.HasSuffix(text, s.suf) {
			t = types.Type{Kind: s.k}
			digits = strings.TrimSuffix(text, s.suf)
			break
		}
	}
	digits = strings.ReplaceAll(digits, "_", "")

	n, _ := strconv.ParseInt(digits, 10, 64)
	return n, t
}

func (g *Generator) lowerBinary(ex *ast.BinaryExpr) (value.Value, types.Type) {
	lv, lt := g.lowerExpr(ex.Left)
	rv, rt := g.lowerExpr(ex.Right)

	switch ex.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return g.lowerArithmetic(ex, lv, lt, rv, rt)
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return g.lowerComparison(ex, lv, lt, rv, rt)
	case ast.OpAnd, ast.OpOr:
		return g.lowerLogical(ex, lv, rv)
	default:
		return nil, types.Type{Kind: types.Invalid}
	}
}

// normalizeBool brings a bool-typed value down to a literal i1, the only
// width a branch condition or a bool variable slot can hold. Comparisons
// and logical ops hand back an i32 (see lowerComparison, lowerLogical);
// bool literals and loads out of bool slots are already i1 and pass through.
func (g *Generator) normalizeBool(v value.Value) value.Value {
	if it, ok := v.Type().(*irtypes.IntType); ok && it.BitSize != 1 {
		return g.block.NewICmp(enum.IPredNE, v, constant.NewInt(it, 0))
	}
	return v
}

func (g *Generator) convertTo(v value.Value, from, to types.Type) value.Value {
	if v == nil {
		return v
	}
	if to.Kind == types.BoolT {
		return g.normalizeBool(v)
	}
	if from.Equal(to) {
		return v
	}
	switch {
	case to.IsFloat() && from.IsInteger():
		if from.IsSigned() {
			return g.block.NewSIToFP(v, g.llvmType(to))
		}
		return g.block.NewUIToFP(v, g.llvmType(to))
	case to.IsFloat() && from.IsFloat():
		return g.block.NewFPExt(v, g.llvmType(to))
	case to.IsInteger() && from.IsInteger():
		if bitWidth(to) == bitWidth(from) {
			return v
		}
		if bitWidth(to) < bitWidth(from) {
			return g.block.NewTrunc(v, g.llvmType(to))
		}
		if from.IsSigned() {
			return g.block.NewSExt(v, g.llvmType(to))
		}
		return g.block.NewZExt(v, g.llvmType(to))
	default:
		return v
	}
}

func (g *Generator) lowerArithmetic(ex *ast.BinaryExpr, lv value.Value, lt types.Type, rv value.Value, rt types.Type) (value.Value, types.Type) {
	result, _ := types.Promote(lt, rt)
	lv2 := g.convertTo(lv, lt, result)
	rv2 := g.convertTo(rv, rt, result)
	isFloat := result.IsFloat()

	switch ex.Op {
	case ast.OpAdd:
		if isFloat {
			return g.block.NewFAdd(lv2, rv2), result
		}
		return g.block.NewAdd(lv2, rv2), result
	case ast.OpSub:
		if isFloat {
			return g.block.NewFSub(lv2, rv2), result
		}
		return g.block.NewSub(lv2, rv2), result
	case ast.OpMul:
		if isFloat {
			return g.block.NewFMul(lv2, rv2), result
		}
		return g.block.NewMul(lv2, rv2), result
	case ast.OpDiv:
		if isFloat {
			return g.block.NewFDiv(lv2, rv2), result
		}
		if result.IsSigned() {
			return g.block.NewSDiv(lv2, rv2), result
		}
		return g.block.NewUDiv(lv2, rv2), result
	case ast.OpMod:
		if isFloat {
			return g.block.NewFRem(lv2, rv2), result
		}
		if result.IsSigned() {
			return g.block.NewSRem(lv2, rv2), result
		}
		return g.block.NewURem(lv2, rv2), result
	default:
		return nil, types.Type{Kind: types.Invalid}
	}
}

// lowerComparison computes the icmp/fcmp i1 and zero-extends it to i32, so
// the result can be stored in an integer slot or used as a value; callers
// needing a real i1 (branch conditions, bool slots) truncate back via
// normalizeBool/convertTo.
func (g *Generator) lowerComparison(ex *ast.BinaryExpr, lv value.Value, lt types.Type, rv value.Value, rt types.Type) (value.Value, types.Type) {
	boolT := types.Type{Kind: types.BoolT}
	var cmp value.Value

	if lt.IsNumeric() && rt.IsNumeric() {
		result, _ := types.Promote(lt, rt)
		lv2 := g.convertTo(lv, lt, result)
		rv2 := g.convertTo(rv, rt, result)
		if result.IsFloat() {
			cmp = g.block.NewFCmp(fcmpPred(ex.Op), lv2, rv2)
		} else {
			cmp = g.block.NewICmp(icmpPred(ex.Op, result.IsSigned()), lv2, rv2)
		}
	} else {
		pred := enum.IPredEQ
		if ex.Op == ast.OpNeq {
			pred = enum.IPredNE
		}
		cmp = g.block.NewICmp(pred, lv, rv)
	}

	return g.block.NewZExt(cmp, irtypes.I32), boolT
}

func icmpPred(op ast.BinaryOp, signed bool) enum.IPred {
	switch op {
	case ast.OpEq:
		return enum.IPredEQ
	case ast.OpNeq:
		return enum.IPredNE
	case ast.OpLt:
		if signed {
			return enum.IPredSLT
		}
		return enum.IPredULT
	case ast.OpLe:
		if signed {
			return enum.IPredSLE
		}
		return enum.IPredULE
	case ast.OpGt:
		if signed {
			return enum.IPredSGT
		}
		return enum.IPredUGT
	case ast.OpGe:
		if signed {
			return enum.IPredSGE
		}
		return enum.IPredUGE
	default:
		return enum.IPredEQ
	}
}

func fcmpPred(op ast.BinaryOp) enum.FPred {
	switch op {
	case ast.OpEq:
		return enum.FPredOEQ
	case ast.OpNeq:
		return enum.FPredONE
	case ast.OpLt:
		return enum.FPredOLT
	case ast.OpLe:
		return enum.FPredOLE
	case ast.OpGt:
		return enum.FPredOGT
	case ast.OpGe:
		return enum.FPredOGE
	default:
		return enum.FPredOEQ
	}
}

func (g *Generator) lowerLogical(ex *ast.BinaryExpr, lv, rv value.Value) (value.Value, types.Type) {
	// Both operands are always evaluated eagerly; short-circuiting would
	// need its own basic blocks and this language's condition expressions
	// rarely carry side effects worth the extra branching.
	boolT := types.Type{Kind: types.BoolT}
	l1 := g.normalizeBool(lv)
	r1 := g.normalizeBool(rv)

	var res value.Value
	switch ex.Op {
	case ast.OpAnd:
		res = g.block.NewAnd(l1, r1)
	case ast.OpOr:
		res = g.block.NewOr(l1, r1)
	default:
		return nil, boolT
	}
	return g.block.NewZExt(res, irtypes.I32), boolT
}

func (g *Generator) lowerUnary(ex *ast.UnaryExpr) (value.Value, types.Type) {
	v, t := g.lowerExpr(ex.Operand)
	switch ex.Op {
	case ast.OpNeg:
		if t.IsFloat() {
			return g.block.NewFNeg(v), t
		}
		zero := constant.NewInt(g.llvmIntType(t), 0)
		return g.block.NewSub(zero, v), t
	case ast.OpNot:
		b := g.normalizeBool(v)
		x := g.block.NewXor(b, constant.NewInt(irtypes.I1, 1))
		return g.block.NewZExt(x, irtypes.I32), types.Type{Kind: types.BoolT}
	default:
		return v, t
	}
}

func (g *Generator) lowerCall(ex *ast.CallExpr) (value.Value, types.Type) {
	ident, isIdent := ex.Callee.(*ast.Identifier)

	if isIdent && (ident.Name == "print" || ident.Name == "println") {
		g.lowerPrintCall(ex, ident.Name == "println")
		return nil, types.Type{Kind: types.VoidT}
	}

	if !isIdent {
		return constant.NewNull(irtypes.I8Ptr), types.Type{Kind: types.Invalid}
	}

	f, ok := g.funcs[ident.Name]
	if !ok {
		return constant.NewNull(irtypes.I8Ptr), types.Type{Kind: types.Invalid}
	}
	sig := g.funcSigs[ident.Name]

	args := make([]value.Value, len(ex.Args))
	for i, a := range ex.Args {
		v, t := g.lowerExpr(a)
		if i < len(sig.Params) {
			v = g.convertTo(v, t, sig.Params[i])
		}
		args[i] = v
	}

	if sig.Return.Kind == types.VoidT {
		g.block.NewCall(f, args...)
		return nil, types.Type{Kind: types.VoidT}
	}
	return g.block.NewCall(f, args...), sig.Return
}

// lowerPrintCall implements the print/println intrinsics: dispatch by the
// static type of the one argument. str goes straight to puts; everything
// else goes through printf, picking the newline or no-newline format global
// depending on which of the two names was called.
func (g *Generator) lowerPrintCall(call *ast.CallExpr, newline bool) {
	if len(call.Args) != 1 {
		return
	}

	if interp, ok := call.Args[0].(*ast.InterpStringLit); ok {
		for _, part := range interp.Parts {
			g.emitInterpPart(part)
		}
		if newline {
			sg := g.internString("\n")
			g.block.NewCall(g.printfFunc, g.cstringPtr(sg))
		}
		return
	}

	val, t := g.lowerExpr(call.Args[0])
	g.emitPrintValue(val, t, newline)
}

// emitInterpPart prints one piece of an interpolated string literal with no
// trailing newline of its own; lowerPrintCall appends one newline at the end
// of the whole literal when the call was to println.
func (g *Generator) emitInterpPart(part ast.InterpPart) {
	switch part.Kind {
	case ast.InterpText:
		sg := g.internString(part.Text)
		g.block.NewCall(g.printfFunc, g.cstringPtr(sg))
	case ast.InterpVariable:
		b, ok := g.vars[part.Text]
		if !ok {
			return
		}
		val := g.block.NewLoad(g.llvmType(b.Type), b.Ptr)
		g.emitInterpValue(val, b.Type)
	case ast.InterpExpression:
		// Opaque embedded expression text is not re-parsed (internal/parser's
		// splitInterpolation leaves it as-is); it is emitted back out as
		// literal text.
		sg := g.internString("{" + part.Text + "}")
		g.block.NewCall(g.printfFunc, g.cstringPtr(sg))
	}
}

// emitInterpValue prints one interpolated variable with no trailing
// newline. str is routed through printf's %s rather than puts, since puts
// always appends a newline and would break the line mid-interpolation.
func (g *Generator) emitInterpValue(val value.Value, t types.Type) {
	if t.Kind == types.StrT {
		sg := g.internString("%s")
		g.block.NewCall(g.printfFunc, g.cstringPtr(sg), val)
		return
	}
	g.emitPrintValue(val, t, false)
}

// emitPrintValue prints one value: str via puts, float via printf with the
// "%f" format global, everything else brought to i32 by toI32ForPrint and
// printed via printf with the "%d" format global. newline selects the
// newline or bare format-global variant.
func (g *Generator) emitPrintValue(val value.Value, t types.Type, newline bool) {
	switch {
	case t.Kind == types.StrT:
		g.block.NewCall(g.putsFunc, val)
	case t.IsFloat():
		fv := val
		if t.Kind == types.F32 {
			fv = g.block.NewFPExt(val, irtypes.Double)
		}
		fmtG := g.formats.FloatNoNL
		if newline {
			fmtG = g.formats.FloatNL
		}
		g.block.NewCall(g.printfFunc, g.cstringPtr(fmtG), fv)
	default:
		iv := g.toI32ForPrint(val, t)
		fmtG := g.formats.IntNoNL
		if newline {
			fmtG = g.formats.IntNL
		}
		g.block.NewCall(g.printfFunc, g.cstringPtr(fmtG), iv)
	}
}

// toI32ForPrint brings an integer, bool, or char value to the i32 width the
// "%d" format expects: narrower signed integers are sign-extended, narrower
// unsigned integers, bools and chars zero-extended, and i64/u64 truncated.
func (g *Generator) toI32ForPrint(v value.Value, t types.Type) value.Value {
	switch t.Kind {
	case types.BoolT:
		return g.block.NewZExt(g.normalizeBool(v), irtypes.I32)
	case types.CharT:
		return g.block.NewZExt(v, irtypes.I32)
	}

	switch w := bitWidth(t); {
	case w < 32:
		if t.IsSigned() {
			return g.block.NewSExt(v, irtypes.I32)
		}
		return g.block.NewZExt(v, irtypes.I32)
	case w > 32:
		return g.block.NewTrunc(v, irtypes.I32)
	default:
		return v
	}
}

func (g *Generator) lowerStructLit(ex *ast.StructLit) (value.Value, types.Type) {
	st := g.structLLVMType(ex.Name)
	ptr := g.block.NewAlloca(st)

	for _, f := range ex.Fields {
		idx := g.fieldIndex(ex.Name, f.Name)
		v, vt := g.lowerExpr(f.Value)
		ft := g.structFieldType[ex.Name][f.Name]
		v = g.convertTo(v, vt, ft)

		fieldPtr := g.block.NewGetElementPtr(st, ptr,
			constant.NewInt(irtypes.I32, 0), constant.NewInt(irtypes.I32, int64(idx)))
		g.block.NewStore(v, fieldPtr)
	}

	return g.block.NewLoad(st, ptr), types.Type{Kind: types.StructT, Name: ex.Name}
}
