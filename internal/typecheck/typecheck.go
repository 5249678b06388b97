// Package typecheck implements a two-pass checker that resolves
// every struct and function signature before looking at a single function
// body, then walks each body assigning a type to every expression and
// checking every statement rule. It is not flow-sensitive — the scope
// model it shares with internal/ownership is purely lexical — and it never
// stops at the first error: every statement is still visited so one run
// surfaces everything wrong with a program.
package typecheck

import (
	"github.com/zenlang/zenc/internal/ast"
	"github.com/zenlang/zenc/internal/diag"
	"github.com/zenlang/zenc/internal/token"
	"github.com/zenlang/zenc/internal/types"
)

type structInfo struct {
	FieldTypes map[string]types.Type
	FieldOrder []string
}

type funcInfo struct {
	Params []types.Type
	Return types.Type
}

type binding struct {
	Type    types.Type
	Mutable bool
}

// Checker carries the declaration tables and lexical scope stack for one
// program.
type Checker struct {
	diags  diag.Bag
	structs map[string]*structInfo
	funcs   map[string]*funcInfo
	scopes  []map[string]binding

	currentReturn types.Type
}

// Check type-checks prog and returns every diagnostic collected.
func Check(prog *ast.Program) diag.Bag {
	c := &Checker{
		structs: map[string]*structInfo{},
		funcs:   map[string]*funcInfo{},
	}
	c.collectDecls(prog)

	c.pushScope()
	for _, s := range prog.Statements {
		c.checkTopStmt(s)
	}
	c.popScope()

	return c.diags
}

func (c *Checker) errorf(pos token.Position, format string, args ...any) {
	c.diags.Addf(pos, format, args...)
}

func (c *Checker) warnf(pos token.Position, format string, args ...any) {
	c.diags.Warnf(pos, format, args...)
}

// --- scopes ---------------------------------------------------------------

func (c *Checker) pushScope() { c.scopes = append(c.scopes, map[string]binding{}) }

func (c *Checker) popScope() { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declareVar(pos token.Position, name string, t types.Type, mutable bool) {
	top := c.scopes[len(c.scopes)-1]
	if _, exists := top[name]; exists {
		c.errorf(pos, "variable '%s' is already declared in this scope", name)
	}
	top[name] = binding{Type: t, Mutable: mutable}
}

func (c *Checker) lookup(name string) (binding, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i][name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

func (c *Checker) structNameSet() map[string]bool {
	set := make(map[string]bool, len(c.structs))
	for name := range c.structs {
		set[name] = true
	}
	return set
}

// --- declaration collection (pass 1) --------------------------------------

func (c *Checker) collectDecls(prog *ast.Program) {
	for _, s := range prog.Statements {
		sd, ok := s.(*ast.StructDecl)
		if !ok {
			continue
		}
		if _, exists := c.structs[sd.Name]; exists {
			c.errorf(sd.Tok.Pos, "struct '%s' is already declared", sd.Name)
			continue
		}
		c.structs[sd.Name] = &structInfo{FieldTypes: map[string]types.Type{}}
	}

	names := c.structNameSet()

	for _, s := range prog.Statements {
		sd, ok := s.(*ast.StructDecl)
		if !ok {
			continue
		}
		info := c.structs[sd.Name]
		for _, f := range sd.Fields {
			ft := types.Parse(f.TypeName, names)
			if !ft.IsValid() {
				c.errorf(sd.Tok.Pos, "struct %s: unknown type '%s' for field '%s'", sd.Name, f.TypeName, f.Name)
			}
			info.FieldTypes[f.Name] = ft
			info.FieldOrder = append(info.FieldOrder, f.Name)
		}
	}

	for _, s := range prog.Statements {
		fd, ok := s.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if _, exists := c.funcs[fd.Name]; exists {
			c.errorf(fd.Tok.Pos, "function '%s' is already declared", fd.Name)
			continue
		}

		params := make([]types.Type, len(fd.Params))
		for i, p := range fd.Params {
			params[i] = types.Parse(p.TypeName, names)
			if !params[i].IsValid() {
				c.errorf(fd.Tok.Pos, "function %s: unknown type '%s' for parameter '%s'", fd.Name, p.TypeName, p.Name)
			}
		}

		ret := types.Parse(fd.ReturnType, names)
		if !ret.IsValid() {
			c.errorf(fd.Tok.Pos, "function %s: unknown return type '%s'", fd.Name, fd.ReturnType)
		}

		c.funcs[fd.Name] = &funcInfo{Params: params, Return: ret}
	}
}

// --- statements -------------------------------------------------------

func (c *Checker) checkTopStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.FuncDecl:
		c.checkFuncBody(st)
	case *ast.StructDecl, *ast.UseDecl:
		// Fully handled during declaration collection.
	default:
		c.checkStmt(s)
	}
}

func (c *Checker) checkFuncBody(fd *ast.FuncDecl) {
	info := c.funcs[fd.Name]
	if info == nil {
		return
	}

	prevReturn := c.currentReturn
	c.currentReturn = info.Return

	c.pushScope()
	for i, p := range fd.Params {
		c.declareVar(fd.Tok.Pos, p.Name, info.Params[i], true)
	}
	for _, st := range fd.Body {
		c.checkStmt(st)
	}
	c.popScope()

	c.currentReturn = prevReturn
}

func (c *Checker) checkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		c.checkVarDecl(st)
	case *ast.Assign:
		c.checkAssign(st)
	case *ast.ExprStmt:
		c.checkExpr(st.Expr)
	case *ast.IfStmt:
		c.checkIf(st)
	case *ast.WhileStmt:
		c.checkWhile(st)
	case *ast.ForStmt:
		c.checkFor(st)
	case *ast.MatchStmt:
		c.checkMatch(st)
	case *ast.ReturnStmt:
		c.checkReturn(st)
	case *ast.BlockStmt:
		c.pushScope()
		for _, inner := range st.Body {
			c.checkStmt(inner)
		}
		c.popScope()
	case *ast.FuncDecl:
		c.checkFuncBody(st)
	case *ast.StructDecl, *ast.UseDecl, *ast.BadStmt:
		// Nothing further to check.
	}
}

func (c *Checker) checkVarDecl(s *ast.VarDecl) {
	hasDeclared := s.TypeName != ""
	var declared types.Type
	if hasDeclared {
		declared = types.Parse(s.TypeName, c.structNameSet())
		if !declared.IsValid() {
			c.errorf(s.Tok.Pos, "unknown type '%s'", s.TypeName)
		}
	}

	hasInit := s.Init != nil
	var initType types.Type
	if hasInit {
		initType = c.checkExpr(s.Init)
	}

	var final types.Type
	switch {
	case hasDeclared && hasInit:
		if initType.IsValid() && declared.IsValid() && !declared.Equal(initType) {
			c.errorf(s.Tok.Pos, "variable '%s' declared as %s but initialized with %s", s.Name, declared, initType)
		}
		final = declared
	case hasDeclared:
		final = declared
	case hasInit:
		final = initType
	default:
		c.errorf(s.Tok.Pos, "variable '%s' needs either a type annotation or an initializer", s.Name)
		final = types.Type{Kind: types.Invalid}
	}

	c.declareVar(s.Tok.Pos, s.Name, final, s.Mutable)
}

func (c *Checker) checkAssign(s *ast.Assign) {
	c.checkAssignment(s.Tok.Pos, s.Target, s.Value)
}

func (c *Checker) checkIf(s *ast.IfStmt) {
	c.checkCondition(s.Tok.Pos, s.Cond, "if")
	c.pushScope()
	for _, st := range s.Then {
		c.checkStmt(st)
	}
	c.popScope()

	for _, ei := range s.ElseIfs {
		c.checkCondition(s.Tok.Pos, ei.Cond, "else-if")
		c.pushScope()
		for _, st := range ei.Body {
			c.checkStmt(st)
		}
		c.popScope()
	}

	if s.Else != nil {
		c.pushScope()
		for _, st := range s.Else {
			c.checkStmt(st)
		}
		c.popScope()
	}
}

func (c *Checker) checkWhile(s *ast.WhileStmt) {
	c.checkCondition(s.Tok.Pos, s.Cond, "while")
	c.pushScope()
	for _, st := range s.Body {
		c.checkStmt(st)
	}
	c.popScope()
}

func (c *Checker) checkFor(s *ast.ForStmt) {
	c.pushScope()
	if s.Init != nil {
		c.checkStmt(s.Init)
	}
	if s.Cond != nil {
		c.checkCondition(s.Tok.Pos, s.Cond, "for")
	}
	if s.Post != nil {
		c.checkStmt(s.Post)
	}

	c.pushScope()
	for _, st := range s.Body {
		c.checkStmt(st)
	}
	c.popScope()
	c.popScope()
}

func (c *Checker) checkMatch(s *ast.MatchStmt) {
	scrutType := c.checkExpr(s.Scrutinee)

	for _, arm := range s.Arms {
		pt := c.checkExpr(arm.Pattern)
		if scrutType.IsValid() && pt.IsValid() && !scrutType.Equal(pt) {
			c.errorf(s.Tok.Pos, "match arm pattern type %s does not match scrutinee type %s", pt, scrutType)
		}
		c.pushScope()
		for _, st := range arm.Body {
			c.checkStmt(st)
		}
		c.popScope()
	}

	if s.Default != nil {
		c.pushScope()
		for _, st := range s.Default {
			c.checkStmt(st)
		}
		c.popScope()
	}
}

func (c *Checker) checkReturn(s *ast.ReturnStmt) {
	if s.Value == nil {
		if c.currentReturn.IsValid() && c.currentReturn.Kind != types.VoidT {
			c.errorf(s.Tok.Pos, "function must return a value of type %s", c.currentReturn)
		}
		return
	}

	vt := c.checkExpr(s.Value)
	if c.currentReturn.Kind == types.VoidT {
		c.errorf(s.Tok.Pos, "function returns void but a value was provided")
		return
	}
	if vt.IsValid() && c.currentReturn.IsValid() && !c.currentReturn.Equal(vt) {
		c.errorf(s.Tok.Pos, "function returns %s but expression has type %s", c.currentReturn, vt)
	}
}

func (c *Checker) checkCondition(pos token.Position, e ast.Expr, construct string) {
	t := c.checkExpr(e)
	if t.IsValid() && t.Kind != types.BoolT {
		c.errorf(pos, "%s condition must be bool, got %s", construct, t)
	}
}

// checkAssignment is shared by the Assign statement and by an assignment
// appearing as a subexpression; assignment-as-expression has type void.
func (c *Checker) checkAssignment(pos token.Position, target, value ast.Expr) types.Type {
	targetType, mutable, name, ok := c.resolveAssignTarget(target)
	valueType := c.checkExpr(value)

	if ok && valueType.IsValid() && targetType.IsValid() && !targetType.Equal(valueType) {
		c.errorf(pos, "cannot assign %s to variable of type %s", valueType, targetType)
	}
	if ok && !mutable {
		c.errorf(pos, "cannot assign to immutable variable '%s'", name)
	}

	return types.Type{Kind: types.VoidT}
}

func (c *Checker) resolveAssignTarget(e ast.Expr) (t types.Type, mutable bool, name string, ok bool) {
	switch target := e.(type) {
	case *ast.Identifier:
		b, found := c.lookup(target.Name)
		if !found {
			c.errorf(target.Tok.Pos, "undeclared variable '%s'", target.Name)
			return types.Type{Kind: types.Invalid}, false, target.Name, false
		}
		return b.Type, b.Mutable, target.Name, true
	case *ast.FieldExpr:
		t := c.checkField(target)
		return t, true, target.Field, t.IsValid()
	case *ast.IndexExpr:
		t := c.checkIndex(target)
		return t, true, "", t.IsValid()
	default:
		c.errorf(e.Position(), "invalid assignment target")
		return types.Type{Kind: types.Invalid}, false, "", false
	}
}

// --- expressions ------------------------------------------------------

func (c *Checker) checkExpr(e ast.Expr) types.Type {
	switch ex := e.(type) {
	case *ast.IntegerLit:
		// A type suffix kept in the literal's text ("42i64") fixes its type;
		// an unsuffixed literal defaults to i32.
		for _, n := range []int{3, 2} {
			if len(ex.Text) > n {
				if t := types.Parse(ex.Text[len(ex.Text)-n:], nil); t.IsInteger() {
					return t
				}
			}
		}
		return types.Type{Kind: types.I32}
	case *ast.FloatLit:
		return types.Type{Kind: types.F64}
	case *ast.StringLit:
		return types.Type{Kind: types.StrT}
	case *ast.InterpStringLit:
		for _, part := range ex.Parts {
			if part.Kind == ast.InterpVariable {
				if _, ok := c.lookup(part.Text); !ok {
					c.errorf(ex.Tok.Pos, "undeclared variable '%s' in string interpolation", part.Text)
				}
			}
		}
		return types.Type{Kind: types.StrT}
	case *ast.CharLit:
		return types.Type{Kind: types.CharT}
	case *ast.BoolLit:
		return types.Type{Kind: types.BoolT}
	case *ast.Identifier:
		if ex.Name == "null" {
			return types.Type{Kind: types.Invalid}
		}
		b, ok := c.lookup(ex.Name)
		if !ok {
			c.errorf(ex.Tok.Pos, "undeclared variable '%s'", ex.Name)
			return types.Type{Kind: types.Invalid}
		}
		return b.Type
	case *ast.BinaryExpr:
		if ex.Op == ast.OpAssign {
			return c.checkAssignment(ex.Tok.Pos, ex.Left, ex.Right)
		}
		return c.checkBinary(ex)
	case *ast.UnaryExpr:
		return c.checkUnary(ex)
	case *ast.CallExpr:
		return c.checkCall(ex)
	case *ast.MoveExpr:
		return c.checkExpr(ex.Operand)
	case *ast.BorrowExpr:
		return c.checkExpr(ex.Operand)
	case *ast.FieldExpr:
		return c.checkField(ex)
	case *ast.IndexExpr:
		return c.checkIndex(ex)
	case *ast.StructLit:
		return c.checkStructLit(ex)
	case *ast.ModuleAccess:
		c.errorf(ex.Tok.Pos, "unresolved module path")
		return types.Type{Kind: types.Invalid}
	case *ast.BadExpr:
		return types.Type{Kind: types.Invalid}
	default:
		return types.Type{Kind: types.Invalid}
	}
}

func (c *Checker) checkBinary(ex *ast.BinaryExpr) types.Type {
	lt := c.checkExpr(ex.Left)
	rt := c.checkExpr(ex.Right)

	switch ex.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return c.checkArithmetic(ex, lt, rt)
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return c.checkComparison(ex, lt, rt)
	case ast.OpAnd, ast.OpOr:
		return c.checkLogical(ex, lt, rt)
	default:
		return types.Type{Kind: types.Invalid}
	}
}

func (c *Checker) checkArithmetic(ex *ast.BinaryExpr, lt, rt types.Type) types.Type {
	if !lt.IsValid() || !rt.IsValid() {
		return types.Type{Kind: types.Invalid}
	}
	if !lt.IsNumeric() || !rt.IsNumeric() {
		c.errorf(ex.Tok.Pos, "operator '%s' requires numeric operands, got %s and %s", ex.Op, lt, rt)
		return types.Type{Kind: types.Invalid}
	}

	result, mixed := types.Promote(lt, rt)
	if mixed {
		c.warnf(ex.Tok.Pos, "mixing signed and unsigned integers (%s and %s) in '%s'; result promoted to %s", lt, rt, ex.Op, result)
	}
	return result
}

func (c *Checker) checkComparison(ex *ast.BinaryExpr, lt, rt types.Type) types.Type {
	if !lt.IsValid() || !rt.IsValid() {
		return types.Type{Kind: types.BoolT}
	}

	ordered := ex.Op == ast.OpLt || ex.Op == ast.OpLe || ex.Op == ast.OpGt || ex.Op == ast.OpGe

	switch {
	case lt.IsNumeric() && rt.IsNumeric():
		if _, mixed := types.Promote(lt, rt); mixed {
			c.warnf(ex.Tok.Pos, "mixing signed and unsigned integers (%s and %s) in '%s'", lt, rt, ex.Op)
		}
	case !ordered && lt.Equal(rt):
		// equality/inequality between two matching non-numeric types
	default:
		c.errorf(ex.Tok.Pos, "cannot compare %s and %s with '%s'", lt, rt, ex.Op)
	}

	return types.Type{Kind: types.BoolT}
}

func (c *Checker) checkLogical(ex *ast.BinaryExpr, lt, rt types.Type) types.Type {
	if lt.IsValid() && lt.Kind != types.BoolT {
		c.errorf(ex.Tok.Pos, "left operand of '%s' must be bool, got %s", ex.Op, lt)
	}
	if rt.IsValid() && rt.Kind != types.BoolT {
		c.errorf(ex.Tok.Pos, "right operand of '%s' must be bool, got %s", ex.Op, rt)
	}
	return types.Type{Kind: types.BoolT}
}

func (c *Checker) checkUnary(ex *ast.UnaryExpr) types.Type {
	t := c.checkExpr(ex.Operand)
	switch ex.Op {
	case ast.OpNeg:
		if !t.IsValid() {
			return t
		}
		if !t.IsNumeric() {
			c.errorf(ex.Tok.Pos, "unary '-' requires a numeric operand, got %s", t)
			return types.Type{Kind: types.Invalid}
		}
		return t
	case ast.OpNot:
		if t.IsValid() && t.Kind != types.BoolT {
			c.errorf(ex.Tok.Pos, "unary '!' requires a bool operand, got %s", t)
		}
		return types.Type{Kind: types.BoolT}
	default:
		return types.Type{Kind: types.Invalid}
	}
}

func (c *Checker) checkField(ex *ast.FieldExpr) types.Type {
	t := c.checkExpr(ex.Target)
	if t.Kind != types.StructT {
		if t.IsValid() {
			c.errorf(ex.Tok.Pos, "field access on non-struct type %s", t)
		}
		return types.Type{Kind: types.Invalid}
	}

	info, ok := c.structs[t.Name]
	if !ok {
		return types.Type{Kind: types.Invalid}
	}

	ft, ok := info.FieldTypes[ex.Field]
	if !ok {
		c.errorf(ex.Tok.Pos, "struct %s has no field '%s'", t.Name, ex.Field)
		return types.Type{Kind: types.Invalid}
	}
	return ft
}

func (c *Checker) checkIndex(ex *ast.IndexExpr) types.Type {
	t := c.checkExpr(ex.Target)
	idxT := c.checkExpr(ex.Index)
	if idxT.IsValid() && !idxT.IsInteger() {
		c.errorf(ex.Tok.Pos, "array index must be an integer, got %s", idxT)
	}

	if t.Kind != types.ArrayT {
		if t.IsValid() {
			c.errorf(ex.Tok.Pos, "indexing requires an array type, got %s", t)
		}
		return types.Type{Kind: types.Invalid}
	}
	return *t.Elem
}

func (c *Checker) checkStructLit(ex *ast.StructLit) types.Type {
	info, ok := c.structs[ex.Name]
	if !ok {
		c.errorf(ex.Tok.Pos, "undeclared struct type '%s'", ex.Name)
		for _, f := range ex.Fields {
			c.checkExpr(f.Value)
		}
		return types.Type{Kind: types.Invalid}
	}

	seen := map[string]bool{}
	for _, f := range ex.Fields {
		seen[f.Name] = true
		ft, ok := info.FieldTypes[f.Name]
		vt := c.checkExpr(f.Value)
		if !ok {
			c.errorf(ex.Tok.Pos, "struct %s has no field '%s'", ex.Name, f.Name)
			continue
		}
		if vt.IsValid() && ft.IsValid() && !ft.Equal(vt) {
			c.errorf(ex.Tok.Pos, "field '%s' of struct %s expects %s, got %s", f.Name, ex.Name, ft, vt)
		}
	}
	for _, name := range info.FieldOrder {
		if !seen[name] {
			c.errorf(ex.Tok.Pos, "struct literal for %s is missing field '%s'", ex.Name, name)
		}
	}

	return types.Type{Kind: types.StructT, Name: ex.Name}
}

func (c *Checker) checkCall(ex *ast.CallExpr) types.Type {
	ident, isIdent := ex.Callee.(*ast.Identifier)

	if isIdent && (ident.Name == "print" || ident.Name == "println") {
		if len(ex.Args) != 1 {
			c.errorf(ex.Tok.Pos, "%s expects exactly 1 argument, got %d", ident.Name, len(ex.Args))
		}
		for _, a := range ex.Args {
			c.checkExpr(a)
		}
		return types.Type{Kind: types.VoidT}
	}

	if !isIdent {
		c.errorf(ex.Tok.Pos, "call target must be a function name")
		for _, a := range ex.Args {
			c.checkExpr(a)
		}
		return types.Type{Kind: types.Invalid}
	}

	info, ok := c.funcs[ident.Name]
	if !ok {
		c.errorf(ex.Tok.Pos, "call to undeclared function '%s'", ident.Name)
		for _, a := range ex.Args {
			c.checkExpr(a)
		}
		return types.Type{Kind: types.Invalid}
	}

	if len(ex.Args) != len(info.Params) {
		c.errorf(ex.Tok.Pos, "function '%s' expects %d argument(s), got %d", ident.Name, len(info.Params), len(ex.Args))
	}

	for i, a := range ex.Args {
		at := c.checkExpr(a)
		if i < len(info.Params) && at.IsValid() && info.Params[i].IsValid() && !info.Params[i].Equal(at) {
			c.errorf(a.Position(), "argument %d of '%s' expects %s, got %s", i+1, ident.Name, info.Params[i], at)
		}
	}

	return info.Return
}
