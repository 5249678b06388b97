// Package ownership implements a move/borrow checker that is
// deliberately not flow-sensitive. State (moved, borrowed-shared-count,
// borrowed-mutable) is tracked per variable per lexical scope depth; a
// scope exit drops every binding (and therefore every borrow) introduced
// at that depth. Branches of a conditional are walked in sequence against
// shared state rather than being joined afterwards — a documented
// simplification, not an oversight: this checker answers "could this
// statement, read as written, violate ownership" rather than attempting a
// sound may/must analysis across control flow.
package ownership

import (
	"github.com/zenlang/zenc/internal/ast"
	"github.com/zenlang/zenc/internal/diag"
	"github.com/zenlang/zenc/internal/token"
)

type varState struct {
	mutable         bool
	moved           bool
	movedAt         token.Position
	borrowedShared  int
	borrowedMutable bool
}

// Checker carries the lexical scope stack for one program.
type Checker struct {
	diags  diag.Bag
	scopes []map[string]*varState
}

// Check walks prog and returns every move/borrow diagnostic found.
func Check(prog *ast.Program) diag.Bag {
	c := &Checker{}
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

func (c *Checker) pushScope() { c.scopes = append(c.scopes, map[string]*varState{}) }
func (c *Checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declareVar(name string, mutable bool) {
	top := c.scopes[len(c.scopes)-1]
	top[name] = &varState{mutable: mutable}
}

func (c *Checker) lookup(name string) (*varState, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if st, ok := c.scopes[i][name]; ok {
			return st, true
		}
	}
	return nil, false
}

// baseIdentifier walks through field/index chains to the root binding an
// expression ultimately reads or writes through — ownership here is
// tracked per whole variable, not per field.
func baseIdentifier(e ast.Expr) (*ast.Identifier, bool) {
	switch ex := e.(type) {
	case *ast.Identifier:
		return ex, true
	case *ast.FieldExpr:
		return baseIdentifier(ex.Target)
	case *ast.IndexExpr:
		return baseIdentifier(ex.Target)
	default:
		return nil, false
	}
}

// --- statements -------------------------------------------------------

func (c *Checker) checkTopStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.FuncDecl:
		c.checkFuncBody(st)
	case *ast.StructDecl, *ast.UseDecl:
		// No ownership surface.
	default:
		c.checkStmt(s)
	}
}

func (c *Checker) checkFuncBody(fd *ast.FuncDecl) {
	c.pushScope()
	for _, p := range fd.Params {
		c.declareVar(p.Name, true)
	}
	for _, st := range fd.Body {
		c.checkStmt(st)
	}
	c.popScope()
}

func (c *Checker) checkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		if st.Init != nil {
			c.checkExpr(st.Init)
		}
		c.declareVar(st.Name, st.Mutable)
	case *ast.Assign:
		c.checkAssignOwnership(st.Tok.Pos, st.Target, st.Value)
	case *ast.ExprStmt:
		c.checkExpr(st.Expr)
	case *ast.IfStmt:
		c.checkExpr(st.Cond)
		c.pushScope()
		for _, inner := range st.Then {
			c.checkStmt(inner)
		}
		c.popScope()
		for _, ei := range st.ElseIfs {
			c.checkExpr(ei.Cond)
			c.pushScope()
			for _, inner := range ei.Body {
				c.checkStmt(inner)
			}
			c.popScope()
		}
		if st.Else != nil {
			c.pushScope()
			for _, inner := range st.Else {
				c.checkStmt(inner)
			}
			c.popScope()
		}
	case *ast.WhileStmt:
		c.checkExpr(st.Cond)
		c.pushScope()
		for _, inner := range st.Body {
			c.checkStmt(inner)
		}
		c.popScope()
	case *ast.ForStmt:
		c.pushScope()
		if st.Init != nil {
			c.checkStmt(st.Init)
		}
		if st.Cond != nil {
			c.checkExpr(st.Cond)
		}
		if st.Post != nil {
			c.checkStmt(st.Post)
		}
		c.pushScope()
		for _, inner := range st.Body {
			c.checkStmt(inner)
		}
		c.popScope()
		c.popScope()
	case *ast.MatchStmt:
		c.checkExpr(st.Scrutinee)
		for _, arm := range st.Arms {
			c.checkExpr(arm.Pattern)
			c.pushScope()
			for _, inner := range arm.Body {
				c.checkStmt(inner)
			}
			c.popScope()
		}
		if st.Default != nil {
			c.pushScope()
			for _, inner := range st.Default {
				c.checkStmt(inner)
			}
			c.popScope()
		}
	case *ast.ReturnStmt:
		if st.Value != nil {
			c.checkExpr(st.Value)
		}
	case *ast.BlockStmt:
		c.pushScope()
		for _, inner := range st.Body {
			c.checkStmt(inner)
		}
		c.popScope()
	case *ast.FuncDecl:
		c.checkFuncBody(st)
	case *ast.StructDecl, *ast.UseDecl, *ast.BadStmt:
		// Nothing to track.
	}
}

// --- expressions ------------------------------------------------------

func (c *Checker) checkExpr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.Identifier:
		c.checkUse(ex.Name, ex.Tok.Pos)
	case *ast.MoveExpr:
		c.checkMove(ex)
	case *ast.BorrowExpr:
		c.checkBorrow(ex)
	case *ast.BinaryExpr:
		if ex.Op == ast.OpAssign {
			c.checkAssignOwnership(ex.Tok.Pos, ex.Left, ex.Right)
			return
		}
		c.checkExpr(ex.Left)
		c.checkExpr(ex.Right)
	case *ast.UnaryExpr:
		c.checkExpr(ex.Operand)
	case *ast.CallExpr:
		c.checkExpr(ex.Callee)
		for _, a := range ex.Args {
			c.checkExpr(a)
		}
	case *ast.FieldExpr:
		c.checkExpr(ex.Target)
	case *ast.IndexExpr:
		c.checkExpr(ex.Target)
		c.checkExpr(ex.Index)
	case *ast.StructLit:
		for _, f := range ex.Fields {
			c.checkExpr(f.Value)
		}
	case *ast.InterpStringLit:
		for _, part := range ex.Parts {
			if part.Kind == ast.InterpVariable {
				c.checkUse(part.Text, ex.Tok.Pos)
			}
		}
	default:
		// Literals, ModuleAccess and BadExpr carry nothing to track.
	}
}

func (c *Checker) checkUse(name string, pos token.Position) {
	if name == "null" {
		return
	}
	st, ok := c.lookup(name)
	if !ok {
		return // undeclared names are internal/typecheck's concern
	}
	if st.moved {
		c.errorf(pos, "Use of moved variable '%s' at %s (moved at %s)", name, pos, st.movedAt)
	}
}

func (c *Checker) checkMove(ex *ast.MoveExpr) {
	ident, ok := baseIdentifier(ex.Operand)
	if !ok {
		c.checkExpr(ex.Operand)
		return
	}
	st, found := c.lookup(ident.Name)
	if !found {
		return
	}

	switch {
	case st.moved:
		c.errorf(ex.Tok.Pos, "Cannot move already moved variable '%s' at %s", ident.Name, ex.Tok.Pos)
	case st.borrowedShared > 0 || st.borrowedMutable:
		c.errorf(ex.Tok.Pos, "Cannot move borrowed variable '%s' at %s", ident.Name, ex.Tok.Pos)
	default:
		st.moved = true
		st.movedAt = ex.Tok.Pos
	}
}

func (c *Checker) checkBorrow(ex *ast.BorrowExpr) {
	ident, ok := baseIdentifier(ex.Operand)
	if !ok {
		c.checkExpr(ex.Operand)
		return
	}
	st, found := c.lookup(ident.Name)
	if !found {
		return
	}

	if st.moved {
		c.errorf(ex.Tok.Pos, "Cannot borrow moved variable '%s' at %s", ident.Name, ex.Tok.Pos)
		return
	}

	if ex.Mutable {
		switch {
		case st.borrowedShared > 0 || st.borrowedMutable:
			c.errorf(ex.Tok.Pos, "Cannot create mutable borrow of '%s' at %s - already borrowed", ident.Name, ex.Tok.Pos)
		case !st.mutable:
			c.errorf(ex.Tok.Pos, "Cannot create mutable borrow of '%s' at %s - of immutable variable", ident.Name, ex.Tok.Pos)
		default:
			st.borrowedMutable = true
		}
		return
	}

	if st.borrowedMutable {
		c.errorf(ex.Tok.Pos, "Cannot create immutable borrow of '%s' at %s - mutably borrowed", ident.Name, ex.Tok.Pos)
		return
	}
	st.borrowedShared++
}

// checkAssignOwnership handles both the Assign statement and an assignment
// appearing as a subexpression.
func (c *Checker) checkAssignOwnership(pos token.Position, target, value ast.Expr) {
	c.checkExpr(value)

	ident, isIdent := target.(*ast.Identifier)
	if !isIdent {
		c.checkExpr(target)
		return
	}

	st, found := c.lookup(ident.Name)
	if !found {
		return
	}

	switch {
	case st.moved:
		c.errorf(pos, "Cannot assign to moved variable '%s' at %s", ident.Name, pos)
	case st.borrowedShared > 0 || st.borrowedMutable:
		c.errorf(pos, "Cannot assign to borrowed variable '%s' at %s", ident.Name, pos)
	default:
		st.moved = false
	}
}
