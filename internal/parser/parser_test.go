package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenlang/zenc/internal/ast"
	"github.com/zenlang/zenc/internal/lexer"
	"github.com/zenlang/zenc/internal/parser"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks := lexer.Tokenize(src)
	prog, diags := parser.Parse(toks)
	require.False(t, diags.HasErrors(), "unexpected parse errors: %v", diags.Errors())
	return prog
}

func TestParseVarDeclWithTypeAndInit(t *testing.T) {
	prog := parse(t, `let mut x: i32 = 1;`)
	require.Len(t, prog.Statements, 1)
	decl, ok := prog.Statements[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	assert.Equal(t, "i32", decl.TypeName)
	assert.True(t, decl.Mutable)
	lit, ok := decl.Init.(*ast.IntegerLit)
	require.True(t, ok)
	assert.Equal(t, "1", lit.Text)
}

func TestParseVarDeclWithoutTypeInfersFromInit(t *testing.T) {
	prog := parse(t, `let x = 1;`)
	decl := prog.Statements[0].(*ast.VarDecl)
	assert.Empty(t, decl.TypeName)
	assert.False(t, decl.Mutable)
}

func TestParseFuncDeclWithParamsAndReturnType(t *testing.T) {
	prog := parse(t, `
		fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
	`)
	fn, ok := prog.Statements[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, ast.Param{Name: "a", TypeName: "i32"}, fn.Params[0])
	assert.Equal(t, "i32", fn.ReturnType)
	require.Len(t, fn.Body, 1)
}

func TestParseFuncDeclDefaultsToVoidReturn(t *testing.T) {
	prog := parse(t, `fn main() { }`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	assert.Equal(t, "void", fn.ReturnType)
}

func TestParseStructDecl(t *testing.T) {
	prog := parse(t, `struct Point { x: i32, y: i32 }`)
	decl, ok := prog.Statements[0].(*ast.StructDecl)
	require.True(t, ok)
	assert.Equal(t, "Point", decl.Name)
	require.Len(t, decl.Fields, 2)
	assert.Equal(t, "x", decl.Fields[0].Name)
}

func TestParseStructLiteralVsBlockDisambiguation(t *testing.T) {
	prog := parse(t, `
		struct Point { x: i32, y: i32 }
		fn main() {
			let p = Point { x: 1, y: 2 };
			if p.x == 1 {
				print(p.y);
			}
		}
	`)
	fn := prog.Statements[1].(*ast.FuncDecl)
	decl := fn.Body[0].(*ast.VarDecl)
	lit, ok := decl.Init.(*ast.StructLit)
	require.True(t, ok, "expected struct literal, got %T", decl.Init)
	assert.Equal(t, "Point", lit.Name)
	require.Len(t, lit.Fields, 2)

	ifStmt, ok := fn.Body[1].(*ast.IfStmt)
	require.True(t, ok, "expected if statement after '{' disambiguated as block, got %T", fn.Body[1])
	require.Len(t, ifStmt.Then, 1)
}

func TestParseBinaryPrecedence(t *testing.T) {
	prog := parse(t, `let x = 1 + 2 * 3;`)
	decl := prog.Statements[0].(*ast.VarDecl)
	top, ok := decl.Init.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, top.Op)
	assert.IsType(t, &ast.IntegerLit{}, top.Left)
	mul, ok := top.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, mul.Op)
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	prog := parse(t, `
		fn main() {
			let mut a: i32 = 0;
			let mut b: i32 = 0;
			a = b = 1;
		}
	`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	assign, ok := fn.Body[2].(*ast.Assign)
	require.True(t, ok)
	inner, ok := assign.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAssign, inner.Op)
}

func TestParseMoveAndBorrowExpressions(t *testing.T) {
	prog := parse(t, `
		fn main() {
			let a: i32 = 1;
			let b = <- a;
			let r = &mut a;
		}
	`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	move, ok := fn.Body[1].(*ast.VarDecl).Init.(*ast.MoveExpr)
	require.True(t, ok)
	assert.IsType(t, &ast.Identifier{}, move.Operand)

	borrow, ok := fn.Body[2].(*ast.VarDecl).Init.(*ast.BorrowExpr)
	require.True(t, ok)
	assert.True(t, borrow.Mutable)
}

func TestParseIfElseIfElseChain(t *testing.T) {
	prog := parse(t, `
		fn main() {
			if a < 0 {
				print("neg");
			} else if a == 0 {
				print("zero");
			} else {
				print("pos");
			}
		}
	`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	ifStmt := fn.Body[0].(*ast.IfStmt)
	require.Len(t, ifStmt.ElseIfs, 1)
	require.Len(t, ifStmt.Else, 1)
}

func TestParseForStmtWithAllClauses(t *testing.T) {
	prog := parse(t, `
		fn main() {
			for let mut i: i32 = 0; i < 10; i = i + 1 {
				print(i);
			}
		}
	`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	forStmt := fn.Body[0].(*ast.ForStmt)
	require.NotNil(t, forStmt.Init)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Post)
	assert.IsType(t, &ast.VarDecl{}, forStmt.Init)
	assert.IsType(t, &ast.Assign{}, forStmt.Post)
}

func TestParseForStmtWithOmittedClauses(t *testing.T) {
	prog := parse(t, `
		fn main() {
			for ; ; {
				print(1);
			}
		}
	`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	forStmt := fn.Body[0].(*ast.ForStmt)
	assert.Nil(t, forStmt.Init)
	assert.Nil(t, forStmt.Cond)
	assert.Nil(t, forStmt.Post)
}

func TestParseMatchStmtWithDefault(t *testing.T) {
	prog := parse(t, `
		fn main() {
			match n {
				1 => print("one"),
				2 => print("two"),
				_ => print("other"),
			}
		}
	`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	match := fn.Body[0].(*ast.MatchStmt)
	require.Len(t, match.Arms, 2)
	require.Len(t, match.Default, 1)
}

func TestParseInterpolatedStringWithVariableAndExpression(t *testing.T) {
	prog := parse(t, `
		fn main() {
			print("count is {n} and twice is {n * 2}");
		}
	`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	call := fn.Body[0].(*ast.ExprStmt).Expr.(*ast.CallExpr)
	lit, ok := call.Args[0].(*ast.InterpStringLit)
	require.True(t, ok)
	require.Len(t, lit.Parts, 4)
	assert.Equal(t, ast.InterpText, lit.Parts[0].Kind)
	assert.Equal(t, ast.InterpVariable, lit.Parts[1].Kind)
	assert.Equal(t, "n", lit.Parts[1].Text)
	assert.Equal(t, ast.InterpExpression, lit.Parts[3].Kind)
	assert.Equal(t, "n * 2", lit.Parts[3].Text)
}

func TestParsePlainStringWithoutInterpolation(t *testing.T) {
	prog := parse(t, `
		fn main() {
			print("no braces here");
		}
	`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	call := fn.Body[0].(*ast.ExprStmt).Expr.(*ast.CallExpr)
	lit, ok := call.Args[0].(*ast.StringLit)
	require.True(t, ok)
	assert.Equal(t, "no braces here", lit.Value)
}

func TestParseFieldAndIndexAccessChain(t *testing.T) {
	prog := parse(t, `let x = a.b[0].c;`)
	decl := prog.Statements[0].(*ast.VarDecl)
	field, ok := decl.Init.(*ast.FieldExpr)
	require.True(t, ok)
	assert.Equal(t, "c", field.Field)
	idx, ok := field.Target.(*ast.IndexExpr)
	require.True(t, ok)
	_ = idx
}

func TestParseModuleAccess(t *testing.T) {
	prog := parse(t, `let x = math::pi;`)
	decl := prog.Statements[0].(*ast.VarDecl)
	mod, ok := decl.Init.(*ast.ModuleAccess)
	require.True(t, ok)
	assert.Equal(t, []string{"math", "pi"}, mod.Segments)
}

func TestParseUseDecl(t *testing.T) {
	prog := parse(t, `use std::io;`)
	decl, ok := prog.Statements[0].(*ast.UseDecl)
	require.True(t, ok)
	assert.Equal(t, []string{"std", "io"}, decl.Path)
}

func TestParseRecoversFromSyntaxErrorAndKeepsGoing(t *testing.T) {
	toks := lexer.Tokenize(`
		let x = ;
		let y = 2;
	`)
	prog, diags := parser.Parse(toks)
	assert.True(t, diags.HasErrors())
	// Recovery should still yield two top-level statements: a BadStmt (or
	// recovered VarDecl) for the first, and a clean VarDecl for the second.
	require.Len(t, prog.Statements, 2)
	second, ok := prog.Statements[1].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "y", second.Name)
}

func TestParseArrayTypeName(t *testing.T) {
	prog := parse(t, `
		fn sumAll(xs: [i32; 3]) -> i32 {
			return 0;
		}
	`)
	fn := prog.Statements[0].(*ast.FuncDecl)
	assert.Equal(t, "[i32; 3]", fn.Params[0].TypeName)
}
