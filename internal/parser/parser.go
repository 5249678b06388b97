// Package parser implements predictive recursive descent with operator
// precedence and a fixed lookahead of at most two tokens, over the
// already-materialized token slice internal/lexer produces. On any error it
// enters panic-mode recovery (synchronize) and keeps going, so one run can
// surface every error it safely can.
package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/zenlang/zenc/internal/ast"
	"github.com/zenlang/zenc/internal/diag"
	"github.com/zenlang/zenc/internal/token"
)

// Parser is a cursor over a token slice. It is single-use.
type Parser struct {
	tokens []token.Token
	pos    int
	errs   diag.Bag

	// noStructLit suppresses struct-literal recognition inside condition
	// positions (if/while/for/match), where a following '{' must be read
	// as the start of a block instead.
	noStructLit bool
}

// New creates a Parser over an already-lexed token slice (EOF-terminated).
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse runs the parser to completion and returns the resulting Program
// together with every diagnostic collected along the way. A partial AST is
// still returned on error so the caller (internal/core) can decide how to
// treat it; the core driver discards it upstream if there were errors.
func Parse(tokens []token.Token) (*ast.Program, diag.Bag) {
	p := New(tokens)
	prog := &ast.Program{}
	for !p.check(token.EOF) {
		prog.Statements = append(prog.Statements, p.statement())
	}
	return prog, p.errs
}

// --- cursor primitives ----------------------------------------------------

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) peek() token.Token { return p.peekAt(0) }

func (p *Parser) check(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.peek()
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

// expectKind consumes and returns the next token if it has kind k,
// recording a diagnostic ("expected X but found Y") and returning ok=false
// otherwise. It never skips the offending token on failure, so callers can
// decide how to recover.
func (p *Parser) expectKind(k token.Kind) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	tok := p.peek()
	p.errs.Addf(tok.Pos, "expected %s but found %s", k, tok.Kind)
	return tok, false
}

// optionalSemi consumes a trailing semicolon if present; semicolons between
// statements are optional throughout this grammar.
func (p *Parser) optionalSemi() { p.match(token.Semicolon) }

// synchronize implements panic-mode recovery: skip tokens until either a
// semicolon is consumed or the next token starts a statement.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.check(token.Semicolon) {
			p.advance()
			return
		}
		if p.peek().Kind.StatementStarter() {
			return
		}
		p.advance()
	}
}

func (p *Parser) recoverStmt(tok token.Token) ast.Stmt {
	p.synchronize()
	return &ast.BadStmt{Tok: tok, Message: "parse error"}
}

func (p *Parser) recoverExpr(tok token.Token) ast.Expr {
	p.synchronize()
	return &ast.BadExpr{Tok: tok, Message: "parse error"}
}

func (p *Parser) errorExpr(tok token.Token, format string, args ...any) ast.Expr {
	msg := fmt.Sprintf(format, args...)
	p.errs.Addf(tok.Pos, "%s", msg)
	p.advance()
	p.synchronize()
	return &ast.BadExpr{Tok: tok, Message: msg}
}

// --- statements -------------------------------------------------------

func (p *Parser) statement() ast.Stmt {
	switch tok := p.peek(); tok.Kind {
	case token.Fn:
		return p.funcDecl()
	case token.Struct:
		return p.structDecl()
	case token.Use:
		return p.useDecl()
	case token.Let:
		return p.varDecl()
	case token.If:
		return p.ifStmt()
	case token.While:
		return p.whileStmt()
	case token.For:
		return p.forStmt()
	case token.Match:
		return p.matchStmt()
	case token.Return:
		return p.returnStmt()
	case token.LeftBrace:
		return p.blockStmt()
	default:
		return p.exprOrAssignStmt()
	}
}

func (p *Parser) blockBody() []ast.Stmt {
	if _, ok := p.expectKind(token.LeftBrace); !ok {
		p.synchronize()
		return nil
	}

	var stmts []ast.Stmt
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		stmts = append(stmts, p.statement())
	}

	if _, ok := p.expectKind(token.RightBrace); !ok {
		p.synchronize()
	}

	return stmts
}

func (p *Parser) blockStmt() ast.Stmt {
	tok := p.peek()
	return &ast.BlockStmt{Tok: tok, Body: p.blockBody()}
}

func (p *Parser) typeName() (string, bool) {
	tok := p.peek()
	switch {
	case tok.Kind.IsPrimitiveType():
		p.advance()
		return tok.Kind.String(), true
	case tok.Kind == token.Identifier:
		p.advance()
		return tok.Lexeme, true
	case tok.Kind == token.LeftBracket:
		p.advance()
		inner, ok := p.typeName()
		if !ok {
			return "", false
		}
		if p.match(token.Semicolon) {
			size, ok := p.expectKind(token.Integer)
			if !ok {
				return "", false
			}
			if _, ok := p.expectKind(token.RightBracket); !ok {
				return "", false
			}
			return fmt.Sprintf("[%s; %s]", inner, size.Lexeme), true
		}
		if _, ok := p.expectKind(token.RightBracket); !ok {
			return "", false
		}
		return fmt.Sprintf("[%s]", inner), true
	default:
		p.errs.Addf(tok.Pos, "expected a type name but found %s", tok.Kind)
		return "", false
	}
}

func (p *Parser) varDecl() ast.Stmt {
	s := p.varDeclCore()
	p.optionalSemi()
	return s
}

func (p *Parser) varDeclNoSemi() ast.Stmt { return p.varDeclCore() }

func (p *Parser) varDeclCore() ast.Stmt {
	startTok := p.advance() // let
	mutable := p.match(token.Mut)

	nameTok, ok := p.expectKind(token.Identifier)
	if !ok {
		return p.recoverStmt(startTok)
	}

	var typeName string
	if p.match(token.Colon) {
		t, ok := p.typeName()
		if !ok {
			return p.recoverStmt(startTok)
		}
		typeName = t
	}

	var init ast.Expr
	if p.match(token.Equal) {
		init = p.expr()
	}

	return &ast.VarDecl{Tok: startTok, Name: nameTok.Lexeme, TypeName: typeName, Init: init, Mutable: mutable}
}

func (p *Parser) funcDecl() ast.Stmt {
	startTok := p.advance() // fn

	nameTok, ok := p.expectKind(token.Identifier)
	if !ok {
		return p.recoverStmt(startTok)
	}
	if _, ok := p.expectKind(token.LeftParen); !ok {
		return p.recoverStmt(startTok)
	}

	var params []ast.Param
	for !p.check(token.RightParen) && !p.check(token.EOF) {
		pTok, ok := p.expectKind(token.Identifier)
		if !ok {
			return p.recoverStmt(startTok)
		}
		if _, ok := p.expectKind(token.Colon); !ok {
			return p.recoverStmt(startTok)
		}
		tname, ok := p.typeName()
		if !ok {
			return p.recoverStmt(startTok)
		}
		params = append(params, ast.Param{Name: pTok.Lexeme, TypeName: tname})
		if !p.match(token.Comma) {
			break
		}
	}
	if _, ok := p.expectKind(token.RightParen); !ok {
		return p.recoverStmt(startTok)
	}

	retType := "void"
	if p.match(token.Arrow) {
		t, ok := p.typeName()
		if !ok {
			return p.recoverStmt(startTok)
		}
		retType = t
	}

	body := p.blockBody()
	return &ast.FuncDecl{Tok: startTok, Name: nameTok.Lexeme, Params: params, ReturnType: retType, Body: body}
}

func (p *Parser) structDecl() ast.Stmt {
	startTok := p.advance() // struct

	nameTok, ok := p.expectKind(token.Identifier)
	if !ok {
		return p.recoverStmt(startTok)
	}
	if _, ok := p.expectKind(token.LeftBrace); !ok {
		return p.recoverStmt(startTok)
	}

	var fields []ast.StructField
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		fTok, ok := p.expectKind(token.Identifier)
		if !ok {
			return p.recoverStmt(startTok)
		}
		if _, ok := p.expectKind(token.Colon); !ok {
			return p.recoverStmt(startTok)
		}
		tname, ok := p.typeName()
		if !ok {
			return p.recoverStmt(startTok)
		}
		fields = append(fields, ast.StructField{Name: fTok.Lexeme, TypeName: tname})
		if !p.match(token.Comma) {
			break
		}
	}
	if _, ok := p.expectKind(token.RightBrace); !ok {
		return p.recoverStmt(startTok)
	}

	return &ast.StructDecl{Tok: startTok, Name: nameTok.Lexeme, Fields: fields}
}

func (p *Parser) useDecl() ast.Stmt {
	startTok := p.advance() // use

	nameTok, ok := p.expectKind(token.Identifier)
	if !ok {
		return p.recoverStmt(startTok)
	}

	path := []string{nameTok.Lexeme}
	for p.match(token.ColonColon) {
		nt, ok := p.expectKind(token.Identifier)
		if !ok {
			return p.recoverStmt(startTok)
		}
		path = append(path, nt.Lexeme)
	}

	p.optionalSemi()
	return &ast.UseDecl{Tok: startTok, Path: path}
}

func (p *Parser) ifStmt() ast.Stmt {
	startTok := p.advance() // if

	cond := p.conditionExpr()
	then := p.blockBody()

	var elseIfs []ast.ElseIf
	for p.check(token.Else) && p.peekAt(1).Kind == token.If {
		p.advance() // else
		p.advance() // if
		c := p.conditionExpr()
		b := p.blockBody()
		elseIfs = append(elseIfs, ast.ElseIf{Cond: c, Body: b})
	}

	var elseBody []ast.Stmt
	if p.match(token.Else) {
		elseBody = p.blockBody()
	}

	return &ast.IfStmt{Tok: startTok, Cond: cond, Then: then, ElseIfs: elseIfs, Else: elseBody}
}

func (p *Parser) whileStmt() ast.Stmt {
	startTok := p.advance() // while
	cond := p.conditionExpr()
	body := p.blockBody()
	return &ast.WhileStmt{Tok: startTok, Cond: cond, Body: body}
}

func (p *Parser) forStmt() ast.Stmt {
	startTok := p.advance() // for

	var initStmt ast.Stmt
	if !p.check(token.Semicolon) {
		initStmt = p.forClauseStmt()
	}
	if _, ok := p.expectKind(token.Semicolon); !ok {
		return p.recoverStmt(startTok)
	}

	var cond ast.Expr
	if !p.check(token.Semicolon) {
		cond = p.conditionExpr()
	}
	if _, ok := p.expectKind(token.Semicolon); !ok {
		return p.recoverStmt(startTok)
	}

	var post ast.Stmt
	if !p.check(token.LeftBrace) {
		post = p.forClauseStmt()
	}

	body := p.blockBody()
	return &ast.ForStmt{Tok: startTok, Init: initStmt, Cond: cond, Post: post, Body: body}
}

func (p *Parser) forClauseStmt() ast.Stmt {
	if p.check(token.Let) {
		return p.varDeclNoSemi()
	}
	return p.exprOrAssignStmtNoSemi()
}

func (p *Parser) matchStmt() ast.Stmt {
	startTok := p.advance() // match
	scrutinee := p.conditionExpr()

	if _, ok := p.expectKind(token.LeftBrace); !ok {
		return p.recoverStmt(startTok)
	}

	var arms []ast.MatchArm
	var def []ast.Stmt
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		if p.check(token.Identifier) && p.peek().Lexeme == "_" {
			p.advance()
			if _, ok := p.expectKind(token.FatArrow); !ok {
				return p.recoverStmt(startTok)
			}
			def = p.matchArmBody()
			continue
		}

		pattern := p.expr()
		if _, ok := p.expectKind(token.FatArrow); !ok {
			return p.recoverStmt(startTok)
		}
		arms = append(arms, ast.MatchArm{Pattern: pattern, Body: p.matchArmBody()})
	}

	if _, ok := p.expectKind(token.RightBrace); !ok {
		return p.recoverStmt(startTok)
	}

	return &ast.MatchStmt{Tok: startTok, Scrutinee: scrutinee, Arms: arms, Default: def}
}

func (p *Parser) matchArmBody() []ast.Stmt {
	if p.check(token.LeftBrace) {
		body := p.blockBody()
		p.match(token.Comma)
		return body
	}

	s := p.statement()
	p.match(token.Comma)
	return []ast.Stmt{s}
}

func (p *Parser) returnStmt() ast.Stmt {
	startTok := p.advance() // return

	var val ast.Expr
	if !p.check(token.Semicolon) && !p.check(token.RightBrace) && !p.check(token.EOF) {
		val = p.expr()
	}

	p.optionalSemi()
	return &ast.ReturnStmt{Tok: startTok, Value: val}
}

func (p *Parser) exprOrAssignStmt() ast.Stmt {
	s := p.exprOrAssignStmtCore()
	p.optionalSemi()
	return s
}

func (p *Parser) exprOrAssignStmtNoSemi() ast.Stmt { return p.exprOrAssignStmtCore() }

func (p *Parser) exprOrAssignStmtCore() ast.Stmt {
	startTok := p.peek()
	e := p.expr()

	if be, ok := e.(*ast.BinaryExpr); ok && be.Op == ast.OpAssign {
		return &ast.Assign{Tok: be.Tok, Target: be.Left, Value: be.Right}
	}

	return &ast.ExprStmt{Tok: startTok, Expr: e}
}

// --- expressions: precedence table, lowest to highest --------------------

// expr parses a full expression, assignment included.
func (p *Parser) expr() ast.Expr { return p.assignmentExpr() }

// conditionExpr parses an expression in a position (if/while/for/match)
// where a trailing '{' must be read as a block, not a struct literal.
func (p *Parser) conditionExpr() ast.Expr {
	prev := p.noStructLit
	p.noStructLit = true
	e := p.assignmentExpr()
	p.noStructLit = prev
	return e
}

func (p *Parser) assignmentExpr() ast.Expr {
	left := p.logicalOrExpr()
	if p.check(token.Equal) {
		eqTok := p.advance()
		right := p.assignmentExpr() // right-associative
		return &ast.BinaryExpr{Tok: eqTok, Op: ast.OpAssign, Left: left, Right: right}
	}
	return left
}

func (p *Parser) logicalOrExpr() ast.Expr {
	left := p.logicalAndExpr()
	for p.check(token.OrOr) {
		opTok := p.advance()
		right := p.logicalAndExpr()
		left = &ast.BinaryExpr{Tok: opTok, Op: ast.OpOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) logicalAndExpr() ast.Expr {
	left := p.equalityExpr()
	for p.check(token.AndAnd) {
		opTok := p.advance()
		right := p.equalityExpr()
		left = &ast.BinaryExpr{Tok: opTok, Op: ast.OpAnd, Left: left, Right: right}
	}
	return left
}

func (p *Parser) equalityExpr() ast.Expr {
	left := p.comparisonExpr()
	for p.check(token.EqualEqual) || p.check(token.NotEqual) {
		opTok := p.advance()
		op := ast.OpEq
		if opTok.Kind == token.NotEqual {
			op = ast.OpNeq
		}
		right := p.comparisonExpr()
		left = &ast.BinaryExpr{Tok: opTok, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) comparisonExpr() ast.Expr {
	left := p.termExpr()
	for {
		var op ast.BinaryOp
		switch {
		case p.check(token.Less):
			op = ast.OpLt
		case p.check(token.LessEqual):
			op = ast.OpLe
		case p.check(token.Greater):
			op = ast.OpGt
		case p.check(token.GreaterEqual):
			op = ast.OpGe
		default:
			return left
		}
		opTok := p.advance()
		right := p.termExpr()
		left = &ast.BinaryExpr{Tok: opTok, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) termExpr() ast.Expr {
	left := p.factorExpr()
	for p.check(token.Plus) || p.check(token.Minus) {
		opTok := p.advance()
		op := ast.OpAdd
		if opTok.Kind == token.Minus {
			op = ast.OpSub
		}
		right := p.factorExpr()
		left = &ast.BinaryExpr{Tok: opTok, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) factorExpr() ast.Expr {
	left := p.unaryExpr()
	for {
		var op ast.BinaryOp
		switch {
		case p.check(token.Star):
			op = ast.OpMul
		case p.check(token.Slash):
			op = ast.OpDiv
		case p.check(token.Percent):
			op = ast.OpMod
		default:
			return left
		}
		opTok := p.advance()
		right := p.unaryExpr()
		left = &ast.BinaryExpr{Tok: opTok, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) unaryExpr() ast.Expr {
	switch tok := p.peek(); tok.Kind {
	case token.Bang:
		p.advance()
		return &ast.UnaryExpr{Tok: tok, Op: ast.OpNot, Operand: p.unaryExpr()}
	case token.Minus:
		p.advance()
		return &ast.UnaryExpr{Tok: tok, Op: ast.OpNeg, Operand: p.unaryExpr()}
	case token.LeftArrow:
		p.advance()
		return &ast.MoveExpr{Tok: tok, Operand: p.unaryExpr()}
	case token.Amp:
		p.advance()
		mutable := p.match(token.Mut)
		return &ast.BorrowExpr{Tok: tok, Mutable: mutable, Operand: p.unaryExpr()}
	default:
		return p.callChain()
	}
}

func (p *Parser) callChain() ast.Expr {
	e := p.primary()
	for {
		switch {
		case p.check(token.LeftParen):
			tok := p.advance()
			var args []ast.Expr
			for !p.check(token.RightParen) && !p.check(token.EOF) {
				args = append(args, p.expr())
				if !p.match(token.Comma) {
					break
				}
			}
			if _, ok := p.expectKind(token.RightParen); !ok {
				return p.recoverExpr(tok)
			}
			e = &ast.CallExpr{Tok: tok, Callee: e, Args: args}

		case p.check(token.LeftBracket):
			tok := p.advance()
			idx := p.expr()
			if _, ok := p.expectKind(token.RightBracket); !ok {
				return p.recoverExpr(tok)
			}
			e = &ast.IndexExpr{Tok: tok, Target: e, Index: idx}

		case p.check(token.Dot):
			tok := p.advance()
			nameTok, ok := p.expectKind(token.Identifier)
			if !ok {
				return p.recoverExpr(tok)
			}
			e = &ast.FieldExpr{Tok: tok, Target: e, Field: nameTok.Lexeme}

		default:
			return e
		}
	}
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.True:
		p.advance()
		return &ast.BoolLit{Tok: tok, Value: true}
	case token.False:
		p.advance()
		return &ast.BoolLit{Tok: tok, Value: false}
	case token.Null:
		p.advance()
		return &ast.Identifier{Tok: tok, Name: "null"}
	case token.Integer:
		p.advance()
		return &ast.IntegerLit{Tok: tok, Text: tok.Lexeme}
	case token.Float:
		p.advance()
		v, err := strconv.ParseFloat(stripNumericSuffix(tok.Lexeme), 64)
		if err != nil {
			return p.errorExpr(tok, "invalid float literal %q", tok.Lexeme)
		}
		return &ast.FloatLit{Tok: tok, Value: v}
	case token.String:
		p.advance()
		return p.stringLiteral(tok)
	case token.Char:
		p.advance()
		r, ok := decodeCharLiteral(tok.Lexeme)
		if !ok {
			return p.errorExpr(tok, "invalid char literal %q", tok.Lexeme)
		}
		return &ast.CharLit{Tok: tok, Value: r}
	case token.LeftParen:
		p.advance()
		e := p.expr()
		if _, ok := p.expectKind(token.RightParen); !ok {
			return p.recoverExpr(tok)
		}
		return e
	case token.Identifier:
		return p.identifierOrStructOrModule()
	default:
		return p.errorExpr(tok, "unexpected token %s", tok.Kind)
	}
}

func (p *Parser) identifierOrStructOrModule() ast.Expr {
	tok := p.advance()

	if p.check(token.ColonColon) {
		segs := []string{tok.Lexeme}
		for p.match(token.ColonColon) {
			nt, ok := p.expectKind(token.Identifier)
			if !ok {
				return p.recoverExpr(tok)
			}
			segs = append(segs, nt.Lexeme)
		}
		return &ast.ModuleAccess{Tok: tok, Segments: segs}
	}

	if !p.noStructLit && p.check(token.LeftBrace) && p.looksLikeStructLiteral() {
		return p.structLiteral(tok)
	}

	return &ast.Identifier{Tok: tok, Name: tok.Lexeme}
}

// looksLikeStructLiteral applies a 2-token lookahead: `{` followed by
// either `}` or `identifier :` signals a struct literal rather than the
// start of a block.
func (p *Parser) looksLikeStructLiteral() bool {
	next := p.peekAt(1)
	if next.Kind == token.RightBrace {
		return true
	}
	return next.Kind == token.Identifier && p.peekAt(2).Kind == token.Colon
}

func (p *Parser) structLiteral(nameTok token.Token) ast.Expr {
	p.advance() // {

	var fields []ast.StructFieldInit
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		fTok, ok := p.expectKind(token.Identifier)
		if !ok {
			return p.recoverExpr(nameTok)
		}
		if _, ok := p.expectKind(token.Colon); !ok {
			return p.recoverExpr(nameTok)
		}
		val := p.expr()
		fields = append(fields, ast.StructFieldInit{Name: fTok.Lexeme, Value: val})
		if !p.match(token.Comma) {
			break
		}
	}

	if _, ok := p.expectKind(token.RightBrace); !ok {
		return p.recoverExpr(nameTok)
	}

	return &ast.StructLit{Tok: nameTok, Name: nameTok.Lexeme, Fields: fields}
}

// stringLiteral un-escapes the lexer's raw lexeme and inspects the result
// for `{...}` interpolation regions.
func (p *Parser) stringLiteral(tok token.Token) ast.Expr {
	content := unescape(tok.Lexeme)
	parts, interpolated := splitInterpolation(content)
	if !interpolated {
		return &ast.StringLit{Tok: tok, Value: content}
	}
	return &ast.InterpStringLit{Tok: tok, Parts: parts}
}

// --- literal helpers ------------------------------------------------------

func unescape(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] == '\\' && i+1 < len(rs) {
			i++
			switch rs[i] {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '0':
				b.WriteRune(0)
			default:
				b.WriteRune(rs[i])
			}
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

func decodeCharLiteral(lexeme string) (rune, bool) {
	rs := []rune(lexeme)
	switch {
	case len(rs) == 1:
		return rs[0], true
	case len(rs) == 2 && rs[0] == '\\':
		switch rs[1] {
		case 'n':
			return '\n', true
		case 't':
			return '\t', true
		case 'r':
			return '\r', true
		case '0':
			return 0, true
		default:
			return rs[1], true
		}
	default:
		return 0, false
	}
}

var numericSuffixes = []string{"f64", "f32", "i64", "i32", "i16", "i8", "u64", "u32", "u16", "u8"}

func stripNumericSuffix(lexeme string) string {
	for _, suf := range numericSuffixes {
		if strings.HasSuffix(lexeme, suf) {
			return strings.TrimSuffix(lexeme, suf)
		}
	}
	return lexeme
}

// splitInterpolation splits a string's content into an ordered list of
// literal-text / bare-variable / opaque-expression-text parts. Expression
// parts are not re-parsed here; internal/codegen emits their source text
// back out verbatim rather than evaluating them.
func splitInterpolation(s string) ([]ast.InterpPart, bool) {
	runes := []rune(s)
	var parts []ast.InterpPart
	var text strings.Builder
	found := false

	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, ast.InterpPart{Kind: ast.InterpText, Text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(runes); {
		if runes[i] == '{' {
			j := i + 1
			for j < len(runes) && runes[j] != '}' {
				j++
			}
			if j < len(runes) {
				found = true
				flush()
				inner := string(runes[i+1 : j])
				if isBareIdentifier(inner) {
					parts = append(parts, ast.InterpPart{Kind: ast.InterpVariable, Text: inner})
				} else {
					parts = append(parts, ast.InterpPart{Kind: ast.InterpExpression, Text: inner})
				}
				i = j + 1
				continue
			}
		}
		text.WriteRune(runes[i])
		i++
	}
	flush()

	return parts, found
}

func isBareIdentifier(s string) bool {
	if s == "" {
		return false
	}
	rs := []rune(s)
	if !(unicode.IsLetter(rs[0]) || rs[0] == '_') {
		return false
	}
	for _, r := range rs[1:] {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
