// Package core drives the compilation pipeline end to end: lexer, parser,
// type checker, ownership checker, then lowering. Each stage runs only if
// the previous one produced no errors; the driver's job is sequencing and
// deciding what "no errors" means for a stage that, unlike the others,
// never reports diagnostics of its own (the lexer).
package core

import (
	"github.com/zenlang/zenc/internal/ast"
	"github.com/zenlang/zenc/internal/codegen"
	"github.com/zenlang/zenc/internal/diag"
	"github.com/zenlang/zenc/internal/lexer"
	"github.com/zenlang/zenc/internal/ownership"
	"github.com/zenlang/zenc/internal/parser"
	"github.com/zenlang/zenc/internal/token"
	"github.com/zenlang/zenc/internal/typecheck"
)

// Stage names a pipeline component, in run order.
type Stage string

const (
	StageLex       Stage = "lex"
	StageParse     Stage = "parse"
	StageTypecheck Stage = "typecheck"
	StageOwnership Stage = "ownership"
	StageCodegen   Stage = "codegen"
)

// Result carries the outcome of one Compile call. LLIR is only populated
// when every stage through codegen succeeded; Failed names the first
// stage, if any, that reported an error.
type Result struct {
	Tokens []token.Token
	AST    *ast.Program
	LLIR   string

	Diagnostics []diag.Diagnostic
	Failed      Stage
}

// Compile runs the full pipeline over source, halting at the first stage
// that reports an error.
func Compile(source string) Result {
	tokens := lexer.Tokenize(source)

	if lexErrs := unknownTokenDiagnostics(tokens); len(lexErrs) > 0 {
		return Result{Tokens: tokens, Diagnostics: lexErrs, Failed: StageLex}
	}

	prog, parseDiags := parser.Parse(tokens)
	if parseDiags.HasErrors() {
		return Result{Tokens: tokens, Diagnostics: parseDiags.Errors(), Failed: StageParse}
	}

	typeDiags := typecheck.Check(prog)
	if typeDiags.HasErrors() {
		return Result{Tokens: tokens, AST: prog, Diagnostics: typeDiags.Errors(), Failed: StageTypecheck}
	}

	ownDiags := ownership.Check(prog)
	if ownDiags.HasErrors() {
		return Result{Tokens: tokens, AST: prog, Diagnostics: ownDiags.Errors(), Failed: StageOwnership}
	}

	llir, genDiags := codegen.Generate(prog)
	if genDiags.HasErrors() {
		return Result{Tokens: tokens, AST: prog, Diagnostics: genDiags.Errors(), Failed: StageCodegen}
	}

	all := diag.Bag{}
	all.Merge(typeDiags)
	all.Merge(ownDiags)
	all.Merge(genDiags)

	return Result{Tokens: tokens, AST: prog, LLIR: llir, Diagnostics: all.All()}
}

// Tokenize runs only the lexer, for the tokenize subcommand.
func Tokenize(source string) []token.Token {
	return lexer.Tokenize(source)
}

// unknownTokenDiagnostics scans a lexed stream for Unknown tokens. A
// non-empty result means the lexer is, for this source, a failed
// component: the parser is never invoked over a stream containing one,
// since every downstream stage assumes a token set it recognizes.
func unknownTokenDiagnostics(tokens []token.Token) []diag.Diagnostic {
	var diags []diag.Diagnostic
	for _, t := range tokens {
		if t.Kind == token.Unknown {
			diags = append(diags, diag.Diagnostic{
				Severity: diag.Error,
				Pos:      t.Pos,
				Message:  t.Lexeme,
			})
		}
	}
	return diags
}
