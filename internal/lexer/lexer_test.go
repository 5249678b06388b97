package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenlang/zenc/internal/lexer"
	"github.com/zenlang/zenc/internal/test"
	"github.com/zenlang/zenc/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenizeKeywordsAndDelimiters(t *testing.T) {
	toks := lexer.Tokenize("fn main() { }")
	require.Equal(t, []token.Kind{
		token.Fn, token.Identifier, token.LeftParen, token.RightParen,
		token.LeftBrace, token.RightBrace, token.EOF,
	}, kinds(toks))
}

func TestTokenizeTwoCharOperatorsPreferredOverOneChar(t *testing.T) {
	toks := lexer.Tokenize("a <- b -> c <= d")
	require.Equal(t, []token.Kind{
		token.Identifier, token.LeftArrow, token.Identifier, token.Arrow,
		token.Identifier, token.LessEqual, token.Identifier, token.EOF,
	}, kinds(toks))
}

func TestTokenizeIntegerWithSuffix(t *testing.T) {
	toks := lexer.Tokenize("42i64")
	require.Len(t, toks, 2)
	assert.Equal(t, token.Integer, toks[0].Kind)
	assert.Equal(t, "42i64", toks[0].Lexeme)
}

func TestTokenizeFloat(t *testing.T) {
	toks := lexer.Tokenize("3.14")
	require.Len(t, toks, 2)
	assert.Equal(t, token.Float, toks[0].Kind)
}

func TestTokenizeString(t *testing.T) {
	toks := lexer.Tokenize(`"hello {name}"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.String, toks[0].Kind)
}

func TestTokenizeUnterminatedStringYieldsUnknown(t *testing.T) {
	toks := lexer.Tokenize(`"unterminated`)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Unknown, toks[0].Kind)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestTokenizeUnrecognizedCharacterYieldsUnknown(t *testing.T) {
	toks := lexer.Tokenize("@")
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Unknown, toks[0].Kind)
}

func TestTokenizeLineCommentIsSkipped(t *testing.T) {
	toks := lexer.Tokenize("let x = 1; // trailing comment\nlet y = 2;")
	for _, tk := range toks {
		assert.NotContains(t, tk.Lexeme, "trailing comment")
	}
}

func TestTokenizeUnterminatedBlockCommentYieldsUnknown(t *testing.T) {
	toks := lexer.Tokenize("/* never closed")
	require.NotEmpty(t, toks)
	assert.Equal(t, token.Unknown, toks[0].Kind)
}

func TestTokenizeUnicodeIdentifier(t *testing.T) {
	toks := lexer.Tokenize("let café = 1;")
	require.Len(t, toks, 6)
	assert.Equal(t, token.Identifier, toks[1].Kind)
	assert.Equal(t, "café", toks[1].Lexeme)
}

func TestTokenizeAlwaysTerminatesWithEOF(t *testing.T) {
	// Totality: any mixture of valid and malformed fragments still ends
	// in exactly one EOF token, never a panic.
	for i := 0; i < 20; i++ {
		src := test.GetRandomTokens(200)
		toks := lexer.Tokenize(src)
		require.NotEmpty(t, toks)
		assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
		for _, tk := range toks[:len(toks)-1] {
			assert.NotEqual(t, token.EOF, tk.Kind)
		}
	}
}
