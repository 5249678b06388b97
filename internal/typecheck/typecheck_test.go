package typecheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenlang/zenc/internal/lexer"
	"github.com/zenlang/zenc/internal/parser"
	"github.com/zenlang/zenc/internal/typecheck"
)

func check(t *testing.T, source string) []string {
	t.Helper()
	prog, parseDiags := parser.Parse(lexer.Tokenize(source))
	require.Empty(t, parseDiags.Errors(), "source should parse cleanly")

	diags := typecheck.Check(prog)
	msgs := make([]string, len(diags.All()))
	for i, d := range diags.All() {
		msgs[i] = d.Message
	}
	return msgs
}

func TestVarDeclMatchesInitializer(t *testing.T) {
	msgs := check(t, `fn main() { let x: i32 = 5; }`)
	assert.Empty(t, msgs)
}

func TestVarDeclTypeMismatch(t *testing.T) {
	msgs := check(t, `fn main() { let x: i32 = 5.0; }`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "declared as i32 but initialized with f64")
}

func TestArithmeticRequiresNumericOperands(t *testing.T) {
	msgs := check(t, `fn main() { let x = true + 1; }`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "requires numeric operands")
}

func TestMixedSignednessWarns(t *testing.T) {
	prog, parseDiags := parser.Parse(lexer.Tokenize(`fn main() { let a: i32 = 1; let b: u32 = 2; let c = a + b; }`))
	require.Empty(t, parseDiags.Errors())

	diags := typecheck.Check(prog)
	assert.Empty(t, diags.Errors())
	require.Len(t, diags.All(), 1)
	assert.Contains(t, diags.All()[0].Message, "mixing signed and unsigned")
}

func TestAssignmentToImmutableVariableIsRejected(t *testing.T) {
	msgs := check(t, `fn main() { let x: i32 = 1; x = 2; }`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "cannot assign to immutable variable 'x'")
}

func TestIfConditionMustBeBool(t *testing.T) {
	msgs := check(t, `fn main() { if 1 { } }`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "if condition must be bool")
}

func TestCallArityIsChecked(t *testing.T) {
	msgs := check(t, `
		fn add(a: i32, b: i32) -> i32 { return a + b; }
		fn main() { let x = add(1); }
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "expects 2 argument(s), got 1")
}

func TestReturnTypeMismatch(t *testing.T) {
	msgs := check(t, `fn main() -> i32 { return true; }`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "function returns i32 but expression has type bool")
}

func TestStructFieldTypesAreChecked(t *testing.T) {
	msgs := check(t, `
		struct Point { x: i32, y: i32 }
		fn main() { let p = Point { x: 1, y: true }; }
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "field 'y' of struct Point expects i32, got bool")
}

func TestStructLiteralMissingFieldIsReported(t *testing.T) {
	msgs := check(t, `
		struct Point { x: i32, y: i32 }
		fn main() { let p = Point { x: 1 }; }
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "missing field 'y'")
}

func TestPrintAcceptsExactlyOneArgument(t *testing.T) {
	msgs := check(t, `fn main() { print("hi", "there"); }`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "print expects exactly 1 argument")
}

func TestPrintlnIsRecognizedAsABuiltin(t *testing.T) {
	msgs := check(t, `fn main() { println("hi"); }`)
	assert.Empty(t, msgs)
}

func TestPrintlnAcceptsExactlyOneArgument(t *testing.T) {
	msgs := check(t, `fn main() { println("hi", "there"); }`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "println expects exactly 1 argument")
}

func TestUndeclaredVariableIsReported(t *testing.T) {
	msgs := check(t, `fn main() { let x = y; }`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "undeclared variable 'y'")
}
