package core_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenlang/zenc/internal/core"
)

func TestCompileHelloWorld(t *testing.T) {
	res := core.Compile(`
		fn main() {
			println("hello, world");
		}
	`)
	require.Empty(t, res.Failed)
	require.NotEmpty(t, res.LLIR)
	assert.Contains(t, res.LLIR, "define")
	assert.Contains(t, res.LLIR, "@puts")
}

func TestCompileArithmeticAndPrint(t *testing.T) {
	res := core.Compile(`
		fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
		fn main() {
			let sum = add(2, 3);
			println(sum);
		}
	`)
	require.Empty(t, res.Failed)
	assert.Contains(t, res.LLIR, "@add")
	assert.Contains(t, res.LLIR, "call")
	assert.Contains(t, res.LLIR, "@printf")
}

func TestCompileBranching(t *testing.T) {
	res := core.Compile(`
		fn classify(n: i32) {
			if n < 0 {
				print("negative");
			} else if n == 0 {
				print("zero");
			} else {
				print("positive");
			}
		}
		fn main() {
			classify(5);
		}
	`)
	require.Empty(t, res.Failed)
	assert.Contains(t, res.LLIR, "icmp")
	assert.Contains(t, res.LLIR, "br")
}

func TestCompileLoop(t *testing.T) {
	res := core.Compile(`
		fn main() {
			let mut i: i32 = 0;
			while i < 10 {
				print(i);
				i = i + 1;
			}
		}
	`)
	require.Empty(t, res.Failed)
	assert.Contains(t, res.LLIR, "while.cond")
}

func TestCompileRejectsUseAfterMove(t *testing.T) {
	res := core.Compile(`
		fn main() {
			let a: i32 = 1;
			let b = <- a;
			let c = a;
		}
	`)
	require.Equal(t, core.StageOwnership, res.Failed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "Use of moved variable 'a'")
}

func TestCompileRejectsMutableBorrowConflict(t *testing.T) {
	res := core.Compile(`
		fn main() {
			let mut a: i32 = 1;
			let r1 = &mut a;
			let r2 = &mut a;
		}
	`)
	require.Equal(t, core.StageOwnership, res.Failed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "already borrowed")
}

func TestCompileHaltsAtLexStageOnUnknownToken(t *testing.T) {
	res := core.Compile(`fn main() { let x = 1; } #`)
	require.Equal(t, core.StageLex, res.Failed)
	require.NotEmpty(t, res.Diagnostics)
	assert.Nil(t, res.AST)
}

func TestCompileHaltsAtTypecheckBeforeOwnership(t *testing.T) {
	res := core.Compile(`
		fn main() {
			let x: i32 = true;
		}
	`)
	require.Equal(t, core.StageTypecheck, res.Failed)
}

func TestTokenizeReturnsEOFTerminatedStream(t *testing.T) {
	tokens := core.Tokenize(`let x = 1;`)
	require.NotEmpty(t, tokens)
	last := tokens[len(tokens)-1]
	assert.Equal(t, "EOF", last.Kind.String())
}

func TestCompileStructAndFieldAccess(t *testing.T) {
	res := core.Compile(`
		struct Point { x: i32, y: i32 }
		fn main() {
			let p = Point { x: 1, y: 2 };
			print(p.x);
		}
	`)
	require.Empty(t, res.Failed)
	assert.True(t, strings.Contains(res.LLIR, "getelementptr"))
}
