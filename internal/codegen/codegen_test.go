package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenlang/zenc/internal/codegen"
	"github.com/zenlang/zenc/internal/lexer"
	"github.com/zenlang/zenc/internal/parser"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	toks := lexer.Tokenize(src)
	prog, diags := parser.Parse(toks)
	require.False(t, diags.HasErrors(), "unexpected parse errors: %v", diags.Errors())
	llir, genDiags := codegen.Generate(prog)
	require.False(t, genDiags.HasErrors(), "unexpected codegen errors: %v", genDiags.Errors())
	return llir
}

func TestGenerateEmptyMainDefinesEntryPoint(t *testing.T) {
	ir := generate(t, `fn main() { }`)
	assert.Contains(t, ir, "define")
	assert.Contains(t, ir, "@main")
}

func TestGenerateArithmeticEmitsBinaryOps(t *testing.T) {
	ir := generate(t, `
		fn main() {
			let a: i32 = 2;
			let b: i32 = 3;
			let c = a + b * 2;
		}
	`)
	assert.Contains(t, ir, "add")
	assert.Contains(t, ir, "mul")
	assert.Contains(t, ir, "alloca")
	assert.Contains(t, ir, "store")
}

func TestGenerateFloatArithmeticUsesFAdd(t *testing.T) {
	ir := generate(t, `
		fn main() {
			let a: f64 = 1.5;
			let b: f64 = 2.5;
			let c = a + b;
		}
	`)
	assert.Contains(t, ir, "fadd")
}

func TestGeneratePrintStringUsesPuts(t *testing.T) {
	ir := generate(t, `
		fn main() {
			print("hello");
		}
	`)
	assert.Contains(t, ir, "@puts")
	assert.Contains(t, ir, "declare")
	assert.Contains(t, ir, "c\"hello\\00\"")
}

func TestGeneratePrintlnStringAlsoUsesPuts(t *testing.T) {
	ir := generate(t, `
		fn main() {
			println("hello");
		}
	`)
	assert.Contains(t, ir, "@puts")
}

func TestGeneratePrintIntegerUsesBareIntFormat(t *testing.T) {
	ir := generate(t, `
		fn main() {
			let n: i32 = 42;
			print(n);
		}
	`)
	assert.Contains(t, ir, "@printf")
	assert.Contains(t, ir, "c\"%d\\00\"")
}

func TestGeneratePrintlnIntegerUsesNewlineIntFormat(t *testing.T) {
	ir := generate(t, `
		fn main() {
			let n: i32 = 42;
			println(n);
		}
	`)
	assert.Contains(t, ir, "c\"%d\\0A\\00\"")
}

func TestGeneratePrintNarrowSignedIntegerSignExtends(t *testing.T) {
	ir := generate(t, `
		fn main() {
			let n: i16 = 42;
			print(n);
		}
	`)
	assert.Contains(t, ir, "sext")
}

func TestGeneratePrintNarrowUnsignedIntegerZeroExtends(t *testing.T) {
	ir := generate(t, `
		fn main() {
			let n: u16 = 42;
			print(n);
		}
	`)
	assert.Contains(t, ir, "zext")
}

func TestGenerateInterningDeduplicatesIdenticalStringLiterals(t *testing.T) {
	ir := generate(t, `
		fn main() {
			print("same");
			print("same");
		}
	`)
	assert.Equal(t, 1, countOccurrences(ir, `c"same\00"`))
}

func TestGenerateIfElseEmitsConditionalBranches(t *testing.T) {
	ir := generate(t, `
		fn classify(n: i32) {
			if n < 0 {
				print("neg");
			} else {
				print("pos");
			}
		}
	`)
	assert.Contains(t, ir, "icmp slt")
	assert.Contains(t, ir, "br i1")
}

func TestGenerateWhileLoopEmitsLabeledBlocks(t *testing.T) {
	ir := generate(t, `
		fn main() {
			let mut i: i32 = 0;
			while i < 3 {
				i = i + 1;
			}
		}
	`)
	assert.Contains(t, ir, "while.cond")
	assert.Contains(t, ir, "while.body")
}

func TestGenerateForLoopEmitsLabeledBlocks(t *testing.T) {
	ir := generate(t, `
		fn main() {
			for let mut i: i32 = 0; i < 3; i = i + 1 {
				print(i);
			}
		}
	`)
	assert.Contains(t, ir, "for.cond")
	assert.Contains(t, ir, "for.body")
}

func TestGenerateMatchDesugarsToEqualityChain(t *testing.T) {
	ir := generate(t, `
		fn main() {
			let n: i32 = 1;
			match n {
				1 => print("one"),
				_ => print("other"),
			}
		}
	`)
	assert.Contains(t, ir, "icmp eq")
}

func TestGenerateStructLiteralAndFieldAccessUseGetElementPtr(t *testing.T) {
	ir := generate(t, `
		struct Point { x: i32, y: i32 }
		fn main() {
			let p = Point { x: 1, y: 2 };
			print(p.x);
		}
	`)
	assert.Contains(t, ir, "getelementptr")
	assert.Contains(t, ir, "{ i32, i32 }")
}

func TestGenerateNonVoidFunctionWithoutTrailingReturnEmitsUnreachable(t *testing.T) {
	ir := generate(t, `
		fn choose(n: i32) -> i32 {
			if n > 0 {
				return 1;
			}
		}
		fn main() {
			let x = choose(1);
		}
	`)
	assert.Contains(t, ir, "unreachable")
}

func TestGenerateBorrowLowersToPointer(t *testing.T) {
	ir := generate(t, `
		fn main() {
			let mut a: i32 = 1;
			let r = &mut a;
		}
	`)
	assert.Contains(t, ir, "alloca")
	assert.NotContains(t, ir, "unreachable")
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}
