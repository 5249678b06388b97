package ownership_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenlang/zenc/internal/lexer"
	"github.com/zenlang/zenc/internal/ownership"
	"github.com/zenlang/zenc/internal/parser"
)

func check(t *testing.T, source string) []string {
	t.Helper()
	prog, parseDiags := parser.Parse(lexer.Tokenize(source))
	require.Empty(t, parseDiags.Errors(), "source should parse cleanly")

	diags := ownership.Check(prog)
	msgs := make([]string, len(diags.All()))
	for i, d := range diags.All() {
		msgs[i] = d.Message
	}
	return msgs
}

func TestMoveThenUseIsRejected(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let a: i32 = 1;
			let b = <- a;
			let c = a;
		}
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Use of moved variable 'a'")
}

func TestMoveTwiceIsRejected(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let a: i32 = 1;
			let b = <- a;
			let c = <- a;
		}
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Cannot move already moved variable 'a'")
}

func TestMoveOfBorrowedVariableIsRejected(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let a: i32 = 1;
			let r = &a;
			let b = <- a;
		}
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Cannot move borrowed variable 'a'")
}

func TestSecondMutableBorrowIsRejected(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let mut a: i32 = 1;
			let r1 = &mut a;
			let r2 = &mut a;
		}
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Cannot create mutable borrow of 'a'")
	assert.Contains(t, msgs[0], "already borrowed")
}

func TestMutableBorrowOfImmutableVariableIsRejected(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let a: i32 = 1;
			let r = &mut a;
		}
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "of immutable variable")
}

func TestImmutableBorrowWhileMutablyBorrowedIsRejected(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let mut a: i32 = 1;
			let r1 = &mut a;
			let r2 = &a;
		}
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Cannot create immutable borrow of 'a'")
	assert.Contains(t, msgs[0], "mutably borrowed")
}

func TestSharedBorrowsDoNotConflictWithEachOther(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let a: i32 = 1;
			let r1 = &a;
			let r2 = &a;
		}
	`)
	assert.Empty(t, msgs)
}

func TestAssignToMovedVariableIsRejected(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let mut a: i32 = 1;
			let b = <- a;
			a = 2;
		}
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Cannot assign to moved variable 'a'")
}

func TestAssignToBorrowedVariableIsRejected(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let mut a: i32 = 1;
			let r = &a;
			a = 2;
		}
	`)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Cannot assign to borrowed variable 'a'")
}

func TestBorrowDropsAtScopeExit(t *testing.T) {
	msgs := check(t, `
		fn main() {
			let mut a: i32 = 1;
			{
				let r = &mut a;
			}
			let r2 = &mut a;
		}
	`)
	assert.Empty(t, msgs)
}
