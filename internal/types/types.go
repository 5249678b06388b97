// Package types defines L's closed set of nameable types and the numeric
// promotion rules arithmetic and comparisons follow. internal/codegen maps
// Kind values to concrete github.com/llir/llvm types directly rather than
// through this package, so it stays free of that dependency.
package types

import (
	"strconv"
	"strings"
)

// Type is a resolved L type name. Struct and array types carry structure
// beyond a bare name, so Type is a small value type rather than a string
// alias; Kind tells a consumer which fields are meaningful.
type Type struct {
	Kind Kind
	Name string // struct name, for Kind == Struct
	Elem *Type  // element type, for Kind == Array
	Size int    // element count, for Kind == Array with a fixed size (0 == unsized)
}

// Kind enumerates the shapes a Type can take.
type Kind int

const (
	Invalid Kind = iota
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	BoolT
	StrT
	CharT
	VoidT
	StructT
	ArrayT
)

var primitiveByName = map[string]Kind{
	"i8": I8, "i16": I16, "i32": I32, "i64": I64,
	"u8": U8, "u16": U16, "u32": U32, "u64": U64,
	"f32": F32, "f64": F64,
	"bool": BoolT, "str": StrT, "char": CharT, "void": VoidT,
}

var nameByPrimitive = map[Kind]string{
	I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64",
	BoolT: "bool", StrT: "str", CharT: "char", VoidT: "void",
}

// Parse resolves a type-name string (as produced by internal/parser's
// typeName, including bracketed array forms) against the closed primitive
// set, falling back to a struct reference for any other bare identifier.
// structs names the struct declarations visible at the point of resolution,
// so an unrecognized bare name that is not a declared struct is reported as
// Invalid.
func Parse(name string, structs map[string]bool) Type {
	if k, ok := primitiveByName[name]; ok {
		return Type{Kind: k}
	}
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		return parseArray(name, structs)
	}
	if structs[name] {
		return Type{Kind: StructT, Name: name}
	}
	return Type{Kind: Invalid, Name: name}
}

func parseArray(name string, structs map[string]bool) Type {
	inner := strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")
	if i := strings.Index(inner, ";"); i >= 0 {
		elemName := strings.TrimSpace(inner[:i])
		elem := Parse(elemName, structs)
		size, _ := strconv.Atoi(strings.TrimSpace(inner[i+1:]))
		return Type{Kind: ArrayT, Elem: &elem, Size: size}
	}
	elem := Parse(strings.TrimSpace(inner), structs)
	return Type{Kind: ArrayT, Elem: &elem}
}

// String renders a Type the way it appears in source and diagnostics.
func (t Type) String() string {
	switch t.Kind {
	case StructT:
		return t.Name
	case ArrayT:
		if t.Size > 0 {
			return "[" + t.Elem.String() + "; " + strconv.Itoa(t.Size) + "]"
		}
		return "[" + t.Elem.String() + "]"
	case Invalid:
		if t.Name != "" {
			return t.Name
		}
		return "<invalid>"
	default:
		return nameByPrimitive[t.Kind]
	}
}

func (t Type) IsValid() bool { return t.Kind != Invalid }

// IsNumeric reports whether t is one of the eight integer kinds or the two
// float kinds.
func (t Type) IsNumeric() bool {
	return t.IsInteger() || t.Kind == F32 || t.Kind == F64
}

// IsInteger reports whether t is one of the eight fixed-width integer
// kinds.
func (t Type) IsInteger() bool {
	switch t.Kind {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// IsSigned reports whether t is one of the four signed integer kinds.
func (t Type) IsSigned() bool {
	switch t.Kind {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is f32 or f64.
func (t Type) IsFloat() bool { return t.Kind == F32 || t.Kind == F64 }

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case StructT:
		return t.Name == o.Name
	case ArrayT:
		return t.Elem.Equal(*o.Elem) && t.Size == o.Size
	default:
		return true
	}
}

// integerWidth gives the bit width of an integer kind, used by Promote to
// rank candidates.
var integerWidth = map[Kind]int{
	I8: 8, U8: 8,
	I16: 16, U16: 16,
	I32: 32, U32: 32,
	I64: 64, U64: 64,
}

// Promote applies the "widest wins, float beats integer, left operand wins
// a tie" rule to two numeric operand types, additionally reporting whether
// the promotion silently crosses the signed/unsigned line (the caller turns
// that into a non-fatal warning rather than a rejection).
func Promote(left, right Type) (result Type, mixedSignedness bool) {
	if left.Kind == F64 || right.Kind == F64 {
		return Type{Kind: F64}, false
	}
	if left.Kind == F32 || right.Kind == F32 {
		return Type{Kind: F32}, false
	}

	lw, rw := integerWidth[left.Kind], integerWidth[right.Kind]
	mixedSignedness = left.IsSigned() != right.IsSigned()

	switch {
	case lw > rw:
		return left, mixedSignedness
	case rw > lw:
		return right, mixedSignedness
	default:
		// Equal width: left operand wins the tie.
		return left, mixedSignedness
	}
}
