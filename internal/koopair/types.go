// Package koopair is the "external IR builder" spec.md §1 treats as an
// out-of-scope collaborator: it accepts the Koopa IR text internal/lower
// emits and re-materializes it as the typed value graph internal/frame and
// internal/riscv walk. No such library exists in the retrieval pack for
// this invented IR surface, so this package plays that role directly,
// grounded on the teacher's own typed-graph shape: ir/lir's Value
// interface (Id/Name/Type/DataType/String) backing concrete node kinds
// such as Global, and ir/lir/module.go's Module{globals, functions} owning
// its children by a sequence-numbered identity.
package koopair

import "fmt"

// TypeKind discriminates the handful of Koopa types this compiler needs.
type TypeKind int

const (
	Int32 TypeKind = iota
	Array
	Pointer
	Unit
)

// Type is a Koopa type: i32, unit, an array of N elements of Elem, or a
// pointer to Elem.
type Type struct {
	Kind TypeKind
	Elem *Type
	Len  int
}

func I32() *Type  { return &Type{Kind: Int32} }
func Void() *Type { return &Type{Kind: Unit} }

func ArrayOf(elem *Type, n int) *Type { return &Type{Kind: Array, Elem: elem, Len: n} }
func PointerTo(elem *Type) *Type      { return &Type{Kind: Pointer, Elem: elem} }

// Size is the element count the Frame Planner charges a value of this
// type (spec.md §4.3): 1 for a scalar or pointer, product(dims) for an
// array.
func (t *Type) Size() int {
	if t == nil {
		return 1
	}
	switch t.Kind {
	case Array:
		return t.Len * t.Elem.Size()
	default:
		return 1
	}
}

func (t *Type) String() string {
	switch t.Kind {
	case Int32:
		return "i32"
	case Unit:
		return ""
	case Pointer:
		return "*" + t.Elem.String()
	case Array:
		return fmt.Sprintf("[%s, %d]", t.Elem.String(), t.Len)
	}
	return "?"
}

// stepInto is the type of a getelemptr result: one array level is
// stripped, matching spec.md §4.4's "S = size of the pointee's element
// when the source is an array-of-arrays".
func stepInto(t *Type) *Type {
	switch t.Kind {
	case Array:
		return PointerTo(t.Elem)
	case Pointer:
		if t.Elem.Kind == Array {
			return PointerTo(t.Elem.Elem)
		}
		return PointerTo(t.Elem)
	default:
		return PointerTo(I32())
	}
}

