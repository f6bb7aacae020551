// Package koopa builds the textual Koopa IR that internal/lower emits and
// internal/koopair parses back into a typed value graph (spec.md §2, §6).
//
// The teacher's util.Writer buffers emitted text in a strings.Builder and
// exposes small per-shape helpers (Ins1/Ins2/Ins3/Label) so the emitter never
// hand-formats an instruction twice; it also fans its buffer out to a
// dedicated I/O goroutine over a channel, because the teacher's backend runs
// one Writer per worker thread. Phase A here runs single-threaded and
// sequential (spec.md §5), so Builder keeps the per-shape helper methods but
// drops the channel: one Builder, one buffer, used directly by its owner.
package koopa

import (
	"fmt"
	"strings"
)

// Builder accumulates Koopa IR text and hands out fresh temporary names.
type Builder struct {
	sb       strings.Builder
	nextTemp int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// String returns everything written so far.
func (b *Builder) String() string { return b.sb.String() }

// EmitValue writes a value-producing instruction — "\t%k = rhs\n" — and
// returns its temporary reference "%k".
func (b *Builder) EmitValue(rhs string) string {
	k := b.nextTemp
	b.nextTemp++
	ref := fmt.Sprintf("%%%d", k)
	fmt.Fprintf(&b.sb, "\t%s = %s\n", ref, rhs)
	return ref
}

// EmitNamed writes a named (non-temporary) value instruction — used for
// `alloc`, which is addressed by scoped name rather than by %k — and
// returns the name reference "@name".
func (b *Builder) EmitNamed(name, rhs string) string {
	fmt.Fprintf(&b.sb, "\t@%s = %s\n", name, rhs)
	return "@" + name
}

// EmitStmt writes a non-value-producing instruction: store, br, jump, ret,
// or a void call. With no args, format is written verbatim, so text built by
// the constructors below (which contains '%' in temporaries and labels) is
// never reinterpreted as a format string.
func (b *Builder) EmitStmt(format string, args ...interface{}) {
	b.sb.WriteString("\t")
	if len(args) == 0 {
		b.sb.WriteString(format)
	} else {
		fmt.Fprintf(&b.sb, format, args...)
	}
	b.sb.WriteString("\n")
}

// Label writes a basic-block label line.
func (b *Builder) Label(name string) {
	fmt.Fprintf(&b.sb, "%%%s:\n", name)
}

// FuncOpen writes a function header and opening brace. retType is "" for a
// void-returning function.
func (b *Builder) FuncOpen(name, params, retType string) {
	if retType == "" {
		fmt.Fprintf(&b.sb, "fun @%s(%s) {\n", name, params)
	} else {
		fmt.Fprintf(&b.sb, "fun @%s(%s): %s {\n", name, params, retType)
	}
}

// FuncClose writes a function's closing brace.
func (b *Builder) FuncClose() {
	b.sb.WriteString("}\n\n")
}

// Global writes a top-level global allocation.
func (b *Builder) Global(name, rhs string) {
	fmt.Fprintf(&b.sb, "global @%s = %s\n\n", name, rhs)
}

// Decl writes a runtime-library forward declaration (spec.md §4.5).
func (b *Builder) Decl(sig string) {
	fmt.Fprintf(&b.sb, "decl %s\n", sig)
}

// --- instruction-shape constructors -------------------------------------
//
// These build the right-hand side of an instruction line without writing
// it; callers choose EmitValue/EmitNamed/EmitStmt depending on whether the
// instruction produces a value.

func BinOp(op, a, b string) string { return fmt.Sprintf("%s %s, %s", op, a, b) }

func Alloc(typ string) string { return "alloc " + typ }

func Load(addr string) string { return "load " + addr }

func Store(val, addr string) string { return fmt.Sprintf("store %s, %s", val, addr) }

func GetElemPtr(base, index string) string { return fmt.Sprintf("getelemptr %s, %s", base, index) }

func GetPtr(base, index string) string { return fmt.Sprintf("getptr %s, %s", base, index) }

func Call(name string, args []string) string {
	return fmt.Sprintf("call @%s(%s)", name, strings.Join(args, ", "))
}

func Ret(val string) string {
	if val == "" {
		return "ret"
	}
	return "ret " + val
}

func Branch(cond, t, f string) string { return fmt.Sprintf("br %s, %%%s, %%%s", cond, t, f) }

func Jump(label string) string { return fmt.Sprintf("jump %%%s", label) }

// Int materializes an integer literal per spec.md §4.2.2 ("add 0, N").
func Int(n int) string { return fmt.Sprintf("add 0, %d", n) }

// ArrayType renders a Koopa array type, outermost dimension first, e.g.
// ArrayType("i32", []int{2, 3}) -> "[[i32, 3], 2]".
func ArrayType(elem string, dims []int) string {
	t := elem
	for i := len(dims) - 1; i >= 0; i-- {
		t = fmt.Sprintf("[%s, %d]", t, dims[i])
	}
	return t
}

// PointerType renders a Koopa pointer type.
func PointerType(pointee string) string { return "*" + pointee }
