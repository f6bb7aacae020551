// Package riscv is Phase B (spec.md §4.4): it walks the typed IR graph
// internal/koopair parses and emits RISC-V assembly, using the stack
// layout internal/frame precomputes.
//
// The teacher's backend/riscv package hand-rolls a util.Writer (buffered
// text plus small per-shape helpers: Ins1/Ins2/Ins2imm/Ins3/Label) and a
// registerFile tracking which physical register holds which symbol-table
// entry, because its source language has a real register allocator
// candidate surface (float + int registers, VSL's richer expression
// grammar). This compiler targets spec.md §1's "no optimizer; generated
// code is naive": every value-producing instruction gets its own frame
// slot and is spilled immediately (spec.md §4.4's table), so there is no
// register file to track residency in — only a handful of scratch
// registers reused instruction-by-instruction. Builder below is the
// teacher's Writer trimmed to that shape: one buffer, one owner, no
// cross-goroutine channel.
package riscv

import (
	"fmt"
	"strings"
)

const wordSize = 4

// Scratch register names used throughout instruction emission. Naming
// follows the teacher's riscv.go ABI aliases (ra, sp, a0-a7, t0-t6); since
// this compiler never keeps a value resident across instructions, the
// scratch assignment below is fixed per spec.md §4.4's table rather than
// allocated dynamically.
const (
	regRA = "ra"
	regSP   = "sp"
	regT0   = "t0"
	regT1   = "t1"
	regT2   = "t2"
	regT3   = "t3"
	regT4   = "t4"
	regT5   = "t5"
	regT6   = "t6"
)

var argRegs = [8]string{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7"}

// Builder accumulates RISC-V assembly text, mirroring the teacher's
// util.Writer per-shape helpers (Ins1/Ins2/Ins3/Label) without the
// worker-thread channel this single-threaded emitter has no use for.
type Builder struct {
	sb strings.Builder
}

func (b *Builder) String() string { return b.sb.String() }

func (b *Builder) Raw(s string) { b.sb.WriteString(s) }

func (b *Builder) Directive(format string, args ...interface{}) {
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteString("\n")
}

func (b *Builder) Label(name string) { fmt.Fprintf(&b.sb, "%s:\n", name) }

// Ins1 writes a one-operand instruction: "op rs1".
func (b *Builder) Ins1(op, rs1 string) { fmt.Fprintf(&b.sb, "\t%s\t%s\n", op, rs1) }

// Ins2 writes a two-operand instruction: "op rd, rs1".
func (b *Builder) Ins2(op, rd, rs1 string) { fmt.Fprintf(&b.sb, "\t%s\t%s, %s\n", op, rd, rs1) }

// Ins2imm writes "op rd, rs1, imm".
func (b *Builder) Ins2imm(op, rd, rs1 string, imm int) {
	fmt.Fprintf(&b.sb, "\t%s\t%s, %s, %d\n", op, rd, rs1, imm)
}

// Ins3 writes a three-operand register instruction: "op rd, rs1, rs2".
func (b *Builder) Ins3(op, rd, rs1, rs2 string) {
	fmt.Fprintf(&b.sb, "\t%s\t%s, %s, %s\n", op, rd, rs1, rs2)
}

// LoadStore writes "op reg, offset(base)" — lw/sw/flw/fsw shape.
func (b *Builder) LoadStore(op, reg string, offset int, base string) {
	fmt.Fprintf(&b.sb, "\t%s\t%s, %d(%s)\n", op, reg, offset, base)
}

// fitsImm12 reports whether imm is representable as a signed 12-bit
// immediate, the legalization boundary spec.md §4.4/§8 requires every
// addi/lw/sw to respect.
func fitsImm12(imm int) bool { return imm >= -2048 && imm <= 2047 }

// Li emits a bare "li rd, imm" (no source register operand), which
// Ins2imm can't express since it always prints an rs1.
func (b *Builder) Li(rd string, imm int) { fmt.Fprintf(&b.sb, "\tli\t%s, %d\n", rd, imm) }

// Op0 writes a bare zero-operand instruction ("ret").
func (b *Builder) Op0(op string) { fmt.Fprintf(&b.sb, "\t%s\n", op) }
