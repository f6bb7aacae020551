package riscv

import (
	"fmt"

	"sysyc/internal/frame"
	"sysyc/internal/koopair"
)

// emitter owns the per-function state spec.md §4.4 describes: the frame
// slot table (a map from IR value identity to byte offset) and the
// next-slot cursor, seeded from the Frame Planner's StartSlot.
type emitter struct {
	b *Builder

	fn      *koopair.Function
	frame   *frame.Info
	slotOf  map[*koopair.Value]int
	nextSp  int
	bridgeN int
}

// Emit runs Phase B over the whole typed program and returns RISC-V
// assembly text: a .data section for globals, then .text with one label
// per function (spec.md §4.4, §6).
func Emit(prog *koopair.Program) string {
	b := &Builder{}
	emitGlobals(b, prog.Globals)
	b.Directive(".text")
	for _, f := range prog.Funcs {
		if len(f.Blocks) == 0 {
			continue
		}
		e := &emitter{b: b, fn: f}
		e.emitFunction(f)
	}
	return b.String()
}

func (e *emitter) emitFunction(f *koopair.Function) {
	info := frame.Plan(f)
	e.frame = info
	e.slotOf = map[*koopair.Value]int{}
	e.nextSp = info.StartSlot

	e.b.Directive(".globl %s", f.Name)
	e.b.Label(f.Name)
	e.adjustSP(-info.TotalBytes)
	if info.RACall {
		e.storeTo(regRA, regSP, info.TotalBytes-wordSize)
	}

	for _, blk := range f.Blocks {
		e.b.Label(blk.Label)
		for _, inst := range blk.Insts {
			e.emitInst(inst)
		}
	}
}

// adjustSP grows (delta<0) or shrinks (delta>0) the stack pointer by delta
// bytes, using the "li tmp; add" two-step when delta doesn't fit a signed
// 12-bit immediate (spec.md §4.4).
func (e *emitter) adjustSP(delta int) {
	if fitsImm12(delta) {
		e.b.Ins2imm("addi", regSP, regSP, delta)
		return
	}
	e.b.Li(regT6, delta)
	e.b.Ins3("add", regSP, regSP, regT6)
}

// addrOf computes base+offset into dest — used to materialize the address
// of a stack slot (spec.md §4.4's "the slot address, for an alloc").
func (e *emitter) addrOf(dest, base string, offset int) {
	if fitsImm12(offset) {
		e.b.Ins2imm("addi", dest, base, offset)
		return
	}
	e.b.Li(dest, offset)
	e.b.Ins3("add", dest, base, dest)
}

// loadFrom and storeTo implement spec.md §8's immediate-legalization
// invariant for every lw/sw this emitter writes: an out-of-range offset is
// synthesized into regT6 first and the memory op addresses through it with
// a zero displacement.
func (e *emitter) loadFrom(op, dest, base string, offset int) {
	if fitsImm12(offset) {
		e.b.LoadStore(op, dest, offset, base)
		return
	}
	e.b.Li(regT6, offset)
	e.b.Ins3("add", regT6, base, regT6)
	e.b.LoadStore(op, dest, 0, regT6)
}

func (e *emitter) storeTo(reg, base string, offset int) {
	if fitsImm12(offset) {
		e.b.LoadStore("sw", reg, offset, base)
		return
	}
	e.b.Li(regT6, offset)
	e.b.Ins3("add", regT6, base, regT6)
	e.b.LoadStore("sw", reg, 0, regT6)
}

func (e *emitter) spill(reg string, offset int) { e.storeTo(reg, regSP, offset) }

// newSlotFor reserves words*4 fresh bytes for v starting at the current
// cursor and records the mapping (spec.md §4.3/§4.4's frame slot table).
func (e *emitter) newSlotFor(v *koopair.Value, words int) int {
	off := e.nextSp
	e.nextSp += words * wordSize
	e.slotOf[v] = off
	return off
}

// alias records v as sharing src's slot — used for spec.md §4.4's Load
// row ("reuse the source's existing slot, no re-store") instead of
// allocating and copying.
func (e *emitter) alias(v, src *koopair.Value) { e.slotOf[v] = e.slot(src) }

func (e *emitter) slot(v *koopair.Value) int {
	off, ok := e.slotOf[v]
	if !ok {
		panic(fmt.Sprintf("riscv: value %+v has no assigned frame slot", v))
	}
	return off
}

// materialize loads v's run-time value into reg: an immediate for a
// constant, the right register/spill slot for a function argument, or the
// value's own frame slot otherwise (spec.md §4.4's recurring "materialize
// ... from a constant, from a parameter register ..., or from a frame
// slot").
func (e *emitter) materialize(v *koopair.Value, reg string) {
	switch v.Kind {
	case koopair.KindConst:
		e.b.Li(reg, v.Const)
	case koopair.KindFuncArgRef:
		if v.Const < 8 {
			if reg != argRegs[v.Const] {
				e.b.Ins2("mv", reg, argRegs[v.Const])
			}
			return
		}
		off := e.frame.TotalBytes + (v.Const-8)*wordSize
		e.loadFrom("lw", reg, regSP, off)
	default:
		e.loadFrom("lw", reg, regSP, e.slot(v))
	}
}

// materializeAddr computes v's address into reg, used by getelemptr/getptr
// base resolution (spec.md §4.4): a global's label, a local alloc's slot
// address, or — for any other producer — the pointer value it already
// computed, loaded the ordinary way.
func (e *emitter) materializeAddr(v *koopair.Value, reg string) {
	switch v.Kind {
	case koopair.KindGlobalAlloc:
		e.b.Ins2("la", reg, v.Name)
	case koopair.KindAlloc:
		e.addrOf(reg, regSP, e.slot(v))
	default:
		e.materialize(v, reg)
	}
}
