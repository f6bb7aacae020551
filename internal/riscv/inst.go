package riscv

import "sysyc/internal/koopair"

// emitInst dispatches on a single typed IR value's Kind, following the
// per-shape table spec.md §4.4 lays out. Every value-producing case except
// alloc (which only reserves its slot) and a load from a local alloc (which
// reuses that alloc's slot) ends by spilling its result to a fresh frame
// slot; this emitter never keeps a value resident across instructions (see
// riscv.go's package doc).
func (e *emitter) emitInst(inst *koopair.Value) {
	switch inst.Kind {
	case koopair.KindAlloc:
		e.emitAlloc(inst)
	case koopair.KindBinOp:
		e.emitBinOp(inst)
	case koopair.KindLoad:
		e.emitLoad(inst)
	case koopair.KindStore:
		e.emitStore(inst)
	case koopair.KindGetElemPtr, koopair.KindGetPtr:
		e.emitGetPtr(inst)
	case koopair.KindCall:
		e.emitCall(inst)
	case koopair.KindBranch:
		e.emitBranch(inst)
	case koopair.KindJump:
		e.b.Ins1("j", inst.Targets[0].Label)
	case koopair.KindRet:
		e.emitRet(inst)
	default:
		panic("riscv: unexpected top-level instruction kind")
	}
}

// emitAlloc reserves inst's frame slot; local allocation emits no code of
// its own (spec.md §4.4's "No code emitted" row) — variables live in the
// slot from function entry onward.
func (e *emitter) emitAlloc(inst *koopair.Value) {
	words := 1
	if inst.Type != nil && inst.Type.Kind == koopair.Array {
		words = inst.Type.Size()
	}
	e.newSlotFor(inst, words)
}

// emitLoad follows spec.md §4.4's three-way dispatch on the address
// operand's producer: a global is read through "la"+"lw"; a computed
// pointer (getelemptr/getptr) is dereferenced the same way; a plain local
// alias simply reuses the underlying alloc's slot, with no load emitted at
// all.
func (e *emitter) emitLoad(inst *koopair.Value) {
	addr := inst.Args[0]
	switch addr.Kind {
	case koopair.KindGlobalAlloc:
		e.b.Ins2("la", regT1, addr.Name)
		e.b.LoadStore("lw", regT4, 0, regT1)
		e.spill(regT4, e.newSlotFor(inst, 1))
	case koopair.KindGetElemPtr, koopair.KindGetPtr:
		e.loadFrom("lw", regT1, regSP, e.slot(addr))
		e.b.LoadStore("lw", regT4, 0, regT1)
		e.spill(regT4, e.newSlotFor(inst, 1))
	default:
		e.alias(inst, addr)
	}
}

// emitStore crosses value materialization (constant/parameter/frame slot)
// with destination addressing mode (global/computed pointer/plain local),
// matching spec.md §4.4's Store row.
func (e *emitter) emitStore(inst *koopair.Value) {
	val, addr := inst.Args[0], inst.Args[1]
	e.materialize(val, regT0)
	switch addr.Kind {
	case koopair.KindGlobalAlloc:
		e.b.Ins2("la", regT1, addr.Name)
		e.b.LoadStore("sw", regT0, 0, regT1)
	case koopair.KindGetElemPtr, koopair.KindGetPtr:
		e.loadFrom("lw", regT1, regSP, e.slot(addr))
		e.b.LoadStore("sw", regT0, 0, regT1)
	default:
		e.storeTo(regT0, regSP, e.slot(addr))
	}
}

// emitGetPtr computes base + index*stepBytes. inst.Type is already a
// pointer to the element one index step moves over (the koopair parser
// derives it via stepInto for getelemptr and verbatim for getptr), so a
// single stepBytes formula, the size of inst.Type.Elem, covers both
// instruction kinds (spec.md §4.4).
func (e *emitter) emitGetPtr(inst *koopair.Value) {
	base, idx := inst.Args[0], inst.Args[1]
	e.materializeAddr(base, regT1)

	if idx.Kind == koopair.KindConst && idx.Const == 0 {
		e.spill(regT1, e.newSlotFor(inst, 1))
		return
	}

	stepBytes := inst.Type.Elem.Size() * wordSize
	e.materialize(idx, regT2)
	e.b.Li(regT3, stepBytes)
	e.b.Ins3("mul", regT3, regT2, regT3)
	e.b.Ins3("add", regT4, regT1, regT3)
	e.spill(regT4, e.newSlotFor(inst, 1))
}

// emitCall passes the first eight arguments in a0-a7 and spills the rest
// into the outgoing-argument area the Frame Planner reserved at the base
// of this function's own frame (spec.md §4.3, §4.4).
func (e *emitter) emitCall(inst *koopair.Value) {
	for i, a := range inst.Args {
		if i < 8 {
			e.materialize(a, argRegs[i])
			continue
		}
		e.materialize(a, regT0)
		e.storeTo(regT0, regSP, (i-8)*wordSize)
	}
	e.b.Ins1("call", inst.Name)
	if inst.Produces() {
		e.spill("a0", e.newSlotFor(inst, 1))
	}
}

// emitBranch lowers a conditional branch through the two-step bridging
// pattern spec.md §4.4 calls for: bnez/beqz can only reach a nearby label,
// so each tests the condition into an adjacent bridge block that then
// issues a full-range unconditional jump to the real target.
func (e *emitter) emitBranch(inst *koopair.Value) {
	e.materialize(inst.Args[0], regT0)
	n := e.bridgeN
	e.bridgeN++
	trueBridge := bridgeLabel("t", n)
	falseBridge := bridgeLabel("f", n)

	e.b.Ins2("bnez", regT0, trueBridge)
	e.b.Ins2("beqz", regT0, falseBridge)
	e.b.Label(trueBridge)
	e.b.Ins1("j", inst.Targets[0].Label)
	e.b.Label(falseBridge)
	e.b.Ins1("j", inst.Targets[1].Label)
}

func bridgeLabel(which string, n int) string {
	return ".Lbr" + which + itoa(n)
}

// itoa avoids pulling in strconv for one call site; n is always a small
// non-negative bridge counter.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits [20]byte
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

// emitRet materializes the return value into a0 (if any), restores ra when
// the function made any calls, deallocates the frame, and returns
// (spec.md §4.4).
func (e *emitter) emitRet(inst *koopair.Value) {
	if len(inst.Args) > 0 {
		e.materialize(inst.Args[0], "a0")
	}
	if e.frame.RACall {
		e.loadFrom("lw", regRA, regSP, e.frame.TotalBytes-wordSize)
	}
	e.adjustSP(e.frame.TotalBytes)
	e.b.Op0("ret")
}

// emitBinOp lowers an arithmetic or relational binary op (Phase A never
// emits Koopa and/or/xor: SysY's logical operators are short-circuited
// into branches instead). RISC-V has no single-instruction gt/le/ge/eq/ne,
// so those synthesize a short slt/xor sequence finished off with
// xori/seqz/snez (spec.md §4.4, §6).
func (e *emitter) emitBinOp(inst *koopair.Value) {
	e.materialize(inst.Args[0], regT2)
	e.materialize(inst.Args[1], regT3)
	rd := regT4

	switch inst.Op {
	case "add", "sub", "mul":
		e.b.Ins3(inst.Op, rd, regT2, regT3)
	case "div":
		e.b.Ins3("div", rd, regT2, regT3)
	case "mod":
		e.b.Ins3("rem", rd, regT2, regT3)
	case "lt":
		e.b.Ins3("slt", rd, regT2, regT3)
	case "gt":
		e.b.Ins3("slt", rd, regT3, regT2)
	case "le":
		e.b.Ins3("slt", rd, regT3, regT2)
		e.b.Ins2imm("xori", rd, rd, 1)
	case "ge":
		e.b.Ins3("slt", rd, regT2, regT3)
		e.b.Ins2imm("xori", rd, rd, 1)
	case "eq":
		e.b.Ins3("xor", rd, regT2, regT3)
		e.b.Ins2(seqzOp, rd, rd)
	case "ne":
		e.b.Ins3("xor", rd, regT2, regT3)
		e.b.Ins2(snezOp, rd, rd)
	default:
		panic("riscv: unknown binary op " + inst.Op)
	}
	e.spill(rd, e.newSlotFor(inst, 1))
}

const seqzOp = "seqz"
const snezOp = "snez"
