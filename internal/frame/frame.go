// Package frame implements the Frame Planner (spec.md §4.3): a pre-pass
// over a function's typed IR that computes how many stack slots it needs
// before the RISC-V Emitter (internal/riscv) walks its instructions and
// assigns each one a concrete byte offset.
//
// The teacher's backend/riscv.genFunction folds this computation inline —
// "N := (np + fun.Nlocals) << 2" read straight off the function's symbol
// table entry, aligned up to 16 and padded for the saved return address.
// This package pulls that arithmetic out into its own pre-pass over the
// typed IR graph, since spec.md §4.3 describes it as the Frame Planner, a
// component distinct from the Emitter that consumes its result.
package frame

import "sysyc/internal/koopair"

const stackAlign = 16
const wordSize = 4

// Info is the result of planning one function's stack frame.
type Info struct {
	SNum       int  // value-producing instructions needing a slot (spec.md §4.3)
	RANum      int  // words reserved for the outgoing-argument spill area
	RACall     bool // true if the function makes any call (needs ra saved)
	TotalBytes int  // round_up_16((SNum+RANum+RACall)*4)
	StartSlot  int  // RANum*4: where the Emitter's per-value slot numbering begins
}

// Plan walks f's basic blocks once, computing the slot and spill-area
// counts spec.md §4.3 defines. It never assigns actual offsets to
// individual values — that is the Emitter's job, populated "as instructions
// are visited in order" during code generation.
func Plan(f *koopair.Function) *Info {
	info := &Info{}
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if inst.Produces() {
				info.SNum += slotCount(inst)
			}
			if inst.Kind == koopair.KindCall {
				info.RACall = true
				if extra := len(inst.Args) - 8; extra > info.RANum {
					info.RANum = extra
				}
			}
		}
	}
	if info.RANum < 0 {
		info.RANum = 0
	}

	raFlag := 0
	if info.RACall {
		raFlag = 1
	}
	words := info.SNum + info.RANum + raFlag
	bytes := words * wordSize
	if rem := bytes % stackAlign; rem != 0 {
		bytes += stackAlign - rem
	}
	info.TotalBytes = bytes
	info.StartSlot = info.RANum * wordSize
	return info
}

// slotCount is 1 for any scalar- or pointer-producing instruction, and
// product(dimensions) for an array-typed alloc (spec.md §4.3).
func slotCount(v *koopair.Value) int {
	if v.Kind == koopair.KindAlloc && v.Type != nil && v.Type.Kind == koopair.Array {
		return v.Type.Size()
	}
	return 1
}
