package riscv

import "sysyc/internal/koopair"

// emitGlobals writes the .data section: every global variable's label
// followed by its elaborated initializer, word by word (spec.md §4.4).
func emitGlobals(b *Builder, globals []*koopair.Value) {
	if len(globals) == 0 {
		return
	}
	b.Directive(".data")
	for _, g := range globals {
		b.Directive(".globl %s", g.Name)
		b.Label(g.Name)
		emitInit(b, g.Init, g.Type)
	}
}

// emitInit walks one global's elaborated initializer tree. Nesting in init
// mirrors ty's array dimensions one level at a time, so byte layout falls
// out of a plain depth-first walk regardless of brace structure.
func emitInit(b *Builder, init *koopair.GlobalInit, ty *koopair.Type) {
	if init == nil || init.Zero {
		b.Directive(".zero %d", ty.Size()*wordSize)
		return
	}
	if init.Items != nil {
		for _, item := range init.Items {
			emitInit(b, item, ty.Elem)
		}
		return
	}
	b.Directive(".word %d", init.Scalar)
}
