// Package compiler orchestrates the two lowering phases end to end
// (SPEC_FULL.md's MODULE LAYOUT): parse source into an AST, run Phase A to
// produce Koopa IR text, and — unless the driver only wants IR text — hand
// that text to the external-IR-builder collaborator and run Phase B to
// produce RISC-V assembly.
package compiler

import (
	"fmt"

	"sysyc/internal/config"
	"sysyc/internal/diag"
	"sysyc/internal/koopair"
	"sysyc/internal/lower"
	"sysyc/internal/parser"
	"sysyc/internal/riscv"
)

// Run compiles src according to mode and returns the text the driver writes
// out: Koopa IR text for config.ModeKoopa, RISC-V assembly otherwise
// (spec.md §6).
func Run(src string, mode config.Mode) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compiler: internal invariant violation: %v", r)
		}
	}()

	diag.Stage("parse", nil)
	cu, perr := parser.Parse(src)
	if perr != nil {
		return "", fmt.Errorf("compiler: parse: %w", perr)
	}

	diag.Stage("lower", nil)
	ir := lower.Lower(cu)
	if mode == config.ModeKoopa {
		return ir, nil
	}

	diag.Stage("koopair", nil)
	prog, kerr := koopair.Parse(ir)
	if kerr != nil {
		return "", fmt.Errorf("compiler: koopair: %w", kerr)
	}

	diag.Stage("emit", nil)
	return riscv.Emit(prog), nil
}
