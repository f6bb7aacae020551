// Package config holds the compiler driver's options, populated by
// cmd/sysyc's cobra flag bindings instead of the teacher's hand-rolled
// util.ParseArgs (spec.md §6's CLI surface, generalized per SPEC_FULL.md's
// AMBIENT STACK section).
package config

import "fmt"

// Mode selects which of the two phases the driver stops after (spec.md
// §6): Koopa emits Phase A's IR text verbatim, RISCV and Perf both run
// Phase B and emit assembly. Perf carries no additional behavior spec.md
// defines beyond its own CLI flag name, so it is treated identically to
// RISCV (see DESIGN.md).
type Mode int

const (
	ModeKoopa Mode = iota
	ModeRISCV
	ModePerf
)

func (m Mode) String() string {
	switch m {
	case ModeKoopa:
		return "-koopa"
	case ModeRISCV:
		return "-riscv"
	case ModePerf:
		return "-perf"
	default:
		return "?"
	}
}

// Options mirrors the teacher's util.Options: every field the driver needs,
// gathered in one place rather than threaded as loose arguments.
type Options struct {
	Mode    Mode
	Input   string
	Output  string
	Verbose bool
}

// ParseMode maps the three mutually exclusive cobra bool flags onto a
// single Mode, rejecting the "none" and "more than one" cases the CLI layer
// can't express as a single enum flag.
func ParseMode(koopa, riscv, perf bool) (Mode, error) {
	n := 0
	m := ModeKoopa
	if koopa {
		n++
		m = ModeKoopa
	}
	if riscv {
		n++
		m = ModeRISCV
	}
	if perf {
		n++
		m = ModePerf
	}
	switch n {
	case 0:
		return 0, fmt.Errorf("config: exactly one of --koopa, --riscv, --perf is required")
	case 1:
		return m, nil
	default:
		return 0, fmt.Errorf("config: --koopa, --riscv, --perf are mutually exclusive")
	}
}
