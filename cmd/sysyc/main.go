// Command sysyc is the compiler driver (spec.md §6's CLI surface): read a
// SysY source file, run it through internal/compiler, and write the
// result to -o or standard output.
//
// The teacher's main.run reads opt.Out, opens it (or falls back to
// stdout), and reports any pipeline error with one line before
// os.Exit(1); this entry point keeps that shape on top of a cobra root
// command instead of the teacher's hand-rolled util.ParseArgs.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sysyc/internal/compiler"
	"sysyc/internal/config"
	"sysyc/internal/diag"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var koopaFlag, riscvFlag, perfFlag bool
	var output string
	var verbose bool

	cmd := &cobra.Command{
		Use:          "sysyc <input>",
		Short:        "Compile a SysY source file to Koopa IR text or RISC-V assembly",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			if verbose {
				diag.Log.SetLevel(logrus.DebugLevel)
			}
			mode, err := config.ParseMode(koopaFlag, riscvFlag, perfFlag)
			if err != nil {
				return err
			}
			return runCompile(config.Options{
				Mode:    mode,
				Input:   args[0],
				Output:  output,
				Verbose: verbose,
			})
		},
	}

	cmd.Flags().BoolVar(&koopaFlag, "koopa", false, "emit Koopa IR text")
	cmd.Flags().BoolVar(&riscvFlag, "riscv", false, "emit RISC-V assembly")
	cmd.Flags().BoolVar(&perfFlag, "perf", false, "emit RISC-V assembly (performance-mode output)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: standard output)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log each pipeline stage")

	return cmd
}

// runCompile reads opt.Input, runs the pipeline, and writes the result to
// opt.Output (or stdout). Any internal invariant violation surfaces as a
// recovered panic inside compiler.Run; this is the only other place the
// driver itself can fail, besides I/O, matching spec.md §7's "no recovery
// beyond a line on standard error."
func runCompile(opt config.Options) error {
	src, err := os.ReadFile(opt.Input)
	if err != nil {
		return fmt.Errorf("sysyc: reading %s: %w", opt.Input, err)
	}

	diag.Stage("compile", logrus.Fields{"mode": opt.Mode.String(), "input": opt.Input})
	out, err := compiler.Run(string(src), opt.Mode)
	if err != nil {
		return err
	}

	if opt.Output == "" {
		_, err = fmt.Println(out)
		return err
	}
	return os.WriteFile(opt.Output, []byte(out), 0o644)
}
