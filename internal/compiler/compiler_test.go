package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sysyc/internal/compiler"
	"sysyc/internal/config"
)

func TestRunKoopaModeReturnsIRText(t *testing.T) {
	out, err := compiler.Run("int main() { return 42; }", config.ModeKoopa)
	require.NoError(t, err)
	require.Contains(t, out, "fun @main")
	require.NotContains(t, out, ".text", "koopa mode must not run Phase B")
}

func TestRunRISCVModeReturnsAssembly(t *testing.T) {
	out, err := compiler.Run("int main() { return 42; }", config.ModeRISCV)
	require.NoError(t, err)
	require.Contains(t, out, ".globl main")
	require.Contains(t, out, "a0")
	require.True(t, strings.Contains(out, "ret"))
}

func TestRunPerfModeMatchesRISCVMode(t *testing.T) {
	riscv, err := compiler.Run("int main() { return 1; }", config.ModeRISCV)
	require.NoError(t, err)
	perf, err := compiler.Run("int main() { return 1; }", config.ModePerf)
	require.NoError(t, err)
	require.Equal(t, riscv, perf)
}

func TestRunReportsParseError(t *testing.T) {
	_, err := compiler.Run("int main( { return 1; }", config.ModeKoopa)
	require.Error(t, err)
}

func TestRunReportsUndefinedIdentifierAsError(t *testing.T) {
	_, err := compiler.Run("int main() { return undefined_name; }", config.ModeKoopa)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined_name")
}

func TestRunCompilesArraysAndCalls(t *testing.T) {
	src := `
	int sum(int n, int arr[]) {
		int i = 0;
		int total = 0;
		while (i < n) {
			total = total + arr[i];
			i = i + 1;
		}
		return total;
	}
	int data[3] = {1, 2, 3};
	int main() {
		return sum(3, data);
	}
	`
	out, err := compiler.Run(src, config.ModeRISCV)
	require.NoError(t, err)
	require.Contains(t, out, ".globl sum")
	require.Contains(t, out, ".globl main")
	require.Contains(t, out, "call\tsum")
}
