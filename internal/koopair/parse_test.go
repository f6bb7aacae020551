package koopair_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sysyc/internal/koopair"
	"sysyc/internal/lower"
	"sysyc/internal/parser"
)

// lowerSrc runs the full Phase A pipeline (parse + lower) and returns the
// Koopa IR text, the input for internal/koopair.Parse under test.
func lowerSrc(t *testing.T, src string) string {
	t.Helper()
	cu, err := parser.Parse(src)
	require.NoError(t, err)
	return lower.Lower(cu)
}

// Round-trip property (spec.md §8): IR text Phase A emits is accepted
// without error by the external IR builder, and the graph it returns
// satisfies Phase B's structural expectations.
func TestParseAcceptsPhaseAOutput(t *testing.T) {
	ir := lowerSrc(t, "int main() { return 1 + 2 * 3; }")

	prog, err := koopair.Parse(ir)
	require.NoError(t, err)
	require.Len(t, prog.Funcs, 1)

	f := prog.Funcs[0]
	require.Equal(t, "main", f.Name)
	require.Equal(t, koopair.Int32, f.RetType.Kind)
	require.Len(t, f.Blocks, 1)

	ret := f.Blocks[0].Insts[len(f.Blocks[0].Insts)-1]
	require.Equal(t, koopair.KindRet, ret.Kind)
	require.Len(t, ret.Args, 1)
	require.Equal(t, koopair.KindBinOp, ret.Args[0].Kind)
}

func TestParseGlobalArrayInitializer(t *testing.T) {
	ir := lowerSrc(t, "int a[2][3] = {{1,2,3},{4,5,6}}; int main() { return a[1][2]; }")

	prog, err := koopair.Parse(ir)
	require.NoError(t, err)
	require.Len(t, prog.Globals, 1)

	g := prog.Globals[0]
	require.Equal(t, "a", g.Name)
	require.Equal(t, koopair.Array, g.Type.Kind)
	require.Equal(t, 2, g.Type.Len)
	require.Equal(t, koopair.Array, g.Type.Elem.Kind)
	require.Equal(t, 3, g.Type.Elem.Len)
	require.False(t, g.Init.Zero)
	require.Len(t, g.Init.Items, 2)
	require.Len(t, g.Init.Items[0].Items, 3)
	require.Equal(t, 3, g.Init.Items[0].Items[2].Scalar)
	require.Equal(t, 6, g.Init.Items[1].Items[2].Scalar)

	main := prog.Funcs[0]
	var getelemptrCount int
	for _, inst := range main.Blocks[0].Insts {
		if inst.Kind == koopair.KindGetElemPtr {
			getelemptrCount++
		}
	}
	require.Equal(t, 2, getelemptrCount)
}

func TestParseZeroInitGlobal(t *testing.T) {
	ir := lowerSrc(t, "int z[4] = {0, 0, 0, 0}; int main() { return z[0]; }")

	prog, err := koopair.Parse(ir)
	require.NoError(t, err)
	require.True(t, prog.Globals[0].Init.Zero, "an all-zero aggregate elaborates to the zeroinit form")
}

// Forward/mutually recursive calls must resolve regardless of textual
// order (koopair's signature pre-pass).
func TestParseResolvesForwardCall(t *testing.T) {
	ir := lowerSrc(t, "int main() { return helper(); } int helper() { return 1; }")

	prog, err := koopair.Parse(ir)
	require.NoError(t, err)
	require.Len(t, prog.Funcs, 2)
}

func TestParseRejectsUndefinedTemporary(t *testing.T) {
	_, err := koopair.Parse("fun @main(): i32 {\n%entry:\n\t%0 = load %5\n\tret %0\n}\n")
	require.Error(t, err)
}
