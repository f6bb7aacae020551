package lower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sysyc/internal/koopair"
	"sysyc/internal/parser"
)

func mustLower(t *testing.T, src string) string {
	t.Helper()
	cu, err := parser.Parse(src)
	require.NoError(t, err)
	return Lower(cu)
}

// Scenario 1 (spec.md §8): a flat arithmetic expression lowers to a chain
// of temporaries with the right operand of each binary op emitted first.
func TestLowerArithmeticExpression(t *testing.T) {
	ir := mustLower(t, "int main() { return 1 + 2 * 3; }")

	require.Contains(t, ir, "fun @main")
	require.Contains(t, ir, "entry_0:")
	require.Equal(t, 3, strings.Count(ir, "= add 0,"), "each of the three integer literals gets its own move")
	require.Contains(t, ir, "mul")
	require.Contains(t, ir, "ret %4")
}

// Scenario 2: an if/else assigning to a local produces then/else/end blocks
// and a final load before the return.
func TestLowerIfElse(t *testing.T) {
	ir := mustLower(t, "int main() { int x = 0; if (x == 0) x = 1; else x = 2; return x; }")

	require.Contains(t, ir, "alloc i32")
	require.Contains(t, ir, "then_0:")
	require.Contains(t, ir, "else_0:")
	require.Contains(t, ir, "end_0:")
	require.Contains(t, ir, "br ")
	require.Contains(t, ir, "eq")
	require.True(t, strings.Contains(ir, "load @x_1") || strings.Contains(ir, "load @x_0"))
}

// Scenario 3: break inside a while suppresses the rest of its own block and
// targets while_end directly.
func TestLowerWhileBreak(t *testing.T) {
	ir := mustLower(t, "int main() { int i = 0; while (i < 10) { if (i == 5) break; i = i + 1; } return i; }")

	require.Contains(t, ir, "while_entry_0:")
	require.Contains(t, ir, "while_body_0:")
	require.Contains(t, ir, "while_end_0:")
	require.Contains(t, ir, "jump %while_end_0")
}

// Scenario 4: a 2D global array indexed twice chains two getelemptrs before
// the final load.
func TestLowerGlobalArrayIndex(t *testing.T) {
	ir := mustLower(t, "int a[2][3] = {{1,2,3},{4,5,6}}; int main() { return a[1][2]; }")

	require.Contains(t, ir, "global @a = alloc [[i32, 3], 2], {{1, 2, 3}, {4, 5, 6}}")
	require.Equal(t, 2, strings.Count(ir, "getelemptr"))
	require.Contains(t, ir, "load")
}

// Scenario 5: logical && allocates a result slot, normalizes the left
// operand, and only evaluates the right operand on the taken branch.
func TestLowerShortCircuitAnd(t *testing.T) {
	ir := mustLower(t, "int f(int x, int y) { return x && y; }")

	require.Contains(t, ir, "@result_0 = alloc i32")
	require.Contains(t, ir, "logic_then_0:")
	require.Contains(t, ir, "logic_end_0:")
	require.Equal(t, 2, strings.Count(ir, "= ne "))
	require.Contains(t, ir, "load @result_0")
}

// Regression: an if and a short-circuit && in the same function used to
// both derive then_0/end_0 labels from independent counters, so the
// second definition silently overwrote the first when koopair parsed the
// IR. The short-circuit labels now carry a distinct logic_ prefix, so
// both block pairs survive.
func TestLowerIfAndShortCircuitDoNotCollide(t *testing.T) {
	ir := mustLower(t, "int f(int x, int y) { if (x && y) return 1; return 0; }")

	require.Contains(t, ir, "then_0:")
	require.Contains(t, ir, "end_0:")
	require.Contains(t, ir, "logic_then_0:")
	require.Contains(t, ir, "logic_end_0:")

	prog, err := koopair.Parse(ir)
	require.NoError(t, err)
	require.Len(t, prog.Funcs[0].Blocks, 5, "entry, logic_then, logic_end, then and end must each survive as distinct blocks")
}

// Boundary behavior: a function falling off the end without a return gets
// a synthesized ret 0 (int) or bare ret (void).
func TestImplicitReturnSynthesized(t *testing.T) {
	ir := mustLower(t, "int f() { int x = 1; } void g() { int x = 1; }")

	require.Contains(t, ir, "ret 0")
	require.Contains(t, ir, "\tret\n")
}

// Testable property 2: push_scope/pop_scope stay balanced, so deeply nested
// control flow (function scope, while body, if/else arms, a block-local
// declaration) never pops past empty — that would panic inside symtab,
// surfacing here as a panicking Lower call.
func TestScopesBalanceAcrossNestedControlFlow(t *testing.T) {
	src := `int main() {
		int i = 0;
		while (i < 3) {
			if (i == 1) { int tmp = i; i = tmp + 1; } else { i = i + 1; }
		}
		return i;
	}`
	cu, err := parser.Parse(src)
	require.NoError(t, err)
	require.NotPanics(t, func() { Lower(cu) })
}
