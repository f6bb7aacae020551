package riscv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sysyc/internal/koopair"
)

func TestFitsImm12Bounds(t *testing.T) {
	require.True(t, fitsImm12(2047))
	require.True(t, fitsImm12(-2048))
	require.False(t, fitsImm12(2048))
	require.False(t, fitsImm12(-2049))
}

func TestAdjustSPLegalizesLargeOffsets(t *testing.T) {
	e := &emitter{b: &Builder{}}
	e.adjustSP(-16)
	require.Contains(t, e.b.String(), "addi\tsp, sp, -16")

	e2 := &emitter{b: &Builder{}}
	e2.adjustSP(-5000)
	out := e2.b.String()
	require.Contains(t, out, "li\tt6, -5000")
	require.Contains(t, out, "add\tsp, sp, t6")
}

// Testable property 6 (spec.md §8): int main(){return 42;} compiles to a
// .text segment whose main sets a0 = 42 and executes ret, framed by
// balanced addi sp adjustments whose magnitude is a multiple of 16.
func TestEmitReturnConstantSmoke(t *testing.T) {
	add := &koopair.Value{
		Kind: koopair.KindBinOp, Type: koopair.I32(), Op: "add",
		Args: []*koopair.Value{
			{Kind: koopair.KindConst, Type: koopair.I32(), Const: 0},
			{Kind: koopair.KindConst, Type: koopair.I32(), Const: 42},
		},
	}
	ret := &koopair.Value{Kind: koopair.KindRet, Args: []*koopair.Value{add}}
	prog := &koopair.Program{
		Funcs: []*koopair.Function{{
			Name:    "main",
			RetType: koopair.I32(),
			Blocks:  []*koopair.Block{{Label: "entry_0", Insts: []*koopair.Value{add, ret}}},
		}},
	}

	out := Emit(prog)
	require.Contains(t, out, ".globl main")
	require.Contains(t, out, "main:")
	require.Contains(t, out, "li\tt3, 42")
	require.Contains(t, out, "lw\ta0, 0(sp)")
	require.True(t, strings.HasSuffix(strings.TrimRight(out, "\n"), "ret"))

	neg := regexpFindAllAddiSP(out)
	require.Len(t, neg, 2)
	require.Equal(t, -neg[0], neg[1])
	require.Equal(t, 0, neg[1]%16)
}

func TestEmitGlobalsProducesDataSection(t *testing.T) {
	g := &koopair.Value{
		Kind: koopair.KindGlobalAlloc, Name: "x", Type: koopair.I32(),
		Init: &koopair.GlobalInit{Scalar: 7},
	}
	prog := &koopair.Program{Globals: []*koopair.Value{g}}
	out := Emit(prog)
	require.Contains(t, out, ".data")
	require.Contains(t, out, ".globl x")
	require.Contains(t, out, "x:")
	require.Contains(t, out, ".word 7")
	require.Contains(t, out, ".text")
}

func TestEmitZeroInitGlobalArray(t *testing.T) {
	g := &koopair.Value{
		Kind: koopair.KindGlobalAlloc, Name: "z", Type: koopair.ArrayOf(koopair.I32(), 4),
		Init: &koopair.GlobalInit{Zero: true},
	}
	prog := &koopair.Program{Globals: []*koopair.Value{g}}
	out := Emit(prog)
	require.Contains(t, out, ".zero 16")
}

// regexpFindAllAddiSP extracts the immediate from every "addi sp, sp, N"
// line, in order, without pulling in regexp for two lines of text.
func regexpFindAllAddiSP(asm string) []int {
	var out []int
	for _, line := range strings.Split(asm, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "addi\tsp, sp,") {
			continue
		}
		fields := strings.Split(line, ",")
		n := strings.TrimSpace(fields[len(fields)-1])
		v := 0
		neg := strings.HasPrefix(n, "-")
		if neg {
			n = n[1:]
		}
		for _, c := range n {
			v = v*10 + int(c-'0')
		}
		if neg {
			v = -v
		}
		out = append(out, v)
	}
	return out
}
