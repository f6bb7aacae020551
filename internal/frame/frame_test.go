package frame_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sysyc/internal/frame"
	"sysyc/internal/koopair"
)

func TestPlanCountsValueProducingInstructions(t *testing.T) {
	alloc := &koopair.Value{Kind: koopair.KindAlloc, Type: koopair.I32()}
	add := &koopair.Value{Kind: koopair.KindBinOp, Type: koopair.I32(), Op: "add"}
	store := &koopair.Value{Kind: koopair.KindStore}
	ret := &koopair.Value{Kind: koopair.KindRet, Args: []*koopair.Value{add}}

	f := &koopair.Function{
		Name:    "f",
		RetType: koopair.I32(),
		Blocks: []*koopair.Block{
			{Label: "entry_0", Insts: []*koopair.Value{alloc, add, store, ret}},
		},
	}

	info := frame.Plan(f)
	require.Equal(t, 2, info.SNum, "alloc and add each need a slot; store and ret do not")
	require.Equal(t, 0, info.RANum)
	require.False(t, info.RACall)
	require.Equal(t, 0, info.StartSlot)
	require.Equal(t, 16, info.TotalBytes, "round_up_16(2*4) == 16")
}

func TestPlanChargesArrayAllocBySize(t *testing.T) {
	arr := &koopair.Value{Kind: koopair.KindAlloc, Type: koopair.ArrayOf(koopair.I32(), 10)}
	f := &koopair.Function{
		Name: "g",
		Blocks: []*koopair.Block{
			{Label: "entry_0", Insts: []*koopair.Value{arr, &koopair.Value{Kind: koopair.KindRet}}},
		},
	}

	info := frame.Plan(f)
	require.Equal(t, 10, info.SNum)
	require.Equal(t, 48, info.TotalBytes)
}

func TestPlanReservesOutgoingArgSpillArea(t *testing.T) {
	args := make([]*koopair.Value, 10)
	for i := range args {
		args[i] = &koopair.Value{Kind: koopair.KindConst, Type: koopair.I32(), Const: i}
	}
	call := &koopair.Value{Kind: koopair.KindCall, Name: "callee", Type: koopair.Void(), Args: args}
	f := &koopair.Function{
		Name: "h",
		Blocks: []*koopair.Block{
			{Label: "entry_0", Insts: []*koopair.Value{call, &koopair.Value{Kind: koopair.KindRet}}},
		},
	}

	info := frame.Plan(f)
	require.True(t, info.RACall)
	require.Equal(t, 2, info.RANum, "10 arguments spill the 2 beyond a0-a7")
	require.Equal(t, info.RANum*4, info.StartSlot)
	// RANum(2) + RACall(1) words, rounded up to 16.
	require.Equal(t, 16, info.TotalBytes)
}

func TestPlanEmptyFunctionNeedsNoFrame(t *testing.T) {
	f := &koopair.Function{
		Name:   "empty",
		Blocks: []*koopair.Block{{Label: "entry_0", Insts: []*koopair.Value{{Kind: koopair.KindRet}}}},
	}
	info := frame.Plan(f)
	require.Equal(t, 0, info.TotalBytes)
}
