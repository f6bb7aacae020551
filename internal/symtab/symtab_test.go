package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalLookupFallsBackWhenNoScopeHits(t *testing.T) {
	s := New()
	s.InsertGlobal("x", Symbol{Tag: Var, IsGlobal: true})

	sym, scopeNum, ok := s.Lookup("x")
	require.True(t, ok)
	require.Equal(t, -1, scopeNum)
	require.Equal(t, Var, sym.Tag)
}

func TestInnerScopeShadowsOuterAndGlobal(t *testing.T) {
	s := New()
	s.InsertGlobal("x", Symbol{Tag: Var, Value: 0, IsGlobal: true})

	outer := s.PushScope()
	s.Insert("x", Symbol{Tag: Const, Value: 1})

	inner := s.PushScope()
	s.Insert("x", Symbol{Tag: Const, Value: 2})

	sym, scopeNum, ok := s.Lookup("x")
	require.True(t, ok)
	require.Equal(t, inner, scopeNum)
	require.Equal(t, 2, sym.Value)

	s.PopScope()
	sym, scopeNum, ok = s.Lookup("x")
	require.True(t, ok)
	require.Equal(t, outer, scopeNum)
	require.Equal(t, 1, sym.Value)

	s.PopScope()
	sym, scopeNum, ok = s.Lookup("x")
	require.True(t, ok)
	require.Equal(t, -1, scopeNum)
	require.Equal(t, 0, sym.Value)
}

func TestLookupMissReturnsFalse(t *testing.T) {
	s := New()
	_, _, ok := s.Lookup("nope")
	require.False(t, ok)

	_, ok = s.LookupGlobal("nope")
	require.False(t, ok)
}

func TestPopScopeOnEmptyStackPanics(t *testing.T) {
	s := New()
	require.Panics(t, func() { s.PopScope() })
}

func TestScopeNumbersAreMonotonicAndUnique(t *testing.T) {
	s := New()
	a := s.PushScope()
	s.PopScope()
	b := s.PushScope()
	require.NotEqual(t, a, b)
	require.Equal(t, a+1, b)
}

func TestScopeSuffix(t *testing.T) {
	require.Equal(t, "", ScopeSuffix(-1))
	require.Equal(t, "_0", ScopeSuffix(0))
	require.Equal(t, "_3", ScopeSuffix(3))
}

func TestDepthTracksOpenScopes(t *testing.T) {
	s := New()
	require.Equal(t, 0, s.Depth())
	s.PushScope()
	s.PushScope()
	require.Equal(t, 2, s.Depth())
	s.PopScope()
	require.Equal(t, 1, s.Depth())
}
