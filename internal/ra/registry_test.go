package ra

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/lu-zero/libfirm-sub001/internal/raapi"
)

func TestRegistry_BuiltinsRegistered(t *testing.T) {
	heur1, ok := LookupAlgorithm("heur1")
	require.True(t, ok)
	require.True(t, heur1.CanImproveExisting)

	none, ok := LookupAlgorithm("none")
	require.True(t, ok)
	require.False(t, none.CanImproveExisting)
}

func TestRegistry_LookupUnknownFails(t *testing.T) {
	_, ok := LookupAlgorithm("does-not-exist")
	require.False(t, ok)
}

func TestRegistry_MustLookupPanicsOnUnknown(t *testing.T) {
	require.Panics(t, func() { MustLookup("does-not-exist") })
}

func TestRegistry_RegisterAlgorithmOverwrites(t *testing.T) {
	calls := 0
	RegisterAlgorithm(Algorithm{
		Name: "test-overwrite",
		Run: func(Function, *Liveness, []*OU, *RegClass, pinnedSet, *raapi.Pool[qnode]) SolveResult {
			calls++
			return SolveResult{}
		},
	})
	defer func() { delete(registry, "test-overwrite") }()

	algo := MustLookup("test-overwrite")
	algo.Run(nil, nil, nil, nil, nil, nil)
	require.Equal(t, 1, calls)

	RegisterAlgorithm(Algorithm{
		Name: "test-overwrite",
		Run: func(Function, *Liveness, []*OU, *RegClass, pinnedSet, *raapi.Pool[qnode]) SolveResult {
			calls += 10
			return SolveResult{}
		},
	})
	algo2 := MustLookup("test-overwrite")
	algo2.Run(nil, nil, nil, nil, nil, nil)
	require.Equal(t, 11, calls)
}

func TestRegistry_NoneAlgorithmIsInert(t *testing.T) {
	none := MustLookup("none")
	result := none.Run(nil, nil, nil, nil, nil, nil)
	require.False(t, result.Optimal)
}
