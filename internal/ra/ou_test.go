package ra

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/lu-zero/libfirm-sub001/internal/raapi"
)

func TestIsRootEligible(t *testing.T) {
	intClass := testIntClass(3)
	b0 := newMockBlock(0)

	phi := b0.def(1, intClass)
	phi.isPhi = true
	require.True(t, isRootEligible(phi))

	perm := b0.def(2, intClass)
	perm.isPerm = true
	require.True(t, isRootEligible(perm))

	same := b0.def(3, intClass).sameAs(1, phi)
	require.True(t, isRootEligible(same))

	plain := b0.def(4, intClass)
	require.False(t, isRootEligible(plain), "a plain value with no coalescing hint is not an OU root")

	ignored := b0.def(5, intClass)
	ignored.isPhi = true
	ignored.ignore()
	require.False(t, isRootEligible(ignored), "Ignore overrides every other eligibility signal")
}

func TestBuildOUs_PhiRootCollectsNonInterferingOperandsAndSkipsSelfArg(t *testing.T) {
	intClass := testIntClass(4)

	b0 := newMockBlock(0).withFreq(2)
	b1 := newMockBlock(1).withFreq(8)
	b1.pred(b0).pred(b1)
	b2 := newMockBlock(2).pred(b1)

	a0 := b0.def(1, intClass)
	r := b1.def(2, intClass)
	r.phi(a0, r)
	b2.def(3, intClass).use(r).ignore()

	dom := &mockDom{idom: map[int]int{0: 0, 1: 0, 2: 1}, children: map[int][]Block{0: {b1}, 1: {b2}}}
	f := newMockFunction(dom, b0, b1, b2)

	lv := NewLiveness(f)
	lv.Compute()
	cost := NewCostModel(CostOne, f)
	pool := raapi.NewPool[OU]()
	units := BuildOUs(f, lv, cost, OUBuildOptions{}, &pool)

	require.Len(t, units, 1)
	u := units[0]
	require.Equal(t, r.ID(), u.Nodes[0].ID())
	require.Len(t, u.Nodes, 2, "the self-argument must be dropped, only a0 remains")
	require.Equal(t, a0.ID(), u.Nodes[1].ID())
}

func TestBuildOUs_ShouldBeSameRootHonorsMask(t *testing.T) {
	intClass := testIntClass(4)
	b0 := newMockBlock(0).withFreq(1)

	a := b0.def(1, intClass)
	b := b0.def(2, intClass)
	// Only operand 0 (a) is marked should-be-same; operand 1 (b) is not,
	// even though both are passed as operands.
	r := b0.def(3, intClass)
	r.constraint.Flags |= ShouldBeSame
	r.constraint.SameMask = 1
	r.ops = []Value{a, b}

	f := newMockFunction(newLinearDom(b0), b0)
	lv := NewLiveness(f)
	lv.Compute()
	cost := NewCostModel(CostOne, f)
	pool := raapi.NewPool[OU]()
	units := BuildOUs(f, lv, cost, OUBuildOptions{}, &pool)

	require.Len(t, units, 1)
	u := units[0]
	require.Len(t, u.Nodes, 2)
	require.Equal(t, a.ID(), u.Nodes[1].ID())
}

func TestBuildOUs_PermProjectionPanicsOnInterferingSource(t *testing.T) {
	intClass := testIntClass(4)
	b0 := newMockBlock(0)
	b1 := newMockBlock(1).pred(b0)

	s := b0.def(1, intClass)
	b0.def(2, intClass).use(s) // a local use in b0, before the perm projection
	perm := b1.def(3, intClass)
	perm.perm(s)
	b1.def(4, intClass).use(s).ignore() // after perm, keeps s alive past its definition point

	f := newMockFunction(newLinearDom(b0, b1), b0, b1)
	lv := NewLiveness(f)
	lv.Compute()
	cost := NewCostModel(CostOne, f)
	pool := raapi.NewPool[OU]()

	require.Panics(t, func() { BuildOUs(f, lv, cost, OUBuildOptions{}, &pool) })
}

func TestBuildOUs_WidthGreaterThanOnePanics(t *testing.T) {
	intClass := testIntClass(4)
	b0 := newMockBlock(0)
	a := b0.def(1, intClass)
	r := b0.def(2, intClass).sameAs(1, a)
	r.constraint.Width = 2

	f := newMockFunction(newLinearDom(b0), b0)
	lv := NewLiveness(f)
	lv.Compute()
	cost := NewCostModel(CostOne, f)
	pool := raapi.NewPool[OU]()

	require.Panics(t, func() { BuildOUs(f, lv, cost, OUBuildOptions{}, &pool) })
}

func TestBuildOUs_SortedByDescendingSortKey(t *testing.T) {
	intClass := testIntClass(4)
	b0 := newMockBlock(0).withFreq(1)
	b1 := newMockBlock(1).withFreq(9).pred(b0)

	aLow := b0.def(1, intClass)
	rLow := b0.def(2, intClass).sameAs(1, aLow)

	aHigh := b1.def(3, intClass)
	rHigh := b1.def(4, intClass).sameAs(1, aHigh)

	f := newMockFunction(newLinearDom(b0, b1), b0, b1)
	lv := NewLiveness(f)
	lv.Compute()
	cost := NewCostModel(CostFreq, f)
	pool := raapi.NewPool[OU]()
	units := BuildOUs(f, lv, cost, OUBuildOptions{}, &pool)

	require.Len(t, units, 2)
	require.Equal(t, rHigh.ID(), units[0].Nodes[0].ID(), "the unit from the higher-frequency block sorts first")
	for i := 1; i < len(units); i++ {
		require.GreaterOrEqual(t, units[i-1].SortKey, units[i].SortKey)
	}
}

func TestMaxWeightIndependentSet_ExactForSmallConflictSets(t *testing.T) {
	// Path graph 0-1-2 (0 conflicts with 1, 1 conflicts with 2, 0 and 2
	// do not conflict). Weights favor picking {0,2} over {1} alone.
	weight := []int{0: 5, 1: 1, 2: 5}
	conflict := func(i, j int) bool {
		return (i == 0 && j == 1) || (i == 1 && j == 0) || (i == 1 && j == 2) || (i == 2 && j == 1)
	}
	chosen, total := maxWeightIndependentSet([]int{0, 1, 2}, weight, conflict)
	require.Equal(t, 10, total)
	require.ElementsMatch(t, []int{0, 2}, chosen)
}

func TestMaxWeightIndependentSet_SafeMembersAlwaysIncluded(t *testing.T) {
	weight := []int{0: 3, 1: 4, 2: 2}
	// Only 1 and 2 conflict; 0 is safe (conflicts with nobody).
	conflict := func(i, j int) bool {
		return (i == 1 && j == 2) || (i == 2 && j == 1)
	}
	chosen, total := maxWeightIndependentSet([]int{0, 1, 2}, weight, conflict)
	require.Contains(t, chosen, 0)
	require.Equal(t, 3+4, total)
}

func TestMaxWeightIndependentSet_EmptyInput(t *testing.T) {
	chosen, total := maxWeightIndependentSet(nil, nil, func(int, int) bool { return false })
	require.Nil(t, chosen)
	require.Equal(t, 0, total)
}

func TestMaxWeightIndependentSet_GreedyFallbackAboveHeuristicTrigger(t *testing.T) {
	// MISHeurTrigger+1 members, all mutually unsafe (each conflicts with
	// its neighbor in index order), forcing the greedy index-order path.
	n := MISHeurTrigger + 1
	idx := make([]int, n)
	weight := make([]int, n)
	for i := range idx {
		idx[i] = i
		weight[i] = i + 1
	}
	conflict := func(i, j int) bool { return i+1 == j || j+1 == i }

	chosen, total := maxWeightIndependentSet(idx, weight, conflict)
	require.NotEmpty(t, chosen)
	// Greedy insertion in index order always keeps index 0 (its first
	// candidate, nothing chosen yet to conflict with).
	require.Contains(t, chosen, 0)
	require.Positive(t, total)
	for i, ci := range chosen {
		for _, cj := range chosen[i+1:] {
			require.False(t, conflict(ci, cj), "greedy result must itself be conflict-free")
		}
	}
}
