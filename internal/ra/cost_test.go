package ra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCostModel_CostOneAlwaysOne(t *testing.T) {
	intClass := testIntClass(2)
	b0 := newMockBlock(0).withFreq(500)
	a := b0.def(1, intClass)
	r := b0.def(2, intClass).sameAs(1, a)
	f := newMockFunction(newLinearDom(b0), b0)

	c := NewCostModel(CostOne, f)
	require.Equal(t, 1, c.Cost(r, -1))
}

func TestCostModel_CostFreqUsesBlockFrequency(t *testing.T) {
	intClass := testIntClass(2)
	b0 := newMockBlock(0).withFreq(37)
	a := b0.def(1, intClass)
	r := b0.def(2, intClass).sameAs(1, a)
	f := newMockFunction(newLinearDom(b0), b0)

	c := NewCostModel(CostFreq, f)
	require.Equal(t, 37, c.Cost(r, -1))
}

func TestCostModel_CostFreqFloorsAtOne(t *testing.T) {
	intClass := testIntClass(2)
	b0 := newMockBlock(0).withFreq(0)
	a := b0.def(1, intClass)
	r := b0.def(2, intClass).sameAs(1, a)
	f := newMockFunction(newLinearDom(b0), b0)

	c := NewCostModel(CostFreq, f)
	require.Equal(t, 1, c.Cost(r, -1))
}

func TestCostModel_CostLoopDepthIsOnePlusDepthSquared(t *testing.T) {
	intClass := testIntClass(2)
	b0 := newMockBlock(0).withDepth(3)
	a := b0.def(1, intClass)
	r := b0.def(2, intClass).sameAs(1, a)
	f := newMockFunction(newLinearDom(b0), b0)

	c := NewCostModel(CostLoopDepth, f)
	require.Equal(t, 1+3*3, c.Cost(r, -1))
}

func TestCostModel_FrequenciesCachedUntilInvalidate(t *testing.T) {
	intClass := testIntClass(2)
	b0 := newMockBlock(0).withFreq(5)
	a := b0.def(1, intClass)
	r := b0.def(2, intClass).sameAs(1, a)
	f := newMockFunction(newLinearDom(b0), b0)

	c := NewCostModel(CostFreq, f)
	require.Equal(t, 5, c.Cost(r, -1))

	b0.freq = 9 // mutate behind the model's back
	require.Equal(t, 5, c.Cost(r, -1), "cached frequency must not change until Invalidate")

	c.Invalidate()
	require.Equal(t, 9, c.Cost(r, -1))
}

func TestCostModel_BlockOfCopySplitsPhiOperandsByPredecessor(t *testing.T) {
	intClass := testIntClass(2)
	b0 := newMockBlock(0).withFreq(3)
	b1 := newMockBlock(1).withFreq(11)
	b2 := newMockBlock(2).pred(b0).pred(b1)

	a0 := b0.def(1, intClass)
	a1 := b1.def(2, intClass)
	phi := b2.def(3, intClass)
	phi.phi(a0, a1)

	dom := &mockDom{idom: map[int]int{0: 0, 1: 1, 2: 0}, children: map[int][]Block{0: {b2}}}
	f := newMockFunction(dom, b0, b1, b2)

	c := NewCostModel(CostFreq, f)
	require.Equal(t, 3, c.Cost(phi, 0), "operand 0 is split on predecessor b0")
	require.Equal(t, 11, c.Cost(phi, 1), "operand 1 is split on predecessor b1")
}

func TestCostModel_BlockOfCopyFallsBackToRootBlockForNonPhi(t *testing.T) {
	intClass := testIntClass(2)
	b0 := newMockBlock(0).withFreq(4)
	a := b0.def(1, intClass)
	r := b0.def(2, intClass).sameAs(1, a)
	f := newMockFunction(newLinearDom(b0), b0)

	c := NewCostModel(CostFreq, f)
	require.Equal(t, 4, c.Cost(r, -1))
}
