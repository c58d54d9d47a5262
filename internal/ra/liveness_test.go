package ra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiveness_TwoAddressOperandDoesNotInterfereWithItsConsumer(t *testing.T) {
	intClass := testIntClass(4)

	b0 := newMockBlock(0)
	b1 := newMockBlock(1).pred(b0)

	a0 := b0.def(1, intClass)
	r := b1.def(2, intClass).sameAs(1, a0)
	b1.def(3, intClass).use(r).ignore()

	f := newMockFunction(newLinearDom(b0, b1), b0, b1)
	lv := NewLiveness(f)
	lv.Compute()

	require.False(t, lv.Interfere(a0, r), "two-address operand must not interfere with the value it defines")
	require.True(t, lv.Agree(a0, r), "Interfere and LvChk must agree")
}

func TestLiveness_ValueUsedAfterItsTwoAddressConsumerInterferes(t *testing.T) {
	intClass := testIntClass(4)

	b0 := newMockBlock(0)
	b1 := newMockBlock(1).pred(b0)

	a := b0.def(1, intClass)
	bVal := b1.def(2, intClass).use(a)
	c := b1.def(3, intClass).use(a, bVal)
	b2 := newMockBlock(2).pred(b1)
	b2.def(4, intClass).use(c).ignore()

	f := newMockFunction(newLinearDom(b0, b1, b2), b0, b1, b2)
	lv := NewLiveness(f)
	lv.Compute()

	require.True(t, lv.Interfere(a, bVal), "a is referenced again by c, after bVal's definition point")
	require.False(t, lv.Interfere(bVal, c), "bVal is consumed exactly at c's definition, its own reuse opportunity")
	require.True(t, lv.Agree(a, bVal))
	require.True(t, lv.Agree(bVal, c))
}

func TestLiveness_SameValueNeverInterferesWithItself(t *testing.T) {
	intClass := testIntClass(4)
	b0 := newMockBlock(0)
	a := b0.def(1, intClass)
	f := newMockFunction(newLinearDom(b0), b0)
	lv := NewLiveness(f)
	lv.Compute()

	require.False(t, lv.Interfere(a, a))
}

func TestLiveness_PhiSelfArgumentAcrossLoopBackEdge(t *testing.T) {
	intClass := testIntClass(4)

	b0 := newMockBlock(0)
	b1 := newMockBlock(1)
	b1.pred(b0).pred(b1)
	b2 := newMockBlock(2).pred(b1)

	a0 := b0.def(1, intClass)
	r := b1.def(2, intClass)
	r.phi(a0, r)
	b2.def(3, intClass).use(r).ignore()

	dom := &mockDom{
		idom:     map[int]int{0: 0, 1: 0, 2: 1},
		children: map[int][]Block{0: {b1}, 1: {b2}},
	}
	f := newMockFunction(dom, b0, b1, b2)
	lv := NewLiveness(f)

	require.NotPanics(t, func() { lv.Compute() }, "a self-referencing phi argument must not recurse forever")
	require.True(t, lv.IsLiveEnd(b0, a0), "a0 is consumed on the b0->b1 edge, so its range ends at b0, not b1's entry")
	require.False(t, lv.IsLiveIn(b1, a0), "a phi operand's liveness belongs to the predecessor edge, not the phi's own block")
}

func TestLiveness_UnrelatedBlocksNeverDominatingDoNotInterfere(t *testing.T) {
	intClass := testIntClass(4)

	b0 := newMockBlock(0)
	b1 := newMockBlock(1).pred(b0)
	b2 := newMockBlock(2).pred(b0)

	x := b1.def(1, intClass)
	y := b2.def(2, intClass)

	dom := &mockDom{
		idom:     map[int]int{0: 0, 1: 0, 2: 0},
		children: map[int][]Block{0: {b1, b2}},
	}
	f := newMockFunction(dom, b0, b1, b2)
	lv := NewLiveness(f)
	lv.Compute()

	require.False(t, lv.Interfere(x, y), "neither block dominates the other, so their ranges cannot overlap")
}

func TestLiveness_UpdateReflectsNewUseList(t *testing.T) {
	intClass := testIntClass(4)

	b0 := newMockBlock(0)
	b1 := newMockBlock(1).pred(b0)

	a := b0.def(1, intClass)
	b0.def(2, intClass).use(a) // same-block use only, does not escape b0

	f := newMockFunction(newLinearDom(b0, b1), b0, b1)
	lv := NewLiveness(f)
	lv.Compute()
	require.False(t, lv.IsLiveOut(b0, a))

	extra := b1.def(3, intClass).use(a)
	a.uses = append(a.uses, Use{User: extra, Pos: 0})
	lv.Update(a)

	require.True(t, lv.IsLiveOut(b0, a))
	require.True(t, lv.IsLiveIn(b1, a))
}
