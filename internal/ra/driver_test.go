package ra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDriver_RunCoalescesAndReportsStats(t *testing.T) {
	intClass := testIntClass(3)
	b0 := newMockBlock(0)
	b1 := newMockBlock(1).pred(b0)

	a0 := b0.def(1, intClass).withColor(1)
	r := b1.def(2, intClass).sameAs(1, a0).withColor(2)

	f := newMockFunction(newLinearDom(b0, b1), b0, b1)

	d := NewDriver()
	opts := DefaultOptions()
	opts.Cost = "one"
	opts.Stats = true

	result := d.Run(f, intClass, opts)

	require.False(t, result.Optimal)
	require.Equal(t, a0.Color(), r.Color())
	require.Equal(t, 1, result.Report.Before.UnsatisfiedEdges)
	require.Equal(t, 0, result.Report.After.UnsatisfiedEdges)
}

func TestDriver_RunReusesLivenessAcrossCalls(t *testing.T) {
	intClass := testIntClass(3)
	b0 := newMockBlock(0)
	a0 := b0.def(1, intClass).withColor(1)
	_ = a0
	f := newMockFunction(newLinearDom(b0), b0)

	d := NewDriver()
	opts := DefaultOptions()

	d.Run(f, intClass, opts)
	lv1 := d.ensureLiveness(f)
	d.Run(f, intClass, opts)
	lv2 := d.ensureLiveness(f)

	require.Same(t, lv1, lv2, "liveness is cached until Invalidate")

	d.Invalidate(f)
	lv3 := d.ensureLiveness(f)
	require.NotSame(t, lv1, lv3)
}

func TestDriver_RunProducesDumpsWhenRequested(t *testing.T) {
	intClass := testIntClass(2)
	b0 := newMockBlock(0)
	a := b0.def(1, intClass)
	f := newMockFunction(newLinearDom(b0), b0)

	d := NewDriver()
	opts := DefaultOptions()
	opts.Dump = DumpBefore | DumpAfter
	_ = a

	result := d.Run(f, intClass, opts)
	require.NotEmpty(t, result.BeforeDump)
	require.NotEmpty(t, result.AfterDump)
}

func TestDriver_RunWithNoneAlgorithmLeavesColorsUntouched(t *testing.T) {
	intClass := testIntClass(3)
	b0 := newMockBlock(0)
	b1 := newMockBlock(1).pred(b0)

	a0 := b0.def(1, intClass).withColor(1)
	r := b1.def(2, intClass).sameAs(1, a0).withColor(2)
	f := newMockFunction(newLinearDom(b0, b1), b0, b1)

	d := NewDriver()
	opts := DefaultOptions()
	opts.Algo = "none"

	result := d.Run(f, intClass, opts)
	require.False(t, result.Optimal)
	require.Equal(t, RealReg(2), r.Color(), "the none algorithm never recolors anything")
}
