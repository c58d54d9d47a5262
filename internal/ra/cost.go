package ra

// CostFunc selects one of the three copy-cost functions of spec.md §4.C.
type CostFunc int

const (
	// CostFreq weighs a copy by the execution frequency of the block it
	// would execute in.
	CostFreq CostFunc = iota
	// CostLoopDepth weighs a copy by 1 + the square of its loop nesting
	// depth, ignoring actual block frequencies.
	CostLoopDepth
	// CostOne assigns every copy weight 1, minimizing copy count rather
	// than weighted cost.
	CostOne
)

// CostModel computes per-edge copy costs for the OU builder and affinity
// graph builder. Frequencies are cached per-block until Invalidate is
// called, matching spec.md §4.C "computed once per graph and cached until
// the graph changes".
type CostModel struct {
	kind   CostFunc
	f      Function
	freq   map[int]int64
	cached bool
}

// NewCostModel returns a cost model of the given kind over f.
func NewCostModel(kind CostFunc, f Function) *CostModel {
	return &CostModel{kind: kind, f: f}
}

// Invalidate drops the cached per-block frequencies. Call after any IR
// change that could alter block execution counts.
func (c *CostModel) Invalidate() { c.cached = false }

// freqOf reads b's frequency once and caches it until Invalidate. It reads
// the block directly rather than walking f, so it is safe to call while a
// caller's own PostOrderBegin/PostOrderNext iteration is in flight.
func (c *CostModel) freqOf(b Block) int64 {
	if !c.cached {
		c.freq = make(map[int]int64)
		c.cached = true
	}
	f, ok := c.freq[b.ID()]
	if !ok {
		f = b.Freq()
		c.freq[b.ID()] = f
	}
	return f
}

// blockOfCopy is spec.md §4.C's "block-of-copy": the phi's pred-block for
// a phi root at operand pos, or the root's own block for every other
// case (pos < 0 means "not a phi operand").
func blockOfCopy(root Value, pos int) Block {
	if root.IsPhi() && pos >= 0 {
		preds := root.Block().Preds()
		if pos < len(preds) {
			return preds[pos]
		}
	}
	return root.Block()
}

// Cost returns the copy cost of coalescing root with its operand at pos
// (pos < 0 for non-phi roots, where there is no per-predecessor split).
// Always ≥ 1, per spec.md §4.C.
func (c *CostModel) Cost(root Value, pos int) int {
	b := blockOfCopy(root, pos)
	switch c.kind {
	case CostOne:
		return 1
	case CostLoopDepth:
		d := c.f.LoopDepth(b)
		return 1 + d*d
	default:
		if f := c.freqOf(b); f > 1 {
			return int(f)
		}
		return 1
	}
}
