package ra

import (
	"sort"

	"github.com/lu-zero/libfirm-sub001/internal/raapi"
)

// flagBits is the per-(block, value) liveness state spec.md §4.L describes:
// "in", "out" and "end" are independent bits, not a tri-state, because a
// value can be simultaneously live-in and live-end of the same block (a
// pass-through value with no local use).
type flagBits uint8

const (
	flagIn flagBits = 1 << iota
	flagOut
	flagEnd
)

// liveEntry is one record in a block's sorted liveness array.
type liveEntry struct {
	id    ValueID
	flags flagBits
}

// blockLive is the per-block storage spec.md §4.L "Storage" calls for: a
// dense array sorted by value identity, binary-searchable, that grows by
// Go's normal append doubling rather than a hand-rolled capacity scheme.
// Grounded on fkuehnel-golang-cfg/regalloc.go's sorted []liveInfo-per-block
// arrays.
type blockLive struct {
	entries []liveEntry
}

func (b *blockLive) search(id ValueID) (int, bool) {
	i := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].id >= id })
	if i < len(b.entries) && b.entries[i].id == id {
		return i, true
	}
	return i, false
}

func (b *blockLive) get(id ValueID) (flagBits, bool) {
	i, ok := b.search(id)
	if !ok {
		return 0, false
	}
	return b.entries[i].flags, true
}

// setBits ORs bits into the record for id, inserting it if absent.
// wasEmpty reports whether there was no record for id before this call
// (spec.md §4.L "previously empty" guard).
func (b *blockLive) setBits(id ValueID, bits flagBits) (wasEmpty bool) {
	i, ok := b.search(id)
	if ok {
		b.entries[i].flags |= bits
		return false
	}
	b.entries = append(b.entries, liveEntry{})
	copy(b.entries[i+1:], b.entries[i:])
	b.entries[i] = liveEntry{id: id, flags: bits}
	return true
}

func (b *blockLive) delete(id ValueID) {
	i, ok := b.search(id)
	if !ok {
		return
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
}

// Liveness is the inter-block liveness analyzer (spec.md §4.L). It is
// value-identity based and class-agnostic: callers that need a
// same-register-class restriction apply it themselves via Value.Class()
// when consuming Interfere.
type Liveness struct {
	f      Function
	dom    DomTree
	blocks map[int]*blockLive
	def    map[ValueID]Value
}

// NewLiveness allocates an analyzer for f. Call Compute before querying it.
func NewLiveness(f Function) *Liveness {
	return &Liveness{
		f:      f,
		dom:    f.Dominators(),
		blocks: make(map[int]*blockLive),
		def:    make(map[ValueID]Value),
	}
}

func (l *Liveness) blockOf(b Block) *blockLive {
	bl, ok := l.blocks[b.ID()]
	if !ok {
		bl = &blockLive{}
		l.blocks[b.ID()] = bl
	}
	return bl
}

// Compute runs the full backward propagation over every value reachable
// from f's postorder walk. Safe to call once; use Update for incremental
// maintenance afterward.
func (l *Liveness) Compute() {
	for b := l.f.PostOrderBegin(); b != nil; b = l.f.PostOrderNext() {
		for _, v := range b.Values() {
			l.def[v.ID()] = v
		}
	}
	for b := l.f.PostOrderBegin(); b != nil; b = l.f.PostOrderNext() {
		for _, v := range b.Values() {
			l.propagate(v, b)
		}
	}
}

// propagate is the per-value step of spec.md §4.L: for every use of v at
// operand position p of user u, either cross the phi edge into the named
// predecessor, or (for a normal use in a different block) mark v live-in
// there and fan the live-end+out propagation into every predecessor.
func (l *Liveness) propagate(v Value, d Block) {
	for _, use := range v.Uses() {
		u := use.User
		U := u.Block()
		if u.IsPhi() {
			preds := U.Preds()
			if use.Pos < len(preds) {
				l.liveEndAt(preds[use.Pos], v, flagEnd, d)
			}
			continue
		}
		if U.ID() == d.ID() {
			continue
		}
		l.blockOf(U).setBits(v.ID(), flagIn)
		for _, p := range U.Preds() {
			l.liveEndAt(p, v, flagEnd|flagOut, d)
		}
	}
}

// liveEndAt is spec.md §4.L's live-end-at(B, bits): set bits at (B,v); if
// that record was previously empty and B != D, also mark v live-in at B
// and recurse into every predecessor of B with end+out. The "previously
// empty" check is exactly what bounds this to at most one visit per block.
func (l *Liveness) liveEndAt(b Block, v Value, bits flagBits, d Block) {
	wasEmpty := l.blockOf(b).setBits(v.ID(), bits)
	if !wasEmpty || b.ID() == d.ID() {
		return
	}
	l.blockOf(b).setBits(v.ID(), flagIn)
	for _, p := range b.Preds() {
		l.liveEndAt(p, v, flagEnd|flagOut, d)
	}
}

// IsLiveIn reports whether v is live at the entry of b.
func (l *Liveness) IsLiveIn(b Block, v Value) bool {
	bits, ok := l.blockOf(b).get(v.ID())
	return ok && bits&flagIn != 0
}

// IsLiveOut reports whether v is live at every exit of b.
func (l *Liveness) IsLiveOut(b Block, v Value) bool {
	bits, ok := l.blockOf(b).get(v.ID())
	return ok && bits&flagOut != 0
}

// IsLiveEnd reports whether v reaches the end of b, whether or not it
// actually flows into a successor (distinguishes "lives to the last
// instruction" from "lives past the block").
func (l *Liveness) IsLiveEnd(b Block, v Value) bool {
	bits, ok := l.blockOf(b).get(v.ID())
	return ok && bits&flagEnd != 0
}

// indexIn returns v's position within b.Values(), or -1 if not found.
func indexIn(b Block, v Value) int {
	for i, x := range b.Values() {
		if x.ID() == v.ID() {
			return i
		}
	}
	return -1
}

// usedAtOrAfter reports whether any value at or after position from in
// b.Values() has v as an operand. Used only for the same-block refinement
// of Interfere, since the block-granular in/out/end flags alone cannot
// distinguish "dies earlier in this block" from "lives to the end".
func usedAtOrAfter(b Block, v Value, from int) bool {
	vs := b.Values()
	for i := from; i < len(vs); i++ {
		u := vs[i]
		if u.IsPhi() {
			continue
		}
		for p := 0; p < u.Arity(); p++ {
			if op := u.In(p); op != nil && op.ID() == v.ID() {
				return true
			}
		}
	}
	return false
}

// order picks, of u and v, which is defined first in a sense Interfere
// can use: same-block pairs are ordered by position in Values(); otherwise
// by dominance of their def blocks. ok is false when neither block
// dominates the other, meaning the two live ranges cannot possibly
// overlap in a program in SSA form.
func (l *Liveness) order(u, v Value) (earlier, later Value, ok bool) {
	ub, vb := u.Block(), v.Block()
	switch {
	case ub.ID() == vb.ID():
		ui, vi := indexIn(ub, u), indexIn(vb, v)
		if ui == vi {
			return nil, nil, false
		}
		if ui < vi {
			return u, v, true
		}
		return v, u, true
	case l.dom.Dominates(ub, vb):
		return u, v, true
	case l.dom.Dominates(vb, ub):
		return v, u, true
	default:
		return nil, nil, false
	}
}

// Interfere is the exact interference check of spec.md §4.L: two distinct
// SSA values interfere iff a live-range check at their definition points
// reports one live when the other is defined. The dominance property of
// SSA live ranges lets this reduce to "is the earlier-defined one still
// live at the later one's definition point".
func (l *Liveness) Interfere(u, v Value) bool {
	if u.ID() == v.ID() {
		return false
	}
	result := l.interfereExact(u, v)
	if raapi.LivenessValidationEnabled && result != l.LvChk(u, v) {
		// A disagreement here means the exact and companion checkers have
		// diverged on this pair (spec.md §8 property 6); it is this
		// package's own bug, not the IR collaborator's, but it is no less
		// a contract violation: the engine can no longer trust its own
		// interference predicate.
		panicContractViolation("liveness exact/companion checkers disagree on (%v,%v)", u.ID(), v.ID())
	}
	return result
}

func (l *Liveness) interfereExact(u, v Value) bool {
	earlier, later, ok := l.order(u, v)
	if !ok {
		return false
	}
	return liveThroughDef(l, earlier, later)
}

// liveThroughDef reports whether earlier (defined no later than later)
// is still alive strictly after later's own definition: either it
// escapes later's block entirely (live-out/live-end), or some value at
// a later position in that block still references it. A use by later
// itself does not count — that is precisely the reuse opportunity
// two-address coalescing relies on, so scanning starts just past
// later's own position.
func liveThroughDef(l *Liveness, earlier, later Value) bool {
	lb := later.Block()
	if l.IsLiveOut(lb, earlier) || l.IsLiveEnd(lb, earlier) {
		return true
	}
	return usedAtOrAfter(lb, earlier, indexIn(lb, later)+1)
}

// LvChk is the fast companion check of spec.md §4.L: block-boundary
// flags are consulted first as a cheap short-circuit, falling back to
// the same positional scan Interfere uses only when they are
// inconclusive. It is written as an independent call path (rather than
// a plain alias) so LivenessValidationEnabled's cross-check in Interfere
// can catch the two drifting apart if either is edited in isolation.
func (l *Liveness) LvChk(u, v Value) bool {
	if u.ID() == v.ID() {
		return false
	}
	earlier, later, ok := l.order(u, v)
	if !ok {
		return false
	}
	lb := later.Block()
	if l.IsLiveOut(lb, earlier) || l.IsLiveEnd(lb, earlier) {
		return true
	}
	return usedAtOrAfter(lb, earlier, indexIn(lb, later)+1)
}

// Agree reports whether Interfere and LvChk give the same verdict for
// (u,v). Used by the tests; Interfere's own LivenessValidationEnabled
// cross-check calls LvChk directly. Never called on a hot path.
func (l *Liveness) Agree(u, v Value) bool {
	return l.Interfere(u, v) == l.LvChk(u, v)
}

// remove deletes every record of v from the dominator subtree rooted at
// v's definition block (spec.md §4.L mutation hook "remove"). Called
// before a value is eliminated or before Update rebuilds its liveness.
func (l *Liveness) remove(v Value) {
	root := v.Block()
	var walk func(b Block)
	walk = func(b Block) {
		l.blockOf(b).delete(v.ID())
		for _, c := range l.dom.Children(b) {
			walk(c)
		}
	}
	walk(root)
	delete(l.def, v.ID())
}

// introduce runs the per-value propagation step for v as if it were newly
// defined (spec.md §4.L mutation hook "introduce"). No record is created
// in v's own block: propagate compares each use's block with v's block
// and skips local uses.
func (l *Liveness) introduce(v Value) {
	l.def[v.ID()] = v
	l.propagate(v, v.Block())
}

// Update is remove followed by introduce: the mutation hook to call after
// v's use list has changed (spec.md §4.L "update(v) = remove; introduce").
func (l *Liveness) Update(v Value) {
	l.remove(v)
	l.introduce(v)
}
