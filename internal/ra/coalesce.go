package ra

import "github.com/lu-zero/libfirm-sub001/internal/raapi"

// SolveOptions configures the heuristic solver's optional behaviors.
type SolveOptions struct {
	// PreferFreeColor enables the "pick an unused color instead of
	// recursively recoloring" shortcut of spec.md §4.H step 4: "this
	// reduces churn; it is optional but strongly beneficial and must be
	// implementable behind a feature flag."
	PreferFreeColor bool
}

// SolveResult is the outcome of one solve_heuristic run (spec.md §6
// "solve_heuristic(ctx) → {optimal: bool}").
type SolveResult struct {
	// Optimal is always false for the heuristic solver: it never proves
	// optimality, only the externally-registered exact algorithms of
	// spec.md §9 may report true.
	Optimal bool
}

type tryResultKind int

const (
	trySuccess tryResultKind = iota
	tryImpossible
	tryPinnedLocal
	tryPinnedGlobal
)

type tryOutcome struct {
	result       tryResultKind
	n            Value
	conflictWith Value
}

// changedColor pairs a value with the color a trial assigned it, so the
// eventual commit can call SetColor directly without re-resolving the
// Value from its ValueID.
type changedColor struct {
	v Value
	c RealReg
}

// trialState accumulates the virtual recoloring of one try-color(q)
// attempt: every value's candidate new color (unit members and any
// displaced interference-graph neighbours alike), plus the set of values
// already resolved within this trial ("pinned_local").
type trialState struct {
	changed     map[ValueID]changedColor
	localPinned map[ValueID]localPin
}

func newTrialState() *trialState {
	return &trialState{changed: make(map[ValueID]changedColor), localPinned: make(map[ValueID]localPin)}
}

func (s *trialState) colorOf(v Value) RealReg {
	if cc, ok := s.changed[v.ID()]; ok {
		return cc.c
	}
	return v.Color()
}

func (s *trialState) assign(v Value, c RealReg) {
	s.changed[v.ID()] = changedColor{v: v, c: c}
	s.localPinned[v.ID()] = localPin{newColor: c, pinned: true}
}

func isAdmissible(color RealReg, n Value) bool {
	cls := n.Class()
	if !cls.Allocatable.Has(color) {
		return false
	}
	if n.Constraint().Is(Limited) && !n.Constraint().Limited.Has(color) {
		return false
	}
	return true
}

// pickFreeColor implements the optional "free color" shortcut: any
// allocatable, constraint-legal color for n not currently held by n
// itself or any of its interference-graph neighbours.
func pickFreeColor(n Value, st *trialState, neighbors func(Value) []Value) (RealReg, bool) {
	free := n.Class().Allocatable
	if n.Constraint().Is(Limited) {
		free = free.Intersect(n.Constraint().Limited)
	}
	free = free.Remove(st.colorOf(n))
	for _, m := range neighbors(n) {
		free = free.Remove(st.colorOf(m))
	}
	found, ok := RealRegInvalid, false
	free.Range(func(r RealReg) {
		if !ok {
			found, ok = r, true
		}
	})
	return found, ok
}

// colorIRN is spec.md §4.H step 4's color-irn(q, n, target, trigger): try
// to make n's virtual color equal to target, recursively displacing any
// interference-graph neighbour currently holding target.
func colorIRN(q *qnode, n Value, target RealReg, trigger Value, st *trialState,
	pinnedGlobal pinnedSet, neighbors func(Value) []Value, lv *Liveness, opts SolveOptions) tryOutcome {
	if st.colorOf(n) == target {
		return tryOutcome{result: trySuccess}
	}
	if pinnedGlobal.has(n.ID()) {
		return tryOutcome{result: tryPinnedGlobal, n: n, conflictWith: n}
	}
	if lp, ok := st.localPinned[n.ID()]; ok && lp.pinned {
		return tryOutcome{result: tryPinnedLocal, n: n, conflictWith: n}
	}

	if opts.PreferFreeColor && n.ID() != trigger.ID() {
		if free, ok := pickFreeColor(n, st, neighbors); ok {
			st.assign(n, free)
			return tryOutcome{result: trySuccess}
		}
	}

	if !isAdmissible(target, n) {
		return tryOutcome{result: tryImpossible, n: n}
	}

	old := st.colorOf(n)
	for _, m := range neighbors(n) {
		if m.ID() == trigger.ID() {
			continue
		}
		if st.colorOf(m) != target {
			continue
		}
		sub := colorIRN(q, m, old, trigger, st, pinnedGlobal, neighbors, lv, opts)
		if sub.result != trySuccess {
			return sub
		}
	}
	st.assign(n, target)
	return tryOutcome{result: trySuccess}
}

// tryColorUnit is spec.md §4.H step 4's try-color(q): attempt colorIRN
// for every MIS member in order, each member triggering its own
// recursive displacement chain. On failure the returned outcome's n is
// the MIS member whose attempt failed, and conflictWith is the node the
// recursion stopped at.
func tryColorUnit(q *qnode, pinnedGlobal pinnedSet, neighbors func(Value) []Value, lv *Liveness, opts SolveOptions) tryOutcome {
	st := newTrialState()
	for _, idx := range q.mis {
		n := q.unit.Nodes[idx]
		out := colorIRN(q, n, q.color, n, st, pinnedGlobal, neighbors, lv, opts)
		if out.result != trySuccess {
			out.n = n
			return out
		}
	}
	q.changedNodes = st.changed
	return tryOutcome{result: trySuccess}
}

// commitQnode is spec.md §4.H step 5: "For every (value -> new_color) in
// q.changed_nodes, install new_color as the final color of that value."
// changed_nodes holds both the unit's own MIS members and any
// interference-graph neighbours colorIRN displaced to make room for them
// (recorded by trialState.assign, regardless of unit membership), so the
// commit loop must walk all of q.changedNodes, not just q.mis — otherwise
// a displaced non-member keeps its old color while the member moves onto
// it, and the two now illegally share a color.
func commitQnode(q *qnode, pinnedGlobal pinnedSet) {
	root := q.unit.Nodes[0]
	pinnedGlobal.add(root.ID())
	for id, cc := range q.changedNodes {
		if cc.c == q.color {
			pinnedGlobal.add(id)
		}
	}
	for _, cc := range q.changedNodes {
		cc.v.SetColor(cc.c)
	}
}

// dispose applies spec.md §4.H step 4's disposition table to a failed
// try-color(q) outcome, mutating q's synthetic conflicts and recomputing
// its MIS. Returns false when the unit should stop retrying this qnode
// (its MIS has collapsed below 2 members).
func dispose(q *qnode, root Value, out tryOutcome, lv *Liveness) bool {
	switch out.result {
	case tryImpossible:
		q.addConflict(out.n.ID(), out.n.ID())
	case tryPinnedLocal:
		if out.conflictWith.ID() == root.ID() {
			q.addConflict(out.n.ID(), out.n.ID())
		} else {
			q.addConflict(out.n.ID(), out.conflictWith.ID())
		}
	case tryPinnedGlobal:
		q.addConflict(out.n.ID(), out.n.ID())
	}
	q.recomputeMIS(lv)
	return q.misSize >= 2
}

// candidateColors enumerates the colors a root's own constraint admits
// (spec.md §4.H step 1).
func candidateColors(root Value) []RealReg {
	colors := root.Class().Colors()
	if !root.Constraint().Is(Limited) {
		return colors
	}
	limited := root.Constraint().Limited
	out := colors[:0:0]
	for _, c := range colors {
		if limited.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func solveUnit(unit *OU, lv *Liveness, pinnedGlobal pinnedSet, neighbors func(Value) []Value, opts SolveOptions, qpool *raapi.Pool[qnode]) {
	root := unit.Nodes[0]
	var queue qnodeQueue
	for _, k := range candidateColors(root) {
		q := newQnode(qpool, unit, k)
		q.recomputeMIS(lv)
		if q.misSize >= 2 {
			queue.insert(q)
		}
	}
	for !queue.empty() {
		q := queue.popHead()
		out := tryColorUnit(q, pinnedGlobal, neighbors, lv, opts)
		if out.result == trySuccess {
			commitQnode(q, pinnedGlobal)
			queue.clear()
			return
		}
		if dispose(q, root, out, lv) {
			queue.insert(q)
		}
	}
}

// Solve runs spec.md §4.H over every unit of the given class, in the
// builder's sort order, mutating colors in place via Value.SetColor.
// qpool is the arena every qnode trial is allocated from; the driver
// resets it once per Run.
func Solve(f Function, lv *Liveness, units []*OU, class *RegClass, pinnedGlobal pinnedSet, opts SolveOptions, qpool *raapi.Pool[qnode]) SolveResult {
	var classValues []Value
	for b := f.PostOrderBegin(); b != nil; b = f.PostOrderNext() {
		for _, v := range b.Values() {
			if v.Class() == class && !v.Constraint().Is(Ignore) {
				classValues = append(classValues, v)
			}
		}
	}
	neighbors := func(n Value) []Value {
		out := make([]Value, 0, 4)
		for _, m := range classValues {
			if m.ID() == n.ID() {
				continue
			}
			if lv.Interfere(n, m) {
				out = append(out, m)
			}
		}
		return out
	}

	for _, unit := range units {
		if unit.Class != class || len(unit.Nodes) < 2 {
			continue
		}
		solveUnit(unit, lv, pinnedGlobal, neighbors, opts, qpool)
	}
	return SolveResult{Optimal: false}
}
