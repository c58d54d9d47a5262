package ra

import (
	"sort"

	"github.com/lu-zero/libfirm-sub001/internal/raapi"
)

// MISHeurTrigger is the threshold at or below which max-weight-independent-set
// is solved exactly by brute force; above it, a greedy index-order
// insertion is used instead (spec.md §4.O "a small threshold, e.g. 8").
// Resolved as an Open Question in DESIGN.md.
const MISHeurTrigger = 8

// OU is one optimization unit (spec.md §3 "Optimization unit"): a root
// value together with the copy-related operands it might be coalesced
// with. Nodes[0] is always the root.
type OU struct {
	Nodes []Value
	// Costs[i] is the copy cost incurred if Nodes[i] ends up colored
	// differently from the root. Costs[0] is unused.
	Costs []int
	// InevitableCosts sums the cost of operands that do interfere with
	// the root and therefore can never be coalesced.
	InevitableCosts int
	Class           *RegClass

	SortKey       int
	AllNodesCosts int
	MinNodesCosts int
}

func (u *OU) indexOf(v Value) int {
	for i, n := range u.Nodes {
		if n.ID() == v.ID() {
			return i
		}
	}
	return -1
}

func (u *OU) append(v Value, cost int) {
	u.Nodes = append(u.Nodes, v)
	u.Costs = append(u.Costs, cost)
}

// isRootEligible is spec.md §4.O "Eligibility of a root".
func isRootEligible(r Value) bool {
	if r.Constraint().Is(Ignore) {
		return false
	}
	return r.IsPhi() || r.IsPermProjection() || r.Constraint().Is(ShouldBeSame)
}

// OUBuildOptions configures BuildOUs. SortByConstraint is the alternative
// ordering spec.md §9 describes as "present behind a compile-time switch
// ... may or may not be intended for production use"; it defaults to
// false, matching spec.md §9's documented default of sort_key alone.
type OUBuildOptions struct {
	SortByConstraint bool
}

// BuildOUs walks every value reachable from f, builds one OU per eligible
// root, and returns them sorted by descending SortKey (spec.md §4.O).
// Units are allocated from pool, which the driver releases en bloc on
// tear-down (spec.md §5 "Resource discipline") rather than freeing units
// individually.
func BuildOUs(f Function, lv *Liveness, cost *CostModel, opts OUBuildOptions, pool *raapi.Pool[OU]) []*OU {
	var units []*OU
	for b := f.PostOrderBegin(); b != nil; b = f.PostOrderNext() {
		for _, r := range b.Values() {
			if !isRootEligible(r) {
				continue
			}
			units = append(units, buildOU(r, lv, cost, pool))
		}
	}
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if opts.SortByConstraint {
			ai, bi := a.Nodes[0].Constraint().Is(Limited), b.Nodes[0].Constraint().Is(Limited)
			if ai != bi {
				return ai
			}
		}
		return a.SortKey > b.SortKey
	})
	return units
}

func buildOU(r Value, lv *Liveness, cost *CostModel, pool *raapi.Pool[OU]) *OU {
	if r.Constraint().Width > 1 {
		panicContractViolation("OU root %v has width > 1, unsupported by coalescing", r.ID())
	}
	u := pool.Allocate()
	u.Nodes = append(u.Nodes, r)
	u.Costs = append(u.Costs, 0)
	u.Class = r.Class()

	switch {
	case r.IsPhi():
		for i := 0; i < r.Arity(); i++ {
			a := r.In(i)
			if a.ID() == r.ID() {
				continue
			}
			if lv.Interfere(r, a) {
				u.InevitableCosts += cost.Cost(r, i)
				continue
			}
			if a.Constraint().Is(Ignore) {
				continue
			}
			if k := u.indexOf(a); k >= 0 {
				u.Costs[k] += cost.Cost(r, i)
			} else {
				u.append(a, cost.Cost(r, i))
			}
		}
	case r.IsPermProjection():
		s := r.In(0)
		if lv.Interfere(r, s) {
			panicContractViolation("perm-projection %v interferes with its source %v", r.ID(), s.ID())
		}
		u.append(s, cost.Cost(r, -1))
	default: // should_be_same
		mask := r.Constraint().SameMask
		for i := 0; i < r.Arity(); i++ {
			if mask&(1<<uint(i)) == 0 {
				continue
			}
			o := r.In(i)
			if o.Constraint().Is(Ignore) || lv.Interfere(r, o) {
				continue
			}
			if k := u.indexOf(o); k >= 0 {
				u.Costs[k] += cost.Cost(r, -1)
			} else {
				u.append(o, cost.Cost(r, -1))
			}
		}
	}

	for _, n := range u.Nodes[1:] {
		if n.Constraint().Width > 1 {
			panicContractViolation("OU member %v of root %v has width > 1, unsupported by coalescing", n.ID(), r.ID())
		}
	}

	for i := 1; i < len(u.Nodes); i++ {
		if u.Costs[i] > u.SortKey {
			u.SortKey = u.Costs[i]
		}
		u.AllNodesCosts += u.Costs[i]
	}
	_, misWeight := maxWeightIndependentSet(memberIndices(u), u.Costs, func(i, j int) bool {
		return lv.Interfere(u.Nodes[i], u.Nodes[j])
	})
	u.MinNodesCosts = u.AllNodesCosts - misWeight
	return u
}

func memberIndices(u *OU) []int {
	idx := make([]int, 0, len(u.Nodes)-1)
	for i := 1; i < len(u.Nodes); i++ {
		idx = append(idx, i)
	}
	return idx
}

// maxWeightIndependentSet partitions idx into safe members (no conflict
// with any other member of idx) and unsafe members, then solves the
// unsafe subset exactly by brute force when small or by greedy
// index-order insertion otherwise (spec.md §4.O, reused verbatim by the
// qnode MIS step of §4.H). weight(i) looks up a member's cost by its
// OU.Costs-style index; conflict must be symmetric.
func maxWeightIndependentSet(idx []int, weight []int, conflict func(i, j int) bool) (chosen []int, total int) {
	if len(idx) == 0 {
		return nil, 0
	}
	var safe, unsafe []int
	for _, i := range idx {
		isUnsafe := false
		for _, j := range idx {
			if i == j {
				continue
			}
			if conflict(i, j) {
				isUnsafe = true
				break
			}
		}
		if isUnsafe {
			unsafe = append(unsafe, i)
		} else {
			safe = append(safe, i)
		}
	}
	for _, i := range safe {
		total += weight[i]
	}
	resolved, resolvedWeight := misResolve(unsafe, weight, conflict)
	total += resolvedWeight
	chosen = append(chosen, safe...)
	chosen = append(chosen, resolved...)
	return chosen, total
}

func misResolve(idx []int, weight []int, conflict func(i, j int) bool) (chosen []int, total int) {
	n := len(idx)
	if n == 0 {
		return nil, 0
	}
	if n <= MISHeurTrigger {
		bestMask, bestWeight := 0, 0
		for mask := 1; mask < (1 << uint(n)); mask++ {
			valid := true
			w := 0
			for i := 0; i < n && valid; i++ {
				if mask&(1<<uint(i)) == 0 {
					continue
				}
				w += weight[idx[i]]
				for j := i + 1; j < n; j++ {
					if mask&(1<<uint(j)) == 0 {
						continue
					}
					if conflict(idx[i], idx[j]) {
						valid = false
						break
					}
				}
			}
			if valid && w > bestWeight {
				bestWeight, bestMask = w, mask
			}
		}
		for i := 0; i < n; i++ {
			if bestMask&(1<<uint(i)) != 0 {
				chosen = append(chosen, idx[i])
			}
		}
		return chosen, bestWeight
	}
	for _, i := range idx {
		ok := true
		for _, c := range chosen {
			if conflict(i, c) {
				ok = false
				break
			}
		}
		if ok {
			chosen = append(chosen, i)
			total += weight[i]
		}
	}
	return chosen, total
}
