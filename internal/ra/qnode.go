package ra

import (
	"sort"

	"github.com/lu-zero/libfirm-sub001/internal/raapi"
)

// conflictKey is an unordered pair of value identities, used as the map
// key for a qnode's synthetic conflict set.
type conflictKey struct{ a, b ValueID }

func newConflictKey(a, b ValueID) conflictKey {
	if a > b {
		a, b = b, a
	}
	return conflictKey{a, b}
}

// qnode is the trial state of one target color within an OU (spec.md §3
// "Qnode"): which members would end up in the maximum-weight independent
// set if coalescing targeted color, and the synthetic conflicts
// accumulated by prior failed attempts.
type qnode struct {
	unit      *OU
	color     RealReg
	conflicts map[conflictKey]struct{}

	// mis holds indices into unit.Nodes (0 is always the root).
	mis      []int
	misSize  int
	misCosts int

	changedNodes map[ValueID]changedColor
}

// newQnode allocates a qnode from pool, the arena shared by every unit of
// a run; the driver releases it en bloc once per Run (spec.md §5).
func newQnode(pool *raapi.Pool[qnode], unit *OU, color RealReg) *qnode {
	q := pool.Allocate()
	q.unit = unit
	q.color = color
	q.conflicts = make(map[conflictKey]struct{})
	return q
}

func (q *qnode) addConflict(a, b ValueID) { q.conflicts[newConflictKey(a, b)] = struct{}{} }

func (q *qnode) conflicting(a, b ValueID) bool {
	_, ok := q.conflicts[newConflictKey(a, b)]
	return ok
}

// areConflicting is spec.md §4.H step 2's are-conflicting(q,u,v).
func (q *qnode) areConflicting(lv *Liveness, u, v Value) bool {
	return lv.Interfere(u, v) || q.conflicting(u.ID(), v.ID())
}

// recomputeMIS reruns the §4.O max-weight-independent-set procedure over
// the unit's non-root members under q's current synthetic conflicts, and
// sets q.mis/misSize/misCosts accordingly. Must be called after
// construction and after every conflict is added.
//
// A recorded self-conflict (addConflict(id, id), the disposition table's
// marker for "this node can never be part of q's coalescing") is excluded
// here before the independent-set search runs at all: conflict(i, i) is
// never evaluated by maxWeightIndependentSet/misResolve (every loop there
// skips i == j), so without this filter a self-conflicting node would
// stay in the candidate set forever and the qnode would never shrink
// below 2 members, hanging solveUnit's retry loop.
func (q *qnode) recomputeMIS(lv *Liveness) {
	var idx []int
	for _, i := range memberIndices(q.unit) {
		if q.conflicting(q.unit.Nodes[i].ID(), q.unit.Nodes[i].ID()) {
			continue
		}
		idx = append(idx, i)
	}
	chosen, weight := maxWeightIndependentSet(idx, q.unit.Costs, func(i, j int) bool {
		return q.areConflicting(lv, q.unit.Nodes[i], q.unit.Nodes[j])
	})
	mis := make([]int, 0, len(chosen)+1)
	if !q.conflicting(q.unit.Nodes[0].ID(), q.unit.Nodes[0].ID()) {
		mis = append(mis, 0) // root, unless a displacement attempt self-conflicted it too
	}
	mis = append(mis, chosen...)
	q.mis = mis
	q.misSize = len(mis)
	q.misCosts = weight
}

// qnodeQueue keeps a unit's candidate qnodes ordered by descending
// misCosts (spec.md §4.H step 3).
type qnodeQueue struct {
	items []*qnode
}

func (qq *qnodeQueue) insert(q *qnode) {
	qq.items = append(qq.items, q)
	sort.SliceStable(qq.items, func(i, j int) bool { return qq.items[i].misCosts > qq.items[j].misCosts })
}

func (qq *qnodeQueue) empty() bool { return len(qq.items) == 0 }

func (qq *qnodeQueue) popHead() *qnode {
	q := qq.items[0]
	qq.items = qq.items[1:]
	return q
}

func (qq *qnodeQueue) clear() { qq.items = nil }
