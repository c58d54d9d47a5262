package ra

import (
	"fmt"

	"github.com/katalvlaran/lvlath/core"
)

// AffinityEdge is one undirected, weight-accumulated preference edge
// between two values that could share a color (spec.md §4.A).
type AffinityEdge struct {
	U, V   Value
	Weight int
}

// Affinity is the copy-coalescing preference graph: one node per value
// that participates in at least one eligible pair, one edge per unique
// pair with accumulated weight (spec.md §4.A "multigraph collapsed to
// unique edges").
type Affinity struct {
	nodes map[ValueID]Value
	edges map[conflictKey]*AffinityEdge
}

// BuildAffinity enumerates the same eligible pairs the OU builder would
// (spec.md §4.A "produced by the same rules as the OU builder") and
// accumulates a weighted edge for every non-interfering pair.
func BuildAffinity(f Function, lv *Liveness, cost *CostModel) *Affinity {
	a := &Affinity{nodes: make(map[ValueID]Value), edges: make(map[conflictKey]*AffinityEdge)}
	for b := f.PostOrderBegin(); b != nil; b = f.PostOrderNext() {
		for _, r := range b.Values() {
			if !isRootEligible(r) {
				continue
			}
			a.visitRoot(r, lv, cost)
		}
	}
	return a
}

func (a *Affinity) visitRoot(r Value, lv *Liveness, cost *CostModel) {
	switch {
	case r.IsPhi():
		for i := 0; i < r.Arity(); i++ {
			op := r.In(i)
			if op.ID() == r.ID() || op.Constraint().Is(Ignore) || lv.Interfere(r, op) {
				continue
			}
			a.addEdge(r, op, cost.Cost(r, i))
		}
	case r.IsPermProjection():
		s := r.In(0)
		if s.Constraint().Is(Ignore) || lv.Interfere(r, s) {
			return
		}
		a.addEdge(r, s, cost.Cost(r, -1))
	default:
		mask := r.Constraint().SameMask
		for i := 0; i < r.Arity(); i++ {
			if mask&(1<<uint(i)) == 0 {
				continue
			}
			op := r.In(i)
			if op.Constraint().Is(Ignore) || lv.Interfere(r, op) {
				continue
			}
			a.addEdge(r, op, cost.Cost(r, -1))
		}
	}
}

func (a *Affinity) addEdge(u, v Value, weight int) {
	a.nodes[u.ID()] = u
	a.nodes[v.ID()] = v
	key := newConflictKey(u.ID(), v.ID())
	if e, ok := a.edges[key]; ok {
		e.Weight += weight
		return
	}
	a.edges[key] = &AffinityEdge{U: u, V: v, Weight: weight}
}

// Edges returns every accumulated affinity edge, in no particular order.
func (a *Affinity) Edges() []*AffinityEdge {
	out := make([]*AffinityEdge, 0, len(a.edges))
	for _, e := range a.edges {
		out = append(out, e)
	}
	return out
}

// NodeCount returns the number of distinct values with at least one
// affinity edge.
func (a *Affinity) NodeCount() int { return len(a.nodes) }

// Export renders the affinity graph as a github.com/katalvlaran/lvlath
// core.Graph (affinity edges only; interference edges are not included): an undirected, weighted multigraph with one vertex per
// value (named by its ValueID) and one edge per affinity pair, weighted
// by the accumulated copy cost. This is the engine's one recoverable
// error boundary (spec.md §2): every other failure mode in this package
// is a contract-violation panic or an internally absorbed algorithm
// failure, but graph construction can fail on a malformed export target
// and must report that to the caller as an error.
func (a *Affinity) Export() (*core.Graph, error) {
	g := core.NewGraph(core.WithWeighted(), core.WithMultiEdges())
	for id := range a.nodes {
		vid := fmt.Sprintf("v%d", id)
		if err := g.AddVertex(vid); err != nil {
			return nil, fmt.Errorf("affinity: export vertex v%d: %w", id, err)
		}
	}
	for _, e := range a.edges {
		from, to := fmt.Sprintf("v%d", e.U.ID()), fmt.Sprintf("v%d", e.V.ID())
		if _, err := g.AddEdge(from, to, int64(e.Weight)); err != nil {
			return nil, fmt.Errorf("affinity: export edge %s-%s: %w", from, to, err)
		}
	}
	return g, nil
}
