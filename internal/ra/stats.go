package ra

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Stats is one before/after snapshot of spec.md §4.S: "affinity-node
// count, affinity-edge count, summed max cost, inevitable cost, count of
// affinity edges whose endpoints interfere (aff_int), current
// unsatisfied cost, count of unsatisfied edges."
type Stats struct {
	AffinityNodes    int
	AffinityEdges    int
	SummedMaxCost    int
	InevitableCost   int
	AffInt           int
	UnsatisfiedCost  int
	UnsatisfiedEdges int
}

// ComputeStats takes one snapshot over the given units and affinity
// graph. Call once before solve_heuristic and once after; colors read
// from the live Value.Color() are what changes between the two calls.
func ComputeStats(units []*OU, aff *Affinity, lv *Liveness) Stats {
	var st Stats
	st.AffinityNodes = aff.NodeCount()
	for _, u := range units {
		st.SummedMaxCost += u.SortKey
		st.InevitableCost += u.InevitableCosts
	}
	for _, e := range aff.Edges() {
		st.AffinityEdges++
		if lv.Interfere(e.U, e.V) {
			st.AffInt++
		}
		if e.U.Color() == RealRegInvalid || e.U.Color() != e.V.Color() {
			st.UnsatisfiedCost += e.Weight
			st.UnsatisfiedEdges++
		}
	}
	return st
}

// Report is the full statistics record for one (graph, class) run,
// including the copy_opt wall-clock timing spec.md §4.S requires.
type Report struct {
	Before, After Stats
	Duration      time.Duration
}

// DumpMask selects which dump(s) spec.md §6's CLI surface requests.
type DumpMask uint8

const (
	DumpBefore DumpMask = 1 << iota
	DumpAfter
	DumpAppel
	DumpAll = DumpBefore | DumpAfter | DumpAppel
)

// dumpEdge is one line of the Appel/George contest text format.
type dumpEdge struct {
	a, b, w int
}

// AppelGeorgeDump renders the interference + affinity graph for class in
// the Appel/George coalescing-contest text format (spec.md §6
// "Persisted/dump formats"): a header `N K`, then `a b w` lines, `w=-1`
// for interference and `w>0` for an affinity weight, plus one
// interference edge from each disallowed register to every node that
// cannot take it.
func AppelGeorgeDump(class *RegClass, values []Value, lv *Liveness, aff *Affinity) string {
	sorted := append([]Value(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })
	colors := class.Colors()
	k := len(colors)
	n := k + len(sorted)

	regIndex := make(map[RealReg]int, k)
	for i, c := range colors {
		regIndex[c] = i
	}
	valIndex := make(map[ValueID]int, len(sorted))
	for i, v := range sorted {
		valIndex[v.ID()] = k + i
	}

	var edges []dumpEdge
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if lv.Interfere(sorted[i], sorted[j]) {
				edges = append(edges, dumpEdge{valIndex[sorted[i].ID()], valIndex[sorted[j].ID()], -1})
			}
		}
	}
	for _, e := range aff.Edges() {
		a, aok := valIndex[e.U.ID()]
		b, bok := valIndex[e.V.ID()]
		if !aok || !bok {
			continue
		}
		if a > b {
			a, b = b, a
		}
		edges = append(edges, dumpEdge{a, b, e.Weight})
	}
	for _, v := range sorted {
		vi := valIndex[v.ID()]
		for _, c := range colors {
			if !isAdmissible(c, v) {
				edges = append(edges, dumpEdge{regIndex[c], vi, -1})
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d %d\n", n, k)
	for _, e := range edges {
		fmt.Fprintf(&sb, "%d %d %d\n", e.a, e.b, e.w)
	}
	return sb.String()
}
