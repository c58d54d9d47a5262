package ra

import (
	"time"

	"github.com/lu-zero/libfirm-sub001/internal/raapi"
)

// Driver orchestrates one or more copy-minimization runs (spec.md §4.D).
// It owns the liveness handle cache, the pinned_global set (replaced by a
// fresh one before every solver invocation), and the two arenas (OUs,
// qnodes) that are released en bloc at the end of every Run (spec.md §5). Grounded on the teacher's
// Allocator.DoAllocation: a flat, ordered sequence of phase calls ending
// in a teardown call, generalized from one fixed allocation pass to a
// per-(graph,class) driver method a caller may invoke repeatedly.
type Driver struct {
	liveness     map[Function]*Liveness
	pinnedGlobal pinnedSet
	ouPool       raapi.Pool[OU]
	qPool        raapi.Pool[qnode]
}

// NewDriver returns a ready-to-use Driver.
func NewDriver() *Driver {
	return &Driver{
		liveness:     make(map[Function]*Liveness),
		pinnedGlobal: newPinnedSet(),
	}
}

// Invalidate discards the cached liveness handle for f. Call after any IR
// change to f; the next Run rebuilds liveness from scratch (spec.md §4.D
// step 1 "invalidate first if IR changed since last run").
func (d *Driver) Invalidate(f Function) {
	delete(d.liveness, f)
}

func (d *Driver) ensureLiveness(f Function) *Liveness {
	lv, ok := d.liveness[f]
	if !ok {
		lv = NewLiveness(f)
		lv.Compute()
		d.liveness[f] = lv
	}
	return lv
}

func classValues(f Function, class *RegClass) []Value {
	var out []Value
	for b := f.PostOrderBegin(); b != nil; b = f.PostOrderNext() {
		for _, v := range b.Values() {
			if v.Class() == class && !v.Constraint().Is(Ignore) {
				out = append(out, v)
			}
		}
	}
	return out
}

// RunResult is what a driver Run hands back to the caller: the
// statistics report (when requested), any requested dumps, and whether
// the chosen algorithm reported its result as optimal.
type RunResult struct {
	Report     Report
	BeforeDump string
	AfterDump  string
	Optimal    bool
}

// Run executes spec.md §4.D's full 7-step sequence for one (graph,
// class) pair:
//  1. ensure liveness sets;
//  2. build OUs and, if needed, the affinity graph;
//  3. record "before" stats;
//  4. optionally seed with one heuristic pass;
//  5. run the chosen algorithm;
//  6. record "after" stats and produce any requested dumps;
//  7. tear down the OU/qnode arenas.
func (d *Driver) Run(f Function, class *RegClass, opts Options) RunResult {
	lv := d.ensureLiveness(f)

	d.ouPool.Reset()
	d.qPool.Reset()

	cost := NewCostModel(opts.CostFunc(), f)
	units := BuildOUs(f, lv, cost, OUBuildOptions{}, &d.ouPool)

	needGraph := opts.Stats || opts.Dump != 0
	aff := &Affinity{nodes: map[ValueID]Value{}, edges: map[conflictKey]*AffinityEdge{}}
	if needGraph {
		aff = BuildAffinity(f, lv, cost)
	}

	var rep Report
	if opts.Stats || opts.Dump&DumpBefore != 0 {
		rep.Before = ComputeStats(units, aff, lv)
	}

	var result RunResult
	if opts.Dump&DumpBefore != 0 {
		result.BeforeDump = AppelGeorgeDump(class, classValues(f, class), lv, aff)
	}

	algo := MustLookup(opts.Algo)

	start := time.Now()
	if algo.CanImproveExisting && opts.Improve {
		seed := MustLookup("heur1")
		d.pinnedGlobal = newPinnedSet()
		seed.Run(f, lv, units, class, d.pinnedGlobal, &d.qPool)
	}
	d.pinnedGlobal = newPinnedSet()
	solved := algo.Run(f, lv, units, class, d.pinnedGlobal, &d.qPool)
	rep.Duration = time.Since(start)
	result.Optimal = solved.Optimal

	if opts.Stats || opts.Dump&DumpAfter != 0 {
		rep.After = ComputeStats(units, aff, lv)
	}
	if opts.Dump&DumpAfter != 0 || opts.Dump&DumpAppel != 0 {
		result.AfterDump = AppelGeorgeDump(class, classValues(f, class), lv, aff)
	}
	result.Report = rep

	if raapi.CoalesceValidationEnabled {
		d.validateLegality(f, class, lv)
	}

	d.ouPool.Reset()
	d.qPool.Reset()
	return result
}

// validateLegality re-checks, after solve_heuristic, that no interfering
// pair in class shares a color (spec.md §8 property 1) and that every
// colored value's color is within its class's allocatable set (property
// 2). A violation is a contract violation: the solver's own invariants
// guarantee this never fires, so tripping it means the engine itself has
// a bug, not the caller.
func (d *Driver) validateLegality(f Function, class *RegClass, lv *Liveness) {
	vs := classValues(f, class)
	for i := 0; i < len(vs); i++ {
		vi := vs[i]
		if vi.Color() == RealRegInvalid {
			continue
		}
		if !isAdmissible(vi.Color(), vi) {
			panicContractViolation("value %v colored %v outside its admissible set", vi.ID(), vi.Color())
		}
		for j := i + 1; j < len(vs); j++ {
			vj := vs[j]
			if vj.Color() == RealRegInvalid || vi.Color() != vj.Color() {
				continue
			}
			if lv.Interfere(vi, vj) {
				panicContractViolation("interfering values %v and %v share color %v", vi.ID(), vj.ID(), vi.Color())
			}
		}
	}
}
