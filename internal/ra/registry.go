package ra

import "github.com/lu-zero/libfirm-sub001/internal/raapi"

// Algorithm is one registered entry in the co_algo registry (spec.md §9
// "Polymorphic algorithms"): the heuristic solver here, or an externally
// supplied exact optimizer (ILP, PBQP, ...).
type Algorithm struct {
	Name string
	// Run executes the algorithm over units already built for class.
	Run func(f Function, lv *Liveness, units []*OU, class *RegClass, pinnedGlobal pinnedSet, qpool *raapi.Pool[qnode]) SolveResult
	// CanImproveExisting reports whether this algorithm can be run a
	// second time, after an earlier pass, to refine an existing coloring
	// rather than only ever starting from scratch (spec.md §4.D step 4).
	CanImproveExisting bool
}

// registry is the module-scoped co_algo table: populated once at program
// start via RegisterAlgorithm, then treated as frozen (spec.md §9 "the
// module registry ... initialized once at program start and frozen").
// Grounded on the teacher's NewAllocator building fixed lookup tables
// once rather than per-call.
var registry = map[string]Algorithm{}

// RegisterAlgorithm installs algo under its own name, overwriting any
// prior registration of the same name. Intended to be called from
// package init functions before driver.Run is ever invoked; calling it
// concurrently with a Run is a caller bug, not guarded against here.
func RegisterAlgorithm(algo Algorithm) {
	registry[algo.Name] = algo
}

// LookupAlgorithm returns the registered algorithm named name.
func LookupAlgorithm(name string) (Algorithm, bool) {
	algo, ok := registry[name]
	return algo, ok
}

func init() {
	RegisterAlgorithm(Algorithm{
		Name:               "heur1",
		CanImproveExisting: true,
		Run: func(f Function, lv *Liveness, units []*OU, class *RegClass, pinnedGlobal pinnedSet, qpool *raapi.Pool[qnode]) SolveResult {
			return Solve(f, lv, units, class, pinnedGlobal, SolveOptions{PreferFreeColor: true}, qpool)
		},
	})
	RegisterAlgorithm(Algorithm{
		Name:               "none",
		CanImproveExisting: false,
		Run: func(Function, *Liveness, []*OU, *RegClass, pinnedSet, *raapi.Pool[qnode]) SolveResult {
			return SolveResult{Optimal: false}
		},
	})
}

// MustLookup panics with a contract violation if name is unregistered;
// used by the driver, which treats an unknown algorithm name selected via
// the CLI option surface as a configuration bug rather than a recoverable
// fault (spec.md §7).
func MustLookup(name string) Algorithm {
	algo, ok := LookupAlgorithm(name)
	if !ok {
		panicContractViolation("unregistered co_algo %q", name)
	}
	return algo
}
