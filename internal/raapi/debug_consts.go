package raapi

// These consts gate debug tracing and self-validation across internal/ra.
// Keeping them here, rather than scattered across files, means "where do
// we turn on tracing for the coalescing solver" is a single known place.

// ----- Debug logging -----
// Must be disabled by default; enable only when debugging a specific run.

const (
	// CoalesceLoggingEnabled is the tracing switch for OU construction,
	// affinity-graph building, and the heuristic solver. No code in
	// internal/ra reads it, so setting it produces no output.
	CoalesceLoggingEnabled = false
	// LivenessLoggingEnabled is the tracing switch for the liveness
	// analyzer. No code in internal/ra reads it, so setting it produces
	// no output.
	LivenessLoggingEnabled = false
)

// ----- Validations -----
// Must stay enabled until the engine has had a long validation burn-in;
// these catch contract violations (spec.md §7) as early as possible.

const (
	// CoalesceValidationEnabled re-checks, after solve_heuristic, that no
	// interfering pair shares a color and that every color is within its
	// class's allocatable set (spec.md §8 properties 1-2).
	CoalesceValidationEnabled = true
	// LivenessValidationEnabled cross-checks the exact and companion
	// interference checkers against each other (spec.md §8 property 6).
	LivenessValidationEnabled = true
)
