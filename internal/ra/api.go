// Package ra implements the copy-minimization register-coloring engine:
// given an SSA function, an interference predicate derived from liveness,
// and a register class, it colors values so that the weighted cost of
// copies emitted during SSA destruction and two-address fix-up is
// minimized.
//
// The engine never touches IR directly; all access goes through the
// interfaces in this file, which ISA/IR-specific backends implement. This
// mirrors the teacher's abstraction boundary (backend/regalloc.Function):
// the engine works over any CFG that can answer these questions.
package ra

// These interfaces are implemented by the caller's SSA/IR layer. The
// engine treats IR construction, instruction selection, scheduling,
// stack-frame/ABI lowering, and object-code emission as external
// collaborators reachable only through here.
type (
	// Function is the top-level collaborator, corresponding to one CFG.
	Function interface {
		// PostOrderBegin/PostOrderNext iterate the CFG in postorder (exits
		// first). Only one iteration may be in flight at a time.
		PostOrderBegin() Block
		PostOrderNext() Block
		// Dominators returns the dominator tree for this CFG.
		Dominators() DomTree
		// LoopDepth returns the loop nesting depth of b (0 if not in a loop).
		LoopDepth(b Block) int
	}

	// DomTree exposes the dominator tree the driver obtained from the IR
	// collaborator (spec.md §6 "dominator tree walk").
	DomTree interface {
		// Children returns the immediate dominator-tree children of b.
		Children(b Block) []Block
		// Dominates reports whether a dominates b (reflexive: a
		// dominates itself). Used by the interference predicate to
		// order a pair of definitions without a separate numbering
		// pass.
		Dominates(a, b Block) bool
	}

	// Block is a basic block: a sequence of Values in program order plus
	// its CFG predecessors.
	Block interface {
		// ID is a dense, per-function identifier suitable for array
		// indexing.
		ID() int
		// Values returns the values defined in this block, in program
		// order. Phis come first, matching normal SSA block layout.
		Values() []Value
		// Preds returns the CFG predecessors of this block. For a phi
		// value defined in this block, operand index i corresponds to
		// Preds()[i] (spec.md §4.L "cfg_pred_block(U,p)").
		Preds() []Block
		// Freq is the execution-frequency integer factor for this block,
		// supplied by the IR collaborator (spec.md §4.C).
		Freq() int64
	}

	// Value is one SSA definition.
	Value interface {
		// ID is a dense, per-function identifier suitable for array
		// indexing and as a liveness-set sort key.
		ID() ValueID
		// Block is the block this value is defined in.
		Block() Block
		// Class is the register class this value belongs to.
		Class() *RegClass
		// Constraint is this value's constraint record (spec.md §3).
		Constraint() Constraint
		// IsPhi reports whether this value is a block-header phi.
		IsPhi() bool
		// IsPermProjection reports whether this value is the projection
		// of a Perm node (a parallel-copy split).
		IsPermProjection() bool
		// Arity returns the number of operands accessible via In.
		// For a phi, this is len(Block().Preds()). For a perm
		// projection, this is 1 (the Perm source). For any other value
		// it is the instruction's normal operand count.
		Arity() int
		// In returns the i-th operand.
		In(i int) Value
		// Color returns the currently assigned physical register, or
		// RealRegInvalid if none has been assigned yet.
		Color() RealReg
		// SetColor installs r as this value's final (or, during
		// recoloring trial bookkeeping, virtual) color.
		SetColor(r RealReg)
		// Uses returns every (user, operand-position) pair referencing
		// this value as an operand: the out-edges of this value in the
		// SSA graph (spec.md §6 "out-edges iteration"). Order is
		// unspecified but must be stable across repeated calls between
		// mutations.
		Uses() []Use
	}

	// Use is one edge from a user back to an operand it references.
	Use struct {
		User Value
		Pos  int
	}
)
