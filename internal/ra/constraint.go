package ra

// ConstraintFlags is a bitset of the tagged flags a Constraint carries.
// Grounded on the teacher's habit of keeping several optional hints as
// plain fields on one struct (node.copyFromReal/copyToReal/copyFromVReg/
// copyToVReg) rather than a sum type: spec.md §3 describes a record with
// flags plus fields, which this mirrors directly.
type ConstraintFlags uint8

const (
	// Ignore means the value is not allocated by this engine at all.
	Ignore ConstraintFlags = 1 << iota
	// Limited means only the registers in Constraint.Limited are
	// admissible.
	Limited
	// ShouldBeSame means the value prefers to share a color with the
	// operand(s) named by Constraint.SameMask (a two-address hint).
	ShouldBeSame
	// MustBeDifferent is a pass-through hint for downstream collaborators.
	MustBeDifferent
	// Aligned is a pass-through hint for downstream collaborators.
	Aligned
	// ProducesSP is a pass-through hint for downstream collaborators.
	ProducesSP
)

// Constraint is the per-value or per-operand constraint record of spec.md
// §3.
type Constraint struct {
	Flags ConstraintFlags
	// Limited is the admissible register bitset when Flags&Limited != 0.
	Limited RegSet
	// SameMask selects which input positions should-be-same applies to
	// when Flags&ShouldBeSame != 0 (a two-address hint).
	SameMask uint32
	// Width is the number of consecutive register indices this value
	// requires. The engine passes this through; an OU root or member with
	// Width > 1 is rejected at OU-construction time (spec.md §9).
	Width int
}

// Is reports whether f is set on c.
func (c Constraint) Is(f ConstraintFlags) bool { return c.Flags&f != 0 }
