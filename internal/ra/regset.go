package ra

import "strings"

// RegSet is a bitset over RealReg, grounded on the teacher's RegSet
// (backend/regalloc/regset.go), generalized from a hardcoded uint64 cap of
// 64 to RealRegsNumMax via a small fixed-size word array so register
// classes with more than 64 physical registers (e.g. a wide vector file)
// are still representable.
type RegSet [regSetWords]uint64

// RealRegsNumMax bounds the number of physical registers any single
// RegClass may describe.
const RealRegsNumMax = 128

const regSetWords = RealRegsNumMax / 64

// NewRegSet returns a RegSet containing exactly the given registers.
func NewRegSet(regs ...RealReg) RegSet {
	var s RegSet
	for _, r := range regs {
		s = s.Add(r)
	}
	return s
}

// Has reports whether r is a member of s.
func (s RegSet) Has(r RealReg) bool {
	if int(r) >= RealRegsNumMax {
		return false
	}
	return s[r/64]&(1<<(uint(r)%64)) != 0
}

// Add returns s with r added.
func (s RegSet) Add(r RealReg) RegSet {
	if int(r) >= RealRegsNumMax {
		return s
	}
	s[r/64] |= 1 << (uint(r) % 64)
	return s
}

// Remove returns s with r removed.
func (s RegSet) Remove(r RealReg) RegSet {
	if int(r) >= RealRegsNumMax {
		return s
	}
	s[r/64] &^= 1 << (uint(r) % 64)
	return s
}

// Intersect returns the intersection of s and o.
func (s RegSet) Intersect(o RegSet) RegSet {
	var out RegSet
	for i := range s {
		out[i] = s[i] & o[i]
	}
	return out
}

// Empty reports whether s has no members.
func (s RegSet) Empty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// Range calls f once for each member of s, in ascending order.
func (s RegSet) Range(f func(RealReg)) {
	for i := 0; i < RealRegsNumMax; i++ {
		if s.Has(RealReg(i)) {
			f(RealReg(i))
		}
	}
}

// Format renders the set as a comma-separated list of register names using
// the given name function, e.g. for diagnostics.
func (s RegSet) Format(name func(RealReg) string) string {
	var parts []string
	s.Range(func(r RealReg) { parts = append(parts, name(r)) })
	return strings.Join(parts, ",")
}
