package ra

import "flag"

// Options is the CLI/option surface of spec.md §6, consumed via an
// options registry. Bound to a *flag.FlagSet rather than parsed ad hoc,
// so a caller embedding this engine in a larger compiler driver can fold
// these flags into its own flag.FlagSet instead of owning a second
// parser (see DESIGN.md for why this is stdlib rather than a pack
// library).
type Options struct {
	// Algo selects the registered co_algo by name (be.ra.chordal.co.algo).
	Algo string
	// Cost selects the copy-cost function (be.ra.chordal.co.cost).
	Cost string
	// Dump is the requested dump mask (be.ra.chordal.co.dump), parsed
	// from a comma-separated list of before,after,appel,all.
	Dump DumpMask
	// Style is a free-form dump styling mask, passed through unexamined
	// by this engine (be.ra.chordal.co.style).
	Style string
	// Stats requests the statistics report be retained after the run
	// (be.ra.chordal.co.stats).
	Stats bool
	// Improve requests a seed pass before the main solve when the
	// selected algorithm advertises CanImproveExisting (spec.md §4.D
	// step 4, CLI flag "improve").
	Improve bool
}

// DefaultOptions matches the documented defaults: the heuristic
// algorithm, frequency-based costs, no dumps, no stats, no improve pass.
func DefaultOptions() Options {
	return Options{Algo: "heur1", Cost: "freq"}
}

// RegisterFlags installs every option of spec.md §6 onto fs, defaulting
// each to o's current value. Call before fs.Parse.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.Algo, "be.ra.chordal.co.algo", o.Algo, "coalescing algorithm: none, heur1, or a registered name")
	fs.StringVar(&o.Cost, "be.ra.chordal.co.cost", o.Cost, "copy-cost function: freq, loop, or one")
	fs.Var(&dumpMaskFlag{&o.Dump}, "be.ra.chordal.co.dump", "dump mask: comma-separated before,after,appel,all")
	fs.StringVar(&o.Style, "be.ra.chordal.co.style", o.Style, "dump styling mask, passed through unexamined")
	fs.BoolVar(&o.Stats, "be.ra.chordal.co.stats", o.Stats, "retain the before/after statistics report")
	fs.BoolVar(&o.Improve, "improve", o.Improve, "seed the solver with one heuristic pass before the chosen algorithm")
}

// CostFunc resolves o.Cost to a CostFunc, panicking with a contract
// violation on an unrecognized name: a bad value here is a caller
// configuration bug, not a runtime fault (spec.md §7).
func (o Options) CostFunc() CostFunc {
	switch o.Cost {
	case "freq", "":
		return CostFreq
	case "loop":
		return CostLoopDepth
	case "one":
		return CostOne
	default:
		panicContractViolation("unrecognized be.ra.chordal.co.cost value %q", o.Cost)
		return CostFreq
	}
}

// dumpMaskFlag adapts DumpMask to flag.Value so it can be parsed from a
// comma-separated list on the command line.
type dumpMaskFlag struct{ mask *DumpMask }

func (d *dumpMaskFlag) String() string {
	if d.mask == nil {
		return ""
	}
	return d.mask.String()
}

func (d *dumpMaskFlag) Set(s string) error {
	var m DumpMask
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ',' {
			continue
		}
		switch s[start:i] {
		case "before":
			m |= DumpBefore
		case "after":
			m |= DumpAfter
		case "appel":
			m |= DumpAppel
		case "all":
			m |= DumpAll
		case "":
		default:
			panicContractViolation("unrecognized be.ra.chordal.co.dump term %q", s[start:i])
		}
		start = i + 1
	}
	*d.mask = m
	return nil
}

// String renders m as the comma-separated term list RegisterFlags parses.
func (m DumpMask) String() string {
	var parts []string
	if m&DumpBefore != 0 {
		parts = append(parts, "before")
	}
	if m&DumpAfter != 0 {
		parts = append(parts, "after")
	}
	if m&DumpAppel != 0 {
		parts = append(parts, "appel")
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
