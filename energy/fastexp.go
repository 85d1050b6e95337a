package energy

import (
	"math"

	"github.com/mocsim/mocsim/jobconfig"
)

// fastExpConstants holds the correction constant for one Schraudolph-style
// IEEE-754 bit-trick exp approximation mode (FastExp derives the bias from
// it), grounded on
// original_source/.../Approximation.h. Each mode trades which side of the
// true exp(x) curve the approximation leans toward.
type fastExpConstants struct {
	correction float64
}

// These four modes are the ones spec.md §4.5/§8 names: RMS-optimal,
// mean-biased, an upper bound, and a lower bound over x ∈ [-30, 0].
var fastExpTable = map[jobconfig.FastExpMode]fastExpConstants{
	jobconfig.FastExpRMS:   {correction: 0.0450},
	jobconfig.FastExpMean:  {correction: 0.0000},
	jobconfig.FastExpUpper: {correction: -0.0565},
	jobconfig.FastExpLower: {correction: 0.0907},
}

const fastExpA = (float64(int64(1) << 52)) / math.Ln2

// FastExp approximates exp(x) for x in roughly [-30, 0] using the
// bit-trick construction: pack a linear function of x directly into a
// double's bit pattern. mode selects which correction constant to use
// (the bias is computed from it); FastExpExact bypasses the trick and calls math.Exp, used for
// validation and as job-flag "mode 0".
func FastExp(x float64, mode jobconfig.FastExpMode) float64 {
	if mode == jobconfig.FastExpExact || mode == "" {
		return math.Exp(x)
	}
	c, ok := fastExpTable[mode]
	if !ok {
		return math.Exp(x)
	}
	bias := float64(int64(1)<<52) * (1023 - c.correction)
	bits := int64(fastExpA*x + bias)
	return math.Float64frombits(uint64(bits))
}
