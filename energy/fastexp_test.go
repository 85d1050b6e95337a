package energy_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/energy"
	"github.com/mocsim/mocsim/jobconfig"
)

func TestFastExp_ExactModeMatchesMathExp(t *testing.T) {
	for _, x := range []float64{-30, -10, -1, 0} {
		require.Equal(t, math.Exp(x), energy.FastExp(x, jobconfig.FastExpExact))
	}
}

func TestFastExp_UnknownModeFallsBackToMathExp(t *testing.T) {
	require.Equal(t, math.Exp(-5), energy.FastExp(-5, jobconfig.FastExpMode("bogus")))
	require.Equal(t, math.Exp(-5), energy.FastExp(-5, ""))
}

// TestFastExp_StaysWithinDocumentedRelativeErrorBound covers the bit-trick
// approximation's documented behavior over x in [-30, 0]: every mode should
// track math.Exp within a generous relative error, never diverging by
// orders of magnitude.
func TestFastExp_StaysWithinDocumentedRelativeErrorBound(t *testing.T) {
	modes := []jobconfig.FastExpMode{
		jobconfig.FastExpRMS,
		jobconfig.FastExpMean,
		jobconfig.FastExpUpper,
		jobconfig.FastExpLower,
	}
	const relErrBound = 0.15

	for _, mode := range modes {
		for x := -30.0; x <= 0; x += 0.5 {
			want := math.Exp(x)
			got := energy.FastExp(x, mode)
			relErr := math.Abs(got-want) / want
			require.Lessf(t, relErr, relErrBound,
				"mode %v at x=%v: got %v want %v (relErr %v)", mode, x, got, want, relErr)
		}
	}
}

func TestFastExp_IsMonotonicNondecreasingInX(t *testing.T) {
	prev := energy.FastExp(-30, jobconfig.FastExpRMS)
	for x := -29.5; x <= 0; x += 0.5 {
		cur := energy.FastExp(x, jobconfig.FastExpRMS)
		require.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}
