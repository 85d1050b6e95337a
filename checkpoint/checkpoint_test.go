package checkpoint_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/checkpoint"
	"github.com/mocsim/mocsim/internal/testfixture"
	"github.com/mocsim/mocsim/jobconfig"
	"github.com/mocsim/mocsim/stateimage"
	"github.com/mocsim/mocsim/tracking"
	"github.com/mocsim/mocsim/transition"
)

func TestBuildRestore_RoundTripsLatticeAndCounters(t *testing.T) {
	ctx, err := testfixture.NewContext(testfixture.DeterministicRNG(), jobconfig.FastExpExact, false)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		_, err := transition.KmcCycle(ctx)
		require.NoError(t, err)
	}

	wantSimTime := ctx.SimTime
	wantOccupation := make([]uint8, len(ctx.Lattice.Sites))
	for i := range ctx.Lattice.Sites {
		wantOccupation[i] = ctx.Lattice.Sites[i].ParticleID
	}
	wantMcs := ctx.Counters.TotalMcsCount()

	img, err := checkpoint.Build(ctx, 0)
	require.NoError(t, err)

	restoreCtx, err := testfixture.NewContext(testfixture.DeterministicRNG(), jobconfig.FastExpExact, false)
	require.NoError(t, err)

	header, err := checkpoint.Restore(img, restoreCtx)
	require.NoError(t, err)
	require.Equal(t, uint32(0), header.Flags)

	require.InDelta(t, wantSimTime, restoreCtx.SimTime, 1e-12)
	require.Equal(t, wantMcs, restoreCtx.Counters.TotalMcsCount())
	for i := range restoreCtx.Lattice.Sites {
		require.Equal(t, wantOccupation[i], restoreCtx.Lattice.Sites[i].ParticleID, "site %d", i)
	}
	require.True(t, restoreCtx.Pool.Invariant1())
	require.True(t, restoreCtx.Pool.Invariant2())
}

// TestBuild_IsByteIdentical covers spec.md §8's round-trip property
// directly: two Build calls over the same logical state, with no cycles
// run between them, must emit byte-identical images. This is the property
// map iteration order could silently break without a sort.
func TestBuild_IsByteIdentical(t *testing.T) {
	ctx, err := testfixture.NewContext(testfixture.DeterministicRNG(), jobconfig.FastExpExact, false)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err := transition.KmcCycle(ctx)
		require.NoError(t, err)
	}

	imgA, err := checkpoint.Build(ctx, 0)
	require.NoError(t, err)
	imgB, err := checkpoint.Build(ctx, 0)
	require.NoError(t, err)

	require.True(t, bytes.Equal(imgA.Buffer(), imgB.Buffer()), "two Build calls over identical state must be byte-identical")
}

// TestBuildRestore_ResumedRunMatchesUninterruptedRun is spec.md §8 literal
// scenario 6: simulating N more cycles from a restored context must match
// an uninterrupted run of N+N cycles, byte-for-byte in the saved image.
func TestBuildRestore_ResumedRunMatchesUninterruptedRun(t *testing.T) {
	uninterrupted, err := testfixture.NewContext(testfixture.DeterministicRNG(), jobconfig.FastExpExact, false)
	require.NoError(t, err)
	for i := 0; i < 20_000; i++ {
		_, err := transition.KmcCycle(uninterrupted)
		require.NoError(t, err)
	}
	wantImg, err := checkpoint.Build(uninterrupted, 0)
	require.NoError(t, err)

	resumable, err := testfixture.NewContext(testfixture.DeterministicRNG(), jobconfig.FastExpExact, false)
	require.NoError(t, err)
	for i := 0; i < 10_000; i++ {
		_, err := transition.KmcCycle(resumable)
		require.NoError(t, err)
	}
	midImg, err := checkpoint.Build(resumable, 0)
	require.NoError(t, err)

	resumed, err := testfixture.NewContext(testfixture.DeterministicRNG(), jobconfig.FastExpExact, false)
	require.NoError(t, err)
	_, err = checkpoint.Restore(midImg, resumed)
	require.NoError(t, err)
	for i := 0; i < 10_000; i++ {
		_, err := transition.KmcCycle(resumed)
		require.NoError(t, err)
	}
	gotImg, err := checkpoint.Build(resumed, 0)
	require.NoError(t, err)

	require.True(t, bytes.Equal(wantImg.Buffer(), gotImg.Buffer()),
		"10k+10k resumed run must byte-match an uninterrupted 20k run")
}

func TestBuildRestore_PreservesSimErrorFlag(t *testing.T) {
	ctx, err := testfixture.NewContext(testfixture.DeterministicRNG(), jobconfig.FastExpExact, false)
	require.NoError(t, err)

	img, err := checkpoint.Build(ctx, stateimage.FlagSimError)
	require.NoError(t, err)

	restoreCtx, err := testfixture.NewContext(testfixture.DeterministicRNG(), jobconfig.FastExpExact, false)
	require.NoError(t, err)
	header, err := checkpoint.Restore(img, restoreCtx)
	require.NoError(t, err)
	require.NotZero(t, header.Flags&stateimage.FlagSimError)
}

func TestRestoreJumpStatistics_MatchesBuild(t *testing.T) {
	ctx, err := testfixture.NewContext(testfixture.DeterministicRNG(), jobconfig.FastExpExact, false)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		_, err := transition.KmcCycle(ctx)
		require.NoError(t, err)
	}

	img, err := checkpoint.Build(ctx, 0)
	require.NoError(t, err)

	stats, err := checkpoint.RestoreJumpStatistics(img)
	require.NoError(t, err)
	require.NotNil(t, stats)

	var wantEntries, gotEntries int
	var wantTotal, gotTotal uint64
	ctx.Stats.ForEach(func(collectionID int, particle uint8, s *tracking.JumpStat) {
		wantEntries++
		wantTotal += s.EdgeEnergy.Total() + s.PosConformation.Total() + s.NegConformation.Total() + s.TotalEnergy.Total()
	})
	stats.ForEach(func(collectionID int, particle uint8, s *tracking.JumpStat) {
		gotEntries++
		gotTotal += s.EdgeEnergy.Total() + s.PosConformation.Total() + s.NegConformation.Total() + s.TotalEnergy.Total()
	})
	require.Equal(t, wantEntries, gotEntries)
	require.Equal(t, wantTotal, gotTotal)
}
