package transition

import (
	"github.com/mocsim/mocsim/energy"
	"github.com/mocsim/mocsim/jobconfig"
)

// mmcSwapOrder is the tracker-identity permutation for a two-site MMC
// exchange: slot 0's mobile tracker moves to slot 1 and vice versa.
var mmcSwapOrder = []int{1, 0}

// MmcCycle executes one standard Metropolis Monte Carlo exchange cycle per
// spec.md §4.6: identical site selection to KMC, but the jump path has
// length 2 and its second site is an independently drawn partner offset;
// on accept the two occupations are swapped and no simulated time
// advances.
func MmcCycle(ctx *Context) (CycleResult, error) {
	return mmcCycleImpl(ctx, 1.0)
}

// MmcAlphaCycle executes one MMC-with-α cycle per spec.md §4.6: identical
// mechanics to MmcCycle, but the acceptance test linearly scales the
// energy term by alpha (used by the MMCFE routine's free-energy sweep).
func MmcAlphaCycle(ctx *Context, alpha float64) (CycleResult, error) {
	return mmcCycleImpl(ctx, alpha)
}

func mmcCycleImpl(ctx *Context, alpha float64) (CycleResult, error) {
	sel, err := ctx.Pool.Select(ctx.RNG)
	if err != nil {
		return CycleResult{}, err
	}
	siteA := sel.Site
	siteB := ctx.Pool.SelectPartner(ctx.RNG)

	a := &ctx.Lattice.Sites[siteA]
	b := &ctx.Lattice.Sites[siteB]
	countingParticle := a.ParticleID

	if siteA == siteB || !a.IsStable || !b.IsStable {
		ctx.Counters.For(countingParticle).UnstableStartCount++
		return CycleResult{Outcome: OutcomeUnstableStart, Particle: countingParticle}, nil
	}

	if !b.Def.IsAllowed(a.ParticleID) || !a.Def.IsAllowed(b.ParticleID) {
		ctx.Counters.For(countingParticle).SiteBlockingCount++
		return CycleResult{Outcome: OutcomeSiteBlocked, Particle: countingParticle}, nil
	}

	path := []int{siteA, siteB}

	result := ctx.Energy.EvaluateExchange(siteA, siteB)
	p := mmcAcceptanceProbability(result.ConformationDeltaEnergy, alpha, ctx.FastExpMode)
	u := ctx.RNG.Float64()

	if u >= p {
		ctx.Counters.For(countingParticle).RejectionCount++
		return CycleResult{Outcome: OutcomeRejected, Particle: countingParticle}, nil
	}

	backup := captureBackup(ctx.Lattice, path)

	a.ParticleID, b.ParticleID = b.ParticleID, a.ParticleID
	recomputeAffected(ctx, path)

	unstableEnd := false
	for _, idx := range path {
		ctx.Lattice.RefreshStability(idx)
		if !ctx.Lattice.Sites[idx].IsStable {
			unstableEnd = true
		}
	}
	if unstableEnd {
		ctx.Counters.For(countingParticle).UnstableEndCount++
	}

	permuteTrackers(ctx.Lattice, path, mmcSwapOrder, backup)

	poolChanged := false
	for _, idx := range path {
		if ctx.Pool.Update(idx) {
			poolChanged = true
		}
	}

	ctx.Counters.For(countingParticle).McsCount++

	return CycleResult{
		Outcome:     OutcomeAccepted,
		Particle:    countingParticle,
		UnstableEnd: unstableEnd,
		PoolChanged: poolChanged,
	}, nil
}

// mmcAcceptanceProbability implements spec.md §4.6's MMC acceptance test:
// P = min(1, exp(-alpha·ΔE/kT)). deltaEnergyKt is already expressed in kT,
// so the fastExp argument is simply -alpha·deltaEnergyKt. alpha=1 recovers
// the standard Metropolis test used by MmcCycle.
func mmcAcceptanceProbability(deltaEnergyKt, alpha float64, mode jobconfig.FastExpMode) float64 {
	p := energy.FastExp(-alpha*deltaEnergyKt, mode)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
