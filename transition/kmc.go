package transition

import (
	"github.com/mocsim/mocsim/energy"
	"github.com/mocsim/mocsim/environment"
	"github.com/mocsim/mocsim/jobconfig"
	"github.com/mocsim/mocsim/mocerr"
	"github.com/mocsim/mocsim/model"
	"github.com/mocsim/mocsim/tracking"
	"github.com/mocsim/mocsim/units"
)

// Outcome classifies what happened to a single cycle, for the scheduler's
// bookkeeping and the abort-condition success-rate computation (spec.md
// §4.6/§4.8).
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeRejected
	OutcomeSiteBlocked
	OutcomeUnstableStart
	OutcomeSkipped
)

// CycleResult reports what a single KMC/MMC cycle did.
type CycleResult struct {
	Outcome      Outcome
	Particle     uint8
	UnstableEnd  bool
	PoolChanged  bool // spec.md §4.4 "Return signal": did SelectableJumpCount change
	DeltaSimTime float64
}

// KmcCycle executes one kinetic Monte Carlo cycle per spec.md §4.6.
func KmcCycle(ctx *Context) (CycleResult, error) {
	sel, err := ctx.Pool.Select(ctx.RNG)
	if err != nil {
		return CycleResult{}, err
	}

	site := &ctx.Lattice.Sites[sel.Site]
	posID := ctx.Lattice.Model.Lattice.PositionIDs[sel.Site]
	countingParticle := site.ParticleID

	directions := ctx.Model.DirectionsFor(posID, countingParticle)
	if sel.DirectionIndexInK < 0 || sel.DirectionIndexInK >= len(directions) {
		return CycleResult{}, mocerr.Newf(mocerr.Unknown, "transition.KmcCycle",
			"selection pool drew direction index %d out of range (have %d directions for position %d particle %d)",
			sel.DirectionIndexInK, len(directions), posID, countingParticle)
	}
	dir := directions[sel.DirectionIndexInK]
	collection := ctx.Model.JumpCollection(dir.JumpCollectionID)

	path := ctx.Lattice.ResolvePath(sel.Site, dir.JumpSequence)
	pathOccupation := make([]uint8, len(path))
	for i, idx := range path {
		pathOccupation[i] = ctx.Lattice.Sites[idx].ParticleID
	}

	rule := collection.MatchingRule(pathOccupation)
	if rule == nil {
		ctx.Counters.For(countingParticle).SiteBlockingCount++
		return CycleResult{Outcome: OutcomeSiteBlocked, Particle: countingParticle}, nil
	}

	for _, idx := range path {
		if !ctx.Lattice.Sites[idx].IsStable {
			ctx.Counters.For(countingParticle).UnstableStartCount++
			return CycleResult{Outcome: OutcomeUnstableStart, Particle: countingParticle}, nil
		}
	}

	const frequencyEpsilon = 1e-12
	if ctx.UseFrequencyPreRejection && rule.AttemptFrequencyFactor <= 1-frequencyEpsilon {
		if ctx.RNG.Float64() > rule.AttemptFrequencyFactor {
			ctx.Counters.For(countingParticle).SkipCount++
			return CycleResult{Outcome: OutcomeSkipped, Particle: countingParticle}, nil
		}
	}

	result := ctx.Energy.Evaluate(path, rule, dir, ctx.TemperatureKelvin, ctx.ElectricFieldEV)

	p := acceptanceProbability(rule.AttemptFrequencyFactor, result.EffectiveBarrier(), ctx.FastExpMode)
	u := ctx.RNG.Float64()

	ktToEv := units.KtToEv(ctx.TemperatureKelvin)
	ctx.Stats.Feed(dir.JumpCollectionID, countingParticle,
		result.S1Energy*ktToEv, result.ConformationDeltaEnergy*ktToEv, result.S0toS2DeltaEnergy*ktToEv)

	if u >= p {
		ctx.Counters.For(countingParticle).RejectionCount++
		return CycleResult{Outcome: OutcomeRejected, Particle: countingParticle}, nil
	}

	backup := captureBackup(ctx.Lattice, path)

	for i, idx := range path {
		ctx.Lattice.SetParticle(idx, rule.State2[i])
	}
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

	permuteTrackers(ctx.Lattice, path, rule.TrackerOrderCode, backup)
	recordMovement(ctx, path, dir, rule, backup)

	poolChanged := false
	for _, idx := range path {
		if ctx.Pool.Update(idx) {
			poolChanged = true
		}
	}

	ctx.Counters.For(countingParticle).McsCount++

	deltaT := kmcTimeStep(ctx)
	ctx.SimTime += deltaT

	return CycleResult{
		Outcome:      OutcomeAccepted,
		Particle:     countingParticle,
		UnstableEnd:  unstableEnd,
		PoolChanged:  poolChanged,
		DeltaSimTime: deltaT,
	}, nil
}

// acceptanceProbability implements spec.md §4.6 step 5:
// P = min(1, frequencyFactor · fastExp(-ΔE_effective)). Energies are
// already expressed in units of kT, so the fastExp argument is simply
// the negated effective barrier.
func acceptanceProbability(frequencyFactor, effectiveBarrier float64, mode jobconfig.FastExpMode) float64 {
	p := frequencyFactor * energy.FastExp(-effectiveBarrier, mode)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// kmcTimeStep implements spec.md §4.6 step 7:
// Δt = 1 / (normalization · selectableJumpCount · fastestRate).
func kmcTimeStep(ctx *Context) float64 {
	denom := ctx.NormalizationFactor * float64(ctx.Pool.SelectableJumpCount) * ctx.FastestRate
	if denom <= 0 {
		return 0
	}
	return 1.0 / denom
}

// recomputeAffected recomputes cached site energies for every path site
// and every site whose own interaction lists reference a path site, per
// spec.md §4.3's incremental-update contract.
func recomputeAffected(ctx *Context, path []int) {
	affected := map[int]struct{}{}
	for _, idx := range path {
		affected[idx] = struct{}{}
	}
	for _, idx := range path {
		s := &ctx.Lattice.Sites[idx]
		for _, pi := range s.Def.PairInteractions {
			remote := ctx.Lattice.LinearIndex(s.Position.Coord.Add(pi.Offset))
			affected[remote] = struct{}{}
		}
		for _, ci := range s.Def.ClusterInteractions {
			for _, off := range ci.Offsets {
				remote := ctx.Lattice.LinearIndex(s.Position.Coord.Add(off))
				affected[remote] = struct{}{}
			}
		}
	}
	for idx := range affected {
		ctx.Lattice.RecomputeSiteEnergy(idx)
	}
}

// permuteTrackers reassigns mobile-tracker ids across the path's sites per
// rule.TrackerOrderCode, using the pre-jump ids captured in backup so the
// permutation is independent of the occupation write that already
// happened (spec.md §4.6/§4.7: tracker identity follows the mobile
// particle, not the lattice site).
func permuteTrackers(lattice *environment.Lattice, path []int, order []int, backup Backup) {
	tracking.PermuteMobile(backup.MobileTrackerIDs, order, func(pathSlot, trackerID int) {
		lattice.Sites[path[pathSlot]].MobileTrackerID = trackerID
	})
}

// recordMovement feeds each path slot's displacement into the mobile,
// static, and global trackers, per spec.md §4.7. The particle credited
// with slot i's movement is the one that occupied it in state 0 (the one
// that actually traveled dir.MovementVectors[i]); its pre-jump mobile
// tracker id comes from backup so the permutation above doesn't disturb
// which displacement gets attributed to which tracker.
func recordMovement(ctx *Context, path []int, dir *model.JumpDirection, rule *model.JumpRule, backup Backup) {
	for i, siteIdx := range path {
		particle := rule.State0[i]
		if particle == model.ParticleVoid {
			continue
		}
		posID := ctx.Lattice.Model.Lattice.PositionIDs[siteIdx]
		ctx.Trackers.AddMovement(backup.MobileTrackerIDs[i], posID, particle, dir.JumpCollectionID, dir.MovementVectors[i])
	}
}
