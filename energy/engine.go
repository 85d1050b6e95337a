// Package energy computes the delta-energy contributions of a selected
// jump (spec.md §4.5): the activation-edge energy, the per-site
// conformational delta along the path, and the total state-0-to-state-2
// difference, plus the fast-exp acceptance-probability approximation.
package energy

import (
	"gonum.org/v1/gonum/floats"

	"github.com/mocsim/mocsim/environment"
	"github.com/mocsim/mocsim/model"
	"github.com/mocsim/mocsim/units"
)

// Result holds the three energy quantities spec.md §4.5 names, all in kT.
type Result struct {
	S1Energy                float64
	ConformationDeltaEnergy float64
	S0toS2DeltaEnergy       float64
}

// Engine evaluates jump energies against a fixed lattice.
type Engine struct {
	Lattice *environment.Lattice
}

// New builds an energy Engine bound to lattice.
func New(lattice *environment.Lattice) *Engine {
	return &Engine{Lattice: lattice}
}

// Evaluate computes the jump energies for a path whose current occupation
// matches rule.State0, transitioning to rule.State2, along direction dir,
// per spec.md §4.5. temperatureKelvin and electricFieldEV come from the
// job header; dir.ElectricFieldFactor projects the field onto this
// specific direction.
func (e *Engine) Evaluate(path []int, rule *model.JumpRule, dir *model.JumpDirection, temperatureKelvin, electricFieldEV float64) Result {
	s1 := rule.StaticActivationEnergy
	if electricFieldEV != 0 && dir.ElectricFieldFactor != 0 {
		s1 += units.EvToKt(temperatureKelvin) * dir.ElectricFieldFactor * electricFieldEV
	}

	state0Terms := make([]float64, len(path))
	state2Terms := make([]float64, len(path))
	for i, siteIdx := range path {
		state0Terms[i] = e.Lattice.Sites[siteIdx].Energy()
		state2Terms[i] = e.siteEnergyWithOverlay(path, i, rule.State2)
	}

	conformationDelta := floats.Sum(state2Terms) - floats.Sum(state0Terms)

	return Result{
		S1Energy:                s1,
		ConformationDeltaEnergy: conformationDelta,
		S0toS2DeltaEnergy:       conformationDelta,
	}
}

// siteEnergyWithOverlay computes the pair+cluster energy contribution of
// path[pathIdx] as if every path slot already held overlay's occupation,
// while every non-path neighbor keeps its actual current occupation
// (spec.md §4.5: "the per-site contribution uses the environment's pair
// list ... and cluster list").
func (e *Engine) siteEnergyWithOverlay(path []int, pathIdx int, overlay []uint8) float64 {
	siteIdx := path[pathIdx]
	s := &e.Lattice.Sites[siteIdx]
	def := s.Def
	self := overlay[pathIdx]

	occupationAt := func(remoteIdx int) uint8 {
		for j, p := range path {
			if p == remoteIdx {
				return overlay[j]
			}
		}
		return e.Lattice.Sites[remoteIdx].ParticleID
	}

	pairTerms := make([]float64, len(def.PairInteractions))
	for i, pi := range def.PairInteractions {
		remoteIdx := e.Lattice.LinearIndex(s.Position.Coord.Add(pi.Offset))
		pairTerms[i] = e.Lattice.Model.PairTable(pi.PairTableID).Energy(self, occupationAt(remoteIdx))
	}

	clusterTerms := make([]float64, len(def.ClusterInteractions))
	for i, ci := range def.ClusterInteractions {
		members := make([]uint8, 0, len(ci.Offsets))
		for _, off := range ci.Offsets {
			remoteIdx := e.Lattice.LinearIndex(s.Position.Coord.Add(off))
			members = append(members, occupationAt(remoteIdx))
		}
		code := model.EncodeOccupation(members)
		clusterTerms[i] = e.Lattice.Model.ClusterTable(ci.ClusterTableID).Energy(code, self)
	}

	return floats.Sum(pairTerms) + floats.Sum(clusterTerms)
}

// EvaluateExchange computes the pair+cluster energy delta of directly
// swapping the occupations of two sites (spec.md §4.6 MMC cycle). There is
// no activation-energy concept for an MMC exchange, so S1Energy is always
// 0; ConformationDeltaEnergy and S0toS2DeltaEnergy both carry the full
// swap delta.
func (e *Engine) EvaluateExchange(siteA, siteB int) Result {
	path := []int{siteA, siteB}
	overlay := []uint8{e.Lattice.Sites[siteB].ParticleID, e.Lattice.Sites[siteA].ParticleID}

	state0Terms := make([]float64, len(path))
	state2Terms := make([]float64, len(path))
	for i, siteIdx := range path {
		state0Terms[i] = e.Lattice.Sites[siteIdx].Energy()
		state2Terms[i] = e.siteEnergyWithOverlay(path, i, overlay)
	}

	delta := floats.Sum(state2Terms) - floats.Sum(state0Terms)
	return Result{S1Energy: 0, ConformationDeltaEnergy: delta, S0toS2DeltaEnergy: delta}
}

// EffectiveBarrier derives the KMC acceptance-test exponent's energy term
// from a Result: S1 plus whatever net uphill energy the conformational
// change adds, per spec.md §4.6's canonical contract (flagged in
// spec.md §9 as an implementer decision; see DESIGN.md).
func (r Result) EffectiveBarrier() float64 {
	if r.ConformationDeltaEnergy > 0 {
		return r.S1Energy + r.ConformationDeltaEnergy
	}
	return r.S1Energy
}
