// Package testfixture builds a small, fully-wired model shared by the
// kernel packages' tests: a 4-site periodic chain with one mobile
// species, one framework species that has no jump directions, and a
// single jump direction connecting
// neighboring sites. It mirrors sim/internal/testutil's role as shared
// test infrastructure, but for the lattice kernel rather than golden
// datasets.
package testfixture

import (
	"github.com/mocsim/mocsim/jobconfig"
	"github.com/mocsim/mocsim/model"
	"github.com/mocsim/mocsim/rng"
	"github.com/mocsim/mocsim/transition"
	"github.com/mocsim/mocsim/vec3"
)

// Particle ids used throughout the fixture. ParticleFramework is stable
// and allowed, but belongs to no jump collection, so it registers as a
// passive-mobile (bucket-0) site: present and stable, never selectable.
const (
	ParticleMobile    uint8 = 1
	ParticleFramework uint8 = 2
)

// NewModel builds a 1x1x4x1 periodic chain: site 0 holds a mobile
// particle, site 1 is void, site 2 holds a framework particle, site 3 is
// void. The single jump direction lets a mobile particle hop to its
// +C neighbor.
func NewModel() *model.Model {
	ext := model.Extents{Na: 1, Nb: 1, Nc: 4, Nd: 1}

	def := &model.EnvironmentDefinition{
		PositionID:       0,
		SelectionMask:    model.MaskFor(ParticleMobile),
		AllowedParticles: model.MaskFor(model.ParticleVoid) | model.MaskFor(ParticleMobile) | model.MaskFor(ParticleFramework),
		PairInteractions: []model.PairInteraction{
			{Offset: model.Coord4{C: 1}, PairTableID: 0},
			{Offset: model.Coord4{C: -1}, PairTableID: 0},
		},
	}

	pairTable := model.NewPairTable(0, map[[2]uint8]float64{
		{ParticleMobile, model.ParticleVoid}:    0.1,
		{ParticleMobile, ParticleFramework}:      0.5,
		{ParticleFramework, model.ParticleVoid}: 0.2,
	})

	dir := &model.JumpDirection{
		ID:                  0,
		StartPositionID:     0,
		JumpSequence:        []model.Coord4{{}, {C: 1}},
		MovementVectors:     []vec3.Vec3{{}, {X: 1}},
		JumpCollectionID:    0,
		ElectricFieldFactor: 1.0,
	}

	rule := model.JumpRule{
		ID:                     0,
		State0:                 []uint8{ParticleMobile, model.ParticleVoid},
		State1:                 []uint8{ParticleMobile, model.ParticleVoid},
		State2:                 []uint8{model.ParticleVoid, ParticleMobile},
		AttemptFrequencyFactor: 1.0,
		StaticActivationEnergy: 0,
		TrackerOrderCode:       []int{1, 0},
		MobileParticleMask:     model.MaskFor(ParticleMobile),
	}

	collection := &model.JumpCollection{
		ID:                 0,
		MobileParticleMask: model.MaskFor(ParticleMobile),
		Rules:              []model.JumpRule{rule},
	}

	m := &model.Model{
		Lattice: model.InputLattice{
			Extents:     ext,
			ParticleIDs: []uint8{ParticleMobile, model.ParticleVoid, ParticleFramework, model.ParticleVoid},
			PositionIDs: []int{0, 0, 0, 0},
		},
		Blocks:          model.BlocksFor(ext),
		PairTables:      []*model.PairTable{pairTable},
		EnvironmentDefs: []*model.EnvironmentDefinition{def},
		JumpCollections: []*model.JumpCollection{collection},
		JumpDirections:  []*model.JumpDirection{dir},
		Header: model.Header{
			Variant:             model.JobKMC,
			TemperatureKelvin:   300,
			NormalizationFactor: 1.0,
		},
	}

	if err := m.Normalize(); err != nil {
		panic(err)
	}
	return m
}

// NewContext wires a transition.Context around NewModel() with the given
// RNG, mode, and frequency-pre-rejection flag.
func NewContext(g *rng.PCG32, fastExp jobconfig.FastExpMode, useFreqPreRejection bool) (*transition.Context, error) {
	return transition.NewContext(NewModel(), 300, 0, fastExp, useFreqPreRejection, g)
}

// DeterministicRNG returns a PCG32 seeded from a fixed state/increment
// pair so tests are reproducible.
func DeterministicRNG() *rng.PCG32 {
	return rng.NewPCG32(12345, 1)
}
