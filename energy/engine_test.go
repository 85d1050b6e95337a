package energy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/energy"
	"github.com/mocsim/mocsim/environment"
	"github.com/mocsim/mocsim/internal/testfixture"
)

func TestEvaluate_S1EnergyIncludesElectricFieldTerm(t *testing.T) {
	m := testfixture.NewModel()
	lattice, err := environment.NewLattice(m)
	require.NoError(t, err)

	eng := energy.New(lattice)
	rule := &m.JumpCollections[0].Rules[0]
	dir := m.JumpDirections[0]
	path := lattice.ResolvePath(0, dir.JumpSequence)

	noField := eng.Evaluate(path, rule, dir, 300, 0)
	withField := eng.Evaluate(path, rule, dir, 300, 1.0)

	require.Equal(t, 0.0, noField.S1Energy, "zero field strength must contribute no S1 term")
	require.NotEqual(t, withField.S1Energy, noField.S1Energy)
}

func TestEvaluate_ConformationDeltaEqualsS0toS2Delta(t *testing.T) {
	m := testfixture.NewModel()
	lattice, err := environment.NewLattice(m)
	require.NoError(t, err)

	eng := energy.New(lattice)
	rule := &m.JumpCollections[0].Rules[0]
	dir := m.JumpDirections[0]
	path := lattice.ResolvePath(0, dir.JumpSequence)

	result := eng.Evaluate(path, rule, dir, 300, 0)
	require.Equal(t, result.ConformationDeltaEnergy, result.S0toS2DeltaEnergy)
}

func TestEvaluateExchange_HasZeroS1EnergyAndMatchingDeltas(t *testing.T) {
	m := testfixture.NewModel()
	lattice, err := environment.NewLattice(m)
	require.NoError(t, err)

	eng := energy.New(lattice)
	result := eng.EvaluateExchange(0, 2)

	require.Equal(t, 0.0, result.S1Energy)
	require.Equal(t, result.ConformationDeltaEnergy, result.S0toS2DeltaEnergy)
}

func TestEffectiveBarrier_AddsUphillConformationDeltaOnly(t *testing.T) {
	uphill := energy.Result{S1Energy: 1.0, ConformationDeltaEnergy: 2.0}
	require.Equal(t, 3.0, uphill.EffectiveBarrier())

	downhill := energy.Result{S1Energy: 1.0, ConformationDeltaEnergy: -2.0}
	require.Equal(t, 1.0, downhill.EffectiveBarrier())
}
