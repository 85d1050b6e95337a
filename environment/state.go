// Package environment implements the per-site environment lattice
// (spec.md §3/§4.3): dense environment states, initialized from the
// model, carrying the flags and pool/tracker indices the selection pool
// and transition protocol mutate.
package environment

import "github.com/mocsim/mocsim/model"

// Sentinel values for "no pool slot" / "no tracker" per spec.md §3.
const (
	NotSelectable = -1
	NoTracker     = -1
)

// State is one site's environment state (spec.md §3): position, current
// particle id, stability/mobility flags, pool bookkeeping, tracker index,
// the environment definition pointer, and cached per-interaction energy
// partials so total site energy is O(1) to read.
type State struct {
	Position Position

	ParticleID uint8
	IsStable   bool
	IsMobile   bool

	PoolID       int // sentinel NotSelectable
	PoolPosition int // index within pool.entries, valid only if PoolID != NotSelectable

	MobileTrackerID int // sentinel NoTracker

	Def *model.EnvironmentDefinition

	pairEnergy    float64
	clusterEnergy float64
}

// Position mirrors model.Coord4 plus the derived linear site index, kept
// alongside the state so trackers/pools don't need a back-reference to
// the lattice to print diagnostics.
type Position struct {
	Coord  model.Coord4
	Linear int
}

// Energy returns the site's total cached interaction energy (pair +
// cluster contributions), available in O(1) per spec.md §4.3.
func (s *State) Energy() float64 { return s.pairEnergy + s.clusterEnergy }

// EnergyPartials exposes the cached pair/cluster energy partials for
// backup/restore by the transition protocol (spec.md §4.6).
func (s *State) EnergyPartials() (pair, cluster float64) { return s.pairEnergy, s.clusterEnergy }

// SetEnergyPartials restores previously-captured pair/cluster energy
// partials.
func (s *State) SetEnergyPartials(pair, cluster float64) {
	s.pairEnergy = pair
	s.clusterEnergy = cluster
}
