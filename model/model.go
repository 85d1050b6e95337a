// Package model is the immutable, post-load input to the simulation
// kernel: lattice geometry, particles, pair/cluster interaction tables,
// jump directions/rules, and the job header (spec.md §4.1). It is never
// mutated once loaded.
package model

import (
	"fmt"

	"github.com/mocsim/mocsim/mocerr"
)

// JPOOL_DIRCOUNT_STATIC is the jumpCount sentinel for a (position,particle)
// combination that is not stable: the particle is not allowed at the
// position or is in its StaticParticles mask. Sites with this count have
// IsStable false (spec.md §4.3).
const JPOOL_DIRCOUNT_STATIC int32 = -1

// InputLattice is the initial particle occupation of every site, in the
// dense (a,b,c,d) linear order, plus each site's position (sub-lattice)
// type id.
type InputLattice struct {
	Extents      Extents
	ParticleIDs  []uint8 // len = Na*Nb*Nc*Nd
	PositionIDs  []int   // len = Na*Nb*Nc*Nd, same order
}

// Model is the immutable post-load input. Accessors are by index; nothing
// here is mutated after Normalize succeeds.
type Model struct {
	Lattice         InputLattice
	Blocks          Blocks
	PairTables      []*PairTable
	ClusterTables   []*ClusterTable
	EnvironmentDefs []*EnvironmentDefinition
	JumpCollections []*JumpCollection
	// JumpDirections is one dense sequence sorted by jump-collection id;
	// each collection references a contiguous sub-sequence by [begin,end)
	// (spec.md §4.1).
	JumpDirections []*JumpDirection
	Header         Header

	normalized bool
}

func (m *Model) SiteCount() int { return len(m.Lattice.ParticleIDs) }

func (m *Model) PairTable(id int) *PairTable { return m.PairTables[id] }

func (m *Model) ClusterTable(id int) *ClusterTable { return m.ClusterTables[id] }

func (m *Model) EnvironmentDef(positionID int) *EnvironmentDefinition {
	return m.EnvironmentDefs[positionID]
}

func (m *Model) JumpCollection(id int) *JumpCollection { return m.JumpCollections[id] }

func (m *Model) JumpDirection(id int) *JumpDirection { return m.JumpDirections[id] }

// DirectionsOf returns the sub-slice of JumpDirections belonging to
// collection id, using its precomputed [begin,end) bounds.
func (m *Model) DirectionsOf(collectionID int) []*JumpDirection {
	c := m.JumpCollections[collectionID]
	return m.JumpDirections[c.DirectionsBegin:c.DirectionsEnd]
}

// JumpCount returns the number of outgoing directions available to
// particleID at a site of the given position type, or
// JPOOL_DIRCOUNT_STATIC if the particle is not allowed at that position or
// is in its StaticParticles mask (spec.md §4.3/§4.4).
func (m *Model) JumpCount(positionID int, particleID uint8) int32 {
	def := m.EnvironmentDefs[positionID]
	if !def.IsAllowed(particleID) {
		return JPOOL_DIRCOUNT_STATIC
	}
	if def.StaticParticles.Has(particleID) {
		return JPOOL_DIRCOUNT_STATIC
	}
	return int32(len(m.DirectionsFor(positionID, particleID)))
}

// DirectionsFor returns, in a stable order (collections in model order,
// directions within each collection's [begin,end) in order), every
// JumpDirection usable by particleID starting from a site of the given
// position type. The selection pool indexes into this same sequence
// (spec.md §4.4: "direction_index_within_pool"), so this is the single
// place that ordering is defined.
func (m *Model) DirectionsFor(positionID int, particleID uint8) []*JumpDirection {
	var out []*JumpDirection
	for _, c := range m.JumpCollections {
		if !c.MobileParticleMask.Has(particleID) {
			continue
		}
		for _, d := range m.JumpDirections[c.DirectionsBegin:c.DirectionsEnd] {
			if d.StartPositionID == positionID {
				out = append(out, d)
			}
		}
	}
	return out
}

// Normalize performs the post-load, one-linear-scan computation of each
// jump collection's [begin,end) bounds into JumpDirections, per spec.md
// §4.1. JumpDirections must already be sorted by JumpCollectionID; this
// is validated as part of the scan, returning DataConsistency on
// violation (spec.md §7: initialization errors are fatal).
func (m *Model) Normalize() error {
	for i := range m.JumpCollections {
		m.JumpCollections[i].DirectionsBegin = 0
		m.JumpCollections[i].DirectionsEnd = 0
	}

	lastCollection := -1
	begin := 0
	for i, d := range m.JumpDirections {
		if d.JumpCollectionID < lastCollection {
			return mocerr.Newf(mocerr.DataConsistency, "model.Normalize",
				"jump directions not sorted by collection id at index %d (collection %d after %d)",
				i, d.JumpCollectionID, lastCollection)
		}
		if d.JumpCollectionID != lastCollection {
			if lastCollection >= 0 {
				if err := m.closeRun(lastCollection, begin, i); err != nil {
					return err
				}
			}
			lastCollection = d.JumpCollectionID
			begin = i
		}
	}
	if lastCollection >= 0 {
		if err := m.closeRun(lastCollection, begin, len(m.JumpDirections)); err != nil {
			return err
		}
	}

	if err := m.validateLattice(); err != nil {
		return err
	}

	m.normalized = true
	return nil
}

func (m *Model) closeRun(collectionID, begin, end int) error {
	if collectionID < 0 || collectionID >= len(m.JumpCollections) {
		return mocerr.Newf(mocerr.DataConsistency, "model.closeRun", "jump direction references unknown collection id %d", collectionID)
	}
	m.JumpCollections[collectionID].DirectionsBegin = begin
	m.JumpCollections[collectionID].DirectionsEnd = end
	return nil
}

// validateLattice checks spec.md §3's invariant: the particle id for a
// "stable" site lies in its environment definition's allowed mask; for
// unstable sites it is 0 (void).
func (m *Model) validateLattice() error {
	for i, pid := range m.Lattice.ParticleIDs {
		posID := m.Lattice.PositionIDs[i]
		if posID < 0 || posID >= len(m.EnvironmentDefs) {
			return mocerr.Newf(mocerr.DataConsistency, "model.validateLattice",
				"site %d references unknown position id %d", i, posID)
		}
		def := m.EnvironmentDefs[posID]
		stable := m.JumpCount(posID, pid) != JPOOL_DIRCOUNT_STATIC
		switch {
		case stable && !def.IsAllowed(pid):
			return mocerr.Newf(mocerr.DataConsistency, "model.validateLattice",
				"site %d: particle %d not allowed at stable position %d", i, pid, posID)
		case !stable && pid != ParticleVoid:
			return mocerr.Newf(mocerr.DataConsistency, "model.validateLattice",
				"site %d: unstable position %d must hold void (0), got particle %d", i, posID, pid)
		}
	}
	return nil
}

// Normalized reports whether Normalize has completed successfully.
func (m *Model) Normalized() bool { return m.normalized }

func (m *Model) String() string {
	return fmt.Sprintf("model(sites=%d, pairTables=%d, clusterTables=%d, envDefs=%d, collections=%d, directions=%d)",
		m.SiteCount(), len(m.PairTables), len(m.ClusterTables), len(m.EnvironmentDefs), len(m.JumpCollections), len(m.JumpDirections))
}
