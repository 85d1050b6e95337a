package environment

import (
	"github.com/mocsim/mocsim/mocerr"
	"github.com/mocsim/mocsim/model"
)

// Lattice is the dense array of environment states, indexed linearly
// (spec.md §4.3).
type Lattice struct {
	Model   *model.Model
	Extents model.Extents
	Blocks  model.Blocks
	Sites   []State
}

// NewLattice initializes the environment lattice from m: links each
// site's environment definition by sub-lattice position id, sets the
// particle id from the input lattice, and computes incremental
// per-interaction energy contributions so every site's total energy is
// O(1) after an update (spec.md §4.3).
func NewLattice(m *model.Model) (*Lattice, error) {
	if !m.Normalized() {
		return nil, mocerr.Newf(mocerr.Validation, "environment.NewLattice", "model must be Normalize()d before use")
	}

	ext := m.Lattice.Extents
	blocks := model.BlocksFor(ext)
	n := m.SiteCount()

	l := &Lattice{Model: m, Extents: ext, Blocks: blocks, Sites: make([]State, n)}

	for i := 0; i < n; i++ {
		coord := model.Decompose(i, ext, blocks)
		posID := m.Lattice.PositionIDs[i]
		if posID < 0 || posID >= len(m.EnvironmentDefs) {
			return nil, mocerr.Newf(mocerr.DataConsistency, "environment.NewLattice", "site %d has unknown position id %d", i, posID)
		}
		s := &l.Sites[i]
		s.Position = Position{Coord: coord, Linear: i}
		s.ParticleID = m.Lattice.ParticleIDs[i]
		s.Def = m.EnvironmentDefs[posID]
		s.PoolID = NotSelectable
		s.PoolPosition = 0
		s.MobileTrackerID = NoTracker
		s.IsStable = m.JumpCount(posID, s.ParticleID) != model.JPOOL_DIRCOUNT_STATIC
		s.IsMobile = s.IsStable // refined by the selection pool's passive/active split
	}

	for i := range l.Sites {
		l.RecomputeSiteEnergy(i)
	}

	return l, nil
}

// LinearIndex resolves a (possibly out-of-cell) coordinate against the
// supercell with periodic wraparound, per spec.md §4.5.
func (l *Lattice) LinearIndex(c model.Coord4) int {
	return model.LinearIndex(c, l.Extents, l.Blocks)
}

// ResolvePath resolves a jump direction's relative offsets against a
// start site, producing the L site indices touched by the jump (spec.md
// §4.5's JUMPPATH construction).
func (l *Lattice) ResolvePath(startLinear int, offsets []model.Coord4) []int {
	startCoord := l.Sites[startLinear].Position.Coord
	path := make([]int, len(offsets))
	for i, off := range offsets {
		path[i] = l.LinearIndex(startCoord.Add(off))
	}
	return path
}

// RecomputeSiteEnergy recomputes site i's cached pair+cluster energy
// partials from the model's tables over its environment definition's
// interaction lists (spec.md §4.3/§4.5).
func (l *Lattice) RecomputeSiteEnergy(i int) {
	s := &l.Sites[i]
	def := s.Def
	selfParticle := s.ParticleID

	var pairEnergy float64
	for _, pi := range def.PairInteractions {
		remoteIdx := l.LinearIndex(s.Position.Coord.Add(pi.Offset))
		remoteParticle := l.Sites[remoteIdx].ParticleID
		pairEnergy += l.Model.PairTable(pi.PairTableID).Energy(selfParticle, remoteParticle)
	}

	var clusterEnergy float64
	for _, ci := range def.ClusterInteractions {
		members := make([]uint8, 0, len(ci.Offsets))
		for _, off := range ci.Offsets {
			remoteIdx := l.LinearIndex(s.Position.Coord.Add(off))
			members = append(members, l.Sites[remoteIdx].ParticleID)
		}
		code := model.EncodeOccupation(members)
		clusterEnergy += l.Model.ClusterTable(ci.ClusterTableID).Energy(code, selfParticle)
	}

	s.pairEnergy = pairEnergy
	s.clusterEnergy = clusterEnergy
}

// SetParticle writes a new occupation at site i. Callers (the transition
// protocol) are responsible for recomputing affected energies and
// updating pool/tracker bookkeeping afterward.
func (l *Lattice) SetParticle(i int, particleID uint8) {
	l.Sites[i].ParticleID = particleID
}

// RefreshStability recomputes IsStable for site i from the model's
// jumpCount table, per spec.md §4.3.
func (l *Lattice) RefreshStability(i int) {
	s := &l.Sites[i]
	posID := l.Model.Lattice.PositionIDs[i]
	s.IsStable = l.Model.JumpCount(posID, s.ParticleID) != model.JPOOL_DIRCOUNT_STATIC
}

// AssignMobileTrackers hands every currently-mobile site a sequential
// mobile-tracker index, returning the count allocated. Must run after the
// selection pool's initial registration has set IsMobile flags (spec.md
// §3/§4.3); mobility never changes cardinality mid-run since total mobile
// count is conserved across accepted jumps (spec.md §8 invariant 4).
func (l *Lattice) AssignMobileTrackers() int {
	next := 0
	for i := range l.Sites {
		if l.Sites[i].IsMobile {
			l.Sites[i].MobileTrackerID = next
			next++
		} else {
			l.Sites[i].MobileTrackerID = NoTracker
		}
	}
	return next
}

// TotalEnergy sums every site's cached energy. O(N); intended for
// diagnostics, checkpoints, and the MMCFE relaxation mean, not the hot
// cycle path.
func (l *Lattice) TotalEnergy() float64 {
	var total float64
	for i := range l.Sites {
		total += l.Sites[i].Energy()
	}
	return total
}
