package transition

import "github.com/mocsim/mocsim/environment"

// Backup captures path-site occupations, their energy partials, and their
// mobile-tracker indices just before an accepted transition writes to the
// path (spec.md §4.6). Only MobileTrackerIDs are read afterwards, to permute
// tracker identity and attribute movement; a rejected trial returns before
// anything is mutated, so nothing is ever restored from a Backup.
type Backup struct {
	Path             []int
	Occupations      []uint8
	PairEnergy       []float64
	ClusterEnergy    []float64
	MobileTrackerIDs []int
}

// captureBackup snapshots every path site's mutable state after the
// accept decision and before the protocol writes to the path.
func captureBackup(lattice *environment.Lattice, path []int) Backup {
	b := Backup{
		Path:             append([]int(nil), path...),
		Occupations:      make([]uint8, len(path)),
		PairEnergy:       make([]float64, len(path)),
		ClusterEnergy:    make([]float64, len(path)),
		MobileTrackerIDs: make([]int, len(path)),
	}
	for i, siteIdx := range path {
		s := &lattice.Sites[siteIdx]
		b.Occupations[i] = s.ParticleID
		b.PairEnergy[i], b.ClusterEnergy[i] = s.EnergyPartials()
		b.MobileTrackerIDs[i] = s.MobileTrackerID
	}
	return b
}
