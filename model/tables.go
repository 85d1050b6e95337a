package model

import "sort"

// PairTable maps (particleA, particleB) -> energy in kT, per spec.md §3.
type PairTable struct {
	ID      int
	entries map[[2]uint8]float64
}

// NewPairTable builds a PairTable from explicit entries.
func NewPairTable(id int, entries map[[2]uint8]float64) *PairTable {
	return &PairTable{ID: id, entries: entries}
}

// Energy looks up the pair energy; missing pairs default to 0 (no
// interaction specified).
func (t *PairTable) Energy(a, b uint8) float64 {
	if v, ok := t.entries[[2]uint8{a, b}]; ok {
		return v
	}
	if v, ok := t.entries[[2]uint8{b, a}]; ok {
		return v
	}
	return 0
}

// clusterRow is one row of a cluster table: a sorted occupation code plus
// its per-center-particle energies.
type clusterRow struct {
	code     uint64
	energies []float64 // indexed by column, see ClusterTable.particleColumn
}

// ClusterTable maps (occupation-code, center-particle) -> energy through a
// sorted array of 64-bit occupation codes, each encoding up to 8
// surrounding particle ids in 8-bit slots, per spec.md §3.
type ClusterTable struct {
	ID             int
	rows           []clusterRow
	particleColumn map[uint8]int // particle id -> table column
}

// NewClusterTable builds a ClusterTable from unsorted rows, sorting them by
// occupation code once at construction (the table is immutable after
// load).
func NewClusterTable(id int, particleColumn map[uint8]int, rows map[uint64][]float64) *ClusterTable {
	t := &ClusterTable{ID: id, particleColumn: particleColumn}
	for code, energies := range rows {
		t.rows = append(t.rows, clusterRow{code: code, energies: energies})
	}
	sort.Slice(t.rows, func(i, j int) bool { return t.rows[i].code < t.rows[j].code })
	return t
}

// EncodeOccupation packs up to 8 surrounding particle ids into one 64-bit
// occupation code, 8 bits per slot, per spec.md §3.
func EncodeOccupation(particles []uint8) uint64 {
	var code uint64
	for i, p := range particles {
		if i >= 8 {
			break
		}
		code |= uint64(p) << (8 * uint(i))
	}
	return code
}

// Energy looks up the energy for an occupation code and center particle.
// Binary search locates the row; for <=8 cluster members a linear scan is
// also permitted by spec.md §3 — this implementation always binary
// searches since the sorted array is already built at load time.
func (t *ClusterTable) Energy(code uint64, centerParticle uint8) float64 {
	i := sort.Search(len(t.rows), func(i int) bool { return t.rows[i].code >= code })
	if i >= len(t.rows) || t.rows[i].code != code {
		return 0
	}
	col, ok := t.particleColumn[centerParticle]
	if !ok || col >= len(t.rows[i].energies) {
		return 0
	}
	return t.rows[i].energies[col]
}
