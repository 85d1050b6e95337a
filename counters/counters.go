// Package counters implements the per-particle cycle counters spec.md §3
// names: McsCount, RejectionCount, SkipCount, SiteBlockingCount,
// UnstableStartCount, UnstableEndCount.
package counters

// PerParticle holds the six counters for one particle species.
type PerParticle struct {
	McsCount           int64
	RejectionCount     int64
	SkipCount          int64
	SiteBlockingCount  int64
	UnstableStartCount int64
	UnstableEndCount   int64
}

// Sum returns the total cycles this particle's counters account for,
// the left side of spec.md §8 invariant 5.
func (p *PerParticle) Sum() int64 {
	return p.McsCount + p.RejectionCount + p.SkipCount + p.SiteBlockingCount + p.UnstableStartCount + p.UnstableEndCount
}

// Counters is the full per-particle counter table, indexed by particle id
// (0..63).
type Counters struct {
	byParticle map[uint8]*PerParticle
}

// New allocates an empty Counters table.
func New() *Counters {
	return &Counters{byParticle: make(map[uint8]*PerParticle)}
}

// For returns (creating if absent) the counters for particleID.
func (c *Counters) For(particleID uint8) *PerParticle {
	p, ok := c.byParticle[particleID]
	if !ok {
		p = &PerParticle{}
		c.byParticle[particleID] = p
	}
	return p
}

// TotalMcsCount sums McsCount across every particle — the scheduler's
// progress signal against the job's target MCS count.
func (c *Counters) TotalMcsCount() int64 {
	var total int64
	for _, p := range c.byParticle {
		total += p.McsCount
	}
	return total
}

// Reset zeroes every counter in place, used by the scheduler's pre-run ->
// main-run transition (spec.md §4.8).
func (c *Counters) Reset() {
	for _, p := range c.byParticle {
		*p = PerParticle{}
	}
}

// Set overwrites the counters for particleID wholesale. Used by the
// state-image checkpoint reader.
func (c *Counters) Set(particleID uint8, p PerParticle) {
	*c.For(particleID) = p
}

// ForEach calls fn for every particle id with recorded counters.
func (c *Counters) ForEach(fn func(particleID uint8, p *PerParticle)) {
	for id, p := range c.byParticle {
		fn(id, p)
	}
}
