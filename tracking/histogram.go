package tracking

import "math"

// FixedHistogramSize is STATE_JUMPSTAT_SIZE from spec.md §3: 1000 bins
// over [0, 5 eV] for each jump-statistics histogram.
const FixedHistogramSize = 1000

// FixedHistogramMaxEV is the fixed upper bound of a jump-statistics
// histogram, in eV, per spec.md §3.
const FixedHistogramMaxEV = 5.0

// FixedHistogram is one of the four fixed-range jump-energy histograms
// per (jump-collection, particle), per spec.md §3/§4.7.
type FixedHistogram struct {
	counters         [FixedHistogramSize]uint64
	stepping         float64
	steppingInverse  float64
	underflow        uint64
	overflow         uint64
}

// NewFixedHistogram builds a histogram over [0, FixedHistogramMaxEV].
func NewFixedHistogram() *FixedHistogram {
	h := &FixedHistogram{}
	h.stepping = FixedHistogramMaxEV / float64(FixedHistogramSize)
	h.steppingInverse = 1.0 / h.stepping
	return h
}

// Add bins v per spec.md §4.7's fixed-histogram contract: v<0 underflows,
// v>=5eV overflows, otherwise bin = floor(v·steppingInverse).
func (h *FixedHistogram) Add(v float64) {
	if v < 0 {
		h.underflow++
		return
	}
	bin := int(math.Floor(v * h.steppingInverse))
	if bin >= FixedHistogramSize {
		h.overflow++
		return
	}
	h.counters[bin]++
}

func (h *FixedHistogram) Counters() [FixedHistogramSize]uint64 { return h.counters }
func (h *FixedHistogram) Underflow() uint64                    { return h.underflow }
func (h *FixedHistogram) Overflow() uint64                     { return h.overflow }

// SetRaw overwrites the histogram's counters and under/overflow directly,
// bypassing stepping. Used by the state-image checkpoint reader to restore
// a saved histogram without replaying every Add call.
func (h *FixedHistogram) SetRaw(counters [FixedHistogramSize]uint64, underflow, overflow uint64) {
	h.counters = counters
	h.underflow = underflow
	h.overflow = overflow
}

// Total returns underflow+overflow+Σcounters, the invariant spec.md §8
// scenario 5 checks against the number of cycles fed into the histogram.
func (h *FixedHistogram) Total() uint64 {
	total := h.underflow + h.overflow
	for _, c := range h.counters {
		total += c
	}
	return total
}

// JumpStat bundles the four histograms spec.md §3 names per
// (jump-collection, particle) pair.
type JumpStat struct {
	EdgeEnergy      *FixedHistogram
	PosConformation *FixedHistogram
	NegConformation *FixedHistogram
	TotalEnergy     *FixedHistogram
}

func newJumpStat() *JumpStat {
	return &JumpStat{
		EdgeEnergy:      NewFixedHistogram(),
		PosConformation: NewFixedHistogram(),
		NegConformation: NewFixedHistogram(),
		TotalEnergy:     NewFixedHistogram(),
	}
}

// JumpStatistics holds one JumpStat per (jump-collection, particle) pair.
type JumpStatistics struct {
	stats map[globalKey]*JumpStat
}

// NewJumpStatistics allocates an empty statistics table.
func NewJumpStatistics() *JumpStatistics {
	return &JumpStatistics{stats: make(map[globalKey]*JumpStat)}
}

// For returns (creating if absent) the JumpStat for (collectionID,particle).
func (js *JumpStatistics) For(collectionID int, particle uint8) *JumpStat {
	k := globalKey{CollectionID: collectionID, Particle: particle}
	s, ok := js.stats[k]
	if !ok {
		s = newJumpStat()
		js.stats[k] = s
	}
	return s
}

// Feed records one accepted/evaluated cycle's energies into the
// appropriate histograms, per spec.md §4.7: EdgeEnergy gets S1,
// PosConformation gets max(0,conf), NegConformation gets max(0,-conf),
// TotalEnergy gets the S0->S2 delta. Values are expected already
// converted from kT to eV by the caller.
func (js *JumpStatistics) Feed(collectionID int, particle uint8, s1EV, conformationEV, s0to2EV float64) {
	stat := js.For(collectionID, particle)
	stat.EdgeEnergy.Add(s1EV)
	stat.PosConformation.Add(math.Max(0, conformationEV))
	stat.NegConformation.Add(math.Max(0, -conformationEV))
	stat.TotalEnergy.Add(s0to2EV)
}

// Reset clears every histogram, used by the scheduler's pre-run ->
// main-run transition (spec.md §4.8).
func (js *JumpStatistics) Reset() {
	for k := range js.stats {
		delete(js.stats, k)
	}
}

// ForEach calls fn for every (collectionID,particle) pair with recorded
// statistics. Used by the state-image checkpoint writer.
func (js *JumpStatistics) ForEach(fn func(collectionID int, particle uint8, stat *JumpStat)) {
	for k, s := range js.stats {
		fn(k.CollectionID, k.Particle, s)
	}
}

// DynamicHistogram is the re-centerable histogram MMCFE uses to sample
// lattice energy around a moving mean (spec.md §3/§4.7).
type DynamicHistogram struct {
	entryCount      int
	min, max        float64
	stepping        float64
	steppingInverse float64
	underflow       uint64
	overflow        uint64
	counters        []uint64
}

// NewDynamicHistogram allocates a histogram with entryCount bins over
// [min, max).
func NewDynamicHistogram(entryCount int, min, max float64) *DynamicHistogram {
	h := &DynamicHistogram{entryCount: entryCount, counters: make([]uint64, entryCount)}
	h.setBounds(min, max)
	return h
}

func (h *DynamicHistogram) setBounds(min, max float64) {
	h.min = min
	h.max = max
	h.stepping = (max - min) / float64(h.entryCount)
	h.steppingInverse = 1.0 / h.stepping
}

// SetRange re-centers the histogram on center with the given half-width,
// clearing counters and recomputing stepping, per spec.md §4.7. Calling
// SetRange twice in succession is idempotent with a single call (spec.md
// §8 round-trip property): the second call overwrites the first's bounds
// and clears the (already-empty) counters again.
func (h *DynamicHistogram) SetRange(center, halfWidth float64) {
	for i := range h.counters {
		h.counters[i] = 0
	}
	h.underflow = 0
	h.overflow = 0
	h.setBounds(center-halfWidth, center+halfWidth)
}

// Add bins v using the same underflow/bin/overflow contract as
// FixedHistogram, but against the current mutable [min,max) range.
func (h *DynamicHistogram) Add(v float64) {
	if v < h.min {
		h.underflow++
		return
	}
	bin := int(math.Floor((v - h.min) * h.steppingInverse))
	if bin >= h.entryCount {
		h.overflow++
		return
	}
	h.counters[bin]++
}

func (h *DynamicHistogram) Counters() []uint64 { return h.counters }
func (h *DynamicHistogram) Underflow() uint64  { return h.underflow }
func (h *DynamicHistogram) Overflow() uint64   { return h.overflow }
func (h *DynamicHistogram) Min() float64       { return h.min }
func (h *DynamicHistogram) Max() float64       { return h.max }
func (h *DynamicHistogram) EntryCount() int    { return h.entryCount }

// Total returns underflow+overflow+Σcounters.
func (h *DynamicHistogram) Total() uint64 {
	total := h.underflow + h.overflow
	for _, c := range h.counters {
		total += c
	}
	return total
}
