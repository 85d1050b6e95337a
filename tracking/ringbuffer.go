package tracking

import "gonum.org/v1/gonum/stat"

// RingBuffer is a fixed-capacity buffer of recent lattice-energy samples,
// overwritten on fill, per spec.md §4.8 ("running window of recent
// lattice energies") and §4.9 (MMCFE's relaxation buffer).
type RingBuffer struct {
	data []float64
	next int
	full bool
}

// NewRingBuffer allocates a RingBuffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingBuffer{data: make([]float64, capacity)}
}

// Push records v, overwriting the oldest sample once the buffer is full.
func (r *RingBuffer) Push(v float64) {
	r.data[r.next] = v
	r.next++
	if r.next == len(r.data) {
		r.next = 0
		r.full = true
	}
}

// Len returns how many samples are currently held.
func (r *RingBuffer) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.next
}

// Samples returns the currently-held samples, in no particular order —
// sufficient for the mean/variance statistics this buffer feeds.
func (r *RingBuffer) Samples() []float64 {
	if r.full {
		return r.data
	}
	return r.data[:r.next]
}

// Clear resets the buffer. MMCFE clears its relaxation buffer at the start
// of each phase and before a push that would overwrite a full buffer
// (spec.md §4.9).
func (r *RingBuffer) Clear() {
	r.next = 0
	r.full = false
}

// Mean returns the sample mean via gonum/stat, or 0 if empty.
func (r *RingBuffer) Mean() float64 {
	s := r.Samples()
	if len(s) == 0 {
		return 0
	}
	return stat.Mean(s, nil)
}

// StdDev returns the sample standard deviation via gonum/stat, or 0 if
// fewer than 2 samples are held.
func (r *RingBuffer) StdDev() float64 {
	s := r.Samples()
	if len(s) < 2 {
		return 0
	}
	_, std := stat.MeanStdDev(s, nil)
	return std
}
