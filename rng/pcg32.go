// Package rng implements the PCG32 generator spec.md §5 specifies for the
// kernel's RNG stream: seeded from hashed timestamp strings, with a
// rejection-sampling next_ceiled to eliminate modulo bias. Cycles are
// totally ordered by this stream's state, so no other source of
// randomness may be introduced into the kernel.
package rng

import (
	"fmt"
	"hash/fnv"
	"time"
)

const (
	pcgMultiplier uint64 = 6364136223846793005
	pcgDefaultInc uint64 = 1442695040888963407
)

// PCG32 is a single PCG32 stream: 64-bit state, 64-bit (odd) increment.
type PCG32 struct {
	state uint64
	inc   uint64
}

// NewPCG32 seeds a fresh stream from a (state, inc) seed pair, forcing inc
// odd as spec.md §5 requires, and running the pair through the PCG seeding
// transform. Not for resuming a stream saved from State — use RestoreState
// for that.
func NewPCG32(state, inc uint64) *PCG32 {
	g := &PCG32{state: state, inc: inc | 1}
	g.step()
	g.state += state
	g.step()
	return g
}

// RestoreState reconstructs a stream from the literal internal (state, inc)
// registers previously returned by State, with no seeding transform
// applied, so the stream continues exactly where it was saved (spec.md §8
// invariant 7). NewPCG32 must not be used for this: it treats its
// arguments as a seed pair and runs them through the seeding step(), which
// diverges from the saved stream.
func RestoreState(state, inc uint64) *PCG32 {
	return &PCG32{state: state, inc: inc}
}

// SeedFromTimestamp derives (state, inc) the way spec.md §5 specifies:
// state from hashing "YYYY-MM-DD-HH-MM-SS-STATE", inc from the analogous
// "...-INC" string, with inc forced odd.
func SeedFromTimestamp(t time.Time) *PCG32 {
	base := t.Format("2006-01-02-15-04-05")
	state := hashString(base + "-STATE")
	inc := hashString(base + "-INC")
	return NewPCG32(state, inc)
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// State returns the current (state, inc) pair for checkpointing into the
// state image.
func (g *PCG32) State() (state, inc uint64) { return g.state, g.inc }

func (g *PCG32) step() {
	g.state = g.state*pcgMultiplier + g.inc
}

// Uint32 returns the next pseudo-random uint32 in the stream.
func (g *PCG32) Uint32() uint32 {
	old := g.state
	g.step()
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)
	return (xorshifted >> rot) | (xorshifted << ((-rot) & 31))
}

// nextCeiled draws a uniform value in [0, bound) by rejection sampling,
// eliminating modulo bias per spec.md §5's next_ceiled contract.
func (g *PCG32) nextCeiled(bound uint32) uint32 {
	if bound == 0 {
		panic("rng: nextCeiled called with bound 0")
	}
	threshold := -bound % bound
	for {
		r := g.Uint32()
		if r >= threshold {
			return r % bound
		}
	}
}

// IntN returns a uniform integer in [0, n).
func (g *PCG32) IntN(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("rng: IntN called with n=%d", n))
	}
	return int(g.nextCeiled(uint32(n)))
}

// Float64 returns a uniform float64 in [0, 1).
func (g *PCG32) Float64() float64 {
	return float64(g.Uint32()) / (1 << 32)
}
