package model

import "github.com/mocsim/mocsim/vec3"

// MaxJumpLength is the largest permitted jump-sequence length L, per
// spec.md §3 ("A named transition of length L ∈ [2, 8]").
const MaxJumpLength = 8

// MinJumpLength is the smallest permitted jump-sequence length L.
const MinJumpLength = 2

// JumpDirection is a named transition: the start position type, the
// ordered relative-position sequence (the jump path), per-slot Cartesian
// movement vectors, the owning jump-collection id, and the electric-field
// projection factor (spec.md §3).
type JumpDirection struct {
	ID                  int
	StartPositionID     int
	JumpSequence        []Coord4  // length L, relative 4-vector offsets
	MovementVectors     []vec3.Vec3 // length L, Cartesian displacement per slot
	JumpCollectionID    int
	ElectricFieldFactor float64
}

// Length returns L, the jump-sequence length.
func (d *JumpDirection) Length() int { return len(d.JumpSequence) }

// JumpRule belongs to a jump collection: the state-0/1/2 occupations of
// the L path slots, an attempt frequency factor, a static activation
// energy, a tracker-reorder permutation, and the mobile-particle mask
// used to match (spec.md §3).
type JumpRule struct {
	ID                    int
	State0                []uint8 // length L
	State1                []uint8 // length L, transition-state occupation
	State2                []uint8 // length L
	AttemptFrequencyFactor float64
	StaticActivationEnergy float64
	TrackerOrderCode      []int // length-L permutation applied on accept
	MobileParticleMask    ParticleMask
}

// Matches reports whether the current path occupation equals the rule's
// state-0 vector (spec.md §4.6 step 2).
func (r *JumpRule) Matches(pathOccupation []uint8) bool {
	if len(pathOccupation) != len(r.State0) {
		return false
	}
	for i, p := range pathOccupation {
		if p != r.State0[i] {
			return false
		}
	}
	return true
}

// JumpCollection is a family of rules and directions sharing a
// mobile-particle mask (spec.md §3). DirectionsBegin/End index a
// contiguous sub-sequence of Model.JumpDirections (§4.1).
type JumpCollection struct {
	ID                 int
	MobileParticleMask ParticleMask
	Rules              []JumpRule
	DirectionsBegin    int
	DirectionsEnd      int
}

// MatchingRule returns the first rule whose state-0 vector matches
// pathOccupation, or nil if none matches (spec.md §4.6 step 2: "no rule
// matches" => SiteBlockingCount).
func (c *JumpCollection) MatchingRule(pathOccupation []uint8) *JumpRule {
	for i := range c.Rules {
		if c.Rules[i].Matches(pathOccupation) {
			return &c.Rules[i]
		}
	}
	return nil
}
