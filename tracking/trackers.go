// Package tracking implements the three displacement-tracker families and
// the jump-energy histograms spec.md §3/§4.7 specifies.
package tracking

import "github.com/mocsim/mocsim/vec3"

// staticKey/globalKey below are the map keys of the static and global
// tracker families; mobile trackers live in a slice indexed by tracker id.

// staticKey identifies a (site-position-type, particle) pair.
type staticKey struct {
	PositionID int
	Particle   uint8
}

// globalKey identifies a (jump-collection, particle) pair.
type globalKey struct {
	CollectionID int
	Particle     uint8
}

// Trackers owns all three displacement-tracker families (spec.md §3):
// mobile (per currently-mobile particle instance, identity preserved
// across accepted jumps via permutation), static (per site-type/particle
// pair), and global (per collection/particle pair).
type Trackers struct {
	Mobile []vec3.Vec3 // indexed by mobile-tracker id
	static map[staticKey]vec3.Vec3
	global map[globalKey]vec3.Vec3
}

// NewTrackers allocates Trackers with mobileCount mobile-tracker slots.
func NewTrackers(mobileCount int) *Trackers {
	return &Trackers{
		Mobile: make([]vec3.Vec3, mobileCount),
		static: make(map[staticKey]vec3.Vec3),
		global: make(map[globalKey]vec3.Vec3),
	}
}

// AddMovement adds movement to the mobile tracker mobileTrackerID (if not
// NoTracker), the (positionID,particle) static tracker, and the
// (collectionID,particle) global tracker — the three updates spec.md
// §4.7's "Movement update" performs for every mobile path slot.
func (t *Trackers) AddMovement(mobileTrackerID int, positionID int, particle uint8, collectionID int, movement vec3.Vec3) {
	const noTracker = -1
	if mobileTrackerID != noTracker {
		t.Mobile[mobileTrackerID] = t.Mobile[mobileTrackerID].Add(movement)
	}
	sk := staticKey{PositionID: positionID, Particle: particle}
	t.static[sk] = t.static[sk].Add(movement)
	gk := globalKey{CollectionID: collectionID, Particle: particle}
	t.global[gk] = t.global[gk].Add(movement)
}

// Static returns the accumulated displacement for a (positionID,particle)
// pair.
func (t *Trackers) Static(positionID int, particle uint8) vec3.Vec3 {
	return t.static[staticKey{PositionID: positionID, Particle: particle}]
}

// Global returns the accumulated displacement for a (collectionID,particle)
// pair.
func (t *Trackers) Global(collectionID int, particle uint8) vec3.Vec3 {
	return t.global[globalKey{CollectionID: collectionID, Particle: particle}]
}

// ForEachStatic calls fn for every populated static-tracker entry, in no
// particular order. Used by the state-image checkpoint writer.
func (t *Trackers) ForEachStatic(fn func(positionID int, particle uint8, v vec3.Vec3)) {
	for k, v := range t.static {
		fn(k.PositionID, k.Particle, v)
	}
}

// ForEachGlobal calls fn for every populated global-tracker entry, in no
// particular order. Used by the state-image checkpoint writer.
func (t *Trackers) ForEachGlobal(fn func(collectionID int, particle uint8, v vec3.Vec3)) {
	for k, v := range t.global {
		fn(k.CollectionID, k.Particle, v)
	}
}

// SetStatic overwrites one static-tracker entry. Used by the state-image
// checkpoint reader to restore a saved tracker table.
func (t *Trackers) SetStatic(positionID int, particle uint8, v vec3.Vec3) {
	t.static[staticKey{PositionID: positionID, Particle: particle}] = v
}

// SetGlobal overwrites one global-tracker entry. Used by the state-image
// checkpoint reader to restore a saved tracker table.
func (t *Trackers) SetGlobal(collectionID int, particle uint8, v vec3.Vec3) {
	t.global[globalKey{CollectionID: collectionID, Particle: particle}] = v
}

// Reset zeroes every tracker in place, used by the scheduler's pre-run ->
// main-run transition (spec.md §4.8).
func (t *Trackers) Reset() {
	for i := range t.Mobile {
		t.Mobile[i] = vec3.Vec3{}
	}
	for k := range t.static {
		t.static[k] = vec3.Vec3{}
	}
	for k := range t.global {
		t.global[k] = vec3.Vec3{}
	}
}

// PermuteMobile applies trackerOrderCode (a length-L permutation over path
// slots) to the per-slot mobile-tracker-id mapping captured in a backup,
// writing JUMPPATH[perm[pathId]]->mobileTrackerId = backup[pathId], per
// spec.md §4.6/§4.7. Slots with the same id are invariant. No check is made
// that immobile slots (NoTracker) stay in place; perm is applied as given.
func PermuteMobile(pathMobileIDs []int, perm []int, assign func(pathSlot, trackerID int)) {
	for pathID, trackerID := range pathMobileIDs {
		assign(perm[pathID], trackerID)
	}
}
