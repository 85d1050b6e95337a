// Package pool implements the selection pool (spec.md §3/§4.4): sites are
// bucketed by available-jump count, and a uniform draw over the total
// selectable jump count picks a (site, direction) pair in O(buckets) time.
package pool

import (
	"github.com/mocsim/mocsim/container"
	"github.com/mocsim/mocsim/environment"
	"github.com/mocsim/mocsim/mocerr"
	"github.com/mocsim/mocsim/model"
	"github.com/mocsim/mocsim/rng"
)

// Bucket holds every currently-selectable site whose available-direction
// count equals its DirectionCount (spec.md §3).
type Bucket struct {
	DirectionCount int
	Entries        *container.List[int] // site linear indices
	PositionCount  int
	JumpCount      int // PositionCount * DirectionCount
}

func newBucket(k int) *Bucket {
	return &Bucket{DirectionCount: k, Entries: container.NewList[int](16)}
}

// Pool is the full selection-pool state for one simulation instance.
type Pool struct {
	lattice             *environment.Lattice
	buckets             []*Bucket // indexed by direction count k; buckets[0] tracks passive-mobile sites only
	SelectableJumpCount int
}

// New builds an empty Pool bound to lattice (registration happens via
// RegisterAll).
func New(lattice *environment.Lattice) *Pool {
	return &Pool{lattice: lattice, buckets: make([]*Bucket, 1, 9)}
}

func (p *Pool) bucket(k int) *Bucket {
	for len(p.buckets) <= k {
		p.buckets = append(p.buckets, nil)
	}
	if p.buckets[k] == nil {
		p.buckets[k] = newBucket(k)
	}
	return p.buckets[k]
}

// RegisterAll walks every site once at startup and classifies it per
// spec.md §4.4's registration rules.
func (p *Pool) RegisterAll() {
	for i := range p.lattice.Sites {
		p.registerSite(i)
	}
}

// registerSite classifies site i as immobile / passive-mobile /
// active-but-unselectable / selectable, per spec.md §4.4.
func (p *Pool) registerSite(i int) {
	s := &p.lattice.Sites[i]
	posID := p.lattice.Model.Lattice.PositionIDs[i]
	d := p.lattice.Model.JumpCount(posID, s.ParticleID)

	s.PoolID = environment.NotSelectable

	switch {
	case !s.IsStable || d <= model.JPOOL_DIRCOUNT_STATIC:
		s.IsMobile = false
	case d == 0:
		s.IsMobile = true
		b := p.bucket(0)
		b.PositionCount++
		// JumpCount contribution is always 0 for k=0; no SelectableJumpCount change.
	default:
		s.IsMobile = true
		if s.Def.SelectionMask.Has(s.ParticleID) {
			p.push(i, int(d))
		}
	}
}

// push adds site i into bucket k, updating counters and
// SelectableJumpCount per spec.md §4.4.
func (p *Pool) push(i, k int) {
	b := p.bucket(k)
	idx := b.Entries.Push(i)
	p.lattice.Sites[i].PoolID = k
	p.lattice.Sites[i].PoolPosition = idx
	b.PositionCount++
	b.JumpCount += k
	p.SelectableJumpCount += k
}

// popFrom removes site i's entry from bucket k, fixing up any peer moved
// by swap-pop, updating counters and SelectableJumpCount.
func (p *Pool) popFrom(i, k int) {
	b := p.bucket(k)
	idx := p.lattice.Sites[i].PoolPosition
	moved, ok := b.Entries.SwapRemove(idx)
	if ok {
		p.lattice.Sites[moved].PoolPosition = idx
	}
	p.lattice.Sites[i].PoolID = environment.NotSelectable
	p.lattice.Sites[i].PoolPosition = 0
	b.PositionCount--
	b.JumpCount -= k
	p.SelectableJumpCount -= k
}

// Selection is a drawn (site, direction-index-within-pool) pair, per
// spec.md §4.4.
type Selection struct {
	Site               int
	DirectionIndexInK  int // index within the k available directions at Site
}

// Select draws r uniformly from [0, SelectableJumpCount) and walks
// buckets in ascending-k order (excluding bucket 0, which never holds a
// selectable jump) to find the matching (site, direction) pair (spec.md
// §4.4).
func (p *Pool) Select(g *rng.PCG32) (Selection, error) {
	if p.SelectableJumpCount <= 0 {
		return Selection{}, mocerr.Newf(mocerr.NoMobiles, "pool.Select", "no selectable sites (SelectableJumpCount=0)")
	}
	r := g.IntN(p.SelectableJumpCount)
	return p.selectAt(r)
}

func (p *Pool) selectAt(r int) (Selection, error) {
	for k := 1; k < len(p.buckets); k++ {
		b := p.buckets[k]
		if b == nil || b.JumpCount == 0 {
			continue
		}
		if b.JumpCount > r {
			q := r / k
			m := r % k
			return Selection{Site: b.Entries.Get(q), DirectionIndexInK: m}, nil
		}
		r -= b.JumpCount
	}
	return Selection{}, mocerr.Newf(mocerr.Unknown, "pool.selectAt", "no bucket matched draw; SelectableJumpCount bookkeeping is inconsistent")
}

// SelectPartner draws a uniform partner offset id over the full lattice
// size, used by MMC to pick the second site of a pair (spec.md §4.4).
func (p *Pool) SelectPartner(g *rng.PCG32) int {
	return g.IntN(len(p.lattice.Sites))
}

// Update recomputes site i's target pool classification and performs the
// appropriate push/pop/move, per spec.md §4.4's four cases. It returns
// whether SelectableJumpCount changed, which the KMC scheduler needs to
// decide whether to recompute Δt (spec.md §4.4 "Return signal").
func (p *Pool) Update(i int) bool {
	before := p.SelectableJumpCount
	s := &p.lattice.Sites[i]
	oldPoolID := s.PoolID

	posID := p.lattice.Model.Lattice.PositionIDs[i]
	d := p.lattice.Model.JumpCount(posID, s.ParticleID)

	newSelectable := d > 0 && s.Def.SelectionMask.Has(s.ParticleID)
	newPoolID := environment.NotSelectable
	if newSelectable {
		newPoolID = int(d)
	}

	switch {
	case oldPoolID == newPoolID:
		// no-op: either both invalid, or same bucket (same k) — site stays
		// at its existing slot.
	case oldPoolID == environment.NotSelectable && newPoolID != environment.NotSelectable:
		p.push(i, newPoolID)
	case oldPoolID != environment.NotSelectable && newPoolID == environment.NotSelectable:
		p.popFrom(i, oldPoolID)
	default:
		p.popFrom(i, oldPoolID)
		p.push(i, newPoolID)
	}

	s.IsMobile = d != model.JPOOL_DIRCOUNT_STATIC

	return p.SelectableJumpCount != before
}

// Invariant1 checks spec.md §8 invariant 1:
// SelectableJumpCount == Σ pool[k].PositionCount·k.
func (p *Pool) Invariant1() bool {
	sum := 0
	for k := 1; k < len(p.buckets); k++ {
		if p.buckets[k] == nil {
			continue
		}
		sum += p.buckets[k].PositionCount * k
	}
	return sum == p.SelectableJumpCount
}

// Invariant2 checks spec.md §8 invariant 2: every selectable site's pool
// entry points back to it, and vice versa.
func (p *Pool) Invariant2() bool {
	for k := 1; k < len(p.buckets); k++ {
		b := p.buckets[k]
		if b == nil {
			continue
		}
		for idx, site := range b.Entries.Raw() {
			s := &p.lattice.Sites[site]
			if s.PoolID != k || s.PoolPosition != idx {
				return false
			}
		}
	}
	for i := range p.lattice.Sites {
		s := &p.lattice.Sites[i]
		if s.PoolID == environment.NotSelectable {
			continue
		}
		b := p.buckets[s.PoolID]
		if b == nil || b.Entries.Get(s.PoolPosition) != i {
			return false
		}
	}
	return true
}
