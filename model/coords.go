package model

// Coord4 addresses a lattice site: (A,B,C) indexes a unit cell, D indexes
// the sub-lattice position within the cell (spec.md §3).
type Coord4 struct {
	A, B, C, D int32
}

// Add returns the component-wise sum of c and o.
func (c Coord4) Add(o Coord4) Coord4 {
	return Coord4{c.A + o.A, c.B + o.B, c.C + o.C, c.D + o.D}
}

// Particle ids: 0 is void, 1..63 are chemical species, 255 is the sentinel
// used for "not a site"/uninitialized markers (spec.md §3).
const (
	ParticleVoid     uint8 = 0
	ParticleSentinel uint8 = 255
)

// Blocks holds the {B0,B1,B2} linear-index multipliers derived from a
// supercell's extents, per spec.md §3.
type Blocks struct {
	B0, B1, B2 int32
}

// Extents is the supercell shape: (Na,Nb,Nc) unit cells and Nd sub-lattice
// positions per cell.
type Extents struct {
	Na, Nb, Nc, Nd int32
}

// BlocksFor computes {B0,B1,B2} from the supercell extents so that
// linear = a*B0 + b*B1 + c*B2 + d (spec.md §3).
func BlocksFor(ext Extents) Blocks {
	return Blocks{
		B0: ext.Nb * ext.Nc * ext.Nd,
		B1: ext.Nc * ext.Nd,
		B2: ext.Nd,
	}
}

// LinearIndex computes the dense site index for c, wrapping (a,b,c) modulo
// the supercell extents first — jump paths may cross a periodic boundary.
func LinearIndex(c Coord4, ext Extents, blocks Blocks) int {
	a := wrap(c.A, ext.Na)
	b := wrap(c.B, ext.Nb)
	cc := wrap(c.C, ext.Nc)
	return int(a*blocks.B0 + b*blocks.B1 + cc*blocks.B2 + c.D)
}

// Decompose is the inverse of LinearIndex: successive quotient/remainder
// against the block table (spec.md §3).
func Decompose(linear int, ext Extents, blocks Blocks) Coord4 {
	rem := int32(linear)
	a := rem / blocks.B0
	rem %= blocks.B0
	b := rem / blocks.B1
	rem %= blocks.B1
	c := rem / blocks.B2
	d := rem % blocks.B2
	_ = ext
	return Coord4{a, b, c, d}
}

func wrap(v, n int32) int32 {
	if n <= 0 {
		return v
	}
	m := v % n
	if m < 0 {
		m += n
	}
	return m
}
