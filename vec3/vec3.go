// Package vec3 implements the Cartesian 3-vector arithmetic the kernel
// needs for jump-direction movement vectors and displacement trackers.
// Per spec.md's Non-goals, this is intentionally not a general matrix
// library — 3-vector add/scale is all the kernel ever requires.
package vec3

import "gonum.org/v1/gonum/floats"

// Vec3 is a Cartesian displacement in Angstrom.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v+w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v-w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Length returns the Euclidean norm of v.
func (v Vec3) Length() float64 {
	return floats.Norm([]float64{v.X, v.Y, v.Z}, 2)
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return floats.Dot([]float64{v.X, v.Y, v.Z}, []float64{w.X, w.Y, w.Z})
}

// AngstromToMeter converts a length in Angstrom to meters (spec.md §6).
const AngstromToMeter = 1e-10

// ToMeters converts v from Angstrom to meters.
func (v Vec3) ToMeters() Vec3 {
	return v.Scale(AngstromToMeter)
}

// Sum adds every vector in vs and returns the total.
func Sum(vs []Vec3) Vec3 {
	var total Vec3
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}
