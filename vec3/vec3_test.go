package vec3_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/vec3"
)

func TestVec3_AddSubScale(t *testing.T) {
	a := vec3.Vec3{X: 1, Y: 2, Z: 3}
	b := vec3.Vec3{X: 4, Y: 5, Z: 6}

	require.Equal(t, vec3.Vec3{X: 5, Y: 7, Z: 9}, a.Add(b))
	require.Equal(t, vec3.Vec3{X: -3, Y: -3, Z: -3}, a.Sub(b))
	require.Equal(t, vec3.Vec3{X: 2, Y: 4, Z: 6}, a.Scale(2))
}

func TestVec3_DotAndLength(t *testing.T) {
	a := vec3.Vec3{X: 3, Y: 4, Z: 0}
	require.Equal(t, 25.0, a.Dot(a))
	require.Equal(t, 5.0, a.Length())
}

func TestVec3_ToMetersConvertsFromAngstrom(t *testing.T) {
	a := vec3.Vec3{X: 1, Y: 2, Z: 3}
	got := a.ToMeters()
	require.InDelta(t, 1e-10, got.X, 1e-25)
	require.InDelta(t, 2e-10, got.Y, 1e-25)
	require.InDelta(t, 3e-10, got.Z, 1e-25)
}

func TestSum_AddsEveryVectorInSlice(t *testing.T) {
	vs := []vec3.Vec3{{X: 1}, {X: 2}, {X: 3}}
	require.Equal(t, vec3.Vec3{X: 6}, vec3.Sum(vs))
}

func TestSum_EmptySliceYieldsZeroVector(t *testing.T) {
	require.Equal(t, vec3.Vec3{}, vec3.Sum(nil))
}
