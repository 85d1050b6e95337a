package tracking_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/tracking"
	"github.com/mocsim/mocsim/vec3"
)

func TestTrackers_AddMovementAccumulatesAllThreeFamilies(t *testing.T) {
	tr := tracking.NewTrackers(2)

	tr.AddMovement(0, 5, 1, 3, vec3.Vec3{X: 1})
	tr.AddMovement(0, 5, 1, 3, vec3.Vec3{X: 2})

	require.Equal(t, vec3.Vec3{X: 3}, tr.Mobile[0])
	require.Equal(t, vec3.Vec3{X: 3}, tr.Static(5, 1))
	require.Equal(t, vec3.Vec3{X: 3}, tr.Global(3, 1))
}

func TestTrackers_AddMovementSkipsMobileWhenNoTracker(t *testing.T) {
	tr := tracking.NewTrackers(1)
	tr.AddMovement(-1, 5, 1, 3, vec3.Vec3{X: 1})
	require.Equal(t, vec3.Vec3{}, tr.Mobile[0])
	require.Equal(t, vec3.Vec3{X: 1}, tr.Static(5, 1))
}

func TestTrackers_ResetZeroesEveryFamily(t *testing.T) {
	tr := tracking.NewTrackers(1)
	tr.AddMovement(0, 5, 1, 3, vec3.Vec3{X: 1, Y: 2, Z: 3})
	tr.Reset()

	require.Equal(t, vec3.Vec3{}, tr.Mobile[0])
	require.Equal(t, vec3.Vec3{}, tr.Static(5, 1))
	require.Equal(t, vec3.Vec3{}, tr.Global(3, 1))
}

func TestTrackers_SetStaticAndSetGlobalOverwrite(t *testing.T) {
	tr := tracking.NewTrackers(0)
	tr.SetStatic(1, 2, vec3.Vec3{X: 9})
	tr.SetGlobal(3, 4, vec3.Vec3{Y: 9})

	require.Equal(t, vec3.Vec3{X: 9}, tr.Static(1, 2))
	require.Equal(t, vec3.Vec3{Y: 9}, tr.Global(3, 4))

	var staticCount, globalCount int
	tr.ForEachStatic(func(int, uint8, vec3.Vec3) { staticCount++ })
	tr.ForEachGlobal(func(int, uint8, vec3.Vec3) { globalCount++ })
	require.Equal(t, 1, staticCount)
	require.Equal(t, 1, globalCount)
}

func TestPermuteMobile_AppliesOrderCodeToPathSlots(t *testing.T) {
	pathMobileIDs := []int{10, 20, 30}
	perm := []int{2, 0, 1} // JUMPPATH[perm[pathId]] = pathMobileIDs[pathId]

	assigned := make(map[int]int)
	tracking.PermuteMobile(pathMobileIDs, perm, func(pathSlot, trackerID int) {
		assigned[pathSlot] = trackerID
	})

	require.Equal(t, 10, assigned[2])
	require.Equal(t, 20, assigned[0])
	require.Equal(t, 30, assigned[1])
}
