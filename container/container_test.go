package container_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/container"
)

func TestSpan_NewAndOf(t *testing.T) {
	s := container.NewSpan[int](3)
	require.Equal(t, 3, s.Len())
	s.Set(1, 42)
	require.Equal(t, 42, s.Get(1))

	backing := []int{1, 2, 3}
	wrapped := container.SpanOf(backing)
	wrapped.Set(0, 9)
	require.Equal(t, 9, backing[0], "SpanOf must not copy the backing slice")
	require.Equal(t, backing, wrapped.Raw())
}

func TestList_PushAndGet(t *testing.T) {
	l := container.NewList[string](0)
	idx := l.Push("a")
	require.Equal(t, 0, idx)
	l.Push("b")
	require.Equal(t, 2, l.Len())
	require.Equal(t, "a", l.Get(0))
	require.Equal(t, "b", l.Get(1))
}

func TestList_SwapRemoveMiddleMovesLastIntoPlace(t *testing.T) {
	l := container.NewList[int](0)
	l.Push(10)
	l.Push(20)
	l.Push(30)

	moved, ok := l.SwapRemove(0)
	require.True(t, ok)
	require.Equal(t, 30, moved)
	require.Equal(t, 2, l.Len())
	require.Equal(t, 30, l.Get(0))
	require.Equal(t, 20, l.Get(1))
}

func TestList_SwapRemoveLastElementReportsNoMove(t *testing.T) {
	l := container.NewList[int](0)
	l.Push(10)
	l.Push(20)

	_, ok := l.SwapRemove(1)
	require.False(t, ok)
	require.Equal(t, 1, l.Len())
	require.Equal(t, 10, l.Get(0))
}

func TestList_SwapRemoveOutOfRangeIsNoOp(t *testing.T) {
	l := container.NewList[int](0)
	l.Push(10)

	_, ok := l.SwapRemove(5)
	require.False(t, ok)
	require.Equal(t, 1, l.Len())
}

func TestArray_IndexAndCoordsRoundTrip(t *testing.T) {
	a := container.NewArray[int](2, 3, 4)
	require.Equal(t, 24, a.Len())

	a.Set(7, 1, 2, 3)
	require.Equal(t, 7, a.Get(1, 2, 3))

	linear := a.Index(1, 2, 3)
	require.Equal(t, []int{1, 2, 3}, a.Coords(linear))
	require.Equal(t, 7, a.GetLinear(linear))
}

func TestArray_ShapeAndRaw(t *testing.T) {
	a := container.NewArray[int](2, 2)
	require.Equal(t, []int{2, 2}, a.Shape())
	a.SetLinear(0, 1)
	a.SetLinear(3, 9)
	require.Equal(t, []int{1, 0, 0, 9}, a.Raw())
}
