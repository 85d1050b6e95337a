package stateimage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/stateimage"
)

func buildImage(t *testing.T, offsets [8]int64, bufEnd int) *stateimage.Image {
	t.Helper()
	img := stateimage.Allocate(bufEnd)
	h := &stateimage.Header{
		Version:  1,
		Flags:    stateimage.FlagPreRunReset,
		RNGState: 0xdeadbeef,
		RNGInc:   0x1,
		Offsets:  offsets,
	}
	img.WriteHeader(h)
	return img
}

func TestHeaderEncodeDecode_RoundTrips(t *testing.T) {
	h := &stateimage.Header{
		Version:  3,
		Flags:    stateimage.FlagSimError,
		RNGState: 12345,
		RNGInc:   67,
		Offsets:  [8]int64{0, 4, 8, 12, 16, 20, 24, 28},
	}
	got, err := stateimage.DecodeHeader(h.Encode())
	require.NoError(t, err)
	require.Equal(t, h.Version, got.Version)
	require.Equal(t, h.Flags, got.Flags)
	require.Equal(t, h.RNGState, got.RNGState)
	require.Equal(t, h.RNGInc, got.RNGInc)
	require.Equal(t, h.Offsets, got.Offsets)
}

func TestDecodeHeader_RejectsShortBuffer(t *testing.T) {
	_, err := stateimage.DecodeHeader([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeHeader_RejectsBadMagic(t *testing.T) {
	h := &stateimage.Header{Offsets: [8]int64{0, 1, 2, 3, 4, 5, 6, 7}}
	buf := h.Encode()
	buf[0] ^= 0xff
	_, err := stateimage.DecodeHeader(buf)
	require.Error(t, err)
}

func TestHeaderFlags_SetAndHas(t *testing.T) {
	h := &stateimage.Header{}
	require.False(t, h.HasFlag(stateimage.FlagSimError))
	h.SetFlag(stateimage.FlagSimError)
	require.True(t, h.HasFlag(stateimage.FlagSimError))
	require.False(t, h.HasFlag(stateimage.FlagPreRunReset))
}

func TestRestoreAccess_ValidOffsetsYieldExpectedViews(t *testing.T) {
	img := buildImage(t, [8]int64{0, 2, 4, 6, 8, 10, 12, 14}, 16)
	h, views, err := stateimage.RestoreAccess(img)
	require.NoError(t, err)
	require.Equal(t, uint32(1), h.Version)
	require.Equal(t, int64(16), h.BufferEnd)
	require.Equal(t, int64(2), views[stateimage.RegionMeta].Len())
	require.Equal(t, int64(2), views[stateimage.RegionJumpStatistics].Len())
}

func TestRestoreAccess_RejectsNonIncreasingOffsets(t *testing.T) {
	img := buildImage(t, [8]int64{0, 2, 2, 6, 8, 10, 12, 14}, 16)
	_, _, err := stateimage.RestoreAccess(img)
	require.Error(t, err)
}

func TestRestoreAccess_RejectsOutOfBoundsOffset(t *testing.T) {
	img := buildImage(t, [8]int64{0, 2, 4, 6, 8, 10, 12, 20}, 16)
	_, _, err := stateimage.RestoreAccess(img)
	require.Error(t, err)
}

func TestSaveLoadFile_RoundTrips(t *testing.T) {
	img := buildImage(t, [8]int64{0, 2, 4, 6, 8, 10, 12, 14}, 16)
	copy(img.Buffer()[len(img.Buffer())-16:], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})

	path := t.TempDir() + "/state.mcs"
	require.NoError(t, stateimage.SaveToFile(img, path))

	loaded, err := stateimage.LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, img.Buffer(), loaded.Buffer())
}
