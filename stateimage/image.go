package stateimage

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/mocsim/mocsim/mocerr"
)

var (
	errShortHeader = errors.New("stateimage: buffer too short for header")
	errBadMagic    = errors.New("stateimage: bad magic, not a mocsim state image")
)

// Image is the single owned byte buffer the context allocates once and
// releases at teardown (spec.md §5 "Resource discipline"). Sub-region
// views never outlive the Image.
type Image struct {
	buf []byte
}

// Allocate creates a new Image holding the fixed-size header followed by
// a size-byte payload area (headerFixedSize+size bytes in all).
func Allocate(size int) *Image {
	return &Image{buf: make([]byte, headerFixedSize+size)}
}

// Buffer exposes the raw backing slice (used by the header encoder/region
// writers; never resliced beyond headerFixedSize+size after Allocate).
func (img *Image) Buffer() []byte { return img.buf }

// WriteHeader encodes h into the image's fixed header prefix.
func (img *Image) WriteHeader(h *Header) {
	copy(img.buf[:headerFixedSize], h.Encode())
}

// RegionView is a typed, non-copying view over one region of an Image.
type RegionView struct {
	Region     Region
	Begin, End int64
}

// Bytes returns the region's backing slice, offset by the header size.
func (v RegionView) Bytes(img *Image) []byte {
	base := int64(headerFixedSize)
	return img.buf[base+v.Begin : base+v.End]
}

// Len returns the region's byte length.
func (v RegionView) Len() int64 { return v.End - v.Begin }

// RestoreAccess walks the header, validates each offset against the
// buffer end and the monotonic-ordering invariant (spec.md §3: "region
// starts strictly increase"), and yields typed views over the regions
// without copying. Any offset out of bounds or out of order is
// DataConsistency — spec.md §4.2's mandated refusal to run.
func RestoreAccess(img *Image) (*Header, map[Region]RegionView, error) {
	h, err := DecodeHeader(img.buf)
	if err != nil {
		return nil, nil, mocerr.New(mocerr.DataConsistency, "stateimage.RestoreAccess", err)
	}

	bufEnd := int64(len(img.buf) - headerFixedSize)
	views := make(map[Region]RegionView, regionCount)

	prev := int64(-1)
	for i := 0; i < int(regionCount); i++ {
		start := h.Offsets[i]
		var end int64
		if i+1 < int(regionCount) {
			end = h.Offsets[i+1]
		} else {
			end = bufEnd
		}

		if start < 0 || start >= bufEnd {
			return nil, nil, mocerr.Newf(mocerr.DataConsistency, "stateimage.RestoreAccess",
				"region %d start %d out of bounds [0,%d)", i, start, bufEnd)
		}
		if end <= start || end > bufEnd {
			return nil, nil, mocerr.Newf(mocerr.DataConsistency, "stateimage.RestoreAccess",
				"region %d end %d out of bounds (start=%d, bufEnd=%d)", i, end, start, bufEnd)
		}
		if start <= prev {
			return nil, nil, mocerr.Newf(mocerr.DataConsistency, "stateimage.RestoreAccess",
				"region %d start %d does not strictly increase over previous %d", i, start, prev)
		}
		prev = start

		views[Region(i)] = RegionView{Region: Region(i), Begin: start, End: end}
	}

	h.BufferEnd = bufEnd
	return h, views, nil
}

// LoadFromFile reads a state image from path (spec.md §6: run.mcs /
// prerun.mcs).
func LoadFromFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mocerr.New(mocerr.File, "stateimage.LoadFromFile", err)
	}
	return &Image{buf: data}, nil
}

// SaveToFile writes the image atomically: write to a temp file in the same
// directory, then rename over the destination (spec.md §5/§6).
func SaveToFile(img *Image, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return mocerr.New(mocerr.File, "stateimage.SaveToFile", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(img.buf); err != nil {
		tmp.Close()
		return mocerr.New(mocerr.File, "stateimage.SaveToFile", err)
	}
	if err := tmp.Close(); err != nil {
		return mocerr.New(mocerr.File, "stateimage.SaveToFile", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return mocerr.New(mocerr.File, "stateimage.SaveToFile", err)
	}
	return nil
}
