// Package stateimage implements the single contiguous binary state buffer
// (spec.md §3/§4.2): a Header carrying each region's byte offset, and
// typed region views derived from it without copying.
package stateimage

import "encoding/binary"

// Region identifies one of the State image's named partitions (spec.md §3).
type Region int

const (
	RegionMeta Region = iota
	RegionLattice
	RegionCounters
	RegionGlobalTrackers
	RegionMobileTrackers
	RegionStaticTrackers
	RegionMobileTrackerMapping
	RegionJumpStatistics
	regionCount
)

// STATE_FLG_* flags live in the header's Flags word (spec.md §4.8/§5/§7).
const (
	FlagPreRunReset uint32 = 1 << iota
	FlagSimError
)

// headerMagic identifies a well-formed image; present to catch obviously
// foreign files early, before offset validation runs.
const headerMagic uint32 = 0x4d4f4353 // "MOCS"

const headerFixedSize = 4 + 4 + 4 + 8 + 8 + int(regionCount)*8 // magic,version,flags,rngState,rngInc,offsets

// Header carries byte offsets to each region plus small top-level fields
// (flags, RNG stream state) that must survive a save/restore round-trip
// (spec.md §8: round-trip idempotence, §5: RNG state is serialized).
type Header struct {
	Version  uint32
	Flags    uint32
	RNGState uint64
	RNGInc   uint64
	// Offsets[r] is the start byte of region r; the end of region r is
	// Offsets[r+1], or BufferEnd for the last region (spec.md §3).
	Offsets   [regionCount]int64
	BufferEnd int64
}

// Encode serializes the header into a fixed-size byte prefix.
func (h *Header) Encode() []byte {
	buf := make([]byte, headerFixedSize)
	binary.LittleEndian.PutUint32(buf[0:], headerMagic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	binary.LittleEndian.PutUint32(buf[8:], h.Flags)
	binary.LittleEndian.PutUint64(buf[12:], h.RNGState)
	binary.LittleEndian.PutUint64(buf[20:], h.RNGInc)
	off := 28
	for i := 0; i < int(regionCount); i++ {
		binary.LittleEndian.PutUint64(buf[off:], uint64(h.Offsets[i]))
		off += 8
	}
	return buf
}

// DecodeHeader parses the fixed-size header prefix of buf.
func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < headerFixedSize {
		return nil, errShortHeader
	}
	magic := binary.LittleEndian.Uint32(buf[0:])
	if magic != headerMagic {
		return nil, errBadMagic
	}
	h := &Header{}
	h.Version = binary.LittleEndian.Uint32(buf[4:])
	h.Flags = binary.LittleEndian.Uint32(buf[8:])
	h.RNGState = binary.LittleEndian.Uint64(buf[12:])
	h.RNGInc = binary.LittleEndian.Uint64(buf[20:])
	off := 28
	for i := 0; i < int(regionCount); i++ {
		h.Offsets[i] = int64(binary.LittleEndian.Uint64(buf[off:]))
		off += 8
	}
	return h, nil
}

// HasFlag reports whether f is set in the header's Flags word.
func (h *Header) HasFlag(f uint32) bool { return h.Flags&f != 0 }

// SetFlag sets f in the header's Flags word.
func (h *Header) SetFlag(f uint32) { h.Flags |= f }
