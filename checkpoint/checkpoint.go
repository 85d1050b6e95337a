// Package checkpoint builds and restores the binary State image (spec.md
// §4.2/§6) around a transition.Context: lattice occupation, counters,
// the three tracker families, jump-energy histograms, the RNG stream, and
// the simulated-time accumulator. It is the only place that knows how a
// Context maps onto stateimage.Region byte layout.
package checkpoint

import (
	"bytes"
	"encoding/binary"
	"math"
	"sort"

	"github.com/mocsim/mocsim/counters"
	"github.com/mocsim/mocsim/mocerr"
	"github.com/mocsim/mocsim/pool"
	"github.com/mocsim/mocsim/rng"
	"github.com/mocsim/mocsim/stateimage"
	"github.com/mocsim/mocsim/tracking"
	"github.com/mocsim/mocsim/transition"
	"github.com/mocsim/mocsim/vec3"
)

// stateImageVersion is the Header.Version this package writes; bump it if
// the region layout below changes incompatibly.
const stateImageVersion uint32 = 1

// Build serializes ctx into a new state Image with the given header flags
// (spec.md §4.2's region layout: meta, lattice, counters, global/mobile/
// static trackers, mobile-tracker mapping, jump statistics).
func Build(ctx *transition.Context, flags uint32) (*stateimage.Image, error) {
	var regions [8]bytes.Buffer // indexed by stateimage.Region

	if err := binary.Write(&regions[stateimage.RegionMeta], binary.LittleEndian, ctx.SimTime); err != nil {
		return nil, mocerr.New(mocerr.Stream, "checkpoint.Build", err)
	}

	lattice := &regions[stateimage.RegionLattice]
	for i := range ctx.Lattice.Sites {
		lattice.WriteByte(ctx.Lattice.Sites[i].ParticleID)
	}

	mapping := &regions[stateimage.RegionMobileTrackerMapping]
	for i := range ctx.Lattice.Sites {
		if err := binary.Write(mapping, binary.LittleEndian, int32(ctx.Lattice.Sites[i].MobileTrackerID)); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Build", err)
		}
	}

	// Counters, trackers and jump statistics are all keyed by a Go map
	// internally, whose iteration order is unspecified; entries are
	// gathered and sorted before writing so two Build calls over the same
	// logical state always emit byte-identical regions (spec.md §8).
	type counterEntry struct {
		particleID uint8
		p          counters.PerParticle
	}
	var counterEntries []counterEntry
	ctx.Counters.ForEach(func(particleID uint8, p *counters.PerParticle) {
		counterEntries = append(counterEntries, counterEntry{particleID, *p})
	})
	sort.Slice(counterEntries, func(i, j int) bool { return counterEntries[i].particleID < counterEntries[j].particleID })

	countersBuf := &regions[stateimage.RegionCounters]
	if err := binary.Write(countersBuf, binary.LittleEndian, uint32(len(counterEntries))); err != nil {
		return nil, mocerr.New(mocerr.Stream, "checkpoint.Build", err)
	}
	for _, e := range counterEntries {
		countersBuf.WriteByte(e.particleID)
		if err := binary.Write(countersBuf, binary.LittleEndian, e.p); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Build", err)
		}
	}

	type trackerEntry struct {
		id       int
		particle uint8
		v        vec3.Vec3
	}
	var globalEntries []trackerEntry
	ctx.Trackers.ForEachGlobal(func(collectionID int, particle uint8, v vec3.Vec3) {
		globalEntries = append(globalEntries, trackerEntry{collectionID, particle, v})
	})
	sort.Slice(globalEntries, func(i, j int) bool {
		if globalEntries[i].id != globalEntries[j].id {
			return globalEntries[i].id < globalEntries[j].id
		}
		return globalEntries[i].particle < globalEntries[j].particle
	})

	globalBuf := &regions[stateimage.RegionGlobalTrackers]
	binary.Write(globalBuf, binary.LittleEndian, uint32(len(globalEntries))) //nolint:errcheck
	for _, e := range globalEntries {
		binary.Write(globalBuf, binary.LittleEndian, int32(e.id)) //nolint:errcheck
		globalBuf.WriteByte(e.particle)
		binary.Write(globalBuf, binary.LittleEndian, e.v) //nolint:errcheck
	}

	var staticEntries []trackerEntry
	ctx.Trackers.ForEachStatic(func(positionID int, particle uint8, v vec3.Vec3) {
		staticEntries = append(staticEntries, trackerEntry{positionID, particle, v})
	})
	sort.Slice(staticEntries, func(i, j int) bool {
		if staticEntries[i].id != staticEntries[j].id {
			return staticEntries[i].id < staticEntries[j].id
		}
		return staticEntries[i].particle < staticEntries[j].particle
	})

	staticBuf := &regions[stateimage.RegionStaticTrackers]
	binary.Write(staticBuf, binary.LittleEndian, uint32(len(staticEntries))) //nolint:errcheck
	for _, e := range staticEntries {
		binary.Write(staticBuf, binary.LittleEndian, int32(e.id)) //nolint:errcheck
		staticBuf.WriteByte(e.particle)
		binary.Write(staticBuf, binary.LittleEndian, e.v) //nolint:errcheck
	}

	mobileBuf := &regions[stateimage.RegionMobileTrackers]
	binary.Write(mobileBuf, binary.LittleEndian, uint32(len(ctx.Trackers.Mobile))) //nolint:errcheck
	for _, v := range ctx.Trackers.Mobile {
		binary.Write(mobileBuf, binary.LittleEndian, v) //nolint:errcheck
	}

	type statEntry struct {
		collectionID int
		particle     uint8
		stat         *tracking.JumpStat
	}
	var statEntries []statEntry
	ctx.Stats.ForEach(func(collectionID int, particle uint8, stat *tracking.JumpStat) {
		statEntries = append(statEntries, statEntry{collectionID, particle, stat})
	})
	sort.Slice(statEntries, func(i, j int) bool {
		if statEntries[i].collectionID != statEntries[j].collectionID {
			return statEntries[i].collectionID < statEntries[j].collectionID
		}
		return statEntries[i].particle < statEntries[j].particle
	})

	statsBuf := &regions[stateimage.RegionJumpStatistics]
	binary.Write(statsBuf, binary.LittleEndian, uint32(len(statEntries))) //nolint:errcheck
	for _, e := range statEntries {
		binary.Write(statsBuf, binary.LittleEndian, int32(e.collectionID)) //nolint:errcheck
		statsBuf.WriteByte(e.particle)
		for _, h := range []*tracking.FixedHistogram{e.stat.EdgeEnergy, e.stat.PosConformation, e.stat.NegConformation, e.stat.TotalEnergy} {
			c := h.Counters()
			binary.Write(statsBuf, binary.LittleEndian, c)            //nolint:errcheck
			binary.Write(statsBuf, binary.LittleEndian, h.Underflow()) //nolint:errcheck
			binary.Write(statsBuf, binary.LittleEndian, h.Overflow())  //nolint:errcheck
		}
	}

	var payload bytes.Buffer
	var offsets [8]int64
	for r := 0; r < 8; r++ {
		offsets[r] = int64(payload.Len())
		payload.Write(regions[r].Bytes())
	}

	img := stateimage.Allocate(payload.Len())
	copy(img.Buffer()[len(img.Buffer())-payload.Len():], payload.Bytes())

	state, inc := ctx.RNG.State()
	h := &stateimage.Header{
		Version:  stateImageVersion,
		Flags:    flags,
		RNGState: state,
		RNGInc:   inc,
		Offsets:  offsets,
	}
	img.WriteHeader(h)

	return img, nil
}

// Restore rebuilds ctx's mutable state from img: lattice occupation, pool
// classification (recomputed fresh from the restored occupation, per
// spec.md §4.4 — pool contents are a deterministic function of the
// lattice, so only the mobile-tracker identity mapping needs persisting),
// counters, trackers, jump statistics, the RNG stream, and SimTime. It
// returns the decoded header so the caller can inspect flags.
func Restore(img *stateimage.Image, ctx *transition.Context) (*stateimage.Header, error) {
	h, views, err := stateimage.RestoreAccess(img)
	if err != nil {
		return nil, err
	}

	metaView := views[stateimage.RegionMeta]
	if metaView.Len() < 8 {
		return nil, mocerr.Newf(mocerr.DataConsistency, "checkpoint.Restore", "meta region too short: %d bytes", metaView.Len())
	}
	ctx.SimTime = math.Float64frombits(binary.LittleEndian.Uint64(metaView.Bytes(img)[:8]))

	latticeView := views[stateimage.RegionLattice]
	latticeBytes := latticeView.Bytes(img)
	if len(latticeBytes) != len(ctx.Lattice.Sites) {
		return nil, mocerr.Newf(mocerr.DataConsistency, "checkpoint.Restore",
			"lattice region has %d sites, context has %d", len(latticeBytes), len(ctx.Lattice.Sites))
	}
	for i, b := range latticeBytes {
		ctx.Lattice.SetParticle(i, b)
	}
	for i := range ctx.Lattice.Sites {
		ctx.Lattice.RefreshStability(i)
		ctx.Lattice.RecomputeSiteEnergy(i)
	}

	ctx.Pool = pool.New(ctx.Lattice)
	ctx.Pool.RegisterAll()

	mappingView := views[stateimage.RegionMobileTrackerMapping]
	mappingBytes := mappingView.Bytes(img)
	if len(mappingBytes) != 4*len(ctx.Lattice.Sites) {
		return nil, mocerr.Newf(mocerr.DataConsistency, "checkpoint.Restore",
			"mobile-tracker mapping region has %d bytes, want %d", len(mappingBytes), 4*len(ctx.Lattice.Sites))
	}
	for i := range ctx.Lattice.Sites {
		id := int32(binary.LittleEndian.Uint32(mappingBytes[4*i:]))
		ctx.Lattice.Sites[i].MobileTrackerID = int(id)
	}

	mobileView := views[stateimage.RegionMobileTrackers]
	mobileR := bytes.NewReader(mobileView.Bytes(img))
	var mobileCount uint32
	if err := binary.Read(mobileR, binary.LittleEndian, &mobileCount); err != nil {
		return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
	}
	trackers := tracking.NewTrackers(int(mobileCount))
	for i := range trackers.Mobile {
		if err := binary.Read(mobileR, binary.LittleEndian, &trackers.Mobile[i]); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
		}
	}
	ctx.Trackers = trackers

	globalView := views[stateimage.RegionGlobalTrackers]
	globalR := bytes.NewReader(globalView.Bytes(img))
	var globalCount uint32
	if err := binary.Read(globalR, binary.LittleEndian, &globalCount); err != nil {
		return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
	}
	for i := uint32(0); i < globalCount; i++ {
		var collectionID int32
		var particle uint8
		var v vec3.Vec3
		if err := binary.Read(globalR, binary.LittleEndian, &collectionID); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
		}
		if err := binary.Read(globalR, binary.LittleEndian, &particle); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
		}
		if err := binary.Read(globalR, binary.LittleEndian, &v); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
		}
		ctx.Trackers.SetGlobal(int(collectionID), particle, v)
	}

	staticView := views[stateimage.RegionStaticTrackers]
	staticR := bytes.NewReader(staticView.Bytes(img))
	var staticCount uint32
	if err := binary.Read(staticR, binary.LittleEndian, &staticCount); err != nil {
		return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
	}
	for i := uint32(0); i < staticCount; i++ {
		var positionID int32
		var particle uint8
		var v vec3.Vec3
		if err := binary.Read(staticR, binary.LittleEndian, &positionID); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
		}
		if err := binary.Read(staticR, binary.LittleEndian, &particle); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
		}
		if err := binary.Read(staticR, binary.LittleEndian, &v); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
		}
		ctx.Trackers.SetStatic(int(positionID), particle, v)
	}

	countersView := views[stateimage.RegionCounters]
	countersR := bytes.NewReader(countersView.Bytes(img))
	var counterEntries uint32
	if err := binary.Read(countersR, binary.LittleEndian, &counterEntries); err != nil {
		return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
	}
	newCounters := counters.New()
	for i := uint32(0); i < counterEntries; i++ {
		particleID, err := countersR.ReadByte()
		if err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
		}
		var p counters.PerParticle
		if err := binary.Read(countersR, binary.LittleEndian, &p); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.Restore", err)
		}
		newCounters.Set(particleID, p)
	}
	ctx.Counters = newCounters

	newStats, err := decodeJumpStatistics(views[stateimage.RegionJumpStatistics].Bytes(img))
	if err != nil {
		return nil, err
	}
	ctx.Stats = newStats

	ctx.RNG = rng.RestoreState(h.RNGState, h.RNGInc)

	return h, nil
}

// decodeJumpStatistics parses the RegionJumpStatistics byte layout Build
// writes: a count-prefixed sequence of (collectionID, particle, four
// FixedHistogram raw dumps) entries.
func decodeJumpStatistics(buf []byte) (*tracking.JumpStatistics, error) {
	r := bytes.NewReader(buf)
	var statEntries uint32
	if err := binary.Read(r, binary.LittleEndian, &statEntries); err != nil {
		return nil, mocerr.New(mocerr.Stream, "checkpoint.decodeJumpStatistics", err)
	}
	stats := tracking.NewJumpStatistics()
	for i := uint32(0); i < statEntries; i++ {
		var collectionID int32
		if err := binary.Read(r, binary.LittleEndian, &collectionID); err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.decodeJumpStatistics", err)
		}
		particle, err := r.ReadByte()
		if err != nil {
			return nil, mocerr.New(mocerr.Stream, "checkpoint.decodeJumpStatistics", err)
		}
		stat := stats.For(int(collectionID), particle)
		for _, dst := range []*tracking.FixedHistogram{stat.EdgeEnergy, stat.PosConformation, stat.NegConformation, stat.TotalEnergy} {
			var c [tracking.FixedHistogramSize]uint64
			var underflow, overflow uint64
			if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
				return nil, mocerr.New(mocerr.Stream, "checkpoint.decodeJumpStatistics", err)
			}
			if err := binary.Read(r, binary.LittleEndian, &underflow); err != nil {
				return nil, mocerr.New(mocerr.Stream, "checkpoint.decodeJumpStatistics", err)
			}
			if err := binary.Read(r, binary.LittleEndian, &overflow); err != nil {
				return nil, mocerr.New(mocerr.Stream, "checkpoint.decodeJumpStatistics", err)
			}
			dst.SetRaw(c, underflow, overflow)
		}
	}
	return stats, nil
}

// RestoreJumpStatistics decodes only the jump-statistics region of a saved
// state image, without reconstructing a full transition.Context. Used by
// the print-jump-histograms CLI utility, which has no model/lattice to
// rebuild a Context against.
func RestoreJumpStatistics(img *stateimage.Image) (*tracking.JumpStatistics, error) {
	_, views, err := stateimage.RestoreAccess(img)
	if err != nil {
		return nil, err
	}
	return decodeJumpStatistics(views[stateimage.RegionJumpStatistics].Bytes(img))
}
