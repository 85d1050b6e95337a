// Package mmcfe implements the MMC free-energy α-sweep routine (spec.md
// §4.9): a ramp of α values from AlphaMin to AlphaMax, each stepped
// through a relaxation phase and a logging phase, with the resulting
// lattice/histogram/params snapshot persisted to a log database.
package mmcfe

import (
	"bytes"
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/mocsim/mocsim/jobconfig"
	"github.com/mocsim/mocsim/mocerr"
	"github.com/mocsim/mocsim/routine"
	"github.com/mocsim/mocsim/tracking"
	"github.com/mocsim/mocsim/transition"
	"github.com/mocsim/mocsim/units"
)

// RoutineUUID is the 16-byte UUID spec.md §4.9 assigns this routine.
var RoutineUUID = uuid.MustParse("b7f2dded-daf1-40c0-a1a4-ef9b85356af8")

// relaxBufferMinSize is RELAXBUFFER_SIZE from spec.md §4.9.
const relaxBufferMinSize = 100_000

// Run executes the α-sweep: while cfg.AlphaCurrent <= cfg.AlphaMax, runs
// a relaxation phase, a logging phase, and persists one row to log, then
// advances AlphaCurrent by AlphaStep. cfg is taken by value so the caller's
// copy (e.g. as loaded from YAML/resumed from the database) is untouched;
// Run tracks its own advancing current internally.
func Run(ctx *transition.Context, cfg jobconfig.MMCFEConfig, log *LogDB) error {
	if cfg.AlphaCount <= 0 {
		return mocerr.Newf(mocerr.Argument, "mmcfe.Run", "AlphaCount must be > 0, got %d", cfg.AlphaCount)
	}
	if !(cfg.AlphaMin > 0 && cfg.AlphaMin < cfg.AlphaMax && cfg.AlphaMax <= 1) {
		return mocerr.Newf(mocerr.Argument, "mmcfe.Run", "require 0 < AlphaMin(%v) < AlphaMax(%v) <= 1", cfg.AlphaMin, cfg.AlphaMax)
	}
	if cfg.HistogramRange <= 0 || cfg.HistogramSize <= 0 {
		return mocerr.Newf(mocerr.Argument, "mmcfe.Run", "HistogramRange and HistogramSize must be > 0")
	}

	alphaStep := (cfg.AlphaMax - cfg.AlphaMin) / float64(cfg.AlphaCount)
	alphaCurrent := cfg.AlphaCurrent
	if alphaCurrent == 0 {
		alphaCurrent = cfg.AlphaMin
	}

	relaxCapacity := relaxBufferMinSize
	if int64(relaxCapacity) < cfg.RelaxPhaseCycleCount {
		relaxCapacity = int(cfg.RelaxPhaseCycleCount)
	}
	relaxBuffer := tracking.NewRingBuffer(relaxCapacity)

	hist := tracking.NewDynamicHistogram(int(cfg.HistogramSize), -cfg.HistogramRange, cfg.HistogramRange)

	ktToEv := units.KtToEv(ctx.TemperatureKelvin)

	const alphaEpsilon = 1e-9
	for alphaCurrent <= cfg.AlphaMax+alphaEpsilon {
		relaxBuffer.Clear()
		for i := int64(0); i < cfg.RelaxPhaseCycleCount; i++ {
			if _, err := transition.MmcAlphaCycle(ctx, alphaCurrent); err != nil {
				return err
			}
			if relaxBuffer.Len() == relaxCapacity {
				relaxBuffer.Clear()
			}
			relaxBuffer.Push(ctx.Lattice.TotalEnergy())
		}
		meanEV := relaxBuffer.Mean() * ktToEv
		hist.SetRange(meanEV, cfg.HistogramRange)

		for i := int64(0); i < cfg.LogPhaseCycleCount; i++ {
			if _, err := transition.MmcAlphaCycle(ctx, alphaCurrent); err != nil {
				return err
			}
			hist.Add(ctx.Lattice.TotalEnergy() * ktToEv)
		}

		rowCfg := cfg
		rowCfg.AlphaCurrent = alphaCurrent
		if log != nil {
			if err := log.Append(ctx, hist, rowCfg, alphaCurrent); err != nil {
				return err
			}
		}

		alphaCurrent += alphaStep
	}

	return nil
}

// NewRoutine builds a routine.Routine descriptor for this package that can
// be added to a routine.Registry. It does not register itself; the run
// command calls Run directly.
func NewRoutine(cfg jobconfig.MMCFEConfig, log *LogDB) routine.Routine {
	return routine.Routine{
		UUID: RoutineUUID,
		Name: "mmcfe",
		Entry: func(ctx *transition.Context) error {
			return Run(ctx, cfg, log)
		},
	}
}

// EncodeHistogram serializes a dynamic histogram as "header + counters
// contiguous" (spec.md §4.9's log-database Histogram blob format): the
// header carries entry count, min, max, underflow, overflow; the body is
// the raw uint64 counter array.
func EncodeHistogram(h *tracking.DynamicHistogram) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(h.EntryCount())) //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, h.Min())               //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, h.Max())               //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, h.Underflow())         //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, h.Overflow())          //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, h.Counters())          //nolint:errcheck
	return buf.Bytes()
}

// EncodeParamState serializes cfg as the log row's ParamState blob.
func EncodeParamState(cfg jobconfig.MMCFEConfig) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, cfg.HistogramSize)        //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, cfg.AlphaCount)           //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, cfg.AlphaMin)             //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, cfg.AlphaMax)             //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, cfg.AlphaCurrent)         //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, cfg.HistogramRange)       //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, cfg.RelaxPhaseCycleCount) //nolint:errcheck
	binary.Write(&buf, binary.LittleEndian, cfg.LogPhaseCycleCount)   //nolint:errcheck
	return buf.Bytes()
}

// DecodeParamState parses a ParamState blob written by EncodeParamState,
// used by LogDB.Resume to recover AlphaCurrent from the last logged row.
func DecodeParamState(blob []byte) (jobconfig.MMCFEConfig, error) {
	var cfg jobconfig.MMCFEConfig
	r := bytes.NewReader(blob)
	fields := []any{
		&cfg.HistogramSize, &cfg.AlphaCount, &cfg.AlphaMin, &cfg.AlphaMax,
		&cfg.AlphaCurrent, &cfg.HistogramRange, &cfg.RelaxPhaseCycleCount, &cfg.LogPhaseCycleCount,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return cfg, mocerr.New(mocerr.Stream, "mmcfe.DecodeParamState", err)
		}
	}
	return cfg, nil
}

// EncodeLattice serializes the current lattice occupation as the log
// row's Lattice blob: one byte per site, in linear-index order.
func EncodeLattice(ctx *transition.Context) []byte {
	buf := make([]byte, len(ctx.Lattice.Sites))
	for i := range ctx.Lattice.Sites {
		buf[i] = ctx.Lattice.Sites[i].ParticleID
	}
	return buf
}
