// Package scheduler drives the block/phase loop over the transition
// protocol (spec.md §4.8): it runs cycles in batches, samples observables
// at block boundaries, checks abort conditions, and persists checkpoints.
package scheduler

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mocsim/mocsim/checkpoint"
	"github.com/mocsim/mocsim/jobconfig"
	"github.com/mocsim/mocsim/stateimage"
	"github.com/mocsim/mocsim/tracking"
	"github.com/mocsim/mocsim/transition"
	"github.com/mocsim/mocsim/units"
)

// Block/cycle sizing constants per spec.md §4.8.
const (
	CycleBlockCount    = 100
	CycleBlockSizeMin  = 100_000
	CycleBlockSizeMax  = 10_000_000
	cycleBlockSizeMult = 100
)

// Reason names why the scheduler's loop stopped.
type Reason string

const (
	ReasonCompleted   Reason = "COMPLETED"
	ReasonTimeout     Reason = "TIMEOUT"
	ReasonCondAbort   Reason = "CONDABORT"
	ReasonRateAbort   Reason = "RATEABORT"
	ReasonEnergyAbort Reason = "ENERGYABORT"
)

// CycleFunc runs one transition cycle against ctx — transition.KmcCycle,
// transition.MmcCycle, or an alpha-scaled closure over
// transition.MmcAlphaCycle.
type CycleFunc func(ctx *transition.Context) (transition.CycleResult, error)

// Scheduler owns the block/phase loop for one simulation instance.
type Scheduler struct {
	Ctx    *transition.Context
	Cycle  CycleFunc
	Config jobconfig.SchedulerConfig
	Logger *logrus.Logger

	// StateFilePath receives periodic checkpoints; empty disables saving.
	StateFilePath string
	PreRunPath    string

	mobileCount int
	energyWindow *tracking.RingBuffer

	started        time.Time
	blocksRun      int64
	totalAttempted int64
	flags          uint32
	preRunDone     bool
}

// Result summarizes a completed scheduler run.
type Result struct {
	Reason        Reason
	BlocksRun     int64
	TotalAccepted int64
	SimTime       float64
}

// New builds a Scheduler. mobileCount is the conserved mobile-particle
// count (ctx.MobileCount()), used to convert MCSP targets into absolute
// cycle counts per spec.md §4.8.
func New(ctx *transition.Context, cycle CycleFunc, cfg jobconfig.SchedulerConfig, mobileCount int, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	windowSize := cfg.EnergyWindowSize
	if windowSize <= 0 {
		windowSize = 1
	}
	return &Scheduler{
		Ctx:          ctx,
		Cycle:        cycle,
		Config:       cfg,
		Logger:       logger,
		mobileCount:  mobileCount,
		energyWindow: tracking.NewRingBuffer(windowSize),
	}
}

// targetSteps converts an MCSP target into an absolute cycle-count target,
// padded up to a multiple of CycleBlockCount, per spec.md §4.8.
func targetSteps(mcsp int64, mobileCount int) int64 {
	total := mcsp * int64(mobileCount)
	if total <= 0 {
		return 0
	}
	remainder := total % CycleBlockCount
	if remainder != 0 {
		total += CycleBlockCount - remainder
	}
	return total
}

// innerCycleBudget computes the per-block inner-loop cycle budget per
// spec.md §4.8: min(blockSteps·100, MAX) clamped up by MIN.
func innerCycleBudget(blockSteps int64) int64 {
	c := blockSteps * cycleBlockSizeMult
	if c > CycleBlockSizeMax {
		c = CycleBlockSizeMax
	}
	if c < CycleBlockSizeMin {
		c = CycleBlockSizeMin
	}
	return c
}

// Run executes the pre-run phase (if configured) followed by the main run,
// until the target is reached or an abort condition fires, per spec.md
// §4.8.
func (s *Scheduler) Run() (Result, error) {
	s.started = time.Now()

	if s.Config.UsePreRun && s.Config.PreRunMcsp > 0 {
		preTotal := targetSteps(s.Config.PreRunMcsp, s.mobileCount)
		if _, err := s.runPhase(preTotal, s.PreRunPath); err != nil {
			return Result{}, err
		}
		s.resetForMainRun()
	}

	total := targetSteps(s.Config.TargetMcsp, s.mobileCount)
	reason, err := s.runPhase(total, s.StateFilePath)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Reason:        reason,
		BlocksRun:     s.blocksRun,
		TotalAccepted: s.Ctx.Counters.TotalMcsCount(),
		SimTime:       s.Ctx.SimTime,
	}, nil
}

// resetForMainRun implements spec.md §4.8's pre-run -> main-run
// transition: counters, trackers, and histograms reset; the
// STATE_FLG_PRERUN_RESET flag is set exactly once.
func (s *Scheduler) resetForMainRun() {
	if s.preRunDone {
		return
	}
	s.Ctx.Counters.Reset()
	s.Ctx.Trackers.Reset()
	s.Ctx.Stats.Reset()
	s.energyWindow.Clear()
	s.flags |= stateimage.FlagPreRunReset
	s.preRunDone = true
	s.Logger.Info("pre-run complete, counters/trackers/histograms reset")
}

// runPhase runs blocks until accepted == total or an abort condition
// fires, checkpointing to statePath at each block boundary if non-empty.
func (s *Scheduler) runPhase(total int64, statePath string) (Reason, error) {
	blockSteps := total / CycleBlockCount
	if blockSteps <= 0 {
		blockSteps = 1
	}
	innerCycles := innerCycleBudget(blockSteps)

	baseline := s.Ctx.Counters.TotalMcsCount()
	for s.Ctx.Counters.TotalMcsCount()-baseline < total {
		accepted, attempted, err := s.runBlock(blockSteps, innerCycles)
		if err != nil {
			return "", err
		}
		s.blocksRun++
		s.totalAttempted += attempted

		s.energyWindow.Push(s.Ctx.Lattice.TotalEnergy() * units.KtToEv(s.Ctx.TemperatureKelvin))
		s.logBlockReport(total, baseline, attempted, accepted)

		if reason, hit := s.checkAbort(attempted, accepted); hit {
			s.maybeCheckpoint(statePath)
			return reason, nil
		}

		s.maybeCheckpoint(statePath)
	}
	return ReasonCompleted, nil
}

// runBlock runs transition cycles until blockSteps accepted cycles
// accumulate or innerCycles attempts are exhausted (spec.md §4.8 step 1).
func (s *Scheduler) runBlock(blockSteps, innerCycles int64) (accepted, attempted int64, err error) {
	for accepted < blockSteps && attempted < innerCycles {
		result, cycleErr := s.Cycle(s.Ctx)
		if cycleErr != nil {
			return accepted, attempted, cycleErr
		}
		attempted++
		if result.Outcome == transition.OutcomeAccepted {
			accepted++
		}
	}
	return accepted, attempted, nil
}

// logBlockReport logs one line of progress per block: success rate,
// cycles/sec, and an ETA to the phase's target, mirroring the teacher's
// style of periodic structured logrus progress lines.
func (s *Scheduler) logBlockReport(total, baseline, attempted, accepted int64) {
	elapsed := time.Since(s.started).Seconds()
	done := s.Ctx.Counters.TotalMcsCount() - baseline
	var rate, cyclesPerSec, etaSeconds float64
	if attempted > 0 {
		rate = float64(accepted) / float64(attempted)
	}
	if elapsed > 0 {
		cyclesPerSec = float64(s.totalAttempted) / elapsed
	}
	if cyclesPerSec > 0 && done < total {
		etaSeconds = float64(total-done) / (cyclesPerSec * rate + 1e-12)
	}
	s.Logger.WithFields(logrus.Fields{
		"block":        s.blocksRun,
		"done":         done,
		"total":        total,
		"successRate":  rate,
		"cyclesPerSec": cyclesPerSec,
		"etaSeconds":   etaSeconds,
	}).Info("block complete")
}

// checkAbort implements spec.md §7's non-error abort conditions: TIMEOUT,
// CONDABORT, RATEABORT, ENERGYABORT.
func (s *Scheduler) checkAbort(attempted, accepted int64) (Reason, bool) {
	if s.Config.TimeLimitSeconds > 0 && time.Since(s.started).Seconds() >= s.Config.TimeLimitSeconds {
		return ReasonTimeout, true
	}
	if s.Config.CycleLimit > 0 && s.totalAttempted >= s.Config.CycleLimit {
		return ReasonCondAbort, true
	}
	if s.Config.MinSuccessRate > 0 && attempted > 0 {
		rate := float64(accepted) / float64(attempted)
		if rate < s.Config.MinSuccessRate {
			return ReasonRateAbort, true
		}
	}
	if s.Config.EnergyFluctuationEV > 0 && s.energyWindow.Len() >= 2 {
		if s.energyWindow.StdDev() < s.Config.EnergyFluctuationEV {
			return ReasonEnergyAbort, true
		}
	}
	return "", false
}

// maybeCheckpoint saves a checkpoint to path, if non-empty, every
// CheckpointEveryN blocks (spec.md §4.8 step 4, §5's atomic write-rename).
func (s *Scheduler) maybeCheckpoint(path string) {
	if path == "" || s.Config.CheckpointEveryN <= 0 {
		return
	}
	if s.blocksRun%s.Config.CheckpointEveryN != 0 {
		return
	}
	img, err := checkpoint.Build(s.Ctx, s.flags)
	if err != nil {
		s.Logger.WithError(err).Warn("checkpoint build failed")
		return
	}
	if err := stateimage.SaveToFile(img, path); err != nil {
		s.Logger.WithError(err).Warn("checkpoint save failed")
	}
}
