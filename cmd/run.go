package cmd

import (
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mocsim/mocsim/checkpoint"
	"github.com/mocsim/mocsim/jobconfig"
	"github.com/mocsim/mocsim/mmcfe"
	"github.com/mocsim/mocsim/model"
	"github.com/mocsim/mocsim/rng"
	"github.com/mocsim/mocsim/scheduler"
	"github.com/mocsim/mocsim/stateimage"
	"github.com/mocsim/mocsim/transition"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation job from a YAML configuration file",
	Run:   runJob,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "path to the job configuration YAML file")
	runCmd.MarkFlagRequired("config") //nolint:errcheck
}

func runJob(cmd *cobra.Command, args []string) {
	job, err := jobconfig.Load(configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading job configuration")
	}

	loader, err := model.NewSQLLoader(job.Database.Driver, job.Database.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("opening input model database")
	}
	m, err := loader.Load(job.Database.JobID)
	if err != nil {
		logrus.WithError(err).Fatal("loading input model")
	}

	var g *rng.PCG32
	if job.Kind == jobconfig.KindKMC && job.KMC.RandomSeed != nil {
		g = rng.NewPCG32(uint64(*job.KMC.RandomSeed), 1)
	} else if job.Kind == jobconfig.KindMMC && job.MMC.RandomSeed != nil {
		g = rng.NewPCG32(uint64(*job.MMC.RandomSeed), 1)
	} else {
		g = rng.SeedFromTimestamp(time.Now())
	}

	temperatureKelvin, fastExp, useFreqPreRejection, schedCfg, normCfg, electricFieldEV := jobParams(job)

	ctx, err := transition.NewContext(m, temperatureKelvin, electricFieldEV, fastExp, useFreqPreRejection, g)
	if err != nil {
		logrus.WithError(err).Fatal("building simulation context")
	}
	ctx.NormalizationFactor = normCfg.NormalizationFactor
	ctx.FastestRate = normCfg.FastestRate

	statePath := filepath.Join(job.IODir, "run.mcs")
	preRunPath := filepath.Join(job.IODir, "prerun.mcs")

	if job.Routine.Name == "mmcfe" {
		runMMCFE(job, ctx)
		return
	}

	cycle := transition.KmcCycle
	if job.Kind == jobconfig.KindMMC {
		cycle = transition.MmcCycle
	}

	sched := scheduler.New(ctx, cycle, schedCfg, ctx.MobileCount(), logrus.StandardLogger())
	sched.StateFilePath = statePath
	sched.PreRunPath = preRunPath

	result, err := sched.Run()
	if err != nil {
		saveErrorCheckpoint(ctx, statePath)
		logrus.WithError(err).Fatal("simulation aborted with error")
	}

	logrus.WithFields(logrus.Fields{
		"reason":        result.Reason,
		"blocksRun":     result.BlocksRun,
		"totalAccepted": result.TotalAccepted,
		"simTime":       result.SimTime,
	}).Info("simulation finished")
}

// jobParams flattens the job-kind-specific config blocks into the scalar
// parameters transition.NewContext and scheduler.New need.
func jobParams(job *jobconfig.Job) (temperatureKelvin float64, fastExp jobconfig.FastExpMode, useFreqPreRejection bool, sched jobconfig.SchedulerConfig, norm jobconfig.NormalizationConfig, electricFieldEV float64) {
	switch job.Kind {
	case jobconfig.KindKMC:
		return job.KMC.TemperatureKelvin, job.KMC.Energy.FastExp, job.KMC.Energy.UseFrequencyPreRejection,
			job.KMC.Scheduler, job.KMC.Normalization, job.KMC.ElectricFieldEV
	case jobconfig.KindMMC:
		return job.MMC.TemperatureKelvin, job.MMC.Energy.FastExp, job.MMC.Energy.UseFrequencyPreRejection,
			job.MMC.Scheduler, jobconfig.NormalizationConfig{}, 0
	default:
		logrus.Fatalf("unknown job kind %q", job.Kind)
		return
	}
}

// runMMCFE drives the α-sweep routine directly: it owns its own
// cycle loop rather than the scheduler's block loop (spec.md §4.9).
func runMMCFE(job *jobconfig.Job, ctx *transition.Context) {
	if job.MMCFE == nil {
		logrus.Fatal("routine mmcfe selected but job has no mmcfe config block")
	}
	logPath := job.MMCFE.LogDatabasePath
	if logPath == "" {
		logPath = filepath.Join(job.IODir, "mmcfelog.db")
	}
	log, err := mmcfe.OpenLogDB(logPath)
	if err != nil {
		logrus.WithError(err).Fatal("opening MMCFE log database")
	}
	defer log.Close()

	cfg := *job.MMCFE
	if resumed, ok, err := log.Resume(); err != nil {
		logrus.WithError(err).Fatal("resuming MMCFE sweep from log database")
	} else if ok {
		cfg.AlphaCurrent = resumed.AlphaCurrent
		logrus.WithField("alpha", cfg.AlphaCurrent).Info("resuming MMCFE sweep")
	}

	if err := mmcfe.Run(ctx, cfg, log); err != nil {
		logrus.WithError(err).Fatal("MMCFE sweep aborted with error")
	}
	logrus.Info("MMCFE sweep complete")
}

// saveErrorCheckpoint persists the current state with FlagSimError set
// before a fatal error terminates the loop (spec.md §7: "the state image
// is saved if possible before termination").
func saveErrorCheckpoint(ctx *transition.Context, path string) {
	img, err := checkpoint.Build(ctx, stateimage.FlagSimError)
	if err != nil {
		logrus.WithError(err).Warn("failed to build error checkpoint")
		return
	}
	if err := stateimage.SaveToFile(img, path); err != nil {
		logrus.WithError(err).Warn("failed to save error checkpoint")
	}
}
