// Package jobconfig groups job-header configuration the way the teacher's
// sim/config.go groups related simulation parameters into small structs
// (KVCacheConfig, BatchConfig, PolicyConfig, ...), loaded from YAML.
package jobconfig

// JobKind selects which simulation variant a job header describes.
type JobKind string

const (
	KindKMC JobKind = "kmc"
	KindMMC JobKind = "mmc"
)

// FastExpMode selects the acceptance-test exponential approximation,
// per spec.md §4.5/§8 (RMS, mean, upper, lower bound, or exact fallback).
type FastExpMode string

const (
	FastExpExact FastExpMode = "exact"
	FastExpRMS   FastExpMode = "rms"
	FastExpMean  FastExpMode = "mean"
	FastExpUpper FastExpMode = "upper"
	FastExpLower FastExpMode = "lower"
)

// SchedulerConfig groups the Scheduler's block/abort parameters (§4.8/§7).
type SchedulerConfig struct {
	TargetMcsp          int64   // target MCS per particle
	PreRunMcsp          int64   // pre-run MCS per particle; 0 disables pre-run
	UsePreRun           bool    // INFO_FLG_USEPRERUN
	TimeLimitSeconds    float64 // wall-clock abort threshold; <=0 disables
	CycleLimit          int64   // CONDABORT cycle budget; <=0 disables
	MinSuccessRate      float64 // RATEABORT threshold; <=0 disables
	EnergyFluctuationEV float64 // ENERGYABORT threshold; <=0 disables
	EnergyWindowSize    int     // running-window capacity for ENERGYABORT
	CheckpointEveryN    int64   // blocks between state-image saves; 0 disables
}

// NormalizationConfig groups the KMC time-step parameters (§4.6 step 7).
type NormalizationConfig struct {
	NormalizationFactor float64 // job's Δt normalization factor
	FastestRate         float64 // fastest attempt-frequency rate in the model
}

// EnergyConfig groups the energy-engine selectable behavior (§4.5).
type EnergyConfig struct {
	FastExp                 FastExpMode
	UseFrequencyPreRejection bool
	Use3DPairTable           bool
}

// KMCConfig is the job header for a kinetic Monte Carlo run.
type KMCConfig struct {
	TemperatureKelvin float64
	ElectricFieldEV   float64 // |E|·q already expressed in eV for convenience
	Scheduler         SchedulerConfig
	Normalization     NormalizationConfig
	Energy            EnergyConfig
	RandomSeed        *int64 // nil => seed from wall-clock timestamp
}

// MMCConfig is the job header for an equilibrium Metropolis run.
type MMCConfig struct {
	TemperatureKelvin float64
	Scheduler         SchedulerConfig
	Energy            EnergyConfig
	RandomSeed        *int64
}

// MMCFEConfig is the α-sweep free-energy integration routine's parameter
// block, per spec.md §4.9.
type MMCFEConfig struct {
	HistogramSize         int32
	AlphaCount            int32
	AlphaMin              float64
	AlphaMax              float64
	AlphaCurrent          float64 // resumed from the log database if present
	HistogramRange        float64
	RelaxPhaseCycleCount  int64
	LogPhaseCycleCount    int64
	LogDatabasePath       string // default "{io_dir}/mmcfelog.db"
}

// DatabaseConfig names the input-model database connection. Only the
// loader boundary (model.Loader) consumes this; the kernel never sees it
// (spec.md out-of-scope item (a)).
type DatabaseConfig struct {
	Driver string // e.g. "sqlite3"
	DSN    string
	JobID  int64 // context id row to load
}

// RoutineConfig names the selected routine (builtin or plugin) and its
// plugin search path (spec.md §4.9/§6).
type RoutineConfig struct {
	Name       string // "kmc", "mmc", or "mmcfe" for builtins; else a UUID string
	SearchPath string // directory scanned for *.mocext.<suffix> plugins
}

// Job is the fully assembled job configuration as loaded from YAML.
type Job struct {
	Kind      JobKind
	KMC       *KMCConfig
	MMC       *MMCConfig
	MMCFE     *MMCFEConfig
	Database  DatabaseConfig
	Routine   RoutineConfig
	IODir     string // directory for state files and log databases
}
