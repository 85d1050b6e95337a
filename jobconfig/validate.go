package jobconfig

import (
	"github.com/mocsim/mocsim/mocerr"
)

// Validate cross-checks required fields the way
// original_source/.../CmdArgumentResolver.h motivates: required flags must
// agree with the selected job kind and routine before the scheduler ever
// starts (spec.md §7: initialization errors are fatal).
func Validate(job *Job) error {
	switch job.Kind {
	case KindKMC:
		if job.KMC == nil {
			return mocerr.Newf(mocerr.Argument, "jobconfig.Validate", "job kind kmc requires a kmc config block")
		}
		if job.KMC.TemperatureKelvin <= 0 {
			return mocerr.Newf(mocerr.Argument, "jobconfig.Validate", "kmc.temperature-kelvin must be > 0, got %f", job.KMC.TemperatureKelvin)
		}
	case KindMMC:
		if job.MMC == nil {
			return mocerr.Newf(mocerr.Argument, "jobconfig.Validate", "job kind mmc requires an mmc config block")
		}
		if job.MMC.TemperatureKelvin <= 0 {
			return mocerr.Newf(mocerr.Argument, "jobconfig.Validate", "mmc.temperature-kelvin must be > 0, got %f", job.MMC.TemperatureKelvin)
		}
	default:
		return mocerr.Newf(mocerr.Argument, "jobconfig.Validate", "unknown job kind %q; valid options: kmc, mmc", job.Kind)
	}

	if job.Routine.Name == "mmcfe" {
		if err := validateMMCFE(job.MMCFE); err != nil {
			return err
		}
	}

	if job.Database.Driver == "" {
		return mocerr.Newf(mocerr.Argument, "jobconfig.Validate", "database.driver is required")
	}

	return nil
}

// validateMMCFE enforces spec.md §4.9's validity constraints on MMCFEConfig.
func validateMMCFE(cfg *MMCFEConfig) error {
	if cfg == nil {
		return mocerr.Newf(mocerr.Argument, "jobconfig.validateMMCFE", "routine mmcfe requires an mmcfe config block")
	}
	if cfg.AlphaCount <= 0 {
		return mocerr.Newf(mocerr.Argument, "jobconfig.validateMMCFE", "mmcfe.alpha-count must be > 0, got %d", cfg.AlphaCount)
	}
	if !(cfg.AlphaMin > 0 && cfg.AlphaMin < cfg.AlphaMax && cfg.AlphaMax <= 1) {
		return mocerr.Newf(mocerr.Argument, "jobconfig.validateMMCFE", "mmcfe alpha range must satisfy 0 < min < max <= 1, got [%f, %f]", cfg.AlphaMin, cfg.AlphaMax)
	}
	if cfg.HistogramRange <= 0 {
		return mocerr.Newf(mocerr.Argument, "jobconfig.validateMMCFE", "mmcfe.histogram-range must be > 0, got %f", cfg.HistogramRange)
	}
	if cfg.HistogramSize <= 0 {
		return mocerr.Newf(mocerr.Argument, "jobconfig.validateMMCFE", "mmcfe.histogram-size must be > 0, got %d", cfg.HistogramSize)
	}
	if cfg.RelaxPhaseCycleCount < 0 || cfg.LogPhaseCycleCount < 0 {
		return mocerr.Newf(mocerr.Argument, "jobconfig.validateMMCFE", "mmcfe cycle counts must be >= 0")
	}
	return nil
}
