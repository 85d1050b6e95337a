package jobconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/jobconfig"
)

func validKMCJob() *jobconfig.Job {
	return &jobconfig.Job{
		Kind: jobconfig.KindKMC,
		KMC:  &jobconfig.KMCConfig{TemperatureKelvin: 300},
		Database: jobconfig.DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:test.db",
			JobID:  1,
		},
		Routine: jobconfig.RoutineConfig{Name: "kmc"},
		IODir:   "/tmp",
	}
}

func TestValidate_AcceptsWellFormedKMCJob(t *testing.T) {
	require.NoError(t, jobconfig.Validate(validKMCJob()))
}

func TestValidate_RejectsMissingKMCBlock(t *testing.T) {
	job := validKMCJob()
	job.KMC = nil
	require.Error(t, jobconfig.Validate(job))
}

func TestValidate_RejectsNonPositiveKMCTemperature(t *testing.T) {
	job := validKMCJob()
	job.KMC.TemperatureKelvin = 0
	require.Error(t, jobconfig.Validate(job))
}

func TestValidate_RejectsMissingMMCBlock(t *testing.T) {
	job := validKMCJob()
	job.Kind = jobconfig.KindMMC
	job.MMC = nil
	require.Error(t, jobconfig.Validate(job))
}

func TestValidate_AcceptsWellFormedMMCJob(t *testing.T) {
	job := validKMCJob()
	job.Kind = jobconfig.KindMMC
	job.KMC = nil
	job.MMC = &jobconfig.MMCConfig{TemperatureKelvin: 300}
	require.NoError(t, jobconfig.Validate(job))
}

func TestValidate_RejectsUnknownJobKind(t *testing.T) {
	job := validKMCJob()
	job.Kind = jobconfig.JobKind("bogus")
	require.Error(t, jobconfig.Validate(job))
}

func TestValidate_RejectsMissingDatabaseDriver(t *testing.T) {
	job := validKMCJob()
	job.Database.Driver = ""
	require.Error(t, jobconfig.Validate(job))
}

func TestValidate_MMCFERoutineRequiresConfigBlock(t *testing.T) {
	job := validKMCJob()
	job.Routine.Name = "mmcfe"
	job.MMCFE = nil
	require.Error(t, jobconfig.Validate(job))
}

func validMMCFEConfig() *jobconfig.MMCFEConfig {
	return &jobconfig.MMCFEConfig{
		HistogramSize:        100,
		AlphaCount:           10,
		AlphaMin:             0.1,
		AlphaMax:             1.0,
		HistogramRange:       5.0,
		RelaxPhaseCycleCount: 1000,
		LogPhaseCycleCount:   1000,
	}
}

func TestValidate_MMCFEAcceptsWellFormedConfig(t *testing.T) {
	job := validKMCJob()
	job.Routine.Name = "mmcfe"
	job.MMCFE = validMMCFEConfig()
	require.NoError(t, jobconfig.Validate(job))
}

func TestValidate_MMCFERejectsNonPositiveAlphaCount(t *testing.T) {
	job := validKMCJob()
	job.Routine.Name = "mmcfe"
	cfg := validMMCFEConfig()
	cfg.AlphaCount = 0
	job.MMCFE = cfg
	require.Error(t, jobconfig.Validate(job))
}

func TestValidate_MMCFERejectsInvertedAlphaRange(t *testing.T) {
	job := validKMCJob()
	job.Routine.Name = "mmcfe"
	cfg := validMMCFEConfig()
	cfg.AlphaMin, cfg.AlphaMax = 0.9, 0.5
	job.MMCFE = cfg
	require.Error(t, jobconfig.Validate(job))
}

func TestValidate_MMCFERejectsAlphaMaxAboveOne(t *testing.T) {
	job := validKMCJob()
	job.Routine.Name = "mmcfe"
	cfg := validMMCFEConfig()
	cfg.AlphaMax = 1.5
	job.MMCFE = cfg
	require.Error(t, jobconfig.Validate(job))
}

func TestValidate_MMCFERejectsNonPositiveHistogramRange(t *testing.T) {
	job := validKMCJob()
	job.Routine.Name = "mmcfe"
	cfg := validMMCFEConfig()
	cfg.HistogramRange = 0
	job.MMCFE = cfg
	require.Error(t, jobconfig.Validate(job))
}

func TestValidate_MMCFERejectsNegativeCycleCounts(t *testing.T) {
	job := validKMCJob()
	job.Routine.Name = "mmcfe"
	cfg := validMMCFEConfig()
	cfg.RelaxPhaseCycleCount = -1
	job.MMCFE = cfg
	require.Error(t, jobconfig.Validate(job))
}

func TestLoad_ParsesAndValidatesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	yamlBody := `
kind: kmc
kmc:
  temperaturekelvin: 300
database:
  driver: sqlite3
  dsn: "file:test.db"
  jobid: 1
routine:
  name: kmc
iodir: /tmp
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	job, err := jobconfig.Load(path)
	require.NoError(t, err)
	require.Equal(t, jobconfig.KindKMC, job.Kind)
	require.Equal(t, 300.0, job.KMC.TemperatureKelvin)
}

func TestLoad_ReturnsErrorOnMissingFile(t *testing.T) {
	_, err := jobconfig.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_ReturnsValidationErrorOnBadJob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: bogus\n"), 0o644))

	_, err := jobconfig.Load(path)
	require.Error(t, err)
}
