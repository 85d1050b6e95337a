package model

// JobVariant distinguishes the two job-header flavors spec.md §4.1 names.
type JobVariant int

const (
	JobKMC JobVariant = iota
	JobMMC
)

// Header is the job header accessor the Model exposes: enough of the
// loaded job row to drive the scheduler and transition protocol without
// re-parsing config (spec.md §4.1). The authoritative, user-editable
// values live in jobconfig.Job; Header mirrors the subset the kernel
// reads hot-path.
type Header struct {
	Variant             JobVariant
	TemperatureKelvin   float64
	ElectricFieldEV     float64 // KMC only; 0 for MMC
	NormalizationFactor float64 // KMC time-step normalization
}
