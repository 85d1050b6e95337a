// Package transition implements the KMC/MMC accept/reject cycle (spec.md
// §4.6): selection, rule matching, energy evaluation, accept/reject, and
// the invariant-preserving book-keeping that follows.
package transition

import (
	"github.com/mocsim/mocsim/counters"
	"github.com/mocsim/mocsim/energy"
	"github.com/mocsim/mocsim/environment"
	"github.com/mocsim/mocsim/jobconfig"
	"github.com/mocsim/mocsim/model"
	"github.com/mocsim/mocsim/pool"
	"github.com/mocsim/mocsim/rng"
	"github.com/mocsim/mocsim/tracking"
)

// Context bundles every piece of per-simulation-instance state a cycle
// touches. There is exactly one Context per simulation instance; it is
// never shared across goroutines (spec.md §5: single-threaded kernel).
type Context struct {
	Model    *model.Model
	Lattice  *environment.Lattice
	Pool     *pool.Pool
	Trackers *tracking.Trackers
	Stats    *tracking.JumpStatistics
	Energy   *energy.Engine
	RNG      *rng.PCG32
	Counters *counters.Counters

	TemperatureKelvin        float64
	ElectricFieldEV          float64 // KMC only; 0 for MMC
	FastExpMode              jobconfig.FastExpMode
	UseFrequencyPreRejection bool

	NormalizationFactor float64 // KMC time-step normalization factor
	FastestRate         float64 // KMC fastest attempt-frequency rate in the model

	SimTime float64 // KMC simulated time accumulator (§4.6 step 7)
}

// NewContext wires a fresh Context around an already-normalized model,
// performing the one-time selection-pool registration and mobile-tracker
// assignment spec.md §4.3/§4.4 describe.
func NewContext(m *model.Model, temperatureKelvin, electricFieldEV float64, fastExp jobconfig.FastExpMode, useFreqPreRejection bool, g *rng.PCG32) (*Context, error) {
	lattice, err := environment.NewLattice(m)
	if err != nil {
		return nil, err
	}

	p := pool.New(lattice)
	p.RegisterAll()
	mobileCount := lattice.AssignMobileTrackers()

	return &Context{
		Model:                    m,
		Lattice:                  lattice,
		Pool:                     p,
		Trackers:                 tracking.NewTrackers(mobileCount),
		Stats:                    tracking.NewJumpStatistics(),
		Energy:                   energy.New(lattice),
		RNG:                      g,
		Counters:                 counters.New(),
		TemperatureKelvin:        temperatureKelvin,
		ElectricFieldEV:          electricFieldEV,
		FastExpMode:              fastExp,
		UseFrequencyPreRejection: useFreqPreRejection,
	}, nil
}

// MobileCount reports how many mobile-tracker slots are allocated — the
// conserved mobile-particle count spec.md §8 invariant 4 refers to.
func (ctx *Context) MobileCount() int { return len(ctx.Trackers.Mobile) }
