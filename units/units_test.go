package units_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mocsim/mocsim/units"
)

func TestKtToEvAndEvToKt_AreInverses(t *testing.T) {
	const temperatureKelvin = 300.0
	ktToEv := units.KtToEv(temperatureKelvin)
	evToKt := units.EvToKt(temperatureKelvin)
	require.InDelta(t, 1.0, ktToEv*evToKt, 1e-12)
}

func TestKtToEv_MatchesBoltzmannConstantTimesTemperature(t *testing.T) {
	require.InDelta(t, units.BoltzmannEV*300, units.KtToEv(300), 1e-18)
}
