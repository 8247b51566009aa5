package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyToThreshold_ZeroCases(t *testing.T) {
	p := DefaultParams()

	t.Run("no setpoint", func(t *testing.T) {
		st := State{Air: 5, Mass: 5, Soil: 5}
		assert.Zero(t, energyToThreshold(st, 0, &p, p.UNight))
	})

	t.Run("air at setpoint", func(t *testing.T) {
		p := p
		p.Setpoint = setpoint(20)
		st := State{Air: 20, Mass: 5, Soil: 5}
		assert.Zero(t, energyToThreshold(st, 0, &p, p.UNight))
	})
}

func TestEnergyToThreshold_IncludesOngoingLosses(t *testing.T) {
	p := DefaultParams()
	p.Setpoint = setpoint(20)

	st := State{Air: 15, Mass: 20, Soil: 20}
	got := energyToThreshold(st, 10, &p, p.UDay)

	// Only the air node is below the setpoint; the heating-interval losses
	// come on top of its deficit energy.
	need := p.CAir() * 5.0
	require.Greater(t, got, need)
}

func TestEnergyToThreshold_DeficitMonotonicity(t *testing.T) {
	p := DefaultParams()
	p.Setpoint = setpoint(20)

	shallow := energyToThreshold(State{Air: 18, Mass: 18, Soil: 18}, 10, &p, p.UDay)
	deep := energyToThreshold(State{Air: 10, Mass: 10, Soil: 10}, 10, &p, p.UDay)
	assert.Greater(t, deep, shallow)
	assert.Greater(t, shallow, 0.0)
}

func TestEnergyToThreshold_HeaterCannotOvercomeLosses(t *testing.T) {
	p := DefaultParams()
	p.Setpoint = setpoint(20)
	p.HeaterMaxW = 0 // net power can never be positive

	st := State{Air: 15, Mass: 20, Soil: 20}
	got := energyToThreshold(st, -10, &p, p.UDay)

	// Fallback charges exactly one hour of losses on top of the deficit.
	tAvg := (15.0 + 20.0) / 2
	mDot := rhoAir * p.Volume * (p.ACH / 3600.0)
	losses := p.UDay*p.AGlass*(tAvg-(-10.0)) + mDot*cpAir*(tAvg-(-10.0))
	want := p.CAir()*5.0 + losses*3600.0
	assert.InDelta(t, want, got, 1e-6)
}

func TestEnergyToThreshold_NeverNegative(t *testing.T) {
	p := DefaultParams()
	p.Setpoint = setpoint(20)

	// A scorching outdoor temperature makes the loss term negative; the
	// estimate still floors at zero.
	st := State{Air: 19.99, Mass: 50, Soil: 50}
	got := energyToThreshold(st, 45, &p, p.UDay)
	assert.GreaterOrEqual(t, got, 0.0)
}
