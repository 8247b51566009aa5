package sim

import "math"

const minNetHeaterPower = 1e-9 // W, guards the duration division

// energyToThreshold estimates the Joules required to bring all three nodes up
// to the setpoint from the current state: the per-node deficit energies plus
// the envelope and ventilation losses accrued while heating. Losses are
// evaluated at the midpoint of the current and target air temperature; the
// heating duration is the deficit divided by the heater power left over after
// covering losses. A heater that cannot overcome the losses gets charged one
// hour of them instead.
//
// This is a planning diagnostic, not a control signal — the heater itself runs
// on heaterStep.
func energyToThreshold(st State, tout float64, p *Params, uEnv float64) float64 {
	if p.Setpoint == nil || st.Air >= *p.Setpoint {
		return 0
	}
	setpoint := *p.Setpoint

	need := p.CAir()*math.Max(0, setpoint-st.Air) +
		p.CMass()*math.Max(0, setpoint-st.Mass) +
		p.CSoil()*math.Max(0, setpoint-st.Soil)

	tAvg := (st.Air + setpoint) / 2.0
	mDot := rhoAir * p.Volume * (p.ACH / 3600.0)
	losses := uEnv*p.AGlass*(tAvg-tout) + mDot*cpAir*(tAvg-tout)

	var duration float64
	if net := p.HeaterMaxW - losses; net <= 0 {
		duration = 3600.0
	} else {
		duration = need / math.Max(net, minNetHeaterPower)
	}

	return math.Max(0, need+losses*duration)
}
