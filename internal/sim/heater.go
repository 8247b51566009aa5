package sim

// heaterStep applies the rate-limited proportional heater for one sub-step.
// The deficit is converted to power against the combined air+mass capacitance,
// scaled by HeatingRateFactor so the air cannot snap to the setpoint in a
// single sub-step, then clipped to the heater capacity. The delivered heat is
// applied to the air node in place; the returned value is the heater power, W.
func heaterStep(st *State, p *Params, dtStep float64) float64 {
	if p.Setpoint == nil || st.Air >= *p.Setpoint {
		return 0
	}

	c := p.CAir() + p.CMass()
	powerNeeded := (*p.Setpoint - st.Air) * c * p.HeatingRateFactor / dtStep
	qHeater := clip(powerNeeded, 0, p.HeaterMaxW)
	st.Air += qHeater * dtStep / c
	return qHeater
}
