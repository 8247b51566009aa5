// Package sim implements a three-node lumped-parameter thermal model of a
// greenhouse: one well-mixed air node coupled to a structural thermal mass
// node and a soil node, driven by an hourly outdoor weather series and
// integrated with explicit-Euler sub-steps for stability.
package sim

// Simulate advances the thermal state through the weather series and returns
// one Result per sample. The state threads through the whole series with no
// reset between samples; an empty series yields an empty result set.
//
// Identical inputs produce identical outputs: the loop reads no clock and
// draws no randomness, so callers may cache results keyed on the inputs.
func Simulate(samples []Sample, p Params) ([]Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	st := State{Air: p.TInit, Mass: p.TMassInit, Soil: p.TSoilInit}
	cAir, cMass, cSoil := p.CAir(), p.CMass(), p.CSoil()
	dtStep := p.Dt / float64(p.Substeps)

	results := make([]Result, 0, len(samples))
	for _, s := range samples {
		rh := 0.5
		if s.RH != nil {
			rh = *s.RH
		}
		uEnv := envConductance(&p, s.G)

		var qHeater, qLatent float64
		for i := 0; i < p.Substeps; i++ {
			fl := heatFlows(st, s.Tout, s.G, rh, &p, uEnv)

			st.Air += fl.air * dtStep / cAir
			st.Mass += fl.mass * dtStep / cMass
			st.Soil += fl.soil * dtStep / cSoil

			qHeater = heaterStep(&st, &p, dtStep)
			qLatent = fl.latent

			st.clamp(p.TMin, p.TMax)
		}

		results = append(results, Result{
			Time:         s.Time,
			Tout:         s.Tout,
			Tin:          st.Air,
			TMass:        st.Mass,
			TSoil:        st.Soil,
			QHeater:      qHeater,
			QLatent:      qLatent,
			QToThreshold: energyToThreshold(st, s.Tout, &p, uEnv),
		})
	}
	return results, nil
}
