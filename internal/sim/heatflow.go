package sim

import "math"

// Sky temperature offsets below outdoor temperature, °C. A clear sky radiates
// to a much colder effective temperature than an overcast one.
const (
	clearSkyOffset    = 12.0
	overcastSkyOffset = 3.0
)

// Irradiance thresholds for the envelope conductance blend, W/m².
const (
	envNightG = 10.0
	envDayG   = 100.0
)

// fluxes holds the net heat flow into each node for one sub-step, W, plus the
// latent term reported as a diagnostic.
type fluxes struct {
	air    float64
	mass   float64
	soil   float64
	latent float64
}

// envConductance selects the envelope U-value from solar irradiance: full
// daytime conductance above 100 W/m², night insulation below 10 W/m², and a
// linear blend between. Irradiance rather than clock hour, so dawn and dusk
// transition smoothly across seasons.
func envConductance(p *Params, g float64) float64 {
	frac := clip((g-envNightG)/(envDayG-envNightG), 0, 1)
	return p.UNight + frac*(p.UDay-p.UNight)
}

// skyTemperatureK approximates the effective sky temperature in Kelvin.
func skyTemperatureK(tout, cloudFactor float64) float64 {
	offset := clearSkyOffset - (clearSkyOffset-overcastSkyOffset)*cloudFactor
	return tout - offset + 273.15
}

// saturationVaporPressure is the Tetens approximation, kPa. The input is
// clipped to ±50 °C so the exponent stays well-behaved.
func saturationVaporPressure(t float64) float64 {
	t = clip(t, -50, 50)
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}

// heatFlows evaluates every flux term of the three-node energy balance for one
// sub-step: transmitted solar split across the nodes, envelope and ventilation
// losses, longwave exchange with the sky, air↔mass and air↔soil coupling,
// evaporative (latent) loss, and soil conduction to the ground.
func heatFlows(st State, tout, g, rh float64, p *Params, uEnv float64) fluxes {
	// Transmitted solar, split f to air and the remainder 60/40 to mass/soil.
	qTotalSW := g * p.AGlass * p.TauGlass
	qAirSW := qTotalSW * p.FractionSolarToAir
	qMassSW := qTotalSW * (1.0 - p.FractionSolarToAir) * 0.6
	qSoilSW := qTotalSW * (1.0 - p.FractionSolarToAir) * 0.4

	// Conduction through the envelope and ventilation air exchange.
	qLossEnv := uEnv * p.AGlass * (st.Air - tout)
	mDot := rhoAir * p.Volume * (p.ACH / 3600.0)
	qVent := mDot * cpAir * (st.Air - tout)

	// Longwave exchange with the sky. Kelvin values are clipped before the
	// fourth power so an extreme excursion cannot overflow.
	tAirK := clip(st.Air+273.15, 0, 1000)
	tSkyK := clip(skyTemperatureK(tout, p.CloudFactor), 0, 1000)
	qLW := p.LWRadiationScale * p.Emissivity * sigma * p.AGlass *
		(math.Pow(tAirK, 4) - math.Pow(tSkyK, 4))

	// Convective coupling between air and the mass/soil nodes.
	qAM := p.HAM * p.AMass * (st.Mass - st.Air)
	qAS := p.HAS * p.AFloor * (st.Soil - st.Air)

	// Evaporative loss driven by vapor pressure deficit.
	es := saturationVaporPressure(st.Air)
	vpd := math.Max(es-rh*es, 0)
	qLat := p.EvapCoeff * vpd * lv * p.AFloor

	return fluxes{
		air:    qAirSW + qAM + qAS - qLossEnv - qVent - qLW - qLat,
		mass:   qMassSW - qAM,
		soil:   qSoilSW - qAS - p.SoilU*p.AFloor*(st.Soil-tout),
		latent: qLat,
	}
}
