package sim

import "fmt"

// Physical constants shared by the flux model and the derived capacitances.
const (
	rhoAir = 1.225         // kg/m³
	cpAir  = 1005.0        // J/(kg·K)
	sigma  = 5.670374419e-8 // Stefan-Boltzmann, W/m²K⁴
	lv     = 2.45e6        // latent heat of vaporization, J/kg
)

// Params holds every tunable of the greenhouse model. All fields carry the
// defaults from DefaultParams; Setpoint is nil when heating is disabled.
type Params struct {
	AGlass             float64  // glazing area, m²
	TauGlass           float64  // glazing solar transmissivity
	UDay               float64  // envelope conductance with screens open, W/m²K
	UNight             float64  // envelope conductance with screens closed, W/m²K
	ACH                float64  // air changes per hour
	Volume             float64  // enclosed air volume, m³
	AFloor             float64  // floor/soil area, m²
	FractionSolarToAir float64  // split of transmitted solar to air vs. mass/soil
	CloudFactor        float64  // 0 = clear sky, 1 = overcast
	ThermalMassKg      float64  // structural mass, kg
	CpMass             float64  // specific heat of the mass, J/kgK
	SoilC              float64  // soil capacitance density, J/m²K
	SoilU              float64  // soil conductance to outside, W/m²K
	HeaterMaxW         float64  // heater capacity ceiling, W
	EvapCoeff          float64  // evaporation rate coefficient
	Emissivity         float64
	LWRadiationScale   float64
	HAM                float64  // air↔mass convective coefficient, W/m²K
	HAS                float64  // air↔soil convective coefficient, W/m²K
	AMass              float64  // mass contact area, m²
	HeatingRateFactor  float64  // fraction of full-capacitance heat per sub-step
	TInit              float64  // °C
	TMassInit          float64  // °C
	TSoilInit          float64  // °C
	Setpoint           *float64 // heating threshold, °C; heater off when nil
	TMin               float64  // hard clamp floor, °C
	TMax               float64  // hard clamp ceiling, °C
	Dt                 float64  // outer step size, s
	Substeps           int      // integration sub-steps per outer step
}

// DefaultParams returns the canonical parameter set for a small glasshouse.
func DefaultParams() Params {
	return Params{
		AGlass:             50.0,
		TauGlass:           0.85,
		UDay:               2.0,
		UNight:             0.25,
		ACH:                0.5,
		Volume:             100.0,
		AFloor:             50.0,
		FractionSolarToAir: 0.5,
		CloudFactor:        0.5,
		ThermalMassKg:      20000.0,
		CpMass:             4186.0,
		SoilC:              4e6,
		SoilU:              0.5,
		HeaterMaxW:         5000.0,
		EvapCoeff:          1e-8,
		Emissivity:         0.9,
		LWRadiationScale:   0.7,
		HAM:                3.0,
		HAS:                1.0,
		AMass:              20.0,
		HeatingRateFactor:  0.4,
		TInit:              15.0,
		TMassInit:          15.0,
		TSoilInit:          15.0,
		TMin:               0.0,
		TMax:               50.0,
		Dt:                 3600.0,
		Substeps:           60,
	}
}

// Validate rejects parameter values that would make the model undefined.
// It runs once before integration begins so a bad configuration never
// surfaces as a NaN halfway through a run.
func (p *Params) Validate() error {
	checks := []struct {
		ok     bool
		field  string
		reason string
	}{
		{p.Volume > 0, "V", "must be positive"},
		{p.AFloor > 0, "A_floor", "must be positive"},
		{p.ThermalMassKg > 0, "thermal_mass_kg", "must be positive"},
		{p.CpMass > 0, "cp_mass", "must be positive"},
		{p.SoilC > 0, "soil_C", "must be positive"},
		{p.AGlass >= 0, "A_glass", "must not be negative"},
		{p.ACH >= 0, "ACH", "must not be negative"},
		{p.HeaterMaxW >= 0, "heater_max_w", "must not be negative"},
		{p.EvapCoeff >= 0, "evap_coeff", "must not be negative"},
		{p.TauGlass >= 0 && p.TauGlass <= 1, "tau_glass", "must be in [0, 1]"},
		{p.FractionSolarToAir >= 0 && p.FractionSolarToAir <= 1, "fraction_solar_to_air", "must be in [0, 1]"},
		{p.CloudFactor >= 0 && p.CloudFactor <= 1, "cloud_factor", "must be in [0, 1]"},
		{p.Dt > 0, "dt", "must be positive"},
		{p.Substeps >= 1, "substeps", "must be at least 1"},
		{p.TMin < p.TMax, "T_bounds", "lower bound must be below upper bound"},
	}
	for _, c := range checks {
		if !c.ok {
			return &ConfigError{Field: c.field, Reason: c.reason}
		}
	}
	return nil
}

// Derived node capacitances, J/K.

func (p *Params) CAir() float64  { return rhoAir * p.Volume * cpAir }
func (p *Params) CMass() float64 { return p.ThermalMassKg * p.CpMass }
func (p *Params) CSoil() float64 { return p.SoilC * p.AFloor }

// ParamsFromMap builds a Params from a flat option mapping, as received over
// the API or from a run-config file. Unknown keys and non-numeric values are
// rejected here, at the boundary, rather than silently defaulted inside the
// integration loop. T_mass_init and T_soil_init follow T_init unless given
// explicitly.
func ParamsFromMap(opts map[string]any) (Params, error) {
	p := DefaultParams()

	massInitSet := false
	soilInitSet := false

	fields := map[string]*float64{
		"A_glass":               &p.AGlass,
		"tau_glass":             &p.TauGlass,
		"U_day":                 &p.UDay,
		"U_night":               &p.UNight,
		"ACH":                   &p.ACH,
		"V":                     &p.Volume,
		"A_floor":               &p.AFloor,
		"fraction_solar_to_air": &p.FractionSolarToAir,
		"cloud_factor":          &p.CloudFactor,
		"thermal_mass_kg":       &p.ThermalMassKg,
		"cp_mass":               &p.CpMass,
		"soil_C":                &p.SoilC,
		"soil_U":                &p.SoilU,
		"heater_max_w":          &p.HeaterMaxW,
		"evap_coeff":            &p.EvapCoeff,
		"emissivity":            &p.Emissivity,
		"lw_radiation_scale":    &p.LWRadiationScale,
		"h_am":                  &p.HAM,
		"h_as":                  &p.HAS,
		"A_mass":                &p.AMass,
		"heating_rate_factor":   &p.HeatingRateFactor,
		"T_init":                &p.TInit,
		"T_mass_init":           &p.TMassInit,
		"T_soil_init":           &p.TSoilInit,
		"T_min":                 &p.TMin,
		"T_max":                 &p.TMax,
		"dt":                    &p.Dt,
	}

	for key, raw := range opts {
		if key == "setpoint" {
			v, err := toFloat(key, raw)
			if err != nil {
				return Params{}, err
			}
			p.Setpoint = &v
			continue
		}
		if key == "substeps" {
			v, err := toFloat(key, raw)
			if err != nil {
				return Params{}, err
			}
			p.Substeps = int(v)
			continue
		}

		dst, ok := fields[key]
		if !ok {
			return Params{}, &ConfigError{Field: key, Reason: "unknown option"}
		}

		v, err := toFloat(key, raw)
		if err != nil {
			return Params{}, err
		}
		*dst = v

		switch key {
		case "T_mass_init":
			massInitSet = true
		case "T_soil_init":
			soilInitSet = true
		}
	}

	if !massInitSet {
		p.TMassInit = p.TInit
	}
	if !soilInitSet {
		p.TSoilInit = p.TInit
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func toFloat(key string, raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case nil:
		return 0, &ConfigError{Field: key, Reason: "value missing"}
	default:
		return 0, &ConfigError{Field: key, Reason: fmt.Sprintf("non-numeric value %T", raw)}
	}
}
