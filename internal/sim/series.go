package sim

import "time"

// Sample is one record of the outdoor weather series driving a run. RH is nil
// when the source did not report humidity; the loop substitutes 0.5.
type Sample struct {
	Time time.Time `json:"datetime"`
	Tout float64   `json:"Tout"` // outdoor temperature, °C
	G    float64   `json:"G"`    // global horizontal irradiance, W/m²
	RH   *float64  `json:"RH,omitempty"` // relative humidity fraction in [0, 1]
}

// State is the mutable triple of lumped node temperatures, °C. Exactly three
// coupled nodes by construction.
type State struct {
	Air  float64
	Mass float64
	Soil float64
}

func (s *State) clamp(lo, hi float64) {
	s.Air = clip(s.Air, lo, hi)
	s.Mass = clip(s.Mass, lo, hi)
	s.Soil = clip(s.Soil, lo, hi)
}

// Result is the per-sample output record. QHeater and QLatent are the values
// from the final sub-step of the hour; QToThreshold is the forward-looking
// energy estimate in Joules.
type Result struct {
	Time         time.Time `json:"datetime" csv:"datetime"`
	Tout         float64   `json:"Tout" csv:"Tout"`
	Tin          float64   `json:"Tin" csv:"Tin"`
	TMass        float64   `json:"T_mass" csv:"T_mass"`
	TSoil        float64   `json:"T_soil" csv:"T_soil"`
	QHeater      float64   `json:"Q_heater" csv:"Q_heater"`
	QLatent      float64   `json:"Q_latent" csv:"Q_latent"`
	QToThreshold float64   `json:"Q_to_threshold" csv:"Q_to_threshold"`
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
