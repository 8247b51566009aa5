package sim

import "fmt"

// ConfigError reports a parameter that would make the model undefined. It is
// raised before integration begins, never mid-run.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// WeatherDataError reports a weather source that cannot be interpreted as a
// sample sequence. An empty sequence is not an error; a source with no
// recognizable temperature or irradiance field is.
type WeatherDataError struct {
	Reason string
}

func (e *WeatherDataError) Error() string {
	return "weather data: " + e.Reason
}
