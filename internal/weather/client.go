// Package weather supplies the outdoor series driving a simulation run,
// either fetched from the Open-Meteo forecast API or loaded from a CSV file.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cc0ffee/greensim/internal/metrics"
	"github.com/cc0ffee/greensim/internal/sim"
)

const defaultBaseURL = "https://api.open-meteo.com"

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a local server.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

type forecastResponse struct {
	Hourly struct {
		Time             []string   `json:"time"`
		Temperature2m    []*float64 `json:"temperature_2m"`
		ShortwaveRad     []*float64 `json:"shortwave_radiation"`
		RelativeHumidity []*float64 `json:"relative_humidity_2m"`
	} `json:"hourly"`
}

// FetchHourly retrieves up to hours of hourly forecast weather for the
// location. Transient upstream failures are retried with exponential backoff;
// client errors fail immediately.
func (c *Client) FetchHourly(ctx context.Context, lat, lon float64, hours int) ([]sim.Sample, error) {
	if hours <= 0 {
		hours = 24
	}
	days := (hours + 23) / 24

	url := fmt.Sprintf(
		"%s/v1/forecast?latitude=%.4f&longitude=%.4f&forecast_days=%d&hourly=temperature_2m,shortwave_radiation,relative_humidity_2m",
		c.baseURL, lat, lon, days,
	)

	var body []byte
	operation := func() error {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := c.client.Do(req)
		if err != nil {
			metrics.WeatherAPICalls.WithLabelValues("error").Inc()
			return fmt.Errorf("fetch forecast: %w", err)
		}
		defer resp.Body.Close()
		metrics.WeatherAPILatency.Observe(time.Since(start).Seconds())

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			metrics.WeatherAPICalls.WithLabelValues("retry").Inc()
			return fmt.Errorf("transient upstream failure: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			metrics.WeatherAPICalls.WithLabelValues("error").Inc()
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch forecast: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			metrics.WeatherAPICalls.WithLabelValues("error").Inc()
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		metrics.WeatherAPICalls.WithLabelValues("ok").Inc()
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}

	var data forecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal forecast: %w", err)
	}

	return samplesFromForecast(&data, hours)
}

func samplesFromForecast(data *forecastResponse, hours int) ([]sim.Sample, error) {
	h := data.Hourly
	if len(h.Time) == 0 {
		return nil, &sim.WeatherDataError{Reason: "forecast response carries no hourly series"}
	}
	if len(h.Temperature2m) == 0 && len(h.ShortwaveRad) == 0 {
		return nil, &sim.WeatherDataError{Reason: "forecast response carries neither temperature nor irradiance"}
	}

	n := len(h.Time)
	if n > hours {
		n = hours
	}

	samples := make([]sim.Sample, 0, n)
	for i := 0; i < n; i++ {
		// Open-Meteo emits local times without a zone, e.g. 2025-10-01T13:00.
		ts, err := time.Parse("2006-01-02T15:04", h.Time[i])
		if err != nil {
			return nil, &sim.WeatherDataError{Reason: fmt.Sprintf("bad timestamp %q", h.Time[i])}
		}

		s := sim.Sample{Time: ts}
		if i < len(h.Temperature2m) && h.Temperature2m[i] != nil {
			s.Tout = *h.Temperature2m[i]
		}
		if i < len(h.ShortwaveRad) && h.ShortwaveRad[i] != nil {
			s.G = *h.ShortwaveRad[i]
		}
		if i < len(h.RelativeHumidity) && h.RelativeHumidity[i] != nil {
			// Open-Meteo reports percent; the model wants a fraction.
			rh := *h.RelativeHumidity[i] / 100.0
			s.RH = &rh
		}
		samples = append(samples, s)
	}
	return samples, nil
}
