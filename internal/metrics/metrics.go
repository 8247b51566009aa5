package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "greensim_jobs_submitted_total",
			Help: "Total simulation jobs accepted into the queue",
		},
	)

	JobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greensim_jobs_completed_total",
			Help: "Total simulation jobs finished, by terminal status",
		},
		[]string{"status"},
	)

	SimulationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "greensim_simulation_duration_seconds",
			Help:    "Wall-clock duration of one simulation run",
			Buckets: prometheus.DefBuckets,
		},
	)

	SimulatedHours = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "greensim_simulated_hours_total",
			Help: "Total weather hours integrated across all runs",
		},
	)

	WeatherAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greensim_weather_api_calls_total",
			Help: "Total Open-Meteo API calls",
		},
		[]string{"status"},
	)

	WeatherAPILatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "greensim_weather_api_latency_seconds",
			Help:    "Open-Meteo API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	JobsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "greensim_jobs_purged_total",
			Help: "Total expired jobs removed by the TTL purge",
		},
	)
)
