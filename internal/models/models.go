package models

import (
	"encoding/json"
	"time"
)

// Job status transitions: queued → running → done | error.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Job is the persisted metadata record for one simulation request.
type Job struct {
	JobID     string          `json:"job_id"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Params    json.RawMessage `json:"params,omitempty"`
	Error     string          `json:"error,omitempty"`
	Summary   *Summary        `json:"summary,omitempty"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Summary holds the derived statistics the job layer computes over a finished
// run's hourly results.
type Summary struct {
	Hours             int     `json:"hours"`
	TinMin            float64 `json:"Tin_min"`
	TinMax            float64 `json:"Tin_max"`
	TinMean           float64 `json:"Tin_mean"`
	TinStddev         float64 `json:"Tin_stddev"`
	HeaterEnergyJ     float64 `json:"heater_energy_j"` // Σ Q_heater · dt
	QToThresholdMax   float64 `json:"Q_to_threshold_max"`
	QToThresholdMean  float64 `json:"Q_to_threshold_mean"`
}
