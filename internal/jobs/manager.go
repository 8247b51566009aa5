// Package jobs runs simulation requests through a worker pool, tracking
// status and results in the store. The simulation core itself stays
// single-threaded; jobs share nothing but the store handle.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/cc0ffee/greensim/internal/metrics"
	"github.com/cc0ffee/greensim/internal/models"
	"github.com/cc0ffee/greensim/internal/sim"
	"github.com/cc0ffee/greensim/internal/store"
)

// ErrQueueFull is returned by Submit when the backlog is saturated.
var ErrQueueFull = errors.New("job queue full")

// Source fetches an hourly weather series for a location.
type Source interface {
	FetchHourly(ctx context.Context, lat, lon float64, hours int) ([]sim.Sample, error)
}

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Request describes one simulation job. Either an inline Weather series or a
// Location to fetch for must be present; inline weather wins when both are.
type Request struct {
	Params   map[string]any
	Weather  []sim.Sample
	Location *Location
	Hours    int
}

type task struct {
	jobID    string
	params   sim.Params
	weather  []sim.Sample
	location *Location
	hours    int
}

type Manager struct {
	store   *store.Store
	source  Source
	queue   chan task
	workers int
	wg      sync.WaitGroup
}

const defaultQueueDepth = 64

func NewManager(st *store.Store, source Source, workers int) *Manager {
	if workers < 1 {
		workers = 2
	}
	return &Manager{
		store:   st,
		source:  source,
		queue:   make(chan task, defaultQueueDepth),
		workers: workers,
	}
}

// Submit validates the request at the boundary, persists it as queued, and
// hands it to the worker pool. Returns the assigned job id.
func (m *Manager) Submit(req Request) (string, error) {
	params, err := sim.ParamsFromMap(req.Params)
	if err != nil {
		return "", err
	}
	if len(req.Weather) == 0 && req.Location == nil {
		return "", &sim.WeatherDataError{Reason: "request carries neither a weather series nor a location"}
	}

	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}

	jobID := uuid.NewString()
	now := time.Now().UTC()
	if err := m.store.CreateJob(jobID, paramsJSON, now); err != nil {
		return "", err
	}

	t := task{
		jobID:    jobID,
		params:   params,
		weather:  req.Weather,
		location: req.Location,
		hours:    req.Hours,
	}
	select {
	case m.queue <- t:
	default:
		_ = m.store.MarkError(jobID, ErrQueueFull.Error(), time.Now().UTC())
		return "", ErrQueueFull
	}

	metrics.JobsSubmitted.Inc()
	return jobID, nil
}

// Run starts the worker pool and the hourly TTL purge, then blocks until the
// context is canceled and every in-flight job has finished.
func (m *Manager) Run(ctx context.Context) {
	m.purge()
	c := cron.New()
	c.AddFunc("@hourly", m.purge)
	c.Start()
	defer c.Stop()

	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.worker(ctx)
	}
	<-ctx.Done()
	log.Println("jobs: shutting down")
	m.wg.Wait()
}

func (m *Manager) worker(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-m.queue:
			m.process(ctx, t)
		}
	}
}

// process runs one job to a terminal status. Whatever happens — fetch
// failure, invalid model state, even a panic — the job record ends in done or
// error, never stuck in running.
func (m *Manager) process(ctx context.Context, t task) {
	if err := m.store.MarkRunning(t.jobID, time.Now().UTC()); err != nil {
		log.Printf("jobs: mark %s running: %v", t.jobID, err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("jobs: %s panicked: %v", t.jobID, r)
			m.fail(t.jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	weather := t.weather
	if len(weather) == 0 {
		var err error
		weather, err = m.source.FetchHourly(ctx, t.location.Lat, t.location.Lon, t.hours)
		if err != nil {
			m.fail(t.jobID, fmt.Sprintf("fetch weather: %v", err))
			return
		}
	}

	start := time.Now()
	results, err := sim.Simulate(weather, t.params)
	if err != nil {
		m.fail(t.jobID, err.Error())
		return
	}
	metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	metrics.SimulatedHours.Add(float64(len(results)))

	summary := Summarize(results, t.params.Dt)
	if err := m.store.MarkDone(t.jobID, summary, results, time.Now().UTC()); err != nil {
		log.Printf("jobs: mark %s done: %v", t.jobID, err)
		m.fail(t.jobID, fmt.Sprintf("persist results: %v", err))
		return
	}
	metrics.JobsCompleted.WithLabelValues(models.StatusDone).Inc()
}

func (m *Manager) fail(jobID, msg string) {
	if err := m.store.MarkError(jobID, msg, time.Now().UTC()); err != nil {
		log.Printf("jobs: mark %s error: %v", jobID, err)
	}
	metrics.JobsCompleted.WithLabelValues(models.StatusError).Inc()
}

func (m *Manager) purge() {
	n, err := m.store.PurgeExpired(time.Now().UTC())
	if err != nil {
		log.Printf("jobs: purge expired: %v", err)
		return
	}
	if n > 0 {
		log.Printf("jobs: purged %d expired jobs", n)
		metrics.JobsPurged.Add(float64(n))
	}
}
