package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cc0ffee/greensim/internal/models"
	"github.com/cc0ffee/greensim/internal/sim"
	"github.com/cc0ffee/greensim/internal/store"
)

type fakeSource struct {
	samples []sim.Sample
	err     error
}

func (f *fakeSource) FetchHourly(ctx context.Context, lat, lon float64, hours int) ([]sim.Sample, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.samples, nil
}

func testWeather(hours int) []sim.Sample {
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]sim.Sample, hours)
	for i := range samples {
		samples[i] = sim.Sample{
			Time: start.Add(time.Duration(i) * time.Hour),
			Tout: 10,
			G:    100,
		}
	}
	return samples
}

func setupManager(t *testing.T, source Source) (*Manager, *store.Store) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.New(db, time.Hour)
	if err := st.Migrate(); err != nil {
		t.Fatal(err)
	}

	m := NewManager(st, source, 1)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go m.Run(ctx)
	return m, st
}

func waitForTerminal(t *testing.T, st *store.Store, jobID string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := st.GetJob(jobID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if job != nil && (job.Status == models.StatusDone || job.Status == models.StatusError) {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal status", jobID)
	return nil
}

func TestSubmitAndComplete_InlineWeather(t *testing.T) {
	m, st := setupManager(t, &fakeSource{})

	jobID, err := m.Submit(Request{
		Params:  map[string]any{"setpoint": 18.0},
		Weather: testWeather(24),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForTerminal(t, st, jobID)
	if job.Status != models.StatusDone {
		t.Fatalf("status = %q (%s), want done", job.Status, job.Error)
	}
	if job.Summary == nil {
		t.Fatal("summary missing")
	}
	if job.Summary.Hours != 24 {
		t.Errorf("summary hours = %d, want 24", job.Summary.Hours)
	}

	results, err := st.GetResults(jobID)
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(results) != 24 {
		t.Errorf("len(results) = %d, want 24", len(results))
	}
}

func TestSubmitAndComplete_FetchedWeather(t *testing.T) {
	m, st := setupManager(t, &fakeSource{samples: testWeather(12)})

	jobID, err := m.Submit(Request{
		Params:   map[string]any{},
		Location: &Location{Lat: 39.9, Lon: 116.4},
		Hours:    12,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForTerminal(t, st, jobID)
	if job.Status != models.StatusDone {
		t.Fatalf("status = %q (%s), want done", job.Status, job.Error)
	}
	if job.Summary.Hours != 12 {
		t.Errorf("summary hours = %d, want 12", job.Summary.Hours)
	}
}

func TestSubmit_RejectsBadParams(t *testing.T) {
	m, _ := setupManager(t, &fakeSource{})

	_, err := m.Submit(Request{
		Params:  map[string]any{"warp_factor": 9.0},
		Weather: testWeather(1),
	})
	var cfgErr *sim.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
}

func TestSubmit_RejectsMissingWeather(t *testing.T) {
	m, _ := setupManager(t, &fakeSource{})

	_, err := m.Submit(Request{Params: map[string]any{}})
	var wErr *sim.WeatherDataError
	if !errors.As(err, &wErr) {
		t.Fatalf("err = %v, want WeatherDataError", err)
	}
}

func TestFetchFailureEndsInErrorStatus(t *testing.T) {
	m, st := setupManager(t, &fakeSource{err: fmt.Errorf("upstream down")})

	jobID, err := m.Submit(Request{
		Params:   map[string]any{},
		Location: &Location{Lat: 0, Lon: 0},
		Hours:    24,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForTerminal(t, st, jobID)
	if job.Status != models.StatusError {
		t.Fatalf("status = %q, want error", job.Status)
	}
	if job.Error == "" {
		t.Error("error message missing")
	}
}

func TestEmptyWeatherSeriesCompletesEmpty(t *testing.T) {
	m, st := setupManager(t, &fakeSource{samples: []sim.Sample{}})

	jobID, err := m.Submit(Request{
		Params:   map[string]any{},
		Location: &Location{},
		Hours:    0,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForTerminal(t, st, jobID)
	if job.Status != models.StatusDone {
		t.Fatalf("status = %q (%s), want done", job.Status, job.Error)
	}
	if job.Summary.Hours != 0 {
		t.Errorf("summary hours = %d, want 0", job.Summary.Hours)
	}
}

func TestSummarize(t *testing.T) {
	results := []sim.Result{
		{Tin: 10, QHeater: 1000, QToThreshold: 4e6},
		{Tin: 14, QHeater: 500, QToThreshold: 2e6},
		{Tin: 12, QHeater: 0, QToThreshold: 0},
	}

	s := Summarize(results, 3600)
	if s.Hours != 3 {
		t.Errorf("Hours = %d, want 3", s.Hours)
	}
	if s.TinMin != 10 || s.TinMax != 14 {
		t.Errorf("Tin range = [%v, %v], want [10, 14]", s.TinMin, s.TinMax)
	}
	if s.TinMean != 12 {
		t.Errorf("TinMean = %v, want 12", s.TinMean)
	}
	if math.Abs(s.TinStddev-2.0) > 1e-12 {
		t.Errorf("TinStddev = %v, want 2", s.TinStddev)
	}
	if s.HeaterEnergyJ != 1500*3600 {
		t.Errorf("HeaterEnergyJ = %v, want %v", s.HeaterEnergyJ, 1500*3600)
	}
	if s.QToThresholdMax != 4e6 {
		t.Errorf("QToThresholdMax = %v, want 4e6", s.QToThresholdMax)
	}
	if s.QToThresholdMean != 2e6 {
		t.Errorf("QToThresholdMean = %v, want 2e6", s.QToThresholdMean)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 3600)
	if s != (models.Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero value", s)
	}
}
