package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/cc0ffee/greensim/internal/jobs"
	"github.com/cc0ffee/greensim/internal/models"
	"github.com/cc0ffee/greensim/internal/sim"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// simulateRequest is the submission body. Weather rows accept the same
// column-name variants as the CSV loader.
type simulateRequest struct {
	Location *jobs.Location `json:"location"`
	Hours    int            `json:"hours"`
	Weather  []weatherRow   `json:"weather"`
	Params   map[string]any `json:"params"`
}

type weatherRow struct {
	Datetime time.Time `json:"datetime"`
	Tout     *float64  `json:"Tout"`
	TOut     *float64  `json:"T_out"`
	G        *float64  `json:"G"`
	I        *float64  `json:"I"`
	RH       *float64  `json:"RH"`
}

func (row weatherRow) sample() sim.Sample {
	s := sim.Sample{Time: row.Datetime, RH: row.RH}
	if row.Tout != nil {
		s.Tout = *row.Tout
	} else if row.TOut != nil {
		s.Tout = *row.TOut
	}
	if row.G != nil {
		s.G = *row.G
	} else if row.I != nil {
		s.G = *row.I
	}
	return s
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}

	weather := make([]sim.Sample, len(req.Weather))
	for i, row := range req.Weather {
		weather[i] = row.sample()
	}

	jobID, err := s.manager.Submit(jobs.Request{
		Params:   req.Params,
		Weather:  weather,
		Location: req.Location,
		Hours:    req.Hours,
	})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, jobs.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": models.StatusQueued,
	})
}

func (s *Server) handleJobList(w http.ResponseWriter, r *http.Request) {
	recent, err := s.store.RecentJobs(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if recent == nil {
		recent = []models.Job{}
	}
	writeJSON(w, http.StatusOK, recent)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if jobID == "" {
		http.Error(w, "job id required", http.StatusBadRequest)
		return
	}

	job, err := s.store.GetJob(jobID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/results/")
	asCSV := strings.HasSuffix(jobID, ".csv")
	jobID = strings.TrimSuffix(jobID, ".csv")
	if jobID == "" {
		http.Error(w, "job id required", http.StatusBadRequest)
		return
	}

	job, err := s.store.GetJob(jobID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	if job.Status != models.StatusDone {
		// Not ready yet (or failed): report where the job stands instead.
		writeJSON(w, http.StatusOK, map[string]string{
			"job_id": jobID,
			"status": job.Status,
			"error":  job.Error,
		})
		return
	}

	results, err := s.store.GetResults(jobID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []sim.Result{}
	}

	if asCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+jobID+`_results.csv"`)
		if err := gocsv.Marshal(results, w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":  jobID,
		"status":  models.StatusDone,
		"summary": job.Summary,
		"data":    results,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
