// Package api exposes the simulation service over HTTP: job submission,
// status, results as JSON or CSV, health, and Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cc0ffee/greensim/internal/jobs"
	"github.com/cc0ffee/greensim/internal/store"
)

type Server struct {
	store   *store.Store
	manager *jobs.Manager
	port    string
}

func NewServer(store *store.Store, manager *jobs.Manager, port string) *Server {
	return &Server{
		store:   store,
		manager: manager,
		port:    port,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/simulate", s.handleSimulate)
	mux.HandleFunc("/api/jobs", s.handleJobList)
	mux.HandleFunc("/api/jobs/", s.handleJob)
	mux.HandleFunc("/api/results/", s.handleResults)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
