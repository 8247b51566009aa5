// Package store persists simulation jobs and their results in SQLite. Records
// carry an expiry so finished runs age out instead of accumulating forever.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cc0ffee/greensim/internal/models"
	"github.com/cc0ffee/greensim/internal/sim"
)

// DefaultResultTTL is how long a finished job and its results remain
// queryable before the purge removes them.
const DefaultResultTTL = 24 * time.Hour

type Store struct {
	db  *sql.DB
	ttl time.Duration
}

func New(db *sql.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &Store{db: db, ttl: ttl}
}

// CreateJob records a new job in status queued.
func (s *Store) CreateJob(jobID string, params json.RawMessage, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO jobs (job_id, status, created_at, updated_at, params_json, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, jobID, models.StatusQueued, now, now, string(params), now.Add(s.ttl))
	if err != nil {
		return fmt.Errorf("create job %s: %w", jobID, err)
	}
	return nil
}

// MarkRunning transitions a job to running.
func (s *Store) MarkRunning(jobID string, now time.Time) error {
	return s.setStatus(jobID, models.StatusRunning, "", now)
}

// MarkError transitions a job to error with the failure message.
func (s *Store) MarkError(jobID, msg string, now time.Time) error {
	return s.setStatus(jobID, models.StatusError, msg, now)
}

func (s *Store) setStatus(jobID, status, errMsg string, now time.Time) error {
	res, err := s.db.Exec(`
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE job_id = ?
	`, status, errMsg, now, jobID)
	if err != nil {
		return fmt.Errorf("set job %s status: %w", jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set job %s status: job not found", jobID)
	}
	return nil
}

// MarkDone stores the summary and result rows and transitions the job to done.
// The expiry is refreshed from completion time so results live a full TTL.
func (s *Store) MarkDone(jobID string, summary models.Summary, results []sim.Result, now time.Time) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	dataJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE jobs SET status = ?, error = '', summary_json = ?, updated_at = ?, expires_at = ?
		WHERE job_id = ?
	`, models.StatusDone, string(summaryJSON), now, now.Add(s.ttl), jobID)
	if err != nil {
		return fmt.Errorf("mark job %s done: %w", jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark job %s done: job not found", jobID)
	}

	_, err = tx.Exec(`
		INSERT INTO job_results (job_id, data_json) VALUES (?, ?)
		ON CONFLICT(job_id) DO UPDATE SET data_json = excluded.data_json
	`, jobID, string(dataJSON))
	if err != nil {
		return fmt.Errorf("store results for %s: %w", jobID, err)
	}

	return tx.Commit()
}

// GetJob returns the job metadata, or nil when unknown.
func (s *Store) GetJob(jobID string) (*models.Job, error) {
	row := s.db.QueryRow(`
		SELECT job_id, status, created_at, updated_at, params_json, error, summary_json, expires_at
		FROM jobs WHERE job_id = ?
	`, jobID)

	var (
		job         models.Job
		paramsJSON  sql.NullString
		errMsg      sql.NullString
		summaryJSON sql.NullString
	)
	err := row.Scan(&job.JobID, &job.Status, &job.CreatedAt, &job.UpdatedAt, &paramsJSON, &errMsg, &summaryJSON, &job.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if paramsJSON.Valid {
		job.Params = json.RawMessage(paramsJSON.String)
	}
	job.Error = errMsg.String
	if summaryJSON.Valid && summaryJSON.String != "" {
		var summary models.Summary
		if err := json.Unmarshal([]byte(summaryJSON.String), &summary); err != nil {
			return nil, fmt.Errorf("parse summary for %s: %w", jobID, err)
		}
		job.Summary = &summary
	}
	return &job, nil
}

// GetResults returns the stored result rows for a finished job, or nil when
// the job is unknown or not done yet.
func (s *Store) GetResults(jobID string) ([]sim.Result, error) {
	row := s.db.QueryRow(`SELECT data_json FROM job_results WHERE job_id = ?`, jobID)

	var dataJSON string
	err := row.Scan(&dataJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var results []sim.Result
	if err := json.Unmarshal([]byte(dataJSON), &results); err != nil {
		return nil, fmt.Errorf("parse results for %s: %w", jobID, err)
	}
	return results, nil
}

// RecentJobs returns up to limit jobs, newest first.
func (s *Store) RecentJobs(limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT job_id, status, created_at, updated_at, error, expires_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		var (
			job    models.Job
			errMsg sql.NullString
		)
		if err := rows.Scan(&job.JobID, &job.Status, &job.CreatedAt, &job.UpdatedAt, &errMsg, &job.ExpiresAt); err != nil {
			return nil, err
		}
		job.Error = errMsg.String
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// PurgeExpired deletes jobs (and, via cascade, their results) whose expiry has
// passed. Returns the number of jobs removed.
func (s *Store) PurgeExpired(now time.Time) (int64, error) {
	// The cascade only fires with foreign keys on; delete results explicitly
	// so the purge does not depend on the connection pragma.
	if _, err := s.db.Exec(`
		DELETE FROM job_results WHERE job_id IN (SELECT job_id FROM jobs WHERE expires_at <= ?)
	`, now); err != nil {
		return 0, fmt.Errorf("purge results: %w", err)
	}
	res, err := s.db.Exec(`DELETE FROM jobs WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("purge jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
