package database

import (
	"encoding/json"
	"fmt"
	"time"
)

var _ JobRunRepository = (*JobRunRepo)(nil)

// JobRunRepo handles database operations for the job run ledger
type JobRunRepo struct {
	db *DB
}

func NewJobRunRepo(db *DB) *JobRunRepo {
	return &JobRunRepo{db: db}
}

// CreateJobRun inserts a new ledger row and returns its id. Details is
// marshaled to JSON; callers pass the job-type-specific payload struct.
func (r *JobRunRepo) CreateJobRun(jobType JobType, status JobStatus, details any) (int64, error) {
	payload, err := marshalDetails(details)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Exec(`
		INSERT INTO job_runs (job_type, status, timestamp, details)
		VALUES (?, ?, ?, ?)
	`, string(jobType), string(status), time.Now().UTC().Format(time.RFC3339), payload)
	if err != nil {
		return 0, fmt.Errorf("failed to create job run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get job run id: %w", err)
	}

	return id, nil
}

// UpdateJobRun moves an existing ledger row to its terminal status. The row
// is updated in place, never replaced, so attempt order stays intact.
func (r *JobRunRepo) UpdateJobRun(id int64, status JobStatus, details any) error {
	payload, err := marshalDetails(details)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(`
		UPDATE job_runs
		SET status = ?, timestamp = ?, details = ?
		WHERE id = ?
	`, string(status), time.Now().UTC().Format(time.RFC3339), payload, id)
	if err != nil {
		return fmt.Errorf("failed to update job run %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check job run update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job run %d not found", id)
	}

	return nil
}

// HasSuccessfulJobRun reports whether a success row already exists for the
// given (vendor, week, year) unit. The orchestrator uses this to skip units
// idempotently.
func (r *JobRunRepo) HasSuccessfulJobRun(jobType JobType, vendor string, week, year int) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM job_runs
		WHERE job_type = ?
		  AND status = ?
		  AND json_extract(details, '$.vendor') = ?
		  AND json_extract(details, '$.week') = ?
		  AND json_extract(details, '$.year') = ?
	`, string(jobType), string(JobStatusSuccess), vendor, week, year).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check successful job run: %w", err)
	}

	return count > 0, nil
}

// GetRecentJobRuns returns the newest ledger rows, newest first
func (r *JobRunRepo) GetRecentJobRuns(limit int) ([]JobRun, error) {
	rows, err := r.db.Query(`
		SELECT id, job_type, status, timestamp, details
		FROM job_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get job runs: %w", err)
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var run JobRun
		var jobType, status, timestamp string
		if err := rows.Scan(&run.ID, &jobType, &status, &timestamp, &run.Details); err != nil {
			return nil, fmt.Errorf("failed to scan job run row: %w", err)
		}

		run.JobType = JobType(jobType)
		run.Status = JobStatus(status)
		if ts, err := time.Parse(time.RFC3339, timestamp); err == nil {
			run.Timestamp = ts
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job run rows: %w", err)
	}

	return runs, nil
}

// GetJobRunCount returns the total number of ledger rows
func (r *JobRunRepo) GetJobRunCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM job_runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get job run count: %w", err)
	}
	return count, nil
}

func marshalDetails(details any) (string, error) {
	if details == nil {
		return "{}", nil
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job run details: %w", err)
	}

	return string(payload), nil
}
