package jobs

import (
	"context"

	"practicehub/internal/platform/querier"
)

// Recorder persists job runs so operators can see what ran and why it failed.
type Recorder interface {
	Start(ctx context.Context, tenantID, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, detailsJSON []byte) error
}

type PGRecorder struct {
	DB querier.Querier
}

func NewRecorder(db querier.Querier) *PGRecorder {
	return &PGRecorder{DB: db}
}

func (r *PGRecorder) Start(ctx context.Context, tenantID, jobType string) (string, error) {
	var tenant any
	if tenantID != "" {
		tenant = tenantID
	}
	var runID string
	err := r.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, tenant, jobType, StatusRunning).Scan(&runID)
	return runID, err
}

func (r *PGRecorder) Finish(ctx context.Context, runID, status string, detailsJSON []byte) error {
	_, err := r.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}
