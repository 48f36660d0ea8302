package jobs

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultRunsLimit = 50
	MaxRunsLimit     = 200
)

type Run struct {
	ID          string          `json:"id"`
	TenantID    *string         `json:"tenantId"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// RunFilter narrows ListRuns. Runs without a tenant belong to scheduled
// jobs that span every tenant; every tenant sees their status and timing but
// never their details, which name other tenants.
type RunFilter struct {
	TenantID string
	JobType  string
	Status   string
	Limit    int
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultRunsLimit
	}
	return min(f.Limit, MaxRunsLimit)
}

var emptyDetails = json.RawMessage(`{}`)

// VisibleTo returns the run as a member of tenantID may see it. Details of
// runs owned by no tenant or by another tenant are dropped.
func (r Run) VisibleTo(tenantID string) Run {
	if r.TenantID == nil || *r.TenantID != tenantID {
		r.Details = emptyDetails
	}
	return r
}

func buildRunsQuery(filter RunFilter) (string, []any) {
	query := `
    SELECT id, tenant_id, job_type, status,
      CASE WHEN tenant_id IS NULL THEN '{}'::jsonb ELSE COALESCE(details_json, '{}'::jsonb) END,
      started_at, completed_at
    FROM job_runs
    WHERE (tenant_id = $1 OR tenant_id IS NULL)
  `
	args := []any{filter.TenantID}

	if value := strings.TrimSpace(filter.JobType); value != "" {
		query += " AND job_type = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	if value := strings.TrimSpace(filter.Status); value != "" {
		query += " AND status = $" + strconv.Itoa(len(args)+1)
		args = append(args, value)
	}
	query += " ORDER BY started_at DESC LIMIT $" + strconv.Itoa(len(args)+1)
	args = append(args, filter.limit())
	return query, args
}

func (r *PGRecorder) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query, args := buildRunsQuery(filter)
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var details []byte
		if err := rows.Scan(&run.ID, &run.TenantID, &run.JobType, &run.Status, &details, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		run.Details = json.RawMessage(details)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
