package cronhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"practicehub/internal/domain/leave"
	"practicehub/internal/domain/proposals"
	"practicehub/internal/domain/toil"
	"practicehub/internal/platform/jobs"
	"practicehub/internal/transport/http/api"
)

func TestMain(m *testing.M) {
	api.UseNumericDecimals()
	os.Exit(m.Run())
}

type fakeToil struct {
	summary toil.ExpirySummary
	err     error
}

func (f *fakeToil) ExpireAccruals(context.Context, time.Time) (toil.ExpirySummary, error) {
	return f.summary, f.err
}

type fakeProposals struct {
	summary proposals.ExpirySummary
	err     error
}

func (f *fakeProposals) ExpireProposals(context.Context, time.Time) (proposals.ExpirySummary, error) {
	return f.summary, f.err
}

type fakeCarryover struct {
	gotYear int
	err     error
}

func (f *fakeCarryover) RunGlobalCarryover(_ context.Context, fromYear int) (leave.GlobalCarryoverSummary, error) {
	f.gotYear = fromYear
	if f.err != nil {
		return leave.GlobalCarryoverSummary{}, f.err
	}
	return leave.GlobalCarryoverSummary{
		Success:             true,
		FromYear:            fromYear,
		TenantsProcessed:    1,
		TotalUsersProcessed: 2,
		Tenants: []leave.TenantCarryoverSummary{{
			TenantID:  "t1",
			FromYear:  fromYear,
			Success:   true,
			Processed: 2,
			Results: []leave.CarryoverResult{
				{UserID: "u1", Success: true, CarriedDays: decimal.RequireFromString("2.5")},
				{UserID: "u2", Success: true, CarriedDays: decimal.Zero},
			},
		}},
	}, nil
}

type fakeJobs struct {
	types []string
}

func (f *fakeJobs) RunNow(ctx context.Context, jobType, _ string, run jobs.RunFunc) (any, error) {
	f.types = append(f.types, jobType)
	return run(ctx)
}

func newTestRouter(t *testing.T, h *Handler) http.Handler {
	t.Helper()
	h.Logger = zaptest.NewLogger(t)
	h.Now = func() time.Time { return time.Date(2026, time.February, 3, 2, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Route("/api/cron", h.RegisterRoutes)
	return r
}

func do(t *testing.T, router http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestExpireToilResponseShape(t *testing.T) {
	jobsSvc := &fakeJobs{}
	h := &Handler{
		Toil: &fakeToil{summary: toil.ExpirySummary{
			Date:                  "2026-02-03",
			TotalTenantsProcessed: 2,
			TotalExpired:          3,
			TotalUsersAffected:    2,
			TenantResults: []toil.TenantExpiryResult{
				{TenantID: "t1", TenantName: "Acme", ExpiredCount: 3, UsersAffected: 2},
			},
		}},
		Jobs: jobsSvc,
	}
	router := newTestRouter(t, h)

	rec, body := do(t, router, http.MethodGet, "/api/cron/expire-toil")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	summary := body["summary"].(map[string]any)
	assert.Equal(t, "2026-02-03", summary["date"])
	assert.EqualValues(t, 2, summary["totalTenantsProcessed"])
	assert.EqualValues(t, 3, summary["totalExpired"])
	assert.EqualValues(t, 2, summary["totalUsersAffected"])
	assert.NotContains(t, summary, "tenantResults")

	results := body["tenantResults"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "Acme", results[0].(map[string]any)["tenantName"])
	assert.Equal(t, []string{jobs.JobToilExpiry}, jobsSvc.types)
}

func TestExpireToilFailure(t *testing.T) {
	router := newTestRouter(t, &Handler{Toil: &fakeToil{err: errors.New("db down")}})

	rec, body := do(t, router, http.MethodGet, "/api/cron/expire-toil")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to expire TOIL", body["error"])
	assert.Equal(t, "db down", body["message"])
}

func TestExpireToilRejectsPost(t *testing.T) {
	router := newTestRouter(t, &Handler{Toil: &fakeToil{}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cron/expire-toil", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExpireProposals(t *testing.T) {
	ts := time.Date(2026, time.February, 3, 2, 0, 0, 0, time.UTC)
	router := newTestRouter(t, &Handler{Proposals: &fakeProposals{summary: proposals.ExpirySummary{
		Success:        true,
		ExpiredCount:   1,
		ProcessedCount: 2,
		Errors:         []proposals.ExpiryError{{ProposalID: "p2", Error: "conflict"}},
		Timestamp:      ts,
	}}})

	rec, body := do(t, router, http.MethodPost, "/api/cron/expire-proposals")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["expiredCount"])
	assert.EqualValues(t, 2, body["processedCount"])
	assert.Len(t, body["errors"], 1)
	assert.Equal(t, ts.Format(time.RFC3339), body["timestamp"])
}

func TestLeaveCarryoverDefaultsToPreviousYear(t *testing.T) {
	carry := &fakeCarryover{}
	router := newTestRouter(t, &Handler{Carryover: carry})

	rec, body := do(t, router, http.MethodPost, "/api/cron/leave-carryover")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, carry.gotYear)
	assert.EqualValues(t, 2025, body["fromYear"])
	assert.EqualValues(t, 2, body["totalUsersProcessed"])

	tenant := body["tenants"].([]any)[0].(map[string]any)
	first := tenant["results"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 2.5, first["carriedDays"])
}

func TestLeaveCarryoverExplicitYear(t *testing.T) {
	carry := &fakeCarryover{}
	router := newTestRouter(t, &Handler{Carryover: carry})

	rec, _ := do(t, router, http.MethodPost, "/api/cron/leave-carryover?fromYear=2024")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, carry.gotYear)

	rec, body := do(t, router, http.MethodPost, "/api/cron/leave-carryover?fromYear=abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_year", body["error"])
}

func TestLeaveCarryoverFailure(t *testing.T) {
	router := newTestRouter(t, &Handler{Carryover: &fakeCarryover{err: errors.New("list tenants: boom")}})

	rec, body := do(t, router, http.MethodPost, "/api/cron/leave-carryover")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to run leave carryover", body["error"])
}
