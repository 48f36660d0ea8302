package leavehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

	"practicehub/internal/domain/audit"
	"practicehub/internal/domain/auth"
	"practicehub/internal/domain/directory"
	"practicehub/internal/domain/leave"
	"practicehub/internal/transport/http/api"
	"practicehub/internal/transport/http/middleware"
)

func TestMain(m *testing.M) {
	api.UseNumericDecimals()
	os.Exit(m.Run())
}

const testSecret = "test-secret"

type fakeService struct {
	balanceYear  int
	carryTenant  string
	carryYear    int
	carryoverErr error
}

func (f *fakeService) GetOrCreateBalance(_ context.Context, tenantID, userID string, year int) (leave.Balance, error) {
	f.balanceYear = year
	return leave.Balance{
		ID:                "b1",
		TenantID:          tenantID,
		UserID:            userID,
		Year:              year,
		AnnualEntitlement: decimal.RequireFromString("27.5"),
		AnnualUsed:        decimal.NewFromInt(3),
		CarriedOver:       decimal.RequireFromString("2.5"),
		SickUsed:          decimal.Zero,
		ToilBalance:       decimal.NewFromInt(4),
	}, nil
}

func (f *fakeService) RunAnnualCarryover(_ context.Context, tenantID string, fromYear int) (leave.TenantCarryoverSummary, error) {
	f.carryTenant = tenantID
	f.carryYear = fromYear
	if f.carryoverErr != nil {
		return leave.TenantCarryoverSummary{}, f.carryoverErr
	}
	return leave.TenantCarryoverSummary{TenantID: tenantID, FromYear: fromYear, Success: true, Processed: 1, Results: []leave.CarryoverResult{}}, nil
}

type fakeAuditor struct {
	events []audit.Event
}

func (f *fakeAuditor) Record(_ context.Context, event audit.Event) error {
	f.events = append(f.events, event)
	return nil
}

func newRouter(t *testing.T, svc *fakeService) http.Handler {
	t.Helper()
	return newRouterWithAudit(t, svc, nil)
}

func newRouterWithAudit(t *testing.T, svc *fakeService, auditor Auditor) http.Handler {
	t.Helper()
	h := NewHandler(svc, nil, auditor, zaptest.NewLogger(t))
	h.Now = func() time.Time { return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Use(middleware.Auth(testSecret))
	r.Route("/api/v1", h.RegisterRoutes)
	return r
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "u1", TenantID: "t1", Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, router http.Handler, method, path, token string, body []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	env := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestMyBalance(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(t, svc)

	rec, env := call(t, router, http.MethodGet, "/api/v1/leave/balances/me", tokenFor(t, auth.RoleMember), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2026, svc.balanceYear)

	data := env["data"].(map[string]any)
	assert.Equal(t, "u1", data["userId"])
	assert.EqualValues(t, 27.5, data["annualEntitlement"])
	assert.Equal(t, "24.5", data["annualRemaining"])

	rec, _ = call(t, router, http.MethodGet, "/api/v1/leave/balances/me?year=2024", tokenFor(t, auth.RoleMember), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, svc.balanceYear)
}

func TestMyBalanceRequiresAuth(t *testing.T) {
	rec, _ := call(t, newRouter(t, &fakeService{}), http.MethodGet, "/api/v1/leave/balances/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMyBalanceInvalidYear(t *testing.T) {
	rec, env := call(t, newRouter(t, &fakeService{}), http.MethodGet, "/api/v1/leave/balances/me?year=99", tokenFor(t, auth.RoleMember), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_year", env["error"].(map[string]any)["code"])
}

func TestRunCarryoverAdminOnly(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(t, svc)

	rec, _ := call(t, router, http.MethodPost, "/api/v1/leave/carryover/run", tokenFor(t, auth.RoleMember), []byte(`{"fromYear":2025}`))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, svc.carryTenant)

	rec, env := call(t, router, http.MethodPost, "/api/v1/leave/carryover/run", tokenFor(t, auth.RoleAdmin), []byte(`{"fromYear":2024}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t1", svc.carryTenant)
	assert.Equal(t, 2024, svc.carryYear)
	assert.EqualValues(t, 2024, env["data"].(map[string]any)["fromYear"])
}

func TestRunCarryoverDefaultsAndValidation(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(t, svc)

	rec, _ := call(t, router, http.MethodPost, "/api/v1/leave/carryover/run", tokenFor(t, auth.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, svc.carryYear)

	rec, _ = call(t, router, http.MethodPost, "/api/v1/leave/carryover/run", tokenFor(t, auth.RoleAdmin), []byte(`{"fromYear":1900}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, router, http.MethodPost, "/api/v1/leave/carryover/run", tokenFor(t, auth.RoleAdmin), []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunCarryoverRecordsAudit(t *testing.T) {
	auditor := &fakeAuditor{}
	router := newRouterWithAudit(t, &fakeService{}, auditor)

	rec, _ := call(t, router, http.MethodPost, "/api/v1/leave/carryover/run", tokenFor(t, auth.RoleAdmin), []byte(`{"fromYear":2025}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, auditor.events, 1)
	event := auditor.events[0]
	assert.Equal(t, audit.ActionCarryoverRun, event.Action)
	assert.Equal(t, "t1", event.TenantID)
	assert.Equal(t, "u1", event.ActorID)
	assert.Equal(t, "2025", event.EntityID)
}

func TestRunCarryoverUnknownTenant(t *testing.T) {
	auditor := &fakeAuditor{}
	svc := &fakeService{carryoverErr: fmt.Errorf("tenant t1: %w", directory.ErrTenantNotFound)}
	router := newRouterWithAudit(t, svc, auditor)

	rec, env := call(t, router, http.MethodPost, "/api/v1/leave/carryover/run", tokenFor(t, auth.RoleAdmin), []byte(`{"fromYear":2025}`))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "tenant_not_found", env["error"].(map[string]any)["code"])
	assert.Empty(t, auditor.events)
}
