package leavehandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"practicehub/internal/domain/audit"
	"practicehub/internal/domain/auth"
	"practicehub/internal/domain/directory"
	"practicehub/internal/domain/leave"
	"practicehub/internal/platform/jobs"
	"practicehub/internal/transport/http/api"
	"practicehub/internal/transport/http/middleware"
	"practicehub/internal/transport/http/shared"
)

type BalanceService interface {
	GetOrCreateBalance(ctx context.Context, tenantID, userID string, year int) (leave.Balance, error)
	RunAnnualCarryover(ctx context.Context, tenantID string, fromYear int) (leave.TenantCarryoverSummary, error)
}

type JobRunner interface {
	RunNow(ctx context.Context, jobType, tenantID string, run jobs.RunFunc) (any, error)
}

type Auditor interface {
	Record(ctx context.Context, event audit.Event) error
}

type Handler struct {
	Service BalanceService
	Jobs    JobRunner
	Audit   Auditor
	Logger  *zap.Logger
	Now     func() time.Time
}

func NewHandler(service BalanceService, jobsSvc JobRunner, auditor Auditor, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Jobs: jobsSvc, Audit: auditor, Logger: logger.Named("leave_http"), Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequireRole()).Get("/balances/me", h.handleMyBalance)
		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/carryover/run", h.handleRunCarryover)
	})
}

type balanceResponse struct {
	leave.Balance
	AnnualRemaining string `json:"annualRemaining"`
}

func (h *Handler) handleMyBalance(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	year, err := shared.ParseYear(r.URL.Query().Get("year"), h.Now().Year())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_year", err.Error(), reqID)
		return
	}

	balance, err := h.Service.GetOrCreateBalance(r.Context(), user.TenantID, user.UserID, year)
	if errors.Is(err, leave.ErrInvalidYear) {
		api.Fail(w, http.StatusBadRequest, "invalid_year", err.Error(), reqID)
		return
	}
	if err != nil {
		h.Logger.Error("load balance failed", zap.String("tenantId", user.TenantID), zap.String("userId", user.UserID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "balance_failed", "failed to load balance", reqID)
		return
	}
	api.Success(w, balanceResponse{Balance: balance, AnnualRemaining: balance.AnnualRemaining().String()}, reqID)
}

type carryoverRequest struct {
	FromYear int `json:"fromYear"`
}

func (h *Handler) handleRunCarryover(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())

	payload := carryoverRequest{}
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.FromYear == 0 {
		payload.FromYear = h.Now().Year() - 1
	}
	if payload.FromYear < 2000 || payload.FromYear > 2100 {
		api.Fail(w, http.StatusBadRequest, "invalid_year", "fromYear must be between 2000 and 2100", reqID)
		return
	}

	var summary leave.TenantCarryoverSummary
	run := func(ctx context.Context) (any, error) {
		var err error
		summary, err = h.Service.RunAnnualCarryover(ctx, user.TenantID, payload.FromYear)
		return summary, err
	}
	var err error
	if h.Jobs != nil {
		_, err = h.Jobs.RunNow(r.Context(), jobs.JobLeaveCarryover, user.TenantID, run)
	} else {
		_, err = run(r.Context())
	}
	if errors.Is(err, directory.ErrTenantNotFound) {
		api.Fail(w, http.StatusNotFound, "tenant_not_found", "tenant not found", reqID)
		return
	}
	if err != nil {
		h.Logger.Error("tenant carryover failed", zap.String("tenantId", user.TenantID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "carryover_failed", err.Error(), reqID)
		return
	}

	if h.Audit != nil {
		err := h.Audit.Record(r.Context(), audit.Event{
			TenantID:   user.TenantID,
			ActorID:    user.UserID,
			Action:     audit.ActionCarryoverRun,
			EntityType: "leave_year",
			EntityID:   strconv.Itoa(payload.FromYear),
			RequestID:  reqID,
			Details:    map[string]int{"processed": summary.Processed, "failed": summary.Failed},
		})
		if err != nil {
			h.Logger.Warn("audit record failed", zap.String("tenantId", user.TenantID), zap.Error(err))
		}
	}

	h.Logger.Info("tenant carryover triggered",
		zap.String("tenantId", user.TenantID),
		zap.String("userId", user.UserID),
		zap.Int("fromYear", payload.FromYear))
	api.Success(w, summary, reqID)
}
