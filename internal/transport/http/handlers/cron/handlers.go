package cronhandler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"practicehub/internal/domain/leave"
	"practicehub/internal/domain/proposals"
	"practicehub/internal/domain/toil"
	"practicehub/internal/platform/jobs"
	"practicehub/internal/transport/http/api"
	"practicehub/internal/transport/http/shared"
)

type ToilExpirer interface {
	ExpireAccruals(ctx context.Context, now time.Time) (toil.ExpirySummary, error)
}

type ProposalExpirer interface {
	ExpireProposals(ctx context.Context, now time.Time) (proposals.ExpirySummary, error)
}

type CarryoverRunner interface {
	RunGlobalCarryover(ctx context.Context, fromYear int) (leave.GlobalCarryoverSummary, error)
}

type JobRunner interface {
	RunNow(ctx context.Context, jobType, tenantID string, run jobs.RunFunc) (any, error)
}

type Handler struct {
	Toil      ToilExpirer
	Proposals ProposalExpirer
	Carryover CarryoverRunner
	Jobs      JobRunner
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewHandler(toilSvc ToilExpirer, proposalSvc ProposalExpirer, carryover CarryoverRunner, jobsSvc JobRunner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Toil:      toilSvc,
		Proposals: proposalSvc,
		Carryover: carryover,
		Jobs:      jobsSvc,
		Logger:    logger.Named("cron"),
		Now:       time.Now,
	}
}

// RegisterRoutes mounts the scheduler endpoints. Secret and rate limit
// middleware are applied by the caller.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/expire-toil", h.handleExpireToil)
	r.Post("/expire-proposals", h.handleExpireProposals)
	r.Post("/leave-carryover", h.handleLeaveCarryover)
}

type toilTotals struct {
	Date                  string `json:"date"`
	TotalTenantsProcessed int    `json:"totalTenantsProcessed"`
	TotalExpired          int    `json:"totalExpired"`
	TotalUsersAffected    int    `json:"totalUsersAffected"`
}

type toilExpiryResponse struct {
	Success       bool                      `json:"success"`
	Summary       toilTotals                `json:"summary"`
	TenantResults []toil.TenantExpiryResult `json:"tenantResults"`
}

func (h *Handler) run(ctx context.Context, jobType string, run jobs.RunFunc) error {
	if h.Jobs == nil {
		_, err := run(ctx)
		return err
	}
	_, err := h.Jobs.RunNow(ctx, jobType, "", run)
	return err
}

func (h *Handler) fail(w http.ResponseWriter, job string, err error) {
	h.Logger.Error("cron job failed", zap.String("job", job), zap.Error(err))
	api.FailJob(w, http.StatusInternalServerError, "Failed to "+job, err.Error())
}

func (h *Handler) handleExpireToil(w http.ResponseWriter, r *http.Request) {
	var summary toil.ExpirySummary
	err := h.run(r.Context(), jobs.JobToilExpiry, func(ctx context.Context) (any, error) {
		var err error
		summary, err = h.Toil.ExpireAccruals(ctx, h.Now())
		return summary, err
	})
	if err != nil {
		h.fail(w, "expire TOIL", err)
		return
	}

	tenantResults := summary.TenantResults
	if tenantResults == nil {
		tenantResults = []toil.TenantExpiryResult{}
	}
	api.WriteJSON(w, http.StatusOK, toilExpiryResponse{
		Success: true,
		Summary: toilTotals{
			Date:                  summary.Date,
			TotalTenantsProcessed: summary.TotalTenantsProcessed,
			TotalExpired:          summary.TotalExpired,
			TotalUsersAffected:    summary.TotalUsersAffected,
		},
		TenantResults: tenantResults,
	})
}

func (h *Handler) handleExpireProposals(w http.ResponseWriter, r *http.Request) {
	var summary proposals.ExpirySummary
	err := h.run(r.Context(), jobs.JobProposalExpiry, func(ctx context.Context) (any, error) {
		var err error
		summary, err = h.Proposals.ExpireProposals(ctx, h.Now())
		return summary, err
	})
	if err != nil {
		h.fail(w, "expire proposals", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleLeaveCarryover(w http.ResponseWriter, r *http.Request) {
	fromYear, err := shared.ParseYear(strings.TrimSpace(r.URL.Query().Get("fromYear")), h.Now().Year()-1)
	if err != nil {
		api.FailJob(w, http.StatusBadRequest, "invalid_year", err.Error())
		return
	}

	var summary leave.GlobalCarryoverSummary
	err = h.run(r.Context(), jobs.JobLeaveCarryover, func(ctx context.Context) (any, error) {
		var err error
		summary, err = h.Carryover.RunGlobalCarryover(ctx, fromYear)
		return summary, err
	})
	if errors.Is(err, context.Canceled) {
		api.FailJob(w, http.StatusServiceUnavailable, "cancelled", "carryover run was cancelled")
		return
	}
	if err != nil {
		h.fail(w, "run leave carryover", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, summary)
}
