package jobshandler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"practicehub/internal/domain/auth"
	"practicehub/internal/platform/jobs"
	"practicehub/internal/transport/http/api"
	"practicehub/internal/transport/http/middleware"
)

type RunLister interface {
	ListRuns(ctx context.Context, filter jobs.RunFilter) ([]jobs.Run, error)
}

type Handler struct {
	Runs   RunLister
	Logger *zap.Logger
}

func NewHandler(runs RunLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Runs: runs, Logger: logger.Named("jobs_http")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(auth.RoleAdmin)).Get("/jobs/runs", h.handleListRuns)
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	filter := jobs.RunFilter{
		TenantID: user.TenantID,
		JobType:  strings.TrimSpace(query.Get("jobType")),
		Status:   strings.TrimSpace(query.Get("status")),
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			api.Fail(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer", reqID)
			return
		}
		filter.Limit = limit
	}

	runs, err := h.Runs.ListRuns(r.Context(), filter)
	if err != nil {
		h.Logger.Error("list job runs failed", zap.String("tenantId", user.TenantID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", reqID)
		return
	}
	visible := make([]jobs.Run, 0, len(runs))
	for _, run := range runs {
		visible = append(visible, run.VisibleTo(user.TenantID))
	}
	api.Success(w, visible, reqID)
}
