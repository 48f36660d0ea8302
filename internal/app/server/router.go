package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"practicehub/internal/platform/config"
	"practicehub/internal/platform/metrics"
	"practicehub/internal/transport/http/api"
	cronhandler "practicehub/internal/transport/http/handlers/cron"
	jobshandler "practicehub/internal/transport/http/handlers/jobs"
	leavehandler "practicehub/internal/transport/http/handlers/leave"
	"practicehub/internal/transport/http/middleware"
)

type RouterDeps struct {
	Config  config.Config
	Logger  *zap.Logger
	Metrics *metrics.Collector
	Ready   func(ctx context.Context) error
	Cron    *cronhandler.Handler
	Leave   *leavehandler.Handler
	JobRuns *jobshandler.Handler
	Limiter *middleware.TwoTierRateLimiter
}

func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewTwoTierRateLimiter(
			cfg.CronRateLimitPerMinute,
			cfg.CronGlobalRateLimitPerMinute,
			time.Minute,
			middleware.WithLogger(logger),
		)
	}

	var recorder middleware.RequestRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.AccessLog(logger.Named("http"), recorder))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				api.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db not ready"})
				return
			}
		}
		api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	if deps.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.WriteJSON(w, http.StatusOK, deps.Metrics.Snapshot())
		})
	}

	if deps.Cron != nil {
		router.Route("/api/cron", func(r chi.Router) {
			// Secret first so unauthenticated callers never spend the limiter budget.
			r.Use(middleware.CronSecret(cfg.CronSecret, logger))
			r.Use(limiter.Middleware)
			deps.Cron.RegisterRoutes(r)
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		if deps.Leave != nil {
			deps.Leave.RegisterRoutes(r)
		}
		if deps.JobRuns != nil {
			deps.JobRuns.RegisterRoutes(r)
		}
	})

	return router
}
