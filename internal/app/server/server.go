package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"practicehub/internal/domain/audit"
	"practicehub/internal/domain/directory"
	"practicehub/internal/domain/leave"
	"practicehub/internal/domain/proposals"
	"practicehub/internal/domain/toil"
	"practicehub/internal/platform/config"
	"practicehub/internal/platform/db"
	"practicehub/internal/platform/jobs"
	"practicehub/internal/platform/metrics"
	cronhandler "practicehub/internal/transport/http/handlers/cron"
	jobshandler "practicehub/internal/transport/http/handlers/jobs"
	leavehandler "practicehub/internal/transport/http/handlers/leave"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config    config.Config
	Logger    *zap.Logger
	DB        *pgxpool.Pool
	Router    http.Handler
	Jobs      *jobs.Service
	Metrics   *metrics.Collector
	Leave     *leave.Service
	Toil      *toil.Service
	Proposals *proposals.Service
}

// New connects to the database, optionally migrates it and wires every
// service. The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	dir := directory.NewStore(pool)
	collector := metrics.New()
	recorder := jobs.NewRecorder(pool)
	jobsSvc := jobs.New(recorder, logger)
	jobsSvc.SetObserver(collector)

	app := &App{
		Config:    cfg,
		Logger:    logger,
		DB:        pool,
		Jobs:      jobsSvc,
		Metrics:   collector,
		Leave:     leave.NewService(leave.NewStore(pool), dir, logger),
		Toil:      toil.NewService(toil.NewStore(pool), dir, logger),
		Proposals: proposals.NewService(proposals.NewStore(pool), logger),
	}
	for _, schedule := range app.Schedules() {
		jobsSvc.Add(schedule)
	}

	app.Router = NewRouter(RouterDeps{
		Config:  cfg,
		Logger:  logger,
		Metrics: collector,
		Ready:   pool.Ping,
		Cron:    cronhandler.NewHandler(app.Toil, app.Proposals, app.Leave, jobsSvc, logger),
		Leave:   leavehandler.NewHandler(app.Leave, jobsSvc, audit.New(pool), logger),
		JobRuns: jobshandler.NewHandler(recorder, logger),
	})
	return app, nil
}

// Schedules returns the background jobs. Carryover is checked every interval
// during January and is safe to repeat.
func (a *App) Schedules() []jobs.Schedule {
	return []jobs.Schedule{
		{
			JobType:  jobs.JobToilExpiry,
			Interval: a.Config.ToilExpiryInterval,
			Run: func(ctx context.Context) (any, error) {
				return a.Toil.ExpireAccruals(ctx, time.Now())
			},
		},
		{
			JobType:  jobs.JobProposalExpiry,
			Interval: a.Config.ProposalExpiryInterval,
			Run: func(ctx context.Context) (any, error) {
				return a.Proposals.ExpireProposals(ctx, time.Now())
			},
		},
		{
			JobType:  jobs.JobLeaveCarryover,
			Interval: a.Config.CarryoverCheckInterval,
			When:     carryoverSeason,
			Run: func(ctx context.Context) (any, error) {
				return a.Leave.RunGlobalCarryover(ctx, time.Now().Year()-1)
			},
		},
	}
}

func carryoverSeason(t time.Time) bool {
	return t.Month() == time.January
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves HTTP and the scheduler until ctx is cancelled or the process
// receives SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	a.Jobs.Start(gctx)
	g.Go(func() error {
		a.Jobs.Wait()
		return nil
	})
	g.Go(func() error {
		a.Logger.Info("practicehub listening", zap.String("addr", a.Config.Addr), zap.String("env", a.Config.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
