package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	JobToilExpiry      = "toil_expiry"
	JobProposalExpiry  = "proposal_expiry"
	JobLeaveCarryover  = "leave_carryover"
	defaultQueueLength = 32
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type RunFunc func(context.Context) (any, error)

// Schedule runs Run every Interval. When is optional; a tick is skipped when
// it returns false.
type Schedule struct {
	JobType  string
	Interval time.Duration
	When     func(time.Time) bool
	Run      RunFunc
}

// Observer receives the outcome of every job run.
type Observer interface {
	RecordJob(jobType string, failed bool)
}

type Service struct {
	recorder  Recorder
	observer  Observer
	logger    *zap.Logger
	queue     chan job
	schedules []Schedule
	now       func() time.Time
	wg        sync.WaitGroup
}

type job struct {
	Type     string
	TenantID string
	Run      RunFunc
}

func New(recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		recorder: recorder,
		logger:   logger.Named("jobs"),
		queue:    make(chan job, defaultQueueLength),
		now:      time.Now,
	}
}

func (s *Service) SetObserver(o Observer) {
	s.observer = o
}

// Add registers a schedule. It must be called before Start.
func (s *Service) Add(schedule Schedule) {
	if schedule.Interval <= 0 || schedule.Run == nil {
		s.logger.Info("schedule disabled", zap.String("jobType", schedule.JobType))
		return
	}
	s.schedules = append(s.schedules, schedule)
}

func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
	for _, schedule := range s.schedules {
		s.wg.Add(1)
		go s.runSchedule(ctx, schedule)
	}
}

// Wait blocks until every goroutine started by Start has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType, tenantID string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
		return true
	default:
		s.logger.Warn("job queue full", zap.String("jobType", jobType), zap.String("tenantId", tenantID))
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.logger.Warn("job run failed", zap.String("jobType", j.Type), zap.String("tenantId", j.TenantID), zap.Error(err))
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.recorder.Start(ctx, j.TenantID, j.Type)
	if err != nil {
		s.logger.Warn("job run insert failed", zap.String("jobType", j.Type), zap.Error(err))
	}

	started := s.now()
	details, err := j.Run(ctx)
	status := StatusCompleted
	recorded := details
	if err != nil {
		status = StatusFailed
		recorded = map[string]any{"error": err.Error(), "partial": details}
	}
	detailsJSON, marshalErr := json.Marshal(recorded)
	if marshalErr != nil {
		s.logger.Warn("job details marshal failed", zap.Error(marshalErr))
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.recorder.Finish(ctx, runID, status, detailsJSON); updErr != nil {
			s.logger.Warn("job run update failed", zap.Error(updErr))
		}
	}
	if s.observer != nil {
		s.observer.RecordJob(j.Type, err != nil)
	}
	s.logger.Info("job finished",
		zap.String("jobType", j.Type),
		zap.String("tenantId", j.TenantID),
		zap.String("status", status),
		zap.Duration("duration", s.now().Sub(started)))
	return details, err
}

func (s *Service) runSchedule(ctx context.Context, schedule Schedule) {
	defer s.wg.Done()
	ticker := time.NewTicker(schedule.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			if schedule.When != nil && !schedule.When(tick) {
				continue
			}
			s.Enqueue(schedule.JobType, "", schedule.Run)
		}
	}
}
