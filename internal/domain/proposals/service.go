package proposals

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Service struct {
	Store  StoreAPI
	Logger *zap.Logger
}

func NewService(store StoreAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: store, Logger: logger.Named("proposals")}
}

// ExpireProposals moves every sent or viewed proposal past its validity date
// to expired. Per-proposal failures are collected and do not stop the run.
func (s *Service) ExpireProposals(ctx context.Context, now time.Time) (ExpirySummary, error) {
	summary := ExpirySummary{Errors: []ExpiryError{}, Timestamp: now.UTC()}

	candidates, err := s.Store.ListExpirable(ctx, now)
	if err != nil {
		return summary, fmt.Errorf("list expirable proposals: %w", err)
	}

	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.ProcessedCount++
		updated, err := s.Store.MarkExpired(ctx, p.TenantID, p.ID)
		if err != nil {
			s.Logger.Warn("proposal expiry failed", zap.String("proposalId", p.ID), zap.String("tenantId", p.TenantID), zap.Error(err))
			summary.Errors = append(summary.Errors, ExpiryError{ProposalID: p.ID, Error: err.Error()})
			continue
		}
		if updated {
			summary.ExpiredCount++
		}
	}

	summary.Success = true
	s.Logger.Info("proposal expiry finished",
		zap.Int("processed", summary.ProcessedCount),
		zap.Int("expired", summary.ExpiredCount),
		zap.Int("errors", len(summary.Errors)))
	return summary, nil
}
