package leave

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Service struct {
	Store     BalanceStore
	Directory Directory
	Logger    *zap.Logger
}

func NewService(store BalanceStore, dir Directory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: store, Directory: dir, Logger: logger.Named("leave")}
}

// GetOrCreateBalance returns the user's balance for year, creating it with the
// default entitlement on first access.
func (s *Service) GetOrCreateBalance(ctx context.Context, tenantID, userID string, year int) (Balance, error) {
	if year < 1 {
		return Balance{}, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return s.Store.EnsureBalance(ctx, tenantID, userID, year, DefaultAnnualEntitlement)
}
