package leave

import (
	"context"

	"github.com/shopspring/decimal"

	"practicehub/internal/domain/directory"
)

type BalanceStore interface {
	GetBalance(ctx context.Context, tenantID, userID string, year int) (Balance, error)
	EnsureBalance(ctx context.Context, tenantID, userID string, year int, entitlement decimal.Decimal) (Balance, error)
	InTx(ctx context.Context, fn func(tx CarryoverTx) error) error
}

// CarryoverTx is the set of writes ApplyCarryover performs atomically.
type CarryoverTx interface {
	// RecordCarryover claims (tenant, user, fromYear). It reports false when
	// a previous run already claimed it.
	RecordCarryover(ctx context.Context, tenantID, userID string, fromYear int, days decimal.Decimal) (bool, error)
	RecordedCarryover(ctx context.Context, tenantID, userID string, fromYear int) (decimal.Decimal, error)
	LockBalance(ctx context.Context, tenantID, userID string, year int) (Balance, error)
	AddCarryover(ctx context.Context, balanceID string, days decimal.Decimal) error
	InsertBalance(ctx context.Context, balance Balance) error
}

type Directory interface {
	ListTenants(ctx context.Context) ([]directory.Tenant, error)
	GetTenant(ctx context.Context, tenantID string) (directory.Tenant, error)
	ListTenantUsers(ctx context.Context, tenantID string) ([]directory.User, error)
}
