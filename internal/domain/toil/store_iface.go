package toil

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"practicehub/internal/domain/directory"
)

type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	// ExpireDue flips every unexpired accrual of the tenant whose expiry date
	// is on or before today and returns the flipped rows.
	ExpireDue(ctx context.Context, tenantID string, today time.Time) ([]ExpiredAccrual, error)
	DecrementBalance(ctx context.Context, tenantID, userID string, year int, hours decimal.Decimal) error
	InsertAccrual(ctx context.Context, record AccrualRecord) (string, error)
	IncrementBalance(ctx context.Context, tenantID, userID string, year int, hours, defaultEntitlement decimal.Decimal) error
}

type TenantLister interface {
	ListTenants(ctx context.Context) ([]directory.Tenant, error)
}
