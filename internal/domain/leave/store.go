package leave

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"practicehub/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const balanceColumns = `id, tenant_id, user_id, year, annual_entitlement, annual_used, carried_over, sick_used, toil_balance, updated_at`

func scanBalance(row pgx.Row) (Balance, error) {
	var b Balance
	err := row.Scan(&b.ID, &b.TenantID, &b.UserID, &b.Year, &b.AnnualEntitlement, &b.AnnualUsed, &b.CarriedOver, &b.SickUsed, &b.ToilBalance, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, ErrBalanceNotFound
	}
	return b, err
}

func (s *Store) GetBalance(ctx context.Context, tenantID, userID string, year int) (Balance, error) {
	return scanBalance(s.DB.QueryRow(ctx, `
    SELECT `+balanceColumns+`
    FROM leave_balances
    WHERE tenant_id = $1 AND user_id = $2 AND year = $3
  `, tenantID, userID, year))
}

func (s *Store) EnsureBalance(ctx context.Context, tenantID, userID string, year int, entitlement decimal.Decimal) (Balance, error) {
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO leave_balances (tenant_id, user_id, year, annual_entitlement)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (tenant_id, user_id, year) DO NOTHING
  `, tenantID, userID, year, entitlement); err != nil {
		return Balance{}, err
	}
	return s.GetBalance(ctx, tenantID, userID, year)
}

func (s *Store) InTx(ctx context.Context, fn func(tx CarryoverTx) error) error {
	return querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(&carryoverTx{tx: tx})
	})
}

type carryoverTx struct {
	tx pgx.Tx
}

func (c *carryoverTx) RecordCarryover(ctx context.Context, tenantID, userID string, fromYear int, days decimal.Decimal) (bool, error) {
	tag, err := c.tx.Exec(ctx, `
    INSERT INTO leave_carryover_applications (tenant_id, user_id, from_year, carried_days)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (tenant_id, user_id, from_year) DO NOTHING
  `, tenantID, userID, fromYear, days)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (c *carryoverTx) RecordedCarryover(ctx context.Context, tenantID, userID string, fromYear int) (decimal.Decimal, error) {
	var days decimal.Decimal
	err := c.tx.QueryRow(ctx, `
    SELECT carried_days
    FROM leave_carryover_applications
    WHERE tenant_id = $1 AND user_id = $2 AND from_year = $3
  `, tenantID, userID, fromYear).Scan(&days)
	return days, err
}

func (c *carryoverTx) LockBalance(ctx context.Context, tenantID, userID string, year int) (Balance, error) {
	return scanBalance(c.tx.QueryRow(ctx, `
    SELECT `+balanceColumns+`
    FROM leave_balances
    WHERE tenant_id = $1 AND user_id = $2 AND year = $3
    FOR UPDATE
  `, tenantID, userID, year))
}

func (c *carryoverTx) AddCarryover(ctx context.Context, balanceID string, days decimal.Decimal) error {
	_, err := c.tx.Exec(ctx, `
    UPDATE leave_balances
    SET carried_over = $2,
        annual_entitlement = annual_entitlement + $2,
        updated_at = now()
    WHERE id = $1
  `, balanceID, days)
	return err
}

func (c *carryoverTx) InsertBalance(ctx context.Context, b Balance) error {
	_, err := c.tx.Exec(ctx, `
    INSERT INTO leave_balances (tenant_id, user_id, year, annual_entitlement, annual_used, carried_over, sick_used, toil_balance)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, b.TenantID, b.UserID, b.Year, b.AnnualEntitlement, b.AnnualUsed, b.CarriedOver, b.SickUsed, b.ToilBalance)
	return err
}
