package toil

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"practicehub/internal/platform/querier"
)

type PGStore struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return querier.WithTx(ctx, s.DB, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

func (p *pgTx) ExpireDue(ctx context.Context, tenantID string, today time.Time) ([]ExpiredAccrual, error) {
	rows, err := p.tx.Query(ctx, `
    UPDATE toil_accrual_history
    SET expired = true
    WHERE tenant_id = $1 AND expired = false AND expiry_date <= $2
    RETURNING id, user_id, week_ending, hours_accrued
  `, tenantID, today)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExpiredAccrual
	for rows.Next() {
		var e ExpiredAccrual
		if err := rows.Scan(&e.ID, &e.UserID, &e.WeekEnding, &e.HoursAccrued); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *pgTx) DecrementBalance(ctx context.Context, tenantID, userID string, year int, hours decimal.Decimal) error {
	_, err := p.tx.Exec(ctx, `
    UPDATE leave_balances
    SET toil_balance = GREATEST(0, toil_balance - $4), updated_at = now()
    WHERE tenant_id = $1 AND user_id = $2 AND year = $3
  `, tenantID, userID, year, hours)
	return err
}

func (p *pgTx) InsertAccrual(ctx context.Context, r AccrualRecord) (string, error) {
	var id string
	err := p.tx.QueryRow(ctx, `
    INSERT INTO toil_accrual_history (tenant_id, user_id, timesheet_id, week_start_date, week_ending, hours_accrued, expiry_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, r.TenantID, r.UserID, r.TimesheetID, r.WeekStartDate, r.WeekEnding, r.HoursAccrued, r.ExpiryDate).Scan(&id)
	return id, err
}

func (p *pgTx) IncrementBalance(ctx context.Context, tenantID, userID string, year int, hours, defaultEntitlement decimal.Decimal) error {
	_, err := p.tx.Exec(ctx, `
    INSERT INTO leave_balances (tenant_id, user_id, year, annual_entitlement, toil_balance)
    VALUES ($1,$2,$3,$5,$4)
    ON CONFLICT (tenant_id, user_id, year)
    DO UPDATE SET toil_balance = leave_balances.toil_balance + EXCLUDED.toil_balance, updated_at = now()
  `, tenantID, userID, year, hours, defaultEntitlement)
	return err
}
