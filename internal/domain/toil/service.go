package toil

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"practicehub/internal/domain/leave"
)

type Service struct {
	Store   Store
	Tenants TenantLister
	Logger  *zap.Logger
}

func NewService(store Store, tenants TenantLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: store, Tenants: tenants, Logger: logger.Named("toil")}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExpiryDateFor returns the date accrued hours for the given week stop being
// usable.
func ExpiryDateFor(weekEnding time.Time) time.Time {
	return dateOnly(weekEnding).AddDate(0, ExpiryMonths, 0)
}

type userHours struct {
	userID string
	year   int
	hours  decimal.Decimal
}

// aggregateByUser sums hours per user and credited year, keeping first-seen
// order. The credited year is the year of the accrual's week ending, the same
// balance row RecordAccrual added the hours to.
func aggregateByUser(rows []ExpiredAccrual) []userHours {
	type key struct {
		userID string
		year   int
	}
	index := map[key]int{}
	var out []userHours
	for _, row := range rows {
		k := key{userID: row.UserID, year: row.WeekEnding.Year()}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, userHours{userID: row.UserID, year: k.year, hours: row.HoursAccrued})
			continue
		}
		out[i].hours = out[i].hours.Add(row.HoursAccrued)
	}
	return out
}

func distinctUsers(users []userHours) int {
	seen := map[string]struct{}{}
	for _, u := range users {
		seen[u.userID] = struct{}{}
	}
	return len(seen)
}

// ExpireAccruals marks every accrual past its expiry date as expired and takes
// the expired hours off the TOIL balance of the year they were credited to,
// floored at zero. Each tenant is committed on its own; tenants finished before a failure
// stay committed and a rerun skips rows that are already expired.
func (s *Service) ExpireAccruals(ctx context.Context, now time.Time) (ExpirySummary, error) {
	today := dateOnly(now)
	summary := ExpirySummary{Date: today.Format(time.DateOnly), TenantResults: []TenantExpiryResult{}}

	tenants, err := s.Tenants.ListTenants(ctx)
	if err != nil {
		return summary, fmt.Errorf("list tenants: %w", err)
	}

	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var expired []ExpiredAccrual
		affected := 0
		err := s.Store.InTx(ctx, func(tx Tx) error {
			rows, err := tx.ExpireDue(ctx, tenant.ID, today)
			if err != nil {
				return fmt.Errorf("expire accruals: %w", err)
			}
			expired = rows
			users := aggregateByUser(rows)
			affected = distinctUsers(users)
			for _, u := range users {
				if err := tx.DecrementBalance(ctx, tenant.ID, u.userID, u.year, u.hours); err != nil {
					return fmt.Errorf("decrement toil balance for user %s: %w", u.userID, err)
				}
			}
			return nil
		})
		if err != nil {
			s.Logger.Error("toil expiry failed", zap.String("tenantId", tenant.ID), zap.Error(err))
			return summary, fmt.Errorf("tenant %s: %w", tenant.ID, err)
		}

		summary.TotalTenantsProcessed++
		if len(expired) == 0 {
			continue
		}

		summary.TotalExpired += len(expired)
		summary.TotalUsersAffected += affected
		summary.TenantResults = append(summary.TenantResults, TenantExpiryResult{
			TenantID:      tenant.ID,
			TenantName:    tenant.Name,
			ExpiredCount:  len(expired),
			UsersAffected: affected,
		})
		s.Logger.Info("toil accruals expired",
			zap.String("tenantId", tenant.ID),
			zap.Int("expired", len(expired)),
			zap.Int("usersAffected", affected))
	}

	return summary, nil
}

// RecordAccrual stores overtime hours earned in a timesheet week and credits
// them to the user's TOIL balance for the week-ending year.
func (s *Service) RecordAccrual(ctx context.Context, in AccrualInput) (AccrualRecord, error) {
	if !in.HoursAccrued.IsPositive() {
		return AccrualRecord{}, ErrInvalidHours
	}
	if in.WeekEnding.Before(in.WeekStartDate) {
		return AccrualRecord{}, ErrInvalidWeek
	}

	record := AccrualRecord{
		TenantID:      in.TenantID,
		UserID:        in.UserID,
		TimesheetID:   in.TimesheetID,
		WeekStartDate: dateOnly(in.WeekStartDate),
		WeekEnding:    dateOnly(in.WeekEnding),
		HoursAccrued:  in.HoursAccrued,
		ExpiryDate:    ExpiryDateFor(in.WeekEnding),
	}

	err := s.Store.InTx(ctx, func(tx Tx) error {
		id, err := tx.InsertAccrual(ctx, record)
		if err != nil {
			return fmt.Errorf("insert accrual: %w", err)
		}
		record.ID = id
		return tx.IncrementBalance(ctx, in.TenantID, in.UserID, record.WeekEnding.Year(), in.HoursAccrued, leave.DefaultAnnualEntitlement)
	})
	if err != nil {
		return AccrualRecord{}, err
	}
	return record, nil
}
