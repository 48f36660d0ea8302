package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"practicehub/internal/domain/directory"
)

var (
	// MaxCarryoverDays caps how many unused days roll into the next year.
	MaxCarryoverDays = decimal.NewFromInt(5)
	// DefaultAnnualEntitlement seeds balance rows created without one.
	DefaultAnnualEntitlement = decimal.NewFromInt(25)
)

// CalculateCarryover returns the days of this year's own entitlement that may
// roll into next year: min(max(0, (entitlement - carriedOver) - used), 5).
// The result is not rounded.
func CalculateCarryover(annualEntitlement, annualUsed, carriedOver decimal.Decimal) decimal.Decimal {
	currentYearEntitlement := annualEntitlement.Sub(carriedOver)
	unused := decimal.Max(decimal.Zero, currentYearEntitlement.Sub(annualUsed))
	return decimal.Min(unused, MaxCarryoverDays)
}

func CalculateCarryoverDays(annualEntitlement, annualUsed, carriedOver float64) float64 {
	return CalculateCarryover(
		decimal.NewFromFloat(annualEntitlement),
		decimal.NewFromFloat(annualUsed),
		decimal.NewFromFloat(carriedOver),
	).InexactFloat64()
}

// ApplyCarryover moves the user's eligible unused days from fromYear into
// fromYear+1. It never returns an error; failures are described in the
// result. A non-zero carryover is applied at most once per user and year.
func (s *Service) ApplyCarryover(ctx context.Context, userID, tenantID string, fromYear int) CarryoverResult {
	result := CarryoverResult{UserID: userID}
	log := s.Logger.With(zap.String("tenantId", tenantID), zap.String("userId", userID), zap.Int("fromYear", fromYear))

	balance, err := s.Store.GetBalance(ctx, tenantID, userID, fromYear)
	if errors.Is(err, ErrBalanceNotFound) {
		result.Error = fmt.Sprintf("no leave balance found for year %d", fromYear)
		log.Warn("carryover skipped", zap.Error(err))
		return result
	}
	if err != nil {
		result.Error = err.Error()
		log.Error("carryover balance lookup failed", zap.Error(err))
		return result
	}

	days := CalculateCarryover(balance.AnnualEntitlement, balance.AnnualUsed, balance.CarriedOver)
	if days.IsZero() {
		result.Success = true
		result.CarriedDays = decimal.Zero
		return result
	}

	err = s.Store.InTx(ctx, func(tx CarryoverTx) error {
		recorded, err := tx.RecordCarryover(ctx, tenantID, userID, fromYear, days)
		if err != nil {
			return fmt.Errorf("record carryover: %w", err)
		}
		if !recorded {
			prior, err := tx.RecordedCarryover(ctx, tenantID, userID, fromYear)
			if err != nil {
				return fmt.Errorf("load recorded carryover: %w", err)
			}
			days = prior
			result.AlreadyApplied = true
			return nil
		}

		next, err := tx.LockBalance(ctx, tenantID, userID, fromYear+1)
		if errors.Is(err, ErrBalanceNotFound) {
			return tx.InsertBalance(ctx, Balance{
				TenantID:          tenantID,
				UserID:            userID,
				Year:              fromYear + 1,
				AnnualEntitlement: DefaultAnnualEntitlement.Add(days),
				AnnualUsed:        decimal.Zero,
				CarriedOver:       days,
				SickUsed:          decimal.Zero,
				ToilBalance:       decimal.Zero,
			})
		}
		if err != nil {
			return fmt.Errorf("lock next year balance: %w", err)
		}
		return tx.AddCarryover(ctx, next.ID, days)
	})
	if err != nil {
		result.AlreadyApplied = false
		result.Error = err.Error()
		log.Error("carryover apply failed", zap.Error(err))
		return result
	}

	result.Success = true
	result.CarriedDays = days
	if result.AlreadyApplied {
		log.Info("carryover already applied", zap.String("days", days.String()))
	} else {
		log.Info("carryover applied", zap.String("days", days.String()))
	}
	return result
}

// RunAnnualCarryover applies carryover for every user of the tenant, one at a
// time. Only an unknown tenant or a failure to list users is returned as an
// error.
func (s *Service) RunAnnualCarryover(ctx context.Context, tenantID string, fromYear int) (TenantCarryoverSummary, error) {
	tenant, err := s.Directory.GetTenant(ctx, tenantID)
	if err != nil {
		summary := TenantCarryoverSummary{TenantID: tenantID, FromYear: fromYear, Results: []CarryoverResult{}}
		return summary, fmt.Errorf("tenant %s: %w", tenantID, err)
	}
	return s.runTenantCarryover(ctx, tenant, fromYear)
}

func (s *Service) runTenantCarryover(ctx context.Context, tenant directory.Tenant, fromYear int) (TenantCarryoverSummary, error) {
	summary := TenantCarryoverSummary{TenantID: tenant.ID, TenantName: tenant.Name, FromYear: fromYear, Results: []CarryoverResult{}}

	users, err := s.Directory.ListTenantUsers(ctx, tenant.ID)
	if err != nil {
		return summary, fmt.Errorf("list users for tenant %s: %w", tenant.ID, err)
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result := s.ApplyCarryover(ctx, user.ID, tenant.ID, fromYear)
		if result.Success {
			summary.Processed++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, result)
	}

	summary.Success = true
	s.Logger.Info("tenant carryover finished",
		zap.String("tenantId", tenant.ID),
		zap.Int("fromYear", fromYear),
		zap.Int("processed", summary.Processed),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// RunGlobalCarryover runs the tenant carryover for every tenant. A tenant that
// fails is recorded and the loop moves on.
func (s *Service) RunGlobalCarryover(ctx context.Context, fromYear int) (GlobalCarryoverSummary, error) {
	summary := GlobalCarryoverSummary{FromYear: fromYear, Tenants: []TenantCarryoverSummary{}}

	tenants, err := s.Directory.ListTenants(ctx)
	if err != nil {
		return summary, fmt.Errorf("list tenants: %w", err)
	}

	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		tenantSummary, err := s.runTenantCarryover(ctx, tenant, fromYear)
		if err != nil {
			tenantSummary.Success = false
			tenantSummary.Error = err.Error()
			summary.TenantsFailed++
			s.Logger.Error("tenant carryover failed", zap.String("tenantId", tenant.ID), zap.Error(err))
		} else {
			summary.TenantsProcessed++
		}
		summary.TotalUsersProcessed += tenantSummary.Processed
		summary.TotalUsersFailed += tenantSummary.Failed
		summary.Tenants = append(summary.Tenants, tenantSummary)
	}

	summary.Success = true
	return summary, nil
}
