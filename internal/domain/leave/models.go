package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is one user's leave position for one calendar year. Day amounts are
// exact decimals so pro-rated entitlements such as 12.5 survive round trips.
type Balance struct {
	ID                string          `json:"id"`
	TenantID          string          `json:"tenantId"`
	UserID            string          `json:"userId"`
	Year              int             `json:"year"`
	AnnualEntitlement decimal.Decimal `json:"annualEntitlement"`
	AnnualUsed        decimal.Decimal `json:"annualUsed"`
	CarriedOver       decimal.Decimal `json:"carriedOver"`
	SickUsed          decimal.Decimal `json:"sickUsed"`
	ToilBalance       decimal.Decimal `json:"toilBalance"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// OwnEntitlement is the slice of the entitlement earned in Year itself.
func (b Balance) OwnEntitlement() decimal.Decimal {
	return b.AnnualEntitlement.Sub(b.CarriedOver)
}

func (b Balance) AnnualRemaining() decimal.Decimal {
	return b.AnnualEntitlement.Sub(b.AnnualUsed)
}

// CarryoverResult is the outcome of applying carryover for one user. Failures
// are reported here instead of being returned as errors so a batch can keep
// going.
type CarryoverResult struct {
	UserID         string          `json:"userId"`
	Success        bool            `json:"success"`
	CarriedDays    decimal.Decimal `json:"carriedDays"`
	AlreadyApplied bool            `json:"alreadyApplied,omitempty"`
	Error          string          `json:"error,omitempty"`
}

type TenantCarryoverSummary struct {
	TenantID   string            `json:"tenantId"`
	TenantName string            `json:"tenantName,omitempty"`
	FromYear   int               `json:"fromYear"`
	Success    bool              `json:"success"`
	Processed  int               `json:"processed"`
	Failed     int               `json:"failed"`
	Results    []CarryoverResult `json:"results"`
	Error      string            `json:"error,omitempty"`
}

type GlobalCarryoverSummary struct {
	Success             bool                     `json:"success"`
	FromYear            int                      `json:"fromYear"`
	TenantsProcessed    int                      `json:"tenantsProcessed"`
	TenantsFailed       int                      `json:"tenantsFailed"`
	TotalUsersProcessed int                      `json:"totalUsersProcessed"`
	TotalUsersFailed    int                      `json:"totalUsersFailed"`
	Tenants             []TenantCarryoverSummary `json:"tenants"`
}
