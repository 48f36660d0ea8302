package toil

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpiryMonths is how long accrued TOIL stays usable.
const ExpiryMonths = 6

type AccrualRecord struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenantId"`
	UserID        string          `json:"userId"`
	TimesheetID   *string         `json:"timesheetId,omitempty"`
	WeekStartDate time.Time       `json:"weekStartDate"`
	WeekEnding    time.Time       `json:"weekEnding"`
	HoursAccrued  decimal.Decimal `json:"hoursAccrued"`
	ExpiryDate    time.Time       `json:"expiryDate"`
	Expired       bool            `json:"expired"`
}

type AccrualInput struct {
	TenantID      string
	UserID        string
	TimesheetID   *string
	WeekStartDate time.Time
	WeekEnding    time.Time
	HoursAccrued  decimal.Decimal
}

// ExpiredAccrual is a row flipped to expired by the expiry job.
type ExpiredAccrual struct {
	ID           string
	UserID       string
	WeekEnding   time.Time
	HoursAccrued decimal.Decimal
}

type TenantExpiryResult struct {
	TenantID      string `json:"tenantId"`
	TenantName    string `json:"tenantName"`
	ExpiredCount  int    `json:"expiredCount"`
	UsersAffected int    `json:"usersAffected"`
}

type ExpirySummary struct {
	Date                  string               `json:"date"`
	TotalTenantsProcessed int                  `json:"totalTenantsProcessed"`
	TotalExpired          int                  `json:"totalExpired"`
	TotalUsersAffected    int                  `json:"totalUsersAffected"`
	TenantResults         []TenantExpiryResult `json:"tenantResults"`
}
