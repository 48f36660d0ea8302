package proposals

import "time"

const (
	StatusDraft    = "draft"
	StatusSent     = "sent"
	StatusViewed   = "viewed"
	StatusSigned   = "signed"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

// ExpirableStatuses are the states a proposal can time out of.
var ExpirableStatuses = []string{StatusSent, StatusViewed}

type Proposal struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenantId"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

type ExpiryError struct {
	ProposalID string `json:"proposalId"`
	Error      string `json:"error"`
}

type ExpirySummary struct {
	Success        bool          `json:"success"`
	ExpiredCount   int           `json:"expiredCount"`
	ProcessedCount int           `json:"processedCount"`
	Errors         []ExpiryError `json:"errors"`
	Timestamp      time.Time     `json:"timestamp"`
}
