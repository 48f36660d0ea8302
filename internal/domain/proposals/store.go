package proposals

import (
	"context"
	"time"

	"practicehub/internal/platform/querier"
)

type StoreAPI interface {
	ListExpirable(ctx context.Context, now time.Time) ([]Proposal, error)
	MarkExpired(ctx context.Context, tenantID, proposalID string) (bool, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListExpirable(ctx context.Context, now time.Time) ([]Proposal, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, tenant_id, title, status, valid_until
    FROM proposals
    WHERE status = ANY($1) AND valid_until IS NOT NULL AND valid_until < $2
    ORDER BY valid_until
  `, ExpirableStatuses, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Proposal
	for rows.Next() {
		var p Proposal
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Title, &p.Status, &p.ValidUntil); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkExpired reports false when the proposal left an expirable status in the
// meantime, e.g. it was signed between listing and update.
func (s *Store) MarkExpired(ctx context.Context, tenantID, proposalID string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE proposals
    SET status = $3, updated_at = now()
    WHERE tenant_id = $1 AND id = $2 AND status = ANY($4)
  `, tenantID, proposalID, StatusExpired, ExpirableStatuses)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
