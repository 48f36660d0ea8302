package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"practicehub/internal/platform/querier"
)

var ErrTenantNotFound = errors.New("tenant not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name FROM tenants`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *Store) GetTenant(ctx context.Context, tenantID string) (Tenant, error) {
	var t Tenant
	err := s.DB.QueryRow(ctx, `SELECT id, name FROM tenants WHERE id = $1`, tenantID).Scan(&t.ID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrTenantNotFound
	}
	return t, err
}

// ListTenantUsers returns every user of the tenant regardless of status;
// balances are kept for leavers too.
func (s *Store) ListTenantUsers(ctx context.Context, tenantID string) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, tenant_id, email, name, role, status
    FROM users
    WHERE tenant_id = $1
  `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.Role, &u.Status); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
