package leave

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"practicehub/internal/domain/directory"
)

type balanceKey struct {
	tenantID string
	userID   string
	year     int
}

// memStore is an in-memory BalanceStore. InTx works on a copy and only
// publishes it when fn succeeds.
type memStore struct {
	balances   map[balanceKey]Balance
	carryovers map[balanceKey]decimal.Decimal
	writes     int
	failOn     map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		balances:   map[balanceKey]Balance{},
		carryovers: map[balanceKey]decimal.Decimal{},
		failOn:     map[string]error{},
	}
}

func (m *memStore) put(b Balance) Balance {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	m.balances[balanceKey{b.TenantID, b.UserID, b.Year}] = b
	return b
}

func (m *memStore) balance(tenantID, userID string, year int) (Balance, bool) {
	b, ok := m.balances[balanceKey{tenantID, userID, year}]
	return b, ok
}

func (m *memStore) GetBalance(_ context.Context, tenantID, userID string, year int) (Balance, error) {
	if err := m.failOn["GetBalance:"+userID]; err != nil {
		return Balance{}, err
	}
	b, ok := m.balance(tenantID, userID, year)
	if !ok {
		return Balance{}, ErrBalanceNotFound
	}
	return b, nil
}

func (m *memStore) EnsureBalance(_ context.Context, tenantID, userID string, year int, entitlement decimal.Decimal) (Balance, error) {
	if b, ok := m.balance(tenantID, userID, year); ok {
		return b, nil
	}
	m.writes++
	return m.put(Balance{TenantID: tenantID, UserID: userID, Year: year, AnnualEntitlement: entitlement}), nil
}

func (m *memStore) InTx(ctx context.Context, fn func(tx CarryoverTx) error) error {
	tx := &memTx{
		parent:     m,
		balances:   maps.Clone(m.balances),
		carryovers: maps.Clone(m.carryovers),
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.balances = tx.balances
	m.carryovers = tx.carryovers
	m.writes += tx.writes
	return nil
}

type memTx struct {
	parent     *memStore
	balances   map[balanceKey]Balance
	carryovers map[balanceKey]decimal.Decimal
	writes     int
}

func (t *memTx) RecordCarryover(_ context.Context, tenantID, userID string, fromYear int, days decimal.Decimal) (bool, error) {
	key := balanceKey{tenantID, userID, fromYear}
	if _, ok := t.carryovers[key]; ok {
		return false, nil
	}
	t.carryovers[key] = days
	t.writes++
	return true, nil
}

func (t *memTx) RecordedCarryover(_ context.Context, tenantID, userID string, fromYear int) (decimal.Decimal, error) {
	days, ok := t.carryovers[balanceKey{tenantID, userID, fromYear}]
	if !ok {
		return decimal.Zero, errors.New("no carryover recorded")
	}
	return days, nil
}

func (t *memTx) LockBalance(_ context.Context, tenantID, userID string, year int) (Balance, error) {
	b, ok := t.balances[balanceKey{tenantID, userID, year}]
	if !ok {
		return Balance{}, ErrBalanceNotFound
	}
	return b, nil
}

func (t *memTx) AddCarryover(_ context.Context, balanceID string, days decimal.Decimal) error {
	if err := t.parent.failOn["AddCarryover"]; err != nil {
		return err
	}
	for key, b := range t.balances {
		if b.ID == balanceID {
			b.CarriedOver = days
			b.AnnualEntitlement = b.AnnualEntitlement.Add(days)
			t.balances[key] = b
			t.writes++
			return nil
		}
	}
	return fmt.Errorf("balance %s not found", balanceID)
}

func (t *memTx) InsertBalance(_ context.Context, b Balance) error {
	key := balanceKey{b.TenantID, b.UserID, b.Year}
	if _, ok := t.balances[key]; ok {
		return errors.New("duplicate balance")
	}
	b.ID = uuid.NewString()
	t.balances[key] = b
	t.writes++
	return nil
}

type memDirectory struct {
	tenants     []directory.Tenant
	users       map[string][]directory.User
	failTenants error
	failUsers   map[string]error
}

func (d *memDirectory) ListTenants(context.Context) ([]directory.Tenant, error) {
	if d.failTenants != nil {
		return nil, d.failTenants
	}
	return d.tenants, nil
}

func (d *memDirectory) GetTenant(_ context.Context, tenantID string) (directory.Tenant, error) {
	for _, t := range d.tenants {
		if t.ID == tenantID {
			return t, nil
		}
	}
	return directory.Tenant{}, directory.ErrTenantNotFound
}

func (d *memDirectory) ListTenantUsers(_ context.Context, tenantID string) ([]directory.User, error) {
	if err := d.failUsers[tenantID]; err != nil {
		return nil, err
	}
	return d.users[tenantID], nil
}
