package memory

import (
	"context"
	"sort"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

type accounts struct {
	with access
}

func (a *accounts) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	var out *models.Account
	err := a.with(func(st *state) error {
		row, ok := st.accounts[id]
		if !ok {
			return storage.ErrNotFound
		}
		c := row.Clone()
		out = &c
		return nil
	})
	return out, err
}

// FindByIDForUpdate needs no extra locking: the unit of work already holds
// the store exclusively.
func (a *accounts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return a.FindByID(ctx, id)
}

func (a *accounts) List(_ context.Context, filter *storage.AccountFilter) ([]*models.Account, error) {
	if filter == nil {
		filter = &storage.AccountFilter{AllProjects: true}
	}
	var out []*models.Account
	err := a.with(func(st *state) error {
		for _, row := range st.accounts {
			if !filter.AllProjects && !containsID(filter.ProjectIDs, row.ProjectID) {
				continue
			}
			c := row.Clone()
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return paginate(out, filter.Limit, filter.Offset), err
}

func (a *accounts) Insert(_ context.Context, account *models.Account) error {
	return a.with(func(st *state) error {
		if _, ok := st.accounts[account.ID]; ok {
			return storage.ErrConflict
		}
		st.accounts[account.ID] = account.Clone()
		return nil
	})
}

func (a *accounts) UpdateBalance(_ context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return a.with(func(st *state) error {
		row, ok := st.accounts[id]
		if !ok {
			return storage.ErrNotFound
		}
		row.Balance = balance
		st.accounts[id] = row
		return nil
	})
}

func (a *accounts) SetLocked(_ context.Context, id uuid.UUID, locked bool) error {
	return a.with(func(st *state) error {
		row, ok := st.accounts[id]
		if !ok {
			return storage.ErrNotFound
		}
		row.IsLocked = locked
		st.accounts[id] = row
		return nil
	})
}

type transactions struct {
	with access
}

func (t *transactions) FindByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	var out *models.Transaction
	err := t.with(func(st *state) error {
		row, ok := st.transactions[id]
		if !ok {
			return storage.ErrNotFound
		}
		c := row.Clone()
		out = &c
		return nil
	})
	return out, err
}

func (t *transactions) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return t.FindByID(ctx, id)
}

func (t *transactions) FindByFixedCostPeriod(ctx context.Context, fixedCostID uuid.UUID, period string) (*models.Transaction, error) {
	var id uuid.UUID
	err := t.with(func(st *state) error {
		found, ok := st.periods[periodKey{fixedCostID: fixedCostID, period: period}]
		if !ok {
			return storage.ErrNotFound
		}
		id = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.FindByID(ctx, id)
}

func matchesTransaction(row *models.Transaction, filter *storage.TransactionFilter) bool {
	if filter.AccountID != nil && row.AccountID != *filter.AccountID {
		return false
	}
	if !filter.AllProjects && !containsID(filter.ProjectIDs, row.ProjectID) {
		return false
	}
	if filter.Status != nil && row.Status != *filter.Status {
		return false
	}
	if filter.Type != nil && row.Type != *filter.Type {
		return false
	}
	if filter.From != nil && row.Date.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !row.Date.Before(*filter.To) {
		return false
	}
	return true
}

// List orders by date, newest first.
func (t *transactions) List(_ context.Context, filter *storage.TransactionFilter) ([]*models.Transaction, error) {
	if filter == nil {
		filter = &storage.TransactionFilter{AllProjects: true}
	}
	var out []*models.Transaction
	err := t.with(func(st *state) error {
		for _, row := range st.transactions {
			if !matchesTransaction(&row, filter) {
				continue
			}
			c := row.Clone()
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return paginate(out, filter.Limit, filter.Offset), err
}

func (t *transactions) Insert(_ context.Context, tx *models.Transaction) error {
	return t.with(func(st *state) error {
		if _, ok := st.transactions[tx.ID]; ok {
			return storage.ErrConflict
		}
		if tx.FixedCostID != nil {
			key := periodKey{fixedCostID: *tx.FixedCostID, period: tx.Period}
			if _, ok := st.periods[key]; ok {
				return storage.ErrConflict
			}
			st.periods[key] = tx.ID
		}
		st.transactions[tx.ID] = tx.Clone()
		return nil
	})
}

func (t *transactions) Update(_ context.Context, tx *models.Transaction) error {
	return t.with(func(st *state) error {
		if _, ok := st.transactions[tx.ID]; !ok {
			return storage.ErrNotFound
		}
		st.transactions[tx.ID] = tx.Clone()
		return nil
	})
}
