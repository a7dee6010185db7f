package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

type funds struct {
	with access
}

func (f *funds) FindByID(_ context.Context, id uuid.UUID) (*models.Fund, error) {
	var out *models.Fund
	err := f.with(func(st *state) error {
		row, ok := st.funds[id]
		if !ok {
			return storage.ErrNotFound
		}
		out = &row
		return nil
	})
	return out, err
}

func (f *funds) List(_ context.Context) ([]*models.Fund, error) {
	var out []*models.Fund
	err := f.with(func(st *state) error {
		for _, row := range st.funds {
			row := row
			out = append(out, &row)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (f *funds) Insert(_ context.Context, fund *models.Fund) error {
	return f.with(func(st *state) error {
		if _, ok := st.funds[fund.ID]; ok {
			return storage.ErrConflict
		}
		st.funds[fund.ID] = *fund
		return nil
	})
}

type categories struct {
	with access
}

func categoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *categories) FindByName(_ context.Context, name string) (*models.MasterCategory, error) {
	var out *models.MasterCategory
	err := c.with(func(st *state) error {
		row, ok := st.categories[categoryKey(name)]
		if !ok {
			return storage.ErrNotFound
		}
		out = &row
		return nil
	})
	return out, err
}

func (c *categories) List(_ context.Context) ([]*models.MasterCategory, error) {
	var out []*models.MasterCategory
	err := c.with(func(st *state) error {
		for _, row := range st.categories {
			row := row
			out = append(out, &row)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (c *categories) Insert(_ context.Context, category *models.MasterCategory) error {
	return c.with(func(st *state) error {
		key := categoryKey(category.Name)
		if _, ok := st.categories[key]; ok {
			return storage.ErrConflict
		}
		st.categories[key] = *category
		return nil
	})
}

type users struct {
	with access
}

func (u *users) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := u.with(func(st *state) error {
		row, ok := st.users[id]
		if !ok {
			return storage.ErrNotFound
		}
		out = &row
		return nil
	})
	return out, err
}

func (u *users) List(_ context.Context) ([]*models.User, error) {
	var out []*models.User
	err := u.with(func(st *state) error {
		for _, row := range st.users {
			row := row
			out = append(out, &row)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (u *users) Insert(_ context.Context, user *models.User) error {
	return u.with(func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return storage.ErrConflict
		}
		st.users[user.ID] = *user
		return nil
	})
}

type activity struct {
	with access
}

// List returns the newest entries first.
func (a *activity) List(_ context.Context, filter *storage.ActivityFilter) ([]*models.ActivityLog, error) {
	var out []*models.ActivityLog
	err := a.with(func(st *state) error {
		for i := len(st.activity) - 1; i >= 0; i-- {
			row := st.activity[i]
			if filter != nil && filter.EntityID != nil && row.EntityID != *filter.EntityID {
				continue
			}
			out = append(out, &row)
			if filter != nil && filter.Limit > 0 && len(out) == filter.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (a *activity) Insert(_ context.Context, entry *models.ActivityLog) error {
	return a.with(func(st *state) error {
		row := *entry
		if entry.Details != nil {
			row.Details = make(map[string]string, len(entry.Details))
			for k, v := range entry.Details {
				row.Details[k] = v
			}
		}
		st.activity = append(st.activity, row)
		return nil
	})
}
