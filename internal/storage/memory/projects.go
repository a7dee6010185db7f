package memory

import (
	"context"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

type projects struct {
	with access
}

func (p *projects) FindByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	var out *models.Project
	err := p.with(func(st *state) error {
		row, ok := st.projects[id]
		if !ok {
			return storage.ErrNotFound
		}
		c := row.Clone()
		out = &c
		return nil
	})
	return out, err
}

func (p *projects) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return p.FindByID(ctx, id)
}

func (p *projects) List(_ context.Context) ([]*models.Project, error) {
	var out []*models.Project
	err := p.with(func(st *state) error {
		for _, row := range st.projects {
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
	return out, err
}

func (p *projects) Insert(_ context.Context, project *models.Project) error {
	return p.with(func(st *state) error {
		if _, ok := st.projects[project.ID]; ok {
			return storage.ErrConflict
		}
		st.projects[project.ID] = project.Clone()
		return nil
	})
}

func (p *projects) UpdateStatus(_ context.Context, id uuid.UUID, status models.ProjectStatus) error {
	return p.with(func(st *state) error {
		row, ok := st.projects[id]
		if !ok {
			return storage.ErrNotFound
		}
		row.Status = status
		st.projects[id] = row
		return nil
	})
}

// SaveMember inserts or replaces the membership of member.UserID.
func (p *projects) SaveMember(_ context.Context, projectID uuid.UUID, member authz.Member) error {
	return p.with(func(st *state) error {
		row, ok := st.projects[projectID]
		if !ok {
			return storage.ErrNotFound
		}
		row = row.Clone()
		replaced := false
		for i := range row.Members {
			if row.Members[i].UserID == member.UserID {
				row.Members[i] = member
				replaced = true
				break
			}
		}
		if !replaced {
			row.Members = append(row.Members, member)
		}
		st.projects[projectID] = row
		return nil
	})
}

func (p *projects) DeleteMember(_ context.Context, projectID, userID uuid.UUID) error {
	return p.with(func(st *state) error {
		row, ok := st.projects[projectID]
		if !ok {
			return storage.ErrNotFound
		}
		kept := make([]authz.Member, 0, len(row.Members))
		for _, m := range row.Members {
			if m.UserID != userID {
				kept = append(kept, m)
			}
		}
		if len(kept) == len(row.Members) {
			return storage.ErrNotFound
		}
		row.Members = kept
		st.projects[projectID] = row
		return nil
	})
}

type fixedCosts struct {
	with access
}

func (f *fixedCosts) FindByID(_ context.Context, id uuid.UUID) (*models.FixedCost, error) {
	var out *models.FixedCost
	err := f.with(func(st *state) error {
		row, ok := st.fixedCosts[id]
		if !ok {
			return storage.ErrNotFound
		}
		c := row.Clone()
		out = &c
		return nil
	})
	return out, err
}

func (f *fixedCosts) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.FixedCost, error) {
	return f.FindByID(ctx, id)
}

func (f *fixedCosts) List(_ context.Context, filter *storage.FixedCostFilter) ([]*models.FixedCost, error) {
	var out []*models.FixedCost
	err := f.with(func(st *state) error {
		for _, row := range st.fixedCosts {
			if filter != nil && filter.Status != nil && row.Status != *filter.Status {
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
	return out, err
}

func (f *fixedCosts) Insert(_ context.Context, fc *models.FixedCost) error {
	return f.with(func(st *state) error {
		if _, ok := st.fixedCosts[fc.ID]; ok {
			return storage.ErrConflict
		}
		st.fixedCosts[fc.ID] = fc.Clone()
		return nil
	})
}

func (f *fixedCosts) UpdateStatus(_ context.Context, id uuid.UUID, status models.FixedCostStatus) error {
	return f.with(func(st *state) error {
		row, ok := st.fixedCosts[id]
		if !ok {
			return storage.ErrNotFound
		}
		row.Status = status
		st.fixedCosts[id] = row
		return nil
	})
}

func (f *fixedCosts) UpdateLastGenerated(_ context.Context, id uuid.UUID, period string) error {
	return f.with(func(st *state) error {
		row, ok := st.fixedCosts[id]
		if !ok {
			return storage.ErrNotFound
		}
		row.LastGenerated = period
		st.fixedCosts[id] = row
		return nil
	})
}
