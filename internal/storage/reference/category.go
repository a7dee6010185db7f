package reference

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/pgerr"
)

var categoryColumns = []string{"id", "name", "parent"}

type categoryRow struct {
	ID     uuid.UUID `db:"id"`
	Name   string    `db:"name"`
	Parent string    `db:"parent"`
}

func (r categoryRow) toModel() *models.MasterCategory {
	return &models.MasterCategory{ID: r.ID, Name: r.Name, Parent: r.Parent}
}

type Categories struct {
	exec bob.Executor
}

var _ storage.CategoryWriter = (*Categories)(nil)

func NewCategories(exec bob.Executor) *Categories {
	return &Categories{exec: exec}
}

// FindByName matches names case-insensitively.
func (c *Categories) FindByName(ctx context.Context, name string) (*models.MasterCategory, error) {
	q := psql.Select(
		sm.Columns(categoryColumns...),
		sm.From("master_categories"),
		sm.Where(psql.Raw("lower(name) = ?", strings.ToLower(strings.TrimSpace(name)))),
	)
	res, err := bob.One(ctx, c.exec, q, scan.StructMapper[categoryRow]())
	if err != nil {
		return nil, pgerr.Translate(err)
	}
	return res.toModel(), nil
}

func (c *Categories) List(ctx context.Context) ([]*models.MasterCategory, error) {
	q := psql.Select(
		sm.Columns(categoryColumns...),
		sm.From("master_categories"),
		sm.OrderBy("name").Asc(),
	)
	rows, err := bob.All(ctx, c.exec, q, scan.StructMapper[categoryRow]())
	if err != nil {
		return nil, err
	}
	out := make([]*models.MasterCategory, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (c *Categories) Insert(ctx context.Context, category *models.MasterCategory) error {
	q := psql.Insert(
		im.Into("master_categories", categoryColumns...),
		im.Values(psql.Arg(category.ID), psql.Arg(category.Name), psql.Arg(category.Parent)),
	)
	_, err := bob.Exec(ctx, c.exec, q)
	return pgerr.Translate(err)
}
