// Package reference stores the ledger's reference collections: funds, master
// categories, users and the activity log.
package reference

import (
	"context"
	"time"

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

var fundColumns = []string{"id", "name", "created_at"}

type fundRow struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (r fundRow) toModel() *models.Fund {
	return &models.Fund{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

type Funds struct {
	exec bob.Executor
}

var _ storage.FundWriter = (*Funds)(nil)

func NewFunds(exec bob.Executor) *Funds {
	return &Funds{exec: exec}
}

func (f *Funds) FindByID(ctx context.Context, id uuid.UUID) (*models.Fund, error) {
	q := psql.Select(
		sm.Columns(fundColumns...),
		sm.From("funds"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.One(ctx, f.exec, q, scan.StructMapper[fundRow]())
	if err != nil {
		return nil, pgerr.Translate(err)
	}
	return res.toModel(), nil
}

func (f *Funds) List(ctx context.Context) ([]*models.Fund, error) {
	q := psql.Select(
		sm.Columns(fundColumns...),
		sm.From("funds"),
		sm.OrderBy("name").Asc(),
		sm.OrderBy("id").Asc(),
	)
	rows, err := bob.All(ctx, f.exec, q, scan.StructMapper[fundRow]())
	if err != nil {
		return nil, err
	}
	out := make([]*models.Fund, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (f *Funds) Insert(ctx context.Context, fund *models.Fund) error {
	q := psql.Insert(
		im.Into("funds", fundColumns...),
		im.Values(psql.Arg(fund.ID), psql.Arg(fund.Name), psql.Arg(fund.CreatedAt)),
	)
	_, err := bob.Exec(ctx, f.exec, q)
	return pgerr.Translate(err)
}
