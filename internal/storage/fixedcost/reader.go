package fixedcost

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/pgerr"
)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

func (r *Reader) findOne(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.FixedCost, error) {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	}
	if forUpdate {
		queryMods = append(queryMods, sm.ForUpdate())
	}
	res, err := bob.One(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[row]())
	if err != nil {
		return nil, pgerr.Translate(err)
	}
	return res.toModel(), nil
}

func (r *Reader) FindByID(ctx context.Context, id uuid.UUID) (*models.FixedCost, error) {
	return r.findOne(ctx, id, false)
}

func (r *Reader) List(ctx context.Context, filter *storage.FixedCostFilter) ([]*models.FixedCost, error) {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
		sm.OrderBy("name").Asc(),
		sm.OrderBy("id").Asc(),
	}
	if filter != nil && filter.Status != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote("status").EQ(psql.Arg(string(*filter.Status)))))
	}
	rows, err := bob.All(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[row]())
	if err != nil {
		return nil, err
	}
	result := make([]*models.FixedCost, len(rows))
	for i, res := range rows {
		result[i] = res.toModel()
	}
	return result, nil
}
