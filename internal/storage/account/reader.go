package account

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

func (r *Reader) findOne(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Account, error) {
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

func (r *Reader) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.findOne(ctx, id, false)
}

func (r *Reader) List(ctx context.Context, filter *storage.AccountFilter) ([]*models.Account, error) {
	if filter == nil {
		filter = &storage.AccountFilter{AllProjects: true}
	}

	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
		sm.OrderBy("name").Asc(),
		sm.OrderBy("id").Asc(),
	}
	if !filter.AllProjects {
		if len(filter.ProjectIDs) == 0 {
			return nil, nil
		}
		queryMods = append(queryMods, sm.Where(psql.Quote("project_id").In(psql.Arg(idArgs(filter.ProjectIDs)...))))
	}
	if filter.Limit > 0 {
		queryMods = append(queryMods, sm.Limit(filter.Limit))
	}
	if filter.Offset > 0 {
		queryMods = append(queryMods, sm.Offset(filter.Offset))
	}

	rows, err := bob.All(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[row]())
	if err != nil {
		return nil, err
	}
	result := make([]*models.Account, len(rows))
	for i, res := range rows {
		result[i] = res.toModel()
	}
	return result, nil
}

func idArgs(ids []uuid.UUID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
