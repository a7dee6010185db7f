package transaction

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

func (r *Reader) one(ctx context.Context, where []bob.Mod[*dialect.SelectQuery]) (*models.Transaction, error) {
	queryMods := append([]bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
	}, where...)
	res, err := bob.One(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[row]())
	if err != nil {
		return nil, pgerr.Translate(err)
	}
	return res.toModel(), nil
}

func (r *Reader) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return r.one(ctx, []bob.Mod[*dialect.SelectQuery]{
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	})
}

// List returns transactions matching the filter, newest first.
func (r *Reader) List(ctx context.Context, filter *storage.TransactionFilter) ([]*models.Transaction, error) {
	if filter == nil {
		filter = &storage.TransactionFilter{AllProjects: true}
	}

	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
	}
	if filter.AccountID != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote("account_id").EQ(psql.Arg(*filter.AccountID))))
	}
	if !filter.AllProjects {
		if len(filter.ProjectIDs) == 0 {
			return nil, nil
		}
		ids := make([]any, len(filter.ProjectIDs))
		for i, id := range filter.ProjectIDs {
			ids[i] = id
		}
		queryMods = append(queryMods, sm.Where(psql.Quote("project_id").In(psql.Arg(ids...))))
	}
	if filter.Status != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote("status").EQ(psql.Arg(string(*filter.Status)))))
	}
	if filter.Type != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote("type").EQ(psql.Arg(string(*filter.Type)))))
	}
	if filter.From != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote("date").GTE(psql.Arg(*filter.From))))
	}
	if filter.To != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote("date").LT(psql.Arg(*filter.To))))
	}
	queryMods = append(queryMods,
		sm.OrderBy("date").Desc(),
		sm.OrderBy("created_at").Desc(),
		sm.OrderBy("id").Asc(),
	)
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
	result := make([]*models.Transaction, len(rows))
	for i, res := range rows {
		result[i] = res.toModel()
	}
	return result, nil
}
