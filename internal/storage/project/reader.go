package project

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage/pgerr"
)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

func (r *Reader) findOne(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Project, error) {
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

	members, err := r.members(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return res.toModel(members[id]), nil
}

func (r *Reader) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return r.findOne(ctx, id, false)
}

func (r *Reader) List(ctx context.Context) ([]*models.Project, error) {
	q := psql.Select(
		sm.Columns(columns...),
		sm.From(tableName),
		sm.OrderBy("name").Asc(),
		sm.OrderBy("id").Asc(),
	)
	rows, err := bob.All(ctx, r.exec, q, scan.StructMapper[row]())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(rows))
	for i, res := range rows {
		ids[i] = res.ID
	}
	members, err := r.members(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Project, len(rows))
	for i, res := range rows {
		result[i] = res.toModel(members[res.ID])
	}
	return result, nil
}

func (r *Reader) members(ctx context.Context, projectIDs []uuid.UUID) (map[uuid.UUID][]authz.Member, error) {
	ids := make([]any, len(projectIDs))
	for i, id := range projectIDs {
		ids[i] = id
	}
	q := psql.Select(
		sm.Columns(memberColumns...),
		sm.From(membersTableName),
		sm.Where(psql.Quote("project_id").In(psql.Arg(ids...))),
		sm.OrderBy("joined_at").Asc(),
		sm.OrderBy("user_id").Asc(),
	)
	rows, err := bob.All(ctx, r.exec, q, scan.StructMapper[memberRow]())
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]authz.Member, len(projectIDs))
	for _, m := range rows {
		out[m.ProjectID] = append(out[m.ProjectID], m.toMember())
	}
	return out, nil
}
