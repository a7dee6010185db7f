package project

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/lib/pq"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/um"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/pgerr"
)

type Writer struct {
	tx bob.Tx
	Reader
}

var _ storage.ProjectWriter = (*Writer)(nil)

func NewWriter(tx bob.Tx) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

// FindByIDForUpdate locks the project row, which serializes membership edits.
func (w *Writer) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return w.findOne(ctx, id, true)
}

func (w *Writer) Insert(ctx context.Context, p *models.Project) error {
	q := psql.Insert(
		im.Into(tableName, columns...),
		im.Values(
			psql.Arg(p.ID),
			psql.Arg(p.Name),
			psql.Arg(string(p.Status)),
			psql.Arg(p.Budget),
			psql.Arg(p.Currency),
			psql.Arg(p.CreatedAt),
		),
	)
	if _, err := bob.Exec(ctx, w.tx, q); err != nil {
		return pgerr.Translate(err)
	}
	for _, m := range p.Members {
		if err := w.SaveMember(ctx, p.ID, m); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProjectStatus) error {
	q := psql.Update(
		um.Table(tableName),
		um.SetCol("status").ToArg(string(status)),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, w.tx, q)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SaveMember upserts the membership keyed by (project, user).
func (w *Writer) SaveMember(ctx context.Context, projectID uuid.UUID, m authz.Member) error {
	q := psql.Insert(
		im.Into(membersTableName, memberColumns...),
		im.Values(
			psql.Arg(projectID),
			psql.Arg(m.UserID),
			psql.Arg(string(m.Role)),
			psql.Arg(pq.StringArray(m.Permissions.Strings())),
			psql.Arg(m.JoinedAt),
		),
		im.OnConflict("project_id", "user_id").DoUpdate(
			im.SetExcluded("role", "permissions"),
		),
	)
	_, err := bob.Exec(ctx, w.tx, q)
	return pgerr.Translate(err)
}

func (w *Writer) DeleteMember(ctx context.Context, projectID, userID uuid.UUID) error {
	q := psql.Delete(
		dm.From(membersTableName),
		dm.Where(psql.Quote("project_id").EQ(psql.Arg(projectID))),
		dm.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
	)
	res, err := bob.Exec(ctx, w.tx, q)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
