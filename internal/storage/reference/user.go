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

var userColumns = []string{"id", "name", "email", "is_admin", "created_at"}

type userRow struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	IsAdmin   bool      `db:"is_admin"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) toModel() *models.User {
	return &models.User{ID: r.ID, Name: r.Name, Email: r.Email, IsAdmin: r.IsAdmin, CreatedAt: r.CreatedAt}
}

type Users struct {
	exec bob.Executor
}

var _ storage.UserWriter = (*Users)(nil)

func NewUsers(exec bob.Executor) *Users {
	return &Users{exec: exec}
}

func (u *Users) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := psql.Select(
		sm.Columns(userColumns...),
		sm.From("users"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.One(ctx, u.exec, q, scan.StructMapper[userRow]())
	if err != nil {
		return nil, pgerr.Translate(err)
	}
	return res.toModel(), nil
}

func (u *Users) List(ctx context.Context) ([]*models.User, error) {
	q := psql.Select(
		sm.Columns(userColumns...),
		sm.From("users"),
		sm.OrderBy("name").Asc(),
		sm.OrderBy("id").Asc(),
	)
	rows, err := bob.All(ctx, u.exec, q, scan.StructMapper[userRow]())
	if err != nil {
		return nil, err
	}
	out := make([]*models.User, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (u *Users) Insert(ctx context.Context, user *models.User) error {
	q := psql.Insert(
		im.Into("users", userColumns...),
		im.Values(
			psql.Arg(user.ID),
			psql.Arg(user.Name),
			psql.Arg(user.Email),
			psql.Arg(user.IsAdmin),
			psql.Arg(user.CreatedAt),
		),
	)
	_, err := bob.Exec(ctx, u.exec, q)
	return pgerr.Translate(err)
}
