package account

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/um"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/pgerr"
)

type Writer struct {
	tx bob.Tx
	Reader
}

var _ storage.AccountWriter = (*Writer)(nil)

func NewWriter(tx bob.Tx) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

// FindByIDForUpdate locks the account row until the transaction ends.
func (w *Writer) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return w.findOne(ctx, id, true)
}

func (w *Writer) Insert(ctx context.Context, a *models.Account) error {
	q := psql.Insert(
		im.Into(tableName, columns...),
		im.Values(
			psql.Arg(a.ID),
			psql.Arg(a.Name),
			psql.Arg(a.Currency),
			psql.Arg(a.Balance),
			psql.Arg(a.OpeningBalance),
			psql.Arg(nullID(a.ProjectID)),
			psql.Arg(a.IsLocked),
			psql.Arg(a.CreatedAt),
		),
	)
	_, err := bob.Exec(ctx, w.tx, q)
	return pgerr.Translate(err)
}

func (w *Writer) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return w.update(ctx, id, um.SetCol("balance").ToArg(balance))
}

func (w *Writer) SetLocked(ctx context.Context, id uuid.UUID, locked bool) error {
	return w.update(ctx, id, um.SetCol("is_locked").ToArg(locked))
}

func (w *Writer) update(ctx context.Context, id uuid.UUID, set bob.Mod[*dialect.UpdateQuery]) error {
	q := psql.Update(
		um.Table(tableName),
		set,
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
