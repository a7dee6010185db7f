package transaction

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/pgerr"
)

type Writer struct {
	tx bob.Tx
	Reader
}

var _ storage.TransactionWriter = (*Writer)(nil)

func NewWriter(tx bob.Tx) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

// FindByIDForUpdate locks the transaction row so concurrent approve and
// reject calls observe each other's status change.
func (w *Writer) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return w.one(ctx, []bob.Mod[*dialect.SelectQuery]{
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
		sm.ForUpdate(),
	})
}

func (w *Writer) FindByFixedCostPeriod(ctx context.Context, fixedCostID uuid.UUID, period string) (*models.Transaction, error) {
	return w.one(ctx, []bob.Mod[*dialect.SelectQuery]{
		sm.Where(psql.Quote("fixed_cost_id").EQ(psql.Arg(fixedCostID))),
		sm.Where(psql.Quote("period").EQ(psql.Arg(period))),
	})
}

func (w *Writer) Insert(ctx context.Context, t *models.Transaction) error {
	vals := values(t)
	args := make([]bob.Expression, len(vals))
	for i, v := range vals {
		args[i] = psql.Arg(v)
	}
	q := psql.Insert(
		im.Into(tableName, columns...),
		im.Values(args...),
	)
	_, err := bob.Exec(ctx, w.tx, q)
	return pgerr.Translate(err)
}

// Update rewrites every mutable column of t.
func (w *Writer) Update(ctx context.Context, t *models.Transaction) error {
	vals := values(t)
	updateMods := []bob.Mod[*dialect.UpdateQuery]{um.Table(tableName)}
	for i, col := range columns {
		if col == "id" || col == "created_at" {
			continue
		}
		updateMods = append(updateMods, um.SetCol(col).ToArg(vals[i]))
	}
	updateMods = append(updateMods, um.Where(psql.Quote("id").EQ(psql.Arg(t.ID))))

	res, err := bob.Exec(ctx, w.tx, psql.Update(updateMods...))
	if err != nil {
		return pgerr.Translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
