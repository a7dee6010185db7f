package fixedcost

import (
	"context"

	"github.com/gofrs/uuid/v5"
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

var _ storage.FixedCostWriter = (*Writer)(nil)

func NewWriter(tx bob.Tx) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

// FindByIDForUpdate locks the fixed cost so two generator runs for the same
// period are serialized.
func (w *Writer) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.FixedCost, error) {
	return w.findOne(ctx, id, true)
}

func (w *Writer) Insert(ctx context.Context, fc *models.FixedCost) error {
	projectID := uuid.NullUUID{}
	if fc.ProjectID != nil {
		projectID = uuid.NullUUID{UUID: *fc.ProjectID, Valid: true}
	}
	q := psql.Insert(
		im.Into(tableName, columns...),
		im.Values(
			psql.Arg(fc.ID),
			psql.Arg(fc.Name),
			psql.Arg(fc.Amount),
			psql.Arg(fc.Currency),
			psql.Arg(string(fc.Cycle)),
			psql.Arg(string(fc.Status)),
			psql.Arg(fc.AccountID),
			psql.Arg(projectID),
			psql.Arg(fc.Category),
			psql.Arg(fc.LastGenerated),
			psql.Arg(fc.CreatedAt),
		),
	)
	_, err := bob.Exec(ctx, w.tx, q)
	return pgerr.Translate(err)
}

func (w *Writer) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FixedCostStatus) error {
	return w.update(ctx, id, um.SetCol("status").ToArg(string(status)))
}

func (w *Writer) UpdateLastGenerated(ctx context.Context, id uuid.UUID, period string) error {
	return w.update(ctx, id, um.SetCol("last_generated").ToArg(period))
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
