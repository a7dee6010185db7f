package account

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/models"
)

const tableName = "accounts"

var columns = []string{
	"id", "name", "currency", "balance", "opening_balance", "project_id", "is_locked", "created_at",
}

// row is the accounts table as scanned by bob.
type row struct {
	ID             uuid.UUID       `db:"id"`
	Name           string          `db:"name"`
	Currency       string          `db:"currency"`
	Balance        decimal.Decimal `db:"balance"`
	OpeningBalance decimal.Decimal `db:"opening_balance"`
	ProjectID      uuid.NullUUID   `db:"project_id"`
	IsLocked       bool            `db:"is_locked"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (r row) toModel() *models.Account {
	a := &models.Account{
		ID:             r.ID,
		Name:           r.Name,
		Currency:       r.Currency,
		Balance:        r.Balance,
		OpeningBalance: r.OpeningBalance,
		IsLocked:       r.IsLocked,
		CreatedAt:      r.CreatedAt,
	}
	if r.ProjectID.Valid {
		id := r.ProjectID.UUID
		a.ProjectID = &id
	}
	return a
}

func nullID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
