package fixedcost

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/models"
)

const tableName = "fixed_costs"

var columns = []string{
	"id", "name", "amount", "currency", "cycle", "status", "account_id",
	"project_id", "category", "last_generated", "created_at",
}

type row struct {
	ID            uuid.UUID       `db:"id"`
	Name          string          `db:"name"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
	Cycle         string          `db:"cycle"`
	Status        string          `db:"status"`
	AccountID     uuid.UUID       `db:"account_id"`
	ProjectID     uuid.NullUUID   `db:"project_id"`
	Category      string          `db:"category"`
	LastGenerated string          `db:"last_generated"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r row) toModel() *models.FixedCost {
	fc := &models.FixedCost{
		ID:            r.ID,
		Name:          r.Name,
		Amount:        r.Amount,
		Currency:      r.Currency,
		Cycle:         models.Cycle(r.Cycle),
		Status:        models.FixedCostStatus(r.Status),
		AccountID:     r.AccountID,
		Category:      r.Category,
		LastGenerated: r.LastGenerated,
		CreatedAt:     r.CreatedAt,
	}
	if r.ProjectID.Valid {
		id := r.ProjectID.UUID
		fc.ProjectID = &id
	}
	return fc
}
