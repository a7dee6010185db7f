package transaction

import (
	"database/sql"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/models"
)

const tableName = "transactions"

var columns = []string{
	"id", "type", "amount", "currency", "category", "parent_category", "description",
	"account_id", "project_id", "fund_id", "status", "created_by", "approved_by",
	"rejected_by", "rejection_reason", "attachments", "transfer_ref", "fixed_cost_id",
	"period", "date", "created_at", "updated_at", "decided_at",
}

type row struct {
	ID              uuid.UUID       `db:"id"`
	Type            string          `db:"type"`
	Amount          decimal.Decimal `db:"amount"`
	Currency        string          `db:"currency"`
	Category        string          `db:"category"`
	ParentCategory  string          `db:"parent_category"`
	Description     string          `db:"description"`
	AccountID       uuid.UUID       `db:"account_id"`
	ProjectID       uuid.NullUUID   `db:"project_id"`
	FundID          uuid.NullUUID   `db:"fund_id"`
	Status          string          `db:"status"`
	CreatedBy       uuid.UUID       `db:"created_by"`
	ApprovedBy      uuid.NullUUID   `db:"approved_by"`
	RejectedBy      uuid.NullUUID   `db:"rejected_by"`
	RejectionReason string          `db:"rejection_reason"`
	Attachments     pq.StringArray  `db:"attachments"`
	TransferRef     string          `db:"transfer_ref"`
	FixedCostID     uuid.NullUUID   `db:"fixed_cost_id"`
	Period          string          `db:"period"`
	Date            time.Time       `db:"date"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	DecidedAt       sql.NullTime    `db:"decided_at"`
}

func fromNull(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}

func toNull(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (r row) toModel() *models.Transaction {
	t := &models.Transaction{
		ID:              r.ID,
		Type:            models.TransactionType(r.Type),
		Amount:          r.Amount,
		Currency:        r.Currency,
		Category:        r.Category,
		ParentCategory:  r.ParentCategory,
		Description:     r.Description,
		AccountID:       r.AccountID,
		ProjectID:       fromNull(r.ProjectID),
		FundID:          fromNull(r.FundID),
		Status:          models.TransactionStatus(r.Status),
		CreatedBy:       r.CreatedBy,
		ApprovedBy:      fromNull(r.ApprovedBy),
		RejectedBy:      fromNull(r.RejectedBy),
		RejectionReason: r.RejectionReason,
		TransferRef:     r.TransferRef,
		FixedCostID:     fromNull(r.FixedCostID),
		Period:          r.Period,
		Date:            r.Date,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if len(r.Attachments) > 0 {
		t.Attachments = []string(r.Attachments)
	}
	if r.DecidedAt.Valid {
		d := r.DecidedAt.Time
		t.DecidedAt = &d
	}
	return t
}

// values returns the column values of t in the order of columns.
func values(t *models.Transaction) []any {
	var decided sql.NullTime
	if t.DecidedAt != nil {
		decided = sql.NullTime{Time: *t.DecidedAt, Valid: true}
	}
	attachments := pq.StringArray(t.Attachments)
	if attachments == nil {
		attachments = pq.StringArray{}
	}
	return []any{
		t.ID, string(t.Type), t.Amount, t.Currency, t.Category, t.ParentCategory, t.Description,
		t.AccountID, toNull(t.ProjectID), toNull(t.FundID), string(t.Status), t.CreatedBy, toNull(t.ApprovedBy),
		toNull(t.RejectedBy), t.RejectionReason, attachments, t.TransferRef, toNull(t.FixedCostID),
		t.Period, t.Date, t.CreatedAt, t.UpdatedAt, decided,
	}
}
