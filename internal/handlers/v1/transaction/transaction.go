package transaction

import (
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// Transaction is the API response model for a transaction.
// It is used only for responses, not for request bodies.
type Transaction struct {
	ID              string   `json:"id" doc:"Transaction UUID"`
	Type            string   `json:"type" doc:"IN or OUT"`
	Amount          string   `json:"amount" doc:"Decimal amount in the account currency"`
	Currency        string   `json:"currency" doc:"ISO 4217 code"`
	Category        string   `json:"category,omitempty" doc:"Category name"`
	ParentCategory  string   `json:"parentCategory,omitempty" doc:"Reporting parent category"`
	Description     string   `json:"description,omitempty" doc:"Free text"`
	AccountID       string   `json:"accountID" doc:"Account UUID"`
	ProjectID       string   `json:"projectID,omitempty" doc:"Project UUID"`
	FundID          string   `json:"fundID,omitempty" doc:"Fund UUID"`
	Status          string   `json:"status" doc:"PENDING, APPROVED or REJECTED"`
	CreatedBy       string   `json:"createdBy" doc:"Creator user UUID"`
	ApprovedBy      string   `json:"approvedBy,omitempty" doc:"Approver user UUID"`
	RejectedBy      string   `json:"rejectedBy,omitempty" doc:"Rejecting user UUID"`
	RejectionReason string   `json:"rejectionReason,omitempty" doc:"Reason given on rejection"`
	Attachments     []string `json:"attachments,omitempty" doc:"Attachment URLs"`
	TransferRef     string   `json:"transferRef,omitempty" doc:"Correlation reference shared by both legs of a transfer"`
	FixedCostID     string   `json:"fixedCostID,omitempty" doc:"Fixed cost that generated this transaction"`
	Period          string   `json:"period,omitempty" doc:"Fixed cost period marker"`
	Date            string   `json:"date" doc:"RFC3339 transaction date"`
	CreatedAt       string   `json:"createdAt" doc:"RFC3339 creation time"`
	DecidedAt       string   `json:"decidedAt,omitempty" doc:"RFC3339 approval or rejection time"`
}

// FromModel converts a stored transaction into its API form.
func FromModel(tx models.Transaction) Transaction {
	return Transaction{
		ID:              tx.ID.String(),
		Type:            string(tx.Type),
		Amount:          tx.Amount.String(),
		Currency:        tx.Currency,
		Category:        tx.Category,
		ParentCategory:  tx.ParentCategory,
		Description:     tx.Description,
		AccountID:       tx.AccountID.String(),
		ProjectID:       shared.FormatOptionalUUID(tx.ProjectID),
		FundID:          shared.FormatOptionalUUID(tx.FundID),
		Status:          string(tx.Status),
		CreatedBy:       tx.CreatedBy.String(),
		ApprovedBy:      shared.FormatOptionalUUID(tx.ApprovedBy),
		RejectedBy:      shared.FormatOptionalUUID(tx.RejectedBy),
		RejectionReason: tx.RejectionReason,
		Attachments:     tx.Attachments,
		TransferRef:     tx.TransferRef,
		FixedCostID:     shared.FormatOptionalUUID(tx.FixedCostID),
		Period:          tx.Period,
		Date:            shared.FormatTime(tx.Date),
		CreatedAt:       shared.FormatTime(tx.CreatedAt),
		DecidedAt:       shared.FormatOptionalTime(tx.DecidedAt),
	}
}

func fromModels(rows []models.Transaction) []Transaction {
	out := make([]Transaction, len(rows))
	for i, row := range rows {
		out[i] = FromModel(row)
	}
	return out
}
