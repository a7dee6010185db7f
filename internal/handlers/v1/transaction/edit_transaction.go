package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/operator/actions"
)

// EditTransactionBody lists the fields of a PENDING transaction that may
// change. Absent fields are left alone.
type EditTransactionBody struct {
	Amount         *string `json:"amount,omitempty" doc:"Positive decimal amount"`
	AccountID      *string `json:"accountID,omitempty" doc:"Account UUID, must share the currency"`
	Category       *string `json:"category,omitempty" doc:"Category name"`
	ParentCategory *string `json:"parentCategory,omitempty" doc:"Parent category"`
	Description    *string `json:"description,omitempty" doc:"Free text"`
	Date           *string `json:"date,omitempty" doc:"RFC3339 or YYYY-MM-DD transaction date"`
}

// EditTransactionInput is the Huma input for editing a transaction.
type EditTransactionInput struct {
	ID   string `path:"id" format:"uuid" doc:"Transaction UUID"`
	Body EditTransactionBody
}

// EditTransactionOutput is the Huma output for editing a transaction.
type EditTransactionOutput struct {
	Body Transaction
}

// transactionEditor is the interface for editing pending transactions.
type transactionEditor interface {
	Edit(ctx context.Context, actor authz.Principal, id uuid.UUID, patch actions.TransactionPatch) (*models.Transaction, error)
}

// EditTransactionHandler handles PATCH /v1/transaction/{id}.
type EditTransactionHandler struct {
	TransactionService transactionEditor
}

// NewEditTransactionHandler creates a new EditTransactionHandler.
func NewEditTransactionHandler(svc transactionEditor) *EditTransactionHandler {
	return &EditTransactionHandler{TransactionService: svc}
}

// Register registers the edit transaction endpoint with the Huma API.
func (h *EditTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "edit-transaction",
		Method:      http.MethodPatch,
		Path:        "/v1/transaction/{id}",
		Summary:     "Edit pending transaction",
		Description: "Changes a PENDING transaction. Approved and rejected transactions are immutable.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

func parseEditTransactionInput(input *EditTransactionInput) (uuid.UUID, actions.TransactionPatch, error) {
	var patch actions.TransactionPatch
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return uuid.Nil, patch, err
	}
	body := input.Body
	if body.Amount != nil {
		amount, err := shared.ParseDecimal("amount", *body.Amount)
		if err != nil {
			return uuid.Nil, patch, err
		}
		patch.Amount = &amount
	}
	if body.AccountID != nil {
		accountID, err := shared.ParseUUID("accountID", *body.AccountID)
		if err != nil {
			return uuid.Nil, patch, err
		}
		patch.AccountID = &accountID
	}
	if body.Date != nil {
		date, err := shared.ParseOptionalTime("date", *body.Date)
		if err != nil {
			return uuid.Nil, patch, err
		}
		patch.Date = date
	}
	patch.Category = body.Category
	patch.ParentCategory = body.ParentCategory
	patch.Description = body.Description
	return id, patch, nil
}

func (h *EditTransactionHandler) handle(ctx context.Context, input *EditTransactionInput) (*EditTransactionOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, patch, err := parseEditTransactionInput(input)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "editTransactionMs")
	edited, err := h.TransactionService.Edit(ctx, actor, id, patch)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to edit transaction")
	}

	shared.AddData(ctx, "transactionID", id.String())
	return &EditTransactionOutput{Body: FromModel(*edited)}, nil
}
