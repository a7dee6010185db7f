package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/service"
)

// DecisionInput identifies the transaction to decide on.
type DecisionInput struct {
	ID string `path:"id" format:"uuid" doc:"Transaction UUID"`
}

// RejectInput carries the rejection reason.
type RejectInput struct {
	ID   string `path:"id" format:"uuid" doc:"Transaction UUID"`
	Body struct {
		Reason string `json:"reason,omitempty" maxLength:"500" doc:"Why the transaction was rejected"`
	} `required:"false"`
}

// DecisionOutput is the Huma output for approve and reject.
type DecisionOutput struct {
	Body CreateTransactionResponse
}

// transactionDecider is the interface for deciding pending transactions.
type transactionDecider interface {
	Approve(ctx context.Context, actor authz.Principal, id uuid.UUID) (*service.CreatedTransaction, error)
	Reject(ctx context.Context, actor authz.Principal, id uuid.UUID, reason string) (*models.Transaction, error)
}

// DecideTransactionHandler handles the approval state machine endpoints.
type DecideTransactionHandler struct {
	TransactionService transactionDecider
}

// NewDecideTransactionHandler creates a new DecideTransactionHandler.
func NewDecideTransactionHandler(svc transactionDecider) *DecideTransactionHandler {
	return &DecideTransactionHandler{TransactionService: svc}
}

// Register registers the approve and reject endpoints with the Huma API.
func (h *DecideTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "approve-transaction",
		Method:      http.MethodPost,
		Path:        "/v1/transaction/{id}/approve",
		Summary:     "Approve transaction",
		Description: "Moves a PENDING transaction to APPROVED and applies it to the account balance.",
		Tags:        []string{"Transactions"},
	}, h.approve)

	huma.Register(api, huma.Operation{
		OperationID: "reject-transaction",
		Method:      http.MethodPost,
		Path:        "/v1/transaction/{id}/reject",
		Summary:     "Reject transaction",
		Description: "Moves a PENDING transaction to REJECTED. Balances are not touched.",
		Tags:        []string{"Transactions"},
	}, h.reject)
}

func (h *DecideTransactionHandler) approve(ctx context.Context, input *DecisionInput) (*DecisionOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "approveTransactionMs")
	approved, err := h.TransactionService.Approve(ctx, actor, id)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to approve transaction")
	}

	shared.AddData(ctx, "transactionID", id.String())
	return &DecisionOutput{Body: CreateTransactionResponse{
		Transaction: FromModel(approved.Transaction),
		Warnings:    approved.Warnings,
	}}, nil
}

func (h *DecideTransactionHandler) reject(ctx context.Context, input *RejectInput) (*DecisionOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "rejectTransactionMs")
	rejected, err := h.TransactionService.Reject(ctx, actor, id, input.Body.Reason)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to reject transaction")
	}

	shared.AddData(ctx, "transactionID", id.String())
	return &DecisionOutput{Body: CreateTransactionResponse{Transaction: FromModel(*rejected)}}, nil
}
