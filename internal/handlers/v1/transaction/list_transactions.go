package transaction

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/service"
)

// ListTransactionsBody is the request body for listing transactions.
type ListTransactionsBody struct {
	ProjectIDs []string       `json:"projectIDs,omitempty" doc:"Restrict to these projects, defaults to every project the caller may view"`
	AccountID  string         `json:"accountID,omitempty" doc:"Restrict to one account"`
	Status     string         `json:"status,omitempty" enum:"PENDING,APPROVED,REJECTED" doc:"Restrict to one status"`
	Type       string         `json:"type,omitempty" enum:"IN,OUT" doc:"Restrict to income or expense"`
	From       string         `json:"from,omitempty" doc:"Inclusive lower date bound"`
	To         string         `json:"to,omitempty" doc:"Exclusive upper date bound"`
	Cursor     *shared.Cursor `json:"cursor,omitempty" doc:"Cursor from a previous response"`
}

// ListTransactionsInput is the Huma input for listing transactions.
type ListTransactionsInput struct {
	Body ListTransactionsBody
}

// ListTransactionsResponse is the response body for listing transactions.
type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions" doc:"Transactions, newest first"`
	NextCursor   *shared.Cursor `json:"nextCursor,omitempty" doc:"Cursor for the next page, absent on the last page"`
}

// ListTransactionsOutput is the Huma output for listing transactions.
type ListTransactionsOutput struct {
	Body ListTransactionsResponse
}

// PendingTransactionsOutput is the Huma output for the approval queue.
type PendingTransactionsOutput struct {
	Body struct {
		Transactions []Transaction `json:"transactions" doc:"Pending transactions, oldest first"`
	}
}

type transactionLister interface {
	List(ctx context.Context, actor authz.Principal, filter service.TransactionFilter, cursor *service.Cursor) ([]models.Transaction, *service.Cursor, error)
	Pending(ctx context.Context, actor authz.Principal) ([]models.Transaction, error)
}

// ListTransactionsHandler handles POST /v1/transaction/list and the pending
// queue.
type ListTransactionsHandler struct {
	TransactionService transactionLister
}

// NewListTransactionsHandler creates a new ListTransactionsHandler.
func NewListTransactionsHandler(svc transactionLister) *ListTransactionsHandler {
	return &ListTransactionsHandler{TransactionService: svc}
}

// Register registers the list endpoints with the Huma API.
func (h *ListTransactionsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-transactions",
		Method:      http.MethodPost,
		Path:        "/v1/transaction/list",
		Summary:     "List transactions",
		Description: "Lists transactions visible to the caller with optional filters and cursor-based pagination.",
		Tags:        []string{"Transactions"},
	}, h.list)

	huma.Register(api, huma.Operation{
		OperationID: "list-pending-transactions",
		Method:      http.MethodGet,
		Path:        "/v1/transactions/pending",
		Summary:     "Approval queue",
		Description: "Lists PENDING transactions in projects where the caller may approve.",
		Tags:        []string{"Transactions"},
	}, h.pending)
}

func parseListTransactionsInput(input *ListTransactionsInput) (service.TransactionFilter, *service.Cursor, error) {
	body := input.Body
	var filter service.TransactionFilter
	var err error

	if filter.ProjectIDs, err = shared.ParseUUIDs("projectIDs", body.ProjectIDs); err != nil {
		return filter, nil, err
	}
	if filter.AccountID, err = shared.ParseOptionalUUID("accountID", body.AccountID); err != nil {
		return filter, nil, err
	}
	if filter.From, err = shared.ParseOptionalTime("from", body.From); err != nil {
		return filter, nil, err
	}
	if filter.To, err = shared.ParseOptionalTime("to", body.To); err != nil {
		return filter, nil, err
	}
	if body.Status != "" {
		status := models.TransactionStatus(strings.ToUpper(body.Status))
		filter.Status = &status
	}
	if body.Type != "" {
		txType := models.TransactionType(strings.ToUpper(body.Type))
		filter.Type = &txType
	}

	var cursor *service.Cursor
	if body.Cursor != nil {
		cursor = &service.Cursor{Position: body.Cursor.Position, Limit: body.Cursor.Limit}
	}
	return filter, cursor, nil
}

func (h *ListTransactionsHandler) list(ctx context.Context, input *ListTransactionsInput) (*ListTransactionsOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	filter, cursor, err := parseListTransactionsInput(input)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "listTransactionsMs")
	rows, next, err := h.TransactionService.List(ctx, actor, filter, cursor)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to list transactions")
	}

	out := &ListTransactionsOutput{}
	out.Body.Transactions = fromModels(rows)
	if next != nil {
		out.Body.NextCursor = &shared.Cursor{Position: next.Position, Limit: next.Limit}
	}
	shared.AddData(ctx, "transactionCount", len(rows))
	return out, nil
}

func (h *ListTransactionsHandler) pending(ctx context.Context, _ *struct{}) (*PendingTransactionsOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "pendingTransactionsMs")
	rows, err := h.TransactionService.Pending(ctx, actor)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to list pending transactions")
	}

	out := &PendingTransactionsOutput{}
	out.Body.Transactions = fromModels(rows)
	return out, nil
}
