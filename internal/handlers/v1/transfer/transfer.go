package transfer

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/transaction"
	"github.com/carson-networks/project-ledger/internal/service"
)

// TransferBody is the request body for moving money between accounts.
type TransferBody struct {
	FromAccountID string `json:"fromAccountID" format:"uuid" doc:"Source account UUID"`
	ToAccountID   string `json:"toAccountID" format:"uuid" doc:"Destination account UUID"`
	Amount        string `json:"amount" doc:"Positive decimal amount in the source currency"`
	ManualRate    string `json:"manualRate,omitempty" doc:"Destination units per source unit, overrides the rate table"`
	Description   string `json:"description,omitempty" doc:"Free text copied onto both legs"`
	Date          string `json:"date,omitempty" doc:"RFC3339 or YYYY-MM-DD date, defaults to now"`
}

// TransferInput is the Huma input for a transfer.
type TransferInput struct {
	Body TransferBody
}

// TransferResponse is the response body for a transfer.
type TransferResponse struct {
	Reference string                  `json:"reference" doc:"Correlation reference shared by both legs"`
	Rate      string                  `json:"rate" doc:"Applied rate, 1 for same-currency transfers"`
	Received  string                  `json:"received" doc:"Amount credited in the destination currency"`
	Out       transaction.Transaction `json:"out" doc:"Debit leg"`
	In        transaction.Transaction `json:"in" doc:"Credit leg"`
}

// TransferOutput is the Huma output for a transfer.
type TransferOutput struct {
	Status int
	Body   TransferResponse
}

// transferrer is the interface for executing transfers.
type transferrer interface {
	Transfer(ctx context.Context, actor authz.Principal, req service.TransferRequest) (*service.TransferResult, error)
}

// Handler handles POST /v1/transfer.
type Handler struct {
	TransferService transferrer
}

// NewHandler creates a new transfer Handler.
func NewHandler(svc transferrer) *Handler {
	return &Handler{TransferService: svc}
}

// Register registers the transfer endpoint with the Huma API.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-transfer",
		Method:        http.MethodPost,
		Path:          "/v1/transfer",
		Summary:       "Transfer between accounts",
		Description:   "Debits the source and credits the destination in one atomic unit, converting currencies when they differ. Administrators only.",
		Tags:          []string{"Transfers"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseTransferInput(input *TransferInput) (service.TransferRequest, error) {
	body := input.Body
	var req service.TransferRequest
	var err error

	if req.FromAccountID, err = shared.ParseUUID("fromAccountID", body.FromAccountID); err != nil {
		return req, err
	}
	if req.ToAccountID, err = shared.ParseUUID("toAccountID", body.ToAccountID); err != nil {
		return req, err
	}
	if req.Amount, err = shared.ParseDecimal("amount", body.Amount); err != nil {
		return req, err
	}
	if req.ManualRate, err = shared.ParseOptionalDecimal("manualRate", body.ManualRate); err != nil {
		return req, err
	}
	date, err := shared.ParseOptionalTime("date", body.Date)
	if err != nil {
		return req, err
	}
	if date != nil {
		req.Date = *date
	}
	req.Description = body.Description
	return req, nil
}

func (h *Handler) handle(ctx context.Context, input *TransferInput) (*TransferOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	req, err := parseTransferInput(input)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "transferMs")
	result, err := h.TransferService.Transfer(ctx, actor, req)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to transfer")
	}

	shared.AddData(ctx, "transferRef", result.Reference)
	return &TransferOutput{
		Status: http.StatusCreated,
		Body: TransferResponse{
			Reference: result.Reference,
			Rate:      result.Rate.String(),
			Received:  result.Received.String(),
			Out:       transaction.FromModel(result.Out),
			In:        transaction.FromModel(result.In),
		},
	}, nil
}
