package transaction

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/project-ledger/internal/attachment"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/service"
)

// AttachmentBody is one file uploaded alongside a transaction.
type AttachmentBody struct {
	Name        string `json:"name" minLength:"1" doc:"File name"`
	ContentType string `json:"contentType,omitempty" doc:"MIME type"`
	Data        []byte `json:"data" doc:"Base64 file content"`
}

// CreateTransactionBody is the request body for creating a transaction.
type CreateTransactionBody struct {
	Type           string           `json:"type" enum:"IN,OUT" doc:"IN for income, OUT for expense"`
	Amount         string           `json:"amount" required:"true" doc:"Positive decimal amount"`
	Currency       string           `json:"currency" required:"true" minLength:"3" maxLength:"3" doc:"ISO 4217 code, must match the account"`
	AccountID      string           `json:"accountID" required:"true" format:"uuid" doc:"Account UUID"`
	ProjectID      string           `json:"projectID,omitempty" doc:"Project UUID, defaults to the account's project"`
	FundID         string           `json:"fundID,omitempty" doc:"Fund UUID"`
	Category       string           `json:"category,omitempty" doc:"Category name"`
	ParentCategory string           `json:"parentCategory,omitempty" doc:"Parent category, looked up from master categories when empty"`
	Description    string           `json:"description,omitempty" doc:"Free text"`
	Date           string           `json:"date,omitempty" doc:"RFC3339 or YYYY-MM-DD transaction date, defaults to now"`
	Attachments    []AttachmentBody `json:"attachments,omitempty" maxItems:"10" doc:"Files to upload before the transaction is stored"`
}

// CreateTransactionInput is the Huma input for creating a transaction.
type CreateTransactionInput struct {
	Body CreateTransactionBody
}

// CreateTransactionResponse is the response body for creating a transaction.
type CreateTransactionResponse struct {
	Transaction Transaction `json:"transaction" doc:"Stored transaction"`
	Warnings    []string    `json:"warnings,omitempty" doc:"Non-blocking warnings such as BALANCE_BELOW_ZERO"`
}

// CreateTransactionOutput is the Huma output for creating a transaction.
type CreateTransactionOutput struct {
	Status int
	Body   CreateTransactionResponse
}

// transactionCreator is the interface for creating transactions.
type transactionCreator interface {
	Create(ctx context.Context, actor authz.Principal, tx models.Transaction, files []attachment.File) (*service.CreatedTransaction, error)
}

// CreateTransactionHandler handles POST /v1/transaction.
type CreateTransactionHandler struct {
	TransactionService transactionCreator
}

// NewCreateTransactionHandler creates a new CreateTransactionHandler.
func NewCreateTransactionHandler(svc transactionCreator) *CreateTransactionHandler {
	return &CreateTransactionHandler{TransactionService: svc}
}

// Register registers the create transaction endpoint with the Huma API.
func (h *CreateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-transaction",
		Method:        http.MethodPost,
		Path:          "/v1/transaction",
		Summary:       "Create transaction",
		Description:   "Records income or an expense. Expenses above the currency's approval ceiling wait in PENDING.",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseCreateTransactionInput(input *CreateTransactionInput) (models.Transaction, []attachment.File, error) {
	body := input.Body
	amount, err := shared.ParseDecimal("amount", body.Amount)
	if err != nil {
		return models.Transaction{}, nil, err
	}
	accountID, err := shared.ParseUUID("accountID", body.AccountID)
	if err != nil {
		return models.Transaction{}, nil, err
	}
	projectID, err := shared.ParseOptionalUUID("projectID", body.ProjectID)
	if err != nil {
		return models.Transaction{}, nil, err
	}
	fundID, err := shared.ParseOptionalUUID("fundID", body.FundID)
	if err != nil {
		return models.Transaction{}, nil, err
	}
	date, err := shared.ParseOptionalTime("date", body.Date)
	if err != nil {
		return models.Transaction{}, nil, err
	}

	tx := models.Transaction{
		Type:           models.TransactionType(strings.ToUpper(body.Type)),
		Amount:         amount,
		Currency:       currency.Normalize(body.Currency),
		AccountID:      accountID,
		ProjectID:      projectID,
		FundID:         fundID,
		Category:       strings.TrimSpace(body.Category),
		ParentCategory: strings.TrimSpace(body.ParentCategory),
		Description:    body.Description,
	}
	if date != nil {
		tx.Date = *date
	}

	files := make([]attachment.File, len(body.Attachments))
	for i, a := range body.Attachments {
		files[i] = attachment.File{Name: a.Name, ContentType: a.ContentType, Data: a.Data}
	}
	return tx, files, nil
}

func (h *CreateTransactionHandler) handle(ctx context.Context, input *CreateTransactionInput) (*CreateTransactionOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	tx, files, err := parseCreateTransactionInput(input)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "createTransactionMs")
	created, err := h.TransactionService.Create(ctx, actor, tx, files)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to create transaction")
	}

	shared.AddData(ctx, "transactionID", created.Transaction.ID.String())
	shared.AddData(ctx, "transactionStatus", string(created.Transaction.Status))

	return &CreateTransactionOutput{
		Status: http.StatusCreated,
		Body: CreateTransactionResponse{
			Transaction: FromModel(created.Transaction),
			Warnings:    created.Warnings,
		},
	}, nil
}
