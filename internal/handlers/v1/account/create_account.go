package account

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// CreateAccountInput is the Huma input for creating an account.
type CreateAccountInput struct {
	Body CreateAccountBody
}

// CreateAccountBody is the request body fields for creating an account.
type CreateAccountBody struct {
	Name           string `json:"name" minLength:"1" doc:"Account name"`
	Currency       string `json:"currency" minLength:"3" maxLength:"3" doc:"ISO 4217 code"`
	OpeningBalance string `json:"openingBalance,omitempty" doc:"Opening balance (e.g. '0' or '1234.56'), defaults to 0"`
	ProjectID      string `json:"projectID,omitempty" doc:"Owning project UUID, omit for a shared account"`
}

// CreateAccountOutput is the response for creating an account.
type CreateAccountOutput struct {
	Status int
	Body   Account
}

// accountCreator is the interface for creating accounts.
type accountCreator interface {
	Create(ctx context.Context, actor authz.Principal, account models.Account) (*models.Account, error)
}

// CreateAccountHandler handles POST /v1/account.
type CreateAccountHandler struct {
	AccountService accountCreator
}

// NewCreateAccountHandler creates a new CreateAccountHandler.
func NewCreateAccountHandler(svc accountCreator) *CreateAccountHandler {
	return &CreateAccountHandler{AccountService: svc}
}

// Register registers the create account endpoint with the Huma API.
func (h *CreateAccountHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-account",
		Method:        http.MethodPost,
		Path:          "/v1/account",
		Summary:       "Create an account",
		Description:   "Creates a new account in one currency. Shared accounts need an administrator.",
		Tags:          []string{"Accounts"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseCreateAccountInput(input *CreateAccountInput) (models.Account, error) {
	opening := decimal.Zero
	if input.Body.OpeningBalance != "" {
		var err error
		if opening, err = shared.ParseDecimal("openingBalance", input.Body.OpeningBalance); err != nil {
			return models.Account{}, err
		}
	}
	projectID, err := shared.ParseOptionalUUID("projectID", input.Body.ProjectID)
	if err != nil {
		return models.Account{}, err
	}
	return models.Account{
		Name:           strings.TrimSpace(input.Body.Name),
		Currency:       currency.Normalize(input.Body.Currency),
		OpeningBalance: opening,
		Balance:        opening,
		ProjectID:      projectID,
	}, nil
}

func (h *CreateAccountHandler) handle(ctx context.Context, input *CreateAccountInput) (*CreateAccountOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	account, err := parseCreateAccountInput(input)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "createAccountMs")
	created, err := h.AccountService.Create(ctx, actor, account)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to create account")
	}

	shared.AddData(ctx, "accountID", created.ID.String())

	return &CreateAccountOutput{
		Status: http.StatusCreated,
		Body:   FromModel(*created),
	}, nil
}
