package account

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// AccountIDInput identifies one account.
type AccountIDInput struct {
	ID string `path:"id" format:"uuid" doc:"Account UUID"`
}

// AccountOutput is the Huma output for endpoints returning one account.
type AccountOutput struct {
	Body Account
}

type accountGetter interface {
	Get(ctx context.Context, actor authz.Principal, id uuid.UUID) (*models.Account, error)
}

// GetAccountHandler handles GET /v1/account/{id}.
type GetAccountHandler struct {
	AccountService accountGetter
}

// NewGetAccountHandler creates a new GetAccountHandler.
func NewGetAccountHandler(svc accountGetter) *GetAccountHandler {
	return &GetAccountHandler{AccountService: svc}
}

// Register registers the get account endpoint with the Huma API.
func (h *GetAccountHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-account",
		Method:      http.MethodGet,
		Path:        "/v1/account/{id}",
		Summary:     "Get account",
		Tags:        []string{"Accounts"},
	}, h.handle)
}

func (h *GetAccountHandler) handle(ctx context.Context, input *AccountIDInput) (*AccountOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}

	account, err := h.AccountService.Get(ctx, actor, id)
	if err != nil {
		return nil, shared.Error(err, "failed to get account")
	}
	return &AccountOutput{Body: FromModel(*account)}, nil
}
