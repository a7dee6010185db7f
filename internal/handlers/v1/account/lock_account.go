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

// LockAccountInput is the Huma input for locking or unlocking an account.
type LockAccountInput struct {
	ID   string `path:"id" format:"uuid" doc:"Account UUID"`
	Body struct {
		Locked bool `json:"locked" doc:"true to lock, false to unlock"`
	}
}

type accountLocker interface {
	SetLocked(ctx context.Context, actor authz.Principal, id uuid.UUID, locked bool) (*models.Account, error)
}

// LockAccountHandler handles PUT /v1/account/{id}/lock.
type LockAccountHandler struct {
	AccountService accountLocker
}

// NewLockAccountHandler creates a new LockAccountHandler.
func NewLockAccountHandler(svc accountLocker) *LockAccountHandler {
	return &LockAccountHandler{AccountService: svc}
}

// Register registers the lock endpoint with the Huma API.
func (h *LockAccountHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "lock-account",
		Method:      http.MethodPut,
		Path:        "/v1/account/{id}/lock",
		Summary:     "Lock or unlock account",
		Description: "Locked accounts refuse new transactions, approvals and transfers.",
		Tags:        []string{"Accounts"},
	}, h.handle)
}

func (h *LockAccountHandler) handle(ctx context.Context, input *LockAccountInput) (*AccountOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}

	account, err := h.AccountService.SetLocked(ctx, actor, id, input.Body.Locked)
	if err != nil {
		return nil, shared.Error(err, "failed to update account lock")
	}
	shared.AddData(ctx, "accountID", id.String())
	return &AccountOutput{Body: FromModel(*account)}, nil
}
