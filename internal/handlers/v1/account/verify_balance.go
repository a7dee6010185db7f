package account

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/service"
)

// BalanceCheck is the response body of a balance verification.
type BalanceCheck struct {
	AccountID    string `json:"accountID" doc:"Account UUID"`
	Stored       string `json:"stored" doc:"Balance held on the account"`
	Computed     string `json:"computed" doc:"Opening balance plus every approved transaction"`
	Drift        string `json:"drift" doc:"stored minus computed"`
	Consistent   bool   `json:"consistent" doc:"Whether stored and computed agree"`
	Transactions int    `json:"transactions" doc:"Number of approved transactions replayed"`
}

// VerifyBalanceOutput is the Huma output for balance verification.
type VerifyBalanceOutput struct {
	Body BalanceCheck
}

type balanceVerifier interface {
	VerifyBalance(ctx context.Context, actor authz.Principal, id uuid.UUID) (*service.BalanceCheck, error)
}

// VerifyBalanceHandler handles GET /v1/account/{id}/verify.
type VerifyBalanceHandler struct {
	AccountService balanceVerifier
}

// NewVerifyBalanceHandler creates a new VerifyBalanceHandler.
func NewVerifyBalanceHandler(svc balanceVerifier) *VerifyBalanceHandler {
	return &VerifyBalanceHandler{AccountService: svc}
}

// Register registers the verify endpoint with the Huma API.
func (h *VerifyBalanceHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "verify-account-balance",
		Method:      http.MethodGet,
		Path:        "/v1/account/{id}/verify",
		Summary:     "Verify account balance",
		Description: "Recomputes the balance from approved transactions and reports any drift.",
		Tags:        []string{"Accounts"},
	}, h.handle)
}

func (h *VerifyBalanceHandler) handle(ctx context.Context, input *AccountIDInput) (*VerifyBalanceOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "verifyBalanceMs")
	check, err := h.AccountService.VerifyBalance(ctx, actor, id)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to verify balance")
	}

	shared.AddData(ctx, "balanceConsistent", check.Consistent)
	return &VerifyBalanceOutput{Body: BalanceCheck{
		AccountID:    check.AccountID.String(),
		Stored:       check.Stored.String(),
		Computed:     check.Computed.String(),
		Drift:        check.Drift.String(),
		Consistent:   check.Consistent,
		Transactions: check.Transactions,
	}}, nil
}
