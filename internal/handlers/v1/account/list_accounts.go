package account

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

// ListAccountsInput is the Huma input for listing accounts.
type ListAccountsInput struct {
	ProjectIDs []string `query:"projectID" doc:"Restrict to these projects"`
	Position   int      `query:"position" minimum:"0" doc:"Cursor position from a previous response"`
	Limit      int      `query:"limit" minimum:"0" maximum:"200" doc:"Page size, defaults to 20"`
}

// ListAccountsResponse is the response body for listing accounts.
type ListAccountsResponse struct {
	Accounts   []Account      `json:"accounts" doc:"Accounts ordered by name"`
	NextCursor *shared.Cursor `json:"nextCursor,omitempty" doc:"Cursor for the next page, absent on the last page"`
}

// ListAccountsOutput is the Huma output for listing accounts.
type ListAccountsOutput struct {
	Body ListAccountsResponse
}

// accountLister is the interface for listing accounts.
type accountLister interface {
	List(ctx context.Context, actor authz.Principal, projectIDs []uuid.UUID, cursor *service.Cursor) ([]models.Account, *service.Cursor, error)
}

// ListAccountsHandler handles GET /v1/accounts.
type ListAccountsHandler struct {
	AccountService accountLister
}

// NewListAccountsHandler creates a new ListAccountsHandler.
func NewListAccountsHandler(svc accountLister) *ListAccountsHandler {
	return &ListAccountsHandler{AccountService: svc}
}

// Register registers the list accounts endpoint with the Huma API.
func (h *ListAccountsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-accounts",
		Method:      http.MethodGet,
		Path:        "/v1/accounts",
		Summary:     "List accounts",
		Description: "Lists the accounts the caller may view. Administrators also see shared accounts.",
		Tags:        []string{"Accounts"},
	}, h.handle)
}

func (h *ListAccountsHandler) handle(ctx context.Context, input *ListAccountsInput) (*ListAccountsOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	projectIDs, err := shared.ParseUUIDs("projectID", input.ProjectIDs)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "listAccountsMs")
	rows, next, err := h.AccountService.List(ctx, actor, projectIDs, &service.Cursor{Position: input.Position, Limit: input.Limit})
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to list accounts")
	}

	out := &ListAccountsOutput{}
	out.Body.Accounts = make([]Account, len(rows))
	for i, row := range rows {
		out.Body.Accounts[i] = FromModel(row)
	}
	if next != nil {
		out.Body.NextCursor = &shared.Cursor{Position: next.Position, Limit: next.Limit}
	}
	shared.AddData(ctx, "accountCount", len(rows))
	return out, nil
}
