package project

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/service"
)

// AccessOutput is the Huma output for resolving a user's access.
type AccessOutput struct {
	Body struct {
		ProjectID   string   `json:"projectID"`
		UserID      string   `json:"userID"`
		Role        string   `json:"role" doc:"Resolved role, ADMIN for administrators and empty for non-members"`
		Permissions []string `json:"permissions" doc:"Effective permissions"`
		Customized  bool     `json:"customized"`
	}
}

type accessResolver interface {
	Access(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID) (*service.Access, error)
}

// AccessHandler handles GET /v1/project/{id}/members/{userID}/access.
type AccessHandler struct {
	ProjectService accessResolver
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(svc accessResolver) *AccessHandler {
	return &AccessHandler{ProjectService: svc}
}

// Register registers the access endpoint with the Huma API.
func (h *AccessHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-member-access",
		Method:      http.MethodGet,
		Path:        "/v1/project/{id}/members/{userID}/access",
		Summary:     "Resolve access",
		Description: "Reports the role and effective permissions of a user on a project.",
		Tags:        []string{"Projects"},
	}, h.handle)
}

func (h *AccessHandler) handle(ctx context.Context, input *MemberPathInput) (*AccessOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	projectID, userID, err := parseMemberPath(*input)
	if err != nil {
		return nil, err
	}

	access, err := h.ProjectService.Access(ctx, actor, projectID, userID)
	if err != nil {
		return nil, shared.Error(err, "failed to resolve access")
	}

	out := &AccessOutput{}
	out.Body.ProjectID = access.ProjectID.String()
	out.Body.UserID = access.UserID.String()
	out.Body.Role = string(access.Role)
	out.Body.Permissions = access.Permissions.Strings()
	out.Body.Customized = access.Customized
	return out, nil
}
