package project

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// SetStatusInput is the Huma input for changing a project's status.
type SetStatusInput struct {
	ID   string `path:"id" format:"uuid" doc:"Project UUID"`
	Body struct {
		Status string `json:"status" enum:"ACTIVE,PAUSED,COMPLETED" doc:"New project status"`
	}
}

type projectStatusSetter interface {
	SetStatus(ctx context.Context, actor authz.Principal, id uuid.UUID, status models.ProjectStatus) (*models.Project, error)
}

// SetStatusHandler handles PUT /v1/project/{id}/status.
type SetStatusHandler struct {
	ProjectService projectStatusSetter
}

// NewSetStatusHandler creates a new SetStatusHandler.
func NewSetStatusHandler(svc projectStatusSetter) *SetStatusHandler {
	return &SetStatusHandler{ProjectService: svc}
}

// Register registers the status endpoint with the Huma API.
func (h *SetStatusHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "set-project-status",
		Method:      http.MethodPut,
		Path:        "/v1/project/{id}/status",
		Summary:     "Set project status",
		Tags:        []string{"Projects"},
	}, h.handle)
}

func (h *SetStatusHandler) handle(ctx context.Context, input *SetStatusInput) (*ProjectOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}

	project, err := h.ProjectService.SetStatus(ctx, actor, id, models.ProjectStatus(input.Body.Status))
	if err != nil {
		return nil, shared.Error(err, "failed to set project status")
	}
	shared.AddData(ctx, "projectID", id.String())
	return &ProjectOutput{Body: FromModel(*project)}, nil
}
