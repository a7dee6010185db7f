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

// ProjectIDInput identifies one project.
type ProjectIDInput struct {
	ID string `path:"id" format:"uuid" doc:"Project UUID"`
}

// ProjectOutput is the Huma output for endpoints returning one project.
type ProjectOutput struct {
	Body Project
}

// ListProjectsOutput is the Huma output for listing projects.
type ListProjectsOutput struct {
	Body struct {
		Projects []Project `json:"projects" doc:"Projects the caller belongs to, every project for administrators"`
	}
}

type projectReader interface {
	Get(ctx context.Context, actor authz.Principal, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, actor authz.Principal) ([]models.Project, error)
}

// GetProjectHandler handles GET /v1/project/{id} and GET /v1/projects.
type GetProjectHandler struct {
	ProjectService projectReader
}

// NewGetProjectHandler creates a new GetProjectHandler.
func NewGetProjectHandler(svc projectReader) *GetProjectHandler {
	return &GetProjectHandler{ProjectService: svc}
}

// Register registers the project read endpoints with the Huma API.
func (h *GetProjectHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/v1/project/{id}",
		Summary:     "Get project",
		Tags:        []string{"Projects"},
	}, h.get)

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/v1/projects",
		Summary:     "List projects",
		Tags:        []string{"Projects"},
	}, h.list)
}

func (h *GetProjectHandler) get(ctx context.Context, input *ProjectIDInput) (*ProjectOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}

	project, err := h.ProjectService.Get(ctx, actor, id)
	if err != nil {
		return nil, shared.Error(err, "failed to get project")
	}
	return &ProjectOutput{Body: FromModel(*project)}, nil
}

func (h *GetProjectHandler) list(ctx context.Context, _ *struct{}) (*ListProjectsOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}

	projects, err := h.ProjectService.List(ctx, actor)
	if err != nil {
		return nil, shared.Error(err, "failed to list projects")
	}

	out := &ListProjectsOutput{}
	out.Body.Projects = make([]Project, len(projects))
	for i, p := range projects {
		out.Body.Projects[i] = FromModel(p)
	}
	return out, nil
}
