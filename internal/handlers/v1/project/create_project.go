package project

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

// CreateProjectBody is the request body for creating a project.
type CreateProjectBody struct {
	Name     string `json:"name" minLength:"1" doc:"Project name"`
	Currency string `json:"currency" minLength:"3" maxLength:"3" doc:"ISO 4217 code of the budget"`
	Budget   string `json:"budget,omitempty" doc:"Decimal budget, defaults to 0"`
}

// CreateProjectInput is the Huma input for creating a project.
type CreateProjectInput struct {
	Body CreateProjectBody
}

// CreateProjectOutput is the Huma output for creating a project.
type CreateProjectOutput struct {
	Status int
	Body   Project
}

type projectCreator interface {
	Create(ctx context.Context, actor authz.Principal, project models.Project) (*models.Project, error)
}

// CreateProjectHandler handles POST /v1/project.
type CreateProjectHandler struct {
	ProjectService projectCreator
}

// NewCreateProjectHandler creates a new CreateProjectHandler.
func NewCreateProjectHandler(svc projectCreator) *CreateProjectHandler {
	return &CreateProjectHandler{ProjectService: svc}
}

// Register registers the create project endpoint with the Huma API.
func (h *CreateProjectHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/v1/project",
		Summary:       "Create project",
		Description:   "Creates an ACTIVE project. The creator becomes its OWNER.",
		Tags:          []string{"Projects"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseCreateProjectInput(input *CreateProjectInput) (models.Project, error) {
	budget := decimal.Zero
	if input.Body.Budget != "" {
		var err error
		if budget, err = shared.ParseDecimal("budget", input.Body.Budget); err != nil {
			return models.Project{}, err
		}
	}
	return models.Project{
		Name:     strings.TrimSpace(input.Body.Name),
		Currency: currency.Normalize(input.Body.Currency),
		Budget:   budget,
		Status:   models.ProjectActive,
	}, nil
}

func (h *CreateProjectHandler) handle(ctx context.Context, input *CreateProjectInput) (*CreateProjectOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	project, err := parseCreateProjectInput(input)
	if err != nil {
		return nil, err
	}

	created, err := h.ProjectService.Create(ctx, actor, project)
	if err != nil {
		return nil, shared.Error(err, "failed to create project")
	}

	shared.AddData(ctx, "projectID", created.ID.String())
	return &CreateProjectOutput{Status: http.StatusCreated, Body: FromModel(*created)}, nil
}
