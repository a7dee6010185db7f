package fixedcost

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/service"
)

// ListFixedCostsInput is the Huma input for listing fixed costs.
type ListFixedCostsInput struct {
	Status string `query:"status" enum:"ON,OFF" doc:"Restrict to one status"`
}

// ListFixedCostsOutput is the Huma output for listing fixed costs.
type ListFixedCostsOutput struct {
	Body struct {
		FixedCosts []FixedCost `json:"fixedCosts"`
	}
}

// SetFixedCostStatusInput is the Huma input for switching a fixed cost.
type SetFixedCostStatusInput struct {
	ID   string `path:"id" format:"uuid" doc:"Fixed cost UUID"`
	Body struct {
		Status string `json:"status" enum:"ON,OFF" doc:"ON to generate, OFF to pause"`
	}
}

// GenerateOutput reports one generation run.
type GenerateOutput struct {
	Body struct {
		Generated int `json:"generated"`
		Skipped   int `json:"skipped" doc:"Fixed costs already generated for the current period"`
		Failed    int `json:"failed"`
	}
}

type fixedCostManager interface {
	List(ctx context.Context, actor authz.Principal, status *models.FixedCostStatus) ([]models.FixedCost, error)
	SetStatus(ctx context.Context, actor authz.Principal, id uuid.UUID, status models.FixedCostStatus) (*models.FixedCost, error)
	GenerateDue(ctx context.Context, now time.Time) (service.GenerationSummary, error)
}

// ManageFixedCostsHandler handles listing, switching and on-demand generation.
type ManageFixedCostsHandler struct {
	FixedCostService fixedCostManager
	Now              func() time.Time
}

// NewManageFixedCostsHandler creates a new ManageFixedCostsHandler.
func NewManageFixedCostsHandler(svc fixedCostManager) *ManageFixedCostsHandler {
	return &ManageFixedCostsHandler{FixedCostService: svc, Now: time.Now}
}

// Register registers the fixed cost management endpoints with the Huma API.
func (h *ManageFixedCostsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-fixed-costs",
		Method:      http.MethodGet,
		Path:        "/v1/fixed-costs",
		Summary:     "List fixed costs",
		Tags:        []string{"Fixed costs"},
	}, h.list)

	huma.Register(api, huma.Operation{
		OperationID: "set-fixed-cost-status",
		Method:      http.MethodPut,
		Path:        "/v1/fixed-cost/{id}/status",
		Summary:     "Switch fixed cost on or off",
		Tags:        []string{"Fixed costs"},
	}, h.setStatus)

	huma.Register(api, huma.Operation{
		OperationID: "generate-fixed-costs",
		Method:      http.MethodPost,
		Path:        "/v1/fixed-costs/generate",
		Summary:     "Generate due fixed costs",
		Description: "Runs the recurring job now. Administrators only; periods already generated are skipped.",
		Tags:        []string{"Fixed costs"},
	}, h.generate)
}

func (h *ManageFixedCostsHandler) list(ctx context.Context, input *ListFixedCostsInput) (*ListFixedCostsOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	var status *models.FixedCostStatus
	if input.Status != "" {
		s := models.FixedCostStatus(input.Status)
		status = &s
	}

	rows, err := h.FixedCostService.List(ctx, actor, status)
	if err != nil {
		return nil, shared.Error(err, "failed to list fixed costs")
	}
	out := &ListFixedCostsOutput{}
	out.Body.FixedCosts = make([]FixedCost, len(rows))
	for i, row := range rows {
		out.Body.FixedCosts[i] = FromModel(row)
	}
	return out, nil
}

func (h *ManageFixedCostsHandler) setStatus(ctx context.Context, input *SetFixedCostStatusInput) (*FixedCostOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}

	fc, err := h.FixedCostService.SetStatus(ctx, actor, id, models.FixedCostStatus(input.Body.Status))
	if err != nil {
		return nil, shared.Error(err, "failed to set fixed cost status")
	}
	return &FixedCostOutput{Status: http.StatusOK, Body: FromModel(*fc)}, nil
}

func (h *ManageFixedCostsHandler) generate(ctx context.Context, _ *struct{}) (*GenerateOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, huma.NewError(http.StatusForbidden, "only administrators run generation")
	}

	stopTimer := shared.Timed(ctx, "generateFixedCostsMs")
	summary, err := h.FixedCostService.GenerateDue(ctx, h.Now())
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to generate fixed costs")
	}

	out := &GenerateOutput{}
	out.Body.Generated = summary.Generated
	out.Body.Skipped = summary.Skipped
	out.Body.Failed = summary.Failed
	return out, nil
}
