package fixedcost

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// CreateFixedCostBody is the request body for creating a fixed cost.
type CreateFixedCostBody struct {
	Name      string `json:"name" minLength:"1" doc:"Template name"`
	Amount    string `json:"amount" doc:"Positive decimal amount per period"`
	Currency  string `json:"currency" minLength:"3" maxLength:"3" doc:"ISO 4217 code, must match the account"`
	Cycle     string `json:"cycle" enum:"DAILY,WEEKLY,MONTHLY,YEARLY" doc:"Recurrence"`
	AccountID string `json:"accountID" format:"uuid" doc:"Account charged by generated transactions"`
	ProjectID string `json:"projectID,omitempty" doc:"Project UUID, defaults to the account's project"`
	Category  string `json:"category,omitempty" doc:"Category of generated transactions"`
}

// CreateFixedCostInput is the Huma input for creating a fixed cost.
type CreateFixedCostInput struct {
	Body CreateFixedCostBody
}

// FixedCostOutput is the Huma output for endpoints returning one fixed cost.
type FixedCostOutput struct {
	Status int
	Body   FixedCost
}

type fixedCostCreator interface {
	Create(ctx context.Context, actor authz.Principal, fc models.FixedCost) (*models.FixedCost, error)
}

// CreateFixedCostHandler handles POST /v1/fixed-cost.
type CreateFixedCostHandler struct {
	FixedCostService fixedCostCreator
}

// NewCreateFixedCostHandler creates a new CreateFixedCostHandler.
func NewCreateFixedCostHandler(svc fixedCostCreator) *CreateFixedCostHandler {
	return &CreateFixedCostHandler{FixedCostService: svc}
}

// Register registers the create endpoint with the Huma API.
func (h *CreateFixedCostHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-fixed-cost",
		Method:        http.MethodPost,
		Path:          "/v1/fixed-cost",
		Summary:       "Create fixed cost",
		Description:   "Creates an ON recurring cost. The scheduler turns it into one PENDING expense per period.",
		Tags:          []string{"Fixed costs"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseCreateFixedCostInput(input *CreateFixedCostInput) (models.FixedCost, error) {
	body := input.Body
	amount, err := shared.ParseDecimal("amount", body.Amount)
	if err != nil {
		return models.FixedCost{}, err
	}
	accountID, err := shared.ParseUUID("accountID", body.AccountID)
	if err != nil {
		return models.FixedCost{}, err
	}
	projectID, err := shared.ParseOptionalUUID("projectID", body.ProjectID)
	if err != nil {
		return models.FixedCost{}, err
	}
	return models.FixedCost{
		Name:      strings.TrimSpace(body.Name),
		Amount:    amount,
		Currency:  currency.Normalize(body.Currency),
		Cycle:     models.Cycle(body.Cycle),
		Status:    models.FixedCostOn,
		AccountID: accountID,
		ProjectID: projectID,
		Category:  strings.TrimSpace(body.Category),
	}, nil
}

func (h *CreateFixedCostHandler) handle(ctx context.Context, input *CreateFixedCostInput) (*FixedCostOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	fc, err := parseCreateFixedCostInput(input)
	if err != nil {
		return nil, err
	}

	created, err := h.FixedCostService.Create(ctx, actor, fc)
	if err != nil {
		return nil, shared.Error(err, "failed to create fixed cost")
	}
	shared.AddData(ctx, "fixedCostID", created.ID.String())
	return &FixedCostOutput{Status: http.StatusCreated, Body: FromModel(*created)}, nil
}
