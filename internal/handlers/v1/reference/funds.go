package reference

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// Fund is the API form of a fund.
type Fund struct {
	ID        string `json:"id" doc:"Fund UUID"`
	Name      string `json:"name" doc:"Fund name"`
	CreatedAt string `json:"createdAt" doc:"RFC3339 creation time"`
}

// CreateFundInput is the Huma input for creating a fund.
type CreateFundInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Fund name"`
	}
}

// FundOutput is the Huma output for creating a fund.
type FundOutput struct {
	Status int
	Body   Fund
}

// ListFundsOutput is the Huma output for listing funds.
type ListFundsOutput struct {
	Body struct {
		Funds []Fund `json:"funds"`
	}
}

type fundService interface {
	CreateFund(ctx context.Context, actor authz.Principal, fund models.Fund) (*models.Fund, error)
	ListFunds(ctx context.Context) ([]models.Fund, error)
}

// FundsHandler handles the fund endpoints.
type FundsHandler struct {
	ReferenceService fundService
}

// NewFundsHandler creates a new FundsHandler.
func NewFundsHandler(svc fundService) *FundsHandler {
	return &FundsHandler{ReferenceService: svc}
}

// Register registers the fund endpoints with the Huma API.
func (h *FundsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-fund",
		Method:        http.MethodPost,
		Path:          "/v1/fund",
		Summary:       "Create fund",
		Tags:          []string{"Reference"},
		DefaultStatus: http.StatusCreated,
	}, h.create)

	huma.Register(api, huma.Operation{
		OperationID: "list-funds",
		Method:      http.MethodGet,
		Path:        "/v1/funds",
		Summary:     "List funds",
		Tags:        []string{"Reference"},
	}, h.list)
}

func fundFromModel(f models.Fund) Fund {
	return Fund{ID: f.ID.String(), Name: f.Name, CreatedAt: shared.FormatTime(f.CreatedAt)}
}

func (h *FundsHandler) create(ctx context.Context, input *CreateFundInput) (*FundOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	fund, err := h.ReferenceService.CreateFund(ctx, actor, models.Fund{Name: strings.TrimSpace(input.Body.Name)})
	if err != nil {
		return nil, shared.Error(err, "failed to create fund")
	}
	return &FundOutput{Status: http.StatusCreated, Body: fundFromModel(*fund)}, nil
}

func (h *FundsHandler) list(ctx context.Context, _ *struct{}) (*ListFundsOutput, error) {
	if _, err := shared.Principal(ctx); err != nil {
		return nil, err
	}
	funds, err := h.ReferenceService.ListFunds(ctx)
	if err != nil {
		return nil, shared.Error(err, "failed to list funds")
	}
	out := &ListFundsOutput{}
	out.Body.Funds = make([]Fund, len(funds))
	for i, f := range funds {
		out.Body.Funds[i] = fundFromModel(f)
	}
	return out, nil
}
