package report

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/report"
	"github.com/carson-networks/project-ledger/internal/service"
)

// BuildReportBody is the request body for building a report.
type BuildReportBody struct {
	From       string   `json:"from,omitempty" doc:"Inclusive lower date bound"`
	To         string   `json:"to,omitempty" doc:"Exclusive upper date bound"`
	ProjectIDs []string `json:"projectIDs,omitempty" doc:"Restrict to these projects, defaults to every project the caller may report on"`
	Currency   string   `json:"currency,omitempty" doc:"Report natively in this currency instead of converting to the base currency"`
}

// BuildReportInput is the Huma input for building a report.
type BuildReportInput struct {
	Body BuildReportBody `required:"false"`
}

// BuildReportOutput is the Huma output for building a report.
type BuildReportOutput struct {
	Body Report
}

// reportBuilder is the interface for aggregating reports.
type reportBuilder interface {
	Build(ctx context.Context, actor authz.Principal, req service.ReportRequest) (*report.Report, error)
}

// Handler handles POST /v1/report.
type Handler struct {
	ReportService reportBuilder
}

// NewHandler creates a new report Handler.
func NewHandler(svc reportBuilder) *Handler {
	return &Handler{ReportService: svc}
}

// Register registers the report endpoint with the Huma API.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "build-report",
		Method:      http.MethodPost,
		Path:        "/v1/report",
		Summary:     "Build report",
		Description: "Aggregates totals, monthly trends, category breakdowns, project budgets, balances and watchlists over the caller's projects.",
		Tags:        []string{"Reports"},
	}, h.handle)
}

func parseBuildReportInput(input *BuildReportInput) (service.ReportRequest, error) {
	var req service.ReportRequest
	var err error
	if req.From, err = shared.ParseOptionalTime("from", input.Body.From); err != nil {
		return req, err
	}
	if req.To, err = shared.ParseOptionalTime("to", input.Body.To); err != nil {
		return req, err
	}
	if req.ProjectIDs, err = shared.ParseUUIDs("projectIDs", input.Body.ProjectIDs); err != nil {
		return req, err
	}
	req.Currency = input.Body.Currency
	return req, nil
}

func (h *Handler) handle(ctx context.Context, input *BuildReportInput) (*BuildReportOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	req, err := parseBuildReportInput(input)
	if err != nil {
		return nil, err
	}

	stopTimer := shared.Timed(ctx, "buildReportMs")
	built, err := h.ReportService.Build(ctx, actor, req)
	stopTimer()
	if err != nil {
		return nil, shared.Error(err, "failed to build report")
	}

	shared.AddData(ctx, "reportMode", string(built.Mode))
	shared.AddData(ctx, "reportTransactions", built.Totals.Count)
	return &BuildReportOutput{Body: fromReport(built)}, nil
}
