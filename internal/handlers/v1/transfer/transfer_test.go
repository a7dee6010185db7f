package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/project-ledger/internal/auth"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/service"
)

type mockTransferService struct {
	mock.Mock
}

func (m *mockTransferService) Transfer(ctx context.Context, actor authz.Principal, req service.TransferRequest) (*service.TransferResult, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransferResult), args.Error(1)
}

var admin = authz.Principal{UserID: uuid.Must(uuid.NewV4()), IsAdmin: true}

func newTestAPI(t *testing.T, svc transferrer) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	api.UseMiddleware(func(ctx huma.Context, next func(huma.Context)) {
		next(huma.WithContext(ctx, auth.WithPrincipal(ctx.Context(), admin)))
	})
	NewHandler(svc).Register(api)
	return api
}

// -- parseTransferInput unit tests --

func TestParseTransferInput_ManualRate(t *testing.T) {
	from := uuid.Must(uuid.NewV4())
	to := uuid.Must(uuid.NewV4())

	req, err := parseTransferInput(&TransferInput{Body: TransferBody{
		FromAccountID: from.String(),
		ToAccountID:   to.String(),
		Amount:        "9000000",
		ManualRate:    "0.00004",
	}})
	require.NoError(t, err)
	assert.Equal(t, from, req.FromAccountID)
	assert.Equal(t, to, req.ToAccountID)
	require.NotNil(t, req.ManualRate)
	assert.True(t, req.ManualRate.Equal(decimal.RequireFromString("0.00004")))
	assert.True(t, req.Date.IsZero())
}

func TestParseTransferInput_BadAmount(t *testing.T) {
	_, err := parseTransferInput(&TransferInput{Body: TransferBody{
		FromAccountID: uuid.Must(uuid.NewV4()).String(),
		ToAccountID:   uuid.Must(uuid.NewV4()).String(),
		Amount:        "1,000",
	}})
	assert.Error(t, err)
}

// -- HTTP integration tests --

func TestHTTP_Transfer_Created(t *testing.T) {
	from := uuid.Must(uuid.NewV4())
	to := uuid.Must(uuid.NewV4())
	mockSvc := new(mockTransferService)
	mockSvc.On("Transfer", mock.Anything, admin, mock.MatchedBy(func(req service.TransferRequest) bool {
		return req.FromAccountID == from && req.ToAccountID == to && req.Amount.Equal(decimal.NewFromInt(9_000_000)) && req.ManualRate == nil
	})).Return(&service.TransferResult{
		Reference: "TRF-1",
		Rate:      decimal.RequireFromString("0.00004"),
		Received:  decimal.NewFromInt(360),
		Out:       models.Transaction{ID: uuid.Must(uuid.NewV4()), Type: models.TransactionOut, Status: models.StatusApproved, TransferRef: "TRF-1"},
		In:        models.Transaction{ID: uuid.Must(uuid.NewV4()), Type: models.TransactionIn, Status: models.StatusApproved, TransferRef: "TRF-1"},
	}, nil)

	resp := newTestAPI(t, mockSvc).Post("/v1/transfer", TransferBody{
		FromAccountID: from.String(),
		ToAccountID:   to.String(),
		Amount:        "9000000",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body TransferResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "TRF-1", body.Reference)
	assert.Equal(t, "360", body.Received)
	assert.Equal(t, "OUT", body.Out.Type)
	assert.Equal(t, "IN", body.In.Type)
	assert.Equal(t, body.Out.TransferRef, body.In.TransferRef)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_Transfer_Errors(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"insufficient": {domainerr.InsufficientBalance("source balance too low"), http.StatusUnprocessableEntity},
		"same account": {domainerr.Validation("toAccountID", "source and destination must differ"), http.StatusBadRequest},
		"not admin":    {domainerr.PermissionDenied("admin"), http.StatusForbidden},
		"rates down":   {domainerr.Upstream("rates", errors.New("timeout")), http.StatusBadGateway},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			mockSvc := new(mockTransferService)
			mockSvc.On("Transfer", mock.Anything, admin, mock.Anything).Return(nil, tc.err)

			resp := newTestAPI(t, mockSvc).Post("/v1/transfer", TransferBody{
				FromAccountID: uuid.Must(uuid.NewV4()).String(),
				ToAccountID:   uuid.Must(uuid.NewV4()).String(),
				Amount:        "10",
			})
			assert.Equal(t, tc.code, resp.Code)
		})
	}
}

func TestHTTP_Transfer_SchemaValidation(t *testing.T) {
	mockSvc := new(mockTransferService)
	resp := newTestAPI(t, mockSvc).Post("/v1/transfer", map[string]any{
		"fromAccountID": "abc",
		"toAccountID":   uuid.Must(uuid.NewV4()).String(),
		"amount":        "10",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "Transfer")
}
