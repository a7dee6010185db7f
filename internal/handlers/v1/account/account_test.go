package account

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

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

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) Create(ctx context.Context, actor authz.Principal, account models.Account) (*models.Account, error) {
	args := m.Called(ctx, actor, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) Get(ctx context.Context, actor authz.Principal, id uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) List(ctx context.Context, actor authz.Principal, projectIDs []uuid.UUID, cursor *service.Cursor) ([]models.Account, *service.Cursor, error) {
	args := m.Called(ctx, actor, projectIDs, cursor)
	var rows []models.Account
	if v := args.Get(0); v != nil {
		rows = v.([]models.Account)
	}
	var next *service.Cursor
	if v := args.Get(1); v != nil {
		next = v.(*service.Cursor)
	}
	return rows, next, args.Error(2)
}

func (m *mockAccountService) SetLocked(ctx context.Context, actor authz.Principal, id uuid.UUID, locked bool) (*models.Account, error) {
	args := m.Called(ctx, actor, id, locked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) VerifyBalance(ctx context.Context, actor authz.Principal, id uuid.UUID) (*service.BalanceCheck, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BalanceCheck), args.Error(1)
}

var caller = authz.Principal{UserID: uuid.Must(uuid.NewV4()), IsAdmin: true}

func newTestAPI(t *testing.T, svc *mockAccountService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	api.UseMiddleware(func(ctx huma.Context, next func(huma.Context)) {
		next(huma.WithContext(ctx, auth.WithPrincipal(ctx.Context(), caller)))
	})
	NewCreateAccountHandler(svc).Register(api)
	NewListAccountsHandler(svc).Register(api)
	NewGetAccountHandler(svc).Register(api)
	NewLockAccountHandler(svc).Register(api)
	NewVerifyBalanceHandler(svc).Register(api)
	return api
}

func sampleAccount() models.Account {
	return models.Account{
		ID:             uuid.Must(uuid.NewV4()),
		Name:           "Clinic cash",
		Currency:       "VND",
		Balance:        decimal.NewFromInt(10_000_000),
		OpeningBalance: decimal.NewFromInt(10_000_000),
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// -- parseCreateAccountInput unit tests --

func TestParseCreateAccountInput_DefaultsOpeningBalance(t *testing.T) {
	account, err := parseCreateAccountInput(&CreateAccountInput{Body: CreateAccountBody{
		Name:     " Petty cash ",
		Currency: "usd",
	}})
	require.NoError(t, err)
	assert.Equal(t, "Petty cash", account.Name)
	assert.Equal(t, "USD", account.Currency)
	assert.True(t, account.OpeningBalance.IsZero())
	assert.True(t, account.Balance.IsZero())
	assert.Nil(t, account.ProjectID)
}

func TestParseCreateAccountInput_InvalidBalance(t *testing.T) {
	_, err := parseCreateAccountInput(&CreateAccountInput{Body: CreateAccountBody{
		Name:           "Cash",
		Currency:       "USD",
		OpeningBalance: "lots",
	}})
	assert.Error(t, err)
}

// -- HTTP integration tests --

func TestHTTP_CreateAccount_Created(t *testing.T) {
	created := sampleAccount()
	mockSvc := new(mockAccountService)
	mockSvc.On("Create", mock.Anything, caller, mock.MatchedBy(func(a models.Account) bool {
		return a.Name == "Clinic cash" && a.Currency == "VND" && a.OpeningBalance.Equal(decimal.NewFromInt(10_000_000))
	})).Return(&created, nil)

	resp := newTestAPI(t, mockSvc).Post("/v1/account", CreateAccountBody{
		Name:           "Clinic cash",
		Currency:       "VND",
		OpeningBalance: "10000000",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body Account
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, created.ID.String(), body.ID)
	assert.Equal(t, "10000000", body.Balance)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_CreateAccount_SchemaValidation(t *testing.T) {
	mockSvc := new(mockAccountService)
	resp := newTestAPI(t, mockSvc).Post("/v1/account", map[string]any{"name": "", "currency": "US"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "Create")
}

func TestHTTP_CreateAccount_Denied(t *testing.T) {
	mockSvc := new(mockAccountService)
	mockSvc.On("Create", mock.Anything, caller, mock.Anything).Return(nil, domainerr.PermissionDenied("manage_accounts"))

	resp := newTestAPI(t, mockSvc).Post("/v1/account", CreateAccountBody{Name: "Cash", Currency: "USD"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestHTTP_ListAccounts(t *testing.T) {
	projectID := uuid.Must(uuid.NewV4())
	rows := []models.Account{sampleAccount()}
	mockSvc := new(mockAccountService)
	mockSvc.On("List", mock.Anything, caller, []uuid.UUID{projectID}, &service.Cursor{Position: 0, Limit: 1}).
		Return(rows, &service.Cursor{Position: 1, Limit: 1}, nil)

	resp := newTestAPI(t, mockSvc).Get("/v1/accounts?limit=1&projectID=" + projectID.String())

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListAccountsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Len(t, body.Accounts, 1)
	require.NotNil(t, body.NextCursor)
	assert.Equal(t, 1, body.NextCursor.Position)
}

func TestHTTP_LockAccount(t *testing.T) {
	locked := sampleAccount()
	locked.IsLocked = true
	mockSvc := new(mockAccountService)
	mockSvc.On("SetLocked", mock.Anything, caller, locked.ID, true).Return(&locked, nil)

	resp := newTestAPI(t, mockSvc).Put("/v1/account/"+locked.ID.String()+"/lock", map[string]any{"locked": true})

	assert.Equal(t, http.StatusOK, resp.Code)
	var body Account
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.IsLocked)
}

func TestHTTP_GetAccount_NotFound(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	mockSvc := new(mockAccountService)
	mockSvc.On("Get", mock.Anything, caller, id).Return(nil, domainerr.NotFound("account", id))

	resp := newTestAPI(t, mockSvc).Get("/v1/account/" + id.String())
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHTTP_VerifyBalance_ReportsDrift(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	mockSvc := new(mockAccountService)
	mockSvc.On("VerifyBalance", mock.Anything, caller, id).Return(&service.BalanceCheck{
		AccountID:    id,
		Stored:       decimal.NewFromInt(120),
		Computed:     decimal.NewFromInt(100),
		Drift:        decimal.NewFromInt(20),
		Transactions: 3,
	}, nil)

	resp := newTestAPI(t, mockSvc).Get("/v1/account/" + id.String() + "/verify")

	assert.Equal(t, http.StatusOK, resp.Code)
	var body BalanceCheck
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.False(t, body.Consistent)
	assert.Equal(t, "20", body.Drift)
	assert.Equal(t, 3, body.Transactions)
}
