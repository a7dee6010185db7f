package transaction

import (
	"context"
	"encoding/json"
	"errors"
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

	"github.com/carson-networks/project-ledger/internal/attachment"
	"github.com/carson-networks/project-ledger/internal/auth"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/operator/actions"
	"github.com/carson-networks/project-ledger/internal/service"
)

// mockTransactionService is a mock for every transaction handler interface.
type mockTransactionService struct {
	mock.Mock
}

func (m *mockTransactionService) Create(ctx context.Context, actor authz.Principal, tx models.Transaction, files []attachment.File) (*service.CreatedTransaction, error) {
	args := m.Called(ctx, actor, tx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreatedTransaction), args.Error(1)
}

func (m *mockTransactionService) Approve(ctx context.Context, actor authz.Principal, id uuid.UUID) (*service.CreatedTransaction, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreatedTransaction), args.Error(1)
}

func (m *mockTransactionService) Reject(ctx context.Context, actor authz.Principal, id uuid.UUID, reason string) (*models.Transaction, error) {
	args := m.Called(ctx, actor, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionService) Edit(ctx context.Context, actor authz.Principal, id uuid.UUID, patch actions.TransactionPatch) (*models.Transaction, error) {
	args := m.Called(ctx, actor, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionService) Get(ctx context.Context, actor authz.Principal, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionService) List(ctx context.Context, actor authz.Principal, filter service.TransactionFilter, cursor *service.Cursor) ([]models.Transaction, *service.Cursor, error) {
	args := m.Called(ctx, actor, filter, cursor)
	var rows []models.Transaction
	if v := args.Get(0); v != nil {
		rows = v.([]models.Transaction)
	}
	var next *service.Cursor
	if v := args.Get(1); v != nil {
		next = v.(*service.Cursor)
	}
	return rows, next, args.Error(2)
}

func (m *mockTransactionService) Pending(ctx context.Context, actor authz.Principal) ([]models.Transaction, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

var caller = authz.Principal{UserID: uuid.Must(uuid.NewV4())}

// newTestAPI registers every transaction handler behind a middleware that
// authenticates requests as caller.
func newTestAPI(t *testing.T, svc *mockTransactionService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	api.UseMiddleware(func(ctx huma.Context, next func(huma.Context)) {
		next(huma.WithContext(ctx, auth.WithPrincipal(ctx.Context(), caller)))
	})
	NewCreateTransactionHandler(svc).Register(api)
	NewDecideTransactionHandler(svc).Register(api)
	NewEditTransactionHandler(svc).Register(api)
	NewGetTransactionHandler(svc).Register(api)
	NewListTransactionsHandler(svc).Register(api)
	return api
}

func sampleTransaction(status models.TransactionStatus) models.Transaction {
	projectID := uuid.Must(uuid.NewV4())
	return models.Transaction{
		ID:        uuid.Must(uuid.NewV4()),
		Type:      models.TransactionOut,
		Amount:    decimal.NewFromInt(6_000_000),
		Currency:  "VND",
		Category:  "Fuel",
		AccountID: uuid.Must(uuid.NewV4()),
		ProjectID: &projectID,
		Status:    status,
		CreatedBy: caller.UserID,
		Date:      time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

// -- parseCreateTransactionInput unit tests --

func TestParseCreateTransactionInput_ValidInput(t *testing.T) {
	accountID := uuid.Must(uuid.NewV4())
	input := &CreateTransactionInput{Body: CreateTransactionBody{
		Type:        "out",
		Amount:      "150000",
		Currency:    "vnd",
		AccountID:   accountID.String(),
		Category:    " Fuel ",
		Date:        "2025-03-02",
		Attachments: []AttachmentBody{{Name: "receipt.jpg", ContentType: "image/jpeg", Data: []byte{1, 2}}},
	}}

	tx, files, err := parseCreateTransactionInput(input)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionOut, tx.Type)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(150000)))
	assert.Equal(t, "VND", tx.Currency)
	assert.Equal(t, accountID, tx.AccountID)
	assert.Nil(t, tx.ProjectID)
	assert.Equal(t, "Fuel", tx.Category)
	assert.True(t, tx.Date.Equal(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)))
	require.Len(t, files, 1)
	assert.Equal(t, "receipt.jpg", files[0].Name)
}

func TestParseCreateTransactionInput_WithoutDate(t *testing.T) {
	input := &CreateTransactionInput{Body: CreateTransactionBody{
		Type:      "IN",
		Amount:    "10",
		Currency:  "USD",
		AccountID: uuid.Must(uuid.NewV4()).String(),
	}}

	tx, files, err := parseCreateTransactionInput(input)
	require.NoError(t, err)
	assert.True(t, tx.Date.IsZero())
	assert.Empty(t, files)
}

func TestParseCreateTransactionInput_InvalidFields(t *testing.T) {
	valid := CreateTransactionBody{Type: "IN", Amount: "10", Currency: "USD", AccountID: uuid.Must(uuid.NewV4()).String()}

	badAmount := valid
	badAmount.Amount = "ten"
	badProject := valid
	badProject.ProjectID = "nope"
	badDate := valid
	badDate.Date = "yesterday"

	for name, body := range map[string]CreateTransactionBody{
		"amount":  badAmount,
		"project": badProject,
		"date":    badDate,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseCreateTransactionInput(&CreateTransactionInput{Body: body})
			assert.Error(t, err)
		})
	}
}

// -- HTTP integration tests --

func TestHTTP_CreateTransaction_Created(t *testing.T) {
	stored := sampleTransaction(models.StatusPending)
	mockSvc := new(mockTransactionService)
	mockSvc.On("Create", mock.Anything, caller, mock.MatchedBy(func(tx models.Transaction) bool {
		return tx.AccountID == stored.AccountID &&
			tx.Amount.Equal(decimal.NewFromInt(6_000_000)) &&
			tx.Type == models.TransactionOut
	}), mock.Anything).Return(&service.CreatedTransaction{Transaction: stored, Warnings: []string{"BALANCE_BELOW_ZERO"}}, nil)

	resp := newTestAPI(t, mockSvc).Post("/v1/transaction", CreateTransactionBody{
		Type:      "OUT",
		Amount:    "6000000",
		Currency:  "VND",
		AccountID: stored.AccountID.String(),
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body CreateTransactionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, stored.ID.String(), body.Transaction.ID)
	assert.Equal(t, "PENDING", body.Transaction.Status)
	assert.Equal(t, []string{"BALANCE_BELOW_ZERO"}, body.Warnings)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_CreateTransaction_MissingAccount(t *testing.T) {
	mockSvc := new(mockTransactionService)

	resp := newTestAPI(t, mockSvc).Post("/v1/transaction", map[string]any{
		"type":     "IN",
		"amount":   "10",
		"currency": "USD",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "Create")
}

func TestHTTP_CreateTransaction_ErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"validation":   {domainerr.Validation("amount", "amount must be positive"), http.StatusBadRequest},
		"denied":       {domainerr.PermissionDenied("create_expense"), http.StatusForbidden},
		"not found":    {domainerr.NotFound("account", uuid.Nil), http.StatusNotFound},
		"insufficient": {domainerr.InsufficientBalance("balance too low"), http.StatusUnprocessableEntity},
		"upstream":     {domainerr.Upstream("attachments", errors.New("disk full")), http.StatusBadGateway},
		"internal":     {errors.New("boom"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			mockSvc := new(mockTransactionService)
			mockSvc.On("Create", mock.Anything, caller, mock.Anything, mock.Anything).Return(nil, tc.err)

			resp := newTestAPI(t, mockSvc).Post("/v1/transaction", CreateTransactionBody{
				Type:      "IN",
				Amount:    "10",
				Currency:  "USD",
				AccountID: uuid.Must(uuid.NewV4()).String(),
			})
			assert.Equal(t, tc.code, resp.Code)
		})
	}
}

func TestHTTP_ApproveTransaction(t *testing.T) {
	approved := sampleTransaction(models.StatusApproved)
	mockSvc := new(mockTransactionService)
	mockSvc.On("Approve", mock.Anything, caller, approved.ID).
		Return(&service.CreatedTransaction{Transaction: approved}, nil)

	resp := newTestAPI(t, mockSvc).Post("/v1/transaction/" + approved.ID.String() + "/approve")

	assert.Equal(t, http.StatusOK, resp.Code)
	var body CreateTransactionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "APPROVED", body.Transaction.Status)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_ApproveTransaction_AlreadyDecided(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	mockSvc := new(mockTransactionService)
	mockSvc.On("Approve", mock.Anything, caller, id).
		Return(nil, domainerr.InvalidStateTransition("transaction is APPROVED"))

	resp := newTestAPI(t, mockSvc).Post("/v1/transaction/" + id.String() + "/approve")
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestHTTP_RejectTransaction(t *testing.T) {
	rejected := sampleTransaction(models.StatusRejected)
	rejected.RejectionReason = "duplicate"
	mockSvc := new(mockTransactionService)
	mockSvc.On("Reject", mock.Anything, caller, rejected.ID, "duplicate").Return(&rejected, nil)

	resp := newTestAPI(t, mockSvc).Post("/v1/transaction/"+rejected.ID.String()+"/reject", map[string]any{
		"reason": "duplicate",
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	var body CreateTransactionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "duplicate", body.Transaction.RejectionReason)
}

func TestHTTP_DecideTransaction_InvalidID(t *testing.T) {
	mockSvc := new(mockTransactionService)
	resp := newTestAPI(t, mockSvc).Post("/v1/transaction/not-a-uuid/approve")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "Approve")
}

func TestHTTP_EditTransaction(t *testing.T) {
	edited := sampleTransaction(models.StatusPending)
	mockSvc := new(mockTransactionService)
	mockSvc.On("Edit", mock.Anything, caller, edited.ID, mock.MatchedBy(func(p actions.TransactionPatch) bool {
		return p.Amount != nil && p.Amount.Equal(decimal.NewFromInt(42)) &&
			p.Description != nil && *p.Description == "fixed" &&
			p.AccountID == nil && p.Date == nil
	})).Return(&edited, nil)

	resp := newTestAPI(t, mockSvc).Patch("/v1/transaction/"+edited.ID.String(), map[string]any{
		"amount":      "42",
		"description": "fixed",
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_GetTransaction_NotFound(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	mockSvc := new(mockTransactionService)
	mockSvc.On("Get", mock.Anything, caller, id).Return(nil, domainerr.NotFound("transaction", id))

	resp := newTestAPI(t, mockSvc).Get("/v1/transaction/" + id.String())
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHTTP_ListTransactions_PassesFiltersAndCursor(t *testing.T) {
	projectID := uuid.Must(uuid.NewV4())
	rows := []models.Transaction{sampleTransaction(models.StatusApproved)}
	mockSvc := new(mockTransactionService)
	mockSvc.On("List", mock.Anything, caller, mock.MatchedBy(func(f service.TransactionFilter) bool {
		return len(f.ProjectIDs) == 1 && f.ProjectIDs[0] == projectID &&
			f.Status != nil && *f.Status == models.StatusApproved &&
			f.From != nil && f.To == nil
	}), &service.Cursor{Position: 20, Limit: 20}).Return(rows, &service.Cursor{Position: 40, Limit: 20}, nil)

	resp := newTestAPI(t, mockSvc).Post("/v1/transaction/list", map[string]any{
		"projectIDs": []string{projectID.String()},
		"status":     "APPROVED",
		"from":       "2025-01-01",
		"cursor":     map[string]any{"position": 20, "limit": 20},
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListTransactionsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Len(t, body.Transactions, 1)
	require.NotNil(t, body.NextCursor)
	assert.Equal(t, 40, body.NextCursor.Position)
	mockSvc.AssertExpectations(t)
}

func TestHTTP_ListTransactions_LastPage(t *testing.T) {
	mockSvc := new(mockTransactionService)
	mockSvc.On("List", mock.Anything, caller, service.TransactionFilter{ProjectIDs: []uuid.UUID{}}, (*service.Cursor)(nil)).
		Return([]models.Transaction{}, nil, nil)

	resp := newTestAPI(t, mockSvc).Post("/v1/transaction/list", map[string]any{})

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListTransactionsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Empty(t, body.Transactions)
	assert.Nil(t, body.NextCursor)
}

func TestHTTP_ListTransactions_InvalidStatus(t *testing.T) {
	mockSvc := new(mockTransactionService)
	resp := newTestAPI(t, mockSvc).Post("/v1/transaction/list", map[string]any{"status": "LOST"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	mockSvc.AssertNotCalled(t, "List")
}

func TestHTTP_PendingTransactions(t *testing.T) {
	rows := []models.Transaction{sampleTransaction(models.StatusPending), sampleTransaction(models.StatusPending)}
	mockSvc := new(mockTransactionService)
	mockSvc.On("Pending", mock.Anything, caller).Return(rows, nil)

	resp := newTestAPI(t, mockSvc).Get("/v1/transactions/pending")

	assert.Equal(t, http.StatusOK, resp.Code)
	var body struct {
		Transactions []Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Len(t, body.Transactions, 2)
}
