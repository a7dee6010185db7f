package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/project-ledger/internal/activity"
	"github.com/carson-networks/project-ledger/internal/attachment"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/operator"
	"github.com/carson-networks/project-ledger/internal/operator/actions"
	"github.com/carson-networks/project-ledger/internal/report"
	"github.com/carson-networks/project-ledger/internal/storage"
	"github.com/carson-networks/project-ledger/internal/storage/memory"
)

var fixedNow = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

// -- Mocks --

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, file attachment.File) (string, error) {
	args := m.Called(ctx, file)
	return args.String(0), args.Error(1)
}

func (m *mockUploader) Delete(ctx context.Context, link string) error {
	return m.Called(ctx, link).Error(0)
}

type recorded struct {
	actorID  uuid.UUID
	action   string
	entityID uuid.UUID
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []recorded
}

func (c *captureRecorder) Record(actorID uuid.UUID, action, _ string, entityID uuid.UUID, _ map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, recorded{actorID: actorID, action: action, entityID: entityID})
}

func (c *captureRecorder) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.action
	}
	return out
}

// -- Fixture --

type fixture struct {
	t        *testing.T
	svc      *Service
	store    *storage.Storage
	uploader *mockUploader
	activity *captureRecorder

	admin   authz.Principal
	owner   authz.Principal
	member  authz.Principal
	viewer  authz.Principal
	outside authz.Principal

	project models.Project
	vnd     models.Account
	usd     models.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.NewStorage()
	op := operator.NewOperatorDelegator(store, 4, logger)
	op.Start()
	t.Cleanup(op.Stop)

	f := &fixture{
		t:        t,
		store:    store,
		uploader: &mockUploader{},
		activity: &captureRecorder{},
		admin:    authz.Principal{UserID: uuid.Must(uuid.NewV4()), IsAdmin: true},
		owner:    authz.Principal{UserID: uuid.Must(uuid.NewV4())},
		member:   authz.Principal{UserID: uuid.Must(uuid.NewV4())},
		viewer:   authz.Principal{UserID: uuid.Must(uuid.NewV4())},
		outside:  authz.Principal{UserID: uuid.Must(uuid.NewV4())},
	}
	f.svc = NewService(Deps{
		Storage:  store,
		Operator: op,
		Activity: f.activity,
		Rates: currency.StaticProvider{Table: currency.RateTable{
			"USD": decimal.NewFromInt(1),
			"VND": decimal.NewFromInt(25_000),
		}},
		Uploader:      f.uploader,
		Thresholds:    currency.DefaultThresholds(),
		BaseCurrency:  currency.USD,
		WatchlistSize: 5,
		Logger:        logger,
		Now:           func() time.Time { return fixedNow },
	})

	ctx := context.Background()
	for _, p := range []authz.Principal{f.admin, f.owner, f.member, f.viewer, f.outside} {
		_, err := f.svc.Reference.CreateUser(ctx, f.admin, models.User{ID: p.UserID, Name: p.UserID.String(), IsAdmin: p.IsAdmin})
		require.NoError(t, err)
	}
	project, err := f.svc.Project.Create(ctx, f.admin, models.Project{
		Name:     "Clinic",
		Currency: "VND",
		Budget:   decimal.NewFromInt(50_000_000),
		Members: []authz.Member{
			{UserID: f.owner.UserID, Role: authz.RoleOwner},
			{UserID: f.member.UserID, Role: authz.RoleMember},
			{UserID: f.viewer.UserID, Role: authz.RoleViewer},
		},
	})
	require.NoError(t, err)
	f.project = *project

	f.vnd = f.account("Site cash", "VND", 10_000_000)
	f.usd = f.account("Dollar float", "USD", 0)
	return f
}

func (f *fixture) account(name, code string, opening int64) models.Account {
	f.t.Helper()
	projectID := f.project.ID
	acc, err := f.svc.Account.Create(context.Background(), f.owner, models.Account{
		Name:           name,
		Currency:       code,
		OpeningBalance: decimal.NewFromInt(opening),
		ProjectID:      &projectID,
	})
	require.NoError(f.t, err)
	return *acc
}

func (f *fixture) balance(id uuid.UUID) decimal.Decimal {
	f.t.Helper()
	acc, err := f.store.Read.Accounts.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return acc.Balance
}

func (f *fixture) expense(actor authz.Principal, account models.Account, amount int64) (*CreatedTransaction, error) {
	return f.svc.Transaction.Create(context.Background(), actor, models.Transaction{
		Type:      models.TransactionOut,
		Amount:    decimal.NewFromInt(amount),
		Currency:  account.Currency,
		Category:  "Materials",
		AccountID: account.ID,
	}, nil)
}

// -- TransferService tests --

func TestTransfer_ManualRateAcrossCurrencies(t *testing.T) {
	f := newFixture(t)
	rate := decimal.RequireFromString("0.00004")

	res, err := f.svc.Transfer.Transfer(context.Background(), f.admin, TransferRequest{
		FromAccountID: f.vnd.ID,
		ToAccountID:   f.usd.ID,
		Amount:        decimal.NewFromInt(1_000_000),
		ManualRate:    &rate,
	})
	require.NoError(t, err)

	assert.True(t, f.balance(f.vnd.ID).Equal(decimal.NewFromInt(9_000_000)))
	assert.True(t, f.balance(f.usd.ID).Equal(decimal.NewFromInt(40)))
	assert.True(t, res.Received.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, res.Reference, res.Out.TransferRef)
	assert.Equal(t, res.Reference, res.In.TransferRef)
	assert.Equal(t, "VND", res.Out.Currency)
	assert.Equal(t, "USD", res.In.Currency)

	legs, err := f.store.Read.Transactions.List(context.Background(), &storage.TransactionFilter{AllProjects: true})
	require.NoError(t, err)
	assert.Len(t, legs, 2)
	assert.Contains(t, f.activity.actions(), activity.ActionTransferCreate)
}

func TestTransfer_UsesRateTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Transaction.Create(ctx, f.owner, models.Transaction{
		Type:      models.TransactionIn,
		Amount:    decimal.NewFromInt(100),
		Currency:  "USD",
		AccountID: f.usd.ID,
	}, nil)
	require.NoError(t, err)

	res, err := f.svc.Transfer.Transfer(ctx, f.admin, TransferRequest{
		FromAccountID: f.usd.ID,
		ToAccountID:   f.vnd.ID,
		Amount:        decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.True(t, res.Rate.Equal(decimal.NewFromInt(25_000)))
	assert.True(t, f.balance(f.vnd.ID).Equal(decimal.NewFromInt(10_250_000)))
	assert.True(t, f.balance(f.usd.ID).Equal(decimal.NewFromInt(90)))
}

func TestTransfer_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rate := decimal.RequireFromString("0.00004")

	_, err := f.svc.Transfer.Transfer(ctx, f.owner, TransferRequest{
		FromAccountID: f.vnd.ID, ToAccountID: f.usd.ID, Amount: decimal.NewFromInt(1), ManualRate: &rate,
	})
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied, "only administrators transfer")

	_, err = f.svc.Transfer.Transfer(ctx, f.admin, TransferRequest{
		FromAccountID: f.vnd.ID, ToAccountID: f.usd.ID, Amount: decimal.NewFromInt(20_000_000), ManualRate: &rate,
	})
	assert.ErrorIs(t, err, domainerr.ErrInsufficientBalance)

	_, err = f.svc.Transfer.Transfer(ctx, f.admin, TransferRequest{
		FromAccountID: f.vnd.ID, ToAccountID: f.vnd.ID, Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domainerr.ErrInvalidStateTransition)

	_, err = f.svc.Transfer.Transfer(ctx, f.admin, TransferRequest{
		FromAccountID: f.vnd.ID, ToAccountID: uuid.Must(uuid.NewV4()), Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domainerr.ErrValidation)

	assert.True(t, f.balance(f.vnd.ID).Equal(decimal.NewFromInt(10_000_000)), "failed transfers leave balances alone")
}

func TestTransfer_MissingRateNeedsManualRate(t *testing.T) {
	f := newFixture(t)
	khr := f.account("Riel box", "KHR", 1_000)

	_, err := f.svc.Transfer.Transfer(context.Background(), f.admin, TransferRequest{
		FromAccountID: khr.ID,
		ToAccountID:   f.usd.ID,
		Amount:        decimal.NewFromInt(500),
	})
	var de *domainerr.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domainerr.KindValidation, de.Kind)
	assert.Equal(t, "manualRate", de.Field)
}

type failingRates struct{}

func (failingRates) Rates(context.Context) (currency.RateTable, error) {
	return nil, errors.New("connection refused")
}

func TestTransfer_RateProviderFailureIsUpstream(t *testing.T) {
	f := newFixture(t)
	f.svc.Transfer.deps.Rates = failingRates{}

	_, err := f.svc.Transfer.Transfer(context.Background(), f.admin, TransferRequest{
		FromAccountID: f.vnd.ID,
		ToAccountID:   f.usd.ID,
		Amount:        decimal.NewFromInt(1_000),
	})
	assert.ErrorIs(t, err, domainerr.ErrUpstream)
}

// -- TransactionService tests --

func TestCreate_AboveCeilingWaitsForApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.expense(f.member, f.vnd, 6_000_000)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Transaction.Status)
	assert.True(t, f.balance(f.vnd.ID).Equal(decimal.NewFromInt(10_000_000)))

	approved, err := f.svc.Transaction.Approve(ctx, f.owner, created.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Transaction.Status)
	assert.True(t, f.balance(f.vnd.ID).Equal(decimal.NewFromInt(4_000_000)))

	_, err = f.svc.Transaction.Approve(ctx, f.owner, created.Transaction.ID)
	assert.ErrorIs(t, err, domainerr.ErrInvalidStateTransition)
	assert.True(t, f.balance(f.vnd.ID).Equal(decimal.NewFromInt(4_000_000)))
}

func TestReject_LeavesBalance(t *testing.T) {
	f := newFixture(t)
	created, err := f.expense(f.member, f.vnd, 6_000_000)
	require.NoError(t, err)

	rejected, err := f.svc.Transaction.Reject(context.Background(), f.owner, created.Transaction.ID, "duplicate invoice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "duplicate invoice", rejected.RejectionReason)
	assert.True(t, f.balance(f.vnd.ID).Equal(decimal.NewFromInt(10_000_000)))
}

func TestApprove_ConcurrentCallsApplyOnce(t *testing.T) {
	f := newFixture(t)
	created, err := f.expense(f.member, f.vnd, 6_000_000)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Transaction.Approve(context.Background(), f.owner, created.Transaction.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domainerr.ErrInvalidStateTransition)
	}
	assert.Equal(t, 1, succeeded)
	assert.True(t, f.balance(f.vnd.ID).Equal(decimal.NewFromInt(4_000_000)))
}

func TestApprove_MemberLacksPermission(t *testing.T) {
	f := newFixture(t)
	created, err := f.expense(f.member, f.vnd, 6_000_000)
	require.NoError(t, err)

	_, err = f.svc.Transaction.Approve(context.Background(), f.member, created.Transaction.ID)
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)
}

func TestCreate_OverdrawWarns(t *testing.T) {
	f := newFixture(t)
	created, err := f.expense(f.member, f.usd, 10)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, created.Transaction.Status)
	require.Len(t, created.Warnings, 1)
	assert.Contains(t, created.Warnings[0], actions.WarningBalanceBelowZero)
	assert.True(t, f.balance(f.usd.ID).Equal(decimal.NewFromInt(-10)))
}

func TestCreate_UploadsAttachments(t *testing.T) {
	f := newFixture(t)
	file := attachment.File{Name: "receipt.png", ContentType: "image/png", Data: []byte("png")}
	f.uploader.On("Upload", mock.Anything, file).Return("http://files/receipt.png", nil).Once()

	created, err := f.svc.Transaction.Create(context.Background(), f.member, models.Transaction{
		Type:      models.TransactionOut,
		Amount:    decimal.NewFromInt(1_000),
		Currency:  "VND",
		AccountID: f.vnd.ID,
	}, []attachment.File{file})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://files/receipt.png"}, created.Transaction.Attachments)
	f.uploader.AssertExpectations(t)
}

func TestCreate_NoUploadWithoutPermission(t *testing.T) {
	f := newFixture(t)
	file := attachment.File{Name: "receipt.png", Data: []byte("png")}

	_, err := f.svc.Transaction.Create(context.Background(), f.viewer, models.Transaction{
		Type:      models.TransactionOut,
		Amount:    decimal.NewFromInt(1_000),
		Currency:  "VND",
		AccountID: f.vnd.ID,
	}, []attachment.File{file})
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)
	f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestCreate_FailedUploadPersistsNothing(t *testing.T) {
	f := newFixture(t)
	file := attachment.File{Name: "receipt.png", Data: []byte("png")}
	f.uploader.On("Upload", mock.Anything, file).Return("", domainerr.Upstream("attachments", errors.New("disk full"))).Once()

	_, err := f.svc.Transaction.Create(context.Background(), f.member, models.Transaction{
		Type:      models.TransactionOut,
		Amount:    decimal.NewFromInt(1_000),
		Currency:  "VND",
		AccountID: f.vnd.ID,
	}, []attachment.File{file})
	assert.ErrorIs(t, err, domainerr.ErrUpstream)

	rows, err := f.store.Read.Transactions.List(context.Background(), &storage.TransactionFilter{AllProjects: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreate_RejectedTransactionDiscardsUploads(t *testing.T) {
	f := newFixture(t)
	file := attachment.File{Name: "receipt.png", Data: []byte("png")}
	f.uploader.On("Upload", mock.Anything, file).Return("http://files/receipt.png", nil).Once()
	f.uploader.On("Delete", mock.Anything, "http://files/receipt.png").Return(nil).Once()

	_, err := f.svc.Transaction.Create(context.Background(), f.member, models.Transaction{
		Type:      models.TransactionOut,
		Amount:    decimal.NewFromInt(1_000),
		Currency:  "USD",
		AccountID: f.vnd.ID,
	}, []attachment.File{file})
	assert.ErrorIs(t, err, domainerr.ErrValidation, "currency does not match the account")

	f.uploader.AssertExpectations(t)
	rows, err := f.store.Read.Transactions.List(context.Background(), &storage.TransactionFilter{AllProjects: true})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEdit_OnlyPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.expense(f.member, f.vnd, 6_000_000)
	require.NoError(t, err)

	amount := decimal.NewFromInt(7_000_000)
	edited, err := f.svc.Transaction.Edit(ctx, f.member, created.Transaction.ID, actions.TransactionPatch{Amount: &amount})
	require.NoError(t, err)
	assert.True(t, edited.Amount.Equal(amount))

	_, err = f.svc.Transaction.Approve(ctx, f.owner, created.Transaction.ID)
	require.NoError(t, err)
	_, err = f.svc.Transaction.Edit(ctx, f.member, created.Transaction.ID, actions.TransactionPatch{Amount: &amount})
	assert.ErrorIs(t, err, domainerr.ErrInvalidStateTransition)
}

func TestList_PagesAndScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.expense(f.member, f.vnd, 1_000)
		require.NoError(t, err)
	}

	first, next, err := f.svc.Transaction.List(ctx, f.viewer, TransactionFilter{}, &Cursor{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first, 2)
	require.NotNil(t, next)
	assert.Equal(t, 2, next.Position)

	second, next, err := f.svc.Transaction.List(ctx, f.viewer, TransactionFilter{}, next)
	require.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Nil(t, next)

	none, _, err := f.svc.Transaction.List(ctx, f.outside, TransactionFilter{}, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, _, err = f.svc.Transaction.List(ctx, f.outside, TransactionFilter{ProjectIDs: []uuid.UUID{f.project.ID}}, nil)
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)

	_, err = f.svc.Transaction.Get(ctx, f.outside, first[0].ID)
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)
}

func TestPending_OldestFirstForApprovers(t *testing.T) {
	f := newFixture(t)
	a, err := f.expense(f.member, f.vnd, 6_000_000)
	require.NoError(t, err)
	f.svc.Transaction.deps.Now = func() time.Time { return fixedNow.Add(time.Hour) }
	b, err := f.expense(f.member, f.vnd, 7_000_000)
	require.NoError(t, err)

	pending, err := f.svc.Transaction.Pending(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, a.Transaction.ID, pending[0].ID)
	assert.Equal(t, b.Transaction.ID, pending[1].ID)

	none, err := f.svc.Transaction.Pending(context.Background(), f.member)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// -- AccountService tests --

func TestVerifyBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.expense(f.member, f.vnd, 6_000_000)
	require.NoError(t, err)
	_, err = f.svc.Transaction.Approve(ctx, f.owner, created.Transaction.ID)
	require.NoError(t, err)
	_, err = f.expense(f.member, f.vnd, 1_000)
	require.NoError(t, err)

	rate := decimal.RequireFromString("0.00004")
	_, err = f.svc.Transfer.Transfer(ctx, f.admin, TransferRequest{
		FromAccountID: f.vnd.ID,
		ToAccountID:   f.usd.ID,
		Amount:        decimal.NewFromInt(1_000_000),
		ManualRate:    &rate,
	})
	require.NoError(t, err)

	check, err := f.svc.Account.VerifyBalance(ctx, f.viewer, f.vnd.ID)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.Equal(t, 3, check.Transactions)
	assert.True(t, check.Computed.Equal(decimal.NewFromInt(2_999_000)))

	usd, err := f.svc.Account.VerifyBalance(ctx, f.viewer, f.usd.ID)
	require.NoError(t, err)
	assert.True(t, usd.Consistent, "transfer in replays onto the destination")
	assert.Equal(t, 1, usd.Transactions)
	assert.True(t, usd.Computed.Equal(decimal.NewFromInt(40)))

	w, err := f.store.Write(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Account.UpdateBalance(ctx, f.vnd.ID, decimal.NewFromInt(1)))
	require.NoError(t, w.Commit())

	check, err = f.svc.Account.VerifyBalance(ctx, f.viewer, f.vnd.ID)
	require.NoError(t, err)
	assert.False(t, check.Consistent)
	assert.True(t, check.Drift.Equal(decimal.NewFromInt(-2_998_999)))
}

func TestSetLocked_BlocksTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Account.SetLocked(ctx, f.owner, f.vnd.ID, true)
	require.NoError(t, err)

	_, err = f.expense(f.member, f.vnd, 1_000)
	assert.ErrorIs(t, err, domainerr.ErrInvalidStateTransition)

	_, err = f.svc.Account.SetLocked(ctx, f.member, f.vnd.ID, false)
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)
}

func TestAccountList_ScopedToProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	visible, next, err := f.svc.Account.List(ctx, f.viewer, nil, nil)
	require.NoError(t, err)
	assert.Len(t, visible, 2)
	assert.Nil(t, next)

	hidden, _, err := f.svc.Account.List(ctx, f.outside, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, hidden)

	_, err = f.svc.Account.Get(ctx, f.outside, f.vnd.ID)
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)
}

// -- ProjectService tests --

func TestProject_RoleChangeResetsToggles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, granted, err := f.svc.Project.TogglePermission(ctx, f.owner, f.project.ID, f.member.UserID, authz.PermApproveTransactions)
	require.NoError(t, err)
	assert.True(t, granted)

	access, err := f.svc.Project.Access(ctx, f.member, f.project.ID, f.member.UserID)
	require.NoError(t, err)
	assert.True(t, access.Permissions.Has(authz.PermApproveTransactions))
	assert.True(t, access.Customized)

	_, err = f.svc.Project.ChangeRole(ctx, f.owner, f.project.ID, f.member.UserID, authz.RoleViewer)
	require.NoError(t, err)

	access, err = f.svc.Project.Access(ctx, f.owner, f.project.ID, f.member.UserID)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleViewer, access.Role)
	assert.Equal(t, authz.RoleViewer.DefaultPermissions(), access.Permissions)
	assert.False(t, access.Customized)
}

func TestProject_MembershipAndVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	projects, err := f.svc.Project.List(ctx, f.outside)
	require.NoError(t, err)
	assert.Empty(t, projects)
	_, err = f.svc.Project.Get(ctx, f.outside, f.project.ID)
	assert.ErrorIs(t, err, domainerr.ErrNotFound)

	_, err = f.svc.Project.AddMember(ctx, f.member, f.project.ID, f.outside.UserID, authz.RoleViewer)
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)

	_, err = f.svc.Project.AddMember(ctx, f.owner, f.project.ID, f.outside.UserID, authz.RoleViewer)
	require.NoError(t, err)
	projects, err = f.svc.Project.List(ctx, f.outside)
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	_, err = f.svc.Project.Access(ctx, f.outside, f.project.ID, f.member.UserID)
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied, "inspecting others needs manage_members")

	require.NoError(t, f.svc.Project.RemoveMember(ctx, f.owner, f.project.ID, f.outside.UserID))
	assert.ErrorIs(t, f.svc.Project.RemoveMember(ctx, f.owner, f.project.ID, f.outside.UserID), domainerr.ErrNotFound)

	updated, err := f.svc.Project.SetStatus(ctx, f.owner, f.project.ID, models.ProjectPaused)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectPaused, updated.Status)
}

// -- ReferenceService tests --

func TestReference_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Reference.CreateFund(ctx, f.owner, models.Fund{Name: "Relief"})
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)

	fund, err := f.svc.Reference.CreateFund(ctx, f.admin, models.Fund{Name: "Relief"})
	require.NoError(t, err)
	funds, err := f.svc.Reference.ListFunds(ctx)
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.Equal(t, fund.ID, funds[0].ID)

	_, err = f.svc.Reference.CreateCategory(ctx, f.admin, models.MasterCategory{Name: "Cement", Parent: "Materials"})
	require.NoError(t, err)
	_, err = f.svc.Reference.CreateCategory(ctx, f.admin, models.MasterCategory{Name: "cement", Parent: "Materials"})
	assert.ErrorIs(t, err, domainerr.ErrValidation)

	_, err = f.svc.Reference.ListUsers(ctx, f.owner)
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)
	me, err := f.svc.Reference.GetUser(ctx, f.owner, f.owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, f.owner.UserID, me.ID)
}

func TestListActivity_AdminOnlyNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.store.Write(ctx)
	require.NoError(t, err)
	for i, action := range []string{activity.ActionTransactionCreate, activity.ActionTransactionApprove} {
		require.NoError(t, w.Activity.Insert(ctx, &models.ActivityLog{
			ID:         uuid.Must(uuid.NewV4()),
			ActorID:    f.owner.UserID,
			Action:     action,
			EntityType: "transaction",
			EntityID:   f.vnd.ID,
			Timestamp:  fixedNow.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, w.Commit())

	_, err = f.svc.Reference.ListActivity(ctx, f.owner, nil, 10)
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied)

	entries, err := f.svc.Reference.ListActivity(ctx, f.admin, &f.vnd.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, activity.ActionTransactionApprove, entries[0].Action)
}

// -- FixedCostService tests --

func TestGenerateDue_OncePerPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fc, err := f.svc.FixedCost.Create(ctx, f.owner, models.FixedCost{
		Name:      "Rent",
		Amount:    decimal.NewFromInt(2_000_000),
		Cycle:     models.CycleMonthly,
		AccountID: f.vnd.ID,
		Category:  "Rent",
	})
	require.NoError(t, err)

	summary, err := f.svc.FixedCost.GenerateDue(ctx, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, GenerationSummary{Generated: 1}, summary)

	summary, err = f.svc.FixedCost.GenerateDue(ctx, fixedNow.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, GenerationSummary{Skipped: 1}, summary)

	pending, err := f.svc.Transaction.Pending(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "2025-06", pending[0].Period)
	assert.Equal(t, fc.ID, *pending[0].FixedCostID)
	assert.True(t, f.balance(f.vnd.ID).Equal(decimal.NewFromInt(10_000_000)))

	_, err = f.svc.FixedCost.SetStatus(ctx, f.owner, fc.ID, models.FixedCostOff)
	require.NoError(t, err)
	summary, err = f.svc.FixedCost.GenerateDue(ctx, fixedNow.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, GenerationSummary{}, summary)

	listed, err := f.svc.FixedCost.List(ctx, f.viewer, nil)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	listed, err = f.svc.FixedCost.List(ctx, f.outside, nil)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

// -- ReportService tests --

func TestReport_NormalizedAndNative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.expense(f.member, f.vnd, 2_500_000)
	require.NoError(t, err)
	_, err = f.svc.Transaction.Create(ctx, f.member, models.Transaction{
		Type:      models.TransactionIn,
		Amount:    decimal.NewFromInt(300),
		Currency:  "USD",
		AccountID: f.usd.ID,
	}, nil)
	require.NoError(t, err)

	normalized, err := f.svc.Report.Build(ctx, f.viewer, ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, report.ModeNormalized, normalized.Mode)
	assert.True(t, normalized.Totals.Expense.Equal(decimal.NewFromInt(100)))
	assert.True(t, normalized.Totals.Income.Equal(decimal.NewFromInt(300)))

	native, err := f.svc.Report.Build(ctx, f.viewer, ReportRequest{Currency: "VND"})
	require.NoError(t, err)
	assert.Equal(t, report.ModeNative, native.Mode)
	assert.True(t, native.Totals.Expense.Equal(decimal.NewFromInt(2_500_000)))
	assert.True(t, native.Totals.Income.IsZero())
}

func TestReport_Scoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Report.Build(ctx, f.member, ReportRequest{ProjectIDs: []uuid.UUID{f.project.ID}})
	assert.ErrorIs(t, err, domainerr.ErrPermissionDenied, "members do not hold view_reports")

	empty, err := f.svc.Report.Build(ctx, f.outside, ReportRequest{})
	require.NoError(t, err)
	assert.Zero(t, empty.Totals.Count)
	assert.Empty(t, empty.Projects)

	_, err = f.svc.Report.Build(ctx, f.admin, ReportRequest{Currency: "dollars"})
	assert.ErrorIs(t, err, domainerr.ErrValidation)
}
