package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) List(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.User), args.Error(1)
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	id := uuid.Must(uuid.NewV4())

	token, err := tokens.Issue(id)
	require.NoError(t, err)

	got, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	id := uuid.Must(uuid.NewV4())
	token, err := tokens.Issue(id)
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := NewTokens("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type whoAmIOutput struct {
	Body struct {
		UserID  string `json:"userId"`
		IsAdmin bool   `json:"isAdmin"`
	}
}

func setup(t *testing.T, users storage.UserReader, tokens *Tokens) humatest.TestAPI {
	t.Helper()
	logger, _ := test.NewNullLogger()
	_, api := humatest.New(t)
	api.UseMiddleware(Middleware(api, tokens, users, logger))
	huma.Register(api, huma.Operation{
		OperationID: "who-am-i",
		Method:      http.MethodGet,
		Path:        "/v1/me",
	}, func(ctx context.Context, _ *struct{}) (*whoAmIOutput, error) {
		p, ok := PrincipalFrom(ctx)
		if !ok {
			return nil, huma.Error500InternalServerError("no principal")
		}
		out := &whoAmIOutput{}
		out.Body.UserID = p.UserID.String()
		out.Body.IsAdmin = p.IsAdmin
		return out, nil
	})
	return api
}

func TestMiddleware_ResolvesPrincipal(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	id := uuid.Must(uuid.NewV4())
	users := new(mockUsers)
	users.On("FindByID", mock.Anything, id).Return(&models.User{ID: id, IsAdmin: true}, nil)
	api := setup(t, users, tokens)

	token, err := tokens.Issue(id)
	require.NoError(t, err)

	resp := api.Get("/v1/me", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), id.String())
	assert.Contains(t, resp.Body.String(), `"isAdmin":true`)
}

func TestMiddleware_Unauthorized(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	known := uuid.Must(uuid.NewV4())
	gone := uuid.Must(uuid.NewV4())
	broken := uuid.Must(uuid.NewV4())
	users := new(mockUsers)
	users.On("FindByID", mock.Anything, gone).Return(nil, storage.ErrNotFound)
	users.On("FindByID", mock.Anything, broken).Return(nil, errors.New("db down"))
	api := setup(t, users, tokens)

	resp := api.Get("/v1/me")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = api.Get("/v1/me", "Authorization: Basic abc")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	forged, err := NewTokens("other", time.Hour).Issue(known)
	require.NoError(t, err)
	resp = api.Get("/v1/me", "Authorization: Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	token, err := tokens.Issue(gone)
	require.NoError(t, err)
	resp = api.Get("/v1/me", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	token, err = tokens.Issue(broken)
	require.NoError(t, err)
	resp = api.Get("/v1/me", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
