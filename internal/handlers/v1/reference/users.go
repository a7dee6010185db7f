package reference

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/models"
)

// User is the API form of a user.
type User struct {
	ID        string `json:"id" doc:"User UUID"`
	Name      string `json:"name" doc:"Display name"`
	Email     string `json:"email" doc:"Email address"`
	IsAdmin   bool   `json:"isAdmin" doc:"Administrators bypass project scoping"`
	CreatedAt string `json:"createdAt" doc:"RFC3339 creation time"`
}

// CreateUserInput is the Huma input for creating a user.
type CreateUserInput struct {
	Body struct {
		Name    string `json:"name" minLength:"1" doc:"Display name"`
		Email   string `json:"email" format:"email" doc:"Email address"`
		IsAdmin bool   `json:"isAdmin,omitempty" doc:"Grant global administrator rights"`
	}
}

// UserIDInput identifies one user.
type UserIDInput struct {
	ID string `path:"id" format:"uuid" doc:"User UUID"`
}

// UserOutput is the Huma output for endpoints returning one user.
type UserOutput struct {
	Status int
	Body   User
}

// ListUsersOutput is the Huma output for listing users.
type ListUsersOutput struct {
	Body struct {
		Users []User `json:"users"`
	}
}

// TokenOutput carries a freshly issued bearer token.
type TokenOutput struct {
	Body struct {
		Token string `json:"token" doc:"HS256 bearer token for the Authorization header"`
	}
}

type userService interface {
	CreateUser(ctx context.Context, actor authz.Principal, user models.User) (*models.User, error)
	GetUser(ctx context.Context, actor authz.Principal, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, actor authz.Principal) ([]models.User, error)
}

// tokenIssuer signs bearer tokens for a user.
type tokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// UsersHandler handles the user endpoints.
type UsersHandler struct {
	ReferenceService userService
	Tokens           tokenIssuer
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(svc userService, tokens tokenIssuer) *UsersHandler {
	return &UsersHandler{ReferenceService: svc, Tokens: tokens}
}

// Register registers the user endpoints with the Huma API.
func (h *UsersHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/v1/user",
		Summary:       "Create user",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, h.create)

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/v1/user/{id}",
		Summary:     "Get user",
		Tags:        []string{"Users"},
	}, h.get)

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/v1/users",
		Summary:     "List users",
		Tags:        []string{"Users"},
	}, h.list)

	huma.Register(api, huma.Operation{
		OperationID: "issue-user-token",
		Method:      http.MethodPost,
		Path:        "/v1/user/{id}/token",
		Summary:     "Issue token",
		Description: "Issues a bearer token for a user. Administrators only.",
		Tags:        []string{"Users"},
	}, h.issueToken)
}

func userFromModel(u models.User) User {
	return User{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: shared.FormatTime(u.CreatedAt),
	}
}

func (h *UsersHandler) create(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	user, err := h.ReferenceService.CreateUser(ctx, actor, models.User{
		Name:    strings.TrimSpace(input.Body.Name),
		Email:   strings.ToLower(strings.TrimSpace(input.Body.Email)),
		IsAdmin: input.Body.IsAdmin,
	})
	if err != nil {
		return nil, shared.Error(err, "failed to create user")
	}
	shared.AddData(ctx, "userID", user.ID.String())
	return &UserOutput{Status: http.StatusCreated, Body: userFromModel(*user)}, nil
}

func (h *UsersHandler) get(ctx context.Context, input *UserIDInput) (*UserOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}
	user, err := h.ReferenceService.GetUser(ctx, actor, id)
	if err != nil {
		return nil, shared.Error(err, "failed to get user")
	}
	return &UserOutput{Status: http.StatusOK, Body: userFromModel(*user)}, nil
}

func (h *UsersHandler) list(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	users, err := h.ReferenceService.ListUsers(ctx, actor)
	if err != nil {
		return nil, shared.Error(err, "failed to list users")
	}
	out := &ListUsersOutput{}
	out.Body.Users = make([]User, len(users))
	for i, u := range users {
		out.Body.Users[i] = userFromModel(u)
	}
	return out, nil
}

func (h *UsersHandler) issueToken(ctx context.Context, input *UserIDInput) (*TokenOutput, error) {
	actor, err := shared.Principal(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, huma.NewError(http.StatusForbidden, "only administrators issue tokens")
	}
	id, err := shared.ParseUUID("id", input.ID)
	if err != nil {
		return nil, err
	}
	user, err := h.ReferenceService.GetUser(ctx, actor, id)
	if err != nil {
		return nil, shared.Error(err, "failed to issue token")
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return nil, huma.NewError(http.StatusInternalServerError, "failed to issue token", err)
	}
	shared.AddData(ctx, "tokenUserID", user.ID.String())
	out := &TokenOutput{}
	out.Body.Token = token
	return out, nil
}
