// Package auth turns bearer tokens into the principal every ledger operation
// is authorized against.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

const defaultTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(userID uuid.UUID) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies the signature and expiry and returns the user id.
func (t *Tokens) Parse(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.FromString(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user id: %w", ErrInvalidToken, err)
	}
	return id, nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller of the request.
func PrincipalFrom(ctx context.Context) (authz.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(authz.Principal)
	return p, ok
}

// PrincipalOf builds the authorization principal of a stored user.
func PrincipalOf(u *models.User) authz.Principal {
	return authz.Principal{UserID: u.ID, IsAdmin: u.IsAdmin}
}

func bearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware authenticates every huma operation. The user is looked up on
// each request so revoked admin rights apply immediately.
func Middleware(api huma.API, tokens *Tokens, users storage.UserReader, logger *logrus.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := bearer(ctx.Header("Authorization"))
		if token == "" {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := tokens.Parse(token)
		if err != nil {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		user, err := users.FindByID(ctx.Context(), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "unknown user")
				return
			}
			logger.WithError(err).Error("auth.Middleware.userLookup")
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "failed to resolve user")
			return
		}
		next(huma.WithContext(ctx, WithPrincipal(ctx.Context(), PrincipalOf(user))))
	}
}
