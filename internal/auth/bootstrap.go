package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

var ErrNoAdministrator = errors.New("no administrator exists")

// Bootstrap creates the first administrator when the user table is empty and
// writes its token to out. The token never reaches the logger.
func Bootstrap(ctx context.Context, store *storage.Storage, tokens *Tokens, out io.Writer, logger *logrus.Logger) (*models.User, error) {
	users, err := store.Read.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return nil, nil
	}

	admin := &models.User{
		ID:        uuid.Must(uuid.NewV4()),
		Name:      "Administrator",
		IsAdmin:   true,
		CreatedAt: time.Now().UTC(),
	}
	w, err := store.Write(ctx)
	if err != nil {
		return nil, err
	}
	if err := w.User.Insert(ctx, admin); err != nil {
		_ = w.Rollback()
		return nil, err
	}
	if err := w.Commit(); err != nil {
		return nil, err
	}

	if err := writeToken(out, tokens, admin); err != nil {
		return nil, err
	}
	logger.WithField("userID", admin.ID.String()).Warn("bootstrapped administrator, token written to stderr")
	return admin, nil
}

// IssueAdminToken writes a fresh token for the earliest administrator to out.
func IssueAdminToken(ctx context.Context, users storage.UserReader, tokens *Tokens, out io.Writer) (*models.User, error) {
	all, err := users.List(ctx)
	if err != nil {
		return nil, err
	}
	var admin *models.User
	for _, u := range all {
		if !u.IsAdmin {
			continue
		}
		if admin == nil || u.CreatedAt.Before(admin.CreatedAt) {
			admin = u
		}
	}
	if admin == nil {
		return nil, ErrNoAdministrator
	}
	if err := writeToken(out, tokens, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

func writeToken(out io.Writer, tokens *Tokens, user *models.User) error {
	token, err := tokens.Issue(user.ID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "administrator %s token: %s\n", user.ID, token)
	return err
}
