package actions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

func requireAdmin(actor authz.Principal) error {
	if !actor.IsAdmin {
		return domainerr.PermissionDenied(string(authz.RoleAdmin))
	}
	return nil
}

type CreateFund struct {
	Actor authz.Principal
	Fund  models.Fund
	Now   time.Time

	Created models.Fund
}

func (c *CreateFund) Name() string { return "CreateFund" }

func (c *CreateFund) Perform(ctx context.Context, writer *storage.Writer) error {
	if err := requireAdmin(c.Actor); err != nil {
		return err
	}
	f := c.Fund
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return domainerr.Validation("name", "must not be empty")
	}
	if err := assignID(&f.ID); err != nil {
		return err
	}
	f.CreatedAt = c.Now
	if err := writer.Fund.Insert(ctx, &f); err != nil {
		return err
	}
	c.Created = f
	return nil
}

// CreateCategory registers a master category. Names are unique ignoring case.
type CreateCategory struct {
	Actor    authz.Principal
	Category models.MasterCategory

	Created models.MasterCategory
}

func (c *CreateCategory) Name() string { return "CreateCategory" }

func (c *CreateCategory) Perform(ctx context.Context, writer *storage.Writer) error {
	if err := requireAdmin(c.Actor); err != nil {
		return err
	}
	cat := c.Category
	cat.Name = strings.TrimSpace(cat.Name)
	cat.Parent = strings.TrimSpace(cat.Parent)
	if cat.Name == "" {
		return domainerr.Validation("name", "must not be empty")
	}
	if err := assignID(&cat.ID); err != nil {
		return err
	}
	if err := writer.Category.Insert(ctx, &cat); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return domainerr.Validation("name", "category %q already exists", cat.Name)
		}
		return err
	}
	c.Created = cat
	return nil
}

type CreateUser struct {
	Actor authz.Principal
	User  models.User
	Now   time.Time

	Created models.User
}

func (c *CreateUser) Name() string { return "CreateUser" }

func (c *CreateUser) Perform(ctx context.Context, writer *storage.Writer) error {
	if err := requireAdmin(c.Actor); err != nil {
		return err
	}
	u := c.User
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return domainerr.Validation("name", "must not be empty")
	}
	if err := assignID(&u.ID); err != nil {
		return err
	}
	u.CreatedAt = c.Now
	if err := writer.User.Insert(ctx, &u); err != nil {
		return err
	}
	c.Created = u
	return nil
}
