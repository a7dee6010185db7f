package actions

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// CreateProject is restricted to administrators. Initial members get their
// role's default permissions.
type CreateProject struct {
	Actor   authz.Principal
	Project models.Project
	Now     time.Time

	Created models.Project
}

func (c *CreateProject) Name() string { return "CreateProject" }

func (c *CreateProject) Perform(ctx context.Context, writer *storage.Writer) error {
	if !c.Actor.IsAdmin {
		return domainerr.PermissionDenied(string(authz.RoleAdmin))
	}
	p := c.Project.Clone()
	if p.Name == "" {
		return domainerr.Validation("name", "must not be empty")
	}
	if !currency.ValidCode(p.Currency) {
		return domainerr.Validation("currency", "%q is not a currency code", p.Currency)
	}
	if p.Budget.IsNegative() {
		return domainerr.Validation("budget", "must not be negative")
	}
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	if !p.Status.Valid() {
		return domainerr.Validation("status", "unknown status %q", p.Status)
	}
	seen := make(map[uuid.UUID]bool, len(p.Members))
	for i, m := range p.Members {
		if seen[m.UserID] {
			return domainerr.Validation("members", "user %s listed twice", m.UserID)
		}
		seen[m.UserID] = true
		member, err := authz.NewMember(m.UserID, m.Role, c.Now)
		if err != nil {
			return domainerr.Validation("members", "%s", err.Error())
		}
		p.Members[i] = member
	}
	if err := assignID(&p.ID); err != nil {
		return err
	}
	p.CreatedAt = c.Now

	if err := writer.Project.Insert(ctx, &p); err != nil {
		return err
	}
	c.Created = p
	return nil
}

// SetProjectStatus requires edit_project on the project.
type SetProjectStatus struct {
	Actor     authz.Principal
	ProjectID uuid.UUID
	Status    models.ProjectStatus

	Updated models.Project
}

func (s *SetProjectStatus) Name() string { return "SetProjectStatus" }

func (s *SetProjectStatus) Perform(ctx context.Context, writer *storage.Writer) error {
	if !s.Status.Valid() {
		return domainerr.Validation("status", "unknown status %q", s.Status)
	}
	p, err := writer.Project.FindByIDForUpdate(ctx, s.ProjectID)
	if err != nil {
		return lookupErr(err, "project", s.ProjectID)
	}
	if !authz.HasPermission(s.Actor, p, authz.PermEditProject) {
		return domainerr.PermissionDenied(string(authz.PermEditProject))
	}
	if err := writer.Project.UpdateStatus(ctx, p.ID, s.Status); err != nil {
		return err
	}
	p.Status = s.Status
	s.Updated = *p
	return nil
}
