package actions

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// lockProjectForMembers locks the project and checks manage_members on it.
func lockProjectForMembers(ctx context.Context, writer *storage.Writer, actor authz.Principal, projectID uuid.UUID) (*models.Project, error) {
	p, err := writer.Project.FindByIDForUpdate(ctx, projectID)
	if err != nil {
		return nil, lookupErr(err, "project", projectID)
	}
	if !authz.HasPermission(actor, p, authz.PermManageMembers) {
		return nil, domainerr.PermissionDenied(string(authz.PermManageMembers))
	}
	return p, nil
}

// AddMember adds a user to a project with the role's default permissions.
type AddMember struct {
	Actor     authz.Principal
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Role      authz.Role
	Now       time.Time

	Member authz.Member
}

func (a *AddMember) Name() string { return "AddMember" }

func (a *AddMember) Perform(ctx context.Context, writer *storage.Writer) error {
	p, err := lockProjectForMembers(ctx, writer, a.Actor, a.ProjectID)
	if err != nil {
		return err
	}
	if _, ok := p.Member(a.UserID); ok {
		return domainerr.Validation("userId", "user %s is already a member", a.UserID)
	}
	if _, err := writer.User.FindByID(ctx, a.UserID); err != nil {
		return linkageErr(err, "userId", a.UserID)
	}
	member, err := authz.NewMember(a.UserID, a.Role, a.Now)
	if err != nil {
		return domainerr.Validation("role", "%s", err.Error())
	}
	if err := writer.Project.SaveMember(ctx, p.ID, member); err != nil {
		return err
	}
	a.Member = member
	return nil
}

// RemoveMember drops a user's membership.
type RemoveMember struct {
	Actor     authz.Principal
	ProjectID uuid.UUID
	UserID    uuid.UUID
}

func (r *RemoveMember) Name() string { return "RemoveMember" }

func (r *RemoveMember) Perform(ctx context.Context, writer *storage.Writer) error {
	p, err := lockProjectForMembers(ctx, writer, r.Actor, r.ProjectID)
	if err != nil {
		return err
	}
	if _, ok := p.Member(r.UserID); !ok {
		return domainerr.NotFound("member", r.UserID)
	}
	return writer.Project.DeleteMember(ctx, p.ID, r.UserID)
}

// ChangeMemberRole sets a new role and resets the permission set to that
// role's default, discarding any custom toggles.
type ChangeMemberRole struct {
	Actor     authz.Principal
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Role      authz.Role

	Member authz.Member
}

func (c *ChangeMemberRole) Name() string { return "ChangeMemberRole" }

func (c *ChangeMemberRole) Perform(ctx context.Context, writer *storage.Writer) error {
	return updateMember(ctx, writer, c.Actor, c.ProjectID, c.UserID, &c.Member, func(m *authz.Member) error {
		if err := m.ChangeRole(c.Role); err != nil {
			return domainerr.Validation("role", "%s", err.Error())
		}
		return nil
	})
}

// ToggleMemberPermission flips a single permission independently of the role.
type ToggleMemberPermission struct {
	Actor      authz.Principal
	ProjectID  uuid.UUID
	UserID     uuid.UUID
	Permission authz.Permission

	Granted bool
	Member  authz.Member
}

func (t *ToggleMemberPermission) Name() string { return "ToggleMemberPermission" }

func (t *ToggleMemberPermission) Perform(ctx context.Context, writer *storage.Writer) error {
	return updateMember(ctx, writer, t.Actor, t.ProjectID, t.UserID, &t.Member, func(m *authz.Member) error {
		granted, err := m.TogglePermission(t.Permission)
		if err != nil {
			return domainerr.Validation("permission", "%s", err.Error())
		}
		t.Granted = granted
		return nil
	})
}

func updateMember(ctx context.Context, writer *storage.Writer, actor authz.Principal, projectID, userID uuid.UUID, out *authz.Member, mutate func(m *authz.Member) error) error {
	p, err := lockProjectForMembers(ctx, writer, actor, projectID)
	if err != nil {
		return err
	}
	member, ok := p.Member(userID)
	if !ok {
		return domainerr.NotFound("member", userID)
	}
	if err := mutate(&member); err != nil {
		return err
	}
	if err := writer.Project.SaveMember(ctx, p.ID, member); err != nil {
		return err
	}
	*out = member
	return nil
}
