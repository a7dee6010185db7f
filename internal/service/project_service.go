package service

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/activity"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/operator/actions"
)

// ProjectService handles projects and their membership lists.
type ProjectService struct {
	*base
}

// Access is what one user may do on one project.
type Access struct {
	ProjectID   uuid.UUID
	UserID      uuid.UUID
	Role        authz.Role
	Permissions authz.PermissionSet
	Customized  bool
}

func (s *ProjectService) Create(ctx context.Context, actor authz.Principal, project models.Project) (*models.Project, error) {
	action := &actions.CreateProject{
		Actor:   actor,
		Project: project,
		Now:     s.now(),
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	created := action.Created
	s.logger().WithFields(logrus.Fields{
		"projectID": created.ID,
		"members":   len(created.Members),
	}).Info("ProjectService.Create")
	s.record(actor, activity.ActionProjectCreate, "project", created.ID, map[string]string{
		"name":     created.Name,
		"currency": created.Currency,
	})
	return &created, nil
}

// Get returns a project the caller belongs to.
func (s *ProjectService) Get(ctx context.Context, actor authz.Principal, id uuid.UUID) (*models.Project, error) {
	p, err := s.read().Projects.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "project", id)
	}
	if !actor.IsAdmin && !authz.IsMember(actor, p) {
		return nil, domainerr.NotFound("project", id)
	}
	return p, nil
}

// List returns every project for administrators and the caller's own
// projects otherwise.
func (s *ProjectService) List(ctx context.Context, actor authz.Principal) ([]models.Project, error) {
	all, err := s.read().Projects.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	visible := authz.AccessibleProjects(actor, all)
	out := make([]models.Project, len(visible))
	for i, p := range visible {
		out[i] = *p
	}
	return out, nil
}

func (s *ProjectService) SetStatus(ctx context.Context, actor authz.Principal, id uuid.UUID, status models.ProjectStatus) (*models.Project, error) {
	action := &actions.SetProjectStatus{
		Actor:     actor,
		ProjectID: id,
		Status:    status,
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithFields(logrus.Fields{
		"projectID": id,
		"status":    status,
	}).Info("ProjectService.SetStatus")
	s.record(actor, activity.ActionProjectStatus, "project", id, map[string]string{"status": string(status)})
	return &action.Updated, nil
}

func (s *ProjectService) AddMember(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID, role authz.Role) (*authz.Member, error) {
	action := &actions.AddMember{
		Actor:     actor,
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		Now:       s.now(),
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithFields(logrus.Fields{
		"projectID": projectID,
		"userID":    userID,
		"role":      role,
	}).Info("ProjectService.AddMember")
	s.record(actor, activity.ActionMemberAdd, "project", projectID, map[string]string{
		"userId": userID.String(),
		"role":   string(role),
	})
	return &action.Member, nil
}

func (s *ProjectService) RemoveMember(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID) error {
	action := &actions.RemoveMember{
		Actor:     actor,
		ProjectID: projectID,
		UserID:    userID,
	}
	if err := s.process(ctx, action); err != nil {
		return err
	}

	s.logger().WithFields(logrus.Fields{
		"projectID": projectID,
		"userID":    userID,
	}).Info("ProjectService.RemoveMember")
	s.record(actor, activity.ActionMemberRemove, "project", projectID, map[string]string{"userId": userID.String()})
	return nil
}

// ChangeRole assigns a new role and resets the member's permissions to the
// role default.
func (s *ProjectService) ChangeRole(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID, role authz.Role) (*authz.Member, error) {
	action := &actions.ChangeMemberRole{
		Actor:     actor,
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.record(actor, activity.ActionMemberRole, "project", projectID, map[string]string{
		"userId": userID.String(),
		"role":   string(role),
	})
	return &action.Member, nil
}

// TogglePermission flips one permission of a member and reports whether the
// member holds it afterwards.
func (s *ProjectService) TogglePermission(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID, perm authz.Permission) (*authz.Member, bool, error) {
	action := &actions.ToggleMemberPermission{
		Actor:      actor,
		ProjectID:  projectID,
		UserID:     userID,
		Permission: perm,
	}
	if err := s.process(ctx, action); err != nil {
		return nil, false, err
	}

	s.record(actor, activity.ActionMemberPermission, "project", projectID, map[string]string{
		"userId":     userID.String(),
		"permission": string(perm),
		"granted":    boolString(action.Granted),
	})
	return &action.Member, action.Granted, nil
}

// Access resolves what userID may do on the project. Callers may inspect
// themselves; inspecting others needs manage_members.
func (s *ProjectService) Access(ctx context.Context, actor authz.Principal, projectID, userID uuid.UUID) (*Access, error) {
	p, err := s.Get(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if userID != actor.UserID && !authz.HasPermission(actor, p, authz.PermManageMembers) {
		return nil, domainerr.PermissionDenied(string(authz.PermManageMembers))
	}

	subject := authz.Principal{UserID: userID}
	if userID == actor.UserID {
		subject = actor
	}
	access := &Access{
		ProjectID:   projectID,
		UserID:      userID,
		Role:        authz.ResolveRole(subject, p),
		Permissions: authz.EffectivePermissions(subject, p),
	}
	if m, ok := p.Member(userID); ok {
		access.Customized = m.IsCustomized()
	}
	return access, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
