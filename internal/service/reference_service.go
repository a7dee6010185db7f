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
	"github.com/carson-networks/project-ledger/internal/storage"
)

// ReferenceService manages funds, master categories and users.
type ReferenceService struct {
	*base
}

func (s *ReferenceService) CreateFund(ctx context.Context, actor authz.Principal, fund models.Fund) (*models.Fund, error) {
	action := &actions.CreateFund{Actor: actor, Fund: fund, Now: s.now()}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithField("fundID", action.Created.ID).Info("ReferenceService.CreateFund")
	s.record(actor, activity.ActionFundCreate, "fund", action.Created.ID, map[string]string{"name": action.Created.Name})
	return &action.Created, nil
}

func (s *ReferenceService) ListFunds(ctx context.Context) ([]models.Fund, error) {
	rows, err := s.read().Funds.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]models.Fund, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out, nil
}

// CreateCategory adds a master category. Names are unique ignoring case.
func (s *ReferenceService) CreateCategory(ctx context.Context, actor authz.Principal, category models.MasterCategory) (*models.MasterCategory, error) {
	action := &actions.CreateCategory{Actor: actor, Category: category}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithField("category", action.Created.Name).Info("ReferenceService.CreateCategory")
	s.record(actor, activity.ActionCategoryCreate, "category", action.Created.ID, map[string]string{
		"name":   action.Created.Name,
		"parent": action.Created.Parent,
	})
	return &action.Created, nil
}

func (s *ReferenceService) ListCategories(ctx context.Context) ([]models.MasterCategory, error) {
	rows, err := s.read().Categories.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]models.MasterCategory, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out, nil
}

func (s *ReferenceService) CreateUser(ctx context.Context, actor authz.Principal, user models.User) (*models.User, error) {
	action := &actions.CreateUser{Actor: actor, User: user, Now: s.now()}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithFields(logrus.Fields{
		"userID":  action.Created.ID,
		"isAdmin": action.Created.IsAdmin,
	}).Info("ReferenceService.CreateUser")
	s.record(actor, activity.ActionUserCreate, "user", action.Created.ID, map[string]string{"email": action.Created.Email})
	return &action.Created, nil
}

// GetUser returns the caller or, for administrators, any user.
func (s *ReferenceService) GetUser(ctx context.Context, actor authz.Principal, id uuid.UUID) (*models.User, error) {
	if !actor.IsAdmin && actor.UserID != id {
		return nil, domainerr.PermissionDenied(string(authz.RoleAdmin))
	}
	u, err := s.read().Users.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "user", id)
	}
	return u, nil
}

func (s *ReferenceService) ListUsers(ctx context.Context, actor authz.Principal) ([]models.User, error) {
	if !actor.IsAdmin {
		return nil, domainerr.PermissionDenied(string(authz.RoleAdmin))
	}
	rows, err := s.read().Users.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]models.User, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out, nil
}

// ListActivity returns the newest audit entries, optionally for one entity.
// Only administrators read the audit trail.
func (s *ReferenceService) ListActivity(ctx context.Context, actor authz.Principal, entityID *uuid.UUID, limit int) ([]models.ActivityLog, error) {
	if !actor.IsAdmin {
		return nil, domainerr.PermissionDenied(string(authz.RoleAdmin))
	}
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	rows, err := s.read().Activity.List(ctx, &storage.ActivityFilter{EntityID: entityID, Limit: limit})
	if err != nil {
		return nil, translate(err)
	}
	out := make([]models.ActivityLog, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out, nil
}
