package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/activity"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/operator/actions"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// FixedCostService manages recurring cost templates and turns them into
// PENDING transactions.
type FixedCostService struct {
	*base
}

// GenerationSummary counts the outcome of one generation run.
type GenerationSummary struct {
	Generated int
	Skipped   int
	Failed    int
}

func (s *FixedCostService) Create(ctx context.Context, actor authz.Principal, fc models.FixedCost) (*models.FixedCost, error) {
	action := &actions.CreateFixedCost{Actor: actor, FixedCost: fc, Now: s.now()}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	created := action.Created
	s.logger().WithFields(logrus.Fields{
		"fixedCostID": created.ID,
		"cycle":       created.Cycle,
	}).Info("FixedCostService.Create")
	s.record(actor, activity.ActionFixedCostCreate, "fixed_cost", created.ID, map[string]string{
		"name":   created.Name,
		"amount": created.Amount.String() + " " + created.Currency,
		"cycle":  string(created.Cycle),
	})
	return &created, nil
}

// List returns the fixed costs in projects where the caller may view
// transactions.
func (s *FixedCostService) List(ctx context.Context, actor authz.Principal, status *models.FixedCostStatus) ([]models.FixedCost, error) {
	sc, err := s.scopeFor(ctx, actor, authz.PermViewTransactions)
	if err != nil {
		return nil, err
	}
	rows, err := s.read().FixedCosts.List(ctx, &storage.FixedCostFilter{Status: status})
	if err != nil {
		return nil, translate(err)
	}
	out := make([]models.FixedCost, 0, len(rows))
	for _, row := range rows {
		if sc.allows(row.ProjectID) {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *FixedCostService) SetStatus(ctx context.Context, actor authz.Principal, id uuid.UUID, status models.FixedCostStatus) (*models.FixedCost, error) {
	action := &actions.SetFixedCostStatus{Actor: actor, FixedCostID: id, Status: status}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithFields(logrus.Fields{
		"fixedCostID": id,
		"status":      status,
	}).Info("FixedCostService.SetStatus")
	s.record(actor, activity.ActionFixedCostStatus, "fixed_cost", id, map[string]string{"status": string(status)})
	return &action.Updated, nil
}

// GenerateDue creates the current period's PENDING transaction for every
// active fixed cost that does not have one yet. One failing template does not
// stop the others.
func (s *FixedCostService) GenerateDue(ctx context.Context, now time.Time) (GenerationSummary, error) {
	var summary GenerationSummary
	on := models.FixedCostOn
	rows, err := s.read().FixedCosts.List(ctx, &storage.FixedCostFilter{Status: &on})
	if err != nil {
		return summary, translate(err)
	}

	for _, fc := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		action := &actions.GenerateFixedCost{FixedCostID: fc.ID, Now: now.UTC()}
		if err := s.process(ctx, action); err != nil {
			summary.Failed++
			s.logger().WithError(err).WithField("fixedCostID", fc.ID).Warn("FixedCostService.GenerateDue.failed")
			continue
		}
		if action.Generated == nil {
			summary.Skipped++
			continue
		}
		summary.Generated++
		s.deps.Activity.Record(uuid.Nil, activity.ActionFixedCostGenerate, "transaction", action.Generated.ID, map[string]string{
			"fixedCostId": fc.ID.String(),
			"period":      action.Period,
		})
	}

	s.logger().WithFields(logrus.Fields{
		"generated": summary.Generated,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("FixedCostService.GenerateDue")
	return summary, nil
}
