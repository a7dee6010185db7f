package actions

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// CreateFixedCost registers a recurring expense template against an account.
type CreateFixedCost struct {
	Actor     authz.Principal
	FixedCost models.FixedCost
	Now       time.Time

	Created models.FixedCost
}

func (c *CreateFixedCost) Name() string { return "CreateFixedCost" }

func (c *CreateFixedCost) Perform(ctx context.Context, writer *storage.Writer) error {
	fc := c.FixedCost.Clone()
	if fc.Name == "" {
		return domainerr.Validation("name", "must not be empty")
	}
	if !fc.Amount.IsPositive() {
		return domainerr.Validation("amount", "must be greater than zero")
	}
	if !fc.Cycle.Valid() {
		return domainerr.Validation("cycle", "unknown cycle %q", fc.Cycle)
	}
	if fc.Status == "" {
		fc.Status = models.FixedCostOn
	}
	if fc.Status != models.FixedCostOn && fc.Status != models.FixedCostOff {
		return domainerr.Validation("status", "must be ON or OFF")
	}

	account, err := writer.Account.FindByIDForUpdate(ctx, fc.AccountID)
	if err != nil {
		return linkageErr(err, "accountId", fc.AccountID)
	}
	if fc.Currency == "" {
		fc.Currency = account.Currency
	}
	if fc.Currency != account.Currency {
		return domainerr.Validation("currency", "%s does not match account currency %s", fc.Currency, account.Currency)
	}
	if fc.ProjectID == nil {
		fc.ProjectID = account.ProjectID
	}
	if account.ProjectID != nil && !models.SameID(fc.ProjectID, account.ProjectID) {
		return domainerr.Validation("projectId", "account %s belongs to project %s", account.ID, account.ProjectID)
	}
	if err := requirePermission(ctx, writer, c.Actor, fc.ProjectID, authz.PermManageAccounts); err != nil {
		return err
	}

	if err := assignID(&fc.ID); err != nil {
		return err
	}
	fc.LastGenerated = ""
	fc.CreatedAt = c.Now
	if err := writer.FixedCost.Insert(ctx, &fc); err != nil {
		return err
	}
	c.Created = fc
	return nil
}

type SetFixedCostStatus struct {
	Actor       authz.Principal
	FixedCostID uuid.UUID
	Status      models.FixedCostStatus

	Updated models.FixedCost
}

func (s *SetFixedCostStatus) Name() string { return "SetFixedCostStatus" }

func (s *SetFixedCostStatus) Perform(ctx context.Context, writer *storage.Writer) error {
	if s.Status != models.FixedCostOn && s.Status != models.FixedCostOff {
		return domainerr.Validation("status", "must be ON or OFF")
	}
	fc, err := writer.FixedCost.FindByIDForUpdate(ctx, s.FixedCostID)
	if err != nil {
		return lookupErr(err, "fixedCost", s.FixedCostID)
	}
	if err := requirePermission(ctx, writer, s.Actor, fc.ProjectID, authz.PermManageAccounts); err != nil {
		return err
	}
	if err := writer.FixedCost.UpdateStatus(ctx, fc.ID, s.Status); err != nil {
		return err
	}
	fc.Status = s.Status
	s.Updated = *fc
	return nil
}

// systemActor creates generated transactions. Fixed costs were authorized
// when they were registered.
var systemActor = authz.Principal{IsAdmin: true}

// GenerateFixedCost creates the PENDING expense of the current period for
// one fixed cost. It is idempotent per period: a second run in the same
// period leaves Generated nil.
type GenerateFixedCost struct {
	FixedCostID uuid.UUID
	Now         time.Time

	Generated *models.Transaction
	Period    string
}

func (g *GenerateFixedCost) Name() string { return "GenerateFixedCost" }

func (g *GenerateFixedCost) Perform(ctx context.Context, writer *storage.Writer) error {
	fc, err := writer.FixedCost.FindByIDForUpdate(ctx, g.FixedCostID)
	if err != nil {
		return lookupErr(err, "fixedCost", g.FixedCostID)
	}
	if fc.Status != models.FixedCostOn {
		return nil
	}
	period, err := fc.Cycle.Period(g.Now)
	if err != nil {
		return domainerr.Validation("cycle", "%s", err.Error())
	}
	g.Period = period
	if fc.LastGenerated == period {
		return nil
	}
	if _, err := writer.Transaction.FindByFixedCostPeriod(ctx, fc.ID, period); err == nil {
		return writer.FixedCost.UpdateLastGenerated(ctx, fc.ID, period)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	fixedCostID := fc.ID
	create := &CreateTransaction{
		Actor: systemActor,
		Transaction: models.Transaction{
			Type:        models.TransactionOut,
			Amount:      fc.Amount,
			Currency:    fc.Currency,
			Category:    fc.Category,
			Description: fc.Name + " (" + period + ")",
			AccountID:   fc.AccountID,
			ProjectID:   fc.ProjectID,
			FixedCostID: &fixedCostID,
			Period:      period,
			Date:        g.Now,
		},
		ForcePending: true,
		Now:          g.Now,
	}
	if err := create.Perform(ctx, writer); err != nil {
		return err
	}
	if err := writer.FixedCost.UpdateLastGenerated(ctx, fc.ID, period); err != nil {
		return err
	}
	g.Generated = &create.Created
	return nil
}
