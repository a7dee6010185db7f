package actions

import (
	"context"
	"time"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// CreateTransaction persists a new transaction and, when it starts out
// APPROVED, applies it to the account balance in the same write.
type CreateTransaction struct {
	Actor       authz.Principal
	Transaction models.Transaction
	Thresholds  currency.Thresholds
	// ForcePending skips the approval threshold and always creates PENDING.
	ForcePending bool
	Now          time.Time

	Created  models.Transaction
	Warnings []string
}

func (c *CreateTransaction) Name() string { return "CreateTransaction" }

func (c *CreateTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	tx := c.Transaction.Clone()
	if !tx.Type.Valid() {
		return domainerr.Validation("type", "must be IN or OUT")
	}
	if !tx.Amount.IsPositive() {
		return domainerr.Validation("amount", "must be greater than zero")
	}

	account, err := writer.Account.FindByIDForUpdate(ctx, tx.AccountID)
	if err != nil {
		return linkageErr(err, "accountId", tx.AccountID)
	}
	if account.IsLocked {
		return domainerr.InvalidStateTransition("account %s is locked", account.ID)
	}
	if tx.Currency != account.Currency {
		return domainerr.Validation("currency", "%s does not match account currency %s", tx.Currency, account.Currency)
	}
	if tx.ProjectID == nil {
		tx.ProjectID = account.ProjectID
	}
	if account.ProjectID != nil && !models.SameID(tx.ProjectID, account.ProjectID) {
		return domainerr.Validation("projectId", "account %s belongs to project %s", account.ID, account.ProjectID)
	}
	if err := requirePermission(ctx, writer, c.Actor, tx.ProjectID, createPermission(tx.Type)); err != nil {
		return err
	}
	if tx.FundID != nil {
		if _, err := writer.Fund.FindByID(ctx, *tx.FundID); err != nil {
			return linkageErr(err, "fundId", *tx.FundID)
		}
	}
	if tx.ParentCategory == "" && tx.Category != "" {
		cat, err := writer.Category.FindByName(ctx, tx.Category)
		if err == nil {
			tx.ParentCategory = cat.Parent
		}
	}

	tx.Status = models.StatusApproved
	if c.ForcePending || (tx.Type == models.TransactionOut && c.Thresholds.RequiresApproval(tx.Amount, tx.Currency)) {
		tx.Status = models.StatusPending
	}
	if err := assignID(&tx.ID); err != nil {
		return err
	}
	tx.CreatedAt = c.Now
	tx.UpdatedAt = c.Now
	if tx.Date.IsZero() {
		tx.Date = c.Now
	}

	if tx.Type == models.TransactionOut && tx.Amount.GreaterThan(account.Balance) {
		c.Warnings = append(c.Warnings, overdrawnWarning(account, tx.Amount))
	}

	if tx.Status == models.StatusApproved {
		decided := c.Now
		tx.DecidedAt = &decided
	}
	if err := writer.Transaction.Insert(ctx, &tx); err != nil {
		return err
	}
	if tx.Status == models.StatusApproved {
		balance, _ := applyToBalance(account.Balance, &tx)
		if err := writer.Account.UpdateBalance(ctx, account.ID, balance); err != nil {
			return err
		}
	}

	c.Created = tx
	return nil
}
