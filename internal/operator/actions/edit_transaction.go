package actions

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// TransactionPatch lists the fields an edit may change. Nil fields are kept.
type TransactionPatch struct {
	Amount         *decimal.Decimal
	AccountID      *uuid.UUID
	Category       *string
	ParentCategory *string
	Description    *string
	Date           *time.Time
}

// EditPendingTransaction changes a transaction that has not been decided yet.
// Decided transactions are immutable; corrections to them are new transactions.
type EditPendingTransaction struct {
	Actor         authz.Principal
	TransactionID uuid.UUID
	Patch         TransactionPatch
	Now           time.Time

	Edited models.Transaction
}

func (e *EditPendingTransaction) Name() string { return "EditPendingTransaction" }

func (e *EditPendingTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	tx, err := writer.Transaction.FindByIDForUpdate(ctx, e.TransactionID)
	if err != nil {
		return lookupErr(err, "transaction", e.TransactionID)
	}
	if err := requirePermission(ctx, writer, e.Actor, tx.ProjectID, createPermission(tx.Type)); err != nil {
		return err
	}
	if tx.Status != models.StatusPending {
		return domainerr.InvalidStateTransition("transaction %s is %s and can no longer be edited", tx.ID, tx.Status)
	}

	p := e.Patch
	if p.Amount != nil {
		if !p.Amount.IsPositive() {
			return domainerr.Validation("amount", "must be greater than zero")
		}
		tx.Amount = *p.Amount
	}
	if p.AccountID != nil && *p.AccountID != tx.AccountID {
		account, err := writer.Account.FindByIDForUpdate(ctx, *p.AccountID)
		if err != nil {
			return linkageErr(err, "accountId", *p.AccountID)
		}
		if account.IsLocked {
			return domainerr.InvalidStateTransition("account %s is locked", account.ID)
		}
		if account.Currency != tx.Currency {
			return domainerr.Validation("accountId", "account currency %s does not match transaction currency %s", account.Currency, tx.Currency)
		}
		if !models.SameID(account.ProjectID, tx.ProjectID) {
			return domainerr.Validation("accountId", "account %s belongs to a different project", account.ID)
		}
		tx.AccountID = account.ID
	}
	if p.Category != nil {
		tx.Category = *p.Category
		if p.ParentCategory == nil {
			tx.ParentCategory = ""
			if cat, err := writer.Category.FindByName(ctx, tx.Category); err == nil {
				tx.ParentCategory = cat.Parent
			}
		}
	}
	if p.ParentCategory != nil {
		tx.ParentCategory = *p.ParentCategory
	}
	if p.Description != nil {
		tx.Description = *p.Description
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
	tx.UpdatedAt = e.Now

	if err := writer.Transaction.Update(ctx, tx); err != nil {
		return err
	}
	e.Edited = *tx
	return nil
}
