package actions

import (
	"context"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// ApproveTransaction moves a PENDING transaction to APPROVED and applies it to
// its account balance. Any other starting status is rejected, so a retried
// approval never touches the balance twice.
type ApproveTransaction struct {
	Actor         authz.Principal
	TransactionID uuid.UUID
	Now           time.Time

	Approved models.Transaction
	Warnings []string
}

func (a *ApproveTransaction) Name() string { return "ApproveTransaction" }

func (a *ApproveTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	tx, err := loadPending(ctx, writer, a.Actor, a.TransactionID, "approve")
	if err != nil {
		return err
	}

	account, err := writer.Account.FindByIDForUpdate(ctx, tx.AccountID)
	if err != nil {
		return lookupErr(err, "account", tx.AccountID)
	}
	if tx.Currency != account.Currency {
		return domainerr.Validation("currency", "%s does not match account currency %s", tx.Currency, account.Currency)
	}

	balance, overdrawn := applyToBalance(account.Balance, tx)
	if overdrawn {
		a.Warnings = append(a.Warnings, overdrawnWarning(account, tx.Amount))
	}

	actorID := a.Actor.UserID
	decided := a.Now
	tx.Status = models.StatusApproved
	tx.ApprovedBy = &actorID
	tx.DecidedAt = &decided
	tx.UpdatedAt = a.Now

	if err := writer.Transaction.Update(ctx, tx); err != nil {
		return err
	}
	if err := writer.Account.UpdateBalance(ctx, account.ID, balance); err != nil {
		return err
	}

	a.Approved = *tx
	return nil
}

// RejectTransaction moves a PENDING transaction to REJECTED. Balances are
// never touched.
type RejectTransaction struct {
	Actor         authz.Principal
	TransactionID uuid.UUID
	Reason        string
	Now           time.Time

	Rejected models.Transaction
}

func (r *RejectTransaction) Name() string { return "RejectTransaction" }

func (r *RejectTransaction) Perform(ctx context.Context, writer *storage.Writer) error {
	tx, err := loadPending(ctx, writer, r.Actor, r.TransactionID, "reject")
	if err != nil {
		return err
	}

	actorID := r.Actor.UserID
	decided := r.Now
	tx.Status = models.StatusRejected
	tx.RejectedBy = &actorID
	tx.RejectionReason = strings.TrimSpace(r.Reason)
	tx.DecidedAt = &decided
	tx.UpdatedAt = r.Now

	if err := writer.Transaction.Update(ctx, tx); err != nil {
		return err
	}
	r.Rejected = *tx
	return nil
}

// loadPending locks the transaction, checks the approval permission on its
// project and that it is still PENDING.
func loadPending(ctx context.Context, writer *storage.Writer, actor authz.Principal, id uuid.UUID, verb string) (*models.Transaction, error) {
	tx, err := writer.Transaction.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "transaction", id)
	}
	if err := requirePermission(ctx, writer, actor, tx.ProjectID, authz.PermApproveTransactions); err != nil {
		return nil, err
	}
	if tx.Status != models.StatusPending {
		return nil, domainerr.InvalidStateTransition("cannot %s transaction %s in status %s", verb, tx.ID, tx.Status)
	}
	return tx, nil
}
