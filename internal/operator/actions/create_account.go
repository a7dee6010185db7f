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

// CreateAccount opens an account whose balance starts at its opening balance.
type CreateAccount struct {
	Actor   authz.Principal
	Account models.Account
	Now     time.Time

	Created models.Account
}

func (c *CreateAccount) Name() string { return "CreateAccount" }

func (c *CreateAccount) Perform(ctx context.Context, writer *storage.Writer) error {
	a := c.Account.Clone()
	if a.Name == "" {
		return domainerr.Validation("name", "must not be empty")
	}
	if !currency.ValidCode(a.Currency) {
		return domainerr.Validation("currency", "%q is not a currency code", a.Currency)
	}
	if a.OpeningBalance.IsNegative() {
		return domainerr.Validation("openingBalance", "must not be negative")
	}
	if err := requirePermission(ctx, writer, c.Actor, a.ProjectID, authz.PermManageAccounts); err != nil {
		return err
	}

	if err := assignID(&a.ID); err != nil {
		return err
	}
	a.Balance = a.OpeningBalance
	a.CreatedAt = c.Now
	if err := writer.Account.Insert(ctx, &a); err != nil {
		return err
	}
	c.Created = a
	return nil
}

// LockAccount locks or unlocks an account. Locked accounts accept no new
// transactions or transfers; pending ones can still be decided.
type LockAccount struct {
	Actor     authz.Principal
	AccountID uuid.UUID
	Locked    bool

	Updated models.Account
}

func (l *LockAccount) Name() string { return "LockAccount" }

func (l *LockAccount) Perform(ctx context.Context, writer *storage.Writer) error {
	account, err := writer.Account.FindByIDForUpdate(ctx, l.AccountID)
	if err != nil {
		return lookupErr(err, "account", l.AccountID)
	}
	if err := requirePermission(ctx, writer, l.Actor, account.ProjectID, authz.PermManageAccounts); err != nil {
		return err
	}
	if err := writer.Account.SetLocked(ctx, account.ID, l.Locked); err != nil {
		return err
	}
	account.IsLocked = l.Locked
	l.Updated = *account
	return nil
}
