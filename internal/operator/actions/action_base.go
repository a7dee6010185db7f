package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// IAction is one unit of work run by an operator inside a single storage
// write. Returning an error rolls the whole write back.
type IAction interface {
	Name() string
	Perform(ctx context.Context, writer *storage.Writer) error
}

// Warning codes returned alongside a successful mutation.
const (
	WarningBalanceBelowZero = "BALANCE_BELOW_ZERO"
)

func lookupErr(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domainerr.NotFound(entity, id)
	}
	return err
}

// linkageErr reports a missing referenced record as a validation problem of
// the input field that referenced it.
func linkageErr(err error, field string, id uuid.UUID) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domainerr.Validation(field, "%s does not exist", id)
	}
	return err
}

// loadScope returns the project authorization is resolved against. A nil
// projectID yields a nil scope, where only administrators hold permissions.
func loadScope(ctx context.Context, reader storage.ProjectReader, projectID *uuid.UUID) (*models.Project, error) {
	if projectID == nil {
		return nil, nil
	}
	p, err := reader.FindByID(ctx, *projectID)
	if err != nil {
		return nil, linkageErr(err, "projectId", *projectID)
	}
	return p, nil
}

func requirePermission(ctx context.Context, writer *storage.Writer, actor authz.Principal, projectID *uuid.UUID, perm authz.Permission) error {
	scope, err := loadScope(ctx, writer.Project, projectID)
	if err != nil {
		return err
	}
	if !authz.HasPermission(actor, scope, perm) {
		return domainerr.PermissionDenied(string(perm))
	}
	return nil
}

// applyToBalance returns the balance after tx is applied and whether an
// outgoing amount took the balance below zero.
func applyToBalance(balance decimal.Decimal, tx *models.Transaction) (decimal.Decimal, bool) {
	next := balance.Add(tx.SignedAmount())
	overdrawn := tx.Type == models.TransactionOut && next.IsNegative()
	return next, overdrawn
}

func overdrawnWarning(account *models.Account, amount decimal.Decimal) string {
	return fmt.Sprintf("%s: amount %s %s exceeds balance %s of account %s",
		WarningBalanceBelowZero, amount.String(), account.Currency, account.Balance.String(), account.ID)
}

func createPermission(t models.TransactionType) authz.Permission {
	if t == models.TransactionIn {
		return authz.PermCreateIncome
	}
	return authz.PermCreateExpense
}

// assignID fills a zero id with a fresh v4 uuid.
func assignID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	v, err := uuid.NewV4()
	if err != nil {
		return err
	}
	*id = v
	return nil
}
