package service

import (
	"context"
	"errors"
	"sort"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/activity"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/operator/actions"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// AccountService handles account business logic.
type AccountService struct {
	*base
}

// BalanceCheck compares a stored balance against a replay of the account's
// approved transactions.
type BalanceCheck struct {
	AccountID    uuid.UUID
	Stored       decimal.Decimal
	Computed     decimal.Decimal
	Drift        decimal.Decimal
	Consistent   bool
	Transactions int
}

func accountLinkage(err error, field string, id uuid.UUID) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domainerr.Validation(field, "%s does not exist", id)
	}
	return translate(err)
}

// Create opens an account whose balance starts at its opening balance.
func (s *AccountService) Create(ctx context.Context, actor authz.Principal, account models.Account) (*models.Account, error) {
	action := &actions.CreateAccount{
		Actor:   actor,
		Account: account,
		Now:     s.now(),
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	created := action.Created
	s.logger().WithFields(logrus.Fields{
		"accountID": created.ID,
		"currency":  created.Currency,
	}).Info("AccountService.Create")
	s.record(actor, activity.ActionAccountCreate, "account", created.ID, map[string]string{
		"name":     created.Name,
		"currency": created.Currency,
		"opening":  created.OpeningBalance.String(),
	})
	return &created, nil
}

// Get retrieves an account the caller may view.
func (s *AccountService) Get(ctx context.Context, actor authz.Principal, id uuid.UUID) (*models.Account, error) {
	account, err := s.read().Accounts.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "account", id)
	}
	if err := s.checkPermission(ctx, actor, account.ProjectID, authz.PermViewTransactions); err != nil {
		return nil, err
	}
	return account, nil
}

// List returns a page of accounts in projects the caller may view.
func (s *AccountService) List(ctx context.Context, actor authz.Principal, projectIDs []uuid.UUID, cursor *Cursor) ([]models.Account, *Cursor, error) {
	sc, err := s.scopeFor(ctx, actor, authz.PermViewTransactions)
	if err != nil {
		return nil, nil, err
	}
	sc, err = sc.narrow(projectIDs, authz.PermViewTransactions)
	if err != nil {
		return nil, nil, err
	}

	limit, offset := cursor.bounds()
	rows, err := s.read().Accounts.List(ctx, &storage.AccountFilter{
		ProjectIDs:  sc.ids,
		AllProjects: sc.all,
		Limit:       limit + 1,
		Offset:      offset,
	})
	if err != nil {
		return nil, nil, translate(err)
	}

	rows, next := page(rows, limit, offset)
	out := make([]models.Account, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out, next, nil
}

// SetLocked locks or unlocks an account. Locked accounts refuse new
// transactions, approvals and transfers.
func (s *AccountService) SetLocked(ctx context.Context, actor authz.Principal, id uuid.UUID, locked bool) (*models.Account, error) {
	action := &actions.LockAccount{
		Actor:     actor,
		AccountID: id,
		Locked:    locked,
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithFields(logrus.Fields{
		"accountID": id,
		"locked":    locked,
	}).Info("AccountService.SetLocked")
	s.record(actor, activity.ActionAccountLock, "account", id, map[string]string{"locked": boolString(locked)})
	return &action.Updated, nil
}

// VerifyBalance replays every APPROVED transaction of the account on top of
// its opening balance, in date order, and compares with the stored balance.
func (s *AccountService) VerifyBalance(ctx context.Context, actor authz.Principal, id uuid.UUID) (*BalanceCheck, error) {
	account, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	approved := models.StatusApproved
	rows, err := s.read().Transactions.List(ctx, &storage.TransactionFilter{
		AccountID:   &id,
		AllProjects: true,
		Status:      &approved,
	})
	if err != nil {
		return nil, translate(err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})

	computed := account.OpeningBalance
	for _, tx := range rows {
		computed = computed.Add(tx.SignedAmount())
	}
	drift := account.Balance.Sub(computed)
	check := &BalanceCheck{
		AccountID:    id,
		Stored:       account.Balance,
		Computed:     computed,
		Drift:        drift,
		Consistent:   drift.IsZero(),
		Transactions: len(rows),
	}
	if !check.Consistent {
		s.logger().WithFields(logrus.Fields{
			"accountID": id,
			"stored":    account.Balance.String(),
			"computed":  computed.String(),
		}).Warn("AccountService.VerifyBalance.drift")
	}
	return check, nil
}
