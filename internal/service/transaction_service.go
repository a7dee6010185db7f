package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/activity"
	"github.com/carson-networks/project-ledger/internal/attachment"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/operator/actions"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// TransactionService handles the approval lifecycle of transactions.
type TransactionService struct {
	*base
}

// CreatedTransaction is a stored transaction plus any non-fatal warnings.
type CreatedTransaction struct {
	Transaction models.Transaction
	Warnings    []string
}

// TransactionFilter narrows a transaction listing. Empty ProjectIDs means
// every project the caller may view.
type TransactionFilter struct {
	ProjectIDs []uuid.UUID
	AccountID  *uuid.UUID
	Status     *models.TransactionStatus
	Type       *models.TransactionType
	From       *time.Time
	To         *time.Time
}

// discardUploads removes blobs uploaded for a transaction that was never
// stored. Failures are logged only.
func (s *TransactionService) discardUploads(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := attachment.Discard(context.WithoutCancel(ctx), s.deps.Uploader, urls); err != nil {
		s.logger().WithError(err).WithField("attachments", len(urls)).Warn("TransactionService.Create.discardUploads")
	}
}

// Create records a new transaction. Files are uploaded before the ledger is
// touched; a failed upload leaves no trace in the ledger.
func (s *TransactionService) Create(ctx context.Context, actor authz.Principal, tx models.Transaction, files []attachment.File) (*CreatedTransaction, error) {
	var uploaded []string
	if len(files) > 0 {
		if err := s.preflightCreate(ctx, actor, tx); err != nil {
			return nil, err
		}
		urls, err := attachment.UploadAll(ctx, s.deps.Uploader, files)
		if err != nil {
			return nil, err
		}
		uploaded = urls
		tx.Attachments = append(tx.Attachments, urls...)
	}

	action := &actions.CreateTransaction{
		Actor:       actor,
		Transaction: tx,
		Thresholds:  s.deps.Thresholds,
		Now:         s.now(),
	}
	if err := s.process(ctx, action); err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, err
	}

	created := action.Created
	s.logger().WithFields(logrus.Fields{
		"transactionID": created.ID,
		"status":        created.Status,
		"warnings":      len(action.Warnings),
	}).Info("TransactionService.Create")
	s.record(actor, activity.ActionTransactionCreate, "transaction", created.ID, map[string]string{
		"type":     string(created.Type),
		"amount":   created.Amount.String(),
		"currency": created.Currency,
		"status":   string(created.Status),
	})
	return &CreatedTransaction{Transaction: created, Warnings: action.Warnings}, nil
}

// preflightCreate refuses callers who could not create tx before any file
// is uploaded on their behalf. The action repeats the check under lock.
func (s *TransactionService) preflightCreate(ctx context.Context, actor authz.Principal, tx models.Transaction) error {
	projectID := tx.ProjectID
	if projectID == nil {
		account, err := s.read().Accounts.FindByID(ctx, tx.AccountID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return domainerr.Validation("accountId", "%s does not exist", tx.AccountID)
			}
			return translate(err)
		}
		projectID = account.ProjectID
	}
	perm := authz.PermCreateExpense
	if tx.Type == models.TransactionIn {
		perm = authz.PermCreateIncome
	}
	return s.checkPermission(ctx, actor, projectID, perm)
}

// Approve moves a PENDING transaction to APPROVED and applies it to its
// account balance.
func (s *TransactionService) Approve(ctx context.Context, actor authz.Principal, id uuid.UUID) (*CreatedTransaction, error) {
	action := &actions.ApproveTransaction{
		Actor:         actor,
		TransactionID: id,
		Now:           s.now(),
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithField("transactionID", id).Info("TransactionService.Approve")
	s.record(actor, activity.ActionTransactionApprove, "transaction", id, nil)
	return &CreatedTransaction{Transaction: action.Approved, Warnings: action.Warnings}, nil
}

// Reject moves a PENDING transaction to REJECTED. Balances are untouched.
func (s *TransactionService) Reject(ctx context.Context, actor authz.Principal, id uuid.UUID, reason string) (*models.Transaction, error) {
	action := &actions.RejectTransaction{
		Actor:         actor,
		TransactionID: id,
		Reason:        reason,
		Now:           s.now(),
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithField("transactionID", id).Info("TransactionService.Reject")
	s.record(actor, activity.ActionTransactionReject, "transaction", id, map[string]string{"reason": reason})
	return &action.Rejected, nil
}

// Edit changes a PENDING transaction.
func (s *TransactionService) Edit(ctx context.Context, actor authz.Principal, id uuid.UUID, patch actions.TransactionPatch) (*models.Transaction, error) {
	action := &actions.EditPendingTransaction{
		Actor:         actor,
		TransactionID: id,
		Patch:         patch,
		Now:           s.now(),
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithField("transactionID", id).Info("TransactionService.Edit")
	s.record(actor, activity.ActionTransactionEdit, "transaction", id, nil)
	return &action.Edited, nil
}

// Get returns a transaction the caller may view.
func (s *TransactionService) Get(ctx context.Context, actor authz.Principal, id uuid.UUID) (*models.Transaction, error) {
	tx, err := s.read().Transactions.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "transaction", id)
	}
	if err := s.checkPermission(ctx, actor, tx.ProjectID, authz.PermViewTransactions); err != nil {
		return nil, err
	}
	return tx, nil
}

// List returns a page of transactions visible to the caller, newest first.
func (s *TransactionService) List(ctx context.Context, actor authz.Principal, filter TransactionFilter, cursor *Cursor) ([]models.Transaction, *Cursor, error) {
	sc, err := s.scopeFor(ctx, actor, authz.PermViewTransactions)
	if err != nil {
		return nil, nil, err
	}
	sc, err = sc.narrow(filter.ProjectIDs, authz.PermViewTransactions)
	if err != nil {
		return nil, nil, err
	}

	limit, offset := cursor.bounds()
	rows, err := s.read().Transactions.List(ctx, &storage.TransactionFilter{
		AccountID:   filter.AccountID,
		ProjectIDs:  sc.ids,
		AllProjects: sc.all,
		Status:      filter.Status,
		Type:        filter.Type,
		From:        filter.From,
		To:          filter.To,
		Limit:       limit + 1,
		Offset:      offset,
	})
	if err != nil {
		return nil, nil, translate(err)
	}

	rows, next := page(rows, limit, offset)
	out := make([]models.Transaction, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out, next, nil
}

// Pending lists PENDING transactions the caller may approve, oldest first.
func (s *TransactionService) Pending(ctx context.Context, actor authz.Principal) ([]models.Transaction, error) {
	sc, err := s.scopeFor(ctx, actor, authz.PermApproveTransactions)
	if err != nil {
		return nil, err
	}
	pending := models.StatusPending
	rows, err := s.read().Transactions.List(ctx, &storage.TransactionFilter{
		ProjectIDs:  sc.ids,
		AllProjects: sc.all,
		Status:      &pending,
	})
	if err != nil {
		return nil, translate(err)
	}
	out := make([]models.Transaction, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = *row
	}
	return out, nil
}
