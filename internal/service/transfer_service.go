package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/activity"
	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/models"
	"github.com/carson-networks/project-ledger/internal/operator/actions"
)

// TransferService moves money between two accounts.
type TransferService struct {
	*base
}

// TransferRequest describes a transfer. ManualRate overrides the rate table.
type TransferRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	ManualRate    *decimal.Decimal
	Description   string
	Date          time.Time
}

// TransferResult is the outcome of a transfer: the two linked legs and the
// rate that was applied.
type TransferResult struct {
	Reference string
	Rate      decimal.Decimal
	Received  decimal.Decimal
	Out       models.Transaction
	In        models.Transaction
}

// Transfer debits the source and credits the destination in one atomic unit.
func (s *TransferService) Transfer(ctx context.Context, actor authz.Principal, req TransferRequest) (*TransferResult, error) {
	if !actor.IsAdmin {
		return nil, domainerr.PermissionDenied(string(authz.RoleAdmin))
	}

	rates, err := s.ratesFor(ctx, req)
	if err != nil {
		return nil, err
	}

	action := &actions.Transfer{
		Actor:         actor,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		ManualRate:    req.ManualRate,
		Rates:         rates,
		Description:   req.Description,
		Date:          req.Date,
		Now:           s.now(),
	}
	if err := s.process(ctx, action); err != nil {
		return nil, err
	}

	s.logger().WithFields(logrus.Fields{
		"reference": action.Reference,
		"from":      req.FromAccountID,
		"to":        req.ToAccountID,
		"rate":      action.Rate.String(),
	}).Info("TransferService.Transfer")
	s.record(actor, activity.ActionTransferCreate, "transfer", action.Out.ID, map[string]string{
		"reference": action.Reference,
		"amount":    action.Out.Amount.String() + " " + action.Out.Currency,
		"received":  action.Received.String() + " " + action.In.Currency,
		"rate":      action.Rate.String(),
	})
	return &TransferResult{
		Reference: action.Reference,
		Rate:      action.Rate,
		Received:  action.Received,
		Out:       action.Out,
		In:        action.In,
	}, nil
}

// ratesFor fetches a rate table only when the transfer crosses currencies and
// no manual rate was given. Rates are read before any lock is taken.
func (s *TransferService) ratesFor(ctx context.Context, req TransferRequest) (currency.RateTable, error) {
	if req.ManualRate != nil || req.FromAccountID == req.ToAccountID {
		return nil, nil
	}
	from, err := s.read().Accounts.FindByID(ctx, req.FromAccountID)
	if err != nil {
		return nil, accountLinkage(err, "fromAccountId", req.FromAccountID)
	}
	to, err := s.read().Accounts.FindByID(ctx, req.ToAccountID)
	if err != nil {
		return nil, accountLinkage(err, "toAccountId", req.ToAccountID)
	}
	if from.Currency == to.Currency {
		return nil, nil
	}

	rates, err := s.deps.Rates.Rates(ctx)
	if err != nil {
		if domainerr.KindOf(err) == "" {
			err = domainerr.Upstream("rates", err)
		}
		return nil, err
	}
	for _, code := range []string{from.Currency, to.Currency} {
		if !rates.Has(code) {
			return nil, domainerr.Validation("manualRate", "no exchange rate for %s, a manual rate is required", code)
		}
	}
	return rates, nil
}
