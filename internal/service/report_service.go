package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/carson-networks/project-ledger/internal/authz"
	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/domainerr"
	"github.com/carson-networks/project-ledger/internal/report"
	"github.com/carson-networks/project-ledger/internal/storage"
)

// ReportService builds financial reports over the caller's projects.
type ReportService struct {
	*base
}

// ReportRequest selects what a report covers. A non-empty Currency switches
// to native mode. Empty ProjectIDs means every project the caller may report on.
type ReportRequest struct {
	From       *time.Time
	To         *time.Time
	ProjectIDs []uuid.UUID
	Currency   string
}

// Build loads a consistent snapshot of the ledger and aggregates it.
func (s *ReportService) Build(ctx context.Context, actor authz.Principal, req ReportRequest) (*report.Report, error) {
	req.Currency = currency.Normalize(req.Currency)
	if req.Currency != "" && !currency.ValidCode(req.Currency) {
		return nil, domainerr.Validation("currency", "%q is not a currency code", req.Currency)
	}
	if req.From != nil && req.To != nil && !req.From.Before(*req.To) {
		return nil, domainerr.Validation("to", "must be after from")
	}

	sc, err := s.scopeFor(ctx, actor, authz.PermViewReports)
	if err != nil {
		return nil, err
	}
	sc, err = sc.narrow(req.ProjectIDs, authz.PermViewReports)
	if err != nil {
		return nil, err
	}

	var in report.Input
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.read().Projects.List(gctx)
		in.Projects = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.read().Accounts.List(gctx, &storage.AccountFilter{ProjectIDs: sc.ids, AllProjects: sc.all})
		in.Accounts = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.read().Transactions.List(gctx, &storage.TransactionFilter{
			ProjectIDs:  sc.ids,
			AllProjects: sc.all,
			From:        req.From,
			To:          req.To,
		})
		in.Transactions = rows
		return err
	})
	if req.Currency == "" {
		g.Go(func() error {
			rates, err := s.deps.Rates.Rates(gctx)
			if err != nil && domainerr.KindOf(err) == "" {
				err = domainerr.Upstream("rates", err)
			}
			in.Rates = rates
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, translate(err)
	}

	filter := report.Filter{
		From:        req.From,
		To:          req.To,
		ProjectIDs:  sc.ids,
		AllProjects: sc.all,
		Currency:    req.Currency,
	}
	out := report.Aggregate(in, filter, report.Options{
		BaseCurrency:  s.deps.BaseCurrency,
		Thresholds:    s.deps.Thresholds,
		WatchlistSize: s.deps.WatchlistSize,
	})

	s.logger().WithFields(logrus.Fields{
		"mode":         out.Mode,
		"currency":     out.Currency,
		"transactions": out.Totals.Count,
		"projects":     len(out.Projects),
	}).Debug("ReportService.Build")
	return &out, nil
}
