package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/carson-networks/project-ledger/internal/domainerr"
)

// Provider returns the freshest rate table available at call time.
type Provider interface {
	Rates(ctx context.Context) (RateTable, error)
}

// StaticProvider serves a fixed table.
type StaticProvider struct {
	Table RateTable
}

func (p StaticProvider) Rates(_ context.Context) (RateTable, error) {
	return p.Table.Clone(), nil
}

const defaultRateTimeout = 5 * time.Second

// HTTPProvider fetches rates from a JSON endpoint shaped like
// {"base_code":"USD","rates":{"VND":25000,...}}. Concurrent callers share one
// in-flight request, every request is bounded by a timeout, and repeated
// failures open a circuit breaker so callers fail fast.
type HTTPProvider struct {
	url     string
	client  *http.Client
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	group   singleflight.Group
	logger  *logrus.Logger
}

type rateResponse struct {
	Base     string                     `json:"base"`
	BaseCode string                     `json:"base_code"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// NewHTTPProvider creates a provider for url. A zero timeout uses 5s.
func NewHTTPProvider(url string, timeout time.Duration, logger *logrus.Logger) *HTTPProvider {
	if timeout <= 0 {
		timeout = defaultRateTimeout
	}
	p := &HTTPProvider{
		url:     url,
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "exchange-rates",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("HTTPProvider.breaker.stateChange")
		},
	})
	return p
}

// Rates fetches the current table. Failures are reported as upstream errors.
// The shared fetch is bounded by the provider timeout only, so one caller
// giving up does not fail the others waiting on it.
func (p *HTTPProvider) Rates(ctx context.Context) (RateTable, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := p.group.DoChan("rates", func() (any, error) {
		return p.breaker.Execute(func() (any, error) {
			return p.fetch(fetchCtx)
		})
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	v, err := res.Val, res.Err
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.logger.WithError(err).Warn("HTTPProvider.Rates.breakerOpen")
		}
		return nil, domainerr.Upstream("exchangeRates", err)
	}
	return v.(RateTable).Clone(), nil
}

func (p *HTTPProvider) fetch(ctx context.Context) (RateTable, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var body rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, errors.New("decode rates: empty rate table")
	}

	table := make(RateTable, len(body.Rates)+1)
	for code, rate := range body.Rates {
		table[Normalize(code)] = rate
	}
	base := Normalize(body.BaseCode)
	if base == "" {
		base = Normalize(body.Base)
	}
	if base != "" && !table.Has(base) {
		table[base] = decimal.NewFromInt(1)
	}
	return table, nil
}
