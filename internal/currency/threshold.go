package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Thresholds is the approval-threshold policy: a fixed, currency-specific
// ceiling above which an outgoing amount needs explicit approval.
type Thresholds struct {
	ceilings map[string]decimal.Decimal
	fallback decimal.Decimal
}

// DefaultThresholds returns the standard ceilings. The VND ceiling is an order
// of magnitude above the others.
func DefaultThresholds() Thresholds {
	return NewThresholds(map[string]decimal.Decimal{
		VND: decimal.NewFromInt(5_000_000),
		USD: decimal.NewFromInt(500_000),
		KHR: decimal.NewFromInt(500_000),
		TRY: decimal.NewFromInt(500_000),
	}, decimal.NewFromInt(500_000))
}

// NewThresholds builds a policy. fallback applies to currencies without an entry.
func NewThresholds(ceilings map[string]decimal.Decimal, fallback decimal.Decimal) Thresholds {
	c := make(map[string]decimal.Decimal, len(ceilings))
	for code, v := range ceilings {
		c[Normalize(code)] = v
	}
	return Thresholds{ceilings: c, fallback: fallback}
}

// ParseThresholds parses "VND=5000000,USD=500000". Currencies not listed keep
// the default ceilings.
func ParseThresholds(s string) (Thresholds, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return Thresholds{}, err
	}
	t := DefaultThresholds()
	for code, v := range pairs {
		if !v.IsPositive() {
			return Thresholds{}, fmt.Errorf("ceiling for %s must be positive", code)
		}
		t.ceilings[code] = v
	}
	return t, nil
}

// Ceiling returns the auto-approval ceiling for the currency.
func (t Thresholds) Ceiling(code string) decimal.Decimal {
	if v, ok := t.ceilings[Normalize(code)]; ok {
		return v
	}
	return t.fallback
}

// RequiresApproval reports whether an outgoing amount is above the ceiling.
// Amounts at the ceiling are auto-approved.
func (t Thresholds) RequiresApproval(amount decimal.Decimal, code string) bool {
	return amount.GreaterThan(t.Ceiling(code))
}
