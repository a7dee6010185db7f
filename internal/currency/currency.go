// Package currency holds the currency-indexed conversion table, the single
// conversion function used across the ledger, and the approval-threshold policy.
package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	USD = "USD"
	VND = "VND"
	KHR = "KHR"
	TRY = "TRY"
)

// Normalize upper-cases and trims a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code looks like an ISO 4217 alphabetic code.
func ValidCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// RateTable maps a currency code to units of that currency per one unit of a
// common base.
type RateTable map[string]decimal.Decimal

// Rate returns the rate of code. A missing or non-positive entry yields 1 so
// that reports degrade to unconverted figures instead of failing.
func (t RateTable) Rate(code string) decimal.Decimal {
	r, ok := t[Normalize(code)]
	if !ok || !r.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return r
}

// Has reports whether the table carries a usable rate for code.
func (t RateTable) Has(code string) bool {
	r, ok := t[Normalize(code)]
	return ok && r.IsPositive()
}

// Clone returns an independent copy of the table.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// String renders the table as sorted CODE=rate pairs.
func (t RateTable) String() string {
	codes := make([]string, 0, len(t))
	for k := range t {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = code + "=" + t[code].String()
	}
	return strings.Join(parts, ",")
}

// CrossRate returns how many units of to one unit of from is worth.
func CrossRate(from, to string, table RateTable) decimal.Decimal {
	if Normalize(from) == Normalize(to) {
		return decimal.NewFromInt(1)
	}
	return table.Rate(to).Div(table.Rate(from))
}

// Convert converts amount from one currency to another:
// amount * (rate[to] / rate[from]).
func Convert(amount decimal.Decimal, from, to string, table RateTable) decimal.Decimal {
	if Normalize(from) == Normalize(to) {
		return amount
	}
	return amount.Mul(table.Rate(to)).Div(table.Rate(from))
}

// DefaultRates is the fallback table, in units per USD.
func DefaultRates() RateTable {
	return RateTable{
		USD: decimal.NewFromInt(1),
		VND: decimal.NewFromInt(25000),
		KHR: decimal.NewFromInt(4100),
		TRY: decimal.NewFromInt(34),
	}
}

// ParseRateTable parses "USD=1,VND=25000" into a table.
func ParseRateTable(s string) (RateTable, error) {
	pairs, err := parsePairs(s)
	if err != nil {
		return nil, err
	}
	for code, rate := range pairs {
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive", code)
		}
	}
	return RateTable(pairs), nil
}

func parsePairs(s string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("malformed pair %q", part)
		}
		code = Normalize(code)
		if !ValidCode(code) {
			return nil, fmt.Errorf("invalid currency code %q", code)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid amount for %s: %w", code, err)
		}
		out[code] = d
	}
	return out, nil
}
