// Package report derives dashboard metrics from the transaction log. Aggregate
// is a pure function: it never touches storage and its output depends only on
// its arguments, so identical inputs give identical reports.
package report

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/models"
)

// Mode tells how figures in a report are denominated.
type Mode string

const (
	// ModeNormalized converts every amount into the base currency.
	ModeNormalized Mode = "NORMALIZED"
	// ModeNative reports a single currency with no conversion at all.
	ModeNative Mode = "NATIVE"
)

const DefaultWatchlistSize = 5

// Filter narrows the transactions a report covers. To is exclusive.
type Filter struct {
	From        *time.Time
	To          *time.Time
	ProjectIDs  []uuid.UUID
	AllProjects bool
	// Currency switches the report to native mode for that currency.
	Currency string
}

type Options struct {
	BaseCurrency  string
	Thresholds    currency.Thresholds
	WatchlistSize int
}

type Input struct {
	Transactions []*models.Transaction
	Accounts     []*models.Account
	Projects     []*models.Project
	Rates        currency.RateTable
}

type Report struct {
	Mode     Mode
	Currency string
	From     *time.Time
	To       *time.Time

	Totals        Totals
	PerCurrency   []CurrencyTotals
	Monthly       []MonthTotals
	Categories    []CategoryTotals
	CategoryTrend []CategoryTrend
	Projects      []ProjectTotals
	Accounts      []AccountBalance

	HighValue      []WatchItem
	HighValueCount int
	Pending        []WatchItem
	PendingCount   int
}

// Totals are approved income and expense in the report currency. Transfer
// legs move money between accounts and are reported apart from both.
type Totals struct {
	Income         decimal.Decimal
	Expense        decimal.Decimal
	Net            decimal.Decimal
	TransferVolume decimal.Decimal
	Count          int
}

// CurrencyTotals are always native amounts, whatever the report mode.
type CurrencyTotals struct {
	Currency string
	Income   decimal.Decimal
	Expense  decimal.Decimal
	Net      decimal.Decimal
	Count    int
}

type MonthTotals struct {
	Month   string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// CategoryTotals groups by parent category, falling back to the category.
type CategoryTotals struct {
	Category string
	Income   decimal.Decimal
	Expense  decimal.Decimal
	Count    int
}

type CategoryTrend struct {
	Category string
	Points   []MonthTotals
}

type ProjectTotals struct {
	ProjectID uuid.UUID
	Name      string
	Status    models.ProjectStatus
	Income    decimal.Decimal
	Expense   decimal.Decimal
	Budget    decimal.Decimal
	// BudgetRemaining is nil in native mode when the project budget is kept
	// in another currency.
	BudgetRemaining *decimal.Decimal
}

type AccountBalance struct {
	AccountID uuid.UUID
	Name      string
	Currency  string
	Balance   decimal.Decimal
	// Converted is the balance in the report currency.
	Converted decimal.Decimal
	ProjectID *uuid.UUID
	IsLocked  bool
}

type WatchItem struct {
	TransactionID uuid.UUID
	Type          models.TransactionType
	Status        models.TransactionStatus
	Amount        decimal.Decimal
	Currency      string
	Converted     decimal.Decimal
	Category      string
	Description   string
	AccountID     uuid.UUID
	ProjectID     *uuid.UUID
	Date          time.Time
}
