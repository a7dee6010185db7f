package report

import (
	"github.com/carson-networks/project-ledger/internal/handlers/v1/shared"
	"github.com/carson-networks/project-ledger/internal/report"
)

// Report is the API form of an aggregated report. Every amount is a decimal
// string in the report currency unless stated otherwise.
type Report struct {
	Mode     string `json:"mode" doc:"NORMALIZED or NATIVE"`
	Currency string `json:"currency" doc:"Currency of every converted figure"`
	From     string `json:"from,omitempty" doc:"Inclusive lower bound"`
	To       string `json:"to,omitempty" doc:"Exclusive upper bound"`

	Totals        Totals           `json:"totals"`
	PerCurrency   []CurrencyTotals `json:"perCurrency" doc:"Native totals per currency"`
	Monthly       []MonthTotals    `json:"monthly"`
	Categories    []CategoryTotals `json:"categories"`
	CategoryTrend []CategoryTrend  `json:"categoryTrend"`
	Projects      []ProjectTotals  `json:"projects"`
	Accounts      []AccountBalance `json:"accounts"`

	HighValue      []WatchItem `json:"highValue" doc:"Largest expenses above the approval ceiling"`
	HighValueCount int         `json:"highValueCount"`
	Pending        []WatchItem `json:"pending" doc:"Largest transactions awaiting approval"`
	PendingCount   int         `json:"pendingCount"`
}

type Totals struct {
	Income         string `json:"income"`
	Expense        string `json:"expense"`
	Net            string `json:"net"`
	TransferVolume string `json:"transferVolume"`
	Count          int    `json:"count"`
}

type CurrencyTotals struct {
	Currency string `json:"currency"`
	Income   string `json:"income"`
	Expense  string `json:"expense"`
	Net      string `json:"net"`
	Count    int    `json:"count"`
}

type MonthTotals struct {
	Month   string `json:"month" doc:"YYYY-MM"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

type CategoryTotals struct {
	Category string `json:"category"`
	Income   string `json:"income"`
	Expense  string `json:"expense"`
	Count    int    `json:"count"`
}

type CategoryTrend struct {
	Category string        `json:"category"`
	Points   []MonthTotals `json:"points"`
}

type ProjectTotals struct {
	ProjectID       string `json:"projectID"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	Income          string `json:"income"`
	Expense         string `json:"expense"`
	Budget          string `json:"budget"`
	BudgetRemaining string `json:"budgetRemaining,omitempty" doc:"Absent when the budget is kept in another currency"`
}

type AccountBalance struct {
	AccountID string `json:"accountID"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance" doc:"Native balance"`
	Converted string `json:"converted"`
	ProjectID string `json:"projectID,omitempty"`
	IsLocked  bool   `json:"isLocked"`
}

type WatchItem struct {
	TransactionID string `json:"transactionID"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	Amount        string `json:"amount" doc:"Native amount"`
	Currency      string `json:"currency"`
	Converted     string `json:"converted"`
	Category      string `json:"category,omitempty"`
	Description   string `json:"description,omitempty"`
	AccountID     string `json:"accountID"`
	ProjectID     string `json:"projectID,omitempty"`
	Date          string `json:"date"`
}

func fromReport(r *report.Report) Report {
	out := Report{
		Mode:           string(r.Mode),
		Currency:       r.Currency,
		From:           shared.FormatOptionalTime(r.From),
		To:             shared.FormatOptionalTime(r.To),
		HighValueCount: r.HighValueCount,
		PendingCount:   r.PendingCount,
		Totals: Totals{
			Income:         r.Totals.Income.String(),
			Expense:        r.Totals.Expense.String(),
			Net:            r.Totals.Net.String(),
			TransferVolume: r.Totals.TransferVolume.String(),
			Count:          r.Totals.Count,
		},
		PerCurrency:   make([]CurrencyTotals, len(r.PerCurrency)),
		Monthly:       months(r.Monthly),
		Categories:    make([]CategoryTotals, len(r.Categories)),
		CategoryTrend: make([]CategoryTrend, len(r.CategoryTrend)),
		Projects:      make([]ProjectTotals, len(r.Projects)),
		Accounts:      make([]AccountBalance, len(r.Accounts)),
		HighValue:     watchItems(r.HighValue),
		Pending:       watchItems(r.Pending),
	}
	for i, c := range r.PerCurrency {
		out.PerCurrency[i] = CurrencyTotals{
			Currency: c.Currency,
			Income:   c.Income.String(),
			Expense:  c.Expense.String(),
			Net:      c.Net.String(),
			Count:    c.Count,
		}
	}
	for i, c := range r.Categories {
		out.Categories[i] = CategoryTotals{
			Category: c.Category,
			Income:   c.Income.String(),
			Expense:  c.Expense.String(),
			Count:    c.Count,
		}
	}
	for i, c := range r.CategoryTrend {
		out.CategoryTrend[i] = CategoryTrend{Category: c.Category, Points: months(c.Points)}
	}
	for i, p := range r.Projects {
		out.Projects[i] = ProjectTotals{
			ProjectID:       p.ProjectID.String(),
			Name:            p.Name,
			Status:          string(p.Status),
			Income:          p.Income.String(),
			Expense:         p.Expense.String(),
			Budget:          p.Budget.String(),
			BudgetRemaining: shared.FormatOptionalDecimal(p.BudgetRemaining),
		}
	}
	for i, a := range r.Accounts {
		out.Accounts[i] = AccountBalance{
			AccountID: a.AccountID.String(),
			Name:      a.Name,
			Currency:  a.Currency,
			Balance:   a.Balance.String(),
			Converted: a.Converted.String(),
			ProjectID: shared.FormatOptionalUUID(a.ProjectID),
			IsLocked:  a.IsLocked,
		}
	}
	return out
}

func months(in []report.MonthTotals) []MonthTotals {
	out := make([]MonthTotals, len(in))
	for i, m := range in {
		out[i] = MonthTotals{
			Month:   m.Month,
			Income:  m.Income.String(),
			Expense: m.Expense.String(),
			Net:     m.Net.String(),
		}
	}
	return out
}

func watchItems(in []report.WatchItem) []WatchItem {
	out := make([]WatchItem, len(in))
	for i, w := range in {
		out[i] = WatchItem{
			TransactionID: w.TransactionID.String(),
			Type:          string(w.Type),
			Status:        string(w.Status),
			Amount:        w.Amount.String(),
			Currency:      w.Currency,
			Converted:     w.Converted.String(),
			Category:      w.Category,
			Description:   w.Description,
			AccountID:     w.AccountID.String(),
			ProjectID:     shared.FormatOptionalUUID(w.ProjectID),
			Date:          shared.FormatTime(w.Date),
		}
	}
	return out
}

