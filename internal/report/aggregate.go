package report

import (
	"sort"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/project-ledger/internal/currency"
	"github.com/carson-networks/project-ledger/internal/models"
)

const Uncategorized = "Uncategorized"

const monthLayout = "2006-01"

type flow struct {
	income  decimal.Decimal
	expense decimal.Decimal
	count   int
}

func (f *flow) add(t models.TransactionType, amount decimal.Decimal) {
	if t == models.TransactionIn {
		f.income = f.income.Add(amount)
	} else {
		f.expense = f.expense.Add(amount)
	}
	f.count++
}

type aggregator struct {
	in      Input
	filter  Filter
	opts    Options
	base    string
	native  string
	scope   map[uuid.UUID]bool
	watchN  int
	report  Report
	totals  flow
	volume  decimal.Decimal
	byCur   map[string]*flow
	byMonth map[string]*flow
	byCat   map[string]*flow
	trend   map[string]map[string]*flow
	byProj  map[uuid.UUID]*flow
	high    []WatchItem
	pending []WatchItem
}

// Aggregate builds a report over the APPROVED transactions selected by
// filter. Without a currency filter every amount is converted into
// opts.BaseCurrency. With one, only that currency is considered and nothing
// is converted. A currency missing from the rate table converts at 1, so a
// stale table degrades figures instead of failing the report.
func Aggregate(in Input, filter Filter, opts Options) Report {
	a := &aggregator{
		in:      in,
		filter:  filter,
		opts:    opts,
		base:    currency.Normalize(opts.BaseCurrency),
		native:  currency.Normalize(filter.Currency),
		watchN:  opts.WatchlistSize,
		byCur:   make(map[string]*flow),
		byMonth: make(map[string]*flow),
		byCat:   make(map[string]*flow),
		trend:   make(map[string]map[string]*flow),
		byProj:  make(map[uuid.UUID]*flow),
	}
	if a.base == "" {
		a.base = currency.USD
	}
	if a.watchN <= 0 {
		a.watchN = DefaultWatchlistSize
	}
	if !filter.AllProjects {
		a.scope = make(map[uuid.UUID]bool, len(filter.ProjectIDs))
		for _, id := range filter.ProjectIDs {
			a.scope[id] = true
		}
	}

	a.report = Report{Mode: ModeNormalized, Currency: a.base, From: filter.From, To: filter.To}
	if a.native != "" {
		a.report.Mode = ModeNative
		a.report.Currency = a.native
	}

	for _, tx := range in.Transactions {
		if tx != nil && a.selects(tx) {
			a.add(tx)
		}
	}
	a.finish()
	return a.report
}

func (a *aggregator) inScope(projectID *uuid.UUID) bool {
	if a.scope == nil {
		return true
	}
	return projectID != nil && a.scope[*projectID]
}

func (a *aggregator) selects(tx *models.Transaction) bool {
	if !a.inScope(tx.ProjectID) {
		return false
	}
	if a.filter.From != nil && tx.Date.Before(*a.filter.From) {
		return false
	}
	if a.filter.To != nil && !tx.Date.Before(*a.filter.To) {
		return false
	}
	return a.native == "" || currency.Normalize(tx.Currency) == a.native
}

// convert returns amount in the report currency.
func (a *aggregator) convert(amount decimal.Decimal, from string) decimal.Decimal {
	if a.native != "" {
		return amount
	}
	return currency.Convert(amount, from, a.base, a.in.Rates)
}

// money rounds converted figures for display. Native figures are untouched.
func (a *aggregator) money(d decimal.Decimal) decimal.Decimal {
	if a.native != "" {
		return d
	}
	return d.Round(2)
}

func (a *aggregator) add(tx *models.Transaction) {
	amount := a.convert(tx.Amount, tx.Currency)

	if tx.Status == models.StatusPending {
		a.pending = append(a.pending, a.watchItem(tx, amount))
	}
	if tx.Type == models.TransactionOut && tx.Status != models.StatusRejected && tx.TransferRef == "" &&
		a.opts.Thresholds.RequiresApproval(tx.Amount, tx.Currency) {
		a.high = append(a.high, a.watchItem(tx, amount))
	}
	if tx.Status != models.StatusApproved {
		return
	}
	bucket(a.byCur, currency.Normalize(tx.Currency)).add(tx.Type, tx.Amount)
	a.addProject(tx, amount)

	// Transfer legs move money between accounts. They count per currency
	// and per project but are neither income nor expense of the ledger.
	if tx.TransferRef != "" {
		if tx.Type == models.TransactionOut {
			a.volume = a.volume.Add(amount)
		}
		return
	}

	a.totals.add(tx.Type, amount)

	month := tx.Date.UTC().Format(monthLayout)
	bucket(a.byMonth, month).add(tx.Type, amount)

	cat := tx.ReportingCategory()
	if cat == "" {
		cat = Uncategorized
	}
	bucket(a.byCat, cat).add(tx.Type, amount)
	if a.trend[cat] == nil {
		a.trend[cat] = make(map[string]*flow)
	}
	bucket(a.trend[cat], month).add(tx.Type, amount)
}

func (a *aggregator) addProject(tx *models.Transaction, amount decimal.Decimal) {
	if tx.ProjectID == nil {
		return
	}
	f, ok := a.byProj[*tx.ProjectID]
	if !ok {
		f = &flow{}
		a.byProj[*tx.ProjectID] = f
	}
	f.add(tx.Type, amount)
}

func bucket(m map[string]*flow, key string) *flow {
	f, ok := m[key]
	if !ok {
		f = &flow{}
		m[key] = f
	}
	return f
}

func (a *aggregator) watchItem(tx *models.Transaction, converted decimal.Decimal) WatchItem {
	return WatchItem{
		TransactionID: tx.ID,
		Type:          tx.Type,
		Status:        tx.Status,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Converted:     a.money(converted),
		Category:      tx.Category,
		Description:   tx.Description,
		AccountID:     tx.AccountID,
		ProjectID:     tx.ProjectID,
		Date:          tx.Date,
	}
}

func (a *aggregator) finish() {
	r := &a.report
	r.Totals = Totals{
		Income:         a.money(a.totals.income),
		Expense:        a.money(a.totals.expense),
		Net:            a.money(a.totals.income.Sub(a.totals.expense)),
		TransferVolume: a.money(a.volume),
		Count:          a.totals.count,
	}

	for _, code := range sortedKeys(a.byCur) {
		f := a.byCur[code]
		r.PerCurrency = append(r.PerCurrency, CurrencyTotals{
			Currency: code,
			Income:   f.income,
			Expense:  f.expense,
			Net:      f.income.Sub(f.expense),
			Count:    f.count,
		})
	}

	r.Monthly = a.months(a.byMonth)

	for name, f := range a.byCat {
		r.Categories = append(r.Categories, CategoryTotals{
			Category: name,
			Income:   a.money(f.income),
			Expense:  a.money(f.expense),
			Count:    f.count,
		})
	}
	sort.Slice(r.Categories, func(i, j int) bool {
		ci, cj := r.Categories[i], r.Categories[j]
		if !ci.Expense.Equal(cj.Expense) {
			return ci.Expense.GreaterThan(cj.Expense)
		}
		if !ci.Income.Equal(cj.Income) {
			return ci.Income.GreaterThan(cj.Income)
		}
		return ci.Category < cj.Category
	})

	for _, name := range sortedKeys(a.trend) {
		r.CategoryTrend = append(r.CategoryTrend, CategoryTrend{Category: name, Points: a.months(a.trend[name])})
	}

	r.Projects = a.projects()
	r.Accounts = a.accounts()

	r.HighValueCount = len(a.high)
	r.HighValue = top(a.high, a.watchN)
	r.PendingCount = len(a.pending)
	r.Pending = top(a.pending, a.watchN)
}

func (a *aggregator) months(m map[string]*flow) []MonthTotals {
	out := make([]MonthTotals, 0, len(m))
	for _, month := range sortedKeys(m) {
		f := m[month]
		out = append(out, MonthTotals{
			Month:   month,
			Income:  a.money(f.income),
			Expense: a.money(f.expense),
			Net:     a.money(f.income.Sub(f.expense)),
		})
	}
	return out
}

func (a *aggregator) projects() []ProjectTotals {
	seen := make(map[uuid.UUID]bool)
	var out []ProjectTotals
	for _, p := range a.in.Projects {
		if p == nil || seen[p.ID] || !a.inScope(&p.ID) {
			continue
		}
		seen[p.ID] = true
		f := a.byProj[p.ID]
		if f == nil {
			f = &flow{}
		}
		pt := ProjectTotals{
			ProjectID: p.ID,
			Name:      p.Name,
			Status:    p.Status,
			Income:    a.money(f.income),
			Expense:   a.money(f.expense),
		}
		if a.native == "" || currency.Normalize(p.Currency) == a.native {
			budget := a.convert(p.Budget, p.Currency)
			remaining := a.money(budget.Sub(f.expense))
			pt.Budget = a.money(budget)
			pt.BudgetRemaining = &remaining
		}
		out = append(out, pt)
	}
	// Transactions may reference projects the caller did not load.
	for id, f := range a.byProj {
		if seen[id] {
			continue
		}
		out = append(out, ProjectTotals{ProjectID: id, Income: a.money(f.income), Expense: a.money(f.expense)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ProjectID.String() < out[j].ProjectID.String()
	})
	return out
}

func (a *aggregator) accounts() []AccountBalance {
	var out []AccountBalance
	for _, acc := range a.in.Accounts {
		if acc == nil || !a.inScope(acc.ProjectID) {
			continue
		}
		if a.native != "" && currency.Normalize(acc.Currency) != a.native {
			continue
		}
		out = append(out, AccountBalance{
			AccountID: acc.ID,
			Name:      acc.Name,
			Currency:  acc.Currency,
			Balance:   acc.Balance,
			Converted: a.money(a.convert(acc.Balance, acc.Currency)),
			ProjectID: acc.ProjectID,
			IsLocked:  acc.IsLocked,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].AccountID.String() < out[j].AccountID.String()
	})
	return out
}

// top orders items by converted amount, newest first on ties, and keeps n.
func top(items []WatchItem, n int) []WatchItem {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Converted.Equal(items[j].Converted) {
			return items[i].Converted.GreaterThan(items[j].Converted)
		}
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].TransactionID.String() < items[j].TransactionID.String()
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
