package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"expenses/internal/core"
	"expenses/internal/ledger"
	applog "expenses/internal/log"

	"github.com/shopspring/decimal"
)

// ReportKind names one of the views a session can render.
type ReportKind string

const (
	ReportByCategory      ReportKind = "by-category"
	ReportByMajorCategory ReportKind = "by-major-category"
	ReportByMonth         ReportKind = "by-month"
	ReportIncomeVsExpense ReportKind = "income-vs-expense"
	ReportRecentExpenses  ReportKind = "recent-expenses"
	ReportIncome          ReportKind = "income"
)

// ReportKinds lists every kind accepted by Tracker.Report, in menu order.
func ReportKinds() []ReportKind {
	return []ReportKind{
		ReportRecentExpenses,
		ReportIncome,
		ReportByCategory,
		ReportByMajorCategory,
		ReportByMonth,
		ReportIncomeVsExpense,
	}
}

// ParseReportKind maps a user supplied name to a ReportKind.
func ParseReportKind(s string) (ReportKind, error) {
	k := ReportKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ReportKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown report %q", core.ErrValidation, s)
}

// ExpenseEntry carries the driver's answers for one expense. PriceText is
// ignored for fixed-price categories, Description for every category that
// does not accept one.
type ExpenseEntry struct {
	Date        core.Date
	Category    string
	PriceText   string
	Description string
}

type IncomeEntry struct {
	Date        core.Date
	Description string
	AmountText  string
}

// Tracker is one data-entry session over a ledger backend.
type Tracker struct {
	ledger       ledger.Ledger
	suppressed   core.CategorySet
	recentLimit  int
	logger       *applog.Logger
	closeBackend func() error
	closeOnce    sync.Once
	closeErr     error
}

// TrackerConfig holds the session settings.
type TrackerConfig struct {
	// Suppressed lists the categories whose free-text description is dropped.
	Suppressed []string
	// RecentLimit bounds the recent-expenses report. Defaults to 50.
	RecentLimit int
	Logger      *applog.Logger
	// Closer releases the backend on Close.
	Closer func() error
}

func NewTracker(l ledger.Ledger, cfg TrackerConfig) *Tracker {
	t := &Tracker{
		ledger:       l,
		suppressed:   core.NewCategorySet(cfg.Suppressed...),
		recentLimit:  cfg.RecentLimit,
		closeBackend: cfg.Closer,
	}
	if t.recentLimit <= 0 {
		t.recentLimit = 50
	}
	if cfg.Logger != nil {
		t.logger = cfg.Logger.WithComponent(applog.ComponentSession)
	} else {
		logCfg := applog.DefaultConfig()
		logCfg.Component = applog.ComponentSession
		t.logger = applog.New(logCfg)
	}
	return t
}

// ExpenseCategoryChoices lists known categories, minus outdated and excluded
// ones, followed by the "new category" option.
func (t *Tracker) ExpenseCategoryChoices(ctx context.Context) ([]core.Option, error) {
	names, err := t.expenseCategories(ctx)
	if err != nil {
		return nil, err
	}
	return core.CandidateList(names, core.NewCategoryLabel), nil
}

func (t *Tracker) expenseCategories(ctx context.Context) ([]string, error) {
	outdated, err := t.ledger.OutdatedCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load outdated categories: %w", err)
	}
	names, err := t.ledger.ExpenseCategories(ctx, outdated)
	if err != nil {
		return nil, fmt.Errorf("load expense categories: %w", err)
	}
	return names, nil
}

// ResolveExpenseCategory maps a choice over ExpenseCategoryChoices to a name.
func (t *Tracker) ResolveExpenseCategory(ctx context.Context, c core.Choice) (string, error) {
	names, err := t.expenseCategories(ctx)
	if err != nil {
		return "", err
	}
	return core.PickChoice(names, c)
}

func (t *Tracker) IncomeDescriptionChoices(ctx context.Context) ([]core.Option, error) {
	names, err := t.ledger.IncomeDescriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load income descriptions: %w", err)
	}
	return core.CandidateList(names, core.NewDescriptionLabel), nil
}

// ResolveIncomeDescription maps a choice over IncomeDescriptionChoices to a name.
func (t *Tracker) ResolveIncomeDescription(ctx context.Context, c core.Choice) (string, error) {
	names, err := t.ledger.IncomeDescriptions(ctx)
	if err != nil {
		return "", fmt.Errorf("load income descriptions: %w", err)
	}
	return core.PickChoice(names, c)
}

// ExpensePolicy tells the driver which answers a category still needs.
func (t *Tracker) ExpensePolicy(ctx context.Context, category string) (core.Policy, error) {
	category = strings.TrimSpace(category)
	price, fixed, err := t.ledger.FixedPrice(ctx, category)
	if err != nil {
		return core.Policy{}, fmt.Errorf("lookup fixed price: %w", err)
	}
	table := core.FixedPrices{}
	if fixed {
		table[category] = price
	}
	return core.ResolveCategory(category, table, t.suppressed), nil
}

func (t *Tracker) AddExpense(ctx context.Context, in ExpenseEntry) (core.Expense, error) {
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return core.Expense{}, t.fail(ctx, applog.OpAddExpense, core.ErrEmptyCategory)
	}
	policy, err := t.ExpensePolicy(ctx, category)
	if err != nil {
		return core.Expense{}, t.fail(ctx, applog.OpAddExpense, err)
	}

	e := core.Expense{Date: in.Date, Category: category}
	switch policy.Kind {
	case core.PolicyFixed:
		e.Price = policy.Price
	case core.PolicySuppressed:
		if e.Price, err = core.ParsePrice(in.PriceText); err != nil {
			return core.Expense{}, t.fail(ctx, applog.OpAddExpense, err)
		}
	default:
		if e.Price, err = core.ParsePrice(in.PriceText); err != nil {
			return core.Expense{}, t.fail(ctx, applog.OpAddExpense, err)
		}
		e.Description = strings.TrimSpace(in.Description)
	}

	saved, err := t.ledger.InsertExpense(ctx, e)
	if err != nil {
		return core.Expense{}, t.fail(ctx, applog.OpAddExpense, err)
	}
	fields := applog.NewFields().
		WithOperation(applog.OpAddExpense).
		WithExpense(saved.Category, policy.Kind.String(), core.ToCents(saved.Price))
	t.logger.InfoContext(ctx, "Expense recorded", append(fields.ToSlice(), applog.FieldID, saved.ID)...)
	return saved, nil
}

func (t *Tracker) AddIncome(ctx context.Context, in IncomeEntry) (core.Income, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return core.Income{}, t.fail(ctx, applog.OpAddIncome, core.ErrEmptyDescription)
	}
	amount, err := core.ParsePrice(in.AmountText)
	if err != nil {
		return core.Income{}, t.fail(ctx, applog.OpAddIncome, err)
	}
	saved, err := t.ledger.InsertIncome(ctx, core.Income{Date: in.Date, Description: desc, Amount: amount})
	if err != nil {
		return core.Income{}, t.fail(ctx, applog.OpAddIncome, err)
	}
	t.logger.InfoContext(ctx, "Income recorded",
		applog.FieldOperation, applog.OpAddIncome,
		applog.FieldID, saved.ID,
		applog.FieldAmountCents, core.ToCents(saved.Amount))
	return saved, nil
}

// UndoLastExpense removes the most recently inserted expense.
func (t *Tracker) UndoLastExpense(ctx context.Context) (core.Expense, error) {
	removed, err := t.ledger.DeleteLastExpense(ctx)
	if err != nil {
		return core.Expense{}, t.fail(ctx, applog.OpUndoExpense, err)
	}
	t.logger.InfoContext(ctx, "Expense removed", applog.FieldOperation, applog.OpUndoExpense, applog.FieldID, removed.ID)
	return removed, nil
}

func (t *Tracker) UndoLastIncome(ctx context.Context) (core.Income, error) {
	removed, err := t.ledger.DeleteLastIncome(ctx)
	if err != nil {
		return core.Income{}, t.fail(ctx, applog.OpUndoIncome, err)
	}
	t.logger.InfoContext(ctx, "Income removed", applog.FieldOperation, applog.OpUndoIncome, applog.FieldID, removed.ID)
	return removed, nil
}

func (t *Tracker) ByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	expenses, err := t.ledger.Expenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return core.SummarizeByCategory(expenses), nil
}

func (t *Tracker) ByMajorCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	expenses, err := t.ledger.Expenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	groups, err := t.ledger.MajorCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load major categories: %w", err)
	}
	return core.SummarizeByMajorCategory(expenses, groups), nil
}

func (t *Tracker) ByMonth(ctx context.Context) ([]core.MonthTotal, error) {
	expenses, err := t.ledger.Expenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return core.SummarizeByMonth(expenses), nil
}

func (t *Tracker) IncomeVsExpense(ctx context.Context) ([]core.MonthBalance, error) {
	expenses, err := t.ledger.Expenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	income, err := t.ledger.Income(ctx)
	if err != nil {
		return nil, fmt.Errorf("load income: %w", err)
	}
	return core.SummarizeIncomeVsExpense(expenses, income), nil
}

// Report renders kind as a table of display strings.
func (t *Tracker) Report(ctx context.Context, kind ReportKind) (core.Table, error) {
	var (
		table core.Table
		err   error
	)
	switch kind {
	case ReportByCategory:
		var rows []core.CategoryTotal
		if rows, err = t.ByCategory(ctx); err == nil {
			table = core.CategoryTable("Monthly expenses by category", rows)
		}
	case ReportByMajorCategory:
		var rows []core.CategoryTotal
		if rows, err = t.ByMajorCategory(ctx); err == nil {
			table = core.CategoryTable("Monthly expenses by major category", rows)
		}
	case ReportByMonth:
		var rows []core.MonthTotal
		if rows, err = t.ByMonth(ctx); err == nil {
			table = core.MonthTable("Monthly expenses", rows)
		}
	case ReportIncomeVsExpense:
		var rows []core.MonthBalance
		if rows, err = t.IncomeVsExpense(ctx); err == nil {
			table = core.BalanceTable("Income vs expenses", rows)
		}
	case ReportRecentExpenses:
		var rows []core.Expense
		if rows, err = t.ledger.RecentExpenses(ctx, t.recentLimit); err == nil {
			table = core.ExpenseTable(fmt.Sprintf("Last %d expenses", t.recentLimit), rows)
		}
	case ReportIncome:
		var rows []core.Income
		if rows, err = t.ledger.Income(ctx); err == nil {
			table = core.IncomeTable("Income", rows)
		}
	default:
		err = fmt.Errorf("%w: unknown report %q", core.ErrValidation, kind)
	}
	if err != nil {
		return core.Table{}, t.fail(ctx, applog.OpReport, err)
	}
	t.logger.DebugContext(ctx, "Report built", applog.FieldReport, string(kind), applog.FieldRows, len(table.Rows))
	return table, nil
}

// FixedPrice returns the configured price for category, if any.
func (t *Tracker) FixedPrice(ctx context.Context, category string) (decimal.Decimal, bool, error) {
	return t.ledger.FixedPrice(ctx, strings.TrimSpace(category))
}

// SetFixedPrice parses priceText and stores it as the fixed price of category.
func (t *Tracker) SetFixedPrice(ctx context.Context, category, priceText string) (decimal.Decimal, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return decimal.Zero, t.fail(ctx, applog.OpAdmin, core.ErrEmptyCategory)
	}
	price, err := core.ParsePrice(priceText)
	if err != nil {
		return decimal.Zero, t.fail(ctx, applog.OpAdmin, err)
	}
	if err := t.ledger.SetFixedPrice(ctx, category, price); err != nil {
		return decimal.Zero, t.fail(ctx, applog.OpAdmin, err)
	}
	return price, nil
}

func (t *Tracker) RemoveFixedPrice(ctx context.Context, category string) error {
	if err := t.ledger.RemoveFixedPrice(ctx, strings.TrimSpace(category)); err != nil {
		return t.fail(ctx, applog.OpAdmin, err)
	}
	return nil
}

func (t *Tracker) SetMajorCategory(ctx context.Context, category, major string) error {
	category, major = strings.TrimSpace(category), strings.TrimSpace(major)
	if category == "" || major == "" {
		return t.fail(ctx, applog.OpAdmin, core.ErrEmptyCategory)
	}
	if err := t.ledger.SetMajorCategory(ctx, category, major); err != nil {
		return t.fail(ctx, applog.OpAdmin, err)
	}
	return nil
}

func (t *Tracker) MarkOutdated(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return t.fail(ctx, applog.OpAdmin, core.ErrEmptyCategory)
	}
	if err := t.ledger.MarkOutdated(ctx, category); err != nil {
		return t.fail(ctx, applog.OpAdmin, err)
	}
	return nil
}

// RedateExpenses moves every expense dated from to to.
func (t *Tracker) RedateExpenses(ctx context.Context, from, to core.Date) (int64, error) {
	if err := errors.Join(from.Validate(), to.Validate()); err != nil {
		return 0, t.fail(ctx, applog.OpAdmin, err)
	}
	n, err := t.ledger.RedateExpenses(ctx, from, to)
	if err != nil {
		return 0, t.fail(ctx, applog.OpAdmin, err)
	}
	t.logger.InfoContext(ctx, "Expenses redated",
		applog.FieldOperation, applog.OpAdmin,
		applog.FieldDate, to.String(),
		applog.FieldRows, n)
	return n, nil
}

// Close releases the backend. Calling it again is a no-op.
func (t *Tracker) Close() error {
	t.closeOnce.Do(func() {
		if t.closeBackend != nil {
			t.closeErr = t.closeBackend()
		}
	})
	return t.closeErr
}

// fail logs err with its category and hands it back unchanged.
func (t *Tracker) fail(ctx context.Context, op string, err error) error {
	fields := applog.NewFields().
		WithOperation(op).
		WithError(err).
		WithErrorType(applog.ErrorType(err))
	t.logger.WarnContext(ctx, "Session action failed", fields.ToSlice()...)
	return err
}
