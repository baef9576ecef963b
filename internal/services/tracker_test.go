package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"expenses/internal/core"
	"expenses/internal/ledger/memory"
	applog "expenses/internal/log"

	"github.com/shopspring/decimal"
)

func newTestTracker(t *testing.T) (*Tracker, *memory.Store) {
	t.Helper()
	store := memory.New()
	cfg := applog.DefaultConfig()
	cfg.Output = &bytes.Buffer{}
	tr := NewTracker(store, TrackerConfig{
		Suppressed:  []string{"Mensa", "Groceries"},
		RecentLimit: 2,
		Logger:      applog.New(cfg),
	})
	return tr, store
}

func TestAddExpenseFixedPriceScenario(t *testing.T) {
	ctx := context.Background()
	tr, store := newTestTracker(t)
	if err := store.SetFixedPrice(ctx, "Rent", decimal.NewFromInt(655)); err != nil {
		t.Fatalf("SetFixedPrice: %v", err)
	}

	policy, err := tr.ExpensePolicy(ctx, "Rent")
	if err != nil || policy.Kind != core.PolicyFixed || policy.NeedsPrice() {
		t.Fatalf("expected fixed policy, got %+v (err=%v)", policy, err)
	}

	saved, err := tr.AddExpense(ctx, ExpenseEntry{
		Date:        core.NewDate(2024, 1, 15),
		Category:    "Rent",
		PriceText:   "1",
		Description: "ignored",
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if saved.Description != "" || !saved.Price.Equal(decimal.NewFromInt(655)) {
		t.Fatalf("expected table price and empty description, got %+v", saved)
	}
	if saved.Price.StringFixed(2) != "655.00" {
		t.Fatalf("expected 655.00, got %s", saved.Price.StringFixed(2))
	}

	table, err := tr.Report(ctx, ReportByCategory)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	want := []string{"2024", "01", "Rent", "655"}
	if len(table.Rows) == 0 || strings.Join(table.Rows[0], ",") != strings.Join(want, ",") {
		t.Fatalf("expected first row %v, got %v", want, table.Rows)
	}
}

func TestAddExpenseSuppressedDropsDescription(t *testing.T) {
	tr, _ := newTestTracker(t)
	saved, err := tr.AddExpense(context.Background(), ExpenseEntry{
		Date:        core.NewDate(2024, 2, 1),
		Category:    "Mensa",
		PriceText:   "3,5",
		Description: "pasta",
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if saved.Description != "" || !saved.Price.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("unexpected expense %+v", saved)
	}
}

func TestAddExpenseFreeForm(t *testing.T) {
	tr, _ := newTestTracker(t)
	saved, err := tr.AddExpense(context.Background(), ExpenseEntry{
		Date:        core.NewDate(2024, 2, 1),
		Category:    " Books ",
		PriceText:   "500/41,5",
		Description: "  novel ",
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if saved.Category != "Books" || saved.Description != "novel" || saved.Price.StringFixed(2) != "12.05" {
		t.Fatalf("unexpected expense %+v", saved)
	}
}

func TestAddExpenseErrors(t *testing.T) {
	tests := []struct {
		name  string
		entry ExpenseEntry
		want  error
	}{
		{"bad price", ExpenseEntry{Date: core.NewDate(2024, 1, 1), Category: "A", PriceText: "abc"}, core.ErrParse},
		{"division by zero", ExpenseEntry{Date: core.NewDate(2024, 1, 1), Category: "A", PriceText: "1/0"}, core.ErrParse},
		{"empty category", ExpenseEntry{Date: core.NewDate(2024, 1, 1), Category: "  ", PriceText: "1"}, core.ErrValidation},
		{"zero date", ExpenseEntry{Category: "A", PriceText: "1"}, core.ErrValidation},
		{"unstorable price", ExpenseEntry{Date: core.NewDate(2024, 1, 1), Category: "A", PriceText: "100000000000000000000"}, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, store := newTestTracker(t)
			if _, err := tr.AddExpense(context.Background(), tt.entry); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if all, _ := store.Expenses(context.Background()); len(all) != 0 {
				t.Fatalf("nothing should be stored, got %v", all)
			}
		})
	}
}

func TestCategoryChoices(t *testing.T) {
	ctx := context.Background()
	tr, store := newTestTracker(t)
	for _, c := range []string{"Rent", "Cinema", "Books"} {
		if _, err := tr.AddExpense(ctx, ExpenseEntry{Date: core.NewDate(2024, 1, 1), Category: c, PriceText: "1"}); err != nil {
			t.Fatalf("AddExpense %s: %v", c, err)
		}
	}
	if err := store.MarkOutdated(ctx, "Cinema"); err != nil {
		t.Fatalf("MarkOutdated: %v", err)
	}

	opts, err := tr.ExpenseCategoryChoices(ctx)
	if err != nil {
		t.Fatalf("ExpenseCategoryChoices: %v", err)
	}
	if len(opts) != 3 || opts[0].Label != "Books" || opts[1].Label != "Rent" || !opts[2].New || opts[2].Index != 3 {
		t.Fatalf("unexpected options %+v", opts)
	}

	name, err := tr.ResolveExpenseCategory(ctx, core.Choice{Index: 2})
	if err != nil || name != "Rent" {
		t.Fatalf("expected Rent, got %q (err=%v)", name, err)
	}
	name, err = tr.ResolveExpenseCategory(ctx, core.Choice{Index: 3, Name: " Travel "})
	if err != nil || name != "Travel" {
		t.Fatalf("expected Travel, got %q (err=%v)", name, err)
	}
	if _, err := tr.ResolveExpenseCategory(ctx, core.Choice{Index: 4}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := tr.ResolveExpenseCategory(ctx, core.Choice{Index: 0}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestIncomeOnlyMonthAppearsInBalance(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t)
	if _, err := tr.AddIncome(ctx, IncomeEntry{Date: core.NewDate(2024, 3, 1), Description: "bonus", AmountText: "500"}); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}
	table, err := tr.Report(ctx, ReportIncomeVsExpense)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(table.Rows) != 1 || strings.Join(table.Rows[0], ",") != "2024,03,500,0,500" {
		t.Fatalf("unexpected rows %v", table.Rows)
	}

	opts, err := tr.IncomeDescriptionChoices(ctx)
	if err != nil || len(opts) != 2 || opts[0].Label != "bonus" || opts[1].Label != core.NewDescriptionLabel {
		t.Fatalf("unexpected income options %+v (err=%v)", opts, err)
	}
	desc, err := tr.ResolveIncomeDescription(ctx, core.Choice{Index: 1})
	if err != nil || desc != "bonus" {
		t.Fatalf("expected bonus, got %q (err=%v)", desc, err)
	}
}

func TestAddIncomeRequiresDescription(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, err := tr.AddIncome(context.Background(), IncomeEntry{Date: core.NewDate(2024, 3, 1), AmountText: "10"})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUndo(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t)
	for _, c := range []string{"R1", "R2"} {
		if _, err := tr.AddExpense(ctx, ExpenseEntry{Date: core.NewDate(2024, 1, 1), Category: c, PriceText: "1"}); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}
	removed, err := tr.UndoLastExpense(ctx)
	if err != nil || removed.Category != "R2" {
		t.Fatalf("expected R2 removed, got %+v (err=%v)", removed, err)
	}
	if _, err := tr.UndoLastExpense(ctx); err != nil {
		t.Fatalf("undo R1: %v", err)
	}
	if _, err := tr.UndoLastExpense(ctx); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := tr.UndoLastIncome(ctx); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for income, got %v", err)
	}
}

func TestReportRecentExpensesUsesLimit(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t)
	for _, c := range []string{"A", "B", "C"} {
		if _, err := tr.AddExpense(ctx, ExpenseEntry{Date: core.NewDate(2024, 1, 1), Category: c, PriceText: "1"}); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}
	table, err := tr.Report(ctx, ReportRecentExpenses)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(table.Rows) != 2 || table.Rows[0][2] != "B" || table.Rows[1][2] != "C" {
		t.Fatalf("unexpected rows %v", table.Rows)
	}
}

func TestReportByMajorCategory(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t)
	if err := tr.SetMajorCategory(ctx, "Mensa", "Food"); err != nil {
		t.Fatalf("SetMajorCategory: %v", err)
	}
	for _, c := range []string{"Mensa", "Groceries"} {
		if _, err := tr.AddExpense(ctx, ExpenseEntry{Date: core.NewDate(2024, 1, 1), Category: c, PriceText: "10"}); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}
	rows, err := tr.ByMajorCategory(ctx)
	if err != nil {
		t.Fatalf("ByMajorCategory: %v", err)
	}
	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, r.Category)
	}
	if got := strings.Join(labels, ","); got != "Food,Groceries,"+core.TotalLabel {
		t.Fatalf("unexpected labels %s", got)
	}
}

func TestReportUnknownKind(t *testing.T) {
	tr, _ := newTestTracker(t)
	if _, err := tr.Report(context.Background(), "weekly"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := ParseReportKind("weekly"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if k, err := ParseReportKind(" By-Month "); err != nil || k != ReportByMonth {
		t.Fatalf("expected by-month, got %q (err=%v)", k, err)
	}
}

func TestAdminFixedPrice(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t)
	price, err := tr.SetFixedPrice(ctx, "Rent", "600+55")
	if err != nil || !price.Equal(decimal.NewFromInt(655)) {
		t.Fatalf("SetFixedPrice: %s (err=%v)", price, err)
	}
	if _, err := tr.SetFixedPrice(ctx, "Rent", "x"); !errors.Is(err, core.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if err := tr.RemoveFixedPrice(ctx, "Rent"); err != nil {
		t.Fatalf("RemoveFixedPrice: %v", err)
	}
	if _, ok, _ := tr.FixedPrice(ctx, "Rent"); ok {
		t.Fatal("fixed price should be gone")
	}
	if err := tr.RemoveFixedPrice(ctx, "Rent"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedateExpenses(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t)
	from := core.NewDate(2023, 1, 1)
	if _, err := tr.AddExpense(ctx, ExpenseEntry{Date: from, Category: "A", PriceText: "1"}); err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	n, err := tr.RedateExpenses(ctx, from, core.NewDate(2023, 6, 1))
	if err != nil || n != 1 {
		t.Fatalf("expected 1 row, got %d (err=%v)", n, err)
	}
	if _, err := tr.RedateExpenses(ctx, core.Date{}, from); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	calls := 0
	tr := NewTracker(memory.New(), TrackerConfig{Closer: func() error { calls++; return nil }})
	for i := 0; i < 2; i++ {
		if err := tr.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected backend closed once, got %d", calls)
	}
}
