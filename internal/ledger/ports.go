package ledger

import (
	"context"

	"expenses/internal/core"

	"github.com/shopspring/decimal"
)

// Ports implemented by the storage backends.
type (
	ExpenseWriter interface {
		// InsertExpense stores e with a fresh insertion timestamp and returns it
		// with ID and InsertedAt filled in.
		InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		// DeleteLastExpense removes the most recently inserted expense.
		DeleteLastExpense(ctx context.Context) (core.Expense, error)
	}

	ExpenseReader interface {
		// ExpenseCategories returns the categories used so far, minus exclude, sorted.
		ExpenseCategories(ctx context.Context, exclude core.CategorySet) ([]string, error)
		// Expenses returns every expense ordered by date.
		Expenses(ctx context.Context) ([]core.Expense, error)
		// RecentExpenses returns the last limit inserted expenses, oldest first.
		RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	}

	IncomeWriter interface {
		InsertIncome(ctx context.Context, i core.Income) (core.Income, error)
		DeleteLastIncome(ctx context.Context) (core.Income, error)
	}

	IncomeReader interface {
		IncomeDescriptions(ctx context.Context) ([]string, error)
		Income(ctx context.Context) ([]core.Income, error)
	}

	// ReferenceReader exposes the lookup tables consulted at entry and report time.
	ReferenceReader interface {
		FixedPrice(ctx context.Context, category string) (decimal.Decimal, bool, error)
		FixedPrices(ctx context.Context) (core.FixedPrices, error)
		MajorCategories(ctx context.Context) (core.Grouping, error)
		OutdatedCategories(ctx context.Context) (core.CategorySet, error)
	}

	// ReferenceWriter is the out-of-band admin path.
	ReferenceWriter interface {
		SetFixedPrice(ctx context.Context, category string, price decimal.Decimal) error
		RemoveFixedPrice(ctx context.Context, category string) error
		SetMajorCategory(ctx context.Context, category, major string) error
		MarkOutdated(ctx context.Context, category string) error
		// RedateExpenses moves every expense dated from to the date to.
		RedateExpenses(ctx context.Context, from, to core.Date) (int64, error)
	}

	// Ledger is everything a tracker session needs from a backend.
	Ledger interface {
		ExpenseWriter
		ExpenseReader
		IncomeWriter
		IncomeReader
		ReferenceReader
		ReferenceWriter
	}
)
