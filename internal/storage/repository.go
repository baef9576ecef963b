package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, storageErr("create db directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storageErr("open sqlite database", err)
	}
	// One writer, one connection: the file lock is held by this session only.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storageErr("ping database", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, storageErr("migrate", err)
	}
	slog.Info("Ledger schema ready",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldDBPath, dbPath,
		"schema_version", version)

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// storageErr tags err as a storage failure while keeping it inspectable.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStorage, op, err)
}

// withTx runs fn in its own transaction and commits it. fn returns errors
// already wrapped.
func (r *SQLiteRepository) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// InsertExpense implements ledger.ExpenseWriter
func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Price = core.RoundPrice(e.Price)
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	err := r.withTx(ctx, "insert expense", func(tx *sql.Tx) error {
		var last int64
		if err := tx.QueryRowContext(ctx, maxInsertedAtSQL).Scan(&last); err != nil {
			return storageErr("read last insertion time", err)
		}
		ts := r.now().UnixNano()
		if ts <= last {
			ts = last + 1
		}
		res, err := tx.ExecContext(ctx, insertExpenseSQL,
			e.Date.String(), nullString(e.Description), e.Category, core.ToCents(e.Price), ts)
		if err != nil {
			return storageErr("insert expense", err)
		}
		if e.ID, err = res.LastInsertId(); err != nil {
			return storageErr("insert expense id", err)
		}
		e.InsertedAt = time.Unix(0, ts)
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldID, e.ID,
		applog.FieldCategory, e.Category,
		applog.FieldAmountCents, core.ToCents(e.Price),
		applog.FieldDate, e.Date.String())

	return e, nil
}

// DeleteLastExpense implements ledger.ExpenseWriter
func (r *SQLiteRepository) DeleteLastExpense(ctx context.Context) (core.Expense, error) {
	var removed core.Expense
	err := r.withTx(ctx, "delete last expense", func(tx *sql.Tx) error {
		var err error
		removed, err = scanExpense(tx.QueryRowContext(ctx, lastExpenseSQL))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete last expense: %w", core.ErrNotFound)
		}
		if err != nil {
			return storageErr("select last expense", err)
		}
		if _, err := tx.ExecContext(ctx, deleteExpenseSQL, removed.ID); err != nil {
			return storageErr("delete expense", err)
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense removed from SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldID, removed.ID,
		applog.FieldCategory, removed.Category)

	return removed, nil
}

// ExpenseCategories implements ledger.ExpenseReader
func (r *SQLiteRepository) ExpenseCategories(ctx context.Context, exclude core.CategorySet) ([]string, error) {
	all, err := r.queryStrings(ctx, "list expense categories", distinctCategoriesSQL)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, c := range all {
		if !exclude.Contains(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Expenses implements ledger.ExpenseReader
func (r *SQLiteRepository) Expenses(ctx context.Context) ([]core.Expense, error) {
	return r.queryExpenses(ctx, "list expenses", listExpensesSQL)
}

// RecentExpenses implements ledger.ExpenseReader
func (r *SQLiteRepository) RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	return r.queryExpenses(ctx, "list recent expenses", recentExpensesSQL, limit)
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, op, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return out, nil
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e          core.Expense
		dt         string
		desc       sql.NullString
		cents      int64
		insertedAt int64
	)
	if err := row.Scan(&e.ID, &dt, &desc, &e.Category, &cents, &insertedAt); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(dt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.Date = d
	e.Description = desc.String
	e.Price = core.FromCents(cents)
	e.InsertedAt = time.Unix(0, insertedAt)
	return e, nil
}

// InsertIncome implements ledger.IncomeWriter
func (r *SQLiteRepository) InsertIncome(ctx context.Context, i core.Income) (core.Income, error) {
	i.Amount = core.RoundPrice(i.Amount)
	i.Description = strings.TrimSpace(i.Description)
	if err := i.Validate(); err != nil {
		return core.Income{}, err
	}

	err := r.withTx(ctx, "insert income", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertIncomeSQL, i.Date.String(), i.Description, core.ToCents(i.Amount))
		if err != nil {
			return storageErr("insert income", err)
		}
		if i.ID, err = res.LastInsertId(); err != nil {
			return storageErr("insert income id", err)
		}
		return nil
	})
	if err != nil {
		return core.Income{}, err
	}

	slog.InfoContext(ctx, "Income saved to SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldID, i.ID,
		applog.FieldDescription, i.Description,
		applog.FieldAmountCents, core.ToCents(i.Amount))

	return i, nil
}

// DeleteLastIncome implements ledger.IncomeWriter
func (r *SQLiteRepository) DeleteLastIncome(ctx context.Context) (core.Income, error) {
	var removed core.Income
	err := r.withTx(ctx, "delete last income", func(tx *sql.Tx) error {
		var err error
		removed, err = scanIncome(tx.QueryRowContext(ctx, lastIncomeSQL))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("delete last income: %w", core.ErrNotFound)
		}
		if err != nil {
			return storageErr("select last income", err)
		}
		if _, err := tx.ExecContext(ctx, deleteIncomeSQL, removed.ID); err != nil {
			return storageErr("delete income", err)
		}
		return nil
	})
	if err != nil {
		return core.Income{}, err
	}
	return removed, nil
}

// IncomeDescriptions implements ledger.IncomeReader
func (r *SQLiteRepository) IncomeDescriptions(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, "list income descriptions", distinctIncomeDescriptionsSQL)
}

// Income implements ledger.IncomeReader
func (r *SQLiteRepository) Income(ctx context.Context) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, listIncomeSQL)
	if err != nil {
		return nil, storageErr("list income", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		i, err := scanIncome(rows)
		if err != nil {
			return nil, storageErr("list income", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list income", err)
	}
	return out, nil
}

func scanIncome(row rowScanner) (core.Income, error) {
	var (
		i     core.Income
		dt    string
		cents int64
	)
	if err := row.Scan(&i.ID, &dt, &i.Description, &cents); err != nil {
		return core.Income{}, err
	}
	d, err := core.ParseDate(dt)
	if err != nil {
		return core.Income{}, fmt.Errorf("income %d: %w", i.ID, err)
	}
	i.Date = d
	i.Amount = core.FromCents(cents)
	return i, nil
}

// FixedPrice implements ledger.ReferenceReader
func (r *SQLiteRepository) FixedPrice(ctx context.Context, category string) (decimal.Decimal, bool, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, fixedPriceSQL, category).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, storageErr("lookup fixed price", err)
	}
	return core.FromCents(cents), true, nil
}

// FixedPrices implements ledger.ReferenceReader
func (r *SQLiteRepository) FixedPrices(ctx context.Context) (core.FixedPrices, error) {
	out := core.FixedPrices{}
	err := r.queryRows(ctx, "list fixed prices", fixedPricesSQL, func(row rowScanner) error {
		var (
			category string
			cents    int64
		)
		if err := row.Scan(&category, &cents); err != nil {
			return err
		}
		out[category] = core.FromCents(cents)
		return nil
	})
	return out, err
}

// MajorCategories implements ledger.ReferenceReader
func (r *SQLiteRepository) MajorCategories(ctx context.Context) (core.Grouping, error) {
	out := core.Grouping{}
	err := r.queryRows(ctx, "list major categories", groupingsSQL, func(row rowScanner) error {
		var category, major string
		if err := row.Scan(&category, &major); err != nil {
			return err
		}
		out[category] = major
		return nil
	})
	return out, err
}

// OutdatedCategories implements ledger.ReferenceReader
func (r *SQLiteRepository) OutdatedCategories(ctx context.Context) (core.CategorySet, error) {
	names, err := r.queryStrings(ctx, "list outdated categories", outdatedSQL)
	if err != nil {
		return nil, err
	}
	return core.NewCategorySet(names...), nil
}

// SetFixedPrice implements ledger.ReferenceWriter
func (r *SQLiteRepository) SetFixedPrice(ctx context.Context, category string, price decimal.Decimal) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrEmptyCategory
	}
	if err := core.CheckAmount(price); err != nil {
		return err
	}
	return r.exec(ctx, "set fixed price", upsertFixedPriceSQL, category, core.ToCents(price))
}

// RemoveFixedPrice implements ledger.ReferenceWriter
func (r *SQLiteRepository) RemoveFixedPrice(ctx context.Context, category string) error {
	res, err := r.db.ExecContext(ctx, deleteFixedPriceSQL, category)
	if err != nil {
		return storageErr("remove fixed price", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storageErr("remove fixed price", err)
	} else if n == 0 {
		return fmt.Errorf("fixed price for %q: %w", category, core.ErrNotFound)
	}
	return nil
}

// SetMajorCategory implements ledger.ReferenceWriter
func (r *SQLiteRepository) SetMajorCategory(ctx context.Context, category, major string) error {
	category, major = strings.TrimSpace(category), strings.TrimSpace(major)
	if category == "" || major == "" {
		return core.ErrEmptyCategory
	}
	return r.exec(ctx, "set major category", upsertGroupingSQL, category, major)
}

// MarkOutdated implements ledger.ReferenceWriter
func (r *SQLiteRepository) MarkOutdated(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrEmptyCategory
	}
	return r.exec(ctx, "mark category outdated", insertOutdatedSQL, category)
}

// RedateExpenses implements ledger.ReferenceWriter
func (r *SQLiteRepository) RedateExpenses(ctx context.Context, from, to core.Date) (int64, error) {
	if err := to.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, redateExpensesSQL, to.String(), from.String())
	if err != nil {
		return 0, storageErr("redate expenses", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("redate expenses", err)
	}

	slog.InfoContext(ctx, "Expenses redated",
		applog.FieldComponent, applog.ComponentStorage,
		"from", from.String(),
		"to", to.String(),
		"rows", n)

	return n, nil
}

func (r *SQLiteRepository) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storageErr(op, err)
	}
	return nil
}

func (r *SQLiteRepository) queryStrings(ctx context.Context, op, query string) ([]string, error) {
	var out []string
	err := r.queryRows(ctx, op, query, func(row rowScanner) error {
		var s string
		if err := row.Scan(&s); err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// queryRows runs query and hands every row to scan.
func (r *SQLiteRepository) queryRows(ctx context.Context, op, query string, scan func(rowScanner) error) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return storageErr(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return storageErr(op, err)
		}
	}
	if err := rows.Err(); err != nil {
		return storageErr(op, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
