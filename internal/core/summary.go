package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// TotalLabel marks the per-month total row in category reports.
const TotalLabel = "__________________"

// CategoryTotal is one row of the by-category and by-major-category views.
type CategoryTotal struct {
	YearMonth
	Category string
	Total    decimal.Decimal
	IsTotal  bool
}

// MonthTotal is the sum of all expenses in a month.
type MonthTotal struct {
	YearMonth
	Total decimal.Decimal
}

// MonthBalance compares income and expenses for a month.
type MonthBalance struct {
	YearMonth
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Diff     decimal.Decimal
}

// Table is a rendered result set: named columns and ordered rows.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// SummarizeByCategory sums expenses per month and category. Each month's
// rows are ordered by total descending (ties by name) and followed by a
// total row.
func SummarizeByCategory(expenses []Expense) []CategoryTotal {
	return summarizeCategories(expenses, func(c string) string { return c })
}

// SummarizeByMajorCategory is SummarizeByCategory with categories folded
// through g first.
func SummarizeByMajorCategory(expenses []Expense, g Grouping) []CategoryTotal {
	return summarizeCategories(expenses, g.Major)
}

func summarizeCategories(expenses []Expense, label func(string) string) []CategoryTotal {
	type key struct {
		ym  YearMonth
		cat string
	}
	sums := map[key]decimal.Decimal{}
	months := map[YearMonth]decimal.Decimal{}
	for _, e := range expenses {
		ym := e.Date.YearMonth()
		k := key{ym: ym, cat: label(e.Category)}
		sums[k] = sums[k].Add(e.Price)
		months[ym] = months[ym].Add(e.Price)
	}

	rows := make([]CategoryTotal, 0, len(sums)+len(months))
	for k, total := range sums {
		rows = append(rows, CategoryTotal{YearMonth: k.ym, Category: k.cat, Total: total})
	}
	for ym, total := range months {
		rows = append(rows, CategoryTotal{YearMonth: ym, Category: TotalLabel, Total: total, IsTotal: true})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.YearMonth != b.YearMonth {
			return a.YearMonth.Before(b.YearMonth)
		}
		if a.IsTotal != b.IsTotal {
			return b.IsTotal
		}
		if c := a.Total.Cmp(b.Total); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})
	return rows
}

// SummarizeByMonth sums expenses per month, oldest first.
func SummarizeByMonth(expenses []Expense) []MonthTotal {
	sums := map[YearMonth]decimal.Decimal{}
	for _, e := range expenses {
		ym := e.Date.YearMonth()
		sums[ym] = sums[ym].Add(e.Price)
	}
	rows := make([]MonthTotal, 0, len(sums))
	for ym, total := range sums {
		rows = append(rows, MonthTotal{YearMonth: ym, Total: total})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].YearMonth.Before(rows[j].YearMonth) })
	return rows
}

// SummarizeIncomeVsExpense joins monthly income and expense totals. A month
// present in only one stream still appears, with zero for the missing side.
func SummarizeIncomeVsExpense(expenses []Expense, income []Income) []MonthBalance {
	byMonth := map[YearMonth]*MonthBalance{}
	get := func(ym YearMonth) *MonthBalance {
		b, ok := byMonth[ym]
		if !ok {
			b = &MonthBalance{YearMonth: ym}
			byMonth[ym] = b
		}
		return b
	}
	for _, e := range expenses {
		b := get(e.Date.YearMonth())
		b.Expenses = b.Expenses.Add(e.Price)
	}
	for _, i := range income {
		b := get(i.Date.YearMonth())
		b.Income = b.Income.Add(i.Amount)
	}

	rows := make([]MonthBalance, 0, len(byMonth))
	for _, b := range byMonth {
		b.Diff = b.Income.Sub(b.Expenses)
		rows = append(rows, *b)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].YearMonth.Before(rows[j].YearMonth) })
	return rows
}

// Whole rounds an amount to currency units for display.
func Whole(d decimal.Decimal) string {
	return d.Round(0).StringFixed(0)
}

func (ym YearMonth) cells() []string {
	return []string{fmt.Sprintf("%04d", ym.Year), fmt.Sprintf("%02d", int(ym.Month))}
}

func CategoryTable(title string, rows []CategoryTotal) Table {
	t := Table{Title: title, Columns: []string{"year", "month", "category", "total"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, append(r.cells(), r.Category, Whole(r.Total)))
	}
	return t
}

func MonthTable(title string, rows []MonthTotal) Table {
	t := Table{Title: title, Columns: []string{"year", "month", "total"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, append(r.cells(), Whole(r.Total)))
	}
	return t
}

func BalanceTable(title string, rows []MonthBalance) Table {
	t := Table{Title: title, Columns: []string{"year", "month", "total_income", "total_expenses", "diff"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, append(r.cells(), Whole(r.Income), Whole(r.Expenses), Whole(r.Diff)))
	}
	return t
}

func ExpenseTable(title string, expenses []Expense) Table {
	t := Table{Title: title, Columns: []string{"description", "date", "category", "price", "inserted_at"}}
	for _, e := range expenses {
		t.Rows = append(t.Rows, []string{
			e.Description,
			e.Date.String(),
			e.Category,
			e.Price.StringFixed(PriceScale),
			e.InsertedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return t
}

func IncomeTable(title string, income []Income) Table {
	t := Table{Title: title, Columns: []string{"description", "date", "amount"}}
	for _, i := range income {
		t.Rows = append(t.Rows, []string{i.Description, i.Date.String(), i.Amount.StringFixed(PriceScale)})
	}
	return t
}
