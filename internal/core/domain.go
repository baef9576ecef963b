package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// PriceScale is the number of decimal places every stored amount carries.
const PriceScale = 2

type (
	Date struct {
		time.Time
	}

	// YearMonth is the grouping key shared by every report.
	YearMonth struct {
		Year  int
		Month time.Month
	}

	Expense struct {
		ID          int64
		Date        Date
		Description string // empty for fixed-price and suppressed categories
		Category    string
		Price       decimal.Decimal
		InsertedAt  time.Time
	}

	Income struct {
		ID          int64
		Date        Date
		Description string
		Amount      decimal.Decimal
	}

	// DateChoice is the menu index offered when entering a record date.
	DateChoice int
)

const (
	DateToday DateChoice = iota + 1
	DatePreviousMonth
	DateMonthBeforeLast
)

var (
	ErrParse      = errors.New("parse error")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
)

var (
	ErrEmptyCategory    = fmt.Errorf("%w: empty category", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
	ErrZeroDate         = fmt.Errorf("%w: date cannot be zero", ErrValidation)
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", ErrParse, s)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Before orders keys chronologically.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// ResolveDateChoice maps a date menu choice to a concrete date relative to today.
// The two "previous month" choices land on the first day of that month.
func ResolveDateChoice(choice DateChoice, today time.Time) (Date, error) {
	first := NewDate(today.Year(), today.Month(), 1)
	switch choice {
	case DateToday:
		return DateOf(today), nil
	case DatePreviousMonth:
		return Date{Time: first.AddDate(0, -1, 0)}, nil
	case DateMonthBeforeLast:
		return Date{Time: first.AddDate(0, -2, 0)}, nil
	default:
		return Date{}, fmt.Errorf("%w: invalid date choice %d", ErrValidation, choice)
	}
}

// RoundPrice brings an amount to the stored precision.
func RoundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if !e.Price.Equal(RoundPrice(e.Price)) {
		return fmt.Errorf("%w: price %s has more than %d decimals", ErrValidation, e.Price, PriceScale)
	}
	return CheckAmount(e.Price)
}

func (i Income) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.Description) == "" {
		return ErrEmptyDescription
	}
	if !i.Amount.Equal(RoundPrice(i.Amount)) {
		return fmt.Errorf("%w: amount %s has more than %d decimals", ErrValidation, i.Amount, PriceScale)
	}
	return CheckAmount(i.Amount)
}
