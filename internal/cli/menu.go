package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
	"expenses/internal/services"
)

type menuItem struct {
	label  string
	action func(m *Menu, ctx context.Context) error
}

var menuItems = []menuItem{
	{"Add expense", (*Menu).addExpense},
	{"Add income", (*Menu).addIncome},
	{"View expenses by category", reportAction(services.ReportByCategory)},
	{"View expenses by major category", reportAction(services.ReportByMajorCategory)},
	{"View expenses by month", reportAction(services.ReportByMonth)},
	{"View income vs expenses by month", reportAction(services.ReportIncomeVsExpense)},
	{"List recent expenses", reportAction(services.ReportRecentExpenses)},
	{"List all income sources", reportAction(services.ReportIncome)},
	{"Remove last expense", (*Menu).undoExpense},
	{"Remove last income", (*Menu).undoIncome},
}

// Menu is the interactive line-based driver. It reads answers from in and
// hands already tokenized choices to the tracker.
type Menu struct {
	tracker *services.Tracker
	in      *bufio.Scanner
	out     io.Writer
	today   func() time.Time
}

func NewMenu(tracker *services.Tracker, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		tracker: tracker,
		in:      bufio.NewScanner(in),
		out:     out,
		today:   time.Now,
	}
}

// Run shows the menu until the user exits or input ends. Errors from a single
// action are reported and the menu continues.
func (m *Menu) Run(ctx context.Context) error {
	exit := len(menuItems) + 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintln(m.out, "\nSelect an option:")
		for i, item := range menuItems {
			fmt.Fprintf(m.out, "%d. %s\n", i+1, item.label)
		}
		fmt.Fprintf(m.out, "%d. Exit\n", exit)

		choice, err := m.readInt()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			fmt.Fprintln(m.out, "Invalid choice")
			continue
		case choice == exit:
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		case choice < 1 || choice > len(menuItems):
			fmt.Fprintln(m.out, "Invalid choice")
			continue
		}

		if err := menuItems[choice-1].action(m, ctx); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintf(m.out, "Error: %v\n", err)
		}
	}
}

func reportAction(kind services.ReportKind) func(*Menu, context.Context) error {
	return func(m *Menu, ctx context.Context) error {
		table, err := m.tracker.Report(ctx, kind)
		if err != nil {
			return err
		}
		return RenderTable(m.out, table)
	}
}

func (m *Menu) addExpense(ctx context.Context) error {
	date, err := m.askDate()
	if err != nil {
		return err
	}
	opts, err := m.tracker.ExpenseCategoryChoices(ctx)
	if err != nil {
		return err
	}
	choice, err := m.choose("Select a category by number:", opts, "Enter the new category name: ")
	if err != nil {
		return err
	}
	category, err := m.tracker.ResolveExpenseCategory(ctx, choice)
	if err != nil {
		return err
	}
	policy, err := m.tracker.ExpensePolicy(ctx, category)
	if err != nil {
		return err
	}

	entry := services.ExpenseEntry{Date: date, Category: category}
	if policy.NeedsPrice() {
		if entry.PriceText, err = m.askPrice(); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(m.out, policy.Price.StringFixed(core.PriceScale))
	}
	if policy.AcceptsDescription() {
		if entry.Description, err = m.prompt("Enter description or leave empty: "); err != nil {
			return err
		}
	}

	saved, err := m.tracker.AddExpense(ctx, entry)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Saved %s %s on %s\n", saved.Category, saved.Price.StringFixed(core.PriceScale), saved.Date)
	return nil
}

func (m *Menu) addIncome(ctx context.Context) error {
	date, err := m.askDate()
	if err != nil {
		return err
	}
	opts, err := m.tracker.IncomeDescriptionChoices(ctx)
	if err != nil {
		return err
	}
	choice, err := m.choose("Select a description by number:", opts, "Enter the new description name: ")
	if err != nil {
		return err
	}
	desc, err := m.tracker.ResolveIncomeDescription(ctx, choice)
	if err != nil {
		return err
	}
	amount, err := m.askPrice()
	if err != nil {
		return err
	}

	saved, err := m.tracker.AddIncome(ctx, services.IncomeEntry{Date: date, Description: desc, AmountText: amount})
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Saved %s %s on %s\n", saved.Description, saved.Amount.StringFixed(core.PriceScale), saved.Date)
	return nil
}

func (m *Menu) undoExpense(ctx context.Context) error {
	removed, err := m.tracker.UndoLastExpense(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Most recent expense has been removed: %s %s on %s\n",
		removed.Category, removed.Price.StringFixed(core.PriceScale), removed.Date)
	return nil
}

func (m *Menu) undoIncome(ctx context.Context) error {
	removed, err := m.tracker.UndoLastIncome(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "Most recent income has been removed: %s %s on %s\n",
		removed.Description, removed.Amount.StringFixed(core.PriceScale), removed.Date)
	return nil
}

// askDate repeats the question until it gets a valid answer. A literal
// YYYY-MM-DD date is accepted as well as the numbered shortcuts.
func (m *Menu) askDate() (core.Date, error) {
	for {
		fmt.Fprintln(m.out, "Select date:")
		fmt.Fprintln(m.out, "1 - current date")
		fmt.Fprintln(m.out, "2 - first day of previous month")
		fmt.Fprintln(m.out, "3 - first day of the month before last")
		line, err := m.readLine()
		if err != nil {
			return core.Date{}, err
		}
		if d, err := core.ParseDate(line); err == nil {
			return d, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(m.out, "Invalid choice")
			continue
		}
		d, err := core.ResolveDateChoice(core.DateChoice(n), m.today())
		if err != nil {
			fmt.Fprintln(m.out, "Invalid number")
			continue
		}
		return d, nil
	}
}

// askPrice returns the raw price text once it parses.
func (m *Menu) askPrice() (string, error) {
	text, err := m.prompt("Enter amount:\n Allowed inputs: 10 | 10,5 | 10.5 | 500/41,5 | 5,3+10,1 | (10+100)/42,8 |...\n")
	if err != nil {
		return "", err
	}
	if _, err := core.ParsePrice(text); err != nil {
		return "", err
	}
	return text, nil
}

func (m *Menu) choose(title string, opts []core.Option, newPrompt string) (core.Choice, error) {
	fmt.Fprintln(m.out, title)
	for _, o := range opts {
		fmt.Fprintf(m.out, "%d. %s\n", o.Index, o.Label)
	}
	n, err := m.readInt()
	if err != nil {
		return core.Choice{}, err
	}
	c := core.Choice{Index: n}
	if last := opts[len(opts)-1]; last.New && n == last.Index {
		if c.Name, err = m.prompt(newPrompt); err != nil {
			return core.Choice{}, err
		}
	}
	return c, nil
}

func (m *Menu) prompt(text string) (string, error) {
	fmt.Fprint(m.out, text)
	return m.readLine()
}

func (m *Menu) readInt() (int, error) {
	line, err := m.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", core.ErrParse, line)
	}
	return n, nil
}

func (m *Menu) readLine() (string, error) {
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}
