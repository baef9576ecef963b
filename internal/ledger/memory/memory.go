package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"expenses/internal/core"

	"github.com/shopspring/decimal"
)

// Store is a non-persistent ledger. It backs scratch sessions and tests.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int64
	lastTS   time.Time
	expenses []core.Expense
	income   []core.Income
	fixed    core.FixedPrices
	groups   core.Grouping
	outdated core.CategorySet
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock uses now for insertion timestamps.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:      now,
		fixed:    core.FixedPrices{},
		groups:   core.Grouping{},
		outdated: core.CategorySet{},
	}
}

// NewFromFiles seeds the reference tables from base/fixed_prices.txt
// ("Category=price"), base/major_categories.txt ("Category=Major") and
// base/outdated_categories.txt (one name per line). Missing files are ignored.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	for _, kv := range readPairs(filepath.Join(base, "fixed_prices.txt")) {
		price, err := core.ParsePrice(kv[1])
		if err != nil {
			return nil, fmt.Errorf("seed fixed price %q: %w", kv[0], err)
		}
		s.fixed[kv[0]] = price
	}
	for _, kv := range readPairs(filepath.Join(base, "major_categories.txt")) {
		s.groups[kv[0]] = kv[1]
	}
	for _, name := range readLines(filepath.Join(base, "outdated_categories.txt")) {
		s.outdated[name] = struct{}{}
	}
	return s, nil
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	e.Price = core.RoundPrice(e.Price)
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	e.InsertedAt = s.stamp()
	s.expenses = append(s.expenses, e)
	return e, nil
}

// stamp returns a timestamp strictly after every previous one.
func (s *Store) stamp() time.Time {
	ts := s.now()
	if !ts.After(s.lastTS) {
		ts = s.lastTS.Add(time.Nanosecond)
	}
	s.lastTS = ts
	return ts
}

func (s *Store) DeleteLastExpense(_ context.Context) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.expenses) == 0 {
		return core.Expense{}, fmt.Errorf("delete last expense: %w", core.ErrNotFound)
	}
	last := 0
	for i, e := range s.expenses {
		l := s.expenses[last]
		if e.InsertedAt.After(l.InsertedAt) || (e.InsertedAt.Equal(l.InsertedAt) && e.ID > l.ID) {
			last = i
		}
	}
	removed := s.expenses[last]
	s.expenses = append(s.expenses[:last], s.expenses[last+1:]...)
	return removed, nil
}

func (s *Store) ExpenseCategories(_ context.Context, exclude core.CategorySet) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	used := core.CategorySet{}
	for _, e := range s.expenses {
		if !exclude.Contains(e.Category) {
			used[e.Category] = struct{}{}
		}
	}
	return used.Names(), nil
}

func (s *Store) Expenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Expense(nil), s.expenses...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) RecentExpenses(_ context.Context, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Expense(nil), s.expenses...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].InsertedAt.Before(out[j].InsertedAt) })
	if limit >= 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Store) InsertIncome(_ context.Context, i core.Income) (core.Income, error) {
	i.Amount = core.RoundPrice(i.Amount)
	i.Description = strings.TrimSpace(i.Description)
	if err := i.Validate(); err != nil {
		return core.Income{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	i.ID = s.nextID
	s.income = append(s.income, i)
	return i, nil
}

func (s *Store) DeleteLastIncome(_ context.Context) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.income) == 0 {
		return core.Income{}, fmt.Errorf("delete last income: %w", core.ErrNotFound)
	}
	// IDs only grow, so the tail is the newest row.
	removed := s.income[len(s.income)-1]
	s.income = s.income[:len(s.income)-1]
	return removed, nil
}

func (s *Store) IncomeDescriptions(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := core.CategorySet{}
	for _, i := range s.income {
		set[i.Description] = struct{}{}
	}
	return set.Names(), nil
}

func (s *Store) Income(_ context.Context) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Income(nil), s.income...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) FixedPrice(_ context.Context, category string) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.fixed[category]
	return p, ok, nil
}

func (s *Store) FixedPrices(_ context.Context) (core.FixedPrices, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(core.FixedPrices, len(s.fixed))
	for k, v := range s.fixed {
		out[k] = v
	}
	return out, nil
}

func (s *Store) MajorCategories(_ context.Context) (core.Grouping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(core.Grouping, len(s.groups))
	for k, v := range s.groups {
		out[k] = v
	}
	return out, nil
}

func (s *Store) OutdatedCategories(_ context.Context) (core.CategorySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outdated.Union(nil), nil
}

func (s *Store) SetFixedPrice(_ context.Context, category string, price decimal.Decimal) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrEmptyCategory
	}
	if err := core.CheckAmount(price); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed[category] = core.RoundPrice(price)
	return nil
}

func (s *Store) RemoveFixedPrice(_ context.Context, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fixed[category]; !ok {
		return fmt.Errorf("fixed price for %q: %w", category, core.ErrNotFound)
	}
	delete(s.fixed, category)
	return nil
}

func (s *Store) SetMajorCategory(_ context.Context, category, major string) error {
	category, major = strings.TrimSpace(category), strings.TrimSpace(major)
	if category == "" || major == "" {
		return core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[category] = major
	return nil
}

func (s *Store) MarkOutdated(_ context.Context, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outdated[category] = struct{}{}
	return nil
}

func (s *Store) RedateExpenses(_ context.Context, from, to core.Date) (int64, error) {
	if err := to.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.expenses {
		if s.expenses[i].Date.Equal(from.Time) {
			s.expenses[i].Date = to
			n++
		}
	}
	return n, nil
}

// Close is a no-op; it lets Store stand in wherever a closable backend is expected.
func (s *Store) Close() error {
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// readPairs reads "key=value" lines; malformed lines are skipped.
func readPairs(path string) [][2]string {
	var out [][2]string
	for _, line := range readLines(path) {
		k, v, ok := strings.Cut(line, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out = append(out, [2]string{k, v})
	}
	return out
}
