package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	PolicyFreeForm PolicyKind = iota
	PolicyFixed
	PolicySuppressed
)

const (
	NewCategoryLabel    = "Add a new category"
	NewDescriptionLabel = "Add a new description"
)

type (
	// PolicyKind says where an expense's price and description come from.
	PolicyKind int

	// Policy is the entry policy resolved for a category. Price is only set
	// for PolicyFixed.
	Policy struct {
		Kind  PolicyKind
		Price decimal.Decimal
	}

	// FixedPrices maps a fixed-price category to its price.
	FixedPrices map[string]decimal.Decimal

	// Grouping maps a category to the major category it is reported under.
	Grouping map[string]string

	// CategorySet is a set of category names.
	CategorySet map[string]struct{}

	// Option is one line of a numbered pick list.
	Option struct {
		Index int
		Label string
		New   bool
	}

	// Choice is what the driver returns for a pick list: the 1-based index
	// of a listed option, plus the typed name when the "new" option was picked.
	Choice struct {
		Index int
		Name  string
	}
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyFixed:
		return "fixed"
	case PolicySuppressed:
		return "suppressed"
	default:
		return "free-form"
	}
}

// NeedsPrice reports whether the caller has to supply a price expression.
func (p Policy) NeedsPrice() bool {
	return p.Kind != PolicyFixed
}

// AcceptsDescription reports whether a free-text note is stored.
func (p Policy) AcceptsDescription() bool {
	return p.Kind == PolicyFreeForm
}

// ResolveCategory decides the entry policy for a category. Fixed prices win
// over the suppressed-description set.
func ResolveCategory(name string, fixed FixedPrices, suppressed CategorySet) Policy {
	if price, ok := fixed[name]; ok {
		return Policy{Kind: PolicyFixed, Price: RoundPrice(price)}
	}
	if suppressed.Contains(name) {
		return Policy{Kind: PolicySuppressed}
	}
	return Policy{Kind: PolicyFreeForm}
}

// Major returns the major category for c, or c itself when unmapped.
func (g Grouping) Major(c string) string {
	if m, ok := g[c]; ok && m != "" {
		return m
	}
	return c
}

func NewCategorySet(names ...string) CategorySet {
	s := make(CategorySet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

func (s CategorySet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in lexicographic order.
func (s CategorySet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set holding the members of both sets.
func (s CategorySet) Union(other CategorySet) CategorySet {
	out := make(CategorySet, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

// CandidateList numbers names from 1 and appends the "new" option.
func CandidateList(names []string, newLabel string) []Option {
	opts := make([]Option, 0, len(names)+1)
	for i, n := range names {
		opts = append(opts, Option{Index: i + 1, Label: n})
	}
	return append(opts, Option{Index: len(names) + 1, Label: newLabel, New: true})
}

// PickChoice maps a driver choice back to a name from names.
func PickChoice(names []string, c Choice) (string, error) {
	switch {
	case c.Index >= 1 && c.Index <= len(names):
		return names[c.Index-1], nil
	case c.Index == len(names)+1:
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%w: new name cannot be empty", ErrValidation)
		}
		return name, nil
	default:
		return "", fmt.Errorf("%w: choice %d out of range 1..%d", ErrValidation, c.Index, len(names)+1)
	}
}
