package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveCategory(t *testing.T) {
	fixed := FixedPrices{"Rent": decimal.NewFromInt(655), "Groceries": decimal.NewFromInt(40)}
	suppressed := NewCategorySet("Mensa", "Groceries")

	tests := []struct {
		name     string
		category string
		kind     PolicyKind
		price    string
	}{
		{"fixed price category", "Rent", PolicyFixed, "655"},
		{"fixed wins over suppressed", "Groceries", PolicyFixed, "40"},
		{"suppressed description", "Mensa", PolicySuppressed, "0"},
		{"free form", "Books", PolicyFreeForm, "0"},
		{"lookup is case sensitive", "rent", PolicyFreeForm, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ResolveCategory(tt.category, fixed, suppressed)
			if p.Kind != tt.kind {
				t.Fatalf("kind = %v, want %v", p.Kind, tt.kind)
			}
			if !p.Price.Equal(decimal.RequireFromString(tt.price)) {
				t.Fatalf("price = %s, want %s", p.Price, tt.price)
			}
		})
	}
}

func TestPolicyFlags(t *testing.T) {
	cases := []struct {
		kind        PolicyKind
		needsPrice  bool
		description bool
	}{
		{PolicyFixed, false, false},
		{PolicySuppressed, true, false},
		{PolicyFreeForm, true, true},
	}
	for _, tc := range cases {
		p := Policy{Kind: tc.kind}
		if p.NeedsPrice() != tc.needsPrice || p.AcceptsDescription() != tc.description {
			t.Errorf("%v: NeedsPrice=%v AcceptsDescription=%v", tc.kind, p.NeedsPrice(), p.AcceptsDescription())
		}
	}
}

func TestGroupingMajor(t *testing.T) {
	g := Grouping{"Mensa": "Food", "Groceries": "Food"}
	if g.Major("Mensa") != "Food" {
		t.Fatalf("expected Food, got %s", g.Major("Mensa"))
	}
	if g.Major("Rent") != "Rent" {
		t.Fatalf("expected unmapped category to pass through, got %s", g.Major("Rent"))
	}
	var empty Grouping
	if empty.Major("Rent") != "Rent" {
		t.Fatalf("nil grouping must be identity")
	}
}

func TestCandidateListAndPick(t *testing.T) {
	names := []string{"Books", "Rent"}
	opts := CandidateList(names, NewCategoryLabel)
	if len(opts) != 3 {
		t.Fatalf("expected 3 options, got %d", len(opts))
	}
	if last := opts[2]; !last.New || last.Index != 3 || last.Label != NewCategoryLabel {
		t.Fatalf("unexpected new option: %+v", last)
	}

	got, err := PickChoice(names, Choice{Index: 2})
	if err != nil || got != "Rent" {
		t.Fatalf("expected Rent, got %q (err=%v)", got, err)
	}
	got, err = PickChoice(names, Choice{Index: 3, Name: "  Travel "})
	if err != nil || got != "Travel" {
		t.Fatalf("expected Travel, got %q (err=%v)", got, err)
	}

	for _, c := range []Choice{{Index: 0}, {Index: 4}, {Index: -1}, {Index: 3, Name: " "}} {
		if _, err := PickChoice(names, c); !errors.Is(err, ErrValidation) {
			t.Fatalf("choice %+v expected ErrValidation, got %v", c, err)
		}
	}
}

func TestCategorySet(t *testing.T) {
	s := NewCategorySet("b", " a ", "", "b")
	if len(s) != 2 || !s.Contains("a") || s.Contains("") {
		t.Fatalf("unexpected set %v", s)
	}
	u := s.Union(NewCategorySet("c"))
	if got := u.Names(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("unexpected union %v", got)
	}
}
