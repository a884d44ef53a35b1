package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNormalizeKind(t *testing.T) {
	cases := []struct {
		in  string
		out Kind
	}{
		{"income", Income},
		{"expense", Expense},
		{"", Expense},
		{"transfer", Expense},
		{"INCOME", Expense},
	}
	for _, tc := range cases {
		if got := NormalizeKind(tc.in); got != tc.out {
			t.Fatalf("NormalizeKind(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestBackfillKind(t *testing.T) {
	if got := BackfillKind(""); got != Expense {
		t.Fatalf("missing kind should backfill to expense, got %q", got)
	}
	if got := BackfillKind(Income); got != Income {
		t.Fatalf("income should survive backfill, got %q", got)
	}
}

func TestToAmount(t *testing.T) {
	cases := []struct {
		name string
		in   any
		out  float64
		ok   bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 7, 7, true},
		{"json number", json.Number("3.25"), 3.25, true},
		{"numeric string", "100", 100, true},
		{"padded string", " 2.50 ", 2.5, true},
		{"negative float", -1.0, -1, true}, // sign policy belongs to the caller
		{"word", "abc", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToAmount(tc.in)
			if tc.ok {
				if err != nil || got != tc.out {
					t.Fatalf("ToAmount(%v) = %v, %v; want %v", tc.in, got, err, tc.out)
				}
				return
			}
			if err == nil {
				t.Fatalf("ToAmount(%v) expected error", tc.in)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("ToAmount(%v) error should wrap ErrValidation, got %v", tc.in, err)
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{Owner: "a@x.com", Amount: 10, Category: "Food", OccurredOn: "2025-07-01", Kind: Expense}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	noOwner := valid
	noOwner.Owner = " "
	if err := noOwner.Validate(); !errors.Is(err, ErrMissingOwner) {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}

	negative := valid
	negative.Amount = -5
	if err := negative.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	badKind := valid
	badKind.Kind = "transfer"
	if err := badKind.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for kind, got %v", err)
	}

	emptyCategory := valid
	emptyCategory.Category = ""
	if err := emptyCategory.Validate(); err != nil {
		t.Fatalf("empty category is permitted on stored records: %v", err)
	}
}
