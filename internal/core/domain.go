package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	// Uncategorised is the aggregation bucket for transactions
	// stored with an empty category.
	Uncategorised = "Uncategorised"

	// Defaults returned for owners who never saved a budget policy.
	DefaultBudgetLimit     = 50
	DefaultBudgetThreshold = 90
)

type (
	// Kind is the polarity of a transaction.
	Kind string

	// Transaction is a single financial event owned by one identity.
	// OccurredOn is kept as a zero-padded ISO date string (YYYY-MM-DD)
	// so that month filtering stays a plain prefix match.
	Transaction struct {
		ID         string
		Owner      string
		Amount     float64
		Category   string
		OccurredOn string
		Note       string
		Kind       Kind
	}

	// BudgetPolicy is the monthly spending ceiling for one owner.
	BudgetPolicy struct {
		Owner     string
		Limit     float64
		Threshold float64
		UpdatedAt time.Time
	}
)

var (
	// ErrValidation is the base of every malformed-input error; callers
	// classify with errors.Is.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound covers both a missing record and a record owned by
	// someone else, so ownership is never leaked through errors.
	ErrNotFound = errors.New("not found")

	ErrInvalidAmount   = fmt.Errorf("%w: amount must be a non-negative number", ErrValidation)
	ErrMissingCategory = fmt.Errorf("%w: category is required", ErrValidation)
	ErrMissingDate     = fmt.Errorf("%w: date is required", ErrValidation)
	ErrEmptyUpdate     = fmt.Errorf("%w: nothing to update", ErrValidation)
	ErrInvalidLimit    = fmt.Errorf("%w: limit must be a number", ErrValidation)
	ErrMissingOwner    = fmt.Errorf("%w: owner is required", ErrValidation)
)

// NormalizeKind coerces any unknown value to Expense. Invalid kinds are
// accepted on write and stored as expense rather than rejected.
func NormalizeKind(v string) Kind {
	switch Kind(v) {
	case Income, Expense:
		return Kind(v)
	default:
		return Expense
	}
}

// BackfillKind defaults a missing kind at read time without rewriting
// the stored record.
func BackfillKind(k Kind) Kind {
	if k == "" {
		return Expense
	}
	return k
}

// ToAmount coerces a decoded JSON value to a float64 magnitude. Numeric
// strings are accepted, mirroring how the stored data was written.
func ToAmount(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, ErrInvalidAmount
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, ErrInvalidAmount
		}
		return f, nil
	default:
		return 0, ErrInvalidAmount
	}
}

// Validate checks the invariants every stored transaction must satisfy.
// Category and note may be empty; presence of required input fields is
// checked where the input is parsed.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrMissingOwner
	}
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if t.Kind != Income && t.Kind != Expense {
		return fmt.Errorf("%w: kind %q", ErrValidation, t.Kind)
	}
	return nil
}
