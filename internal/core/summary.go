package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BreachState classifies spending against a budget policy.
type BreachState string

const (
	BreachOK       BreachState = "ok"
	BreachWarning  BreachState = "warning"
	BreachExceeded BreachState = "exceeded"
)

// MonthlySummary is the aggregate view for one owner and one month.
type MonthlySummary struct {
	Year           int
	Month          int // 1-12
	TotalIncome    float64
	TotalExpenses  float64
	Net            float64
	CategoryTotals map[string]float64
}

// ParseYearMonth accepts "YYYY-MM", tolerating a non-padded month
// such as "2025-7", and falls back to now's year and month when the
// value is absent or unparseable, never an error.
func ParseYearMonth(s string, now time.Time) (year, month int) {
	if y, m, ok := splitYearMonth(s); ok {
		return y, m
	}
	return now.Year(), int(now.Month())
}

func splitYearMonth(s string) (year, month int, ok bool) {
	y, m, found := strings.Cut(s, "-")
	if !found || len(y) != 4 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, false
	}
	month, err = strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

// MonthPrefix renders the zero-padded prefix matched against stored
// occurredOn strings.
func MonthPrefix(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Summarize folds an already month-filtered transaction set into totals.
// Category totals cover expense records only, with the empty category
// bucketed under Uncategorised. An empty input yields zero totals and an
// empty map.
func Summarize(txs []Transaction, year, month int) MonthlySummary {
	s := MonthlySummary{
		Year:           year,
		Month:          month,
		CategoryTotals: make(map[string]float64),
	}
	for _, t := range txs {
		switch BackfillKind(t.Kind) {
		case Income:
			s.TotalIncome += t.Amount
		default:
			s.TotalExpenses += t.Amount
			cat := t.Category
			if cat == "" {
				cat = Uncategorised
			}
			s.CategoryTotals[cat] += t.Amount
		}
	}
	s.Net = s.TotalIncome - s.TotalExpenses
	return s
}

// EvaluateBudget derives the breach state from a month's expenses and
// the owner's policy. The warning bar sits at limit*threshold/100.
func EvaluateBudget(totalExpenses float64, p BudgetPolicy) BreachState {
	switch {
	case totalExpenses >= p.Limit:
		return BreachExceeded
	case totalExpenses >= p.Limit*p.Threshold/100:
		return BreachWarning
	default:
		return BreachOK
	}
}
