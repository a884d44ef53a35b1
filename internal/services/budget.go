package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// BudgetService reads and writes one BudgetPolicy per owner. Owners
// without a saved policy see the defaults; the defaults are never
// written back by a read.
type BudgetService struct {
	budgets store.BudgetStore
	now     func() time.Time
}

func NewBudgetService(budgets store.BudgetStore, now func() time.Time) *BudgetService {
	if now == nil {
		now = time.Now
	}
	return &BudgetService{budgets: budgets, now: now}
}

// Get returns the owner's policy, or the (50, 90) defaults when none
// was ever saved. Record-or-default, no side effects.
func (s *BudgetService) Get(ctx context.Context, owner string) (core.BudgetPolicy, error) {
	p, found, err := s.budgets.FindOne(ctx, owner)
	if err != nil {
		return core.BudgetPolicy{}, fmt.Errorf("get budget: %w", err)
	}
	if !found {
		return core.BudgetPolicy{
			Owner:     owner,
			Limit:     core.DefaultBudgetLimit,
			Threshold: core.DefaultBudgetThreshold,
		}, nil
	}
	return p, nil
}

// Upsert validates and writes the policy from the decoded request
// fields. Limit is required and must be numeric; an omitted threshold
// defaults to 90, while a threshold key holding a non-number (null
// included) is rejected. Repeated identical calls converge to the same
// stored state, modulo updatedAt.
func (s *BudgetService) Upsert(ctx context.Context, owner string, fields map[string]any) (core.BudgetPolicy, error) {
	limit, ok := fields["limit"]
	if !ok || limit == nil {
		return core.BudgetPolicy{}, core.ErrInvalidLimit
	}
	limitVal, err := core.ToAmount(limit)
	if err != nil {
		return core.BudgetPolicy{}, core.ErrInvalidLimit
	}

	thresholdVal := float64(core.DefaultBudgetThreshold)
	if threshold, ok := fields["threshold"]; ok {
		thresholdVal, err = core.ToAmount(threshold)
		if err != nil {
			return core.BudgetPolicy{}, fmt.Errorf("%w: threshold must be a number", core.ErrValidation)
		}
	}

	p := core.BudgetPolicy{
		Owner:     owner,
		Limit:     limitVal,
		Threshold: thresholdVal,
		UpdatedAt: s.now(),
	}
	if err := s.budgets.Upsert(ctx, p); err != nil {
		return core.BudgetPolicy{}, fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget policy saved", "limit", p.Limit, "threshold", p.Threshold)
	return p, nil
}
