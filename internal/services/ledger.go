// Package services orchestrates the ledger and budget operations on top
// of the store ports. Each service takes its dependencies explicitly;
// nothing here reaches for globals.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Ledger event operations, as published and audited.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// EventPublisher pushes ledger change events to the message broker.
// A nil publisher disables events without disabling the ledger.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, op, txID, owner string) error
}

// LedgerService owns the transaction lifecycle: validation,
// normalization, and the store calls, always scoped by owner.
type LedgerService struct {
	ledger store.LedgerStore
	events EventPublisher
	now    func() time.Time
}

func NewLedgerService(ledger store.LedgerStore, events EventPublisher, now func() time.Time) *LedgerService {
	if now == nil {
		now = time.Now
	}
	return &LedgerService{ledger: ledger, events: events, now: now}
}

// Create validates the raw field map and inserts a new transaction for
// owner. Amount must be present, numeric and non-negative; category and
// date keys must be present (an empty category is allowed and bucketed
// as Uncategorised by aggregation). An unknown kind is stored as
// expense, not rejected.
func (s *LedgerService) Create(ctx context.Context, owner string, fields map[string]any) (core.Transaction, error) {
	rawAmount, ok := fields["amount"]
	if !ok {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	amount, err := core.ToAmount(rawAmount)
	if err != nil || amount < 0 {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	category, ok := fields["category"]
	if !ok {
		return core.Transaction{}, core.ErrMissingCategory
	}
	date, ok := fields["date"]
	if !ok {
		return core.Transaction{}, core.ErrMissingDate
	}

	tx := core.Transaction{
		Owner:      owner,
		Amount:     amount,
		Category:   stringValue(category),
		OccurredOn: stringValue(date),
		Note:       stringValue(fields["note"]),
		Kind:       core.NormalizeKind(stringValue(fields["type"])),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	id, err := s.ledger.Insert(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	tx.ID = id

	s.publish(ctx, OpCreated, id, owner)
	slog.InfoContext(ctx, "Transaction created", "id", id, "kind", tx.Kind, "amount", tx.Amount)
	return tx, nil
}

// Update applies only the keys present in fields, drawn from amount,
// category, date, note and type. Amount is coerced to a number with no
// sign check here; that looseness is part of the stored data's history
// and create-side strictness does not extend to updates. Returns the
// full record after the write.
func (s *LedgerService) Update(ctx context.Context, owner, id string, fields map[string]any) (core.Transaction, error) {
	set := make(map[string]any)
	if v, ok := fields["amount"]; ok {
		amount, err := core.ToAmount(v)
		if err != nil {
			return core.Transaction{}, core.ErrInvalidAmount
		}
		set[store.FieldAmount] = amount
	}
	if v, ok := fields["category"]; ok {
		set[store.FieldCategory] = stringValue(v)
	}
	if v, ok := fields["date"]; ok {
		set[store.FieldDate] = stringValue(v)
	}
	if v, ok := fields["note"]; ok {
		set[store.FieldNote] = stringValue(v)
	}
	if v, ok := fields["type"]; ok {
		set[store.FieldType] = string(core.NormalizeKind(stringValue(v)))
	}
	if len(set) == 0 {
		return core.Transaction{}, core.ErrEmptyUpdate
	}

	matched, err := s.ledger.UpdateFields(ctx, owner, id, set)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if matched == 0 {
		return core.Transaction{}, core.ErrNotFound
	}

	tx, err := s.ledger.FindOne(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("reload transaction: %w", err)
	}

	s.publish(ctx, OpUpdated, id, owner)
	return tx, nil
}

// Delete removes the record; a second delete of the same id reports
// ErrNotFound.
func (s *LedgerService) Delete(ctx context.Context, owner, id string) error {
	deleted, err := s.ledger.Delete(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if deleted == 0 {
		return core.ErrNotFound
	}
	s.publish(ctx, OpDeleted, id, owner)
	return nil
}

// List returns the owner's transactions, newest occurredOn first.
func (s *LedgerService) List(ctx context.Context, owner string) ([]core.Transaction, error) {
	txs, err := s.ledger.FindByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// MonthlySummary aggregates one month of the owner's ledger. An absent
// or unparseable yearMonth falls back to the service clock's current
// month.
func (s *LedgerService) MonthlySummary(ctx context.Context, owner, yearMonth string) (core.MonthlySummary, error) {
	year, month := core.ParseYearMonth(yearMonth, s.now())
	txs, err := s.ledger.FindByOwnerAndDatePrefix(ctx, owner, core.MonthPrefix(year, month))
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("load month transactions: %w", err)
	}
	return core.Summarize(txs, year, month), nil
}

func (s *LedgerService) publish(ctx context.Context, op, id, owner string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, op, id, owner); err != nil {
		// The write already succeeded; event delivery is best effort.
		slog.ErrorContext(ctx, "Failed to publish ledger event", "op", op, "id", id, "error", err)
	}
}

// stringValue renders a decoded JSON value as the string that gets
// stored. Non-string scalars are formatted rather than rejected.
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
