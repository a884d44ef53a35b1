// Package store defines the persistence ports the services depend on.
// Implementations live in the mongo, sqlite and memory subpackages and
// are selected by the backend factory at startup.
package store

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Field keys accepted by LedgerStore.UpdateFields. These are the
// persisted names, shared with the stored data, not the Go field names.
const (
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldDate     = "date"
	FieldNote     = "note"
	FieldType     = "type"
)

// LedgerStore is the keyed transaction collection. Every method that
// takes an owner checks ownership inside the same lookup, so a guessed
// id belonging to someone else behaves exactly like a missing record.
type LedgerStore interface {
	// Insert stores a new transaction and returns its generated id.
	Insert(ctx context.Context, tx core.Transaction) (string, error)

	// FindByOwner returns the owner's transactions ordered by date
	// descending (lexicographic on the stored ISO string).
	FindByOwner(ctx context.Context, owner string) ([]core.Transaction, error)

	// FindOne returns core.ErrNotFound when no record matches both id
	// and owner.
	FindOne(ctx context.Context, owner, id string) (core.Transaction, error)

	// UpdateFields applies a partial $set-style update and reports how
	// many records matched (0 or 1).
	UpdateFields(ctx context.Context, owner, id string, fields map[string]any) (int64, error)

	// Delete removes the record and reports how many were deleted.
	Delete(ctx context.Context, owner, id string) (int64, error)

	// FindByOwnerAndDatePrefix returns transactions whose stored date
	// string starts with prefix ("YYYY-MM").
	FindByOwnerAndDatePrefix(ctx context.Context, owner, prefix string) ([]core.Transaction, error)

	// ForEachByOwner streams the owner's transactions in date-descending
	// order, filtered to kind when non-empty. Iteration stops at the
	// first fn error or when ctx is cancelled; rows are produced one at
	// a time, never buffered as a whole.
	ForEachByOwner(ctx context.Context, owner string, kind core.Kind, fn func(core.Transaction) error) error
}

// BudgetStore holds at most one policy per owner.
type BudgetStore interface {
	// FindOne reports found=false when the owner never saved a policy;
	// defaulting is the caller's concern, never a write.
	FindOne(ctx context.Context, owner string) (core.BudgetPolicy, bool, error)

	// Upsert creates or replaces the owner's policy.
	Upsert(ctx context.Context, p core.BudgetPolicy) error
}

// AuditEntry is one row of the ledger change trail appended by the
// worker.
type AuditEntry struct {
	Op    string
	TxID  string
	Owner string
	At    time.Time
}

// AuditStore appends ledger change events for later inspection.
type AuditStore interface {
	AppendAudit(ctx context.Context, e AuditEntry) error
}
