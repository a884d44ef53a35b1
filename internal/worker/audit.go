// Package worker turns the ledger event stream into a persistent audit
// trail.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/store"
)

// AuditWorker appends one audit entry per consumed ledger event.
type AuditWorker struct {
	audit store.AuditStore
}

func NewAuditWorker(audit store.AuditStore) *AuditWorker {
	return &AuditWorker{audit: audit}
}

// HandleLedgerEvent processes a single ledger change event. Errors
// propagate to the consumer, which requeues the delivery.
func (w *AuditWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"op", event.Op,
		"tx_id", event.TxID)

	at := event.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}

	entry := store.AuditEntry{
		Op:    event.Op,
		TxID:  event.TxID,
		Owner: event.Owner,
		At:    at,
	}
	if err := w.audit.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
