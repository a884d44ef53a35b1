package worker

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/store/memory"
)

func TestHandleLedgerEventAppendsAudit(t *testing.T) {
	st := memory.New()
	w := NewAuditWorker(st)

	at := time.Date(2025, time.July, 20, 12, 0, 0, 0, time.UTC)
	event := amqp.NewLedgerEvent("created", "tx-1", "ada@example.com", at)

	if err := w.HandleLedgerEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	entries := st.AuditEntries()
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Op != "created" || e.TxID != "tx-1" || e.Owner != "ada@example.com" || !e.At.Equal(at) {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestHandleLedgerEventFillsMissingTimestamp(t *testing.T) {
	st := memory.New()
	w := NewAuditWorker(st)

	event := &amqp.LedgerEvent{Op: "deleted", TxID: "tx-2", Owner: "ada@example.com"}
	if err := w.HandleLedgerEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	entries := st.AuditEntries()
	if len(entries) != 1 || entries[0].At.IsZero() {
		t.Fatalf("expected stamped entry, got %+v", entries)
	}
}
