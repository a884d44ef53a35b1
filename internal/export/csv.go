// Package export renders a transaction set as a streamed CSV. Rows are
// written as the store produces them, so a download can start before
// the full set exists in memory and stops promptly when the consumer
// goes away.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Header is the fixed first row of every export.
var Header = []string{"Amount", "Category", "Date", "Note", "Type"}

// CSVExporter streams an owner's ledger through a csv.Writer.
type CSVExporter struct {
	ledger store.LedgerStore
}

func NewCSVExporter(ledger store.LedgerStore) *CSVExporter {
	return &CSVExporter{ledger: ledger}
}

// Filename names the download after the applied filter.
func Filename(kind core.Kind) string {
	if kind == core.Income || kind == core.Expense {
		return fmt.Sprintf("transactions_%s.csv", kind)
	}
	return "transactions_all.csv"
}

// Write streams the header and one row per transaction to w, newest
// date first. kind filters to income or expense; any other value means
// no filter. Each row is flushed as it is produced, and ctx cancels
// the iteration mid-stream.
func (e *CSVExporter) Write(ctx context.Context, w io.Writer, owner string, kind core.Kind) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv header: %w", err)
	}

	err := e.ledger.ForEachByOwner(ctx, owner, kind, func(tx core.Transaction) error {
		row := []string{
			fmt.Sprintf("%.2f", tx.Amount),
			tx.Category,
			tx.OccurredOn,
			tx.Note,
			string(tx.Kind),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return fmt.Errorf("stream transactions: %w", err)
	}
	return nil
}
