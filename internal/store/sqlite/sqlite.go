// Package sqlite implements the store ports on a local SQLite file for
// single-node deployments that do not run MongoDB. Column names track
// the document field names so the two backends stay interchangeable.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite store ready", "path", dbPath)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database file is still usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const txColumns = "id, user, amount, category, date, note, type"

func scanTx(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var kind string
	if err := row.Scan(&t.ID, &t.Owner, &t.Amount, &t.Category, &t.OccurredOn, &t.Note, &kind); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.BackfillKind(core.Kind(kind))
	return t, nil
}

// Insert implements store.LedgerStore.
func (s *Store) Insert(ctx context.Context, tx core.Transaction) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (`+txColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, tx.Owner, tx.Amount, tx.Category, tx.OccurredOn, tx.Note, string(tx.Kind))
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

// FindByOwner implements store.LedgerStore.
func (s *Store) FindByOwner(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user = ? ORDER BY date DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return collect(rows)
}

// FindOne implements store.LedgerStore.
func (s *Store) FindOne(ctx context.Context, owner, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ? AND user = ?`, id, owner)
	t, err := scanTx(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("query transaction: %w", err)
	}
	return t, nil
}

// UpdateFields implements store.LedgerStore. The SET clause is built
// from the allowed field keys only; the count of updated rows doubles
// as the matched count because the filter is the primary key.
func (s *Store) UpdateFields(ctx context.Context, owner, id string, fields map[string]any) (int64, error) {
	var sets []string
	var args []any
	for _, key := range []string{store.FieldAmount, store.FieldCategory, store.FieldDate, store.FieldNote, store.FieldType} {
		if v, ok := fields[key]; ok {
			sets = append(sets, key+" = ?")
			args = append(args, v)
		}
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, id, owner)

	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user = ?`, args...)
	if err != nil {
		return 0, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Delete implements store.LedgerStore.
func (s *Store) Delete(ctx context.Context, owner, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user = ?`, id, owner)
	if err != nil {
		return 0, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// FindByOwnerAndDatePrefix implements store.LedgerStore. Prefix match
// on the stored date string, same semantics as the document backend.
func (s *Store) FindByOwnerAndDatePrefix(ctx context.Context, owner, prefix string) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user = ? AND date LIKE ? ESCAPE '\'`,
		owner, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("query transactions by month: %w", err)
	}
	return collect(rows)
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

// ForEachByOwner implements store.LedgerStore, scanning row by row.
func (s *Store) ForEachByOwner(ctx context.Context, owner string, kind core.Kind, fn func(core.Transaction) error) error {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE user = ?`
	args := []any{owner}
	if kind == core.Income || kind == core.Expense {
		query += ` AND type = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return fmt.Errorf("scan transaction: %w", err)
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate transactions: %w", err)
	}
	return nil
}

func collect(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Budgets returns the budget-policy view of the store.
func (s *Store) Budgets() store.BudgetStore { return budgetView{s} }

type budgetView struct{ s *Store }

func (v budgetView) FindOne(ctx context.Context, owner string) (core.BudgetPolicy, bool, error) {
	row := v.s.db.QueryRowContext(ctx,
		`SELECT email, spend_limit, threshold, updated_at FROM budgets WHERE email = ?`, owner)
	var p core.BudgetPolicy
	err := row.Scan(&p.Owner, &p.Limit, &p.Threshold, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetPolicy{}, false, nil
	}
	if err != nil {
		return core.BudgetPolicy{}, false, fmt.Errorf("query budget: %w", err)
	}
	return p, true, nil
}

func (v budgetView) Upsert(ctx context.Context, p core.BudgetPolicy) error {
	_, err := v.s.db.ExecContext(ctx,
		`INSERT INTO budgets (email, spend_limit, threshold, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET spend_limit = excluded.spend_limit,
		 threshold = excluded.threshold, updated_at = excluded.updated_at`,
		p.Owner, p.Limit, p.Threshold, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// AppendAudit implements store.AuditStore.
func (s *Store) AppendAudit(ctx context.Context, e store.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ledger_events (op, tx_id, owner, at) VALUES (?, ?, ?, ?)`,
		e.Op, e.TxID, e.Owner, e.At)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

var _ store.LedgerStore = (*Store)(nil)
var _ store.AuditStore = (*Store)(nil)
