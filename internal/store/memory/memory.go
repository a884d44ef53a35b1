// Package memory implements the store ports in process memory. It backs
// local development and the test suites; semantics mirror the document
// store, including matched/deleted counts and missing-kind backfill.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu      sync.Mutex
	txs     []record
	budgets map[string]core.BudgetPolicy
	audit   []store.AuditEntry
}

// record keeps the raw stored kind so legacy rows (empty kind) can be
// simulated and backfilled on read without being rewritten.
type record struct {
	id       string
	owner    string
	amount   float64
	category string
	date     string
	note     string
	kind     string
}

func New() *Store {
	return &Store{budgets: make(map[string]core.BudgetPolicy)}
}

func (r record) toCore() core.Transaction {
	return core.Transaction{
		ID:         r.id,
		Owner:      r.owner,
		Amount:     r.amount,
		Category:   r.category,
		OccurredOn: r.date,
		Note:       r.note,
		Kind:       core.BackfillKind(core.Kind(r.kind)),
	}
}

// Insert implements store.LedgerStore.
func (s *Store) Insert(_ context.Context, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.txs = append(s.txs, record{
		id:       id,
		owner:    tx.Owner,
		amount:   tx.Amount,
		category: tx.Category,
		date:     tx.OccurredOn,
		note:     tx.Note,
		kind:     string(tx.Kind),
	})
	return id, nil
}

// SeedLegacy inserts a record with no kind field, as written before the
// type field existed. Test helper.
func (s *Store) SeedLegacy(owner string, amount float64, category, date, note string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.txs = append(s.txs, record{id: id, owner: owner, amount: amount, category: category, date: date, note: note})
	return id
}

// RawKind reports the stored (pre-backfill) kind of a record. Test helper.
func (s *Store) RawKind(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.txs {
		if r.id == id {
			return r.kind, true
		}
	}
	return "", false
}

func (s *Store) snapshotByOwner(owner string) []record {
	var out []record
	for _, r := range s.txs {
		if r.owner == owner {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].date > out[j].date })
	return out
}

// FindByOwner implements store.LedgerStore.
func (s *Store) FindByOwner(_ context.Context, owner string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.snapshotByOwner(owner)
	out := make([]core.Transaction, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toCore())
	}
	return out, nil
}

// FindOne implements store.LedgerStore.
func (s *Store) FindOne(_ context.Context, owner, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.txs {
		if r.id == id && r.owner == owner {
			return r.toCore(), nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

// UpdateFields implements store.LedgerStore.
func (s *Store) UpdateFields(_ context.Context, owner, id string, fields map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.txs {
		if r.id != id || r.owner != owner {
			continue
		}
		if v, ok := fields[store.FieldAmount]; ok {
			r.amount, _ = v.(float64)
		}
		if v, ok := fields[store.FieldCategory]; ok {
			r.category, _ = v.(string)
		}
		if v, ok := fields[store.FieldDate]; ok {
			r.date, _ = v.(string)
		}
		if v, ok := fields[store.FieldNote]; ok {
			r.note, _ = v.(string)
		}
		if v, ok := fields[store.FieldType]; ok {
			r.kind, _ = v.(string)
		}
		s.txs[i] = r
		return 1, nil
	}
	return 0, nil
}

// Delete implements store.LedgerStore.
func (s *Store) Delete(_ context.Context, owner, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.txs {
		if r.id == id && r.owner == owner {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// FindByOwnerAndDatePrefix implements store.LedgerStore.
func (s *Store) FindByOwnerAndDatePrefix(_ context.Context, owner, prefix string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, r := range s.txs {
		if r.owner == owner && len(r.date) >= len(prefix) && r.date[:len(prefix)] == prefix {
			out = append(out, r.toCore())
		}
	}
	return out, nil
}

// ForEachByOwner implements store.LedgerStore. The snapshot is taken
// under the lock; iteration runs outside it and honors ctx.
func (s *Store) ForEachByOwner(ctx context.Context, owner string, kind core.Kind, fn func(core.Transaction) error) error {
	s.mu.Lock()
	recs := s.snapshotByOwner(owner)
	s.mu.Unlock()

	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Filter on the stored kind, not the backfilled one, so records
		// written before the kind field existed match no filter. Mongo
		// and sqlite filter the stored column the same way.
		if (kind == core.Income || kind == core.Expense) && core.Kind(r.kind) != kind {
			continue
		}
		if err := fn(r.toCore()); err != nil {
			return err
		}
	}
	return nil
}

// Budgets returns the budget-policy view of the store.
func (s *Store) Budgets() store.BudgetStore { return budgetView{s} }

type budgetView struct{ s *Store }

func (v budgetView) FindOne(_ context.Context, owner string) (core.BudgetPolicy, bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.budgets[owner]
	return p, ok, nil
}

func (v budgetView) Upsert(_ context.Context, p core.BudgetPolicy) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.budgets[p.Owner] = p
	return nil
}

// BudgetCount reports how many policies are stored. Test helper.
func (s *Store) BudgetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.budgets)
}

// AppendAudit implements store.AuditStore.
func (s *Store) AppendAudit(_ context.Context, e store.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
	return nil
}

// AuditEntries returns a copy of the recorded audit trail. Test helper.
func (s *Store) AuditEntries() []store.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

var _ store.LedgerStore = (*Store)(nil)
var _ store.AuditStore = (*Store)(nil)
