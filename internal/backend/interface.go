// Package backend selects and constructs the configured storage
// backend behind the store ports.
package backend

import (
	"context"

	"fintrack/internal/store"
)

// CleanupFunc releases the backend's resources on shutdown.
type CleanupFunc func(ctx context.Context) error

// Result bundles the store ports a backend provides, plus its
// lifecycle hooks. Ping backs the readiness probe and may be nil.
type Result struct {
	Ledger  store.LedgerStore
	Budgets store.BudgetStore
	Audit   store.AuditStore
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// MongoDB specific
	MongoURI    string
	MongoDBName string

	// SQLite specific
	SQLiteDBPath string
}

// Type identifies a storage backend.
type Type string

const (
	MongoBackend  Type = "mongo"
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case MongoBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
