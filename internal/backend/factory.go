package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/config"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/mongo"
	"fintrack/internal/store/sqlite"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		MongoURI:     appConfig.MongoURI,
		MongoDBName:  appConfig.MongoDBName,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*Result, error) {
	st, err := mongo.New(ctx, config.MongoURI, config.MongoDBName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB backend", "database", config.MongoDBName)

	return &Result{
		Ledger:  st,
		Budgets: st.Budgets(),
		Audit:   st,
		Ping:    st.Ping,
		Cleanup: st.Close,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	st, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Ledger:  st,
		Budgets: st.Budgets(),
		Audit:   st,
		Ping:    st.Ping,
		Cleanup: func(context.Context) error { return st.Close() },
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	st := memory.New()

	f.logger.Info("Initialized memory backend")

	return &Result{
		Ledger:  st,
		Budgets: st.Budgets(),
		Audit:   st,
		Ping:    nil,
		Cleanup: nil,
	}, nil
}
