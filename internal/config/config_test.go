package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:            "8080",
		DataBackend:     "memory",
		MongoURI:        "mongodb://localhost:27017",
		MongoDBName:     "expense_tracker",
		SQLiteDBPath:    "./data/fintrack.db",
		AMQPExchange:    "fintrack",
		AMQPQueue:       "ledger_events",
		AuthHeader:      "X-Auth-User",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("default port = %s", cfg.Port)
	}
	if cfg.DataBackend != "mongo" {
		t.Errorf("default backend = %s", cfg.DataBackend)
	}
	if cfg.AuthHeader != "X-Auth-User" {
		t.Errorf("default auth header = %s", cfg.AuthHeader)
	}
	if cfg.AMQPURL != "" {
		t.Errorf("events should be disabled by default, got %s", cfg.AMQPURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("READ_TIMEOUT", "5s")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("port = %s", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("backend = %s", cfg.DataBackend)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("read timeout = %v", cfg.ReadTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "abc" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"unknown backend", func(c *Config) { c.DataBackend = "redis" }, "invalid data backend"},
		{"mongo without uri", func(c *Config) { c.DataBackend = "mongo"; c.MongoURI = "" }, "Mongo URI"},
		{"mongo without db", func(c *Config) { c.DataBackend = "mongo"; c.MongoDBName = "" }, "Mongo database name"},
		{"sqlite without path", func(c *Config) { c.DataBackend = "sqlite"; c.SQLiteDBPath = "" }, "SQLite database path"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://localhost:5672/"; c.AMQPQueue = "" }, "queue name"},
		{"empty auth header", func(c *Config) { c.AuthHeader = "" }, "auth header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSQLiteUsesTempDir(t *testing.T) {
	cfg := validConfig()
	cfg.DataBackend = "sqlite"
	cfg.SQLiteDBPath = t.TempDir() + "/nested/fintrack.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate should create missing db directories: %v", err)
	}
}
