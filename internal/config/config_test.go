package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// Hash content does not matter for validation, only the bcrypt prefix.
const testHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func validConfig() *Config {
	return &Config{
		Port:              "8081",
		BudgetTotal:       decimal.NewFromInt(400000),
		ReimbursementRule: core.OutOfPocketRule,
		DataBackend:       "memory",
		AuthUser:          "chad",
		AuthPasswordHash:  testHash,
		SyncBatchSize:     10,
		SyncInterval:      30 * time.Second,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8081" {
		t.Fatalf("unexpected default port %s", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Fatalf("unexpected default backend %s", cfg.DataBackend)
	}
	if !cfg.BudgetTotal.Equal(decimal.NewFromInt(400000)) {
		t.Fatalf("unexpected default budget %s", cfg.BudgetTotal)
	}
	if cfg.ReimbursementRule != core.OutOfPocketRule {
		t.Fatalf("unexpected default rule %s", cfg.ReimbursementRule)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("BUDGET_TOTAL", "12345.67")
	t.Setenv("REIMBURSEMENT_RULE", "tax-adjusted")
	t.Setenv("SYNC_INTERVAL", "1m")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DataBackend != "sqlite" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if !cfg.BudgetTotal.Equal(decimal.RequireFromString("12345.67")) {
		t.Fatalf("unexpected budget %s", cfg.BudgetTotal)
	}
	if cfg.ReimbursementRule != core.TaxAdjustedRule {
		t.Fatalf("unexpected rule %s", cfg.ReimbursementRule)
	}
	if cfg.SyncInterval != time.Minute {
		t.Fatalf("unexpected interval %v", cfg.SyncInterval)
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"negative budget", func(c *Config) { c.BudgetTotal = decimal.NewFromInt(-1) }, "budget total"},
		{"bad rule", func(c *Config) { c.ReimbursementRule = "half" }, "reimbursement rule"},
		{"bad backend", func(c *Config) { c.DataBackend = "redis" }, "data backend"},
		{"sqlite without path", func(c *Config) { c.DataBackend = "sqlite"; c.SQLiteDBPath = "" }, "SQLite"},
		{"postgres without url", func(c *Config) { c.DataBackend = "postgres" }, "Postgres"},
		{"csv without path", func(c *Config) { c.DataBackend = "csv"; c.CSVPath = "" }, "CSV"},
		{"missing user", func(c *Config) { c.AuthUser = "" }, "AUTH_USER"},
		{"missing hash", func(c *Config) { c.AuthPasswordHash = "" }, "AUTH_PASSWORD_HASH"},
		{"plaintext hash", func(c *Config) { c.AuthPasswordHash = "hunter2" }, "bcrypt"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"zero batch", func(c *Config) { c.SyncBatchSize = 0 }, "sync batch size"},
		{"tiny interval", func(c *Config) { c.SyncInterval = time.Millisecond }, "sync interval"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected message containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "bad"
	cfg.AuthUser = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "invalid port") || !strings.Contains(err.Error(), "AUTH_USER") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}
