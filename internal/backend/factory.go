package backend

import (
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	"budget/internal/config"
	"budget/internal/ledger"
	"budget/internal/storage/csvfile"
	"budget/internal/storage/memory"
	"budget/internal/storage/postgres"
	"budget/internal/storage/sqlite"
)

// Factory creates backends from application configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create wires the configured backend. The caller owns Result.Cleanup.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLiteBackend:
		return f.createSQLite(cfg)
	case PostgresBackend:
		return f.createPostgres(cfg)
	case CSVBackend:
		return f.createCSV(cfg)
	default:
		return f.createMemory()
	}
}

func (f *Factory) createSQLite(cfg *config.Config) (*Result, error) {
	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath, cfg.ReimbursementRule)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	// The mirror queue is optional; run without it if the broker is away.
	var publisher ledger.SyncPublisher
	cleanup := repo.Close
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			publisher = amqpClient
			cleanup = func() error {
				if err := amqpClient.Close(); err != nil {
					f.logger.Warn("Failed to close AMQP client", "error", err)
				}
				return repo.Close()
			}
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &Result{Store: repo, Publisher: publisher, Cleanup: cleanup}, nil
}

func (f *Factory) createPostgres(cfg *config.Config) (*Result, error) {
	store, err := postgres.Open(cfg.PostgresURL, cfg.ReimbursementRule)
	if err != nil {
		return nil, fmt.Errorf("initialize Postgres store: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")
	return &Result{Store: store, Cleanup: store.Close}, nil
}

func (f *Factory) createCSV(cfg *config.Config) (*Result, error) {
	store, err := csvfile.Open(cfg.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("initialize CSV store: %w", err)
	}

	f.logger.Info("Initialized CSV backend", "path", cfg.CSVPath)
	return &Result{Store: store}, nil
}

func (f *Factory) createMemory() (*Result, error) {
	f.logger.Info("Initialized memory backend")
	return &Result{Store: memory.New()}, nil
}
