package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/events"
	"bilancio/internal/storage/memory"
	"bilancio/internal/storage/sqlite"
)

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
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	store, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	publisher := f.createPublisher(config)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	cleanup := func() error {
		if publisher != nil {
			if closer, ok := publisher.(*events.AMQPPublisher); ok {
				_ = closer.Close()
			}
		}
		return store.Close()
	}

	return &Result{
		Store:     store,
		Publisher: publisher,
		Cleanup:   cleanup,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	store := memory.New()
	publisher := f.createPublisher(config)

	f.logger.Info("Initialized memory backend", "amqp_enabled", publisher != nil)

	cleanup := func() error {
		if publisher != nil {
			if closer, ok := publisher.(*events.AMQPPublisher); ok {
				_ = closer.Close()
			}
		}
		return store.Close()
	}

	return &Result{
		Store:     store,
		Publisher: publisher,
		Cleanup:   cleanup,
	}, nil
}

// createPublisher wires the AMQP publisher when a URL is configured.
// Publishing is best effort, so a broker that is down at startup only
// logs a warning.
func (f *DefaultFactory) createPublisher(config Config) events.Publisher {
	if config.AMQPURL == "" {
		return nil
	}

	publisher, err := events.NewAMQPPublisher(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP publisher, continuing without events", "error", err)
		return nil
	}

	f.logger.Info("Initialized AMQP publisher",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return publisher
}
