package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens the database, connects to AMQP when configured and
// wires the services. AMQP failures are logged and the backend runs without
// events.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	var (
		events    *amqp.Client
		publisher services.Publisher
	)
	if config.AMQPURL != "" {
		events, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			events = nil
		} else {
			publisher = events
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	size, ttl := config.CategoryCacheSize, config.CategoryCacheTTL
	if size == 0 {
		size = 1000
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	categoryCache := cache.NewLRUCache[int64, []core.Category](size, ttl)
	caches := cache.NewManager(f.logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(categoryCache)
	if config.CacheSweep > 0 {
		caches.StartCleanup(config.CacheSweep)
	}

	budgets := services.NewBudgetService(repo, config.SummaryConcurrency)
	b := &Backend{
		Repo:       repo,
		Events:     events,
		Ledger:     services.NewLedgerService(repo, publisher, f.logger),
		Budgets:    budgets,
		Accounts:   services.NewAccountService(repo),
		Categories: services.NewCategoryService(repo, categoryCache),
		Goals:      services.NewGoalService(repo),
		Alerts:     services.NewAlertService(repo, budgets, f.logger),
		Caches:     caches,
	}
	b.Cleanup = func() error {
		caches.Stop()
		var errs []error
		if events != nil {
			if err := events.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close amqp: %w", err))
			}
		}
		if err := repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", events != nil)
	return b, nil
}
