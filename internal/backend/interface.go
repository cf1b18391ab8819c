package backend

import (
	"context"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Backend bundles the repository, the optional event client and every
// service built on top of them.
type Backend struct {
	Repo   *storage.SQLiteRepository
	Events *amqp.Client // nil when AMQP is not configured

	Ledger     *services.LedgerService
	Budgets    *services.BudgetService
	Accounts   *services.AccountService
	Categories *services.CategoryService
	Goals      *services.GoalService
	Alerts     *services.AlertService

	Caches *cache.Manager

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Backend, error)
}
