package services

import (
	"context"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
)

// LedgerStore persists transactions together with their balance effects.
type LedgerStore interface {
	CreateTransaction(ctx context.Context, ownerID int64, t core.Transaction) (core.TransactionDetail, error)
	UpdateTransaction(ctx context.Context, ownerID int64, t core.Transaction) (core.TransactionDetail, core.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error)
	GetTransaction(ctx context.Context, ownerID, id int64) (core.TransactionDetail, error)
	ListTransactions(ctx context.Context, ownerID int64, f core.TransactionFilter) ([]core.TransactionDetail, error)
}

type BudgetStore interface {
	CreateBudget(ctx context.Context, ownerID int64, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, ownerID int64, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, ownerID, id int64) (core.Budget, error)
	ListBudgets(ctx context.Context, ownerID int64, f core.BudgetFilter) ([]core.Budget, error)
	DeleteBudget(ctx context.Context, ownerID, id int64) error
	SumExpenses(ctx context.Context, ownerID int64, categoryID *int64, window core.DateRange) (core.Money, error)
}

type AccountStore interface {
	CreateAccount(ctx context.Context, ownerID int64, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, ownerID, id int64) (core.Account, error)
	ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error)
	UpdateAccount(ctx context.Context, ownerID int64, a core.Account) (core.Account, error)
	DeleteAccount(ctx context.Context, ownerID, id int64) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, ownerID int64, c core.Category) (core.Category, error)
	GetCategory(ctx context.Context, ownerID, id int64) (core.Category, error)
	ListCategories(ctx context.Context, ownerID int64, direction core.Direction) ([]core.Category, error)
	UpdateCategory(ctx context.Context, ownerID int64, c core.Category) (core.Category, error)
	DeleteCategory(ctx context.Context, ownerID, id int64) error
}

type GoalStore interface {
	CreateGoal(ctx context.Context, ownerID int64, g core.Goal) (core.Goal, error)
	GetGoal(ctx context.Context, ownerID, id int64) (core.Goal, error)
	ListGoals(ctx context.Context, ownerID int64) ([]core.Goal, error)
	UpdateGoal(ctx context.Context, ownerID int64, g core.Goal) (core.Goal, error)
	DeleteGoal(ctx context.Context, ownerID, id int64) error
}

// AlertStore finds the budgets an event touches and records raised alerts.
type AlertStore interface {
	BudgetsCovering(ctx context.Context, ownerID, categoryID int64, date core.Date) ([]core.Budget, error)
	ListActiveBudgets(ctx context.Context, date core.Date) ([]core.Budget, error)
	RecordAlert(ctx context.Context, a core.BudgetAlert) (bool, error)
	ListAlerts(ctx context.Context, ownerID int64) ([]core.BudgetAlert, error)
}

// Publisher delivers ledger events to other processes. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}
