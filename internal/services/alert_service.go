package services

import (
	"context"
	"fmt"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

// AlertService raises budget alerts when spending pushes a budget out of the
// good status. Each budget raises each status at most once.
type AlertService struct {
	store   AlertStore
	budgets *BudgetService
	logger  *log.Logger
}

func NewAlertService(store AlertStore, budgets *BudgetService, logger *log.Logger) *AlertService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AlertService{
		store:   store,
		budgets: budgets,
		logger:  logger.WithComponent(log.ComponentAlerts),
	}
}

// HandleEvent re-evaluates the budgets covering the event's category and
// date. It returns the number of alerts newly raised.
func (s *AlertService) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) (int, error) {
	if !ev.AffectsSpending() {
		return 0, nil
	}
	date, err := core.ParseDate(ev.Date)
	if err != nil {
		return 0, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	budgets, err := s.store.BudgetsCovering(ctx, ev.OwnerID, ev.CategoryID, date)
	if err != nil {
		return 0, fmt.Errorf("budgets covering event %s: %w", ev.ID, err)
	}
	return s.evaluateAndRaise(ctx, budgets)
}

// Sweep re-evaluates every active budget of every owner. It catches alerts
// whose triggering events were lost.
func (s *AlertService) Sweep(ctx context.Context) (int, error) {
	budgets, err := s.store.ListActiveBudgets(ctx, core.Today())
	if err != nil {
		return 0, fmt.Errorf("active budgets: %w", err)
	}
	raised, err := s.evaluateAndRaise(ctx, budgets)
	if err != nil {
		return raised, err
	}
	s.logger.InfoContext(ctx, "Budget sweep completed",
		log.FieldOperation, log.OpSweep,
		"budgets", len(budgets),
		"raised", raised)
	return raised, nil
}

func (s *AlertService) List(ctx context.Context, ownerID int64) ([]core.BudgetAlert, error) {
	return s.store.ListAlerts(ctx, ownerID)
}

func (s *AlertService) evaluateAndRaise(ctx context.Context, budgets []core.Budget) (int, error) {
	if len(budgets) == 0 {
		return 0, nil
	}
	evals, err := s.budgets.EvaluateAll(ctx, budgets)
	if err != nil {
		return 0, err
	}
	raised := 0
	for _, e := range evals {
		if e.Status == core.StatusGood {
			continue
		}
		created, err := s.store.RecordAlert(ctx, core.BudgetAlert{
			OwnerID:        e.Budget.OwnerID,
			BudgetID:       e.Budget.ID,
			Status:         e.Status,
			PercentageUsed: e.PercentageUsed,
			Spent:          e.TotalSpent,
		})
		if err != nil {
			return raised, fmt.Errorf("record alert for budget %d: %w", e.Budget.ID, err)
		}
		if created {
			raised++
			s.logger.WarnContext(ctx, "Budget alert raised",
				log.NewFields().WithOwner(e.Budget.OwnerID).WithBudget(e).ToSlice()...)
		}
	}
	return raised, nil
}
