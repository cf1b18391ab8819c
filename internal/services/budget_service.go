package services

import (
	"context"
	"fmt"
	"strings"

	"bilancio/internal/core"

	"golang.org/x/sync/errgroup"
)

// DefaultSummaryConcurrency bounds the spend queries run in parallel when a
// list of budgets is evaluated.
const DefaultSummaryConcurrency = 4

// BudgetService manages budgets and evaluates them against recorded spending.
type BudgetService struct {
	store       BudgetStore
	concurrency int
}

func NewBudgetService(store BudgetStore, concurrency int) *BudgetService {
	if concurrency <= 0 {
		concurrency = DefaultSummaryConcurrency
	}
	return &BudgetService{store: store, concurrency: concurrency}
}

// Create stores a budget. A missing end date is derived from the period.
func (s *BudgetService) Create(ctx context.Context, ownerID int64, b core.Budget) (core.BudgetEvaluation, error) {
	b, err := prepareBudget(b)
	if err != nil {
		return core.BudgetEvaluation{}, err
	}
	saved, err := s.store.CreateBudget(ctx, ownerID, b)
	if err != nil {
		return core.BudgetEvaluation{}, err
	}
	return s.Evaluate(ctx, saved)
}

func (s *BudgetService) Update(ctx context.Context, ownerID int64, b core.Budget) (core.BudgetEvaluation, error) {
	b, err := prepareBudget(b)
	if err != nil {
		return core.BudgetEvaluation{}, err
	}
	saved, err := s.store.UpdateBudget(ctx, ownerID, b)
	if err != nil {
		return core.BudgetEvaluation{}, err
	}
	return s.Evaluate(ctx, saved)
}

func (s *BudgetService) Get(ctx context.Context, ownerID, id int64) (core.BudgetEvaluation, error) {
	b, err := s.store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return core.BudgetEvaluation{}, err
	}
	return s.Evaluate(ctx, b)
}

func (s *BudgetService) List(ctx context.Context, ownerID int64, f core.BudgetFilter) ([]core.BudgetEvaluation, error) {
	budgets, err := s.store.ListBudgets(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	return s.EvaluateAll(ctx, budgets)
}

func (s *BudgetService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.store.DeleteBudget(ctx, ownerID, id)
}

// Summary evaluates the owner's active budgets, optionally restricted to one
// period, and aggregates them. An empty period or "all" means every period.
func (s *BudgetService) Summary(ctx context.Context, ownerID int64, period string) (core.BudgetSummary, error) {
	filter := core.BudgetFilter{ActiveOnly: true}
	if p := strings.TrimSpace(period); p != "" && !strings.EqualFold(p, "all") {
		parsed, err := core.ParseBudgetPeriod(p)
		if err != nil {
			return core.BudgetSummary{}, err
		}
		filter.Period = parsed
	}
	evals, err := s.List(ctx, ownerID, filter)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	return core.Summarize(evals), nil
}

// Evaluate computes the read-time metrics of b from the spending recorded in
// its window.
func (s *BudgetService) Evaluate(ctx context.Context, b core.Budget) (core.BudgetEvaluation, error) {
	spent, err := s.store.SumExpenses(ctx, b.OwnerID, b.CategoryID, b.Window())
	if err != nil {
		return core.BudgetEvaluation{}, fmt.Errorf("evaluate budget %d: %w", b.ID, err)
	}
	return core.EvaluateBudget(b, spent), nil
}

// EvaluateAll evaluates budgets concurrently, preserving their order.
func (s *BudgetService) EvaluateAll(ctx context.Context, budgets []core.Budget) ([]core.BudgetEvaluation, error) {
	evals := make([]core.BudgetEvaluation, len(budgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, b := range budgets {
		g.Go(func() error {
			e, err := s.Evaluate(gctx, b)
			if err != nil {
				return err
			}
			evals[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return evals, nil
}

func prepareBudget(b core.Budget) (core.Budget, error) {
	b.Name = strings.TrimSpace(b.Name)
	if b.EndDate.IsZero() && !b.StartDate.IsZero() {
		if _, err := core.ParseBudgetPeriod(string(b.Period)); err == nil {
			b.EndDate = b.Period.EndFrom(b.StartDate)
		}
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}
