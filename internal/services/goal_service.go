package services

import (
	"context"
	"strings"

	"bilancio/internal/core"
)

type GoalService struct {
	store GoalStore
}

func NewGoalService(store GoalStore) *GoalService {
	return &GoalService{store: store}
}

func (s *GoalService) Create(ctx context.Context, ownerID int64, g core.Goal) (core.Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	return s.store.CreateGoal(ctx, ownerID, g)
}

func (s *GoalService) Get(ctx context.Context, ownerID, id int64) (core.Goal, error) {
	return s.store.GetGoal(ctx, ownerID, id)
}

func (s *GoalService) List(ctx context.Context, ownerID int64) ([]core.Goal, error) {
	return s.store.ListGoals(ctx, ownerID)
}

// Update replaces a goal. Completion is whatever the caller sets; reaching
// the target does not complete a goal on its own.
func (s *GoalService) Update(ctx context.Context, ownerID int64, g core.Goal) (core.Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	return s.store.UpdateGoal(ctx, ownerID, g)
}

func (s *GoalService) Delete(ctx context.Context, ownerID, id int64) error {
	return s.store.DeleteGoal(ctx, ownerID, id)
}
