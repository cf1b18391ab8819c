package services

import (
	"context"
	"strings"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/core"
)

type CategoryPatch struct {
	Name      *string
	Direction *core.Direction
}

// CategoryService serves categories, caching each owner's full list until
// one of their categories changes.
type CategoryService struct {
	store CategoryStore
	cache *cache.LRUCache[int64, []core.Category]
}

// NewCategoryService creates the service. A nil cache gets a default one.
func NewCategoryService(store CategoryStore, c *cache.LRUCache[int64, []core.Category]) *CategoryService {
	if c == nil {
		c = cache.NewLRUCache[int64, []core.Category](1000, 10*time.Minute)
	}
	return &CategoryService{store: store, cache: c}
}

// Cache exposes the list cache for registration with a cleanup manager.
func (s *CategoryService) Cache() *cache.LRUCache[int64, []core.Category] {
	return s.cache
}

// List returns the owner's categories, filtered by direction when one is given.
func (s *CategoryService) List(ctx context.Context, ownerID int64, direction core.Direction) ([]core.Category, error) {
	all, ok := s.cache.Get(ownerID)
	if !ok {
		var err error
		all, err = s.store.ListCategories(ctx, ownerID, "")
		if err != nil {
			return nil, err
		}
		s.cache.Set(ownerID, all)
	}

	out := make([]core.Category, 0, len(all))
	for _, c := range all {
		if direction == "" || c.Direction == direction {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CategoryService) Get(ctx context.Context, ownerID, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, ownerID, id)
}

func (s *CategoryService) Create(ctx context.Context, ownerID int64, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, ownerID, c)
	if err != nil {
		return core.Category{}, err
	}
	s.cache.Delete(ownerID)
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, ownerID, id int64, p CategoryPatch) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, ownerID, id)
	if err != nil {
		return core.Category{}, err
	}
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Direction != nil {
		c.Direction = *p.Direction
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	updated, err := s.store.UpdateCategory(ctx, ownerID, c)
	if err != nil {
		return core.Category{}, err
	}
	s.cache.Delete(ownerID)
	return updated, nil
}

func (s *CategoryService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.store.DeleteCategory(ctx, ownerID, id); err != nil {
		return err
	}
	s.cache.Delete(ownerID)
	return nil
}
