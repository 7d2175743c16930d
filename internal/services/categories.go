package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

type CategoryService struct {
	store CategoryStore
	cache Invalidator
}

func NewCategoryService(store CategoryStore, cache Invalidator) *CategoryService {
	return &CategoryService{store: store, cache: cache}
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if s.cache != nil {
		s.cache.InvalidateUser(c.UserID)
	}
	return created, nil
}

// List returns the user's categories by name with their transaction counts.
func (s *CategoryService) List(ctx context.Context, userID string) ([]core.CategoryWithCount, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrMissingUser
	}
	return s.store.ListCategories(ctx, userID)
}
