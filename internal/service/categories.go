package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dan9191/resource-service/internal/models"
	"github.com/Dan9191/resource-service/internal/validator"
)

// CategoryService handles category business logic
type CategoryService struct {
	store   CategoryStore
	actions *ActionLogger
}

// NewCategoryService initializes a new category service
func NewCategoryService(store CategoryStore, actions *ActionLogger) *CategoryService {
	return &CategoryService{store: store, actions: actions}
}

// List returns categories ordered by name
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// Create adds a category with a non-empty name
func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if err := validator.New().Required("name", name).Err(); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.actions.Log(ctx, fmt.Sprintf("Created category %s", category.Name))
	return category, nil
}

// Update renames a category. A nil name leaves it unchanged.
func (s *CategoryService) Update(ctx context.Context, id int64, name *string) (*models.Category, error) {
	name = trimmed(name)
	if name != nil {
		if err := validator.New().Required("name", *name).Err(); err != nil {
			return nil, err
		}
	}

	category, err := s.store.UpdateCategory(ctx, id, models.CategoryPatch{Name: name})
	if err != nil {
		return nil, err
	}
	s.actions.Log(ctx, fmt.Sprintf("Updated category %d", id))
	return category, nil
}

// Delete removes a category that no resource references
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.actions.Log(ctx, fmt.Sprintf("Deleted category %d", id))
	return nil
}
