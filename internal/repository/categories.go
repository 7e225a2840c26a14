package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/models"
)

const msgCategoryExists = "category already exists"

// ListCategories returns all categories ordered by name
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory inserts a category and fills in its id
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	err := r.db.QueryRowContext(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, category.Name).
		Scan(&category.ID)
	if err != nil {
		if cerr := translateWriteErr(err, msgCategoryExists); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// UpdateCategory applies the non-nil fields of patch
func (r *Repository) UpdateCategory(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error) {
	query := `UPDATE categories SET name = COALESCE($2, name) WHERE id = $1 RETURNING id, name`
	category := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, id, patch.Name).Scan(&category.ID, &category.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("category not found")
	}
	if err != nil {
		if cerr := translateWriteErr(err, msgCategoryExists); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// DeleteCategory removes a category without dependent resources
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	return r.execDelete(ctx, `DELETE FROM categories WHERE id = $1`, id, "category")
}
