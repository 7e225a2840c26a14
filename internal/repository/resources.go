package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/models"
)

const resourceColumns = `id, title, filename, file_path, user_id, category_id, uploaded_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner, res *models.Resource, extra ...any) error {
	var filePath sql.NullString
	dest := append([]any{&res.ID, &res.Title, &res.Filename, &filePath, &res.UserID, &res.CategoryID, &res.UploadedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	res.FilePath = filePath.String
	return nil
}

// ListResources returns resources joined with owner and category names,
// newest upload first
func (r *Repository) ListResources(ctx context.Context) ([]models.ResourceView, error) {
	query := `
		SELECT r.id, r.title, r.filename, r.file_path, r.user_id, r.category_id, r.uploaded_at,
			u.username, c.name
		FROM resources r
		LEFT JOIN users u ON u.id = r.user_id
		LEFT JOIN categories c ON c.id = r.category_id
		ORDER BY r.uploaded_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	views := []models.ResourceView{}
	for rows.Next() {
		var v models.ResourceView
		if err := scanResource(rows, &v.Resource, &v.Username, &v.CategoryName); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

// GetResource returns a single resource by id
func (r *Repository) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	res := &models.Resource{}
	err := scanResource(r.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id), res)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("resource not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return res, nil
}

// CreateResource inserts a resource and fills in its id and upload time
func (r *Repository) CreateResource(ctx context.Context, res *models.Resource) error {
	query := `
		INSERT INTO resources (title, filename, file_path, user_id, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, uploaded_at`
	err := r.db.QueryRowContext(ctx, query, res.Title, res.Filename, res.FilePath, res.UserID, res.CategoryID).
		Scan(&res.ID, &res.UploadedAt)
	if err != nil {
		if cerr := translateWriteErr(err, "resource already exists"); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

// UpdateResource applies the non-nil fields of patch and returns the stored row
func (r *Repository) UpdateResource(ctx context.Context, id int64, patch models.ResourcePatch) (*models.Resource, error) {
	query := `
		UPDATE resources SET
			title       = COALESCE($2, title),
			filename    = COALESCE($3, filename),
			file_path   = COALESCE($4, file_path),
			user_id     = COALESCE($5, user_id),
			category_id = COALESCE($6, category_id)
		WHERE id = $1
		RETURNING ` + resourceColumns
	res := &models.Resource{}
	err := scanResource(r.db.QueryRowContext(ctx, query,
		id, patch.Title, patch.Filename, patch.FilePath, patch.UserID, patch.CategoryID), res)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("resource not found")
	}
	if err != nil {
		if cerr := translateWriteErr(err, "resource already exists"); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}
	return res, nil
}

// DeleteResource removes a resource row
func (r *Repository) DeleteResource(ctx context.Context, id int64) error {
	return r.execDelete(ctx, `DELETE FROM resources WHERE id = $1`, id, "resource")
}

// ResourceLocators returns every non-null storage locator
func (r *Repository) ResourceLocators(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT file_path FROM resources WHERE file_path IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locators: %w", err)
	}
	defer rows.Close()

	var locators []string
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("failed to scan locator: %w", err)
		}
		locators = append(locators, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return locators, nil
}
