package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/models"
)

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if cerr := translateWriteErr(err, apperrors.MsgUsernameTaken); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// ListUsers returns all users ordered by id. Password hashes are not selected.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT id, username, email, created_at FROM users ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser applies the non-nil fields of patch
func (r *Repository) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	query := `
		UPDATE users SET
			username = COALESCE($2, username),
			email    = COALESCE($3, email),
			password = COALESCE($4, password)
		WHERE id = $1
		RETURNING id, username, email, created_at`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id, patch.Username, patch.Email, patch.PasswordHash).
		Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		if cerr := translateWriteErr(err, apperrors.MsgUsernameTaken); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user without dependent resources
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return r.execDelete(ctx, `DELETE FROM users WHERE id = $1`, id, "user")
}
