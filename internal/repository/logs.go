package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/resource-service/internal/models"
)

// CreateLog appends an action log entry
func (r *Repository) CreateLog(ctx context.Context, action string) error {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO logs (action) VALUES ($1)`, action); err != nil {
		return fmt.Errorf("failed to create log entry: %w", err)
	}
	return nil
}

// ListLogs returns log entries newest first
func (r *Repository) ListLogs(ctx context.Context) ([]models.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, action, created_at FROM logs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	entries := []models.LogEntry{}
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
