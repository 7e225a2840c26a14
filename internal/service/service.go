// Package service holds the business logic behind the HTTP handlers: input
// validation, password hashing, the resource file lifecycle and the action
// log.
package service

import (
	"context"
	"strings"

	"github.com/Dan9191/resource-service/internal/models"
)

// UserStore persists users
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// CategoryStore persists categories
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, id int64, patch models.CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// ResourceStore persists resource metadata
type ResourceStore interface {
	ListResources(ctx context.Context) ([]models.ResourceView, error)
	GetResource(ctx context.Context, id int64) (*models.Resource, error)
	CreateResource(ctx context.Context, res *models.Resource) error
	UpdateResource(ctx context.Context, id int64, patch models.ResourcePatch) (*models.Resource, error)
	DeleteResource(ctx context.Context, id int64) error
}

// LogStore persists action log entries
type LogStore interface {
	CreateLog(ctx context.Context, action string) error
	ListLogs(ctx context.Context) ([]models.LogEntry, error)
}

// trimmed returns a trimmed copy of s, keeping nil as nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
