package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dan9191/resource-service/internal/apperrors"
)

// Postgres error codes translated into client errors
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

//go:embed schema/schema.sql
var schemaSQL string

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates missing tables. Every statement is idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func pgCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// translateWriteErr maps constraint violations raised by an insert or update.
func translateWriteErr(err error, uniqueMsg string) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return apperrors.Conflict(uniqueMsg, err)
	case codeForeignKeyViolation:
		return apperrors.Conflict(apperrors.MsgMissingReference, err)
	}
	return nil
}

// translateDeleteErr maps a foreign key violation raised by a delete.
func translateDeleteErr(err error) error {
	if pgCode(err) == codeForeignKeyViolation {
		return apperrors.Conflict(apperrors.MsgHasDependents, err)
	}
	return nil
}

// execDelete runs a single-row delete and reports a missing row as not found.
func (r *Repository) execDelete(ctx context.Context, query string, id int64, entity string) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		if cerr := translateDeleteErr(err); cerr != nil {
			return cerr
		}
		return fmt.Errorf("failed to delete %s: %w", entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound(entity + " not found")
	}
	return nil
}
