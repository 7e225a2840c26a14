// Package storage stores uploaded file bytes on local disk or in an
// S3-compatible bucket behind a single Backend interface.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrForeignLocator is returned when a locator does not belong to the backend.
var ErrForeignLocator = errors.New("locator does not belong to this backend")

// Backend stores bytes under a key and addresses them by locator.
type Backend interface {
	// Put stores the contents of r under key and returns its locator.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)

	// Delete removes the object addressed by a locator or a bare key.
	Delete(ctx context.Context, locator string) error

	// Locator returns the retrievable address of key.
	Locator(key string) string

	// Key extracts the object key from a locator.
	Key(locator string) (string, bool)

	// List returns every stored object.
	List(ctx context.Context) ([]Object, error)

	// Name identifies the backend in logs.
	Name() string
}

// Object describes a stored object.
type Object struct {
	Key          string
	Locator      string
	Size         int64
	LastModified time.Time
}

// ObjectKey builds a unique key of the form <unix-millis>-<random>-<name>.
// The random part keeps same-name uploads within one millisecond apart.
func ObjectKey(original string, now time.Time) string {
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], SanitizeName(original))
}

// SanitizeName reduces a client supplied file name to a safe base name made
// of letters, digits, dots, dashes and underscores.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" || strings.Trim(out, "_") == "" {
		return "file"
	}
	return out
}
