package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend keeps objects as flat files in a single directory. Locators
// are filesystem paths.
type LocalBackend struct {
	dir string
}

// NewLocalBackend creates dir if absent and returns a backend rooted there.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalBackend{dir: filepath.Clean(dir)}, nil
}

// Dir returns the root directory.
func (b *LocalBackend) Dir() string {
	return b.dir
}

func (b *LocalBackend) Name() string {
	return "local"
}

func (b *LocalBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validKey(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	path := b.Locator(key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return path, nil
}

func (b *LocalBackend) Delete(ctx context.Context, locator string) error {
	key, ok := b.Key(locator)
	if !ok {
		return fmt.Errorf("%w: %s", ErrForeignLocator, locator)
	}
	if err := os.Remove(filepath.Join(b.dir, key)); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (b *LocalBackend) Locator(key string) string {
	return filepath.Join(b.dir, key)
}

// Key accepts either a path inside the root directory or a bare key.
func (b *LocalBackend) Key(locator string) (string, bool) {
	if validKey(locator) {
		return locator, true
	}
	rel, err := filepath.Rel(b.dir, filepath.Clean(locator))
	if err != nil || !validKey(rel) {
		return "", false
	}
	return rel, true
}

func (b *LocalBackend) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	var objects []Object
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}
		objects = append(objects, Object{
			Key:          e.Name(),
			Locator:      b.Locator(e.Name()),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}
	return objects, nil
}

// validKey reports whether key names a file directly inside the root.
func validKey(key string) bool {
	return key != "" && key != "." && key != ".." &&
		!strings.ContainsAny(key, `/\`) && !strings.HasPrefix(key, "..")
}
