package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/metrics"
	"github.com/Dan9191/resource-service/internal/models"
	"github.com/Dan9191/resource-service/internal/storage"
)

// memStore is an in-memory stand-in for the repository that enforces the
// same constraints as the schema.
type memStore struct {
	mu         sync.Mutex
	nextID     map[string]int64
	users      map[int64]models.User
	categories map[int64]models.Category
	resources  map[int64]models.Resource
	logs       []models.LogEntry
	clock      time.Time

	createResourceErr error
	logErr            error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[int64]models.User{},
		categories: map[int64]models.Category{},
		resources:  map[int64]models.Resource{},
		nextID:     map[string]int64{},
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// id hands out per-table sequence values like BIGSERIAL does.
func (m *memStore) id(table string) int64 {
	m.nextID[table]++
	m.clock = m.clock.Add(time.Second)
	return m.nextID[table]
}

func (m *memStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return apperrors.Conflict(apperrors.MsgUsernameTaken, nil)
		}
	}
	u.ID = m.id("users")
	u.CreatedAt = m.clock
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		u.PasswordHash = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateUser(ctx context.Context, id int64, p models.UserPatch) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	m.users[id] = u
	return &u, nil
}

func (m *memStore) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperrors.NotFound("user not found")
	}
	for _, r := range m.resources {
		if r.UserID == id {
			return apperrors.Conflict(apperrors.MsgHasDependents, nil)
		}
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) CreateCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id("categories")
	m.categories[c.ID] = *c
	return nil
}

func (m *memStore) UpdateCategory(ctx context.Context, id int64, p models.CategoryPatch) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category not found")
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	m.categories[id] = c
	return &c, nil
}

func (m *memStore) DeleteCategory(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return apperrors.NotFound("category not found")
	}
	for _, r := range m.resources {
		if r.CategoryID == id {
			return apperrors.Conflict(apperrors.MsgHasDependents, nil)
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) ListResources(ctx context.Context) ([]models.ResourceView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ResourceView{}
	for _, r := range m.resources {
		v := models.ResourceView{Resource: r}
		if u, ok := m.users[r.UserID]; ok {
			v.Username = &u.Username
		}
		if c, ok := m.categories[r.CategoryID]; ok {
			v.CategoryName = &c.Name
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *memStore) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, apperrors.NotFound("resource not found")
	}
	return &r, nil
}

func (m *memStore) checkRefs(userID, categoryID int64) error {
	_, uok := m.users[userID]
	_, cok := m.categories[categoryID]
	if !uok || !cok {
		return apperrors.Conflict(apperrors.MsgMissingReference, nil)
	}
	return nil
}

func (m *memStore) CreateResource(ctx context.Context, r *models.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createResourceErr != nil {
		return m.createResourceErr
	}
	if err := m.checkRefs(r.UserID, r.CategoryID); err != nil {
		return err
	}
	r.ID = m.id("resources")
	r.UploadedAt = m.clock
	m.resources[r.ID] = *r
	return nil
}

func (m *memStore) UpdateResource(ctx context.Context, id int64, p models.ResourcePatch) (*models.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, apperrors.NotFound("resource not found")
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Filename != nil {
		r.Filename = *p.Filename
	}
	if p.FilePath != nil {
		r.FilePath = *p.FilePath
	}
	if p.UserID != nil {
		r.UserID = *p.UserID
	}
	if p.CategoryID != nil {
		r.CategoryID = *p.CategoryID
	}
	if err := m.checkRefs(r.UserID, r.CategoryID); err != nil {
		return nil, err
	}
	m.resources[id] = r
	return &r, nil
}

func (m *memStore) DeleteResource(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[id]; !ok {
		return apperrors.NotFound("resource not found")
	}
	delete(m.resources, id)
	return nil
}

func (m *memStore) CreateLog(ctx context.Context, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logErr != nil {
		return m.logErr
	}
	m.logs = append(m.logs, models.LogEntry{ID: m.id("logs"), Action: action, CreatedAt: m.clock})
	return nil
}

func (m *memStore) ListLogs(ctx context.Context) ([]models.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LogEntry, 0, len(m.logs))
	for i := len(m.logs) - 1; i >= 0; i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

func (m *memStore) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

// flakyBackend wraps a backend and injects failures.
type flakyBackend struct {
	storage.Backend
	putErr    error
	deleteErr error
	puts      int
	deletes   []string
}

func (b *flakyBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	b.puts++
	if b.putErr != nil {
		return "", b.putErr
	}
	return b.Backend.Put(ctx, key, r, size, contentType)
}

func (b *flakyBackend) Delete(ctx context.Context, locator string) error {
	b.deletes = append(b.deletes, locator)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	return b.Backend.Delete(ctx, locator)
}

type fixture struct {
	store      *memStore
	backend    *flakyBackend
	local      *storage.LocalBackend
	logger     *logrus.Logger
	hook       *test.Hook
	metrics    *metrics.Metrics
	actions    *ActionLogger
	users      *UserService
	categories *CategoryService
	resources  *ResourceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local, err := storage.NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("local backend: %v", err)
	}
	logger, hook := test.NewNullLogger()
	f := &fixture{
		store:   newMemStore(),
		backend: &flakyBackend{Backend: local},
		local:   local,
		logger:  logger,
		hook:    hook,
		metrics: metrics.New(nil),
	}
	f.actions = NewActionLogger(f.store, logger, f.metrics)
	f.users = NewUserService(f.store, f.actions, logger)
	f.users.cost = 4
	f.categories = NewCategoryService(f.store, f.actions)
	f.resources = NewResourceService(f.store, f.backend, f.actions, logger, f.metrics)

	tick := time.UnixMilli(1700000000000)
	f.resources.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}
	return f
}

func file(name, content string) *FileUpload {
	return &FileUpload{Name: name, ContentType: "text/plain", Size: int64(len(content)), Reader: strings.NewReader(content)}
}

var errBoom = errors.New("boom")
