package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/models"
)

// fakeStore backs the services in handler tests with maps.
type fakeStore struct {
	mu         sync.Mutex
	seq        int64
	users      map[int64]models.User
	categories map[int64]models.Category
	resources  map[int64]models.Resource
	logs       []models.LogEntry
	listErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[int64]models.User{},
		categories: map[int64]models.Category{},
		resources:  map[int64]models.Resource{},
	}
}

func (s *fakeStore) next() int64 {
	s.seq++
	return s.seq
}

func (s *fakeStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return apperrors.Conflict(apperrors.MsgUsernameTaken, nil)
		}
	}
	u.ID = s.next()
	u.CreatedAt = time.Now()
	s.users[u.ID] = *u
	return nil
}

func (s *fakeStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) UpdateUser(ctx context.Context, id int64, p models.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
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
	s.users[id] = u
	return &u, nil
}

func (s *fakeStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperrors.NotFound("user not found")
	}
	for _, r := range s.resources {
		if r.UserID == id {
			return apperrors.Conflict(apperrors.MsgHasDependents, nil)
		}
	}
	delete(s.users, id)
	return nil
}

func (s *fakeStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.Category{}
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeStore) CreateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.next()
	s.categories[c.ID] = *c
	return nil
}

func (s *fakeStore) UpdateCategory(ctx context.Context, id int64, p models.CategoryPatch) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category not found")
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	s.categories[id] = c
	return &c, nil
}

func (s *fakeStore) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return apperrors.NotFound("category not found")
	}
	for _, r := range s.resources {
		if r.CategoryID == id {
			return apperrors.Conflict(apperrors.MsgHasDependents, nil)
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *fakeStore) ListResources(ctx context.Context) ([]models.ResourceView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ResourceView{}
	for _, r := range s.resources {
		v := models.ResourceView{Resource: r}
		if u, ok := s.users[r.UserID]; ok {
			v.Username = &u.Username
		}
		if c, ok := s.categories[r.CategoryID]; ok {
			v.CategoryName = &c.Name
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakeStore) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
	if !ok {
		return nil, apperrors.NotFound("resource not found")
	}
	return &r, nil
}

func (s *fakeStore) refsExist(userID, categoryID int64) bool {
	_, uok := s.users[userID]
	_, cok := s.categories[categoryID]
	return uok && cok
}

func (s *fakeStore) CreateResource(ctx context.Context, r *models.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.refsExist(r.UserID, r.CategoryID) {
		return apperrors.Conflict(apperrors.MsgMissingReference, nil)
	}
	r.ID = s.next()
	r.UploadedAt = time.Now()
	s.resources[r.ID] = *r
	return nil
}

func (s *fakeStore) UpdateResource(ctx context.Context, id int64, p models.ResourcePatch) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.resources[id]
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
	if !s.refsExist(r.UserID, r.CategoryID) {
		return nil, apperrors.Conflict(apperrors.MsgMissingReference, nil)
	}
	s.resources[id] = r
	return &r, nil
}

func (s *fakeStore) DeleteResource(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[id]; !ok {
		return apperrors.NotFound("resource not found")
	}
	delete(s.resources, id)
	return nil
}

func (s *fakeStore) CreateLog(ctx context.Context, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, models.LogEntry{ID: int64(len(s.logs) + 1), Action: action, CreatedAt: time.Now()})
	return nil
}

func (s *fakeStore) ListLogs(ctx context.Context) ([]models.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LogEntry, 0, len(s.logs))
	for i := len(s.logs) - 1; i >= 0; i-- {
		out = append(out, s.logs[i])
	}
	return out, nil
}
