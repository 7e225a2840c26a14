package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/metrics"
	"github.com/Dan9191/resource-service/internal/models"
	"github.com/Dan9191/resource-service/internal/storage"
	"github.com/Dan9191/resource-service/internal/validator"
)

// FileUpload is a file payload attached to a resource request
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// CreateResourceInput carries raw form values for a new resource
type CreateResourceInput struct {
	Title      string      `form:"title"`
	UserID     string      `form:"user_id" validate:"posint"`
	CategoryID string      `form:"category_id" validate:"posint"`
	File       *FileUpload `validate:"-"`
}

// UpdateResourceInput carries the supplied subset of form values; nil
// fields keep their stored value
type UpdateResourceInput struct {
	Title      *string
	UserID     *string
	CategoryID *string
	File       *FileUpload
}

// ResourceService keeps resource rows and stored files in step. Each call
// runs validate, upload, resolve, persist, cleanup and log in that order.
// Nothing spans these steps atomically: cleanup of replaced or rejected
// files is best effort and left to the orphan sweep when it fails.
type ResourceService struct {
	store   ResourceStore
	backend storage.Backend
	actions *ActionLogger
	log     *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewResourceService initializes a new resource service
func NewResourceService(store ResourceStore, backend storage.Backend, actions *ActionLogger, log *logrus.Logger, m *metrics.Metrics) *ResourceService {
	return &ResourceService{
		store:   store,
		backend: backend,
		actions: actions,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// List returns resources with owner and category names, newest first
func (s *ResourceService) List(ctx context.Context) ([]models.ResourceView, error) {
	return s.store.ListResources(ctx)
}

// Create uploads the file, then inserts the row pointing at it
func (s *ResourceService) Create(ctx context.Context, in CreateResourceInput) (*models.Resource, error) {
	err := validator.New().
		Check(in.File != nil, "file", apperrors.MsgNoFile).
		Struct(in).
		Err()
	if err != nil {
		return nil, err
	}

	key, locator, err := s.upload(ctx, in.File)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.File.Name
	}
	res := &models.Resource{
		Title:      title,
		Filename:   key,
		FilePath:   locator,
		UserID:     validator.ParseID(in.UserID),
		CategoryID: validator.ParseID(in.CategoryID),
	}
	if err := s.store.CreateResource(ctx, res); err != nil {
		s.cleanup(ctx, locator, "insert_failed")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"resource_id": res.ID, "locator": locator}).Info("Resource created")
	s.actions.Log(ctx, fmt.Sprintf("Created resource %d (%s)", res.ID, res.Title))
	return res, nil
}

// Update replaces only the supplied fields. When a new file is attached the
// previous stored file is removed after the row points at the new one.
func (s *ResourceService) Update(ctx context.Context, id int64, in UpdateResourceInput) (*models.Resource, error) {
	patch, err := s.validateUpdate(in)
	if err != nil {
		return nil, err
	}

	var newLocator string
	if in.File != nil {
		key, locator, err := s.upload(ctx, in.File)
		if err != nil {
			return nil, err
		}
		newLocator = locator
		patch.Filename = &key
		patch.FilePath = &newLocator
	}

	old, err := s.store.GetResource(ctx, id)
	if err != nil {
		if newLocator != "" {
			s.cleanup(ctx, newLocator, "update_failed")
		}
		return nil, err
	}

	updated, err := s.store.UpdateResource(ctx, id, patch)
	if err != nil {
		if newLocator != "" {
			s.cleanup(ctx, newLocator, "update_failed")
		}
		return nil, err
	}

	if newLocator != "" && old.FilePath != "" && old.FilePath != updated.FilePath {
		s.cleanup(ctx, old.FilePath, "replaced")
	}

	s.actions.Log(ctx, fmt.Sprintf("Updated resource %d", id))
	return updated, nil
}

// Delete removes the row, then its stored file
func (s *ResourceService) Delete(ctx context.Context, id int64) error {
	old, err := s.store.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteResource(ctx, id); err != nil {
		return err
	}
	if old.FilePath != "" {
		s.cleanup(ctx, old.FilePath, "deleted")
	}

	s.log.WithField("resource_id", id).Info("Resource deleted")
	s.actions.Log(ctx, fmt.Sprintf("Deleted resource %d", id))
	return nil
}

func (s *ResourceService) validateUpdate(in UpdateResourceInput) (models.ResourcePatch, error) {
	var patch models.ResourcePatch
	v := validator.New()
	if in.Title != nil {
		patch.Title = trimmed(in.Title)
		v.Required("title", *patch.Title)
	}
	if in.UserID != nil {
		n, _ := v.PositiveInt("user_id", *in.UserID)
		patch.UserID = &n
	}
	if in.CategoryID != nil {
		n, _ := v.PositiveInt("category_id", *in.CategoryID)
		patch.CategoryID = &n
	}
	return patch, v.Err()
}

// upload stores file under a fresh key. Failures abort the request before
// any row is written.
func (s *ResourceService) upload(ctx context.Context, file *FileUpload) (string, string, error) {
	key := storage.ObjectKey(file.Name, s.now())
	locator, err := s.backend.Put(ctx, key, file.Reader, file.Size, file.ContentType)
	if err != nil {
		s.metrics.Uploads.WithLabelValues("failure").Inc()
		s.log.WithError(err).WithField("key", key).Error("Failed to upload file")
		return "", "", apperrors.Storage(err)
	}
	s.metrics.Uploads.WithLabelValues("success").Inc()
	return key, locator, nil
}

// cleanup deletes a stored object. Failures are logged and counted, never
// returned.
func (s *ResourceService) cleanup(ctx context.Context, locator, reason string) {
	entry := s.log.WithFields(logrus.Fields{"locator": locator, "reason": reason})
	if err := s.backend.Delete(context.WithoutCancel(ctx), locator); err != nil {
		s.metrics.CleanupFailures.WithLabelValues(reason).Inc()
		entry.WithError(err).Warn("Failed to delete stored file")
		return
	}
	entry.Info("Deleted stored file")
}
