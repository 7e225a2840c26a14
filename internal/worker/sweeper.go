// Package worker runs background maintenance jobs.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/resource-service/internal/metrics"
	"github.com/Dan9191/resource-service/internal/storage"
)

// LocatorSource lists the storage locators still referenced by resource rows
type LocatorSource interface {
	ResourceLocators(ctx context.Context) ([]string, error)
}

// OrphanSweeper removes stored objects that no resource row references.
// Objects younger than the grace period are skipped so uploads whose row
// is still being written are not reaped.
type OrphanSweeper struct {
	backend  storage.Backend
	locators LocatorSource
	grace    time.Duration
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewOrphanSweeper initializes a new sweeper
func NewOrphanSweeper(backend storage.Backend, locators LocatorSource, grace time.Duration, logger *logrus.Logger, m *metrics.Metrics) *OrphanSweeper {
	return &OrphanSweeper{
		backend:  backend,
		locators: locators,
		grace:    grace,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Sweep runs one reconciliation pass and returns the number of removed objects
func (w *OrphanSweeper) Sweep(ctx context.Context) (int, error) {
	objects, err := w.backend.List(ctx)
	if err != nil {
		w.metrics.SweepRuns.WithLabelValues("failure").Inc()
		return 0, fmt.Errorf("failed to list stored objects: %w", err)
	}
	locators, err := w.locators.ResourceLocators(ctx)
	if err != nil {
		w.metrics.SweepRuns.WithLabelValues("failure").Inc()
		return 0, fmt.Errorf("failed to load referenced locators: %w", err)
	}

	referenced := make(map[string]struct{}, len(locators))
	for _, loc := range locators {
		if key, ok := w.backend.Key(loc); ok {
			referenced[key] = struct{}{}
		}
	}

	cutoff := w.now().Add(-w.grace)
	removed := 0
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := w.backend.Delete(ctx, obj.Locator); err != nil {
			w.logger.WithError(err).WithField("key", obj.Key).Warn("Failed to remove orphaned object")
			continue
		}
		removed++
		w.metrics.OrphansRemoved.Inc()
		w.logger.WithField("key", obj.Key).Info("Removed orphaned object")
	}

	w.metrics.SweepRuns.WithLabelValues("success").Inc()
	return removed, nil
}

// Start schedules Sweep with a cron spec such as "@every 1h". The schedule
// stops when ctx is done; the returned channel closes once a running sweep
// has finished.
func (w *OrphanSweeper) Start(ctx context.Context, spec string) (<-chan struct{}, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(w.logger)),
		cron.SkipIfStillRunning(cron.PrintfLogger(w.logger)),
	))
	_, err := c.AddFunc(spec, func() {
		removed, err := w.Sweep(ctx)
		if err != nil {
			w.logger.WithError(err).Error("Orphan sweep failed")
			return
		}
		w.logger.Infof("Orphan sweep finished, removed %d objects", removed)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}

	c.Start()
	w.logger.Infof("Orphan sweep scheduled: %s", spec)

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		close(done)
	}()
	return done, nil
}
