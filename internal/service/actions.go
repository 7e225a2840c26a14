package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/resource-service/internal/metrics"
	"github.com/Dan9191/resource-service/internal/models"
)

const actionLogTimeout = 5 * time.Second

// ActionLogger appends audit entries without ever failing or delaying the
// request that triggered them.
type ActionLogger struct {
	store   LogStore
	log     *logrus.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewActionLogger initializes a new action logger
func NewActionLogger(store LogStore, log *logrus.Logger, m *metrics.Metrics) *ActionLogger {
	return &ActionLogger{store: store, log: log, metrics: m}
}

// Log writes action in the background. The write outlives ctx cancellation
// but is bounded by its own timeout.
func (a *ActionLogger) Log(ctx context.Context, action string) {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				a.metrics.ActionLogErrors.Inc()
				a.log.WithField("action", action).Errorf("Action log write panicked: %v", p)
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, actionLogTimeout)
		defer cancel()
		if err := a.store.CreateLog(ctx, action); err != nil {
			a.metrics.ActionLogErrors.Inc()
			a.log.WithError(err).WithField("action", action).Error("Failed to write action log")
		}
	}()
}

// Wait blocks until every pending write has finished
func (a *ActionLogger) Wait() {
	a.wg.Wait()
}

// List returns all entries newest first
func (a *ActionLogger) List(ctx context.Context) ([]models.LogEntry, error) {
	return a.store.ListLogs(ctx)
}
