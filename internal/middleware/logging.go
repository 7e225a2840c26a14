// Package middleware wraps the router with request logging, metrics, CORS
// and panic recovery.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/resource-service/internal/metrics"
)

type ctxKeyLog struct{}

type responseRecorder struct {
	b      int
	status int
	w      http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header { return r.w.Header() }

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.w.Write(p)
	r.b += n
	return n, err
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.w.WriteHeader(statusCode)
}

// Logging attaches a request-scoped log entry to the context and records
// method, path, status, size and latency of every request.
func Logging(log *logrus.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			start := time.Now()
			rr := &responseRecorder{w: w}
			entry := log.WithFields(logrus.Fields{
				"http.req.path":   r.URL.Path,
				"http.req.method": r.Method,
				"http.req.id":     requestID,
			})
			ctx := context.WithValue(r.Context(), ctxKeyLog{}, entry)

			entry.Debug("request started")
			defer func() {
				if rr.status == 0 {
					rr.status = http.StatusOK
				}
				m.Requests.WithLabelValues(r.Method, strconv.Itoa(rr.status)).Inc()
				entry.WithFields(logrus.Fields{
					"http.resp.took_ms": int64(time.Since(start) / time.Millisecond),
					"http.resp.status":  rr.status,
					"http.resp.bytes":   rr.b,
				}).Info("request complete")
			}()

			next.ServeHTTP(rr, r.WithContext(ctx))
		})
	}
}

// LogEntry returns the request-scoped log entry, or a fresh entry on
// fallback when the request did not pass through Logging.
func LogEntry(ctx context.Context, fallback *logrus.Logger) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKeyLog{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(fallback)
}
