package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/resource-service/internal/config"
	"github.com/Dan9191/resource-service/internal/handler"
	"github.com/Dan9191/resource-service/internal/metrics"
	"github.com/Dan9191/resource-service/internal/middleware"
	"github.com/Dan9191/resource-service/internal/repository"
	"github.com/Dan9191/resource-service/internal/service"
	"github.com/Dan9191/resource-service/internal/storage"
	"github.com/Dan9191/resource-service/internal/worker"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	repo := repository.NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatalf("Failed to apply schema: %v", err)
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize %s storage: %v", cfg.StorageBackend, err)
	}
	logger.Infof("Using %s storage", backend.Name())

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize layers
	actions := service.NewActionLogger(repo, logger, m)
	h := handler.NewHandler(
		service.NewUserService(repo, actions, logger),
		service.NewCategoryService(repo, actions),
		service.NewResourceService(repo, backend, actions, logger, m),
		actions,
		logger,
		cfg.MaxUploadBytes,
	)

	// Setup router
	r := mux.NewRouter()
	h.Routes(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	if local, ok := backend.(*storage.LocalBackend); ok {
		r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", fileServer(local.Dir()))).Methods(http.MethodGet)
	}
	r.Use(middleware.Logging(logger, m))

	// Background orphan sweep
	var sweepDone <-chan struct{}
	if cfg.SweepSchedule != "" {
		sweeper := worker.NewOrphanSweeper(backend, repo, cfg.SweepGrace, logger, m)
		sweepDone, err = sweeper.Start(ctx, cfg.SweepSchedule)
		if err != nil {
			logger.Fatalf("Failed to start orphan sweep: %v", err)
		}
	}

	// Start server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      middleware.Recovery(logger)(middleware.CORS(cfg.AllowedOrigins)(r)),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	if sweepDone != nil {
		<-sweepDone
	}
	actions.Wait()
	logger.Info("Server stopped")
}

func newBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	if cfg.StorageBackend == config.StorageS3 {
		opts := storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		}
		client, err := storage.NewS3Client(ctx, opts)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Backend(client, opts), nil
	}
	return storage.NewLocalBackend(cfg.UploadDir)
}

// fileServer serves stored uploads without directory listings.
func fileServer(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
