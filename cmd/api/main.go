package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mapshare_backend/internal/adapters"
	"mapshare_backend/internal/adapters/storage"
	"mapshare_backend/internal/events"
	"mapshare_backend/internal/geosearch"
	apphttp "mapshare_backend/internal/http"
	"mapshare_backend/internal/http/router"
	"mapshare_backend/internal/maps"
	mapsrepo "mapshare_backend/internal/maps/repository"
	"mapshare_backend/internal/markers"
	markersrepo "mapshare_backend/internal/markers/repository"
	"mapshare_backend/internal/scheduler"
	"mapshare_backend/platform/config"
	"mapshare_backend/platform/db"
	"mapshare_backend/platform/logger"
	"mapshare_backend/platform/ratelimit"
	"mapshare_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const searchRateLimitPrefix = "ratelimit:search:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	images := initImageStore(ctx, cfg, log)

	searchLimiter, closeLimiter := initSearchLimiter(cfg, log)
	if closeLimiter != nil {
		defer closeLimiter()
	}

	// ========================================================================
	// Domain Modules
	// ========================================================================

	mapsModule := maps.NewModule(mapsrepo.New(pool), eventBus, cfg, val, log)

	markersModule := markers.NewModule(
		markersrepo.New(pool),
		adapters.NewMapOwnershipAdapter(mapsModule.Service()),
		images,
		cfg.GetMapDeleteCascade(),
		val,
		log,
	)

	if images != nil {
		purgeScheduler, closeScheduler := initImagePurgeScheduler(cfg, log)
		if purgeScheduler != nil {
			defer closeScheduler()
			markersModule.Service().SetImagePurgeScheduler(purgeScheduler)
		}
	}

	// Wire shared map markers: maps → markers (for the public viewer)
	mapsModule.Service().SetMarkerLister(adapters.NewSharedMarkersAdapter(markersModule.Service()))

	geosearchModule := geosearch.NewModule(geosearch.NewNominatimClient(cfg, log), searchLimiter, log)

	mapsModule.RegisterHandlers(eventBus)
	markersModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			mapsModule,
			markersModule,
			geosearchModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initImageStore returns nil when MinIO is not configured so marker image
// endpoints report storage as unavailable.
func initImageStore(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.ImageStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; marker images disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure marker-images bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", storageSvc.Bucket())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	return storageSvc
}

// initImagePurgeScheduler enqueues image cleanup for the scheduler process.
// Without Redis the markers module purges images inline.
func initImagePurgeScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize image purge scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initSearchLimiter prefers Redis so limits hold across replicas.
func initSearchLimiter(cfg config.RateLimitConfig, log *logger.Logger) (ratelimit.Limiter, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; search rate limit is per instance")
		return ratelimit.NewMemory(cfg.GetSearchRateWindow(), cfg.GetSearchRateMaxClients()), nil
	}

	limiter, err := ratelimit.NewRedis(cfg.GetRedisURL(), cfg.GetSearchRateWindow(), searchRateLimitPrefix)
	if err != nil {
		log.Error("failed to initialize redis rate limiter, falling back to memory", "error", err)
		return ratelimit.NewMemory(cfg.GetSearchRateWindow(), cfg.GetSearchRateMaxClients()), nil
	}

	return limiter, func() {
		_ = limiter.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
