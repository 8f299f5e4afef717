package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dunamismax/brandflow/internal/brand"
	"github.com/dunamismax/brandflow/internal/config"
	"github.com/dunamismax/brandflow/internal/notify"
	"github.com/dunamismax/brandflow/internal/orchestrator"
	"github.com/dunamismax/brandflow/internal/storage"
	"github.com/dunamismax/brandflow/internal/store"
	"github.com/dunamismax/brandflow/internal/telemetry"
	"github.com/dunamismax/brandflow/internal/worker"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.Lmsgprefix)

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfigFromEnv("brandflow-worker"), logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	if err := brand.Startup(); err != nil {
		logger.Fatalf("image engine startup failed: %v", err)
	}
	defer brand.Shutdown()

	storageClient, err := storage.NewClient(storage.Config{
		Endpoint:      cfg.Storage.Endpoint,
		Access:        cfg.Storage.AccessKey,
		Secret:        cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.Bucket,
		UseSSL:        cfg.Storage.UseSSL,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		logger.Fatalf("storage client failed: %v", err)
	}

	bucketCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	if err := storageClient.EnsureBucket(bucketCtx); err != nil {
		cancel()
		logger.Fatalf("bucket setup failed: %v", err)
	}
	cancel()

	compositor, err := brand.NewCompositor(brand.NewAssetCache(storageClient.Get), cfg.Brand)
	if err != nil {
		logger.Fatalf("compositor setup failed: %v", err)
	}

	mailer, err := notify.NewMailer(cfg.SMTP)
	if err != nil {
		logger.Fatalf("mailer setup failed: %v", err)
	}

	runner := orchestrator.New(logger, storageClient, compositor, mailer)
	requestStore := newRequestStore(ctx, cfg, logger)

	srv, err := worker.NewServer(logger, cfg.Queue, cfg.Worker, runner, requestStore)
	if err != nil {
		logger.Fatalf("worker setup failed: %v", err)
	}

	go func() {
		logger.Printf("metrics listening on %s", cfg.Worker.MetricsAddr)
		if err := http.ListenAndServe(cfg.Worker.MetricsAddr, srv.MetricsHandler()); err != nil {
			logger.Printf("metrics server failed: %v", err)
		}
	}()

	logger.Printf(
		"starting worker concurrency=%d max_active_jobs=%d queue=%s redis=%s",
		cfg.Worker.Concurrency,
		cfg.Worker.MaxActiveJobs,
		cfg.Queue.Name,
		cfg.Queue.RedisAddr,
	)

	if err := srv.Run(); err != nil {
		logger.Fatalf("worker failed: %v", err)
	}
}

func newRequestStore(ctx context.Context, cfg config.Config, logger *log.Logger) store.RequestStore {
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pg, err := store.NewPostgresRequestStore(dbCtx, cfg.Database.DSN)
	if err != nil {
		logger.Printf("postgres unavailable, using in-memory request store: %v", err)
		return store.NewMemoryRequestStore()
	}
	if err := pg.EnsureSchema(dbCtx); err != nil {
		logger.Printf("postgres schema setup failed, using in-memory request store: %v", err)
		_ = pg.Close()
		return store.NewMemoryRequestStore()
	}
	logger.Printf("request store backed by postgres")
	return pg
}
