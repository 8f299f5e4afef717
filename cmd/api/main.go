package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dunamismax/brandflow/internal/api"
	"github.com/dunamismax/brandflow/internal/brand"
	"github.com/dunamismax/brandflow/internal/config"
	"github.com/dunamismax/brandflow/internal/notify"
	"github.com/dunamismax/brandflow/internal/orchestrator"
	"github.com/dunamismax/brandflow/internal/queue"
	"github.com/dunamismax/brandflow/internal/storage"
	"github.com/dunamismax/brandflow/internal/store"
	"github.com/dunamismax/brandflow/internal/telemetry"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfigFromEnv("brandflow-api"), logger)
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

	queueClient := queue.NewClient(cfg.Queue.RedisClientOpt(), cfg.Queue.Name)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Printf("queue client close error: %v", err)
		}
	}()

	requestStore := newRequestStore(ctx, cfg, logger)

	app := api.NewServer(logger, runner, queueClient, requestStore)

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", cfg.API.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

// newRequestStore prefers postgres and falls back to the in-memory store so
// the API stays usable without a database.
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
