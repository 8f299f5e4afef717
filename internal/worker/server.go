package worker

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/brandflow/internal/config"
	"github.com/dunamismax/brandflow/internal/domain"
	"github.com/dunamismax/brandflow/internal/queue"
	"github.com/dunamismax/brandflow/internal/store"
)

// Server consumes queued branding requests and runs them through the same
// orchestrator the sync endpoint uses. The reply channel here is the email
// alone; the request record carries the outcome for later inspection.
type Server struct {
	logger       *log.Logger
	server       *asynq.Server
	sem          chan struct{}
	runner       brandRunner
	requestStore store.RequestStore
	metrics      *metrics
	tracer       trace.Tracer
}

type brandRunner interface {
	Handle(ctx context.Context, req domain.BrandRequest) (domain.PackagedResponse, error)
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	runner brandRunner,
	requestStore store.RequestStore,
) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("brand runner is required")
	}

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		sem:          make(chan struct{}, max(1, workerCfg.MaxActiveJobs)),
		runner:       runner,
		requestStore: requestStore,
		metrics:      newMetrics(),
		tracer:       otel.Tracer("brandflow/worker"),
	}
	return s, nil
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeBrandImage, s.handleBrandImage)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleBrandImage(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	outcome := domain.RequestStatusFailed

	payload, err := queue.ParseBrandImagePayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.tracer.Start(ctx, "worker.brand_image", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("request.id", payload.RequestID),
		attribute.String("request.image", payload.Image),
	)
	defer span.End()
	defer func() {
		s.metrics.requestDuration.WithLabelValues(outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.requestsTotal.WithLabelValues(outcome).Inc()
	}()

	s.sem <- struct{}{}
	s.metrics.activeRequests.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeRequests.Dec()
	}()

	s.logger.Printf("Working... request_id=%s image=%s", payload.RequestID, payload.Image)
	s.updateStatus(ctx, payload.RequestID, domain.RequestStatusProcessing)

	response, err := s.runner.Handle(ctx, domain.BrandRequest{
		Image: payload.Image,
		Email: payload.Email,
	})
	if err != nil {
		s.updateStatus(ctx, payload.RequestID, domain.RequestStatusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "branding failed")
		return fmt.Errorf("run branding: %w", err)
	}

	s.logger.Printf("Processed request_id=%s files=%d zip=%t",
		payload.RequestID, len(response.Results), response.ZipKey != "")
	s.recordResults(ctx, payload.RequestID, response)
	s.updateStatus(ctx, payload.RequestID, domain.RequestStatusSucceeded)
	s.metrics.filesProcessedTotal.Add(float64(len(response.Results)))

	outcome = domain.RequestStatusSucceeded
	span.SetStatus(codes.Ok, "processed")
	return nil
}

func (s *Server) updateStatus(ctx context.Context, requestID, status string) {
	if s.requestStore == nil {
		return
	}
	if _, err := s.requestStore.UpdateStatus(ctx, requestID, status); err != nil {
		s.logger.Printf("request status update failed request_id=%s status=%s err=%v", requestID, status, err)
	}
}

func (s *Server) recordResults(ctx context.Context, requestID string, response domain.PackagedResponse) {
	if s.requestStore == nil {
		return
	}
	if err := s.requestStore.SetResults(ctx, requestID, response.Results); err != nil {
		s.logger.Printf("request results write failed request_id=%s err=%v", requestID, err)
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
