package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/brandflow/internal/domain"
	"github.com/dunamismax/brandflow/internal/id"
	"github.com/dunamismax/brandflow/internal/notify"
	"github.com/dunamismax/brandflow/internal/queue"
	"github.com/dunamismax/brandflow/internal/store"
)

// Server exposes the branding pipeline over HTTP: a synchronous endpoint that
// answers with the rendered HTML summary, and an asynchronous one that
// records a request and hands it to the queue.
type Server struct {
	logger       *log.Logger
	runner       brandRunner
	queueClient  queueEnqueuer
	requestStore store.RequestStore
	metrics      *metrics
	tracer       trace.Tracer
	mux          *http.ServeMux
}

type brandRunner interface {
	Handle(ctx context.Context, req domain.BrandRequest) (domain.PackagedResponse, error)
}

type queueEnqueuer interface {
	EnqueueBrandImage(ctx context.Context, payload queue.BrandImagePayload) (*asynq.TaskInfo, error)
}

func NewServer(logger *log.Logger, runner brandRunner, queueClient queueEnqueuer, requestStore store.RequestStore) *Server {
	s := &Server{
		logger:       logger,
		runner:       runner,
		queueClient:  queueClient,
		requestStore: requestStore,
		metrics:      newMetrics(),
		tracer:       otel.Tracer("brandflow/api"),
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return withCORS(s.metrics.withHTTPMetrics(s.withTracing(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("POST /v1/brand", s.handleBrand)
	s.mux.HandleFunc("POST /v1/requests", s.handleCreateRequest)
	s.mux.HandleFunc("GET /v1/requests/{id}", s.handleGetRequest)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBrand runs the whole pipeline inside the request and replies with the
// same HTML summary the email carries, or an HTML error fragment on failure.
func (s *Server) handleBrand(w http.ResponseWriter, r *http.Request) {
	var req domain.BrandRequest
	if err := decodeJSON(r, &req); err != nil {
		s.metrics.brandTotal.WithLabelValues("sync", "failed").Inc()
		writeHTML(w, http.StatusInternalServerError, notify.RenderError(err))
		return
	}
	if err := req.Validate(); err != nil {
		s.metrics.brandTotal.WithLabelValues("sync", "failed").Inc()
		writeHTML(w, http.StatusInternalServerError, notify.RenderError(err))
		return
	}

	response, err := s.runner.Handle(r.Context(), req)
	if err != nil {
		s.logger.Printf("branding failed image=%s err=%v", req.Image, err)
		s.metrics.brandTotal.WithLabelValues("sync", "failed").Inc()
		writeHTML(w, http.StatusInternalServerError, notify.RenderError(err))
		return
	}

	body, err := notify.RenderSummary(response)
	if err != nil {
		s.logger.Printf("render summary failed image=%s err=%v", req.Image, err)
		s.metrics.brandTotal.WithLabelValues("sync", "failed").Inc()
		writeHTML(w, http.StatusInternalServerError, notify.RenderError(err))
		return
	}

	s.metrics.brandTotal.WithLabelValues("sync", "succeeded").Inc()
	s.metrics.filesProcessedTotal.Add(float64(len(response.Results)))
	writeHTML(w, http.StatusOK, body)
}

// handleCreateRequest records the request and enqueues it for the worker.
// The submitter hears back by email.
func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	if s.queueClient == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "async processing is unavailable"})
		return
	}

	var req domain.BrandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	requestID := id.New()

	record := domain.Request{
		ID:        requestID,
		Status:    domain.RequestStatusReceived,
		Image:     req.Image,
		Email:     req.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.requestStore.Create(r.Context(), record); err != nil {
		s.logger.Printf("create request record failed request_id=%s err=%v", requestID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record request"})
		return
	}

	taskInfo, err := s.queueClient.EnqueueBrandImage(r.Context(), queue.BrandImagePayload{
		RequestID:   requestID,
		Image:       req.Image,
		Email:       req.Email,
		RequestedAt: now,
	})
	if err != nil {
		s.logger.Printf("enqueue failed request_id=%s err=%v", requestID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue request"})
		return
	}

	if _, err := s.requestStore.UpdateStatus(r.Context(), requestID, domain.RequestStatusQueued); err != nil {
		s.logger.Printf("update status failed request_id=%s err=%v", requestID, err)
	}

	s.metrics.queueEnqueued.WithLabelValues(taskInfo.Queue).Inc()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"request_id": requestID,
		"status":     domain.RequestStatusQueued,
		"queue":      taskInfo.Queue,
		"task_id":    taskInfo.ID,
	})
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")

	record, ok, err := s.requestStore.Get(r.Context(), requestID)
	if err != nil {
		s.logger.Printf("fetch request failed request_id=%s err=%v", requestID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load request"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "request not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"request_id": record.ID,
		"status":     record.Status,
		"image":      record.Image,
		"results":    record.Results,
		"created_at": record.CreatedAt,
		"updated_at": record.UpdatedAt,
	})
}

func decodeJSON(r *http.Request, into any) error {
	const maxBodyBytes = 1 << 20
	limited := io.LimitReader(r.Body, maxBodyBytes)
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
