package worker

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"

	"github.com/dunamismax/brandflow/internal/domain"
	"github.com/dunamismax/brandflow/internal/queue"
	"github.com/dunamismax/brandflow/internal/store"
)

type fakeRunner struct {
	response domain.PackagedResponse
	err      error
	calls    int
	last     domain.BrandRequest
}

func (r *fakeRunner) Handle(_ context.Context, req domain.BrandRequest) (domain.PackagedResponse, error) {
	r.calls++
	r.last = req
	return r.response, r.err
}

func testServer(runner brandRunner, requests store.RequestStore) *Server {
	return &Server{
		logger:       log.New(io.Discard, "", 0),
		sem:          make(chan struct{}, 1),
		runner:       runner,
		requestStore: requests,
		metrics:      newMetrics(),
		tracer:       otel.Tracer("brandflow/worker-test"),
	}
}

func seedRequest(t *testing.T, requests store.RequestStore, id string) {
	t.Helper()
	if err := requests.Create(context.Background(), domain.Request{
		ID:        id,
		Status:    domain.RequestStatusQueued,
		Image:     "photo.png",
		Email:     "a@b.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed request: %v", err)
	}
}

func brandTask(t *testing.T, payload queue.BrandImagePayload) *asynq.Task {
	t.Helper()
	task, err := queue.NewBrandImageTask(payload)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	return task
}

func TestHandleBrandImageSuccess(t *testing.T) {
	requests := store.NewMemoryRequestStore()
	seedRequest(t, requests, "req-1")

	runner := &fakeRunner{
		response: domain.PackagedResponse{
			Results: []domain.ProcessedResult{
				{OriginalURL: "https://b/orig", ProcessedURL: "https://b/proc", ProcessedKey: "k_processed_photo.png"},
			},
		},
	}
	s := testServer(runner, requests)

	task := brandTask(t, queue.BrandImagePayload{
		RequestID:   "req-1",
		Image:       "photo.png",
		Email:       "a@b.com",
		RequestedAt: time.Now().UTC(),
	})

	if err := s.handleBrandImage(context.Background(), task); err != nil {
		t.Fatalf("handle task: %v", err)
	}

	if runner.calls != 1 {
		t.Fatalf("expected one branding run, got %d", runner.calls)
	}
	if runner.last.Image != "photo.png" || runner.last.Email != "a@b.com" {
		t.Fatalf("unexpected request passed to runner: %+v", runner.last)
	}

	req, ok, err := requests.Get(context.Background(), "req-1")
	if err != nil || !ok {
		t.Fatalf("load request record: ok=%t err=%v", ok, err)
	}
	if req.Status != domain.RequestStatusSucceeded {
		t.Fatalf("expected succeeded status, got %s", req.Status)
	}
	if len(req.Results) != 1 {
		t.Fatalf("expected recorded results, got %d", len(req.Results))
	}
}

func TestHandleBrandImageFailureMarksRequest(t *testing.T) {
	requests := store.NewMemoryRequestStore()
	seedRequest(t, requests, "req-2")

	runner := &fakeRunner{err: errors.New("decode failed")}
	s := testServer(runner, requests)

	task := brandTask(t, queue.BrandImagePayload{RequestID: "req-2", Image: "photo.png", Email: "a@b.com"})

	if err := s.handleBrandImage(context.Background(), task); err == nil {
		t.Fatal("expected task error so asynq retries")
	}

	req, _, err := requests.Get(context.Background(), "req-2")
	if err != nil {
		t.Fatalf("load request record: %v", err)
	}
	if req.Status != domain.RequestStatusFailed {
		t.Fatalf("expected failed status, got %s", req.Status)
	}
}

func TestHandleBrandImageBadPayloadSkipsRetry(t *testing.T) {
	s := testServer(&fakeRunner{}, nil)

	err := s.handleBrandImage(context.Background(), asynq.NewTask(queue.TypeBrandImage, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for malformed payload, got %v", err)
	}
}
