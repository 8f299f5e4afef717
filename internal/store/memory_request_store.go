package store

import (
	"context"
	"sync"
	"time"

	"github.com/dunamismax/brandflow/internal/domain"
)

type MemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[string]domain.Request
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{
		requests: make(map[string]domain.Request),
	}
}

func (s *MemoryRequestStore) Create(_ context.Context, req domain.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

func (s *MemoryRequestStore) Get(_ context.Context, id string) (domain.Request, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	return req, ok, nil
}

func (s *MemoryRequestStore) UpdateStatus(_ context.Context, id, status string) (domain.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return domain.Request{}, ErrRequestNotFound
	}

	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	s.requests[id] = req
	return req, nil
}

func (s *MemoryRequestStore) SetResults(_ context.Context, id string, results []domain.ProcessedResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return ErrRequestNotFound
	}

	req.Results = results
	req.UpdatedAt = time.Now().UTC()
	s.requests[id] = req
	return nil
}
