package store

import (
	"context"
	"errors"

	"github.com/dunamismax/brandflow/internal/domain"
)

var ErrRequestNotFound = errors.New("request not found")

// RequestStore records one row per branding run so async submissions can be
// audited after the email goes out.
type RequestStore interface {
	Create(ctx context.Context, req domain.Request) error
	Get(ctx context.Context, id string) (domain.Request, bool, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.Request, error)
	SetResults(ctx context.Context, id string, results []domain.ProcessedResult) error
}
