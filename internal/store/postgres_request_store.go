package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/dunamismax/brandflow/internal/domain"
)

const requestSchemaSQL = `
CREATE TABLE IF NOT EXISTS brand_requests (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	image TEXT NOT NULL,
	email TEXT NOT NULL,
	results JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

type PostgresRequestStore struct {
	db *sql.DB
}

func NewPostgresRequestStore(ctx context.Context, dsn string) (*PostgresRequestStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresRequestStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresRequestStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, requestSchemaSQL); err != nil {
		return fmt.Errorf("ensure brand_requests schema: %w", err)
	}
	return nil
}

func (s *PostgresRequestStore) Close() error {
	return s.db.Close()
}

func (s *PostgresRequestStore) Create(ctx context.Context, req domain.Request) error {
	resultsJSON, err := json.Marshal(resultsOrEmpty(req.Results))
	if err != nil {
		return fmt.Errorf("marshal request results: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO brand_requests (id, status, image, email, results, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID,
		req.Status,
		req.Image,
		req.Email,
		resultsJSON,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	return nil
}

func (s *PostgresRequestStore) Get(ctx context.Context, id string) (domain.Request, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, status, image, email, results, created_at, updated_at
		 FROM brand_requests
		 WHERE id = $1`,
		id,
	)

	var (
		req         domain.Request
		resultsJSON []byte
	)
	if err := row.Scan(
		&req.ID,
		&req.Status,
		&req.Image,
		&req.Email,
		&resultsJSON,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Request{}, false, nil
		}
		return domain.Request{}, false, fmt.Errorf("query request: %w", err)
	}

	if err := json.Unmarshal(resultsJSON, &req.Results); err != nil {
		return domain.Request{}, false, fmt.Errorf("unmarshal request results: %w", err)
	}

	return req, true, nil
}

func (s *PostgresRequestStore) UpdateStatus(ctx context.Context, id, status string) (domain.Request, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE brand_requests
		 SET status = $1, updated_at = $2
		 WHERE id = $3`,
		status,
		now,
		id,
	)
	if err != nil {
		return domain.Request{}, fmt.Errorf("update request status: %w", err)
	}

	req, ok, err := s.Get(ctx, id)
	if err != nil {
		return domain.Request{}, err
	}
	if !ok {
		return domain.Request{}, ErrRequestNotFound
	}

	return req, nil
}

func (s *PostgresRequestStore) SetResults(ctx context.Context, id string, results []domain.ProcessedResult) error {
	resultsJSON, err := json.Marshal(resultsOrEmpty(results))
	if err != nil {
		return fmt.Errorf("marshal request results: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE brand_requests
		 SET results = $1, updated_at = $2
		 WHERE id = $3`,
		resultsJSON,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update request results: %w", err)
	}
	return nil
}

// resultsOrEmpty keeps the JSONB column an array even when no files were
// produced.
func resultsOrEmpty(results []domain.ProcessedResult) []domain.ProcessedResult {
	if results == nil {
		return []domain.ProcessedResult{}
	}
	return results
}
