package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	RequestStatusReceived   = "received"
	RequestStatusQueued     = "queued"
	RequestStatusProcessing = "processing"
	RequestStatusSucceeded  = "succeeded"
	RequestStatusFailed     = "failed"
)

// BrandRequest identifies one stored blob to process and one notification
// target. Created per invocation and discarded after processing.
type BrandRequest struct {
	Image string `json:"image"`
	Email string `json:"email"`
}

// ExtractedFile is one image pulled out of the input: a single entry for a
// plain image, one per qualifying zip entry otherwise.
type ExtractedFile struct {
	Filename string
	Content  []byte
}

// ProcessedResult pairs the public URLs of one original/processed upload.
// Both objects exist in the store by the time a ProcessedResult is built.
// ProcessedKey is kept so the packager can re-download the output by key.
type ProcessedResult struct {
	OriginalURL  string `json:"original_url"`
	ProcessedURL string `json:"processed_url"`
	ProcessedKey string `json:"processed_key"`
}

// PackagedResponse is the final aggregate handed to the notifier and rendered
// into the HTTP reply. ZipKey is set iff the input was a zip archive.
type PackagedResponse struct {
	Results []ProcessedResult `json:"results"`
	ZipKey  string            `json:"zip_key,omitempty"`
	ZipURL  string            `json:"zip_url,omitempty"`
}

// Request is the persisted record of one branding run.
type Request struct {
	ID        string
	Status    string
	Image     string
	Email     string
	Results   []ProcessedResult
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r BrandRequest) Validate() error {
	if strings.TrimSpace(r.Image) == "" {
		return errors.New("image is required")
	}
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return errors.New("email is required")
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return errors.New("email is not a valid address")
	}
	return nil
}
