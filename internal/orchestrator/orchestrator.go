package orchestrator

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dunamismax/brandflow/internal/archive"
	"github.com/dunamismax/brandflow/internal/brand"
	"github.com/dunamismax/brandflow/internal/domain"
	"github.com/dunamismax/brandflow/internal/storage"
)

// Name of the packaged archive uploaded for multi-file requests.
const packageFilename = "processed_files.zip"

type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	KeyFor(filename, category string) string
	URLFor(key string) string
}

type Notifier interface {
	Notify(ctx context.Context, recipient string, res domain.PackagedResponse) error
}

// Orchestrator turns one inbound branding request into a reply: download,
// extract, brand and upload every image concurrently, package multi-file
// results, then notify the submitter.
type Orchestrator struct {
	logger     *log.Logger
	store      ObjectStore
	compositor *brand.Compositor
	notifier   Notifier
}

func New(logger *log.Logger, store ObjectStore, compositor *brand.Compositor, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		logger:     logger,
		store:      store,
		compositor: compositor,
		notifier:   notifier,
	}
}

func (o *Orchestrator) Handle(ctx context.Context, req domain.BrandRequest) (domain.PackagedResponse, error) {
	source, err := o.store.Get(ctx, req.Image)
	if err != nil {
		return domain.PackagedResponse{}, fmt.Errorf("download source %s: %w", req.Image, err)
	}

	files, err := archive.Extract(source, req.Image)
	if err != nil {
		return domain.PackagedResponse{}, err
	}

	// All-or-nothing join: one failing file fails the request. A plain
	// errgroup.Group carries no shared cancellation, so in-flight siblings
	// run to completion and their results are simply discarded.
	results := make([]domain.ProcessedResult, len(files))
	var g errgroup.Group
	for i, file := range files {
		g.Go(func() error {
			result, err := o.processFile(ctx, file)
			if err != nil {
				return fmt.Errorf("process %s: %w", file.Filename, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.PackagedResponse{}, err
	}

	response := domain.PackagedResponse{Results: results}
	if strings.EqualFold(path.Ext(req.Image), ".zip") {
		zipKey, err := o.packageResults(ctx, results)
		if err != nil {
			return domain.PackagedResponse{}, err
		}
		response.ZipKey = zipKey
		response.ZipURL = o.store.URLFor(zipKey)
	}

	// Notification is fire-and-forget: processing already succeeded, so a
	// delivery failure is logged and never escalated to the caller.
	if err := o.notifier.Notify(ctx, req.Email, response); err != nil {
		o.logger.Printf("notification delivery failed recipient=%s err=%v", req.Email, err)
	}

	return response, nil
}

// processFile brands a single extracted image and uploads both the original
// and the branded bytes. URLs are built only after both uploads complete.
func (o *Orchestrator) processFile(ctx context.Context, file domain.ExtractedFile) (domain.ProcessedResult, error) {
	branded, err := o.compositor.Brand(ctx, file.Content)
	if err != nil {
		return domain.ProcessedResult{}, err
	}

	originalKey := o.store.KeyFor(file.Filename, storage.CategoryOriginal)
	processedKey := o.store.KeyFor(file.Filename, storage.CategoryProcessed)
	contentType := contentTypeFor(file.Filename)

	if err := o.store.Put(ctx, originalKey, file.Content, contentType); err != nil {
		return domain.ProcessedResult{}, fmt.Errorf("upload original: %w", err)
	}
	if err := o.store.Put(ctx, processedKey, branded, contentType); err != nil {
		return domain.ProcessedResult{}, fmt.Errorf("upload processed: %w", err)
	}

	return domain.ProcessedResult{
		OriginalURL:  o.store.URLFor(originalKey),
		ProcessedURL: o.store.URLFor(processedKey),
		ProcessedKey: processedKey,
	}, nil
}

// packageResults re-downloads every processed object by key, zips them under
// their basenames and uploads the archive under a package-category key. Runs
// only after the per-file join barrier.
func (o *Orchestrator) packageResults(ctx context.Context, results []domain.ProcessedResult) (string, error) {
	entries := make([]archive.Entry, 0, len(results))
	for _, result := range results {
		data, err := o.store.Get(ctx, result.ProcessedKey)
		if err != nil {
			return "", fmt.Errorf("collect %s for packaging: %w", result.ProcessedKey, err)
		}
		entries = append(entries, archive.Entry{
			Name:    path.Base(result.ProcessedKey),
			Content: data,
		})
	}

	zipData, err := archive.BuildZip(entries)
	if err != nil {
		return "", err
	}

	zipKey := o.store.KeyFor(packageFilename, storage.CategoryPackage)
	if err := o.store.Put(ctx, zipKey, zipData, "application/zip"); err != nil {
		return "", fmt.Errorf("upload package: %w", err)
	}
	return zipKey, nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
