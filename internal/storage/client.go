package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrObjectNotFound = errors.New("object not found")

type Config struct {
	Endpoint      string
	Access        string
	Secret        string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// Client is the object-store gateway: named byte blobs in one bucket plus the
// textual key and URL conventions the rest of the pipeline relies on.
type Client struct {
	minio         *minio.Client
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Access, cfg.Secret, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	return &Client{
		minio:         mc,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL(cfg),
		now:           time.Now,
	}, nil
}

func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.minio.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.minio.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		exists, checkErr := c.minio.BucketExists(ctx, c.bucket)
		if checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}

	return nil
}

// Get downloads one object. A missing or unreadable object reports
// ErrObjectNotFound so callers can distinguish a bad key from an outage.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.minio.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// Put uploads bytes under the key, overwriting any existing object.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := c.minio.PutObject(
		ctx,
		c.bucket,
		key,
		reader,
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// KeyFor builds a timestamped, category-tagged key for the filename. Keys from
// the same instant stay distinct across categories and filenames; a collision
// on identical filename, category and millisecond is accepted as-is.
func (c *Client) KeyFor(filename, category string) string {
	return MakeKey(c.now(), filename, category)
}

// URLFor builds the stable public URL for a key. Purely textual.
func (c *Client) URLFor(key string) string {
	return c.publicBaseURL + "/" + key
}

func publicBaseURL(cfg Config) string {
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base != "" {
		return base
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
}
