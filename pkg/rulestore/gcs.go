//go:build gcp

package rulestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/MartinT518/APEX-performance-sub001/pkg/retry"
)

// GCSSource reads the document from a Google Cloud Storage object.
type GCSSource struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSSource creates a client using application default credentials.
func NewGCSSource(ctx context.Context, bucket, object string) (*GCSSource, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSSource{client: client, bucket: bucket, object: object}, nil
}

func newGCSSource(ctx context.Context, bucket, object string) (Source, error) {
	return NewGCSSource(ctx, bucket, object)
}

// Fetch downloads the object. A missing object is permanent.
func (s *GCSSource) Fetch(ctx context.Context) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, retry.Permanent(fmt.Errorf("gcs get %s: %w", s, err))
		}
		return nil, fmt.Errorf("gcs get %s: %w", s, err)
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}

func (s *GCSSource) String() string { return "gs://" + s.bucket + "/" + s.object }

// Close closes the GCS client.
func (s *GCSSource) Close() error {
	return s.client.Close()
}
