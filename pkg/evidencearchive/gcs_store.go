//go:build gcp

package evidencearchive

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore archives sealed evidence bundles to a GCS bucket, keyed by
// alert_id (spec SPEC_FULL §11.8).
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// GCSStoreConfig configures a GCSStore.
type GCSStoreConfig struct {
	Bucket string
	Prefix string
}

// NewGCSStore constructs a GCS-backed evidence archive using ADC.
func NewGCSStore(ctx context.Context, cfg GCSStoreConfig) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("evidencearchive: create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GCSStore) objectPath(alertID string) string {
	return s.prefix + alertID + ".sealed"
}

// Archive uploads a sealed blob under the alert's object path.
func (s *GCSStore) Archive(ctx context.Context, alertID string, sealed []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.objectPath(alertID)).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(sealed); err != nil {
		_ = w.Close()
		return fmt.Errorf("evidencearchive: gcs write failed for %s: %w", alertID, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("evidencearchive: gcs close failed for %s: %w", alertID, err)
	}
	return nil
}

// Retrieve downloads the sealed blob for an alert.
func (s *GCSStore) Retrieve(ctx context.Context, alertID string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(s.objectPath(alertID)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("evidencearchive: gcs get failed for %s: %w", alertID, err)
	}
	defer func() { _ = reader.Close() }()
	return io.ReadAll(reader)
}

// Close closes the GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
