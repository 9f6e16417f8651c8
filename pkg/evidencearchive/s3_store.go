package evidencearchive

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store archives sealed evidence bundles to an S3-compatible bucket,
// keyed by alert_id (spec SPEC_FULL §11.8).
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3StoreConfig configures an S3Store.
type S3StoreConfig struct {
	Bucket   string
	Region   string
	Endpoint string // custom endpoint for MinIO/LocalStack
	Prefix   string
}

// NewS3Store constructs an S3-backed evidence archive.
func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("evidencearchive: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Store) key(alertID string) string {
	return s.prefix + alertID + ".sealed"
}

// Archive uploads a sealed blob under the alert's key.
func (s *S3Store) Archive(ctx context.Context, alertID string, sealed []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(alertID)),
		Body:        bytes.NewReader(sealed),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("evidencearchive: s3 put failed for %s: %w", alertID, err)
	}
	return nil
}

// Retrieve downloads the sealed blob for an alert.
func (s *S3Store) Retrieve(ctx context.Context, alertID string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(alertID)),
	})
	if err != nil {
		return nil, fmt.Errorf("evidencearchive: s3 get failed for %s: %w", alertID, err)
	}
	defer func() { _ = result.Body.Close() }()
	return io.ReadAll(result.Body)
}
