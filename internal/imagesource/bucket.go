package imagesource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/wgomg/kayum/internal/config"
)

var ErrObjectNotFound = errors.New("object not found in bucket")

// BucketStore reads images from an S3-compatible bucket.
type BucketStore struct {
	client *minio.Client
	bucket string
	logger *logrus.Logger
}

func NewBucketStore(cfg *config.BucketConfig, logger *logrus.Logger) (*BucketStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Name == "" {
		return nil, fmt.Errorf("BUCKET_ENDPOINT, BUCKET_ACCESS_KEY, BUCKET_SECRET_KEY and BUCKET_NAME are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket client: %w", err)
	}

	return &BucketStore{
		client: client,
		bucket: cfg.Name,
		logger: logger,
	}, nil
}

func (s *BucketStore) Get(ctx context.Context, object string) (io.ReadCloser, error) {
	// stat first to surface missing keys, GetObject reads lazily
	if _, err := s.client.StatObject(ctx, s.bucket, object, minio.StatObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, object)
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", object, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object %s: %w", object, err)
	}

	s.logger.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"object": object,
	}).Debug("reading bucket object")

	return obj, nil
}
