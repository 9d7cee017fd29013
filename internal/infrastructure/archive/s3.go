// Package archive stores raw upstream payloads in S3
package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/healthyplate/server/internal/infrastructure/config"
	"github.com/healthyplate/server/internal/ports/outbound"
	"go.uber.org/zap"
)

// S3Store implements outbound.ArchiveStore with the S3 upload manager
type S3Store struct {
	uploader s3manageriface.UploaderAPI
	bucket   string
	logger   *zap.Logger
}

// NewS3Store creates a store for cfg.S3Bucket. A custom endpoint switches
// to path-style addressing so S3-compatible servers work.
func NewS3Store(cfg config.AWSConfig, logger *zap.Logger) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("aws.s3_bucket is required for the archive")
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3StoreWithUploader(s3manager.NewUploader(sess), cfg.S3Bucket, logger), nil
}

// NewS3StoreWithUploader creates a store on an existing uploader
func NewS3StoreWithUploader(uploader s3manageriface.UploaderAPI, bucket string, logger *zap.Logger) *S3Store {
	return &S3Store{
		uploader: uploader,
		bucket:   bucket,
		logger:   logger.Named("archive"),
	}
}

var _ outbound.ArchiveStore = (*S3Store)(nil)

// Put uploads data under key and returns the object location
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("S3 upload failed",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	s.logger.Debug("Archived payload",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return out.Location, nil
}
