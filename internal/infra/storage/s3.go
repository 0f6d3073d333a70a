package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/niteshawasthi21/pjv-backend/internal/core/port"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/config"
)

// S3Store uploads avatar files to an S3-compatible bucket (AWS or MinIO).
// The stored reference is the object key.
type S3Store struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
	now    func() time.Time
}

// NewS3Store builds an S3 client from static credentials. BaseEndpoint is
// set for MinIO-style deployments; leave it empty for AWS.
func NewS3Store(ctx context.Context, cfg config.S3Settings, logger *zap.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Save uploads the avatar under avatars/<accountID>/<timestamped name>.
func (s *S3Store) Save(ctx context.Context, accountID, filename string, content io.Reader, size int64) (string, error) {
	key := fmt.Sprintf("avatars/%s/%s", accountID, avatarObjectName(s.now(), filename))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          content,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentTypeForExt(filename)),
	})
	if err != nil {
		return "", fmt.Errorf("put avatar object: %w", err)
	}

	s.logger.Debug("avatar stored in s3",
		zap.String("account_id", accountID),
		zap.String("key", key),
		zap.Int64("size", size),
	)

	return key, nil
}

func contentTypeForExt(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var _ port.AvatarStore = (*S3Store)(nil)
