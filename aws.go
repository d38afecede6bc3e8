package campfire

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Mirror copies every exported file to a bucket as it is written, so
// the local tree doubles as an off-site archive.
type S3Mirror struct {
	s3Client  *s3.Client
	bucket    string
	keyPrefix string

	logger *slog.Logger
}

var _ FileMirror = (*S3Mirror)(nil)

func NewS3Mirror(ctx context.Context, logger *slog.Logger, bucket, keyPrefix string) (*S3Mirror, error) {
	if bucket == "" {
		return nil, fmt.Errorf("mirror bucket is required")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &S3Mirror{
		s3Client:  s3.NewFromConfig(cfg),
		bucket:    bucket,
		keyPrefix: keyPrefix,
		logger:    logger,
	}, nil
}

func (m *S3Mirror) Mirror(ctx context.Context, localPath, relPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	key := path.Join(m.keyPrefix, filepath.ToSlash(relPath))
	params := &s3.PutObjectInput{
		Bucket: &m.bucket,
		Key:    &key,
		Body:   f,
	}
	if _, err := m.s3Client.PutObject(ctx, params); err != nil {
		return err
	}
	m.logger.Info("mirrored to s3", "bucket", m.bucket, "key", key)
	return nil
}
