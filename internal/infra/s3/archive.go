// Package s3 archives rendered artifacts in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"docsign-service/internal/domain"
)

// putObjectAPI is the part of the S3 client the archive uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive implements domain.ArtifactArchive.
type Archive struct {
	client putObjectAPI
	bucket string
	logger domain.Logger
}

// NewArchive loads the default AWS configuration and returns an archive
// writing to bucket. An empty region keeps the SDK's own resolution.
func NewArchive(ctx context.Context, bucket, region string, logger domain.Logger) (*Archive, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	return newArchive(s3.NewFromConfig(cfg), bucket, logger), nil
}

func newArchive(client putObjectAPI, bucket string, logger domain.Logger) *Archive {
	return &Archive{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Put stores binary under key.
func (a *Archive) Put(ctx context.Context, key string, binary []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(binary),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(binary))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	a.logger.Debug("Archived artifact", "bucket", a.bucket, "key", key, "bytes", len(binary))
	return nil
}

var _ domain.ArtifactArchive = (*Archive)(nil)
