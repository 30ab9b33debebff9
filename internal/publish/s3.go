package publish

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/figura-dev/figura/internal/errors"
)

// PutObjectAPI is the part of *s3.Client used by S3Store.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds a client from the default AWS configuration.
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.New("F200").
			WithDetail("loading AWS configuration").
			WithSuggestion("Set AWS_REGION and credentials, or publish to a file").
			Wrap(err)
	}
	return s3.NewFromConfig(cfg), nil
}

// S3Store writes one object to S3.
type S3Store struct {
	client PutObjectAPI
	bucket string
	key    string
	now    func() time.Time
}

// NewS3Store creates a store writing s3://bucket/key.
func NewS3Store(client PutObjectAPI, bucket, key string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		key:    key,
		now:    time.Now,
	}
}

// Publish uploads data.
func (s *S3Store) Publish(ctx context.Context, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"generator":    "figura",
			"published-at": s.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return errors.New("F200").
			WithDetailf("s3://%s/%s", s.bucket, s.key).
			Wrap(err)
	}
	return nil
}
