package imagestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectAPI is the subset of the S3 client used by S3Store.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps images in an S3 bucket and references them by object URL.
type S3Store struct {
	client  objectAPI
	bucket  string
	prefix  string
	baseURL string
	logger  zerolog.Logger
}

// NewS3Store creates an S3-backed image store using the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (*S3Store, error) {
	logger = logger.With().Str("component", "s3-image-store").Logger()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 image store initialised")

	return newS3Store(s3.NewFromConfig(cfg), bucket, region, prefix, logger), nil
}

func newS3Store(client objectAPI, bucket, region, prefix string, logger zerolog.Logger) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		baseURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, region),
		logger:  logger,
	}
}

// Save uploads the image under the configured prefix and returns its object URL.
func (s *S3Store) Save(ctx context.Context, upload *Upload) (string, error) {
	key := s.prefix + upload.Name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          upload.reader(),
		ContentType:   aws.String(upload.ContentType),
		ContentLength: aws.Int64(int64(len(upload.Data))),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Debug().Str("key", key).Msg("image uploaded to S3")

	return s.baseURL + key, nil
}

// Delete removes the object behind ref.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	if !s.Owns(ref) {
		return nil
	}

	key := strings.TrimPrefix(ref, s.baseURL)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to delete object from S3")
		return fmt.Errorf("failed to delete object from S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	return nil
}

// Owns reports whether ref is an object URL of this bucket.
func (s *S3Store) Owns(ref string) bool {
	return strings.HasPrefix(ref, s.baseURL)
}
