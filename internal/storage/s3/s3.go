// Package storage stores uploaded media in an S3-compatible bucket. Writes
// go through a circuit breaker so a dead endpoint fails fast instead of
// stalling every upload request.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker/v2"

	"portfolio/internal/lib/logger/sl"
	"portfolio/internal/metrics"
)

const breakerName = "s3"

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	CDNURL    string
	PathStyle bool
}

// Store is an object store over a single bucket.
type Store struct {
	log     *slog.Logger
	raw     *s3.Client
	breaker *gobreaker.CircuitBreaker[any]
	cfg     Config
}

func New(ctx context.Context, log *slog.Logger, c Config) (*Store, error) {
	const op = "storage.s3.New"

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
	}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(strings.TrimRight(c.Endpoint, "/"))
		}
		o.UsePathStyle = c.PathStyle
	})

	c.CDNURL = strings.TrimRight(c.CDNURL, "/")

	return &Store{
		log:     log,
		raw:     client,
		breaker: newBreaker(log),
		cfg:     c,
	}, nil
}

func newBreaker(log *slog.Logger) *gobreaker.CircuitBreaker[any] {
	metrics.ObjectStorageCircuitState.WithLabelValues(breakerName).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.ObjectStorageCircuitState.WithLabelValues(name).Set(float64(to))
			log.Warn("object storage circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// Put uploads body under key and returns its public URL.
func (s *Store) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	const op = "storage.s3.Put"

	_, err := s.breaker.Execute(func() (any, error) {
		out, err := s.raw.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.cfg.Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(body),
			ContentLength: aws.Int64(int64(len(body))),
			ContentType:   aws.String(contentType),
			CacheControl:  aws.String("public, max-age=31536000, immutable"),
		})
		return out, err
	})
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, key, err)
	}

	return s.FileURL(key), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "storage.s3.Delete"

	_, err := s.breaker.Execute(func() (any, error) {
		out, err := s.raw.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		})
		return out, err
	})
	if err != nil {
		return fmt.Errorf("%s: %s: %w", op, key, err)
	}

	return nil
}

// FileURL builds the public URL of key, on the CDN when one is configured.
func (s *Store) FileURL(key string) string {
	return fileURL(s.cfg, key)
}

func fileURL(c Config, key string) string {
	if c.CDNURL != "" {
		return c.CDNURL + "/" + key
	}
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.Bucket, c.Region, key)
}

// KeyFromURL reverses FileURL. It reports false for URLs outside this store.
func (s *Store) KeyFromURL(url string) (string, bool) {
	prefix := strings.TrimSuffix(fileURL(s.cfg, ""), "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (s *Store) HealthCheck(ctx context.Context) error {
	_, err := s.raw.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	return err
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	const op = "storage.s3.EnsureBucket"

	log := s.log.With(slog.String("op", op), slog.String("bucket", s.cfg.Bucket))

	if _, err := s.raw.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)}); err == nil {
		return nil
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(s.cfg.Bucket)}
	if s.cfg.Region != "" && s.cfg.Region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.Region),
		}
	}

	_, err := s.raw.CreateBucket(ctx, in)
	if err == nil {
		log.Info("bucket created")
		return nil
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		code := ae.ErrorCode()
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
	}

	log.Error("failed to create bucket", sl.Err(err))
	return fmt.Errorf("%s: %w", op, err)
}
