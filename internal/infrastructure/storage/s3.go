// Package storage keeps uploaded flyer images in S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

// Config holds the bucket and endpoint settings. An empty Endpoint uses AWS.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type getPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// FlyerStore implements ports.FlyerStore on S3.
type FlyerStore struct {
	bucket  string
	client  objectPutter
	presign getPresigner
	newKey  func(ext string) string
}

// NewFlyerStore builds an S3 client from static credentials. MinIO and other
// S3-compatible servers are reached through Endpoint with path-style addressing.
func NewFlyerStore(ctx context.Context, cfg Config) (*FlyerStore, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &FlyerStore{
		bucket:  cfg.Bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
		newKey:  flyerKey,
	}, nil
}

// flyerKey returns flyers/<uuid>/<uuid>.<ext>.
func flyerKey(ext string) string {
	return fmt.Sprintf("flyers/%s/%s.%s", uuid.NewString(), uuid.NewString(), ext)
}

func (s *FlyerStore) Put(ctx context.Context, filename, contentType string, size int64, body io.Reader) (string, error) {
	ext, ok := domain.FlyerExtension(filename)
	if !ok {
		return "", fmt.Errorf("%w: unsupported flyer file %q", domain.ErrValidation, filename)
	}

	key := s.newKey(ext)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

func (s *FlyerStore) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
