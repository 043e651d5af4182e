// Package storage keeps a copy of every accepted site archive in an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"sriox/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	awsmiddleware "github.com/aws/smithy-go/middleware"
)

type ArchiveStore interface {
	PutArchive(ctx context.Context, subdomain string, body io.Reader, size int64) error
	DeleteArchive(ctx context.Context, subdomain string) error
}

// ArchiveKey is the object key for a site's most recent upload.
func ArchiveKey(subdomain string) string {
	return "sites/" + subdomain + ".zip"
}

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Archives struct {
	client ObjectAPI
	bucket string
}

func NewS3Archives(client ObjectAPI, bucket string) *S3Archives {
	return &S3Archives{client: client, bucket: bucket}
}

func (s *S3Archives) PutArchive(ctx context.Context, subdomain string, body io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(ArchiveKey(subdomain)),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/zip"),
	})
	if err != nil {
		return fmt.Errorf("failed to store archive for %s: %w", subdomain, err)
	}
	return nil
}

func (s *S3Archives) DeleteArchive(ctx context.Context, subdomain string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ArchiveKey(subdomain)),
	})
	var nsk *types.NoSuchKey
	if err != nil && !errors.As(err, &nsk) {
		return fmt.Errorf("failed to delete archive for %s: %w", subdomain, err)
	}
	return nil
}

// Nop is used when no bucket is configured.
type Nop struct{}

func (Nop) PutArchive(ctx context.Context, subdomain string, body io.Reader, size int64) error {
	return nil
}

func (Nop) DeleteArchive(ctx context.Context, subdomain string) error { return nil }

// NewS3Client builds a path-style client for the configured endpoint.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}
	return s3.NewFromConfig(s3Config, func(o *s3.Options) {
		if cfg.S3URL != "" {
			o.BaseEndpoint = aws.String(cfg.S3URL)
		}
		o.UsePathStyle = true
	}), nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
