package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/International-Combat-Archery-Alliance/retailer-registration/wizard"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ Store = &S3Store{}

type S3Store struct {
	client  s3Client
	bucket  string
	prefix  string
	timeout time.Duration
}

func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		timeout: 30 * time.Second,
	}
}

func (s *S3Store) Upload(ctx context.Context, file wizard.File) (wizard.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := objectKey(s.prefix, file.Name)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file.Content,
		Metadata: map[string]string{
			"original-name": file.Name,
		},
	}
	if file.ContentType != "" {
		input.ContentType = aws.String(file.ContentType)
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return wizard.Document{}, fmt.Errorf("upload of %q timed out: %w", file.Name, err)
		}
		return wizard.Document{}, fmt.Errorf("failed to put object %q: %w", key, err)
	}

	return wizard.Document{
		Name:        file.Name,
		Size:        file.Size,
		ContentType: file.ContentType,
		Key:         key,
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}

	return nil
}
