package persistent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/thumbgen/thumbnail-pipeline/pkg/s3client"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type ObjectRepo struct {
	*s3client.S3Client
	bucket  string
	baseURL string
}

// NewObjectRepo wraps the S3 client for one bucket. baseURL overrides
// the derived public URL prefix; pass "" to use path-style
// <endpoint>/<bucket>.
func NewObjectRepo(s3c *s3client.S3Client, bucket, baseURL string) *ObjectRepo {
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(s3c.Endpoint(), "/"), bucket)
	}

	return &ObjectRepo{s3c, bucket, strings.TrimSuffix(baseURL, "/")}
}

func (r *ObjectRepo) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          data,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("ObjectRepo - Upload - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *ObjectRepo) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	b := bytes.NewReader(data)

	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          b,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("ObjectRepo - UploadBytes - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *ObjectRepo) Delete(ctx context.Context, key string) error {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ObjectRepo - Delete - r.Client.DeleteObject: %w", err)
	}

	return nil
}

func (r *ObjectRepo) PublicURL(key string) string {
	return r.baseURL + "/" + key
}
