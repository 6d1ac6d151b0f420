package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/crashdesk/ondemand/internal/port/outbound"
)

// ReportStorageAdapter implements outbound.StoragePort for report blobs.
type ReportStorageAdapter struct {
	client *s3.Client
	bucket string
}

// NewReportStorageAdapter creates a new report storage adapter.
func NewReportStorageAdapter(client *s3.Client, bucket string) *ReportStorageAdapter {
	return &ReportStorageAdapter{
		client: client,
		bucket: bucket,
	}
}

// Put uploads an object.
func (a *ReportStorageAdapter) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   reader,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Get downloads an object. The caller closes the returned reader.
func (a *ReportStorageAdapter) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, outbound.ErrObjectNotFound
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return result.Body, nil
}

// Delete removes an object. Missing objects are not an error.
func (a *ReportStorageAdapter) Delete(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Compile-time check
var _ outbound.StoragePort = (*ReportStorageAdapter)(nil)
