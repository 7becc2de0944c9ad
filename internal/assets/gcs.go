package assets

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSUploader stores assets in a Cloud Storage bucket under a fixed
// prefix.
type GCSUploader struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSUploader(ctx context.Context, bucket, prefix string) (*GCSUploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket, prefix: prefix}, nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}

func (u *GCSUploader) Upload(ctx context.Context, projectID, filename string, r io.Reader, size int64) (string, error) {
	if err := checkSize(size); err != nil {
		return "", err
	}

	path := objectPath(u.prefix, projectID, filename)
	obj := u.client.Bucket(u.bucket).Object(path)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType(filename)

	if err := copyCapped(w, r, MaxBytes); err != nil {
		_ = w.Close()
		_ = obj.Delete(ctx)
		return "", err
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, path), nil
}
