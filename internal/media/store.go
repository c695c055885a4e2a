// Package media wraps the S3-compatible object store that holds uploaded
// movie images.  An upload yields a public URL plus the object key, which
// doubles as the deletable handle; deletion is explicit and must be
// requested whenever an image is removed or its movie is deleted.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store is the surface handlers depend on; tests substitute an in-memory
// implementation.
type Store interface {
	Upload(ctx context.Context, originalName string, r io.Reader, size int64, contentType string) (url, filename string, err error)
	Delete(ctx context.Context, filename string) error
}

// MinioStore implements Store against MinIO/S3 compatible storage.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects to the object store and ensures the bucket
// exists.  publicURL is the base under which uploaded objects are served,
// e.g. "https://media.example.com".
func NewMinioStore(endpoint, accessKey, secretKey, bucket, publicURL string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init media client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload stores one image under a fresh key and returns its public URL and
// the key.  The original filename only contributes its extension; the key
// itself is random so uploads can never collide or be guessed.
func (m *MinioStore) Upload(ctx context.Context, originalName string, r io.Reader, size int64, contentType string) (string, string, error) {
	filename := uuid.NewString() + strings.ToLower(path.Ext(originalName))
	_, err := m.client.PutObject(ctx, m.bucket, filename, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", "", fmt.Errorf("put object: %w", err)
	}
	return m.publicURL + "/" + m.bucket + "/" + filename, filename, nil
}

// Delete removes an uploaded object by its handle.
func (m *MinioStore) Delete(ctx context.Context, filename string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, filename, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
