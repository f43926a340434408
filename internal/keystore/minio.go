package keystore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
func (w minioClientWrapper) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return w.c.StatObject(ctx, bucketName, objectName, opts)
}

var _ model.KeyRing = (*MinioRing)(nil)

// MinioRing persists the key ring as a single JSON object in a bucket, for
// deployments that keep secrets in object storage rather than on disk.
type MinioRing struct {
	api    minioAPI
	bucket string
	object string
}

// NewMinioRing creates a minio-backed key ring using a real *minio.Client.
func NewMinioRing(ctx context.Context, client *minio.Client, bucket, object string) (*MinioRing, error) {
	return NewMinioRingWithAPI(ctx, minioClientWrapper{c: client}, bucket, object)
}

// NewMinioRingWithAPI allows injecting a mockable API (used in tests).
func NewMinioRingWithAPI(ctx context.Context, api minioAPI, bucket, object string) (*MinioRing, error) {
	r := &MinioRing{api: api, bucket: bucket, object: object}

	if err := r.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}
	return r, nil
}

func (r *MinioRing) ensureBucketExists(ctx context.Context) error {
	exists, err := r.api.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := r.api.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (r *MinioRing) Load(ctx context.Context) ([]model.KeyEntry, error) {
	if _, err := r.api.StatObject(ctx, r.bucket, r.object, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat key object: %w", err)
	}

	obj, err := r.api.GetObject(ctx, r.bucket, r.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get key object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read key object: %w", err)
	}

	var entries []model.KeyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse key object: %w", err)
	}
	return entries, nil
}

func (r *MinioRing) Save(ctx context.Context, entries []model.KeyEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal key ring: %w", err)
	}

	_, err = r.api.PutObject(ctx, r.bucket, r.object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put key object: %w", err)
	}
	return nil
}
