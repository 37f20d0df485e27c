package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStorage is a thin wrapper around the minio client used by services.
type MinIOStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinIOStorage creates a new MinIO storage client and ensures the bucket exists.
func NewMinIOStorage(ctx context.Context, bucket string, cfg *MinIOConfig) (*MinIOStorage, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	base := cfg.PublicURL
	if base == "" {
		base = mc.EndpointURL().String()
	}
	s := &MinIOStorage{client: mc, bucket: bucket, baseURL: base}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

func (s *MinIOStorage) Put(ctx context.Context, folder string, data []byte) (Ref, error) {
	key := newKey(folder)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: ContentType})
	if err != nil {
		return Ref{}, fmt.Errorf("minio put %s: %w", key, err)
	}
	return Ref{URL: publicURL(s.baseURL, s.bucket, key), StoreID: key}, nil
}

// Delete removes the object. MinIO reports success for keys that do not exist.
func (s *MinIOStorage) Delete(ctx context.Context, storeID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, storeID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w", storeID, err)
	}
	return nil
}

func (s *MinIOStorage) Close() error { return nil }

func (s *MinIOStorage) KeyFromURL(raw string) (string, error) { return keyFromURL(raw, s.bucket) }
