package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

const gcsPublicBase = "https://storage.googleapis.com"

type GCSStorage struct {
	client  *gcs.Client
	bucket  *gcs.BucketHandle
	name    string
	baseURL string
}

func NewGCSStorage(ctx context.Context, bucket string, cfg *GCSConfig) (*GCSStorage, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	base := gcsPublicBase
	if cfg != nil && cfg.PublicURL != "" {
		base = cfg.PublicURL
	}
	return &GCSStorage{client: client, bucket: client.Bucket(bucket), name: bucket, baseURL: base}, nil
}

// Put writes the object with a DoesNotExist precondition so a fresh key can
// never replace an existing object.
func (s *GCSStorage) Put(ctx context.Context, folder string, data []byte) (Ref, error) {
	key := newKey(folder)
	w := s.bucket.Object(key).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = ContentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return Ref{}, fmt.Errorf("io.Copy to GCS failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return Ref{}, fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
	}
	return Ref{URL: publicURL(s.baseURL, s.name, key), StoreID: key}, nil
}

func (s *GCSStorage) Delete(ctx context.Context, storeID string) error {
	err := s.bucket.Object(storeID).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete %s: %w", storeID, err)
	}
	return nil
}

func (s *GCSStorage) Close() error { return s.client.Close() }

func (s *GCSStorage) KeyFromURL(raw string) (string, error) { return keyFromURL(raw, s.name) }
