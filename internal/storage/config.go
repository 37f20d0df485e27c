package storage

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted in STORAGE_BACKEND.
const (
	BackendMinIO  = "minio"
	BackendS3     = "s3"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Config selects and configures the object store backend.
type Config struct {
	Backend string
	Bucket  string
	MinIO   MinIOConfig
	S3      S3Config
	GCS     GCSConfig
}

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PublicURL string
}

// S3Config holds AWS S3 settings. Endpoint is only set for S3-compatible stores.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// GCSConfig holds Google Cloud Storage settings. Credentials come from the
// environment (ADC) like every other Google client.
type GCSConfig struct {
	PublicURL string
}

// Open builds the configured backend. The caller owns the returned store and
// must Close it on shutdown.
func Open(ctx context.Context, cfg Config) (ObjectStore, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend != BackendMemory && cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket not set")
	}
	switch backend {
	case BackendMinIO, "":
		return NewMinIOStorage(ctx, cfg.Bucket, &cfg.MinIO)
	case BackendS3:
		return NewS3Storage(ctx, cfg.Bucket, &cfg.S3)
	case BackendGCS:
		return NewGCSStorage(ctx, cfg.Bucket, &cfg.GCS)
	case BackendMemory:
		return NewMemoryStorage(cfg.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
