package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ContentType is stored on every segment object.
const ContentType = "application/pdf"

// Ref is the durable locator the store hands back for an uploaded object.
// StoreID is the opaque key accepted by Delete.
type Ref struct {
	URL     string
	StoreID string
}

// ObjectStore is the blob store that holds document segments. Put writes a new
// object under folder and never overwrites; Delete of an absent object succeeds.
type ObjectStore interface {
	Put(ctx context.Context, folder string, data []byte) (Ref, error)
	Delete(ctx context.Context, storeID string) error
	Close() error
}

// newKey builds "<folder>/<uuid>.pdf". Every call yields a fresh key, so a
// retried upload never clobbers an earlier attempt.
func newKey(folder string) string {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	name := uuid.NewString() + ".pdf"
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

func publicURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, key)
}

// keyFromURL reverses the URLs built by the stores: memory://bucket/key,
// path-style <base>/bucket/key and virtual-hosted https://bucket.<host>/key.
func keyFromURL(raw, bucket string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse segment url: %w", err)
	}
	p := strings.TrimPrefix(u.Path, "/")
	switch {
	case u.Host == bucket:
	case strings.HasPrefix(u.Host, bucket+"."):
	default:
		marker := bucket + "/"
		i := strings.Index("/"+p, "/"+marker)
		if i < 0 {
			return "", fmt.Errorf("url %q is not in bucket %q", raw, bucket)
		}
		p = p[i+len(marker):]
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return "", fmt.Errorf("url %q names no object", raw)
	}
	return p, nil
}
