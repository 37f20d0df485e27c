package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps objects in a map. Used for local runs and tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
}

func NewMemoryStorage(bucket string) *MemoryStorage {
	if bucket == "" {
		bucket = "local"
	}
	return &MemoryStorage{bucket: bucket, objects: map[string][]byte{}}
}

func (s *MemoryStorage) Put(ctx context.Context, folder string, data []byte) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return Ref{}, err
	}
	key := newKey(folder)
	buf := append([]byte(nil), data...)
	s.mu.Lock()
	s.objects[key] = buf
	s.mu.Unlock()
	return Ref{URL: "memory://" + s.bucket + "/" + key, StoreID: key}, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, storeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, storeID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Close() error { return nil }

// Object returns a stored object and whether it exists.
func (s *MemoryStorage) Object(storeID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[storeID]
	return b, ok
}

// Len reports how many objects are stored.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// KeyFromURL maps a segment URL issued by this store back to its key.
func (s *MemoryStorage) KeyFromURL(raw string) (string, error) { return keyFromURL(raw, s.bucket) }
