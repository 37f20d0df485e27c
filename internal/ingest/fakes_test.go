package ingest

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/gogotex/pdfstore/internal/pdf/pdftest"
	"github.com/gogotex/pdfstore/internal/storage"
)

// flakyStore wraps the memory store and fails or delays Put for payloads
// containing a given page marker.
type flakyStore struct {
	*storage.MemoryStorage

	mu       sync.Mutex
	puts     map[int]int // page marker -> attempts
	failPage int
	failFor  int // number of failing attempts, -1 = always
	failErr  error
	slowPage int
	block    bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStorage: storage.NewMemoryStorage("test"), puts: map[int]int{}}
}

func firstMarker(data []byte) int {
	for p := 1; p <= 1000; p++ {
		if bytes.Contains(data, []byte(pdftest.Marker(p))) {
			return p
		}
	}
	return 0
}

func (s *flakyStore) Put(ctx context.Context, folder string, data []byte) (storage.Ref, error) {
	page := firstMarker(data)
	s.mu.Lock()
	s.puts[page]++
	n := s.puts[page]
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return storage.Ref{}, ctx.Err()
	}
	if page == s.slowPage && s.slowPage != 0 {
		time.Sleep(30 * time.Millisecond)
	}
	if page == s.failPage && s.failPage != 0 && (s.failFor < 0 || n <= s.failFor) {
		return storage.Ref{}, s.failErr
	}
	return s.MemoryStorage.Put(ctx, folder, data)
}

func (s *flakyStore) attempts(page int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[page]
}

func (s *flakyStore) totalAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.puts {
		n += v
	}
	return n
}

// recordingSleeper returns immediately and records the requested delays.
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleeper) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}
