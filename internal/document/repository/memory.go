package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gogotex/pdfstore/internal/document"
	"github.com/google/uuid"
)

// MemoryRepo keeps records in process memory. It backs local runs and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*entry
	seq   uint64
	now   func() time.Time
}

type entry struct {
	doc *document.Document
	seq uint64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*entry), now: time.Now}
}

// WithClock replaces the timestamp source.
func (m *MemoryRepo) WithClock(now func() time.Time) *MemoryRepo {
	m.now = now
	return m
}

func (m *MemoryRepo) Create(_ context.Context, doc *document.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", document.ErrDuplicateOrInvalid)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, ok := m.store[doc.ID]; ok {
		return fmt.Errorf("%w: id %s already exists", document.ErrDuplicateOrInvalid, doc.ID)
	}
	doc.CreatedAt = m.now().UTC()
	doc.UpdatedAt = doc.CreatedAt
	m.seq++
	m.store[doc.ID] = &entry{doc: clone(doc), seq: m.seq}
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.store[id]; ok {
		return clone(e.doc), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(_ context.Context, keyword string) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]*entry, 0, len(m.store))
	for _, e := range m.store {
		if titleMatches(e.doc.Title, keyword) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.doc.CreatedAt.Equal(b.doc.CreatedAt) {
			return a.doc.CreatedAt.After(b.doc.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*document.Document, 0, len(entries))
	for _, e := range entries {
		out = append(out, clone(e.doc))
	}
	return out, nil
}

func (m *MemoryRepo) Update(_ context.Context, id string, p document.Patch) (*document.Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.Normalize()
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Apply(e.doc, m.now().UTC())
	return clone(e.doc), nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func clone(d *document.Document) *document.Document {
	c := *d
	c.Segments = append([]document.SegmentRef(nil), d.Segments...)
	if d.PageCount != nil {
		pc := *d.PageCount
		c.PageCount = &pc
	}
	return &c
}
