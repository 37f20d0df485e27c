package service

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gogotex/pdfstore/internal/document"
	"github.com/gogotex/pdfstore/internal/document/repository"
	"github.com/gogotex/pdfstore/pkg/logger"
	"github.com/gogotex/pdfstore/pkg/metrics"
)

// Service defines the document registry operations used by the handler layer.
type Service interface {
	List(ctx context.Context) ([]*document.Document, error)
	Search(ctx context.Context, keyword string) ([]*document.Document, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	Create(ctx context.Context, d *document.Document) error
	Update(ctx context.Context, id string, p document.Patch) (*document.Document, error)
	Delete(ctx context.Context, id string) error
}

// SegmentDeleter removes one stored segment. Deleting an absent object succeeds.
type SegmentDeleter interface {
	Delete(ctx context.Context, storeID string) error
}

// KeyResolver is implemented by segment stores that can map a segment URL
// back to the key Delete expects.
type KeyResolver interface {
	KeyFromURL(url string) (string, error)
}

// Options tune the registry.
type Options struct {
	// DeleteTimeout bounds each remote segment delete. Zero means no bound.
	DeleteTimeout time.Duration
}

// New returns a Service over repo whose Delete also removes the stored segments.
func New(repo repository.Repository, segments SegmentDeleter, opts Options) Service {
	return &registry{repo: repo, segments: segments, opts: opts, log: logger.With("component", "registry")}
}

type registry struct {
	repo     repository.Repository
	segments SegmentDeleter
	opts     Options
	log      *slog.Logger
}

func (r *registry) List(ctx context.Context) ([]*document.Document, error) {
	return r.repo.List(ctx, "")
}

func (r *registry) Search(ctx context.Context, keyword string) ([]*document.Document, error) {
	return r.repo.List(ctx, strings.TrimSpace(keyword))
}

func (r *registry) Get(ctx context.Context, id string) (*document.Document, error) {
	return r.repo.Get(ctx, id)
}

func (r *registry) Create(ctx context.Context, d *document.Document) error {
	return r.repo.Create(ctx, d)
}

func (r *registry) Update(ctx context.Context, id string, p document.Patch) (*document.Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Empty() {
		return r.repo.Get(ctx, id)
	}
	return r.repo.Update(ctx, id, p.Normalize())
}

// Delete removes every stored segment of the document and then the record.
// All segments are attempted; if any fails the record is kept and a
// *document.PartialDeleteError lists the failures, so a repeated Delete
// retries the whole set.
func (r *registry) Delete(ctx context.Context, id string) error {
	d, err := r.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	log := r.log.With("documentId", id)

	var failed []document.SegmentFailure
	for i, seg := range d.Segments {
		storeID := seg.StoreID
		if storeID == "" {
			storeID = r.storeIDFromURL(seg.URL)
			if storeID == "" {
				log.Warn("segment has no store id, skipping remote delete", "segment", i, "url", seg.URL)
				continue
			}
			log.Info("derived store id from segment url", "segment", i, "storeId", storeID)
		}
		err := r.deleteSegment(ctx, storeID)
		metrics.ObserveDelete(err)
		if err != nil {
			log.Error("segment delete failed", "segment", i, "storeId", storeID, "error", err)
			failed = append(failed, document.SegmentFailure{Index: i, StoreID: storeID, Err: err})
		}
	}
	if len(failed) > 0 {
		return &document.PartialDeleteError{DocumentID: id, Failed: failed, Total: len(d.Segments)}
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info("document deleted", "segments", len(d.Segments))
	return nil
}

// storeIDFromURL recovers the key of a segment recorded without one. Stores
// that know their URL layout resolve it; otherwise the last path segment
// without its extension is used.
func (r *registry) storeIDFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	if kr, ok := r.segments.(KeyResolver); ok {
		key, err := kr.KeyFromURL(raw)
		if err != nil {
			r.log.Warn("cannot resolve segment url", "url", raw, "error", err)
			return ""
		}
		return key
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

func (r *registry) deleteSegment(ctx context.Context, storeID string) error {
	if r.opts.DeleteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.DeleteTimeout)
		defer cancel()
	}
	return r.segments.Delete(ctx, storeID)
}
