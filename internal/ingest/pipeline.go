// Package ingest turns an uploaded PDF into stored segments and one registry
// record.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gogotex/pdfstore/internal/document"
	"github.com/gogotex/pdfstore/internal/pdf"
	"github.com/gogotex/pdfstore/internal/storage"
	"github.com/gogotex/pdfstore/pkg/logger"
	"github.com/gogotex/pdfstore/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Stage is a pipeline state.
type Stage string

const (
	StagePlanning   Stage = "Planning"
	StageBuilding   Stage = "Building"
	StageUploading  Stage = "Uploading"
	StagePersisting Stage = "Persisting"
	StageDone       Stage = "Done"
)

// StageError is the Failed(stage, cause) outcome of a run. Segment is the
// zero-based index of the failing segment, or -1.
type StageError struct {
	Stage   Stage
	Segment int
	Total   int
	Err     error
}

func (e *StageError) Error() string {
	if e.Segment >= 0 {
		return fmt.Sprintf("%s failed at segment %d of %d: %v", e.Stage, e.Segment+1, e.Total, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Creator persists a new record.
type Creator interface {
	Create(ctx context.Context, d *document.Document) error
}

// Config controls segmentation and upload fan-out.
type Config struct {
	Budget      pdf.Budget
	Adaptive    bool
	Concurrency int
	Folder      string
	TempDir     string
}

// Request is one upload to ingest.
type Request struct {
	Title     string
	Owner     string
	PageCount *int
	Body      io.Reader
}

// Pipeline runs Planning, Building, Uploading and Persisting once per
// request. It keeps no state between runs.
type Pipeline struct {
	cfg      Config
	uploader *Uploader
	registry Creator
	log      *slog.Logger

	// OnStage, when set, is called on entering each stage.
	OnStage func(Stage)
}

func NewPipeline(cfg Config, uploader *Uploader, registry Creator) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Budget == (pdf.Budget{}) {
		cfg.Budget = pdf.DefaultBudget()
	}
	return &Pipeline{cfg: cfg, uploader: uploader, registry: registry, log: logger.With("component", "ingest")}
}

func (p *Pipeline) enter(s Stage) {
	if p.OnStage != nil {
		p.OnStage(s)
	}
}

func (p *Pipeline) fail(log *slog.Logger, stage Stage, segment, total int, err error) error {
	metrics.Ingestions.WithLabelValues("failed").Inc()
	metrics.StageFailures.WithLabelValues(string(stage)).Inc()
	log.Error("ingestion failed", "stage", stage, "segment", segment, "kind", document.KindOf(err), "error", err)
	return &StageError{Stage: stage, Segment: segment, Total: total, Err: err}
}

// Run ingests req and returns the stored record. The uploaded bytes are
// spooled to a private temp directory that is removed before Run returns.
func (p *Pipeline) Run(ctx context.Context, req Request) (*document.Document, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", document.ErrDuplicateOrInvalid)
	}
	if req.Owner == "" {
		return nil, fmt.Errorf("%w: owner is required", document.ErrDuplicateOrInvalid)
	}
	if req.PageCount != nil && *req.PageCount < 0 {
		return nil, fmt.Errorf("%w: pageCount must not be negative", document.ErrDuplicateOrInvalid)
	}

	id := uuid.NewString()
	log := p.log.With("documentId", id, "owner", req.Owner)

	dir, err := os.MkdirTemp(p.cfg.TempDir, "pdfstore-ingest-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	src, err := spool(filepath.Join(dir, "source.pdf"), req.Body)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	// Planning
	p.enter(StagePlanning)
	doc, err := pdf.Load(src)
	if err != nil {
		return nil, p.fail(log, StagePlanning, -1, 0, err)
	}
	avg, err := pdf.EstimatePageSize(doc)
	if err != nil {
		return nil, p.fail(log, StagePlanning, -1, 0, err)
	}
	plan, err := pdf.PlanSegments(doc.PageCount(), avg, p.cfg.Budget)
	if err != nil {
		return nil, p.fail(log, StagePlanning, -1, 0, err)
	}
	log.Info("segment plan ready", "pages", plan.TotalPages, "avgPageBytes", int64(avg), "pagesPerSegment", plan.PagesPerSegment, "segments", len(plan.Ranges))

	// Building
	p.enter(StageBuilding)
	builder := &pdf.Builder{Limit: p.cfg.Budget.Bytes, Adaptive: p.cfg.Adaptive}
	segments, err := builder.Build(ctx, doc, plan)
	if err != nil {
		return nil, p.fail(log, StageBuilding, -1, len(plan.Ranges), err)
	}
	for i, s := range segments {
		metrics.SegmentBytes.Observe(float64(s.Size()))
		if s.OverBudget(p.cfg.Budget.Bytes) {
			log.Warn("segment exceeds budget", "segment", i, "pages", s.Range.String(), "bytes", s.Size(), "budget", p.cfg.Budget.Bytes)
		}
	}

	// Uploading
	p.enter(StageUploading)
	refs, err := p.uploadAll(ctx, path.Join(p.cfg.Folder, id), segments)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			return nil, p.fail(log.With("orphanedStoreIds", storeIDs(refs)), StageUploading, se.Segment, len(segments), se.Err)
		}
		return nil, p.fail(log, StageUploading, -1, len(segments), err)
	}

	// Persisting
	p.enter(StagePersisting)
	pageCount := doc.PageCount()
	if req.PageCount != nil {
		pageCount = *req.PageCount
	}
	rec := &document.Document{
		ID:        id,
		Title:     title,
		PageCount: &pageCount,
		Segments:  make([]document.SegmentRef, len(segments)),
		Owner:     req.Owner,
	}
	for i, s := range segments {
		rec.Segments[i] = document.SegmentRef{
			URL:       refs[i].URL,
			StoreID:   refs[i].StoreID,
			FirstPage: s.Range.FirstPage(),
			LastPage:  s.Range.LastPage(),
			Size:      s.Size(),
		}
	}
	if err := p.registry.Create(ctx, rec); err != nil {
		return nil, p.fail(log.With("orphanedStoreIds", storeIDs(refs)), StagePersisting, -1, len(segments), fmt.Errorf("%w: %w", document.ErrPersist, err))
	}

	p.enter(StageDone)
	metrics.Ingestions.WithLabelValues("done").Inc()
	log.Info("ingestion done", "segments", len(rec.Segments), "pages", pageCount)
	return rec, nil
}

// uploadAll uploads every segment with at most cfg.Concurrency in flight.
// refs[i] always belongs to segments[i]; entries of segments that did not
// upload are left zero.
func (p *Pipeline) uploadAll(ctx context.Context, folder string, segments []pdf.Segment) ([]storage.Ref, error) {
	refs := make([]storage.Ref, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, seg := range segments {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			ref, err := p.uploader.Upload(gctx, folder, seg.Data)
			if err != nil {
				return &StageError{Stage: StageUploading, Segment: i, Total: len(segments), Err: err}
			}
			metrics.SegmentsUploaded.Inc()
			refs[i] = ref
			return nil
		})
	}
	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return refs, err
}

func spool(name string, body io.Reader) (*os.File, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: no file", document.ErrInvalidDocument)
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return nil, fmt.Errorf("spool upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func storeIDs(refs []storage.Ref) []string {
	var out []string
	for _, r := range refs {
		if r.StoreID != "" {
			out = append(out, r.StoreID)
		}
	}
	return out
}
