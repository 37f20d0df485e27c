package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gogotex/pdfstore/internal/document"
)

// PageSource is a document that can write a sub-document for a page range.
type PageSource interface {
	PageCount() int
	Extract(r Range, w io.Writer) error
}

// Segment is one built sub-document.
type Segment struct {
	Range Range
	Data  []byte
}

// Size returns the serialized size in bytes.
func (s Segment) Size() int64 { return int64(len(s.Data)) }

// OverBudget reports whether the segment exceeds limit. Only single-page
// segments can do so after an adaptive build.
func (s Segment) OverBudget(limit int64) bool { return s.Size() > limit }

// Builder materializes planned ranges. With Adaptive set, a multi-page segment
// whose real size exceeds Limit is shrunk one page at a time until it fits;
// the pages cut off are carried into a new range placed directly after it.
type Builder struct {
	Limit    int64
	Adaptive bool
}

// Build returns one segment per range in page order. The result covers the
// same pages as plan, possibly in more segments when ranges were shrunk.
func (b *Builder) Build(ctx context.Context, src PageSource, plan Plan) ([]Segment, error) {
	if err := checkCoverage(plan, src.PageCount()); err != nil {
		return nil, err
	}

	pending := append([]Range(nil), plan.Ranges...)
	segments := make([]Segment, 0, len(pending))
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := pending[0]
		pending = pending[1:]

		data, err := b.extract(src, r)
		if err != nil {
			return nil, err
		}
		if b.Adaptive && b.Limit > 0 {
			end := r.End
			for int64(len(data)) > b.Limit && r.Pages() > 1 {
				r.End--
				if data, err = b.extract(src, r); err != nil {
					return nil, err
				}
			}
			if r.End < end {
				pending = append([]Range{{Start: r.End, End: end}}, pending...)
			}
		}
		segments = append(segments, Segment{Range: r, Data: data})
	}
	return segments, nil
}

func (b *Builder) extract(src PageSource, r Range) ([]byte, error) {
	var buf bytes.Buffer
	if err := src.Extract(r, &buf); err != nil {
		return nil, fmt.Errorf("%w: pages %s: %v", document.ErrBuild, r, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: pages %s produced no output", document.ErrBuild, r)
	}
	return buf.Bytes(), nil
}

func checkCoverage(plan Plan, pages int) error {
	next := 0
	for _, r := range plan.Ranges {
		if r.Start != next || r.End <= r.Start {
			return fmt.Errorf("%w: range %s does not continue at page %d", document.ErrPlanning, r, next+1)
		}
		next = r.End
	}
	if next != pages {
		return fmt.Errorf("%w: plan covers %d of %d pages", document.ErrPlanning, next, pages)
	}
	return nil
}
