package pdf

import (
	"fmt"
	"math"

	"github.com/gogotex/pdfstore/internal/document"
)

// Default segment sizing. The budget sits under the common 10MB per-object
// request limit of hosted stores.
const (
	DefaultBudgetBytes  int64   = 9.5 * 1024 * 1024
	DefaultSafetyMargin float64 = 0.9
)

// Budget caps the serialized size of one segment. Margin scales the budget
// when planning so that estimate error rarely pushes a segment over Bytes.
type Budget struct {
	Bytes  int64
	Margin float64
}

// DefaultBudget returns the 9.5 MiB / 0.9 sizing.
func DefaultBudget() Budget {
	return Budget{Bytes: DefaultBudgetBytes, Margin: DefaultSafetyMargin}
}

func (b Budget) validate() error {
	if b.Bytes <= 0 {
		return fmt.Errorf("%w: budget must be positive, got %d", document.ErrPlanning, b.Bytes)
	}
	if !(b.Margin > 0 && b.Margin <= 1) {
		return fmt.Errorf("%w: safety margin must be in (0,1], got %v", document.ErrPlanning, b.Margin)
	}
	return nil
}

// Range is the zero-based, half-open page range [Start, End).
type Range struct {
	Start int
	End   int
}

// Pages returns the number of pages in the range.
func (r Range) Pages() int { return r.End - r.Start }

// FirstPage and LastPage are the 1-based inclusive bounds.
func (r Range) FirstPage() int { return r.Start + 1 }
func (r Range) LastPage() int  { return r.End }

// String formats the range as a 1-based page selection, e.g. "1-17".
func (r Range) String() string {
	if r.Pages() == 1 {
		return fmt.Sprintf("%d", r.FirstPage())
	}
	return fmt.Sprintf("%d-%d", r.FirstPage(), r.LastPage())
}

// Plan is the ordered segmentation of a document.
type Plan struct {
	TotalPages      int
	AvgPageSize     float64
	PagesPerSegment int
	Ranges          []Range
}

// PlanSegments splits totalPages into contiguous ranges of
// max(1, floor(budget*margin/avgPageSize)) pages, the last one truncated.
// The ranges cover [0, totalPages) exactly once.
func PlanSegments(totalPages int, avgPageSize float64, b Budget) (Plan, error) {
	if totalPages <= 0 {
		return Plan{}, fmt.Errorf("%w: document has no pages", document.ErrEmptyDocument)
	}
	if math.IsNaN(avgPageSize) || math.IsInf(avgPageSize, 0) || avgPageSize <= 0 {
		return Plan{}, fmt.Errorf("%w: average page size must be positive, got %v", document.ErrPlanning, avgPageSize)
	}
	if err := b.validate(); err != nil {
		return Plan{}, err
	}

	per := math.Floor(float64(b.Bytes) * b.Margin / avgPageSize)
	pps := totalPages
	if per < float64(totalPages) {
		pps = max(1, int(per))
	}

	ranges := make([]Range, 0, (totalPages+pps-1)/pps)
	for start := 0; start < totalPages; start += pps {
		ranges = append(ranges, Range{Start: start, End: min(start+pps, totalPages)})
	}
	return Plan{
		TotalPages:      totalPages,
		AvgPageSize:     avgPageSize,
		PagesPerSegment: pps,
		Ranges:          ranges,
	}, nil
}
