package pdf

import (
	"fmt"

	"github.com/gogotex/pdfstore/internal/document"
)

// Sizer is a document that can report its page count and whole-file size.
type Sizer interface {
	PageCount() int
	SerializedSize() (int64, error)
}

// EstimatePageSize returns the average bytes per page of the document
// serialized once. Shared resources such as fonts make per-page costs
// unknowable without serializing, so this is an approximation; segment sizes
// are re-checked by the Builder.
func EstimatePageSize(doc Sizer) (float64, error) {
	pages := doc.PageCount()
	if pages <= 0 {
		return 0, fmt.Errorf("%w: document has no pages", document.ErrEmptyDocument)
	}
	size, err := doc.SerializedSize()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", document.ErrPlanning, err)
	}
	if size <= 0 {
		return 0, fmt.Errorf("%w: serialized size is %d bytes", document.ErrPlanning, size)
	}
	return float64(size) / float64(pages), nil
}
