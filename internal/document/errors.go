package document

import (
	"errors"
	"fmt"
)

// Stable error kinds. Every failure surfaced to a caller carries one of these.
var (
	ErrInvalidDocument    = errors.New("invalid document")
	ErrEmptyDocument      = errors.New("empty document")
	ErrPlanning           = errors.New("planning failed")
	ErrBuild              = errors.New("segment build failed")
	ErrUploadFailed       = errors.New("upload failed")
	ErrPersist            = errors.New("persist failed")
	ErrNotFound           = errors.New("document not found")
	ErrPartialDelete      = errors.New("partial delete failure")
	ErrDuplicateOrInvalid = errors.New("duplicate or invalid document")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidDocument, "InvalidDocument"},
	{ErrEmptyDocument, "EmptyDocument"},
	{ErrPlanning, "PlanningError"},
	{ErrBuild, "BuildError"},
	{ErrUploadFailed, "UploadFailed"},
	{ErrPersist, "PersistError"},
	{ErrNotFound, "NotFound"},
	{ErrPartialDelete, "PartialDeleteFailure"},
	{ErrDuplicateOrInvalid, "DuplicateOrInvalid"},
}

// KindOf returns the stable kind name of err, or "Internal" when err does not
// wrap one of the package sentinels.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDuplicateOrInvalid, fmt.Sprintf(format, args...))
}

// PartialDeleteError lists the segments whose remote copies could not be removed.
// The document record is retained whenever this error is returned.
type PartialDeleteError struct {
	DocumentID string
	Failed     []SegmentFailure
	Total      int
}

// SegmentFailure pairs a segment index with the error from the object store.
type SegmentFailure struct {
	Index   int    `json:"index"`
	StoreID string `json:"storeId"`
	Err     error  `json:"-"`
}

func (e *PartialDeleteError) Error() string {
	msg := fmt.Sprintf("%d of %d segments of document %s could not be removed", len(e.Failed), e.Total, e.DocumentID)
	if len(e.Failed) > 0 && e.Failed[0].Err != nil {
		msg += fmt.Sprintf(" (segment %d: %v)", e.Failed[0].Index, e.Failed[0].Err)
	}
	return msg
}

func (e *PartialDeleteError) Unwrap() error { return ErrPartialDelete }
