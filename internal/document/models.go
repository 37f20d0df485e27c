package document

import (
	"strings"
	"time"
)

// SegmentRef locates one uploaded segment of a document in the object store.
// FirstPage and LastPage are 1-based and inclusive.
type SegmentRef struct {
	URL       string `json:"url" bson:"url" firestore:"url"`
	StoreID   string `json:"storeId,omitempty" bson:"storeId,omitempty" firestore:"storeId,omitempty"`
	FirstPage int    `json:"firstPage" bson:"firstPage" firestore:"firstPage"`
	LastPage  int    `json:"lastPage" bson:"lastPage" firestore:"lastPage"`
	Size      int64  `json:"size" bson:"size" firestore:"size"`
}

// Document is the persisted record for one ingested PDF. Segments are kept in
// original page order; concatenating them reproduces the source document.
type Document struct {
	ID        string       `json:"id" bson:"id" firestore:"id"`
	Title     string       `json:"title" bson:"title" firestore:"title"`
	PageCount *int         `json:"pageCount,omitempty" bson:"pageCount,omitempty" firestore:"pageCount,omitempty"`
	Segments  []SegmentRef `json:"segments" bson:"segments" firestore:"segments"`
	Owner     string       `json:"owner" bson:"owner" firestore:"owner"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updatedAt" firestore:"updatedAt"`
}

// URLs returns the segment locations in page order.
func (d *Document) URLs() []string {
	out := make([]string, 0, len(d.Segments))
	for _, s := range d.Segments {
		out = append(out, s.URL)
	}
	return out
}

// Patch is a partial metadata update. Nil fields are left untouched; the
// segment list cannot be changed through a patch.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	PageCount *int    `json:"pageCount,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.PageCount == nil
}

// Validate checks the fields required on every stored record.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return invalidf("title is required")
	}
	if d.Owner == "" {
		return invalidf("owner is required")
	}
	if d.PageCount != nil && *d.PageCount < 0 {
		return invalidf("pageCount must not be negative")
	}
	if len(d.Segments) == 0 {
		return invalidf("at least one segment is required")
	}
	for i, s := range d.Segments {
		if s.URL == "" {
			return invalidf("segment %d has no url", i)
		}
	}
	return nil
}

// Normalize returns p with the title trimmed.
func (p Patch) Normalize() Patch {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}
	return p
}

// Validate checks the values a patch would write. A title made only of
// whitespace counts as empty.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return invalidf("title must not be empty")
	}
	if p.PageCount != nil && *p.PageCount < 0 {
		return invalidf("pageCount must not be negative")
	}
	return nil
}

// Apply writes the patch onto d and bumps UpdatedAt.
func (p Patch) Apply(d *Document, now time.Time) {
	if p.Title != nil {
		d.Title = strings.TrimSpace(*p.Title)
	}
	if p.PageCount != nil {
		pc := *p.PageCount
		d.PageCount = &pc
	}
	d.UpdatedAt = now
}
