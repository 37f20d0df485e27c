package repository

import (
	"context"
	"strings"

	"github.com/gogotex/pdfstore/internal/document"
)

// ErrNotFound is returned by every backend when the id is unknown.
var ErrNotFound = document.ErrNotFound

// Repository is the metadata store for document records. Implementations
// return documents newest first from List and treat an empty keyword as "all".
type Repository interface {
	Create(ctx context.Context, d *document.Document) error
	Get(ctx context.Context, id string) (*document.Document, error)
	List(ctx context.Context, keyword string) ([]*document.Document, error)
	Update(ctx context.Context, id string, p document.Patch) (*document.Document, error)
	Delete(ctx context.Context, id string) error
}

// titleMatches is the case-insensitive substring filter shared by the
// backends that cannot push the filter down to the store.
func titleMatches(title, keyword string) bool {
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(keyword))
}
