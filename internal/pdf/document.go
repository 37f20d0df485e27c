// Package pdf parses source documents and cuts them into size-bounded segments.
package pdf

import (
	"fmt"
	"io"

	"github.com/gogotex/pdfstore/internal/document"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// keep pdfcpu from creating a config dir under $HOME
	api.DisableConfigDir()
}

func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Document is a parsed and validated source PDF. It reads from the
// ReadSeeker it was loaded from, so it is not safe for concurrent use.
type Document struct {
	src   io.ReadSeeker
	ctx   *model.Context
	pages int
}

// Load parses and validates the PDF in rs. Parse or validation failures are
// reported as document.ErrInvalidDocument; a PDF without pages loads fine and
// is rejected later by EstimatePageSize.
func Load(rs io.ReadSeeker) (*Document, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrInvalidDocument, err)
	}
	ctx, err := api.ReadContext(rs, newConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrInvalidDocument, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", document.ErrInvalidDocument, err)
	}
	return &Document{src: rs, ctx: ctx, pages: ctx.PageCount}, nil
}

// PageCount returns the number of pages in the source.
func (d *Document) PageCount() int { return d.pages }

// SerializedSize writes the whole document once and returns the byte count.
func (d *Document) SerializedSize() (int64, error) {
	var cw countingWriter
	if err := api.WriteContext(d.ctx, &cw); err != nil {
		return 0, fmt.Errorf("serialize document: %w", err)
	}
	return cw.n, nil
}

// Extract writes a new PDF holding only the pages of r, in source order.
func (d *Document) Extract(r Range, w io.Writer) error {
	if r.Start < 0 || r.End > d.pages || r.Start >= r.End {
		return fmt.Errorf("page range %s outside 1-%d", r, d.pages)
	}
	if _, err := d.src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return api.Trim(d.src, w, []string{r.String()}, newConfig())
}

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
