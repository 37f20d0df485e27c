package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/pdfstore/internal/document"
	"github.com/gogotex/pdfstore/internal/document/service"
	"github.com/gogotex/pdfstore/internal/ingest"
	"github.com/gogotex/pdfstore/pkg/logger"
	"github.com/gogotex/pdfstore/pkg/middleware"
)

// Ingester runs the upload pipeline.
type Ingester interface {
	Run(ctx context.Context, req ingest.Request) (*document.Document, error)
}

// Handler exposes the document registry and ingestion over HTTP.
type Handler struct {
	svc       service.Service
	ingest    Ingester
	maxUpload int64
}

func New(svc service.Service, ing Ingester, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, ingest: ing, maxUpload: maxUploadBytes}
}

// RegisterDocumentRoutes mounts /api/documents and the legacy /api/pdf aliases.
// auth guards the mutating routes; when nil those routes answer 503.
func RegisterDocumentRoutes(r gin.IRouter, h *Handler, auth gin.HandlerFunc) {
	if auth == nil {
		auth = middleware.Unavailable("authentication is not configured")
	}

	docs := r.Group("/api/documents")
	docs.GET("", h.list)
	docs.GET("/search", h.search)
	docs.GET("/:id", h.get)
	docs.POST("", auth, h.upload)
	docs.PUT("/:id", auth, h.update)
	docs.DELETE("/:id", auth, h.remove)

	legacy := r.Group("/api/pdf")
	legacy.GET("/", h.list)
	legacy.GET("/search", h.search)
	legacy.POST("/upload", auth, h.upload)
	legacy.PUT("/update/:id", auth, h.update)
	legacy.DELETE("/delete/:id", auth, h.remove)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

func (h *Handler) search(c *gin.Context) {
	list, err := h.svc.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) upload(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", h.maxUpload), "kind": "PayloadTooLarge"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided", "kind": document.KindOf(document.ErrInvalidDocument)})
		return
	}

	pageCount, err := optionalInt(c.PostForm("pageCount"), c.PostForm("pages"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": document.KindOf(document.ErrDuplicateOrInvalid)})
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	d, err := h.ingest.Run(c.Request.Context(), ingest.Request{
		Title:     c.PostForm("title"),
		Owner:     middleware.Owner(c),
		PageCount: pageCount,
		Body:      f,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Infof("document %s uploaded by %s (%d segments, %s)", d.ID, d.Owner, len(d.Segments), fh.Filename)
	c.JSON(http.StatusCreated, uploadResponse{
		Document: d,
		Message:  fmt.Sprintf("Successfully uploaded PDF with %d segments", len(d.Segments)),
	})
}

type uploadResponse struct {
	*document.Document
	Message string `json:"message"`
}

type updateRequest struct {
	Title     *string `json:"title" form:"title"`
	PageCount *int    `json:"pageCount" form:"pageCount"`
	Pages     *int    `json:"pages" form:"pages"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": document.KindOf(document.ErrDuplicateOrInvalid)})
		return
	}
	p := document.Patch{Title: req.Title, PageCount: req.PageCount}
	if p.PageCount == nil {
		p.PageCount = req.Pages
	}
	d, err := h.svc.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) remove(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "message": "Document deleted"})
}

// statusFor maps error kinds to HTTP status codes.
var statusFor = map[string]int{
	"InvalidDocument":      http.StatusBadRequest,
	"EmptyDocument":        http.StatusBadRequest,
	"DuplicateOrInvalid":   http.StatusBadRequest,
	"NotFound":             http.StatusNotFound,
	"PlanningError":        http.StatusInternalServerError,
	"BuildError":           http.StatusInternalServerError,
	"UploadFailed":         http.StatusInternalServerError,
	"PersistError":         http.StatusInternalServerError,
	"PartialDeleteFailure": http.StatusInternalServerError,
}

func writeError(c *gin.Context, err error) {
	if tooLarge(err) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error(), "kind": "PayloadTooLarge"})
		return
	}
	kind := document.KindOf(err)
	status, ok := statusFor[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	body := gin.H{"error": err.Error(), "kind": kind}

	var se *ingest.StageError
	if errors.As(err, &se) {
		body["stage"] = se.Stage
		if se.Segment >= 0 {
			body["segment"] = se.Segment
		}
	}
	var pde *document.PartialDeleteError
	if errors.As(err, &pde) {
		failed := make([]gin.H, 0, len(pde.Failed))
		for _, f := range pde.Failed {
			failed = append(failed, gin.H{"index": f.Index, "storeId": f.StoreID, "error": f.Err.Error()})
		}
		body["failedSegments"] = failed
	}
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || (err != nil && strings.Contains(err.Error(), "request body too large"))
}

func optionalInt(values ...string) (*int, error) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("pageCount must be an integer, got %q", v)
		}
		return &n, nil
	}
	return nil, nil
}

func nonNil(list []*document.Document) []*document.Document {
	if list == nil {
		return []*document.Document{}
	}
	return list
}
