package table

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/datatable/internal/dataset"
	"github.com/simp-lee/datatable/internal/middleware"
	"github.com/simp-lee/datatable/internal/pkg"
	"github.com/simp-lee/datatable/internal/query"
	"github.com/simp-lee/datatable/internal/urlstate"
)

// PageHandler renders the table page of one dataset and applies toolbar
// changes to its URL.
type PageHandler[T any] struct {
	src  *dataset.Source[T]
	path string
}

// NewPageHandler creates a PageHandler for src mounted at /<name>.
func NewPageHandler[T any](src *dataset.Source[T]) *PageHandler[T] {
	return &PageHandler[T]{src: src, path: "/" + src.Name()}
}

// ListPage renders the table for the state in the request URL.
// GET /<name>
func (h *PageHandler[T]) ListPage(c *gin.Context) {
	ctx := c.Request.Context()
	search := c.Request.URL.Query()
	st := h.src.Codec().Decode(search)

	page, err := h.src.Fetch(ctx, st)
	if err != nil {
		slog.ErrorContext(ctx, "fetch page failed", "dataset", h.src.Name(), "error", err)
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return
	}
	facets, err := h.src.Facets(ctx, st)
	if err != nil {
		slog.ErrorContext(ctx, "facet counts failed", "dataset", h.src.Name(), "error", err)
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return
	}

	view, err := buildView(ctx, h.src, h.path, search, page, facets)
	if err != nil {
		slog.ErrorContext(ctx, "build view failed", "dataset", h.src.Name(), "error", err)
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return
	}
	view.CSRFToken = middleware.GetCSRFToken(c)
	c.HTML(http.StatusOK, "table/list.html", view)
}

// MergeHTMX merges the submitted toolbar fields, or a row's selectedIds,
// into the current search and redirects to the result. Fields of the form
// replace their keys; an empty field removes its key.
// POST /<name>/state
func (h *PageHandler[T]) MergeHTMX(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		pkg.ToastError(c, http.StatusBadRequest, "Invalid form submission")
		return
	}

	codec := h.src.Codec()
	patch := codec.DecodePatch(c.Request.PostForm)
	_, selection := patch[query.KeySelection]
	if _, ok := patch[query.KeyPageIndex]; !ok && (selection || len(patch.Filters()) > 0) {
		// A new filter starts from the first page.
		patch[query.KeyPageIndex] = query.Unset()
	}

	sync := urlstate.NewSynchronizer(urlstate.NewRequestRouter(c, h.path), codec)
	next := sync.Merge(patch)
	slog.DebugContext(c.Request.Context(), "table state merged",
		"dataset", h.src.Name(),
		"search", codec.Encode(next).Encode(),
	)
}

// ResetHTMX clears every filter, sort and page setting.
// POST /<name>/state/reset
func (h *PageHandler[T]) ResetHTMX(c *gin.Context) {
	sync := urlstate.NewSynchronizer(urlstate.NewRequestRouter(c, h.path), h.src.Codec())
	pkg.SetToast(c, "Filters cleared", pkg.ToastKindInfo)
	sync.Reset()
}
