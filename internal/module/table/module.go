// Package table exposes a dataset as a JSON API and an htmx table page whose
// filter, sort and page state lives in the URL.
package table

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/datatable/internal/dataset"
)

// Module implements the app.Module interface for one dataset.
type Module[T any] struct {
	name        string
	handler     *Handler[T]
	pageHandler *PageHandler[T]
}

// NewModule creates a Module serving src.
// Panics if src is nil.
func NewModule[T any](src *dataset.Source[T]) *Module[T] {
	if src == nil {
		panic("table.NewModule: source must not be nil")
	}
	return &Module[T]{
		name:        src.Name(),
		handler:     NewHandler(src),
		pageHandler: NewPageHandler(src),
	}
}

// Name returns the dataset name the routes are mounted under.
func (m *Module[T]) Name() string { return m.name }

// RegisterRoutes registers the dataset's API and page routes.
func (m *Module[T]) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	base := "/" + m.name

	// API routes
	api.GET(base, m.handler.List)
	api.GET(base+"/facets", m.handler.Facets)
	api.GET(base+"/schema", m.handler.Schema)
	api.POST(base+"/state", m.handler.State)
	api.GET(base+"/:id", m.handler.Get)

	// Page routes
	pages.GET(base, m.pageHandler.ListPage)
	pages.POST(base+"/state", m.pageHandler.MergeHTMX)
	pages.POST(base+"/state/reset", m.pageHandler.ResetHTMX)
}
