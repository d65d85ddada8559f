package table

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/datatable/internal/dataset"
	"github.com/simp-lee/datatable/internal/domain"
	"github.com/simp-lee/datatable/internal/pkg"
	"github.com/simp-lee/datatable/internal/query"
	"github.com/simp-lee/datatable/internal/urlstate"
)

// Handler serves the JSON API of one dataset.
type Handler[T any] struct {
	src *dataset.Source[T]
}

// NewHandler creates a Handler over src.
func NewHandler[T any](src *dataset.Source[T]) *Handler[T] {
	return &Handler[T]{src: src}
}

// List handles GET /api/v1/<name>. Recognized parameters are validated
// strictly; unknown parameters are ignored.
func (h *Handler[T]) List(c *gin.Context) {
	if !h.validateSearch(c) {
		return
	}

	st := h.src.Codec().Decode(c.Request.URL.Query())
	page, err := h.src.Fetch(c.Request.Context(), st)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, page)
}

// Facets handles GET /api/v1/<name>/facets.
func (h *Handler[T]) Facets(c *gin.Context) {
	if !h.validateSearch(c) {
		return
	}

	st := h.src.Codec().Decode(c.Request.URL.Query())
	facets, err := h.src.Facets(c.Request.Context(), st)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, facets)
}

// Schema handles GET /api/v1/<name>/schema.
func (h *Handler[T]) Schema(c *gin.Context) {
	pkg.Success(c, describe(h.src))
}

// Get handles GET /api/v1/<name>/:id.
func (h *Handler[T]) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, err.Error(), nil))
		return
	}

	rec, err := h.src.Find(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, rec)
}

// State handles POST /api/v1/<name>/state. It merges the patch into the
// given search the way a page would and returns where the page would
// navigate to. A null patch value removes the key.
func (h *Handler[T]) State(c *gin.Context) {
	var req StateRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	current, err := url.ParseQuery(strings.TrimPrefix(req.Search, "?"))
	if err != nil {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "invalid search", err))
		return
	}

	codec := h.src.Codec()
	router := urlstate.NewMemoryRouter(current)
	sync := urlstate.NewSynchronizer(router, codec)

	if req.Reset {
		sync.Reset()
	} else {
		patch, err := codec.DecodeJSON(req.Patch)
		if err != nil {
			pkg.Error(c, domain.NewAppError(domain.CodeValidation, "invalid patch: "+err.Error(), err))
			return
		}
		sync.Merge(patch)
	}

	pkg.Success(c, StateResponse{
		Search: router.String(),
		State:  sync.Read(),
	})
}

// validateSearch binds the reserved keys strictly, then checks the values
// that depend on the dataset. On failure it writes a 400 response.
func (h *Handler[T]) validateSearch(c *gin.Context) bool {
	params, ok := pkg.BindSearch(c)
	if !ok {
		return false
	}

	errs := make(map[string]string)
	if limit := h.src.MaxPageSize(); limit > 0 && params.PageSize != nil && *params.PageSize > limit {
		errs[query.KeyPageSize] = "max=" + strconv.Itoa(limit)
	}

	schema := h.src.Schema()
	if params.SortBy != "" {
		s, _ := query.ParseSort(params.SortBy)
		if f, found := schema.Lookup(s.Field); !found || !f.Sortable() {
			errs[query.KeySortBy] = "sortable"
		}
	}
	if !schema.HasDate() {
		if params.From != "" {
			errs[query.KeyFrom] = "unsupported"
		}
		if params.To != "" {
			errs[query.KeyTo] = "unsupported"
		}
	}

	search := c.Request.URL.Query()
	for _, f := range schema.Fields() {
		if f.Kind() != query.KindNumber {
			continue
		}
		raw := strings.TrimSpace(search.Get(f.Name))
		if raw == "" {
			continue
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			errs[f.Name] = "number"
		}
	}

	if len(errs) == 0 {
		return true
	}
	c.JSON(http.StatusBadRequest, pkg.ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  errs,
	})
	return false
}

func describe[T any](src *dataset.Source[T]) SchemaResponse {
	schema := src.Schema()
	fields := schema.Fields()

	out := SchemaResponse{
		Name:        src.Name(),
		Total:       src.Len(),
		MaxPageSize: src.MaxPageSize(),
		HasDate:     schema.HasDate(),
		Fields:      make([]FieldInfo, 0, len(fields)),
	}
	for _, f := range fields {
		out.Fields = append(out.Fields, FieldInfo{
			Name:     f.Name,
			Label:    Label(f.Name),
			Kind:     f.Kind().String(),
			Rule:     f.Rule.String(),
			Sortable: f.Sortable(),
			Options:  f.Options,
		})
	}
	return out
}

// parseID extracts and validates the "id" URL parameter.
func parseID(c *gin.Context) (int, error) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", idStr)
	}
	return id, nil
}
