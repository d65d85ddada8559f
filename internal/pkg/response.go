package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/datatable/internal/domain"
	"github.com/simp-lee/datatable/internal/query"
)

// Response is the standard JSON envelope for API responses.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse is the JSON envelope for validation error responses.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// Success sends a 200 JSON response with the given data.
func Success(c *gin.Context, data any) {
	respond(c, http.StatusOK, "success", data)
}

// Error sends err as a JSON envelope. An *domain.AppError keeps its message
// and maps to its status; any other error is reported as a bare 500.
func Error(c *gin.Context, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		respond(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	respond(c, domain.HTTPStatusCode(appErr), appErr.Message, nil)
}

// List sends one page of query results. The match count goes in
// X-Total-Count, the neighbouring pages in an RFC 8288 Link header built from
// the request URL and the numbered page window in X-Page-Range.
func List[T any](c *gin.Context, page query.Page[T]) {
	c.Header("X-Total-Count", strconv.Itoa(page.TotalCount))
	nav, err := Navigate(c.Request.Context(), page)
	if err != nil {
		Error(c, domain.NewAppError(domain.CodeInternal, "paginate", err))
		return
	}
	if link := pageLinks(c.Request.URL, nav); link != "" {
		c.Header("Link", link)
	}
	if len(nav.Pages) > 0 {
		c.Header("X-Page-Range", fmt.Sprintf("%d-%d", nav.Pages[0], nav.Pages[len(nav.Pages)-1]))
	}
	respond(c, http.StatusOK, "success", page)
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Code: status, Message: message, Data: data})
}

// pageLinks returns the first, prev, next and last links of nav. Index 0 is
// written without a pageIndex key.
func pageLinks(u *url.URL, nav PageNav) string {
	if nav.Count == 0 {
		return ""
	}
	link := func(rel string, i int) string {
		q := u.Query()
		q.Del(query.KeyPageIndex)
		if i > 0 {
			q.Set(query.KeyPageIndex, strconv.Itoa(i))
		}
		target := url.URL{Path: u.Path, RawQuery: q.Encode()}
		return fmt.Sprintf("<%s>; rel=%q", target.String(), rel)
	}

	links := []string{link("first", 0)}
	if nav.HasPrev() {
		links = append(links, link("prev", nav.Prev))
	}
	if nav.HasNext() {
		links = append(links, link("next", nav.Next))
	}
	links = append(links, link("last", nav.Last))
	return strings.Join(links, ", ")
}

// ValidationError sends a 400 JSON response with per-field validation error details.
// It detects validator.ValidationErrors and extracts field-level messages.
func ValidationError(c *gin.Context, err error) {
	validationErrorWithType(c, err, nil)
}

// BindAndValidate binds the request to obj and validates it.
// On failure it sends a ValidationError response and returns false.
// Field names in the response come from the form tag, then the json tag.
// Usage in handlers:
//
//	if !pkg.BindAndValidate(c, &req) { return }
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		validationErrorWithType(c, err, obj)
		return false
	}
	return true
}

// validationErrorWithType sends a 400 validation error response. When obj is
// non-nil its struct tags name the fields.
func validationErrorWithType(c *gin.Context, err error, obj any) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		respond(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	names := buildTagNameMap(obj)

	fieldErrors := make(map[string]string, len(ve))
	for _, fe := range ve {
		field, _, _ := strings.Cut(fe.StructField(), "[")
		name, ok := names[field]
		if !ok {
			name = strings.ToLower(field)
		}
		if _, dup := fieldErrors[name]; dup {
			// Keep the first failure per field, e.g. for list elements.
			continue
		}
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		fieldErrors[name] = msg
	}

	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  fieldErrors,
	})
}

// buildTagNameMap maps struct field names to their form tag name, or json tag
// name when there is no form tag.
func buildTagNameMap(obj any) map[string]string {
	if obj == nil {
		return nil
	}
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	m := make(map[string]string, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if name := parseTagName(f.Tag.Get("form")); name != "" {
			m[f.Name] = name
		} else if name := parseTagName(f.Tag.Get("json")); name != "" {
			m[f.Name] = name
		}
	}
	return m
}

// parseTagName extracts the name part of a form or json struct tag.
func parseTagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
