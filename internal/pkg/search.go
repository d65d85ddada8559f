package pkg

import (
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/datatable/internal/query"
)

// SearchParams holds the reserved keys of a table search, bound from the
// query string for strict validation. Filter keys are dataset specific and
// are decoded separately.
type SearchParams struct {
	PageIndex   *int     `form:"pageIndex" binding:"omitempty,min=0"`
	PageSize    *int     `form:"pageSize" binding:"omitempty,min=1"`
	SortBy      string   `form:"sortBy" binding:"omitempty,sortspec"`
	From        string   `form:"from" binding:"omitempty,datebound"`
	To          string   `form:"to" binding:"omitempty,datebound"`
	Selection   []string `form:"selection" binding:"omitempty,dive,listof=SELECTED NOT_SELECTED"`
	SelectedIDs []string `form:"selectedIds" binding:"omitempty,dive,idlist"`
}

var registerOnce sync.Once

// RegisterValidations installs the search validation rules on gin's default
// validator. It is safe to call more than once.
func RegisterValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("sortspec", validateSortSpec)
		_ = v.RegisterValidation("datebound", validateDateBound)
		_ = v.RegisterValidation("listof", validateListOf)
		_ = v.RegisterValidation("idlist", validateIDList)
	})
}

// BindSearch binds and validates the reserved search keys of the request
// query. On failure it sends a ValidationError response and returns false.
func BindSearch(c *gin.Context) (SearchParams, bool) {
	RegisterValidations()

	var p SearchParams
	if err := c.ShouldBindQuery(&p); err != nil {
		validationErrorWithType(c, err, &p)
		return p, false
	}
	return p, true
}

// validateSortSpec accepts "<field>.<asc|desc>".
func validateSortSpec(fl validator.FieldLevel) bool {
	_, ok := query.ParseSort(fl.Field().String())
	return ok
}

// validateDateBound accepts a calendar date, an RFC 3339 timestamp or Unix
// milliseconds.
func validateDateBound(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if _, err := time.Parse(query.DateLayout, s); err == nil {
		return true
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return true
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// validateListOf checks every comma-separated element against the
// space-separated values in the rule parameter.
func validateListOf(fl validator.FieldLevel) bool {
	allowed := strings.Fields(fl.Param())
	for _, part := range strings.Split(fl.Field().String(), ",") {
		if !slices.Contains(allowed, strings.TrimSpace(part)) {
			return false
		}
	}
	return true
}

// validateIDList accepts comma-separated non-negative integers.
func validateIDList(fl validator.FieldLevel) bool {
	for _, part := range strings.Split(fl.Field().String(), ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return false
		}
	}
	return true
}
