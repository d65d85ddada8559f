package urlstate

import (
	"net/url"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/datatable/internal/pkg"
)

// MemoryRouter is a Router that keeps the search in memory. It is safe for
// concurrent use.
type MemoryRouter struct {
	mu          sync.Mutex
	search      url.Values
	navigations int
}

// NewMemoryRouter returns a MemoryRouter positioned at initial.
func NewMemoryRouter(initial url.Values) *MemoryRouter {
	return &MemoryRouter{search: cloneValues(initial)}
}

// Search returns a copy of the current search.
func (r *MemoryRouter) Search() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneValues(r.search)
}

// Navigate replaces the current search.
func (r *MemoryRouter) Navigate(search url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.search = cloneValues(search)
	r.navigations++
}

// Navigations returns how many times Navigate has been called.
func (r *MemoryRouter) Navigations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.navigations
}

// String returns the encoded search.
func (r *MemoryRouter) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.search.Encode()
}

// CurrentSearchField is the form field a page submits its current search in
// when the request does not come from htmx.
const CurrentSearchField = "_current"

// RequestRouter is a Router bound to one gin request. The current search is
// taken from the HX-Current-URL header, the CurrentSearchField form value or
// the request query, in that order. Navigation answers the request with an
// HX-Redirect for htmx or a 303 redirect otherwise.
type RequestRouter struct {
	c    *gin.Context
	path string
}

// NewRequestRouter returns a RequestRouter that navigates within path.
func NewRequestRouter(c *gin.Context, path string) *RequestRouter {
	return &RequestRouter{c: c, path: path}
}

// Search returns the search of the page that issued the request.
func (r *RequestRouter) Search() url.Values {
	if cur := r.c.GetHeader("HX-Current-URL"); cur != "" {
		if u, err := url.Parse(cur); err == nil {
			return u.Query()
		}
	}
	if cur, ok := r.c.GetPostForm(CurrentSearchField); ok {
		if q, err := url.ParseQuery(cur); err == nil {
			return q
		}
	}
	return r.c.Request.URL.Query()
}

// Navigate redirects the client to the route with the given search.
func (r *RequestRouter) Navigate(search url.Values) {
	pkg.Redirect(r.c, Location(r.path, search))
}

// Location joins path and the encoded search.
func Location(path string, search url.Values) string {
	if len(search) == 0 {
		return path
	}
	return path + "?" + search.Encode()
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
