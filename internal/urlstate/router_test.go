package urlstate

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMemoryRouter_CopiesValues(t *testing.T) {
	initial := url.Values{"title": {"a"}}
	r := NewMemoryRouter(initial)
	initial.Set("title", "changed")

	got := r.Search()
	got.Set("title", "mutated")

	if r.String() != "title=a" {
		t.Errorf("search = %q, want title=a", r.String())
	}
}

func TestRequestRouter_Search(t *testing.T) {
	tests := []struct {
		name  string
		setup func(req *http.Request)
		body  string
		want  string
	}{
		{
			name: "htmx current url",
			setup: func(req *http.Request) {
				req.Header.Set("HX-Current-URL", "http://localhost/tasks?status=done&pageIndex=2")
			},
			want: "pageIndex=2&status=done",
		},
		{
			name: "form field",
			body: CurrentSearchField + "=" + url.QueryEscape("title=login"),
			setup: func(req *http.Request) {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			},
			want: "title=login",
		},
		{
			name:  "request query",
			setup: func(req *http.Request) {},
			want:  "q=1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			req := httptest.NewRequest(http.MethodPost, "/tasks/state?q=1", strings.NewReader(tt.body))
			tt.setup(req)
			c.Request = req

			got := NewRequestRouter(c, "/tasks").Search().Encode()
			if got != tt.want {
				t.Errorf("Search() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestRouter_NavigateHTMX(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/tasks/state", nil)
	c.Request.Header.Set("HX-Request", "true")

	NewRequestRouter(c, "/tasks").Navigate(url.Values{"status": {"done"}})

	if got := w.Header().Get("HX-Redirect"); got != "/tasks?status=done" {
		t.Errorf("HX-Redirect = %q", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequestRouter_NavigatePlain(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/tasks/state/reset", nil)

	NewRequestRouter(c, "/tasks").Navigate(url.Values{})
	c.Writer.WriteHeaderNow()

	if w.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", w.Code)
	}
	if got := w.Header().Get("Location"); got != "/tasks" {
		t.Errorf("Location = %q, want /tasks", got)
	}
}
