package table

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/datatable/internal/dataset"
	"github.com/simp-lee/datatable/internal/domain"
	"github.com/simp-lee/datatable/internal/mockdata"
)

func TestModuleRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	pages := r.Group("/")

	users := dataset.NewSource(dataset.Users, dataset.UserSchema, mockdata.Users(3, mockdata.Options{}))
	mod := NewModule(users)
	mod.RegisterRoutes(api, pages)

	if mod.Name() != "users" {
		t.Errorf("Name() = %q, want users", mod.Name())
	}

	expected := []struct {
		method string
		path   string
	}{
		// API routes
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/users/facets"},
		{http.MethodGet, "/api/users/schema"},
		{http.MethodPost, "/api/users/state"},
		{http.MethodGet, "/api/users/:id"},
		// Page routes
		{http.MethodGet, "/users"},
		{http.MethodPost, "/users/state"},
		{http.MethodPost, "/users/state/reset"},
	}

	registered := make(map[string]bool)
	for _, ri := range r.Routes() {
		registered[ri.Method+":"+ri.Path] = true
	}

	for _, exp := range expected {
		if key := exp.method + ":" + exp.path; !registered[key] {
			t.Errorf("expected route %s %s to be registered", exp.method, exp.path)
		}
	}
}

func TestNewModule_PanicsOnNilSource(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for nil source")
		}
	}()
	NewModule[domain.Task](nil)
}
