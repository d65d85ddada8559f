package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/datatable/internal/dataset"
	"github.com/simp-lee/datatable/internal/domain"
	"github.com/simp-lee/datatable/internal/middleware"
	"github.com/simp-lee/datatable/internal/pkg"
	"github.com/simp-lee/datatable/web"
)

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Modules []Module
	// Datasets reports the record count of each dataset for /health.
	Datasets   func() map[string]int
	Mode       string // "debug" or "release"
	CSRFSecret string
	// APIMiddleware runs on /api/v1 routes only, e.g. rate limiting.
	APIMiddleware []gin.HandlerFunc
	// MetricsHandler is mounted at MetricsPath when non-nil.
	MetricsPath    string
	MetricsHandler http.Handler
}

// RegisterRoutes registers all application routes on the given gin.Engine.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}
	if strings.TrimSpace(deps.CSRFSecret) == "" {
		return errors.New("csrf secret is required")
	}

	// Static assets
	if err := registerStaticRoutesWithError(r, deps.Mode); err != nil {
		return fmt.Errorf("register static routes: %w", err)
	}

	r.GET("/health", healthHandler(deps.Datasets))

	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.MetricsHandler))
	}

	// Home page (with CSRF so templates have a token)
	r.GET("/", middleware.CSRF(deps.CSRFSecret), homeHandler(deps.Datasets))

	// API routes, no CSRF
	api := r.Group("/api/v1")
	api.Use(deps.APIMiddleware...)

	// Page routes, with CSRF
	pages := r.Group("/")
	pages.Use(middleware.CSRF(deps.CSRFSecret))

	if err := mountModules(deps.Modules, api, pages); err != nil {
		return err
	}

	r.NoRoute(noRouteHandler())

	return nil
}

// healthHandler reports the size of every loaded dataset. Without datasets
// the service is degraded.
func healthHandler(datasets func() map[string]int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if datasets == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "degraded",
				"datasets": gin.H{},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"datasets": datasets(),
		})
	}
}

// homeEntry is one dataset link on the home page.
type homeEntry struct {
	Name    string
	Title   string
	Path    string
	Records int
}

func homeHandler(datasets func() map[string]int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sizes map[string]int
		if datasets != nil {
			sizes = datasets()
		}

		entries := make([]homeEntry, 0, len(sizes))
		for _, name := range dataset.Names {
			n, ok := sizes[name]
			if !ok {
				continue
			}
			entries = append(entries, homeEntry{
				Name:    name,
				Title:   strings.ToUpper(name[:1]) + name[1:],
				Path:    "/" + name,
				Records: n,
			})
		}

		c.HTML(http.StatusOK, "home.html", gin.H{
			"Datasets":  entries,
			"CSRFToken": middleware.GetCSRFToken(c),
		})
	}
}

// noRouteHandler answers unknown paths with 404. Paths under /api/ always
// get the JSON envelope.
func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			pkg.Error(c, domain.ErrNotFound)
			return
		}
		middleware.RenderError(c, domain.ErrNotFound)
	}
}

func registerStaticRoutesWithError(r *gin.Engine, mode string) error {
	if mode == gin.DebugMode {
		debugStaticFS, err := resolveDebugStaticFS()
		if err != nil {
			return fmt.Errorf("resolve debug static filesystem: %w", err)
		}
		fileServer := http.StripPrefix("/static", http.FileServer(http.FS(debugStaticFS)))
		r.GET("/static/*filepath", func(c *gin.Context) {
			fileServer.ServeHTTP(c.Writer, c.Request)
		})
		return nil
	}

	// Release mode: serve from embed.FS with cache headers.
	staticFS, err := fs.Sub(web.EmbeddedFS, "static")
	if err != nil {
		return fmt.Errorf("create sub filesystem for static assets: %w", err)
	}
	r.GET("/static/*filepath", cacheStaticHandler(http.FS(staticFS)))
	return nil
}

func resolveDebugStaticFS() (fs.FS, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("resolve current file path")
	}

	projectRoot := filepath.Clean(filepath.Join(filepath.Dir(currentFile), "..", ".."))
	staticDir := filepath.Join(projectRoot, "web", "static")
	if _, err := os.Stat(staticDir); err != nil {
		return nil, fmt.Errorf("stat static directory %q: %w", staticDir, err)
	}

	return os.DirFS(staticDir), nil
}

// cacheStaticHandler wraps an http.FileSystem handler and sets a Cache-Control
// header for release mode static assets.
func cacheStaticHandler(fsys http.FileSystem) gin.HandlerFunc {
	fileServer := http.StripPrefix("/static", http.FileServer(fsys))
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=86400")
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
