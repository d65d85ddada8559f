package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/datatable/internal/config"
	"github.com/simp-lee/datatable/internal/dataset"
	"github.com/simp-lee/datatable/internal/middleware"
	"github.com/simp-lee/datatable/internal/module/table"
	"github.com/simp-lee/datatable/web"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine  *gin.Engine
	logger  *logger.Logger
	cfg     *config.Config
	catalog *dataset.Catalog
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

const shutdownTimeout = 5 * time.Second

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging, generates the datasets, and wires modules, middleware,
// template rendering, metrics and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	// 1. Setup logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Generate the in-memory datasets.
	catalog, err := dataset.Load(context.Background(), cfg.Data, dataset.OptionsFromConfig(cfg)...)
	if err != nil {
		return nil, err
	}
	log.Info("datasets loaded",
		slog.Int(dataset.Tasks, catalog.Tasks.Len()),
		slog.Int(dataset.Users, catalog.Users.Len()),
		slog.Bool("cache", cfg.Server.Cache.Enabled),
	)

	// 3. One table module per dataset.
	modules := []Module{
		table.NewModule(catalog.Tasks),
		table.NewModule(catalog.Users),
	}

	// 4. Create Gin engine with custom middleware (not gin.Default()).
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	var metrics *middleware.Metrics
	skipLog := []string{"/health"}
	if cfg.Metrics.Enabled {
		metrics = middleware.NewMetrics("datatable")
		skipLog = append(skipLog, cfg.Metrics.Path)
	}

	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: false,
		}),
		middleware.LoggerWithConfig(log.Logger, middleware.LoggerConfig{
			SkipPaths:     skipLog,
			SlowThreshold: time.Second,
		}),
		middleware.CORSWithConfig(middleware.CORSFromConfig(cfg.Server.Mode, cfg.Server.CORS)),
		middleware.Timeout(log.Logger, cfg.Server.TimeoutDuration()),
	)
	if metrics != nil {
		engine.Use(metrics.Handler())
	}

	// 5. Determine filesystem mode and set up template renderer.
	var fsys fs.FS
	if cfg.Server.Mode == gin.DebugMode {
		fsys, err = resolveDebugWebFS()
		if err != nil {
			return nil, fmt.Errorf("resolve debug template fs: %w", err)
		}
	} else {
		fsys = web.EmbeddedFS
	}

	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 6. Resolve CSRF secret.
	csrfSecret, err := resolveCSRFSecret(cfg.Server.Mode, cfg.Server.CSRFSecret)
	if err != nil {
		return nil, err
	}
	if csrfSecret != cfg.Server.CSRFSecret {
		log.Warn("no csrf_secret configured, using random secret in non-release mode (will change on restart)")
	}

	// 7. Register all routes.
	deps := &RouteDeps{
		Modules:    modules,
		Datasets:   catalog.Sizes,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
	}
	if cfg.Server.RateLimit.Enabled {
		deps.APIMiddleware = append(deps.APIMiddleware, middleware.RateLimit(log.Logger, middleware.RateLimitConfig{
			RPS:        cfg.Server.RateLimit.RPS,
			Burst:      cfg.Server.RateLimit.Burst,
			MaxClients: cfg.Server.RateLimit.MaxClients,
		}))
	}
	if metrics != nil {
		deps.MetricsPath = cfg.Metrics.Path
		deps.MetricsHandler = metrics.Exposition()
	}
	if err := RegisterRoutes(engine, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{
		engine:  engine,
		logger:  log,
		cfg:     cfg,
		catalog: catalog,
	}, nil
}

// Handler returns the configured HTTP handler.
func (a *App) Handler() http.Handler {
	return a.engine
}

// resolveCSRFSecret returns the configured secret, or a random one outside
// release mode when the configured value is a placeholder. Release mode
// requires a strong secret.
func resolveCSRFSecret(mode, secret string) (string, error) {
	if isPlaceholderCSRFSecret(secret) {
		if mode == gin.ReleaseMode {
			return "", errors.New("csrf_secret must be a non-placeholder value in release mode")
		}

		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("generate csrf secret: %w", err)
		}
		return hex.EncodeToString(b), nil
	}

	if mode == gin.ReleaseMode {
		if len(secret) < 32 {
			return "", errors.New("csrf_secret must be at least 32 characters in release mode")
		}
		if characterClasses(secret) < 3 {
			return "", errors.New("csrf_secret must include at least 3 character classes (lower, upper, digit, symbol) in release mode")
		}
	}
	return secret, nil
}

func isPlaceholderCSRFSecret(secret string) bool {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return true
	}

	switch strings.ToLower(trimmed) {
	case "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

func characterClasses(s string) int {
	var lower, upper, digit, other bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}
	n := 0
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			n++
		}
	}
	return n
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func resolveDebugWebFS() (fs.FS, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		webDir := filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "web"))
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		webDir := filepath.Join(filepath.Dir(exePath), "web")
		if stat, err := os.Stat(webDir); err == nil && stat.IsDir() {
			return os.DirFS(webDir), nil
		}
	}

	return nil, errors.New("debug web directory not found")
}

// Run starts the HTTP server and blocks until a shutdown signal is received
// or the server fails. Shutdown is graceful with a 5-second deadline.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	served := make(chan struct{})
	g.Go(func() error {
		defer close(served)
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-served:
			return nil
		}
		if ctx.Err() != nil {
			log.Info("shutdown signal received")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
		return nil
	})

	runErr := g.Wait()

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
