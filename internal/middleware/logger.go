package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerConfig controls request logging.
type LoggerConfig struct {
	// SkipPaths are exact request paths that are never logged, such as the
	// health and metrics endpoints.
	SkipPaths []string
	// SlowThreshold upgrades successful requests slower than it to Warn.
	// Zero disables the check.
	SlowThreshold time.Duration
}

// Logger logs every request with default settings. See LoggerWithConfig.
func Logger(log *slog.Logger) gin.HandlerFunc {
	return LoggerWithConfig(log, LoggerConfig{})
}

// LoggerWithConfig logs one record per request once the handler chain has
// run. 5xx responses log at Error, 4xx and slow requests at Warn and the rest
// at Info. The query string is logged as "search" since it carries the table
// state. Records are written with the request context so a context-aware
// handler attaches the request ID.
func LoggerWithConfig(log *slog.Logger, cfg LoggerConfig) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("bytes", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" && route != path {
			attrs = append(attrs, slog.String("route", route))
		}
		if q := c.Request.URL.RawQuery; q != "" {
			attrs = append(attrs, slog.String("search", q))
		}
		if c.GetHeader("HX-Request") == "true" {
			attrs = append(attrs, slog.Bool("htmx", true))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", strings.Join(c.Errors.Errors(), "; ")))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case cfg.SlowThreshold > 0 && latency > cfg.SlowThreshold:
			level = slog.LevelWarn
			attrs = append(attrs, slog.Bool("slow", true))
		}
		log.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}
