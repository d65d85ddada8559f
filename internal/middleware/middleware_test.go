package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newContextLogger returns a logger that picks up request attributes
// stored with logger.WithContextAttrs.
func newContextLogger(t *testing.T, buf *bytes.Buffer) *slog.Logger {
	t.Helper()
	log, err := logger.New(
		logger.WithConsoleWriter(buf),
		logger.WithConsoleFormat(logger.FormatText),
		logger.WithConsoleColor(false),
		logger.WithLevel(slog.LevelDebug),
		logger.WithMiddleware(logger.ContextMiddleware()),
	)
	if err != nil {
		t.Fatalf("logger.New error: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log.Logger
}

func okHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
