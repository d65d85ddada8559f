package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func setupLoggerRouter(log *slog.Logger, cfg LoggerConfig, requestID gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(requestID)
	r.Use(LoggerWithConfig(log, cfg))

	r.GET("/ok", okHandler)
	r.GET("/healthz", okHandler)
	r.GET("/tables/:name", okHandler)
	r.GET("/not-found", func(c *gin.Context) {
		c.String(http.StatusNotFound, "not found")
	})
	r.GET("/error", func(c *gin.Context) {
		_ = c.Error(errTest)
		c.String(http.StatusInternalServerError, "error")
	})
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(20 * time.Millisecond)
		c.String(http.StatusOK, "slow")
	})
	r.POST("/create", func(c *gin.Context) {
		c.String(http.StatusCreated, "created")
	})
	return r
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("boom")

func TestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		path      string
		wantLevel string
	}{
		{"/ok", "level=INFO"},
		{"/not-found", "level=WARN"},
		{"/error", "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var logBuf bytes.Buffer
			r := setupLoggerRouter(newTestLogger(&logBuf), LoggerConfig{}, RequestID())

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if !strings.Contains(logBuf.String(), tt.wantLevel) {
				t.Errorf("expected %s, got:\n%s", tt.wantLevel, logBuf.String())
			}
			if !strings.Contains(logBuf.String(), "msg=request") {
				t.Errorf("expected log message 'request', got:\n%s", logBuf.String())
			}
		})
	}
}

func TestLogger_ContainsExpectedFields(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&logBuf), LoggerConfig{}, RequestID())

	req := httptest.NewRequest(http.MethodPost, "/create", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	logOutput := logBuf.String()
	for _, field := range []string{"method=POST", "path=/create", "status=201", "latency=", "client_ip=", "bytes=7"} {
		if !strings.Contains(logOutput, field) {
			t.Errorf("expected log to contain %q, got:\n%s", field, logOutput)
		}
	}
}

func TestLogger_RouteSearchAndHTMX(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&logBuf), LoggerConfig{}, RequestID())

	req := httptest.NewRequest(http.MethodGet, "/tables/tasks?status=done&pageIndex=2", nil)
	req.Header.Set("HX-Request", "true")
	r.ServeHTTP(httptest.NewRecorder(), req)

	logOutput := logBuf.String()
	for _, field := range []string{"route=/tables/:name", `search="status=done&pageIndex=2"`, "htmx=true"} {
		if !strings.Contains(logOutput, field) {
			t.Errorf("expected log to contain %q, got:\n%s", field, logOutput)
		}
	}
}

func TestLogger_RecordsHandlerErrors(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&logBuf), LoggerConfig{}, RequestID())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/error", nil))

	if !strings.Contains(logBuf.String(), "errors=boom") {
		t.Errorf("expected handler errors in log, got:\n%s", logBuf.String())
	}
}

func TestLogger_SkipPaths(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&logBuf), LoggerConfig{SkipPaths: []string{"/healthz"}}, RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if logBuf.Len() != 0 {
		t.Errorf("expected no log output for skipped path, got:\n%s", logBuf.String())
	}
}

func TestLogger_SlowRequestWarns(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupLoggerRouter(newTestLogger(&logBuf), LoggerConfig{SlowThreshold: time.Millisecond}, RequestID())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

	logOutput := logBuf.String()
	if !strings.Contains(logOutput, "level=WARN") || !strings.Contains(logOutput, "slow=true") {
		t.Errorf("expected slow request warning, got:\n%s", logOutput)
	}
}

func TestLogger_IncludesRequestIDFromContext(t *testing.T) {
	var logBuf bytes.Buffer
	log := newContextLogger(t, &logBuf)
	r := setupLoggerRouter(log, LoggerConfig{}, RequestIDWithConfig(RequestIDConfig{TrustUpstream: true}))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "test-req-id-789")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(logBuf.String(), "test-req-id-789") {
		t.Errorf("expected log to contain request_id 'test-req-id-789', got:\n%s", logBuf.String())
	}
}
