package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRateLimitRouter(t *testing.T, cfg RateLimitConfig, logBuf *bytes.Buffer) *gin.Engine {
	t.Helper()
	r := gin.New()
	r.Use(RateLimit(newTestLogger(logBuf), cfg))
	r.GET("/api/v1/tasks", okHandler)
	return r
}

func requestFrom(r *gin.Engine, ip string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.RemoteAddr = ip + ":12345"
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	var logBuf bytes.Buffer
	// A tiny refill rate keeps the bucket empty for the rest of the test.
	r := setupRateLimitRouter(t, RateLimitConfig{RPS: 0.001, Burst: 3}, &logBuf)

	for i := range 3 {
		w := requestFrom(r, "10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code, "request %d within burst", i)
	}

	w := requestFrom(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1000", w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "too many requests", body["message"])
	assert.EqualValues(t, http.StatusTooManyRequests, body["code"])

	assert.Contains(t, logBuf.String(), "rate limited")
	assert.Contains(t, logBuf.String(), "client=10.0.0.1")
}

func TestRateLimit_PerClientBuckets(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupRateLimitRouter(t, RateLimitConfig{RPS: 0.001, Burst: 1}, &logBuf)

	assert.Equal(t, http.StatusOK, requestFrom(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, requestFrom(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, requestFrom(r, "10.0.0.2").Code)
}

func TestRateLimit_HTMXGetsToast(t *testing.T) {
	var logBuf bytes.Buffer
	r := setupRateLimitRouter(t, RateLimitConfig{RPS: 0.001, Burst: 1}, &logBuf)

	requestFrom(r, "10.0.0.9")
	w := requestFrom(r, "10.0.0.9", "HX-Request", "true")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "none", w.Header().Get("HX-Reswap"))
	assert.True(t, strings.Contains(w.Header().Get("HX-Trigger"), "too many requests"))
}

func TestRateLimiter_EvictsLeastRecentClient(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RPS: 0.001, Burst: 1, MaxClients: 2})

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	assert.False(t, l.Allow("a"))
	// "b" is now least recently used and is evicted by "c".
	assert.True(t, l.Allow("c"))
	assert.Equal(t, 2, l.Clients())
	assert.True(t, l.Allow("b"), "evicted client starts with a fresh bucket")
}

func TestRateLimiter_CustomKey(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{
		RPS:     0.001,
		Burst:   1,
		KeyFunc: func(c *gin.Context) string { return c.GetHeader("X-Client") },
	})
	r := gin.New()
	r.Use(l.Handler(nil))
	r.GET("/api/v1/tasks", okHandler)

	assert.Equal(t, http.StatusOK, requestFrom(r, "10.0.0.1", "X-Client", "one").Code)
	assert.Equal(t, http.StatusOK, requestFrom(r, "10.0.0.1", "X-Client", "two").Code)
	assert.Equal(t, http.StatusTooManyRequests, requestFrom(r, "10.0.0.1", "X-Client", "one").Code)
}
