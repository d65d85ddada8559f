package middleware

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/simp-lee/logger"
)

const (
	requestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
)

// Request IDs are nanoids over an alphanumeric alphabet so they stay valid
// under requestIDPattern when echoed back by a trusting upstream.
const (
	requestIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	requestIDLength   = 21
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

var requestIDFallback atomic.Uint64

// RequestIDConfig controls request-id reuse.
type RequestIDConfig struct {
	// TrustUpstream reuses a well-formed incoming X-Request-ID.
	TrustUpstream bool
}

// RequestID assigns a fresh request ID to every request. See
// RequestIDWithConfig.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig assigns each request an ID, stores it in the gin
// context under "request_id", echoes it in the X-Request-ID response header
// and attaches it to the request context for structured logging.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id string
		if cfg.TrustUpstream {
			if upstream := c.GetHeader(requestIDHeader); requestIDPattern.MatchString(upstream) {
				id = upstream
			}
		}
		if id == "" {
			id = newRequestID()
		}

		c.Set(requestIDContextKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			logger.WithContextAttrs(c.Request.Context(), slog.String("request_id", id)),
		)

		c.Next()
	}
}

// GetRequestID returns the request ID set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}

func newRequestID() string {
	id, err := nanoid.Generate(requestIDAlphabet, requestIDLength)
	if err != nil {
		// Entropy source failed; fall back to a clock and counter pair.
		return fmt.Sprintf("%s-%s",
			strconv.FormatInt(time.Now().UnixNano(), 36),
			strconv.FormatUint(requestIDFallback.Add(1), 36))
	}
	return id
}
