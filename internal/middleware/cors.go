package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/datatable/internal/config"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists allowed origins; "*" allows any. Empty denies all
	// cross-origin requests.
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	// MaxAge is how long a preflight result may be cached. Zero omits the
	// header.
	MaxAge time.Duration
}

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	defaultCORSHeaders = []string{
		"Origin", "Content-Type", "Accept", "X-Request-ID", "X-CSRF-Token",
		"HX-Request", "HX-Current-URL", "HX-Target", "HX-Trigger",
	}
)

// DefaultCORSConfig allows any origin and is meant for development.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: slices.Clone(defaultCORSMethods),
		AllowHeaders: slices.Clone(defaultCORSHeaders),
		MaxAge:       24 * time.Hour,
	}
}

// CORSFromConfig resolves the server CORS settings for a gin mode. Without
// configured origins, debug mode allows any origin and other modes deny
// cross-origin requests. Empty method and header lists take the defaults.
func CORSFromConfig(mode string, cfg config.CORSConfig) CORSConfig {
	out := CORSConfig{
		AllowOrigins:     slices.Clone(cfg.AllowOrigins),
		AllowMethods:     slices.Clone(cfg.AllowMethods),
		AllowHeaders:     slices.Clone(cfg.AllowHeaders),
		AllowCredentials: cfg.AllowCredentials,
	}
	if len(out.AllowOrigins) == 0 && mode == gin.DebugMode {
		out.AllowOrigins = []string{"*"}
	}
	if len(out.AllowMethods) == 0 {
		out.AllowMethods = slices.Clone(defaultCORSMethods)
	}
	if len(out.AllowHeaders) == 0 {
		out.AllowHeaders = slices.Clone(defaultCORSHeaders)
	}
	if d, err := time.ParseDuration(cfg.MaxAge); err == nil && d > 0 {
		out.MaxAge = d
	}
	return out
}

// CORS handles cross-origin requests with DefaultCORSConfig.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig handles cross-origin requests and answers preflights with
// 204. Requests from origins that are not allowed pass through without CORS
// headers.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	wildcard := slices.Contains(cfg.AllowOrigins, "*")
	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cfg.MaxAge / time.Second))
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		c.Writer.Header().Add("Vary", "Origin")

		switch {
		case wildcard && !cfg.AllowCredentials:
			c.Header("Access-Control-Allow-Origin", "*")
		case wildcard || slices.Contains(cfg.AllowOrigins, origin):
			// Credentialed responses must name the origin.
			c.Header("Access-Control-Allow-Origin", origin)
		default:
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Methods", allowMethods)
		c.Header("Access-Control-Allow-Headers", allowHeaders)
		c.Header("Access-Control-Expose-Headers", requestIDHeader)
		if maxAge != "" {
			c.Header("Access-Control-Max-Age", maxAge)
		}
		if cfg.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
