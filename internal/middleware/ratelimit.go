package middleware

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/simp-lee/datatable/internal/domain"
)

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	// RPS is the sustained requests per second allowed per client.
	RPS float64
	// Burst is the token bucket size.
	Burst int
	// MaxClients bounds the number of tracked clients; the least recently
	// seen client is evicted first.
	MaxClients int
	// KeyFunc identifies the client. Defaults to gin's ClientIP.
	KeyFunc func(*gin.Context) string
}

// RateLimiter holds one token bucket per client.
type RateLimiter struct {
	cfg      RateLimitConfig
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
}

// NewRateLimiter returns a RateLimiter for cfg. Non-positive MaxClients
// falls back to 10000.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 10000
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	cache, err := lru.New[string, *rate.Limiter](cfg.MaxClients)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &RateLimiter{cfg: cfg, limiters: cache}
}

// Allow reports whether the client identified by key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

// Clients returns the number of tracked clients.
func (l *RateLimiter) Clients() int {
	return l.limiters.Len()
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters.Get(key); ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)
	l.limiters.Add(key, lim)
	return lim
}

// Handler rejects requests over the client's budget with 429 and a
// Retry-After hint.
func (l *RateLimiter) Handler(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	retryAfter := "1"
	if l.cfg.RPS > 0 && l.cfg.RPS < 1 {
		retryAfter = strconv.Itoa(int(1/l.cfg.RPS + 0.5))
	}

	return func(c *gin.Context) {
		key := l.cfg.KeyFunc(c)
		if l.Allow(key) {
			c.Next()
			return
		}
		log.WarnContext(c.Request.Context(), "rate limited",
			slog.String("client", key),
			slog.String("path", c.Request.URL.Path),
		)
		c.Header("Retry-After", retryAfter)
		abortWithError(c, domain.ErrRateLimited)
	}
}

// RateLimit is shorthand for NewRateLimiter(cfg).Handler(log).
func RateLimit(log *slog.Logger, cfg RateLimitConfig) gin.HandlerFunc {
	return NewRateLimiter(cfg).Handler(log)
}
