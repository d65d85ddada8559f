package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/datatable/internal/domain"
)

// Timeout attaches a deadline of d to the request context. Handlers that
// observe the context and return without writing get a 408 response.
// A non-positive d disables the deadline.
func Timeout(log *slog.Logger, d time.Duration) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() {
			return
		}
		log.WarnContext(ctx, "request timed out",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Duration("timeout", d),
		)
		abortWithError(c, domain.ErrTimeout)
	}
}
