package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/datatable/internal/domain"
	"github.com/simp-lee/datatable/internal/pkg"
)

var errPanic = domain.NewAppError(domain.CodeInternal, "internal server error", nil)

// Recovery recovers from handler panics, logs the value with its stack and
// answers 500: an error toast for htmx requests, the errors/500.html page
// for requests that accept HTML and the JSON envelope otherwise.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", rec),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)
			abortWithError(c, errPanic)
		}()
		c.Next()
	}
}

// errorPages maps statuses to their error templates. Other 4xx statuses use
// errors/400.html and 5xx statuses use errors/500.html.
var errorPages = map[int]string{
	http.StatusBadRequest:          "errors/400.html",
	http.StatusNotFound:            "errors/404.html",
	http.StatusInternalServerError: "errors/500.html",
}

// abortWithError stops the chain and writes err.
func abortWithError(c *gin.Context, err *domain.AppError) {
	c.Abort()
	RenderError(c, err)
}

// RenderError writes err in the shape the client expects: an error toast for
// htmx requests, an error page for requests that accept HTML and the JSON
// envelope otherwise. The status comes from domain.HTTPStatusCode.
func RenderError(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)
	switch {
	case pkg.IsHTMX(c):
		pkg.ToastError(c, status, errorMessage(err))
		c.Writer.WriteHeaderNow()
	case wantsHTML(c):
		renderHTMLError(c, status)
	default:
		pkg.Error(c, err)
	}
}

func errorMessage(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// renderHTMLError renders the error page for status, falling back to plain
// text when no renderer or template is available.
func renderHTMLError(c *gin.Context, status int) {
	defer func() {
		if r := recover(); r != nil {
			c.Data(status, "text/plain; charset=utf-8",
				[]byte(fmt.Sprintf("%d %s", status, http.StatusText(status))))
		}
	}()
	c.HTML(status, errorPage(status), gin.H{"Status": status, "RequestID": GetRequestID(c)})
}

func errorPage(status int) string {
	if tmpl, ok := errorPages[status]; ok {
		return tmpl
	}
	if status < http.StatusInternalServerError {
		return errorPages[http.StatusBadRequest]
	}
	return errorPages[http.StatusInternalServerError]
}

// wantsHTML reports whether the Accept header names text/html.
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html")
}
