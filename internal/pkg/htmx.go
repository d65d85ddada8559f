package pkg

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Toast kinds understood by the page script.
const (
	ToastKindSuccess = "success"
	ToastKindError   = "error"
	ToastKindInfo    = "info"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// SetToast asks the page to show a toast through an HX-Trigger event.
func SetToast(c *gin.Context, message, kind string) {
	trigger, _ := json.Marshal(map[string]any{
		"showToast": map[string]string{
			"message": message,
			"type":    kind,
		},
	})
	c.Header("HX-Trigger", string(trigger))
}

// ToastError reports a failed htmx action without swapping the target.
func ToastError(c *gin.Context, status int, message string) {
	c.Header("HX-Reswap", "none")
	SetToast(c, message, ToastKindError)
	c.Status(status)
}

// Redirect sends the client to location: an HX-Redirect for htmx requests,
// a 303 otherwise.
func Redirect(c *gin.Context, location string) {
	if IsHTMX(c) {
		c.Header("HX-Redirect", location)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}
