package pkg

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSetToast(t *testing.T) {
	c, w := newResponseTestContext()

	SetToast(c, "Filters reset", ToastKindSuccess)

	var trigger map[string]map[string]string
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &trigger); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	toast := trigger["showToast"]
	if toast["message"] != "Filters reset" || toast["type"] != ToastKindSuccess {
		t.Errorf("showToast = %v", toast)
	}
}

func TestToastError(t *testing.T) {
	c, w := newResponseTestContext()

	ToastError(c, http.StatusTooManyRequests, "slow down")
	c.Writer.WriteHeaderNow()

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, w.Code)
	}
	if got := w.Header().Get("HX-Reswap"); got != "none" {
		t.Errorf("HX-Reswap = %q, want none", got)
	}
	var trigger map[string]map[string]string
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &trigger); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if toast := trigger["showToast"]; toast["type"] != ToastKindError || toast["message"] != "slow down" {
		t.Errorf("showToast = %v", toast)
	}
}

func TestRedirect(t *testing.T) {
	t.Run("htmx", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tasks/state", nil)
		req.Header.Set("HX-Request", "true")
		c, w := newTestContext(req)

		if !IsHTMX(c) {
			t.Fatal("IsHTMX = false for an htmx request")
		}
		Redirect(c, "/tasks?status=done")
		c.Writer.WriteHeaderNow()

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if got := w.Header().Get("HX-Redirect"); got != "/tasks?status=done" {
			t.Errorf("HX-Redirect = %q", got)
		}
	})

	t.Run("plain", func(t *testing.T) {
		c, w := newTestContext(httptest.NewRequest(http.MethodPost, "/tasks/state", nil))

		if IsHTMX(c) {
			t.Fatal("IsHTMX = true for a plain request")
		}
		Redirect(c, "/tasks")
		c.Writer.WriteHeaderNow()

		if w.Code != http.StatusSeeOther {
			t.Errorf("expected status %d, got %d", http.StatusSeeOther, w.Code)
		}
		if got := w.Header().Get("Location"); got != "/tasks" {
			t.Errorf("Location = %q", got)
		}
	})
}
