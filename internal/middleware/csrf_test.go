package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

const testCSRFSecret = "test-secret-key-for-csrf"

func setupCSRFRouter() *gin.Engine {
	r := gin.New()
	r.Use(CSRF(testCSRFSecret))
	r.GET("/form", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	r.POST("/form", okHandler)
	r.PUT("/update", okHandler)
	r.PATCH("/patch", okHandler)
	r.DELETE("/delete", okHandler)
	return r
}

// getCSRFToken performs a GET and returns the token from the body and the
// cookie value.
func getCSRFToken(t *testing.T, r *gin.Engine) (token, cookie string) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /form: expected 200, got %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == csrfCookieName {
			cookie = c.Value
		}
	}
	if cookie == "" {
		t.Fatal("expected _csrf_token cookie to be set")
	}
	return w.Body.String(), cookie
}

func testGuard() *csrfGuard {
	return &csrfGuard{secret: []byte(testCSRFSecret)}
}

func mustNewToken(t *testing.T, g *csrfGuard) string {
	t.Helper()
	token, err := g.newToken()
	if err != nil {
		t.Fatalf("newToken: %v", err)
	}
	return token
}

func TestCSRF_GET_SetsTokenCookie(t *testing.T) {
	token, cookie := getCSRFToken(t, setupCSRFRouter())

	if token != cookie {
		t.Errorf("context token %q differs from cookie %q", token, cookie)
	}
	if !testGuard().valid(token) {
		t.Errorf("issued token %q does not verify", token)
	}
}

func TestCSRF_GET_CookieAttributes(t *testing.T) {
	w := httptest.NewRecorder()
	setupCSRFRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.HttpOnly {
		t.Error("expected HttpOnly=false so scripts can echo the token")
	}
	if c.SameSite != http.SameSiteStrictMode {
		t.Errorf("SameSite = %v, want Strict", c.SameSite)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
	if c.Secure {
		t.Error("expected Secure=false outside release mode")
	}
}

func TestCSRF_GET_ReusesValidCookie(t *testing.T) {
	r := setupCSRFRouter()
	_, cookie := getCSRFToken(t, r)

	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: cookie})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != cookie {
		t.Errorf("expected existing token to be reused, got %q", w.Body.String())
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no new cookie for a valid existing token")
	}
}

func TestCSRF_GET_InvalidCookie_RegeneratesToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/form", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "forged.signature"})
	w := httptest.NewRecorder()
	setupCSRFRouter().ServeHTTP(w, req)

	if w.Body.String() == "forged.signature" {
		t.Fatal("forged token was accepted")
	}
	if len(w.Result().Cookies()) != 1 {
		t.Error("expected a replacement cookie")
	}
}

func TestCSRF_UnsafeMethods_ValidToken(t *testing.T) {
	r := setupCSRFRouter()
	_, cookie := getCSRFToken(t, r)

	tests := []struct {
		name   string
		method string
		path   string
		form   bool
	}{
		{"POST form field", http.MethodPost, "/form", true},
		{"POST header", http.MethodPost, "/form", false},
		{"PUT header", http.MethodPut, "/update", false},
		{"PATCH header", http.MethodPatch, "/patch", false},
		{"DELETE header", http.MethodDelete, "/delete", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.form {
				body := url.Values{csrfFormField: {cookie}}.Encode()
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(body))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
				req.Header.Set(csrfHeaderName, cookie)
			}
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: cookie})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCSRF_POST_Rejected(t *testing.T) {
	g := testGuard()
	valid := mustNewToken(t, g)
	other := mustNewToken(t, g)
	nonce, _, _ := strings.Cut(valid, ".")
	tampered := nonce + ".AAAA"
	foreign := mustNewToken(t, &csrfGuard{secret: []byte("other")})

	tests := []struct {
		name        string
		cookie      string
		header      string
		wantMessage string
	}{
		{"missing cookie", "", valid, "CSRF token missing"},
		{"missing request token", valid, "", "CSRF token missing"},
		{"mismatched tokens", valid, other, "CSRF token invalid"},
		{"forged equal tokens", "forged.sig", "forged.sig", "CSRF token invalid"},
		{"tampered signature on both", tampered, tampered, "CSRF token invalid"},
		{"token signed with another secret", foreign, foreign, "CSRF token invalid"},
	}

	r := setupCSRFRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/form", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(csrfHeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("expected JSON body: %v", err)
			}
			if body["message"] != tt.wantMessage {
				t.Errorf("message = %v, want %q", body["message"], tt.wantMessage)
			}
		})
	}
}

func TestCSRF_POST_HTMXRejectionIsToast(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/form", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	setupCSRFRouter().ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if w.Header().Get("HX-Reswap") != "none" || !strings.Contains(w.Header().Get("HX-Trigger"), "CSRF token missing") {
		t.Errorf("expected toast headers, got %v", w.Header())
	}
}

func TestCSRF_EmptySecret(t *testing.T) {
	r := gin.New()
	r.Use(CSRF("   "))
	r.GET("/form", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 without a secret, got %d", w.Code)
	}
}

func TestCSRFGuard_Valid(t *testing.T) {
	g := testGuard()
	token := mustNewToken(t, g)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"issued token", token, true},
		{"empty", "", false},
		{"no separator", "abcdef", false},
		{"empty nonce", "." + g.sign(""), false},
		{"empty signature", "abc.", false},
		{"wrong signature", "abc.def", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.valid(tt.token); got != tt.want {
				t.Errorf("valid(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestGetCSRFToken_EmptyWhenNotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetCSRFToken(c); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
}

func TestCSRF_APIRoute_ExemptWhenMiddlewareNotApplied(t *testing.T) {
	r := gin.New()

	pages := r.Group("/")
	pages.Use(CSRF(testCSRFSecret))
	pages.POST("/tasks/state", okHandler)

	api := r.Group("/api/v1")
	api.POST("/tasks/state", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/tasks/state", nil))
	if w.Code != http.StatusOK {
		t.Errorf("API route: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks/state", nil))
	if w.Code != http.StatusForbidden {
		t.Errorf("page route: expected 403, got %d", w.Code)
	}
}
