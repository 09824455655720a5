package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
)

// TestCSRFToken is the double-submit token used by NewFormRequest.
const TestCSRFToken = "test-csrf-token"

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// NewTestRouter builds the router with test templates. A nil renderer in
// services is filled in; the test is skipped when templates are missing.
func NewTestRouter(t *testing.T, services RouterServices) http.Handler {
	t.Helper()
	if services.Renderer == nil {
		services.Renderer = RequireTemplateRenderer(t)
	}
	h, err := NewRouter(services)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return h
}

// NewFormRequest builds a form POST that passes CSRF validation.
func NewFormRequest(target string, form url.Values) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFCookieName, TestCSRFToken)
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: TestCSRFToken})
	return r
}

// AsHTMX marks r as an htmx request carrying the CSRF header.
func AsHTMX(r *http.Request) *http.Request {
	r.Header.Set("Hx-Request", "true")
	if _, err := r.Cookie(DefaultCSRFCookieName); err != nil {
		r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: TestCSRFToken})
	}
	r.Header.Set(DefaultCSRFHeaderName, TestCSRFToken)
	return r
}

// ContainsAll checks if a string contains all the given substrings.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
