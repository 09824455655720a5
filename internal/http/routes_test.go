package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fakes "github.com/target/authweb/internal/mocks/auth"
	"github.com/target/authweb/internal/service/account"
	"github.com/target/authweb/internal/service/usercache"
	"github.com/target/authweb/internal/service/userdata"
)

// newTestApp wires the real account and userdata services over the stub API.
func newTestApp(t *testing.T, api *fakes.StubAuthAPI) http.Handler {
	t.Helper()
	users := userdata.NewService(userdata.ServiceOptions{API: api, Cache: usercache.NewMemoryStore()})
	acct := account.NewService(account.ServiceOptions{API: api, Sessions: users})
	return NewTestRouter(t, RouterServices{
		Account:        acct,
		UserData:       users,
		SessionCookies: []string{"token"},
		CookieDomain:   "",
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func withSession(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: "token", Value: "live-session"})
	return r
}

func TestNewRouter_RequiresAccount(t *testing.T) {
	_, err := NewRouter(RouterServices{})
	assert.Error(t, err)
}

func TestRouter_HealthAndNotFound(t *testing.T) {
	h := newTestApp(t, fakes.NewStubAuthAPI())

	w := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, healthResponse, w.Body.String())

	w = serve(h, httptest.NewRequest(http.MethodHead, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.Header.Set("Accept", "text/html")
	w = serve(h, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "404")
	assert.Contains(t, w.Body.String(), "The page you")

	r = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.Header.Set("Accept", "application/json")
	w = serve(h, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"not_found"`)
}

func TestRouter_StaticAssetsFromEmbeddedFS(t *testing.T) {
	h := newTestApp(t, fakes.NewStubAuthAPI())
	w := serve(h, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age")
}
