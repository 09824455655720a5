package authapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
	"github.com/target/authweb/internal/observability/metrics"
	"github.com/target/authweb/internal/observability/statsd"
	"github.com/target/authweb/internal/ports"
	"github.com/target/authweb/internal/util"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing base", Options{}},
		{"relative base", Options{BaseURL: "/api"}},
		{"bad scheme", Options{BaseURL: "ftp://example.com"}},
		{"bad user path", Options{BaseURL: "http://example.com", UserPath: "data.["}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}

	c, err := New(Options{BaseURL: "https://api.example.com"})
	require.NoError(t, err)
	assert.Equal(t, DefaultUserPath, c.userPath)
}

func TestClient_Register_SendsFieldsVerbatim(t *testing.T) {
	var calls atomic.Int32
	var got map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathRegister, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-42", r.Header.Get(util.RequestIDHeader))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "new-session", Path: "/"})
		writeJSON(w, http.StatusCreated, `{"status":"success"}`)
	}))

	ctx := util.WithRequestID(context.Background(), "req-42")
	res, err := c.Register(ctx, ports.Credentials{}, domainauth.RegisterInput{
		Name: " Ada ", Email: "ada@example.com", Password: "pw", PasswordConfirm: "pw",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, map[string]string{
		"name": " Ada ", "email": "ada@example.com", "password": "pw", "passwordConfirm": "pw",
	}, got)
	require.Len(t, res.SetCookies, 1)
	assert.Equal(t, "new-session", res.SetCookies[0].Value)
}

func TestClient_Register_FieldErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest,
			`{"status":"fail","errors":{"fieldErrors":{"password":["too short"]}}}`)
	}))

	_, err := c.Register(context.Background(), ports.Credentials{}, domainauth.RegisterInput{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "too short", apiErr.FieldErrors.First(domainauth.FieldPassword))
	assert.Empty(t, apiErr.Message)
}

func TestClient_Register_MessageOnly(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusConflict, `{"status":"fail","message":"Email already exists"}`)
	}))

	_, err := c.Register(context.Background(), ports.Credentials{}, domainauth.RegisterInput{})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Email already exists", apiErr.Message)
	assert.Empty(t, apiErr.FieldErrors)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConflict))
}

func TestClient_UndecodableErrorBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))

	_, err := c.Login(context.Background(), ports.Credentials{}, domainauth.LoginInput{Email: "a", Password: "b"})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, "auth api returned status 500", apiErr.Error())
}

func TestDecodeAPIError_MalformedErrorsMember(t *testing.T) {
	apiErr := decodeAPIError(http.StatusBadRequest, []byte(`{"errors":["x"],"message":"Invalid input"}`))
	assert.Equal(t, "Invalid input", apiErr.Message)
	assert.Empty(t, apiErr.FieldErrors)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url})
	require.NoError(t, err)

	_, err = c.Register(context.Background(), ports.Credentials{}, domainauth.RegisterInput{})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.CurrentUser(ctx, ports.Credentials{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTimeout))
}

func TestClient_CurrentUser(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathCurrentUser, r.URL.Path)
		ck, err := r.Cookie("token")
		if err != nil || ck.Value != "abc" {
			writeJSON(w, http.StatusUnauthorized, `{"message":"You are not logged in"}`)
			return
		}
		writeJSON(w, http.StatusOK,
			`{"status":"success","data":{"user":{"id":"u1","name":"Ada","email":"ada@example.com"}}}`)
	}))

	creds := ports.Credentials{Cookies: []*http.Cookie{{Name: "token", Value: "abc"}}}
	u, err := c.CurrentUser(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, domainauth.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}, *u)

	_, err = c.CurrentUser(context.Background(), ports.Credentials{})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestClient_CurrentUser_NumericID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK,
			`{"status":"success","data":{"user":{"id":1,"name":"Ada","email":"ada@example.com"}}}`)
	}))

	u, err := c.CurrentUser(context.Background(), ports.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, domainauth.User{ID: "1", Name: "Ada", Email: "ada@example.com"}, *u)
}

func TestClient_CurrentUser_LargeNumericIDKeepsPrecision(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"user":{"id":9007199254740993,"name":"Ada","email":"a@b.c"}}}`)
	}))

	u, err := c.CurrentUser(context.Background(), ports.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", u.ID)
}

func TestClient_CurrentUser_UnexpectedShape(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"profile":{"id":"u1"}}}`)
	}))

	_, err := c.CurrentUser(context.Background(), ports.Credentials{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInternal))
}

func TestClient_CurrentUser_CustomPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"user":{"id":"u2","name":"Grace","email":"grace@example.com"}}`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL, UserPath: "user"})
	require.NoError(t, err)

	u, err := c.CurrentUser(context.Background(), ports.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.Name)
}

func TestClient_Logout_UsesGetAndForwardsCookies(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathLogout, r.URL.Path)
		ck, err := r.Cookie("token")
		require.NoError(t, err)
		assert.Equal(t, "abc", ck.Value)
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "", MaxAge: -1})
		w.WriteHeader(http.StatusOK)
	}))

	creds := ports.Credentials{Cookies: []*http.Cookie{{Name: "token", Value: "abc"}}}
	res, err := c.Logout(context.Background(), creds)
	require.NoError(t, err)
	require.Len(t, res.SetCookies, 1)
	assert.Equal(t, -1, res.SetCookies[0].MaxAge)
}

func TestClient_BasePathPrefixIsKept(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Options{BaseURL: srv.URL + "/backend"})
	require.NoError(t, err)
	_, err = c.Logout(context.Background(), ports.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "/backend"+PathLogout, path)
}

func TestClient_EmitsCallMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"You are not logged in"}`)
	}))
	t.Cleanup(srv.Close)

	var rec statsd.Recorder
	c, err := New(Options{BaseURL: srv.URL, Metrics: &rec})
	require.NoError(t, err)

	_, err = c.CurrentUser(context.Background(), ports.Credentials{})
	require.Error(t, err)

	counts := rec.Named("c", metrics.MetricAPIRequest)
	require.Len(t, counts, 1)
	assert.Equal(t, PathCurrentUser, counts[0].Tags["path"])
	assert.Equal(t, "401", counts[0].Tags["status"])
	assert.Equal(t, "unauthorized", counts[0].Tags["error_code"])
	assert.Len(t, rec.Named("ms", metrics.MetricAPIDuration), 1)
}
