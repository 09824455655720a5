package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/authweb/config"
)

// fakeAPI accepts ada@example.com / pw and issues a token cookie.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	signIn := func(w http.ResponseWriter) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "sess-1", Path: "/", HttpOnly: true})
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"success"}`)
	}
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, _ *http.Request) { signIn(w) })
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, _ *http.Request) { signIn(w) })
	mux.HandleFunc("GET /api/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ck, err := r.Cookie("token"); err != nil || ck.Value != "sess-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"You are not logged in"}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"user":{"id":"u1","name":"Ada","email":"ada@example.com"}}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cliHarness struct {
	t   *testing.T
	cfg config.CLIConfig
}

func newHarness(t *testing.T, apiURL string) *cliHarness {
	return &cliHarness{t: t, cfg: config.CLIConfig{
		APIURL:     apiURL,
		CookieFile: filepath.Join(t.TempDir(), "authweb", "cookies.json"),
		Timeout:    2 * time.Second,
	}}
}

func (h *cliHarness) run(args ...string) (string, error) {
	var out bytes.Buffer
	err := run(context.Background(), runConfig{
		Args:   args,
		Config: h.cfg,
		Out:    &out,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return out.String(), err
}

func TestCLI_SessionPersistsAcrossCommands(t *testing.T) {
	h := newHarness(t, fakeAPI(t).URL)

	out, err := h.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "not signed in\n", out)

	out, err = h.run("register", "-name", "Ada", "-email", "ada@example.com", "-password", "pw", "-confirm", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")

	info, err := os.Stat(h.cfg.CookieFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Ada <ada@example.com> (id u1)\n", out)

	out, err = h.run("logout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out\n", out)
	_, err = os.Stat(h.cfg.CookieFile)
	assert.True(t, os.IsNotExist(err))

	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "not signed in\n", out)
}

func TestCLI_Login(t *testing.T) {
	h := newHarness(t, fakeAPI(t).URL)

	out, err := h.run("login", "-email", "ada@example.com", "-password", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Signed in as ada@example.com\n", out)

	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
}

func TestCLI_RegisterValidatesLocally(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	h := newHarness(t, srv.URL)

	out, err := h.run("register", "-email", "ada@example.com", "-password", "pw", "-confirm", "pw")
	require.ErrorIs(t, err, errFormRejected)
	assert.Equal(t, "name: Name is required\n", out)

	out, err = h.run("register", "-name", "Ada", "-email", "ada@example.com", "-password", "pw", "-confirm", "nope")
	require.ErrorIs(t, err, errFormRejected)
	assert.Equal(t, "password: Passwords do not match\n", out)
	assert.Zero(t, calls)
}

func TestCLI_RegisterPrintsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w,
			`{"errors":{"fieldErrors":{"password":["too short"],"email":["already taken"]}}}`)
	}))
	t.Cleanup(srv.Close)
	h := newHarness(t, srv.URL)

	out, err := h.run("register", "-name", "Ada", "-email", "ada@example.com", "-password", "pw", "-confirm", "pw")
	require.ErrorIs(t, err, errFormRejected)
	assert.Equal(t, "email: already taken\npassword: too short\n", out)
}

func TestCLI_LoginPrintsServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Incorrect email or password"}`)
	}))
	t.Cleanup(srv.Close)
	h := newHarness(t, srv.URL)

	out, err := h.run("login", "-email", "ada@example.com", "-password", "bad")
	require.ErrorIs(t, err, errFormRejected)
	assert.Equal(t, "Incorrect email or password\n", out)
}

func TestCLI_Usage(t *testing.T) {
	h := newHarness(t, "http://localhost:3000")

	out, err := h.run()
	require.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "Usage: authweb-cli")
	assert.Contains(t, out, "whoami")

	out, err = h.run("frobnicate")
	require.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, `unknown command "frobnicate"`)
}

func TestSessionJar_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := openSessionJar(path, "http://localhost:3000")
	assert.Error(t, err)
}
