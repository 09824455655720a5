// Package authapi is the session client for the remote authentication REST API.
package authapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
	"github.com/target/authweb/internal/observability/metrics"
	"github.com/target/authweb/internal/observability/statsd"
	"github.com/target/authweb/internal/ports"
	"github.com/target/authweb/internal/util"
)

// API paths consumed by the client.
const (
	PathRegister    = "/api/auth/register"
	PathLogin       = "/api/auth/login"
	PathLogout      = "/api/auth/logout"
	PathCurrentUser = "/api/users/me"
)

// DefaultUserPath is where /api/users/me nests the user record.
const DefaultUserPath = "data.user"

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
)

// Options configures a Client.
type Options struct {
	// BaseURL is the origin of the auth API (e.g., "http://localhost:3000").
	BaseURL string
	// HTTPClient is used for all calls. Defaults to a client with a 10s timeout.
	HTTPClient *http.Client
	// UserPath is a JMESPath expression locating the user in the current-user response.
	UserPath string
	Logger   *slog.Logger
	// Metrics receives one count and timing per call. Optional.
	Metrics statsd.Sink
}

// Client talks to the auth API on behalf of a browser session or the CLI.
type Client struct {
	base     *url.URL
	http     *http.Client
	userPath string
	logger   *slog.Logger
	metrics  statsd.Sink
}

var _ ports.AuthAPI = (*Client)(nil)

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("auth api base URL is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse auth api base URL: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("auth api base URL must be an absolute http(s) URL: %q", opts.BaseURL)
	}

	userPath := strings.TrimSpace(opts.UserPath)
	if userPath == "" {
		userPath = DefaultUserPath
	}
	if _, err := jmespath.Compile(userPath); err != nil {
		return nil, fmt.Errorf("invalid user path %q: %w", userPath, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{base: base, http: httpClient, userPath: userPath, logger: logger, metrics: opts.Metrics}, nil
}

// Register creates an account. On success the backend opens a session and
// the returned cookies must be relayed to the caller.
func (c *Client) Register(
	ctx context.Context,
	creds ports.Credentials,
	in domainauth.RegisterInput,
) (*ports.Result, error) {
	resp, err := c.do(ctx, request{Method: http.MethodPost, Path: PathRegister, Creds: creds, Body: in})
	if err != nil {
		return nil, err
	}
	return &ports.Result{SetCookies: resp.Cookies}, nil
}

// Login opens a session for existing credentials.
func (c *Client) Login(ctx context.Context, creds ports.Credentials, in domainauth.LoginInput) (*ports.Result, error) {
	resp, err := c.do(ctx, request{Method: http.MethodPost, Path: PathLogin, Creds: creds, Body: in})
	if err != nil {
		return nil, err
	}
	return &ports.Result{SetCookies: resp.Cookies}, nil
}

// Logout ends the session identified by creds.
func (c *Client) Logout(ctx context.Context, creds ports.Credentials) (*ports.Result, error) {
	resp, err := c.do(ctx, request{Method: http.MethodGet, Path: PathLogout, Creds: creds})
	if err != nil {
		return nil, err
	}
	return &ports.Result{SetCookies: resp.Cookies}, nil
}

// CurrentUser returns the user owning the session.
// A 401/403 comes back as an unauthorized AppError; a body without a user at
// the configured path is an internal error.
func (c *Client) CurrentUser(ctx context.Context, creds ports.Credentials) (*domainauth.User, error) {
	resp, err := c.do(ctx, request{Method: http.MethodGet, Path: PathCurrentUser, Creds: creds})
	if err != nil {
		return nil, err
	}
	return c.extractUser(resp.Body)
}

func (c *Client) extractUser(body []byte) (*domainauth.User, error) {
	// UseNumber keeps integer ids exact on the way through the user path.
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode current user response")
	}

	found, err := jmespath.Search(c.userPath, payload)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "evaluate user path %q", c.userPath)
	}
	if _, ok := found.(map[string]any); !ok {
		return nil, apperrors.Internalf("current user response has no user at %q", c.userPath)
	}

	raw, err := json.Marshal(found)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "re-encode user")
	}
	var u domainauth.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode user")
	}
	return &u, nil
}

// request groups the parameters of a single API call.
type request struct {
	Method string
	Path   string
	Creds  ports.Credentials
	Body   any
}

type response struct {
	Status  int
	Body    []byte
	Cookies []*http.Cookie
}

func (c *Client) do(ctx context.Context, r request) (*response, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "auth api call failed",
			"method", r.Method, "path", r.Path, "error", err)
		err = apperrors.FromTransport(err, "call auth api "+r.Path)
		c.observe(r, 0, start, err)
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.DebugContext(ctx, "close auth api response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		err = apperrors.FromTransport(err, "read auth api response "+r.Path)
		c.observe(r, resp.StatusCode, start, err)
		return nil, err
	}

	c.logger.DebugContext(ctx, "auth api call",
		"method", r.Method,
		"path", r.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := newStatusError(r, resp.StatusCode, body)
		c.observe(r, resp.StatusCode, start, err)
		return nil, err
	}
	c.observe(r, resp.StatusCode, start, nil)

	return &response{Status: resp.StatusCode, Body: body, Cookies: resp.Cookies()}, nil
}

func (c *Client) observe(r request, status int, start time.Time, err error) {
	metrics.EmitAPICall(c.metrics, metrics.APICallMetric{
		Path:     r.Path,
		Method:   r.Method,
		Status:   status,
		Duration: time.Since(start),
		Err:      err,
	})
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request body")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.base.JoinPath(r.Path).String(), body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build auth api request")
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := util.RequestID(ctx); id != "" {
		req.Header.Set(util.RequestIDHeader, id)
	}
	for _, ck := range r.Creds.Cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	return req, nil
}
