// Package account runs the register, login and logout flows and maps their
// results onto form state the views can render.
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/authweb/internal/adapters/authapi"
	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
	"github.com/target/authweb/internal/http/validation"
	"github.com/target/authweb/internal/observability/metrics"
	"github.com/target/authweb/internal/observability/statsd"
	"github.com/target/authweb/internal/ports"
)

// Banner messages for failures that carry no usable server message.
const (
	MsgGenericError = "An error occurred"
	MsgUnreachable  = "Unable to reach the server. Please try again."
)

// HomePath is where a successful register or login lands.
const HomePath = "/"

// SessionInvalidator drops whatever is cached for a session.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, creds ports.Credentials)
}

// ServiceOptions groups dependencies for Service.
type ServiceOptions struct {
	API      ports.AuthAPI
	Sessions SessionInvalidator // optional
	Metrics  statsd.Sink        // optional
	Logger   *slog.Logger
}

// Service orchestrates the account forms against the auth API.
type Service struct {
	api      ports.AuthAPI
	sessions SessionInvalidator
	metrics  statsd.Sink
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: opts.API, sessions: opts.Sessions, metrics: opts.Metrics, logger: logger}
}

// Outcome is the result of a form submission.
// Redirect is set only on success; Err holds the underlying API or transport error.
type Outcome struct {
	Form       FormState
	Redirect   string
	SetCookies []*http.Cookie
	Err        error
}

// Succeeded reports whether the submission was accepted.
func (o Outcome) Succeeded() bool { return o.Redirect != "" }

// Register validates in and, when it passes, submits it.
func (s *Service) Register(ctx context.Context, creds ports.Credentials, in domainauth.RegisterInput) (out Outcome) {
	form := NewFormState(map[string]string{
		domainauth.FieldName:  in.Name,
		domainauth.FieldEmail: in.Email,
	})
	if err := validation.ValidateRegistration(in); err != nil {
		form.setValidationError(err)
		s.record("register", time.Time{}, err)
		return Outcome{Form: form}
	}

	form.Loading = true
	defer func() { out.Form.Loading = false }()

	start := time.Now()
	res, err := s.api.Register(ctx, creds, in)
	s.record("register", start, err)
	if err != nil {
		return s.failed(ctx, "register", form, err)
	}
	return s.succeeded(ctx, creds, form, res)
}

// Login validates in and, when it passes, submits it.
func (s *Service) Login(ctx context.Context, creds ports.Credentials, in domainauth.LoginInput) (out Outcome) {
	form := NewFormState(map[string]string{domainauth.FieldEmail: in.Email})
	if err := validation.ValidateLogin(in); err != nil {
		form.setValidationError(err)
		s.record("login", time.Time{}, err)
		return Outcome{Form: form}
	}

	form.Loading = true
	defer func() { out.Form.Loading = false }()

	start := time.Now()
	res, err := s.api.Login(ctx, creds, in)
	s.record("login", start, err)
	if err != nil {
		return s.failed(ctx, "login", form, err)
	}
	return s.succeeded(ctx, creds, form, res)
}

// LogoutOutcome is the result of a logout. On failure Err is set and the
// cached user is left alone, since the backend session may still be live.
type LogoutOutcome struct {
	SetCookies []*http.Cookie
	Err        error
}

// Logout ends the session identified by creds.
func (s *Service) Logout(ctx context.Context, creds ports.Credentials) LogoutOutcome {
	start := time.Now()
	res, err := s.api.Logout(ctx, creds)
	s.record("logout", start, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "logout failed", "error", err, "code", apperrors.GetCode(err))
		return LogoutOutcome{Err: err}
	}
	s.invalidate(ctx, creds)
	return LogoutOutcome{SetCookies: res.SetCookies}
}

func (s *Service) succeeded(ctx context.Context, creds ports.Credentials, form FormState, res *ports.Result) Outcome {
	s.invalidate(ctx, creds)
	out := Outcome{Form: form, Redirect: HomePath}
	if res != nil {
		out.SetCookies = res.SetCookies
	}
	return out
}

// failed maps an API error onto the form: a password field error wins,
// otherwise the server message (or a generic one) goes to the banner.
func (s *Service) failed(ctx context.Context, op string, form FormState, err error) Outcome {
	if apiErr, ok := authapi.AsAPIError(err); ok {
		if msg := apiErr.FieldErrors.First(domainauth.FieldPassword); msg != "" {
			form.FieldErrors[domainauth.FieldPassword] = msg
		} else if apiErr.Message != "" {
			form.General = apiErr.Message
		} else {
			form.General = MsgGenericError
		}
		s.logger.InfoContext(ctx, op+" rejected", "status", apiErr.Status, "code", apperrors.GetCode(err))
		return Outcome{Form: form, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		form.General = MsgGenericError
	} else {
		form.General = MsgUnreachable
	}
	s.logger.ErrorContext(ctx, op+" failed", "error", err, "code", apperrors.GetCode(err))
	return Outcome{Form: form, Err: err}
}

func (s *Service) invalidate(ctx context.Context, creds ports.Credentials) {
	if s.sessions != nil {
		s.sessions.Invalidate(ctx, creds)
	}
}

// record emits the attempt; a zero start means the API was never called.
func (s *Service) record(action string, start time.Time, err error) {
	m := metrics.AccountMetric{Action: action, Result: metrics.ResultSuccess, Err: err}
	if !start.IsZero() {
		m.Duration = time.Since(start)
	}
	if err != nil {
		m.Result = metrics.ResultError
		if _, isAPI := authapi.AsAPIError(err); isAPI || apperrors.IsValidation(err) {
			m.Result = metrics.ResultRejected
		}
	}
	metrics.EmitAccountAction(s.metrics, m)
}
