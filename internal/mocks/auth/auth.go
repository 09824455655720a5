package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
	"github.com/target/authweb/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.AuthAPI = (*StubAuthAPI)(nil)

// StubAuthAPI simulates the auth API with a fixed user and per-method overrides.
// With no overrides, Register/Login succeed with a session cookie, Logout clears it,
// and CurrentUser returns User when credentials are present.
type StubAuthAPI struct {
	RegisterFunc    func(ctx context.Context, creds ports.Credentials, in domainauth.RegisterInput) (*ports.Result, error)
	LoginFunc       func(ctx context.Context, creds ports.Credentials, in domainauth.LoginInput) (*ports.Result, error)
	LogoutFunc      func(ctx context.Context, creds ports.Credentials) (*ports.Result, error)
	CurrentUserFunc func(ctx context.Context, creds ports.Credentials) (*domainauth.User, error)

	// User is returned by CurrentUser when no override is set.
	User domainauth.User
	// CookieName names the session cookie handed out on Register/Login.
	CookieName string

	registerCalls    atomic.Int32
	loginCalls       atomic.Int32
	logoutCalls      atomic.Int32
	currentUserCalls atomic.Int32

	mu            sync.Mutex
	lastRegister  domainauth.RegisterInput
	lastLogin     domainauth.LoginInput
	lastCookieSet []ports.Credentials
}

// NewStubAuthAPI creates a StubAuthAPI with sensible defaults.
func NewStubAuthAPI() *StubAuthAPI {
	return &StubAuthAPI{
		User:       domainauth.User{ID: "stub-user-1", Name: "Stub User", Email: "stub.user@example.com"},
		CookieName: "token",
	}
}

func (s *StubAuthAPI) Register(
	ctx context.Context,
	creds ports.Credentials,
	in domainauth.RegisterInput,
) (*ports.Result, error) {
	s.registerCalls.Add(1)
	s.record(creds, func() { s.lastRegister = in })
	if s.RegisterFunc != nil {
		return s.RegisterFunc(ctx, creds, in)
	}
	return s.sessionResult("stub-session"), nil
}

func (s *StubAuthAPI) Login(ctx context.Context, creds ports.Credentials, in domainauth.LoginInput) (*ports.Result, error) {
	s.loginCalls.Add(1)
	s.record(creds, func() { s.lastLogin = in })
	if s.LoginFunc != nil {
		return s.LoginFunc(ctx, creds, in)
	}
	return s.sessionResult("stub-session"), nil
}

func (s *StubAuthAPI) Logout(ctx context.Context, creds ports.Credentials) (*ports.Result, error) {
	s.logoutCalls.Add(1)
	s.record(creds, nil)
	if s.LogoutFunc != nil {
		return s.LogoutFunc(ctx, creds)
	}
	res := s.sessionResult("")
	res.SetCookies[0].MaxAge = -1
	return res, nil
}

func (s *StubAuthAPI) CurrentUser(ctx context.Context, creds ports.Credentials) (*domainauth.User, error) {
	s.currentUserCalls.Add(1)
	s.record(creds, nil)
	if s.CurrentUserFunc != nil {
		return s.CurrentUserFunc(ctx, creds)
	}
	if creds.Empty() {
		return nil, apperrors.Unauthorized("You are not logged in")
	}
	u := s.User
	return &u, nil
}

// RegisterCalls returns how many times Register was invoked.
func (s *StubAuthAPI) RegisterCalls() int { return int(s.registerCalls.Load()) }

// LoginCalls returns how many times Login was invoked.
func (s *StubAuthAPI) LoginCalls() int { return int(s.loginCalls.Load()) }

// LogoutCalls returns how many times Logout was invoked.
func (s *StubAuthAPI) LogoutCalls() int { return int(s.logoutCalls.Load()) }

// CurrentUserCalls returns how many times CurrentUser was invoked.
func (s *StubAuthAPI) CurrentUserCalls() int { return int(s.currentUserCalls.Load()) }

// LastRegister returns the most recent Register payload.
func (s *StubAuthAPI) LastRegister() domainauth.RegisterInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRegister
}

// LastLogin returns the most recent Login payload.
func (s *StubAuthAPI) LastLogin() domainauth.LoginInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLogin
}

// LastCredentials returns the credentials of the most recent call of any kind.
func (s *StubAuthAPI) LastCredentials() ports.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lastCookieSet) == 0 {
		return ports.Credentials{}
	}
	return s.lastCookieSet[len(s.lastCookieSet)-1]
}

func (s *StubAuthAPI) record(creds ports.Credentials, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCookieSet = append(s.lastCookieSet, creds)
	if fn != nil {
		fn()
	}
}

func (s *StubAuthAPI) sessionResult(value string) *ports.Result {
	name := s.CookieName
	if name == "" {
		name = "token"
	}
	return &ports.Result{SetCookies: []*http.Cookie{{Name: name, Value: value, Path: "/", HttpOnly: true}}}
}
