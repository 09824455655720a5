// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"time"

	domainauth "github.com/target/authweb/internal/domain/auth"
)

// Credentials carries the session cookies a caller holds for the auth API.
// The browser's cookies are forwarded as-is; the CLI leaves this empty and relies on its jar.
type Credentials struct {
	Cookies []*http.Cookie
}

// Empty reports whether no session cookie is present.
func (c Credentials) Empty() bool { return len(c.Cookies) == 0 }

// SessionKey returns a stable, opaque key for the session these cookies identify.
// Raw cookie values never leave this function.
func (c Credentials) SessionKey() string {
	if c.Empty() {
		return ""
	}
	pairs := make([]string, 0, len(c.Cookies))
	for _, ck := range c.Cookies {
		pairs = append(pairs, ck.Name+"="+ck.Value)
	}
	sort.Strings(pairs)
	h := sha256.New()
	for _, p := range pairs {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Result is what a state-changing auth call hands back to the caller.
// SetCookies must be relayed to the browser so the backend session follows the user.
type Result struct {
	SetCookies []*http.Cookie
}

// AuthAPI is the session client for the remote authentication service.
type AuthAPI interface {
	Register(ctx context.Context, creds Credentials, in domainauth.RegisterInput) (*Result, error)
	Login(ctx context.Context, creds Credentials, in domainauth.LoginInput) (*Result, error)
	Logout(ctx context.Context, creds Credentials) (*Result, error)
	CurrentUser(ctx context.Context, creds Credentials) (*domainauth.User, error)
}

// UserStore caches resolved users by session key.
// A miss returns (nil, nil).
type UserStore interface {
	Get(ctx context.Context, key string) (*domainauth.User, error)
	Set(ctx context.Context, key string, u domainauth.User, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
