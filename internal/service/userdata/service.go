// Package userdata resolves who is signed in for a session, sharing fetches and
// cached results across requests.
package userdata

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
	"github.com/target/authweb/internal/ports"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is used when ServiceOptions.TTL is zero.
const DefaultCacheTTL = 30 * time.Second

// ServiceOptions groups dependencies for Service.
type ServiceOptions struct {
	API    ports.AuthAPI
	Cache  ports.UserStore // optional
	TTL    time.Duration
	Logger *slog.Logger
}

// Service fetches the current user for a session.
// At most one CurrentUser call is in flight per session key, and only
// authenticated results are cached.
type Service struct {
	api    ports.AuthAPI
	cache  ports.UserStore
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group

	// mu guards inflight and orders cache writes against Invalidate.
	mu       sync.Mutex
	inflight map[string]map[*fetch]struct{}
}

// fetch tracks one CurrentUser call so Invalidate can mark its result stale.
type fetch struct {
	stale bool
}

// NewService constructs a Service.
func NewService(opts ServiceOptions) *Service {
	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:      opts.API,
		cache:    opts.Cache,
		ttl:      ttl,
		logger:   logger,
		inflight: make(map[string]map[*fetch]struct{}),
	}
}

// Resolve returns the session state for creds. It never returns Unknown.
func (s *Service) Resolve(ctx context.Context, creds ports.Credentials) domainauth.SessionState {
	if creds.Empty() {
		return domainauth.Anonymous(nil)
	}
	key := creds.SessionKey()

	if u := s.cached(ctx, key); u != nil {
		return domainauth.Authenticated(*u)
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		// Detach from the first caller so its cancellation does not fail the other waiters.
		fetchCtx := context.WithoutCancel(ctx)
		f := s.begin(key)
		u, err := s.api.CurrentUser(fetchCtx, creds)
		s.finish(fetchCtx, key, f, u)
		if err != nil {
			return nil, err
		}
		return u, nil
	})
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return domainauth.Anonymous(nil)
		}
		s.logger.WarnContext(ctx, "current user lookup failed",
			"error", err,
			"code", apperrors.GetCode(err),
			"shared", shared)
		return domainauth.Anonymous(err)
	}

	u, ok := v.(*domainauth.User)
	if !ok || u == nil {
		err := apperrors.Internal("current user lookup returned no user")
		s.logger.WarnContext(ctx, "current user lookup failed", "error", err)
		return domainauth.Anonymous(err)
	}

	return domainauth.Authenticated(*u)
}

// Invalidate drops the cached user for creds. Called after login, register and logout.
func (s *Service) Invalidate(ctx context.Context, creds ports.Credentials) {
	if creds.Empty() {
		return
	}
	key := creds.SessionKey()
	s.group.Forget(key)

	s.mu.Lock()
	for f := range s.inflight[key] {
		f.stale = true
	}
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "invalidate cached user", "error", err)
	}
}

func (s *Service) cached(ctx context.Context, key string) *domainauth.User {
	if s.cache == nil {
		return nil
	}
	u, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "read cached user", "error", err)
		return nil
	}
	return u
}

func (s *Service) begin(key string) *fetch {
	f := &fetch{}
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.inflight[key]
	if set == nil {
		set = make(map[*fetch]struct{})
		s.inflight[key] = set
	}
	set[f] = struct{}{}
	return f
}

// finish retires f and caches u unless the key was invalidated while f ran.
// The cache write happens under mu so a concurrent Invalidate either marks f
// stale first or deletes the entry after it is written.
func (s *Service) finish(ctx context.Context, key string, f *fetch, u *domainauth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set := s.inflight[key]; set != nil {
		delete(set, f)
		if len(set) == 0 {
			delete(s.inflight, key)
		}
	}
	if f.stale {
		s.logger.DebugContext(ctx, "dropping user fetched before invalidation")
		return
	}
	if u == nil || s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, *u, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "cache user", "error", err)
	}
}
