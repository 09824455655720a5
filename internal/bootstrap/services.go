package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/target/authweb/config"
	"github.com/target/authweb/internal/adapters/apiauth"
	"github.com/target/authweb/internal/adapters/authapi"
	redisadapter "github.com/target/authweb/internal/adapters/redis"
	"github.com/target/authweb/internal/observability/statsd"
	"github.com/target/authweb/internal/ports"
	"github.com/target/authweb/internal/service/account"
	"github.com/target/authweb/internal/service/usercache"
	"github.com/target/authweb/internal/service/userdata"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	API      *authapi.Client
	UserData *userdata.Service
	Account  *account.Service
	Redis    redis.UniversalClient // nil when the in-process cache is used
	Metrics  *statsd.Client
}

// Close releases connections held by the container.
func (c *ServiceContainer) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := c.Metrics.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close statsd: %w", err))
	}
	return errors.Join(errs...)
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	// RedisClient backs the user cache when set.
	RedisClient redis.UniversalClient
	// Transport overrides the base transport used for auth API calls.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// NewServices builds the auth API client and the services layered on it.
func NewServices(ctx context.Context, deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	httpClient, err := newAPIHTTPClient(ctx, cfg, deps.Transport)
	if err != nil {
		return nil, err
	}

	sink, err := statsd.NewClient(statsd.Config{
		Enabled:    cfg.Metrics.Enabled,
		Address:    cfg.Metrics.Address,
		Prefix:     cfg.Metrics.Prefix,
		GlobalTags: cfg.Metrics.Tags,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create statsd client: %w", err)
	}

	api, err := authapi.New(authapi.Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: httpClient,
		UserPath:   cfg.API.UserPath,
		Logger:     logger.With("component", "authapi"),
		Metrics:    sink,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create auth api client: %w", err), sink.Close())
	}

	users := userdata.NewService(userdata.ServiceOptions{
		API:    api,
		Cache:  newUserStore(deps.RedisClient, cfg),
		TTL:    cfg.Cache.UserTTL,
		Logger: logger.With("component", "userdata"),
	})

	return &ServiceContainer{
		API:      api,
		UserData: users,
		Account: account.NewService(account.ServiceOptions{
			API:      api,
			Sessions: users,
			Metrics:  sink,
			Logger:   logger.With("component", "account"),
		}),
		Redis:   deps.RedisClient,
		Metrics: sink,
	}, nil
}

func newAPIHTTPClient(ctx context.Context, cfg *config.AppConfig, base http.RoundTripper) (*http.Client, error) {
	transport := base
	if cfg.APIAuth.Enabled {
		rt, err := apiauth.NewTransport(ctx, apiauth.Config{
			IssuerURL:    cfg.APIAuth.IssuerURL,
			TokenURL:     cfg.APIAuth.TokenURL,
			ClientID:     cfg.APIAuth.ClientID,
			ClientSecret: cfg.APIAuth.ClientSecret,
			Scopes:       cfg.APIAuth.Scopes,
		}, base)
		if err != nil {
			return nil, fmt.Errorf("configure api client credentials: %w", err)
		}
		transport = rt
	}
	return &http.Client{Timeout: cfg.API.Timeout, Transport: transport}, nil
}

// newUserStore returns nil when caching is off, so every lookup reaches the API.
//
//nolint:ireturn // the store is picked at runtime.
func newUserStore(client redis.UniversalClient, cfg *config.AppConfig) ports.UserStore {
	switch {
	case !cfg.Cache.Enabled():
		return nil
	case client == nil:
		return usercache.NewMemoryStoreWithConfig(usercache.MemoryStoreConfig{Capacity: cfg.Cache.UserCapacity})
	default:
		return redisadapter.NewUserStoreWithPrefix(client, cfg.Redis.Prefix)
	}
}
