package config

import (
	"errors"
	"time"
)

// RedisConfig contains Redis configuration for the shared user cache.
// When disabled, an in-process cache is used instead.
type RedisConfig struct {
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"ADDR"                 envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	Prefix             string   `env:"PREFIX"               envDefault:"authweb:user:"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:""`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
}

// Validate checks that an enabled Redis has somewhere to connect.
func (r *RedisConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.UseSentinel && len(r.SentinelNodes) == 0 {
		return errors.New("REDIS_SENTINEL_NODES is required when REDIS_USE_SENTINEL=true")
	}
	if !r.UseSentinel && r.URI == "" {
		return errors.New("REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	return nil
}

// CacheConfig contains user cache configuration.
type CacheConfig struct {
	// UserTTL is how long a resolved user is reused before /api/users/me is asked again.
	// Zero turns the cache off so every request asks the API.
	UserTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"30s"`
	// UserCapacity bounds the in-process cache. Unused when Redis is enabled.
	UserCapacity int `env:"USER_CACHE_SIZE" envDefault:"10000"`
}

// Enabled reports whether resolved users are cached at all.
func (c *CacheConfig) Enabled() bool { return c.UserTTL > 0 }

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.UserTTL < 0 {
		c.UserTTL = 30 * time.Second
	}
	if c.UserCapacity <= 0 {
		c.UserCapacity = 10000
	}
}
