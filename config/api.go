package config

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// APIConfig describes the remote auth API.
type APIConfig struct {
	// BaseURL is the origin serving /api/auth/* and /api/users/me.
	BaseURL string `env:"BASE_URL,required"`

	// Timeout bounds every outbound call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`

	// UserPath is a JMESPath expression locating the user in the /api/users/me response.
	UserPath string `env:"USER_PATH" envDefault:"data.user"`

	// SessionCookies names the backend cookies forwarded from the browser.
	SessionCookies []string `env:"SESSION_COOKIES" envDefault:"token"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 10 * time.Second
	}
	if strings.TrimSpace(a.UserPath) == "" {
		a.UserPath = "data.user"
	}

	names := make([]string, 0, len(a.SessionCookies))
	for _, n := range a.SessionCookies {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		names = []string{"token"}
	}
	a.SessionCookies = names
}

// Validate checks that BaseURL is an absolute http(s) URL.
func (a *APIConfig) Validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("API_BASE_URL must be an absolute http(s) URL")
	}
	return nil
}

// APIAuthConfig enables OAuth2 client-credentials authentication of authweb to the API.
type APIAuthConfig struct {
	Enabled      bool     `env:"ENABLED"       envDefault:"false"`
	IssuerURL    string   `env:"ISSUER_URL"`
	TokenURL     string   `env:"TOKEN_URL"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES"`
}

// Validate checks the client credentials when enabled.
func (a *APIAuthConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.ClientID == "" || a.ClientSecret == "" {
		return errors.New("API_OAUTH_CLIENT_ID and API_OAUTH_CLIENT_SECRET are required when API_OAUTH_ENABLED=true")
	}
	if a.IssuerURL == "" && a.TokenURL == "" {
		return errors.New("API_OAUTH_ISSUER_URL or API_OAUTH_TOKEN_URL is required when API_OAUTH_ENABLED=true")
	}
	return nil
}
