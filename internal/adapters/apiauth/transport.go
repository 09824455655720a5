// Package apiauth authenticates authweb itself to the auth API with the OAuth2
// client-credentials grant. The token endpoint is either configured or discovered
// from the issuer's OIDC metadata.
package apiauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Config holds the client-credentials settings.
type Config struct {
	IssuerURL    string
	TokenURL     string // skips discovery when set
	ClientID     string
	ClientSecret string
	Scopes       []string
	// HTTPClient is used for discovery and token calls. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// DiscoveryDocument is the subset of the OIDC discovery document that apiauth reads.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

func (c Config) validate() error {
	if c.ClientID == "" {
		return errors.New("client ID is required")
	}
	if c.ClientSecret == "" {
		return errors.New("client secret is required")
	}
	if c.IssuerURL == "" && c.TokenURL == "" {
		return errors.New("issuer URL or token URL is required")
	}
	return nil
}

// NewTransport returns a RoundTripper that adds a bearer token to every request
// sent through base. base defaults to http.DefaultTransport.
func NewTransport(ctx context.Context, cfg Config, base http.RoundTripper) (http.RoundTripper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	// The token source outlives ctx, so only its values are kept.
	oauthCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, httpClient)

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		discovered, err := DiscoverTokenURL(oauthCtx, cfg.IssuerURL)
		if err != nil {
			return nil, err
		}
		tokenURL = discovered
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       cfg.Scopes,
	}

	if base == nil {
		base = http.DefaultTransport
	}
	return &oauth2.Transport{Source: cc.TokenSource(oauthCtx), Base: base}, nil
}

// DiscoverTokenURL reads the token endpoint from the issuer's discovery document.
// The issuer may be given with or without the /.well-known/openid-configuration suffix.
func DiscoverTokenURL(ctx context.Context, issuerURL string) (string, error) {
	issuer := strings.TrimSuffix(issuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")

	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return "", fmt.Errorf("oidc discovery: %w", err)
	}
	tokenURL := op.Endpoint().TokenURL
	if tokenURL == "" {
		return "", fmt.Errorf("issuer %q advertises no token endpoint", issuer)
	}
	return tokenURL, nil
}
