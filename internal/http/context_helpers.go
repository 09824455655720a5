package httpx

import (
	"context"

	"github.com/target/authweb/internal/ports"
	"github.com/target/authweb/internal/service/userdata"
)

// Unexported context key types avoid collisions across packages.
type (
	loaderKey      struct{}
	credentialsKey struct{}
)

// SetLoaderInContext stores the per-request user loader.
func SetLoaderInContext(ctx context.Context, l *userdata.Loader) context.Context {
	return context.WithValue(ctx, loaderKey{}, l)
}

// GetLoaderFromContext returns the per-request user loader, if any.
func GetLoaderFromContext(ctx context.Context) (*userdata.Loader, bool) {
	l, ok := ctx.Value(loaderKey{}).(*userdata.Loader)
	return l, ok && l != nil
}

// SetCredentialsInContext stores the session credentials extracted from the request.
func SetCredentialsInContext(ctx context.Context, creds ports.Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// GetCredentialsFromContext returns the session credentials, or empty ones.
func GetCredentialsFromContext(ctx context.Context) ports.Credentials {
	creds, _ := ctx.Value(credentialsKey{}).(ports.Credentials)
	return creds
}
