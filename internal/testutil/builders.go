package testutil

import (
	"net/http"

	domainauth "github.com/target/authweb/internal/domain/auth"
	"github.com/target/authweb/internal/ports"
)

// UserBuilder provides a fluent interface for building users in tests.
type UserBuilder struct {
	u domainauth.User
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{u: domainauth.User{ID: "user-1", Name: "Ada Lovelace", Email: "ada@example.com"}}
}

// WithID sets the user ID.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.u.ID = id
	return b
}

// WithName sets the display name.
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.u.Name = name
	return b
}

// WithEmail sets the email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.u.Email = email
	return b
}

// Build returns a copy of the user.
func (b *UserBuilder) Build() domainauth.User { return b.u }

// BuildPtr returns a pointer to a copy of the user.
func (b *UserBuilder) BuildPtr() *domainauth.User {
	u := b.u
	return &u
}

// SessionCredentials returns credentials holding a single "token" cookie.
func SessionCredentials(value string) ports.Credentials {
	return ports.Credentials{Cookies: []*http.Cookie{{Name: "token", Value: value}}}
}
