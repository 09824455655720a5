package ports_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/target/authweb/internal/adapters/authapi"
	redisadapter "github.com/target/authweb/internal/adapters/redis"
	"github.com/target/authweb/internal/mocks"
	fakes "github.com/target/authweb/internal/mocks/auth"
	"github.com/target/authweb/internal/ports"
	"github.com/target/authweb/internal/service/usercache"
)

// This test only verifies that adapters and doubles conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthAPI = (*authapi.Client)(nil)
	var _ ports.AuthAPI = (*mocks.MockAuthAPI)(nil)
	var _ ports.AuthAPI = (*fakes.StubAuthAPI)(nil)
	var _ ports.UserStore = (*usercache.MemoryStore)(nil)
	var _ ports.UserStore = (*redisadapter.UserStore)(nil)
}

func TestCredentials_SessionKey(t *testing.T) {
	assert.Empty(t, ports.Credentials{}.SessionKey())
	assert.True(t, ports.Credentials{}.Empty())

	a := ports.Credentials{Cookies: []*http.Cookie{{Name: "token", Value: "abc"}, {Name: "x", Value: "1"}}}
	b := ports.Credentials{Cookies: []*http.Cookie{{Name: "x", Value: "1"}, {Name: "token", Value: "abc"}}}
	c := ports.Credentials{Cookies: []*http.Cookie{{Name: "token", Value: "abd"}}}

	assert.Equal(t, a.SessionKey(), b.SessionKey(), "key must not depend on cookie order")
	assert.NotEqual(t, a.SessionKey(), c.SessionKey())
	assert.NotContains(t, a.SessionKey(), "abc")
	assert.Len(t, a.SessionKey(), 64)
}
