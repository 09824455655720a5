package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectTestRedisDB(t *testing.T) {
	t.Setenv("TEST_REDIS_DB", "4")
	assert.Equal(t, 4, selectTestRedisDB(t))

	t.Setenv("TEST_REDIS_DB", "nope")
	assert.Equal(t, 1, selectTestRedisDB(t))
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "y"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.True(t, envBool("TESTUTIL_FLAG"), v)
	}
	t.Setenv("TESTUTIL_FLAG", "off")
	assert.False(t, envBool("TESTUTIL_FLAG"))
}

func TestUserBuilder(t *testing.T) {
	u := NewUser().WithID("u9").WithName("Grace").WithEmail("grace@example.com").Build()
	assert.Equal(t, "u9", u.ID)
	assert.Equal(t, "Grace", u.Name)
	assert.Equal(t, "grace@example.com", u.Email)

	creds := SessionCredentials("abc")
	assert.False(t, creds.Empty())
}
