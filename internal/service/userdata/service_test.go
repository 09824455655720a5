package userdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
	"github.com/target/authweb/internal/mocks"
	fakes "github.com/target/authweb/internal/mocks/auth"
	"github.com/target/authweb/internal/ports"
	"github.com/target/authweb/internal/service/usercache"
	"github.com/target/authweb/internal/testutil"
	"go.uber.org/mock/gomock"
)

func TestService_Resolve_NoCookiesSkipsAPI(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	svc := NewService(ServiceOptions{API: api})

	st := svc.Resolve(context.Background(), ports.Credentials{})
	assert.Equal(t, domainauth.StatusAnonymous, st.Status)
	assert.NoError(t, st.Err)
}

func TestService_Resolve_CachesAuthenticatedUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	creds := testutil.SessionCredentials("abc")
	user := testutil.NewUser().BuildPtr()

	api.EXPECT().CurrentUser(gomock.Any(), creds).Return(user, nil).Times(1)

	svc := NewService(ServiceOptions{API: api, Cache: usercache.NewMemoryStore(), TTL: time.Minute})
	ctx := context.Background()

	first := svc.Resolve(ctx, creds)
	second := svc.Resolve(ctx, creds)

	require.True(t, first.IsAuthenticated())
	assert.Equal(t, *user, *first.User)
	assert.Equal(t, first, second)
}

func TestService_Resolve_UnauthorizedIsPlainAnonymous(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	cache := mocks.NewMockUserStore(ctrl)
	creds := testutil.SessionCredentials("expired")

	cache.EXPECT().Get(gomock.Any(), creds.SessionKey()).Return(nil, nil)
	api.EXPECT().CurrentUser(gomock.Any(), creds).
		Return(nil, apperrors.Wrap(errors.New("401"), apperrors.ErrCodeUnauthorized, "GET /api/users/me"))

	svc := NewService(ServiceOptions{API: api, Cache: cache})
	st := svc.Resolve(context.Background(), creds)

	assert.Equal(t, domainauth.StatusAnonymous, st.Status)
	assert.Nil(t, st.User)
	assert.NoError(t, st.Err)
}

func TestService_Resolve_FailureIsAnonymousWithErr(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	creds := testutil.SessionCredentials("abc")
	boom := apperrors.FromTransport(errors.New("connection refused"), "call auth api")

	api.EXPECT().CurrentUser(gomock.Any(), creds).Return(nil, boom).Times(2)

	cache := usercache.NewMemoryStore()
	svc := NewService(ServiceOptions{API: api, Cache: cache})

	st := svc.Resolve(context.Background(), creds)
	assert.Equal(t, domainauth.StatusAnonymous, st.Status)
	assert.Nil(t, st.User)
	require.ErrorIs(t, st.Err, boom)
	assert.Equal(t, 0, cache.Len(), "failures must not be cached")

	// Not cached, so the next resolve asks again.
	_ = svc.Resolve(context.Background(), creds)
}

func TestService_Resolve_CacheReadErrorFallsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	cache := mocks.NewMockUserStore(ctrl)
	creds := testutil.SessionCredentials("abc")
	user := testutil.NewUser().BuildPtr()

	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	api.EXPECT().CurrentUser(gomock.Any(), creds).Return(user, nil)
	cache.EXPECT().Set(gomock.Any(), creds.SessionKey(), *user, 5*time.Second).Return(errors.New("redis down"))

	svc := NewService(ServiceOptions{API: api, Cache: cache, TTL: 5 * time.Second})
	st := svc.Resolve(context.Background(), creds)
	assert.True(t, st.IsAuthenticated())
}

func TestService_Resolve_ConcurrentCallsShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	stub := fakes.NewStubAuthAPI()
	stub.CurrentUserFunc = func(context.Context, ports.Credentials) (*domainauth.User, error) {
		<-release
		return testutil.NewUser().BuildPtr(), nil
	}

	svc := NewService(ServiceOptions{API: stub, Cache: usercache.NewMemoryStore()})
	creds := testutil.SessionCredentials("abc")

	const n = 16
	var wg sync.WaitGroup
	results := make([]domainauth.SessionState, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Resolve(context.Background(), creds)
		}(i)
	}

	require.Eventually(t, func() bool { return stub.CurrentUserCalls() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, stub.CurrentUserCalls())
	for _, st := range results {
		assert.True(t, st.IsAuthenticated())
	}
}

func TestService_Invalidate(t *testing.T) {
	stub := fakes.NewStubAuthAPI()
	cache := usercache.NewMemoryStore()
	svc := NewService(ServiceOptions{API: stub, Cache: cache})
	ctx := context.Background()
	creds := testutil.SessionCredentials("abc")

	svc.Resolve(ctx, creds)
	svc.Resolve(ctx, creds)
	assert.Equal(t, 1, stub.CurrentUserCalls())

	svc.Invalidate(ctx, creds)
	assert.Equal(t, 0, cache.Len())

	svc.Resolve(ctx, creds)
	assert.Equal(t, 2, stub.CurrentUserCalls())

	// No cookies, nothing to do.
	svc.Invalidate(ctx, ports.Credentials{})
}

func TestService_InvalidateDuringFetchIsNotRecached(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var (
		mu       sync.Mutex
		loggedIn = true
	)
	stub := fakes.NewStubAuthAPI()
	stub.CurrentUserFunc = func(context.Context, ports.Credentials) (*domainauth.User, error) {
		mu.Lock()
		ok := loggedIn
		mu.Unlock()
		if !ok {
			return nil, apperrors.Unauthorized("You are not logged in")
		}
		started <- struct{}{}
		<-release
		return testutil.NewUser().BuildPtr(), nil
	}

	cache := usercache.NewMemoryStore()
	svc := NewService(ServiceOptions{API: stub, Cache: cache, TTL: time.Minute})
	ctx := context.Background()
	creds := testutil.SessionCredentials("abc")

	done := make(chan domainauth.SessionState, 1)
	go func() { done <- svc.Resolve(ctx, creds) }()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("lookup never reached the API")
	}

	// Logout lands while the lookup is still waiting on the API.
	mu.Lock()
	loggedIn = false
	mu.Unlock()
	svc.Invalidate(ctx, creds)
	close(release)

	first := <-done
	assert.True(t, first.IsAuthenticated())
	assert.Equal(t, 0, cache.Len())

	after := svc.Resolve(ctx, creds)
	assert.Equal(t, domainauth.StatusAnonymous, after.Status)
	assert.NoError(t, after.Err)
	assert.Equal(t, 2, stub.CurrentUserCalls())
}

func TestService_FinishedFetchesAreForgotten(t *testing.T) {
	svc := NewService(ServiceOptions{API: fakes.NewStubAuthAPI(), Cache: usercache.NewMemoryStore()})
	ctx := context.Background()

	for _, v := range []string{"a", "b", "c"} {
		svc.Resolve(ctx, testutil.SessionCredentials(v))
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.inflight)
}
