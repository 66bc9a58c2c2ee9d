package session

import (
	"context"
	"errors"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/scrapers/webkiosk/portaltest"
	"kioskassist/lib/telemetry"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	lock  sync.Mutex
	creds *core.Credentials
	saves int
}

func (m *memoryCache) Save(ctx context.Context, creds core.Credentials) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.creds = &creds
	m.saves++
	return nil
}

func (m *memoryCache) Load(ctx context.Context) (core.Credentials, bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.creds == nil {
		return core.Credentials{}, false, nil
	}
	return *m.creds, true, nil
}

func (m *memoryCache) Clear(ctx context.Context) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.creds = nil
	return nil
}

type failingCache struct{}

var errCacheBroken = errors.New("cache is broken")

func (failingCache) Save(context.Context, core.Credentials) error { return errCacheBroken }
func (failingCache) Load(context.Context) (core.Credentials, bool, error) {
	return core.Credentials{}, false, errCacheBroken
}
func (failingCache) Clear(context.Context) error { return errCacheBroken }

func newGuardian(t testing.TB, portal *portaltest.Portal, opts Options) *Guardian {
	client, err := core.NewClient(core.Options{BaseUrl: portal.URL(), TimeoutSeconds: 5})
	require.NoError(t, err)
	return NewGuardian(client, opts)
}

func portalCredentials(p *portaltest.Portal) core.Credentials {
	return core.NewCredentials(p.Enrollment, p.DateOfBirth, p.Password, "")
}

func TestEnsureSessionExplicit(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	ctx := context.Background()
	portal := portaltest.New(t)
	cache := &memoryCache{}
	guardian := newGuardian(t, portal, Options{Cache: cache})

	creds := portalCredentials(portal)
	used, err := guardian.EnsureSession(ctx, &creds)
	require.NoError(t, err)
	require.Equal(t, creds, used)
	require.EqualValues(t, 1, portal.LoginPosts())

	saved, ok, err := cache.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, creds, saved)

	status := guardian.Status()
	require.True(t, status.Verified)
	require.False(t, status.LastVerifiedAt.IsZero())
	require.Equal(t, portal.Enrollment, status.EnrollmentID)
}

func TestEnsureSessionFromCache(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	ctx := context.Background()
	portal := portaltest.New(t)
	creds := portalCredentials(portal)
	cache := &memoryCache{creds: &creds}
	guardian := newGuardian(t, portal, Options{Cache: cache})

	used, err := guardian.EnsureSession(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, creds, used)
	require.Equal(t, 0, cache.saves, "cached credentials are not saved again")
}

func TestEnsureSessionNoCredentials(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	ctx := context.Background()
	portal := portaltest.New(t)

	_, err := newGuardian(t, portal, Options{}).EnsureSession(ctx, nil)
	require.ErrorIs(t, err, core.ErrNoCredentials)

	_, err = newGuardian(t, portal, Options{Cache: &memoryCache{}}).EnsureSession(ctx, nil)
	require.ErrorIs(t, err, core.ErrNoCredentials)

	partial := core.NewCredentials(portal.Enrollment, "", portal.Password, "")
	_, err = newGuardian(t, portal, Options{}).EnsureSession(ctx, &partial)
	require.ErrorIs(t, err, core.ErrNoCredentials)

	_, err = newGuardian(t, portal, Options{Cache: failingCache{}}).EnsureSession(ctx, nil)
	require.ErrorIs(t, err, errCacheBroken)

	require.EqualValues(t, 0, portal.LoginPosts())
}

func TestEnsureSessionRejected(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	portal := portaltest.New(t)
	cache := &memoryCache{}
	guardian := newGuardian(t, portal, Options{Cache: cache})

	creds := portalCredentials(portal)
	creds.Password = "wrong"
	_, err := guardian.EnsureSession(context.Background(), &creds)
	require.ErrorIs(t, err, core.ErrAuthenticationRejected)
	require.Equal(t, 0, cache.saves)
	require.False(t, guardian.Status().Verified)
}

func TestEnsureSessionAlwaysLogsIn(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	ctx := context.Background()
	portal := portaltest.New(t)
	guardian := newGuardian(t, portal, Options{})

	creds := portalCredentials(portal)
	for i := 0; i < 3; i++ {
		_, err := guardian.EnsureSession(ctx, &creds)
		require.NoError(t, err)
	}
	require.EqualValues(t, 3, portal.LoginPosts())
	require.EqualValues(t, 3, guardian.Generation())
}

func TestConcurrentEnsureSession(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	ctx := context.Background()
	portal := portaltest.New(t, func(p *portaltest.Portal) {
		p.LoginDelay = 300 * time.Millisecond
	})
	guardian := newGuardian(t, portal, DefaultOptions())
	creds := portalCredentials(portal)

	const callers = 5
	errs := make([]error, callers)
	wg := sync.WaitGroup{}
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = guardian.EnsureSession(ctx, &creds)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errors.Join(errs...))
	require.EqualValues(t, 1, portal.LoginPosts())
}

func TestEnsureSessionDuringSettle(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	ctx := context.Background()
	portal := portaltest.New(t)
	guardian := newGuardian(t, portal, DefaultOptions())
	creds := portalCredentials(portal)

	first := make(chan error, 1)
	go func() {
		_, err := guardian.EnsureSession(ctx, &creds)
		first <- err
	}()

	// the probe runs right before the settle delay starts
	require.Eventually(t, func() bool { return portal.Probes() >= 1 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 0, guardian.Generation(), "the login is not counted until it settled")

	_, err := guardian.EnsureSession(ctx, &creds)
	require.NoError(t, err)
	require.NoError(t, <-first)

	require.EqualValues(t, 1, portal.LoginPosts())
	require.EqualValues(t, 1, guardian.Generation())
}

func TestHasValidSession(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	ctx := context.Background()
	portal := portaltest.New(t)
	guardian := newGuardian(t, portal, Options{})

	ok, err := guardian.HasValidSession(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.EqualValues(t, 0, portal.Probes(), "no request is made without a session cookie")

	creds := portalCredentials(portal)
	_, err = guardian.EnsureSession(ctx, &creds)
	require.NoError(t, err)

	ok, err = guardian.HasValidSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	portal.ExpireSessions()

	ok, err = guardian.HasValidSession(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, guardian.Status().Verified)
}

func TestRelogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	ctx := context.Background()
	portal := portaltest.New(t)
	guardian := newGuardian(t, portal, Options{})

	require.ErrorIs(t, guardian.Relogin(ctx), core.ErrNoCredentials)

	creds := portalCredentials(portal)
	_, err := guardian.EnsureSession(ctx, &creds)
	require.NoError(t, err)

	portal.ExpireSessions()
	generation := guardian.Generation()

	require.NoError(t, guardian.ReloginAfter(ctx, generation))
	require.EqualValues(t, 2, portal.LoginPosts())

	// another caller that saw the same expired session does not log in again
	require.NoError(t, guardian.ReloginAfter(ctx, generation))
	require.EqualValues(t, 2, portal.LoginPosts())

	ok, err := guardian.HasValidSession(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSettleDelay(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	portal := portaltest.New(t)
	guardian := newGuardian(t, portal, Options{SettleDelay: 200 * time.Millisecond})
	creds := portalCredentials(portal)

	start := time.Now()
	_, err := guardian.EnsureSession(context.Background(), &creds)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	slow := newGuardian(t, portal, Options{SettleDelay: time.Minute})
	_, err = slow.EnsureSession(ctx, &creds)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnsureSessionWaitRespectsContext(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	portal := portaltest.New(t, func(p *portaltest.Portal) {
		p.LoginDelay = 500 * time.Millisecond
	})
	guardian := newGuardian(t, portal, Options{})
	creds := portalCredentials(portal)

	done := make(chan error)
	go func() {
		_, err := guardian.EnsureSession(context.Background(), &creds)
		done <- err
	}()
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := guardian.EnsureSession(ctx, &creds)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, <-done)
}

func TestForget(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:webkiosk/session")
	defer cleanup()

	ctx := context.Background()
	portal := portaltest.New(t)
	cache := &memoryCache{}
	guardian := newGuardian(t, portal, Options{Cache: cache})

	creds := portalCredentials(portal)
	_, err := guardian.EnsureSession(ctx, &creds)
	require.NoError(t, err)

	require.NoError(t, guardian.Forget(ctx))
	require.False(t, guardian.Client().Cookies.HasLiveSessionCookie())
	_, ok, err := cache.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.ErrorIs(t, guardian.Relogin(ctx), core.ErrNoCredentials)
}
