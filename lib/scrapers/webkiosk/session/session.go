package session

import (
	"context"
	"kioskassist/lib/scrapers/webkiosk/core"
	"kioskassist/lib/telemetry"
	"kioskassist/lib/timezone"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("kioskassist.lib.scrapers.webkiosk.session")

const DefaultSettleDelay = time.Second

// CredentialCache persists the credentials of the last successful login.
type CredentialCache interface {
	Save(ctx context.Context, creds core.Credentials) error
	// the bool is false when nothing (or an incomplete record) is saved
	Load(ctx context.Context) (core.Credentials, bool, error)
	Clear(ctx context.Context) error
}

type Options struct {
	// nil disables loading and saving credentials
	Cache CredentialCache
	// pause after a fresh login, the portal serves empty pages for a
	// moment after authenticating
	SettleDelay time.Duration
}

func DefaultOptions() Options {
	return Options{SettleDelay: DefaultSettleDelay}
}

type Status struct {
	// zero if no login or validation happened yet
	LastVerifiedAt time.Time
	Verified       bool
	EnrollmentID   string
}

// Guardian makes sure there is an authenticated session before data is
// fetched. Logins and validations are serialized, a caller that waited
// while another caller logged in reuses that session when it is still
// valid instead of logging in again.
type Guardian struct {
	client *core.Client
	cache  CredentialCache
	settle time.Duration

	// one slot semaphore, a channel so that waiting respects ctx
	sem chan struct{}

	lock       sync.Mutex
	generation uint64
	// a login succeeded under the semaphore, release bumps generation
	loggedIn bool
	creds    *core.Credentials
	status   Status
}

func NewGuardian(client *core.Client, opts Options) *Guardian {
	return &Guardian{
		client: client,
		cache:  opts.Cache,
		settle: opts.SettleDelay,
		sem:    make(chan struct{}, 1),
	}
}

func (g *Guardian) Client() *core.Client {
	return g.client
}

func (g *Guardian) acquire(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release publishes a login made under the semaphore in the same step
// that frees it, so a caller either saw the old generation and queued
// behind the login or arrived after it finished.
func (g *Guardian) release() {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.loggedIn {
		g.generation++
		g.loggedIn = false
	}
	<-g.sem
}

// Generation counts the successful logins so far, a login is counted once
// its settle delay is over.
func (g *Guardian) Generation() uint64 {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.generation
}

func (g *Guardian) Status() Status {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.status
}

func (g *Guardian) recordVerification(ok bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.status.LastVerifiedAt = timezone.Now()
	g.status.Verified = ok
}

// resolve picks the explicit credentials, then the cached ones. The bool
// is true for explicit credentials.
func (g *Guardian) resolve(ctx context.Context, explicit *core.Credentials) (core.Credentials, bool, error) {
	if explicit != nil {
		if !explicit.Complete() {
			return core.Credentials{}, false, core.ErrNoCredentials
		}
		return *explicit, true, nil
	}
	if g.cache == nil {
		return core.Credentials{}, false, core.ErrNoCredentials
	}
	creds, ok, err := g.cache.Load(ctx)
	if err != nil {
		return core.Credentials{}, false, err
	}
	if !ok || !creds.Complete() {
		return core.Credentials{}, false, core.ErrNoCredentials
	}
	return creds, false, nil
}

func (g *Guardian) lastEnrollment() string {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.creds == nil {
		return ""
	}
	return g.creds.EnrollmentID
}

// EnsureSession logs in with `explicit`, or the cached credentials when
// it is nil, and returns the credentials used. Explicit credentials are
// saved to the cache once they log in successfully.
func (g *Guardian) EnsureSession(ctx context.Context, explicit *core.Credentials) (core.Credentials, error) {
	ctx, span := tracer.Start(ctx, "guardian:EnsureSession")
	defer span.End()

	creds, isExplicit, err := g.resolve(ctx, explicit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve credentials")
		return core.Credentials{}, err
	}
	span.SetAttributes(attribute.Bool("explicit_credentials", isExplicit))

	observed := g.Generation()
	err = g.acquire(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled while waiting for session lock")
		return core.Credentials{}, err
	}
	defer g.release()

	if g.Generation() != observed && strings.EqualFold(g.lastEnrollment(), creds.EnrollmentID) {
		ok, err := g.validate(ctx)
		if err == nil && ok {
			span.AddEvent("reused session from concurrent login")
			g.remember(creds)
			return creds, nil
		}
	}

	err = g.login(ctx, creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login")
		return core.Credentials{}, err
	}

	if isExplicit && g.cache != nil {
		err = g.cache.Save(ctx, creds)
		if err != nil {
			slog.WarnContext(ctx, "failed to save credentials", "err", err)
			span.RecordError(err)
		}
	}
	return creds, nil
}

func (g *Guardian) remember(creds core.Credentials) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.creds = &creds
	g.status.EnrollmentID = creds.EnrollmentID
}

// login must be called while holding the semaphore.
func (g *Guardian) login(ctx context.Context, creds core.Credentials) error {
	err := g.client.Login(ctx, creds)
	g.recordVerification(err == nil)
	if err != nil {
		return err
	}

	g.lock.Lock()
	g.loggedIn = true
	g.lock.Unlock()
	g.remember(creds)

	if g.settle <= 0 {
		return nil
	}
	timer := time.NewTimer(g.settle)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// validate must be called while holding the semaphore.
func (g *Guardian) validate(ctx context.Context) (bool, error) {
	if !g.client.Cookies.HasLiveSessionCookie() {
		g.recordVerification(false)
		return false, nil
	}

	res, err := g.client.Fetch(ctx, core.Request{
		Method: http.MethodGet,
		Path:   g.client.Options().ProbePath,
	})
	if err != nil {
		return false, err
	}
	ok := res.Status == http.StatusOK && !g.client.SessionExpired(res)
	g.recordVerification(ok)
	return ok, nil
}

// HasValidSession reports whether the current cookies still hold an
// authenticated session, it makes at most one request.
func (g *Guardian) HasValidSession(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "guardian:HasValidSession")
	defer span.End()

	err := g.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer g.release()

	ok, err := g.validate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to validate session")
		return false, err
	}
	span.SetAttributes(attribute.Bool("valid", ok))
	return ok, nil
}

// Relogin forces a fresh login with the last credentials EnsureSession
// resolved.
func (g *Guardian) Relogin(ctx context.Context) error {
	return g.ReloginAfter(ctx, g.Generation())
}

// ReloginAfter is Relogin that is skipped when a login already happened
// after `generation`, so concurrent callers that all saw the same
// expired session log in once.
func (g *Guardian) ReloginAfter(ctx context.Context, generation uint64) error {
	ctx, span := tracer.Start(ctx, "guardian:Relogin")
	defer span.End()

	err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer g.release()

	if g.Generation() != generation {
		span.AddEvent("already logged in again")
		return nil
	}

	g.lock.Lock()
	creds := g.creds
	g.lock.Unlock()
	if creds == nil {
		return core.ErrNoCredentials
	}

	err = g.login(ctx, *creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login again")
		return err
	}
	return nil
}

// Forget logs out locally and clears the credential cache.
func (g *Guardian) Forget(ctx context.Context) error {
	err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer g.release()

	g.client.Cookies.Clear()
	g.lock.Lock()
	g.creds = nil
	g.status = Status{}
	g.lock.Unlock()

	if g.cache == nil {
		return nil
	}
	return g.cache.Clear(ctx)
}
