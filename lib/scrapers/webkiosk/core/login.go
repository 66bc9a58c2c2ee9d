package core

import (
	"bytes"
	"context"
	"kioskassist/lib/htmlutil"
	"kioskassist/lib/textutil"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

func (c *Client) origin() string {
	return (&url.URL{Scheme: c.BaseUrl.Scheme, Host: c.BaseUrl.Host}).String()
}

// Login authenticates against the portal from a clean cookie store.
//
// It returns nil on success, ErrLoginPageUnavailable, ErrCaptchaNotFound,
// ErrAuthenticationRejected or a *TransportError otherwise. A failed or
// cancelled login leaves the store empty, which is the logged out state.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	err := c.login(ctx, creds)

	outcome := "success"
	if err != nil {
		c.Cookies.Clear()
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	loginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	return err
}

func (c *Client) login(ctx context.Context, creds Credentials) error {
	c.Cookies.Clear()

	res, err := c.Fetch(ctx, Request{Method: http.MethodGet, Path: ""})
	if err != nil {
		return err
	}
	if res.Status != http.StatusOK {
		slog.WarnContext(ctx, "login page returned unexpected status", "status", res.Status)
		return ErrLoginPageUnavailable
	}

	doc, err := htmlutil.ParseDocument(res.Body)
	if err != nil {
		return err
	}
	captcha, ok := LocateCaptcha(doc, c.opts.Captcha)
	if !ok {
		return ErrCaptchaNotFound
	}
	trace.SpanFromContext(ctx).AddEvent("found captcha")

	form := url.Values{}
	form.Set("InstCode", c.opts.InstituteCode)
	form.Set("UserType", c.opts.userTypeCode(creds.UserType))
	form.Set("MemberCode", creds.EnrollmentID)
	form.Set("DATE1", creds.DateOfBirth)
	form.Set("Password", creds.Password)
	form.Set("txtcap", captcha)
	form.Set("BTNSubmit", "Submit")

	issued := c.Cookies.SessionIssued()
	res, err = c.Fetch(ctx, Request{
		Method: http.MethodPost,
		Path:   c.opts.LoginActionPath,
		Form:   form,
		Headers: map[string]string{
			"Referer": c.BaseUrl.String(),
			"Origin":  c.origin(),
		},
	})
	if err != nil {
		return err
	}

	ok, err = c.judgeLogin(ctx, res, c.Cookies.SessionIssued() > issued)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuthenticationRejected
	}
	return nil
}

// judgeLogin decides whether the response to the credential POST is a
// logged in session, `issued` is whether that exchange set the session
// cookie.
func (c *Client) judgeLogin(ctx context.Context, res Response, issued bool) (bool, error) {
	span := trace.SpanFromContext(ctx)

	if res.Status != http.StatusOK {
		span.AddEvent("rejected: status", trace.WithAttributes(attribute.Int("status", res.Status)))
		return false, nil
	}
	if !issued || !c.Cookies.HasLiveSessionCookie() {
		span.AddEvent("rejected: no session cookie issued")
		return false, nil
	}
	if res.FinalUrl == nil || !strings.Contains(res.FinalUrl.Path, c.opts.LandingPage) {
		span.AddEvent("rejected: not on the landing page")
		return false, nil
	}

	body := bytes.TrimSpace(res.Body)
	if len(body) <= c.opts.EmptyBodyThreshold {
		// the portal answers a successful login with an (almost) empty page,
		// only an authenticated probe can confirm it.
		return c.Probe(ctx)
	}

	text := string(body)
	if textutil.ContainsAny(htmlutil.MarkupText(body), c.opts.FailureKeywords) {
		span.AddEvent("rejected: failure keyword")
		return false, nil
	}
	if !textutil.ContainsAny(text, c.opts.FrameMarkers) {
		span.AddEvent("rejected: no frames")
		return false, nil
	}
	return true, nil
}

// Probe requests an authenticated-only page and reports whether it
// actually rendered for the current session.
func (c *Client) Probe(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:Probe")
	defer span.End()

	res, err := c.Fetch(ctx, Request{Method: http.MethodGet, Path: c.opts.ProbePath})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch probe page")
		return false, err
	}

	ok := res.Status == http.StatusOK &&
		!c.SessionExpired(res) &&
		len(res.Body) >= c.opts.ProbeMinLength &&
		textutil.ContainsAny(string(res.Body), c.opts.ProbeKeywords)
	span.SetAttributes(attribute.Bool("authenticated", ok))
	return ok, nil
}
