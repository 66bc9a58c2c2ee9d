package core

import (
	"context"
	"fmt"
	"kioskassist/lib/restyutil"
	"kioskassist/lib/telemetry"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	Cookies *CookieStore

	opts Options
}

func newTransport(timeout time.Duration) http.RoundTripper {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
	}
	return cloudflarebp.AddCloudFlareByPass(transport)
}

// resty copies the previous request's headers onto a redirect, including
// the Cookie header the jar filled in. The jar adds the current cookies
// again, so the stale copy has to go or a rotated session id is sent
// twice.
var dropCopiedCookies = resty.RedirectPolicyFunc(func(req *http.Request, _ []*http.Request) error {
	req.Header.Del("Cookie")
	return nil
})

func NewClient(opts Options) (*Client, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(opts.BaseUrl, "/") {
		opts.BaseUrl += "/"
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	cookies := NewCookieStore(opts.SessionCookie)

	client := resty.New()
	client.SetTransport(newTransport(opts.timeout()))
	client.SetCookieJar(cookies)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(baseUrl.Hostname()),
		dropCopiedCookies,
	)
	client.SetTimeout(opts.timeout())

	telemetry.InstrumentResty(client, "kioskassist.lib.scrapers.webkiosk.http")
	restyutil.InstrumentClient(client, restyInstrumentOutput)

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
		Cookies: cookies,
		opts:    opts,
	}, nil
}

func (c *Client) Options() Options {
	return c.opts
}

type Request struct {
	Method string
	// relative to the portal root
	Path    string
	Form    url.Values
	Headers map[string]string
}

type Response struct {
	Status int
	// the url of the last request made, after following redirects
	FinalUrl *url.URL
	Body     []byte
}

func (c *Client) resolve(path string) (*url.URL, error) {
	return c.BaseUrl.Parse(strings.TrimPrefix(path, "/"))
}

// Fetch performs a single request against the portal (following
// redirects), network failures are returned as *TransportError.
func (c *Client) Fetch(ctx context.Context, req Request) (Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := tracer.Start(ctx, "client:Fetch")
	defer span.End()

	target, err := c.resolve(req.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve path")
		return Response{}, err
	}
	span.SetAttributes(
		attribute.String("method", method),
		attribute.String("url", target.String()),
	)

	r := c.Http.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if req.Form != nil {
		r.SetFormDataFromValues(req.Form)
	}

	res, err := r.Execute(method, target.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return Response{}, &TransportError{Op: strings.ToLower(method), Url: target.String(), Err: err}
	}

	finalUrl := target
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalUrl = res.RawResponse.Request.URL
	}
	span.SetAttributes(
		attribute.Int("status", res.StatusCode()),
		attribute.String("final_url", finalUrl.String()),
		attribute.Int("length", len(res.Body())),
	)

	return Response{
		Status:   res.StatusCode(),
		FinalUrl: finalUrl,
		Body:     res.Body(),
	}, nil
}

// IsLoginPage reports whether `u` is the portal's login page (the root or
// one of the configured login page patterns).
func (c *Client) IsLoginPage(u *url.URL) bool {
	if u == nil {
		return false
	}
	if strings.Trim(u.Path, "/") == strings.Trim(c.BaseUrl.Path, "/") {
		return true
	}
	lowered := strings.ToLower(u.Path)
	for _, pattern := range c.opts.LoginPagePatterns {
		if pattern != "" && strings.Contains(lowered, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// SessionExpired reports whether a response to an authenticated page is
// actually the portal telling us the session is gone.
func (c *Client) SessionExpired(res Response) bool {
	if c.IsLoginPage(res.FinalUrl) {
		return true
	}
	body := strings.ToLower(string(res.Body))
	for _, phrase := range c.opts.TimeoutPhrases {
		if phrase != "" && strings.Contains(body, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

func (c *Client) String() string {
	return fmt.Sprintf("webkiosk(%s)", c.BaseUrl.String())
}
