package core

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
	// zero for session cookies, which never expire by time
	ExpiresAt time.Time
	// set for cookies that came with an Expires or Max-Age attribute
	Persistent bool
}

func (c Cookie) expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// a leading dot domain matches the host and all of its subdomains, an
// empty domain is a host-only cookie.
func (c Cookie) matchesDomain(host, requestHost string) bool {
	requestHost = strings.ToLower(requestHost)
	if c.Domain == "" {
		return requestHost == strings.ToLower(host)
	}
	domain := strings.ToLower(c.Domain)
	if strings.HasPrefix(domain, ".") {
		bare := domain[1:]
		return requestHost == bare || strings.HasSuffix(requestHost, domain)
	}
	return requestHost == domain
}

func (c Cookie) matchesPath(requestPath string) bool {
	cookiePath := c.Path
	if cookiePath == "" {
		cookiePath = "/"
	}
	if requestPath == "" {
		requestPath = "/"
	}
	if requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

// CookieStore keeps the cookies of each host the client talks to. The
// portal reissues its full cookie set on every response, so saving for a
// host replaces whatever was stored for it before.
//
// CookieStore implements http.CookieJar.
type CookieStore struct {
	lock          sync.RWMutex
	hosts         map[string][]Cookie
	sessionCookie string
	now           func() time.Time
	// responses that carried a non-empty session cookie
	sessionIssued uint64
}

func NewCookieStore(sessionCookie string) *CookieStore {
	return &CookieStore{
		hosts:         map[string][]Cookie{},
		sessionCookie: sessionCookie,
		now:           time.Now,
	}
}

// SetClock replaces the time source used for expiry checks.
func (s *CookieStore) SetClock(now func() time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.now = now
}

func (s *CookieStore) Save(host string, cookies []Cookie) {
	saved := make([]Cookie, len(cookies))
	copy(saved, cookies)

	s.lock.Lock()
	defer s.lock.Unlock()
	s.hosts[strings.ToLower(host)] = saved
}

// Load returns copies of the cookies saved for `host` that apply to `requestUrl`.
func (s *CookieStore) Load(host string, requestUrl *url.URL) []Cookie {
	s.lock.RLock()
	defer s.lock.RUnlock()

	now := s.now()
	var out []Cookie
	for _, c := range s.hosts[strings.ToLower(host)] {
		if c.expired(now) {
			continue
		}
		if !c.matchesDomain(host, requestUrl.Hostname()) {
			continue
		}
		if !c.matchesPath(requestUrl.EscapedPath()) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *CookieStore) HasLiveSessionCookie() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	now := s.now()
	for _, cookies := range s.hosts {
		for _, c := range cookies {
			if c.Name == s.sessionCookie && strings.TrimSpace(c.Value) != "" && !c.expired(now) {
				return true
			}
		}
	}
	return false
}

func (s *CookieStore) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.hosts = map[string][]Cookie{}
}

func defaultPath(requestPath string) string {
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(requestPath, "/")
	if i == 0 {
		return "/"
	}
	return requestPath[:i]
}

func (s *CookieStore) fromHttp(u *url.URL, c *http.Cookie, now time.Time) (Cookie, bool) {
	cookie := Cookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: strings.ToLower(c.Domain),
		Path:   c.Path,
	}

	switch {
	case c.MaxAge < 0:
		return Cookie{}, false
	case c.MaxAge > 0:
		cookie.ExpiresAt = now.Add(time.Duration(c.MaxAge) * time.Second)
		cookie.Persistent = true
	case !c.Expires.IsZero():
		if !now.Before(c.Expires) {
			return Cookie{}, false
		}
		cookie.ExpiresAt = c.Expires
		cookie.Persistent = true
	}

	if cookie.Path == "" || cookie.Path[0] != '/' {
		cookie.Path = defaultPath(u.Path)
	}

	if cookie.Domain != "" {
		host := u.Hostname()
		bare := strings.TrimPrefix(cookie.Domain, ".")
		// a Domain attribute makes it a domain cookie, ips can only get host-only cookies
		if net.ParseIP(host) != nil {
			if bare != host {
				return Cookie{}, false
			}
			cookie.Domain = ""
		} else {
			suffix, _ := publicsuffix.PublicSuffix(bare)
			if suffix == bare {
				return Cookie{}, false
			}
			if host != bare && !strings.HasSuffix(host, "."+bare) {
				return Cookie{}, false
			}
			cookie.Domain = "." + bare
		}
	}

	return cookie, true
}

// SetCookies implements http.CookieJar, the cookies of one response
// replace the stored set for the request's host.
func (s *CookieStore) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.lock.RLock()
	now := s.now()
	s.lock.RUnlock()

	var converted []Cookie
	issued := false
	for _, c := range cookies {
		cookie, ok := s.fromHttp(u, c, now)
		if !ok {
			continue
		}
		if cookie.Name == s.sessionCookie && strings.TrimSpace(cookie.Value) != "" {
			issued = true
		}
		converted = append(converted, cookie)
	}
	s.Save(u.Hostname(), converted)

	if issued {
		s.lock.Lock()
		s.sessionIssued++
		s.lock.Unlock()
	}
}

// SessionIssued counts the responses that set the session cookie, compare
// two readings to tell whether the requests in between were issued one.
func (s *CookieStore) SessionIssued() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.sessionIssued
}

// Cookies implements http.CookieJar.
func (s *CookieStore) Cookies(u *url.URL) []*http.Cookie {
	loaded := s.Load(u.Hostname(), u)
	out := make([]*http.Cookie, len(loaded))
	for i, c := range loaded {
		out[i] = &http.Cookie{Name: c.Name, Value: c.Value}
	}
	return out
}
