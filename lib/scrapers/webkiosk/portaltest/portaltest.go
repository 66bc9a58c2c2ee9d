// Package portaltest runs an in-process imitation of the webkiosk portal
// for tests: a captcha login page, the credential POST, the frameset
// landing page, an authenticated probe page and arbitrary data pages.
package portaltest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	SessionCookie = "JSESSIONID"
	LoginPath     = "/CommonFiles/UserAction.jsp"
	LandingPath   = "/StudentFiles/StudentPage.jsp"
	ProbePath     = "/StudentFiles/PersonalFiles/StudPersonalInfo.jsp"
)

type Portal struct {
	Server *httptest.Server

	Captcha     string
	Enrollment  string
	DateOfBirth string
	Password    string

	// the real portal answers a successful login with an empty landing
	// page, when false the landing page is a frameset document instead
	EmptyLanding bool
	// delay before the credential POST is answered
	LoginDelay time.Duration
	// answer the personal info page with a stub even when logged in
	BrokenProbe bool

	lock     sync.Mutex
	pages    map[string]string
	sessions map[string]bool
	lastForm url.Values
	lastHdr  http.Header
	landing  []string

	sessionCounter atomic.Int64
	loginPosts     atomic.Int64
	probes         atomic.Int64
	pageHits       atomic.Int64
	expireHits     atomic.Int64
}

// New starts a portal, `configure` runs before the server accepts any
// request.
func New(t testing.TB, configure ...func(p *Portal)) *Portal {
	p := &Portal{
		Captcha:      "aB3f9",
		Enrollment:   "211B123",
		DateOfBirth:  "01-01-2003",
		Password:     "hunter2",
		EmptyLanding: true,
		pages:        map[string]string{},
		sessions:     map[string]bool{},
	}
	for _, fn := range configure {
		fn(p)
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Portal) URL() string {
	return p.Server.URL + "/"
}

func (p *Portal) SetPage(path, markup string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.pages[path] = markup
}

// ExpireSessions forgets every authenticated session server-side, the
// client's cookies stay untouched.
func (p *Portal) ExpireSessions() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.sessions = map[string]bool{}
}

// ExpireOnNextPages expires every session right before each of the next
// `n` data page requests is served.
func (p *Portal) ExpireOnNextPages(n int64) {
	p.expireHits.Store(n)
}

func (p *Portal) LoginPosts() int64 { return p.loginPosts.Load() }
func (p *Portal) Probes() int64     { return p.probes.Load() }
func (p *Portal) PageHits() int64   { return p.pageHits.Load() }

func (p *Portal) LastForm() url.Values {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.lastForm
}

func (p *Portal) LastHeaders() http.Header {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.lastHdr
}

// LandingCookies lists the Cookie headers the landing page was requested
// with, in order.
func (p *Portal) LandingCookies() []string {
	p.lock.Lock()
	defer p.lock.Unlock()
	out := make([]string, len(p.landing))
	copy(out, p.landing)
	return out
}

func (p *Portal) newSession(w http.ResponseWriter, authenticated bool) {
	id := "S" + strconv.FormatInt(p.sessionCounter.Add(1), 10)
	p.lock.Lock()
	p.sessions[id] = authenticated
	p.lock.Unlock()
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true})
}

// session reports whether the request carries a session id the portal
// issued and whether that session has logged in.
func (p *Portal) session(r *http.Request) (known, authenticated bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return false, false
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	authenticated, known = p.sessions[c.Value]
	return known, authenticated
}

func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html;charset=ISO-8859-1")

	switch r.URL.Path {
	case "/", "/index.jsp":
		p.newSession(w, false)
		fmt.Fprint(w, LoginPage(p.Captcha))
	case LoginPath:
		p.serveLogin(w, r)
	case LandingPath:
		p.lock.Lock()
		p.landing = append(p.landing, strings.Join(r.Header.Values("Cookie"), "; "))
		p.lock.Unlock()
		_, authenticated := p.session(r)
		if !authenticated {
			http.Redirect(w, r, "/index.jsp", http.StatusFound)
			return
		}
		if p.EmptyLanding {
			return
		}
		fmt.Fprint(w, FramesetPage)
	case ProbePath:
		p.probes.Add(1)
		_, authenticated := p.session(r)
		if !authenticated {
			http.Redirect(w, r, "/index.jsp", http.StatusFound)
			return
		}
		if p.BrokenProbe {
			fmt.Fprint(w, "<html><body></body></html>")
			return
		}
		fmt.Fprint(w, PersonalInfoPage(p.Enrollment))
	default:
		p.lock.Lock()
		page, ok := p.pages[r.URL.Path]
		p.lock.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		p.pageHits.Add(1)
		if p.expireHits.Add(-1) >= 0 {
			p.ExpireSessions()
		}
		_, authenticated := p.session(r)
		if !authenticated {
			fmt.Fprint(w, SessionTimeoutPage)
			return
		}
		fmt.Fprint(w, page)
	}
}

func (p *Portal) serveLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p.loginPosts.Add(1)
	if p.LoginDelay > 0 {
		time.Sleep(p.LoginDelay)
	}

	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.lock.Lock()
	p.lastForm = r.PostForm
	p.lastHdr = r.Header.Clone()
	p.lock.Unlock()

	known, _ := p.session(r)
	valid := known &&
		r.Header.Get("Referer") != "" &&
		r.Header.Get("Origin") != "" &&
		r.PostForm.Get("InstCode") == "JUET" &&
		r.PostForm.Get("BTNSubmit") == "Submit" &&
		r.PostForm.Get("txtcap") == p.Captcha &&
		strings.EqualFold(r.PostForm.Get("MemberCode"), p.Enrollment) &&
		r.PostForm.Get("DATE1") == p.DateOfBirth &&
		r.PostForm.Get("Password") == p.Password
	if !valid {
		fmt.Fprint(w, LoginFailedPage)
		return
	}

	p.newSession(w, true)
	http.Redirect(w, r, LandingPath, http.StatusFound)
}
