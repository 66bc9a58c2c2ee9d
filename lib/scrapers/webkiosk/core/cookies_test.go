package core

import (
	"net/http"
	"net/url"
	"sort"
	"testing"
	"time"

	"github.com/mazen160/go-random"
	"github.com/stretchr/testify/require"
)

func fixedClock(now *time.Time) func() time.Time {
	return func() time.Time { return *now }
}

func names(cookies []Cookie) []string {
	out := make([]string, len(cookies))
	for i, c := range cookies {
		out[i] = c.Name
	}
	sort.Strings(out)
	return out
}

func mustParse(t testing.TB, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCookieStoreLoad(t *testing.T) {
	now := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	store := NewCookieStore("JSESSIONID")
	store.SetClock(fixedClock(&now))

	store.Save("webkiosk.juet.ac.in", []Cookie{
		{Name: "hostonly", Value: "1", Path: "/"},
		{Name: "domain", Value: "1", Domain: ".juet.ac.in", Path: "/"},
		{Name: "student", Value: "1", Path: "/StudentFiles"},
		{Name: "expired", Value: "1", Path: "/", ExpiresAt: now.Add(-time.Second), Persistent: true},
		{Name: "persistent", Value: "1", Path: "/", ExpiresAt: now.Add(time.Hour), Persistent: true},
	})

	testCases := []struct {
		url      string
		expected []string
	}{
		{url: "https://webkiosk.juet.ac.in/", expected: []string{"domain", "hostonly", "persistent"}},
		{url: "https://webkiosk.juet.ac.in/StudentFiles", expected: []string{"domain", "hostonly", "persistent", "student"}},
		{url: "https://webkiosk.juet.ac.in/StudentFiles/Academic/x.jsp", expected: []string{"domain", "hostonly", "persistent", "student"}},
		{url: "https://webkiosk.juet.ac.in/StudentFilesX", expected: []string{"domain", "hostonly", "persistent"}},
		{url: "https://other.juet.ac.in/", expected: []string{"domain"}},
		{url: "https://juet.ac.in/", expected: []string{"domain"}},
		{url: "https://example.com/", expected: []string{}},
	}
	for _, test := range testCases {
		loaded := store.Load("webkiosk.juet.ac.in", mustParse(t, test.url))
		require.Equal(t, test.expected, names(loaded), test.url)
	}

	now = now.Add(2 * time.Hour)
	loaded := store.Load("webkiosk.juet.ac.in", mustParse(t, "https://webkiosk.juet.ac.in/"))
	require.Equal(t, []string{"domain", "hostonly"}, names(loaded))
}

func TestCookieStorePathProperty(t *testing.T) {
	store := NewCookieStore("JSESSIONID")

	for i := 0; i < 100; i++ {
		segment, err := random.String(6)
		require.NoError(t, err)
		depth := "/" + segment
		for j := 0; j < i%4; j++ {
			depth += "/" + segment
		}

		store.Save("portal.example.edu", []Cookie{{Name: "c", Value: "v", Path: depth}})

		for _, tc := range []struct {
			path  string
			match bool
		}{
			{path: depth, match: true},
			{path: depth + "/", match: true},
			{path: depth + "/page.jsp", match: true},
			{path: depth + "x", match: false},
			{path: "/", match: false},
		} {
			loaded := store.Load("portal.example.edu", &url.URL{Scheme: "https", Host: "portal.example.edu", Path: tc.path})
			require.Equal(t, tc.match, len(loaded) == 1, "cookie path %s, request path %s", depth, tc.path)
		}
	}
}

func TestCookieStoreSaveReplaces(t *testing.T) {
	store := NewCookieStore("JSESSIONID")
	u := mustParse(t, "https://webkiosk.juet.ac.in/")

	store.Save("webkiosk.juet.ac.in", []Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "1"}})
	store.Save("webkiosk.juet.ac.in", []Cookie{{Name: "c", Value: "1"}})
	require.Equal(t, []string{"c"}, names(store.Load("webkiosk.juet.ac.in", u)))

	loaded := store.Load("webkiosk.juet.ac.in", u)
	loaded[0].Value = "mutated"
	require.Equal(t, "1", store.Load("webkiosk.juet.ac.in", u)[0].Value)
}

func TestHasLiveSessionCookie(t *testing.T) {
	now := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	store := NewCookieStore("JSESSIONID")
	store.SetClock(fixedClock(&now))

	require.False(t, store.HasLiveSessionCookie())

	store.Save("webkiosk.juet.ac.in", []Cookie{{Name: "JSESSIONID", Value: "  "}})
	require.False(t, store.HasLiveSessionCookie(), "blank session cookie")

	store.Save("webkiosk.juet.ac.in", []Cookie{{Name: "JSESSIONID", Value: "ABC123"}})
	require.True(t, store.HasLiveSessionCookie(), "fresh save")

	store.Clear()
	require.False(t, store.HasLiveSessionCookie(), "after clear")

	store.Save("webkiosk.juet.ac.in", []Cookie{{
		Name:       "JSESSIONID",
		Value:      "ABC123",
		ExpiresAt:  now.Add(time.Minute),
		Persistent: true,
	}})
	require.True(t, store.HasLiveSessionCookie())
	now = now.Add(time.Minute)
	require.False(t, store.HasLiveSessionCookie(), "after expiry")

	store.Save("webkiosk.juet.ac.in", []Cookie{{Name: "JSESSIONID", Value: "DEF456"}})
	require.True(t, store.HasLiveSessionCookie(), "fresh save after expiry")
}

func TestCookieJar(t *testing.T) {
	now := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	store := NewCookieStore("JSESSIONID")
	store.SetClock(fixedClock(&now))

	var _ http.CookieJar = store

	u := mustParse(t, "https://webkiosk.juet.ac.in/StudentFiles/Academic/page.jsp")
	store.SetCookies(u, []*http.Cookie{
		{Name: "JSESSIONID", Value: "S1", Path: "/"},
		{Name: "defaultpath", Value: "1"},
		{Name: "domain", Value: "1", Domain: "juet.ac.in", Path: "/"},
		{Name: "suffix", Value: "1", Domain: "ac.in", Path: "/"},
		{Name: "foreign", Value: "1", Domain: "example.com", Path: "/"},
		{Name: "deleted", Value: "1", Path: "/", MaxAge: -1},
		{Name: "maxage", Value: "1", Path: "/", MaxAge: 60},
		{Name: "stale", Value: "1", Path: "/", Expires: now.Add(-time.Hour)},
	})

	root := store.Cookies(mustParse(t, "https://webkiosk.juet.ac.in/"))
	var rootNames []string
	for _, c := range root {
		rootNames = append(rootNames, c.Name)
	}
	sort.Strings(rootNames)
	require.Equal(t, []string{"JSESSIONID", "domain", "maxage"}, rootNames)

	academic := store.Load("webkiosk.juet.ac.in", mustParse(t, "https://webkiosk.juet.ac.in/StudentFiles/Academic/other.jsp"))
	require.Contains(t, names(academic), "defaultpath")

	now = now.Add(2 * time.Minute)
	require.NotContains(t, names(store.Load("webkiosk.juet.ac.in", mustParse(t, "https://webkiosk.juet.ac.in/"))), "maxage")

	ip := mustParse(t, "http://127.0.0.1:8080/")
	store.SetCookies(ip, []*http.Cookie{
		{Name: "JSESSIONID", Value: "S2", Domain: "127.0.0.1"},
	})
	loaded := store.Load("127.0.0.1", ip)
	require.Len(t, loaded, 1)
	require.Equal(t, "", loaded[0].Domain)
}

func TestSessionIssued(t *testing.T) {
	store := NewCookieStore("JSESSIONID")
	u := mustParse(t, "https://webkiosk.juet.ac.in/")

	store.SetCookies(u, []*http.Cookie{{Name: "JSESSIONID", Value: "S1", Path: "/"}})
	require.EqualValues(t, 1, store.SessionIssued())

	store.SetCookies(u, []*http.Cookie{{Name: "other", Value: "1", Path: "/"}})
	store.SetCookies(u, []*http.Cookie{{Name: "JSESSIONID", Value: " ", Path: "/"}})
	require.EqualValues(t, 1, store.SessionIssued())

	store.SetCookies(u, []*http.Cookie{{Name: "JSESSIONID", Value: "S1", Path: "/"}})
	require.EqualValues(t, 2, store.SessionIssued(), "reissuing the same id still counts")
}
