package core

import (
	"kioskassist/lib/htmlutil"
	"kioskassist/lib/scrapers/webkiosk/portaltest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocateCaptcha(t *testing.T) {
	testCases := []struct {
		name     string
		markup   string
		expected string
		found    bool
	}{
		{
			name:     "login page",
			markup:   portaltest.LoginPage("aB3f9"),
			expected: "aB3f9",
			found:    true,
		},
		{
			name: "labelled cell",
			markup: `<table>
				<tr><td>Jaypee University Enter Captcha</td><td>Jaypee</td></tr>
				<tr><td>Enter Captcha</td><td> X7 k2 </td></tr>
			</table>`,
			expected: "X7k2",
			found:    true,
		},
		{
			name:     "decoy is skipped",
			markup:   `<span class="noselect">Jaypee</span><span id="captcha">Qw12</span>`,
			expected: "Qw12",
			found:    true,
		},
		{
			name:     "known selector",
			markup:   `<font class="captcha">zz99</font>`,
			expected: "zz99",
			found:    true,
		},
		{
			name:     "image alt",
			markup:   `<img src="/images/captcha.jpg" alt="Rt56">`,
			expected: "Rt56",
			found:    true,
		},
		{
			name:     "non-selectable class wins",
			markup:   `<div id="captcha">BBBB</div><div class="unselectable">AAAA</div>`,
			expected: "AAAA",
			found:    true,
		},
		{
			name:   "token too long",
			markup: `<span class="noselect">ABCDEFGH</span>`,
		},
		{
			name:   "no captcha",
			markup: `<p>Welcome to webkiosk</p>`,
		},
	}

	opts := DefaultOptions().Captcha
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			doc, err := htmlutil.ParseDocument([]byte(test.markup))
			require.NoError(t, err)

			token, ok := LocateCaptcha(doc, opts)
			require.Equal(t, test.found, ok)
			require.Equal(t, test.expected, token)
		})
	}
}
