package core

import (
	"time"

	"dario.cat/mergo"
)

type CaptchaOptions struct {
	// classes the portal uses to make the captcha text non-selectable
	NonSelectableClasses []string `json:"non_selectable_classes"`
	// text of the table cell labelling the captcha
	Label string `json:"label"`
	// the institute's name also shows up next to the label in the page
	// header, cells containing it are never the captcha
	InstituteName string   `json:"institute_name"`
	Selectors     []string `json:"selectors"`
	ImageHint     string   `json:"image_hint"`
	Decoys        []string `json:"decoys"`
}

type Options struct {
	BaseUrl       string `json:"base_url"`
	InstituteCode string `json:"institute_code"`
	UserAgent     string `json:"user_agent"`
	SessionCookie string `json:"session_cookie"`

	LoginActionPath string `json:"login_action_path"`
	LandingPage     string `json:"landing_page"`
	// final urls matching any of these mean the portal bounced us back to login
	LoginPagePatterns []string `json:"login_page_patterns"`

	ProbePath      string   `json:"probe_path"`
	ProbeKeywords  []string `json:"probe_keywords"`
	ProbeMinLength int      `json:"probe_min_length"`

	EmptyBodyThreshold int      `json:"empty_body_threshold"`
	FailureKeywords    []string `json:"failure_keywords"`
	FrameMarkers       []string `json:"frame_markers"`
	TimeoutPhrases     []string `json:"timeout_phrases"`

	// maps Credentials.UserType to the value of the UserType form field,
	// unknown user types are sent as-is
	UserTypes map[string]string `json:"user_types"`

	TimeoutSeconds int `json:"timeout_seconds"`

	Captcha CaptchaOptions `json:"captcha"`
}

func DefaultOptions() Options {
	return Options{
		BaseUrl:       "https://webkiosk.juet.ac.in/",
		InstituteCode: "JUET",
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		SessionCookie: "JSESSIONID",

		LoginActionPath:   "CommonFiles/UserAction.jsp",
		LandingPage:       "StudentPage.jsp",
		LoginPagePatterns: []string{"index.jsp", "login.jsp"},

		ProbePath:      "StudentFiles/PersonalFiles/StudPersonalInfo.jsp",
		ProbeKeywords:  []string{"Enrollment", "Student Name", "Personal"},
		ProbeMinLength: 500,

		EmptyBodyThreshold: 64,
		FailureKeywords:    []string{"invalid", "error", "incorrect", "failed"},
		FrameMarkers:       []string{"<frameset", "<frame ", "<iframe"},
		TimeoutPhrases:     []string{"session timeout", "session expired", "please login", "invalid session"},

		UserTypes: map[string]string{
			"Student":  "S",
			"Parent":   "P",
			"Employee": "E",
		},

		TimeoutSeconds: 30,

		Captcha: CaptchaOptions{
			NonSelectableClasses: []string{"noselect", "unselectable"},
			Label:                "Enter Captcha",
			InstituteName:        "Jaypee",
			Selectors: []string{
				"#captcha",
				"font.captcha",
				"#lblCaptcha",
				"span.captcha",
				".captcha-text",
			},
			ImageHint: "captcha",
			Decoys:    []string{"Jaypee"},
		},
	}
}

// withDefaults fills every field left empty with DefaultOptions.
func (o Options) withDefaults() (Options, error) {
	err := mergo.Merge(&o, DefaultOptions())
	return o, err
}

func (o Options) timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func (o Options) userTypeCode(userType string) string {
	code, ok := o.UserTypes[userType]
	if !ok {
		return userType
	}
	return code
}
