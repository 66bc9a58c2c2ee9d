package core

import (
	"kioskassist/lib/htmlutil"
	"kioskassist/lib/textutil"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var captchaToken = regexp.MustCompile(`^[A-Za-z0-9]{4,6}$`)

var whitespace = regexp.MustCompile(`\s+`)

func captchaCandidate(text string, opts CaptchaOptions) (string, bool) {
	token := whitespace.ReplaceAllString(htmlutil.CleanText(text), "")
	if !captchaToken.MatchString(token) {
		return "", false
	}
	for _, decoy := range opts.Decoys {
		if strings.EqualFold(token, decoy) {
			return "", false
		}
	}
	return token, true
}

type captchaStrategy func(doc *goquery.Document, opts CaptchaOptions) (string, bool)

var captchaStrategies = []captchaStrategy{
	captchaFromNonSelectable,
	captchaFromLabelledCell,
	captchaFromKnownSelectors,
	captchaFromImageAlt,
}

// LocateCaptcha finds the captcha token in the login page, the first
// strategy yielding a plausible token wins.
func LocateCaptcha(doc *goquery.Document, opts CaptchaOptions) (string, bool) {
	for _, strategy := range captchaStrategies {
		token, ok := strategy(doc, opts)
		if ok {
			return token, true
		}
	}
	return "", false
}

func firstCandidate(sel *goquery.Selection, opts CaptchaOptions) (string, bool) {
	for _, n := range sel.Nodes {
		token, ok := captchaCandidate(htmlutil.GetText(n), opts)
		if ok {
			return token, true
		}
	}
	return "", false
}

func captchaFromNonSelectable(doc *goquery.Document, opts CaptchaOptions) (string, bool) {
	for _, class := range opts.NonSelectableClasses {
		if class == "" {
			continue
		}
		token, ok := firstCandidate(doc.Find("."+class), opts)
		if ok {
			return token, true
		}
	}
	return "", false
}

func captchaFromLabelledCell(doc *goquery.Document, opts CaptchaOptions) (string, bool) {
	if opts.Label == "" {
		return "", false
	}

	var token string
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		text := htmlutil.SelectionText(td)
		if !textutil.ContainsAny(text, []string{opts.Label}) {
			return true
		}
		if opts.InstituteName != "" && textutil.ContainsAny(text, []string{opts.InstituteName}) {
			return true
		}
		found, ok := firstCandidate(td.NextAllFiltered("td"), opts)
		if ok {
			token = found
			return false
		}
		return true
	})

	return token, token != ""
}

func captchaFromKnownSelectors(doc *goquery.Document, opts CaptchaOptions) (string, bool) {
	for _, selector := range opts.Selectors {
		if selector == "" {
			continue
		}
		token, ok := firstCandidate(doc.Find(selector), opts)
		if ok {
			return token, true
		}
	}
	return "", false
}

func captchaFromImageAlt(doc *goquery.Document, opts CaptchaOptions) (string, bool) {
	if opts.ImageHint == "" {
		return "", false
	}

	var token string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := img.AttrOr("src", "")
		alt := img.AttrOr("alt", "")
		if !textutil.ContainsAny(src+" "+alt, []string{opts.ImageHint}) {
			return true
		}
		found, ok := captchaCandidate(alt, opts)
		if ok {
			token = found
			return false
		}
		return true
	})

	return token, token != ""
}
