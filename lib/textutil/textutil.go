package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, NormalizeName(m)) {
			return true
		}
	}
	return false
}

// FuzzyMatchName is MatchName with a fallback to Jaro-Winkler similarity,
// for header labels that are misspelled or abbreviated across pages.
func FuzzyMatchName(name string, matchers []string, threshold float64) bool {
	if MatchName(name, matchers) {
		return true
	}
	normalized := NormalizeName(name)
	if normalized == "" {
		return false
	}
	for _, m := range matchers {
		if matchr.JaroWinkler(normalized, NormalizeName(m), false) >= threshold {
			return true
		}
	}
	return false
}

// ContainsAny reports whether text contains any of the needles, ignoring case.
func ContainsAny(text string, needles []string) bool {
	lowered := strings.ToLower(text)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
