package parser

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// normalize folds compatibility forms (full-width digits, ligatures) so the
// ASCII patterns below see the same text a reader does.
func normalize(s string) string {
	return norm.NFKC.String(s)
}

// lower returns the normalized lower-case form of s.
// A Caser is not safe for concurrent use, so one is built per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(normalize(s))
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
