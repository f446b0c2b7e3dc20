package parser

import (
	"regexp"
	"slices"
	"strings"
)

const (
	descriptionText = `([a-z0-9\s&.-]+?)`
	descriptionStop = `(?:\s+on|\s+using|\s*\.|$)`
)

// descriptionPatterns are tried in order against the original-case body.
var descriptionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:at|to)\s+` + descriptionText + descriptionStop),
	regexp.MustCompile(`(?i)\b(?:merchant|payee)[\s:]+` + descriptionText + descriptionStop),
	regexp.MustCompile(`(?i)\b(?:purchase|payment)[\s:]+` + descriptionText + descriptionStop),
}

// fallbackWords is how many tokens after a transaction keyword make up a fallback description.
const fallbackWords = 3

// ExtractDescription returns a short merchant or purpose label for the transaction.
// It never returns an empty string.
func ExtractDescription(body string) string {
	text := normalize(body)

	for _, pattern := range descriptionPatterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		if desc := strings.TrimSpace(match[1]); desc != "" {
			return desc
		}
	}

	if desc := descriptionAfterKeyword(text); desc != "" {
		return desc
	}
	return FallbackDescription
}

// descriptionAfterKeyword returns up to three tokens following the first
// transaction keyword, unless the keyword is within the last two tokens.
func descriptionAfterKeyword(text string) string {
	words := strings.Fields(text)
	idx := slices.IndexFunc(words, func(word string) bool {
		return slices.Contains(descriptionKeywords, lower(word))
	})
	if idx == -1 || idx >= len(words)-2 {
		return ""
	}

	end := min(idx+1+fallbackWords, len(words))
	return strings.Join(words[idx+1:end], " ")
}
