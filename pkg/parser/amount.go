package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const amountNumber = `([0-9,]+(?:\.[0-9]{2})?)`

// amountPatterns are tried in order; the first one yielding a positive amount wins.
// The currency-prefixed form comes first so that a transaction amount is preferred
// over a trailing "available balance" figure.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:rs\.?|inr|₹)\s*` + amountNumber),
	regexp.MustCompile(`(?i)` + amountNumber + `\s*(?:rs\.?|inr|₹)`),
	regexp.MustCompile(`(?i)(?:amount|amt)[\s:]*(?:rs\.?|inr|₹)?\s*` + amountNumber),
}

// ExtractAmount returns the first positive currency amount found in body.
func ExtractAmount(body string) (decimal.Decimal, bool) {
	text := lower(body)
	for _, pattern := range amountPatterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		if amount, ok := parseAmount(match[1]); ok {
			return amount, true
		}
	}
	return decimal.Zero, false
}

// parseAmount strips thousands separators and rejects zero or negative values.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(s)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}
