package parser

import (
	"regexp"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// paymentRule maps a text cue to a payment method.
type paymentRule struct {
	method  api.PaymentMethod
	pattern *regexp.Regexp
}

// paymentRules are checked in order. The "cc" and "dc" abbreviations only count
// as whole words, so "account" is not read as a credit card.
var paymentRules = []paymentRule{
	{api.PaymentCreditCard, regexp.MustCompile(`credit card|\bcc\b`)},
	{api.PaymentDebitCard, regexp.MustCompile(`debit card|\bdc\b`)},
	{api.PaymentDigitalWallet, regexp.MustCompile(`upi|gpay|phonepe|paytm`)},
	{api.PaymentBankTransfer, regexp.MustCompile(`neft|imps|rtgs`)},
}

// DefaultPaymentMethod applies when no cue matches; most mobile transaction
// messages are wallet or UPI payments.
const DefaultPaymentMethod = api.PaymentDigitalWallet

// InferPaymentMethod classifies how the transaction in body was paid.
func InferPaymentMethod(body string) api.PaymentMethod {
	text := lower(body)
	for _, rule := range paymentRules {
		if rule.pattern.MatchString(text) {
			return rule.method
		}
	}
	return DefaultPaymentMethod
}
