package parser

import (
	"testing"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

func TestInferPaymentMethod(t *testing.T) {
	tests := []struct {
		name string
		body string
		want api.PaymentMethod
	}{
		{"credit card phrase", "Rs 999 spent on your ICICI Credit Card XX4321", api.PaymentCreditCard},
		{"cc abbreviation", "Rs 999 spent on HDFC CC ending 4321", api.PaymentCreditCard},
		{"debit card phrase", "Rs 200 spent on Debit Card XX1111 at DMART", api.PaymentDebitCard},
		{"dc abbreviation", "Rs 200 withdrawn using SBI DC at ATM", api.PaymentDebitCard},
		{"upi", "Rs 89 debited via UPI ref 12345", api.PaymentDigitalWallet},
		{"wallet name", "Rs 150 paid to DOMINOS PIZZA via Paytm", api.PaymentDigitalWallet},
		{"neft", "INR 25,000 transferred via NEFT to John", api.PaymentBankTransfer},
		{"imps", "Rs 5000 sent by IMPS", api.PaymentBankTransfer},
		{"account is not a card", "Rs 2,500 debited from your account ending 1234", api.PaymentDigitalWallet},
		{"no cue defaults to wallet", "Rs 2,500 debited at RELIANCE PETROL PUMP", api.PaymentDigitalWallet},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := InferPaymentMethod(tc.body)
			if got != tc.want {
				t.Errorf("payment method: got %q, want %q", got, tc.want)
			}
		})
	}
}
