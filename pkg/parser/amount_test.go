package parser

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{"rs with thousands separator", "Rs 2,500 debited from your account", "2500", true},
		{"rs dot with decimals", "Rs.1,234.50 spent on card", "1234.50", true},
		{"inr prefix", "INR 1234 debited", "1234", true},
		{"rupee symbol", "₹1,234.50 paid to SWIGGY", "1234.50", true},
		{"currency after number", "1500 INR debited from a/c", "1500", true},
		{"labelled amount", "Txn Amount: 750 at STORE", "750", true},
		{"labelled amt with currency", "amt:rs 99.99 paid", "99.99", true},
		{"indian grouping", "INR 12,34,567.89 spent", "1234567.89", true},
		{"transaction before balance", "Rs 500 debited. Avl Bal Rs 10,000.00", "500", true},
		{"full width digits", "Rs ２５０ paid", "250", true},
		{"zero rejected", "Rs 0 debited", "", false},
		{"no currency", "Your OTP is 4521", "", false},
		{"separator only", "Rs , paid", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractAmount(tc.body)
			if ok != tc.wantOK {
				t.Fatalf("found: got %v, want %v (amount %s)", ok, tc.wantOK, got)
			}
			if !tc.wantOK {
				return
			}
			want := decimal.RequireFromString(tc.want)
			if !got.Equal(want) {
				t.Errorf("amount: got %s, want %s", got, want)
			}
		})
	}
}
