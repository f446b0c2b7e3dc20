package parser

import "testing"

func TestIsTransaction(t *testing.T) {
	tests := []struct {
		name   string
		sender string
		body   string
		policy Policy
		want   bool
	}{
		{"known sender and keyword", "HDFCBK", "Rs 2,500 debited from your account", PolicyAny, true},
		{"known sender only", "VM-ICICIB", "Your statement is ready", PolicyAny, true},
		{"keyword only", "AD-123456", "Rs 99 spent on your card", PolicyAny, true},
		{"neither", "AD-123456", "Your OTP is 4521", PolicyAny, false},
		{"personal text", "+919876543210", "See you at dinner tonight", PolicyAny, false},
		{"all policy needs both", "VM-ICICIB", "Your statement is ready", PolicyAll, false},
		{"all policy keyword only", "AD-123456", "Rs 99 spent on your card", PolicyAll, false},
		{"all policy both", "JD-PAYTM", "Rs 150 paid to DOMINOS", PolicyAll, true},
		{"case insensitive", "phonepe", "PAID TO SHOP", PolicyAll, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewClassifier(tc.policy).IsTransaction(tc.sender, tc.body)
			if got != tc.want {
				t.Errorf("IsTransaction(%q, %q): got %v, want %v", tc.sender, tc.body, got, tc.want)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyAny, false},
		{"any", PolicyAny, false},
		{"OR", PolicyAny, false},
		{"all", PolicyAll, false},
		{" and ", PolicyAll, false},
		{"sometimes", PolicyAny, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePolicy(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("policy: got %v, want %v", got, tc.want)
			}
		})
	}
}
