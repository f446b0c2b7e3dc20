package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A/c 123456789 debited", "A/c XXXXX6789 debited"},
		{"Rs.2,500.00 spent", "Rs.2,500.00 spent"},
		{"card 4321 used", "card 4321 used"},
		{"OTP 98765", "OTP X8765"},
	}
	for _, tt := range tests {
		if got := Redact(tt.in); got != tt.want {
			t.Errorf("Redact(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFixtureName(t *testing.T) {
	msg := api.RawMessage{SenderID: "VM-HDFCBK", TimestampMs: 1736467200000}
	if got, want := fixtureName(msg, 7), "2025-01-10_000000_VM-HDFCBK_007.json"; got != want {
		t.Errorf("fixtureName: got %q, want %q", got, want)
	}

	msg.SenderID = "+91 98765"
	if got, want := fixtureName(msg, 0), "2025-01-10_000000_91_98765_000.json"; got != want {
		t.Errorf("fixtureName: got %q, want %q", got, want)
	}
}

func TestWriteFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.json")
	want := api.RawMessage{ID: "1", SenderID: "AD-PAYTMB", Body: "Paid Rs 10", TimestampMs: 42}

	if err := writeFixture(path, want); err != nil {
		t.Fatalf("writeFixture: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got api.RawMessage
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	if got != want {
		t.Errorf("fixture: got %+v, want %+v", got, want)
	}
}
