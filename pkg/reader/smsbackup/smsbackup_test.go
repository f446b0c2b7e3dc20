package smsbackup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const export = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<smses count="4">
  <sms protocol="0" address="VM-HDFCBK" date="1736035200000" type="1" body="Rs.2,500.00 debited from A/c XX1234 at RELIANCE PETROL PUMP" />
  <sms protocol="0" address="AD-PAYTMB" date="1736121600000" type="1" body="Paid Rs 150 to DOMINOS PIZZA via Paytm" />
  <sms protocol="0" address="+919800000000" date="1736208000000" type="2" body="ok, paid you" />
  <sms protocol="0" address="BANK" date="not-a-date" type="1" body="broken date" />
</smses>`

func TestDecode(t *testing.T) {
	msgs, err := Decode(strings.NewReader(export), false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(msgs) != 3 {
		t.Fatalf("messages: got %d, want 3", len(msgs))
	}
	if msgs[0].SenderID != "AD-PAYTMB" {
		t.Errorf("newest first: got %q, want AD-PAYTMB", msgs[0].SenderID)
	}
	if msgs[1].TimestampMs != 1736035200000 {
		t.Errorf("timestamp: got %d, want 1736035200000", msgs[1].TimestampMs)
	}
	if msgs[2].TimestampMs != 0 {
		t.Errorf("broken date: got %d, want 0", msgs[2].TimestampMs)
	}
}

func TestDecode_IncludeSent(t *testing.T) {
	msgs, err := Decode(strings.NewReader(export), true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(msgs) != 4 {
		t.Errorf("messages: got %d, want 4", len(msgs))
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode(strings.NewReader("<smses><sms"), false); err == nil {
		t.Error("expected error for truncated document")
	}
}

func TestSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sms.xml")
	if err := os.WriteFile(path, []byte(export), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := New(Config{Path: path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	perms, err := src.RequestPermissions(context.Background())
	if err != nil || !perms.Messages {
		t.Fatalf("permissions: got %+v, %v", perms, err)
	}

	msgs, err := src.ReadMessages(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReadMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].SenderID != "AD-PAYTMB" {
		t.Errorf("limited read: got %+v", msgs)
	}
}

func TestSource_MissingFile(t *testing.T) {
	src, err := New(Config{Path: filepath.Join(t.TempDir(), "missing.xml")}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	perms, err := src.RequestPermissions(context.Background())
	if err != nil {
		t.Fatalf("RequestPermissions: %v", err)
	}
	if perms.Messages {
		t.Error("expected no message access for a missing file")
	}

	if _, err := src.ReadMessages(context.Background(), 0); err == nil {
		t.Error("expected error reading a missing file")
	}

	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected error for empty path")
	}
}
