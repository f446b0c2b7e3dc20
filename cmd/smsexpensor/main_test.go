package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

func writeExport(t *testing.T, ts time.Time) string {
	t.Helper()
	ms := ts.UnixMilli()
	xml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<smses count="3">
  <sms address="VM-HDFCBK" body="Rs.2,500.00 debited from A/c XX1234 at RELIANCE PETROL PUMP" date="%d" type="1" />
  <sms address="JM-FRIEND" body="dinner at 8?" date="%d" type="1" />
  <sms address="AD-PAYTMB" body="Paid Rs 150 to DOMINOS PIZZA via Paytm wallet" date="%d" type="1" />
</smses>`, ms, ms, ms-1000)

	path := filepath.Join(t.TempDir(), "sms.xml")
	if err := os.WriteFile(path, []byte(xml), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SMSEXPENSOR_SOURCE", "SMSEXPENSOR_WRITER", "SMSEXPENSOR_SOURCE_CONFIG", "SMSEXPENSOR_WRITER_CONFIG",
		"SMSEXPENSOR_CATEGORIES_FILE", "SMSEXPENSOR_RULES_FILE", "SMSEXPENSOR_CLASSIFY_POLICY",
		"SMSEXPENSOR_TIMEZONE", "SMSEXPENSOR_OWNER_ID", "POSTGRES_HOST", "REDIS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SMSEXPENSOR_OWNER_ID", "alice")
	path := writeExport(t, time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC))

	out, err := execute(t, "parse", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var resp api.ParseResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decoding output %q: %v", out, err)
	}
	if resp.ProcessedMessages != 3 || resp.ParsedExpenses != 2 {
		t.Errorf("counts: got %d processed, %d parsed, want 3 and 2", resp.ProcessedMessages, resp.ParsedExpenses)
	}

	fuel := resp.Expenses[0]
	if fuel.CategoryID != "fuel" || fuel.OwnerID != "alice" || fuel.Source != "smsbackup" {
		t.Errorf("first expense: got %+v", fuel)
	}
	if fuel.TransactionDate != "2025-01-10" {
		t.Errorf("date: got %q, want 2025-01-10", fuel.TransactionDate)
	}
	if resp.Expenses[1].PaymentMethod != api.PaymentDigitalWallet {
		t.Errorf("payment method: got %q, want %q", resp.Expenses[1].PaymentMethod, api.PaymentDigitalWallet)
	}
}

func TestParseCommand_UnknownFormat(t *testing.T) {
	isolateEnv(t)
	path := writeExport(t, time.Now())

	if _, err := execute(t, "parse", "--format", "csv", path); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("error: got %v, want unknown format", err)
	}
}

func TestRunCommand_Once(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	export := writeExport(t, time.Now().Add(-time.Hour))
	output := filepath.Join(dir, "out", "expenses.json")

	t.Setenv("SMSEXPENSOR_SOURCE", "smsbackup")
	t.Setenv("SMSEXPENSOR_SOURCE_CONFIG", fmt.Sprintf(`{"path":%q}`, export))
	t.Setenv("SMSEXPENSOR_WRITER", "json")
	t.Setenv("SMSEXPENSOR_WRITER_CONFIG", fmt.Sprintf(`{"filePath":%q}`, output))

	out, err := execute(t, "run", "--once")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "wrote 2") {
		t.Errorf("summary: got %q, want it to report 2 written", out)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var written []api.Expense
	if err := json.Unmarshal(data, &written); err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if len(written) != 2 {
		t.Errorf("written: got %d, want 2", len(written))
	}
}

func TestCategoriesList(t *testing.T) {
	isolateEnv(t)
	catalogFile := filepath.Join(t.TempDir(), "categories.yaml")
	if err := os.WriteFile(catalogFile, []byte("categories:\n  - id: c1\n    name: Fuel\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SMSEXPENSOR_CATEGORIES_FILE", catalogFile)

	out, err := execute(t, "categories", "list")
	if err != nil {
		t.Fatalf("categories list: %v", err)
	}
	if strings.TrimSpace(out) != "c1\tFuel" {
		t.Errorf("output: got %q", out)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"backup.xml":     "smsbackup",
		"inbox.mbox":     "mbox",
		"INBOX.MBOX":     "mbox",
		"no-extension":   "smsbackup",
		"dir/export.eml": "mbox",
	}
	for path, want := range tests {
		if got := formatFromPath(path); got != want {
			t.Errorf("formatFromPath(%q): got %q, want %q", path, got, want)
		}
	}
}

func TestPluginsCommand(t *testing.T) {
	out, err := execute(t, "plugins")
	if err != nil {
		t.Fatalf("plugins: %v", err)
	}
	for _, name := range []string{"smsbackup", "mbox", "gmail", "unavailable", "json", "csv", "sheets", "postgres", "sqlite"} {
		if !strings.Contains(out, name) {
			t.Errorf("output is missing %q:\n%s", name, out)
		}
	}
}
