package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SMSEXPENSOR_SOURCE", "")
	t.Setenv("SMSEXPENSOR_WRITER", "")
	t.Setenv("SMSEXPENSOR_LOOKBACK_DAYS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SourcePlugin != DefaultSource {
		t.Errorf("source: got %q, want %q", cfg.SourcePlugin, DefaultSource)
	}
	if cfg.WriterPlugin != DefaultWriter {
		t.Errorf("writer: got %q, want %q", cfg.WriterPlugin, DefaultWriter)
	}
	if cfg.Lookback() != 30*24*time.Hour {
		t.Errorf("lookback: got %v, want 720h", cfg.Lookback())
	}
	if cfg.Interval() != time.Minute {
		t.Errorf("interval: got %v, want 1m", cfg.Interval())
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SMSEXPENSOR_SOURCE", "mbox")
	t.Setenv("SMSEXPENSOR_WRITER", "csv")
	t.Setenv("SMSEXPENSOR_WRITER_CONFIG", `{"filePath":"out.csv"}`)
	t.Setenv("SMSEXPENSOR_LOOKBACK_DAYS", "-1")
	t.Setenv("SMSEXPENSOR_CLASSIFY_POLICY", "all")
	t.Setenv("POSTGRES_HOST", "db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SourcePlugin != "mbox" {
		t.Errorf("source: got %q, want mbox", cfg.SourcePlugin)
	}
	if string(cfg.WriterConfig) != `{"filePath":"out.csv"}` {
		t.Errorf("writer config: got %s", cfg.WriterConfig)
	}
	if cfg.Lookback() != 0 {
		t.Errorf("lookback: got %v, want disabled", cfg.Lookback())
	}
	if cfg.ClassifyPolicy != "all" {
		t.Errorf("policy: got %q, want all", cfg.ClassifyPolicy)
	}
	if !cfg.HasPostgres() {
		t.Error("expected postgres to be configured")
	}
}

func TestTokens(t *testing.T) {
	cfg := Config{APITokens: "abc=alice, def = bob"}
	tokens, err := cfg.Tokens()
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if tokens["abc"] != "alice" || tokens["def"] != "bob" {
		t.Errorf("tokens: got %v", tokens)
	}

	if _, err := (Config{APITokens: "abc"}).Tokens(); err == nil {
		t.Error("expected error for entry without owner")
	}

	empty, err := (Config{}).Tokens()
	if err != nil || len(empty) != 0 {
		t.Errorf("empty tokens: got %v, %v", empty, err)
	}
}

func TestLocation(t *testing.T) {
	loc, err := (Config{}).Location()
	if err != nil || loc != time.UTC {
		t.Errorf("default location: got %v, %v", loc, err)
	}
	if _, err := (Config{Timezone: "Not/AZone"}).Location(); err == nil {
		t.Error("expected error for unknown zone")
	}
}
