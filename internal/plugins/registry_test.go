package plugins

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

type fakeSource struct {
	name   string
	scopes []string
}

func (f *fakeSource) Name() string                 { return f.name }
func (f *fakeSource) Description() string          { return "fake source" }
func (f *fakeSource) RequiredScopes() []string     { return f.scopes }
func (f *fakeSource) ConfigSchema() map[string]any { return nil }
func (f *fakeSource) NewSource(*http.Client, json.RawMessage, *slog.Logger) (api.Source, error) {
	return nil, nil
}

type fakeWriter struct {
	name   string
	scopes []string
}

func (f *fakeWriter) Name() string                 { return f.name }
func (f *fakeWriter) Description() string          { return "fake writer" }
func (f *fakeWriter) RequiredScopes() []string     { return f.scopes }
func (f *fakeWriter) ConfigSchema() map[string]any { return nil }
func (f *fakeWriter) NewWriter(context.Context, *http.Client, json.RawMessage, *slog.Logger) (api.Writer, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if err := r.RegisterSource(&fakeSource{name: "mbox"}); err != nil {
		t.Fatalf("RegisterSource: %v", err)
	}
	if err := r.RegisterSource(&fakeSource{name: "gmail", scopes: []string{"mail", "modify"}}); err != nil {
		t.Fatalf("RegisterSource: %v", err)
	}
	if err := r.RegisterSource(&fakeSource{name: "gmail"}); err == nil {
		t.Error("expected error registering a duplicate source")
	}
	if err := r.RegisterWriter(&fakeWriter{name: "sheets", scopes: []string{"sheets", "mail"}}); err != nil {
		t.Fatalf("RegisterWriter: %v", err)
	}

	if _, err := r.GetSource("smsbackup"); err == nil {
		t.Error("expected error for unknown source")
	}
	if _, err := r.GetWriter("nope"); err == nil {
		t.Error("expected error for unknown writer")
	}

	sources := r.ListSources()
	if len(sources) != 2 || sources[0].Name() != "gmail" || sources[1].Name() != "mbox" {
		t.Errorf("ListSources: got %d plugins, want sorted gmail, mbox", len(sources))
	}

	scopes, err := r.GetAllScopes("gmail", "sheets")
	if err != nil {
		t.Fatalf("GetAllScopes: %v", err)
	}
	want := []string{"mail", "modify", "sheets"}
	if len(scopes) != len(want) {
		t.Fatalf("scopes: got %v, want %v", scopes, want)
	}
	for i := range want {
		if scopes[i] != want[i] {
			t.Errorf("scope %d: got %q, want %q", i, scopes[i], want[i])
		}
	}
}

func TestDecodeConfig(t *testing.T) {
	type cfg struct {
		Path string `json:"path"`
	}

	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{name: "empty", data: "", want: ""},
		{name: "null", data: "null", want: ""},
		{name: "value", data: `{"path":"sms.xml"}`, want: "sms.xml"},
		{name: "unknown field", data: `{"pth":"sms.xml"}`, wantErr: true},
		{name: "malformed", data: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c cfg
			err := DecodeConfig(json.RawMessage(tt.data), &c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if c.Path != tt.want {
				t.Errorf("path: got %q, want %q", c.Path, tt.want)
			}
		})
	}
}
