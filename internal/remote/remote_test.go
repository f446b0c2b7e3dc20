package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/logging"
)

func newClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: url + "/", Token: "secret", RetryDelay: time.Millisecond}, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != parsePath {
			t.Errorf("path: got %q, want %q", r.URL.Path, parsePath)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization: got %q", got)
		}

		var req api.ParseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.Messages) != 1 || req.Categories != nil {
			t.Errorf("request: got %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ParseResponse{Success: true, ProcessedMessages: 1, ParsedExpenses: 1})
	}))
	defer srv.Close()

	resp, err := newClient(t, srv.URL).Parse(context.Background(), []api.RawMessage{{SenderID: "HDFC", Body: "Rs 10 spent", TimestampMs: 1}}, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !resp.Success || resp.ParsedExpenses != 1 {
		t.Errorf("response: got %+v", resp)
	}
}

func TestParse_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"try later"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(api.ParseResponse{Success: true})
	}))
	defer srv.Close()

	if _, err := newClient(t, srv.URL).Parse(context.Background(), nil, nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls: got %d, want 3", got)
	}
}

func TestParse_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Parse(context.Background(), nil, nil)

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error: got %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusUnauthorized || se.Message != "Unauthorized" {
		t.Errorf("status error: got %d %q", se.StatusCode, se.Message)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls: got %d, want 1", got)
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("expected an error without a base URL")
	}
}
