// Package remote calls a smsexpensor server's parse endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

const parsePath = "/api/v1/sms/parse"

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	// Attempts is the total number of tries per call. Defaults to 3.
	Attempts uint
	// RetryDelay is the base backoff delay. Defaults to 1s.
	RetryDelay time.Duration
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// Client sends message batches to a remote parse endpoint.
type Client struct {
	baseURL    string
	token      string
	attempts   uint
	retryDelay time.Duration
	http       *http.Client
	logger     *slog.Logger
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote: base URL is required")
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		attempts:   cfg.Attempts,
		retryDelay: cfg.RetryDelay,
		http:       cfg.HTTPClient,
		logger:     logger.With("component", "remote"),
	}, nil
}

// Parse sends msgs for parsing. When categories is nil the server uses the caller's stored catalog.
// Server errors (5xx) and transport failures are retried; client errors are returned immediately.
func (c *Client) Parse(ctx context.Context, msgs []api.RawMessage, categories []api.Category) (*api.ParseResponse, error) {
	if msgs == nil {
		msgs = []api.RawMessage{}
	}
	payload, err := json.Marshal(api.ParseRequest{Messages: msgs, Categories: categories})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var resp *api.ParseResponse
	err = retry.Do(
		func() error {
			var err error
			resp, err = c.post(ctx, payload)
			return err
		},
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("parse request failed, retrying", "attempt", n+1, "error", err)
		}),
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("remote parse: %w", err)
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, payload []byte) (*api.ParseResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+parsePath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &StatusError{StatusCode: res.StatusCode, Message: msg}
	}

	var out api.ParseResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	var syntax *json.SyntaxError
	return !errors.As(err, &syntax)
}
