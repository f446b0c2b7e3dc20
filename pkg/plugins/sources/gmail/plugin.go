// Package gmail provides a plugin wrapper for the Gmail source.
package gmail

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/ArionMiles/smsexpensor/internal/plugins"
	"github.com/ArionMiles/smsexpensor/pkg/api"
	gmailreader "github.com/ArionMiles/smsexpensor/pkg/reader/gmail"
)

// Plugin implements the SourcePlugin interface for Gmail.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "gmail"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Read SMS forwarded to a Gmail mailbox"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	return []string{
		gmailapi.GmailReadonlyScope,
		gmailapi.GmailModifyScope,
	}
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Gmail search query selecting forwarded SMS",
				"default":     gmailreader.DefaultQuery,
			},
			"senderHeader": map[string]any{
				"type":        "string",
				"description": "Header holding the original SMS sender (default: From display name)",
			},
		},
	}
}

// Config represents the Gmail source configuration.
type Config struct {
	Query        string `json:"query,omitempty"`
	SenderHeader string `json:"senderHeader,omitempty"`
}

// NewSource creates a new Gmail source.
func (p *Plugin) NewSource(httpClient *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Source, error) {
	if httpClient == nil {
		return nil, errors.New("gmail source requires an authenticated HTTP client; run setup first")
	}

	var cfg Config
	if err := plugins.DecodeConfig(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling gmail config: %w", err)
	}
	return gmailreader.New(httpClient, gmailreader.Config{Query: cfg.Query, SenderHeader: cfg.SenderHeader}, logger)
}
