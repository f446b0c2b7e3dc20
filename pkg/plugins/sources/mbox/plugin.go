// Package mbox provides a plugin wrapper for the mbox source.
package mbox

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ArionMiles/smsexpensor/internal/plugins"
	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/reader/mbox"
)

// Plugin implements the SourcePlugin interface for mbox folders.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "mbox"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Read forwarded SMS from an mbox mail folder (e.g. a Thunderbird local folder)"
}

// RequiredScopes returns nil: the mbox is a local file.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the mbox file",
			},
			"senderHeader": map[string]any{
				"type":        "string",
				"description": "Header holding the original SMS sender (default: From display name)",
			},
		},
		"required": []string{"path"},
	}
}

// Config represents the mbox source configuration.
type Config struct {
	Path         string `json:"path"`
	SenderHeader string `json:"senderHeader,omitempty"`
}

// NewSource creates a new mbox source.
func (p *Plugin) NewSource(_ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Source, error) {
	var cfg Config
	if err := plugins.DecodeConfig(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling mbox config: %w", err)
	}
	return mbox.New(mbox.Config{Path: cfg.Path, SenderHeader: cfg.SenderHeader}, logger)
}
