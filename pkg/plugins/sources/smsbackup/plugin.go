// Package smsbackup provides a plugin wrapper for the device export source.
package smsbackup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ArionMiles/smsexpensor/internal/plugins"
	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/reader/smsbackup"
)

// Plugin implements the SourcePlugin interface for SMS Backup & Restore exports.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "smsbackup"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Read SMS from an SMS Backup & Restore XML export of the device inbox"
}

// RequiredScopes returns nil: the export is a local file.
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
				"description": "Path to the XML export file",
			},
			"includeSent": map[string]any{
				"type":        "boolean",
				"description": "Also read messages sent from the device",
				"default":     false,
			},
		},
		"required": []string{"path"},
	}
}

// Config represents the export source configuration.
type Config struct {
	Path        string `json:"path"`
	IncludeSent bool   `json:"includeSent,omitempty"`
}

// NewSource creates a new export source.
func (p *Plugin) NewSource(_ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Source, error) {
	var cfg Config
	if err := plugins.DecodeConfig(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling smsbackup config: %w", err)
	}
	return smsbackup.New(smsbackup.Config{Path: cfg.Path, IncludeSent: cfg.IncludeSent}, logger)
}
