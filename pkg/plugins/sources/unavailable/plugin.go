// Package unavailable provides the plugin for platforms without SMS access.
package unavailable

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/reader/unavailable"
)

// Plugin implements the SourcePlugin interface with a source that always reports api.ErrUnavailable.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "unavailable"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "No SMS access on this platform; messages must be submitted to the parse API"
}

// RequiredScopes returns nil.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns an empty object schema.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{"type": "object"}
}

// NewSource creates the unavailable source. Config is ignored.
func (p *Plugin) NewSource(*http.Client, json.RawMessage, *slog.Logger) (api.Source, error) {
	return unavailable.New(), nil
}
