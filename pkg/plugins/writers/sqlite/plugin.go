// Package sqlite provides a plugin wrapper for the SQLite writer.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ArionMiles/smsexpensor/internal/plugins"
	"github.com/ArionMiles/smsexpensor/pkg/api"
	sqlitewriter "github.com/ArionMiles/smsexpensor/pkg/writer/sqlite"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "data/smsexpensor.db"

// Plugin implements the WriterPlugin interface for SQLite.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "sqlite"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Store expenses in a local SQLite database"
}

// RequiredScopes returns nil.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":          map[string]any{"type": "string", "default": DefaultPath},
			"batchSize":     map[string]any{"type": "integer", "default": 10},
			"flushInterval": map[string]any{"type": "integer", "description": "Seconds between automatic flushes", "default": 30},
		},
	}
}

// Config represents the SQLite writer configuration.
type Config struct {
	Path          string `json:"path,omitempty"`
	BatchSize     int    `json:"batchSize,omitempty"`
	FlushInterval int    `json:"flushInterval,omitempty"` // in seconds
}

// NewWriter creates a new SQLite writer instance.
func (p *Plugin) NewWriter(_ context.Context, _ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Writer, error) {
	var cfg Config
	if err := plugins.DecodeConfig(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling sqlite config: %w", err)
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}

	return sqlitewriter.New(sqlitewriter.Config{
		Path:          cfg.Path,
		BatchSize:     cfg.BatchSize,
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Second,
	}, logger)
}
