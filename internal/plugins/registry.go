// Package plugins provides a plugin registry for message sources and expense writers.
package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// SourcePlugin builds a message source.
type SourcePlugin interface {
	// Name returns the plugin name (e.g., "smsbackup", "gmail").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// RequiredScopes returns the OAuth scopes needed by this plugin.
	RequiredScopes() []string
	// ConfigSchema returns a JSON schema describing the plugin's configuration.
	ConfigSchema() map[string]any
	// NewSource creates a source with the given config.
	NewSource(httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Source, error)
}

// WriterPlugin builds an expense writer.
type WriterPlugin interface {
	Name() string
	Description() string
	RequiredScopes() []string
	ConfigSchema() map[string]any
	// NewWriter creates a writer with the given config. ctx bounds setup work such as connecting.
	NewWriter(ctx context.Context, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Writer, error)
}

// Registry manages available source and writer plugins.
type Registry struct {
	sources map[string]SourcePlugin
	writers map[string]WriterPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SourcePlugin),
		writers: make(map[string]WriterPlugin),
	}
}

// RegisterSource registers a source plugin.
func (r *Registry) RegisterSource(plugin SourcePlugin) error {
	name := plugin.Name()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source plugin %q already registered", name)
	}
	r.sources[name] = plugin
	return nil
}

// RegisterWriter registers a writer plugin.
func (r *Registry) RegisterWriter(plugin WriterPlugin) error {
	name := plugin.Name()
	if _, exists := r.writers[name]; exists {
		return fmt.Errorf("writer plugin %q already registered", name)
	}
	r.writers[name] = plugin
	return nil
}

// GetSource returns a source plugin by name.
func (r *Registry) GetSource(name string) (SourcePlugin, error) {
	plugin, exists := r.sources[name]
	if !exists {
		return nil, fmt.Errorf("source plugin %q not found (available: %v)", name, names(r.sources))
	}
	return plugin, nil
}

// GetWriter returns a writer plugin by name.
func (r *Registry) GetWriter(name string) (WriterPlugin, error) {
	plugin, exists := r.writers[name]
	if !exists {
		return nil, fmt.Errorf("writer plugin %q not found (available: %v)", name, names(r.writers))
	}
	return plugin, nil
}

// ListSources returns all registered source plugins sorted by name.
func (r *Registry) ListSources() []SourcePlugin {
	out := make([]SourcePlugin, 0, len(r.sources))
	for _, name := range names(r.sources) {
		out = append(out, r.sources[name])
	}
	return out
}

// ListWriters returns all registered writer plugins sorted by name.
func (r *Registry) ListWriters() []WriterPlugin {
	out := make([]WriterPlugin, 0, len(r.writers))
	for _, name := range names(r.writers) {
		out = append(out, r.writers[name])
	}
	return out
}

// GetAllScopes returns the deduplicated OAuth scopes needed by a source and writer pair.
func (r *Registry) GetAllScopes(sourceName, writerName string) ([]string, error) {
	source, err := r.GetSource(sourceName)
	if err != nil {
		return nil, err
	}
	writer, err := r.GetWriter(writerName)
	if err != nil {
		return nil, err
	}

	scopes := append(slices.Clone(source.RequiredScopes()), writer.RequiredScopes()...)
	slices.Sort(scopes)
	return slices.Compact(scopes), nil
}

// CreateSource creates a source instance from a plugin.
func (r *Registry) CreateSource(name string, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Source, error) {
	plugin, err := r.GetSource(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewSource(httpClient, config, logger)
}

// CreateWriter creates a writer instance from a plugin.
func (r *Registry) CreateWriter(ctx context.Context, name string, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Writer, error) {
	plugin, err := r.GetWriter(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewWriter(ctx, httpClient, config, logger)
}

// DecodeConfig unmarshals a plugin config, treating an empty config as "{}".
// Unknown fields are rejected.
func DecodeConfig(data json.RawMessage, v any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func names[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
