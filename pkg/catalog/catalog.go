// Package catalog provides the category catalogs expenses are classified against.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// ErrNotFound is returned when no catalog exists for an owner.
var ErrNotFound = errors.New("category catalog not found")

// Provider returns the category catalog of an owner.
type Provider interface {
	Categories(ctx context.Context, ownerID string) ([]api.Category, error)
}

// Static serves the same catalog to every owner.
type Static []api.Category

// Categories implements Provider.
func (s Static) Categories(_ context.Context, _ string) ([]api.Category, error) {
	if len(s) == 0 {
		return nil, ErrNotFound
	}
	out := make([]api.Category, len(s))
	copy(out, s)
	return out, nil
}

// fileCatalog is the on-disk layout of a catalog file.
//
//	categories: [{id, name}]        served to every owner
//	owners: {ownerID: [{id, name}]} per-owner overrides
type fileCatalog struct {
	Categories []api.Category            `koanf:"categories"`
	Owners     map[string][]api.Category `koanf:"owners"`
}

// File serves catalogs loaded from a JSON or YAML file.
type File struct {
	shared Static
	owners map[string]Static
}

// LoadFile reads a catalog file. The format is picked from the extension.
func LoadFile(path string) (*File, error) {
	k, err := loadKoanf(path)
	if err != nil {
		return nil, err
	}

	var fc fileCatalog
	if err := k.Unmarshal("", &fc); err != nil {
		return nil, fmt.Errorf("unmarshaling catalog %s: %w", path, err)
	}

	f := &File{shared: fc.Categories, owners: make(map[string]Static, len(fc.Owners))}
	for owner, cats := range fc.Owners {
		f.owners[owner] = cats
	}
	if len(f.shared) == 0 && len(f.owners) == 0 {
		return nil, fmt.Errorf("catalog %s: %w", path, ErrNotFound)
	}
	return f, nil
}

// Categories implements Provider. Owners without their own entry get the shared list.
func (f *File) Categories(ctx context.Context, ownerID string) ([]api.Category, error) {
	if cats, ok := f.owners[ownerID]; ok {
		return cats.Categories(ctx, ownerID)
	}
	return f.shared.Categories(ctx, ownerID)
}

func loadKoanf(path string) (*koanf.Koanf, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		parser = json.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		return nil, fmt.Errorf("unsupported file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return k, nil
}
