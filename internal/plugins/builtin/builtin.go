// Package builtin registers the sources and writers shipped with smsexpensor.
package builtin

import (
	"fmt"

	"github.com/ArionMiles/smsexpensor/internal/plugins"
	gmailsource "github.com/ArionMiles/smsexpensor/pkg/plugins/sources/gmail"
	mboxsource "github.com/ArionMiles/smsexpensor/pkg/plugins/sources/mbox"
	smsbackupsource "github.com/ArionMiles/smsexpensor/pkg/plugins/sources/smsbackup"
	unavailablesource "github.com/ArionMiles/smsexpensor/pkg/plugins/sources/unavailable"
	csvplugin "github.com/ArionMiles/smsexpensor/pkg/plugins/writers/csv"
	jsonplugin "github.com/ArionMiles/smsexpensor/pkg/plugins/writers/json"
	postgresplugin "github.com/ArionMiles/smsexpensor/pkg/plugins/writers/postgres"
	sheetsplugin "github.com/ArionMiles/smsexpensor/pkg/plugins/writers/sheets"
	sqliteplugin "github.com/ArionMiles/smsexpensor/pkg/plugins/writers/sqlite"
)

// Registry returns a registry holding every built-in plugin.
func Registry() (*plugins.Registry, error) {
	r := plugins.NewRegistry()

	sources := []plugins.SourcePlugin{
		&smsbackupsource.Plugin{},
		&mboxsource.Plugin{},
		&gmailsource.Plugin{},
		&unavailablesource.Plugin{},
	}
	for _, p := range sources {
		if err := r.RegisterSource(p); err != nil {
			return nil, fmt.Errorf("registering %s source: %w", p.Name(), err)
		}
	}

	writers := []plugins.WriterPlugin{
		&jsonplugin.Plugin{},
		&csvplugin.Plugin{},
		&sheetsplugin.Plugin{},
		&postgresplugin.Plugin{},
		&sqliteplugin.Plugin{},
	}
	for _, p := range writers {
		if err := r.RegisterWriter(p); err != nil {
			return nil, fmt.Errorf("registering %s writer: %w", p.Name(), err)
		}
	}

	return r, nil
}
