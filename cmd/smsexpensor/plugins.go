package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/smsexpensor/internal/plugins/builtin"
)

func newPluginsCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the available sources and writers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := builtin.Registry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			type plugin interface {
				Name() string
				Description() string
				RequiredScopes() []string
				ConfigSchema() map[string]any
			}
			describe := func(p plugin) error {
				fmt.Fprintf(out, "  %-12s %s\n", p.Name(), p.Description())
				if scopes := p.RequiredScopes(); len(scopes) > 0 {
					fmt.Fprintf(out, "  %-12s scopes: %s\n", "", strings.Join(scopes, ", "))
				}
				if verbose {
					schema, err := json.MarshalIndent(p.ConfigSchema(), "    ", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "    %s\n", schema)
				}
				return nil
			}

			fmt.Fprintln(out, "Sources (SMSEXPENSOR_SOURCE):")
			for _, p := range registry.ListSources() {
				if err := describe(p); err != nil {
					return err
				}
			}
			fmt.Fprintln(out, "Writers (SMSEXPENSOR_WRITER):")
			for _, p := range registry.ListWriters() {
				if err := describe(p); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each plugin's configuration schema")
	return cmd
}
