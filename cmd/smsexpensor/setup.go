package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/smsexpensor/pkg/client"
	"github.com/ArionMiles/smsexpensor/pkg/config"
)

func newSetupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Authorize smsexpensor with Google for the gmail source or sheets writer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return runSetup(cmd, a, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "discard the stored token and authenticate again")
	return cmd
}

func runSetup(cmd *cobra.Command, a *app, force bool) error {
	out := cmd.OutOrStdout()
	secretsPath := config.ClientSecretFile

	fmt.Fprintln(out, "=== smsexpensor setup ===")
	fmt.Fprintln(out)

	scopes, err := a.registry.GetAllScopes(a.cfg.SourcePlugin, a.cfg.WriterPlugin)
	if err != nil {
		return err
	}
	if len(scopes) == 0 {
		fmt.Fprintf(out, "Source %q and writer %q need no Google authorization. Nothing to do.\n", a.cfg.SourcePlugin, a.cfg.WriterPlugin)
		return nil
	}

	if _, err := os.Stat(secretsPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("credentials file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", secretsPath, secretsPath)
	}

	if !force {
		if _, err := os.Stat(client.DefaultTokenFile); err == nil {
			fmt.Fprintf(out, "Already authenticated. Token file exists: %s\n\n", client.DefaultTokenFile)
			fmt.Fprintln(out, "To re-authenticate, run: smsexpensor setup --force")
			return nil
		}
	} else {
		if err := os.Remove(client.DefaultTokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Fprintln(out, "Forcing re-authentication...")
		fmt.Fprintln(out)
	}

	printScopes(out, scopes)
	fmt.Fprintln(out, "Starting authentication...")
	fmt.Fprintln(out)

	if _, err := a.httpClient(cmd.Context(), true); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Setup complete ===")
	fmt.Fprintf(out, "Token saved to: %s\n\n", client.DefaultTokenFile)
	fmt.Fprintln(out, "Run 'smsexpensor status' to check the configuration, then 'smsexpensor run'.")
	return nil
}

func printScopes(out io.Writer, scopes []string) {
	fmt.Fprintln(out, "Required permissions:")
	for _, s := range scopes {
		fmt.Fprintf(out, "  - %s\n", s)
	}
	fmt.Fprintln(out)
}
