package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/smsexpensor/pkg/client"
	"github.com/ArionMiles/smsexpensor/pkg/config"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration, catalog, credentials and source access",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			s := &statusReport{out: cmd.OutOrStdout(), ok: true}
			s.run(ctx, a)
			if !s.ok {
				return errors.New("configuration issues detected")
			}
			return nil
		},
	}
}

type statusReport struct {
	out io.Writer
	ok  bool
}

func (s *statusReport) check(name string, err error, detail string) {
	if err != nil {
		fmt.Fprintf(s.out, "%-24s ✗ %v\n", name+":", err)
		s.ok = false
		return
	}
	fmt.Fprintf(s.out, "%-24s ✓ %s\n", name+":", detail)
}

func (s *statusReport) run(ctx context.Context, a *app) {
	cfg := a.cfg

	fmt.Fprintln(s.out, "=== smsexpensor status ===")
	fmt.Fprintln(s.out)

	_, err := a.registry.GetSource(cfg.SourcePlugin)
	s.check("Source plugin", err, cfg.SourcePlugin)
	_, err = a.registry.GetWriter(cfg.WriterPlugin)
	s.check("Writer plugin", err, cfg.WriterPlugin)

	p, err := a.newParser()
	s.check("Parser", err, "rules and timezone loaded")

	provider, err := a.newCatalog(ctx)
	if err == nil {
		cats, cerr := provider.Categories(ctx, cfg.OwnerID)
		s.check("Category catalog", cerr, fmt.Sprintf("%d categories for %s", len(cats), cfg.OwnerID))
	} else {
		s.check("Category catalog", err, "")
	}

	tokens, err := cfg.Tokens()
	s.check("API tokens", err, fmt.Sprintf("%d configured", len(tokens)))

	if cfg.RedisAddr != "" {
		_, err := a.newDedupe(ctx)
		s.check("Redis", err, cfg.RedisAddr)
	}

	scopes, err := a.registry.GetAllScopes(cfg.SourcePlugin, cfg.WriterPlugin)
	if err == nil && len(scopes) > 0 {
		s.checkOAuth()
	}

	if p != nil && s.ok {
		s.checkSource(ctx, a)
	}

	fmt.Fprintln(s.out)
	if s.ok {
		fmt.Fprintln(s.out, "Status: ✓ Ready to run")
		fmt.Fprintln(s.out, "Run 'smsexpensor run' to start tracking expenses.")
	} else {
		fmt.Fprintln(s.out, "Status: ✗ Configuration issues detected")
		fmt.Fprintln(s.out, "Fix the issues above, then run 'smsexpensor status' again.")
	}
}

func (s *statusReport) checkOAuth() {
	_, err := os.Stat(config.ClientSecretFile)
	s.check("Credentials file", err, config.ClientSecretFile)

	tok, err := client.LoadToken(client.DefaultTokenFile)
	switch {
	case err != nil:
		s.check("OAuth token", fmt.Errorf("%w (run 'smsexpensor setup')", err), "")
	case !tok.Expiry.IsZero() && tok.Expiry.Before(time.Now()):
		s.check("OAuth token", nil, "expired, will refresh on next run")
	default:
		s.check("OAuth token", nil, "valid")
	}
}

func (s *statusReport) checkSource(ctx context.Context, a *app) {
	httpClient, err := a.httpClient(ctx, false)
	if err != nil {
		s.check("Source access", err, "")
		return
	}

	source, err := a.registry.CreateSource(a.cfg.SourcePlugin, httpClient, a.cfg.SourceConfig, a.logger)
	if err != nil {
		s.check("Source access", err, "")
		return
	}

	perms, err := source.RequestPermissions(ctx)
	if err == nil && !perms.Messages {
		err = errors.New("message access not granted")
	}
	s.check("Source access", err, "messages readable")
}
