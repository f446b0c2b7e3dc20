package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/smsexpensor/internal/daemon"
)

func newRunCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the configured source and write parsed expenses",
		Long: "run reads messages from SMSEXPENSOR_SOURCE, parses transaction messages and writes\n" +
			"expenses to SMSEXPENSOR_WRITER until interrupted. Written messages are remembered\n" +
			"(in Redis when REDIS_ADDR is set) and acknowledged at the source when supported.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return runDaemon(cmd, a, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "poll a single time, write everything and exit")
	return cmd
}

func runDaemon(cmd *cobra.Command, a *app, once bool) error {
	ctx := cmd.Context()
	cfg := a.cfg

	a.logger.Info("configuration loaded",
		"source", cfg.SourcePlugin,
		"writer", cfg.WriterPlugin,
		"owner", cfg.OwnerID,
	)

	p, err := a.newParser()
	if err != nil {
		return err
	}
	provider, err := a.newCatalog(ctx)
	if err != nil {
		return err
	}
	seen, err := a.newDedupe(ctx)
	if err != nil {
		return err
	}

	httpClient, err := a.httpClient(ctx, false)
	if err != nil {
		return fmt.Errorf("creating http client: %w", err)
	}

	source, err := a.registry.CreateSource(cfg.SourcePlugin, httpClient, cfg.SourceConfig, a.logger)
	if err != nil {
		return fmt.Errorf("creating source: %w", err)
	}
	writer, err := a.registry.CreateWriter(ctx, cfg.WriterPlugin, httpClient, cfg.WriterConfig, a.logger)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	runner := daemon.New(source, writer, p, provider, seen, daemon.Options{
		OwnerID:    cfg.OwnerID,
		SourceName: cfg.SourcePlugin,
		Interval:   cfg.Interval(),
		Lookback:   cfg.Lookback(),
		BatchLimit: cfg.BatchLimit,
		Once:       once,
	}, a.logger.With("component", "daemon"))

	if err := runner.Run(ctx); err != nil {
		return err
	}

	if once {
		stats := runner.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "read %d messages, parsed %d expenses, wrote %d\n", stats.Read, stats.Parsed, stats.Written)
	}
	return nil
}
