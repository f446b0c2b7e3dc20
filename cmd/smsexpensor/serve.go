package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/smsexpensor/internal/server"
	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/catalog"
	"github.com/ArionMiles/smsexpensor/pkg/writer/postgres"
	"github.com/ArionMiles/smsexpensor/pkg/writer/sqlite"
)

func newServeCmd() *cobra.Command {
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the SMS parse endpoint over HTTP",
		Long: "serve exposes POST " + server.ParsePath + " on SMSEXPENSOR_LISTEN_ADDR.\n" +
			"Callers authenticate with a bearer token from SMSEXPENSOR_API_TOKENS (token=owner,...).\n" +
			"Parsed expenses are stored in PostgreSQL when POSTGRES_HOST is set, or in SQLite with --sqlite.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return runServe(cmd, a, sqlitePath)
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "store parsed expenses in this SQLite database")
	return cmd
}

func runServe(cmd *cobra.Command, a *app, sqlitePath string) error {
	ctx := cmd.Context()

	tokens, err := a.cfg.Tokens()
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return errors.New("SMSEXPENSOR_API_TOKENS is required to serve")
	}

	p, err := a.newParser()
	if err != nil {
		return err
	}

	var (
		saver    api.Saver
		provider catalog.Provider
	)
	switch {
	case a.cfg.HasPostgres():
		w, err := postgres.New(ctx, a.postgresConfig(), a.logger)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.closers = append(a.closers, w.Close)
		saver, provider = w, catalog.NewPostgres(w.Pool())

	case sqlitePath != "":
		w, err := sqlite.New(sqlite.Config{Path: sqlitePath}, a.logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = w.Close() })
		saver, provider = w, w

	default:
		a.logger.Warn("no database configured, parsed expenses will not be stored")
	}

	if provider == nil || a.cfg.CategoriesFile != "" {
		if provider, err = a.newCatalog(ctx); err != nil {
			return err
		}
	}

	srv := server.New(p, provider, saver, tokens, a.logger)
	return srv.ListenAndServe(ctx, a.cfg.ListenAddr)
}
