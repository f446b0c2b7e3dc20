package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/smsexpensor/pkg/writer/postgres"
	"github.com/ArionMiles/smsexpensor/pkg/writer/sqlite"
)

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect and store category catalogs",
	}

	var owner string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog the parser would use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if owner == "" {
				owner = a.cfg.OwnerID
			}
			provider, err := a.newCatalog(cmd.Context())
			if err != nil {
				return err
			}
			cats, err := provider.Categories(cmd.Context(), owner)
			if err != nil {
				return err
			}
			for _, c := range cats {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	}
	list.Flags().StringVar(&owner, "owner", "", "owner ID (default SMSEXPENSOR_OWNER_ID)")

	var sqlitePath string
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Copy the catalog file into PostgreSQL or SQLite for an owner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.CategoriesFile == "" {
				return errors.New("SMSEXPENSOR_CATEGORIES_FILE is required")
			}
			if owner == "" {
				owner = a.cfg.OwnerID
			}

			ctx := cmd.Context()
			provider, err := a.newCatalog(ctx)
			if err != nil {
				return err
			}
			cats, err := provider.Categories(ctx, owner)
			if err != nil {
				return err
			}

			switch {
			case a.cfg.HasPostgres():
				w, err := postgres.New(ctx, a.postgresConfig(), a.logger)
				if err != nil {
					return err
				}
				defer w.Close()
				if err := w.ReplaceCategories(ctx, owner, cats); err != nil {
					return err
				}
			case sqlitePath != "":
				w, err := sqlite.New(sqlite.Config{Path: sqlitePath}, a.logger)
				if err != nil {
					return err
				}
				defer w.Close()
				if err := w.ReplaceCategories(ctx, owner, cats); err != nil {
					return err
				}
			default:
				return errors.New("set POSTGRES_HOST or --sqlite to choose where to store the catalog")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "stored %d categories for %s\n", len(cats), owner)
			return nil
		},
	}
	sync.Flags().StringVar(&owner, "owner", "", "owner ID (default SMSEXPENSOR_OWNER_ID)")
	sync.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database to store the catalog in")

	cmd.AddCommand(list, sync)
	return cmd
}
