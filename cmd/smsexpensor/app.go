package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArionMiles/smsexpensor/internal/plugins"
	"github.com/ArionMiles/smsexpensor/internal/plugins/builtin"
	"github.com/ArionMiles/smsexpensor/pkg/catalog"
	"github.com/ArionMiles/smsexpensor/pkg/client"
	"github.com/ArionMiles/smsexpensor/pkg/config"
	"github.com/ArionMiles/smsexpensor/pkg/dedupe"
	"github.com/ArionMiles/smsexpensor/pkg/parser"
	"github.com/ArionMiles/smsexpensor/pkg/writer/postgres"
)

// app holds what every command needs: configuration, logger and the plugin registry.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *plugins.Registry
	closers  []func()
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	registry, err := builtin.Registry()
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: slog.Default(), registry: registry}, nil
}

// Close releases everything opened through the app, in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) rules() (catalog.RuleSet, error) {
	if a.cfg.RulesFile == "" {
		return catalog.RuleSet{}, nil
	}
	rs, err := catalog.LoadRules(a.cfg.RulesFile)
	if err != nil {
		return catalog.RuleSet{}, fmt.Errorf("loading rules: %w", err)
	}
	a.logger.Info("loaded category rules", "file", a.cfg.RulesFile, "rules", len(rs.Rules))
	return rs, nil
}

func (a *app) newParser() (*parser.Parser, error) {
	policy, err := parser.ParsePolicy(a.cfg.ClassifyPolicy)
	if err != nil {
		return nil, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	rs, err := a.rules()
	if err != nil {
		return nil, err
	}

	return parser.New(parser.Options{
		Policy:          policy,
		Rules:           rs.Rules,
		DefaultCategory: rs.DefaultCategory,
		Location:        loc,
		Workers:         a.cfg.Workers,
	}), nil
}

// newCatalog picks the catalog provider: a categories file, then PostgreSQL,
// then a catalog derived from the category rules.
func (a *app) newCatalog(ctx context.Context) (catalog.Provider, error) {
	switch {
	case a.cfg.CategoriesFile != "":
		f, err := catalog.LoadFile(a.cfg.CategoriesFile)
		if err != nil {
			return nil, fmt.Errorf("loading categories: %w", err)
		}
		a.logger.Info("using category catalog file", "file", a.cfg.CategoriesFile)
		return f, nil

	case a.cfg.HasPostgres():
		pool, err := pgxpool.New(ctx, a.postgresConfig().ConnString())
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.logger.Info("using postgres category catalog", "host", a.cfg.PostgresHost)
		return catalog.NewPostgres(pool), nil

	default:
		rs, err := a.rules()
		if err != nil {
			return nil, err
		}
		a.logger.Info("using default category catalog")
		return catalog.Default(rs), nil
	}
}

// newDedupe returns a Redis store when REDIS_ADDR is set, nil otherwise.
func (a *app) newDedupe(ctx context.Context) (dedupe.Store, error) {
	if a.cfg.RedisAddr == "" {
		return nil, nil
	}
	r, err := dedupe.NewRedis(ctx, dedupe.RedisConfig{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = r.Close() })
	return r, nil
}

// httpClient returns an OAuth client when the selected plugins need scopes, nil otherwise.
func (a *app) httpClient(ctx context.Context, interactive bool) (*http.Client, error) {
	scopes, err := a.registry.GetAllScopes(a.cfg.SourcePlugin, a.cfg.WriterPlugin)
	if err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		return nil, nil
	}

	a.logger.Info("OAuth scopes required", "scopes", scopes)
	return client.New(ctx, client.Config{
		SecretFile:  config.ClientSecretFile,
		Interactive: interactive,
	}, a.logger, scopes...)
}

func (a *app) postgresConfig() postgres.Config {
	return postgres.Config{
		Host:     a.cfg.PostgresHost,
		Port:     a.cfg.PostgresPort,
		Database: a.cfg.PostgresDB,
		User:     a.cfg.PostgresUser,
		Password: a.cfg.PostgresPassword,
		SSLMode:  a.cfg.PostgresSSLMode,
	}
}
