// Package config loads smsexpensor configuration from the environment.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// ClientSecretFile is the default path to the Google OAuth credentials JSON file.
const ClientSecretFile = "data/client_secret.json"

// Defaults applied by Load when a value is not set.
const (
	DefaultSource       = "smsbackup"
	DefaultWriter       = "json"
	DefaultOwnerID      = "local"
	DefaultLookbackDays = 30
	DefaultIntervalSecs = 60
	DefaultBatchLimit   = 100
	DefaultListenAddr   = ":8080"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// SourcePlugin is the name of the message source plugin to use.
	// Environment variable: SMSEXPENSOR_SOURCE
	SourcePlugin string `koanf:"SMSEXPENSOR_SOURCE"`

	// WriterPlugin is the name of the writer plugin to use.
	// Environment variable: SMSEXPENSOR_WRITER
	WriterPlugin string `koanf:"SMSEXPENSOR_WRITER"`

	// SourceConfig is the JSON configuration for the source plugin.
	// Environment variable: SMSEXPENSOR_SOURCE_CONFIG
	SourceConfig json.RawMessage `koanf:"SMSEXPENSOR_SOURCE_CONFIG"`

	// WriterConfig is the JSON configuration for the writer plugin.
	// Environment variable: SMSEXPENSOR_WRITER_CONFIG
	WriterConfig json.RawMessage `koanf:"SMSEXPENSOR_WRITER_CONFIG"`

	// OwnerID tags expenses written by the daemon.
	OwnerID string `koanf:"SMSEXPENSOR_OWNER_ID"`

	// CategoriesFile is a JSON or YAML file holding the category catalog.
	// When empty and POSTGRES_HOST is set, categories are read from PostgreSQL.
	CategoriesFile string `koanf:"SMSEXPENSOR_CATEGORIES_FILE"`

	// RulesFile optionally replaces the built-in keyword-to-category rules.
	RulesFile string `koanf:"SMSEXPENSOR_RULES_FILE"`

	// ClassifyPolicy is "any" (sender or keyword) or "all" (sender and keyword).
	ClassifyPolicy string `koanf:"SMSEXPENSOR_CLASSIFY_POLICY"`

	// Timezone is the IANA zone used to derive transaction dates. Defaults to UTC.
	Timezone string `koanf:"SMSEXPENSOR_TIMEZONE"`

	// LookbackDays drops messages older than this many days. 0 uses the default, negative disables.
	LookbackDays int `koanf:"SMSEXPENSOR_LOOKBACK_DAYS"`

	// IntervalSeconds is the delay between daemon polls.
	IntervalSeconds int `koanf:"SMSEXPENSOR_INTERVAL"`

	// BatchLimit caps how many messages are read per poll.
	BatchLimit int `koanf:"SMSEXPENSOR_BATCH_LIMIT"`

	// Workers > 1 parses batches in parallel.
	Workers int `koanf:"SMSEXPENSOR_WORKERS"`

	// ListenAddr is the HTTP listen address for the serve command.
	ListenAddr string `koanf:"SMSEXPENSOR_LISTEN_ADDR"`

	// APITokens maps bearer tokens to owner IDs: "token1=owner1,token2=owner2".
	APITokens string `koanf:"SMSEXPENSOR_API_TOKENS"`

	// RedisAddr enables the Redis dedupe store when set.
	RedisAddr     string `koanf:"REDIS_ADDR"`
	RedisPassword string `koanf:"REDIS_PASSWORD"`
	RedisDB       int    `koanf:"REDIS_DB"`

	// PostgreSQL connection used by the postgres catalog and the serve command's store.
	PostgresHost     string `koanf:"POSTGRES_HOST"`
	PostgresPort     int    `koanf:"POSTGRES_PORT"`
	PostgresDB       string `koanf:"POSTGRES_DB"`
	PostgresUser     string `koanf:"POSTGRES_USER"`
	PostgresPassword string `koanf:"POSTGRES_PASSWORD"`
	PostgresSSLMode  string `koanf:"POSTGRES_SSLMODE"`
}

// Load reads the configuration from the environment and applies defaults.
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}
	return FromKoanf(k)
}

// FromKoanf unmarshals an already loaded koanf instance.
func FromKoanf(k *koanf.Koanf) (Config, error) {
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SourcePlugin == "" {
		c.SourcePlugin = DefaultSource
	}
	if c.WriterPlugin == "" {
		c.WriterPlugin = DefaultWriter
	}
	if c.OwnerID == "" {
		c.OwnerID = DefaultOwnerID
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = DefaultLookbackDays
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = DefaultIntervalSecs
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = DefaultBatchLimit
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
}

// Location returns the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Lookback returns the recency window, or 0 when disabled.
func (c Config) Lookback() time.Duration {
	if c.LookbackDays < 0 {
		return 0
	}
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// Interval returns the delay between daemon polls.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Tokens parses APITokens into a token-to-owner map.
func (c Config) Tokens() (map[string]string, error) {
	tokens := make(map[string]string)
	if strings.TrimSpace(c.APITokens) == "" {
		return tokens, nil
	}

	for _, pair := range strings.Split(c.APITokens, ",") {
		token, owner, ok := strings.Cut(strings.TrimSpace(pair), "=")
		token, owner = strings.TrimSpace(token), strings.TrimSpace(owner)
		if !ok || token == "" || owner == "" {
			return nil, fmt.Errorf("invalid API token entry %q: expected token=owner", pair)
		}
		tokens[token] = owner
	}
	return tokens, nil
}

// HasPostgres reports whether a PostgreSQL connection is configured.
func (c Config) HasPostgres() bool {
	return c.PostgresHost != ""
}
