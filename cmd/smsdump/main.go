// Command smsdump reads messages from the configured source and writes the
// transaction-like ones to JSON fixture files for parser tests.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/smsexpensor/internal/plugins/builtin"
	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/client"
	"github.com/ArionMiles/smsexpensor/pkg/config"
	"github.com/ArionMiles/smsexpensor/pkg/logging"
	"github.com/ArionMiles/smsexpensor/pkg/parser"
)

const defaultDumpDir = "testdata/dump"

type options struct {
	dir    string
	limit  int
	all    bool
	redact bool
}

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var opts options
	cmd := &cobra.Command{
		Use:           "smsdump",
		Short:         "Dump transaction-like messages from SMSEXPENSOR_SOURCE into fixture files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, logger)
		},
	}
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", defaultDumpDir, "output directory")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 50, "maximum number of messages to read")
	cmd.Flags().BoolVar(&opts.all, "all", false, "dump every message, not only transaction-like ones")
	cmd.Flags().BoolVar(&opts.redact, "redact", true, "mask account and card numbers")

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error("dump failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	registry, err := builtin.Registry()
	if err != nil {
		return err
	}

	plugin, err := registry.GetSource(cfg.SourcePlugin)
	if err != nil {
		return err
	}

	hc, err := sourceClient(ctx, plugin.RequiredScopes(), logger)
	if err != nil {
		return err
	}

	source, err := registry.CreateSource(cfg.SourcePlugin, hc, cfg.SourceConfig, logger)
	if err != nil {
		return fmt.Errorf("creating source: %w", err)
	}

	policy, err := parser.ParsePolicy(cfg.ClassifyPolicy)
	if err != nil {
		return err
	}
	classifier := parser.NewClassifier(policy)

	var keep api.Filter
	if !opts.all {
		keep = func(msg api.RawMessage) bool {
			return classifier.IsTransaction(msg.SenderID, msg.Body)
		}
	}
	msgs, err := api.ReadFiltered(ctx, source, opts.limit, keep)
	if err != nil {
		return fmt.Errorf("reading messages: %w", err)
	}

	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return fmt.Errorf("creating dump directory: %w", err)
	}

	dumped := 0
	for i, msg := range msgs {
		if opts.redact {
			msg.Body = Redact(msg.Body)
		}

		path := filepath.Join(opts.dir, fixtureName(msg, i))
		if err := writeFixture(path, msg); err != nil {
			logger.Warn("failed to dump message", "path", path, "error", err)
			continue
		}
		dumped++
	}

	logger.Info("dump complete", "read", len(msgs), "dumped", dumped, "directory", opts.dir)
	return nil
}

func sourceClient(ctx context.Context, scopes []string, logger *slog.Logger) (*http.Client, error) {
	if len(scopes) == 0 {
		return nil, nil
	}
	return client.New(ctx, client.Config{SecretFile: config.ClientSecretFile}, logger, scopes...)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// fixtureName is <date>_<sender>_<index>.json.
func fixtureName(msg api.RawMessage, index int) string {
	sender := unsafeChars.ReplaceAllString(msg.SenderID, "_")
	if sender == "" {
		sender = "unknown"
	}
	return fmt.Sprintf("%s_%s_%03d.json", msg.Time().UTC().Format("2006-01-02_150405"), strings.Trim(sender, "_"), index)
}

func writeFixture(path string, msg api.RawMessage) error {
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

var longNumber = regexp.MustCompile(`\d{4,}`)

// Redact keeps the last four digits of every run of four or more digits.
// Amounts with separators ("2,500.00") are shorter runs and stay intact.
func Redact(body string) string {
	return longNumber.ReplaceAllStringFunc(body, func(s string) string {
		if len(s) <= 4 {
			return s
		}
		return strings.Repeat("X", len(s)-4) + s[len(s)-4:]
	})
}
