package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/smsexpensor/internal/remote"
	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/parser"
	"github.com/ArionMiles/smsexpensor/pkg/reader/mbox"
	"github.com/ArionMiles/smsexpensor/pkg/reader/smsbackup"
)

type parseOptions struct {
	format       string
	includeSent  bool
	senderHeader string
	remoteURL    string
	token        string
}

func newParseCmd() *cobra.Command {
	var opts parseOptions

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse an SMS export and print the expenses as JSON",
		Long: "parse reads an SMS Backup & Restore XML file or an mbox file and prints the parsed\n" +
			"expenses. With --remote the messages are sent to a running 'smsexpensor serve'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			return runParse(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "input format: smsbackup or mbox (default: from the file extension)")
	cmd.Flags().BoolVar(&opts.includeSent, "include-sent", false, "also parse sent messages (smsbackup only)")
	cmd.Flags().StringVar(&opts.senderHeader, "sender-header", "", "mail header holding the SMS sender (mbox only)")
	cmd.Flags().StringVar(&opts.remoteURL, "remote", "", "base URL of a smsexpensor server to parse on")
	cmd.Flags().StringVar(&opts.token, "token", os.Getenv("SMSEXPENSOR_TOKEN"), "bearer token for --remote")
	return cmd
}

func runParse(cmd *cobra.Command, a *app, path string, opts parseOptions) error {
	ctx := cmd.Context()
	if opts.format == "" {
		opts.format = formatFromPath(path)
	}

	msgs, err := readExport(cmd, a, path, opts)
	if err != nil {
		return err
	}
	a.logger.Info("read messages", "file", path, "count", len(msgs))

	var resp *api.ParseResponse
	if opts.remoteURL != "" {
		c, err := remote.New(remote.Config{BaseURL: opts.remoteURL, Token: opts.token}, a.logger)
		if err != nil {
			return err
		}
		if resp, err = c.Parse(ctx, msgs, nil); err != nil {
			return err
		}
	} else {
		p, err := a.newParser()
		if err != nil {
			return err
		}
		provider, err := a.newCatalog(ctx)
		if err != nil {
			return err
		}
		categories, err := provider.Categories(ctx, a.cfg.OwnerID)
		if err != nil {
			return fmt.Errorf("loading categories for %s: %w", a.cfg.OwnerID, err)
		}

		result, err := p.ParseBatch(msgs, categories)
		if err != nil {
			return err
		}

		resp = &api.ParseResponse{
			Success:           true,
			ProcessedMessages: result.Considered,
			ParsedExpenses:    result.Parsed,
			Expenses:          make([]*api.Expense, 0, len(result.Entries)),
		}
		for _, entry := range result.Entries {
			e := api.NewExpense(entry.Candidate, a.cfg.OwnerID)
			e.CategoryName = parser.CategoryName(categories, entry.Candidate.CategoryID)
			e.Source = opts.format
			resp.Expenses = append(resp.Expenses, e)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func readExport(cmd *cobra.Command, a *app, path string, opts parseOptions) ([]api.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	switch opts.format {
	case "smsbackup":
		return smsbackup.Decode(f, opts.includeSent)
	case "mbox":
		return mbox.Decode(cmd.Context(), f, opts.senderHeader, a.logger)
	default:
		return nil, fmt.Errorf("unknown format %q (want smsbackup or mbox)", opts.format)
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mbox", ".mbx", ".eml":
		return "mbox"
	default:
		return "smsbackup"
	}
}
