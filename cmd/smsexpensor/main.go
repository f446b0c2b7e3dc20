// Command smsexpensor turns bank and wallet transaction SMS into expenses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/smsexpensor/pkg/logging"
)

func main() {
	logger := logging.Setup(logging.DefaultConfig())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smsexpensor",
		Short:         "Extract expenses from bank and wallet transaction SMS",
		Long:          "smsexpensor reads transaction messages from an SMS export, a mailbox or Gmail,\nextracts amount, description, category and payment method, and writes expenses\nto a file, a spreadsheet or a database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newParseCmd(),
		newServeCmd(),
		newSetupCmd(),
		newStatusCmd(),
		newCategoriesCmd(),
		newPluginsCmd(),
	)

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("smsexpensor %s\n", version))
	return root
}

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"
