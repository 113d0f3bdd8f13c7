package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/argus-sec/argus/internal/interfaces/cli/migrate"
	"github.com/argus-sec/argus/internal/interfaces/cli/reconcile"
	"github.com/argus-sec/argus/internal/interfaces/cli/serve"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "argus",
		Short: "Argus - scan result ticket reconciliation",
		Long:  `Argus reconciles recurring vulnerability, port, and host scan results against persistent tickets with full event history.`,
	}

	rootCmd.AddCommand(
		reconcile.NewCommand(),
		serve.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
