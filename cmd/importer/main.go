package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "importer: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "importer",
		Short: "Import and export truck dock operation plans",
		Long: `importer reads dock operation plans from CSV and Excel files, maps their columns
onto canonical fields and normalizes times, dates and text. Results can be printed,
stored in Postgres or exported again as CSV or Excel.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	cmd.AddCommand(
		newImportCmd(a),
		newImportDirCmd(a),
		newExportCmd(a),
		newSetupDBCmd(a),
	)
	return cmd
}
