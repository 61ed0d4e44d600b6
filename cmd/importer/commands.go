package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ThiagoRGoveia/dock-operations/internal/export"
	"github.com/ThiagoRGoveia/dock-operations/internal/ingestion"
	"github.com/ThiagoRGoveia/dock-operations/internal/models"
)

func newImportCmd(a *app) *cobra.Command {
	var dateFlag, sideFlag string
	var replace, dryRun bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import one CSV or Excel plan",
		Long: `Import reads one plan and stores its operations. Rows without a date or side
take --date and --side. With --replace the stored day and side are replaced by the
file; otherwise operations already stored are kept. --dry-run prints the operations
as JSON instead of storing them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			startTime := time.Now()

			date, err := a.day(dateFlag)
			if err != nil {
				return err
			}
			side, err := a.side(sideFlag)
			if err != nil {
				return err
			}

			result, err := a.importer.ImportFile(args[0], date, side)
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}
			if dryRun {
				return printJSON(cmd.OutOrStdout(), result.Operations)
			}

			dbManager, closeDB, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := dbManager.CreateOperationsTable(ctx); err != nil {
				return err
			}

			stored := int64(len(result.Operations))
			if replace {
				err = dbManager.ReplaceDay(ctx, date, side, result.Operations)
			} else {
				stored, err = dbManager.InsertOperations(ctx, result.Operations)
			}
			if err != nil {
				return fmt.Errorf("failed to store operations: %w", err)
			}

			a.logger.WithFields(logrus.Fields{
				"file":     args[0],
				"imported": len(result.Operations),
				"stored":   stored,
				"replace":  replace,
				"elapsed":  time.Since(startTime).String(),
			}).Info("Import finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "Default date for rows without one (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&sideFlag, "side", "", "Default side label for rows without one")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the stored operations of the day and side")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the operations as JSON without storing them")
	return cmd
}

func newImportDirCmd(a *app) *cobra.Command {
	var dateFlag, sideFlag string
	var workers int
	cmd := &cobra.Command{
		Use:   "import-dir <dir>",
		Short: "Import every plan under a directory",
		Long: `import-dir walks a directory and imports every CSV and Excel file it finds.
Files whose content was imported before are skipped. Each file is recorded with its
outcome in the import_files table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			startTime := time.Now()

			date, err := a.day(dateFlag)
			if err != nil {
				return err
			}
			side, err := a.side(sideFlag)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = a.cfg.NumImportWorkers
			}

			dbManager, closeDB, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			service := ingestion.NewIngestionService(
				dbManager,
				ingestion.Setup{},
				ingestion.NewAsyncWorker(dbManager, a.importer, ingestion.AsyncWorkerConfig{DefaultDate: date, DefaultSide: side}, a.logger),
				ingestion.NewFileProcessor(dbManager, a.logger),
				ingestion.IngestionConfig{NumImportWorkers: workers},
				a.logger,
			)

			report, err := service.Execute(ctx, args[0])
			if err != nil {
				return fmt.Errorf("error during import: %w", err)
			}

			a.logger.WithField("elapsed", time.Since(startTime).String()).Info("Directory import finished")
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "Default date for rows without one (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&sideFlag, "side", "", "Default side label for rows without one")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of files imported in parallel (default NUM_IMPORT_WORKERS)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var dateFlag, sideFlag, format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored operations of one day and side",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			date, err := a.day(dateFlag)
			if err != nil {
				return err
			}
			side, err := a.side(sideFlag)
			if err != nil {
				return err
			}
			if format != ingestion.FormatDelimited && format != ingestion.FormatWorkbook {
				return fmt.Errorf("unknown --format %q: expected csv or xlsx", format)
			}

			dbManager, closeDB, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			ops, err := dbManager.GetByDate(ctx, date, side)
			if err != nil {
				return err
			}

			title := fmt.Sprintf("Operations %s %s", date.Format(models.DateLayout), side)
			err = writeOutput(cmd.OutOrStdout(), out, func(w io.Writer) error {
				if format == ingestion.FormatWorkbook {
					return export.WriteWorkbook(w, ops, title)
				}
				return export.WriteCSV(w, ops)
			})
			if err != nil {
				return err
			}

			a.logger.WithFields(logrus.Fields{"operations": len(ops), "format": format, "out": out}).Info("Export finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "", "Day to export (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&sideFlag, "side", "", "Side label to export")
	cmd.Flags().StringVar(&format, "format", ingestion.FormatDelimited, "Output format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newSetupDBCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup-db",
		Short: "Create the import_files and operations tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dbManager, closeDB, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			a.logger.Info("Creating import_files table")
			if err := dbManager.CreateImportFilesTable(ctx); err != nil {
				return fmt.Errorf("error creating import_files table: %w", err)
			}
			a.logger.Info("Creating operations table")
			if err := dbManager.CreateOperationsTable(ctx); err != nil {
				return fmt.Errorf("error creating operations table: %w", err)
			}
			a.logger.Info("Database setup finished")
			return nil
		},
	}
}

// writeOutput runs write against path, or against stdout when path is blank.
// Close errors are returned.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
