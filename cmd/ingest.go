package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/npsmentor-cli/internal/logger"
	"github.com/KaramelBytes/npsmentor-cli/internal/source"
)

var (
	ingSheet       string
	ingCreateTable bool
	ingReplace     bool
	ingDryRun      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Normalize a CSV/XLSX file and load it into the PostgreSQL NPS table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		local, err := source.OpenFile(args[0], ingSheet)
		if err != nil {
			return err
		}
		rejects := local.Rejected()
		for _, r := range rejects {
			fmt.Fprintf(os.Stderr, "⚠ skipped %s\n", r.Error())
		}
		records := local.Records()
		if ingDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %d valid rows, %d rejected (dry run, nothing written)\n", len(records), len(rejects))
			return nil
		}

		pg, err := openPostgres(ctx)
		if err != nil {
			return err
		}
		defer pg.Close()
		if ingCreateTable {
			if err := pg.EnsureTable(ctx); err != nil {
				return err
			}
		}
		n, err := pg.Insert(ctx, records, ingReplace)
		if err != nil {
			return err
		}
		logger.Named("ingest").Info(ctx, "ingest finished", logger.String("file", args[0]), logger.Int("inserted", n), logger.Int("rejected", len(rejects)))
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Inserted %d rows into %s\n", n, pg.Describe())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	ingestCmd.Flags().BoolVar(&ingCreateTable, "create-table", false, "create the NPS table and indexes if missing")
	ingestCmd.Flags().BoolVar(&ingReplace, "replace", false, "truncate the table before inserting")
	ingestCmd.Flags().BoolVar(&ingDryRun, "dry-run", false, "validate the file without touching the database")
}
