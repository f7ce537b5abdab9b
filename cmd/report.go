package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/npsmentor-cli/internal/chart"
	"github.com/KaramelBytes/npsmentor-cli/internal/export"
	"github.com/KaramelBytes/npsmentor-cli/internal/report"
	"github.com/KaramelBytes/npsmentor-cli/internal/utils"
)

var (
	repSource    sourceFlags
	repFilter    filterFlags
	repLimit     int
	repOutput    string
	repJSON      bool
	repXLSX      string
	repCSV       string
	repChartsDir string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the NPS dashboard report (KPIs, ranking, insight, distribution, sample)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		f, err := repFilter.resolve(cmd)
		if err != nil {
			return err
		}
		src, rejects, err := repSource.open(ctx)
		if err != nil {
			return err
		}
		defer src.Close()

		limit := settings().SampleLimit
		if cmd.Flags().Changed("limit") {
			limit = repLimit
			if limit == 0 {
				limit = -1
			}
		}
		rep, err := report.Build(ctx, src, f, report.Options{SampleLimit: limit, Notes: report.RejectNotes(rejects, 10)})
		if err != nil {
			return err
		}
		if len(rejects) > 0 {
			fmt.Fprintf(os.Stderr, "⚠ %d row(s) rejected during load (see [NOTES])\n", len(rejects))
		}

		var body []byte
		if repJSON {
			if body, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			body = []byte(rep.Markdown())
		}
		if repOutput != "" {
			if err := utils.SafeWriteFile(repOutput, body, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", repOutput)
		} else {
			_, _ = cmd.OutOrStdout().Write(body)
		}

		if repXLSX != "" {
			if err := writeExport(repXLSX, rep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s\n", len(rep.Sample), repXLSX)
		}
		if repCSV != "" {
			if err := writeExport(repCSV, rep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s\n", len(rep.Sample), repCSV)
		}
		if repChartsDir != "" {
			if err := writeCharts(cmd, repChartsDir, rep); err != nil {
				return err
			}
		}
		return nil
	},
}

func writeExport(path string, rep *report.Report) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := export.Write(fh, path, rep.Sample); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

func writeCharts(cmd *cobra.Command, dir string, rep *report.Report) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("ensure charts dir: %w", err)
	}
	s := settings()
	opt := chart.Options{Width: s.ChartWidth, Height: s.ChartHeight}
	charts := []struct {
		name string
		draw func(*os.File) error
	}{
		{"categories.png", func(fh *os.File) error { return chart.CategoryBars(fh, rep.Filtered, opt) }},
		{"histogram.png", func(fh *os.File) error { return chart.ScoreHistogram(fh, rep.Histogram, opt) }},
	}
	for _, c := range charts {
		path := filepath.Join(dir, c.name)
		fh, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create chart: %w", err)
		}
		err = c.draw(fh)
		_ = fh.Close()
		if errors.Is(err, chart.ErrNoData) {
			_ = os.Remove(path)
			fmt.Fprintf(cmd.OutOrStdout(), "⚠ No data for %s; skipped\n", c.name)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote chart %s\n", path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	repSource.register(reportCmd)
	repFilter.register(reportCmd, true)
	reportCmd.Flags().IntVar(&repLimit, "limit", 0, "max sample rows (0 = all; default from sample_limit)")
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "write the report to a file instead of stdout")
	reportCmd.Flags().BoolVar(&repJSON, "json", false, "emit JSON instead of Markdown")
	reportCmd.Flags().StringVar(&repXLSX, "xlsx", "", "export the sample rows to an XLSX file")
	reportCmd.Flags().StringVar(&repCSV, "csv", "", "export the sample rows to a CSV file")
	reportCmd.Flags().StringVar(&repChartsDir, "charts", "", "write category and histogram PNG charts to this directory")
}
