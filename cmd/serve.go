package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/npsmentor-cli/internal/chart"
	"github.com/KaramelBytes/npsmentor-cli/internal/logger"
	"github.com/KaramelBytes/npsmentor-cli/internal/server"
	"github.com/KaramelBytes/npsmentor-cli/internal/source"
)

var (
	srvSource sourceFlags
	srvAddr   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the NPS dashboard API (JSON, XLSX export, PNG charts, uploads)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		var src source.Source
		s, rejects, err := srvSource.open(ctx)
		switch {
		case errors.Is(err, errNoSource):
			fmt.Fprintln(os.Stderr, "⚠ No dataset configured; only POST /api/upload will produce reports")
		case err != nil:
			return err
		default:
			src = s
			defer src.Close()
			if len(rejects) > 0 {
				fmt.Fprintf(os.Stderr, "⚠ %d row(s) rejected during load\n", len(rejects))
			}
		}

		c := settings()
		addr := c.ListenAddr
		if cmd.Flags().Changed("addr") || addr == "" {
			addr = srvAddr
		}
		srv := server.New(src, server.Config{
			SampleLimit:    c.SampleLimit,
			Chart:          chart.Options{Width: c.ChartWidth, Height: c.ChartHeight},
			AllowedOrigins: c.AllowedOrigins,
			UploadMaxBytes: int64(c.UploadMaxMB) << 20,
		}, logger.Named("server"))
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dashboard API on %s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	srvSource.register(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", ":8080", "listen address (overrides listen_addr)")
}
