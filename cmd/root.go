package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/npsmentor-cli/internal/config"
	"github.com/KaramelBytes/npsmentor-cli/internal/logger"
)

var (
	cfgFile string
	debug   bool
	flagDB  string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "npsmentor",
	Short: "NPS mentor reports from spreadsheets or PostgreSQL",
	Long: `npsmentor filters and aggregates mentor Net Promoter Score data by category,
computes KPIs and best/worst insights, renders charts, and serves the same
dashboard over HTTP. Data comes from CSV/XLSX files or a PostgreSQL table.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.npsmentor/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db-conn", "", "PostgreSQL connection string (overrides DB_CONN)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: read-only commands fall back to config.Default()
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		initLogger("info")
		return
	}
	cfg = c
	if rootCmd.PersistentFlags().Changed("db-conn") && flagDB != "" {
		cfg.DBConn = flagDB
	}
	initLogger(cfg.LogLevel)
}

func initLogger(level string) {
	if debug {
		level = "debug"
	}
	if err := logger.Init(level); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using info\n", err)
		_ = logger.Init("info")
	}
}

// settings returns the loaded config, or the defaults when loading failed.
func settings() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	c := cfgpkg.Default()
	if flagDB != "" {
		c.DBConn = flagDB
	}
	return c
}
