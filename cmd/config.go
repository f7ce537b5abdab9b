package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/npsmentor-cli/internal/config"
	"github.com/KaramelBytes/npsmentor-cli/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set npsmentor configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "db_conn: %s\n", maskConn(cfg.DBConn))
		fmt.Fprintf(out, "db_table: %s\n", cfg.DBTable)
		fmt.Fprintf(out, "db_max_open_conns: %d\n", cfg.DBMaxOpenConns)
		fmt.Fprintf(out, "db_max_idle_conns: %d\n", cfg.DBMaxIdleConns)
		fmt.Fprintf(out, "db_conn_max_lifetime_sec: %d\n", cfg.DBConnMaxLifetimeSec)
		fmt.Fprintf(out, "sample_limit: %d\n", cfg.SampleLimit)
		fmt.Fprintf(out, "chart_width: %d\n", cfg.ChartWidth)
		fmt.Fprintf(out, "chart_height: %d\n", cfg.ChartHeight)
		fmt.Fprintf(out, "presets_dir: %s\n", cfg.PresetsDir)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "allowed_origins: %s\n", strings.Join(cfg.AllowedOrigins, ","))
		fmt.Fprintf(out, "upload_max_mb: %d\n", cfg.UploadMaxMB)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		positive := func() (int, error) {
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return 0, fmt.Errorf("invalid non-negative int for %s: %v", key, val)
			}
			return i, nil
		}
		var err error
		switch key {
		case "db_conn":
			cfg.DBConn = val
		case "db_table":
			cfg.DBTable = val
		case "db_max_open_conns":
			cfg.DBMaxOpenConns, err = positive()
		case "db_max_idle_conns":
			cfg.DBMaxIdleConns, err = positive()
		case "db_conn_max_lifetime_sec":
			cfg.DBConnMaxLifetimeSec, err = positive()
		case "sample_limit":
			cfg.SampleLimit, err = positive()
		case "chart_width":
			cfg.ChartWidth, err = positive()
		case "chart_height":
			cfg.ChartHeight, err = positive()
		case "upload_max_mb":
			cfg.UploadMaxMB, err = positive()
		case "presets_dir":
			cfg.PresetsDir = val
		case "log_level":
			if _, err = logger.ParseLevel(val); err == nil {
				cfg.LogLevel = strings.ToLower(val)
			}
		case "listen_addr":
			cfg.ListenAddr = val
		case "allowed_origins":
			var origins []string
			for _, o := range strings.Split(val, ",") {
				if o = strings.TrimSpace(o); o != "" {
					origins = append(origins, o)
				}
			}
			cfg.AllowedOrigins = origins
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// maskConn hides the password in a postgres URL or key=value connection string.
func maskConn(s string) string {
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "://"); i >= 0 {
		rest := s[i+3:]
		if at := strings.LastIndex(rest, "@"); at >= 0 {
			cred := rest[:at]
			if colon := strings.Index(cred, ":"); colon >= 0 {
				return s[:i+3] + cred[:colon] + ":****" + rest[at:]
			}
		}
		return s
	}
	fields := strings.Fields(s)
	for i, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
