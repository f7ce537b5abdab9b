package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/npsmentor-cli/internal/source"
	"github.com/KaramelBytes/npsmentor-cli/internal/utils"
)

// ErrMissingDBConn is returned when a database-backed command runs without a connection string.
var ErrMissingDBConn = errors.New("database connection string not set (use --db, NPS_DB_CONN or DB_CONN)")

// Global configuration structure.
type Global struct {
	DBConn               string `mapstructure:"db_conn" yaml:"db_conn"`
	DBTable              string `mapstructure:"db_table" yaml:"db_table"`
	DBMaxOpenConns       int    `mapstructure:"db_max_open_conns" yaml:"db_max_open_conns"`
	DBMaxIdleConns       int    `mapstructure:"db_max_idle_conns" yaml:"db_max_idle_conns"`
	DBConnMaxLifetimeSec int    `mapstructure:"db_conn_max_lifetime_sec" yaml:"db_conn_max_lifetime_sec"`
	SampleLimit          int    `mapstructure:"sample_limit" yaml:"sample_limit"`
	ChartWidth           int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight          int    `mapstructure:"chart_height" yaml:"chart_height"`
	PresetsDir           string `mapstructure:"presets_dir" yaml:"presets_dir"`
	LogLevel             string `mapstructure:"log_level" yaml:"log_level"`

	// HTTP server
	ListenAddr     string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	UploadMaxMB    int      `mapstructure:"upload_max_mb" yaml:"upload_max_mb"`
}

// RequireDB returns ErrMissingDBConn when no connection string is configured.
func (c *Global) RequireDB() error {
	if c.DBConn == "" {
		return ErrMissingDBConn
	}
	return nil
}

// Postgres returns the source settings derived from the db_* keys.
func (c *Global) Postgres() source.PostgresConfig {
	return source.PostgresConfig{
		ConnString:      c.DBConn,
		Table:           c.DBTable,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(c.DBConnMaxLifetimeSec) * time.Second,
	}
}

// Default returns the built-in settings, used when no config could be loaded.
func Default() *Global {
	c := &Global{
		DBTable:              source.DefaultTable,
		DBMaxOpenConns:       10,
		DBMaxIdleConns:       5,
		DBConnMaxLifetimeSec: 300,
		SampleLimit:          1000,
		ChartWidth:           900,
		ChartHeight:          420,
		LogLevel:             "info",
		ListenAddr:           ":8080",
		AllowedOrigins:       []string{"*"},
		UploadMaxMB:          32,
	}
	if dir, err := defaultDir(); err == nil {
		c.PresetsDir = filepath.Join(dir, "presets")
	}
	return c
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".npsmentor"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.npsmentor/config.yaml. Missing directories are created.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadDotEnv exports variables from a .env file without overriding the
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("NPS")
	v.AutomaticEnv()
	if err := v.BindEnv("db_conn", "NPS_DB_CONN", "DB_CONN"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	d := Default()
	v.SetDefault("db_conn", d.DBConn)
	v.SetDefault("db_table", d.DBTable)
	v.SetDefault("db_max_open_conns", d.DBMaxOpenConns)
	v.SetDefault("db_max_idle_conns", d.DBMaxIdleConns)
	v.SetDefault("db_conn_max_lifetime_sec", d.DBConnMaxLifetimeSec)
	v.SetDefault("sample_limit", d.SampleLimit)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("presets_dir", "")
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("upload_max_mb", d.UploadMaxMB)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.PresetsDir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		c.PresetsDir = filepath.Join(dir, "presets")
	}
	return &c, nil
}
