package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NPS_DB_CONN", "")
	t.Setenv("DB_CONN", "")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	content := "db_table: mentor_nps\nsample_limit: 50\nallowed_origins:\n  - https://dash.example\n"
	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NPS_SAMPLE_LIMIT", "25")

	c, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DBTable != "mentor_nps" {
		t.Fatalf("db_table = %q", c.DBTable)
	}
	if c.SampleLimit != 25 {
		t.Fatalf("env should win over file: sample_limit = %d", c.SampleLimit)
	}
	if len(c.AllowedOrigins) != 1 || c.AllowedOrigins[0] != "https://dash.example" {
		t.Fatalf("allowed_origins = %v", c.AllowedOrigins)
	}
	if c.ListenAddr != ":8080" || c.ChartWidth != 900 {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if filepath.Base(c.PresetsDir) != "presets" {
		t.Fatalf("presets_dir = %q", c.PresetsDir)
	}
	if !errors.Is(c.RequireDB(), ErrMissingDBConn) {
		t.Fatalf("expected ErrMissingDBConn")
	}
}

func TestLegacyDBConnEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NPS_DB_CONN", "")
	t.Setenv("DB_CONN", "postgres://u:p@localhost/nps")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DBConn != "postgres://u:p@localhost/nps" || c.RequireDB() != nil {
		t.Fatalf("db_conn = %q", c.DBConn)
	}
	pg := c.Postgres()
	if pg.Table != "nps_data" || pg.MaxOpenConns != 10 || pg.ConnMaxLifetime.Seconds() != 300 {
		t.Fatalf("postgres config = %+v", pg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	in := &Global{DBTable: "other", SampleLimit: 10, ListenAddr: ":9090"}
	if err := Save(in, cfgFile); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.DBTable != "other" || out.ListenAddr != ":9090" {
		t.Fatalf("round trip = %+v", out)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "NPS_DOTENV_TEST_KEY"
	p := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(p, []byte(key+"=from-file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv(key) })
	if err := LoadDotEnv(p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if os.Getenv(key) != "from-file" {
		t.Fatalf("%s = %q", key, os.Getenv(key))
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}

func TestLoadMalformedAndDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NPS_DB_CONN", "")
	t.Setenv("DB_CONN", "")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("sample_limit: [oops\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(cfgFile); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}

	d := Default()
	loaded, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if d.SampleLimit != loaded.SampleLimit || d.DBTable != loaded.DBTable || d.UploadMaxMB != loaded.UploadMaxMB ||
		d.PresetsDir != loaded.PresetsDir || d.ListenAddr != loaded.ListenAddr {
		t.Fatalf("Default() = %+v, Load defaults = %+v", d, loaded)
	}
}

func TestSaveCreatesDefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := Save(Default(), ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(filepath.Join(home, ".npsmentor", "config.yaml"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v", info.Mode().Perm())
	}
}
