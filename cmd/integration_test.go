package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/npsmentor-cli/internal/report"
	"github.com/KaramelBytes/npsmentor-cli/internal/table"
)

const csvFixture = "PERSON_ID,NAMA,kategori,skor_nps,id_nps,created_at\n" +
	"1,Ayu Lestari,A,90,n1,2024-01-02\n" +
	"2,Budi Santoso,A,70,n2,2024-01-03\n" +
	"3,Citra Dewi,B,40,n3,2024-01-04\n" +
	"4,Dewi,B,150,n4,2024-01-05\n"

// resetFlags restores every flag to its default so package-level vars do not leak between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolate points HOME at a temp dir and clears database env vars.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DB_CONN", "")
	t.Setenv("NPS_DB_CONN", "")
	return home
}

// execCmd runs the root command with args and returns stdout and the error.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args, failing on error.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func writeFixture(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "nps.csv")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestCLI_ReportJSONWithExportsAndCharts(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, csvFixture)
	xlsx := filepath.Join(home, "sample.xlsx")
	charts := filepath.Join(home, "charts")

	out := runCmd(t, "report", "--file", data, "--min", "50", "--json", "--xlsx", xlsx, "--charts", charts)
	jsonEnd := strings.Index(out, "\n}\n")
	if jsonEnd < 0 {
		t.Fatalf("no JSON in output:\n%s", out)
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(out[:jsonEnd+2]), &rep); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if rep.KPI.RowCount != 2 || rep.KPI.Mean() != 80 {
		t.Fatalf("kpi = %+v", rep.KPI)
	}
	if !strings.Contains(strings.Join(rep.Notes, "\n"), "row 5") {
		t.Fatalf("expected rejected row note, got %v", rep.Notes)
	}
	for _, p := range []string{xlsx, filepath.Join(charts, "categories.png"), filepath.Join(charts, "histogram.png")} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
	}
}

func TestCLI_ReportMarkdownToFile(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, csvFixture)
	md := filepath.Join(home, "report.md")
	runCmd(t, "report", "-f", data, "--category", "B", "-o", md)
	b, err := os.ReadFile(md)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	for _, want := range []string{"[KPI]", "- Rows: 1", "- Best: A (mean 80.00)", "| 3 | Citra Dewi | B | 40 |"} {
		if !strings.Contains(s, want) {
			t.Fatalf("report missing %q:\n%s", want, s)
		}
	}
}

func TestCLI_ReportFailures(t *testing.T) {
	home := isolate(t)

	if _, err := execCmd(t, "report"); !errors.Is(err, errNoSource) {
		t.Fatalf("expected errNoSource, got %v", err)
	}
	if _, err := execCmd(t, "report", "--db"); err == nil || !strings.Contains(err.Error(), "DB_CONN") {
		t.Fatalf("expected missing DB_CONN error, got %v", err)
	}

	bad := writeFixture(t, home, "PERSON_ID,kategori,skor_nps\n1,A,90\n")
	_, err := execCmd(t, "report", "--file", bad)
	var mf *table.MissingFieldsError
	if !errors.As(err, &mf) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}

	data := writeFixture(t, home, csvFixture)
	if _, err := execCmd(t, "report", "--file", data, "--category", "Z"); !errors.Is(err, report.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if _, err := execCmd(t, "report", "--file", data, "--min", "80", "--max", "20"); err == nil {
		t.Fatalf("expected invalid filter error")
	}
}

func TestCLI_Categories(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, csvFixture)
	out := runCmd(t, "categories", "--file", data)
	if strings.TrimSpace(out) != "A\nB" {
		t.Fatalf("categories output = %q", out)
	}
}

func TestCLI_PresetLifecycle(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, csvFixture)

	runCmd(t, "preset", "save", "promoters", "--min", "80", "-d", "top scorers")
	out := runCmd(t, "preset", "list")
	if !strings.Contains(out, "promoters") || !strings.Contains(out, "score=[80,100]") {
		t.Fatalf("preset list = %q", out)
	}
	out = runCmd(t, "report", "--file", data, "--preset", "promoters", "--json")
	if !strings.Contains(out, `"rows_filtered": 1`) {
		t.Fatalf("preset filter not applied:\n%s", out)
	}
	runCmd(t, "preset", "delete", "promoters")
	if _, err := execCmd(t, "preset", "show", "promoters"); err == nil {
		t.Fatalf("expected error for deleted preset")
	}
}

func TestCLI_IngestDryRun(t *testing.T) {
	home := isolate(t)
	data := writeFixture(t, home, csvFixture)
	out := runCmd(t, "ingest", data, "--dry-run")
	if !strings.Contains(out, "3 valid rows, 1 rejected") {
		t.Fatalf("ingest output = %q", out)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "config.yaml")
	runCmd(t, "--config", cfgPath, "config", "set", "sample_limit", "25")
	runCmd(t, "--config", cfgPath, "config", "set", "db_conn", "postgres://nps:secret@db:5432/nps")
	out := runCmd(t, "--config", cfgPath, "config", "show")
	if !strings.Contains(out, "sample_limit: 25") {
		t.Fatalf("config show = %q", out)
	}
	if strings.Contains(out, "secret") || !strings.Contains(out, "postgres://nps:****@db:5432/nps") {
		t.Fatalf("db_conn not masked: %q", out)
	}
	if _, err := execCmd(t, "--config", cfgPath, "config", "set", "log_level", "loud"); err == nil {
		t.Fatalf("expected invalid log level error")
	}
}

func TestCLI_ConfigSetRefusesToOverwriteBrokenConfig(t *testing.T) {
	home := isolate(t)
	cfgPath := filepath.Join(home, "config.yaml")
	broken := "db_conn: postgres://u:p@h/db\ndb_table: mentors\nsample_limit: [oops\n"
	if err := os.WriteFile(cfgPath, []byte(broken), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := execCmd(t, "--config", cfgPath, "config", "set", "log_level", "debug"); err == nil {
		t.Fatalf("expected config set to fail on an unreadable config")
	}
	b, err := os.ReadFile(cfgPath)
	if err != nil || string(b) != broken {
		t.Fatalf("config file was rewritten: %q, %v", b, err)
	}

	// Commands that only read settings still run on the defaults.
	data := writeFixture(t, home, csvFixture)
	if out := runCmd(t, "--config", cfgPath, "categories", "--file", data); strings.TrimSpace(out) != "A\nB" {
		t.Fatalf("categories = %q", out)
	}
	if out := runCmd(t, "--config", cfgPath, "report", "--file", data, "--json"); !strings.Contains(out, `"sample_limit": 1000`) {
		t.Fatalf("report did not fall back to default settings:\n%s", out)
	}
	if cfg != nil {
		t.Fatalf("expected no loaded config, got %+v", cfg)
	}
}
