package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/npsmentor-cli/internal/logger"
	"github.com/KaramelBytes/npsmentor-cli/internal/source"
	"github.com/KaramelBytes/npsmentor-cli/internal/table"
)

var errNoSource = errors.New("no data source: pass --file <csv|xlsx> or --db (with DB_CONN set)")

// sourceFlags selects between a file and the configured database.
type sourceFlags struct {
	file  string
	sheet string
	useDB bool
}

func (s *sourceFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&s.file, "file", "f", "", "CSV/TSV/XLSX file with NPS rows")
	c.Flags().StringVar(&s.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	c.Flags().BoolVar(&s.useDB, "db", false, "read from PostgreSQL (db_conn / DB_CONN)")
}

// open returns the selected source. A file wins over the database; the
// database is used when --db is set or no file is given and db_conn is configured.
func (s *sourceFlags) open(ctx context.Context) (source.Source, []table.RowError, error) {
	if s.file != "" {
		if s.useDB {
			return nil, nil, errors.New("--file and --db are mutually exclusive")
		}
		l, err := source.OpenFile(s.file, s.sheet)
		if err != nil {
			return nil, nil, err
		}
		return l, l.Rejected(), nil
	}
	if !s.useDB && settings().DBConn == "" {
		return nil, nil, errNoSource
	}
	pg, err := openPostgres(ctx)
	if err != nil {
		return nil, nil, err
	}
	return pg, nil, nil
}

func openPostgres(ctx context.Context) (*source.Postgres, error) {
	c := settings()
	if err := c.RequireDB(); err != nil {
		return nil, err
	}
	return source.NewPostgres(ctx, c.Postgres(), logger.Named("postgres"))
}
