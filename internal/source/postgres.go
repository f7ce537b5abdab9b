package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/KaramelBytes/npsmentor-cli/internal/logger"
	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
)

// DefaultTable is the table the dashboard reads from.
const DefaultTable = "nps_data"

// ErrTableMissing indicates the NPS table has not been created yet.
var ErrTableMissing = errors.New("nps table does not exist (run `npsmentor ingest --create-table`)")

// PostgresConfig holds connection and pool settings.
type PostgresConfig struct {
	ConnString      string
	Table           string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Postgres aggregates NPS data server-side.
type Postgres struct {
	db     *sql.DB
	table  string
	ident  string
	logger logger.Logger
}

// NewPostgres opens the pool and pings the database.
func NewPostgres(ctx context.Context, cfg PostgresConfig, log logger.Logger) (*Postgres, error) {
	if cfg.ConnString == "" {
		return nil, errors.New("postgres connection string is empty")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	db, err := sql.Open("postgres", cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	log.Debug(ctx, "connected to PostgreSQL", logger.String("table", cfg.Table))
	return &Postgres{db: db, table: cfg.Table, ident: pq.QuoteIdentifier(cfg.Table), logger: log}, nil
}

func (p *Postgres) Describe() string { return fmt.Sprintf("database table %s", p.table) }

func (p *Postgres) Categories(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, categoriesQuery(p.ident))
	if err != nil {
		return nil, p.wrap("list categories", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, p.wrap("list categories", rows.Err())
}

func (p *Postgres) CategoryMeans(ctx context.Context, f nps.Filter) ([]nps.CategorySummary, error) {
	q, args := categoryMeansQuery(p.ident, f)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, p.wrap("category means", err)
	}
	defer rows.Close()
	out := []nps.CategorySummary{}
	for rows.Next() {
		var s nps.CategorySummary
		if err := rows.Scan(&s.Category, &s.MeanScore, &s.Count); err != nil {
			return nil, fmt.Errorf("scan category mean: %w", err)
		}
		s.MeanScore = nps.Round2(s.MeanScore)
		out = append(out, s)
	}
	return out, p.wrap("category means", rows.Err())
}

func (p *Postgres) Sample(ctx context.Context, f nps.Filter, limit int) ([]nps.Record, error) {
	q, args := sampleQuery(p.ident, f, limit)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, p.wrap("sample", err)
	}
	defer rows.Close()
	out := []nps.Record{}
	for rows.Next() {
		var r nps.Record
		if err := rows.Scan(&r.PersonID, &r.Name, &r.Category, &r.Score, &r.NPSID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		out = append(out, r)
	}
	return out, p.wrap("sample", rows.Err())
}

func (p *Postgres) KPIs(ctx context.Context, f nps.Filter) (nps.KPI, error) {
	q, args := kpiQuery(p.ident, f)
	var (
		k    nps.KPI
		mean sql.NullFloat64
	)
	if err := p.db.QueryRowContext(ctx, q, args...).Scan(&k.RowCount, &k.UniquePersons, &mean); err != nil {
		return nps.KPI{}, p.wrap("kpis", err)
	}
	if mean.Valid {
		m := nps.Round2(mean.Float64)
		k.MeanScore = &m
	}
	return k, nil
}

func (p *Postgres) Histogram(ctx context.Context, f nps.Filter, bins int) ([]nps.Bin, error) {
	if bins <= 0 {
		bins = nps.HistogramBins
	}
	q, args := histogramQuery(p.ident, f, bins)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, p.wrap("histogram", err)
	}
	defer rows.Close()
	out := nps.EmptyBins(bins)
	for rows.Next() {
		var idx, n int
		if err := rows.Scan(&idx, &n); err != nil {
			return nil, fmt.Errorf("scan histogram bin: %w", err)
		}
		if idx >= 0 && idx < bins {
			out[idx].Count = n
		}
	}
	return out, p.wrap("histogram", rows.Err())
}

// EnsureTable creates the NPS table and its indexes if they do not exist.
func (p *Postgres) EnsureTable(ctx context.Context) error {
	q := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id          BIGSERIAL PRIMARY KEY,
		person_id   TEXT        NOT NULL,
		nama        TEXT        NOT NULL,
		kategori    TEXT        NOT NULL,
		skor_nps    INTEGER     NOT NULL CHECK (skor_nps BETWEEN 0 AND 100),
		id_nps      TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (kategori);
	CREATE INDEX IF NOT EXISTS %[3]s ON %[1]s (skor_nps);
	`, p.ident, pq.QuoteIdentifier("idx_"+p.table+"_kategori"), pq.QuoteIdentifier("idx_"+p.table+"_skor"))
	if _, err := p.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	p.logger.Info(ctx, "table is ready", logger.String("table", p.table))
	return nil
}

// Insert writes records in one transaction and returns the number inserted.
// With replace set, existing rows are removed first. Records without an
// id_nps receive a generated UUID.
func (p *Postgres) Insert(ctx context.Context, records []nps.Record, replace bool) (n int, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if replace {
		if _, err = tx.ExecContext(ctx, "TRUNCATE "+p.ident); err != nil {
			return 0, p.wrap("truncate", err)
		}
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (person_id, nama, kategori, skor_nps, id_nps, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, '')::timestamptz, NOW()))`, p.ident))
	if err != nil {
		return 0, p.wrap("prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		id := r.NPSID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err = stmt.ExecContext(ctx, r.PersonID, r.Name, r.Category, r.Score, id, r.CreatedAt); err != nil {
			return 0, fmt.Errorf("insert person %s: %w", r.PersonID, err)
		}
		n++
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	p.logger.Info(ctx, "inserted records", logger.Int("count", n), logger.String("table", p.table))
	return n, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// wrap annotates err and maps an undefined table to ErrTableMissing.
func (p *Postgres) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
		return fmt.Errorf("%s: %w", op, ErrTableMissing)
	}
	return fmt.Errorf("%s: %w", op, err)
}
