package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
	"github.com/KaramelBytes/npsmentor-cli/internal/table"
)

// Local serves an immutable in-memory record set.
type Local struct {
	name    string
	records []nps.Record
	rejects []table.RowError
}

// NewLocal wraps records already validated by the caller.
func NewLocal(name string, records []nps.Record) *Local {
	cp := make([]nps.Record, len(records))
	copy(cp, records)
	return &Local{name: name, records: cp}
}

// OpenFile loads and normalizes a CSV/XLSX file. An empty sheet selects the
// first worksheet.
func OpenFile(path, sheet string) (*Local, error) {
	var (
		t   *table.Table
		err error
	)
	if sheet != "" {
		t, err = openSheet(path, sheet)
	} else {
		t, err = table.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return fromTable(t)
}

func openSheet(path, sheet string) (*table.Table, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return table.LoadFile(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &table.LoadError{File: filepath.Base(path), Err: err}
	}
	defer f.Close()
	return table.LoadXLSXSheet(filepath.Base(path), f, sheet)
}

// OpenReader loads and normalizes an uploaded byte stream.
func OpenReader(filename string, r io.Reader) (*Local, error) {
	t, err := table.Load(filename, r)
	if err != nil {
		return nil, err
	}
	return fromTable(t)
}

func fromTable(t *table.Table) (*Local, error) {
	recs, rejects, err := table.ToRecords(t)
	if err != nil {
		return nil, err
	}
	l := NewLocal(t.Name, recs)
	l.rejects = rejects
	return l, nil
}

// Rejected returns rows dropped during normalization.
func (l *Local) Rejected() []table.RowError { return l.rejects }

// Records returns the full record set.
func (l *Local) Records() []nps.Record { return l.records }

func (l *Local) Describe() string {
	return fmt.Sprintf("file %s (%d rows)", l.name, len(l.records))
}

func (l *Local) Categories(_ context.Context) ([]string, error) {
	return nps.Categories(l.records), nil
}

func (l *Local) CategoryMeans(_ context.Context, f nps.Filter) ([]nps.CategorySummary, error) {
	return nps.AggregateByCategory(nps.ApplyFilter(l.records, f)), nil
}

func (l *Local) Sample(_ context.Context, f nps.Filter, limit int) ([]nps.Record, error) {
	return nps.Limit(nps.SortByScoreDesc(nps.ApplyFilter(l.records, f)), limit), nil
}

func (l *Local) KPIs(_ context.Context, f nps.Filter) (nps.KPI, error) {
	return nps.ComputeKPIs(nps.ApplyFilter(l.records, f)), nil
}

func (l *Local) Histogram(_ context.Context, f nps.Filter, bins int) ([]nps.Bin, error) {
	return nps.Histogram(nps.Scores(nps.ApplyFilter(l.records, f)), bins), nil
}

func (l *Local) Close() error { return nil }
