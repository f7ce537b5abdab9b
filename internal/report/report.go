// Package report assembles one dashboard view of the NPS dataset: KPIs,
// category ranking, best/worst insight, score distribution and a sample.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
	"github.com/KaramelBytes/npsmentor-cli/internal/source"
	"github.com/KaramelBytes/npsmentor-cli/internal/table"
)

// ErrUnknownCategory indicates the filter names a category absent from the dataset.
var ErrUnknownCategory = errors.New("unknown category")

// Options controls report assembly.
type Options struct {
	// SampleLimit caps sample rows; 0 uses nps.DefaultSampleLimit, negative means unlimited.
	SampleLimit int
	// Bins is the histogram bin count; 0 uses nps.HistogramBins.
	Bins int
	// Notes are appended to the report as-is.
	Notes []string
}

// DefaultOptions returns the dashboard defaults.
func DefaultOptions() Options {
	return Options{SampleLimit: nps.DefaultSampleLimit, Bins: nps.HistogramBins}
}

// Insight names the best and worst categories of the whole dataset.
type Insight struct {
	Best  nps.CategorySummary `json:"best"`
	Worst nps.CategorySummary `json:"worst"`
}

// Report is a markdown- and JSON-friendly dashboard view.
type Report struct {
	Source      string                `json:"source"`
	Filter      nps.Filter            `json:"filter"`
	Categories  []string              `json:"categories"`
	Ranking     []nps.CategorySummary `json:"ranking"`
	Insight     *Insight              `json:"insight,omitempty"`
	Filtered    []nps.CategorySummary `json:"filtered_means"`
	KPI         nps.KPI               `json:"kpi"`
	Sample      []nps.Record          `json:"sample"`
	SampleLimit int                   `json:"sample_limit"`
	Histogram   []nps.Bin             `json:"histogram"`
	Notes       []string              `json:"notes,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// Build validates f against the dataset and runs every dashboard query.
func Build(ctx context.Context, src source.Source, f nps.Filter, opt Options) (*Report, error) {
	cats, err := CheckFilter(ctx, src, &f)
	if err != nil {
		return nil, err
	}
	limit := opt.SampleLimit
	if limit == 0 {
		limit = nps.DefaultSampleLimit
	}
	bins := opt.Bins
	if bins <= 0 {
		bins = nps.HistogramBins
	}

	rep := &Report{
		Source:      src.Describe(),
		Filter:      f,
		Categories:  cats,
		SampleLimit: limit,
		GeneratedAt: time.Now(),
	}
	global, err := src.CategoryMeans(ctx, nps.FullRange())
	if err != nil {
		return nil, fmt.Errorf("category means: %w", err)
	}
	rep.Ranking = nps.RankByMean(global, true)
	if best, worst, err := nps.BestAndWorst(global); err == nil {
		rep.Insight = &Insight{Best: best, Worst: worst}
	}
	if rep.Filtered, err = src.CategoryMeans(ctx, f); err != nil {
		return nil, fmt.Errorf("filtered category means: %w", err)
	}
	if rep.KPI, err = src.KPIs(ctx, f); err != nil {
		return nil, fmt.Errorf("kpis: %w", err)
	}
	if rep.Sample, err = src.Sample(ctx, f, limit); err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	if rep.Histogram, err = src.Histogram(ctx, f, bins); err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}

	if len(cats) == 0 {
		rep.Notes = append(rep.Notes, "dataset is empty: no NPS records found")
	} else if rep.KPI.RowCount == 0 {
		rep.Notes = append(rep.Notes, "no rows match the current filter")
	}
	if limit > 0 && rep.KPI.RowCount > len(rep.Sample) {
		rep.Notes = append(rep.Notes, fmt.Sprintf("showing %d of %d rows; narrow the filter to see the rest", len(rep.Sample), rep.KPI.RowCount))
	}
	rep.Notes = append(rep.Notes, opt.Notes...)
	return rep, nil
}

// CheckFilter validates f in place and confirms its category exists in src.
// It returns the dataset categories.
func CheckFilter(ctx context.Context, src source.Source, f *nps.Filter) ([]string, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	cats, err := src.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	if !f.IsAllCategories() && !contains(cats, f.Category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, f.Category)
	}
	return cats, nil
}

// RejectNotes summarizes rows dropped during normalization, listing at most max.
func RejectNotes(rejects []table.RowError, max int) []string {
	if len(rejects) == 0 {
		return nil
	}
	notes := []string{fmt.Sprintf("%d row(s) rejected during load", len(rejects))}
	for i, r := range rejects {
		if max > 0 && i >= max {
			notes = append(notes, fmt.Sprintf("... and %d more", len(rejects)-max))
			break
		}
		notes = append(notes, r.Error())
	}
	return notes
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
