package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
	"github.com/KaramelBytes/npsmentor-cli/internal/source"
	"github.com/KaramelBytes/npsmentor-cli/internal/table"
)

func fixture() *source.Local {
	return source.NewLocal("nps.csv", []nps.Record{
		{PersonID: "1", Name: "Ayu", Category: "A", Score: 90},
		{PersonID: "2", Name: "Budi", Category: "A", Score: 70},
		{PersonID: "3", Name: "Citra", Category: "B", Score: 40},
	})
}

func TestBuildFullRange(t *testing.T) {
	rep, err := Build(context.Background(), fixture(), nps.FullRange(), DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep.KPI.RowCount != 3 || rep.KPI.UniquePersons != 3 {
		t.Fatalf("kpi = %+v", rep.KPI)
	}
	if len(rep.Ranking) != 2 || rep.Ranking[0].Category != "A" || rep.Ranking[0].MeanScore != 80 {
		t.Fatalf("ranking = %+v", rep.Ranking)
	}
	if rep.Insight == nil || rep.Insight.Best.Category != "A" || rep.Insight.Worst.Category != "B" {
		t.Fatalf("insight = %+v", rep.Insight)
	}
	if len(rep.Histogram) != nps.HistogramBins {
		t.Fatalf("expected %d bins, got %d", nps.HistogramBins, len(rep.Histogram))
	}
	if len(rep.Sample) != 3 || rep.Sample[0].Score != 90 {
		t.Fatalf("sample = %+v", rep.Sample)
	}
}

func TestBuildFilteredKeepsGlobalInsight(t *testing.T) {
	f := nps.Filter{Category: "B", MinScore: 0, MaxScore: 100}
	rep, err := Build(context.Background(), fixture(), f, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep.KPI.RowCount != 1 || rep.KPI.Mean() != 40 {
		t.Fatalf("kpi = %+v", rep.KPI)
	}
	// Insight is computed over the whole dataset, not the filtered view.
	if rep.Insight == nil || rep.Insight.Best.Category != "A" {
		t.Fatalf("insight = %+v", rep.Insight)
	}
	if len(rep.Filtered) != 1 || rep.Filtered[0].Category != "B" {
		t.Fatalf("filtered = %+v", rep.Filtered)
	}
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()
	_, err := Build(ctx, fixture(), nps.Filter{Category: "Z", MaxScore: 100}, DefaultOptions())
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	_, err = Build(ctx, fixture(), nps.Filter{MinScore: 80, MaxScore: 20}, DefaultOptions())
	var fe *nps.FilterError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FilterError, got %v", err)
	}
}

func TestBuildEmptyView(t *testing.T) {
	f := nps.Filter{Category: nps.AllCategories, MinScore: 95, MaxScore: 100}
	rep, err := Build(context.Background(), fixture(), f, DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep.KPI.RowCount != 0 || rep.KPI.MeanScore != nil || len(rep.Sample) != 0 {
		t.Fatalf("expected empty view, got %+v", rep.KPI)
	}
	md := rep.Markdown()
	for _, want := range []string{"Mean NPS: n/a", "no rows match the current filter", "[INSIGHT]"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	rep, err = Build(context.Background(), source.NewLocal("empty.csv", nil), nps.FullRange(), DefaultOptions())
	if err != nil {
		t.Fatalf("Build empty: %v", err)
	}
	if rep.Insight != nil {
		t.Fatalf("expected no insight for empty dataset")
	}
}

func TestBuildSampleLimitNote(t *testing.T) {
	rep, err := Build(context.Background(), fixture(), nps.FullRange(), Options{SampleLimit: 2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(rep.Sample) != 2 {
		t.Fatalf("sample len = %d", len(rep.Sample))
	}
	if !strings.Contains(strings.Join(rep.Notes, "\n"), "showing 2 of 3 rows") {
		t.Fatalf("notes = %v", rep.Notes)
	}
}

func TestMarkdownSections(t *testing.T) {
	f := nps.Filter{Category: "A", MinScore: 0, MaxScore: 100, NameContains: "ay"}
	rep, err := Build(context.Background(), fixture(), f, Options{Notes: []string{"custom note"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	md := rep.Markdown()
	for _, want := range []string{
		"[NPS SUMMARY]", "[FILTER]", "[KPI]", "[CATEGORY RANKING]", "[FILTERED MEANS]",
		"[SCORE DISTRIBUTION]", "[SAMPLE ROWS]", "[NOTES]", "custom note",
		"1. A: mean 80.00 (n=2)", "- Mean NPS: 90.00",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRejectNotes(t *testing.T) {
	rejects := []table.RowError{{Row: 2, Reason: "a"}, {Row: 3, Reason: "b"}, {Row: 4, Reason: "c"}}
	notes := RejectNotes(rejects, 2)
	if len(notes) != 4 || !strings.HasPrefix(notes[0], "3 row(s)") || notes[3] != "... and 1 more" {
		t.Fatalf("notes = %v", notes)
	}
	if RejectNotes(nil, 5) != nil {
		t.Fatalf("expected nil for no rejects")
	}
}
