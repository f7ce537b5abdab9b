package report

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/npsmentor-cli/internal/table"
)

// MarkdownSampleRows caps the sample table in Markdown output.
const MarkdownSampleRows = 25

// Markdown renders the report as plain sections suitable for a terminal or a .md file.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[NPS SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Source: %s\n", r.Source))
	b.WriteString(fmt.Sprintf("Categories: %d\n", len(r.Categories)))
	if !r.GeneratedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05")))
	}

	b.WriteString("\n[FILTER]\n")
	b.WriteString(fmt.Sprintf("- kategori: %s\n", r.Filter.Category))
	b.WriteString(fmt.Sprintf("- skor_nps: %d-%d\n", r.Filter.MinScore, r.Filter.MaxScore))
	if r.Filter.NameContains != "" {
		b.WriteString(fmt.Sprintf("- nama contains: %q\n", r.Filter.NameContains))
	}

	b.WriteString("\n[KPI]\n")
	b.WriteString(fmt.Sprintf("- Rows: %d\n", r.KPI.RowCount))
	b.WriteString(fmt.Sprintf("- Unique persons: %d\n", r.KPI.UniquePersons))
	if r.KPI.MeanScore != nil {
		b.WriteString(fmt.Sprintf("- Mean NPS: %.2f\n", *r.KPI.MeanScore))
	} else {
		b.WriteString("- Mean NPS: n/a\n")
	}

	if len(r.Ranking) > 0 {
		b.WriteString("\n[CATEGORY RANKING]\n")
		for i, s := range r.Ranking {
			b.WriteString(fmt.Sprintf("%d. %s: mean %.2f (n=%d)\n", i+1, safeVal(s.Category), s.MeanScore, s.Count))
		}
	}
	if r.Insight != nil {
		b.WriteString("\n[INSIGHT]\n")
		b.WriteString(fmt.Sprintf("- Best: %s (mean %.2f)\n", safeVal(r.Insight.Best.Category), r.Insight.Best.MeanScore))
		b.WriteString(fmt.Sprintf("- Needs attention: %s (mean %.2f)\n", safeVal(r.Insight.Worst.Category), r.Insight.Worst.MeanScore))
	}
	if r.Filter.Narrows() && len(r.Filtered) > 0 {
		b.WriteString("\n[FILTERED MEANS]\n")
		for _, s := range r.Filtered {
			b.WriteString(fmt.Sprintf("- %s: mean %.2f (n=%d)\n", safeVal(s.Category), s.MeanScore, s.Count))
		}
	}

	if len(r.Histogram) > 0 {
		b.WriteString("\n[SCORE DISTRIBUTION]\n")
		for _, bin := range r.Histogram {
			b.WriteString(fmt.Sprintf("- %s: %d\n", bin.Label(), bin.Count))
		}
	}

	if len(r.Sample) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n")
		b.WriteString("| " + strings.Join([]string{table.ColPersonID, table.ColName, table.ColCategory, table.ColScore, table.ColNPSID, table.ColCreatedAt}, " | ") + " |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
		n := len(r.Sample)
		if n > MarkdownSampleRows {
			n = MarkdownSampleRows
		}
		for _, rec := range r.Sample[:n] {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s | %s |\n",
				safeVal(rec.PersonID), safeVal(rec.Name), safeVal(rec.Category), rec.Score, safeVal(rec.NPSID), safeVal(rec.CreatedAt)))
		}
		if len(r.Sample) > n {
			b.WriteString(fmt.Sprintf("(%d more rows; use export for the full sample)\n", len(r.Sample)-n))
		}
	}

	if len(r.Notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range r.Notes {
			b.WriteString("- " + n + "\n")
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
