// Package nps holds the mentor NPS record model and the filtering and
// aggregation pipeline shared by every data source.
package nps

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AllCategories selects every category in a Filter.
	AllCategories = "all"
	// MinScore and MaxScore bound a valid NPS value.
	MinScore = 0
	MaxScore = 100
	// DefaultSampleLimit caps rows shown or exported for a sample view.
	DefaultSampleLimit = 1000
	// HistogramBins is the bin count used by the dashboard histogram.
	HistogramBins = 12
)

// ErrNoCategories is returned by BestAndWorst for an empty summary set.
var ErrNoCategories = errors.New("no categories to compare")

// Record is one row of the mentor NPS dataset.
type Record struct {
	PersonID string `json:"person_id"`
	Name     string `json:"nama"`
	Category string `json:"kategori"`
	Score    int    `json:"skor_nps"`
	// Passthrough fields, never aggregated.
	NPSID     string `json:"id_nps,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Filter selects a subset of records.
type Filter struct {
	Category     string `json:"category" yaml:"category"`
	MinScore     int    `json:"min_score" yaml:"min_score"`
	MaxScore     int    `json:"max_score" yaml:"max_score"`
	NameContains string `json:"name_contains,omitempty" yaml:"name_contains,omitempty"`
}

// FullRange returns the filter that keeps every valid record.
func FullRange() Filter {
	return Filter{Category: AllCategories, MinScore: MinScore, MaxScore: MaxScore}
}

// FilterError describes an invalid Filter.
type FilterError struct {
	Field  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}

// Validate checks the score bounds and normalizes an empty category to "all".
func (f *Filter) Validate() error {
	f.Category = strings.TrimSpace(f.Category)
	if f.Category == "" {
		f.Category = AllCategories
	}
	if f.MinScore < MinScore || f.MinScore > MaxScore {
		return &FilterError{Field: "min_score", Reason: fmt.Sprintf("%d is outside [%d,%d]", f.MinScore, MinScore, MaxScore)}
	}
	if f.MaxScore < MinScore || f.MaxScore > MaxScore {
		return &FilterError{Field: "max_score", Reason: fmt.Sprintf("%d is outside [%d,%d]", f.MaxScore, MinScore, MaxScore)}
	}
	if f.MinScore > f.MaxScore {
		return &FilterError{Field: "score_range", Reason: fmt.Sprintf("min %d is greater than max %d", f.MinScore, f.MaxScore)}
	}
	return nil
}

// IsAllCategories reports whether the filter does not restrict category.
func (f Filter) IsAllCategories() bool {
	return f.Category == "" || f.Category == AllCategories
}

// Narrows reports whether f excludes anything FullRange keeps.
func (f Filter) Narrows() bool {
	return !f.IsAllCategories() || f.MinScore > MinScore || f.MaxScore < MaxScore || f.NameContains != ""
}

// Match reports whether r satisfies all three predicates of f.
func (f Filter) Match(r Record) bool {
	if !f.IsAllCategories() && r.Category != f.Category {
		return false
	}
	if r.Score < f.MinScore || r.Score > f.MaxScore {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	return true
}

// String renders the filter for report headers.
func (f Filter) String() string {
	cat := f.Category
	if f.IsAllCategories() {
		cat = AllCategories
	}
	s := fmt.Sprintf("category=%s score=[%d,%d]", cat, f.MinScore, f.MaxScore)
	if f.NameContains != "" {
		s += fmt.Sprintf(" name~%q", f.NameContains)
	}
	return s
}

// CategorySummary is the mean score and row count of one category.
type CategorySummary struct {
	Category  string  `json:"kategori"`
	MeanScore float64 `json:"mean_nps"`
	Count     int     `json:"n"`
}

// KPI holds the scalar summary of a filtered view.
type KPI struct {
	RowCount      int `json:"rows_filtered"`
	UniquePersons int `json:"unique_persons"`
	// MeanScore is nil when the view is empty.
	MeanScore *float64 `json:"avg_nps"`
}

// Mean returns the mean score, or 0 when there is none.
func (k KPI) Mean() float64 {
	if k.MeanScore == nil {
		return 0
	}
	return *k.MeanScore
}

// Bin is one histogram bucket, [Lower, Upper) except the last which is closed.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Label renders the bucket bounds for charts and reports.
func (b Bin) Label() string {
	return fmt.Sprintf("%.1f-%.1f", b.Lower, b.Upper)
}
