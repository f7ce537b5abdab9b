package nps

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ApplyFilter returns the records matching f in their original order.
// The input slice is never modified.
func ApplyFilter(records []Record, f Filter) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortByScoreDesc returns a copy of records ordered by descending score.
// Equal scores keep their input order.
func SortByScoreDesc(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Limit truncates records to at most n rows; n <= 0 means no cap.
func Limit(records []Record, n int) []Record {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[:n]
}

// AggregateByCategory groups records by category and computes the rounded
// mean score and row count per group. Groups are returned in lexical
// category order so downstream tie-breaks are deterministic.
func AggregateByCategory(records []Record) []CategorySummary {
	if len(records) == 0 {
		return []CategorySummary{}
	}
	type acc struct {
		sum int64
		n   int
	}
	groups := make(map[string]*acc)
	for _, r := range records {
		g := groups[r.Category]
		if g == nil {
			g = &acc{}
			groups[r.Category] = g
		}
		g.sum += int64(r.Score)
		g.n++
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]CategorySummary, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		out = append(out, CategorySummary{Category: k, MeanScore: roundedMean(g.sum, g.n), Count: g.n})
	}
	return out
}

// RankByMean returns a copy of summaries ordered by mean score. The sort is
// stable, so equal means keep their incoming (lexical) order.
func RankByMean(summaries []CategorySummary, descending bool) []CategorySummary {
	out := make([]CategorySummary, len(summaries))
	copy(out, summaries)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].MeanScore > out[j].MeanScore
		}
		return out[i].MeanScore < out[j].MeanScore
	})
	return out
}

// ComputeKPIs summarizes a record set. An empty set has no mean.
func ComputeKPIs(records []Record) KPI {
	k := KPI{RowCount: len(records)}
	if len(records) == 0 {
		return k
	}
	persons := make(map[string]struct{}, len(records))
	var sum int64
	for _, r := range records {
		persons[r.PersonID] = struct{}{}
		sum += int64(r.Score)
	}
	k.UniquePersons = len(persons)
	mean := roundedMean(sum, len(records))
	k.MeanScore = &mean
	return k
}

// BestAndWorst picks the summaries with the highest and lowest mean score.
// On ties the first entry in iteration order wins.
func BestAndWorst(summaries []CategorySummary) (best, worst CategorySummary, err error) {
	if len(summaries) == 0 {
		return CategorySummary{}, CategorySummary{}, ErrNoCategories
	}
	best, worst = summaries[0], summaries[0]
	for _, s := range summaries[1:] {
		if s.MeanScore > best.MeanScore {
			best = s
		}
		if s.MeanScore < worst.MeanScore {
			worst = s
		}
	}
	return best, worst, nil
}

// Scores extracts the score column.
func Scores(records []Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Score
	}
	return out
}

// Categories returns the distinct categories of records in lexical order.
func Categories(records []Record) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// BinIndex maps a score to its histogram bucket over [0,100].
func BinIndex(score, bins int) int {
	if bins <= 0 {
		return 0
	}
	if score <= MinScore {
		return 0
	}
	idx := score * bins / MaxScore
	if idx >= bins {
		idx = bins - 1
	}
	return idx
}

// EmptyBins returns bins equal-width buckets spanning [0,100] with zero counts.
func EmptyBins(bins int) []Bin {
	if bins <= 0 {
		bins = HistogramBins
	}
	width := float64(MaxScore-MinScore) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lower: float64(MinScore) + width*float64(i), Upper: float64(MinScore) + width*float64(i+1)}
	}
	return out
}

// Histogram counts scores into bins equal-width buckets over [0,100].
func Histogram(scores []int, bins int) []Bin {
	if bins <= 0 {
		bins = HistogramBins
	}
	out := EmptyBins(bins)
	for _, s := range scores {
		out[BinIndex(s, bins)].Count++
	}
	return out
}

// Round2 rounds half away from zero to two decimal places, matching
// PostgreSQL ROUND(numeric, 2).
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func roundedMean(sum int64, n int) float64 {
	if n == 0 {
		return 0
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}
