package table

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
)

// Canonical column names expected after normalization.
const (
	ColPersonID  = "PERSON_ID"
	ColName      = "NAMA"
	ColCategory  = "kategori"
	ColScore     = "skor_nps"
	ColNPSID     = "id_nps"
	ColCreatedAt = "created_at"
)

// RequiredColumns lists the canonical fields every dataset must provide.
var RequiredColumns = []string{ColPersonID, ColName, ColCategory, ColScore}

// synonyms maps a trimmed, lower-cased header to its canonical name.
var synonyms = map[string]string{
	"person_id":   ColPersonID,
	"personid":    ColPersonID,
	"id_person":   ColPersonID,
	"mentor_id":   ColPersonID,
	"nama":        ColName,
	"name":        ColName,
	"nama_mentor": ColName,
	"mentor_name": ColName,
	"kategori":    ColCategory,
	"category":    ColCategory,
	"skor_nps":    ColScore,
	"skor":        ColScore,
	"score":       ColScore,
	"nps":         ColScore,
	"nps_score":   ColScore,
	"id_nps":      ColNPSID,
	"nps_id":      ColNPSID,
	"created_at":  ColCreatedAt,
	"createdat":   ColCreatedAt,
}

// MissingFieldsError reports required canonical fields absent after normalization.
type MissingFieldsError struct {
	Missing  []string
	Required []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required columns: %s (required: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Required, ", "))
}

// RowError describes a data row rejected during normalization.
// Row is the 1-based line number including the header row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %s", e.Row, e.Reason) }

// canonicalKey trims and lower-cases a header and folds spaces and dashes to underscores.
func canonicalKey(h string) string {
	k := strings.ToLower(strings.TrimSpace(h))
	k = strings.ReplaceAll(k, "-", "_")
	return strings.Join(strings.Fields(k), "_")
}

// NormalizeHeader maps header columns to canonical names and returns the
// column index of every canonical field found. The first matching column wins.
func NormalizeHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int)
	for i, h := range header {
		canon, ok := synonyms[canonicalKey(h)]
		if !ok {
			continue
		}
		if _, dup := idx[canon]; dup {
			continue
		}
		idx[canon] = i
	}
	var missing []string
	for _, req := range RequiredColumns {
		if _, ok := idx[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Missing: missing, Required: append([]string(nil), RequiredColumns...)}
	}
	return idx, nil
}

// ToRecords normalizes a raw table into records. Rows with an empty category
// or an out-of-range score are rejected and reported, never aggregated.
// Blank rows are skipped.
func ToRecords(t *Table) ([]nps.Record, []RowError, error) {
	idx, err := NormalizeHeader(t.Header)
	if err != nil {
		return nil, nil, err
	}
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	records := make([]nps.Record, 0, len(t.Rows))
	var rejects []RowError
	for n, row := range t.Rows {
		line := n + 2
		if blankRow(row) {
			continue
		}
		rec := nps.Record{
			PersonID:  get(row, ColPersonID),
			Name:      get(row, ColName),
			Category:  get(row, ColCategory),
			NPSID:     get(row, ColNPSID),
			CreatedAt: get(row, ColCreatedAt),
		}
		if rec.Category == "" {
			rejects = append(rejects, RowError{Row: line, Reason: "empty " + ColCategory})
			continue
		}
		score, reason := parseScore(get(row, ColScore))
		if reason != "" {
			rejects = append(rejects, RowError{Row: line, Reason: reason})
			continue
		}
		rec.Score = score
		records = append(records, rec)
	}
	return records, rejects, nil
}

func parseScore(v string) (int, string) {
	if v == "" {
		return 0, "empty " + ColScore
	}
	x, ok := parseNumeric(v)
	if !ok {
		return 0, fmt.Sprintf("%s %q is not a number", ColScore, v)
	}
	if x != math.Trunc(x) {
		return 0, fmt.Sprintf("%s %q is not an integer", ColScore, v)
	}
	if x < nps.MinScore || x > nps.MaxScore {
		return 0, fmt.Sprintf("%s %q is outside [%d,%d]", ColScore, v, nps.MinScore, nps.MaxScore)
	}
	return int(x), ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
