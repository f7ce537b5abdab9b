package source

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
)

// whereClause renders f as a parameterized WHERE body for PostgreSQL.
// Placeholders are numbered from $1.
func whereClause(f nps.Filter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if !f.IsAllCategories() {
		args = append(args, f.Category)
		clauses = append(clauses, fmt.Sprintf("kategori = $%d", len(args)))
	}
	args = append(args, f.MinScore, f.MaxScore)
	clauses = append(clauses, fmt.Sprintf("skor_nps BETWEEN $%d AND $%d", len(args)-1, len(args)))
	if f.NameContains != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(f.NameContains))+"%")
		clauses = append(clauses, fmt.Sprintf(`LOWER(nama) LIKE $%d ESCAPE '\'`, len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// escapeLike makes LIKE match s literally, like strings.Contains does.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func categoriesQuery(table string) string {
	return fmt.Sprintf("SELECT DISTINCT kategori FROM %s ORDER BY kategori", table)
}

func categoryMeansQuery(table string, f nps.Filter) (string, []any) {
	where, args := whereClause(f)
	return fmt.Sprintf(`
		SELECT kategori, ROUND(AVG(skor_nps)::numeric, 2) AS mean_nps, COUNT(*) AS n
		FROM %s
		WHERE %s
		GROUP BY kategori
		ORDER BY kategori`, table, where), args
}

// sampleQuery orders by score only; a non-positive limit returns every row.
func sampleQuery(table string, f nps.Filter, limit int) (string, []any) {
	where, args := whereClause(f)
	q := fmt.Sprintf(`
		SELECT person_id::text, nama, kategori, skor_nps::int,
		       COALESCE(id_nps::text, ''), COALESCE(created_at::text, '')
		FROM %s
		WHERE %s
		ORDER BY skor_nps DESC`, table, where)
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf("\n\t\tLIMIT $%d", len(args))
	}
	return q, args
}

func kpiQuery(table string, f nps.Filter) (string, []any) {
	where, args := whereClause(f)
	return fmt.Sprintf(`
		SELECT COUNT(*), COUNT(DISTINCT person_id), ROUND(AVG(skor_nps)::numeric, 2)
		FROM %s
		WHERE %s`, table, where), args
}

// histogramQuery buckets scores the same way as nps.BinIndex: 100 lands in
// the last bin and negative scores in the first.
func histogramQuery(table string, f nps.Filter, bins int) (string, []any) {
	where, args := whereClause(f)
	return fmt.Sprintf(`
		SELECT LEAST(GREATEST(skor_nps::int, 0) * %d / 100, %d) AS bin, COUNT(*)
		FROM %s
		WHERE %s
		GROUP BY bin
		ORDER BY bin`, bins, bins-1, table, where), args
}
