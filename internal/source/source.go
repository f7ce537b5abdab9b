// Package source abstracts where NPS records come from: a database that
// aggregates server-side, or an in-memory table loaded from a file.
package source

import (
	"context"

	"github.com/KaramelBytes/npsmentor-cli/internal/nps"
)

// Source answers every dashboard query for one dataset.
type Source interface {
	// Categories returns the distinct categories in lexical order.
	Categories(ctx context.Context) ([]string, error)
	// CategoryMeans aggregates the records matching f, in lexical category order.
	CategoryMeans(ctx context.Context, f nps.Filter) ([]nps.CategorySummary, error)
	// Sample returns matching records ordered by descending score.
	// limit <= 0 returns every match.
	Sample(ctx context.Context, f nps.Filter, limit int) ([]nps.Record, error)
	KPIs(ctx context.Context, f nps.Filter) (nps.KPI, error)
	Histogram(ctx context.Context, f nps.Filter, bins int) ([]nps.Bin, error)
	// Describe names the dataset for report headers.
	Describe() string
	Close() error
}
