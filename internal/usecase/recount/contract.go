package recount

import (
	"context"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/filter"
)

// CatalogLister lists the catalogs registered in a partition.
type CatalogLister interface {
	List(ctx context.Context, partition string) ([]domcat.Metadata, error)
}

// Counter counts documents matching an expression.
type Counter interface {
	Count(ctx context.Context, partition string, expr filter.Expression) (int, error)
}

// CountsStore persists the per-category counts of a partition.
type CountsStore interface {
	Replace(ctx context.Context, partition string, counts map[string]int64) error
	Get(ctx context.Context, partition string) (map[string]int64, error)
}
