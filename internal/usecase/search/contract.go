package search

import (
	"context"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/aggregation"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/filter"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
)

// Index runs compiled expressions against the partition index.
type Index interface {
	Search(
		ctx context.Context, partition string,
		expr filter.Expression, aggs aggregation.Request, from, size int,
	) (result.Raw, error)
}

// CatalogReader reads catalog metadata.
type CatalogReader interface {
	Get(ctx context.Context, partition string, path domcat.Path) (domcat.Metadata, error)
}

// RatingsProvider looks up the average rating of a dataset.
type RatingsProvider interface {
	AverageRating(ctx context.Context, partition, datasetID string) (result.Rating, error)
}
