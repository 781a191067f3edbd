package chi

import (
	"context"

	domcat "github.com/kailas-cloud/catalogdex/internal/domain/catalog"
	"github.com/kailas-cloud/catalogdex/internal/domain/catalog/field"
	domds "github.com/kailas-cloud/catalogdex/internal/domain/dataset"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/request"
	"github.com/kailas-cloud/catalogdex/internal/domain/search/result"
	datasetuc "github.com/kailas-cloud/catalogdex/internal/usecase/dataset"
	healthuc "github.com/kailas-cloud/catalogdex/internal/usecase/health"
)

// SearchService runs catalog searches.
type SearchService interface {
	Search(ctx context.Context, partition string, req *request.Request) (result.Envelope, error)
}

// DatasetService serves single-dataset reads.
type DatasetService interface {
	Get(ctx context.Context, partition, id, userID string) (datasetuc.View, error)
	Subscribers(ctx context.Context, partition, id string) ([]string, error)
}

// IndexingService mutates the dataset index.
type IndexingService interface {
	CreateMany(ctx context.Context, partition string, docs []domds.Document) (bool, error)
	CreateOne(ctx context.Context, partition string, doc domds.Document) (string, error)
	UpdateOne(ctx context.Context, partition, id string, doc domds.Document) error
	DeleteOne(ctx context.Context, partition, id string) error
}

// CatalogService registers and reads catalog metadata.
type CatalogService interface {
	Put(
		ctx context.Context, partition string, path domcat.Path,
		fields []field.Field, categories []domcat.Category,
	) (domcat.Metadata, error)
	Get(ctx context.Context, partition string, path domcat.Path) (domcat.Metadata, error)
}

// CountsService reads per-category document counts.
type CountsService interface {
	Counts(ctx context.Context, partition string) (map[string]int64, error)
}

// HealthService reports backing store health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
